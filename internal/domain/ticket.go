package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusWaiting    TicketStatus = "waiting"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusWaiting,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further automatic transition follows s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed || s == TicketStatusCancelled
}

// Closes reports whether entering s stamps closed_at.
func (s TicketStatus) Closes() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory classifies the reported problem.
type TicketCategory string

const (
	TicketCategoryHardware TicketCategory = "hardware"
	TicketCategorySoftware TicketCategory = "software"
	TicketCategoryNetwork  TicketCategory = "network"
	TicketCategoryEmail    TicketCategory = "email"
	TicketCategorySystem   TicketCategory = "system"
	TicketCategoryNewHire  TicketCategory = "new_hire"
	TicketCategoryOther    TicketCategory = "other"
)

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryHardware, TicketCategorySoftware, TicketCategoryNetwork, TicketCategoryEmail,
		TicketCategorySystem, TicketCategoryNewHire, TicketCategoryOther:
		return true
	}
	return false
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID           string
	ExternalKey  string
	CreatorID    string
	CreatorName  string
	AssigneeID   *string
	AssigneeName *string
	Title        string
	Description  string
	Category     TicketCategory
	Priority     TicketPriority
	Status       TicketStatus
	ExtraData    map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

// Optional marks a patch field as present, possibly with a zero value.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TicketPatch carries the fields a caller asked to change. Unset fields are left untouched.
type TicketPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Category    Optional[TicketCategory]
	Priority    Optional[TicketPriority]
	Status      Optional[TicketStatus]
	AssigneeID  Optional[*string]
	ExtraData   Optional[map[string]any]
}

// Empty reports whether the patch names no field.
func (p TicketPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Category.Set && !p.Priority.Set &&
		!p.Status.Set && !p.AssigneeID.Set && !p.ExtraData.Set
}

// TicketDetail bundles a ticket with its thread and attachments.
type TicketDetail struct {
	Ticket      Ticket
	Comments    []Comment
	Attachments []Attachment
}
