package domain

import "time"

// Attachment stores metadata for a file attached to a ticket.
type Attachment struct {
	ID          string
	TicketID    string
	FileName    string
	StoragePath string
	SizeBytes   int64
	CreatedAt   time.Time
}
