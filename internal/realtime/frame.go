// Package realtime fans ticket events out to connected live clients.
package realtime

import "github.com/spec-kit/helpdesk-service/internal/domain"

// FrameType names an outbound live frame.
type FrameType string

const (
	FrameTicketCreated FrameType = "ticket_created"
	FrameTicketUpdated FrameType = "ticket_updated"
	FrameCommentAdded  FrameType = "comment_added"
	FrameTicketViewed  FrameType = "ticket_viewed"
)

// Frame is the JSON object written to every live client.
type Frame struct {
	Type     FrameType           `json:"type"`
	TicketID string              `json:"ticket_id"`
	Status   domain.TicketStatus `json:"status,omitempty"`
	UserID   string              `json:"user_id,omitempty"`
}

// inbound is a control message read from a client.
type inbound struct {
	Type     string `json:"type"`
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
}

const inboundViewTicket = "view_ticket"

// Broadcaster publishes frames to every live client.
type Broadcaster interface {
	Broadcast(frame Frame)
}
