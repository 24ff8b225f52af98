package dto

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StatisticsResponse is the dashboard rollup.
type StatisticsResponse struct {
	Total      int            `json:"total"`
	Open       int            `json:"open"`
	InProgress int            `json:"in_progress"`
	Waiting    int            `json:"waiting"`
	Resolved   int            `json:"resolved"`
	Closed     int            `json:"closed"`
	Cancelled  int            `json:"cancelled"`
	ByCategory map[string]int `json:"by_category"`
	ByPriority map[string]int `json:"by_priority"`
}

// NewStatisticsResponse maps the service rollup.
func NewStatisticsResponse(s *service.Statistics) StatisticsResponse {
	resp := StatisticsResponse{
		Total:      s.Total,
		Open:       s.ByStatus[domain.TicketStatusOpen],
		InProgress: s.ByStatus[domain.TicketStatusInProgress],
		Waiting:    s.ByStatus[domain.TicketStatusWaiting],
		Resolved:   s.ByStatus[domain.TicketStatusResolved],
		Closed:     s.ByStatus[domain.TicketStatusClosed],
		Cancelled:  s.ByStatus[domain.TicketStatusCancelled],
		ByCategory: make(map[string]int, len(s.ByCategory)),
		ByPriority: make(map[string]int, len(s.ByPriority)),
	}
	for k, v := range s.ByCategory {
		resp.ByCategory[string(k)] = v
	}
	for k, v := range s.ByPriority {
		resp.ByPriority[string(k)] = v
	}
	return resp
}
