package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Statistics is the dashboard rollup. ByStatus always carries every status;
// ByCategory and ByPriority only list values with at least one ticket.
type Statistics struct {
	Total      int
	ByStatus   map[domain.TicketStatus]int
	ByCategory map[domain.TicketCategory]int
	ByPriority map[domain.TicketPriority]int
}

// StatisticsService serves read-only ticket rollups.
type StatisticsService struct {
	tickets repository.TicketRepository
}

// NewStatisticsService builds the service.
func NewStatisticsService(tickets repository.TicketRepository) *StatisticsService {
	return &StatisticsService{tickets: tickets}
}

// GetStatistics returns counts taken from one snapshot of the store. IT only.
func (s *StatisticsService) GetStatistics(ctx context.Context, actor *domain.User) (*Statistics, error) {
	if err := auth.CheckRole(actor, domain.RoleIT); err != nil {
		return nil, err
	}
	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, mapRepoError(err, "statistics")
	}

	result := &Statistics{
		Total:      stats.Total,
		ByStatus:   make(map[domain.TicketStatus]int, len(domain.TicketStatuses)),
		ByCategory: map[domain.TicketCategory]int{},
		ByPriority: map[domain.TicketPriority]int{},
	}
	for _, status := range domain.TicketStatuses {
		result.ByStatus[status] = stats.ByStatus[status]
	}
	for category, n := range stats.ByCategory {
		if n > 0 {
			result.ByCategory[category] = n
		}
	}
	for priority, n := range stats.ByPriority {
		if n > 0 {
			result.ByPriority[priority] = n
		}
	}
	return result, nil
}
