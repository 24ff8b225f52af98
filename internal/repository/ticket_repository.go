package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. All set fields are ANDed.
type TicketFilter struct {
	CreatorID *string
	Status    *domain.TicketStatus
	Category  *domain.TicketCategory
	Priority  *domain.TicketPriority
}

// TicketStats is a single-snapshot rollup of the ticket table.
type TicketStats struct {
	Total      int
	ByStatus   map[domain.TicketStatus]int
	ByCategory map[domain.TicketCategory]int
	ByPriority map[domain.TicketPriority]int
}

// MutateFunc validates and applies a change to a locked ticket. Returning an error
// aborts the transaction and leaves the stored ticket unchanged.
type MutateFunc func(ticket *domain.Ticket) error

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Mutate loads the ticket under a row lock, applies fn and commits the result.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Stats(ctx context.Context) (*TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const ticketSelect = `
        SELECT t.id, t.external_key, t.creator_id, c.name, t.assignee_id, a.name,
               t.title, t.description, t.category, t.priority, t.status, t.extra_data,
               t.created_at, t.updated_at, t.closed_at
        FROM tickets t
        JOIN users c ON c.id = t.creator_id
        LEFT JOIN users a ON a.id = t.assignee_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, creator_id, assignee_id, title, description, category, priority, status, extra_data)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.CreatorID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ExtraData,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error) {
	const update = `
        UPDATE tickets SET assignee_id=$1, title=$2, description=$3, category=$4, priority=$5,
            status=$6, extra_data=$7, closed_at=$8, updated_at=NOW()
        WHERE id=$9`

	var result *domain.Ticket
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ticket, err := fetchTicket(ctx, tx, ticketSelect+` WHERE t.id=$1 FOR UPDATE OF t`, id)
		if err != nil {
			return err
		}
		if err := fn(ticket); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, update,
			ticket.AssigneeID,
			ticket.Title,
			ticket.Description,
			ticket.Category,
			ticket.Priority,
			ticket.Status,
			ticket.ExtraData,
			ticket.ClosedAt,
			ticket.ID,
		); err != nil {
			return err
		}
		// Re-read inside the transaction to pick up the joined assignee name.
		result, err = fetchTicket(ctx, tx, ticketSelect+` WHERE t.id=$1`, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return result, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := fetchTicket(ctx, r.pool, ticketSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("t.creator_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC`, ticketSelect, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

// Stats runs as one statement so every bucket is computed from the same snapshot.
func (r *ticketRepository) Stats(ctx context.Context) (*TicketStats, error) {
	const query = `
        SELECT 'status', status, COUNT(*) FROM tickets GROUP BY status
        UNION ALL
        SELECT 'category', category, COUNT(*) FROM tickets GROUP BY category
        UNION ALL
        SELECT 'priority', priority, COUNT(*) FROM tickets GROUP BY priority`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := NewTicketStats()
	for rows.Next() {
		var dimension, key string
		var count int
		if err := rows.Scan(&dimension, &key, &count); err != nil {
			return nil, err
		}
		switch dimension {
		case "status":
			stats.ByStatus[domain.TicketStatus(key)] += count
			stats.Total += count
		case "category":
			stats.ByCategory[domain.TicketCategory(key)] += count
		case "priority":
			stats.ByPriority[domain.TicketPriority(key)] += count
		}
	}
	return stats, rows.Err()
}

// NewTicketStats returns stats with all six status buckets present and zeroed.
func NewTicketStats() *TicketStats {
	stats := &TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int, len(domain.TicketStatuses)),
		ByCategory: map[domain.TicketCategory]int{},
		ByPriority: map[domain.TicketPriority]int{},
	}
	for _, status := range domain.TicketStatuses {
		stats.ByStatus[status] = 0
	}
	return stats
}

func fetchTicket(ctx context.Context, q queryRower, query string, id string) (*domain.Ticket, error) {
	return scanTicket(q.QueryRow(ctx, query, id))
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.CreatorID,
		&ticket.CreatorName,
		&ticket.AssigneeID,
		&ticket.AssigneeName,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ExtraData,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
