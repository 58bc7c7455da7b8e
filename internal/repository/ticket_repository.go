package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Type        *domain.TicketType
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. The sweep-specific
// list methods evaluate rule preconditions in the store; callers must
// still re-check inside the ticket lock before acting.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number int64) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListIncidents(ctx context.Context, problemID string) ([]domain.Ticket, error)
	ListOpenIncidents(ctx context.Context, problemID string) ([]domain.Ticket, error)
	ListMergedInto(ctx context.Context, targetID string) ([]domain.Ticket, error)
	ListPendingForReminder(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
	ListPendingForAutoSolve(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
	ListSolvedForAutoClose(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
}

const ticketColumns = `id, number, requester_id, assignee_id, subject, status, priority, type,
       category, channel, country, device, merged_into_id, problem_id,
       created_at, updated_at, solved_at, closed_at, pending_since, reminder_sent_at,
       last_requester_reply_at, last_agent_reply_at`

type ticketRepository struct {
	q Querier
}

// NewTicketRepository instantiates a pgx-backed repository.
func NewTicketRepository(q Querier) TicketRepository {
	return &ticketRepository{q: q}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (requester_id, assignee_id, subject, status, priority, type, category,
                             channel, country, device)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, number, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		ticket.RequesterID,
		ticket.AssigneeID,
		ticket.Subject,
		ticket.Status,
		ticket.Priority,
		ticket.Type,
		ticket.Category,
		ticket.Channel,
		ticket.Country,
		ticket.Device,
	).Scan(&ticket.ID, &ticket.Number, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assignee_id=$1, subject=$2, status=$3, priority=$4, type=$5,
            category=$6, merged_into_id=$7, problem_id=$8, solved_at=$9, closed_at=$10,
            pending_since=$11, reminder_sent_at=$12, last_requester_reply_at=$13,
            last_agent_reply_at=$14, updated_at=NOW()
        WHERE id=$15`
	cmd, err := r.q.Exec(ctx, query,
		ticket.AssigneeID,
		ticket.Subject,
		ticket.Status,
		ticket.Priority,
		ticket.Type,
		ticket.Category,
		ticket.MergedIntoID,
		ticket.ProblemID,
		ticket.SolvedAt,
		ticket.ClosedAt,
		ticket.PendingSince,
		ticket.ReminderSentAt,
		ticket.LastRequesterReplyAt,
		ticket.LastAgentReplyAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE number=$1`
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.q.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("LOWER(subject) LIKE $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListIncidents(ctx context.Context, problemID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE problem_id=$1 AND type=$2 ORDER BY number`
	rows, err := r.q.Query(ctx, query, problemID, domain.TicketTypeIncident)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListOpenIncidents(ctx context.Context, problemID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE problem_id=$1 AND type=$2 AND status NOT IN ($3,$4)
        ORDER BY number`
	rows, err := r.q.Query(ctx, query, problemID, domain.TicketTypeIncident,
		domain.TicketStatusSolved, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListMergedInto(ctx context.Context, targetID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE merged_into_id=$1 ORDER BY closed_at DESC`
	rows, err := r.q.Query(ctx, query, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListPendingForReminder(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status=$1 AND merged_into_id IS NULL AND reminder_sent_at IS NULL
          AND COALESCE(last_agent_reply_at, pending_since) <= $2
        ORDER BY number`
	rows, err := r.q.Query(ctx, query, domain.TicketStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListPendingForAutoSolve(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status=$1 AND merged_into_id IS NULL
          AND COALESCE(last_agent_reply_at, pending_since) <= $2
          AND (last_requester_reply_at IS NULL
               OR last_requester_reply_at < COALESCE(last_agent_reply_at, pending_since))
        ORDER BY number`
	rows, err := r.q.Query(ctx, query, domain.TicketStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListSolvedForAutoClose(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status=$1 AND merged_into_id IS NULL AND solved_at <= $2
        ORDER BY number`
	rows, err := r.q.Query(ctx, query, domain.TicketStatusSolved, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.Subject,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Type,
		&ticket.Category,
		&ticket.Channel,
		&ticket.Country,
		&ticket.Device,
		&ticket.MergedIntoID,
		&ticket.ProblemID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.SolvedAt,
		&ticket.ClosedAt,
		&ticket.PendingSince,
		&ticket.ReminderSentAt,
		&ticket.LastRequesterReplyAt,
		&ticket.LastAgentReplyAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
