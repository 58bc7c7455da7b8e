package repository

import (
	"context"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// ActivityRepository encapsulates the append-only audit log. Entries are
// never mutated or deleted.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error)
}

type activityRepository struct {
	q Querier
}

// NewActivityRepository instantiates a pgx-backed repository.
func NewActivityRepository(q Querier) ActivityRepository {
	return &activityRepository{q: q}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	payload, err := domain.EncodeDetails(activity.Details)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO activities (ticket_id, action, actor_id, details)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		activity.TicketID,
		activity.Action,
		activity.ActorID,
		payload,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error) {
	const query = `
        SELECT id, ticket_id, action, actor_id, details, created_at
        FROM activities WHERE ticket_id=$1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		var (
			a       domain.Activity
			payload []byte
		)
		if err := rows.Scan(&a.ID, &a.TicketID, &a.Action, &a.ActorID, &payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		details, err := domain.DecodeDetails(a.Action, payload)
		if err != nil {
			return nil, err
		}
		a.Details = details
		result = append(result, a)
	}
	return result, rows.Err()
}
