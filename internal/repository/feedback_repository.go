package repository

import (
	"context"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// FeedbackRepository persists feedback requests (token secret hashes) and
// submitted feedback. One feedback row per ticket, enforced by the store.
type FeedbackRepository interface {
	SaveRequest(ctx context.Context, req *domain.FeedbackRequest) error
	GetRequest(ctx context.Context, ticketID string) (*domain.FeedbackRequest, error)
	Create(ctx context.Context, feedback *domain.Feedback) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Feedback, error)
}

type feedbackRepository struct {
	q Querier
}

// NewFeedbackRepository instantiates a pgx-backed repository.
func NewFeedbackRepository(q Querier) FeedbackRepository {
	return &feedbackRepository{q: q}
}

func (r *feedbackRepository) SaveRequest(ctx context.Context, req *domain.FeedbackRequest) error {
	const query = `
        INSERT INTO feedback_requests (ticket_id, secret_hash)
        VALUES ($1,$2)
        ON CONFLICT (ticket_id) DO UPDATE SET secret_hash=EXCLUDED.secret_hash
        RETURNING created_at`
	return r.q.QueryRow(ctx, query, req.TicketID, req.SecretHash).Scan(&req.CreatedAt)
}

func (r *feedbackRepository) GetRequest(ctx context.Context, ticketID string) (*domain.FeedbackRequest, error) {
	const query = `SELECT ticket_id, secret_hash, created_at FROM feedback_requests WHERE ticket_id=$1`
	var req domain.FeedbackRequest
	if err := r.q.QueryRow(ctx, query, ticketID).Scan(&req.TicketID, &req.SecretHash, &req.CreatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        INSERT INTO feedback (ticket_id, rating, comment)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		feedback.TicketID,
		feedback.Rating,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt)
}

func (r *feedbackRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Feedback, error) {
	const query = `SELECT id, ticket_id, rating, comment, created_at FROM feedback WHERE ticket_id=$1`
	var fb domain.Feedback
	if err := r.q.QueryRow(ctx, query, ticketID).Scan(&fb.ID, &fb.TicketID, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
		return nil, err
	}
	return &fb, nil
}
