package repository

import (
	"context"
	"time"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// AttachmentRepository encapsulates attachment metadata. Retention marks
// rows deleted rather than removing them.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	ListExpired(ctx context.Context, before time.Time) ([]domain.Attachment, error)
	MarkDeleted(ctx context.Context, id string, at time.Time) error
}

type attachmentRepository struct {
	q Querier
}

// NewAttachmentRepository instantiates a pgx-backed repository.
func NewAttachmentRepository(q Querier) AttachmentRepository {
	return &attachmentRepository{q: q}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, comment_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.CommentID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, comment_id, storage_key, file_name, mime_type, size_bytes, created_at, deleted_at
        FROM attachments WHERE ticket_id=$1 AND deleted_at IS NULL ORDER BY created_at`
	return r.list(ctx, query, ticketID)
}

func (r *attachmentRepository) ListExpired(ctx context.Context, before time.Time) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, comment_id, storage_key, file_name, mime_type, size_bytes, created_at, deleted_at
        FROM attachments WHERE deleted_at IS NULL AND created_at <= $1 ORDER BY created_at`
	return r.list(ctx, query, before)
}

func (r *attachmentRepository) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE attachments SET deleted_at=$1 WHERE id=$2 AND deleted_at IS NULL`
	_, err := r.q.Exec(ctx, query, at, id)
	return err
}

func (r *attachmentRepository) list(ctx context.Context, query string, arg any) ([]domain.Attachment, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.TicketID, &a.CommentID, &a.StorageKey, &a.FileName,
			&a.MimeType, &a.SizeBytes, &a.CreatedAt, &a.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
