package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts pgxpool.Pool and pgx.Tx so repositories run both
// inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the engine's repositories and provides per-ticket
// transactional isolation. Every ticket mutation plus its Activity and
// Comment writes must happen inside WithTickets so they commit as one
// atomic operation.
type Store interface {
	Tickets() TicketRepository
	Comments() CommentRepository
	Activities() ActivityRepository
	Feedback() FeedbackRepository
	Attachments() AttachmentRepository

	// WithTickets serializes against concurrent operations on the given
	// tickets (locks are taken in sorted id order so overlapping sets do
	// not deadlock) and runs fn against a transactional view. If fn
	// returns an error nothing is persisted.
	WithTickets(ctx context.Context, ticketIDs []string, fn func(ctx context.Context, tx Store) error) error
}

// PostgresStore is the pgx-backed Store. Row locks (SELECT ... FOR UPDATE)
// provide the per-ticket serialization.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    Querier
}

// NewPostgresStore wraps a connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

func (s *PostgresStore) Tickets() TicketRepository         { return &ticketRepository{q: s.q} }
func (s *PostgresStore) Comments() CommentRepository       { return &commentRepository{q: s.q} }
func (s *PostgresStore) Activities() ActivityRepository    { return &activityRepository{q: s.q} }
func (s *PostgresStore) Feedback() FeedbackRepository      { return &feedbackRepository{q: s.q} }
func (s *PostgresStore) Attachments() AttachmentRepository { return &attachmentRepository{q: s.q} }

// WithTickets opens a transaction, locks the ticket rows in sorted order
// and hands fn a Store view bound to the transaction.
func (s *PostgresStore) WithTickets(ctx context.Context, ticketIDs []string, fn func(ctx context.Context, tx Store) error) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, id := range sortedUnique(ticketIDs) {
		if _, err := tx.Exec(ctx, `SELECT id FROM tickets WHERE id=$1 FOR UPDATE`, id); err != nil {
			return err
		}
	}
	if err := fn(ctx, &PostgresStore{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
