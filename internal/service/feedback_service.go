package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/MathijsBok/ticket-system-sub002/internal/auth"
	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/events"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// FeedbackService issues feedback tokens after terminal transitions and
// accepts at most one submission per ticket. Tokens are signed; only the
// bcrypt hash of the embedded secret is stored, so a leaked database
// cannot forge submissions.
type FeedbackService struct {
	store      repository.Store
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	clock      func() time.Time
}

// FeedbackDependencies bundles collaborators for the feedback service.
type FeedbackDependencies struct {
	Store      repository.Store
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Clock      func() time.Time
}

// NewFeedbackService constructs the service.
func NewFeedbackService(deps FeedbackDependencies) *FeedbackService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &FeedbackService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		clock:      clock,
	}
}

// RequestFeedback issues a submission token for a resolved ticket. It is
// called best-effort from the notification hook after a solve; the solve
// itself never depends on it. Returns an empty token when the ticket no
// longer qualifies or feedback already exists.
func (s *FeedbackService) RequestFeedback(ctx context.Context, ticketID string) (string, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return "", mapTicketErr(err, ticketID)
	}
	if ticket.Status != domain.TicketStatusSolved && ticket.Status != domain.TicketStatusClosed {
		return "", nil
	}
	if _, err := s.store.Feedback().GetByTicket(ctx, ticketID); err == nil {
		return "", nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.MapError(err)
	}

	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if err := s.store.Feedback().SaveRequest(ctx, &domain.FeedbackRequest{
		TicketID:   ticketID,
		SecretHash: hash,
	}); err != nil {
		return "", apperrors.MapError(err)
	}
	token, err := s.tokens.IssueFeedbackToken(ticketID, secret)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return token, nil
}

// SubmitFeedback validates a feedback token and records the rating. One
// submission per ticket; the feedback row is never mutated afterwards.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, token string, rating domain.FeedbackRating, comment string) (*domain.Feedback, error) {
	ticketID, secret, err := s.tokens.ParseFeedbackToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid feedback token")
	}
	if !domain.ValidRating(rating) {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}

	var (
		feedback *domain.Feedback
		pending  []events.Event
	)
	err = s.store.WithTickets(ctx, []string{ticketID}, func(ctx context.Context, tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err, ticketID)
		}
		request, err := tx.Feedback().GetRequest(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("invalid feedback token")
			}
			return apperrors.MapError(err)
		}
		if bcrypt.CompareHashAndPassword(request.SecretHash, []byte(secret)) != nil {
			return apperrors.NewUnauthorized("invalid feedback token")
		}
		if _, err := tx.Feedback().GetByTicket(ctx, ticketID); err == nil {
			return apperrors.NewConflict("feedback already submitted", nil)
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		if ticket.Status != domain.TicketStatusSolved && ticket.Status != domain.TicketStatusClosed {
			return apperrors.NewConflict("ticket is not resolved", nil)
		}

		feedback = &domain.Feedback{
			TicketID: ticketID,
			Rating:   rating,
			Comment:  comment,
		}
		if err := tx.Feedback().Create(ctx, feedback); err != nil {
			return apperrors.MapError(err)
		}
		requesterID := ticket.RequesterID
		if err := tx.Activities().Create(ctx, &domain.Activity{
			TicketID: ticketID,
			Action:   domain.ActionFeedbackReceived,
			ActorID:  &requesterID,
			Details:  domain.FeedbackDetails{Rating: int(rating)},
		}); err != nil {
			return apperrors.MapError(err)
		}
		pending = append(pending, events.Event{
			ID:           uuid.NewString(),
			Type:         events.EventFeedbackReceived,
			TicketID:     ticket.ID,
			TicketNumber: ticket.Number,
			Actor:        events.Actor{ActorID: &requesterID, Role: domain.RoleUser},
			Timestamp:    s.clock(),
			Payload:      events.FeedbackReceivedPayload{Rating: int(rating)},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		for _, event := range pending {
			_ = s.dispatcher.Publish(ctx, event)
		}
	}
	return feedback, nil
}
