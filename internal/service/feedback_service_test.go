package service

import (
	"context"
	"testing"

	"github.com/MathijsBok/ticket-system-sub002/internal/auth"
	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

func newFeedbackService(env *testEnv) *FeedbackService {
	return NewFeedbackService(FeedbackDependencies{
		Store:  env.store,
		Tokens: auth.NewTokenManager("test-secret", 14),
		Clock:  env.clock.Now,
	})
}

func TestFeedbackFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	feedbackSvc := newFeedbackService(env)
	ticket := env.createTicket(t, domain.TicketStatusSolved)

	token, err := feedbackSvc.RequestFeedback(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token for a solved ticket")
	}

	feedback, err := feedbackSvc.SubmitFeedback(ctx, token, domain.RatingGood, "quick fix, thanks")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if feedback.Rating != domain.RatingGood || feedback.TicketID != ticket.ID {
		t.Fatalf("feedback = %+v", feedback)
	}

	entries, err := env.store.Activities().ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != domain.ActionFeedbackReceived {
		t.Fatalf("activities = %+v", entries)
	}
	if entries[0].ActorID == nil || *entries[0].ActorID != ticket.RequesterID {
		t.Fatal("feedback activity must be attributed to the requester")
	}

	// One submission per ticket.
	if _, err := feedbackSvc.SubmitFeedback(ctx, token, domain.RatingBad, "changed my mind"); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("second submit: got %v, want CONFLICT", err)
	}
}

func TestFeedbackTokenStillValidAfterClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	feedbackSvc := newFeedbackService(env)
	ticket := env.createTicket(t, domain.TicketStatusSolved)

	token, err := feedbackSvc.RequestFeedback(ctx, ticket.ID)
	if err != nil || token == "" {
		t.Fatalf("request: token=%q err=%v", token, err)
	}

	closed := env.getTicket(t, ticket.ID)
	closed.Status = domain.TicketStatusClosed
	now := env.clock.Now()
	closed.ClosedAt = &now
	if err := env.store.Tickets().Update(ctx, closed); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := feedbackSvc.SubmitFeedback(ctx, token, domain.RatingVeryGood, ""); err != nil {
		t.Fatalf("submit after close: %v", err)
	}
}

func TestFeedbackRequestSkipsUnresolvedTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	feedbackSvc := newFeedbackService(env)
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	token, err := feedbackSvc.RequestFeedback(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		t.Fatal("open ticket must not get a feedback token")
	}
}

func TestFeedbackSubmitRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	feedbackSvc := newFeedbackService(env)
	ticket := env.createTicket(t, domain.TicketStatusSolved)

	token, err := feedbackSvc.RequestFeedback(ctx, ticket.ID)
	if err != nil || token == "" {
		t.Fatalf("request: token=%q err=%v", token, err)
	}

	if _, err := feedbackSvc.SubmitFeedback(ctx, "not-a-token", domain.RatingGood, ""); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("garbage token: got %v, want UNAUTHORIZED", err)
	}
	if _, err := feedbackSvc.SubmitFeedback(ctx, token, domain.FeedbackRating(9), ""); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("bad rating: got %v, want VALIDATION_FAILED", err)
	}

	// A token signed with a different secret is rejected.
	otherTokens := auth.NewTokenManager("other-secret", 14)
	forged, err := otherTokens.IssueFeedbackToken(ticket.ID, "guess")
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := feedbackSvc.SubmitFeedback(ctx, forged, domain.RatingGood, ""); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("forged token: got %v, want UNAUTHORIZED", err)
	}
}

func TestFeedbackRequestIsIdempotentAfterSubmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	feedbackSvc := newFeedbackService(env)
	ticket := env.createTicket(t, domain.TicketStatusSolved)

	token, err := feedbackSvc.RequestFeedback(ctx, ticket.ID)
	if err != nil || token == "" {
		t.Fatalf("request: token=%q err=%v", token, err)
	}
	if _, err := feedbackSvc.SubmitFeedback(ctx, token, domain.RatingNeutral, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}

	again, err := feedbackSvc.RequestFeedback(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if again != "" {
		t.Fatal("no new token once feedback exists")
	}
}
