package service

import (
	"context"
	"testing"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

func newTicketService(env *testEnv) *TicketService {
	return NewTicketService(TicketDependencies{Store: env.store, Clock: env.clock.Now})
}

func TestCreateTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tickets := newTicketService(env)

	ticket, err := tickets.CreateTicket(ctx, userActor, CreateTicketInput{
		Subject: "cannot log in",
		Body:    "password reset loops forever",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Status != domain.TicketStatusNew {
		t.Fatalf("status = %s, want NEW", ticket.Status)
	}
	if ticket.Number == 0 || ticket.ID == "" {
		t.Fatalf("identity not assigned: %+v", ticket)
	}
	if ticket.RequesterID != userActor.ID {
		t.Fatalf("requester = %s", ticket.RequesterID)
	}
	if ticket.Priority != domain.TicketPriorityNormal || ticket.Type != domain.TicketTypeNormal {
		t.Fatalf("defaults not applied: %+v", ticket)
	}

	comments, err := env.store.Comments().ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Body != "password reset loops forever" {
		t.Fatalf("comments = %+v", comments)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tickets := newTicketService(env)

	if _, err := tickets.CreateTicket(ctx, userActor, CreateTicketInput{Body: "x"}); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("missing subject: got %v", err)
	}
	if _, err := tickets.CreateTicket(ctx, userActor, CreateTicketInput{Subject: "x"}); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("missing body: got %v", err)
	}
	if _, err := tickets.CreateTicket(ctx, userActor, CreateTicketInput{
		Subject: "x", Body: "y", Priority: domain.TicketPriority("EXTREME"),
	}); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("bad priority: got %v", err)
	}
}

func TestGetTicketHidesInternalNotesFromRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tickets := newTicketService(env)
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	if _, err := env.lifecycle.SubmitReply(ctx, userActor, ticket.ID, ReplyInput{Body: "public question"}); err != nil {
		t.Fatalf("public reply: %v", err)
	}
	if _, err := env.lifecycle.SubmitReply(ctx, agentActor, ticket.ID, ReplyInput{Body: "internal theory", IsInternal: true}); err != nil {
		t.Fatalf("internal note: %v", err)
	}

	asUser, err := tickets.GetTicket(ctx, userActor, ticket.ID)
	if err != nil {
		t.Fatalf("get as user: %v", err)
	}
	for _, c := range asUser.Comments {
		if c.IsInternal {
			t.Fatal("internal note leaked to requester")
		}
	}
	if len(asUser.Comments) != 1 {
		t.Fatalf("user sees %d comments, want 1", len(asUser.Comments))
	}

	asAgent, err := tickets.GetTicket(ctx, agentActor, ticket.ID)
	if err != nil {
		t.Fatalf("get as agent: %v", err)
	}
	if len(asAgent.Comments) != 2 {
		t.Fatalf("agent sees %d comments, want 2", len(asAgent.Comments))
	}
}

func TestGetTicketAccessControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tickets := newTicketService(env)
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	stranger := &domain.Actor{ID: "user-2", Role: domain.RoleUser}
	if _, err := tickets.GetTicket(ctx, stranger, ticket.ID); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("stranger: got %v, want FORBIDDEN", err)
	}
	if _, err := tickets.GetTicket(ctx, agentActor, "no-such-id"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("missing: got %v, want NOT_FOUND", err)
	}
}

func TestGetTicketExposesMergeContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tickets := newTicketService(env)
	source := env.createTicket(t, domain.TicketStatusOpen)
	target := env.createTicket(t, domain.TicketStatusOpen)
	if _, err := env.merges.Merge(ctx, agentActor, []string{source.ID}, target.ID, ""); err != nil {
		t.Fatalf("merge: %v", err)
	}

	sourceDetail, err := tickets.GetTicket(ctx, agentActor, source.ID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if sourceDetail.MergedIntoNum == nil || *sourceDetail.MergedIntoNum != target.Number {
		t.Fatalf("source merge pointer = %v", sourceDetail.MergedIntoNum)
	}

	targetDetail, err := tickets.GetTicket(ctx, agentActor, target.ID)
	if err != nil {
		t.Fatalf("get target: %v", err)
	}
	if len(targetDetail.MergedTickets) != 1 || targetDetail.MergedTickets[0].ID != source.ID {
		t.Fatalf("target merged list = %+v", targetDetail.MergedTickets)
	}
}

func TestListTicketsScopesRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tickets := newTicketService(env)
	mine := env.createTicket(t, domain.TicketStatusOpen)
	env.createTicket(t, domain.TicketStatusOpen, func(tk *domain.Ticket) {
		tk.RequesterID = "user-2"
	})

	asUser, err := tickets.ListTickets(ctx, userActor, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("list as user: %v", err)
	}
	if len(asUser) != 1 || asUser[0].ID != mine.ID {
		t.Fatalf("user list = %+v", asUser)
	}

	asAgent, err := tickets.ListTickets(ctx, agentActor, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("list as agent: %v", err)
	}
	if len(asAgent) != 2 {
		t.Fatalf("agent sees %d tickets, want 2", len(asAgent))
	}
}
