package service

import (
	"context"
	"testing"
	"time"

	"github.com/MathijsBok/ticket-system-sub002/internal/config"
	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testAutomation() config.AutomationConfig {
	return config.AutomationConfig{
		PendingReminderEnabled: true,
		PendingReminderHours:   24,
		AutoSolveEnabled:       true,
		AutoSolveHours:         48,
		AutoCloseEnabled:       true,
		AutoCloseHours:         96,
		TicketTimeoutSeconds:   10,
	}
}

type testEnv struct {
	store     *repository.MemoryStore
	clock     *fakeClock
	lifecycle *LifecycleService
	merges    *MergeService
	problems  *ProblemService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := newFakeClock()
	return &testEnv{
		store: store,
		clock: clock,
		lifecycle: NewLifecycleService(LifecycleDependencies{
			Store:      store,
			Automation: testAutomation(),
			Clock:      clock.Now,
		}),
		merges: NewMergeService(MergeDependencies{
			Store: store,
			Clock: clock.Now,
		}),
		problems: NewProblemService(store),
	}
}

var (
	agentActor = &domain.Actor{ID: "agent-1", Role: domain.RoleAgent}
	userActor  = &domain.Actor{ID: "user-1", Role: domain.RoleUser}
)

func (e *testEnv) createTicket(t *testing.T, status domain.TicketStatus, mutate ...func(*domain.Ticket)) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	ticket := &domain.Ticket{
		RequesterID: userActor.ID,
		Subject:     "printer on fire",
		Status:      domain.TicketStatusNew,
		Priority:    domain.TicketPriorityNormal,
		Type:        domain.TicketTypeNormal,
		Channel:     domain.ChannelWeb,
	}
	if err := e.store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	ticket.Status = status
	if status == domain.TicketStatusPending {
		now := e.clock.Now()
		ticket.PendingSince = &now
	}
	if status == domain.TicketStatusSolved {
		now := e.clock.Now()
		ticket.SolvedAt = &now
	}
	for _, fn := range mutate {
		fn(ticket)
	}
	if err := e.store.Tickets().Update(ctx, ticket); err != nil {
		t.Fatalf("update ticket: %v", err)
	}
	return ticket
}

func (e *testEnv) getTicket(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := e.store.Tickets().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	return ticket
}

func (e *testEnv) activities(t *testing.T, id string) []domain.Activity {
	t.Helper()
	entries, err := e.store.Activities().ListByTicket(context.Background(), id)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	return entries
}

func TestTransitionHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	updated, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusPending)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != domain.TicketStatusPending {
		t.Fatalf("status = %s, want PENDING", updated.Status)
	}
	if updated.PendingSince == nil || !updated.PendingSince.Equal(env.clock.Now()) {
		t.Fatalf("PendingSince not set on entering PENDING")
	}

	entries := env.activities(t, ticket.ID)
	if len(entries) != 1 {
		t.Fatalf("got %d activities, want 1", len(entries))
	}
	if entries[0].Action != domain.ActionStatusChanged {
		t.Fatalf("action = %s", entries[0].Action)
	}
	details := entries[0].Details.(domain.StatusChangeDetails)
	if details.OldStatus != domain.TicketStatusOpen || details.NewStatus != domain.TicketStatusPending {
		t.Fatalf("details = %+v", details)
	}
}

func TestTransitionLeavingPendingClearsPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reminder := env.clock.Now()
	ticket := env.createTicket(t, domain.TicketStatusPending, func(tk *domain.Ticket) {
		tk.ReminderSentAt = &reminder
	})

	updated, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusOpen)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.PendingSince != nil || updated.ReminderSentAt != nil {
		t.Fatal("pending period fields must be cleared on leaving PENDING")
	}
}

func TestTransitionClosedIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusClosed)

	for _, next := range []domain.TicketStatus{
		domain.TicketStatusNew, domain.TicketStatusOpen, domain.TicketStatusPending,
		domain.TicketStatusOnHold, domain.TicketStatusSolved,
	} {
		_, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, next)
		if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
			t.Fatalf("CLOSED -> %s: got %v, want INVALID_TRANSITION", next, err)
		}
	}
	if len(env.activities(t, ticket.ID)) != 0 {
		t.Fatal("rejected transitions must not write activities")
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	if _, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusOpen); err != nil {
		t.Fatalf("same-status transition: %v", err)
	}
	if len(env.activities(t, ticket.ID)) != 0 {
		t.Fatal("no-op transition must not write an activity")
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	_, err := env.lifecycle.Transition(context.Background(), agentActor, ticket.ID, domain.TicketStatus("BOGUS"))
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("got %v, want INVALID_TRANSITION", err)
	}
}

func TestTransitionMergedTicketRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := env.createTicket(t, domain.TicketStatusOpen)
	source := env.createTicket(t, domain.TicketStatusClosed, func(tk *domain.Ticket) {
		tk.MergedIntoID = &target.ID
	})

	_, err := env.lifecycle.Transition(ctx, agentActor, source.ID, domain.TicketStatusOpen)
	if !apperrors.HasCode(err, apperrors.CodeTicketMerged) {
		t.Fatalf("got %v, want TICKET_MERGED", err)
	}
}

func TestSolvedAtSetOnceAcrossReopen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	if _, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusSolved); err != nil {
		t.Fatalf("solve: %v", err)
	}
	firstSolvedAt := env.getTicket(t, ticket.ID).SolvedAt
	if firstSolvedAt == nil {
		t.Fatal("SolvedAt not set")
	}

	env.clock.Advance(2 * time.Hour)
	if _, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusOpen); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	env.clock.Advance(2 * time.Hour)
	if _, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusSolved); err != nil {
		t.Fatalf("re-solve: %v", err)
	}
	if got := env.getTicket(t, ticket.ID).SolvedAt; !got.Equal(*firstSolvedAt) {
		t.Fatalf("SolvedAt changed on re-solve: %v -> %v", firstSolvedAt, got)
	}
}

func TestProblemSolveCascadesToOpenIncidents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	problem := env.createTicket(t, domain.TicketStatusOpen, func(tk *domain.Ticket) {
		tk.Type = domain.TicketTypeProblem
	})
	openIncident := env.createTicket(t, domain.TicketStatusOpen, func(tk *domain.Ticket) {
		tk.Type = domain.TicketTypeIncident
		tk.ProblemID = &problem.ID
	})
	solvedAt := env.clock.Now().Add(-time.Hour)
	solvedIncident := env.createTicket(t, domain.TicketStatusSolved, func(tk *domain.Ticket) {
		tk.Type = domain.TicketTypeIncident
		tk.ProblemID = &problem.ID
		tk.SolvedAt = &solvedAt
	})

	if _, err := env.lifecycle.Transition(ctx, agentActor, problem.ID, domain.TicketStatusSolved); err != nil {
		t.Fatalf("solve problem: %v", err)
	}

	if got := env.getTicket(t, openIncident.ID); got.Status != domain.TicketStatusSolved {
		t.Fatalf("open incident status = %s, want SOLVED", got.Status)
	}
	if got := env.getTicket(t, solvedIncident.ID); !got.SolvedAt.Equal(solvedAt) {
		t.Fatal("already solved incident must be untouched")
	}

	entries := env.activities(t, openIncident.ID)
	if len(entries) != 1 || entries[0].Action != domain.ActionTicketAutoSolved {
		t.Fatalf("cascade activity = %+v", entries)
	}
}

func TestSubmitReplyAgentAutoAssignsAndOpens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusNew)

	comment, err := env.lifecycle.SubmitReply(ctx, agentActor, ticket.ID, ReplyInput{Body: "looking into it"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if comment.IsInternal {
		t.Fatal("reply must be public")
	}

	updated := env.getTicket(t, ticket.ID)
	if updated.AssigneeID == nil || *updated.AssigneeID != agentActor.ID {
		t.Fatal("unassigned ticket must be assigned to the replying agent")
	}
	if updated.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN", updated.Status)
	}
	if updated.LastAgentReplyAt == nil {
		t.Fatal("LastAgentReplyAt not set")
	}

	entries := env.activities(t, ticket.ID)
	if len(entries) != 2 {
		t.Fatalf("got %d activities, want assignee change + status change", len(entries))
	}
	if entries[0].Action != domain.ActionAssigneeChanged || entries[1].Action != domain.ActionStatusChanged {
		t.Fatalf("actions = %s, %s", entries[0].Action, entries[1].Action)
	}
}

func TestSubmitReplyAgentKeepStatusPersistsAssignment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	open := domain.TicketStatusOpen
	if _, err := env.lifecycle.SubmitReply(ctx, agentActor, ticket.ID, ReplyInput{
		Body:   "on it",
		Status: &open,
	}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	updated := env.getTicket(t, ticket.ID)
	if updated.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN", updated.Status)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != agentActor.ID {
		t.Fatalf("assignee = %v, want the replying agent", updated.AssigneeID)
	}
	if updated.LastAgentReplyAt == nil {
		t.Fatal("LastAgentReplyAt not persisted")
	}

	// The audit log and the ticket row must agree: one assignee change,
	// no status change.
	entries := env.activities(t, ticket.ID)
	if len(entries) != 1 || entries[0].Action != domain.ActionAssigneeChanged {
		t.Fatalf("activities = %+v", entries)
	}
}

func TestSubmitReplyAgentWithStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen, func(tk *domain.Ticket) {
		assignee := agentActor.ID
		tk.AssigneeID = &assignee
	})

	pendingStatus := domain.TicketStatusPending
	if _, err := env.lifecycle.SubmitReply(ctx, agentActor, ticket.ID, ReplyInput{
		Body:   "waiting on your logs",
		Status: &pendingStatus,
	}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	updated := env.getTicket(t, ticket.ID)
	if updated.Status != domain.TicketStatusPending {
		t.Fatalf("status = %s, want PENDING", updated.Status)
	}
	if updated.PendingSince == nil {
		t.Fatal("PendingSince not set")
	}
}

func TestSubmitReplyInternalNoteKeepsStatusAndAssignee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusNew)

	if _, err := env.lifecycle.SubmitReply(ctx, agentActor, ticket.ID, ReplyInput{
		Body:       "suspect faulty fuser",
		IsInternal: true,
	}); err != nil {
		t.Fatalf("note: %v", err)
	}
	updated := env.getTicket(t, ticket.ID)
	if updated.Status != domain.TicketStatusNew {
		t.Fatalf("status = %s, internal note must not open the ticket", updated.Status)
	}
	if updated.AssigneeID != nil {
		t.Fatal("internal note must not auto-assign")
	}
}

func TestSubmitReplyRequesterReopens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, status := range []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusSolved} {
		ticket := env.createTicket(t, status)
		if _, err := env.lifecycle.SubmitReply(ctx, userActor, ticket.ID, ReplyInput{Body: "still broken"}); err != nil {
			t.Fatalf("%s: reply: %v", status, err)
		}
		updated := env.getTicket(t, ticket.ID)
		if updated.Status != domain.TicketStatusOpen {
			t.Fatalf("%s: status = %s, want OPEN", status, updated.Status)
		}
		if updated.PendingSince != nil {
			t.Fatalf("%s: pending period must end on requester reply", status)
		}
		if updated.LastRequesterReplyAt == nil {
			t.Fatalf("%s: LastRequesterReplyAt not set", status)
		}
	}
}

func TestSubmitReplyRejectedPastBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	solvedAt := env.clock.Now().Add(-97 * time.Hour)
	ticket := env.createTicket(t, domain.TicketStatusSolved, func(tk *domain.Ticket) {
		tk.SolvedAt = &solvedAt
	})

	_, err := env.lifecycle.SubmitReply(ctx, userActor, ticket.ID, ReplyInput{Body: "too late?"})
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("got %v, want INVALID_TRANSITION", err)
	}
	if comments, _ := env.store.Comments().ListByTicket(ctx, ticket.ID); len(comments) != 0 {
		t.Fatal("rejected reply must not persist a comment")
	}
}

func TestSubmitReplyUserRestrictions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	if _, err := env.lifecycle.SubmitReply(ctx, userActor, ticket.ID, ReplyInput{Body: "x", IsInternal: true}); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("internal note by user: got %v, want FORBIDDEN", err)
	}
	solved := domain.TicketStatusSolved
	if _, err := env.lifecycle.SubmitReply(ctx, userActor, ticket.ID, ReplyInput{Body: "x", Status: &solved}); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("status set by user: got %v, want FORBIDDEN", err)
	}
	stranger := &domain.Actor{ID: "user-2", Role: domain.RoleUser}
	if _, err := env.lifecycle.SubmitReply(ctx, stranger, ticket.ID, ReplyInput{Body: "x"}); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("foreign requester: got %v, want FORBIDDEN", err)
	}
}

func TestUpdateFieldsWritesOneActivityPerChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen)

	high := domain.TicketPriorityHigh
	category := "hardware"
	assignee := "agent-9"
	if _, err := env.lifecycle.UpdateFields(ctx, agentActor, ticket.ID, TicketFieldUpdate{
		Priority:   &high,
		Category:   &category,
		AssigneeID: &assignee,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	entries := env.activities(t, ticket.ID)
	if len(entries) != 3 {
		t.Fatalf("got %d activities, want 3", len(entries))
	}

	// A second identical update changes nothing and logs nothing.
	if _, err := env.lifecycle.UpdateFields(ctx, agentActor, ticket.ID, TicketFieldUpdate{
		Priority:   &high,
		Category:   &category,
		AssigneeID: &assignee,
	}); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	if got := len(env.activities(t, ticket.ID)); got != 3 {
		t.Fatalf("idempotent update wrote activities: %d", got)
	}
}

func TestUpdateFieldsTypeChangeGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	problem := env.createTicket(t, domain.TicketStatusOpen, func(tk *domain.Ticket) {
		tk.Type = domain.TicketTypeProblem
	})
	incident := env.createTicket(t, domain.TicketStatusOpen, func(tk *domain.Ticket) {
		tk.Type = domain.TicketTypeIncident
		tk.ProblemID = &problem.ID
	})

	normal := domain.TicketTypeNormal
	if _, err := env.lifecycle.UpdateFields(ctx, agentActor, problem.ID, TicketFieldUpdate{Type: &normal}); !apperrors.HasCode(err, apperrors.CodeInvalidLinkTarget) {
		t.Fatalf("problem with incidents: got %v, want INVALID_LINK_TARGET", err)
	}
	if _, err := env.lifecycle.UpdateFields(ctx, agentActor, incident.ID, TicketFieldUpdate{Type: &normal}); !apperrors.HasCode(err, apperrors.CodeInvalidLinkTarget) {
		t.Fatalf("linked incident: got %v, want INVALID_LINK_TARGET", err)
	}
}

func TestAutoSolveAfterThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pendingSince := env.clock.Now().Add(-49 * time.Hour)
	ticket := env.createTicket(t, domain.TicketStatusPending, func(tk *domain.Ticket) {
		tk.PendingSince = &pendingSince
	})

	acted, err := env.lifecycle.AutoSolve(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("auto-solve: %v", err)
	}
	if !acted {
		t.Fatal("expected auto-solve to act")
	}
	updated := env.getTicket(t, ticket.ID)
	if updated.Status != domain.TicketStatusSolved {
		t.Fatalf("status = %s, want SOLVED", updated.Status)
	}

	entries := env.activities(t, ticket.ID)
	if len(entries) != 1 || entries[0].Action != domain.ActionTicketAutoSolved {
		t.Fatalf("activities = %+v", entries)
	}
	if entries[0].ActorID != nil {
		t.Fatal("automation actions must have no actor")
	}

	// Re-running the rule is a no-op.
	acted, err = env.lifecycle.AutoSolve(ctx, ticket.ID)
	if err != nil || acted {
		t.Fatalf("second auto-solve acted=%v err=%v", acted, err)
	}
}

func TestAutoSolveSkipsBeforeThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pendingSince := env.clock.Now().Add(-47 * time.Hour)
	ticket := env.createTicket(t, domain.TicketStatusPending, func(tk *domain.Ticket) {
		tk.PendingSince = &pendingSince
	})

	acted, err := env.lifecycle.AutoSolve(ctx, ticket.ID)
	if err != nil || acted {
		t.Fatalf("acted=%v err=%v, want skip before threshold", acted, err)
	}
}

func TestAutoSolveSkipsAfterRequesterReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pendingSince := env.clock.Now().Add(-50 * time.Hour)
	replied := env.clock.Now().Add(-10 * time.Hour)
	ticket := env.createTicket(t, domain.TicketStatusPending, func(tk *domain.Ticket) {
		tk.PendingSince = &pendingSince
		tk.LastRequesterReplyAt = &replied
	})

	acted, err := env.lifecycle.AutoSolve(ctx, ticket.ID)
	if err != nil || acted {
		t.Fatalf("acted=%v err=%v, want skip after requester reply", acted, err)
	}
}

func TestAutoCloseAfterThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	solvedAt := env.clock.Now().Add(-97 * time.Hour)
	ticket := env.createTicket(t, domain.TicketStatusSolved, func(tk *domain.Ticket) {
		tk.SolvedAt = &solvedAt
	})

	acted, err := env.lifecycle.AutoClose(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("auto-close: %v", err)
	}
	if !acted {
		t.Fatal("expected auto-close to act")
	}
	updated := env.getTicket(t, ticket.ID)
	if updated.Status != domain.TicketStatusClosed || updated.ClosedAt == nil {
		t.Fatalf("ticket = %+v, want CLOSED with ClosedAt", updated)
	}
	entries := env.activities(t, ticket.ID)
	if len(entries) != 1 || entries[0].Action != domain.ActionTicketAutoClosed {
		t.Fatalf("activities = %+v", entries)
	}

	acted, err = env.lifecycle.AutoClose(ctx, ticket.ID)
	if err != nil || acted {
		t.Fatalf("second auto-close acted=%v err=%v", acted, err)
	}
}

func TestAutoCloseSkipsInsideWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	solvedAt := env.clock.Now().Add(-95 * time.Hour)
	ticket := env.createTicket(t, domain.TicketStatusSolved, func(tk *domain.Ticket) {
		tk.SolvedAt = &solvedAt
	})

	acted, err := env.lifecycle.AutoClose(ctx, ticket.ID)
	if err != nil || acted {
		t.Fatalf("acted=%v err=%v, want skip inside window", acted, err)
	}
}

func TestMarkReminderSentOncePerPendingPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pendingSince := env.clock.Now().Add(-25 * time.Hour)
	ticket := env.createTicket(t, domain.TicketStatusPending, func(tk *domain.Ticket) {
		tk.PendingSince = &pendingSince
	})

	acted, err := env.lifecycle.MarkReminderSent(ctx, ticket.ID)
	if err != nil || !acted {
		t.Fatalf("acted=%v err=%v, want reminder to fire", acted, err)
	}
	entries := env.activities(t, ticket.ID)
	if len(entries) != 1 || entries[0].Action != domain.ActionPendingReminderSent {
		t.Fatalf("activities = %+v", entries)
	}

	acted, err = env.lifecycle.MarkReminderSent(ctx, ticket.ID)
	if err != nil || acted {
		t.Fatalf("second reminder acted=%v err=%v", acted, err)
	}

	// Leaving and re-entering PENDING starts a new period, re-arming the
	// reminder.
	if _, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusOpen); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := env.lifecycle.Transition(ctx, agentActor, ticket.ID, domain.TicketStatusPending); err != nil {
		t.Fatalf("re-pend: %v", err)
	}
	env.clock.Advance(25 * time.Hour)
	acted, err = env.lifecycle.MarkReminderSent(ctx, ticket.ID)
	if err != nil || !acted {
		t.Fatalf("re-armed reminder acted=%v err=%v", acted, err)
	}
}
