package service

import (
	"context"
	"testing"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

func TestMergePostconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sourceA := env.createTicket(t, domain.TicketStatusOpen)
	sourceB := env.createTicket(t, domain.TicketStatusPending)
	target := env.createTicket(t, domain.TicketStatusOpen)

	result, err := env.merges.Merge(ctx, agentActor, []string{sourceA.ID, sourceB.ID}, target.ID, "duplicates of the same outage")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(result.MergedTickets) != 2 {
		t.Fatalf("got %d merged tickets, want 2", len(result.MergedTickets))
	}

	for _, id := range []string{sourceA.ID, sourceB.ID} {
		source := env.getTicket(t, id)
		if source.Status != domain.TicketStatusClosed {
			t.Fatalf("source status = %s, want CLOSED", source.Status)
		}
		if source.MergedIntoID == nil || *source.MergedIntoID != target.ID {
			t.Fatal("source must point at the merge target")
		}
		if source.PendingSince != nil {
			t.Fatal("pending period must end on merge")
		}
		entries := env.activities(t, id)
		if len(entries) != 1 || entries[0].Action != domain.ActionTicketMerged {
			t.Fatalf("source activities = %+v", entries)
		}
		details := entries[0].Details.(domain.MergedDetails)
		if details.TargetNumber != target.Number {
			t.Fatalf("merged details = %+v", details)
		}
	}

	targetEntries := env.activities(t, target.ID)
	if len(targetEntries) != 1 || targetEntries[0].Action != domain.ActionTicketsMergedIn {
		t.Fatalf("target activities = %+v", targetEntries)
	}
	in := targetEntries[0].Details.(domain.MergedInDetails)
	if len(in.SourceNumbers) != 2 {
		t.Fatalf("merged-in details = %+v", in)
	}

	comments, err := env.store.Comments().ListByTicket(ctx, target.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 || !comments[0].IsSystem {
		t.Fatalf("expected one system comment on target, got %+v", comments)
	}
}

func TestMergeDeduplicatesRepeatedSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	source := env.createTicket(t, domain.TicketStatusOpen)
	target := env.createTicket(t, domain.TicketStatusOpen)

	result, err := env.merges.Merge(ctx, agentActor, []string{source.ID, source.ID}, target.ID, "")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(result.MergedTickets) != 1 {
		t.Fatalf("got %d merged tickets, want 1", len(result.MergedTickets))
	}

	entries := env.activities(t, source.ID)
	if len(entries) != 1 || entries[0].Action != domain.ActionTicketMerged {
		t.Fatalf("source activities = %+v", entries)
	}

	targetEntries := env.activities(t, target.ID)
	if len(targetEntries) != 1 {
		t.Fatalf("target activities = %+v", targetEntries)
	}
	in := targetEntries[0].Details.(domain.MergedInDetails)
	if len(in.SourceNumbers) != 1 || in.SourceNumbers[0] != source.Number {
		t.Fatalf("merged-in numbers = %v, want [%d]", in.SourceNumbers, source.Number)
	}
}

func TestMergeAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	good := env.createTicket(t, domain.TicketStatusOpen)
	solved := env.createTicket(t, domain.TicketStatusSolved)
	target := env.createTicket(t, domain.TicketStatusOpen)

	_, err := env.merges.Merge(ctx, agentActor, []string{good.ID, solved.ID}, target.ID, "")
	if !apperrors.HasCode(err, apperrors.CodeTicketNotMergeable) {
		t.Fatalf("got %v, want TICKET_NOT_MERGEABLE", err)
	}

	// The valid source must be untouched.
	untouched := env.getTicket(t, good.ID)
	if untouched.Status != domain.TicketStatusOpen || untouched.MergedIntoID != nil {
		t.Fatalf("valid source mutated by failed merge: %+v", untouched)
	}
	if len(env.activities(t, good.ID)) != 0 || len(env.activities(t, target.ID)) != 0 {
		t.Fatal("failed merge must not write activities")
	}
}

func TestMergeRejectsAlreadyMergedSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	firstTarget := env.createTicket(t, domain.TicketStatusOpen)
	source := env.createTicket(t, domain.TicketStatusOpen)
	if _, err := env.merges.Merge(ctx, agentActor, []string{source.ID}, firstTarget.ID, ""); err != nil {
		t.Fatalf("setup merge: %v", err)
	}

	secondTarget := env.createTicket(t, domain.TicketStatusOpen)
	_, err := env.merges.Merge(ctx, agentActor, []string{source.ID}, secondTarget.ID, "")
	if !apperrors.HasCode(err, apperrors.CodeTicketNotMergeable) {
		t.Fatalf("got %v, want TICKET_NOT_MERGEABLE", err)
	}
}

func TestMergeRejectsMergedTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	finalTarget := env.createTicket(t, domain.TicketStatusOpen)
	chainedTarget := env.createTicket(t, domain.TicketStatusOpen)
	if _, err := env.merges.Merge(ctx, agentActor, []string{chainedTarget.ID}, finalTarget.ID, ""); err != nil {
		t.Fatalf("setup merge: %v", err)
	}

	source := env.createTicket(t, domain.TicketStatusOpen)
	_, err := env.merges.Merge(ctx, agentActor, []string{source.ID}, chainedTarget.ID, "")
	if !apperrors.HasCode(err, apperrors.CodeInvalidMergeTarget) {
		t.Fatalf("got %v, want INVALID_MERGE_TARGET", err)
	}
}

func TestMergeRejectsSelfAndNonAgent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, domain.TicketStatusOpen)
	other := env.createTicket(t, domain.TicketStatusOpen)

	if _, err := env.merges.Merge(ctx, agentActor, []string{ticket.ID}, ticket.ID, ""); !apperrors.HasCode(err, apperrors.CodeInvalidMergeTarget) {
		t.Fatalf("self merge: got %v, want INVALID_MERGE_TARGET", err)
	}
	if _, err := env.merges.Merge(ctx, agentActor, nil, ticket.ID, ""); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("empty sources: got %v, want VALIDATION_FAILED", err)
	}
	if _, err := env.merges.Merge(ctx, userActor, []string{other.ID}, ticket.ID, ""); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("non-agent: got %v, want FORBIDDEN", err)
	}
}

func TestMergedSourceRejectsReplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	source := env.createTicket(t, domain.TicketStatusOpen)
	target := env.createTicket(t, domain.TicketStatusOpen)
	if _, err := env.merges.Merge(ctx, agentActor, []string{source.ID}, target.ID, ""); err != nil {
		t.Fatalf("merge: %v", err)
	}

	_, err := env.lifecycle.SubmitReply(ctx, userActor, source.ID, ReplyInput{Body: "hello?"})
	if !apperrors.HasCode(err, apperrors.CodeTicketMerged) {
		t.Fatalf("got %v, want TICKET_MERGED", err)
	}
}
