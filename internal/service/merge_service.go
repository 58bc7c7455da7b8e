package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/events"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// MergeService closes source tickets and redirects them into a target.
// The whole merge is one atomic operation: either every source ends up
// CLOSED with its merge pointer set, or nothing changes.
type MergeService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      func() time.Time
}

// MergeDependencies bundles collaborators for the merge service.
type MergeDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      func() time.Time
}

// NewMergeService constructs the service.
func NewMergeService(deps MergeDependencies) *MergeService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &MergeService{store: deps.Store, dispatcher: deps.Dispatcher, clock: clock}
}

// MergeResult is returned to callers: the updated target plus its merged
// sources, newest first.
type MergeResult struct {
	Target        *domain.Ticket
	MergedTickets []domain.Ticket
}

// Merge merges the source tickets into the target. Sources must be open
// and unmerged; the target must not itself be merged away (no chains).
// An optional note is added to the target as a system comment.
func (s *MergeService) Merge(ctx context.Context, actor *domain.Actor, sourceIDs []string, targetID string, note string) (*MergeResult, error) {
	if !actor.IsAgent() {
		return nil, apperrors.NewForbidden("agent role required")
	}
	if len(sourceIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one source ticket required", nil)
	}
	// Dedupe while keeping the caller's order; a repeated id must not
	// produce repeated activities or merged-in numbers.
	seen := make(map[string]struct{}, len(sourceIDs))
	ids := make([]string, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		if id == targetID {
			return nil, apperrors.NewInvalidMergeTarget("cannot merge a ticket into itself", nil)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sourceIDs = ids

	lockIDs := append(append([]string{}, sourceIDs...), targetID)

	var (
		result  MergeResult
		pending []events.Event
	)
	err := s.store.WithTickets(ctx, lockIDs, func(ctx context.Context, tx repository.Store) error {
		target, err := tx.Tickets().GetByID(ctx, targetID)
		if err != nil {
			return mapTicketErr(err, targetID)
		}
		if target.IsMerged() {
			return apperrors.NewInvalidMergeTarget(
				fmt.Sprintf("target ticket #%d was itself merged away; merge chains are not allowed", target.Number),
				map[string]any{"target_number": target.Number})
		}

		// Validate every source before mutating any, so a failure
		// partway cannot leave a partial merge.
		sources := make([]*domain.Ticket, 0, len(sourceIDs))
		for _, id := range sourceIDs {
			source, err := tx.Tickets().GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("source ticket", map[string]any{"ticket_id": id})
				}
				return apperrors.MapError(err)
			}
			if source.IsMerged() {
				return apperrors.NewTicketNotMergeable(source.Number, "already merged into another ticket")
			}
			if !source.IsOpen() {
				return apperrors.NewTicketNotMergeable(source.Number, "ticket is solved or closed")
			}
			sources = append(sources, source)
		}

		now := s.clock()
		actorID := actor.ID
		sourceNumbers := make([]int64, 0, len(sources))
		for _, source := range sources {
			source.Status = domain.TicketStatusClosed
			source.ClosedAt = &now
			source.MergedIntoID = &target.ID
			source.PendingSince = nil
			source.ReminderSentAt = nil
			if err := tx.Tickets().Update(ctx, source); err != nil {
				return apperrors.MapError(err)
			}
			if err := tx.Activities().Create(ctx, &domain.Activity{
				TicketID: source.ID,
				Action:   domain.ActionTicketMerged,
				ActorID:  &actorID,
				Details:  domain.MergedDetails{TargetNumber: target.Number},
			}); err != nil {
				return apperrors.MapError(err)
			}
			sourceNumbers = append(sourceNumbers, source.Number)
		}

		if err := tx.Activities().Create(ctx, &domain.Activity{
			TicketID: target.ID,
			Action:   domain.ActionTicketsMergedIn,
			ActorID:  &actorID,
			Details:  domain.MergedInDetails{SourceNumbers: sourceNumbers},
		}); err != nil {
			return apperrors.MapError(err)
		}

		if note != "" {
			if err := tx.Comments().Create(ctx, &domain.Comment{
				TicketID:  target.ID,
				AuthorID:  &actorID,
				Body:      note,
				BodyPlain: note,
				IsSystem:  true,
				Channel:   domain.ChannelWeb,
			}); err != nil {
				return apperrors.MapError(err)
			}
		}

		merged, err := tx.Tickets().ListMergedInto(ctx, target.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		result = MergeResult{Target: target, MergedTickets: merged}

		pending = append(pending, events.Event{
			ID:           uuid.NewString(),
			Type:         events.EventTicketsMerged,
			TicketID:     target.ID,
			TicketNumber: target.Number,
			Actor:        events.Actor{ActorID: &actorID, Role: actor.Role},
			Timestamp:    now,
			Payload:      events.TicketsMergedPayload{SourceNumbers: sourceNumbers},
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
	return &result, nil
}
