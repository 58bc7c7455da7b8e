package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// ProblemService maintains one-problem-to-many-incidents links. Linking
// never auto-mutates the problem; the solve cascade in the lifecycle
// service is the only automatic cross-ticket effect.
type ProblemService struct {
	store repository.Store
	clock func() time.Time
}

// NewProblemService constructs the service.
func NewProblemService(store repository.Store) *ProblemService {
	return &ProblemService{store: store, clock: time.Now}
}

// LinkToProblem links an incident to a problem, or unlinks it when
// problemID is nil. An existing link is replaced; incidents have at most
// one parent.
func (s *ProblemService) LinkToProblem(ctx context.Context, actor *domain.Actor, incidentID string, problemID *string) (*domain.Ticket, error) {
	if !actor.IsAgent() {
		return nil, apperrors.NewForbidden("agent role required")
	}
	if problemID != nil && *problemID == incidentID {
		return nil, apperrors.NewInvalidLinkTarget("a ticket cannot be its own problem", nil)
	}

	lockIDs := []string{incidentID}
	if problemID != nil {
		lockIDs = append(lockIDs, *problemID)
	}

	var result *domain.Ticket
	err := s.store.WithTickets(ctx, lockIDs, func(ctx context.Context, tx repository.Store) error {
		incident, err := tx.Tickets().GetByID(ctx, incidentID)
		if err != nil {
			return mapTicketErr(err, incidentID)
		}
		if incident.Type != domain.TicketTypeIncident {
			return apperrors.NewInvalidLinkTarget(
				fmt.Sprintf("ticket #%d is not an incident", incident.Number),
				map[string]any{"ticket_number": incident.Number})
		}
		if incident.IsMerged() {
			target, err := tx.Tickets().GetByID(ctx, *incident.MergedIntoID)
			if err != nil {
				return apperrors.MapError(err)
			}
			return apperrors.NewTicketMerged(target.Number)
		}

		actorID := actor.ID
		if problemID == nil {
			if incident.ProblemID == nil {
				result = incident
				return nil
			}
			oldProblem, err := tx.Tickets().GetByID(ctx, *incident.ProblemID)
			if err != nil {
				return apperrors.MapError(err)
			}
			incident.ProblemID = nil
			if err := tx.Tickets().Update(ctx, incident); err != nil {
				return apperrors.MapError(err)
			}
			if err := tx.Activities().Create(ctx, &domain.Activity{
				TicketID: incident.ID,
				Action:   domain.ActionUnlinkedFromProblem,
				ActorID:  &actorID,
				Details:  domain.ProblemLinkDetails{ProblemNumber: oldProblem.Number},
			}); err != nil {
				return apperrors.MapError(err)
			}
			result = incident
			return nil
		}

		problem, err := tx.Tickets().GetByID(ctx, *problemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("problem ticket", map[string]any{"ticket_id": *problemID})
			}
			return apperrors.MapError(err)
		}
		if problem.Type != domain.TicketTypeProblem {
			return apperrors.NewInvalidLinkTarget(
				fmt.Sprintf("ticket #%d is not a problem", problem.Number),
				map[string]any{"ticket_number": problem.Number})
		}
		if problem.IsMerged() {
			return apperrors.NewInvalidLinkTarget(
				fmt.Sprintf("problem ticket #%d was merged away", problem.Number), nil)
		}

		if incident.ProblemID != nil && *incident.ProblemID == problem.ID {
			result = incident
			return nil
		}

		incident.ProblemID = &problem.ID
		if err := tx.Tickets().Update(ctx, incident); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.Activities().Create(ctx, &domain.Activity{
			TicketID: incident.ID,
			Action:   domain.ActionLinkedToProblem,
			ActorID:  &actorID,
			Details:  domain.ProblemLinkDetails{ProblemNumber: problem.Number},
		}); err != nil {
			return apperrors.MapError(err)
		}
		result = incident
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
