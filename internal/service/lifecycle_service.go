package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MathijsBok/ticket-system-sub002/internal/config"
	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/events"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// LifecycleService is the status state machine. Every status mutation,
// whether human-triggered or from the automation sweep, runs through the
// same transition contract here, inside a per-ticket lock, and appends the
// matching Activity entries in the same atomic operation.
type LifecycleService struct {
	store      repository.Store
	automation config.AutomationConfig
	dispatcher events.Dispatcher
	clock      func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Store      repository.Store
	Automation config.AutomationConfig
	Dispatcher events.Dispatcher
	Clock      func() time.Time
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &LifecycleService{
		store:      deps.Store,
		automation: deps.Automation,
		dispatcher: deps.Dispatcher,
		clock:      clock,
	}
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:     {domain.TicketStatusOpen, domain.TicketStatusPending, domain.TicketStatusOnHold, domain.TicketStatusSolved, domain.TicketStatusClosed},
	domain.TicketStatusOpen:    {domain.TicketStatusPending, domain.TicketStatusOnHold, domain.TicketStatusSolved, domain.TicketStatusClosed},
	domain.TicketStatusPending: {domain.TicketStatusOpen, domain.TicketStatusOnHold, domain.TicketStatusSolved, domain.TicketStatusClosed},
	domain.TicketStatusOnHold:  {domain.TicketStatusOpen, domain.TicketStatusPending, domain.TicketStatusSolved, domain.TicketStatusClosed},
	domain.TicketStatusSolved:  {domain.TicketStatusOpen, domain.TicketStatusPending, domain.TicketStatusClosed},
	domain.TicketStatusClosed:  {},
}

func isAllowedTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Transition applies a status change requested by actor. When a PROBLEM
// ticket moves to SOLVED its open incidents are solved as a dependent
// effect within the same atomic operation.
func (s *LifecycleService) Transition(ctx context.Context, actor *domain.Actor, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(next) {
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("unknown status %q", next), nil)
	}

	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err, ticketID)
	}

	// The lock set must cover cascade targets; membership is re-checked
	// inside the lock.
	lockIDs := []string{ticketID}
	if ticket.Type == domain.TicketTypeProblem && next == domain.TicketStatusSolved {
		incidents, err := s.store.Tickets().ListOpenIncidents(ctx, ticket.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, inc := range incidents {
			lockIDs = append(lockIDs, inc.ID)
		}
	}

	var (
		result  *domain.Ticket
		pending []events.Event
	)
	err = s.store.WithTickets(ctx, lockIDs, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err, ticketID)
		}
		evts, err := s.applyTransition(ctx, tx, actor, current, next, transitionManual)
		if err != nil {
			return err
		}
		pending = append(pending, evts...)

		if current.Type == domain.TicketTypeProblem && current.Status == domain.TicketStatusSolved {
			cascadeEvents, err := s.cascadeSolve(ctx, tx, actor, current, lockIDs)
			if err != nil {
				return err
			}
			pending = append(pending, cascadeEvents...)
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishAll(ctx, pending)
	return result, nil
}

// cascadeSolve moves the problem's open incidents to SOLVED. The incident
// list is re-read inside the lock; an incident that appeared after the
// lock set was computed forces a retry instead of escaping the atomic
// scope. The problem's own id guards against re-entering it.
func (s *LifecycleService) cascadeSolve(ctx context.Context, tx repository.Store, actor *domain.Actor, problem *domain.Ticket, lockedIDs []string) ([]events.Event, error) {
	locked := make(map[string]struct{}, len(lockedIDs))
	for _, id := range lockedIDs {
		locked[id] = struct{}{}
	}

	incidents, err := tx.Tickets().ListOpenIncidents(ctx, problem.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var out []events.Event
	for i := range incidents {
		incident := &incidents[i]
		if incident.ID == problem.ID {
			continue
		}
		if _, ok := locked[incident.ID]; !ok {
			return nil, apperrors.NewConcurrentModification(
				fmt.Sprintf("incident #%d was linked during the operation; retry", incident.Number))
		}
		evts, err := s.applyTransition(ctx, tx, actor, incident, domain.TicketStatusSolved, transitionCascade)
		if err != nil {
			return nil, err
		}
		out = append(out, evts...)
	}
	return out, nil
}

type transitionKind int

const (
	transitionManual transitionKind = iota
	transitionCascade
	transitionAutoSolve
	transitionAutoClose
)

func (k transitionKind) activityAction() domain.ActivityAction {
	switch k {
	case transitionCascade, transitionAutoSolve:
		return domain.ActionTicketAutoSolved
	case transitionAutoClose:
		return domain.ActionTicketAutoClosed
	default:
		return domain.ActionStatusChanged
	}
}

// applyTransition mutates the already-locked ticket and appends the audit
// entry. Callers publish the returned events only after the enclosing
// transaction commits.
func (s *LifecycleService) applyTransition(ctx context.Context, tx repository.Store, actor *domain.Actor, ticket *domain.Ticket, next domain.TicketStatus, kind transitionKind) ([]events.Event, error) {
	if ticket.IsMerged() {
		return nil, s.mergedError(ctx, tx, ticket)
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidTransition("ticket already closed",
			map[string]any{"ticket_number": ticket.Number})
	}
	if ticket.Status == next {
		return nil, nil
	}
	if !isAllowedTransition(ticket.Status, next) {
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("cannot move ticket #%d from %s to %s", ticket.Number, ticket.Status, next),
			map[string]any{"from": ticket.Status, "to": next})
	}

	now := s.clock()
	old := ticket.Status
	ticket.Status = next

	if old == domain.TicketStatusPending {
		ticket.PendingSince = nil
		ticket.ReminderSentAt = nil
	}
	switch next {
	case domain.TicketStatusPending:
		ticket.PendingSince = &now
		ticket.ReminderSentAt = nil
	case domain.TicketStatusSolved:
		if ticket.SolvedAt == nil {
			ticket.SolvedAt = &now
		}
	case domain.TicketStatusClosed:
		ticket.ClosedAt = &now
	}

	if err := tx.Tickets().Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := tx.Activities().Create(ctx, &domain.Activity{
		TicketID: ticket.ID,
		Action:   kind.activityAction(),
		ActorID:  actorIDPtr(actor),
		Details:  domain.StatusChangeDetails{OldStatus: old, NewStatus: next},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	automated := kind != transitionManual
	out := []events.Event{s.newEvent(events.EventStatusChanged, ticket, actor, events.StatusChangedPayload{
		OldStatus: old,
		NewStatus: next,
		Automated: automated,
	})}
	if next == domain.TicketStatusSolved {
		out = append(out, s.newEvent(events.EventTicketSolved, ticket, actor, events.TicketSolvedPayload{
			RequesterID: ticket.RequesterID,
			Automated:   automated,
		}))
	}
	if next == domain.TicketStatusClosed {
		out = append(out, s.newEvent(events.EventTicketClosed, ticket, actor, nil))
	}
	return out, nil
}

// ReplyInput describes a comment submission.
type ReplyInput struct {
	Body       string
	BodyPlain  string
	IsInternal bool
	Channel    domain.TicketChannel
	Status     *domain.TicketStatus
}

// SubmitReply appends a comment and applies the reply's side effects in
// one atomic operation: auto-assignment of an unassigned ticket to the
// replying agent, the submitted status change, and reopening on requester
// replies. The reply-acceptance boundary is enforced here with the same
// predicate the auto-close rule uses.
func (s *LifecycleService) SubmitReply(ctx context.Context, actor *domain.Actor, ticketID string, input ReplyInput) (*domain.Comment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("acting user required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	if !actor.IsAgent() {
		if input.IsInternal {
			return nil, apperrors.NewForbidden("end users cannot post internal notes")
		}
		if input.Status != nil {
			return nil, apperrors.NewForbidden("end users cannot set ticket status")
		}
	}
	if input.Status != nil && !domain.ValidStatus(*input.Status) {
		return nil, apperrors.NewInvalidTransition(fmt.Sprintf("unknown status %q", *input.Status), nil)
	}

	var (
		comment *domain.Comment
		pending []events.Event
	)
	err := s.store.WithTickets(ctx, []string{ticketID}, func(ctx context.Context, tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err, ticketID)
		}
		if ticket.IsMerged() {
			return s.mergedError(ctx, tx, ticket)
		}
		if !actor.IsAgent() && ticket.RequesterID != actor.ID {
			return apperrors.NewForbidden("access denied")
		}
		now := s.clock()
		if ticket.ClosedForReplies(s.automation.AutoCloseHours, now) {
			return apperrors.NewInvalidTransition("ticket is closed for replies",
				map[string]any{"ticket_number": ticket.Number})
		}

		channel := input.Channel
		if channel == "" {
			channel = domain.ChannelWeb
		}
		authorID := actor.ID
		comment = &domain.Comment{
			TicketID:   ticket.ID,
			AuthorID:   &authorID,
			Body:       input.Body,
			BodyPlain:  plainText(input.Body, input.BodyPlain),
			IsInternal: input.IsInternal,
			Channel:    channel,
		}
		if err := tx.Comments().Create(ctx, comment); err != nil {
			return apperrors.MapError(err)
		}

		if actor.IsAgent() {
			ticket.LastAgentReplyAt = &now
			if !input.IsInternal && ticket.AssigneeID == nil {
				ticket.AssigneeID = &authorID
				if err := tx.Activities().Create(ctx, &domain.Activity{
					TicketID: ticket.ID,
					Action:   domain.ActionAssigneeChanged,
					ActorID:  &authorID,
					Details:  domain.FieldChangeDetails{OldValue: "", NewValue: authorID},
				}); err != nil {
					return apperrors.MapError(err)
				}
			}
			next := input.Status
			if next == nil && !input.IsInternal && ticket.Status == domain.TicketStatusNew {
				open := domain.TicketStatusOpen
				next = &open
			}
			// A submitted status equal to the current one is a keep-status
			// reply; the transition would no-op, but the assignment and
			// reply timestamp set above still have to land.
			if next != nil && *next != ticket.Status {
				evts, err := s.applyTransition(ctx, tx, actor, ticket, *next, transitionManual)
				if err != nil {
					return err
				}
				pending = append(pending, evts...)
			} else if err := tx.Tickets().Update(ctx, ticket); err != nil {
				return apperrors.MapError(err)
			}
		} else {
			ticket.LastRequesterReplyAt = &now
			// A requester reply reopens a waiting or solved ticket and
			// ends the current pending period.
			if ticket.Status == domain.TicketStatusPending || ticket.Status == domain.TicketStatusSolved {
				evts, err := s.applyTransition(ctx, tx, actor, ticket, domain.TicketStatusOpen, transitionManual)
				if err != nil {
					return err
				}
				pending = append(pending, evts...)
			} else if err := tx.Tickets().Update(ctx, ticket); err != nil {
				return apperrors.MapError(err)
			}
		}

		pending = append(pending, s.newEvent(events.EventReplyAdded, ticket, actor, events.ReplyAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			IsInternal:  comment.IsInternal,
			BodyPreview: stringPreview(comment.BodyPlain, 120),
			RequesterID: ticket.RequesterID,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishAll(ctx, pending)
	return comment, nil
}

// TicketFieldUpdate describes agent-editable attribute changes.
type TicketFieldUpdate struct {
	Priority      *domain.TicketPriority
	Type          *domain.TicketType
	Category      *string
	AssigneeID    *string
	ClearAssignee bool
}

// UpdateFields applies attribute changes, writing exactly one Activity
// entry per logically distinct field change.
func (s *LifecycleService) UpdateFields(ctx context.Context, actor *domain.Actor, ticketID string, update TicketFieldUpdate) (*domain.Ticket, error) {
	if !actor.IsAgent() {
		return nil, apperrors.NewForbidden("agent role required")
	}
	if update.Priority != nil {
		switch *update.Priority {
		case domain.TicketPriorityLow, domain.TicketPriorityNormal, domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
		default:
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown priority %q", *update.Priority), nil)
		}
	}
	if update.Type != nil {
		switch *update.Type {
		case domain.TicketTypeNormal, domain.TicketTypeProblem, domain.TicketTypeIncident:
		default:
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown type %q", *update.Type), nil)
		}
	}

	var result *domain.Ticket
	err := s.store.WithTickets(ctx, []string{ticketID}, func(ctx context.Context, tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err, ticketID)
		}
		if ticket.IsMerged() {
			return s.mergedError(ctx, tx, ticket)
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewInvalidTransition("ticket already closed",
				map[string]any{"ticket_number": ticket.Number})
		}

		actorID := actor.ID
		record := func(action domain.ActivityAction, oldValue, newValue string) error {
			return tx.Activities().Create(ctx, &domain.Activity{
				TicketID: ticket.ID,
				Action:   action,
				ActorID:  &actorID,
				Details:  domain.FieldChangeDetails{OldValue: oldValue, NewValue: newValue},
			})
		}

		if update.Priority != nil && *update.Priority != ticket.Priority {
			if err := record(domain.ActionPriorityChanged, string(ticket.Priority), string(*update.Priority)); err != nil {
				return apperrors.MapError(err)
			}
			ticket.Priority = *update.Priority
		}
		if update.Type != nil && *update.Type != ticket.Type {
			if err := s.validateTypeChange(ctx, tx, ticket, *update.Type); err != nil {
				return err
			}
			if err := record(domain.ActionTypeChanged, string(ticket.Type), string(*update.Type)); err != nil {
				return apperrors.MapError(err)
			}
			ticket.Type = *update.Type
		}
		if update.Category != nil && *update.Category != ticket.Category {
			if err := record(domain.ActionCategoryChanged, ticket.Category, *update.Category); err != nil {
				return apperrors.MapError(err)
			}
			ticket.Category = *update.Category
		}
		if update.ClearAssignee && ticket.AssigneeID != nil {
			if err := record(domain.ActionAssigneeChanged, *ticket.AssigneeID, ""); err != nil {
				return apperrors.MapError(err)
			}
			ticket.AssigneeID = nil
		} else if update.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *update.AssigneeID) {
			oldValue := ""
			if ticket.AssigneeID != nil {
				oldValue = *ticket.AssigneeID
			}
			if err := record(domain.ActionAssigneeChanged, oldValue, *update.AssigneeID); err != nil {
				return apperrors.MapError(err)
			}
			ticket.AssigneeID = update.AssigneeID
		}

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		result = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validateTypeChange prevents orphaned cross-references: a PROBLEM with
// linked incidents, or an INCIDENT linked to a problem, must be unlinked
// before its type changes.
func (s *LifecycleService) validateTypeChange(ctx context.Context, tx repository.Store, ticket *domain.Ticket, next domain.TicketType) error {
	if ticket.Type == domain.TicketTypeProblem && next != domain.TicketTypeProblem {
		incidents, err := tx.Tickets().ListIncidents(ctx, ticket.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if len(incidents) > 0 {
			return apperrors.NewInvalidLinkTarget(
				fmt.Sprintf("ticket #%d still has %d linked incidents; unlink them before changing type", ticket.Number, len(incidents)),
				map[string]any{"incident_count": len(incidents)})
		}
	}
	if ticket.Type == domain.TicketTypeIncident && next != domain.TicketTypeIncident && ticket.ProblemID != nil {
		return apperrors.NewInvalidLinkTarget(
			fmt.Sprintf("ticket #%d is linked to a problem; unlink it before changing type", ticket.Number), nil)
	}
	return nil
}

// AutoSolve is the sweep's pending auto-solve action. The precondition is
// re-checked inside the lock so re-running a sweep never double-fires.
// Returns false when the ticket no longer qualifies.
func (s *LifecycleService) AutoSolve(ctx context.Context, ticketID string) (bool, error) {
	if !s.automation.AutoSolveEnabled || s.automation.AutoSolveHours <= 0 {
		return false, nil
	}
	acted := false
	var pending []events.Event
	err := s.store.WithTickets(ctx, []string{ticketID}, func(ctx context.Context, tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err, ticketID)
		}
		if !s.pendingExpired(ticket, s.automation.AutoSolveHours) {
			return nil
		}
		if ticket.LastRequesterReplyAt != nil {
			ref := pendingReferenceTime(ticket)
			if ref == nil || !ticket.LastRequesterReplyAt.Before(*ref) {
				return nil
			}
		}
		evts, err := s.applyTransition(ctx, tx, nil, ticket, domain.TicketStatusSolved, transitionAutoSolve)
		if err != nil {
			return err
		}
		pending = append(pending, evts...)
		acted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.publishAll(ctx, pending)
	return acted, nil
}

// AutoClose is the sweep's solved auto-close action. It relies on the
// same predicate the reply path uses, so the no-reply-after window and
// the close decision can never disagree.
func (s *LifecycleService) AutoClose(ctx context.Context, ticketID string) (bool, error) {
	if !s.automation.AutoCloseEnabled || s.automation.AutoCloseHours <= 0 {
		return false, nil
	}
	acted := false
	var pending []events.Event
	err := s.store.WithTickets(ctx, []string{ticketID}, func(ctx context.Context, tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err, ticketID)
		}
		if ticket.Status != domain.TicketStatusSolved || ticket.IsMerged() {
			return nil
		}
		if !ticket.ClosedForReplies(s.automation.AutoCloseHours, s.clock()) {
			return nil
		}
		evts, err := s.applyTransition(ctx, tx, nil, ticket, domain.TicketStatusClosed, transitionAutoClose)
		if err != nil {
			return err
		}
		pending = append(pending, evts...)
		acted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.publishAll(ctx, pending)
	return acted, nil
}

// MarkReminderSent records that the pending reminder fired for the
// current pending period. Status is untouched; the reminder cannot
// re-fire until the ticket leaves and re-enters PENDING.
func (s *LifecycleService) MarkReminderSent(ctx context.Context, ticketID string) (bool, error) {
	if !s.automation.PendingReminderEnabled || s.automation.PendingReminderHours <= 0 {
		return false, nil
	}
	acted := false
	var pending []events.Event
	err := s.store.WithTickets(ctx, []string{ticketID}, func(ctx context.Context, tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return mapTicketErr(err, ticketID)
		}
		if ticket.ReminderSentAt != nil || !s.pendingExpired(ticket, s.automation.PendingReminderHours) {
			return nil
		}
		now := s.clock()
		ticket.ReminderSentAt = &now
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		pendingSince := now
		if ticket.PendingSince != nil {
			pendingSince = *ticket.PendingSince
		}
		if err := tx.Activities().Create(ctx, &domain.Activity{
			TicketID: ticket.ID,
			Action:   domain.ActionPendingReminderSent,
			Details:  domain.ReminderDetails{PendingSince: pendingSince},
		}); err != nil {
			return apperrors.MapError(err)
		}
		pending = append(pending, s.newEvent(events.EventPendingReminder, ticket, nil, events.PendingReminderPayload{
			RequesterID:  ticket.RequesterID,
			PendingSince: pendingSince,
		}))
		acted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.publishAll(ctx, pending)
	return acted, nil
}

// pendingExpired reports whether the ticket has sat in PENDING without an
// agent reply for longer than the given hour threshold.
func (s *LifecycleService) pendingExpired(ticket *domain.Ticket, hours int) bool {
	if ticket.Status != domain.TicketStatusPending || ticket.IsMerged() {
		return false
	}
	ref := pendingReferenceTime(ticket)
	if ref == nil {
		return false
	}
	return s.clock().Sub(*ref) > time.Duration(hours)*time.Hour
}

func pendingReferenceTime(ticket *domain.Ticket) *time.Time {
	if ticket.LastAgentReplyAt != nil {
		return ticket.LastAgentReplyAt
	}
	return ticket.PendingSince
}

// ClosedForReplies exposes the reply-acceptance boundary with the
// configured auto-close threshold applied.
func (s *LifecycleService) ClosedForReplies(ticket *domain.Ticket) bool {
	return ticket.ClosedForReplies(s.automation.AutoCloseHours, s.clock())
}

func (s *LifecycleService) mergedError(ctx context.Context, tx repository.Store, ticket *domain.Ticket) error {
	target, err := tx.Tickets().GetByID(ctx, *ticket.MergedIntoID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return apperrors.NewTicketMerged(target.Number)
}

func (s *LifecycleService) newEvent(eventType events.EventType, ticket *domain.Ticket, actor *domain.Actor, payload any) events.Event {
	event := events.Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		Timestamp:    s.clock(),
		Payload:      payload,
	}
	if actor != nil {
		actorID := actor.ID
		event.Actor = events.Actor{ActorID: &actorID, Role: actor.Role}
	}
	return event
}

func (s *LifecycleService) publishAll(ctx context.Context, pending []events.Event) {
	if s.dispatcher == nil {
		return
	}
	for _, event := range pending {
		_ = s.dispatcher.Publish(ctx, event)
	}
}

func actorIDPtr(actor *domain.Actor) *string {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

func mapTicketErr(err error, ticketID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.MapError(err)
}

func plainText(body, plain string) string {
	if strings.TrimSpace(plain) != "" {
		return plain
	}
	return body
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
