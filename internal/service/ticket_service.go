package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/events"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// TicketService covers creation and read paths. Mutations that touch the
// state machine live in LifecycleService.
type TicketService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	clock      func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Clock      func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{store: deps.Store, dispatcher: deps.Dispatcher, clock: clock}
}

// CreateTicketInput describes a new ticket submission.
type CreateTicketInput struct {
	RequesterID string
	Subject     string
	Body        string
	BodyPlain   string
	Priority    domain.TicketPriority
	Category    string
	Channel     domain.TicketChannel
	Country     *string
	Device      *string
}

// CreateTicket opens a new ticket in NEW with its first comment. Agents
// may create tickets on behalf of a requester; end users only for
// themselves.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Actor, input CreateTicketInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("acting user required")
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	requesterID := input.RequesterID
	if requesterID == "" || !actor.IsAgent() {
		requesterID = actor.ID
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityNormal
	}
	switch priority {
	case domain.TicketPriorityLow, domain.TicketPriorityNormal, domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
	default:
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	channel := input.Channel
	if channel == "" {
		channel = domain.ChannelWeb
	}

	ticket := &domain.Ticket{
		RequesterID: requesterID,
		Subject:     strings.TrimSpace(input.Subject),
		Status:      domain.TicketStatusNew,
		Priority:    priority,
		Type:        domain.TicketTypeNormal,
		Category:    input.Category,
		Channel:     channel,
		Country:     input.Country,
		Device:      input.Device,
	}
	if err := s.store.Tickets().Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	authorID := actor.ID
	if err := s.store.Comments().Create(ctx, &domain.Comment{
		TicketID:  ticket.ID,
		AuthorID:  &authorID,
		Body:      input.Body,
		BodyPlain: plainText(input.Body, input.BodyPlain),
		Channel:   channel,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		actorID := actor.ID
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:           uuid.NewString(),
			Type:         events.EventTicketCreated,
			TicketID:     ticket.ID,
			TicketNumber: ticket.Number,
			Actor:        events.Actor{ActorID: &actorID, Role: actor.Role},
			Timestamp:    s.clock(),
			Payload: events.TicketCreatedPayload{
				Subject:  ticket.Subject,
				Priority: ticket.Priority,
				Channel:  ticket.Channel,
			},
		})
	}
	return ticket, nil
}

// TicketDetail is the read model for a single ticket: the thread, the
// audit trail, merge context and any submitted feedback.
type TicketDetail struct {
	Ticket        *domain.Ticket
	Comments      []domain.Comment
	Activities    []domain.Activity
	MergedTickets []domain.Ticket
	MergedIntoNum *int64
	Feedback      *domain.Feedback
}

// GetTicket loads a ticket with its thread and audit trail. End users see
// only their own tickets and no internal notes.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Actor, ticketID string) (*TicketDetail, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err, ticketID)
	}
	if actor == nil {
		return nil, apperrors.NewUnauthorized("acting user required")
	}
	if !actor.IsAgent() && ticket.RequesterID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}

	comments, err := s.store.Comments().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !actor.IsAgent() {
		visible := comments[:0]
		for _, c := range comments {
			if !c.IsInternal {
				visible = append(visible, c)
			}
		}
		comments = visible
	}

	activities, err := s.store.Activities().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	detail := &TicketDetail{
		Ticket:     ticket,
		Comments:   comments,
		Activities: activities,
	}

	if ticket.IsMerged() {
		target, err := s.store.Tickets().GetByID(ctx, *ticket.MergedIntoID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		detail.MergedIntoNum = &target.Number
	}
	merged, err := s.store.Tickets().ListMergedInto(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	detail.MergedTickets = merged

	feedback, err := s.store.Feedback().GetByTicket(ctx, ticketID)
	if err == nil {
		detail.Feedback = feedback
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

// GetTicketByNumber resolves a ticket by its public number.
func (s *TicketService) GetTicketByNumber(ctx context.Context, actor *domain.Actor, number int64) (*TicketDetail, error) {
	ticket, err := s.store.Tickets().GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, apperrors.MapError(err)
	}
	return s.GetTicket(ctx, actor, ticket.ID)
}

// ListTickets applies the filter, constrained to the actor's own tickets
// for end users.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("acting user required")
	}
	if !actor.IsAgent() {
		requesterID := actor.ID
		filter.RequesterID = &requesterID
	}
	tickets, err := s.store.Tickets().ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}
