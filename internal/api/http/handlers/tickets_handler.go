package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MathijsBok/ticket-system-sub002/internal/api/dto"
	"github.com/MathijsBok/ticket-system-sub002/internal/auth"
	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	"github.com/MathijsBok/ticket-system-sub002/internal/service"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// TicketsHandler serves ticket creation, listing and thread endpoints for
// both requesters and agents. Visibility narrowing happens in the service
// layer, keyed off the actor role.
type TicketsHandler struct {
	tickets   *service.TicketService
	lifecycle *service.LifecycleService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService, lifecycle *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, lifecycle: lifecycle}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, service.CreateTicketInput{
		RequesterID: c.Query("requester_id"),
		Subject:     req.Subject,
		Body:        req.Body,
		BodyPlain:   req.BodyPlain,
		Priority:    req.Priority,
		Category:    req.Category,
		Channel:     req.Channel,
		Country:     req.Country,
		Device:      req.Device,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), actor, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	detail, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// GetTicketByNumber GET /tickets/number/:number.
func (h *TicketsHandler) GetTicketByNumber(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	number, err := strconv.ParseInt(c.Params("number"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid ticket number", nil)
	}
	detail, err := h.tickets.GetTicketByNumber(c.UserContext(), actor, number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// AddReply POST /tickets/:id/replies.
func (h *TicketsHandler) AddReply(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.lifecycle.SubmitReply(c.UserContext(), actor, c.Params("id"), service.ReplyInput{
		Body:       req.Body,
		BodyPlain:  req.BodyPlain,
		IsInternal: req.IsInternal,
		Channel:    req.Channel,
		Status:     req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if typeStr := c.Query("type"); typeStr != "" {
		ticketType := domain.TicketType(strings.TrimSpace(typeStr))
		filter.Type = &ticketType
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:         ticket.ID,
		Number:     ticket.Number,
		Subject:    ticket.Subject,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		Type:       ticket.Type,
		Category:   ticket.Category,
		AssigneeID: ticket.AssigneeID,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	ticket := detail.Ticket
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i]))
	}
	activities := make([]dto.ActivityResponse, 0, len(detail.Activities))
	for _, entry := range detail.Activities {
		activities = append(activities, dto.ActivityResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt,
		})
	}
	merged := make([]dto.TicketSummary, 0, len(detail.MergedTickets))
	for i := range detail.MergedTickets {
		merged = append(merged, ticketSummary(&detail.MergedTickets[i]))
	}
	resp := dto.TicketDetailResponse{
		ID:            ticket.ID,
		Number:        ticket.Number,
		RequesterID:   ticket.RequesterID,
		AssigneeID:    ticket.AssigneeID,
		Subject:       ticket.Subject,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		Type:          ticket.Type,
		Category:      ticket.Category,
		Channel:       ticket.Channel,
		ProblemID:     ticket.ProblemID,
		MergedInto:    detail.MergedIntoNum,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		SolvedAt:      ticket.SolvedAt,
		ClosedAt:      ticket.ClosedAt,
		Comments:      comments,
		Activities:    activities,
		MergedTickets: merged,
	}
	if detail.Feedback != nil {
		resp.Feedback = &dto.FeedbackResponse{
			Rating:    int(detail.Feedback.Rating),
			Comment:   detail.Feedback.Comment,
			CreatedAt: detail.Feedback.CreatedAt,
		}
	}
	return resp
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		AuthorID:   comment.AuthorID,
		Body:       comment.Body,
		IsInternal: comment.IsInternal,
		IsSystem:   comment.IsSystem,
		Channel:    comment.Channel,
		CreatedAt:  comment.CreatedAt,
	}
}
