package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MathijsBok/ticket-system-sub002/internal/api/dto"
	"github.com/MathijsBok/ticket-system-sub002/internal/auth"
	"github.com/MathijsBok/ticket-system-sub002/internal/service"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// AgentTicketsHandler serves agent-only mutations: status transitions,
// attribute edits, merges and problem links.
type AgentTicketsHandler struct {
	lifecycle *service.LifecycleService
	merges    *service.MergeService
	problems  *service.ProblemService
}

// NewAgentTicketsHandler constructs the handler.
func NewAgentTicketsHandler(lifecycle *service.LifecycleService, merges *service.MergeService, problems *service.ProblemService) *AgentTicketsHandler {
	return &AgentTicketsHandler{lifecycle: lifecycle, merges: merges, problems: problems}
}

// Transition POST /agent/tickets/:id/status.
func (h *AgentTicketsHandler) Transition(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.Transition(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// UpdateTicket PATCH /agent/tickets/:id.
func (h *AgentTicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.UpdateFields(c.UserContext(), actor, c.Params("id"), service.TicketFieldUpdate{
		Priority:      req.Priority,
		Type:          req.Type,
		Category:      req.Category,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Merge POST /agent/tickets/merge.
func (h *AgentTicketsHandler) Merge(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.MergeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.merges.Merge(c.UserContext(), actor, req.SourceIDs, req.TargetID, req.Note)
	if err != nil {
		return err
	}
	merged := make([]dto.TicketSummary, 0, len(result.MergedTickets))
	for i := range result.MergedTickets {
		merged = append(merged, ticketSummary(&result.MergedTickets[i]))
	}
	return c.JSON(fiber.Map{"data": dto.MergeResponse{
		Target:        ticketSummary(result.Target),
		MergedTickets: merged,
	}})
}

// LinkProblem PUT /agent/tickets/:id/problem.
func (h *AgentTicketsHandler) LinkProblem(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.LinkProblemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.problems.LinkToProblem(c.UserContext(), actor, c.Params("id"), req.ProblemID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}
