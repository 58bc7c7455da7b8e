package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/MathijsBok/ticket-system-sub002/internal/api/dto"
	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
	"github.com/MathijsBok/ticket-system-sub002/internal/service"
	apperrors "github.com/MathijsBok/ticket-system-sub002/pkg/util/errorutil"
)

// FeedbackHandler serves the public feedback submission endpoint. The
// token is the credential; no bearer auth applies here.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// SubmitFeedback POST /feedback.
func (h *FeedbackHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	feedback, err := h.feedback.SubmitFeedback(c.UserContext(), req.Token, domain.FeedbackRating(req.Rating), req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FeedbackResponse{
		Rating:    int(feedback.Rating),
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt,
	}})
}
