package dto

import (
	"time"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject   string                `json:"subject"`
	Body      string                `json:"body"`
	BodyPlain string                `json:"body_plain,omitempty"`
	Priority  domain.TicketPriority `json:"priority,omitempty"`
	Category  string                `json:"category,omitempty"`
	Channel   domain.TicketChannel  `json:"channel,omitempty"`
	Country   *string               `json:"country,omitempty"`
	Device    *string               `json:"device,omitempty"`
}

// CreateReplyRequest payload. Status is agent-only and applied in the
// same atomic operation as the comment.
type CreateReplyRequest struct {
	Body       string               `json:"body"`
	BodyPlain  string               `json:"body_plain,omitempty"`
	IsInternal bool                 `json:"is_internal,omitempty"`
	Channel    domain.TicketChannel `json:"channel,omitempty"`
	Status     *domain.TicketStatus `json:"status,omitempty"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// UpdateTicketRequest payload for agent-editable attributes.
type UpdateTicketRequest struct {
	Priority      *domain.TicketPriority `json:"priority,omitempty"`
	Type          *domain.TicketType     `json:"type,omitempty"`
	Category      *string                `json:"category,omitempty"`
	AssigneeID    *string                `json:"assignee_id,omitempty"`
	ClearAssignee bool                   `json:"clear_assignee,omitempty"`
}

// MergeRequest payload.
type MergeRequest struct {
	SourceIDs []string `json:"source_ids"`
	TargetID  string   `json:"target_id"`
	Note      string   `json:"note,omitempty"`
}

// LinkProblemRequest payload. A null problem_id unlinks.
type LinkProblemRequest struct {
	ProblemID *string `json:"problem_id"`
}

// SubmitFeedbackRequest payload.
type SubmitFeedbackRequest struct {
	Token   string `json:"token"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         string                `json:"id"`
	Number     int64                 `json:"number"`
	Subject    string                `json:"subject"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	Type       domain.TicketType     `json:"type"`
	Category   string                `json:"category,omitempty"`
	AssigneeID *string               `json:"assignee_id,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides the full ticket view.
type TicketDetailResponse struct {
	ID            string                `json:"id"`
	Number        int64                 `json:"number"`
	RequesterID   string                `json:"requester_id"`
	AssigneeID    *string               `json:"assignee_id,omitempty"`
	Subject       string                `json:"subject"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	Type          domain.TicketType     `json:"type"`
	Category      string                `json:"category,omitempty"`
	Channel       domain.TicketChannel  `json:"channel"`
	ProblemID     *string               `json:"problem_id,omitempty"`
	MergedInto    *int64                `json:"merged_into,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	SolvedAt      *time.Time            `json:"solved_at,omitempty"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
	Comments      []CommentResponse     `json:"comments"`
	Activities    []ActivityResponse    `json:"activities"`
	MergedTickets []TicketSummary       `json:"merged_tickets,omitempty"`
	Feedback      *FeedbackResponse     `json:"feedback,omitempty"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID         string               `json:"id"`
	AuthorID   *string              `json:"author_id,omitempty"`
	Body       string               `json:"body"`
	IsInternal bool                 `json:"is_internal"`
	IsSystem   bool                 `json:"is_system"`
	Channel    domain.TicketChannel `json:"channel"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ActivityResponse represents one audit entry.
type ActivityResponse struct {
	ID        string                `json:"id"`
	Action    domain.ActivityAction `json:"action"`
	ActorID   *string               `json:"actor_id,omitempty"`
	Details   any                   `json:"details,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// FeedbackResponse represents a submitted rating.
type FeedbackResponse struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MergeResponse reports merge postconditions.
type MergeResponse struct {
	Target        TicketSummary   `json:"target"`
	MergedTickets []TicketSummary `json:"merged_tickets"`
}
