package events

import (
	"time"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventReplyAdded        EventType = "reply_added"
	EventStatusChanged     EventType = "ticket_status_changed"
	EventTicketSolved      EventType = "ticket_solved"
	EventTicketClosed      EventType = "ticket_closed"
	EventTicketsMerged     EventType = "tickets_merged"
	EventPendingReminder   EventType = "pending_reminder"
	EventFeedbackReceived  EventType = "feedback_received"
)

// Actor encapsulates actor metadata for an event. A nil ActorID means the
// automation sweep originated the action.
type Actor struct {
	ActorID *string     `json:"actor_id,omitempty"`
	Role    domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketID     string      `json:"ticket_id"`
	TicketNumber int64       `json:"ticket_number"`
	Actor        Actor       `json:"actor"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject  string                `json:"subject"`
	Priority domain.TicketPriority `json:"priority"`
	Channel  domain.TicketChannel  `json:"channel"`
}

// ReplyAddedPayload payload.
type ReplyAddedPayload struct {
	CommentID   string  `json:"comment_id"`
	AuthorID    *string `json:"author_id,omitempty"`
	IsInternal  bool    `json:"is_internal"`
	BodyPreview string  `json:"body_preview"`
	RequesterID string  `json:"requester_id"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Automated bool                `json:"automated"`
}

// TicketSolvedPayload payload. Emitted on first entry into SOLVED; the
// feedback hook listens for it.
type TicketSolvedPayload struct {
	RequesterID string `json:"requester_id"`
	Automated   bool   `json:"automated"`
}

// TicketsMergedPayload payload, emitted once per merge on the target.
type TicketsMergedPayload struct {
	SourceNumbers []int64 `json:"source_numbers"`
}

// PendingReminderPayload payload.
type PendingReminderPayload struct {
	RequesterID  string    `json:"requester_id"`
	PendingSince time.Time `json:"pending_since"`
}

// FeedbackReceivedPayload payload.
type FeedbackReceivedPayload struct {
	Rating int `json:"rating"`
}
