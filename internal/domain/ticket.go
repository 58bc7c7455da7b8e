package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew     TicketStatus = "NEW"
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusPending TicketStatus = "PENDING"
	TicketStatusOnHold  TicketStatus = "ON_HOLD"
	TicketStatusSolved  TicketStatus = "SOLVED"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusOpen, TicketStatusPending,
		TicketStatusOnHold, TicketStatusSolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketType distinguishes plain tickets from problem/incident pairs.
type TicketType string

const (
	TicketTypeNormal   TicketType = "NORMAL"
	TicketTypeProblem  TicketType = "PROBLEM"
	TicketTypeIncident TicketType = "INCIDENT"
)

// TicketChannel records where a ticket or comment originated.
type TicketChannel string

const (
	ChannelWeb   TicketChannel = "WEB"
	ChannelEmail TicketChannel = "EMAIL"
	ChannelAPI   TicketChannel = "API"
	ChannelChat  TicketChannel = "CHAT"
)

// Ticket is the aggregate for support requests. A ticket is the unit of
// consistency: status, merge pointers, problem links and the audit entries
// they generate change together or not at all.
type Ticket struct {
	ID           string
	Number       int64
	RequesterID  string
	AssigneeID   *string
	Subject      string
	Status       TicketStatus
	Priority     TicketPriority
	Type         TicketType
	Category     string
	Channel      TicketChannel
	Country      *string
	Device       *string
	MergedIntoID *string
	ProblemID    *string

	CreatedAt time.Time
	UpdatedAt time.Time
	SolvedAt  *time.Time
	ClosedAt  *time.Time

	// PendingSince scopes one pending period; it is set when the ticket
	// enters PENDING and cleared when it leaves. ReminderSentAt only has
	// meaning within the current period.
	PendingSince   *time.Time
	ReminderSentAt *time.Time

	LastRequesterReplyAt *time.Time
	LastAgentReplyAt     *time.Time
}

// IsTerminal reports whether no further status transition is permitted.
func (t *Ticket) IsTerminal() bool {
	return t.Status == TicketStatusClosed
}

// IsMerged reports whether this ticket has been merged into another one.
func (t *Ticket) IsMerged() bool {
	return t.MergedIntoID != nil
}

// IsOpen reports whether the ticket is still in an active (pre-solved,
// pre-terminal) state. Merge sources must satisfy this.
func (t *Ticket) IsOpen() bool {
	switch t.Status {
	case TicketStatusSolved, TicketStatusClosed:
		return false
	}
	return true
}

// ClosedForReplies is the reply-acceptance boundary: a ticket no longer
// accepts replies once CLOSED, or once it has been SOLVED for longer than
// the auto-close threshold. The sweep's auto-close rule and reply
// validation must agree, so both call this predicate.
func (t *Ticket) ClosedForReplies(autoCloseHours int, now time.Time) bool {
	if t.Status == TicketStatusClosed {
		return true
	}
	if t.Status == TicketStatusSolved && autoCloseHours > 0 && t.SolvedAt != nil {
		return now.Sub(*t.SolvedAt) > time.Duration(autoCloseHours)*time.Hour
	}
	return false
}
