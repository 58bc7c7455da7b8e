package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActivityAction is the closed set of audited ticket mutations.
type ActivityAction string

const (
	ActionStatusChanged       ActivityAction = "status_changed"
	ActionAssigneeChanged     ActivityAction = "assignee_changed"
	ActionPriorityChanged     ActivityAction = "priority_changed"
	ActionTypeChanged         ActivityAction = "type_changed"
	ActionCategoryChanged     ActivityAction = "category_changed"
	ActionTicketMerged        ActivityAction = "ticket_merged"
	ActionTicketsMergedIn     ActivityAction = "tickets_merged_in"
	ActionLinkedToProblem     ActivityAction = "linked_to_problem"
	ActionUnlinkedFromProblem ActivityAction = "unlinked_from_problem"
	ActionTicketAutoSolved    ActivityAction = "ticket_auto_solved"
	ActionTicketAutoClosed    ActivityAction = "ticket_auto_closed"
	ActionPendingReminderSent ActivityAction = "pending_reminder_sent"
	ActionFeedbackReceived    ActivityAction = "feedback_received"
)

// Activity is an immutable audit entry. Every state-machine-driven ticket
// mutation appends at least one entry in the same logical operation; no
// silent transitions. ActorID is nil when automation acted.
type Activity struct {
	ID        string
	TicketID  string
	Action    ActivityAction
	ActorID   *string
	Details   ActivityDetails
	CreatedAt time.Time
}

// ActivityDetails is the payload variant matching an action kind. The
// union is tagged by Activity.Action; consumers switch on the action and
// fall back to RawDetails for kinds they do not know.
type ActivityDetails interface {
	isActivityDetails()
}

// StatusChangeDetails accompanies status_changed, ticket_auto_solved and
// ticket_auto_closed entries.
type StatusChangeDetails struct {
	OldStatus TicketStatus `json:"old_status"`
	NewStatus TicketStatus `json:"new_status"`
}

// FieldChangeDetails accompanies assignee/priority/type/category changes.
type FieldChangeDetails struct {
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// MergedDetails is written on a merge source and points at the target.
type MergedDetails struct {
	TargetNumber int64 `json:"target_number"`
}

// MergedInDetails is written on a merge target and lists the sources.
type MergedInDetails struct {
	SourceNumbers []int64 `json:"source_numbers"`
}

// ProblemLinkDetails accompanies linked_to_problem / unlinked_from_problem.
type ProblemLinkDetails struct {
	ProblemNumber int64 `json:"problem_number"`
}

// ReminderDetails accompanies pending_reminder_sent.
type ReminderDetails struct {
	PendingSince time.Time `json:"pending_since"`
}

// FeedbackDetails accompanies feedback_received.
type FeedbackDetails struct {
	Rating int `json:"rating"`
}

// RawDetails carries the payload of an action kind this build does not
// know how to decode.
type RawDetails json.RawMessage

func (StatusChangeDetails) isActivityDetails() {}
func (FieldChangeDetails) isActivityDetails()  {}
func (MergedDetails) isActivityDetails()       {}
func (MergedInDetails) isActivityDetails()     {}
func (ProblemLinkDetails) isActivityDetails()  {}
func (ReminderDetails) isActivityDetails()     {}
func (FeedbackDetails) isActivityDetails()     {}
func (RawDetails) isActivityDetails()          {}

// EncodeDetails serializes a details variant for storage.
func EncodeDetails(d ActivityDetails) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	if raw, ok := d.(RawDetails); ok {
		return raw, nil
	}
	return json.Marshal(d)
}

// DecodeDetails deserializes a stored payload into the variant matching
// the action kind. Unknown kinds decode to RawDetails.
func DecodeDetails(action ActivityAction, data []byte) (ActivityDetails, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	var (
		d   ActivityDetails
		err error
	)
	switch action {
	case ActionStatusChanged, ActionTicketAutoSolved, ActionTicketAutoClosed:
		var v StatusChangeDetails
		err = json.Unmarshal(data, &v)
		d = v
	case ActionAssigneeChanged, ActionPriorityChanged, ActionTypeChanged, ActionCategoryChanged:
		var v FieldChangeDetails
		err = json.Unmarshal(data, &v)
		d = v
	case ActionTicketMerged:
		var v MergedDetails
		err = json.Unmarshal(data, &v)
		d = v
	case ActionTicketsMergedIn:
		var v MergedInDetails
		err = json.Unmarshal(data, &v)
		d = v
	case ActionLinkedToProblem, ActionUnlinkedFromProblem:
		var v ProblemLinkDetails
		err = json.Unmarshal(data, &v)
		d = v
	case ActionPendingReminderSent:
		var v ReminderDetails
		err = json.Unmarshal(data, &v)
		d = v
	case ActionFeedbackReceived:
		var v FeedbackDetails
		err = json.Unmarshal(data, &v)
		d = v
	default:
		d = RawDetails(append([]byte(nil), data...))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s details: %w", action, err)
	}
	return d, nil
}
