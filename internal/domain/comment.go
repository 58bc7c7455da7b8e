package domain

import "time"

// Comment is a reply or internal note in a ticket thread. The IsInternal
// and IsSystem flags are fixed at creation; a note is never converted to a
// public reply or vice versa.
type Comment struct {
	ID         string
	TicketID   string
	AuthorID   *string
	Body       string
	BodyPlain  string
	IsInternal bool
	IsSystem   bool
	Channel    TicketChannel
	CreatedAt  time.Time
}
