package domain

import "time"

// FeedbackRating is a five-point ordinal scale.
type FeedbackRating int

const (
	RatingVeryBad  FeedbackRating = 1
	RatingBad      FeedbackRating = 2
	RatingNeutral  FeedbackRating = 3
	RatingGood     FeedbackRating = 4
	RatingVeryGood FeedbackRating = 5
)

// ValidRating reports whether r is on the scale.
func ValidRating(r FeedbackRating) bool {
	return r >= RatingVeryBad && r <= RatingVeryGood
}

// FeedbackRequest records that a feedback token was issued for a ticket.
// Only the bcrypt hash of the token secret is kept.
type FeedbackRequest struct {
	TicketID   string
	SecretHash []byte
	CreatedAt  time.Time
}

// Feedback is the requester's rating of a resolved ticket. At most one per
// ticket; created once via token submission and never mutated.
type Feedback struct {
	ID        string
	TicketID  string
	Rating    FeedbackRating
	Comment   string
	CreatedAt time.Time
}
