package domain

import "time"

// Attachment stores metadata for an uploaded file. The retention sweep
// marks expired rows deleted and asks the blob collaborator to drop the
// bytes; ticket status is never touched.
type Attachment struct {
	ID         string
	TicketID   string
	CommentID  *string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
	DeletedAt  *time.Time
}
