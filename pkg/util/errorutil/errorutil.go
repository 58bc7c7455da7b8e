package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for the ticket engine taxonomy. Every rejection is distinct
// and user-actionable; callers must never see a generic "update failed".
const (
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeTicketMerged           = "TICKET_MERGED"
	CodeTicketNotMergeable     = "TICKET_NOT_MERGEABLE"
	CodeInvalidMergeTarget     = "INVALID_MERGE_TARGET"
	CodeInvalidLinkTarget      = "INVALID_LINK_TARGET"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeNotFound               = "NOT_FOUND"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeConflict               = "CONFLICT"
	CodeInternal               = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewInvalidTransition rejects an illegal status change. The message names
// the rule that blocked it.
func NewInvalidTransition(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidTransition, message, http.StatusUnprocessableEntity, details)
}

// NewTicketMerged rejects an action on a ticket merged away; callers must
// act on the merge target instead.
func NewTicketMerged(targetNumber int64) error {
	return NewDomainError(CodeTicketMerged,
		fmt.Sprintf("ticket was merged into #%d", targetNumber),
		http.StatusConflict,
		map[string]any{"merged_into_number": targetNumber})
}

// NewTicketNotMergeable rejects a merge whose source cannot be merged.
func NewTicketNotMergeable(sourceNumber int64, reason string) error {
	return NewDomainError(CodeTicketNotMergeable,
		fmt.Sprintf("ticket #%d cannot be merged: %s", sourceNumber, reason),
		http.StatusConflict,
		map[string]any{"source_number": sourceNumber})
}

// NewInvalidMergeTarget rejects a merge into an unusable target.
func NewInvalidMergeTarget(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidMergeTarget, message, http.StatusConflict, details)
}

// NewInvalidLinkTarget rejects a problem/incident link violation.
func NewInvalidLinkTarget(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidLinkTarget, message, http.StatusUnprocessableEntity, details)
}

// NewConcurrentModification signals that a precondition no longer held at
// commit time; the caller should re-validate and retry.
func NewConcurrentModification(message string) error {
	if message == "" {
		message = "ticket was modified concurrently; retry"
	}
	return NewDomainError(CodeConcurrentModification, message, http.StatusConflict, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError wraps ToDomainError for call sites that pass errors through.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
