// Package apperr defines the failure kinds surfaced to applicants and
// reviewers. Every kind is terminal for the operation that produced it;
// nothing here is retried.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure for display.
type Kind int

const (
	// Unknown is any failure without a more specific kind.
	Unknown Kind = iota
	// UploadFailure means the media host rejected or failed a transfer.
	UploadFailure
	// WriteTimeout means the record write did not confirm before the
	// submit deadline. The write itself may still land.
	WriteTimeout
	// PermissionDenied means the database refused the operation.
	PermissionDenied
	// ValidationFailure means input was rejected before any upload.
	ValidationFailure
	// NotFound means the record no longer exists.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case UploadFailure:
		return "upload_failure"
	case WriteTimeout:
		return "write_timeout"
	case PermissionDenied:
		return "permission_denied"
	case ValidationFailure:
		return "validation_failure"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Op names the step that failed and Msg
// carries detail safe to show a user.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind so callers can test with a bare
// sentinel such as &apperr.Error{Kind: apperr.WriteTimeout}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a classified error.
func New(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Upload wraps a media host failure. status is the host's status text.
func Upload(op, status string, err error) *Error {
	return &Error{Kind: UploadFailure, Op: op, Msg: status, Err: err}
}

// Validation reports rejected input.
func Validation(op, msg string) *Error {
	return &Error{Kind: ValidationFailure, Op: op, Msg: msg}
}

// KindOf returns the kind of err, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WriteTimeout
	}
	return Unknown
}

// UserMessage maps an error to the text shown on the page.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case UploadFailure:
		return "File upload failed. Please check your files and try again."
	case WriteTimeout:
		return "Request timeout - please check your internet connection and try again."
	case PermissionDenied:
		return "Permission denied. Please contact the administrator."
	case ValidationFailure:
		var e *Error
		if errors.As(err, &e) && e.Msg != "" {
			return e.Msg
		}
		return "Please check the form and try again."
	case NotFound:
		return "This registration no longer exists."
	default:
		return "Error submitting registration: " + err.Error()
	}
}
