package services

import (
	"errors"
	"fmt"

	"github.com/tuanhandsomes/web-upload-image/store"
)

// Kind classifies a service failure so callers can decide how to surface it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindPayloadTooLarge
	KindConnectivity
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindConnectivity:
		return "connectivity"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is a classified service error. Two Errors match under errors.Is when
// their codes are equal, so wrapped copies still compare to the sentinels.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// wrap returns a copy of e carrying cause.
func (e *Error) wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

var (
	ErrDuplicateUsername  = &Error{Kind: KindConflict, Code: "duplicate_username", Message: "username already exists"}
	ErrDuplicateEmail     = &Error{Kind: KindConflict, Code: "duplicate_email", Message: "email already exists"}
	ErrDuplicateName      = &Error{Kind: KindConflict, Code: "duplicate_name", Message: "project name already exists"}
	ErrAccountNotFound    = &Error{Kind: KindNotFound, Code: "account_not_found", Message: "account not found"}
	ErrProjectNotFound    = &Error{Kind: KindNotFound, Code: "project_not_found", Message: "project not found"}
	ErrPhotoNotFound      = &Error{Kind: KindNotFound, Code: "photo_not_found", Message: "photo not found"}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: "forbidden", Message: "you are not allowed to do this"}
	ErrSelfDelete         = &Error{Kind: KindForbidden, Code: "self_delete", Message: "you cannot delete your own account"}
	ErrSelfDeactivation   = &Error{Kind: KindForbidden, Code: "self_deactivation", Message: "admin accounts cannot be deactivated"}
	ErrFileTooLarge       = &Error{Kind: KindPayloadTooLarge, Code: "file_too_large", Message: "file is too large, maximum is 5MB"}
	ErrEncodingFailed     = &Error{Kind: KindInternal, Code: "encoding_failed", Message: "failed to read image file"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "invalid_credentials", Message: "invalid username or password"}
	ErrUnavailable        = &Error{Kind: KindConnectivity, Code: "unavailable", Message: "cannot reach the data store, please try again"}
)

// KindOf reports the Kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// storeError translates backend errors. notFound is used for store.ErrNotFound.
func storeError(err error, notFound *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound.wrap(err)
	case errors.Is(err, store.ErrUnavailable):
		return ErrUnavailable.wrap(err)
	}
	return err
}

// ReconcileError is returned alongside a persisted photo when the owning
// project's counters could not be refreshed. The photo write is kept; the next
// successful reconciliation repairs the counters.
type ReconcileError struct {
	ProjectID string
	Err       error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("failed to reconcile project %s: %v", e.ProjectID, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }
