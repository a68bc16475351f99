// Package pkg holds the utilities shared across the console.
// This file defines the domain-level errors.
//
// In Go, errors are plain values. Sentinel errors created with errors.New are
// compared by identity instead of by string, which keeps checks typo-proof:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// BackendError is the one structured error: every failed call to the external
// blog backend is turned into a BackendError so handlers can map it to a status
// and show the backend's message to staff.
package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/go-errors/errors"
)

// Domain-level errors.
// Handlers map these to HTTP status codes, services return them.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrTooLarge      = errors.New("payload too large")
	ErrUnavailable   = errors.New("backend unavailable")
	ErrInternal      = errors.New("internal error")
)

// BackendErrorKind classifies a failed backend call.
type BackendErrorKind string

const (
	// KindNetwork: the request never produced a response (DNS, refused, timeout).
	KindNetwork BackendErrorKind = "NETWORK"
	// KindStatus: the backend answered with a non-2xx status.
	KindStatus BackendErrorKind = "STATUS"
	// KindDecode: the backend answered 2xx but the body could not be decoded.
	KindDecode BackendErrorKind = "DECODE"
)

// BackendError describes a failed call to the external backend.
//
// Message is what staff see. For KindStatus it is the backend's own "message"
// field when it sent one, otherwise a generic text built from the status code.
type BackendError struct {
	Kind    BackendErrorKind
	Op      string // e.g. "blogs.delete"
	Status  int    // 0 unless Kind == KindStatus
	Message string
	Err     error
	Stack   []byte
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, pkg.ErrUnauthorized) match a 401 from the backend,
// so the status mapping in response.go works unchanged for backend failures.
func (e *BackendError) Is(target error) bool {
	switch e.Kind {
	case KindNetwork:
		return target == ErrUnavailable
	case KindDecode:
		return target == ErrInternal
	}

	switch e.Status {
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == ErrForbidden
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusConflict:
		return target == ErrAlreadyExists
	case http.StatusRequestEntityTooLarge:
		return target == ErrTooLarge
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return target == ErrBadRequest
	}
	if e.Status >= 500 {
		return target == ErrUnavailable
	}
	return false
}

// StackTrace returns the stack captured when the error was created.
func (e *BackendError) StackTrace() []byte {
	return e.Stack
}

// NewBackendError builds a BackendError and captures a stack trace.
// If err already carries a go-errors stack, that one is reused.
func NewBackendError(kind BackendErrorKind, op string, status int, message string, err error) *BackendError {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &BackendError{
		Kind:    kind,
		Op:      op,
		Status:  status,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// UserMessage returns the text that should be shown to staff for err.
// Backend errors keep the backend's wording. Sentinel-wrapped errors built as
// fmt.Errorf("%w: detail", ErrX) show only the detail.
func UserMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Message
	}

	msg := err.Error()
	for _, sentinel := range userFacing {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) && errors.Is(err, sentinel) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

// userFacing are the sentinels whose wrapped detail is safe to show.
var userFacing = []error{
	ErrNotFound, ErrUnauthorized, ErrForbidden, ErrAlreadyExists,
	ErrBadRequest, ErrTooLarge, ErrUnavailable,
}
