// Package apperr carries the error kinds callers switch on: toast, inline
// field error, redirect to sign-in, or nothing at all for superseded requests.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind uint8

const (
	Internal Kind = iota
	Abort
	Duplicate
	Limit
	Auth
	Forbidden
	Validation
	NotFound
)

var kindNames = map[Kind]string{
	Internal:   "InternalError",
	Abort:      "AbortError",
	Duplicate:  "DuplicateError",
	Limit:      "LimitError",
	Auth:       "AuthError",
	Forbidden:  "ForbiddenError",
	Validation: "ValidationError",
	NotFound:   "NotFoundError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[Internal]
}

// ParseKind is the inverse of Kind.String. Unknown names map to Internal.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return Internal
}

// HTTPStatus is the response status used for errors of kind k.
func (k Kind) HTTPStatus() int {
	switch k {
	case Abort:
		return 499
	case Duplicate:
		return http.StatusConflict
	case Limit:
		return http.StatusUnprocessableEntity
	case Auth:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	// validation errors often carry their cause as the message
	if e.Err != nil && e.Err.Error() != e.Msg {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an error without a cause.
func E(op string, kind Kind, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Wrap attaches kind and a user-facing message to err. A cancelled context
// always becomes Abort, whatever kind was asked for.
func Wrap(op string, kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	if isCancelled(err) {
		kind, msg = Abort, ""
	}
	return &Error{Op: op, Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of err. Untyped errors are Internal, except
// cancellations which are Abort.
func KindOf(err error) Kind {
	if err == nil {
		return Internal
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	if isCancelled(err) {
		return Abort
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsAbort(err error) bool {
	return Is(err, Abort)
}

// Message is the text safe to show to a user. Internal errors never leak
// their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal && e.Msg != "" {
		return e.Msg
	}

	switch KindOf(err) {
	case Abort:
		return "request cancelled"
	case Auth:
		return "please sign in again"
	case Forbidden:
		return "you are not allowed to do that"
	case NotFound:
		return "not found"
	default:
		return "something went wrong, please try again"
	}
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
