package smsoffice

import (
	"errors"
	"fmt"
)

// Category classifies a failed send.
type Category int

const (
	// CategoryNone is reported for a nil error or an error that did not come from Send.
	CategoryNone Category = iota
	// CategoryBadRequest means the request was malformed or could not be delivered to
	// the provider. The caller can usually fix it.
	CategoryBadRequest
	// CategorySubscription means the account has a problem (balance, key, permissions).
	CategorySubscription
	// CategoryInternalServer means the provider is temporarily unavailable.
	CategoryInternalServer
)

var (
	// ErrBadRequest matches every *Error of CategoryBadRequest.
	ErrBadRequest = errors.New("smsoffice: bad request")
	// ErrSubscription matches every *Error of CategorySubscription.
	ErrSubscription = errors.New("smsoffice: subscription problem")
	// ErrInternalServer matches every *Error of CategoryInternalServer.
	ErrInternalServer = errors.New("smsoffice: internal server error")
)

// String returns the snake_case name of the category.
func (c Category) String() string {
	switch c {
	case CategoryBadRequest:
		return "bad_request"
	case CategorySubscription:
		return "subscription"
	case CategoryInternalServer:
		return "internal_server"
	default:
		return "none"
	}
}

// Retryable reports whether a later attempt with the same input may succeed.
func (c Category) Retryable() bool {
	return c == CategoryInternalServer
}

func (c Category) sentinel() error {
	switch c {
	case CategoryBadRequest:
		return ErrBadRequest
	case CategorySubscription:
		return ErrSubscription
	case CategoryInternalServer:
		return ErrInternalServer
	default:
		return nil
	}
}

// Error is returned by Sender.Send for every failed send.
type Error struct {
	Category Category
	// Code is the provider error code, or 0 when the failure happened before a
	// provider reply could be read.
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Category {
	case CategorySubscription:
		return fmt.Sprintf("Subscription has problem: %s", e.Message)
	case CategoryInternalServer:
		return "Server is temporarily unavailable"
	default:
		return fmt.Sprintf("Invalid request: %s", e.Message)
	}
}

// Unwrap exposes the category sentinel and the underlying cause, if any.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Category.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// CategoryOf returns the category of err, or CategoryNone if err is nil or is not
// an *Error.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryNone
}

func badRequest(code int, msg string, cause error) *Error {
	return &Error{Category: CategoryBadRequest, Code: code, Message: msg, Err: cause}
}

func subscription(code int, msg string) *Error {
	return &Error{Category: CategorySubscription, Code: code, Message: msg}
}

func internalServer(code int) *Error {
	return &Error{Category: CategoryInternalServer, Code: code, Message: "Server is temporarily unavailable"}
}
