package core

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindNotFound
	KindUnauthenticated
	KindUnauthorized
)

var (
	ErrNotFound          = errors.New("not found")
	ErrCategoryMismatch  = errors.New("category does not exist for this transaction type")
	ErrSpentNotWritable  = errors.New("spent is maintained by the server and cannot be set")
	ErrDuplicateCategory = errors.New("a category with this name already exists")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrIndexOutOfRange   = errors.New("subcategory index out of range")
	ErrEmailTaken        = errors.New("email already registered")
)

// Error carries a Kind that transports map onto status codes.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

func newError(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Message: msg, Err: err}
}

func Validation(msg string, err error) error      { return newError(KindValidation, msg, err) }
func BadRequest(msg string, err error) error      { return newError(KindBadRequest, msg, err) }
func NotFound(msg string, err error) error        { return newError(KindNotFound, msg, err) }
func Unauthenticated(msg string, err error) error { return newError(KindUnauthenticated, msg, err) }
func Unauthorized(msg string, err error) error    { return newError(KindUnauthorized, msg, err) }
func Internal(msg string, err error) error        { return newError(KindInternal, msg, err) }

// KindOf returns the Kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the text safe to show a client. Internal errors are
// reduced to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	if e.Message != "" || e.Err == nil {
		return e.Message
	}
	return e.Err.Error()
}
