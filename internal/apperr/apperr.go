package apperr

import (
	"errors"
	"fmt"
)

// Sentinel error classes. Handlers map these to HTTP status codes with
// errors.Is, so wrapped errors keep their class through any number of layers.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

// Error carries an internal error code, the id of the resource involved, a
// human message and the underlying cause alongside its sentinel class.
type Error struct {
	Class   error
	Code    string
	ID      uint
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s id=%d]: %v", e.Message, e.Code, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s [%s id=%d]", e.Message, e.Code, e.ID)
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Class, e.Cause}
	}
	return []error{e.Class}
}

func NotFound(code string, id uint, message string) *Error {
	return &Error{Class: ErrNotFound, Code: code, ID: id, Message: message}
}

func Forbidden(code string, message string) *Error {
	return &Error{Class: ErrForbidden, Code: code, Message: message}
}

func BadRequest(code string, message string) *Error {
	return &Error{Class: ErrBadRequest, Code: code, Message: message}
}

func Internal(code string, message string, cause error) *Error {
	return &Error{Class: ErrInternal, Code: code, Message: message, Cause: cause}
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
func IsBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }
