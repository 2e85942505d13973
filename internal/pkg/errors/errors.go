// Package errors holds the failure taxonomy shared by the services and the
// HTTP layer. Every failure a caller can see has a Kind; the HTTP status is
// derived from it, never chosen by the service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindAccessDenied
	KindNotFound
)

var kindStatus = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindValidation:      http.StatusBadRequest,
	KindUnauthenticated: http.StatusUnauthorized,
	KindAccessDenied:    http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
}

// Status is the HTTP status a failure of kind k is rendered with.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError is a classified failure with a client-facing code and message.
// Err is for logs only.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Status is the HTTP status for e.
func (e *AppError) Status() int { return e.Kind.Status() }

// WithFields appends field-level details.
func (e *AppError) WithFields(fields ...FieldError) *AppError {
	e.Fields = append(e.Fields, fields...)
	return e
}

func newError(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string) *AppError { return newError(KindNotFound, code, message) }

func Invalid(code, message string) *AppError { return newError(KindValidation, code, message) }

func Unauthenticated(code, message string) *AppError {
	return newError(KindUnauthenticated, code, message)
}

func Forbidden(code, message string) *AppError { return newError(KindAccessDenied, code, message) }

func Internal(code, message string) *AppError { return newError(KindInternal, code, message) }

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
