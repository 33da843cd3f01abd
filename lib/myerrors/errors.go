package myerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidRequest  Kind = "InvalidRequest"
	KindUnauthenticated Kind = "Unauthenticated"
	KindNotFound        Kind = "NotFound"
	KindUpstream        Kind = "UpstreamError"
	KindInternal        Kind = "Internal"
)

type httpErrorCoder interface {
	error
	GetHTTPErrorCode() int
}

type httpError struct {
	kind     Kind
	httpCode int
	err      error
}

func (e *httpError) Error() string {
	return fmt.Sprintf("status: %d, err: %s", e.httpCode, e.err.Error())
}

func (e *httpError) Unwrap() error {
	return e.err
}

func (e *httpError) GetHTTPErrorCode() int {
	return e.httpCode
}

func newError(kind Kind, httpCode int, err error) *httpError {
	return &httpError{
		kind:     kind,
		httpCode: httpCode,
		err:      err,
	}
}

// NewInvalidInputError signals client input that fails a precondition. Not retried.
func NewInvalidInputError(err error) error {
	return newError(KindInvalidRequest, http.StatusBadRequest, err)
}

func NewInvalidInputErrorf(format string, args ...any) error {
	return NewInvalidInputError(fmt.Errorf(format, args...))
}

// NewUnauthenticatedError signals a failed authenticity check on an inbound event.
// The webhook contract answers these with 400 so the provider will redeliver.
func NewUnauthenticatedError(err error) error {
	return newError(KindUnauthenticated, http.StatusBadRequest, err)
}

func NewNotFoundError(err error) error {
	return newError(KindNotFound, http.StatusNotFound, err)
}

// NewUpstreamError signals a failure talking to the payment provider. No local state
// has been mutated on paths that return it, so callers may retry with backoff.
func NewUpstreamError(err error) error {
	return newError(KindUpstream, http.StatusInternalServerError, err)
}

func NewInternalError(err error) error {
	return newError(KindInternal, http.StatusInternalServerError, err)
}

func GetHTTPStatus(err error) int {
	var coder httpErrorCoder
	if errors.As(err, &coder) {
		return coder.GetHTTPErrorCode()
	}
	return http.StatusInternalServerError
}

func GetKind(err error) Kind {
	var e *httpError
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// Message returns the wrapped message without the status prefix.
func Message(err error) string {
	var e *httpError
	if errors.As(err, &e) {
		return e.err.Error()
	}
	return err.Error()
}

func IsNotFound(err error) bool {
	return GetKind(err) == KindNotFound
}
