package transport

import (
	"errors"
	"fmt"
)

// Kind classifies the failures a Stream can report
type Kind string

// Error kinds
const (
	// KindAlreadyExecuted is returned when a stream is asked to send a second request
	KindAlreadyExecuted Kind = "already_executed"

	// KindInvalidURL is returned when the composed request URL does not parse
	KindInvalidURL Kind = "invalid_url"

	// KindMissingHost is returned when the composed request URL has no host
	KindMissingHost Kind = "missing_host"

	// KindUnexpectedStatus is returned when the server does not answer 200
	KindUnexpectedStatus Kind = "unexpected_status"

	// KindMissingContentType is returned when the response has no Content-Type
	KindMissingContentType Kind = "missing_content_type"

	// KindContentTypeMismatch is returned when the response Content-Type is not the expected one
	KindContentTypeMismatch Kind = "content_type_mismatch"

	// KindClosed is returned when writing to a stream closed before its request was sent
	KindClosed Kind = "closed"
)

// Sentinels for use with errors.Is. They match any *Error of the same kind.
var (
	ErrAlreadyExecuted     = &Error{Kind: KindAlreadyExecuted}
	ErrInvalidURL          = &Error{Kind: KindInvalidURL}
	ErrMissingHost         = &Error{Kind: KindMissingHost}
	ErrUnexpectedStatus    = &Error{Kind: KindUnexpectedStatus}
	ErrMissingContentType  = &Error{Kind: KindMissingContentType}
	ErrContentTypeMismatch = &Error{Kind: KindContentTypeMismatch}
	ErrClosed              = &Error{Kind: KindClosed}
)

// Error is the failure type of the smart HTTP exchange
type Error struct {
	// Kind is the error kind
	Kind Kind

	// URL is the request URL, when one was composed
	URL string

	// StatusCode is set for KindUnexpectedStatus
	StatusCode int

	// Expected and Actual are set for the Content-Type kinds
	Expected string
	Actual   string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindAlreadyExecuted:
		msg = "already sent HTTP request"
	case KindInvalidURL:
		msg = fmt.Sprintf("invalid url %q, failed to parse", e.URL)
	case KindMissingHost:
		msg = fmt.Sprintf("invalid url %q, did not have a host", e.URL)
	case KindUnexpectedStatus:
		msg = fmt.Sprintf("failed to receive HTTP 200 response: got %d", e.StatusCode)
	case KindMissingContentType:
		msg = fmt.Sprintf("expected a Content-Type header with %q but didn't find one", e.Expected)
	case KindContentTypeMismatch:
		msg = fmt.Sprintf("expected a Content-Type header with %q but found %q", e.Expected, e.Actual)
	case KindClosed:
		msg = "stream is closed"
	default:
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusCode returns the HTTP status carried by an UnexpectedStatus error, or 0
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindUnexpectedStatus {
		return e.StatusCode
	}
	return 0
}

func newAlreadyExecutedError(url string) *Error {
	return &Error{Kind: KindAlreadyExecuted, URL: url}
}

func newInvalidURLError(url string, cause error) *Error {
	return &Error{Kind: KindInvalidURL, URL: url, Cause: cause}
}

func newMissingHostError(url string) *Error {
	return &Error{Kind: KindMissingHost, URL: url}
}

func newUnexpectedStatusError(url string, code int) *Error {
	return &Error{Kind: KindUnexpectedStatus, URL: url, StatusCode: code}
}

func newMissingContentTypeError(url, expected string) *Error {
	return &Error{Kind: KindMissingContentType, URL: url, Expected: expected}
}

func newContentTypeMismatchError(url, expected, actual string) *Error {
	return &Error{Kind: KindContentTypeMismatch, URL: url, Expected: expected, Actual: actual}
}

func newClosedError(url string) *Error {
	return &Error{Kind: KindClosed, URL: url}
}
