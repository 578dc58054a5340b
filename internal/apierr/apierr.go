// Package apierr is the single failure type returned by every external-service client.
// Callers switch on Kind instead of inspecting message text.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport covers DNS, timeout and connection failures.
	KindTransport
	// KindUpstream is a non-success answer from the service.
	KindUpstream
	KindRateLimited
	// KindNotFound means the response lacked the expected data, e.g. an unknown symbol.
	KindNotFound
	KindMalformed
	// KindInvalid is bad input rejected before any call is made.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUpstream:
		return "upstream"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindMalformed:
		return "malformed"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a kind onto the status the web layer answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTransport:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type Error struct {
	Kind    Kind
	Service string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Service == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, service, message string) *Error {
	return &Error{Kind: kind, Service: service, Message: message}
}

func Wrap(kind Kind, service string, err error) *Error {
	return &Error{Kind: kind, Service: service, Message: err.Error(), Err: err}
}

// KindOf returns KindUnknown for nil and for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing text without the service prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromTransport classifies an error returned by http.Client.Do. Anything that is not
// a network-level failure is reported as KindUpstream.
func FromTransport(service string, err error) *Error {
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.As(err, &urlErr), errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Wrap(KindTransport, service, err)
	default:
		return Wrap(KindUpstream, service, err)
	}
}
