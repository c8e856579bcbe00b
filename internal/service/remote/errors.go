// Package remote classifies failures of calls to external services and
// provides the JSON-over-HTTP client the plain REST adapters share.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Kind groups remote failures by how callers should react to them.
type Kind string

const (
	// KindConfig is a missing or rejected credential. Never retried.
	KindConfig     Kind = "config"
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindHTTP       Kind = "http"
	KindRateLimit  Kind = "rate_limit"
	KindDecode     Kind = "decode"
)

// RemediationRateLimit is attached to every rate-limit or quota error.
const RemediationRateLimit = "switch model or provider"

// Error is a failed call to an external service.
type Error struct {
	Kind        Kind
	Service     string
	Op          string
	Status      int
	Message     string
	Remediation string
	Cause       error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Service, e.Op, e.Kind)
	if e.Status > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.Remediation != "" {
		b.WriteString("; ")
		b.WriteString(e.Remediation)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error without an underlying cause.
func New(kind Kind, service, op, message string) *Error {
	e := &Error{Kind: kind, Service: service, Op: op, Message: message}
	if kind == KindRateLimit {
		e.Remediation = RemediationRateLimit
	}
	return e
}

// Wrap attaches service context to err. An err that already is an *Error is
// returned unchanged so the innermost classification wins.
func Wrap(kind Kind, service, op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	e := New(kind, service, op, "")
	e.Cause = err
	return e
}

// IsKind reports whether any error in the chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in the chain, or "" if there is none.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

var rateLimitMarkers = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"resource_exhausted",
	"resource exhausted",
	"too many requests",
}

// IsRateLimitMessage reports whether a provider message describes a quota or rate limit.
func IsRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// FromStatus classifies a non-2xx response.
func FromStatus(service, op string, status int, message string) *Error {
	message = strings.TrimSpace(message)
	switch {
	case status == http.StatusTooManyRequests || IsRateLimitMessage(message):
		e := New(KindRateLimit, service, op, message)
		e.Status = status
		return e
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "invalid or unauthorized API key"
		}
		e := New(KindConfig, service, op, message)
		e.Status = status
		return e
	default:
		e := New(KindHTTP, service, op, message)
		e.Status = status
		return e
	}
}

// FromTransport classifies an error returned before any response was read.
// timeout is the budget the call ran under and is only used in the message.
func FromTransport(service, op string, err error, timeout time.Duration) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		e := New(KindTimeout, service, op, fmt.Sprintf("timeout after %s", timeout))
		e.Cause = err
		return e
	}
	e := New(KindConnection, service, op, "")
	e.Cause = err
	return e
}
