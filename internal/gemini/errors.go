// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes stream failures.
type ErrorKind int

const (
	// KindUnreachable covers network failures and anything not classified
	// more precisely.
	KindUnreachable ErrorKind = iota
	KindUnauthenticated
	KindRateLimited
	KindTimeout
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	default:
		return "unreachable"
	}
}

// StreamError is the only error type StreamChat yields.
type StreamError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// Is matches any StreamError of the same kind, so errors.Is(err,
// ErrRateLimited) works for every rate-limit failure.
func (e *StreamError) Is(target error) bool {
	t, ok := target.(*StreamError)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for easy checking.
var (
	ErrUnauthenticated = &StreamError{Kind: KindUnauthenticated, Message: "missing or invalid API key"}
	ErrRateLimited     = &StreamError{Kind: KindRateLimited, Message: "rate limit exceeded"}
	ErrTimeout         = &StreamError{Kind: KindTimeout, Message: "request timed out"}
	ErrUnreachable     = &StreamError{Kind: KindUnreachable, Message: "model API unreachable"}
)

// ErrStreamConsumed is yielded when a stream is ranged over a second time.
var ErrStreamConsumed = &StreamError{Kind: KindUnreachable, Message: "stream already consumed"}

func newError(kind ErrorKind, msg string, cause error) *StreamError {
	return &StreamError{Kind: kind, Message: msg, Cause: cause}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// KindOf returns the kind of err, classifying foreign errors the same way the
// client does.
func KindOf(err error) ErrorKind {
	return classify(err).Kind
}

// classify maps an SDK, transport or context error onto a StreamError.
func classify(err error) *StreamError {
	if err == nil {
		return ErrUnreachable
	}
	var se *StreamError
	if errors.As(err, &se) {
		return se
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(KindTimeout, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, "request timed out", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"):
		return newError(KindUnauthenticated, "missing or invalid API key", err)
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return newError(KindRateLimited, "rate limit exceeded", err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return newError(KindTimeout, "request timed out", err)
	}
	return newError(KindUnreachable, "model API unreachable", err)
}

func classifyAPIError(e genai.APIError) *StreamError {
	msg := strings.ToLower(e.Message)
	status := strings.ToUpper(e.Status)

	switch {
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden,
		status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED",
		strings.Contains(msg, "api key"):
		return newError(KindUnauthenticated, "missing or invalid API key", e)
	case e.Code == http.StatusTooManyRequests, status == "RESOURCE_EXHAUSTED",
		strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return newError(KindRateLimited, "rate limit exceeded", e)
	case e.Code == http.StatusRequestTimeout || e.Code == http.StatusGatewayTimeout,
		status == "DEADLINE_EXCEEDED":
		return newError(KindTimeout, "request timed out", e)
	}
	return newError(KindUnreachable, "model API unreachable", e)
}

// IsUnauthenticated reports whether err is an authentication failure.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
