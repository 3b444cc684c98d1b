// Package apierror normalizes every failure coming out of the API client
// into a small, stable taxonomy that calling surfaces can render directly.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// Kind is the classification of a failed API call.
type Kind string

const (
	KindNetwork      Kind = "network"      // server unreachable (DNS, connection refused)
	KindTimeout      Kind = "timeout"      // bounded timeout elapsed
	KindUnauthorized Kind = "unauthorized" // terminal 401 after the one allowed refresh
	KindNotFound     Kind = "not_found"    // HTTP 404
	KindServerError  Kind = "server_error" // HTTP 5xx
	KindValidation   Kind = "validation"   // other 4xx, usually field errors
	KindUnknown      Kind = "unknown"
)

// genericMessages are the fallbacks when the backend supplies no usable
// error text. Safe to display as-is.
var genericMessages = map[Kind]string{
	KindNetwork:      "Could not reach the server. Check your connection and try again.",
	KindTimeout:      "The request timed out. Please try again.",
	KindUnauthorized: "Your session has expired. Please sign in again.",
	KindNotFound:     "The requested resource was not found.",
	KindServerError:  "The server encountered an error. Please try again later.",
	KindValidation:   "The submitted data was not accepted.",
	KindUnknown:      "An unexpected error occurred.",
}

// Error is the normalized failure handed back to callers. It is constructed
// once by the classifier and never mutated afterwards.
type Error struct {
	Kind      Kind
	Message   string // human readable, safe to display, never a stack trace
	Retryable bool
	Status    int                 // HTTP status when one was received, else 0
	RequestID string              // correlation id of the failed attempt
	Fields    map[string][]string // field errors from a validation response
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the classification from any error. Unclassified errors
// report KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether retrying the call could plausibly succeed.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

func retryable(kind Kind) bool {
	switch kind {
	case KindNetwork, KindTimeout, KindServerError:
		return true
	}
	return false
}

// New builds a classified error with the generic message for its kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind, Message: genericMessages[kind], Retryable: retryable(kind)}
}

// errorBody covers the error response shapes the backend produces: a plain
// message, a DRF-style detail, or a map of per-field validation messages.
type errorBody struct {
	Message string              `json:"message"`
	Detail  string              `json:"detail"`
	Errors  map[string][]string `json:"errors"`
}

// FromResponse classifies a received HTTP error status and its body.
// Classification is deterministic: the same status and body always produce
// the same kind and message.
func FromResponse(status int, body []byte, requestID string) *Error {
	var kind Kind
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500:
		kind = KindServerError
	case status >= 400:
		kind = KindValidation
	default:
		kind = KindUnknown
	}

	e := &Error{
		Kind:      kind,
		Message:   genericMessages[kind],
		Retryable: retryable(kind),
		Status:    status,
		RequestID: requestID,
	}

	var parsed errorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		switch {
		case len(parsed.Errors) > 0:
			e.Fields = parsed.Errors
			e.Message = foldFieldErrors(parsed.Errors)
		case parsed.Message != "":
			e.Message = parsed.Message
		case parsed.Detail != "":
			e.Message = parsed.Detail
		}
	}
	return e
}

// Classify turns any transport error into a classified error. Already
// classified errors pass through unchanged.
func Classify(err error, requestID string) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	}

	e := New(kind)
	e.RequestID = requestID
	return e
}

// foldFieldErrors joins a {field: [messages]} map into one display string,
// in stable field order: "email: invalid address; name: required".
func foldFieldErrors(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], ", ")))
	}
	return strings.Join(parts, "; ")
}
