package client

import (
	"net/url"

	"github.com/google/uuid"
)

// Request names an API call: a method, a path relative to the configured
// base URL, optional query parameters, and an optional JSON body.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Silent opts this call out of user-facing error notification. The
	// failure still propagates to the caller.
	Silent bool
}

// Response is the decoded-enough result of a successful call. Body is the
// raw payload; typed decoding happens at the facade layer.
type Response struct {
	Status    int
	Body      []byte
	RequestID string
}

// attempt makes the retry-once rule structural: a request is either on its
// first attempt or on its single allowed replay. There is no third state.
type attempt int

const (
	firstAttempt attempt = iota
	replayAttempt
)

// newRequestID generates a correlation id for one attempt. Each attempt of
// the same logical request gets its own id so the two can be told apart in
// cross-system traces.
func newRequestID() string {
	return "req_" + uuid.NewString()
}
