// Package session owns the authentication state for a single end user:
// the access token, the refresh token, and the access token's expiry.
// All other packages reach this state only through a Store, never by
// caching a copy across an asynchronous boundary.
package session

import (
	"errors"
	"time"
)

// Storage keys. These match the keys the web client persisted under, so a
// FileStore written by one process version can be read by the next.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	TokenExpiryKey  = "token_expiry"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Session is the authentication state for the current user agent.
// A zero Session means "not authenticated".
type Session struct {
	AccessToken  string
	RefreshToken string
	// AccessExpiry is the access token's expiry when known. A zero value
	// means unknown: the token is assumed valid until a 401 proves
	// otherwise.
	AccessExpiry time.Time
}

// Authenticated reports whether the session holds an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Tokens is the payload for a Store write. ExpiresIn, when positive, is the
// access token's remaining lifetime in seconds.
type Tokens struct {
	Access    string
	Refresh   string
	ExpiresIn int
}

// Store is the single owner of a Session. Write and Clear are atomic from
// the caller's point of view: a Read scheduled after either observes all
// three fields updated or none.
//
// A Store instance is scoped to one end user. Server-side hosts handling
// many users must create one Store per user (see RedisStore), never share
// a process-global instance.
type Store interface {
	Read() (Session, error)
	Write(t Tokens) error
	Clear() error
}

// expiryFrom computes the stored expiry for a write. A non-positive
// ExpiresIn leaves the expiry unknown.
func expiryFrom(t Tokens, now time.Time) time.Time {
	if t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}
