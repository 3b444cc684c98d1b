// Package userauth is the typed facade over the backend's auth endpoints:
// login, registration, profile, password change, and logout. It owns writing
// tokens into the session store; everything else about the token lifecycle
// lives in the client package.
package userauth

import (
	"context"
	"net/http"
	"time"

	"github.com/victoai/go-site-client/client"
	"github.com/victoai/go-site-client/session"
)

// User is the profile shape the auth endpoints return.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResult is the token pair plus profile returned by login and register.
type LoginResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}

type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

type PasswordChange struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}

// Service wraps the auth endpoints. It holds the same store the client
// reads from, so a successful login is visible to the very next request.
type Service struct {
	client *client.Client
	store  session.Store
}

func NewService(apiClient *client.Client, store session.Store) *Service {
	return &Service{client: apiClient, store: store}
}

// Login exchanges credentials for a token pair and persists it.
func (s *Service) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	result, err := client.DoJSON[LoginResult](ctx, s.client, client.Request{
		Method: http.MethodPost,
		Path:   "auth/login/",
		Body:   creds,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.storeTokens(result); err != nil {
		return LoginResult{}, err
	}
	return result, nil
}

// Register creates an account; the backend logs the new user straight in,
// so the returned tokens are persisted like a login.
func (s *Service) Register(ctx context.Context, reg Registration) (LoginResult, error) {
	result, err := client.DoJSON[LoginResult](ctx, s.client, client.Request{
		Method: http.MethodPost,
		Path:   "auth/register/",
		Body:   reg,
	})
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.storeTokens(result); err != nil {
		return LoginResult{}, err
	}
	return result, nil
}

// Logout tells the backend to blacklist the refresh token, best effort, and
// always clears the local session even when the call fails.
func (s *Service) Logout(ctx context.Context) error {
	sess, err := s.store.Read()
	if err == nil && sess.RefreshToken != "" {
		_, _ = s.client.Do(ctx, client.Request{
			Method: http.MethodPost,
			Path:   "auth/logout/",
			Body:   map[string]string{"refresh_token": sess.RefreshToken},
			Silent: true,
		})
	}
	return s.store.Clear()
}

// Profile fetches the authenticated user's profile.
func (s *Service) Profile(ctx context.Context) (User, error) {
	return client.DoJSON[User](ctx, s.client, client.Request{
		Method: http.MethodGet,
		Path:   "auth/profile/",
	})
}

// UpdateProfile patches the given fields only.
func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	return client.DoJSON[User](ctx, s.client, client.Request{
		Method: http.MethodPatch,
		Path:   "auth/profile/",
		Body:   update,
	})
}

// ChangePassword submits a password change for the authenticated user.
func (s *Service) ChangePassword(ctx context.Context, change PasswordChange) error {
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "auth/change-password/",
		Body:   change,
	})
	return err
}

// IsAuthenticated reports whether an access token is currently held. It says
// nothing about the token's validity; the server decides that.
func (s *Service) IsAuthenticated() bool {
	sess, err := s.store.Read()
	return err == nil && sess.Authenticated()
}

// storeTokens persists a login's token pair. The login response carries no
// expires_in, so the expiry comes from the JWT itself.
func (s *Service) storeTokens(result LoginResult) error {
	return s.store.Write(session.Tokens{
		Access:    result.Access,
		Refresh:   result.Refresh,
		ExpiresIn: session.TokenLifetime(result.Access, time.Now()),
	})
}
