package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/victoai/go-site-client/apierror"
	"github.com/victoai/go-site-client/session"
)

const refreshPath = "auth/login/refresh/"

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
	// Refresh is only present when the endpoint rotates the refresh token.
	// Rotation is optional; an absent value keeps the stored token.
	Refresh   string `json:"refresh"`
	ExpiresIn int    `json:"expires_in"`
}

// refresh exchanges the stored refresh token for a new access token and
// writes it back to the store. All concurrent 401s share one in-flight
// exchange: callers block on the same singleflight key instead of each
// issuing their own refresh call. On any failure the session is cleared and
// the session-expired event fires; the returned error is the terminal
// unauthorized classification.
func (c *Client) refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	sess, err := c.store.Read()
	if err != nil || sess.RefreshToken == "" {
		c.expireSession()
		return apierror.New(apierror.KindUnauthorized)
	}

	requestID := newRequestID()
	payload, err := json.Marshal(refreshRequest{Refresh: sess.RefreshToken})
	if err != nil {
		c.expireSession()
		return apierror.New(apierror.KindUnauthorized)
	}

	// The refresh call bypasses Do: it must not recurse into the 401
	// handling it implements, and it carries no bearer token.
	target := c.baseURL.JoinPath(refreshPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		c.expireSession()
		return apierror.New(apierror.KindUnauthorized)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Err(err).Str("request_id", requestID).Msg("Token refresh transport failure")
		c.expireSession()
		return apierror.New(apierror.KindUnauthorized)
	}
	body, _ := io.ReadAll(httpResp.Body)
	_ = httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Debug().Int("status", httpResp.StatusCode).Str("request_id", requestID).Msg("Token refresh rejected")
		c.expireSession()
		return apierror.New(apierror.KindUnauthorized)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Access == "" {
		c.expireSession()
		return apierror.New(apierror.KindUnauthorized)
	}

	newRefresh := sess.RefreshToken
	if parsed.Refresh != "" {
		newRefresh = parsed.Refresh
	}
	expiresIn := parsed.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = session.TokenLifetime(parsed.Access, time.Now())
	}

	if err := c.store.Write(session.Tokens{
		Access:    parsed.Access,
		Refresh:   newRefresh,
		ExpiresIn: expiresIn,
	}); err != nil {
		c.expireSession()
		return apierror.New(apierror.KindUnauthorized)
	}
	return nil
}

// expireSession clears the entire session and signals the application shell
// so it can redirect to a login surface. The signal is an observable side
// effect, never swallowed.
func (c *Client) expireSession() {
	_ = c.store.Clear()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}
