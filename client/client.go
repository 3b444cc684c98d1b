// Package client implements the HTTP request pipeline shared by every API
// call: bearer-token attachment, correlation ids, bounded timeouts, the
// refresh-on-401 replay, and error classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/victoai/go-site-client/apierror"
	"github.com/victoai/go-site-client/session"
)

const defaultTimeout = 10 * time.Second

// sharedTransport pools connections across clients.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Options configures a Client. Zero values get workable defaults; only
// BaseURL is required.
type Options struct {
	BaseURL string
	// Timeout bounds every request. Zero means the 10 second default; the
	// bound is always finite.
	Timeout time.Duration
	// Store holds the session. Defaults to an in-memory store.
	Store session.Store
	// Notifier receives failures eligible for user-facing display.
	Notifier apierror.Notifier
	// OnSessionExpired fires when a refresh fails and the session has been
	// cleared, so the application shell can redirect to a login surface.
	OnSessionExpired func()
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client is the request pipeline. It is safe for concurrent use.
type Client struct {
	baseURL          *url.URL
	httpClient       *http.Client
	store            session.Store
	notifier         apierror.Notifier
	onSessionExpired func()
	refreshGroup     singleflight.Group
	logger           zerolog.Logger
}

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("client: base URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout, Transport: sharedTransport}
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}

	store := opts.Store
	if store == nil {
		store = session.NewMemoryStore()
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		baseURL:          base,
		httpClient:       httpClient,
		store:            store,
		notifier:         opts.Notifier,
		onSessionExpired: opts.OnSessionExpired,
		logger:           logger,
	}, nil
}

// Store returns the session store the client reads tokens from.
func (c *Client) Store() session.Store {
	return c.store
}

// Do executes one logical request through the pipeline. A 401 on the first
// attempt triggers a token refresh and a single replay; every terminal
// failure comes back as a *apierror.Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.do(ctx, req, firstAttempt)
	if err != nil {
		if !req.Silent {
			var apiErr *apierror.Error
			if errors.As(err, &apiErr) {
				apierror.Notify(c.notifier, apiErr)
			}
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request, a attempt) (*Response, error) {
	requestID := newRequestID()

	httpReq, err := c.build(ctx, req, requestID)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		classified := apierror.Classify(err, requestID)
		c.logger.Err(err).Str("request_id", requestID).Str("path", req.Path).Msg("Transport failure")
		return nil, classified
	}
	body, err := io.ReadAll(httpResp.Body)
	_ = httpResp.Body.Close()
	if err != nil {
		return nil, apierror.Classify(err, requestID)
	}

	if httpResp.StatusCode == http.StatusUnauthorized && a == firstAttempt {
		if refreshErr := c.refresh(ctx); refreshErr != nil {
			return nil, refreshErr
		}
		return c.do(ctx, req, replayAttempt)
	}

	if httpResp.StatusCode >= 400 {
		classified := apierror.FromResponse(httpResp.StatusCode, body, requestID)
		c.logger.Debug().
			Str("request_id", requestID).
			Str("path", req.Path).
			Int("status", httpResp.StatusCode).
			Str("kind", string(classified.Kind)).
			Msg("Request failed")
		return nil, classified
	}

	return &Response{Status: httpResp.StatusCode, Body: body, RequestID: requestID}, nil
}

// build constructs the outgoing HTTP request: resolved URL, JSON body,
// content type, correlation id, and the bearer token when one is held. The
// token is attached even when its expiry looks past; the server is
// authoritative.
func (c *Client) build(ctx context.Context, req Request, requestID string) (*http.Request, error) {
	target := c.baseURL.JoinPath(strings.TrimPrefix(req.Path, "/"))
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("client: marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	sess, err := c.store.Read()
	if err != nil {
		return nil, fmt.Errorf("client: read session: %w", err)
	}
	if sess.Authenticated() {
		httpReq.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}
	return httpReq, nil
}
