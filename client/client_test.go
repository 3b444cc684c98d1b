package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/victoai/go-site-client/apierror"
	"github.com/victoai/go-site-client/client"
	"github.com/victoai/go-site-client/session"
)

type fixture struct {
	client       *client.Client
	store        session.Store
	server       *httptest.Server
	expiredCount *atomic.Int32
	notified     *[]*apierror.Error
}

func newFixture(t *testing.T, handler http.Handler, opts ...func(*client.Options)) *fixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewMemoryStore()
	expired := &atomic.Int32{}
	notified := &[]*apierror.Error{}
	var mu sync.Mutex

	options := client.Options{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
		Store:   store,
		Notifier: apierror.NotifierFunc(func(e *apierror.Error) {
			mu.Lock()
			defer mu.Unlock()
			*notified = append(*notified, e)
		}),
		OnSessionExpired: func() { expired.Add(1) },
	}
	for _, opt := range opts {
		opt(&options)
	}

	c, err := client.New(options)
	require.NoError(t, err)

	return &fixture{client: c, store: store, server: server, expiredCount: expired, notified: notified}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestDoAttachesHeaders(t *testing.T) {
	var got http.Header
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	}))

	require.NoError(t, f.store.Write(session.Tokens{Access: "tok-1", Refresh: "ref-1"}))

	resp, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "blog-posts/"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)

	require.Equal(t, "Bearer tok-1", got.Get("Authorization"))
	require.Equal(t, "application/json", got.Get("Content-Type"))
	require.NotEmpty(t, got.Get("X-Request-ID"))
	require.Equal(t, got.Get("X-Request-ID"), resp.RequestID)
}

func TestDoWithoutTokenOmitsAuthorization(t *testing.T) {
	var got http.Header
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]string{})
	}))

	_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "categories/"})
	require.NoError(t, err)
	require.Empty(t, got.Get("Authorization"))
}

func TestRefreshReplaysOnce(t *testing.T) {
	var refreshCalls atomic.Int32
	attempts := []string{}
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != "ref-1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad refresh"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access": "tok-new", "expires_in": 3600})
	})
	mux.HandleFunc("/blog-posts/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts = append(attempts, r.Header.Get("X-Request-ID"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token not valid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"title": "post"})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.store.Write(session.Tokens{Access: "tok-stale", Refresh: "ref-1"}))

	resp, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "blog-posts/"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)

	// One refresh, one replay, and the two attempts are distinguishable.
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Len(t, attempts, 2)
	require.NotEqual(t, attempts[0], attempts[1])

	// The rotated access token is in the store, refresh token untouched.
	sess, err := f.store.Read()
	require.NoError(t, err)
	require.Equal(t, "tok-new", sess.AccessToken)
	require.Equal(t, "ref-1", sess.RefreshToken)
	require.False(t, sess.AccessExpiry.IsZero())

	// Recovered locally: nothing was notified, no session-expired signal.
	require.Empty(t, *f.notified)
	require.Equal(t, int32(0), f.expiredCount.Load())
}

func TestSecond401IsTerminal(t *testing.T) {
	var refreshCalls, resourceCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"access": "tok-new"})
	})
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		resourceCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "still not valid"})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.store.Write(session.Tokens{Access: "tok-stale", Refresh: "ref-1"}))

	_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "auth/profile/"})
	require.Error(t, err)
	require.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))

	// Exactly one refresh and one replay; the replay's 401 was not refreshed
	// again, and unauthorized is never notified.
	require.Equal(t, int32(1), refreshCalls.Load())
	require.Equal(t, int32(2), resourceCalls.Load())
	require.Empty(t, *f.notified)
}

func TestRefreshFailureClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "refresh expired"})
	})
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token not valid"})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.store.Write(session.Tokens{Access: "tok-stale", Refresh: "ref-dead", ExpiresIn: 3600}))

	_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "auth/profile/"})
	require.Error(t, err)
	require.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))

	// The whole session is gone and the shell was told to redirect.
	sess, readErr := f.store.Read()
	require.NoError(t, readErr)
	require.Equal(t, session.Session{}, sess)
	require.Equal(t, int32(1), f.expiredCount.Load())
}

func TestMissingRefreshTokenSkipsRefreshCall(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"access": "tok-new"})
	})
	mux.HandleFunc("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token not valid"})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.store.Write(session.Tokens{Access: "tok-stale"}))

	_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "auth/profile/"})
	require.Error(t, err)
	require.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))
	require.Equal(t, int32(0), refreshCalls.Load())
	require.Equal(t, int32(1), f.expiredCount.Load())
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(50 * time.Millisecond) // hold the window open
		writeJSON(w, http.StatusOK, map[string]any{"access": "tok-new", "expires_in": 3600})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token not valid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})

	f := newFixture(t, mux)
	require.NoError(t, f.store.Write(session.Tokens{Access: "tok-stale", Refresh: "ref-1"}))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "blog-posts/"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	require.Equal(t, int32(1), refreshCalls.Load())
}

func TestNotFoundClassification(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}))

	_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "blog-posts/missing/"})
	require.Error(t, err)

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.KindNotFound, apiErr.Kind)
	require.False(t, apiErr.Retryable)
	require.Equal(t, "Not found.", apiErr.Message)
}

func TestTimeoutClassification(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{})
	}), func(o *client.Options) {
		o.Timeout = 50 * time.Millisecond
	})

	_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "blog-posts/"})
	require.Error(t, err)

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apierror.KindTimeout, apiErr.Kind)
	require.True(t, apiErr.Retryable)
}

func TestNotification(t *testing.T) {
	t.Run("server error is notified", func(t *testing.T) {
		f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database down"})
		}))

		_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "tags/"})
		require.Error(t, err)
		require.Len(t, *f.notified, 1)
		require.Equal(t, "database down", (*f.notified)[0].Message)
	})

	t.Run("silent request opts out", func(t *testing.T) {
		f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database down"})
		}))

		_, err := f.client.Do(context.Background(), client.Request{Method: http.MethodGet, Path: "tags/", Silent: true})
		require.Error(t, err)
		require.Empty(t, *f.notified)
	})
}

func TestDoJSON(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"title": "Securing LLM Pipelines"})
	}))

	type post struct {
		Title string `json:"title"`
	}
	got, err := client.DoJSON[post](context.Background(), f.client, client.Request{
		Method: http.MethodGet,
		Path:   "blog-posts/securing-llm-pipelines/",
	})
	require.NoError(t, err)
	require.Equal(t, "Securing LLM Pipelines", got.Title)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := client.New(client.Options{})
	require.Error(t, err)
}
