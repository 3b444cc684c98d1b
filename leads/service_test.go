package leads_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/victoai/go-site-client/apierror"
	"github.com/victoai/go-site-client/client"
	"github.com/victoai/go-site-client/leads"
)

func newService(t *testing.T, handler http.Handler, newsletterEnabled bool) *leads.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	apiClient, err := client.New(client.Options{BaseURL: server.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return leads.NewService(apiClient, newsletterEnabled)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestContact(t *testing.T) {
	t.Run("submits the flat form payload", func(t *testing.T) {
		var got map[string]any
		svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "POST", r.Method)
			require.Equal(t, "/contact/", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusCreated, map[string]string{"message": "received"})
		}), true)

		err := svc.Contact(context.Background(), leads.ContactMessage{
			FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
			Subject: "demo", Message: "hello", PrivacyPolicyAccepted: true,
		})
		require.NoError(t, err)
		require.Equal(t, "jane@example.com", got["email"])
		require.Equal(t, true, got["privacy_policy_accepted"])
	})

	t.Run("validation payload folds to one display string", func(t *testing.T) {
		svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"errors": map[string][]string{
					"email":   {"Enter a valid email address."},
					"subject": {"This field is required."},
				},
			})
		}), true)

		err := svc.Contact(context.Background(), leads.ContactMessage{})
		require.Error(t, err)

		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, apierror.KindValidation, apiErr.Kind)
		require.Contains(t, apiErr.Message, "email: Enter a valid email address.")
		require.Contains(t, apiErr.Message, "subject: This field is required.")
		require.False(t, apiErr.Retryable)
	})
}

func TestDemoAndConsultation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/demo-request/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{})
	})
	mux.HandleFunc("/consultation-request/", func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		_ = json.NewDecoder(r.Body).Decode(&got)
		require.Equal(t, "2026-09-15", got["preferred_date"])
		writeJSON(w, http.StatusCreated, map[string]string{})
	})
	svc := newService(t, mux, true)

	require.NoError(t, svc.RequestDemo(context.Background(), leads.DemoRequest{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
	}))
	require.NoError(t, svc.RequestConsultation(context.Background(), leads.ConsultationRequest{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
		PreferredDate: "2026-09-15", PreferredTime: "morning",
	}))
}

func TestNewsletter(t *testing.T) {
	t.Run("defaults the subscription type", func(t *testing.T) {
		var got map[string]any
		svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			writeJSON(w, http.StatusCreated, map[string]string{})
		}), true)

		require.NoError(t, svc.SubscribeNewsletter(context.Background(), leads.NewsletterSignup{Email: "jane@example.com"}))
		require.Equal(t, "resources", got["subscription_type"])
	})

	t.Run("disabled flag rejects locally", func(t *testing.T) {
		called := false
		svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}), false)

		err := svc.SubscribeNewsletter(context.Background(), leads.NewsletterSignup{Email: "jane@example.com"})
		require.Error(t, err)
		require.False(t, called)
		require.False(t, apierror.IsRetryable(err))
	})
}
