// Package leads submits the site's lead-capture forms: contact messages,
// demo and consultation requests, and newsletter subscriptions. Each call
// posts a flat JSON object; field validation is the backend's job and comes
// back as a classified validation error.
package leads

import (
	"context"
	"net/http"

	"github.com/victoai/go-site-client/apierror"
	"github.com/victoai/go-site-client/client"
)

type ContactMessage struct {
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Email                 string `json:"email"`
	Company               string `json:"company,omitempty"`
	Subject               string `json:"subject"`
	Message               string `json:"message"`
	PrivacyPolicyAccepted bool   `json:"privacy_policy_accepted"`
}

type DemoRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Company     string `json:"company,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Message     string `json:"message,omitempty"`
}

type ConsultationRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Company       string `json:"company,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	PreferredDate string `json:"preferred_date,omitempty"` // YYYY-MM-DD
	PreferredTime string `json:"preferred_time,omitempty"`
	Message       string `json:"message,omitempty"`
}

// SubscriptionType selects which mailing list a newsletter signup joins.
type SubscriptionType string

const (
	SubscriptionResources SubscriptionType = "resources"
	SubscriptionInvestors SubscriptionType = "investors"
)

type NewsletterSignup struct {
	Email            string           `json:"email"`
	SubscriptionType SubscriptionType `json:"subscription_type,omitempty"`
}

// Service submits lead-capture forms.
type Service struct {
	client            *client.Client
	newsletterEnabled bool
}

// NewService creates the lead-capture facade. newsletterEnabled mirrors the
// site's feature flag; a disabled newsletter rejects signups locally instead
// of surfacing a backend error for a form the site does not show.
func NewService(apiClient *client.Client, newsletterEnabled bool) *Service {
	return &Service{client: apiClient, newsletterEnabled: newsletterEnabled}
}

func (s *Service) Contact(ctx context.Context, msg ContactMessage) error {
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "contact/",
		Body:   msg,
	})
	return err
}

func (s *Service) RequestDemo(ctx context.Context, req DemoRequest) error {
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "demo-request/",
		Body:   req,
	})
	return err
}

func (s *Service) RequestConsultation(ctx context.Context, req ConsultationRequest) error {
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "consultation-request/",
		Body:   req,
	})
	return err
}

func (s *Service) SubscribeNewsletter(ctx context.Context, signup NewsletterSignup) error {
	if !s.newsletterEnabled {
		e := apierror.New(apierror.KindUnknown)
		e.Message = "Newsletter signups are currently disabled."
		return e
	}
	if signup.SubscriptionType == "" {
		signup.SubscriptionType = SubscriptionResources
	}
	_, err := s.client.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "newsletter/",
		Body:   signup,
	})
	return err
}
