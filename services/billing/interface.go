package billing

import (
	"context"
	"fmt"
	"time"

	billingRepo "lexconnect/database/repository/billing"
	lawyerRepo "lexconnect/database/repository/lawyer"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"github.com/stripe/stripe-go/v76"
)

var (
	ErrUnknownPlan     = fmt.Errorf("unknown or free plan: %w", utils.ErrInvalid)
	ErrPlanNotPriced   = fmt.Errorf("plan has no Stripe price configured: %w", utils.ErrUnavailable)
	ErrNoCustomer      = fmt.Errorf("no billing account yet, subscribe to a plan first: %w", utils.ErrConflict)
	ErrBadSignature    = fmt.Errorf("webhook signature verification failed: %w", utils.ErrInvalid)
	ErrBillingDisabled = fmt.Errorf("billing is not configured: %w", utils.ErrUnavailable)
)

// SessionURL is a hosted Stripe page the client redirects to.
type SessionURL struct {
	URL string `json:"url"`
}

type BillingService interface {
	Plans() []models.Plan
	Checkout(ctx context.Context, lawyerID, planID string) (*SessionURL, error)
	Portal(ctx context.Context, lawyerID string) (*SessionURL, error)
	// HandleWebhook verifies and applies a Stripe event. Replayed events
	// are acknowledged without side effects.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// StripeAPI is the subset of the Stripe SDK the service calls.
type StripeAPI interface {
	NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

// Prices maps catalogue plans to Stripe price ids.
type Prices map[string]string

type DefaultBillingService struct {
	Lawyers       lawyerRepo.LawyerRepository
	Events        billingRepo.EventRepository
	Notifier      notification.Notifier
	Stripe        StripeAPI
	Prices        Prices
	WebhookSecret string
	PublicBaseURL string
	// Metrics is optional.
	Metrics *utils.Metrics
	Now     func() time.Time
}

func (s *DefaultBillingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *DefaultBillingService) planForPrice(priceID string) (string, bool) {
	for plan, id := range s.Prices {
		if id != "" && id == priceID {
			return plan, true
		}
	}
	return "", false
}

func (s *DefaultBillingService) observe(eventType, result string) {
	if s.Metrics != nil {
		s.Metrics.WebhookEvents.WithLabelValues(eventType, result).Inc()
	}
}
