package billing

import (
	"context"
	"fmt"

	"lexconnect/models"
	"lexconnect/utils"

	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const metaLawyerID = "lawyer_id"

// Plans returns the catalogue with configured Stripe prices filled in.
func (s *DefaultBillingService) Plans() []models.Plan {
	plans := models.Plans()
	for i := range plans {
		plans[i].StripePriceID = s.Prices[plans[i].ID]
	}
	return plans
}

// Checkout opens a subscription checkout for a paid plan, creating the
// Stripe customer on first use.
func (s *DefaultBillingService) Checkout(ctx context.Context, lawyerID, planID string) (*SessionURL, error) {
	if s.Stripe == nil {
		return nil, ErrBillingDisabled
	}
	if !models.IsKnownPlan(planID) || planID == models.PlanFree {
		return nil, ErrUnknownPlan
	}
	priceID := s.Prices[planID]
	if priceID == "" {
		return nil, ErrPlanNotPriced
	}
	l, err := s.Lawyers.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}

	customerID := l.Plan.StripeCustomerID
	if customerID == "" {
		params := &stripe.CustomerParams{
			Email: stripe.String(l.Profile.Email),
			Name:  stripe.String(l.Profile.FullName),
		}
		params.AddMetadata(metaLawyerID, l.ID)
		cust, err := s.Stripe.NewCustomer(params)
		if err != nil {
			utils.GetLogger().Error("billing: failed to create customer", zap.String("lawyerID", lawyerID), zap.Error(err))
			return nil, fmt.Errorf("failed to start checkout: %w", utils.ErrUnavailable)
		}
		customerID = cust.ID
		if err := s.Lawyers.UpdateSetDocument(ctx, l.ID, bson.M{"plan.stripeCustomerId": customerID}); err != nil {
			return nil, err
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(l.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.PublicBaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.PublicBaseURL + "/billing/cancelled"),
	}
	params.AddMetadata(metaLawyerID, l.ID)
	params.AddMetadata("plan_id", planID)
	sess, err := s.Stripe.NewCheckoutSession(params)
	if err != nil {
		utils.GetLogger().Error("billing: failed to create checkout session", zap.String("lawyerID", lawyerID), zap.Error(err))
		return nil, fmt.Errorf("failed to start checkout: %w", utils.ErrUnavailable)
	}
	return &SessionURL{URL: sess.URL}, nil
}

// Portal opens the Stripe billing portal so the lawyer can manage or
// cancel the subscription.
func (s *DefaultBillingService) Portal(ctx context.Context, lawyerID string) (*SessionURL, error) {
	if s.Stripe == nil {
		return nil, ErrBillingDisabled
	}
	l, err := s.Lawyers.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	if l.Plan.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}
	sess, err := s.Stripe.NewPortalSession(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(l.Plan.StripeCustomerID),
		ReturnURL: stripe.String(s.PublicBaseURL + "/account/billing"),
	})
	if err != nil {
		utils.GetLogger().Error("billing: failed to create portal session", zap.String("lawyerID", lawyerID), zap.Error(err))
		return nil, fmt.Errorf("failed to open billing portal: %w", utils.ErrUnavailable)
	}
	return &SessionURL{URL: sess.URL}, nil
}
