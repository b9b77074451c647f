package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lexconnect/database/repository"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
	eventPaymentFailed       = "invoice.payment_failed"
)

func (s *DefaultBillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	logger := utils.GetLogger()
	if s.WebhookSecret == "" {
		return ErrBillingDisabled
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		logger.Warn("billing: rejected webhook", zap.Error(err))
		s.observe("unknown", "bad_signature")
		return ErrBadSignature
	}

	first, err := s.Events.MarkProcessed(ctx, event.ID, string(event.Type), s.now())
	if err != nil {
		return err
	}
	if !first {
		logger.Info("billing: duplicate webhook ignored", zap.String("eventID", event.ID))
		s.observe(string(event.Type), "duplicate")
		return nil
	}

	if err := s.apply(ctx, event); err != nil {
		// Let Stripe retry the event.
		if ferr := s.Events.Forget(ctx, event.ID); ferr != nil {
			logger.Error("billing: failed to release event id", zap.String("eventID", event.ID), zap.Error(ferr))
		}
		logger.Error("billing: webhook handling failed", zap.String("eventID", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
		s.observe(string(event.Type), "error")
		return err
	}
	logger.Info("billing: webhook applied", zap.String("eventID", event.ID), zap.String("type", string(event.Type)))
	s.observe(string(event.Type), "applied")
	return nil
}

func (s *DefaultBillingService) apply(ctx context.Context, event stripe.Event) error {
	if event.Data == nil {
		return nil
	}
	switch string(event.Type) {
	case eventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.onCheckoutCompleted(ctx, &sess)
	case eventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.onSubscriptionUpdated(ctx, &sub)
	case eventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.onSubscriptionDeleted(ctx, &sub)
	case eventPaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		return s.onPaymentFailed(ctx, &inv)
	}
	return nil
}

func (s *DefaultBillingService) onCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	lawyerID := sess.ClientReferenceID
	if lawyerID == "" {
		lawyerID = sess.Metadata[metaLawyerID]
	}
	planID := sess.Metadata["plan_id"]
	if lawyerID == "" || !models.IsKnownPlan(planID) {
		utils.GetLogger().Warn("billing: checkout session without lawyer or plan", zap.String("session", sess.ID))
		return nil
	}
	set := bson.M{
		"plan.planId": planID,
		"plan.status": models.PlanStatusActive,
		"updatedAt":   s.now(),
	}
	if sess.Customer != nil {
		set["plan.stripeCustomerId"] = sess.Customer.ID
	}
	if sess.Subscription != nil {
		set["plan.stripeSubscriptionId"] = sess.Subscription.ID
	}
	if err := s.Lawyers.UpdateSetDocument(ctx, lawyerID, set); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.GetLogger().Warn("billing: checkout for unknown lawyer",
				zap.String("session", sess.ID), zap.String("lawyerID", lawyerID))
			return nil
		}
		return err
	}
	s.notify(ctx, lawyerID, models.NotifyPlanChanged, "Plan activated",
		fmt.Sprintf("Your %s plan is now active.", models.PlanByID(planID).Name))
	return nil
}

// subscriptionStatus folds Stripe's statuses onto the three plan states.
func subscriptionStatus(st stripe.SubscriptionStatus) string {
	switch st {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.PlanStatusActive
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return models.PlanStatusCanceled
	default:
		return models.PlanStatusPastDue
	}
}

func (s *DefaultBillingService) lawyerForCustomer(ctx context.Context, c *stripe.Customer) (*models.Lawyer, error) {
	if c == nil || c.ID == "" {
		return nil, nil
	}
	l, err := s.Lawyers.GetByStripeCustomer(ctx, c.ID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.GetLogger().Warn("billing: event for unknown customer", zap.String("customer", c.ID))
		return nil, nil
	}
	return l, err
}

func (s *DefaultBillingService) onSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	l, err := s.lawyerForCustomer(ctx, sub.Customer)
	if err != nil || l == nil {
		return err
	}
	set := bson.M{
		"plan.status":               subscriptionStatus(sub.Status),
		"plan.stripeSubscriptionId": sub.ID,
		"updatedAt":                 s.now(),
	}
	if sub.CurrentPeriodEnd > 0 {
		set["plan.currentPeriodEnd"] = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		if planID, ok := s.planForPrice(sub.Items.Data[0].Price.ID); ok {
			set["plan.planId"] = planID
		}
	}
	return s.Lawyers.UpdateSetDocument(ctx, l.ID, set)
}

func (s *DefaultBillingService) onSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	l, err := s.lawyerForCustomer(ctx, sub.Customer)
	if err != nil || l == nil {
		return err
	}
	set := bson.M{
		"plan.planId":               models.PlanFree,
		"plan.status":               models.PlanStatusActive,
		"plan.stripeSubscriptionId": "",
		"updatedAt":                 s.now(),
	}
	if err := s.Lawyers.UpdateSetDocument(ctx, l.ID, set); err != nil {
		return err
	}
	s.notify(ctx, l.ID, models.NotifyPlanChanged, "Subscription ended", "You are now on the Free plan.")
	return nil
}

func (s *DefaultBillingService) onPaymentFailed(ctx context.Context, inv *stripe.Invoice) error {
	l, err := s.lawyerForCustomer(ctx, inv.Customer)
	if err != nil || l == nil {
		return err
	}
	if err := s.Lawyers.UpdateSetDocument(ctx, l.ID, bson.M{"plan.status": models.PlanStatusPastDue, "updatedAt": s.now()}); err != nil {
		return err
	}
	s.notify(ctx, l.ID, models.NotifyPaymentFailed, "Payment failed",
		"We could not charge your card. Update your payment method to keep receiving leads.")
	return nil
}

func (s *DefaultBillingService) notify(ctx context.Context, lawyerID, kind, title, body string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, notification.Message{
		RecipientID:   lawyerID,
		RecipientRole: utils.RoleLawyer,
		Type:          kind,
		Title:         title,
		Body:          body,
	}); err != nil {
		utils.GetLogger().Warn("billing: notification failed", zap.String("lawyerID", lawyerID), zap.Error(err))
	}
}
