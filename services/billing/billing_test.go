package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"lexconnect/database/repository/memrepo"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const secret = "whsec_test"

type fakeStripe struct {
	customers int
	checkout  *stripe.CheckoutSessionParams
	failNext  bool
}

func (f *fakeStripe) NewCustomer(p *stripe.CustomerParams) (*stripe.Customer, error) {
	f.customers++
	return &stripe.Customer{ID: fmt.Sprintf("cus_%d", f.customers)}, nil
}

func (f *fakeStripe) NewCheckoutSession(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.failNext {
		return nil, errors.New("stripe down")
	}
	f.checkout = p
	return &stripe.CheckoutSession{URL: "https://checkout.stripe.test/s"}, nil
}

func (f *fakeStripe) NewPortalSession(p *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.test/p"}, nil
}

func newService() (*DefaultBillingService, *memrepo.Lawyers, *memrepo.Notifications, *fakeStripe) {
	lawyers := memrepo.NewLawyers()
	lawyers.Put(models.Lawyer{
		ID:      "law-1",
		Profile: models.LawyerProfile{Email: "ada@example.com", FullName: "Ada Obi"},
		Plan:    models.LawyerPlan{PlanID: models.PlanFree, Status: models.PlanStatusActive},
	})
	notes := memrepo.NewNotifications()
	fs := &fakeStripe{}
	svc := &DefaultBillingService{
		Lawyers:       lawyers,
		Events:        memrepo.NewEvents(),
		Notifier:      &notification.DefaultNotificationService{Repo: notes},
		Stripe:        fs,
		Prices:        Prices{models.PlanBasic: "price_basic", models.PlanPro: "price_pro"},
		WebhookSecret: secret,
		PublicBaseURL: "https://app.test",
		Metrics:       utils.NopMetrics(),
	}
	return svc, lawyers, notes, fs
}

func sign(payload string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func event(id, kind, object string) string {
	return fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"api_version":"2023-10-16","data":{"object":%s}}`, id, kind, object)
}

func TestPlansCarryPrices(t *testing.T) {
	svc, _, _, _ := newService()
	plans := svc.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, "", plans[0].StripePriceID)
	assert.Equal(t, "price_basic", plans[1].StripePriceID)
	assert.Equal(t, "price_pro", plans[2].StripePriceID)
}

func TestCheckoutCreatesCustomerOnce(t *testing.T) {
	svc, lawyers, _, fs := newService()
	ctx := context.Background()

	out, err := svc.Checkout(ctx, "law-1", models.PlanBasic)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/s", out.URL)
	assert.Equal(t, "law-1", *fs.checkout.ClientReferenceID)
	assert.Equal(t, "price_basic", *fs.checkout.LineItems[0].Price)

	l, err := lawyers.GetByID(ctx, "law-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", l.Plan.StripeCustomerID)

	_, err = svc.Checkout(ctx, "law-1", models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, 1, fs.customers)
}

func TestCheckoutRejectsBadPlans(t *testing.T) {
	svc, _, _, fs := newService()
	ctx := context.Background()

	_, err := svc.Checkout(ctx, "law-1", models.PlanFree)
	assert.ErrorIs(t, err, ErrUnknownPlan)
	_, err = svc.Checkout(ctx, "law-1", "platinum")
	assert.ErrorIs(t, err, utils.ErrInvalid)

	delete(svc.Prices, models.PlanPro)
	_, err = svc.Checkout(ctx, "law-1", models.PlanPro)
	assert.ErrorIs(t, err, ErrPlanNotPriced)

	fs.failNext = true
	_, err = svc.Checkout(ctx, "law-1", models.PlanBasic)
	assert.ErrorIs(t, err, utils.ErrUnavailable)
}

func TestPortalNeedsCustomer(t *testing.T) {
	svc, _, _, _ := newService()
	_, err := svc.Portal(context.Background(), "law-1")
	assert.ErrorIs(t, err, ErrNoCustomer)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _, _, _ := newService()
	payload := event("evt_1", "invoice.payment_failed", `{"id":"in_1","customer":"cus_1"}`)
	err := svc.HandleWebhook(context.Background(), []byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	svc, lawyers, notes, _ := newService()
	ctx := context.Background()

	completed := event("evt_1", "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"law-1","customer":"cus_9","subscription":"sub_9","metadata":{"plan_id":"basic"}}`)
	require.NoError(t, svc.HandleWebhook(ctx, []byte(completed), sign(completed)))

	l, _ := lawyers.GetByID(ctx, "law-1")
	assert.Equal(t, models.PlanBasic, l.Plan.PlanID)
	assert.Equal(t, models.PlanStatusActive, l.Plan.Status)
	assert.Equal(t, "cus_9", l.Plan.StripeCustomerID)
	assert.Equal(t, "sub_9", l.Plan.StripeSubscriptionID)
	assert.Len(t, notes.ByType(models.NotifyPlanChanged), 1)

	upgraded := event("evt_2", "customer.subscription.updated",
		`{"id":"sub_9","object":"subscription","customer":"cus_9","status":"active","current_period_end":1767225600,"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_pro"}}]}}`)
	require.NoError(t, svc.HandleWebhook(ctx, []byte(upgraded), sign(upgraded)))
	l, _ = lawyers.GetByID(ctx, "law-1")
	assert.Equal(t, models.PlanPro, l.Plan.PlanID)
	require.NotNil(t, l.Plan.CurrentPeriodEnd)
	assert.Equal(t, int64(1767225600), l.Plan.CurrentPeriodEnd.Unix())

	failed := event("evt_3", "invoice.payment_failed", `{"id":"in_1","object":"invoice","customer":"cus_9"}`)
	require.NoError(t, svc.HandleWebhook(ctx, []byte(failed), sign(failed)))
	l, _ = lawyers.GetByID(ctx, "law-1")
	assert.Equal(t, models.PlanStatusPastDue, l.Plan.Status)
	assert.Equal(t, models.PlanFree, l.EffectivePlan().ID)
	assert.Len(t, notes.ByType(models.NotifyPaymentFailed), 1)

	deleted := event("evt_4", "customer.subscription.deleted",
		`{"id":"sub_9","object":"subscription","customer":"cus_9","status":"canceled"}`)
	require.NoError(t, svc.HandleWebhook(ctx, []byte(deleted), sign(deleted)))
	l, _ = lawyers.GetByID(ctx, "law-1")
	assert.Equal(t, models.PlanFree, l.Plan.PlanID)
	assert.Equal(t, models.PlanStatusActive, l.Plan.Status)
	assert.Empty(t, l.Plan.StripeSubscriptionID)
}

func TestWebhookReplayIsIgnored(t *testing.T) {
	svc, _, notes, _ := newService()
	ctx := context.Background()
	completed := event("evt_1", "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"law-1","customer":"cus_9","metadata":{"plan_id":"pro"}}`)

	require.NoError(t, svc.HandleWebhook(ctx, []byte(completed), sign(completed)))
	require.NoError(t, svc.HandleWebhook(ctx, []byte(completed), sign(completed)))
	assert.Len(t, notes.ByType(models.NotifyPlanChanged), 1)
}

func TestWebhookUnknownCustomerIsAcknowledged(t *testing.T) {
	svc, _, _, _ := newService()
	failed := event("evt_1", "invoice.payment_failed", `{"id":"in_1","object":"invoice","customer":"cus_missing"}`)
	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte(failed), sign(failed)))
}

func TestWebhookCheckoutForUnknownLawyerIsAcknowledged(t *testing.T) {
	svc, _, notes, _ := newService()
	ctx := context.Background()
	completed := event("evt_1", "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"law-gone","customer":"cus_9","metadata":{"plan_id":"pro"}}`)

	require.NoError(t, svc.HandleWebhook(ctx, []byte(completed), sign(completed)))
	assert.Empty(t, notes.ByType(models.NotifyPlanChanged))

	seen, err := svc.Events.MarkProcessed(ctx, "evt_1", "checkout.session.completed", time.Now())
	require.NoError(t, err)
	assert.False(t, seen, "event stays recorded")
}

func TestSubscriptionStatusMapping(t *testing.T) {
	cases := map[stripe.SubscriptionStatus]string{
		stripe.SubscriptionStatusActive:     models.PlanStatusActive,
		stripe.SubscriptionStatusTrialing:   models.PlanStatusActive,
		stripe.SubscriptionStatusPastDue:    models.PlanStatusPastDue,
		stripe.SubscriptionStatusUnpaid:     models.PlanStatusPastDue,
		stripe.SubscriptionStatusIncomplete: models.PlanStatusPastDue,
		stripe.SubscriptionStatusCanceled:   models.PlanStatusCanceled,
	}
	for in, want := range cases {
		assert.Equal(t, want, subscriptionStatus(in), string(in))
	}
}
