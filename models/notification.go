package models

import "time"

const (
	NotifyMatchOffered    = "match_offered"
	NotifyMatchAccepted   = "match_accepted"
	NotifyMatchSuperseded = "match_superseded"
	NotifyCaseUnmatched   = "case_unmatched"
	NotifyCaseWithdrawn   = "case_withdrawn"
	NotifyCaseCancelled   = "case_cancelled"
	NotifyCaseClosed      = "case_closed"
	NotifyNewMessage      = "new_message"
	NotifyPaymentFailed   = "payment_failed"
	NotifyPlanChanged     = "plan_changed"
	NotifyVerification    = "verification"
)

type Notification struct {
	ID            string            `bson:"id" json:"id"`
	RecipientID   string            `bson:"recipientId" json:"recipientId"`
	RecipientRole string            `bson:"recipientRole" json:"recipientRole"`
	Type          string            `bson:"type" json:"type"`
	Title         string            `bson:"title" json:"title"`
	Body          string            `bson:"body" json:"body"`
	Data          map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	Read          bool              `bson:"read" json:"read"`
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
}

// PushPayload is the queued unit of work for FCM delivery.
type PushPayload struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}
