package models

import "time"

const (
	EventRegistered     = "registered"
	EventLogin          = "login"
	EventLoginFailed    = "login_failed"
	EventLogout         = "logout"
	EventPasswordChange = "password_change"
	EventPasswordReset  = "password_reset"
	EventLawyerVerified = "lawyer_verified"
	EventLawyerRejected = "lawyer_rejected"
	EventSuspended      = "account_suspended"
	EventReinstated     = "account_reinstated"
	EventForcedRound    = "forced_redistribution"
)

type SecurityLog struct {
	ID        string    `bson:"id" json:"id"`
	ActorID   string    `bson:"actorId" json:"actorId"`
	ActorRole string    `bson:"actorRole" json:"actorRole"`
	Event     string    `bson:"event" json:"event"`
	IP        string    `bson:"ip,omitempty" json:"ip,omitempty"`
	Country   string    `bson:"country,omitempty" json:"country,omitempty"`
	UserAgent string    `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Detail    string    `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// RequestMeta is the client information recorded alongside an event.
type RequestMeta struct {
	IP        string
	Country   string
	UserAgent string
}
