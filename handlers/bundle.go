package handlers

import (
	"lexconnect/middleware"
	"lexconnect/services/account"
	"lexconnect/utils"
)

// HandlerBundle groups all endpoint handlers plus what the auth
// middleware needs.
type HandlerBundle struct {
	Sessions   middleware.Sources
	Cache      account.SessionCache
	AdminToken string
	Geo        *middleware.GeoResolver
	Metrics    *utils.Metrics
	RatePerMin int

	Citizen      *CitizenHandler
	Lawyer       *LawyerHandler
	Case         *CaseHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
	Billing      *BillingHandler
	Prequal      *PrequalHandler
	Admin        *AdminHandler
	// GeoCode is nil when no Google API key is configured.
	GeoCode *GeoHandler
}
