package routes

import (
	"time"

	"lexconnect/handlers"
	"lexconnect/middleware"
	"lexconnect/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func citizenAuth(hb *handlers.HandlerBundle) gin.HandlerFunc {
	return middleware.AccountAuth(hb.Sessions, hb.Cache, utils.RoleCitizen)
}

func lawyerAuth(hb *handlers.HandlerBundle) gin.HandlerFunc {
	return middleware.AccountAuth(hb.Sessions, hb.Cache, utils.RoleLawyer)
}

func anyAccountAuth(hb *handlers.HandlerBundle) gin.HandlerFunc {
	return middleware.AccountAuth(hb.Sessions, hb.Cache, utils.RoleCitizen, utils.RoleLawyer)
}

// RegisterCitizenRoutes registers citizen account endpoints.
func RegisterCitizenRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g := api.Group("/citizens")
	{
		g.POST("/register", hb.Citizen.Register)
		g.POST("/login", hb.Citizen.Login)
		g.POST("/password/forgot", hb.Citizen.ForgotPassword)
		g.POST("/password/reset", hb.Citizen.ResetPassword)

		me := g.Group("/me", citizenAuth(hb))
		me.GET("", hb.Citizen.GetProfile)
		me.PATCH("", hb.Citizen.UpdateProfile)
		me.PUT("/password", hb.Citizen.ChangePassword)
		me.POST("/logout", hb.Citizen.Logout)
	}
}

// RegisterLawyerRoutes registers lawyer account and practice endpoints.
func RegisterLawyerRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g := api.Group("/lawyers")
	{
		g.POST("/register", hb.Lawyer.Register)
		g.POST("/login", hb.Lawyer.Login)
		g.POST("/password/forgot", hb.Lawyer.ForgotPassword)
		g.POST("/password/reset", hb.Lawyer.ResetPassword)

		me := g.Group("/me", lawyerAuth(hb))
		me.GET("", hb.Lawyer.GetProfile)
		me.PATCH("", hb.Lawyer.UpdateProfile)
		me.PUT("/password", hb.Lawyer.ChangePassword)
		me.POST("/logout", hb.Lawyer.Logout)
		me.PUT("/availability", hb.Lawyer.SetAvailability)
		me.POST("/verification", hb.Lawyer.UploadVerification)
		me.GET("/leads", hb.Lawyer.LeadUsage)
		me.GET("/matches", hb.Lawyer.ListMatches)
		me.POST("/matches/:id/accept", hb.Lawyer.AcceptMatch)
		me.POST("/matches/:id/reject", hb.Lawyer.RejectMatch)
	}
}

// RegisterCaseRoutes registers case and chat endpoints.
func RegisterCaseRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g := api.Group("/cases")
	{
		g.POST("", citizenAuth(hb), hb.Case.Create)
		g.POST("/:id/cancel", citizenAuth(hb), hb.Case.Cancel)
		g.POST("/:id/close", citizenAuth(hb), hb.Case.Close)
		g.POST("/:id/voice", citizenAuth(hb), hb.Case.Voice)
		g.POST("/:id/withdraw", lawyerAuth(hb), hb.Lawyer.WithdrawCase)

		shared := g.Group("", anyAccountAuth(hb))
		shared.GET("", hb.Case.List)
		shared.GET("/:id", hb.Case.Get)
		shared.POST("/:id/attachments", hb.Case.Attach)
		shared.GET("/:id/attachments/:attachmentId", hb.Case.AttachmentURL)

		shared.GET("/:id/messages", hb.Chat.Poll)
		shared.POST("/:id/messages", hb.Chat.Send)
		shared.POST("/:id/messages/file", hb.Chat.SendFile)
		shared.POST("/:id/messages/read", hb.Chat.MarkRead)
		shared.GET("/:id/messages/unread", hb.Chat.Unread)
	}
}

func RegisterNotificationRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g := api.Group("/notifications", anyAccountAuth(hb))
	{
		g.GET("", hb.Notification.List)
		g.POST("/:id/read", hb.Notification.MarkRead)
		g.POST("/read", hb.Notification.MarkAllRead)
	}
}

// RegisterBillingRoutes registers plan and Stripe endpoints. The webhook
// is authenticated by its signature only.
func RegisterBillingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g := api.Group("/billing")
	{
		g.GET("/plans", hb.Billing.Plans)
		g.POST("/webhook", hb.Billing.Webhook)
		g.POST("/checkout", lawyerAuth(hb), hb.Billing.Checkout)
		g.POST("/portal", lawyerAuth(hb), hb.Billing.Portal)
	}
}

func RegisterPublicRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.POST("/prequal/messages", hb.Prequal.Message)
	api.GET("/prequal/:id", hb.Prequal.Get)
	api.GET("/legal", hb.Admin.Legal)
	if hb.GeoCode != nil {
		api.GET("/geocode", anyAccountAuth(hb), hb.GeoCode.Geocode)
	}
}

// RegisterAdminRoutes sets up endpoints for moderation.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g := api.Group("/admin", middleware.AdminAuth(hb.AdminToken))
	{
		g.GET("/lawyers", hb.Admin.ListLawyers)
		g.POST("/lawyers/:id/verify", hb.Admin.VerifyLawyer)
		g.POST("/lawyers/:id/reject", hb.Admin.RejectLawyer)
		g.GET("/citizens", hb.Admin.ListCitizens)
		g.PUT("/accounts/:role/:id/suspension", hb.Admin.SetSuspended)
		g.GET("/cases", hb.Admin.ListCases)
		g.POST("/cases/:id/redistribute", hb.Admin.ForceRedistribute)
		g.GET("/security-logs", hb.Admin.SecurityLogs)
		g.GET("/stats", hb.Admin.Stats)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, gatherer prometheus.Gatherer) {
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RequestLogger())
	if hb.Metrics != nil {
		r.Use(middleware.PrometheusMiddleware(hb.Metrics))
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(hb.RatePerMin))
	if hb.Geo != nil {
		api.Use(middleware.GeolocationMiddleware(hb.Geo))
	}

	RegisterCitizenRoutes(api, hb)
	RegisterLawyerRoutes(api, hb)
	RegisterCaseRoutes(api, hb)
	RegisterNotificationRoutes(api, hb)
	RegisterBillingRoutes(api, hb)
	RegisterPublicRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
}
