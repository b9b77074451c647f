// File: lexconnect/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexconnect/config"
	"lexconnect/cron"
	"lexconnect/database"
	billingRepo "lexconnect/database/repository/billing"
	caseRepo "lexconnect/database/repository/cases"
	citizenRepo "lexconnect/database/repository/citizen"
	lawyerRepo "lexconnect/database/repository/lawyer"
	matchRepo "lexconnect/database/repository/match"
	messageRepo "lexconnect/database/repository/message"
	notificationRepo "lexconnect/database/repository/notification"
	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/handlers"
	"lexconnect/middleware"
	"lexconnect/routes"
	"lexconnect/services/account"
	"lexconnect/services/admin"
	"lexconnect/services/audit"
	"lexconnect/services/billing"
	"lexconnect/services/cases"
	"lexconnect/services/chat"
	"lexconnect/services/citizen"
	"lexconnect/services/geocoding"
	"lexconnect/services/lawyer"
	"lexconnect/services/matching"
	"lexconnect/services/notification"
	"lexconnect/services/prequal"
	"lexconnect/services/storage"
	"lexconnect/services/tasks"
	"lexconnect/services/transcription"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := database.InitDB(); err != nil {
		logger.Fatal("main: database unavailable", zap.Error(err))
	}
	utils.InitRedis()
	if err := utils.FirebaseInit(ctx); err != nil {
		logger.Fatal("main: firebase init failed", zap.Error(err))
	}
	stripe.Key = cfg.StripeKey

	if cfg.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET is required")
	}

	fileStore, err := storage.NewFromConfig(ctx)
	if err != nil {
		logger.Fatal("main: failed to initialize storage", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := utils.NewMetrics(reg)
	if err != nil {
		logger.Fatal("main: failed to register metrics", zap.Error(err))
	}

	queueOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
	queue := tasks.NewAsynqEnqueuer(queueOpt)
	defer queue.Close()

	// repositories.
	db := database.Database()
	citizens := citizenRepo.NewMongoCitizenRepo(db)
	lawyers := lawyerRepo.NewMongoLawyerRepo(db)
	caseStore := caseRepo.NewMongoCaseRepo(db)
	matches := matchRepo.NewMongoMatchRepo(db)
	messages := messageRepo.NewMongoMessageRepo(db)
	notes := notificationRepo.NewMongoNotificationRepo(db)
	secLogs := securityLogRepo.NewMongoSecurityLogRepo(db)
	events := billingRepo.NewMongoEventRepo(db)

	// optional integrations.
	var geocoder geocoding.Geocoder
	if cfg.GoogleAPIKey != "" {
		geocoder = geocoding.NewGoogleGeocoder(cfg.GoogleAPIKey, utils.GetCacheClient())
	} else {
		logger.Warn("main: GOOGLE_API_KEY not set, geocoding disabled")
	}

	var transcriber transcription.Transcriber
	if cfg.GoogleServiceAccountFile != "" {
		gt, err := transcription.NewGoogleTranscriber(ctx, cfg.GoogleServiceAccountFile)
		if err != nil {
			logger.Fatal("main: failed to initialize speech client", zap.Error(err))
		}
		defer gt.Close()
		transcriber = gt
	} else {
		logger.Warn("main: GOOGLE_SERVICE_ACCOUNT_FILE not set, voice descriptions disabled")
	}

	var classifier prequal.Classifier
	if cfg.GeminiAPIKey != "" {
		gc, err := prequal.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal("main: failed to initialize gemini", zap.Error(err))
		}
		defer gc.Close()
		classifier = gc
	}

	// services.
	sessionCache := account.NewRedisSessionCache(utils.GetAuthCacheClient())
	otp := account.RedisOTPStore{Client: utils.GetOTPCacheClient()}
	auditSvc := audit.NewDefaultAuditService(secLogs)

	notifier := &notification.DefaultNotificationService{
		Repo:     notes,
		Citizens: citizens,
		Lawyers:  lawyers,
		Queue:    queue,
	}
	if utils.FCMClient != nil {
		notifier.Sender = utils.FCMClient
	}

	engine := matching.NewDefaultEngine(caseStore, matches, lawyers, notifier, metrics, matching.SettingsFromConfig())

	citizenSvc := &citizen.DefaultCitizenService{
		Repo:     citizens,
		Sessions: sessionCache,
		OTP:      otp,
		Audit:    auditSvc,
		Geocoder: geocoder,
	}
	lawyerSvc := &lawyer.DefaultLawyerService{
		Repo:     lawyers,
		Matches:  matches,
		Cases:    caseStore,
		Storage:  fileStore,
		Sessions: sessionCache,
		OTP:      otp,
		Audit:    auditSvc,
		Geocoder: geocoder,
	}
	prequalSvc := prequal.NewDefaultPrequalService(
		prequal.NewRedisSessionStore(utils.GetCacheClient(), prequal.SessionTTL),
		classifier,
	)
	caseSvc := &cases.DefaultCaseService{
		Cases:       caseStore,
		Matches:     matches,
		Lawyers:     lawyers,
		Citizens:    citizens,
		Engine:      engine,
		Queue:       queue,
		Notifier:    notifier,
		Storage:     fileStore,
		Geocoder:    geocoder,
		Transcriber: transcriber,
		Prequal:     prequalSvc,
	}
	chatSvc := &chat.DefaultChatService{
		Cases:    caseStore,
		Messages: messages,
		Notifier: notifier,
		Storage:  fileStore,
	}
	billingSvc := &billing.DefaultBillingService{
		Lawyers:  lawyers,
		Events:   events,
		Notifier: notifier,
		Stripe:   billing.NewStripeAPI(),
		Prices: billing.Prices{
			"basic": cfg.StripePriceBasic,
			"pro":   cfg.StripePricePro,
		},
		WebhookSecret: cfg.StripeWebhookSecret,
		PublicBaseURL: cfg.PublicBaseURL,
		Metrics:       metrics,
	}
	adminSvc := &admin.DefaultAdminService{
		Citizens: citizens,
		Lawyers:  lawyers,
		Cases:    caseStore,
		Matches:  matches,
		Engine:   engine,
		Sessions: sessionCache,
		Audit:    auditSvc,
		Notifier: notifier,
	}

	// Assemble the handler bundle.
	hb := &handlers.HandlerBundle{
		Sessions: middleware.Sources{
			utils.RoleCitizen: citizenSvc,
			utils.RoleLawyer:  lawyerSvc,
		},
		Cache:      sessionCache,
		AdminToken: cfg.AdminToken,
		Geo:        middleware.NewGeoResolver(utils.GetCacheClient()),
		Metrics:    metrics,
		RatePerMin: cfg.MaxRequestsPerMin,

		Citizen:      &handlers.CitizenHandler{Service: citizenSvc},
		Lawyer:       &handlers.LawyerHandler{Service: lawyerSvc, Engine: engine},
		Case:         &handlers.CaseHandler{Service: caseSvc},
		Chat:         &handlers.ChatHandler{Service: chatSvc},
		Notification: &handlers.NotificationHandler{Service: notifier},
		Billing:      &handlers.BillingHandler{Service: billingSvc},
		Prequal:      &handlers.PrequalHandler{Service: prequalSvc},
		Admin:        &handlers.AdminHandler{Service: adminSvc},
	}
	if geocoder != nil {
		hb.GeoCode = &handlers.GeoHandler{Geocoder: geocoder}
	}

	// background work.
	utils.StartHealthMonitor(ctx, utils.RedisClients(), database.MongoClient)
	worker := cron.StartWorker(queueOpt, cron.NewMux(engine, notifier))
	scheduler, err := cron.StartScheduler(queueOpt, cron.DefaultSchedule)
	if err != nil {
		logger.Fatal("main: failed to start scheduler", zap.Error(err))
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	routes.RegisterRoutes(router, hb, reg)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("main: starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	scheduler.Shutdown()
	worker.Shutdown()
	stop()
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
