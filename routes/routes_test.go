package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lexconnect/database/repository/memrepo"
	"lexconnect/handlers"
	"lexconnect/middleware"
	"lexconnect/services/account"
	"lexconnect/services/admin"
	"lexconnect/services/audit"
	"lexconnect/services/billing"
	"lexconnect/services/cases"
	"lexconnect/services/chat"
	"lexconnect/services/citizen"
	"lexconnect/services/lawyer"
	"lexconnect/services/matching"
	"lexconnect/services/notification"
	"lexconnect/services/prequal"
	"lexconnect/services/storage"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-secret"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	citizens := memrepo.NewCitizens()
	lawyers := memrepo.NewLawyers()
	caseRepo := memrepo.NewCases()
	matches := memrepo.NewMatches()
	notes := memrepo.NewNotifications()
	cache := account.NewMemorySessionCache()
	otp := account.NewMemoryOTPStore()
	store := storage.NewMemoryStorage()
	auditSvc := audit.NewDefaultAuditService(memrepo.NewSecurityLogs())

	reg := prometheus.NewRegistry()
	metrics, err := utils.NewMetrics(reg)
	require.NoError(t, err)

	notifier := &notification.DefaultNotificationService{Repo: notes, Citizens: citizens, Lawyers: lawyers}
	engine := matching.NewDefaultEngine(caseRepo, matches, lawyers, notifier, metrics, matching.Settings{})
	citizenSvc := &citizen.DefaultCitizenService{Repo: citizens, Sessions: cache, OTP: otp, Audit: auditSvc}
	lawyerSvc := &lawyer.DefaultLawyerService{Repo: lawyers, Matches: matches, Cases: caseRepo, Storage: store,
		Sessions: cache, OTP: otp, Audit: auditSvc}

	hb := &handlers.HandlerBundle{
		Sessions:   middleware.Sources{utils.RoleCitizen: citizenSvc, utils.RoleLawyer: lawyerSvc},
		Cache:      cache,
		AdminToken: adminToken,
		Metrics:    metrics,
		RatePerMin: 1000,

		Citizen: &handlers.CitizenHandler{Service: citizenSvc},
		Lawyer:  &handlers.LawyerHandler{Service: lawyerSvc, Engine: engine},
		Case: &handlers.CaseHandler{Service: &cases.DefaultCaseService{
			Cases: caseRepo, Matches: matches, Lawyers: lawyers, Citizens: citizens,
			Engine: engine, Notifier: notifier, Storage: store,
		}},
		Chat:         &handlers.ChatHandler{Service: &chat.DefaultChatService{Cases: caseRepo, Messages: memrepo.NewMessages(), Notifier: notifier, Storage: store}},
		Notification: &handlers.NotificationHandler{Service: notifier},
		Billing: &handlers.BillingHandler{Service: &billing.DefaultBillingService{
			Lawyers: lawyers, Events: memrepo.NewEvents(), Notifier: notifier, WebhookSecret: "whsec_test",
		}},
		Prequal: &handlers.PrequalHandler{Service: prequal.NewDefaultPrequalService(prequal.NewMemorySessionStore(), nil)},
		Admin: &handlers.AdminHandler{Service: &admin.DefaultAdminService{
			Citizens: citizens, Lawyers: lawyers, Cases: caseRepo, Matches: matches,
			Engine: engine, Sessions: cache, Audit: auditSvc, Notifier: notifier,
		}},
	}

	r := gin.New()
	RegisterRoutes(r, hb, reg)
	return r
}

func do(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCitizenFlow(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/citizens/register", "", gin.H{
		"fullName": "Amina Otieno", "email": "amina@example.com", "password": "Str0ng!pass", "city": "Nairobi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var auth account.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.Token)

	w = do(r, http.MethodGet, "/api/citizens/me", auth.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/citizens/register", "", gin.H{
		"fullName": "Amina Otieno", "email": "amina@example.com", "password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/cases", auth.Token, gin.H{
		"title": "Deposit withheld", "description": "My landlord kept the deposit.", "category": "housing", "city": "Nairobi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/cases", auth.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/lawyers/me", auth.Token, nil).Code)

	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/citizens/me/logout", auth.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/citizens/me", auth.Token, nil).Code)
}

func TestPublicEndpoints(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/prequal/messages", "", gin.H{"message": "I was fired by my employer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"employment"`)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/billing/plans", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/legal?role=lawyer", "", nil).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", bytes.NewBufferString(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAdminRoutes(t *testing.T) {
	r := newRouter(t)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/admin/stats", "", nil).Code)

	w := do(r, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"citizens":0`)

	w = do(r, http.MethodPost, "/api/admin/lawyers/missing/verify", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
