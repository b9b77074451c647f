package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSource struct {
	states map[string]*account.SessionState
	calls  int
}

func (f *fakeSource) SessionState(_ context.Context, id string) (*account.SessionState, error) {
	f.calls++
	s, ok := f.states[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, utils.ErrNotFound)
	}
	return s, nil
}

func authRouter(sources Sources, cache account.SessionCache, allowed ...string) *gin.Engine {
	r := gin.New()
	r.GET("/me", AccountAuth(sources, cache, allowed...), func(c *gin.Context) {
		id, role := AccountID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "203.0.113.9:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAccountAuth(t *testing.T) {
	token, err := utils.GenerateToken("cit-1", utils.RoleCitizen, time.Hour)
	require.NoError(t, err)
	source := &fakeSource{states: map[string]*account.SessionState{
		"cit-1": {TokenHash: utils.HashToken(token), Status: models.AccountActive},
	}}
	cache := account.NewMemorySessionCache()
	r := authRouter(Sources{utils.RoleCitizen: source}, cache, utils.RoleCitizen)

	w := get(r, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"cit-1"`)

	get(r, "/me", token)
	assert.Equal(t, 1, source.calls, "second request is served from the cache")

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "garbage").Code)
}

func TestAccountAuthRevokedAndSuspended(t *testing.T) {
	token, _ := utils.GenerateToken("law-1", utils.RoleLawyer, time.Hour)
	source := &fakeSource{states: map[string]*account.SessionState{
		"law-1": {TokenHash: "other", Status: models.AccountActive},
	}}
	sources := Sources{utils.RoleLawyer: source}
	r := authRouter(sources, nil, utils.RoleLawyer)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", token).Code)

	source.states["law-1"] = &account.SessionState{TokenHash: utils.HashToken(token), Status: models.AccountSuspended}
	assert.Equal(t, http.StatusForbidden, get(r, "/me", token).Code)
}

func TestAccountAuthRejectsWrongRole(t *testing.T) {
	token, _ := utils.GenerateToken("law-1", utils.RoleLawyer, time.Hour)
	source := &fakeSource{states: map[string]*account.SessionState{
		"law-1": {TokenHash: utils.HashToken(token), Status: models.AccountActive},
	}}
	r := authRouter(Sources{utils.RoleLawyer: source}, nil, utils.RoleCitizen)
	assert.Equal(t, http.StatusForbidden, get(r, "/me", token).Code)
	assert.Zero(t, source.calls)
}

func TestAdminAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminAuth("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", "s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "nope").Code)

	off := gin.New()
	off.GET("/admin", AdminAuth(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusServiceUnavailable, get(off, "/admin", "anything").Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/", "").Code)
}

func TestGeolocationAndRequestMeta(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/203.0.113.9/json/":
			fmt.Fprint(w, `{"country_name":"France","country_code":"FR","city":"Lyon"}`)
		case "/198.51.100.7/json/":
			fmt.Fprint(w, `{"country_name":"Iran"}`)
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer api.Close()

	resolver := NewGeoResolver(nil)
	resolver.Endpoint = api.URL
	r := gin.New()
	r.Use(GeolocationMiddleware(resolver))
	r.GET("/meta", func(c *gin.Context) {
		meta := RequestMeta(c)
		c.JSON(http.StatusOK, gin.H{"ip": meta.IP, "country": meta.Country})
	})

	w := get(r, "/meta", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ip":"203.0.113.9","country":"France"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/meta", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, unknownCountry, resolver.Lookup(context.Background(), "192.168.1.4").Country)
	assert.Equal(t, unknownCountry, resolver.Lookup(context.Background(), "192.0.2.1").Country)
}
