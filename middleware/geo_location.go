package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"lexconnect/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	geoCachePrefix = "geoip:"
	geoCacheTTL    = 24 * time.Hour
	unknownCountry = "Unknown"
)

// GeoLocation represents the geolocation information for an IP.
type GeoLocation struct {
	IP          string  `json:"ip"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	Country     string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// GeoResolver looks up client IPs through ipapi.co and caches answers in
// Redis when a client is configured.
type GeoResolver struct {
	Endpoint   string
	HTTP       *http.Client
	Cache      *redis.Client
	Restricted map[string]bool
}

func NewGeoResolver(cache *redis.Client) *GeoResolver {
	return &GeoResolver{
		Endpoint: "https://ipapi.co",
		HTTP:     &http.Client{Timeout: 3 * time.Second},
		Cache:    cache,
		Restricted: map[string]bool{
			"North Korea": true,
			"Iran":        true,
		},
	}
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified()
}

func (r *GeoResolver) Lookup(ctx context.Context, ip string) *GeoLocation {
	logger := utils.GetLogger()
	fallback := &GeoLocation{IP: ip, Country: unknownCountry}
	if ip == "" || isPrivateIP(ip) {
		return fallback
	}

	if r.Cache != nil {
		if raw, err := r.Cache.Get(ctx, geoCachePrefix+ip).Bytes(); err == nil {
			var geo GeoLocation
			if json.Unmarshal(raw, &geo) == nil {
				return &geo
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", r.Endpoint, ip), nil)
	if err != nil {
		return fallback
	}
	resp, err := r.HTTP.Do(req)
	if err != nil {
		logger.Warn("geolocation lookup failed", zap.String("ip", ip), zap.Error(err))
		return fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warn("geolocation API returned non-OK status", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return fallback
	}

	var geo GeoLocation
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return fallback
	}
	if geo.Country == "" {
		geo.Country = unknownCountry
	}
	geo.IP = ip
	if r.Cache != nil {
		if raw, err := json.Marshal(geo); err == nil {
			_ = r.Cache.Set(ctx, geoCachePrefix+ip, raw, geoCacheTTL).Err()
		}
	}
	return &geo
}

// GeolocationMiddleware resolves the client's country, blocks restricted
// regions and stores the result in the context for security logs.
func GeolocationMiddleware(r *GeoResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		geo := r.Lookup(c.Request.Context(), getClientIP(c))
		if r.Restricted[geo.Country] {
			utils.GetLogger().Warn("Blocked request from restricted region", zap.String("country", geo.Country))
			utils.JSONError(c, http.StatusForbidden, "Access from your region is restricted", "")
			return
		}
		c.Set(utils.CtxGeo, geo)
		c.Next()
	}
}
