package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lexconnect/models"
	"lexconnect/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"
	cachePrefix     = "geocode:"
	CacheTTL        = 24 * time.Hour
)

var (
	ErrNoResults = fmt.Errorf("address could not be located: %w", utils.ErrInvalid)
	ErrDisabled  = fmt.Errorf("geocoding is not configured: %w", utils.ErrUnavailable)
)

// Result is a located address.
type Result struct {
	Location         models.GeoPoint `json:"location"`
	FormattedAddress string          `json:"formattedAddress"`
	City             string          `json:"city,omitempty"`
}

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// GoogleGeocoder calls the Google Geocoding REST API and caches hits in Redis.
type GoogleGeocoder struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
	Cache    *redis.Client
}

func NewGoogleGeocoder(apiKey string, cache *redis.Client) *GoogleGeocoder {
	return &GoogleGeocoder{
		APIKey:   apiKey,
		Endpoint: DefaultEndpoint,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		Cache:    cache,
	}
}

type apiResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func normalize(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	logger := utils.GetLogger()
	key := normalize(address)
	if key == "" {
		return nil, ErrNoResults
	}
	if g.APIKey == "" {
		return nil, ErrDisabled
	}

	if g.Cache != nil {
		if raw, err := g.Cache.Get(ctx, cachePrefix+key).Result(); err == nil {
			var cached Result
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Warn("geocoding: cache read failed", zap.Error(err))
		}
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: failed to build request: %w", err)
	}
	resp, err := g.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", utils.ErrUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding returned HTTP %d: %w", resp.StatusCode, utils.ErrUnavailable)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	switch data.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		logger.Error("geocoding: API error", zap.String("status", data.Status), zap.String("message", data.ErrorMessage))
		return nil, fmt.Errorf("geocoding status %s: %w", data.Status, utils.ErrUnavailable)
	}
	if len(data.Results) == 0 {
		return nil, ErrNoResults
	}

	first := data.Results[0]
	result := &Result{
		Location:         models.NewGeoPoint(first.Geometry.Location.Lat, first.Geometry.Location.Lng),
		FormattedAddress: first.FormattedAddress,
	}
	for _, c := range first.AddressComponents {
		if hasType(c.Types, "locality") {
			result.City = c.LongName
			break
		}
	}

	if g.Cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := g.Cache.Set(ctx, cachePrefix+key, raw, CacheTTL).Err(); err != nil {
				logger.Warn("geocoding: cache write failed", zap.Error(err))
			}
		}
	}
	return result, nil
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
