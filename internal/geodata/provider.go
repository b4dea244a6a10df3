// Package geodata resolves addresses to coordinates and coordinates to the
// current weather.
package geodata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrAddressNotFound is returned when the geocoder has no match for an address.
var ErrAddressNotFound = errors.New("address not found")

// Config encapsulates the external API configuration.
type Config struct {
	KakaoAPIKey       string
	OpenWeatherAPIKey string
	CacheTTL          time.Duration
	WeatherRetries    int
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Weather is a current-conditions snapshot. Absent upstream fields are zero.
type Weather struct {
	Condition   string  `json:"condition"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Rain1h      float64 `json:"rain_1h"`
}

// Geocoder turns an address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// WeatherClient fetches current weather for a point.
type WeatherClient interface {
	Current(ctx context.Context, point Coordinates) (Weather, error)
}

// NewGeocoder wires the Kakao geocoder, cached when a TTL is configured.
func NewGeocoder(cfg Config) Geocoder {
	base := NewKakaoGeocoder(cfg.KakaoAPIKey, &http.Client{Timeout: 6 * time.Second})
	return wrapWithCache(base, cfg.CacheTTL)
}

// NewWeatherClient wires the OpenWeather client.
func NewWeatherClient(cfg Config) WeatherClient {
	return NewOpenWeatherClient(cfg.OpenWeatherAPIKey, &http.Client{Timeout: 6 * time.Second}, cfg.WeatherRetries)
}

func wrapWithCache(base Geocoder, ttl time.Duration) Geocoder {
	if ttl <= 0 {
		return base
	}

	return &cachedGeocoder{
		base:    base,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

type cachedGeocoder struct {
	base    Geocoder
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	point   Coordinates
	expires time.Time
}

func (c *cachedGeocoder) Geocode(ctx context.Context, address string) (Coordinates, error) {
	key := normalizeAddress(address)
	now := time.Now()
	if c.now != nil {
		now = c.now()
	}

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok && entry.expires.After(now) {
		c.mu.RUnlock()
		return entry.point, nil
	}
	c.mu.RUnlock()

	point, err := c.base.Geocode(ctx, address)
	if err != nil {
		return Coordinates{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		point:   point,
		expires: now.Add(c.ttl),
	}
	c.mu.Unlock()

	return point, nil
}

func normalizeAddress(address string) string {
	trimmed := strings.TrimSpace(strings.ToLower(address))
	parts := strings.Fields(trimmed)
	return strings.Join(parts, " ")
}

// StatusError is a non-2xx answer from an upstream API.
type StatusError struct {
	API        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s status %d", e.API, e.StatusCode)
	}
	return fmt.Sprintf("%s status %d: %s", e.API, e.StatusCode, e.Message)
}

// UpstreamFailure reports whether err came from reaching or talking to an
// upstream API, as opposed to a lookup with no result.
func UpstreamFailure(err error) bool {
	var statusErr *StatusError
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &statusErr) || errors.As(err, &netErr) || errors.As(err, &urlErr)
}

func get(ctx context.Context, client *http.Client, api, endpoint string, params url.Values, header http.Header, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = params.Encode()
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return &StatusError{API: api, StatusCode: resp.StatusCode, Message: failure.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s decode response: %w", api, err)
	}
	return nil
}
