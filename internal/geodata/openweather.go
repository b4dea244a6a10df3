package geodata

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherClient reads current conditions from OpenWeather.
type OpenWeatherClient struct {
	apiKey          string
	endpoint        string
	client          *http.Client
	retries         uint64
	initialInterval time.Duration
}

// NewOpenWeatherClient constructs a client that retries transient failures up to retries times.
func NewOpenWeatherClient(apiKey string, client *http.Client, retries int) *OpenWeatherClient {
	if client == nil {
		client = http.DefaultClient
	}
	if retries < 0 {
		retries = 0
	}
	return &OpenWeatherClient{
		apiKey:          apiKey,
		endpoint:        openWeatherURL,
		client:          client,
		retries:         uint64(retries),
		initialInterval: 300 * time.Millisecond,
	}
}

type openWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

// Current returns the snapshot for point in metric units with Korean descriptions.
func (c *OpenWeatherClient) Current(ctx context.Context, point Coordinates) (Weather, error) {
	params := url.Values{
		"lat":   []string{strconv.FormatFloat(point.Lat, 'f', -1, 64)},
		"lon":   []string{strconv.FormatFloat(point.Lon, 'f', -1, 64)},
		"appid": []string{c.apiKey},
		"units": []string{"metric"},
		"lang":  []string{"kr"},
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	policy.MaxElapsedTime = 0

	var resp openWeatherResponse
	operation := func() error {
		resp = openWeatherResponse{}
		err := get(ctx, c.client, "openweather", c.endpoint, params, nil, &resp)
		if err == nil {
			return nil
		}
		if !transient(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		log.Printf("geodata: openweather attempt failed: %v", err)
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx)); err != nil {
		return Weather{}, err
	}

	weather := Weather{
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Rain1h:      resp.Rain.OneHour,
	}
	if len(resp.Weather) > 0 {
		weather.Condition = strings.TrimSpace(resp.Weather[0].Description)
		if weather.Condition == "" {
			weather.Condition = resp.Weather[0].Main
		}
	}
	return weather, nil
}

// transient covers connection failures, 429 and 5xx answers.
func transient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
