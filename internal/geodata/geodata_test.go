package geodata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newKakao(t *testing.T, handler http.HandlerFunc) *KakaoGeocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g := NewKakaoGeocoder("kakao-key", srv.Client())
	g.endpoint = srv.URL + "/v2/local/search/address.json"
	return g
}

func newOpenWeather(t *testing.T, retries int, handler http.HandlerFunc) *OpenWeatherClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewOpenWeatherClient("ow-key", srv.Client(), retries)
	c.endpoint = srv.URL + "/data/2.5/weather"
	c.initialInterval = time.Millisecond
	return c
}

func TestKakaoGeocode(t *testing.T) {
	g := newKakao(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "KakaoAK kakao-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "서울특별시 중구 세종대로 110" {
			t.Errorf("query = %q", got)
		}
		_, _ = w.Write([]byte(`{"documents":[{"address_name":"서울 중구 세종대로 110","x":"126.978","y":"37.5665"}]}`))
	})

	got, err := g.Geocode(context.Background(), "서울특별시 중구 세종대로 110")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if diff := cmp.Diff(Coordinates{Lat: 37.5665, Lon: 126.978}, got); diff != "" {
		t.Errorf("coordinates (-want +got):\n%s", diff)
	}
}

func TestKakaoGeocodeNoMatch(t *testing.T) {
	g := newKakao(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[],"meta":{"total_count":0}}`))
	})

	_, err := g.Geocode(context.Background(), "asdkjfhqwe")
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("err = %v, want ErrAddressNotFound", err)
	}
	if UpstreamFailure(err) {
		t.Error("no-match should not be an upstream failure")
	}
}

func TestKakaoGeocodeUpstreamError(t *testing.T) {
	g := newKakao(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorType":"AccessDeniedError","message":"wrong appKey"}`))
	})

	_, err := g.Geocode(context.Background(), "서울")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized || statusErr.Message != "wrong appKey" {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenWeatherCurrent(t *testing.T) {
	c := newOpenWeather(t, 0, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := url.Values{"lat": {"37.5665"}, "lon": {"126.978"}, "appid": {"ow-key"}, "units": {"metric"}, "lang": {"kr"}}
		if diff := cmp.Diff(want, q); diff != "" {
			t.Errorf("query (-want +got):\n%s", diff)
		}
		_, _ = w.Write([]byte(`{"weather":[{"main":"Rain","description":"약한 비"}],"main":{"temp":18.2,"feels_like":17.9,"humidity":81},"wind":{"speed":3.1},"rain":{"1h":0.42}}`))
	})

	got, err := c.Current(context.Background(), Coordinates{Lat: 37.5665, Lon: 126.978})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	want := Weather{Condition: "약한 비", Temperature: 18.2, FeelsLike: 17.9, Humidity: 81, WindSpeed: 3.1, Rain1h: 0.42}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("weather (-want +got):\n%s", diff)
	}
}

func TestOpenWeatherMissingRainDefaultsToZero(t *testing.T) {
	c := newOpenWeather(t, 0, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"weather":[{"main":"Clear","description":""}],"main":{"temp":25}}`))
	})

	got, err := c.Current(context.Background(), Coordinates{})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got.Rain1h != 0 || got.Condition != "Clear" || got.Temperature != 25 {
		t.Errorf("weather = %+v", got)
	}
}

func TestOpenWeatherRetriesTransientFailures(t *testing.T) {
	calls := 0
	c := newOpenWeather(t, 2, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"main":{"temp":1}}`))
	})

	got, err := c.Current(context.Background(), Coordinates{})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if calls != 3 || got.Temperature != 1 {
		t.Errorf("calls=%d weather=%+v", calls, got)
	}
}

func TestOpenWeatherDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	c := newOpenWeather(t, 3, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	})

	_, err := c.Current(context.Background(), Coordinates{})
	if err == nil || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
	if !UpstreamFailure(err) {
		t.Error("401 should be an upstream failure")
	}
}

type countingGeocoder struct {
	calls int
	point Coordinates
	err   error
}

func (g *countingGeocoder) Geocode(context.Context, string) (Coordinates, error) {
	g.calls++
	return g.point, g.err
}

func TestCachedGeocoder(t *testing.T) {
	base := &countingGeocoder{point: Coordinates{Lat: 1, Lon: 2}}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := wrapWithCache(base, time.Minute).(*cachedGeocoder)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	_, _ = cache.Geocode(ctx, "서울  중구")
	_, _ = cache.Geocode(ctx, " 서울 중구 ")
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1 (normalized key hit)", base.calls)
	}

	now = now.Add(2 * time.Minute)
	_, _ = cache.Geocode(ctx, "서울 중구")
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2 after expiry", base.calls)
	}

	if got := wrapWithCache(base, 0); got != Geocoder(base) {
		t.Error("zero TTL should return the base geocoder")
	}
}

func TestCachedGeocoderDoesNotCacheErrors(t *testing.T) {
	base := &countingGeocoder{err: ErrAddressNotFound}
	cache := wrapWithCache(base, time.Minute)
	_, _ = cache.Geocode(context.Background(), "x")
	_, _ = cache.Geocode(context.Background(), "x")
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2", base.calls)
	}
}

type fakeWeather struct {
	weather Weather
	err     error
}

func (f fakeWeather) Current(context.Context, Coordinates) (Weather, error) {
	return f.weather, f.err
}

func serveWeather(t *testing.T, h Handler, address string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/weather?address="+url.QueryEscape(address), nil)
	rec := httptest.NewRecorder()
	h.Weather(rec, req)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body
}

func TestWeatherHandlerSuccess(t *testing.T) {
	h := Handler{
		Geocoder: &countingGeocoder{point: Coordinates{Lat: 37.5, Lon: 127}},
		Weather:  fakeWeather{weather: Weather{Condition: "맑음", Temperature: 20, Humidity: 50}},
	}

	code, body := serveWeather(t, h, "서울특별시 중구 세종대로 110")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["address"] != "서울특별시 중구 세종대로 110" || body["lat"] != 37.5 || body["lon"] != float64(127) {
		t.Errorf("body = %v", body)
	}
	weather := body["weather"].(map[string]any)
	if weather[LabelCondition] != "맑음" || weather[LabelRain1h] != float64(0) {
		t.Errorf("weather = %v", weather)
	}
}

func TestWeatherHandlerErrorsAreInBand(t *testing.T) {
	cases := map[string]Handler{
		"not found":       {Geocoder: &countingGeocoder{err: ErrAddressNotFound}, Weather: fakeWeather{}},
		"weather failure": {Geocoder: &countingGeocoder{}, Weather: fakeWeather{err: &StatusError{API: "openweather", StatusCode: 500}}},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			code, body := serveWeather(t, h, "qwpoeiruty zmxncbv")
			if code != http.StatusOK {
				t.Errorf("status = %d, want 200", code)
			}
			if _, ok := body["error"]; !ok {
				t.Errorf("body has no error key: %v", body)
			}
		})
	}
}
