package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"plantmate/internal/auth"
	"plantmate/internal/care"
	"plantmate/internal/geodata"
	"plantmate/internal/imageproxy"
	"plantmate/internal/llm"
	"plantmate/internal/profile"
	"plantmate/internal/recommend"
	"plantmate/internal/storage"
)

var secret = []byte("server-test")

type stubLLM struct{}

func (stubLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	if req.JSON {
		return llm.Response{Content: `{"care_advice":[{"plant":"스투키","advice":"물을 줄이세요."}]}`}, nil
	}
	return llm.Response{FunctionName: "recommend_plants", Arguments: `{"recommendations":[{"name":"a","description":"b"},{"name":"c","description":"d"},{"name":"e","description":"f"}]}`}, nil
}

type stubGeo struct{}

func (stubGeo) Geocode(context.Context, string) (geodata.Coordinates, error) {
	return geodata.Coordinates{Lat: 37.5, Lon: 127}, nil
}

func (stubGeo) Current(context.Context, geodata.Coordinates) (geodata.Weather, error) {
	return geodata.Weather{Condition: "흐림", Temperature: 12, Humidity: 70}, nil
}

func newTestRouter(trustQuery bool) http.Handler {
	store := storage.NewInMemoryStore()
	store.PutUser(storage.User{ID: 1, Address: "서울"})
	store.RegisterPlant(1, "스투키")
	lookup := profile.Lookup{Store: store}

	return Router(Handlers{
		Recommend: recommend.Handler{Service: recommend.Service{LLM: stubLLM{}}},
		Images:    imageproxy.NewHandler(time.Second),
		Weather:   geodata.Handler{Geocoder: stubGeo{}, Weather: stubGeo{}},
		Care: care.Handler{
			Profiles:  lookup,
			Geocoder:  stubGeo{},
			Weather:   stubGeo{},
			Generator: care.Generator{LLM: stubLLM{}},
		},
		Profile: profile.Handler{Lookup: lookup, Store: store},
		Auth:    auth.Middleware{Tokens: auth.TokenParser{Secret: secret}, TrustUserIDQuery: trustQuery},
	})
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(false)
	recommendBody := `{"plant_location":"Indoor","has_blinds_curtains":false,"water_frequency":2}`

	cases := []struct {
		name   string
		method string
		target string
		body   string
		token  bool
		status int
	}{
		{name: "health", method: http.MethodGet, target: "/health", status: http.StatusOK},
		{name: "recommend", method: http.MethodPost, target: "/recommend", body: recommendBody, status: http.StatusOK},
		{name: "recommend slash", method: http.MethodPost, target: "/recommend/", body: recommendBody, status: http.StatusOK},
		{name: "proxy without url", method: http.MethodGet, target: "/proxy-image", status: http.StatusOK},
		{name: "weather", method: http.MethodGet, target: "/weather?address=%EC%84%9C%EC%9A%B8", status: http.StatusOK},
		{name: "plant care anonymous", method: http.MethodGet, target: "/plant-care", status: http.StatusUnauthorized},
		{name: "plant care", method: http.MethodGet, target: "/plant-care", token: true, status: http.StatusOK},
		{name: "advice with untrusted query", method: http.MethodGet, target: "/plant-care-advice?user_id=1", status: http.StatusUnauthorized},
		{name: "advice with token", method: http.MethodGet, target: "/plant-care-advice", token: true, status: http.StatusOK},
		{name: "my plants", method: http.MethodGet, target: "/my-plants", token: true, status: http.StatusOK},
		{name: "update address", method: http.MethodPatch, target: "/users/me/address", body: `{"address":"부산광역시"}`, token: true, status: http.StatusOK},
		{name: "wrong method", method: http.MethodGet, target: "/recommend", status: http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			if tc.token {
				req.Header.Set("Authorization", bearer(t, "1"))
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestTrustedUserIDQuery(t *testing.T) {
	router := newTestRouter(true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plant-care-advice?user_id=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "스투키") {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plant-care?user_id=1", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("plant-care must not honour user_id: status = %d", rec.Code)
	}
}
