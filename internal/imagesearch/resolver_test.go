package imagesearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *GoogleResolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewGoogleResolver(context.Background(), Config{
		APIKey:   "g-key",
		EngineID: "cx-1",
		Endpoint: srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewGoogleResolver: %v", err)
	}
	return r
}

func TestResolveReturnsFirstLink(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("q") != "몬스테라 식물" || q.Get("cx") != "cx-1" || q.Get("searchType") != "image" || q.Get("num") != "1" {
			t.Errorf("unexpected query: %s", req.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"link":"https://img.example.com/monstera.jpg"},{"link":"https://img.example.com/other.jpg"}]}`))
	})

	got, err := r.Resolve(context.Background(), "몬스테라")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "https://img.example.com/monstera.jpg" {
		t.Errorf("Resolve = %q", got)
	}
}

func TestResolveNoItems(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	got, err := r.Resolve(context.Background(), "스투키")
	if err != nil || got != "" {
		t.Fatalf("Resolve = %q, %v", got, err)
	}
}

func TestResolveSwallowsUpstreamErrors(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota"}}`))
	})

	got, err := r.Resolve(context.Background(), "스투키")
	if err != nil || got != "" {
		t.Fatalf("Resolve = %q, %v", got, err)
	}
}

func TestProxyPath(t *testing.T) {
	got := ProxyPath("/api/", "https://img.example.com/a b.jpg?x=1&y=2")
	want := "/api/proxy-image?url=https%3A%2F%2Fimg.example.com%2Fa+b.jpg%3Fx%3D1%26y%3D2"
	if got != want {
		t.Fatalf("ProxyPath = %q, want %q", got, want)
	}
	if got := ProxyPath("", "https://x/y.png"); got != "/proxy-image?url=https%3A%2F%2Fx%2Fy.png" {
		t.Errorf("ProxyPath without base = %q", got)
	}
}
