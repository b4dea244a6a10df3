// Package imagesearch finds a representative photo for a plant name.
package imagesearch

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Resolver looks up an image URL for a plant. An empty string means no image.
type Resolver interface {
	Resolve(ctx context.Context, plantName string) (string, error)
}

// Config configures the Google Custom Search resolver.
type Config struct {
	APIKey         string
	EngineID       string
	RequestsPerSec float64
	Timeout        time.Duration
	// Endpoint overrides the Custom Search base URL.
	Endpoint string
}

// GoogleResolver queries Google Custom Search for a single image result.
type GoogleResolver struct {
	service  *customsearch.Service
	engineID string
	limiter  *rate.Limiter
	timeout  time.Duration
}

// NewGoogleResolver builds a resolver backed by the Custom Search JSON API.
func NewGoogleResolver(ctx context.Context, cfg Config) (*GoogleResolver, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("imagesearch: create service: %w", err)
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
		burst = max(3, int(cfg.RequestsPerSec))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &GoogleResolver{
		service:  svc,
		engineID: cfg.EngineID,
		limiter:  rate.NewLimiter(limit, burst),
		timeout:  timeout,
	}, nil
}

// Resolve returns the first image link for "{name} 식물". Failures are logged and
// reported as no image.
func (r *GoogleResolver) Resolve(ctx context.Context, plantName string) (string, error) {
	name := strings.TrimSpace(plantName)
	if name == "" {
		return "", nil
	}
	if !r.limiter.Allow() {
		log.Printf("imagesearch: quota exhausted, skipping %q", name)
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.service.Cse.List().
		Q(Query(name)).
		Cx(r.engineID).
		SearchType("image").
		Num(1).
		Context(ctx).
		Do()
	if err != nil {
		log.Printf("imagesearch: search %q: %v", name, err)
		return "", nil
	}
	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[0].Link, nil
}

// Query is the search phrase used for a plant name.
func Query(plantName string) string {
	return plantName + " 식물"
}

// ProxyPath rewrites a third-party image URL into a path served by the image proxy.
func ProxyPath(basePath, rawURL string) string {
	return strings.TrimRight(basePath, "/") + "/proxy-image?url=" + url.QueryEscape(rawURL)
}
