package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plantmate/internal/auth"
	"plantmate/internal/care"
	"plantmate/internal/config"
	"plantmate/internal/geodata"
	"plantmate/internal/imageproxy"
	"plantmate/internal/imagesearch"
	"plantmate/internal/llm"
	"plantmate/internal/profile"
	"plantmate/internal/recommend"
	"plantmate/internal/server"
	"plantmate/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()
	if cfg.Database.InMemory {
		log.Printf("storage: DB_IN_MEMORY is set, using in-memory store")
	}
	store, err := storage.NewStore(ctx, cfg.Database.DatabaseURL())
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	model, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("failed to init llm client: %v", err)
	}

	resolver, err := imagesearch.NewGoogleResolver(ctx, imagesearch.Config{
		APIKey:         cfg.ImageSearch.APIKey,
		EngineID:       cfg.ImageSearch.EngineID,
		RequestsPerSec: cfg.ImageSearch.RequestsPerSec,
	})
	if err != nil {
		log.Fatalf("failed to init image search: %v", err)
	}

	geoCfg := geodata.Config{
		KakaoAPIKey:       cfg.Geodata.KakaoAPIKey,
		OpenWeatherAPIKey: cfg.Geodata.OpenWeatherAPIKey,
		CacheTTL:          cfg.Geodata.CacheTTL,
		WeatherRetries:    cfg.Geodata.WeatherRetries,
	}
	geocoder := geodata.NewGeocoder(geoCfg)
	weather := geodata.NewWeatherClient(geoCfg)

	lookup := profile.Lookup{Store: store}

	srv := server.New(cfg.Port, server.Handlers{
		Recommend: recommend.Handler{Service: recommend.Service{
			LLM:      model,
			Images:   resolver,
			BasePath: cfg.PublicBasePath,
		}},
		Images:  imageproxy.NewHandler(cfg.ProxyTimeout),
		Weather: geodata.Handler{Geocoder: geocoder, Weather: weather},
		Care: care.Handler{
			Profiles:  lookup,
			Geocoder:  geocoder,
			Weather:   weather,
			Generator: care.Generator{LLM: model},
		},
		Profile: profile.Handler{Lookup: lookup, Store: store},
		Auth: auth.Middleware{
			Tokens:           auth.TokenParser{Secret: []byte(cfg.JWTSecret)},
			TrustUserIDQuery: cfg.TrustUserIDQuery,
		},
	})
	if cfg.TrustUserIDQuery {
		log.Println("auth: trusting user_id query on /plant-care-advice")
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	var base llm.Client
	switch cfg.Provider {
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		base = client
		log.Printf("llm ready: Gemini (%s)", cfg.Model)
	default:
		base = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model, cfg.Timeout)
		log.Printf("llm ready: OpenAI (%s)", cfg.Model)
	}
	return llm.WithRetry(base, cfg.MaxRetries, 500*time.Millisecond), nil
}
