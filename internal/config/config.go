package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration values.
type Config struct {
	Port             string
	PublicBasePath   string
	TrustUserIDQuery bool
	JWTSecret        string
	Database         DatabaseConfig
	LLM              LLMConfig
	ImageSearch      ImageSearchConfig
	Geodata          GeodataConfig
	ProxyTimeout     time.Duration
}

// DatabaseConfig describes the PostgreSQL connection. InMemory swaps it for a
// process-local store that is lost on restart.
type DatabaseConfig struct {
	InMemory bool
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// LLMConfig selects and tunes the completion provider.
type LLMConfig struct {
	Provider     string
	OpenAIAPIKey string
	GeminiAPIKey string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
}

// ImageSearchConfig configures the Google Custom Search image lookup.
type ImageSearchConfig struct {
	APIKey         string
	EngineID       string
	RequestsPerSec float64
}

// GeodataConfig configures geocoding and weather lookups.
type GeodataConfig struct {
	KakaoAPIKey       string
	OpenWeatherAPIKey string
	CacheTTL          time.Duration
	WeatherRetries    int
}

// FromEnv loads configuration from environment variables and applies defaults.
// A .env file in the working directory is read first when present.
func FromEnv() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: load .env: %v", err)
	}

	provider := strings.ToLower(getenv("LLM_PROVIDER", "openai"))
	defaultModel := "gpt-4o"
	if provider == "gemini" {
		defaultModel = "gemini-2.5-flash"
	}

	cfg := Config{
		Port:             getenv("APP_PORT", "8080"),
		PublicBasePath:   strings.TrimRight(os.Getenv("PUBLIC_BASE_PATH"), "/"),
		TrustUserIDQuery: getenvBool("TRUST_USER_ID_QUERY", false),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		Database: DatabaseConfig{
			InMemory: getenvBool("DB_IN_MEMORY", false),
			Host:     os.Getenv("DB_HOST"),
			Port:     getenv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		LLM: LLMConfig{
			Provider:     provider,
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Model:        getenv("LLM_MODEL", defaultModel),
			Timeout:      getenvDuration("LLM_TIMEOUT", 60*time.Second),
			MaxRetries:   getenvInt("LLM_MAX_RETRIES", 2),
		},
		ImageSearch: ImageSearchConfig{
			APIKey:         os.Getenv("GOOGLE_API_KEY"),
			EngineID:       os.Getenv("GOOGLE_CSE_ID"),
			RequestsPerSec: getenvFloat("IMAGE_SEARCH_RPS", 5),
		},
		Geodata: GeodataConfig{
			KakaoAPIKey:       os.Getenv("KAKAO_API_KEY"),
			OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
			CacheTTL:          getenvDuration("GEOCODE_CACHE_TTL", 0),
			WeatherRetries:    getenvInt("WEATHER_MAX_RETRIES", 2),
		},
		ProxyTimeout: getenvDuration("PROXY_TIMEOUT", 10*time.Second),
	}

	return cfg
}

// Validate reports every required setting that is missing.
func (c Config) Validate() error {
	type setting struct {
		key   string
		value string
	}
	required := []setting{
		{"GOOGLE_API_KEY", c.ImageSearch.APIKey},
		{"GOOGLE_CSE_ID", c.ImageSearch.EngineID},
		{"KAKAO_API_KEY", c.Geodata.KakaoAPIKey},
		{"OPENWEATHER_API_KEY", c.Geodata.OpenWeatherAPIKey},
		{"JWT_SECRET", c.JWTSecret},
	}
	if !c.Database.InMemory {
		required = append(required,
			setting{"DB_HOST", c.Database.Host},
			setting{"DB_USER", c.Database.User},
			setting{"DB_PASSWORD", c.Database.Password},
			setting{"DB_NAME", c.Database.Name},
		)
	}

	var missing []string
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (want openai or gemini)", c.LLM.Provider)
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if c.Port == "" {
		missing = append(missing, "APP_PORT")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DatabaseURL renders the connection settings as a postgres:// URL. It is empty
// in in-memory mode.
func (d DatabaseConfig) DatabaseURL() string {
	if d.InMemory || d.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	return u.String()
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return fallback
	}

	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil || parsed < 0 {
		return fallback
	}

	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}

	return parsed
}
