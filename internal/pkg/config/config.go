package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type ObservabilityConfig struct {
	ServiceName  string
	OTLPEndpoint string
	MetricsAddr  string
	PprofAddr    string
	LogLevel     string
}

type WizardConfig struct {
	BudgetMin             float64
	BudgetMax             float64
	MaxActivitySelections int
	Currency              string
	SessionTTL            time.Duration
	EffectTimeout         time.Duration
}

type AmadeusConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MaxResults   int
}

type ORSConfig struct {
	BaseURL string
	APIKey  string
}

// Booking backends.
const (
	BookingMemory   = "memory"
	BookingPostgres = "postgres"
)

type Config struct {
	Repositories   RepositoriesConfig
	Observability  ObservabilityConfig
	Wizard         WizardConfig
	Amadeus        AmadeusConfig
	ORS            ORSConfig
	BookingBackend string
	ServerPort     string
	FlightCacheTTL time.Duration
	GeocodeTTL     time.Duration
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var errs []string
	num := func(key string, def float64) float64 {
		v, err := getFloatOrDefault(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	integer := func(key string, def int) int {
		v, err := getIntOrDefault(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	dur := func(key string, def time.Duration) time.Duration {
		v, err := getDurationOrDefault(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "voyagr"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: int32(integer("POSTGRES_MAX_CONNS", 10)),
				MinConns: int32(integer("POSTGRES_MIN_CONNS", 2)),
			},
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("SERVICE_NAME", "voyagr-planner"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
			LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Wizard: WizardConfig{
			BudgetMin:             num("WIZARD_BUDGET_MIN", 100),
			BudgetMax:             num("WIZARD_BUDGET_MAX", 100000),
			MaxActivitySelections: integer("WIZARD_MAX_ACTIVITIES", 10),
			Currency:              strings.ToUpper(getEnvOrDefault("WIZARD_CURRENCY", "USD")),
			SessionTTL:            dur("WIZARD_SESSION_TTL", 2*time.Hour),
			EffectTimeout:         dur("WIZARD_EFFECT_TIMEOUT", 15*time.Second),
		},
		Amadeus: AmadeusConfig{
			BaseURL:      getEnvOrDefault("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
			ClientID:     getEnvOrDefault("AMADEUS_CLIENT_ID", ""),
			ClientSecret: getEnvOrDefault("AMADEUS_CLIENT_SECRET", ""),
			MaxResults:   integer("AMADEUS_MAX_RESULTS", 10),
		},
		ORS: ORSConfig{
			BaseURL: getEnvOrDefault("ORS_BASE_URL", "https://api.openrouteservice.org"),
			APIKey:  getEnvOrDefault("ORS_API_KEY", ""),
		},
		BookingBackend: strings.ToLower(getEnvOrDefault("BOOKING_BACKEND", BookingMemory)),
		ServerPort:     getEnvOrDefault("SERVER_PORT", "8091"),
		FlightCacheTTL: dur("FLIGHT_CACHE_TTL", 5*time.Minute),
		GeocodeTTL:     dur("GEOCODE_CACHE_TTL", 24*time.Hour),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.BookingBackend {
	case BookingMemory:
	case BookingPostgres:
		if c.Repositories.Postgres.Password == "" {
			return fmt.Errorf("POSTGRES_PASSWORD environment variable is required for the postgres booking backend")
		}
	default:
		return fmt.Errorf("BOOKING_BACKEND must be %q or %q, got %q", BookingMemory, BookingPostgres, c.BookingBackend)
	}
	if c.Wizard.BudgetMin <= 0 || c.Wizard.BudgetMax < c.Wizard.BudgetMin {
		return fmt.Errorf("wizard budget bounds are invalid: min=%v max=%v", c.Wizard.BudgetMin, c.Wizard.BudgetMax)
	}
	if c.Wizard.MaxActivitySelections < 1 {
		return fmt.Errorf("WIZARD_MAX_ACTIVITIES must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, raw)
	}
	return v, nil
}

func getFloatOrDefault(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return v, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, raw)
	}
	return v, nil
}
