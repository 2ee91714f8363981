package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const DEFAULT_PORT = "8080"
const DEFAULT_FETCH_TOPIC = "steambuddy-fetch"
const DEFAULT_FETCH_WORKERS = 4

type Config struct {
	dBHost       string
	dBPassword   string
	dBUsername   string
	sentryDSN    string
	steamAPIKey  string
	kafkaBrokers []string
	fetchTopic   string
	fetchWorkers int
	port         string
	otelEnabled  bool
	corsOrigins  []string
	env          environment
}

func (c *Config) DBHost() string {
	return c.dBHost
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) SteamAPIKey() string {
	return c.steamAPIKey
}

// Empty when fetch jobs should be handled by the in-process queue
func (c *Config) KafkaBrokers() []string {
	return c.kafkaBrokers
}

func (c *Config) FetchTopic() string {
	return c.fetchTopic
}

func (c *Config) FetchWorkers() int {
	return c.fetchWorkers
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

// Domain suffixes allowed to make cross origin requests
func (c *Config) CORSAllowedOrigins() []string {
	return c.corsOrigins
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, kafkaBrokers: %v, fetchTopic: %s, fetchWorkers: %d, otel: %t, ...}",
		string(c.env), c.port, c.kafkaBrokers, c.fetchTopic, c.fetchWorkers, c.otelEnabled,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("STEAMBUDDY_ENVIRONMENT")
	if !ok {
		return missingKey("STEAMBUDDY_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: STEAMBUDDY_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	steamAPIKey := os.Getenv("STEAM_API_KEY")

	if env == production || env == staging {
		if dbHost == "" {
			return missingKey("DB_HOST")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if steamAPIKey == "" {
			return missingKey("STEAM_API_KEY")
		}
	}

	kafkaBrokers := splitList(os.Getenv("KAFKA_BROKERS"))
	corsOrigins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	fetchTopic := os.Getenv("FETCH_TOPIC")
	if fetchTopic == "" {
		fetchTopic = DEFAULT_FETCH_TOPIC
	}

	fetchWorkers := DEFAULT_FETCH_WORKERS
	if rawWorkers := os.Getenv("FETCH_WORKERS"); rawWorkers != "" {
		parsed, err := strconv.Atoi(rawWorkers)
		if err != nil || parsed < 1 {
			return Config{}, fmt.Errorf("%w: FETCH_WORKERS (%s)", ErrInvalidValue, rawWorkers)
		}
		fetchWorkers = parsed
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DEFAULT_PORT
	}

	otelEnabled := false
	if rawOTel := os.Getenv("OTEL_ENABLED"); rawOTel != "" {
		parsed, err := strconv.ParseBool(rawOTel)
		if err != nil {
			return Config{}, fmt.Errorf("%w: OTEL_ENABLED (%s)", ErrInvalidValue, rawOTel)
		}
		otelEnabled = parsed
	}

	return Config{
		dBHost:       dbHost,
		dBPassword:   dbPassword,
		dBUsername:   dbUsername,
		sentryDSN:    sentryDSN,
		steamAPIKey:  steamAPIKey,
		kafkaBrokers: kafkaBrokers,
		fetchTopic:   fetchTopic,
		fetchWorkers: fetchWorkers,
		port:         port,
		otelEnabled:  otelEnabled,
		corsOrigins:  corsOrigins,
		env:          env,
	}, nil
}

func splitList(raw string) []string {
	var values []string
	for _, value := range strings.Split(raw, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}
