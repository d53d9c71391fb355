package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	RuntimeModeServer     = "server"
	RuntimeModeServerless = "serverless"
)

type Config struct {
	Host string
	Port int

	// serverless platforms get no signal handling and no metrics listener
	RuntimeMode string

	DatabaseURL string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string

	AllowedOrigins []string

	LogLevel    string
	LogsPath    string
	LogToStdout bool

	PrometheusMetricsHost string
	PrometheusMetricsPort string

	TracingEnabled bool
}

// Load reads the config from env vars, optionally seeded from a .env file.
// A missing .env file is not an error; explicit env vars always win.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Tracef("no dotenv file loaded from [%s]: %s", dotEnvPath, err)
		}
	}

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT [%s]: %w", portStr, err)
		}
		port = p
	}

	runtimeMode := os.Getenv("GYMTRACKER_RUNTIME_MODE")
	switch runtimeMode {
	case "":
		runtimeMode = RuntimeModeServer
	case RuntimeModeServer, RuntimeModeServerless:
	default:
		return nil, fmt.Errorf("unknown runtime mode: %s", runtimeMode)
	}

	cfg := &Config{
		Host:                  os.Getenv("GYMTRACKER_HOST"),
		Port:                  port,
		RuntimeMode:           runtimeMode,
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("GYMTRACKER_JWT_SECRET"),
		GoogleClientID:        os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    os.Getenv("GOOGLE_CLIENT_SECRET"),
		AllowedOrigins:        splitAndTrim(os.Getenv("GYMTRACKER_ALLOWED_ORIGINS")),
		LogLevel:              getEnvOr("GYMTRACKER_LOG_LEVEL", "trace"),
		LogsPath:              os.Getenv("GYMTRACKER_LOGS_PATH"),
		LogToStdout:           os.Getenv("GYMTRACKER_LOG_TO_STDOUT") != "false",
		PrometheusMetricsHost: getEnvOr("GYMTRACKER_METRICS_HOST", "localhost"),
		PrometheusMetricsPort: getEnvOr("GYMTRACKER_METRICS_PORT", "2112"),
		TracingEnabled:        os.Getenv("GYMTRACKER_TRACING_ENABLED") == "true",
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("GYMTRACKER_JWT_SECRET not set")
	}

	return cfg, nil
}

func getEnvOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitAndTrim(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
