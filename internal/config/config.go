package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPAddr string

	DBDriver string
	DBDSN    string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL                time.Duration
	SessionSweepInterval      time.Duration
	PasswordHashIterations    int
	RevokePriorSessionOnLogin bool
	AvailabilityCacheTTL      time.Duration

	CORSOrigins []string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults suitable
// for local development. Validation failures are fatal at startup.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{
		Env:      envString("APP_ENV", "dev"),
		HTTPAddr: envString("HTTP_ADDR", ":8080"),

		DBDriver: envString("DB_DRIVER", "sqlite"),
		DBDSN:    envString("DB_DSN", "file:moim.db?cache=shared"),

		RedisEnabled:  envBool("REDIS_ENABLED", false),
		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envString("REDIS_PASSWORD", ""),

		RevokePriorSessionOnLogin: envBool("AUTH_REVOKE_PRIOR_SESSION", true),

		OTELServiceName:          envString("OTEL_SERVICE_NAME", "moim-backend"),
		OTELEnvironment:          envString("OTEL_ENVIRONMENT", "dev"),
		OTELExporterOTLPEndpoint: envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:       envBool("OTEL_METRICS_ENABLED", false),
		OTELTracesEnabled:        envBool("OTEL_TRACES_ENABLED", false),
		OTELLogsEnabled:          envBool("OTEL_LOGS_ENABLED", false),
	}

	var err error
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.PasswordHashIterations, err = envInt("AUTH_PBKDF2_ITERATIONS", 100_000); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.SessionSweepInterval, err = envDuration("SESSION_SWEEP_INTERVAL", 0); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.AvailabilityCacheTTL, err = envDuration("AVAILABILITY_CACHE_TTL", 30*time.Second); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.OTELMetricsExportInterval, err = envDuration("OTEL_METRICS_EXPORT_INTERVAL", 15*time.Second); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.ShutdownHTTPDrainTimeout, err = envDuration("SHUTDOWN_HTTP_DRAIN_TIMEOUT", 5*time.Second); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	if cfg.ShutdownObservabilityTimeout, err = envDuration("SHUTDOWN_OBSERVABILITY_TIMEOUT", 5*time.Second); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	cfg.CORSOrigins = envCSV("CORS_ORIGINS", []string{"http://localhost:3000"})

	if err := cfg.validate(); err != nil {
		return nil, recordLoadErr(ctx, cfg, err)
	}
	recordConfigValidationEvent(ctx, cfg.Env, "success", "none")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("validate config: HTTP_ADDR is required")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("validate config: DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("validate config: DB_DSN is required")
	}
	if c.PasswordHashIterations < 100_000 {
		return fmt.Errorf("validate config: AUTH_PBKDF2_ITERATIONS must be >= 100000, got %d", c.PasswordHashIterations)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("validate config: SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		return fmt.Errorf("validate config: REDIS_ADDR is required when REDIS_ENABLED is set")
	}
	return nil
}

func (c *Config) IsProd() bool { return strings.EqualFold(c.Env, "prod") }

func recordLoadErr(ctx context.Context, cfg *Config, err error) error {
	recordConfigValidationEvent(ctx, cfg.Env, "failure", classifyConfigLoadError(err))
	return err
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func envCSV(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
