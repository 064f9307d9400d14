package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MockAPIKey disables the LLM provider when used as its API key.
const MockAPIKey = "mock"

type Config struct {
	Port        string
	Env         string
	CORSOrigins []string

	DatabaseURL string
	SQLitePath  string

	LLMModel   string
	LLMAPIKey  string
	LLMBaseURL string
	LLMTimeout time.Duration

	WebhookURL     string
	WebhookTimeout time.Duration

	RedisAddress  string
	RedisPassword string

	S3Bucket string
	S3Region string

	JWTSecret     string
	JWKSURL       string
	SessionTTL    time.Duration
	CognitoRegion string
	CognitoPoolID string

	OverdueSweepInterval time.Duration
	NodeID               int64
	LogLevel             string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "7070"),
		Env:           getEnv("GO_ENV", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "hseqaudit.db"),
		LLMModel:      getEnv("LLM_MODEL", "anthropic:claude-sonnet-4-5"),
		LLMBaseURL:    os.Getenv("LLM_BASE_URL"),
		WebhookURL:    strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		S3Bucket:      os.Getenv("S3_BUCKET_NAME"),
		S3Region:      getEnv("AWS_S3_REGION", "us-east-2"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWKSURL:       os.Getenv("JWKS_URL"),
		CognitoRegion: os.Getenv("COGNITO_REGION"),
		CognitoPoolID: os.Getenv("COGNITO_POOL_ID"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	cfg.LLMAPIKey = llmKeyFor(cfg.LLMModel)
	cfg.CORSOrigins = getList("CORS_ORIGINS")

	var err error
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.WebhookTimeout, err = getDuration("WEBHOOK_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OverdueSweepInterval, err = getDuration("OVERDUE_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	cfg.NodeID, err = strconv.ParseInt(getEnv("NODE_ID", "1"), 10, 64)
	if err != nil || cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return nil, fmt.Errorf("NODE_ID must be an integer in [0, 1023], got %q", os.Getenv("NODE_ID"))
	}

	if cfg.JWKSURL == "" && cfg.CognitoRegion != "" && cfg.CognitoPoolID != "" {
		cfg.JWKSURL = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json",
			cfg.CognitoRegion, cfg.CognitoPoolID)
	}
	return cfg, nil
}

// LLMEnabled reports whether analysis should try the external provider at all.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != "" && c.LLMAPIKey != MockAPIKey
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func llmKeyFor(model string) string {
	provider, _, _ := strings.Cut(model, ":")
	switch provider {
	case "openai":
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	default:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// getList splits a comma separated variable, dropping blank entries.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
