package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Data store
	DatabaseURL        string        `json:"database_url"`
	StatementTimeout   time.Duration `json:"-"`
	StatementTimeoutMs int           `json:"statement_timeout_ms"`

	// Query bounds
	MaxRows          int `json:"max_rows"`
	MaxJoins         int `json:"max_joins"`
	MaxSubqueryDepth int `json:"max_subquery_depth"`

	// Result cache
	CacheTTL        time.Duration `json:"-"`
	CacheTTLSec     int           `json:"cache_ttl_sec"`
	CacheMaxEntries int           `json:"cache_max_entries"`

	// Conversation sessions
	SessionMaxTurns int           `json:"session_max_turns"`
	SessionIdle     time.Duration `json:"-"`
	SessionIdleMin  int           `json:"session_idle_minutes"`

	// Classification / generation
	MinIntentConfidence float64 `json:"min_intent_confidence"`
	MaxQuestionLength   int     `json:"max_question_length"`

	// AI / LLM
	AnthropicAPIKey  string        `json:"anthropic_api_key"`
	AnthropicBaseURL string        `json:"anthropic_base_url"` // override for custom proxy
	Model            string        `json:"model"`
	ModelTimeout     time.Duration `json:"-"`
	ModelTimeoutSec  int           `json:"model_timeout_sec"`

	// Audit
	EnableAuditLogging bool `json:"enable_audit_logging"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                DefaultHost,
		Port:                DefaultPort,
		Environment:         DefaultEnvironment,
		APIPrefix:           DefaultAPIPrefix,
		LogLevel:            DefaultLogLevel,
		CORSOrigins:         DefaultCORSOrigins,
		APIKeyHeader:        "X-API-Key",
		EnableAuth:          true,
		RateLimitPerMinute:  DefaultRateLimitPerMinute,
		DatabaseURL:         DefaultDatabaseURL,
		StatementTimeout:    DefaultStatementTimeout,
		MaxRows:             DefaultMaxRows,
		MaxJoins:            DefaultMaxJoins,
		MaxSubqueryDepth:    DefaultMaxSubqueryDepth,
		CacheTTL:            DefaultCacheTTL,
		CacheMaxEntries:     DefaultCacheMaxEntries,
		SessionMaxTurns:     DefaultSessionMaxTurns,
		SessionIdle:         DefaultSessionIdle,
		MinIntentConfidence: DefaultMinIntentConfidence,
		MaxQuestionLength:   DefaultMaxQuestionLength,
		ModelTimeout:        DefaultModelTimeout,
		EnableAuditLogging:  true,
	}

	// Load from JSON config file if specified
	if path := getEnv("CHAINSIGHT_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	// JSON carries durations as plain integers
	if cfg.StatementTimeoutMs > 0 {
		cfg.StatementTimeout = time.Duration(cfg.StatementTimeoutMs) * time.Millisecond
	}
	if cfg.CacheTTLSec > 0 {
		cfg.CacheTTL = time.Duration(cfg.CacheTTLSec) * time.Second
	}
	if cfg.SessionIdleMin > 0 {
		cfg.SessionIdle = time.Duration(cfg.SessionIdleMin) * time.Minute
	}
	if cfg.ModelTimeoutSec > 0 {
		cfg.ModelTimeout = time.Duration(cfg.ModelTimeoutSec) * time.Second
	}

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("CHAINSIGHT_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("CHAINSIGHT_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("CHAINSIGHT_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("CHAINSIGHT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("CHAINSIGHT_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("STATEMENT_TIMEOUT_MS", ""); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.StatementTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := getEnv("MAX_ROWS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRows = n
		}
	}
	if v := getEnv("CACHE_TTL_SEC", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTL = time.Duration(n) * time.Second
		}
	}
	if v := getEnv("SESSION_MAX_TURNS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionMaxTurns = n
		}
	}
	if v := getEnv("MIN_INTENT_CONFIDENCE", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinIntentConfidence = f
		}
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("CHAINSIGHT_MODEL", ""); v != "" {
		cfg.Model = v
	}
	if v := getEnv("MODEL_TIMEOUT_SEC", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ModelTimeout = time.Duration(n) * time.Second
		}
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = v == "true" || v == "1"
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
