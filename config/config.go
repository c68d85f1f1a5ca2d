package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port    string `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"dev"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"trainingbuilder.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	LLMProvider string `env:"LLM_PROVIDER"`
	LLMBaseURL  string `env:"LLM_BASE_URL"`
	LLMAPIKey   string `env:"LLM_API_KEY"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	RAGSource   string `env:"RAG_SOURCE" envDefault:"kb"`
	RAGEndpoint string `env:"RAG_ENDPOINT"`
	RAGAPIKey   string `env:"RAG_API_KEY"`
	RAGTopK     int    `env:"RAG_TOP_K" envDefault:"6"`

	GenTimeout      time.Duration `env:"GEN_TIMEOUT" envDefault:"20s"`
	GenMaxRetries   int           `env:"GEN_MAX_RETRIES" envDefault:"2"`
	GenRetryBackoff time.Duration `env:"GEN_RETRY_BACKOFF" envDefault:"250ms"`

	DefaultSessionMinutes int           `env:"DEFAULT_SESSION_MINUTES" envDefault:"90"`
	PublishThreshold      int           `env:"PUBLISH_THRESHOLD" envDefault:"90"`
	TopicMatchThreshold   float64       `env:"TOPIC_MATCH_THRESHOLD" envDefault:"0.3"`
	TopicDedupeThreshold  float64       `env:"TOPIC_DEDUPE_THRESHOLD" envDefault:"0.85"`
	TopicCacheTTL         time.Duration `env:"TOPIC_CACHE_TTL" envDefault:"5m"`
	PersonaConfig         string        `env:"PERSONA_CONFIG"`

	DraftStore string        `env:"DRAFT_STORE" envDefault:"db"`
	RedisAddr  string        `env:"REDIS_ADDR"`
	DraftTTL   time.Duration `env:"DRAFT_TTL" envDefault:"168h"`

	KBAllowedDomains []string `env:"KB_ALLOWED_DOMAINS" envSeparator:","`
	KBMaxBytes       int      `env:"KB_MAX_BYTES_PER_PAGE" envDefault:"1500000"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads .env when present, then the environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] No .env file found or error loading: %v", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c AppConfig) validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	switch strings.ToLower(c.LLMProvider) {
	case "", "openai", "mock":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai, mock or empty, got %q", c.LLMProvider)
	}
	switch strings.ToLower(c.RAGSource) {
	case "kb", "remote", "none":
	default:
		return fmt.Errorf("RAG_SOURCE must be kb, remote or none, got %q", c.RAGSource)
	}
	if strings.EqualFold(c.RAGSource, "remote") && c.RAGEndpoint == "" {
		return fmt.Errorf("RAG_SOURCE=remote needs RAG_ENDPOINT")
	}
	switch strings.ToLower(c.DraftStore) {
	case "db":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("DRAFT_STORE=redis needs REDIS_ADDR")
		}
	default:
		return fmt.Errorf("DRAFT_STORE must be db or redis, got %q", c.DraftStore)
	}
	// services treat a zero threshold as unset, so zero is rejected here
	if c.PublishThreshold <= 0 || c.PublishThreshold > 100 {
		return fmt.Errorf("PUBLISH_THRESHOLD must be within 1..100, got %d", c.PublishThreshold)
	}
	if c.TopicMatchThreshold <= 0 || c.TopicMatchThreshold > 1 || c.TopicDedupeThreshold <= 0 || c.TopicDedupeThreshold > 1 {
		return fmt.Errorf("topic thresholds must be within (0, 1]")
	}
	if c.DefaultSessionMinutes < 30 || c.DefaultSessionMinutes > 480 {
		return fmt.Errorf("DEFAULT_SESSION_MINUTES must be within 30..480, got %d", c.DefaultSessionMinutes)
	}
	return nil
}
