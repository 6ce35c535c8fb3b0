package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"PORT"      envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`

	OpenRouterAPIKey   string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL  string        `env:"OPENROUTER_BASE_URL"  envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterSiteURL  string        `env:"OPENROUTER_SITE_URL"  envDefault:""`
	OpenRouterSiteName string        `env:"OPENROUTER_SITE_NAME" envDefault:"KeyInsights"`
	InsightsTimeout    time.Duration `env:"INSIGHTS_TIMEOUT"     envDefault:"2m"`

	DefaultModel   string `env:"DEFAULT_MODEL"   envDefault:"openai/gpt-4o"`
	TranscriptLang string `env:"TRANSCRIPT_LANG" envDefault:"en"`

	RateLimitRequests int64 `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`

	StatusTTL        time.Duration `env:"STATUS_TTL"         envDefault:"2h"`
	PartialResultTTL time.Duration `env:"PARTIAL_RESULT_TTL" envDefault:"1h"`
	FinalResultTTL   time.Duration `env:"FINAL_RESULT_TTL"   envDefault:"24h"`
	JobTimeout       time.Duration `env:"JOB_TIMEOUT"        envDefault:"5m"`

	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:""`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
