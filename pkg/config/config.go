package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TIERPAY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Stripe   StripeConfig
	Checkout CheckoutConfig
	Redis    RedisConfig
	Client   ClientConfig
	CORS     CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TIERPAY_APP_ENV" default:"dev"`
	Port         string `envconfig:"TIERPAY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TIERPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIERPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StripeConfig struct {
	APIKey         string `envconfig:"TIERPAY_STRIPE_API_KEY" required:"true"`
	PublishableKey string `envconfig:"TIERPAY_STRIPE_PUBLISHABLE_KEY" required:"true"`
	WebhookSecret  string `envconfig:"TIERPAY_STRIPE_WEBHOOK_SECRET" required:"true"`
	Env            string `envconfig:"TIERPAY_STRIPE_ENV" default:"test"`
}

// CheckoutConfig carries the hosted-checkout redirect targets and list caps.
type CheckoutConfig struct {
	SuccessURL       string `envconfig:"TIERPAY_CHECKOUT_SUCCESS_URL" default:"http://localhost:4200/payment-success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL        string `envconfig:"TIERPAY_CHECKOUT_CANCEL_URL" default:"http://localhost:4200/payment-cancel"`
	SessionListLimit int64  `envconfig:"TIERPAY_CHECKOUT_SESSION_LIST_LIMIT" default:"100"`
}

// RedisConfig is optional: webhook idempotency is skipped when URL is empty.
type RedisConfig struct {
	URL              string        `envconfig:"TIERPAY_REDIS_URL"`
	PoolSize         int           `envconfig:"TIERPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns     int           `envconfig:"TIERPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout      time.Duration `envconfig:"TIERPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout      time.Duration `envconfig:"TIERPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout     time.Duration `envconfig:"TIERPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
	WebhookDedupTTL  time.Duration `envconfig:"TIERPAY_WEBHOOK_DEDUP_TTL" default:"24h"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// ClientConfig configures the checkout client side (CLIs, orchestrator).
type ClientConfig struct {
	BaseURL      string        `envconfig:"TIERPAY_API_BASE_URL" default:"http://localhost:8080/api"`
	StageTimeout time.Duration `envconfig:"TIERPAY_CLIENT_STAGE_TIMEOUT" default:"30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TIERPAY_CORS_ALLOWED_ORIGINS" default:"http://localhost:4200,http://127.0.0.1:4200"`
}
