package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret    string
	AccessTTL       time.Duration
	MinSecretLength int
}

type CheckoutConfig struct {
	SessionTTL    time.Duration
	SettleTimeout time.Duration
	ResultWait    time.Duration
}

type PaymentConfig struct {
	Gateway            string
	GatewayURL         string
	GatewayAPIKey      string
	GatewayTimeout     time.Duration
	GatewayRetryMax    int
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
	StubInitiateDelay  time.Duration
	StubVerifyDelay    time.Duration
	Currency           string
	PremiumPrice       decimal.Decimal
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Checkout    CheckoutConfig
	Payment     PaymentConfig
}

const (
	GatewayStub = "stub"
	GatewayHTTP = "http"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("JWT_ACCESS_TTL", "24h")
	v.SetDefault("AUTH_MIN_SECRET_LENGTH", 6)
	v.SetDefault("CHECKOUT_SESSION_TTL", "30m")
	v.SetDefault("CHECKOUT_SETTLE_TIMEOUT", "30s")
	v.SetDefault("CHECKOUT_RESULT_WAIT", "25s")
	v.SetDefault("PAYMENT_GATEWAY_TIMEOUT", "10s")
	v.SetDefault("PAYMENT_GATEWAY_RETRY_MAX", 2)
	v.SetDefault("PAYMENT_BREAKER_FAILURES", 5)
	v.SetDefault("PAYMENT_BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("PAYMENT_STUB_INITIATE_DELAY", "1500ms")
	v.SetDefault("PAYMENT_STUB_VERIFY_DELAY", "800ms")

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:        v.GetString("HTTP_HOST"),
			Port:        v.GetInt("HTTP_PORT"),
			CORSOrigins: parseList(v.GetString("HTTP_CORS_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret:    v.GetString("JWT_ACCESS_SECRET"),
			AccessTTL:       v.GetDuration("JWT_ACCESS_TTL"),
			MinSecretLength: v.GetInt("AUTH_MIN_SECRET_LENGTH"),
		},
		Checkout: CheckoutConfig{
			SessionTTL:    v.GetDuration("CHECKOUT_SESSION_TTL"),
			SettleTimeout: v.GetDuration("CHECKOUT_SETTLE_TIMEOUT"),
			ResultWait:    v.GetDuration("CHECKOUT_RESULT_WAIT"),
		},
		Payment: PaymentConfig{
			Gateway:            strings.ToLower(v.GetString("PAYMENT_GATEWAY")),
			GatewayURL:         v.GetString("PAYMENT_GATEWAY_URL"),
			GatewayAPIKey:      v.GetString("PAYMENT_GATEWAY_API_KEY"),
			GatewayTimeout:     v.GetDuration("PAYMENT_GATEWAY_TIMEOUT"),
			GatewayRetryMax:    v.GetInt("PAYMENT_GATEWAY_RETRY_MAX"),
			BreakerFailures:    v.GetUint32("PAYMENT_BREAKER_FAILURES"),
			BreakerOpenTimeout: v.GetDuration("PAYMENT_BREAKER_OPEN_TIMEOUT"),
			StubInitiateDelay:  v.GetDuration("PAYMENT_STUB_INITIATE_DELAY"),
			StubVerifyDelay:    v.GetDuration("PAYMENT_STUB_VERIFY_DELAY"),
			Currency:           strings.ToUpper(v.GetString("PAYMENT_CURRENCY")),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSOrigins) == 0 {
		cfg.HTTP.CORSOrigins = []string{"*"}
	}
	if cfg.Payment.Gateway == "" {
		cfg.Payment.Gateway = GatewayStub
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "XOF"
	}

	price, err := parsePrice(v.GetString("PREMIUM_PRICE"))
	if err != nil {
		return nil, err
	}
	cfg.Payment.PremiumPrice = price

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.Payment.Gateway {
	case GatewayStub:
	case GatewayHTTP:
		if cfg.Payment.GatewayURL == "" {
			return fmt.Errorf("PAYMENT_GATEWAY_URL is required for the http gateway")
		}
		if cfg.Payment.GatewayAPIKey == "" {
			return fmt.Errorf("PAYMENT_GATEWAY_API_KEY is required for the http gateway")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_GATEWAY %q", cfg.Payment.Gateway)
	}
	if cfg.Checkout.SettleTimeout <= 0 {
		return fmt.Errorf("CHECKOUT_SETTLE_TIMEOUT must be positive")
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NewFromInt(200), nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("PREMIUM_PRICE must be a positive number, got %q", raw)
	}
	return price, nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
