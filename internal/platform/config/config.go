package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Re-auth token config (proof of recent password confirmation)
	ReauthTokenSecret         string
	ReauthTokenExpiryDuration time.Duration

	// Session expiry reconciliation sweep
	SweepInterval time.Duration

	// Rate limit in ulule/limiter formatted notation, e.g. "120-M"
	RateLimit string

	CORSAllowOrigins []string

	// Static answer of the billing collaborator until one is wired in.
	SubscriptionActive bool
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "screenbuddy-backend")
	viper.SetDefault("REAUTH_TOKEN_SECRET", "default_insecure_reauth_secret_please_change_this")
	viper.SetDefault("REAUTH_TOKEN_EXPIRY_DURATION", "5m")
	viper.SetDefault("SWEEP_INTERVAL", "1m")
	viper.SetDefault("RATE_LIMIT", "120-M")
	viper.SetDefault("CORS_ALLOW_ORIGINS", []string{"*"})
	viper.SetDefault("SUBSCRIPTION_ACTIVE", false)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTExpiryDuration = viper.GetDuration("JWT_EXPIRY_DURATION")
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.ReauthTokenSecret = viper.GetString("REAUTH_TOKEN_SECRET")
	cfg.ReauthTokenExpiryDuration = viper.GetDuration("REAUTH_TOKEN_EXPIRY_DURATION")

	cfg.SweepInterval = viper.GetDuration("SWEEP_INTERVAL")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowOrigins = viper.GetStringSlice("CORS_ALLOW_ORIGINS")
	cfg.SubscriptionActive = viper.GetBool("SUBSCRIPTION_ACTIVE")

	return cfg, nil
}
