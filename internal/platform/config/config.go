package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Statutory rates applied on top of the per-procurement-type WHT rate.
	// Fractions, not percentages: 0.01 means 1%.
	LevyRate decimal.Decimal
	VATRate  decimal.Decimal
	MomoRate decimal.Decimal

	RateCacheTTL  time.Duration
	UndoRetention int

	// CORSAllowedOrigins are the browser origins allowed to call the API,
	// comma-separated in the environment.
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "vendorpay")
	viper.SetDefault("LEVY_RATE", "0.01")
	viper.SetDefault("VAT_RATE", "0.15")
	viper.SetDefault("MOMO_RATE", "0.01")
	viper.SetDefault("RATE_CACHE_TTL", "5m")
	viper.SetDefault("UNDO_RETENTION", 5)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.LevyRate = parseRate("LEVY_RATE")
	cfg.VATRate = parseRate("VAT_RATE")
	cfg.MomoRate = parseRate("MOMO_RATE")

	rateCacheTTLStr := viper.GetString("RATE_CACHE_TTL")
	rateCacheTTL, err := time.ParseDuration(rateCacheTTLStr)
	if err != nil {
		rateCacheTTL = 5 * time.Minute
		log.Printf("Warning: Invalid value for RATE_CACHE_TTL ('%s'). Defaulting to %s.\n", rateCacheTTLStr, rateCacheTTL.String())
	}
	cfg.RateCacheTTL = rateCacheTTL

	cfg.UndoRetention = viper.GetInt("UNDO_RETENTION")
	if cfg.UndoRetention <= 0 {
		cfg.UndoRetention = 5
		log.Printf("Warning: Invalid value for UNDO_RETENTION. Defaulting to %d.\n", cfg.UndoRetention)
	}

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	return cfg, nil
}

// parseRate reads a decimal rate from viper, falling back to the registered
// default when the value does not parse.
func parseRate(key string) decimal.Decimal {
	raw := viper.GetString(key)
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to 0.\n", key, raw)
		return decimal.Zero
	}
	return rate
}
