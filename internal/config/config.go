package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	// Credit holds the cooperative-wide defaults for variance penalties and
	// collector payouts. Tolerance and penalty rate can be overridden per run
	// through system settings; these are the fallbacks.
	Credit struct {
		VarianceTolerancePercent float64            `mapstructure:"variance_tolerance_percent"`
		PenaltyRatePerLiter      float64            `mapstructure:"penalty_rate_per_liter"`
		CollectorRatePerLiter    float64            `mapstructure:"collector_rate_per_liter"`
		TierLimits               map[string]float64 `mapstructure:"tier_limits"`
	} `mapstructure:"credit"`

	Razorpay struct {
		KeyID         string `mapstructure:"key_id"`
		KeySecret     string `mapstructure:"key_secret"`
		WebhookSecret string `mapstructure:"webhook_secret"`
	} `mapstructure:"razorpay"`

	R2 struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Bucket    string `mapstructure:"bucket"`
		Region    string `mapstructure:"region"`
	} `mapstructure:"r2"`
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "dairy-backend")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "dairy_db")
	v.SetDefault("credit.variance_tolerance_percent", 5.0)
	v.SetDefault("credit.penalty_rate_per_liter", 2.0)
	v.SetDefault("credit.collector_rate_per_liter", 5.0)
	v.SetDefault("credit.tier_limits", map[string]float64{
		"BRONZE": 2000,
		"SILVER": 5000,
		"GOLD":   10000,
	})
	v.SetDefault("r2.region", "auto")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	// Override JWT secret from environment if not set
	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		if cfg.JWT.Secret == "" {
			log.Fatal("JWT_SECRET not set in config or environment")
		}
	}

	// Load Razorpay config from environment variables
	if keyID := os.Getenv("RAZORPAY_KEY_ID"); keyID != "" {
		cfg.Razorpay.KeyID = keyID
	}
	if keySecret := os.Getenv("RAZORPAY_KEY_SECRET"); keySecret != "" {
		cfg.Razorpay.KeySecret = keySecret
	}
	if webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET"); webhookSecret != "" {
		cfg.Razorpay.WebhookSecret = webhookSecret
	}

	// Load R2 statement storage config from environment variables
	if endpoint := os.Getenv("R2_ENDPOINT"); endpoint != "" {
		cfg.R2.Endpoint = endpoint
	}
	if key := os.Getenv("R2_ACCESS_KEY"); key != "" {
		cfg.R2.AccessKey = key
	}
	if secret := os.Getenv("R2_SECRET_KEY"); secret != "" {
		cfg.R2.SecretKey = secret
	}
	if bucket := os.Getenv("R2_BUCKET"); bucket != "" {
		cfg.R2.Bucket = bucket
	}

	return &cfg
}

// TierLimit returns the credit limit for a farmer tier, falling back to the
// lowest tier when the tier is unknown.
func (c *Config) TierLimit(tier string) float64 {
	if limit, ok := c.Credit.TierLimits[tier]; ok {
		return limit
	}
	return c.Credit.TierLimits["BRONZE"]
}
