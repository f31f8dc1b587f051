package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	StorageBackend    string `mapstructure:"STORAGE_BACKEND"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Payments.
	StripeKey string `mapstructure:"STRIPE_KEY"`
	Currency  string `mapstructure:"CURRENCY"`

	// Published civil calendar.
	ZoneName                  string `mapstructure:"ZONE_NAME"`
	ZoneStandardOffsetMinutes int    `mapstructure:"ZONE_STANDARD_OFFSET_MINUTES"`
	ZoneDSTShiftMinutes       int    `mapstructure:"ZONE_DST_SHIFT_MINUTES"`
	ZoneDSTStartMonth         int    `mapstructure:"ZONE_DST_START_MONTH"`
	ZoneDSTEndMonth           int    `mapstructure:"ZONE_DST_END_MONTH"`

	// Booking.
	DefaultCapacity         int                `mapstructure:"DEFAULT_CAPACITY"`
	SlotGranularityMinutes  int                `mapstructure:"SLOT_GRANULARITY_MINUTES"`
	DefaultPrice            float64            `mapstructure:"DEFAULT_PRICE"`
	ServicePrices           map[string]float64 `mapstructure:"SERVICE_PRICES"`
	SiblingToleranceSeconds int                `mapstructure:"SIBLING_TOLERANCE_SECONDS"`
	LockTTLSeconds          int                `mapstructure:"LOCK_TTL_SECONDS"`
	StatusRefreshSpec       string             `mapstructure:"STATUS_REFRESH_SPEC"`
}

var AppConfig Config

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "slotbook")
	viper.SetDefault("STORAGE_BACKEND", "mongo")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("CURRENCY", "usd")

	viper.SetDefault("ZONE_NAME", "civil")
	viper.SetDefault("ZONE_STANDARD_OFFSET_MINUTES", -240)
	viper.SetDefault("ZONE_DST_SHIFT_MINUTES", 60)
	viper.SetDefault("ZONE_DST_START_MONTH", 9)
	viper.SetDefault("ZONE_DST_END_MONTH", 4)

	viper.SetDefault("DEFAULT_CAPACITY", 10)
	viper.SetDefault("SLOT_GRANULARITY_MINUTES", 30)
	viper.SetDefault("DEFAULT_PRICE", 0)
	viper.SetDefault("SERVICE_PRICES", map[string]float64{})
	viper.SetDefault("SIBLING_TOLERANCE_SECONDS", 1)
	viper.SetDefault("LOCK_TTL_SECONDS", 10)
	viper.SetDefault("STATUS_REFRESH_SPEC", "@every 1m")
}

func LoadConfig() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	if c.ZoneDSTStartMonth < 1 || c.ZoneDSTStartMonth > 12 || c.ZoneDSTEndMonth < 1 || c.ZoneDSTEndMonth > 12 {
		return fmt.Errorf("daylight months must be in 1..12, got %d and %d", c.ZoneDSTStartMonth, c.ZoneDSTEndMonth)
	}
	if c.ZoneDSTShiftMinutes != 0 && c.ZoneDSTStartMonth == c.ZoneDSTEndMonth {
		return fmt.Errorf("daylight period cannot start and end in month %d", c.ZoneDSTStartMonth)
	}
	if c.SlotGranularityMinutes != 30 {
		return fmt.Errorf("slot granularity is fixed at 30 minutes, got %d", c.SlotGranularityMinutes)
	}
	if c.DefaultCapacity <= 0 {
		return fmt.Errorf("default capacity must be positive, got %d", c.DefaultCapacity)
	}
	if c.DefaultPrice < 0 {
		return fmt.Errorf("default price cannot be negative")
	}
	for label, price := range c.ServicePrices {
		if price < 0 {
			return fmt.Errorf("price for service %q cannot be negative", label)
		}
	}
	if c.StorageBackend != "mongo" && c.StorageBackend != "memory" {
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	return nil
}

func (c Config) SiblingTolerance() time.Duration {
	return time.Duration(c.SiblingToleranceSeconds) * time.Second
}

func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
