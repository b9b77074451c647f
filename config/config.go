package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string        `mapstructure:"APP_PORT"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DatabaseName      string        `mapstructure:"DATABASE_NAME"`
	Env               string        `mapstructure:"ENV"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AdminToken        string        `mapstructure:"ADMIN_TOKEN"`
	PublicBaseURL     string        `mapstructure:"PUBLIC_BASE_URL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Matching engine.
	MaxActiveMatches   int           `mapstructure:"MATCH_MAX_ACTIVE"`
	InitialBatch       int           `mapstructure:"MATCH_INITIAL_BATCH"`
	RedistributeBatch  int           `mapstructure:"MATCH_REDISTRIBUTE_BATCH"`
	MaxRedistributions int           `mapstructure:"MATCH_MAX_REDISTRIBUTIONS"`
	MatchTTL           time.Duration `mapstructure:"MATCH_TTL"`
	MaxDistanceKm      float64       `mapstructure:"MATCH_MAX_DISTANCE_KM"`

	// Stripe.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceBasic    string `mapstructure:"STRIPE_PRICE_BASIC"`
	StripePricePro      string `mapstructure:"STRIPE_PRICE_PRO"`

	// Object storage. STORAGE_DRIVER is "cloudinary" or "s3".
	StorageDriver       string `mapstructure:"STORAGE_DRIVER"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	S3Bucket            string `mapstructure:"S3_BUCKET"`
	S3Region            string `mapstructure:"S3_REGION"`
	AWSAccessKey        string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey        string `mapstructure:"AWS_SECRET_ACCESS_KEY"`

	// Google APIs.
	GoogleAPIKey                  string `mapstructure:"GOOGLE_API_KEY"`
	GoogleServiceAccountFile      string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_FILE"`
	GeminiAPIKey                  string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel                   string `mapstructure:"GEMINI_MODEL"`
}

var AppConfig Config

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "lexconnect")
	viper.SetDefault("TOKEN_TTL", "24h")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_OTP_DB", 2)
	viper.SetDefault("REDIS_QUEUE_DB", 3)

	viper.SetDefault("MATCH_MAX_ACTIVE", 3)
	viper.SetDefault("MATCH_INITIAL_BATCH", 3)
	viper.SetDefault("MATCH_REDISTRIBUTE_BATCH", 2)
	viper.SetDefault("MATCH_MAX_REDISTRIBUTIONS", 3)
	viper.SetDefault("MATCH_TTL", "48h")
	viper.SetDefault("MATCH_MAX_DISTANCE_KM", 50)

	viper.SetDefault("STORAGE_DRIVER", "cloudinary")
	viper.SetDefault("S3_REGION", "eu-west-1")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-flash")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
