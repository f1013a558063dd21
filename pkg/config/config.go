package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	S3        S3Config
	JWT       JWTConfig
	Optimizer OptimizerConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

// DatabaseConfig is optional: with an empty host the service falls back to
// the mock data source.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type S3Config struct {
	Bucket string
	Prefix string
	Region string
}

type JWTConfig struct {
	SecretKey string
}

type OptimizerConfig struct {
	// "s3" or "redis"
	StoreBackend string

	RunInterval   time.Duration
	LookbackHours int
	MockEndpoints []string

	GuardrailRatio float64
	MinImpressions int64
	MinProfit      float64
	Cooldown       time.Duration
	MaxStepPoints  float64
	BaselineMargin float64
	Alpha          float64
	MinLooks       int
	MaxLooks       int
	MinBuckets     int
	BootstrapIters int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Ad Margin Lab"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "ad_margin_lab"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Bucket: getEnv("S3_BUCKET", ""),
			Prefix: getEnv("S3_PREFIX", "margin-optimizer/"),
			Region: getEnv("AWS_REGION", "us-east-1"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Optimizer: OptimizerConfig{
			StoreBackend:   getEnv("OPTIMIZER_STORE", "redis"),
			RunInterval:    getEnvDuration("OPTIMIZER_RUN_INTERVAL", time.Hour),
			LookbackHours:  getEnvInt("OPTIMIZER_LOOKBACK_HOURS", 24),
			MockEndpoints:  splitCSV(getEnv("MOCK_ENDPOINTS", "endpoint-1")),
			GuardrailRatio: getEnvFloat("GUARDRAIL_RATIO", 0.90),
			MinImpressions: int64(getEnvInt("MIN_IMPRESSIONS", 50000)),
			MinProfit:      getEnvFloat("MIN_PROFIT", 50.0),
			Cooldown:       getEnvDuration("COOLDOWN", 24*time.Hour),
			MaxStepPoints:  getEnvFloat("MAX_STEP_POINTS", 5.0),
			BaselineMargin: getEnvFloat("BASELINE_MARGIN", 35.0),
			Alpha:          getEnvFloat("ALPHA", 0.05),
			MinLooks:       getEnvInt("MIN_LOOKS", 3),
			MaxLooks:       getEnvInt("MAX_LOOKS", 168),
			MinBuckets:     getEnvInt("MIN_BUCKETS", 6),
			BootstrapIters: getEnvInt("BOOTSTRAP_ITERS", 400),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	switch cfg.Optimizer.StoreBackend {
	case "redis":
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, errors.New("OPTIMIZER_STORE=s3 requires S3_BUCKET")
		}
	default:
		return nil, errors.New("OPTIMIZER_STORE must be redis or s3")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}

	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return defaultVal
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
