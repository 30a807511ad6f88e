package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"task_manager/internal/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	AppPort     string
	AppEnv      string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	AutoMigrate bool
	BcryptCost  int

	// Redis backs the logout revocation list. Empty addr disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigin string

	LogLevel string
	LogJSON  bool
}

// Development reports whether detailed error text may be returned to clients.
func (c *Config) Development() bool {
	return c.AppEnv != EnvProduction
}

// Load reads the config from env (and .env when present), exiting on missing values.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	jwtSecret := getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	port := getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	appEnv := getenv("APP_ENV")
	if appEnv == "" {
		appEnv = EnvProduction
	}

	ttl := 24 * time.Hour
	if v := getenv("JWT_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Hour
		}
	}

	autoMigrate := true
	if v := getenv("AUTO_MIGRATE"); v != "" {
		autoMigrate = v == "true" || v == "1"
	}

	cost := bcrypt.DefaultCost
	if v := getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= bcrypt.MinCost && n <= bcrypt.MaxCost {
			cost = n
		}
	}

	redisDB := 0
	if v := getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			redisDB = n
		}
	}

	logLevel := getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		AppPort:       port,
		AppEnv:        appEnv,
		DatabaseURL:   dbURL,
		JWTSecret:     jwtSecret,
		JWTTTL:        ttl,
		AutoMigrate:   autoMigrate,
		BcryptCost:    cost,
		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		AllowedOrigin: getenv("ALLOWED_ORIGIN"),
		LogLevel:      logLevel,
		LogJSON:       getenv("LOG_FORMAT") == "json",
	}, nil
}
