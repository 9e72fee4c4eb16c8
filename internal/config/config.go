package config

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/complaint_desk/pkg/config"
)

// MinSecretBytes is the shortest HS512 key accepted.
const MinSecretBytes = 32

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret       []byte
	TokenTTL        time.Duration
	RevokeOnDisable bool

	BootstrapAdmin BootstrapAdmin

	KafkaBrokers []string
	KafkaTopic   string

	ESURL        string
	ESUser       string
	ESPassword   string
	ESAuditIndex string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	RateLimit RateLimit
}

type BootstrapAdmin struct {
	Username   string
	Password   string
	NationalID string
	Email      string
}

func (b BootstrapAdmin) Enabled() bool {
	return b.Username != "" && b.Password != "" && b.NationalID != ""
}

type RateLimit struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// Load reads the process environment, after merging an optional .env file.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	return Config{
		ServiceName: pkgconfig.EnvDefault("SERVICE_NAME", "complaint_desk"),
		ServerPort:  pkgconfig.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    pkgconfig.EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:       []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:        pkgconfig.EnvDuration("TOKEN_TTL", 10*time.Hour),
		RevokeOnDisable: pkgconfig.EnvBool("REVOKE_ON_DISABLE", false),

		BootstrapAdmin: BootstrapAdmin{
			Username:   os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
			Password:   os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
			NationalID: os.Getenv("BOOTSTRAP_ADMIN_NATIONAL_ID"),
			Email:      os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		},

		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   pkgconfig.EnvDefault("KAFKA_TOPIC", "auth_events"),

		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
		ESAuditIndex: pkgconfig.EnvDefault("ES_AUDIT_INDEX", "auth-audit"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       pkgconfig.EnvIntDefault("REDIS_DB", 0),
		RedisTLS:      pkgconfig.EnvBool("REDIS_TLS", false),

		RateLimit: loadRateLimit(),
	}
}

func loadRateLimit() RateLimit {
	rl := RateLimit{
		Enabled:        pkgconfig.EnvBool("RATE_LIMIT_ENABLED", true),
		Capacity:       pkgconfig.EnvIntDefault("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   pkgconfig.EnvIntDefault("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: pkgconfig.EnvDuration("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            pkgconfig.EnvDuration("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         pkgconfig.EnvDefault("RATE_LIMIT_PREFIX", "rl:login"),
	}
	if rl.Capacity < 1 {
		rl.Capacity = 1
	}
	if rl.RefillTokens < 1 {
		rl.RefillTokens = 1
	}
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
		rl.TTL = minTTL
	}
	return rl
}

func (c Config) Validate() error {
	if err := pkgconfig.RequireNonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
		return err
	}
	if err := pkgconfig.RequireMinBytes(c.JWTSecret, MinSecretBytes, "JWT_SECRET"); err != nil {
		return err
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	return nil
}
