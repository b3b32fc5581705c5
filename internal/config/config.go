package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the API process.
type Config struct {
	Addr      string
	DBDSN     string
	DBTimeout time.Duration

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration
	UsersFile string

	RedisAddr string

	MediaBackend string
	MediaBucket  string

	MailEnabled bool
	MailHost    string
	MailPort    int
	MailFrom    string
	MailTo      string

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	MaxBodyBytes   int64
	EnableHSTS     bool

	LogMode  string
	LogLevel string

	OtelEnabled bool
	SeedOnStart bool
}

// LoadEnvFiles reads .env and .env.local. Variables already present in the
// process environment are not overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration from the environment.
func Load() (Config, error) {
	LoadEnvFiles()

	var errs []error
	c := Config{
		Addr:         getEnv("APP_ADDR", ":8080"),
		DBDSN:        os.Getenv("DB_DSN"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTIssuer:    getEnv("JWT_ISSUER", "spielapi"),
		UsersFile:    getEnv("USERS_FILE", "config/users.yaml"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		MediaBackend: strings.ToLower(getEnv("MEDIA_BACKEND", "")),
		MediaBucket:  os.Getenv("MEDIA_BUCKET"),
		MailHost:     getEnv("MAIL_HOST", "127.0.0.1"),
		MailFrom:     getEnv("MAIL_FROM", "spielapi@localhost"),
		MailTo:       getEnv("MAIL_TO", "joe@doe.mail"),
		CORSOrigins:  splitList(os.Getenv("CORS_ORIGINS")),
		LogMode:      getEnv("LOG_MODE", "development"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}

	c.DBTimeout = durationEnv("DB_TIMEOUT", 3*time.Second, &errs)
	c.JWTTTL = durationEnv("JWT_TTL", 24*time.Hour, &errs)
	c.MailEnabled = boolEnv("MAIL_ENABLED", false, &errs)
	c.MailPort = intEnv("MAIL_PORT", 25000, &errs)
	c.RateLimitRPS = floatEnv("RATE_LIMIT_RPS", 10, &errs)
	c.RateLimitBurst = intEnv("RATE_LIMIT_BURST", 20, &errs)
	c.MaxBodyBytes = int64(intEnv("MAX_BODY_BYTES", 10<<20, &errs))
	c.EnableHSTS = boolEnv("ENABLE_HSTS", false, &errs)
	c.OtelEnabled = boolEnv("OTEL_ENABLED", false, &errs)
	c.SeedOnStart = boolEnv("SEED_ON_START", false, &errs)

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("missing required environment variable: JWT_SECRET"))
	}
	if c.MediaBackend == "" {
		c.MediaBackend = "memory"
		if c.DBDSN != "" {
			c.MediaBackend = "postgres"
		}
	}
	switch c.MediaBackend {
	case "memory", "postgres":
	case "gcs":
		if c.MediaBucket == "" {
			errs = append(errs, errors.New("MEDIA_BUCKET is required when MEDIA_BACKEND=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend))
	}
	if c.MediaBackend == "postgres" && c.DBDSN == "" {
		errs = append(errs, errors.New("MEDIA_BACKEND=postgres requires DB_DSN"))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return c, nil
}

// UsePostgres reports whether the persistent store is configured.
func (c Config) UsePostgres() bool {
	return c.DBDSN != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return d
}

func intEnv(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return n
}

func floatEnv(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return f
}

func boolEnv(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return b
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
