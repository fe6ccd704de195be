package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisPass string
	RedisDB   int

	IdempTTLSecs int
	BandCacheTTL time.Duration

	NegotiationTTL time.Duration

	// JWTSecret enables bearer auth when set.
	JWTSecret string

	RateLimitRPS   float64
	RateLimitBurst int

	// Empty URLs select the in-process mocks.
	BureauURL      string
	CreditModelURL string
	ChainURL       string
	UpstreamKey    string
	UpstreamTTL    time.Duration

	AnchorInterval    time.Duration
	AnchorBatchSize   int
	AnchorMaxAttempts int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getfloat(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}

// Load reads the environment, after a .env file if one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "lending"),
		MySQLUser: getenv("MYSQL_USER", "lending"),
		MySQLPass: getenv("MYSQL_PASS", "lending"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisPass: os.Getenv("REDIS_PASS"),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),
		BandCacheTTL: getduration("RATE_BAND_CACHE_TTL", 10*time.Minute),

		NegotiationTTL: getduration("NEGOTIATION_TTL", 48*time.Hour),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RateLimitRPS:   getfloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getint("RATE_LIMIT_BURST", 40),

		BureauURL:      os.Getenv("BUREAU_URL"),
		CreditModelURL: os.Getenv("CREDIT_MODEL_URL"),
		ChainURL:       os.Getenv("CHAIN_URL"),
		UpstreamKey:    os.Getenv("UPSTREAM_API_KEY"),
		UpstreamTTL:    getduration("UPSTREAM_TIMEOUT", 5*time.Second),

		AnchorInterval:    getduration("ANCHOR_INTERVAL", 15*time.Second),
		AnchorBatchSize:   getint("ANCHOR_BATCH_SIZE", 20),
		AnchorMaxAttempts: getint("ANCHOR_MAX_ATTEMPTS", 5),
	}
}

func (c *Config) IsProd() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.AppEnv, "prod")
}

func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.NegotiationTTL <= 0 {
		return fmt.Errorf("NEGOTIATION_TTL must be positive, got %s", c.NegotiationTTL)
	}
	if c.AnchorInterval <= 0 {
		return fmt.Errorf("ANCHOR_INTERVAL must be positive, got %s", c.AnchorInterval)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.IsProd() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET of at least 32 bytes is required in production")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime for DATETIME; clientFoundRows so a no-op UPDATE still reports its row
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&clientFoundRows=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
