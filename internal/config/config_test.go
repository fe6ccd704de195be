package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "NEGOTIATION_TTL", "RATE_LIMIT_RPS", "REDIS_DB", "JWT_SECRET", "APP_ENV"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.AppPort != "8080" {
		t.Fatalf("AppPort = %q", c.AppPort)
	}
	if c.NegotiationTTL != 48*time.Hour {
		t.Fatalf("NegotiationTTL = %s", c.NegotiationTTL)
	}
	if c.AuthEnabled() {
		t.Fatal("auth must be off without JWT_SECRET")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NEGOTIATION_TTL", "90m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ANCHOR_INTERVAL", "not-a-duration")
	c := Load()
	if c.NegotiationTTL != 90*time.Minute {
		t.Fatalf("NegotiationTTL = %s", c.NegotiationTTL)
	}
	if c.RedisDB != 3 {
		t.Fatalf("RedisDB = %d", c.RedisDB)
	}
	if c.RateLimitRPS != 2.5 {
		t.Fatalf("RateLimitRPS = %v", c.RateLimitRPS)
	}
	if c.AnchorInterval != 15*time.Second {
		t.Fatalf("bad duration should keep default, got %s", c.AnchorInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing host", func(c *Config) { c.MySQLHost = "" }, "missing MySQL"},
		{"bad port", func(c *Config) { c.MySQLPort = "not-a-port" }, "invalid MYSQL_PORT"},
		{"zero ttl", func(c *Config) { c.NegotiationTTL = 0 }, "NEGOTIATION_TTL"},
		{"prod without secret", func(c *Config) { c.AppEnv = "production"; c.JWTSecret = "" }, "JWT_SECRET"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{
				AppPort: "8080", MySQLHost: "h", MySQLPort: "3306", MySQLDB: "d", MySQLUser: "u",
				NegotiationTTL: time.Hour, AnchorInterval: time.Second, RateLimitRPS: 1, RateLimitBurst: 1,
			}
			tc.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &Config{MySQLUser: "u", MySQLPass: "p", MySQLHost: "db", MySQLPort: "3307", MySQLDB: "lending"}
	dsn := c.MySQLDSN()
	if !strings.HasPrefix(dsn, "u:p@tcp(db:3307)/lending?") {
		t.Fatalf("dsn = %q", dsn)
	}
	for _, want := range []string{"parseTime=true", "clientFoundRows=true"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q lacks %s", dsn, want)
		}
	}
}
