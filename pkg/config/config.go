// Package config loads service configuration from a YAML file with
// environment variable overrides for deployment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type NATSConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

type HTTPConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
	AdminAddr   string `mapstructure:"admin_addr"`
}

type RateLimitConfig struct {
	MaxPerHour          int `mapstructure:"max_per_hour"`
	MaxPerDay           int `mapstructure:"max_per_day"`
	CooldownMinutes     int `mapstructure:"cooldown_minutes"`
	EscalationThreshold int `mapstructure:"escalation_threshold"`
}

// Cooldown returns the cooldown as a duration.
func (r RateLimitConfig) Cooldown() time.Duration {
	return time.Duration(r.CooldownMinutes) * time.Minute
}

type CacheConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// TTL returns the summary cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load reads configuration from path, falling back to defaults when the
// file is absent, and applies environment overrides (DATABASE_URL,
// REDIS_ADDR, NATS_URL).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "moderation")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "chat-moderation")
	v.SetDefault("http.metrics_addr", ":9091")
	v.SetDefault("http.admin_addr", ":8082")
	v.SetDefault("rate_limit.max_per_hour", 5)
	v.SetDefault("rate_limit.max_per_day", 15)
	v.SetDefault("rate_limit.cooldown_minutes", 30)
	v.SetDefault("rate_limit.escalation_threshold", 10)
	v.SetDefault("cache.ttl_minutes", 5)

	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbCfg, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("config: parse DATABASE_URL: %w", err)
		}
		cfg.Database = dbCfg
	}
	if addr := v.GetString("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if natsURL := v.GetString("NATS_URL"); natsURL != "" {
		cfg.NATS.URL = natsURL
	}

	return &cfg, nil
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := "disable"
	if m := u.Query().Get("sslmode"); m != "" {
		sslMode = m
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}
