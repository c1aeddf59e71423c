// Package config loads the server configuration from config/default.yaml,
// an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/technosupport/vms-inventory/internal/middleware"
)

const DefaultPath = "config/default.yaml"

type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Database   DatabaseConfig    `yaml:"database"`
	Redis      RedisConfig       `yaml:"redis"`
	Auth       AuthConfig        `yaml:"auth"`
	Crypto     CryptoConfig      `yaml:"crypto"`
	Events     EventsConfig      `yaml:"events"`
	Pagination PaginationConfig  `yaml:"pagination"`
	RateLimit  middleware.Config `yaml:"rate_limit"`
	CORS       CORSConfig        `yaml:"cors"`
	Audit      AuditConfig       `yaml:"audit"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Log        LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DataRoot        string        `yaml:"data_root"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// DSN is the lib/pq connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	SigningKey      string `yaml:"signing_key"`
	Issuer          string `yaml:"issuer"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
	RateLimitSalt   string `yaml:"rate_limit_salt"`
}

// CryptoConfig holds the master keys that seal NVR passwords.
// Keys is a JSON array of {"kid","material"} with base64 keys.
type CryptoConfig struct {
	Keys      string `yaml:"keys"`
	ActiveKID string `yaml:"active_kid"`
}

type EventsConfig struct {
	NATSURL         string        `yaml:"nats_url"`
	SubjectPrefix   string        `yaml:"subject_prefix"`
	PublishRetryMax int           `yaml:"publish_retry_max"`
	DedupMaxKeys    int           `yaml:"dedup_max_keys"`
	DedupTTL        time.Duration `yaml:"dedup_ttl"`
}

// Enabled reports whether a broker is configured.
func (e EventsConfig) Enabled() bool { return e.NATSURL != "" }

type PaginationConfig struct {
	// MaxPageSize of 0 leaves pageSize unbounded.
	MaxPageSize int `yaml:"max_page_size"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

type AuditConfig struct {
	SpoolDir       string        `yaml:"spool_dir"`
	SpoolMaxMB     int64         `yaml:"spool_max_mb"`
	ReplayInterval time.Duration `yaml:"replay_interval"`
	RetentionDays  int           `yaml:"retention_days"`
}

type MetricsConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the values used when the file omits a key.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         "5432",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 25,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Auth: AuthConfig{
			Issuer:          "vms-inventory",
			BlacklistPrefix: "blacklist:",
		},
		Events: EventsConfig{
			SubjectPrefix:   "vms.inventory",
			PublishRetryMax: 3,
			DedupMaxKeys:    10000,
			DedupTTL:        time.Minute,
		},
		Audit: AuditConfig{
			SpoolMaxMB:     64,
			ReplayInterval: 30 * time.Second,
			RetentionDays:  365,
		},
		Metrics: MetricsConfig{SnapshotInterval: 30 * time.Second},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults, then applies .env and environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.DataRoot, "VMS_DATA_ROOT")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Auth.SigningKey, "JWT_SIGNING_KEY")
	setString(&c.Auth.RateLimitSalt, "RATE_LIMIT_SALT")
	setString(&c.Crypto.Keys, "MASTER_KEYS")
	setString(&c.Crypto.ActiveKID, "ACTIVE_MASTER_KID")
	setString(&c.Events.NATSURL, "NATS_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setInt(&c.Pagination.MaxPageSize, "MAX_PAGE_SIZE")
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.CORS.Origins = splitList(v)
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("auth.signing_key (JWT_SIGNING_KEY) is required"))
	} else if len(c.Auth.SigningKey) < 32 {
		errs = append(errs, errors.New("auth.signing_key must be at least 32 bytes"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name (DB_NAME) is required"))
	}
	if c.Pagination.MaxPageSize < 0 {
		errs = append(errs, errors.New("pagination.max_page_size must not be negative"))
	}
	if c.Audit.RetentionDays < 0 {
		errs = append(errs, errors.New("audit.retention_days must not be negative"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
