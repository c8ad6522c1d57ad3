package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPPort string
	GRPCPort string
	Storage  string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int

	JWTSecret         string
	AdminID           string
	ExpirySchedule    string
	HeartbeatInterval time.Duration
	EtaSlack          time.Duration

	LogFile  string
	LogLevel string
}

// Load reads .env from the working directory or the closest parent that has
// one, then the process environment. A missing .env file is not an error.
func Load() (*Config, error) {
	if path, ok := findDotEnv(); ok {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	r := &reader{}
	cfg := &Config{
		HTTPPort: r.str("HTTP_PORT", "9000"),
		GRPCPort: r.str("GRPC_PORT", "50051"),
		Storage:  strings.ToLower(r.str("STORAGE", StoragePostgres)),

		DBHost:     r.str("DB_HOST", "localhost"),
		DBPort:     r.int("DB_PORT", 5432),
		DBUser:     r.str("POSTGRES_USER", "postgres"),
		DBPassword: r.str("POSTGRES_PASSWORD", ""),
		DBName:     r.str("POSTGRES_DB", "freightbid"),
		DBMaxConns: int32(r.int("DB_MAX_CONNS", 10)),

		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.int("REDIS_DB", 0),

		KafkaBrokers: r.list("KAFKA_BROKERS"),
		KafkaTopic:   r.str("KAFKA_TOPIC", "freightbid.events"),

		OutboxPollInterval: r.duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    r.int("OUTBOX_BATCH_SIZE", 50),
		OutboxMaxAttempts:  r.int("OUTBOX_MAX_ATTEMPTS", 5),

		JWTSecret:         r.str("JWT_SECRET", ""),
		AdminID:           r.str("ADMIN_ID", ""),
		ExpirySchedule:    r.str("EXPIRY_SCHEDULE", "@every 1m"),
		HeartbeatInterval: r.duration("HEARTBEAT_INTERVAL", 15*time.Second),
		EtaSlack:          r.duration("ETA_SLACK", 72*time.Hour),

		LogFile:  r.str("LOG_FILE", ""),
		LogLevel: r.str("LOG_LEVEL", "debug"),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Storage != StorageMemory && c.Storage != StoragePostgres {
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func findDotEnv() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// reader keeps the first parse error so Load can report it once.
type reader struct {
	err error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
