package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Server      Server
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Eligibility EligibilityConfig
	Log         LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
}

// PostgresConfig selects the durable store. An empty URL runs the service on
// in-memory stores.
type PostgresConfig struct {
	URL            string
	MigrateOnStart bool
	MaxOpenConns   int
	MaxIdleConns   int
}

// RedisConfig configures the reference data cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the delay confirmation consumer. No brokers
// disables it.
type KafkaConfig struct {
	Brokers    []string
	DelayTopic string
	GroupID    string
}

type EligibilityConfig struct {
	RefdataFile     string
	RefdataCacheTTL time.Duration
	TxTimeout       time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// FromEnv builds a Config from environment variables, loading a .env file
// first when one exists.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	var errs []string
	r := reader{errs: &errs}

	cfg := Config{
		Server: Server{
			Addr:           r.str("ELIGIBILITY_ADDR", ":8080"),
			RequestTimeout: r.duration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
		},
		Postgres: PostgresConfig{
			URL:            r.str("DATABASE_URL", ""),
			MigrateOnStart: r.boolean("MIGRATE_ON_START", true),
			MaxOpenConns:   r.integer("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:   r.integer("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers:    r.list("KAFKA_BROKERS"),
			DelayTopic: r.str("KAFKA_DELAY_TOPIC", "delay.confirmed"),
			GroupID:    r.str("KAFKA_GROUP_ID", "eligibility-engine"),
		},
		Eligibility: EligibilityConfig{
			RefdataFile:     r.str("REFDATA_FILE", ""),
			RefdataCacheTTL: r.duration("REFDATA_CACHE_TTL", 10*time.Minute),
			TxTimeout:       r.duration("EVALUATION_TX_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level:  r.str("LOG_LEVEL", "info"),
			Format: r.str("LOG_FORMAT", "json"),
		},
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

type reader struct {
	errs *[]string
}

func (r reader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r reader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return n
}

func (r reader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return b
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: must be a positive duration", key))
		return def
	}
	return d
}

func (r reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
