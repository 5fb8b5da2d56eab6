package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the production wiring needs: the Postgres
// store, the optional Redis pass lock, and the optional Kafka merge-event
// publisher. Empty Redis/Kafka settings disable those components.
type Config struct {
	PostgresURL string
	BatchSize   int
	LockTTL     time.Duration
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig configures the pass-lock Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the merge-event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so wiring stays lean.
func FromEnv() Config {
	cfg := Config{
		PostgresURL: os.Getenv("CONVERGO_POSTGRES_URL"),
		BatchSize:   envInt("CONVERGO_BATCH_SIZE", 500),
		LockTTL:     envDuration("CONVERGO_LOCK_TTL", 5*time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("CONVERGO_REDIS_URL"),
			PoolSize:     envInt("CONVERGO_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CONVERGO_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("CONVERGO_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CONVERGO_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CONVERGO_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: os.Getenv("CONVERGO_KAFKA_TOPIC"),
		},
	}
	if brokers := os.Getenv("CONVERGO_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "convergo.merges"
	}
	return cfg
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
