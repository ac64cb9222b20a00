package config

import (
	"os"
	"strconv"
	"time"
)

func Load() *Config {
	return &Config{
		Service: &ServiceConfig{
			Name: getEnv("SERVICE_NAME", "payesh-notify"),
			Env:  getEnv("SERVICE_ENV", "development"),
		},
		Logger: &LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracer: &TracerConfig{
			Enabled: getEnvBool("OTEL_ENABLED", false),
			Address: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		Broadcast: &BroadcastConfig{
			Driver:       getEnv("BROADCAST_DRIVER", "ws"),
			Scheme:       getEnv("BROADCAST_SCHEME", "ws"),
			Host:         getEnv("BROADCAST_HOST", "localhost"),
			Port:         getEnv("BROADCAST_PORT", "6001"),
			AppKey:       getEnv("BROADCAST_APP_KEY", ""),
			AuthEndpoint: getEnv("BROADCAST_AUTH_ENDPOINT", "http://localhost:8000/broadcasting/auth"),
			Cluster:      getEnv("BROADCAST_CLUSTER", "mt1"),
		},
		Auth: &AuthConfig{
			Token:            getEnv("AUTH_TOKEN", ""),
			JWTSecret:        getEnv("JWT_SECRET", ""),
			Issuer:           getEnv("JWT_ISSUER", "payesh-backend"),
			ReverifyInterval: getEnvDuration("AUTH_REVERIFY_INTERVAL", time.Minute),
		},
		Redis: &RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE", 2),
			PingTimeout:  getEnvDuration("REDIS_PING_TIMEOUT", 2*time.Second),
		},
		Postgres: &PostgresConfig{
			DSN:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("DB_CONN_LIFETIME", 15*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_IDLE_TIME", 5*time.Minute),
			PingTimeout:     getEnvDuration("DB_PING_TIMEOUT", 5*time.Second),
		},
		Dedup: &DedupConfig{
			Window: getEnvDuration("DEDUP_WINDOW", 3*time.Second),
		},
		Subjects: &SubjectConfig{
			UserID:  getEnv("SUBJECT_USER_ID", ""),
			ShiftID: getEnv("SUBJECT_SHIFT_ID", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
