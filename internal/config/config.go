package config

import "time"

type Config struct {
	Service   *ServiceConfig
	Logger    *LoggerConfig
	Tracer    *TracerConfig
	Broadcast *BroadcastConfig
	Auth      *AuthConfig
	Redis     *RedisConfig
	Postgres  *PostgresConfig
	Dedup     *DedupConfig
	Subjects  *SubjectConfig
}

type ServiceConfig struct {
	Name string
	Env  string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracerConfig struct {
	Enabled bool
	Address string
}

// BroadcastConfig is the static connection configuration handed to the
// transport at connect time: endpoint, app key, auth endpoint, cluster.
type BroadcastConfig struct {
	Driver       string // "ws" or "redis"
	Scheme       string
	Host         string
	Port         string
	AppKey       string
	AuthEndpoint string
	Cluster      string
}

type AuthConfig struct {
	Token            string
	JWTSecret        string
	Issuer           string
	ReverifyInterval time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type DedupConfig struct {
	Window time.Duration
}

// SubjectConfig names the subjects the daemon's feature subscribers
// mount for: the current user and, optionally, a watched work pattern.
type SubjectConfig struct {
	UserID  string
	ShiftID string
}
