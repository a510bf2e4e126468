package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// DBConfig holds the PostgreSQL connection settings (DB_*).
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"multiauth"`
	Password string `env:"PASSWORD" envDefault:"multiauth"`
	Name     string `env:"NAME"     envDefault:"multiauth"`
	// SSLMode is passed through to libpq semantics: disable, require, verify-full.
	SSLMode string `env:"SSL_MODE" envDefault:"disable"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`

	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN renders a postgres:// URL with escaped credentials.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisTopology names how the Redis client reaches the server.
type RedisTopology string

const (
	RedisDisabled RedisTopology = "disabled"
	RedisDirect   RedisTopology = "direct"
	RedisSentinel RedisTopology = "sentinel"
	RedisCluster  RedisTopology = "cluster"
)

// RedisConfig holds the Redis settings (REDIS_*). Redis only backs the login
// throttle; an empty URI with neither sentinel nor cluster turns it off.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`

	UseCluster   bool     `env:"USE_CLUSTER"   envDefault:"false"`
	ClusterNodes []string `env:"CLUSTER_NODES" envDefault:""`
}

// Topology resolves the connection mode. Cluster wins over sentinel.
func (r RedisConfig) Topology() RedisTopology {
	switch {
	case r.UseCluster:
		return RedisCluster
	case r.UseSentinel:
		return RedisSentinel
	case r.URI != "":
		return RedisDirect
	default:
		return RedisDisabled
	}
}

// Enabled reports whether any Redis topology is configured.
func (r RedisConfig) Enabled() bool {
	return r.Topology() != RedisDisabled
}
