package config

// Redis backs the distributed rate limiter and, when CACHE_BACKEND=redis,
// the response cache.  If the server is unreachable at startup callers get
// an error and degrade: rate limiting is skipped and caching falls back to
// the in-process store.

import (
    "context"
    "crypto/tls"
    "fmt"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/spf13/viper"
)

// RedisConfig describes how to reach Redis.  Addr takes precedence over
// Host/Port when both are set.
type RedisConfig struct {
    Enabled  bool
    Addr     string
    Host     string
    Port     string
    Password string
    DB       int
    TLS      bool
}

func setRedisDefaults(v *viper.Viper) {
    v.SetDefault("REDIS_ENABLED", false)
    v.SetDefault("REDIS_DB", 0)
    v.SetDefault("REDIS_TLS", false)
}

func LoadRedisConfig(v *viper.Viper) RedisConfig {
    return RedisConfig{
        Enabled:  v.GetBool("REDIS_ENABLED"),
        Addr:     v.GetString("REDIS_ADDR"),
        Host:     v.GetString("REDIS_HOST"),
        Port:     v.GetString("REDIS_PORT"),
        Password: v.GetString("REDIS_PASSWORD"),
        DB:       v.GetInt("REDIS_DB"),
        TLS:      v.GetBool("REDIS_TLS"),
    }
}

// Address resolves the host:port to dial.
func (c RedisConfig) Address() string {
    if c.Addr != "" {
        return c.Addr
    }
    if c.Host != "" && c.Port != "" {
        return net.JoinHostPort(c.Host, c.Port)
    }
    return "localhost:6379"
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  It returns a nil client and an error when Redis is disabled or
// unreachable.
func NewRedisClient(c RedisConfig) (*redis.Client, error) {
    if !c.Enabled {
        return nil, fmt.Errorf("redis disabled")
    }
    var tlsConf *tls.Config
    if c.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      c.Address(),
        Password:  c.Password,
        DB:        c.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", c.Address(), err)
    }
    return client, nil
}
