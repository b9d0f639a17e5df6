package config

import (
    "strings"
    "time"

    "github.com/spf13/viper"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false the middleware passes every request through.
// Backend picks the store ("memory" or "redis"); a redis backend without a
// reachable server falls back to memory.  Methods lists the HTTP methods to
// cache.  TTL is the default entry lifetime for content routes.  KeyStrategy
// determines which parts of the request contribute to the cache key.
// SweepInterval drives the memory store's janitor.
type CacheConfig struct {
    Enabled       bool
    Backend       string
    Methods       map[string]bool
    TTL           time.Duration
    KeyStrategy   string
    Prefix        string
    MaxBodyBytes  int
    SweepInterval time.Duration
}

func setCacheDefaults(v *viper.Viper) {
    v.SetDefault("CACHE_ENABLED", true)
    v.SetDefault("CACHE_BACKEND", "memory")
    v.SetDefault("CACHE_METHODS", "GET")
    v.SetDefault("CACHE_TTL", "30s")
    v.SetDefault("CACHE_KEY_STRATEGY", "method_route_query_role")
    v.SetDefault("CACHE_PREFIX", "cache")
    v.SetDefault("CACHE_MAX_BODY_BYTES", 1048576)
    v.SetDefault("CACHE_SWEEP_INTERVAL", "1m")
}

// LoadCacheConfig reads the CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig(v *viper.Viper) CacheConfig {
    cfg := CacheConfig{
        Enabled:       v.GetBool("CACHE_ENABLED"),
        Backend:       strings.ToLower(v.GetString("CACHE_BACKEND")),
        Methods:       parseMethods(v.GetString("CACHE_METHODS")),
        TTL:           v.GetDuration("CACHE_TTL"),
        KeyStrategy:   v.GetString("CACHE_KEY_STRATEGY"),
        Prefix:        v.GetString("CACHE_PREFIX"),
        MaxBodyBytes:  v.GetInt("CACHE_MAX_BODY_BYTES"),
        SweepInterval: v.GetDuration("CACHE_SWEEP_INTERVAL"),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    if cfg.SweepInterval <= 0 {
        cfg.SweepInterval = time.Minute
    }
    return cfg
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
