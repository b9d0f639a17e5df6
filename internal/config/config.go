package config // package config loads application configuration from the environment

import (
    "errors"  // plain messages for missing settings
    "fmt"     // wraps validation failures with the key name
    "strings" // splits list-valued variables
    "time"    // durations for timeouts and TTLs

    "github.com/joho/godotenv" // .env support for local development
    "github.com/spf13/viper"   // env lookup with defaults and type conversion
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; nested structs group the settings of one
// subsystem and are loaded by the sibling files in this package.
type Config struct {
    Env      string // application environment (dev, test, prod)
    Port     string // HTTP port to listen on
    LogLevel string // zap level name (debug, info, warn, error)

    StoreDriver  string        // mongodb | mysql | memory
    StoreTimeout time.Duration // upper bound for every single store call

    MongoURI      string // MongoDB connection string
    MongoDatabase string // MongoDB database name

    DBUser string // MySQL username
    DBPass string // MySQL password (optional)
    DBHost string // MySQL host address
    DBPort string // MySQL port number
    DBName string // MySQL database name

    JWTSecret        string        // signs access tokens
    JWTRefreshSecret string        // signs refresh tokens; must differ from JWTSecret
    AccessTTL        time.Duration // access token lifetime
    RefreshTTL       time.Duration // refresh token lifetime
    BcryptCost       int           // bcrypt cost for password hashing
    AllowAdminSignup bool          // lets public registration request the admin role

    AdminEmail    string // seeded administrator, optional
    AdminPassword string
    AdminFullName string

    CORSOrigins     []string      // allowed CORS origins
    BodyLimit       string        // echo body limit, e.g. "10M"
    ShutdownTimeout time.Duration // graceful shutdown budget

    Cache         CacheConfig
    StatsCacheTTL time.Duration // TTL applied to GET /api/stats
    RateLimit     RateLimitConfig
    Redis         RedisConfig
    Activity      ActivityConfig
    Upload        UploadConfig
}

// Load reads a .env file when present, then the process environment, and
// returns a validated Config.
func Load() (Config, error) {
    _ = godotenv.Load() // a missing .env is fine; real env vars take precedence

    v := viper.New()
    v.AutomaticEnv()
    setDefaults(v)

    cfg := Config{
        Env:      v.GetString("APP_ENV"),
        Port:     v.GetString("APP_PORT"),
        LogLevel: v.GetString("LOG_LEVEL"),

        StoreDriver:  strings.ToLower(v.GetString("STORE_DRIVER")),
        StoreTimeout: v.GetDuration("STORE_TIMEOUT"),

        MongoURI:      v.GetString("MONGO_URI"),
        MongoDatabase: v.GetString("MONGO_DATABASE"),

        DBUser: v.GetString("DB_USER"),
        DBPass: v.GetString("DB_PASS"),
        DBHost: v.GetString("DB_HOST"),
        DBPort: v.GetString("DB_PORT"),
        DBName: v.GetString("DB_NAME"),

        JWTSecret:        v.GetString("JWT_SECRET"),
        JWTRefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
        AccessTTL:        v.GetDuration("ACCESS_TOKEN_TTL"),
        RefreshTTL:       v.GetDuration("REFRESH_TOKEN_TTL"),
        BcryptCost:       v.GetInt("BCRYPT_COST"),
        AllowAdminSignup: v.GetBool("ALLOW_ADMIN_SIGNUP"),

        AdminEmail:    v.GetString("ADMIN_EMAIL"),
        AdminPassword: v.GetString("ADMIN_PASSWORD"),
        AdminFullName: v.GetString("ADMIN_FULL_NAME"),

        CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
        BodyLimit:       v.GetString("BODY_LIMIT"),
        ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

        Cache:         LoadCacheConfig(v),
        StatsCacheTTL: v.GetDuration("STATS_CACHE_TTL"),
        RateLimit:     LoadRateLimitConfig(v),
        Redis:         LoadRedisConfig(v),
        Activity:      LoadActivityConfig(v),
        Upload:        LoadUploadConfig(v),
    }
    if err := cfg.Validate(); err != nil {
        return Config{}, fmt.Errorf("config validation failed: %w", err)
    }
    return cfg, nil
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("APP_ENV", "dev")
    v.SetDefault("APP_PORT", "5000")
    v.SetDefault("LOG_LEVEL", "info")

    v.SetDefault("STORE_DRIVER", "mongodb")
    v.SetDefault("STORE_TIMEOUT", "5s")
    v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
    v.SetDefault("MONGO_DATABASE", "special_academy")
    v.SetDefault("DB_HOST", "localhost")
    v.SetDefault("DB_PORT", "3306")
    v.SetDefault("DB_NAME", "special_academy")

    v.SetDefault("ACCESS_TOKEN_TTL", "1h")
    v.SetDefault("REFRESH_TOKEN_TTL", "168h")
    v.SetDefault("BCRYPT_COST", 10)
    v.SetDefault("ALLOW_ADMIN_SIGNUP", false)
    v.SetDefault("ADMIN_FULL_NAME", "Admin User")

    v.SetDefault("CORS_ORIGINS", "https://special-academy-admin-dashboard.vercel.app")
    v.SetDefault("BODY_LIMIT", "20M")
    v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
    v.SetDefault("STATS_CACHE_TTL", "1h")

    setCacheDefaults(v)
    setRateLimitDefaults(v)
    setRedisDefaults(v)
    setActivityDefaults(v)
    setUploadDefaults(v)
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
    if c.JWTSecret == "" {
        return errors.New("missing required env var: JWT_SECRET")
    }
    if c.JWTRefreshSecret == "" {
        return errors.New("missing required env var: JWT_REFRESH_SECRET")
    }
    if c.JWTSecret == c.JWTRefreshSecret {
        return errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET")
    }
    if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
        return errors.New("token TTLs must be positive")
    }
    switch c.StoreDriver {
    case "mongodb":
        if c.MongoURI == "" {
            return errors.New("missing required env var: MONGO_URI")
        }
    case "mysql":
        if c.DBUser == "" {
            return errors.New("missing required env var: DB_USER")
        }
    case "memory":
    default:
        return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
    }
    if c.StoreTimeout <= 0 {
        return errors.New("STORE_TIMEOUT must be positive")
    }
    if (c.AdminEmail == "") != (c.AdminPassword == "") {
        return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
    }
    if err := c.Activity.validate(); err != nil {
        return err
    }
    return c.Upload.validate()
}

// IsProd reports whether the app runs in production mode.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
