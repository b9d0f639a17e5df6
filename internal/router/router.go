package router // package router defines how HTTP routes are registered for the API

import (
	"net/http" // HTTP method names for CORS
	"time"     // cache TTLs

	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // recover, request id, CORS and body limit
	"github.com/redis/go-redis/v9"                  // rate limiter client
	"go.uber.org/zap"                               // structured logging

	"github.com/iliyamo/special-academy-api/internal/cache"      // response cache stores
	"github.com/iliyamo/special-academy-api/internal/config"     // runtime settings
	"github.com/iliyamo/special-academy-api/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/special-academy-api/internal/middleware" // JWT authentication, roles, validation, cache
	"github.com/iliyamo/special-academy-api/internal/repository" // user lookup for the guard
	"github.com/iliyamo/special-academy-api/internal/service"    // token verification
)

// Deps is everything the route table needs.  Cache and Redis may be nil;
// the cache and rate limiter then pass requests through.
type Deps struct {
	Config  config.Config
	Log     *zap.Logger
	Tokens  *service.TokenService
	Users   repository.UserRepository
	Cache   cache.Store
	Redis   *redis.Client
	Auth    *handler.AuthHandler
	Content *handler.ContentHandler
	People  *handler.UserHandler
	Admin   *handler.AdminHandler
}

// New builds the Echo instance with the global middleware chain and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(d.Log)

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			d.Log.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	if d.Config.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.Config.BodyLimit))
	}

	RegisterRoutes(e)
	RegisterAuth(e, d)
	RegisterContent(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring systems.
	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Root)
}

// guard is the auth chain shared by every protected group.
func guard(d Deps) echo.MiddlewareFunc {
	return middleware.JWTAuth(d.Tokens, d.Users, d.Config.StoreTimeout, d.Log)
}

// cached applies the response cache with ttl; it must come after guard.
func cached(d Deps, ttl time.Duration) echo.MiddlewareFunc {
	return middleware.Cache(d.Cache, d.Config.Cache, ttl, d.Log)
}
