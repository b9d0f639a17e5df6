package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/cache"
	"github.com/iliyamo/special-academy-api/internal/config"
	"github.com/iliyamo/special-academy-api/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Backend:      "memory",
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          30 * time.Second,
		KeyStrategy:  "method_route_query_role",
		Prefix:       "test",
		MaxBodyBytes: 1 << 20,
	}
}

// cachedEcho serves GET /stats whose body is whatever *value holds at call
// time. The role header stands in for the auth guard.
func cachedEcho(store cache.Store, cfg config.CacheConfig, ttl time.Duration, value *string, calls *int) *echo.Echo {
	e := echo.New()
	asRole := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r := c.Request().Header.Get("X-Test-Role"); r != "" {
				SetIdentity(c, &model.User{ID: "u-" + r, Role: r})
			}
			return next(c)
		}
	}
	e.GET("/stats", func(c echo.Context) error {
		*calls++
		return c.String(http.StatusOK, *value)
	}, asRole, Cache(store, cfg, ttl, zap.NewNop()))
	e.GET("/missing", func(c echo.Context) error {
		*calls++
		return c.String(http.StatusNotFound, "nope")
	}, asRole, Cache(store, cfg, ttl, zap.NewNop()))
	return e
}

func get(e *echo.Echo, path, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCacheServesStaleWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore().WithClock(clock.Now)
	value, calls := "users=1", 0
	e := cachedEcho(store, testCacheConfig(), time.Hour, &value, &calls)

	rec := get(e, "/stats", model.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "users=1", rec.Body.String())

	value = "users=2"
	clock.Advance(59 * time.Minute)
	rec = get(e, "/stats", model.RoleAdmin)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "users=1", rec.Body.String())
	assert.Equal(t, 1, calls)

	clock.Advance(2 * time.Minute)
	rec = get(e, "/stats", model.RoleAdmin)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "users=2", rec.Body.String())
	assert.Equal(t, 2, calls)
}

func TestCacheKeySeparatesRoles(t *testing.T) {
	store := cache.NewMemoryStore()
	value, calls := "payload", 0
	e := cachedEcho(store, testCacheConfig(), time.Minute, &value, &calls)

	get(e, "/stats", model.RoleAdmin)
	rec := get(e, "/stats", model.RoleUser)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = get(e, "/stats", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)

	rec = get(e, "/stats", model.RoleUser)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	store := cache.NewMemoryStore()
	value, calls := "payload", 0
	e := cachedEcho(store, testCacheConfig(), time.Minute, &value, &calls)

	get(e, "/stats?limit=1", model.RoleAdmin)
	rec := get(e, "/stats?limit=2", model.RoleAdmin)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestCacheSkipsNonOK(t *testing.T) {
	store := cache.NewMemoryStore()
	value, calls := "", 0
	e := cachedEcho(store, testCacheConfig(), time.Minute, &value, &calls)

	get(e, "/missing", model.RoleAdmin)
	rec := get(e, "/missing", model.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, store.Len())
}

func TestCacheSkipsOversizedBody(t *testing.T) {
	cfg := testCacheConfig()
	cfg.MaxBodyBytes = 8
	store := cache.NewMemoryStore()
	value, calls := strings.Repeat("x", 64), 0
	e := cachedEcho(store, cfg, time.Minute, &value, &calls)

	rec := get(e, "/stats", model.RoleAdmin)
	assert.Equal(t, value, rec.Body.String())
	assert.Equal(t, 0, store.Len())
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Enabled = false
	store := cache.NewMemoryStore()
	value, calls := "v", 0
	e := cachedEcho(store, cfg, time.Minute, &value, &calls)

	get(e, "/stats", model.RoleAdmin)
	rec := get(e, "/stats", model.RoleAdmin)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestCacheStoresOnlyHandlerHeaders(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{echo.HeaderContentType, true},
		{"X-Total-Count", true},
		{echo.HeaderAccessControlAllowOrigin, false},
		{"access-control-allow-credentials", false},
		{echo.HeaderVary, false},
		{echo.HeaderXRequestID, false},
		{echo.HeaderContentLength, false},
		{"X-RateLimit-Remaining", false},
		{"X-Cache", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, replayable(tc.header), tc.header)
	}
}

func TestCacheHitDoesNotDuplicateHeaders(t *testing.T) {
	store := cache.NewMemoryStore()
	e := echo.New()
	n := 0
	perRequest := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			n++
			c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "https://app.example.com")
			c.Response().Header().Set(echo.HeaderXRequestID, fmt.Sprintf("req-%d", n))
			return next(c)
		}
	}
	e.GET("/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int{"users": 1})
	}, perRequest, Cache(store, testCacheConfig(), time.Minute, zap.NewNop()))

	get(e, "/stats", "")
	rec := get(e, "/stats", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, []string{"https://app.example.com"}, rec.Header().Values(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, []string{"req-2"}, rec.Header().Values(echo.HeaderXRequestID))
	assert.Equal(t, []string{echo.MIMEApplicationJSON}, rec.Header().Values(echo.HeaderContentType))
}
