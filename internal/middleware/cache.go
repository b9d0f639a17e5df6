package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/special-academy-api/internal/cache"
    "github.com/iliyamo/special-academy-api/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 {
        cw.buf.Write(b)
    } else if remain := cw.limit - cw.size; remain > 0 {
        if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body outgrew the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// Build a stable cache key honoring prefix/strategy.  The concrete request
// path is used, not the route pattern, so /items/1 and /items/2 differ.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    method := r.Method
    path := r.URL.Path
    query := r.URL.RawQuery

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", path)
    case "route_query":
        parts = append(parts, "route", path, "q", query)
    case "method_route_query":
        parts = append(parts, "method", method, "route", path, "q", query)
    case "method_route_query_user":
        parts = append(parts, "method", method, "route", path, "q", query, "user", userID(c))
    default: // "method_route_query_role"
        role := Role(c)
        if role == "" {
            role = "anon"
        }
        parts = append(parts, "method", method, "route", path, "q", query, "role", role)
    }

    tail := strings.Join(parts[1:], ":")
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", parts[0], sum[:])
}

// replayable reports whether a response header belongs to the handler's
// output. Headers the global chain sets per request (CORS, request id) and
// those the writer recomputes are left out of stored entries.
func replayable(k string) bool {
    k = http.CanonicalHeaderKey(k)
    switch k {
    case echo.HeaderContentLength, echo.HeaderVary, echo.HeaderXRequestID, "X-Cache":
        return false
    }
    return !strings.HasPrefix(k, "Access-Control-") && !strings.HasPrefix(k, "X-Ratelimit-")
}

// Cache replays stored 200 responses for ttl.  It must be placed after the
// auth guard so identity-aware key strategies see the resolved role.
// Store errors degrade to a miss.
func Cache(store cache.Store, cfg config.CacheConfig, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || store == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if ttl <= 0 {
        ttl = cfg.TTL
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }

            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)

            entry, ok, err := store.Get(ctx, key)
            if err != nil {
                log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
            }
            if ok {
                h := c.Response().Header()
                for k, vals := range entry.Header {
                    if !replayable(k) {
                        continue
                    }
                    h[http.CanonicalHeaderKey(k)] = append([]string(nil), vals...)
                }
                h.Set("X-Cache", "HIT")
                c.Response().WriteHeader(entry.Status)
                if len(entry.Body) > 0 {
                    _, _ = c.Response().Write(entry.Body)
                }
                return nil
            }

            // Miss: capture
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if cw.status == http.StatusOK && !cw.truncated() {
                hdr := http.Header{}
                for k, vals := range c.Response().Header() {
                    if replayable(k) {
                        hdr[k] = append([]string(nil), vals...)
                    }
                }
                body := append([]byte(nil), cw.buf.Bytes()...)
                // detached from the request so a client disconnect does not drop the write
                setCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
                defer cancel()
                if err := store.Set(setCtx, key, cache.Entry{Status: cw.status, Header: hdr, Body: body}, ttl); err != nil {
                    log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
                }
            }
            return nil
        }
    }
}
