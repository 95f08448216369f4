package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/tuanngo/car-rental-api/internal/config"
)

func cacheTestConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:     true,
        Methods:     map[string]bool{"GET": true},
        TTL:         30 * time.Second,
        KeyStrategy: "route_query",
        Prefix:      "cache",
    }
}

// unreachableRedis returns a client whose every command fails fast, so
// tests exercise the middleware's own paths without a live server.
func unreachableRedis() *redis.Client {
    return redis.NewClient(&redis.Options{
        Addr:        "127.0.0.1:1",
        DialTimeout: 50 * time.Millisecond,
        MaxRetries:  -1,
    })
}

func runCached(t *testing.T, mw echo.MiddlewareFunc, authorization string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    e.GET("/v1/vehicles", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"items": []string{}})
    }, mw)

    req := httptest.NewRequest(http.MethodGet, "/v1/vehicles", nil)
    if authorization != "" {
        req.Header.Set(echo.HeaderAuthorization, authorization)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

// The cache key carries no user identity, so a request that carries
// credentials must never touch the shared cache in either direction.
func TestRedisCacheSkipsAuthenticatedRequests(t *testing.T) {
    mw := NewRedisCache(cacheTestConfig(), unreachableRedis())

    rec := runCached(t, mw, "Bearer some.access.token")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRedisCacheHandlesAnonymousRequests(t *testing.T) {
    mw := NewRedisCache(cacheTestConfig(), unreachableRedis())

    rec := runCached(t, mw, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestRedisCachePassthroughWhenDisabled(t *testing.T) {
    cfg := cacheTestConfig()
    cfg.Enabled = false
    mw := NewRedisCache(cfg, unreachableRedis())

    rec := runCached(t, mw, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
}
