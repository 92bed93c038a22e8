package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/experiment-server/internal/config"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogConnection_RunsBeforeHandlerAndOn404(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(LogConnection(bufferLogger(&buf)))
	e.GET("/", func(c echo.Context) error {
		assert.Contains(t, buf.String(), "connected from")
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "remote_addr=10.1.2.3:5555")
	assert.Contains(t, buf.String(), "level=DEBUG")

	buf.Reset()
	req = httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.RemoteAddr = "10.9.9.9:1"
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), "remote_addr=10.9.9.9:1")
}

func TestAccessLogAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestID(), AccessLog(bufferLogger(&buf)))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), "status=204")
	assert.Contains(t, buf.String(), "request_id="+id)
}

func newCacheEcho(t *testing.T, cfg config.CacheConfig, rdb *redis.Client, hits *atomic.Int32) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/v3/api-docs", func(c echo.Context) error {
		hits.Add(1)
		return c.Blob(http.StatusOK, "application/yaml", []byte("openapi: 3.0.3\n"))
	}, NewRedisCache(cfg, rdb))
	e.GET("/missing", func(c echo.Context) error {
		hits.Add(1)
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	}, NewRedisCache(cfg, rdb))
	return e
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true, "HEAD": true},
		TTL:          time.Minute,
		KeyStrategy:  "method_route_query",
		Prefix:       "apidocs",
		MaxBodyBytes: 1 << 20,
	}
}

func TestNewRedisCache_MissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var hits atomic.Int32
	e := newCacheEcho(t, cacheConfig(), rdb, &hits)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v3/api-docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v3/api-docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "openapi: 3.0.3\n", rec.Body.String())
	assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, int32(1), hits.Load())

	mr.FastForward(2 * time.Minute)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v3/api-docs", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewRedisCache_SkipsErrorsAndOversizedBodies(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var hits atomic.Int32
	e := newCacheEcho(t, cacheConfig(), rdb, &hits)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Equal(t, int32(2), hits.Load())

	cfg := cacheConfig()
	cfg.MaxBodyBytes = 4
	hits.Store(0)
	e = newCacheEcho(t, cfg, rdb, &hits)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v3/api-docs?full=1", nil))
		assert.Equal(t, "openapi: 3.0.3\n", rec.Body.String())
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewRedisCache_HitKeepsOwnRequestID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var hits atomic.Int32
	e := newCacheEcho(t, cacheConfig(), rdb, &hits)
	e.Use(RequestID())

	var ids []string
	for _, want := range []string{"MISS", "HIT"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v3/api-docs", nil))
		require.Equal(t, want, rec.Header().Get("X-Cache"))
		got := rec.Header().Values(echo.HeaderXRequestID)
		require.Len(t, got, 1, want)
		assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
		ids = append(ids, got[0])
	}
	assert.NotEqual(t, ids[0], ids[1])
	assert.Equal(t, int32(1), hits.Load())
}

func TestStoredHeaders_AllowListOnly(t *testing.T) {
	h := http.Header{}
	h.Set(echo.HeaderContentType, "application/yaml")
	h.Set(echo.HeaderXRequestID, "abc")
	h.Set("X-Cache", "MISS")
	h.Set(echo.HeaderContentLength, "15")

	assert.Equal(t, http.Header{"Content-Type": []string{"application/yaml"}}, storedHeaders(h))
}

func TestNewRedisCache_SkipsUnwrittenResponses(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.GET("/v3/api-docs", func(c echo.Context) error { return nil }, NewRedisCache(cacheConfig(), rdb))
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v3/api-docs", nil))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.Empty(t, mr.Keys())
}

func TestNewRedisCache_DisabledIsPassThrough(t *testing.T) {
	var hits atomic.Int32
	e := newCacheEcho(t, cacheConfig(), nil, &hits)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v3/api-docs", nil))
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/yaml"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte("body"))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, []byte("body"), body)

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}
