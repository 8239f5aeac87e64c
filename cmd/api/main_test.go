package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/notas4int/url-cutter/internal/handler"
	"github.com/notas4int/url-cutter/internal/middleware"
	redisRepo "github.com/notas4int/url-cutter/internal/repository/redis"
	"github.com/notas4int/url-cutter/internal/repository/sqlite"
	"github.com/notas4int/url-cutter/internal/service"
	"github.com/notas4int/url-cutter/pkg/response"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, limiter *middleware.RateLimiter, trustedProxies ...string) *gin.Engine {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := service.NewShortenerService(store, redisRepo.NewLinkCache(client), "localhost:8080", time.Hour)

	router, err := setupRouter(
		handler.NewShortenerHandler(svc),
		handler.NewHealthHandler(store, client),
		limiter,
		trustedProxies,
	)
	require.NoError(t, err)

	return router
}

func shorten(router *gin.Engine, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, apiPrefix+"/shorten", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRouter_ShortenAndRedirect(t *testing.T) {
	router := setupTestServer(t, nil)

	w := shorten(router, `{"url": "https://ya.ru/", "alias": "super-ya-ru"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8080/super-ya-ru", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	for _, path := range []string{apiPrefix + "/super-ya-ru", "/super-ya-ru"} {
		w = get(router, path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "https://ya.ru/", w.Header().Get("Location"), path)
	}
}

func TestRouter_DuplicateAlias(t *testing.T) {
	router := setupTestServer(t, nil)

	require.Equal(t, http.StatusOK, shorten(router, `{"url": "https://www.google.com/", "alias": "super-google"}`).Code)

	w := shorten(router, `{"url": "https://www.google.com/", "alias": "super-google"}`)

	assert.Equal(t, http.StatusConflict, w.Code)

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apiPrefix+"/shorten", body.RequestURI)
	assert.Contains(t, body.Message, "super-google")
}

func TestRouter_TwoCharacterAlias(t *testing.T) {
	router := setupTestServer(t, nil)

	w := shorten(router, `{"url": "https://ya.ru/", "alias": "ab"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8080/ab", w.Body.String())

	w = get(router, "/ab")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://ya.ru/", w.Header().Get("Location"))
}

func TestRouter_GeneratedAlias(t *testing.T) {
	router := setupTestServer(t, nil)

	w := shorten(router, `{"url": "https://example.com/some/long/path"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^http://localhost:8080/[A-Za-z0-9]{50}$`, w.Body.String())

	alias := strings.TrimPrefix(w.Body.String(), "http://localhost:8080/")
	w = get(router, "/"+alias)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/some/long/path", w.Header().Get("Location"))
}

func TestRouter_UnknownAlias(t *testing.T) {
	router := setupTestServer(t, nil)

	w := get(router, "/unknown-alias")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "/unknown-alias")
}

func TestRouter_HealthRoutesWinOverAlias(t *testing.T) {
	router := setupTestServer(t, nil)

	assert.Equal(t, http.StatusOK, get(router, "/healthz").Code)

	w := get(router, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"up"`)
}

func TestRouter_RateLimitedShorten(t *testing.T) {
	router := setupTestServer(t, middleware.NewRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusOK, shorten(router, `{"url": "https://example.com"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, shorten(router, `{"url": "https://example.com"}`).Code)

	// redirects are not limited
	assert.Equal(t, http.StatusNotFound, get(router, "/whatever").Code)
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	router := setupTestServer(t, middleware.NewRateLimiter(0.001, 1))

	accepted := 0
	for i := 0; i < 10; i++ {
		w := shorten(router, `{"url": "https://example.com"}`, "X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		if w.Code == http.StatusOK {
			accepted++
		}
	}

	assert.Equal(t, 1, accepted, "one client must share one bucket whatever X-Forwarded-For says")
}

func TestRouter_RateLimitHonoursTrustedProxy(t *testing.T) {
	// httptest requests come from 192.0.2.1
	router := setupTestServer(t, middleware.NewRateLimiter(0.001, 1), "192.0.2.1")

	assert.Equal(t, http.StatusOK, shorten(router, `{"url": "https://example.com"}`, "X-Forwarded-For", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, shorten(router, `{"url": "https://example.com"}`, "X-Forwarded-For", "10.0.0.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, shorten(router, `{"url": "https://example.com"}`, "X-Forwarded-For", "10.0.0.1").Code)
}

func TestSetupRouter_InvalidTrustedProxy(t *testing.T) {
	_, err := setupRouter(
		handler.NewShortenerHandler(nil),
		handler.NewHealthHandler(nil, nil),
		nil,
		[]string{"not-an-ip"},
	)

	assert.ErrorContains(t, err, "invalid trusted proxies")
}
