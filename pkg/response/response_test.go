package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestError_Body(t *testing.T) {
	c, w := newContext("/api/v1/super-url-cutter/missing?x=1")
	before := time.Now()

	Error(c, http.StatusNotFound, "link not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/api/v1/super-url-cutter/missing", body.RequestURI, "query string is not part of requestURI")
	assert.Equal(t, "link not found", body.Message)
	assert.False(t, body.CurrentTime.Before(before.Truncate(time.Second)))
}

func TestAbortWithError(t *testing.T) {
	c, w := newContext("/x")

	AbortWithError(c, http.StatusTooManyRequests, "rate limited")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestValidationErrors(t *testing.T) {
	c, w := newContext("/x")

	ValidationErrors(c, []ValidationError{{Field: "URL", Message: "URL is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ValidationErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Validation failed", body.Message)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "URL", body.Errors[0].Field)
}

func TestShortURL_PlainText(t *testing.T) {
	c, w := newContext("/x")

	ShortURL(c, "http://localhost:8080/super-google")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8080/super-google", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
