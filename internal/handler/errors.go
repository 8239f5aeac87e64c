package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/notas4int/url-cutter/internal/logger"
	"github.com/notas4int/url-cutter/pkg/response"
)

const internalErrorMessage = "internal server error"

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAliasAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLinkExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrAllocationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto the error body. Unknown errors are logged and
// reported without detail.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)

	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Request failed", slog.String("error", err.Error()))
		response.Error(c, status, internalErrorMessage)
		return
	}

	response.Error(c, status, err.Error())
}
