package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/notas4int/url-cutter/pkg/response"
	"github.com/notas4int/url-cutter/pkg/validator"
)

type ShortenerService interface {
	Shorten(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error)
	Resolve(ctx context.Context, alias string) (*domain.Link, error)
}

type ShortenerHandler struct {
	service ShortenerService
}

func NewShortenerHandler(service ShortenerService) *ShortenerHandler {
	return &ShortenerHandler{service: service}
}

// Shorten answers with the short url as plain text.
func (h *ShortenerHandler) Shorten(c *gin.Context) {
	var req domain.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if errs := validator.Validate(&req); len(errs) > 0 {
		response.ValidationErrors(c, errs)
		return
	}

	link, err := h.service.Shorten(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.ShortURL(c, link.ShortURL)
}

func (h *ShortenerHandler) Redirect(c *gin.Context) {
	alias := c.Param("alias")

	link, err := h.service.Resolve(c.Request.Context(), alias)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, link.OriginalURL)
}
