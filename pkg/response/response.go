package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	RequestURI  string    `json:"requestURI"`
	Message     string    `json:"message"`
	CurrentTime time.Time `json:"currentTime"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorResponse{
		RequestURI:  c.Request.URL.Path,
		Message:     message,
		CurrentTime: time.Now(),
	})
}

func AbortWithError(c *gin.Context, statusCode int, message string) {
	Error(c, statusCode, message)
	c.Abort()
}

func ValidationErrors(c *gin.Context, errors []ValidationError) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  errors,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func ShortURL(c *gin.Context, shortURL string) {
	c.String(http.StatusOK, shortURL)
}
