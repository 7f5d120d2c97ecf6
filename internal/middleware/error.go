package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/mealplanner/backend/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string               `json:"error"`
	Fields []service.FieldError `json:"fields,omitempty"`
}

// RespondError writes the JSON error response that matches err's type
func RespondError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		bindErrs      validator.ValidationErrors
		notFoundErr   *service.NotFoundError
		rateLimitErr  *service.RateLimitError
		modelErr      *service.ModelError
	)

	// ModelError goes first: it may wrap the ValidationError of a bad model payload
	switch {
	case errors.As(err, &modelErr):
		slog.Error("Model call failed", "op", modelErr.Op, "ids", modelErr.IDs, "error", modelErr.Unwrap())
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "meal planning service unavailable"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: validationErr.Fields})
	case errors.As(err, &bindErrs):
		fields := make([]service.FieldError, 0, len(bindErrs))
		for _, fe := range bindErrs {
			fields = append(fields, service.FieldError{Field: fe.Field(), Message: "failed on " + fe.Tag()})
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: fields})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &rateLimitErr):
		setRateLimitHeaders(c, rateLimitErr.Limit, 0, rateLimitErr.ResetAt)
		retryAfter := int(time.Until(rateLimitErr.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
	default:
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// ErrorHandler recovers panics and renders errors attached with c.Error when
// the handler wrote no response of its own.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic recovered", "path", c.Request.URL.Path, "panic", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			RespondError(c, c.Errors.Last().Err)
		}
	}
}
