package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/service"
)

// bindJSON decodes the request body into dst and writes a 400 on failure.
// An empty body is accepted when optional is set.
func bindJSON(c *gin.Context, op string, dst any, optional bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		middleware.RespondError(c, err)
		return false
	}
	middleware.RespondError(c, &service.ValidationError{
		Op:     op,
		Fields: []service.FieldError{{Field: "body", Message: "invalid JSON body"}},
	})
	return false
}

// uuidParam parses the path parameter name and writes a 400 when it is not a uuid
func uuidParam(c *gin.Context, op, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		middleware.RespondError(c, &service.ValidationError{
			Op:     op,
			Fields: []service.FieldError{{Field: name, Message: "must be a valid id"}},
		})
		return uuid.Nil, false
	}
	return id, true
}

// callerID returns the authenticated user or writes a 401
func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, middleware.ErrorResponse{Error: "unauthorized"})
	}
	return id, ok
}
