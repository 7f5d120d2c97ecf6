package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// ProfileRepository stores nutrition profiles
type ProfileRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	Upsert(ctx context.Context, userID uuid.UUID, profile types.UserProfile) error
}

type ProfileHandler struct {
	profiles ProfileRepository
}

func NewProfileHandler(profiles ProfileRepository) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(*profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var profile types.UserProfile
	if !bindJSON(c, "update_profile", &profile, false) {
		return
	}

	if err := h.profiles.Upsert(c.Request.Context(), userID, profile); err != nil {
		middleware.RespondError(c, err)
		return
	}

	slog.Info("Profile updated", "user_id", userID)
	c.JSON(http.StatusOK, newProfileResponse(profile))
}
