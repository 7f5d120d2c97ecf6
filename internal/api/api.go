package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/service"
)

// Services bundles the collaborators the handlers are built from
type Services struct {
	Plans        PlanRepository
	Profiles     ProfileRepository
	Generator    *service.MealPlanGenerator
	Coordinator  *service.ModificationCoordinator
	Consolidator *service.Consolidator
	Assistant    *service.Assistant
	Tokens       middleware.TokenValidator
	Limiter      *middleware.RateLimiter
}

// SetupAPI registers every /api/v1 route on router
func SetupAPI(router *gin.Engine, s Services) {
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(s.Tokens))
	{
		profileHandler := NewProfileHandler(s.Profiles)
		mealPlanHandler := NewMealPlanHandler(s)

		profileHandler.RegisterRoutes(v1)
		mealPlanHandler.RegisterRoutes(v1)
	}
}
