package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// PlanRepository stores meal plans
type PlanRepository interface {
	Create(ctx context.Context, plan *types.MealPlan) error
	Get(ctx context.Context, id, ownerID uuid.UUID) (*types.MealPlan, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.MealPlan, error)
	UpdateShoppingList(ctx context.Context, planID uuid.UUID, list []types.ShoppingCategory) error
	ApplyModification(ctx context.Context, planID uuid.UUID, result *types.ModificationResult) error
}

// MealPlanHandler serves plan generation, meal regeneration, chat and shopping lists
type MealPlanHandler struct {
	plans        PlanRepository
	profiles     ProfileRepository
	generator    *service.MealPlanGenerator
	coordinator  *service.ModificationCoordinator
	consolidator *service.Consolidator
	assistant    *service.Assistant
	limiter      *middleware.RateLimiter
}

// NewMealPlanHandler creates a new MealPlanHandler instance
func NewMealPlanHandler(s Services) *MealPlanHandler {
	return &MealPlanHandler{
		plans:        s.Plans,
		profiles:     s.Profiles,
		generator:    s.Generator,
		coordinator:  s.Coordinator,
		consolidator: s.Consolidator,
		assistant:    s.Assistant,
		limiter:      s.Limiter,
	}
}

// RegisterRoutes registers the meal plan routes. Every route that calls the
// model goes through the rate limiter.
func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plans := router.Group("/mealplans")
	{
		plans.GET("", h.ListMealPlans)
		plans.GET("/:id", h.GetMealPlan)
	}

	generation := plans.Group("")
	if h.limiter != nil {
		generation.Use(h.limiter.Middleware())
	}
	{
		generation.POST("", h.GenerateMealPlan)
		generation.POST("/:id/meals/:mealId/regenerate", h.RegenerateMeal)
		generation.POST("/:id/chat", h.Chat)
		generation.POST("/:id/shopping-list", h.RebuildShoppingList)
	}
}

// GenerateMealPlan handles POST /mealplans
func (h *MealPlanHandler) GenerateMealPlan(c *gin.Context) {
	const op = "generate_plan"
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req types.GeneratePlanRequest
	if !bindJSON(c, op, &req, true) {
		return
	}

	var profile types.UserProfile
	if req.Profile != nil {
		profile = *req.Profile
	} else {
		stored, err := h.profiles.Get(c.Request.Context(), userID)
		var nf *service.NotFoundError
		if errors.As(err, &nf) {
			middleware.RespondError(c, &service.ValidationError{
				Op:     op,
				Fields: []service.FieldError{{Field: "profile", Message: "no stored profile; save one or include it in the request"}},
			})
			return
		}
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		profile = *stored
	}
	profile = profile.WithPreferences(req.Preferences)

	plan, err := h.generator.GeneratePlan(c.Request.Context(), profile, userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := h.plans.Create(c.Request.Context(), plan); err != nil {
		middleware.RespondError(c, err)
		return
	}

	slog.Info("Meal plan created", "plan_id", plan.ID, "owner_id", userID, "meals", len(plan.Meals))
	c.JSON(http.StatusCreated, plan)
}

// ListMealPlans handles GET /mealplans
func (h *MealPlanHandler) ListMealPlans(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	plans, err := h.plans.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MealPlanListResponse{MealPlans: plans})
}

// GetMealPlan handles GET /mealplans/:id
func (h *MealPlanHandler) GetMealPlan(c *gin.Context) {
	plan, _, ok := h.loadPlan(c, "get_plan", false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, plan)
}

// RegenerateMeal handles POST /mealplans/:id/meals/:mealId/regenerate
func (h *MealPlanHandler) RegenerateMeal(c *gin.Context) {
	const op = "regenerate_meal"
	mealID, ok := uuidParam(c, op, "mealId")
	if !ok {
		return
	}
	var req types.RegenerateMealRequest
	if !bindJSON(c, op, &req, true) {
		return
	}
	plan, profile, ok := h.loadPlan(c, op, true)
	if !ok {
		return
	}

	result, err := h.coordinator.RegenerateMealInPlan(c.Request.Context(), *plan, mealID, *profile, req.Context)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := h.plans.ApplyModification(c.Request.Context(), plan.ID, result); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MealResponse{Meal: *result.MutatedMeal, ShoppingList: result.ShoppingList})
}

// Chat handles POST /mealplans/:id/chat. The assistant replies first and the
// reply is handed to the coordinator so the applied change matches it.
func (h *MealPlanHandler) Chat(c *gin.Context) {
	const op = "chat"
	var req types.ChatRequest
	if !bindJSON(c, op, &req, false) {
		return
	}
	plan, profile, ok := h.loadPlan(c, op, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	reply, err := h.assistant.Reply(ctx, req.Message, *plan, *profile)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	result, err := h.coordinator.ClassifyAndApply(ctx, req.Message, *plan, *profile, reply)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := h.plans.ApplyModification(ctx, plan.ID, result); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ChatResponse{
		Reply:        reply,
		Action:       result.Action,
		MutatedMeal:  result.MutatedMeal,
		ShoppingList: result.ShoppingList,
		Plan:         result.Plan,
	})
}

// RebuildShoppingList handles POST /mealplans/:id/shopping-list
func (h *MealPlanHandler) RebuildShoppingList(c *gin.Context) {
	const op = "consolidate"
	plan, profile, ok := h.loadPlan(c, op, true)
	if !ok {
		return
	}

	list, err := h.consolidator.Consolidate(c.Request.Context(), plan.Meals, *profile)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := h.plans.UpdateShoppingList(c.Request.Context(), plan.ID, list); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ShoppingListResponse{ShoppingList: list})
}

// loadPlan resolves the caller, the :id plan and, when withProfile is set,
// the caller's stored profile. It writes the error response itself.
func (h *MealPlanHandler) loadPlan(c *gin.Context, op string, withProfile bool) (*types.MealPlan, *types.UserProfile, bool) {
	userID, ok := callerID(c)
	if !ok {
		return nil, nil, false
	}
	planID, ok := uuidParam(c, op, "id")
	if !ok {
		return nil, nil, false
	}

	plan, err := h.plans.Get(c.Request.Context(), planID, userID)
	if err != nil {
		middleware.RespondError(c, err)
		return nil, nil, false
	}
	if !withProfile {
		return plan, nil, true
	}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondError(c, err)
		return nil, nil, false
	}
	return plan, profile, true
}
