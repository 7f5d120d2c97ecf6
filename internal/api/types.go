package api

import (
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// ProfileResponse is a stored profile together with its derived targets
type ProfileResponse struct {
	Profile         types.UserProfile `json:"profile"`
	DailyCalories   int               `json:"daily_calories"`
	PerMealCalories int               `json:"per_meal_calories"`
	Macros          service.Macros    `json:"macros"`
}

func newProfileResponse(p types.UserProfile) ProfileResponse {
	daily := service.DailyCalorieTarget(p)
	return ProfileResponse{
		Profile:         p,
		DailyCalories:   daily,
		PerMealCalories: service.PerMealCalorieTarget(p),
		Macros:          service.MacroTargets(daily),
	}
}

// MealResponse is returned after a single meal was regenerated
type MealResponse struct {
	Meal         types.Meal               `json:"meal"`
	ShoppingList []types.ShoppingCategory `json:"shopping_list"`
}

// ShoppingListResponse is returned after a plan's list was rebuilt
type ShoppingListResponse struct {
	ShoppingList []types.ShoppingCategory `json:"shopping_list"`
}

// MealPlanListResponse lists the caller's plans
type MealPlanListResponse struct {
	MealPlans []types.MealPlan `json:"meal_plans"`
}
