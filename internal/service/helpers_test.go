package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplanner/backend/internal/mocks"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// expectCompletion scripts one model answer for the call made at temperature
func expectCompletion(llm *mocks.MockCompleter, temperature float32, text string) *mock.Call {
	return llm.On("Complete", mock.Anything, mock.AnythingOfType("string"), temperature).Return(text, nil).Once()
}

// expectPrompt scripts one answer and requires the prompt to contain every fragment
func expectPrompt(llm *mocks.MockCompleter, temperature float32, text string, fragments ...string) *mock.Call {
	matcher := mock.MatchedBy(func(prompt string) bool {
		for _, f := range fragments {
			if !strings.Contains(prompt, f) {
				return false
			}
		}
		return true
	})
	return llm.On("Complete", mock.Anything, matcher, temperature).Return(text, nil).Once()
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func testPlan() types.MealPlan {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := types.MealPlan{
		ID:        uuid.MustParse("6f1c9a52-2f3e-4d0a-9a57-2d3c8f0b1a10"),
		OwnerID:   uuid.MustParse("0b7d7c2e-8f5a-4e1b-b2a4-5b1d6b0f9c21"),
		Title:     "Mediterranean Reset",
		Duration:  types.PlanDurationDays,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for day := 1; day <= types.PlanDurationDays; day++ {
		for _, mt := range types.MealTypes {
			plan.Meals = append(plan.Meals, types.Meal{
				ID:          uuid.New(),
				Day:         day,
				Type:        mt,
				Name:        fmt.Sprintf("Day %d %s", day, mt),
				Description: "Tasty and balanced",
				Ingredients: []string{"2 eggs", "1 cup spinach", "1 tbsp olive oil"},
				Calories:    650,
				PrepTime:    20,
			})
		}
	}
	plan.ShoppingList = coveringList()
	return plan
}

func coveringList() []types.ShoppingCategory {
	return []types.ShoppingCategory{
		{Name: "Produce", Icon: "🥬", Items: []string{"9 cups spinach"}},
		{Name: "Dairy & Eggs", Icon: "🥚", Items: []string{"18 eggs"}},
		{Name: "Condiments & Oils", Icon: "🫒", Items: []string{"9 tbsp olive oil"}},
	}
}

func coveringListJSON(t *testing.T) string {
	return mustJSON(t, map[string]any{"shoppingList": coveringList()})
}

func mealJSON(t *testing.T, name string, calories float64) string {
	return mustJSON(t, map[string]any{
		"name":        name,
		"description": "A fresh take",
		"ingredients": []string{"2 eggs", "1 cup spinach", "1 tbsp olive oil"},
		"calories":    calories,
		"prepTime":    15,
	})
}

var (
	anyContext = mock.Anything
	anyPrompt  = mock.AnythingOfType("string")
)
