package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/types"
)

func TestGenerateMealPlan_StoredProfile(t *testing.T) {
	env := newTestEnv(t, 10)
	env.seedProfile(t)
	env.expect(tempPlan, planJSON(t))

	w := env.do(t, http.MethodPost, "/api/v1/mealplans", nil)
	assertStatus(t, w, http.StatusCreated)
	env.llm.AssertExpectations(t)

	plan := decode[types.MealPlan](t, w)
	assert.Equal(t, env.userID, plan.OwnerID)
	assert.Equal(t, "Generated Plan", plan.Title)
	assert.Len(t, plan.Meals, 9)
	assert.Equal(t, testList(), plan.ShoppingList)
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))

	w = env.do(t, http.MethodGet, "/api/v1/mealplans/"+plan.ID.String(), nil)
	assertStatus(t, w, http.StatusOK)
	stored := decode[types.MealPlan](t, w)
	assert.Equal(t, plan.Meals, stored.Meals)

	w = env.do(t, http.MethodGet, "/api/v1/mealplans", nil)
	assertStatus(t, w, http.StatusOK)
	assert.Len(t, decode[MealPlanListResponse](t, w).MealPlans, 1)
}

func TestGenerateMealPlan_InlineProfileWithPreferences(t *testing.T) {
	env := newTestEnv(t, 10)
	profile := testProfile()
	cuisines := []string{"japanese"}

	env.llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Preferred cuisines: japanese") &&
			!strings.Contains(prompt, "mediterranean")
	}), tempPlan).Return(planJSON(t), nil).Once()

	w := env.do(t, http.MethodPost, "/api/v1/mealplans", types.GeneratePlanRequest{
		Profile:     &profile,
		Preferences: &types.PreferencesPatch{CuisineTypes: &cuisines},
	})
	assertStatus(t, w, http.StatusCreated)
	env.llm.AssertExpectations(t)

	// the inline profile is not saved
	_, err := env.profiles.Get(context.Background(), env.userID)
	assert.Error(t, err)
}

func TestGenerateMealPlan_NoProfile(t *testing.T) {
	env := newTestEnv(t, 10)

	w := env.do(t, http.MethodPost, "/api/v1/mealplans", nil)
	assertStatus(t, w, http.StatusBadRequest)
	resp := decode[middleware.ErrorResponse](t, w)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "profile", resp.Fields[0].Field)
	env.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateMealPlan_ModelFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(env *testEnv)
	}{
		{
			name: "completion error",
			setup: func(env *testEnv) {
				env.llm.On("Complete", mock.Anything, mock.Anything, tempPlan).Return("", errors.New("upstream 502")).Once()
			},
		},
		{
			name: "unparseable output",
			setup: func(env *testEnv) {
				env.expect(tempPlan, "Here is your plan: breakfast is eggs")
			},
		},
		{
			name: "too few meals",
			setup: func(env *testEnv) {
				env.expect(tempPlan, `{"title":"Short","meals":[],"shoppingList":[]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 10)
			env.seedProfile(t)
			tt.setup(env)

			w := env.do(t, http.MethodPost, "/api/v1/mealplans", nil)
			assertStatus(t, w, http.StatusServiceUnavailable)
			assert.JSONEq(t, `{"error":"meal planning service unavailable"}`, w.Body.String())

			plans, err := env.plans.ListByOwner(context.Background(), env.userID)
			require.NoError(t, err)
			assert.Empty(t, plans)
		})
	}
}

func TestGetMealPlan_Errors(t *testing.T) {
	env := newTestEnv(t, 10)

	w := env.do(t, http.MethodGet, "/api/v1/mealplans/not-a-uuid", nil)
	assertStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodGet, "/api/v1/mealplans/"+uuid.NewString(), nil)
	assertStatus(t, w, http.StatusNotFound)

	// plans of other owners are invisible
	plan := types.MealPlan{ID: uuid.New(), OwnerID: uuid.New(), Title: "Someone Else's", Duration: types.PlanDurationDays}
	require.NoError(t, env.plans.Create(context.Background(), &plan))
	w = env.do(t, http.MethodGet, "/api/v1/mealplans/"+plan.ID.String(), nil)
	assertStatus(t, w, http.StatusNotFound)
}

func TestRegenerateMeal(t *testing.T) {
	env := newTestEnv(t, 10)
	env.seedProfile(t)
	plan := env.seedPlan(t)
	target := plan.Meals[4]

	env.llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "more protein please")
	}), tempMeal).Return(mealJSON(t, "Chicken Bowl"), nil).Once()
	env.expect(tempConsolidate, listJSON(t))

	w := env.do(t, http.MethodPost, "/api/v1/mealplans/"+plan.ID.String()+"/meals/"+target.ID.String()+"/regenerate",
		types.RegenerateMealRequest{Context: "more protein please"})
	assertStatus(t, w, http.StatusOK)
	env.llm.AssertExpectations(t)

	resp := decode[MealResponse](t, w)
	assert.Equal(t, target.ID, resp.Meal.ID)
	assert.Equal(t, "Chicken Bowl", resp.Meal.Name)

	stored, err := env.plans.Get(context.Background(), plan.ID, env.userID)
	require.NoError(t, err)
	assert.Equal(t, "Chicken Bowl", stored.Meals[4].Name)
	assert.Equal(t, plan.Meals[3].Name, stored.Meals[3].Name)
}

func TestRegenerateMeal_UnknownMeal(t *testing.T) {
	env := newTestEnv(t, 10)
	env.seedProfile(t)
	plan := env.seedPlan(t)

	w := env.do(t, http.MethodPost, "/api/v1/mealplans/"+plan.ID.String()+"/meals/"+uuid.NewString()+"/regenerate", nil)
	assertStatus(t, w, http.StatusNotFound)
}

func TestChat_ModifiesMeal(t *testing.T) {
	env := newTestEnv(t, 10)
	env.seedProfile(t)
	plan := env.seedPlan(t)
	target := plan.Meals[1]
	reply := "Sure! I'll make your day 1 lunch vegetarian at around 500 calories."

	env.expect(tempAssistant, reply)
	env.expect(tempClassify, mustJSON(t, map[string]any{
		"action":       "modify_meal",
		"mealType":     "lunch",
		"day":          1,
		"reason":       "user wants a vegetarian lunch",
		"requirements": "make it vegetarian",
	}))
	env.llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, reply) && strings.Contains(prompt, "TARGET CALORIES FOR THIS MEAL: 500 kcal")
	}), tempMeal).Return(mealJSON(t, "Halloumi Wrap"), nil).Once()
	env.expect(tempConsolidate, listJSON(t))

	w := env.do(t, http.MethodPost, "/api/v1/mealplans/"+plan.ID.String()+"/chat", types.ChatRequest{Message: "no meat at lunch on day 1"})
	assertStatus(t, w, http.StatusOK)
	env.llm.AssertExpectations(t)

	resp := decode[types.ChatResponse](t, w)
	assert.Equal(t, reply, resp.Reply)
	assert.Equal(t, types.ActionModifyMeal, resp.Action.Type)
	require.NotNil(t, resp.MutatedMeal)
	assert.Equal(t, target.ID, resp.MutatedMeal.ID)

	stored, err := env.plans.Get(context.Background(), plan.ID, env.userID)
	require.NoError(t, err)
	assert.Equal(t, "Halloumi Wrap", stored.Meals[1].Name)
}

func TestChat_NoAction(t *testing.T) {
	env := newTestEnv(t, 10)
	env.seedProfile(t)
	plan := env.seedPlan(t)

	env.expect(tempAssistant, "Eggs are a great source of protein.")
	env.expect(tempClassify, `{"action":"no_action","reason":"question only"}`)

	w := env.do(t, http.MethodPost, "/api/v1/mealplans/"+plan.ID.String()+"/chat", types.ChatRequest{Message: "are eggs healthy?"})
	assertStatus(t, w, http.StatusOK)

	resp := decode[types.ChatResponse](t, w)
	assert.Equal(t, types.ActionNone, resp.Action.Type)
	assert.Nil(t, resp.MutatedMeal)
	assert.Nil(t, resp.Plan)

	stored, err := env.plans.Get(context.Background(), plan.ID, env.userID)
	require.NoError(t, err)
	assert.Equal(t, plan.Meals[0].Name, stored.Meals[0].Name)
}

func TestChat_EmptyMessage(t *testing.T) {
	env := newTestEnv(t, 10)
	plan := env.seedPlan(t)

	w := env.do(t, http.MethodPost, "/api/v1/mealplans/"+plan.ID.String()+"/chat", map[string]string{"message": ""})
	assertStatus(t, w, http.StatusBadRequest)
	resp := decode[middleware.ErrorResponse](t, w)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "Message", resp.Fields[0].Field)
}

func TestRebuildShoppingList(t *testing.T) {
	env := newTestEnv(t, 10)
	env.seedProfile(t)
	plan := env.seedPlan(t)
	rebuilt := `{"shoppingList":[{"name":"dairy/eggs","icon":"","items":["18 eggs"]},{"name":"PRODUCE","icon":"","items":["9 cups spinach"]}]}`
	env.expect(tempConsolidate, rebuilt)

	w := env.do(t, http.MethodPost, "/api/v1/mealplans/"+plan.ID.String()+"/shopping-list", nil)
	assertStatus(t, w, http.StatusOK)

	resp := decode[ShoppingListResponse](t, w)
	assert.Equal(t, testList(), resp.ShoppingList)

	stored, err := env.plans.Get(context.Background(), plan.ID, env.userID)
	require.NoError(t, err)
	assert.Equal(t, testList(), stored.ShoppingList)
}

func TestGenerationRoutesAreRateLimited(t *testing.T) {
	env := newTestEnv(t, 1)
	env.seedProfile(t)
	plan := env.seedPlan(t)
	env.expect(tempConsolidate, listJSON(t))

	w := env.do(t, http.MethodPost, "/api/v1/mealplans/"+plan.ID.String()+"/shopping-list", nil)
	assertStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodPost, "/api/v1/mealplans", nil)
	assertStatus(t, w, http.StatusTooManyRequests)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// reads are not limited
	w = env.do(t, http.MethodGet, "/api/v1/mealplans/"+plan.ID.String(), nil)
	assertStatus(t, w, http.StatusOK)
}
