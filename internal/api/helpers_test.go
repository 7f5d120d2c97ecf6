package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/mocks"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// temperatures the service uses per call kind
const (
	tempPlan        float32 = 0.8
	tempMeal        float32 = 0.9
	tempConsolidate float32 = 0.2
	tempClassify    float32 = 0.1
	tempAssistant   float32 = 0.7
)

type testEnv struct {
	router   *gin.Engine
	llm      *mocks.MockCompleter
	plans    *service.PlanStore
	profiles *service.ProfileStore
	userID   uuid.UUID
	token    string
}

func newTestEnv(t *testing.T, limit int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLite(t)
	llm := new(mocks.MockCompleter)
	consolidator := service.NewConsolidator(llm, service.CoverageWarn)
	generator := service.NewMealPlanGenerator(llm, consolidator)
	tokens := service.NewTokenService("api-test-secret-api-test-secret-0")

	env := &testEnv{
		router:   gin.New(),
		llm:      llm,
		plans:    service.NewPlanStore(db),
		profiles: service.NewProfileStore(db),
		userID:   uuid.New(),
	}
	env.router.Use(middleware.ErrorHandler())
	SetupAPI(env.router, Services{
		Plans:        env.plans,
		Profiles:     env.profiles,
		Generator:    generator,
		Coordinator:  service.NewModificationCoordinator(service.NewIntentClassifier(llm), generator, consolidator),
		Consolidator: consolidator,
		Assistant:    service.NewAssistant(llm),
		Tokens:       tokens,
		Limiter: middleware.NewRateLimiter(middleware.NewMemoryStore(0, 0),
			middleware.RateLimitConfig{Limit: limit, Window: time.Hour}),
	})

	token, err := tokens.GenerateToken(env.userID, "tester")
	require.NoError(t, err)
	env.token = token
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) expect(temperature float32, text string) *mock.Call {
	return e.llm.On("Complete", mock.Anything, mock.AnythingOfType("string"), temperature).Return(text, nil).Once()
}

func (e *testEnv) seedProfile(t *testing.T) types.UserProfile {
	t.Helper()
	profile := testProfile()
	require.NoError(t, e.profiles.Upsert(context.Background(), e.userID, profile))
	return profile
}

func (e *testEnv) seedPlan(t *testing.T) types.MealPlan {
	t.Helper()
	plan := types.MealPlan{
		ID:       uuid.New(),
		OwnerID:  e.userID,
		Title:    "Seeded Plan",
		Duration: types.PlanDurationDays,
	}
	for day := 1; day <= types.PlanDurationDays; day++ {
		for _, mt := range types.MealTypes {
			plan.Meals = append(plan.Meals, testMeal(day, mt))
		}
	}
	plan.ShoppingList = testList()
	require.NoError(t, e.plans.Create(context.Background(), &plan))
	return plan
}

func testProfile() types.UserProfile {
	return types.UserProfile{
		Age:           30,
		Sex:           types.SexMale,
		HeightCm:      180,
		WeightKg:      75,
		ActivityLevel: types.ActivityModeratelyActive,
		Goal:          types.GoalWeightLoss,
		Allergies:     []string{"peanuts"},
		Preferences: types.Preferences{
			CuisineTypes:    []string{"mediterranean"},
			ComplexityLevel: types.ComplexitySimple,
		},
	}
}

func testMeal(day int, mt types.MealType) types.Meal {
	return types.Meal{
		ID:          uuid.New(),
		Day:         day,
		Type:        mt,
		Name:        fmt.Sprintf("Day %d %s", day, mt),
		Description: "Simple and filling",
		Ingredients: []string{"2 eggs", "1 cup spinach"},
		Calories:    700,
		PrepTime:    15,
	}
}

func testList() []types.ShoppingCategory {
	return []types.ShoppingCategory{
		{Name: "Produce", Icon: "🥬", Items: []string{"9 cups spinach"}},
		{Name: "Dairy & Eggs", Icon: "🥚", Items: []string{"18 eggs"}},
	}
}

func listJSON(t *testing.T) string {
	return mustJSON(t, map[string]any{"shoppingList": testList()})
}

func planJSON(t *testing.T) string {
	meals := make([]map[string]any, 0, 9)
	for day := 1; day <= types.PlanDurationDays; day++ {
		for _, mt := range types.MealTypes {
			meals = append(meals, map[string]any{
				"day":         day,
				"type":        mt,
				"name":        fmt.Sprintf("Generated %d %s", day, mt),
				"description": "Fresh",
				"ingredients": []string{"2 eggs", "1 cup spinach"},
				"calories":    727,
				"prepTime":    20,
			})
		}
	}
	return mustJSON(t, map[string]any{
		"title":        "Generated Plan",
		"meals":        meals,
		"shoppingList": testList(),
	})
}

func mealJSON(t *testing.T, name string) string {
	return mustJSON(t, map[string]any{
		"name":        name,
		"description": "Swapped in",
		"ingredients": []string{"2 eggs", "1 cup spinach"},
		"calories":    690,
		"prepTime":    10,
	})
}

func mustJSON(t *testing.T, v any) string {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, w.Code, w.Body.String())
}
