package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
)

func TestPlanStore_CreateAndGet(t *testing.T) {
	store := NewPlanStore(testhelpers.SetupSQLite(t))
	ctx := context.Background()
	plan := testPlan()

	require.NoError(t, store.Create(ctx, &plan))

	got, err := store.Get(ctx, plan.ID, plan.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, plan.Title, got.Title)
	assert.Equal(t, types.PlanDurationDays, got.Duration)
	require.Len(t, got.Meals, len(plan.Meals))
	for i := range plan.Meals {
		assert.Equal(t, plan.Meals[i].ID, got.Meals[i].ID)
		assert.Equal(t, plan.Meals[i].Ingredients, got.Meals[i].Ingredients)
	}
	assert.Equal(t, plan.ShoppingList, got.ShoppingList)
}

func TestPlanStore_GetScopesByOwner(t *testing.T) {
	store := NewPlanStore(testhelpers.SetupSQLite(t))
	ctx := context.Background()
	plan := testPlan()
	require.NoError(t, store.Create(ctx, &plan))

	_, err := store.Get(ctx, plan.ID, uuid.New())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "meal plan", nf.Resource)
}

func TestPlanStore_ListByOwner(t *testing.T) {
	store := NewPlanStore(testhelpers.SetupSQLite(t))
	ctx := context.Background()

	first := testPlan()
	second := testPlan()
	second.ID = uuid.New()
	second.CreatedAt = first.CreatedAt.Add(24 * time.Hour)
	for i := range second.Meals {
		second.Meals[i].ID = uuid.New()
	}
	require.NoError(t, store.Create(ctx, &first))
	require.NoError(t, store.Create(ctx, &second))

	plans, err := store.ListByOwner(ctx, first.OwnerID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, second.ID, plans[0].ID)

	plans, err = store.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestPlanStore_ApplyModification_Meal(t *testing.T) {
	store := NewPlanStore(testhelpers.SetupSQLite(t))
	ctx := context.Background()
	plan := testPlan()
	require.NoError(t, store.Create(ctx, &plan))

	meal := plan.Meals[4]
	meal.Name = "Lentil Soup"
	meal.Ingredients = []string{"1 cup lentils", "1 carrot"}
	meal.Calories = 480
	list := []types.ShoppingCategory{{Name: "Pantry Staples", Icon: "🥫", Items: []string{"1 cup lentils"}}}

	err := store.ApplyModification(ctx, plan.ID, &types.ModificationResult{
		Action:       types.ModificationAction{Type: types.ActionModifyMeal},
		MutatedMeal:  &meal,
		ShoppingList: list,
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, plan.ID, plan.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, meal, got.Meals[4])
	assert.Equal(t, plan.Meals[3], got.Meals[3])
	assert.Equal(t, list, got.ShoppingList)
}

func TestPlanStore_ApplyModification_UnknownMeal(t *testing.T) {
	store := NewPlanStore(testhelpers.SetupSQLite(t))
	ctx := context.Background()
	plan := testPlan()
	require.NoError(t, store.Create(ctx, &plan))

	meal := plan.Meals[0]
	meal.ID = uuid.New()
	err := store.ApplyModification(ctx, plan.ID, &types.ModificationResult{MutatedMeal: &meal})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "meal", nf.Resource)

	// the transaction must not have touched the list
	got, err := store.Get(ctx, plan.ID, plan.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, plan.ShoppingList, got.ShoppingList)
}

func TestPlanStore_ApplyModification_Plan(t *testing.T) {
	store := NewPlanStore(testhelpers.SetupSQLite(t))
	ctx := context.Background()
	plan := testPlan()
	require.NoError(t, store.Create(ctx, &plan))

	replacement := testPlan()
	replacement.Title = "Spring Greens"
	replacement.Meals = replacement.Meals[:3]
	for i := range replacement.Meals {
		replacement.Meals[i].ID = uuid.New()
	}

	err := store.ApplyModification(ctx, plan.ID, &types.ModificationResult{
		Action: types.ModificationAction{Type: types.ActionRegeneratePlan},
		Plan:   &replacement,
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, plan.ID, plan.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, "Spring Greens", got.Title)
	require.Len(t, got.Meals, 3)
	assert.Equal(t, replacement.Meals[0].ID, got.Meals[0].ID)
}

func TestPlanStore_ApplyModification_NoMutation(t *testing.T) {
	store := NewPlanStore(testhelpers.SetupSQLite(t))
	err := store.ApplyModification(context.Background(), uuid.New(), &types.ModificationResult{
		Action: types.ModificationAction{Type: types.ActionNone},
	})
	assert.NoError(t, err)
}

func TestProfileStore_Upsert(t *testing.T) {
	store := NewProfileStore(testhelpers.SetupSQLite(t))
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.Get(ctx, userID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	profile := testProfile()
	require.NoError(t, store.Upsert(ctx, userID, profile))

	profile.WeightKg = 72.5
	profile.Preferences.CuisineTypes = []string{"japanese", "thai"}
	require.NoError(t, store.Upsert(ctx, userID, profile))

	got, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 72.5, got.WeightKg)
	assert.Equal(t, []string{"japanese", "thai"}, got.Preferences.CuisineTypes)
	assert.Equal(t, []string{"peanuts"}, got.Allergies)
	assert.Empty(t, got.DietaryRestrictions)
	assert.Equal(t, types.ComplexitySimple, got.Preferences.ComplexityLevel)
}

func TestProfileStore_UpsertRejectsInvalidProfile(t *testing.T) {
	store := NewProfileStore(testhelpers.SetupSQLite(t))
	profile := testProfile()
	profile.Age = 5

	err := store.Upsert(context.Background(), uuid.New(), profile)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "age", ve.Fields[0].Field)
}
