//go:build integration

package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
)

func TestPostgresMigrations(t *testing.T) {
	db := testhelpers.SetupPostgres(t)

	// already applied by the helper; must be idempotent
	require.NoError(t, database.RunMigrations(db))

	var applied int64
	require.NoError(t, db.Table("migrations").Count(&applied).Error)
	assert.EqualValues(t, 2, applied)

	plan := types.MealPlan{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Title:    "Postgres Plan",
		Duration: types.PlanDurationDays,
		Meals: []types.Meal{
			{ID: uuid.New(), Day: 1, Type: types.MealTypeDinner, Name: "Stew", Ingredients: []string{"2 carrots", "1 onion"}},
		},
		ShoppingList: []types.ShoppingCategory{{Name: "Produce", Icon: "🥬", Items: []string{"2 carrots", "1 onion"}}},
	}
	rec := models.NewMealPlan(plan)
	require.NoError(t, db.Create(&rec).Error)

	var loaded models.MealPlan
	require.NoError(t, db.Preload("Meals").First(&loaded, "id = ?", plan.ID).Error)
	assert.Equal(t, plan.Meals, loaded.ToDomain().Meals)
	assert.Equal(t, plan.ShoppingList, loaded.ToDomain().ShoppingList)

	// deleting the plan row cascades to its meals
	require.NoError(t, db.Exec("DELETE FROM meal_plans WHERE id = ?", plan.ID).Error)
	var meals int64
	require.NoError(t, db.Model(&models.Meal{}).Where("plan_id = ?", plan.ID).Count(&meals).Error)
	assert.Zero(t, meals)
}

func TestNewRedisClient(t *testing.T) {
	container := testhelpers.SetupRedis(t)

	client, err := database.NewRedisClient(&config.Config{RedisURL: "redis://" + container.Options().Addr + "/1"})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 1, client.Options().DB)
	assert.NoError(t, client.Set(context.Background(), "mealplanner:probe", "1", 0).Err())
}
