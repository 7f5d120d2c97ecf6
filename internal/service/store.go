package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanStore persists meal plans and applies the effects of modification turns
type PlanStore struct {
	db *gorm.DB
}

// NewPlanStore creates a new PlanStore instance
func NewPlanStore(db *gorm.DB) *PlanStore {
	return &PlanStore{db: db}
}

// Create stores a freshly generated plan with its meals
func (s *PlanStore) Create(ctx context.Context, plan *types.MealPlan) error {
	rec := models.NewMealPlan(*plan)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create meal plan: %w", err)
	}
	plan.CreatedAt = rec.CreatedAt
	plan.UpdatedAt = rec.UpdatedAt
	return nil
}

// Get loads a plan owned by ownerID
func (s *PlanStore) Get(ctx context.Context, id, ownerID uuid.UUID) (*types.MealPlan, error) {
	var rec models.MealPlan
	err := s.db.WithContext(ctx).
		Preload("Meals").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "meal plan", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	plan := rec.ToDomain()
	return &plan, nil
}

// ListByOwner returns the owner's plans, newest first
func (s *PlanStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]types.MealPlan, error) {
	var recs []models.MealPlan
	err := s.db.WithContext(ctx).
		Preload("Meals").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	plans := make([]types.MealPlan, len(recs))
	for i, rec := range recs {
		plans[i] = rec.ToDomain()
	}
	return plans, nil
}

// ReplaceMeal overwrites the content of one meal and the plan's shopping list in one transaction
func (s *PlanStore) ReplaceMeal(ctx context.Context, planID uuid.UUID, meal types.Meal, list []types.ShoppingCategory) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Meal{}).
			Where("id = ? AND plan_id = ?", meal.ID, planID).
			Updates(map[string]interface{}{
				"name":        meal.Name,
				"description": meal.Description,
				"ingredients": models.StringList(meal.Ingredients),
				"calories":    meal.Calories,
				"prep_time":   meal.PrepTime,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update meal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Resource: "meal", ID: meal.ID.String()}
		}
		return updateShoppingList(tx, planID, list)
	})
}

// UpdateShoppingList replaces the stored shopping list of a plan
func (s *PlanStore) UpdateShoppingList(ctx context.Context, planID uuid.UUID, list []types.ShoppingCategory) error {
	return updateShoppingList(s.db.WithContext(ctx), planID, list)
}

func updateShoppingList(tx *gorm.DB, planID uuid.UUID, list []types.ShoppingCategory) error {
	res := tx.Model(&models.MealPlan{}).
		Where("id = ?", planID).
		Updates(map[string]interface{}{
			"shopping_list": models.ShoppingList(list),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update shopping list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "meal plan", ID: planID.String()}
	}
	return nil
}

// ReplacePlan swaps every meal, the title and the shopping list of an existing plan
func (s *PlanStore) ReplacePlan(ctx context.Context, plan *types.MealPlan) error {
	rec := models.NewMealPlan(*plan)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MealPlan{}).
			Where("id = ? AND owner_id = ?", plan.ID, plan.OwnerID).
			Updates(map[string]interface{}{
				"title":         rec.Title,
				"duration":      rec.Duration,
				"shopping_list": rec.ShoppingList,
				"updated_at":    time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update meal plan: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Resource: "meal plan", ID: plan.ID.String()}
		}
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&models.Meal{}).Error; err != nil {
			return fmt.Errorf("failed to delete meals: %w", err)
		}
		if len(rec.Meals) == 0 {
			return nil
		}
		if err := tx.Create(&rec.Meals).Error; err != nil {
			return fmt.Errorf("failed to create meals: %w", err)
		}
		return nil
	})
}

// ApplyModification persists the effects of one chat turn. Turns without a
// mutation are a no-op.
func (s *PlanStore) ApplyModification(ctx context.Context, planID uuid.UUID, result *types.ModificationResult) error {
	switch {
	case result.Plan != nil:
		return s.ReplacePlan(ctx, result.Plan)
	case result.MutatedMeal != nil:
		return s.ReplaceMeal(ctx, planID, *result.MutatedMeal, result.ShoppingList)
	}
	return nil
}

// ProfileStore persists nutrition profiles keyed by user id
type ProfileStore struct {
	db *gorm.DB
}

// NewProfileStore creates a new ProfileStore instance
func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get loads the stored profile of userID
func (s *ProfileStore) Get(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	var rec models.NutritionProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "profile", ID: userID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	profile := rec.ToDomain()
	return &profile, nil
}

// Upsert validates and stores the profile of userID, replacing any previous one
func (s *ProfileStore) Upsert(ctx context.Context, userID uuid.UUID, profile types.UserProfile) error {
	if err := ValidateProfile("update_profile", profile); err != nil {
		return err
	}
	rec := models.NewNutritionProfile(userID, profile)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"age", "sex", "height_cm", "weight_kg", "activity_level", "goal",
			"dietary_restrictions", "allergies", "cuisine_types", "disliked_foods",
			"complexity_level", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
