package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// ModificationPhase is a step of one chat turn
type ModificationPhase string

const (
	PhaseClassifying     ModificationPhase = "classifying"
	PhaseResolving       ModificationPhase = "resolving"
	PhaseMutating        ModificationPhase = "mutating"
	PhaseReconsolidating ModificationPhase = "reconsolidating"
	PhaseDone            ModificationPhase = "done"
)

// ModificationCoordinator turns a chat message into at most one plan mutation.
// It keeps no state between turns; everything is rebuilt from the message and
// the supplied plan snapshot.
type ModificationCoordinator struct {
	classifier   *IntentClassifier
	generator    *MealPlanGenerator
	consolidator *Consolidator
}

// NewModificationCoordinator creates a new ModificationCoordinator instance
func NewModificationCoordinator(classifier *IntentClassifier, generator *MealPlanGenerator, consolidator *Consolidator) *ModificationCoordinator {
	return &ModificationCoordinator{
		classifier:   classifier,
		generator:    generator,
		consolidator: consolidator,
	}
}

// ClassifyAndApply classifies message, resolves the target meal, applies the
// mutation to a copy of plan and recomputes the shopping list over every meal.
// The input plan is never modified.
func (c *ModificationCoordinator) ClassifyAndApply(ctx context.Context, message string, plan types.MealPlan, profile types.UserProfile, assistantReply string) (*types.ModificationResult, error) {
	log := slog.With("plan_id", plan.ID)

	log.Debug("Modification turn", "phase", PhaseClassifying)
	action, err := c.classifier.Classify(ctx, message, plan, assistantReply)
	if err != nil {
		return nil, err
	}
	result := &types.ModificationResult{Action: *action}

	switch action.Type {
	case types.ActionNone:
		observeAction(action.Type, "applied")
		log.Info("Modification turn", "phase", PhaseDone, "action", action.Type)
		return result, nil

	case types.ActionRegeneratePlan:
		log.Debug("Modification turn", "phase", PhaseMutating, "action", action.Type)
		fresh, err := c.generator.GeneratePlan(ctx, profile, plan.OwnerID)
		if err != nil {
			observeAction(action.Type, "failed")
			return nil, err
		}
		fresh.ID = plan.ID
		fresh.OwnerID = plan.OwnerID
		fresh.CreatedAt = plan.CreatedAt
		result.Plan = fresh
		result.ShoppingList = fresh.ShoppingList
		observeAction(action.Type, "applied")
		log.Info("Modification turn", "phase", PhaseDone, "action", action.Type)
		return result, nil
	}

	log.Debug("Modification turn", "phase", PhaseResolving, "action", action.Type)
	target, ok := ResolveTargetMeal(plan, *action)
	if !ok {
		result.Unresolved = true
		observeAction(action.Type, "unresolved")
		log.Warn("Modification target not found, ignoring action", "action", action.Type,
			"meal_id", action.MealID, "meal_type", action.MealType, "day", action.Day)
		return result, nil
	}

	log.Debug("Modification turn", "phase", PhaseMutating, "action", action.Type, "meal_id", target.ID)
	opts := MealOptions{
		Context:        action.Reason,
		AssistantReply: assistantReply,
	}
	requirements := ""
	if action.Type == types.ActionModifyMeal {
		requirements = action.Requirements
	}
	mutated, list, err := c.replaceMeal(ctx, plan, target, profile, requirements, opts)
	if err != nil {
		observeAction(action.Type, "failed")
		return nil, err
	}

	result.MutatedMeal = &mutated
	result.ShoppingList = list
	observeAction(action.Type, "applied")
	log.Info("Modification turn", "phase", PhaseDone, "action", action.Type, "meal_id", mutated.ID)
	return result, nil
}

// RegenerateMealInPlan swaps the meal with mealID for a new one and recomputes
// the shopping list, without going through the classifier.
func (c *ModificationCoordinator) RegenerateMealInPlan(ctx context.Context, plan types.MealPlan, mealID uuid.UUID, profile types.UserProfile, guidance string) (*types.ModificationResult, error) {
	target, ok := plan.FindMeal(mealID)
	if !ok {
		return nil, &NotFoundError{Resource: "meal", ID: mealID.String()}
	}
	action := types.ModificationAction{
		Type:   types.ActionRegenerateMeal,
		MealID: mealID.String(),
		Reason: guidance,
	}

	mutated, list, err := c.replaceMeal(ctx, plan, target, profile, "", MealOptions{Context: guidance})
	if err != nil {
		observeAction(action.Type, "failed")
		return nil, err
	}
	observeAction(action.Type, "applied")
	slog.Info("Meal regenerated", "plan_id", plan.ID, "meal_id", mutated.ID)
	return &types.ModificationResult{Action: action, MutatedMeal: &mutated, ShoppingList: list}, nil
}

// replaceMeal modifies target when requirements are given and regenerates it
// otherwise, then consolidates the shopping list over the updated plan.
func (c *ModificationCoordinator) replaceMeal(ctx context.Context, plan types.MealPlan, target types.Meal, profile types.UserProfile, requirements string, opts MealOptions) (types.Meal, []types.ShoppingCategory, error) {
	opts.OtherMeals = otherMealNames(plan, target.ID)

	var (
		mutated types.Meal
		err     error
	)
	if requirements != "" {
		mutated, err = c.generator.ModifyMeal(ctx, target, profile, requirements, opts)
	} else {
		mutated, err = c.generator.RegenerateMeal(ctx, target, profile, opts)
	}
	if err != nil {
		return types.Meal{}, nil, err
	}

	updated := plan.Clone()
	updated.ReplaceMeal(mutated)

	slog.Debug("Modification turn", "plan_id", plan.ID, "phase", PhaseReconsolidating, "meal_id", mutated.ID)
	list, err := c.consolidator.Consolidate(ctx, updated.Meals, profile)
	if err != nil {
		return types.Meal{}, nil, err
	}
	return mutated, list, nil
}

// ResolveTargetMeal locates the meal an action points at. A parseable meal id
// that exists wins; otherwise the (type, day) locator is tried.
func ResolveTargetMeal(plan types.MealPlan, action types.ModificationAction) (types.Meal, bool) {
	if action.MealID != "" {
		if id, err := uuid.Parse(action.MealID); err == nil {
			if m, ok := plan.FindMeal(id); ok {
				return m, true
			}
		}
	}
	if action.MealType.Valid() && action.Day > 0 {
		return plan.FindMealBySlot(action.MealType, action.Day)
	}
	return types.Meal{}, false
}
