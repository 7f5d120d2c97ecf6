package service

import (
	"context"
	"log/slog"

	"github.com/pageza/mealplanner/backend/internal/types"
)

// IntentClassifier maps a chat message onto the bounded action vocabulary
type IntentClassifier struct {
	llm Completer
}

// NewIntentClassifier creates a new IntentClassifier instance
func NewIntentClassifier(llm Completer) *IntentClassifier {
	return &IntentClassifier{llm: llm}
}

// Classify returns exactly one action for message. A failed model call is a
// ModelError; an unreadable decision falls back to no_action so that a confused
// classifier never mutates the plan.
func (c *IntentClassifier) Classify(ctx context.Context, message string, plan types.MealPlan, assistantReply string) (*types.ModificationAction, error) {
	const op = "classify"
	planID := plan.ID.String()

	text, err := complete(ctx, c.llm, op, BuildClassifierPrompt(message, plan, assistantReply), temperatureClassify, "plan_id", planID)
	if err != nil {
		return nil, err
	}

	v, err := ParseResponse(op, text)
	if err == nil {
		var action *types.ModificationAction
		if action, err = ValidateActionPayload(op, v); err == nil {
			slog.Debug("Classified chat message", "plan_id", plan.ID, "action", action.Type, "meal_id", action.MealID,
				"meal_type", action.MealType, "day", action.Day)
			return action, nil
		}
	}

	slog.Warn("Unreadable classifier decision, defaulting to no_action", "plan_id", plan.ID, "error", err)
	return &types.ModificationAction{Type: types.ActionNone, Reason: "classifier response could not be interpreted"}, nil
}
