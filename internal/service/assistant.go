package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pageza/mealplanner/backend/internal/types"
)

// Assistant writes the conversational side of a chat turn
type Assistant struct {
	llm Completer
}

// NewAssistant creates a new Assistant instance
func NewAssistant(llm Completer) *Assistant {
	return &Assistant{llm: llm}
}

// Reply answers the user in plain text. The reply is later handed to the
// coordinator so the applied change matches what was promised here.
func (a *Assistant) Reply(ctx context.Context, message string, plan types.MealPlan, profile types.UserProfile) (string, error) {
	const op = "assistant_reply"
	text, err := complete(ctx, a.llm, op, BuildAssistantPrompt(message, plan, profile), temperatureAssistant, "plan_id", plan.ID.String())
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(StripCodeFence(text))
	slog.Info("Generated chat reply", "plan_id", plan.ID, "chars", len(reply))
	return reply, nil
}
