package types

// ActionType is the bounded vocabulary a chat message is classified into
type ActionType string

const (
	ActionRegenerateMeal ActionType = "regenerate_meal"
	ActionModifyMeal     ActionType = "modify_meal"
	ActionRegeneratePlan ActionType = "regenerate_plan"
	ActionNone           ActionType = "no_action"
)

// Valid reports whether a is part of the action vocabulary
func (a ActionType) Valid() bool {
	switch a {
	case ActionRegenerateMeal, ActionModifyMeal, ActionRegeneratePlan, ActionNone:
		return true
	}
	return false
}

// TargetsMeal reports whether the action operates on a single meal
func (a ActionType) TargetsMeal() bool {
	return a == ActionRegenerateMeal || a == ActionModifyMeal
}

// ModificationAction is the classifier's decision for one chat turn.
// MealID takes precedence over the (MealType, Day) locator when both are set.
type ModificationAction struct {
	Type         ActionType `json:"action"`
	MealID       string     `json:"meal_id,omitempty"`
	MealType     MealType   `json:"meal_type,omitempty"`
	Day          int        `json:"day,omitempty"`
	Reason       string     `json:"reason"`
	Requirements string     `json:"requirements,omitempty"`
}

// ModificationResult is what one chat turn hands back for persistence
type ModificationResult struct {
	Action       ModificationAction `json:"action"`
	MutatedMeal  *Meal              `json:"mutated_meal,omitempty"`
	ShoppingList []ShoppingCategory `json:"shopping_list,omitempty"`
	Plan         *MealPlan          `json:"plan,omitempty"`
	Unresolved   bool               `json:"unresolved,omitempty"`
}

// Mutated reports whether the turn changed plan content
func (r *ModificationResult) Mutated() bool {
	return r.MutatedMeal != nil || r.Plan != nil
}
