package types

// GeneratePlanRequest is the body of a plan generation call.
// Profile, when set, replaces the stored profile for this call only.
type GeneratePlanRequest struct {
	Profile     *UserProfile      `json:"profile,omitempty"`
	Preferences *PreferencesPatch `json:"preferences,omitempty"`
}

// RegenerateMealRequest carries optional free-text context for a meal swap
type RegenerateMealRequest struct {
	Context string `json:"context" binding:"max=1000"`
}

// ChatRequest is one modification turn
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// ChatResponse is returned for a modification turn
type ChatResponse struct {
	Reply        string             `json:"reply"`
	Action       ModificationAction `json:"action"`
	MutatedMeal  *Meal              `json:"mutated_meal,omitempty"`
	ShoppingList []ShoppingCategory `json:"shopping_list,omitempty"`
	Plan         *MealPlan          `json:"plan,omitempty"`
}
