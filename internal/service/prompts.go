package service

import (
	"fmt"
	"strings"

	"github.com/pageza/mealplanner/backend/internal/types"
)

// MealPromptMode selects between a fresh swap and a targeted edit
type MealPromptMode string

const (
	MealPromptRegenerate MealPromptMode = "regenerate"
	MealPromptModify     MealPromptMode = "modify"
)

// MealPromptInput carries everything needed to render a single-meal prompt
type MealPromptInput struct {
	Mode           MealPromptMode
	Meal           types.Meal
	Profile        types.UserProfile
	TargetCalories int
	Context        string
	Requirements   string
	AssistantReply string
	OtherMeals     []string
}

func writeProfile(b *strings.Builder, p types.UserProfile) {
	b.WriteString("USER PROFILE:\n")
	fmt.Fprintf(b, "- Age: %d years\n", p.Age)
	fmt.Fprintf(b, "- Sex: %s\n", p.Sex)
	fmt.Fprintf(b, "- Height: %.0f cm\n", p.HeightCm)
	fmt.Fprintf(b, "- Weight: %.1f kg\n", p.WeightKg)
	fmt.Fprintf(b, "- Activity Level: %s\n", strings.ReplaceAll(string(p.ActivityLevel), "_", " "))
	fmt.Fprintf(b, "- Goal: %s\n", strings.ReplaceAll(string(p.Goal), "_", " "))
	b.WriteString("\n")
}

func writeConstraints(b *strings.Builder, p types.UserProfile) {
	b.WriteString("CONSTRAINTS:\n")
	if len(p.DietaryRestrictions) > 0 {
		fmt.Fprintf(b, "- Dietary restrictions (MUST follow): %s\n", strings.Join(p.DietaryRestrictions, ", "))
	}
	if len(p.Allergies) > 0 {
		fmt.Fprintf(b, "- Allergies (NEVER include, including traces and derivatives): %s\n", strings.Join(p.Allergies, ", "))
	}
	if len(p.Preferences.DislikedFoods) > 0 {
		fmt.Fprintf(b, "- Disliked foods (avoid): %s\n", strings.Join(p.Preferences.DislikedFoods, ", "))
	}
	if len(p.Preferences.CuisineTypes) > 0 {
		fmt.Fprintf(b, "- Preferred cuisines: %s\n", strings.Join(p.Preferences.CuisineTypes, ", "))
	}
	switch p.Preferences.ComplexityLevel {
	case types.ComplexitySimple:
		b.WriteString("- Cooking complexity: simple, few ingredients, prep time 20 minutes or less\n")
	case types.ComplexityComplex:
		b.WriteString("- Cooking complexity: ambitious recipes are welcome, prep time up to 90 minutes\n")
	default:
		b.WriteString("- Cooking complexity: moderate, prep time 45 minutes or less\n")
	}
	b.WriteString("- Every ingredient must be written as quantity + unit + name, e.g. \"200 g chicken breast\"\n")
	b.WriteString("\n")
}

func writeCategoryNames(b *strings.Builder) {
	names := make([]string, 0, len(shoppingCategories))
	for _, c := range shoppingCategories {
		names = append(names, fmt.Sprintf("%q (%s)", c.Name, c.Icon))
	}
	fmt.Fprintf(b, "Use ONLY these categories, in this order: %s.\n", strings.Join(names, ", "))
	b.WriteString("Omit any category that would have no items.\n")
}

// BuildPlanPrompt renders the full 3-day, 9-meal generation request
func BuildPlanPrompt(profile types.UserProfile) string {
	daily := DailyCalorieTarget(profile)
	perMeal := PerMealCalorieTarget(profile)
	macros := MacroTargets(daily)

	var b strings.Builder
	b.WriteString("Create a personalized meal plan based on the user's requirements.\n\n")
	writeProfile(&b, profile)

	b.WriteString("MACRO TARGETS:\n")
	fmt.Fprintf(&b, "- Daily Calories: %d kcal\n", daily)
	fmt.Fprintf(&b, "- Daily Protein: %dg\n", macros.Protein)
	fmt.Fprintf(&b, "- Daily Carbs: %dg\n", macros.Carbs)
	fmt.Fprintf(&b, "- Daily Fat: %dg\n", macros.Fat)
	fmt.Fprintf(&b, "- Per-Meal Calories: about %d kcal\n\n", perMeal)

	writeConstraints(&b, profile)

	b.WriteString("TASK:\n")
	fmt.Fprintf(&b, "Plan %d days with exactly %d meals per day (breakfast, lunch, dinner), %d meals in total.\n",
		types.PlanDurationDays, types.MealsPerDay, types.PlanDurationDays*types.MealsPerDay)
	b.WriteString("Every day/meal-type combination must appear exactly once. Vary the meals across days.\n")
	b.WriteString("Then build a shopping list that covers EVERY ingredient of EVERY meal, merging duplicates and summing quantities.\n")
	writeCategoryNames(&b)
	b.WriteString("\n")

	b.WriteString("Respond with JSON only, no commentary, in exactly this structure:\n")
	b.WriteString("{\n")
	b.WriteString("  \"title\": \"Short plan title\",\n")
	b.WriteString("  \"meals\": [\n")
	b.WriteString("    {\n")
	b.WriteString("      \"day\": 1,\n")
	b.WriteString("      \"type\": \"breakfast\",\n")
	b.WriteString("      \"name\": \"Meal name\",\n")
	b.WriteString("      \"description\": \"One or two sentences\",\n")
	b.WriteString("      \"ingredients\": [\"2 large eggs\", \"1 cup spinach\"],\n")
	fmt.Fprintf(&b, "      \"calories\": %d,\n", perMeal)
	b.WriteString("      \"prepTime\": 15\n")
	b.WriteString("    }\n")
	b.WriteString("  ],\n")
	b.WriteString("  \"shoppingList\": [\n")
	for i, c := range shoppingCategories {
		sep := ","
		if i == len(shoppingCategories)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    {\"name\": %q, \"icon\": %q, \"items\": [\"...\"]}%s\n", c.Name, c.Icon, sep)
	}
	b.WriteString("  ]\n")
	b.WriteString("}\n")
	b.WriteString("calories and prepTime (minutes) must be numbers, not strings. day must be 1, 2 or 3.\n")
	return b.String()
}

// BuildMealPrompt renders a single-meal replacement request. When an assistant
// reply is supplied its literal text is embedded and marked mandatory.
func BuildMealPrompt(in MealPromptInput) string {
	var b strings.Builder
	switch in.Mode {
	case MealPromptModify:
		fmt.Fprintf(&b, "Modify the %s for day %d of an existing meal plan according to the user's requirements.\n\n", in.Meal.Type, in.Meal.Day)
	default:
		fmt.Fprintf(&b, "Replace the %s for day %d of an existing meal plan with a DIFFERENT %s.\n\n", in.Meal.Type, in.Meal.Day, in.Meal.Type)
	}

	b.WriteString("CURRENT MEAL:\n")
	fmt.Fprintf(&b, "- Name: %s\n", in.Meal.Name)
	fmt.Fprintf(&b, "- Description: %s\n", in.Meal.Description)
	fmt.Fprintf(&b, "- Calories: %d\n", in.Meal.Calories)
	fmt.Fprintf(&b, "- Prep time: %d minutes\n", in.Meal.PrepTime)
	b.WriteString("- Ingredients:\n")
	for _, ing := range in.Meal.Ingredients {
		fmt.Fprintf(&b, "  - %s\n", ing)
	}
	b.WriteString("\n")

	writeProfile(&b, in.Profile)
	writeConstraints(&b, in.Profile)

	fmt.Fprintf(&b, "TARGET CALORIES FOR THIS MEAL: %d kcal\n\n", in.TargetCalories)

	if len(in.OtherMeals) > 0 {
		fmt.Fprintf(&b, "Other meals already in the plan (do not duplicate them): %s\n\n", strings.Join(in.OtherMeals, "; "))
	}

	if in.Mode == MealPromptModify && in.Requirements != "" {
		fmt.Fprintf(&b, "MODIFICATION REQUIREMENTS:\n%s\n\n", in.Requirements)
	}
	if in.Context != "" {
		fmt.Fprintf(&b, "ADDITIONAL CONTEXT:\n%s\n\n", in.Context)
	}
	if in.AssistantReply != "" {
		b.WriteString("MANDATORY - the assistant already promised the user the following changes. The new meal MUST implement every change described here, including any calorie figures:\n")
		b.WriteString("<<<ASSISTANT REPLY\n")
		b.WriteString(in.AssistantReply)
		b.WriteString("\nASSISTANT REPLY>>>\n\n")
	}

	b.WriteString("Respond with JSON only, no commentary, in exactly this structure:\n")
	b.WriteString("{\n")
	b.WriteString("  \"name\": \"Meal name\",\n")
	b.WriteString("  \"description\": \"One or two sentences\",\n")
	b.WriteString("  \"ingredients\": [\"quantity unit name\"],\n")
	fmt.Fprintf(&b, "  \"calories\": %d,\n", in.TargetCalories)
	b.WriteString("  \"prepTime\": 20\n")
	b.WriteString("}\n")
	return b.String()
}

// BuildConsolidationPrompt renders the shopping-list consolidation request
func BuildConsolidationPrompt(ingredients []string, uniqueCount int, profile types.UserProfile) string {
	var b strings.Builder
	b.WriteString("Consolidate the ingredients of a meal plan into a categorized shopping list.\n\n")

	fmt.Fprintf(&b, "INGREDIENTS (%d entries, %d distinct):\n", len(ingredients), uniqueCount)
	for _, ing := range ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}
	b.WriteString("\n")

	if len(profile.Allergies) > 0 {
		fmt.Fprintf(&b, "Note: the user is allergic to %s. Keep ingredients as listed; do not substitute.\n\n", strings.Join(profile.Allergies, ", "))
	}

	b.WriteString("RULES:\n")
	b.WriteString("1. Merge duplicate ingredients and add up their quantities. Convert to a common unit when units differ.\n")
	b.WriteString("2. Keep distinct ingredients separate (e.g. \"red onion\" and \"yellow onion\").\n")
	fmt.Fprintf(&b, "3. Every one of the %d distinct ingredients must appear in the list. Count before answering.\n", uniqueCount)
	b.WriteString("4. Write each item as quantity + unit + name.\n")
	b.WriteString("5. ")
	writeCategoryNames(&b)
	b.WriteString("\n")

	b.WriteString("EXAMPLES:\n")
	b.WriteString("- \"2 cloves garlic\" + \"3 cloves garlic, minced\" -> \"5 cloves garlic\"\n")
	b.WriteString("- \"1 cup milk\" + \"250 ml milk\" -> \"2 cups milk\"\n")
	b.WriteString("- \"1 tbsp olive oil\" + \"2 tsp olive oil\" + \"1 tbsp olive oil\" -> \"2 tbsp + 2 tsp olive oil\"\n")
	b.WriteString("- \"150 g chicken breast\" + \"200 g chicken breast\" -> \"350 g chicken breast\"\n")
	b.WriteString("- \"1 banana\" + \"2 bananas, sliced\" -> \"3 bananas\"\n\n")

	b.WriteString("Respond with JSON only, no commentary, in exactly this structure:\n")
	b.WriteString("{\"shoppingList\": [{\"name\": \"Produce\", \"icon\": \"🥬\", \"items\": [\"5 cloves garlic\"]}]}\n")
	return b.String()
}

func writePlanContext(b *strings.Builder, plan types.MealPlan) {
	fmt.Fprintf(b, "CURRENT MEAL PLAN: %s\n", plan.Title)
	for _, m := range plan.Meals {
		fmt.Fprintf(b, "- id=%s | day %d | %s | %s | %d kcal | %s\n",
			m.ID, m.Day, m.Type, m.Name, m.Calories, strings.Join(m.Ingredients, ", "))
	}
	b.WriteString("\n")
}

// BuildClassifierPrompt renders the intent classification request
func BuildClassifierPrompt(message string, plan types.MealPlan, assistantReply string) string {
	var b strings.Builder
	b.WriteString("Classify the user's chat message about their meal plan into exactly one action.\n\n")
	writePlanContext(&b, plan)

	fmt.Fprintf(&b, "USER MESSAGE:\n%s\n\n", message)
	if assistantReply != "" {
		b.WriteString("ASSISTANT REPLY ALREADY SENT TO THE USER (the action must carry out exactly what this reply promised):\n")
		fmt.Fprintf(&b, "%s\n\n", assistantReply)
	}

	b.WriteString("ACTIONS:\n")
	b.WriteString("- regenerate_meal: replace one meal with a different one (\"I don't like the lunch on day 2\").\n")
	b.WriteString("- modify_meal: change specific aspects of one meal (\"make dinner on day 1 vegetarian\", \"fewer calories at breakfast\").\n")
	b.WriteString("- regenerate_plan: start the whole plan over.\n")
	b.WriteString("- no_action: questions, thanks, general conversation, or anything that does not ask for a change.\n\n")
	b.WriteString("For regenerate_meal and modify_meal identify the meal with mealId (preferred) or with mealType and day.\n")
	b.WriteString("For modify_meal put the concrete changes in requirements.\n")
	b.WriteString("When unsure, choose no_action.\n\n")

	b.WriteString("Respond with JSON only, no commentary, in exactly this structure:\n")
	b.WriteString("{\"action\": \"no_action\", \"mealId\": null, \"mealType\": null, \"day\": null, \"reason\": \"why\", \"requirements\": null}\n")
	return b.String()
}

// BuildAssistantPrompt renders the conversational reply request for a chat turn
func BuildAssistantPrompt(message string, plan types.MealPlan, profile types.UserProfile) string {
	var b strings.Builder
	b.WriteString("You are chatting with a user about their meal plan.\n\n")
	writeProfile(&b, profile)
	writeConstraints(&b, profile)
	fmt.Fprintf(&b, "Daily calorie target: %d kcal (about %d kcal per meal).\n\n", DailyCalorieTarget(profile), PerMealCalorieTarget(profile))
	writePlanContext(&b, plan)
	fmt.Fprintf(&b, "USER MESSAGE:\n%s\n\n", message)
	b.WriteString("Reply in plain text, at most 120 words. If the user asks for a change, say precisely which meal (day and type) ")
	b.WriteString("you will change and how, including any calorie figure. Only promise changes to a single meal or a full plan regeneration. ")
	b.WriteString("If the user only asks a question, answer it without promising changes.\n")
	return b.String()
}
