package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// MealOptions carries the optional free text that steers a single-meal call
type MealOptions struct {
	// Context is free-text guidance such as the reason for a swap
	Context string
	// AssistantReply is the chat reply already shown to the user; its promises are binding
	AssistantReply string
	// OtherMeals names meals already in the plan so the model avoids repeats
	OtherMeals []string
}

// MealPlanGenerator runs the prompt, complete, parse, validate pipeline for plans and meals
type MealPlanGenerator struct {
	llm          Completer
	consolidator *Consolidator
	now          func() time.Time
}

// NewMealPlanGenerator creates a new MealPlanGenerator instance
func NewMealPlanGenerator(llm Completer, consolidator *Consolidator) *MealPlanGenerator {
	return &MealPlanGenerator{
		llm:          llm,
		consolidator: consolidator,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GeneratePlan requests a full plan with shopping list in one model call.
// When the embedded shopping list is missing or unusable it is rebuilt by the consolidator.
func (g *MealPlanGenerator) GeneratePlan(ctx context.Context, profile types.UserProfile, ownerID uuid.UUID) (*types.MealPlan, error) {
	const op = "generate_plan"
	if err := ValidateProfile(op, profile); err != nil {
		return nil, err
	}
	slog.Debug("Generating meal plan", "owner_id", ownerID, "target_calories", DailyCalorieTarget(profile))

	owner := ownerID.String()
	text, err := complete(ctx, g.llm, op, BuildPlanPrompt(profile), temperaturePlan, "owner_id", owner)
	if err != nil {
		return nil, err
	}
	v, err := ParseResponse(op, text)
	if err != nil {
		return nil, modelError(op, err, "owner_id", owner)
	}
	payload, err := ValidatePlanPayload(op, v)
	if err != nil {
		slog.Warn("Model returned an invalid plan", "owner_id", ownerID, "error", err)
		return nil, modelError(op, err, "owner_id", owner)
	}

	meals := make([]types.Meal, len(payload.Meals))
	for i, m := range payload.Meals {
		meals[i] = types.Meal{ID: uuid.New(), Day: m.Day, Type: types.MealType(m.Type)}
		applyMealPayload(&meals[i], m)
	}
	sortMeals(meals)

	list, err := g.planShoppingList(ctx, op, payload.ShoppingList, meals, profile)
	if err != nil {
		return nil, err
	}

	now := g.now()
	plan := &types.MealPlan{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(payload.Title),
		Duration:     types.PlanDurationDays,
		Meals:        meals,
		ShoppingList: list,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	slog.Info("Generated meal plan", "plan_id", plan.ID, "owner_id", ownerID, "meals", len(meals), "categories", len(list))
	return plan, nil
}

func (g *MealPlanGenerator) planShoppingList(ctx context.Context, op string, payload []CategoryPayload, meals []types.Meal, profile types.UserProfile) ([]types.ShoppingCategory, error) {
	if len(payload) > 0 {
		list, err := NormalizeShoppingList(op, payload)
		if err == nil {
			if err = g.consolidator.verify(op, meals, list); err == nil {
				return list, nil
			}
		}
		slog.Warn("Plan shopping list unusable, consolidating separately", "error", err)
	}
	return g.consolidator.Consolidate(ctx, meals, profile)
}

// RegenerateMeal asks for a different meal in the same slot. The returned meal
// keeps the input id, day and type; every content field is replaced.
func (g *MealPlanGenerator) RegenerateMeal(ctx context.Context, meal types.Meal, profile types.UserProfile, opts MealOptions) (types.Meal, error) {
	const op = "regenerate_meal"
	if err := ValidateProfile(op, profile); err != nil {
		return types.Meal{}, err
	}
	slog.Debug("Regenerating meal", "meal_id", meal.ID, "day", meal.Day, "type", meal.Type)

	prompt := BuildMealPrompt(MealPromptInput{
		Mode:           MealPromptRegenerate,
		Meal:           meal,
		Profile:        profile,
		TargetCalories: PerMealCalorieTarget(profile),
		Context:        opts.Context,
		AssistantReply: opts.AssistantReply,
		OtherMeals:     opts.OtherMeals,
	})
	return g.completeMeal(ctx, op, prompt, meal)
}

// ModifyMeal edits a meal according to requirements. The calorie target comes
// from the assistant reply or the requirements when either names one, else the
// per-meal target.
func (g *MealPlanGenerator) ModifyMeal(ctx context.Context, meal types.Meal, profile types.UserProfile, requirements string, opts MealOptions) (types.Meal, error) {
	const op = "modify_meal"
	if err := ValidateProfile(op, profile); err != nil {
		return types.Meal{}, err
	}

	ceiling := mealCalorieCeiling(profile, meal.Calories)
	target, ok := ExtractCalorieDirective(opts.AssistantReply, meal.Calories, ceiling)
	if !ok {
		target, ok = ExtractCalorieDirective(requirements, meal.Calories, ceiling)
	}
	if !ok {
		target = PerMealCalorieTarget(profile)
	}
	slog.Debug("Modifying meal", "meal_id", meal.ID, "target_calories", target, "directive", ok)

	prompt := BuildMealPrompt(MealPromptInput{
		Mode:           MealPromptModify,
		Meal:           meal,
		Profile:        profile,
		TargetCalories: target,
		Context:        opts.Context,
		Requirements:   requirements,
		AssistantReply: opts.AssistantReply,
		OtherMeals:     opts.OtherMeals,
	})
	return g.completeMeal(ctx, op, prompt, meal)
}

func (g *MealPlanGenerator) completeMeal(ctx context.Context, op, prompt string, meal types.Meal) (types.Meal, error) {
	id := meal.ID.String()
	text, err := complete(ctx, g.llm, op, prompt, temperatureMeal, "meal_id", id)
	if err != nil {
		return types.Meal{}, err
	}
	v, err := ParseResponse(op, text)
	if err != nil {
		return types.Meal{}, modelError(op, err, "meal_id", id)
	}
	payload, err := ValidateMealPayload(op, v)
	if err != nil {
		slog.Warn("Model returned an invalid meal", "meal_id", meal.ID, "error", err)
		return types.Meal{}, modelError(op, err, "meal_id", id)
	}

	out := types.Meal{ID: meal.ID, Day: meal.Day, Type: meal.Type}
	applyMealPayload(&out, *payload)
	slog.Info("Replaced meal content", "op", op, "meal_id", out.ID, "name", out.Name, "calories", out.Calories)
	return out, nil
}

// applyMealPayload copies content fields only; identity fields stay untouched
func applyMealPayload(dst *types.Meal, p MealPayload) {
	dst.Name = strings.TrimSpace(p.Name)
	dst.Description = strings.TrimSpace(p.Description)
	dst.Ingredients = make([]string, 0, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		dst.Ingredients = append(dst.Ingredients, strings.TrimSpace(ing))
	}
	dst.Calories = int(math.Round(p.Calories))
	dst.PrepTime = int(math.Round(p.PrepTime))
}

func mealTypeOrder(t types.MealType) int {
	for i, mt := range types.MealTypes {
		if mt == t {
			return i
		}
	}
	return len(types.MealTypes)
}

func sortMeals(meals []types.Meal) {
	sort.SliceStable(meals, func(i, j int) bool {
		if meals[i].Day != meals[j].Day {
			return meals[i].Day < meals[j].Day
		}
		return mealTypeOrder(meals[i].Type) < mealTypeOrder(meals[j].Type)
	})
}

const (
	minMealCalories = 100
	maxMealCalories = 3000
)

var (
	calorieTargetRe = regexp.MustCompile(`(?i)\b(?:to|around|about|approximately|roughly|under|below|at most|no more than|target of)\s*~?(\d{2,4})\s*(?:kcal|calories|cals?)\b`)
	toWordRe        = regexp.MustCompile(`(?i)\bto\b`)
	// a figure followed by one of these describes the whole day, not the meal
	dailyFigureRe = regexp.MustCompile(`(?i)^[^.!?\d]{0,25}?\b(?:per day|a day|each day|for the day|daily|for today|in total)\b`)
)

type calorieDelta struct {
	re   *regexp.Regexp
	sign int
}

var calorieDeltas = []calorieDelta{
	{re: regexp.MustCompile(`(?i)\b(?:cut|cutting|reduce|reducing|lower|lowering|decrease|decreasing|trim|trimming|drop|dropping|remove|removing|shave|shaving|save|saving)\b[^.\d]{0,30}?(\d{2,4})\s*(?:kcal|calories|cals?)\b`), sign: -1},
	{re: regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:kcal|calories|cals?)\s+(?:less|fewer|lighter)\b`), sign: -1},
	{re: regexp.MustCompile(`(?i)\b(?:add|adding|increase|increasing|boost|boosting|raise|raising|bump|bumping)\b[^.\d]{0,30}?(\d{2,4})\s*(?:kcal|calories|cals?)\b`), sign: 1},
	{re: regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:more|extra|additional)\s*(?:kcal|calories|cals?)\b`), sign: 1},
}

// mealCalorieCeiling bounds a directive to one and a half meals' worth of the
// profile's per-meal target, or the meal's current calories when higher.
func mealCalorieCeiling(profile types.UserProfile, current int) int {
	ceiling := PerMealCalorieTarget(profile) * 3 / 2
	if current > ceiling {
		ceiling = current
	}
	if ceiling <= 0 || ceiling > maxMealCalories {
		ceiling = maxMealCalories
	}
	return ceiling
}

// ExtractCalorieDirective finds a calorie delta ("cut 200 calories") or target
// ("around 450 calories") in free text and resolves it against current. A
// change verb followed by "to" ("lower it to 450 calories") is a target.
// Figures qualified as daily totals are skipped, and results outside
// [minMealCalories, ceiling] are ignored. A ceiling of zero means maxMealCalories.
func ExtractCalorieDirective(text string, current, ceiling int) (int, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	if ceiling <= 0 || ceiling > maxMealCalories {
		ceiling = maxMealCalories
	}

	for _, d := range calorieDeltas {
		for _, m := range d.re.FindAllStringSubmatchIndex(text, -1) {
			if dailyFigureRe.MatchString(text[m[1]:]) {
				continue
			}
			n, err := strconv.Atoi(text[m[2]:m[3]])
			if err != nil {
				continue
			}
			if toWordRe.MatchString(text[m[0]:m[2]]) {
				return plausibleCalories(n, ceiling)
			}
			return plausibleCalories(current+d.sign*n, ceiling)
		}
	}

	for _, m := range calorieTargetRe.FindAllStringSubmatchIndex(text, -1) {
		if dailyFigureRe.MatchString(text[m[1]:]) {
			continue
		}
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		return plausibleCalories(n, ceiling)
	}
	return 0, false
}

func plausibleCalories(n, ceiling int) (int, bool) {
	if n < minMealCalories || n > ceiling {
		return 0, false
	}
	return n, true
}

// otherMealNames lists the names of every meal except skip
func otherMealNames(plan types.MealPlan, skip uuid.UUID) []string {
	names := make([]string, 0, len(plan.Meals))
	for _, m := range plan.Meals {
		if m.ID != skip {
			names = append(names, fmt.Sprintf("%s (day %d %s)", m.Name, m.Day, m.Type))
		}
	}
	return names
}
