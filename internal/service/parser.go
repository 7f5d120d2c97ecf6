package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pageza/mealplanner/backend/internal/types"
)

// StripCodeFence removes a leading ``` (optionally tagged, e.g. ```json) line
// and a trailing ``` delimiter when present. A fence on a single line loses
// its tag too.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		})
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse decodes model text into a generic JSON value
func ParseResponse(op, text string) (any, error) {
	body := StripCodeFence(text)
	if body == "" {
		return nil, &ParseError{Op: op, Cause: errors.New("empty response")}
	}
	var out any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &ParseError{Op: op, Cause: err}
	}
	return out, nil
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNonEmptyString
	kindNumber
	kindInteger
	kindStringList
	kindObjectList
)

type field struct {
	name     string
	kind     fieldKind
	elem     shape
	optional bool

	// allowBlank accepts empty lists and blank elements; they are dropped later
	allowBlank bool
}

// shape is the expected layout of a JSON object
type shape []field

var (
	mealShape = shape{
		{name: "name", kind: kindNonEmptyString},
		{name: "description", kind: kindString},
		{name: "ingredients", kind: kindStringList},
		{name: "calories", kind: kindNumber},
		{name: "prepTime", kind: kindNumber},
	}

	planMealShape = append(shape{
		{name: "day", kind: kindInteger},
		{name: "type", kind: kindNonEmptyString},
	}, mealShape...)

	categoryShape = shape{
		{name: "name", kind: kindNonEmptyString},
		{name: "icon", kind: kindString},
		{name: "items", kind: kindStringList, allowBlank: true},
	}

	planShape = shape{
		{name: "title", kind: kindNonEmptyString},
		{name: "meals", kind: kindObjectList, elem: planMealShape},
		{name: "shoppingList", kind: kindObjectList, elem: categoryShape, optional: true},
	}

	actionShape = shape{
		{name: "action", kind: kindNonEmptyString},
		{name: "reason", kind: kindString, optional: true},
		{name: "mealId", kind: kindString, optional: true},
		{name: "mealType", kind: kindString, optional: true},
		{name: "day", kind: kindInteger, optional: true},
		{name: "requirements", kind: kindString, optional: true},
	}
)

func (s shape) check(path string, obj map[string]any, errs *[]FieldError) {
	for _, f := range s {
		name := f.name
		if path != "" {
			name = path + "." + f.name
		}
		v, ok := obj[f.name]
		if !ok || v == nil {
			if !f.optional {
				*errs = append(*errs, FieldError{Field: name, Message: "is required"})
			}
			continue
		}
		f.checkValue(name, v, errs)
	}
}

func (f field) checkValue(name string, v any, errs *[]FieldError) {
	switch f.kind {
	case kindString, kindNonEmptyString:
		s, ok := v.(string)
		if !ok {
			*errs = append(*errs, FieldError{Field: name, Message: "must be a string"})
			return
		}
		if f.kind == kindNonEmptyString && strings.TrimSpace(s) == "" {
			*errs = append(*errs, FieldError{Field: name, Message: "must not be empty"})
		}
	case kindNumber:
		n, ok := v.(float64)
		if !ok {
			*errs = append(*errs, FieldError{Field: name, Message: "must be a number"})
			return
		}
		if n < 0 {
			*errs = append(*errs, FieldError{Field: name, Message: "must not be negative"})
		}
	case kindInteger:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			*errs = append(*errs, FieldError{Field: name, Message: "must be an integer"})
		}
	case kindStringList:
		list, ok := v.([]any)
		if !ok {
			*errs = append(*errs, FieldError{Field: name, Message: "must be an array of strings"})
			return
		}
		if len(list) == 0 && !f.allowBlank {
			*errs = append(*errs, FieldError{Field: name, Message: "must not be empty"})
		}
		for i, item := range list {
			s, ok := item.(string)
			if !ok || (!f.allowBlank && strings.TrimSpace(s) == "") {
				*errs = append(*errs, FieldError{Field: fmt.Sprintf("%s[%d]", name, i), Message: "must be a non-empty string"})
			}
		}
	case kindObjectList:
		list, ok := v.([]any)
		if !ok {
			*errs = append(*errs, FieldError{Field: name, Message: "must be an array of objects"})
			return
		}
		for i, item := range list {
			elemPath := fmt.Sprintf("%s[%d]", name, i)
			obj, ok := item.(map[string]any)
			if !ok {
				*errs = append(*errs, FieldError{Field: elemPath, Message: "must be an object"})
				continue
			}
			f.elem.check(elemPath, obj, errs)
		}
	}
}

// validateShape checks v against s and, on success, decodes it into out
func validateShape(op string, v any, s shape, out any) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return &ValidationError{Op: op, Fields: []FieldError{{Field: "$", Message: "must be an object"}}}
	}
	var errs []FieldError
	s.check("", obj, &errs)
	if len(errs) > 0 {
		return &ValidationError{Op: op, Fields: errs}
	}
	return remarshal(op, obj, out)
}

func remarshal(op string, v any, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &ParseError{Op: op, Cause: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ParseError{Op: op, Cause: err}
	}
	return nil
}

// MealPayload is a validated meal as produced by the model
type MealPayload struct {
	Day         int      `json:"day"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Calories    float64  `json:"calories"`
	PrepTime    float64  `json:"prepTime"`
}

// CategoryPayload is a validated shopping category as produced by the model
type CategoryPayload struct {
	Name  string   `json:"name"`
	Icon  string   `json:"icon"`
	Items []string `json:"items"`
}

// PlanPayload is a validated plan as produced by the model
type PlanPayload struct {
	Title        string            `json:"title"`
	Meals        []MealPayload     `json:"meals"`
	ShoppingList []CategoryPayload `json:"shoppingList"`
}

// ValidatePlanPayload checks the plan shape and that the meals cover every
// day/type slot exactly once.
func ValidatePlanPayload(op string, v any) (*PlanPayload, error) {
	var plan PlanPayload
	if err := validateShape(op, v, planShape, &plan); err != nil {
		return nil, err
	}

	var errs []FieldError
	want := types.PlanDurationDays * types.MealsPerDay
	if len(plan.Meals) != want {
		errs = append(errs, FieldError{Field: "meals", Message: fmt.Sprintf("must contain exactly %d meals, got %d", want, len(plan.Meals))})
	}
	seen := make(map[string]int, len(plan.Meals))
	for i, m := range plan.Meals {
		mt := types.MealType(strings.ToLower(strings.TrimSpace(m.Type)))
		if !mt.Valid() {
			errs = append(errs, FieldError{Field: fmt.Sprintf("meals[%d].type", i), Message: "must be breakfast, lunch or dinner"})
		}
		if m.Day < 1 || m.Day > types.PlanDurationDays {
			errs = append(errs, FieldError{Field: fmt.Sprintf("meals[%d].day", i), Message: fmt.Sprintf("must be between 1 and %d", types.PlanDurationDays)})
		}
		slot := fmt.Sprintf("%d/%s", m.Day, mt)
		if prev, dup := seen[slot]; dup {
			errs = append(errs, FieldError{Field: fmt.Sprintf("meals[%d]", i), Message: fmt.Sprintf("duplicates slot of meals[%d]", prev)})
		}
		seen[slot] = i
		plan.Meals[i].Type = string(mt)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Op: op, Fields: errs}
	}
	return &plan, nil
}

// ValidateMealPayload checks a single-meal replacement payload
func ValidateMealPayload(op string, v any) (*MealPayload, error) {
	var meal MealPayload
	if err := validateShape(op, v, mealShape, &meal); err != nil {
		return nil, err
	}
	return &meal, nil
}

// ValidateShoppingListPayload accepts either a bare array of categories or an
// object whose shoppingList field holds that array.
func ValidateShoppingListPayload(op string, v any) ([]CategoryPayload, error) {
	if obj, ok := v.(map[string]any); ok {
		inner, found := obj["shoppingList"]
		if !found {
			return nil, &ValidationError{Op: op, Fields: []FieldError{{Field: "shoppingList", Message: "is required"}}}
		}
		v = inner
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Op: op, Fields: []FieldError{{Field: "shoppingList", Message: "must be an array of objects"}}}
	}

	var errs []FieldError
	field{name: "shoppingList", kind: kindObjectList, elem: categoryShape}.checkValue("shoppingList", list, &errs)
	if len(errs) > 0 {
		return nil, &ValidationError{Op: op, Fields: errs}
	}
	var out []CategoryPayload
	if err := remarshal(op, list, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateActionPayload checks a classifier decision
func ValidateActionPayload(op string, v any) (*types.ModificationAction, error) {
	var raw struct {
		Action       string `json:"action"`
		Reason       string `json:"reason"`
		MealID       string `json:"mealId"`
		MealType     string `json:"mealType"`
		Day          int    `json:"day"`
		Requirements string `json:"requirements"`
	}
	if err := validateShape(op, v, actionShape, &raw); err != nil {
		return nil, err
	}

	action := &types.ModificationAction{
		Type:         types.ActionType(strings.ToLower(strings.TrimSpace(raw.Action))),
		MealID:       strings.TrimSpace(raw.MealID),
		MealType:     types.MealType(strings.ToLower(strings.TrimSpace(raw.MealType))),
		Day:          raw.Day,
		Reason:       strings.TrimSpace(raw.Reason),
		Requirements: strings.TrimSpace(raw.Requirements),
	}

	var errs []FieldError
	if !action.Type.Valid() {
		errs = append(errs, FieldError{Field: "action", Message: "must be one of regenerate_meal, modify_meal, regenerate_plan, no_action"})
	}
	if action.MealType != "" && !action.MealType.Valid() {
		errs = append(errs, FieldError{Field: "mealType", Message: "must be breakfast, lunch or dinner"})
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Op: op, Fields: errs}
	}
	return action, nil
}
