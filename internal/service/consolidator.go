package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/pageza/mealplanner/backend/internal/types"
)

type categorySpec struct {
	Name    string
	Icon    string
	aliases []string
}

// shoppingCategories is the fixed category set, in display order
var shoppingCategories = []categorySpec{
	{Name: "Produce", Icon: "🥬", aliases: []string{"fruits & vegetables", "fruit and vegetables", "vegetables", "fruits", "fresh produce"}},
	{Name: "Meat & Seafood", Icon: "🥩", aliases: []string{"meat/seafood", "meat", "seafood", "meat & fish", "protein", "proteins"}},
	{Name: "Dairy & Eggs", Icon: "🥚", aliases: []string{"dairy/eggs", "dairy", "eggs", "dairy & alternatives"}},
	{Name: "Pantry", Icon: "🥫", aliases: []string{"pantry staples", "dry goods", "grains", "canned goods", "grains & legumes"}},
	{Name: "Spices & Seasonings", Icon: "🧂", aliases: []string{"spices", "seasonings", "herbs & spices", "spices/seasonings"}},
	{Name: "Condiments & Oils", Icon: "🫒", aliases: []string{"condiments/oils", "condiments", "oils", "sauces", "oils & vinegars", "condiments & sauces"}},
	{Name: "Frozen", Icon: "❄️", aliases: []string{"frozen foods", "frozen goods"}},
	{Name: "Bakery", Icon: "🍞", aliases: []string{"bread", "breads", "bakery & bread"}},
}

var categoryIndex = buildCategoryIndex()

func categoryKey(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, "&", " and "))
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func buildCategoryIndex() map[string]int {
	idx := make(map[string]int)
	for i, c := range shoppingCategories {
		idx[categoryKey(c.Name)] = i
		for _, a := range c.aliases {
			idx[categoryKey(a)] = i
		}
	}
	return idx
}

// ShoppingCategoryNames returns the canonical category names in display order
func ShoppingCategoryNames() []string {
	names := make([]string, len(shoppingCategories))
	for i, c := range shoppingCategories {
		names[i] = c.Name
	}
	return names
}

// NormalizeShoppingList maps model categories onto the fixed set, merges
// repeated categories, drops blank items and empty categories, and returns the
// result in display order. Any category outside the fixed set is rejected.
func NormalizeShoppingList(op string, payload []CategoryPayload) ([]types.ShoppingCategory, error) {
	buckets := make([][]string, len(shoppingCategories))
	seen := make([]map[string]bool, len(shoppingCategories))

	var errs []FieldError
	for i, c := range payload {
		idx, ok := categoryIndex[categoryKey(c.Name)]
		if !ok {
			errs = append(errs, FieldError{Field: fmt.Sprintf("shoppingList[%d].name", i), Message: fmt.Sprintf("unknown category %q", c.Name)})
			continue
		}
		if seen[idx] == nil {
			seen[idx] = make(map[string]bool)
		}
		for _, item := range c.Items {
			item = strings.TrimSpace(item)
			key := strings.ToLower(item)
			if item == "" || seen[idx][key] {
				continue
			}
			seen[idx][key] = true
			buckets[idx] = append(buckets[idx], item)
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Op: op, Fields: errs}
	}

	out := make([]types.ShoppingCategory, 0, len(shoppingCategories))
	for i, items := range buckets {
		if len(items) == 0 {
			continue
		}
		out = append(out, types.ShoppingCategory{
			Name:  shoppingCategories[i].Name,
			Icon:  shoppingCategories[i].Icon,
			Items: items,
		})
	}
	return out, nil
}

// CoveragePolicy decides what happens when a consolidated list misses source ingredients
type CoveragePolicy string

const (
	CoverageWarn CoveragePolicy = "warn"
	CoverageFail CoveragePolicy = "fail"
)

// CoverageError lists source ingredients that no consolidated item accounts for
type CoverageError struct {
	Missing []string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("shopping list misses %d ingredients", len(e.Missing))
}

// Consolidator merges meal ingredients into a categorized shopping list
type Consolidator struct {
	llm    Completer
	policy CoveragePolicy
}

// NewConsolidator creates a new Consolidator instance
func NewConsolidator(llm Completer, policy CoveragePolicy) *Consolidator {
	if policy != CoverageFail {
		policy = CoverageWarn
	}
	return &Consolidator{llm: llm, policy: policy}
}

// Consolidate asks the model for a merged shopping list covering every ingredient of meals
func (c *Consolidator) Consolidate(ctx context.Context, meals []types.Meal, profile types.UserProfile) ([]types.ShoppingCategory, error) {
	const op = "consolidate"

	ingredients := flattenIngredients(meals)
	if len(ingredients) == 0 {
		return []types.ShoppingCategory{}, nil
	}
	unique := countDistinct(ingredients)
	slog.Debug("Consolidating shopping list", "ingredients", len(ingredients), "distinct", unique)

	text, err := complete(ctx, c.llm, op, BuildConsolidationPrompt(ingredients, unique, profile), temperatureConsolidate)
	if err != nil {
		return nil, err
	}

	v, err := ParseResponse(op, text)
	if err != nil {
		return nil, modelError(op, err)
	}
	payload, err := ValidateShoppingListPayload(op, v)
	if err != nil {
		return nil, modelError(op, err)
	}
	list, err := NormalizeShoppingList(op, payload)
	if err != nil {
		return nil, modelError(op, err)
	}

	if err := c.verify(op, meals, list); err != nil {
		return nil, err
	}
	slog.Info("Consolidated shopping list", "categories", len(list), "distinct_ingredients", unique)
	return list, nil
}

// verify applies the coverage policy to a consolidated list
func (c *Consolidator) verify(op string, meals []types.Meal, list []types.ShoppingCategory) error {
	report := CheckCoverage(meals, list)
	observeCoverage(report)
	if report.Complete() {
		return nil
	}
	if c.policy == CoverageFail {
		return modelError(op, &CoverageError{Missing: report.Missing})
	}
	slog.Warn("Shopping list does not cover every ingredient", "op", op, "missing", len(report.Missing), "total", report.Total)
	return nil
}

func flattenIngredients(meals []types.Meal) []string {
	var out []string
	for _, m := range meals {
		for _, ing := range m.Ingredients {
			if s := strings.TrimSpace(ing); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func countDistinct(ingredients []string) int {
	seen := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		seen[strings.ToLower(ing)] = struct{}{}
	}
	return len(seen)
}

// CoverageReport is the outcome of matching source ingredients against a shopping list
type CoverageReport struct {
	Total   int
	Missing []string
}

// Complete reports whether every source ingredient was matched
func (r CoverageReport) Complete() bool {
	return len(r.Missing) == 0
}

// CheckCoverage fuzzy-matches the head noun of every source ingredient against
// the words of the consolidated items. Ingredients with no recognizable noun
// are counted as covered.
func CheckCoverage(meals []types.Meal, list []types.ShoppingCategory) CoverageReport {
	vocab := make(map[string]struct{})
	for _, c := range list {
		for _, item := range c.Items {
			for _, w := range ingredientWords(item) {
				vocab[w] = struct{}{}
			}
		}
	}

	var report CoverageReport
	checked := make(map[string]bool)
	for _, ing := range flattenIngredients(meals) {
		report.Total++
		head := ingredientHead(ing)
		if head == "" {
			continue
		}
		if covered, done := checked[head]; done {
			if !covered {
				report.Missing = append(report.Missing, ing)
			}
			continue
		}
		_, covered := vocab[head]
		checked[head] = covered
		if !covered {
			report.Missing = append(report.Missing, ing)
		}
	}
	return report
}

var ingredientNoise = toSet(
	// units
	"cup", "c", "tbsp", "tablespoon", "tsp", "teaspoon", "g", "gram", "kg", "kilogram", "mg", "ml", "l",
	"liter", "litre", "oz", "ounce", "lb", "pound", "clove", "slice", "can", "pinch", "handful", "piece",
	"bunch", "sprig", "stalk", "head", "package", "pkg", "jar", "bottle", "dash", "scoop", "fillet", "x",
	// descriptors
	"fresh", "chopped", "diced", "minced", "sliced", "grated", "shredded", "cooked", "uncooked", "raw",
	"dried", "ground", "boneless", "skinless", "low", "fat", "lowfat", "reduced", "sodium", "plain",
	"organic", "extra", "virgin", "finely", "roughly", "thinly", "large", "small", "medium", "ripe",
	"canned", "optional", "whole", "halved", "peeled", "rinsed", "drained", "crushed", "toasted", "packed",
	// glue
	"of", "and", "or", "a", "an", "the", "to", "taste", "for", "serving", "about", "plus", "into", "cut",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "oes") || strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// ingredientWords lowercases, drops parentheticals and non-letters, singularizes
// and removes units, descriptors and glue words.
func ingredientWords(s string) []string {
	s = strings.ToLower(s)
	for {
		open := strings.IndexByte(s, '(')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], ')')
		if end < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + " " + s[open+end+1:]
	}

	fields := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := singular(f)
		if _, noise := ingredientNoise[w]; noise {
			continue
		}
		if _, noise := ingredientNoise[f]; noise {
			continue
		}
		out = append(out, w)
	}
	return out
}

// ingredientHead returns the head noun of an ingredient line, ignoring any
// preparation note after the first comma.
func ingredientHead(s string) string {
	if comma := strings.IndexByte(s, ','); comma >= 0 {
		s = s[:comma]
	}
	words := ingredientWords(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
