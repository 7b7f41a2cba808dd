package budget

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// Total is the value every category set must sum to.
const Total = 100.0

// epsilon absorbs floating point drift when comparing sums.
const epsilon = 1e-9

// DefaultCategories returns the initial split shown when the budget step opens.
func DefaultCategories() []models.BudgetCategory {
	return []models.BudgetCategory{
		{ID: "flights", Label: "Flights", Value: 40},
		{ID: "hotels", Label: "Accommodation", Value: 30},
		{ID: "activities", Label: "Activities", Value: 15},
		{ID: "food", Label: "Food & Dining", Value: 10},
		{ID: "other", Label: "Other", Value: 5},
	}
}

// Sum adds up every category value.
func Sum(categories []models.BudgetCategory) float64 {
	return lo.SumBy(categories, func(c models.BudgetCategory) float64 {
		return c.Value
	})
}

// SetCategoryValue sets one category to value and spreads the difference
// evenly over the others so the set keeps summing to 100. The edited
// category keeps exactly the value it was given. Other categories never
// drop below zero; whatever a zero floor cannot absorb is spread again over
// the categories that still have room. The input slice is not modified.
func SetCategoryValue(categories []models.BudgetCategory, id string, value float64) []models.BudgetCategory {
	out := slices.Clone(categories)
	target := slices.IndexFunc(out, func(c models.BudgetCategory) bool { return c.ID == id })
	if target < 0 {
		return out
	}

	out[target].Value = math.Min(math.Max(value, 0), Total)
	if len(out) < 2 {
		return out
	}

	diff := Total - Sum(out)
	if math.Abs(diff) < epsilon {
		return out
	}

	others := make([]int, 0, len(out)-1)
	for i := range out {
		if i != target {
			others = append(others, i)
		}
	}

	for math.Abs(diff) >= epsilon && len(others) > 0 {
		share := diff / float64(len(others))
		diff = 0
		open := others[:0:0]
		for _, i := range others {
			v := out[i].Value + share
			if v < 0 {
				diff += v
				v = 0
			}
			out[i].Value = v
			if v > 0 {
				open = append(open, i)
			}
		}
		others = open
	}

	return out
}

// ComputeAmounts converts every percentage into an absolute amount of total.
func ComputeAmounts(categories []models.BudgetCategory, total float64) []models.CategoryAmount {
	return lo.Map(categories, func(c models.BudgetCategory, _ int) models.CategoryAmount {
		return models.CategoryAmount{
			ID:     c.ID,
			Label:  c.Label,
			Amount: total * c.Value / Total,
		}
	})
}

// PerPersonBudget splits total evenly between travelers. Callers guarantee
// at least one traveler; anything lower is treated as one.
func PerPersonBudget(total float64, travelers int) float64 {
	if travelers < 1 {
		travelers = 1
	}
	return total / float64(travelers)
}

// Breakdown turns the category set into the itinerary's id -> percentage map.
func Breakdown(categories []models.BudgetCategory) map[string]float64 {
	return lo.SliceToMap(categories, func(c models.BudgetCategory) (string, float64) {
		return c.ID, c.Value
	})
}

// WithinBounds reports whether total may be confirmed.
func WithinBounds(total, min, max float64) bool {
	return total > 0 && total >= min && total <= max
}

// ValidBreakdown reports whether a percentage map could come from a
// category set: no negative values and a sum of 100.
func ValidBreakdown(breakdown map[string]float64) bool {
	b := models.Budget{Total: 1, Currency: "-", Breakdown: breakdown}
	return b.Valid()
}
