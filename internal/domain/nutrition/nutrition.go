// Package nutrition holds the pure calorie, macro and energy-expenditure
// formulas used by the catalog, the meal-plan aggregator and the
// suggestion prompt builder.
package nutrition

import "math"

// Energy per gram of each macronutrient.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarb    = 4
	kcalPerGramFat     = 9
)

// Macros are grams of each macronutrient, either per 100g of an item or for
// a concrete portion.
type Macros struct {
	Protein float64 `json:"protein"`
	Carb    float64 `json:"carb"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// ItemCalories returns kcal per 100g for the given per-100g macros.
func ItemCalories(protein, carb, fat float64) float64 {
	return kcalPerGramProtein*protein + kcalPerGramCarb*carb + kcalPerGramFat*fat
}

// PortionCalories scales a per-100g calorie value to a portion in grams.
func PortionCalories(per100g float64, grams int) float64 {
	return Scale(per100g, grams)
}

// Scale converts a per-100g value to the amount contained in grams.
func Scale(per100g float64, grams int) float64 {
	return per100g * float64(grams) / 100
}

// Calories returns kcal for m, using the same formula as ItemCalories.
func (m Macros) Calories() float64 {
	return ItemCalories(m.Protein, m.Carb, m.Fat)
}

// Portion scales per-100g macros to a portion of grams.
func (m Macros) Portion(grams int) Macros {
	return Macros{
		Protein: Scale(m.Protein, grams),
		Carb:    Scale(m.Carb, grams),
		Fat:     Scale(m.Fat, grams),
		Fiber:   Scale(m.Fiber, grams),
	}
}

// Add returns the element-wise sum of m and o.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Protein: m.Protein + o.Protein,
		Carb:    m.Carb + o.Carb,
		Fat:     m.Fat + o.Fat,
		Fiber:   m.Fiber + o.Fiber,
	}
}

// Rounded rounds every field to one decimal place.
func (m Macros) Rounded() Macros {
	return Macros{
		Protein: Round1(m.Protein),
		Carb:    Round1(m.Carb),
		Fat:     Round1(m.Fat),
		Fiber:   Round1(m.Fiber),
	}
}

// RoundKcal rounds a calorie value to whole kcal, half away from zero.
func RoundKcal(v float64) int {
	return int(math.Round(v))
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
