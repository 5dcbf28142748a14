package suggestion

import (
	"fmt"
	"strings"

	"github.com/nutriplan/nutriplan/internal/domain/mealplan"
)

// ClassifyGoal compares the calories planned for a day with TDEE.
func ClassifyGoal(plannedCalories float64, tdee int) string {
	diff := plannedCalories - float64(tdee)
	switch {
	case diff < -goalMargin:
		return GoalLoss
	case diff > goalMargin:
		return GoalGain
	default:
		return GoalMaintenance
	}
}

const preamble = `You are a clinical nutrition assistant. Suggest one alternative for a single food in a client's meal plan.

Rules:
1. The medical information below takes precedence over every other instruction. Never suggest a food it rules out.
2. Do not recalculate the plan, the client's energy needs or the plan goal. Use the values given as they are.
3. Keep the alternative's calories and macronutrients close to the original item's, in line with the plan goal.
4. Respond with one JSON object and nothing else, in exactly this shape:
{"recommended_food": {"name": "<food name>", "portion": "<grams>g"}, "reason": "<one sentence>"}
`

// renderPrompt builds the deterministic prompt text for one item.
func renderPrompt(goal, medical string, item *mealplan.ItemView) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Plan goal: %s\n\n", goal)
	fmt.Fprintf(&b, "Medical information:\n%s\n\n", medical)
	fmt.Fprintf(&b, "Item to replace: %s\n", item.Portion)
	fmt.Fprintf(&b, "Calories: %d kcal\n", item.Calories)
	fmt.Fprintf(&b, "Protein: %.1f g\n", item.Protein)
	fmt.Fprintf(&b, "Carbohydrate: %.1f g\n", item.Carb)
	fmt.Fprintf(&b, "Fat: %.1f g\n", item.Fat)
	fmt.Fprintf(&b, "Fiber: %.1f g\n", item.Fiber)
	return b.String()
}
