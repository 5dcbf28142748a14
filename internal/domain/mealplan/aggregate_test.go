package mealplan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

func strPtr(s string) *string { return &s }

func TestTimeRange(t *testing.T) {
	tests := []struct {
		start, end *string
		want       string
	}{
		{strPtr("08:00"), strPtr("09:00"), "08:00 - 09:00"},
		{nil, nil, "Flexible"},
		{strPtr("18:30"), nil, "18:30 - --:--"},
		{nil, strPtr("10:00"), "--:-- - 10:00"},
	}
	for _, tt := range tests {
		if got := TimeRange(tt.start, tt.end); got != tt.want {
			t.Errorf("TimeRange = %q, want %q", got, tt.want)
		}
	}
}

func TestSplitSegment(t *testing.T) {
	tests := []struct {
		seg   string
		name  string
		grams int
		ok    bool
	}{
		{"Greek Yogurt - 150g", "Greek Yogurt", 150, true},
		{"Greek Yogurt-150", "Greek Yogurt", 150, true},
		{"Low-Fat Milk - 200 G", "Low-Fat Milk", 200, true},
		{"Banana", "", 0, false},
		{"- 100g", "", 0, false},
		{"Banana - lots", "", 0, false},
		{"Banana - 0g", "", 0, false},
		{"Banana - 12.5g", "", 0, false},
	}
	for _, tt := range tests {
		name, grams, ok := splitSegment(tt.seg)
		if name != tt.name || grams != tt.grams || ok != tt.ok {
			t.Errorf("splitSegment(%q) = %q, %d, %v; want %q, %d, %v", tt.seg, name, grams, ok, tt.name, tt.grams, tt.ok)
		}
	}
}

func TestParseSubstitutes_Unresolved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.catalog.FindOrCreateByName(ctx, "Low-Fat Milk", nutrition.Macros{Protein: 3.4, Carb: 5, Fat: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	subs, unresolved, err := f.svc.parseSubstitutes(ctx, "Low-Fat Milk - 200g, Mystery Stew - 100g,, Banana - lots, banana - 50g")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "Low-Fat Milk" || subs[0].Grams != 200 {
		t.Errorf("expected only Low-Fat Milk to resolve, got %+v", subs)
	}
	// 3.4*4 + 5*4 + 1*9 = 42.6 per 100g.
	if subs[0].Calories != 85 {
		t.Errorf("expected 85 kcal, got %d", subs[0].Calories)
	}
	want := []string{"Mystery Stew - 100g", "Banana - lots", "banana - 50g"}
	if len(unresolved) != len(want) {
		t.Fatalf("expected %v unresolved, got %v", want, unresolved)
	}
	for i := range want {
		if unresolved[i] != want[i] {
			t.Errorf("unresolved[%d] = %q, want %q", i, unresolved[i], want[i])
		}
	}
}

func TestGetMealView(t *testing.T) {
	f := newFixture(t)
	dp := f.standardPlan(t)
	lunch := dp.Meals[1]

	v, err := f.svc.GetMealView(context.Background(), lunch.MealID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.MealName != "Lunch" || v.TimeRange != "12:30 - 13:30" || *v.StartTime != "12:30" {
		t.Errorf("unexpected header: %+v", v)
	}
	if len(v.Items) != 2 || v.Items[0].Name != "Chicken Breast" || v.Items[1].Name != "Brown Rice" {
		t.Fatalf("expected items in planned order, got %+v", v.Items)
	}
	chicken := v.Items[0]
	if chicken.Portion != "Chicken Breast, 150 grams" || chicken.Calories != 235 || chicken.Protein != 46.5 || chicken.Fat != 5.4 {
		t.Errorf("unexpected chicken view: %+v", chicken)
	}
	if chicken.CanChange || !v.Items[1].CanChange {
		t.Error("expected allowChange to carry through")
	}
	if v.TotalCalories != 456 || v.TotalProtein != 51.7 || v.TotalCarb != 46 || v.TotalFiber != 3.6 {
		t.Errorf("unexpected totals: %d kcal, %v/%v/%v", v.TotalCalories, v.TotalProtein, v.TotalCarb, v.TotalFiber)
	}
	if v.Items[0].Substitutes == nil || v.Items[0].UnresolvedSubstitutes == nil {
		t.Error("expected empty, non-nil substitute lists")
	}
}

func TestGetMealView_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GetMealView(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestGetMealView_EmptyMealIsNotCompleted(t *testing.T) {
	f := newFixture(t)
	dp, err := f.svc.CreateOrReplacePlan(context.Background(), PlanInput{
		ClientID: f.clientID,
		Date:     "2025-03-10",
		Meals:    []MealInput{{Title: "Fasting window"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dp.Meals[0].IsCompleted || dp.AllMealsCompleted {
		t.Error("expected a meal without items to be incomplete")
	}
}

func TestMealOwner(t *testing.T) {
	f := newFixture(t)
	dp := f.standardPlan(t)

	owner, err := f.svc.MealOwner(context.Background(), dp.Meals[0].MealID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != f.clientID {
		t.Errorf("expected %s, got %s", f.clientID, owner)
	}
	if _, err := f.svc.MealOwner(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestTargetItem(t *testing.T) {
	f := newFixture(t)
	dp := f.standardPlan(t)
	mealID, itemID := ids(t, dp, "Breakfast", "Oatmeal")

	target, err := f.svc.TargetItem(context.Background(), f.clientID, mealID, itemID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Item.Name != "Oatmeal" || target.MealName != "Breakfast" || target.PlanDate != "2025-03-10" {
		t.Errorf("unexpected target: %+v", target)
	}
	if target.PlannedCalories != 880 {
		t.Errorf("expected 880 planned kcal, got %v", target.PlannedCalories)
	}

	if _, err := f.svc.TargetItem(context.Background(), uuid.New(), mealID, itemID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound for another client, got %v", err)
	}
}
