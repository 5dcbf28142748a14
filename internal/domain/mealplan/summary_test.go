package mealplan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

func TestDailySummary_NoFeedback(t *testing.T) {
	f := newFixture(t)
	f.standardPlan(t)

	sum, err := f.svc.DailySummary(context.Background(), f.clientID, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Planned.Calories != 880 || sum.Consumed.Calories != 0 || sum.Remaining.Calories != 880 {
		t.Errorf("unexpected calories: %+v", sum)
	}
	if sum.ItemCount != 4 || sum.FeedbackCount != 0 {
		t.Errorf("expected 4 items without feedback, got %d/%d", sum.ItemCount, sum.FeedbackCount)
	}
	if sum.AdherenceRate != nil {
		t.Errorf("expected nil adherence without feedback, got %v", *sum.AdherenceRate)
	}
}

func TestDailySummary_Mixed(t *testing.T) {
	f := newFixture(t)
	dp := f.standardPlan(t)
	ctx := context.Background()

	breakfast, oatmeal := ids(t, dp, "Breakfast", "Oatmeal")
	_, banana := ids(t, dp, "Breakfast", "Banana")
	lunch, chicken := ids(t, dp, "Lunch", "Chicken Breast")

	// Breakfast: banana followed, oatmeal swapped where swaps are allowed.
	feedback := []struct {
		meal, item uuid.UUID
		followed   bool
		changed    string
	}{
		{breakfast, banana, true, ""},
		{breakfast, oatmeal, false, "Greek Yogurt - 150g"},
		// Lunch: chicken skipped, and its swap does not count because
		// swaps are not allowed for it.
		{lunch, chicken, false, "Tofu - 150g"},
	}
	for _, fb := range feedback {
		if _, err := f.svc.RecordManualFeedback(ctx, f.clientID, fb.meal, fb.item, fb.followed, fb.changed); err != nil {
			t.Fatalf("feedback: %v", err)
		}
	}

	sum, err := f.svc.DailySummary(ctx, f.clientID, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Consumed.Calories != 424 {
		t.Errorf("expected breakfast (424 kcal) consumed, got %d", sum.Consumed.Calories)
	}
	if sum.Remaining.Calories != 456 {
		t.Errorf("expected 456 kcal remaining, got %d", sum.Remaining.Calories)
	}
	if sum.FeedbackCount != 3 || sum.FollowedCount != 1 {
		t.Errorf("expected 3 feedback / 1 followed, got %d/%d", sum.FeedbackCount, sum.FollowedCount)
	}
	if sum.AdherenceRate == nil || *sum.AdherenceRate != 33.3 {
		t.Errorf("expected adherence 33.3, got %v", sum.AdherenceRate)
	}
	if sum.PlanDate != "2025-03-10" {
		t.Errorf("unexpected date %s", sum.PlanDate)
	}
}

func TestDailySummary_AllFollowed(t *testing.T) {
	f := newFixture(t)
	dp := f.standardPlan(t)
	ctx := context.Background()
	for _, m := range dp.Meals {
		for _, it := range m.Items {
			if _, err := f.svc.RecordManualFeedback(ctx, f.clientID, m.MealID, it.ItemID, true, ""); err != nil {
				t.Fatalf("feedback: %v", err)
			}
		}
	}

	sum, err := f.svc.DailySummary(ctx, f.clientID, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Consumed != sum.Planned {
		t.Errorf("expected consumed %+v to equal planned %+v", sum.Consumed, sum.Planned)
	}
	if sum.Remaining != (Totals{}) {
		t.Errorf("expected nothing remaining, got %+v", sum.Remaining)
	}
	if *sum.AdherenceRate != 100 {
		t.Errorf("expected 100%% adherence, got %v", *sum.AdherenceRate)
	}
}

func TestDailySummary_NoPlan(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.DailySummary(context.Background(), f.clientID, testToday); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestConsumed(t *testing.T) {
	yes, no := true, false
	changed := "Tofu - 100g"
	tests := []struct {
		name string
		it   ItemView
		want bool
	}{
		{"no feedback", ItemView{CanChange: true}, false},
		{"followed", ItemView{IsFollowed: &yes}, true},
		{"skipped", ItemView{IsFollowed: &no, CanChange: true}, false},
		{"swapped", ItemView{IsFollowed: &no, ChangedItem: &changed, CanChange: true}, true},
		{"swap not allowed", ItemView{IsFollowed: &no, ChangedItem: &changed}, false},
	}
	for _, tt := range tests {
		if got := consumed(&tt.it); got != tt.want {
			t.Errorf("%s: consumed = %v, want %v", tt.name, got, tt.want)
		}
	}
}
