package mealplan

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
)

// consumed reports whether an item counts as eaten: followed, or replaced
// by a recorded substitute where changes were allowed.
func consumed(it *ItemView) bool {
	if it.IsFollowed == nil {
		return false
	}
	if *it.IsFollowed {
		return true
	}
	return it.ChangedItem != nil && it.CanChange
}

// DailySummary compares eaten and planned nutrition for one day, using the
// same rounded figures the daily plan shows. A completed meal counts in
// full; otherwise each eaten item counts at its planned values. Remaining
// values never go below zero.
func (s *Service) DailySummary(ctx context.Context, clientID uuid.UUID, date time.Time) (*Summary, error) {
	dp, err := s.GetDailyPlan(ctx, clientID, date)
	if err != nil {
		return nil, err
	}

	sum := &Summary{PlanDate: dp.PlanDate, Planned: dp.DailyTotals}

	for i := range dp.Meals {
		meal := &dp.Meals[i]
		if meal.IsCompleted {
			sum.Consumed = sum.Consumed.add(meal.totals())
		}
		for j := range meal.Items {
			it := &meal.Items[j]
			sum.ItemCount++
			if it.IsFollowed != nil {
				sum.FeedbackCount++
				if *it.IsFollowed {
					sum.FollowedCount++
				}
			}
			if !meal.IsCompleted && consumed(it) {
				sum.Consumed = sum.Consumed.add(it.totals())
			}
		}
	}

	sum.Remaining = sum.Planned.remaining(sum.Consumed)
	if sum.FeedbackCount > 0 {
		rate := nutrition.Round1(float64(sum.FollowedCount) / float64(sum.FeedbackCount) * 100)
		sum.AdherenceRate = &rate
	}
	return sum, nil
}
