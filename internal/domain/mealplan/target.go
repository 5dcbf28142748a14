package mealplan

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

// Target is one meal item seen together with the day it belongs to.
type Target struct {
	Item            ItemView
	MealName        string
	PlanDate        string
	PlannedCalories float64
}

// TargetItem resolves a meal item owned by clientID along with the daily
// calorie total of the plan containing it.
func (s *Service) TargetItem(ctx context.Context, clientID, mealID, itemID uuid.UUID) (*Target, error) {
	mi, err := s.ownedMealItem(ctx, clientID, mealID, itemID)
	if err != nil {
		return nil, err
	}
	meal, err := s.getMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, meal.PlanID)
	if errors.Is(err, ErrPlanNotFound) {
		return nil, apperr.NotFound("meal plan")
	}
	if err != nil {
		return nil, apperr.Persistence("get meal plan", err)
	}

	view, err := s.buildItemView(ctx, mi)
	if err != nil {
		return nil, err
	}
	day, err := s.buildDailyPlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &Target{
		Item:            *view,
		MealName:        meal.Name,
		PlanDate:        day.PlanDate,
		PlannedCalories: float64(day.DailyTotals.Calories),
	}, nil
}
