package mealplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/domain/catalog"
	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

const maxMealNameLength = 64

// PlanStatus classifies planDate against today.
func PlanStatus(planDate, today time.Time) string {
	p := planDate.Format(DateLayout)
	t := today.Format(DateLayout)
	switch {
	case p < t:
		return StatusPast
	case p == t:
		return StatusCurrent
	default:
		return StatusFuture
	}
}

// GetDailyPlan returns the client's plan for date with every meal view,
// daily totals and status.
func (s *Service) GetDailyPlan(ctx context.Context, clientID uuid.UUID, date time.Time) (*DailyPlan, error) {
	plan, err := s.plans.GetByClientDate(ctx, clientID, date)
	if errors.Is(err, ErrPlanNotFound) {
		return nil, apperr.NotFound("meal plan")
	}
	if err != nil {
		return nil, apperr.Persistence("get meal plan", err)
	}
	return s.buildDailyPlan(ctx, plan)
}

func (s *Service) buildDailyPlan(ctx context.Context, plan *Plan) (*DailyPlan, error) {
	meals, err := s.meals.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, apperr.Persistence("list meals", err)
	}

	status := PlanStatus(plan.PlanDate, s.Today())
	dp := &DailyPlan{
		MealPlanID: plan.ID,
		ClientID:   plan.ClientID,
		PlanDate:   plan.PlanDate.Format(DateLayout),
		CreatedAt:  plan.CreatedAt,
		PlanStatus: status,
		IsPast:     status == StatusPast,
		IsCurrent:  status == StatusCurrent,
		Meals:      make([]MealView, 0, len(meals)),
		MealCount:  len(meals),
	}

	allCompleted := len(meals) > 0
	for _, m := range meals {
		mv, err := s.buildMealView(ctx, m)
		if err != nil {
			return nil, err
		}
		// Daily totals add up the meal totals as shown, so they always
		// equal the sum of the listed meals.
		dp.DailyTotals = dp.DailyTotals.add(mv.totals())
		if !mv.IsCompleted {
			allCompleted = false
		}
		dp.Meals = append(dp.Meals, *mv)
	}
	dp.AllMealsCompleted = allCompleted
	return dp, nil
}

// ListAvailableDates returns the client's plan dates, newest first.
func (s *Service) ListAvailableDates(ctx context.Context, clientID uuid.UUID) ([]string, error) {
	dates, err := s.plans.ListDates(ctx, clientID)
	if err != nil {
		return nil, apperr.Persistence("list plan dates", err)
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

// ParseTimeRange parses "HH:MM-HH:MM". Anything that does not split into
// exactly two segments, free text such as "Anytime" included, is a
// flexible meal. Two segments that are not clock times are rejected.
func ParseTimeRange(v string) (start, end *string, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil, nil
	}
	parts := strings.Split(v, "-")
	if len(parts) != 2 {
		return nil, nil, nil
	}
	clocks := make([]*string, 2)
	for i, p := range parts {
		t, err := time.Parse(ClockLayout, strings.TrimSpace(p))
		if err != nil {
			return nil, nil, apperr.Validation("time %q must be HH:MM-HH:MM", v)
		}
		c := t.Format(ClockLayout)
		clocks[i] = &c
	}
	return clocks[0], clocks[1], nil
}

type preparedMeal struct {
	meal  Meal
	items []ItemInput
}

func (s *Service) validatePlan(ctx context.Context, in PlanInput) (time.Time, []preparedMeal, error) {
	if in.ClientID == uuid.Nil {
		return time.Time{}, nil, apperr.Validation("client_id is required")
	}
	if strings.TrimSpace(in.Date) == "" {
		return time.Time{}, nil, apperr.Validation("date is required")
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(in.Date))
	if err != nil {
		return time.Time{}, nil, apperr.Validation("date must be YYYY-MM-DD")
	}

	c, err := s.clients.Get(ctx, in.ClientID)
	if err != nil {
		return time.Time{}, nil, err
	}
	if !c.IsActive {
		return time.Time{}, nil, apperr.Validation("client is not active")
	}

	prepared := make([]preparedMeal, 0, len(in.Meals))
	for i, m := range in.Meals {
		title := strings.TrimSpace(m.Title)
		if title == "" {
			return time.Time{}, nil, apperr.Validation("meals[%d]: title is required", i)
		}
		if len(title) > maxMealNameLength {
			return time.Time{}, nil, apperr.Validation("meals[%d]: title exceeds %d characters", i, maxMealNameLength)
		}
		start, end, err := ParseTimeRange(m.Time)
		if err != nil {
			return time.Time{}, nil, err
		}

		seen := make(map[string]bool, len(m.Items))
		items := make([]ItemInput, 0, len(m.Items))
		for j, it := range m.Items {
			it.Name = strings.TrimSpace(it.Name)
			if err := catalog.ValidateName(it.Name); err != nil {
				return time.Time{}, nil, fmt.Errorf("meals[%d].items[%d]: %w", i, j, err)
			}
			if it.Amount <= 0 {
				return time.Time{}, nil, apperr.Validation("meals[%d].items[%d]: amount must be positive", i, j)
			}
			if seen[it.Name] {
				return time.Time{}, nil, apperr.Validation("meals[%d]: item %q listed twice", i, it.Name)
			}
			seen[it.Name] = true
			items = append(items, it)
		}
		prepared = append(prepared, preparedMeal{
			meal:  Meal{Name: title, StartTime: start, EndTime: end, Position: i},
			items: items,
		})
	}
	return date, prepared, nil
}

// CreateOrReplacePlan validates in, then in one transaction deletes any
// plan the client has for the date and inserts the new one. Items are
// resolved or created in the catalog by name and start without feedback.
// On failure the previous plan is left untouched.
func (s *Service) CreateOrReplacePlan(ctx context.Context, in PlanInput) (*DailyPlan, error) {
	date, meals, err := s.validatePlan(ctx, in)
	if err != nil {
		return nil, err
	}

	var plan *Plan
	var replaced bool
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		existed, err := s.plans.DeleteByClientDate(ctx, in.ClientID, date)
		if err != nil {
			return apperr.Persistence("delete meal plan", err)
		}
		replaced = existed
		plan = &Plan{ClientID: in.ClientID, PlanDate: date}
		if err := s.plans.Create(ctx, plan); err != nil {
			return apperr.Persistence("create meal plan", err)
		}

		for _, pm := range meals {
			meal := pm.meal
			meal.PlanID = plan.ID
			if err := s.meals.Create(ctx, &meal); err != nil {
				return apperr.Persistence("create meal", err)
			}
			for pos, it := range pm.items {
				item, err := s.catalog.FindOrCreateByName(ctx, it.Name, nutrition.Macros{
					Protein: it.Protein, Carb: it.Carb, Fat: it.Fat, Fiber: it.Fiber,
				})
				if err != nil {
					return err
				}
				mi := &MealItem{
					MealID:        meal.ID,
					ItemID:        item.ID,
					ConsumeAmount: it.Amount,
					CanChange:     it.AllowChange,
					Position:      pos,
				}
				if err := s.items.Create(ctx, mi); err != nil {
					return apperr.Persistence("create meal item", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("client_id", in.ClientID.String()).
			Str("plan_date", in.Date).
			Msg("meal plan not saved")
		return nil, err
	}

	s.logger.Info().
		Str("client_id", in.ClientID.String()).
		Str("plan_id", plan.ID.String()).
		Str("plan_date", in.Date).
		Bool("replaced", replaced).
		Int("meals", len(meals)).
		Msg("meal plan saved")
	return s.buildDailyPlan(ctx, plan)
}
