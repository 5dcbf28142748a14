package mealplan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

// FlexibleTime is the time range of a meal without start and end time.
const FlexibleTime = "Flexible"

const missingClock = "--:--"

// TimeRange renders "HH:MM - HH:MM", "Flexible" when neither side is set,
// and "--:--" for a single missing side.
func TimeRange(start, end *string) string {
	if start == nil && end == nil {
		return FlexibleTime
	}
	s, e := missingClock, missingClock
	if start != nil {
		s = *start
	}
	if end != nil {
		e = *end
	}
	return s + " - " + e
}

// GetMealView returns the meal with every item's nutrition and totals.
func (s *Service) GetMealView(ctx context.Context, mealID uuid.UUID) (*MealView, error) {
	meal, err := s.getMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	return s.buildMealView(ctx, meal)
}

func (s *Service) buildMealView(ctx context.Context, meal *Meal) (*MealView, error) {
	mis, err := s.items.ListByMeal(ctx, meal.ID)
	if err != nil {
		return nil, apperr.Persistence("list meal items", err)
	}

	v := &MealView{
		MealID:    meal.ID,
		MealName:  meal.Name,
		TimeRange: TimeRange(meal.StartTime, meal.EndTime),
		StartTime: meal.StartTime,
		EndTime:   meal.EndTime,
		Items:     make([]ItemView, 0, len(mis)),
	}
	completed := len(mis) > 0
	for _, mi := range mis {
		iv, err := s.buildItemView(ctx, mi)
		if err != nil {
			return nil, err
		}
		// Totals follow the planned items; substitutes are informational.
		v.macros = v.macros.Add(iv.macros)
		v.calories += iv.calories
		if !iv.IsCompleted {
			completed = false
		}
		v.Items = append(v.Items, *iv)
	}

	r := v.macros.Rounded()
	v.TotalCalories = nutrition.RoundKcal(v.calories)
	v.TotalProtein, v.TotalCarb, v.TotalFat, v.TotalFiber = r.Protein, r.Carb, r.Fat, r.Fiber
	v.IsCompleted = completed
	return v, nil
}

func (s *Service) buildItemView(ctx context.Context, mi *MealItem) (*ItemView, error) {
	item, err := s.catalog.FindByID(ctx, mi.ItemID)
	if err != nil {
		return nil, fmt.Errorf("resolve item %s: %w", mi.ItemID, err)
	}

	macros := item.Macros().Portion(mi.ConsumeAmount)
	calories := nutrition.PortionCalories(item.Calories(), mi.ConsumeAmount)
	r := macros.Rounded()
	v := &ItemView{
		MealID:                mi.MealID,
		ItemID:                mi.ItemID,
		Name:                  item.Name,
		Portion:               fmt.Sprintf("%s, %d grams", item.Name, mi.ConsumeAmount),
		Calories:              nutrition.RoundKcal(calories),
		ConsumeAmount:         mi.ConsumeAmount,
		CanChange:             mi.CanChange,
		IsFollowed:            mi.IsFollowed,
		IsCompleted:           mi.IsCompleted(),
		ChangedItem:           mi.ChangedItem,
		IsLLM:                 mi.IsLLM,
		Protein:               r.Protein,
		Carb:                  r.Carb,
		Fat:                   r.Fat,
		Fiber:                 r.Fiber,
		Substitutes:           []Substitute{},
		UnresolvedSubstitutes: []string{},
		macros:                macros,
		calories:              calories,
	}
	if mi.ChangedItem != nil {
		v.Substitutes, v.UnresolvedSubstitutes, err = s.parseSubstitutes(ctx, *mi.ChangedItem)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// parseSubstitutes reads "Name - 150g, Name2 - 20g". Segments whose name is
// not in the catalog or whose portion is not a positive whole number of
// grams are returned as unresolved.
func (s *Service) parseSubstitutes(ctx context.Context, changed string) ([]Substitute, []string, error) {
	subs := []Substitute{}
	unresolved := []string{}
	for _, seg := range strings.Split(changed, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		name, grams, ok := splitSegment(seg)
		if !ok {
			unresolved = append(unresolved, seg)
			continue
		}
		item, err := s.catalog.FindByName(ctx, name)
		if errors.Is(err, apperr.ErrNotFound) {
			unresolved = append(unresolved, seg)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		m := item.Macros().Portion(grams).Rounded()
		subs = append(subs, Substitute{
			ItemID:   item.ID,
			Name:     item.Name,
			Grams:    grams,
			Calories: nutrition.RoundKcal(nutrition.PortionCalories(item.Calories(), grams)),
			Protein:  m.Protein,
			Carb:     m.Carb,
			Fat:      m.Fat,
			Fiber:    m.Fiber,
		})
	}
	return subs, unresolved, nil
}

// splitSegment splits "Name - 150g" at its last hyphen so that names may
// contain hyphens themselves.
func splitSegment(seg string) (string, int, bool) {
	i := strings.LastIndex(seg, "-")
	if i <= 0 {
		return "", 0, false
	}
	name := strings.TrimSpace(seg[:i])
	portion := strings.TrimSpace(seg[i+1:])
	portion = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(portion), "g"))
	grams, err := strconv.Atoi(portion)
	if name == "" || err != nil || grams <= 0 {
		return "", 0, false
	}
	return name, grams, true
}
