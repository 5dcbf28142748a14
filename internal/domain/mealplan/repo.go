package mealplan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PlanRepository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	GetByClientDate(ctx context.Context, clientID uuid.UUID, date time.Time) (*Plan, error)
	// DeleteByClientDate removes the plan with its meals and meal items and
	// reports whether one existed.
	DeleteByClientDate(ctx context.Context, clientID uuid.UUID, date time.Time) (bool, error)
	// ListDates returns the client's plan dates, newest first.
	ListDates(ctx context.Context, clientID uuid.UUID) ([]time.Time, error)
}

type MealRepository interface {
	Create(ctx context.Context, m *Meal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Meal, error)
	// ListByPlan orders meals by start time, untimed meals last, then by
	// position.
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*Meal, error)
}

type MealItemRepository interface {
	Create(ctx context.Context, mi *MealItem) error
	Get(ctx context.Context, mealID, itemID uuid.UUID) (*MealItem, error)
	ListByMeal(ctx context.Context, mealID uuid.UUID) ([]*MealItem, error)
	// UpdateFeedback overwrites isFollowed, changedItem and isLLM.
	UpdateFeedback(ctx context.Context, mi *MealItem) error
}
