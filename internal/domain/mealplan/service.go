package mealplan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriplan/nutriplan/internal/domain/catalog"
	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/db"
	"github.com/nutriplan/nutriplan/internal/platform/websocket"
)

// Catalog resolves and creates food items. catalog.Service implements it.
type Catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error)
	FindByName(ctx context.Context, name string) (*catalog.Item, error)
	FindOrCreateByName(ctx context.Context, name string, macros nutrition.Macros) (*catalog.Item, error)
}

// ClientLookup loads clients regardless of caller. client.Service
// implements it.
type ClientLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

type Service struct {
	plans   PlanRepository
	meals   MealRepository
	items   MealItemRepository
	catalog Catalog
	clients ClientLookup
	tx      db.Transactor
	events  websocket.EventPublisher
	loc     *time.Location
	now     func() time.Time
	logger  zerolog.Logger
}

func NewService(
	plans PlanRepository,
	meals MealRepository,
	items MealItemRepository,
	cat Catalog,
	clients ClientLookup,
	tx db.Transactor,
	loc *time.Location,
	logger zerolog.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		plans:   plans,
		meals:   meals,
		items:   items,
		catalog: cat,
		clients: clients,
		tx:      tx,
		loc:     loc,
		now:     time.Now,
		logger:  logger.With().Str("component", "mealplan").Logger(),
	}
}

// SetEventPublisher attaches an optional publisher for feedback events.
func (s *Service) SetEventPublisher(p websocket.EventPublisher) {
	s.events = p
}

// Today returns the current calendar date in the configured location.
func (s *Service) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO date, or returns today when s is empty.
func (s *Service) ParseDate(v string) (time.Time, error) {
	if v == "" {
		return s.Today(), nil
	}
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	return d, nil
}

// MealOwner returns the client whose plan contains mealID.
func (s *Service) MealOwner(ctx context.Context, mealID uuid.UUID) (uuid.UUID, error) {
	meal, err := s.getMeal(ctx, mealID)
	if err != nil {
		return uuid.Nil, err
	}
	plan, err := s.plans.GetByID(ctx, meal.PlanID)
	if errors.Is(err, ErrPlanNotFound) {
		return uuid.Nil, apperr.NotFound("meal plan")
	}
	if err != nil {
		return uuid.Nil, apperr.Persistence("get meal plan", err)
	}
	return plan.ClientID, nil
}

func (s *Service) getMeal(ctx context.Context, mealID uuid.UUID) (*Meal, error) {
	meal, err := s.meals.GetByID(ctx, mealID)
	if errors.Is(err, ErrMealNotFound) {
		return nil, apperr.NotFound("meal")
	}
	if err != nil {
		return nil, apperr.Persistence("get meal", err)
	}
	return meal, nil
}

// ownedMealItem checks, in order, that the meal exists, that its plan
// belongs to clientID and that the meal item exists.
func (s *Service) ownedMealItem(ctx context.Context, clientID, mealID, itemID uuid.UUID) (*MealItem, error) {
	log := s.logger.With().
		Str("client_id", clientID.String()).
		Str("meal_id", mealID.String()).
		Str("item_id", itemID.String()).
		Logger()

	meal, err := s.getMeal(ctx, mealID)
	if err != nil {
		log.Warn().Err(err).Msg("meal lookup failed")
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, meal.PlanID)
	if err != nil && !errors.Is(err, ErrPlanNotFound) {
		return nil, apperr.Persistence("get meal plan", err)
	}
	if err != nil || plan.ClientID != clientID {
		log.Warn().Msg("meal does not belong to client")
		return nil, apperr.NotFound("meal")
	}
	mi, err := s.items.Get(ctx, mealID, itemID)
	if errors.Is(err, ErrMealItemNotFound) {
		log.Warn().Msg("meal item not found")
		return nil, apperr.NotFound("meal item")
	}
	if err != nil {
		return nil, apperr.Persistence("get meal item", err)
	}
	return mi, nil
}
