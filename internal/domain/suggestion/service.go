package suggestion

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/domain/mealplan"
	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
)

// ErrEngine marks a failed call to the suggestion engine.
var ErrEngine = errors.New("suggestion engine failure")

// Targets resolves the meal item a suggestion is for. mealplan.Service
// implements it.
type Targets interface {
	TargetItem(ctx context.Context, clientID, mealID, itemID uuid.UUID) (*mealplan.Target, error)
}

// Profiles loads what the prompt needs about a client. client.Service
// implements it.
type Profiles interface {
	Profile(ctx context.Context, clientID uuid.UUID) (*client.Profile, error)
	Today() time.Time
}

// Engine answers a prompt with a JSON document.
type Engine interface {
	Suggest(ctx context.Context, prompt string) (json.RawMessage, error)
}

type Service struct {
	targets  Targets
	profiles Profiles
	engine   Engine
	logger   zerolog.Logger
}

func NewService(targets Targets, profiles Profiles, logger zerolog.Logger) *Service {
	return &Service{
		targets:  targets,
		profiles: profiles,
		logger:   logger.With().Str("component", "suggestion").Logger(),
	}
}

// SetEngine attaches the engine queried by Suggest.
func (s *Service) SetEngine(e Engine) {
	s.engine = e
}

// BuildPrompt assembles the alternative-food prompt for one of the client's
// meal items. It fails without a partial prompt when the item is not the
// client's or the client has no usable measurement.
func (s *Service) BuildPrompt(ctx context.Context, clientID, mealID, itemID uuid.UUID) (*Prompt, error) {
	log := s.logger.With().
		Str("client_id", clientID.String()).
		Str("meal_id", mealID.String()).
		Str("item_id", itemID.String()).
		Logger()

	target, err := s.targets.TargetItem(ctx, clientID, mealID, itemID)
	if err != nil {
		log.Warn().Err(err).Msg("prompt target not resolved")
		return nil, err
	}
	profile, err := s.profiles.Profile(ctx, clientID)
	if err != nil {
		log.Warn().Err(err).Msg("client profile not loaded")
		return nil, err
	}
	medical := profile.MedicalText()

	np, err := profile.NutritionProfile(s.profiles.Today())
	if err != nil {
		log.Warn().Err(err).Msg("no physical details for prompt")
		return nil, err
	}
	est, err := nutrition.TDEE(np)
	if err != nil {
		log.Warn().Err(err).Msg("tdee not computable")
		return nil, err
	}

	goal := ClassifyGoal(target.PlannedCalories, est.TDEE)
	log.Debug().
		Str("goal", goal).
		Int("tdee", est.TDEE).
		Float64("planned_calories", target.PlannedCalories).
		Msg("prompt built")

	return &Prompt{
		ClientID:        clientID,
		MealID:          mealID,
		ItemID:          itemID,
		Goal:            goal,
		TDEE:            est.TDEE,
		Formula:         string(est.Formula),
		PlannedCalories: nutrition.RoundKcal(target.PlannedCalories),
		Text:            renderPrompt(goal, medical, &target.Item),
	}, nil
}

// Suggest builds the prompt and, when an engine is set, asks it for an
// alternative.
func (s *Service) Suggest(ctx context.Context, clientID, mealID, itemID uuid.UUID) (*Result, error) {
	p, err := s.BuildPrompt(ctx, clientID, mealID, itemID)
	if err != nil {
		return nil, err
	}
	res := &Result{Prompt: p}
	if s.engine == nil {
		return res, nil
	}

	answer, err := s.engine.Suggest(ctx, p.Text)
	if err != nil {
		s.logger.Error().Err(err).Str("client_id", clientID.String()).Msg("suggestion engine call failed")
		return nil, err
	}
	res.Suggestion = answer
	return res, nil
}
