package mealplan

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/websocket"
)

// EventFeedbackRecorded is published on the client's topic after every
// feedback write.
const EventFeedbackRecorded = "feedback.recorded"

// RecordManualFeedback stores hand-entered feedback on one meal item and
// returns its recomputed view. An empty changedItem is stored as null.
func (s *Service) RecordManualFeedback(ctx context.Context, clientID, mealID, itemID uuid.UUID, isFollowed bool, changedItem string) (*ItemView, error) {
	var changed *string
	if v := strings.TrimSpace(changedItem); v != "" {
		changed = &v
	}
	return s.recordFeedback(ctx, clientID, mealID, itemID, func(mi *MealItem) {
		mi.IsFollowed = &isFollowed
		mi.ChangedItem = changed
		mi.IsLLM = false
	})
}

// RecordLLMFeedback stores an accepted suggestion as a deviation from the
// planned item. The original item was not eaten, so isFollowed is false.
func (s *Service) RecordLLMFeedback(ctx context.Context, clientID, mealID, itemID uuid.UUID, accepted AcceptedSuggestion) (*ItemView, error) {
	food := accepted.RecommendedFood
	if food == nil {
		return nil, apperr.Validation("recommended_food is required")
	}
	name := strings.TrimSpace(food.Name)
	if name == "" {
		return nil, apperr.Validation("recommended_food.name is required")
	}
	portion, err := FormatPortion(food.Portion)
	if err != nil {
		return nil, err
	}

	changed := name + " - " + portion
	notFollowed := false
	return s.recordFeedback(ctx, clientID, mealID, itemID, func(mi *MealItem) {
		mi.IsFollowed = &notFollowed
		mi.ChangedItem = &changed
		mi.IsLLM = true
	})
}

func (s *Service) recordFeedback(ctx context.Context, clientID, mealID, itemID uuid.UUID, apply func(*MealItem)) (*ItemView, error) {
	var updated *MealItem
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		mi, err := s.ownedMealItem(ctx, clientID, mealID, itemID)
		if err != nil {
			return err
		}
		apply(mi)
		if err := s.items.UpdateFeedback(ctx, mi); err != nil {
			return apperr.Persistence("update feedback", err)
		}
		updated = mi
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.buildItemView(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("client_id", clientID.String()).
		Str("meal_id", mealID.String()).
		Str("item_id", itemID.String()).
		Bool("is_llm", updated.IsLLM).
		Msg("feedback recorded")
	s.publish(ctx, clientID, view)
	return view, nil
}

func (s *Service) publish(ctx context.Context, clientID uuid.UUID, view *ItemView) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode feedback event")
		return
	}
	err = s.events.Publish(ctx, websocket.Event{
		Type:     EventFeedbackRecorded,
		Topic:    websocket.ClientTopic(clientID),
		Entity:   "meal_item",
		EntityID: view.MealID.String() + "/" + view.ItemID.String(),
		Data:     data,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("client_id", clientID.String()).Msg("publish feedback event")
	}
}

// CanonicalChangedItems renders structured substitutes as
// "Name - 150g, Name2 - 20g". Names must be non-empty and portions
// positive; fractional grams are rounded.
func CanonicalChangedItems(items []ChangedItemInput) (string, error) {
	segments := make([]string, 0, len(items))
	for i, it := range items {
		name := strings.TrimSpace(it.ItemName)
		if name == "" {
			return "", apperr.Validation("changedItems[%d]: itemName is required", i)
		}
		if strings.Contains(name, ",") {
			return "", apperr.Validation("changedItems[%d]: itemName must not contain commas", i)
		}
		grams := int(math.Round(it.Portion))
		if grams <= 0 {
			return "", apperr.Validation("changedItems[%d]: portion must be positive", i)
		}
		segments = append(segments, fmt.Sprintf("%s - %dg", name, grams))
	}
	return strings.Join(segments, ", "), nil
}

// FormatPortion renders a suggested portion. Numbers, including numeric
// strings, are grams and render as "<n>g"; other text is kept as given.
func FormatPortion(portion interface{}) (string, error) {
	switch p := portion.(type) {
	case float64:
		return formatGrams(p)
	case int:
		return formatGrams(float64(p))
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return "", apperr.Validation("recommended_food.portion is not a number")
		}
		return formatGrams(f)
	case string:
		v := strings.TrimSpace(p)
		if v == "" {
			return "", apperr.Validation("recommended_food.portion is required")
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return formatGrams(f)
		}
		return v, nil
	case nil:
		return "", apperr.Validation("recommended_food.portion is required")
	}
	return "", apperr.Validation("recommended_food.portion must be a number or text")
}

func formatGrams(f float64) (string, error) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", apperr.Validation("recommended_food.portion must be positive")
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + "g", nil
}
