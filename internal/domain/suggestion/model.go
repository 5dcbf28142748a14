package suggestion

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Plan goals, decided by how far the planned calories are from TDEE.
const (
	GoalLoss        = "Weight loss"
	GoalGain        = "Weight gain"
	GoalMaintenance = "Weight maintenance"
)

// goalMargin is the kcal band around TDEE that counts as maintenance.
const goalMargin = 200

// Prompt is the text handed to the suggestion engine and the figures it was
// built from.
type Prompt struct {
	ClientID        uuid.UUID `json:"clientID"`
	MealID          uuid.UUID `json:"mealID"`
	ItemID          uuid.UUID `json:"itemID"`
	Goal            string    `json:"goal"`
	TDEE            int       `json:"tdee"`
	Formula         string    `json:"formula"`
	PlannedCalories int       `json:"plannedCalories"`
	Text            string    `json:"prompt"`
}

// Result is a prompt with the engine's answer. Suggestion is null when no
// engine is configured.
type Result struct {
	*Prompt
	Suggestion json.RawMessage `json:"suggestion"`
}

// Request is the body of POST /suggestions.
type Request struct {
	ClientID string    `json:"client_id"`
	MealID   uuid.UUID `json:"mealID"`
	ItemID   uuid.UUID `json:"itemID"`
}
