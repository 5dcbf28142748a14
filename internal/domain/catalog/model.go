package catalog

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
)

// MaxNameLength matches the item.name column.
const MaxNameLength = 64

// Item is a food reference with macros per 100g. Calories are derived.
type Item struct {
	ID       uuid.UUID       `db:"id" json:"id"`
	Name     string          `db:"name" json:"name"`
	Protein  float64         `db:"protein" json:"protein"`
	Carb     float64         `db:"carb" json:"carb"`
	Fat      float64         `db:"fat" json:"fat"`
	Fiber    float64         `db:"fiber" json:"fiber"`
	Vitamins json.RawMessage `db:"vitamins" json:"vitamins,omitempty"`
	Minerals json.RawMessage `db:"minerals" json:"minerals,omitempty"`
}

// Macros returns the per-100g macros of the item.
func (i *Item) Macros() nutrition.Macros {
	return nutrition.Macros{Protein: i.Protein, Carb: i.Carb, Fat: i.Fat, Fiber: i.Fiber}
}

// Calories returns kcal per 100g.
func (i *Item) Calories() float64 {
	return nutrition.ItemCalories(i.Protein, i.Carb, i.Fat)
}

// ItemView is a catalog entry with its derived calories rounded to kcal.
type ItemView struct {
	ID       uuid.UUID `json:"ItemID"`
	Name     string    `json:"ItemName"`
	Calories int       `json:"ItemCalories"`
	Protein  float64   `json:"ItemProtein"`
	Carb     float64   `json:"ItemCarb"`
	Fat      float64   `json:"ItemFat"`
	Fiber    float64   `json:"ItemFiber"`
}

func (i *Item) ToView() ItemView {
	return ItemView{
		ID:       i.ID,
		Name:     i.Name,
		Calories: nutrition.RoundKcal(i.Calories()),
		Protein:  i.Protein,
		Carb:     i.Carb,
		Fat:      i.Fat,
		Fiber:    i.Fiber,
	}
}

// DropdownItem is the compact form used by item pickers.
type DropdownItem struct {
	ID   uuid.UUID `json:"itemID"`
	Name string    `json:"itemName"`
}
