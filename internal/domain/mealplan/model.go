package mealplan

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/nutriplan/nutriplan/internal/domain/nutrition"
)

// DateLayout is the wire format of plan dates.
const DateLayout = "2006-01-02"

// ClockLayout is the wire format of meal start and end times.
const ClockLayout = "15:04"

// Plan statuses relative to today.
const (
	StatusPast    = "past"
	StatusCurrent = "current"
	StatusFuture  = "future"
)

// Plan is one client's meal plan for one calendar day.
type Plan struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClientID  uuid.UUID `db:"client_id" json:"clientId"`
	PlanDate  time.Time `db:"plan_date" json:"planDate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Meal is a named slot of a plan. StartTime and EndTime are "HH:MM" or nil.
type Meal struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PlanID    uuid.UUID `db:"plan_id" json:"planId"`
	Name      string    `db:"name" json:"name"`
	StartTime *string   `db:"start_time" json:"startTime,omitempty"`
	EndTime   *string   `db:"end_time" json:"endTime,omitempty"`
	Position  int       `db:"position" json:"position"`
}

// MealItem is one planned consumption of a catalog item and the unit of
// feedback. IsFollowed is nil until feedback is recorded.
type MealItem struct {
	MealID        uuid.UUID `db:"meal_id" json:"mealId"`
	ItemID        uuid.UUID `db:"item_id" json:"itemId"`
	ConsumeAmount int       `db:"consume_amount" json:"consumeAmount"`
	CanChange     bool      `db:"can_change" json:"canChange"`
	IsFollowed    *bool     `db:"is_followed" json:"isFollowed"`
	ChangedItem   *string   `db:"changed_item" json:"changedItem"`
	IsLLM         bool      `db:"is_llm" json:"isLLM"`
	Position      int       `db:"position" json:"position"`
}

// IsCompleted reports whether feedback has been recorded.
func (mi *MealItem) IsCompleted() bool {
	return mi.IsFollowed != nil
}

// Substitute is one food parsed from a MealItem's changedItem, with its
// nutrition at the recorded portion.
type Substitute struct {
	ItemID   uuid.UUID `json:"itemID"`
	Name     string    `json:"name"`
	Grams    int       `json:"grams"`
	Calories int       `json:"calories"`
	Protein  float64   `json:"protein"`
	Carb     float64   `json:"carb"`
	Fat      float64   `json:"fat"`
	Fiber    float64   `json:"fiber"`
}

// ItemView is a MealItem with its nutrition at the planned portion.
type ItemView struct {
	MealID                uuid.UUID    `json:"MealID"`
	ItemID                uuid.UUID    `json:"ItemID"`
	Name                  string       `json:"name"`
	Portion               string       `json:"portion"`
	Calories              int          `json:"calories"`
	ConsumeAmount         int          `json:"consumeAmount"`
	CanChange             bool         `json:"canChange"`
	IsFollowed            *bool        `json:"isFollowed"`
	IsCompleted           bool         `json:"isCompleted"`
	ChangedItem           *string      `json:"changedItem"`
	IsLLM                 bool         `json:"isLLM"`
	Protein               float64      `json:"protein"`
	Carb                  float64      `json:"carb"`
	Fat                   float64      `json:"fat"`
	Fiber                 float64      `json:"fiber"`
	Substitutes           []Substitute `json:"substitutes"`
	UnresolvedSubstitutes []string     `json:"unresolvedSubstitutes"`

	macros   nutrition.Macros
	calories float64
}

// MealView is a meal with its items and totals over the planned items.
type MealView struct {
	MealID        uuid.UUID  `json:"mealID"`
	MealName      string     `json:"mealName"`
	TimeRange     string     `json:"timeRange"`
	StartTime     *string    `json:"startTime"`
	EndTime       *string    `json:"endTime"`
	TotalCalories int        `json:"totalCalories"`
	TotalProtein  float64    `json:"totalProtein"`
	TotalCarb     float64    `json:"totalCarb"`
	TotalFat      float64    `json:"totalFat"`
	TotalFiber    float64    `json:"totalFiber"`
	IsCompleted   bool       `json:"isCompleted"`
	Items         []ItemView `json:"items"`

	macros   nutrition.Macros
	calories float64
}

// Totals are rounded calories and macros.
type Totals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carb     float64 `json:"carb"`
	Fat      float64 `json:"fat"`
}

// add sums two sets of already rounded totals.
func (t Totals) add(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		Protein:  nutrition.Round1(t.Protein + o.Protein),
		Carb:     nutrition.Round1(t.Carb + o.Carb),
		Fat:      nutrition.Round1(t.Fat + o.Fat),
	}
}

// remaining subtracts o from t, clamping each value at zero.
func (t Totals) remaining(o Totals) Totals {
	if o.Calories > t.Calories {
		o.Calories = t.Calories
	}
	return Totals{
		Calories: t.Calories - o.Calories,
		Protein:  nutrition.Round1(math.Max(t.Protein-o.Protein, 0)),
		Carb:     nutrition.Round1(math.Max(t.Carb-o.Carb, 0)),
		Fat:      nutrition.Round1(math.Max(t.Fat-o.Fat, 0)),
	}
}

func (v *MealView) totals() Totals {
	return Totals{Calories: v.TotalCalories, Protein: v.TotalProtein, Carb: v.TotalCarb, Fat: v.TotalFat}
}

func (v *ItemView) totals() Totals {
	return Totals{Calories: v.Calories, Protein: v.Protein, Carb: v.Carb, Fat: v.Fat}
}

// DailyPlan is the full view of one day.
type DailyPlan struct {
	MealPlanID        uuid.UUID  `json:"mealPlanID"`
	ClientID          uuid.UUID  `json:"clientID"`
	PlanDate          string     `json:"planDate"`
	CreatedAt         time.Time  `json:"createdAt"`
	PlanStatus        string     `json:"planStatus"`
	IsPast            bool       `json:"isPast"`
	IsCurrent         bool       `json:"isCurrent"`
	AllMealsCompleted bool       `json:"allMealsCompleted"`
	DailyTotals       Totals     `json:"dailyTotals"`
	Meals             []MealView `json:"meals"`
	MealCount         int        `json:"mealCount"`
}

// Summary compares what was eaten with what was planned for a day.
type Summary struct {
	PlanDate      string   `json:"planDate"`
	Planned       Totals   `json:"planned"`
	Consumed      Totals   `json:"consumed"`
	Remaining     Totals   `json:"remaining"`
	ItemCount     int      `json:"itemCount"`
	FeedbackCount int      `json:"feedbackCount"`
	FollowedCount int      `json:"followedCount"`
	AdherenceRate *float64 `json:"adherenceRate"`
}

// -- Inputs --

// ItemInput is one planned item. Macros are per 100g and only used when the
// item is new to the catalog.
type ItemInput struct {
	Name        string  `json:"name"`
	Amount      int     `json:"amount"`
	AllowChange bool    `json:"allowChange"`
	Protein     float64 `json:"protein"`
	Carb        float64 `json:"carb"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
}

// MealInput is one meal of a plan. Time is "HH:MM-HH:MM"; any other text
// makes the meal flexible.
type MealInput struct {
	Title string      `json:"title"`
	Time  string      `json:"time"`
	Items []ItemInput `json:"items"`
}

// PlanInput is the body of POST /meal-plans.
type PlanInput struct {
	ClientID uuid.UUID   `json:"client_id"`
	Date     string      `json:"date"`
	Meals    []MealInput `json:"meals"`
}

// ChangedItemInput is one structured substitute sent with manual feedback.
type ChangedItemInput struct {
	ItemID   string  `json:"itemID,omitempty"`
	ItemName string  `json:"itemName"`
	Portion  float64 `json:"portion"`
}

// RecommendedFood is the part of an accepted suggestion that is recorded.
// Portion is a string such as "150g" or a bare number of grams.
type RecommendedFood struct {
	Name    string      `json:"name"`
	Portion interface{} `json:"portion"`
}

// AcceptedSuggestion is a suggestion-engine answer the client accepted.
type AcceptedSuggestion struct {
	RecommendedFood *RecommendedFood `json:"recommended_food"`
}
