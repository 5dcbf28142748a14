package nutrition

import (
	"fmt"
	"strings"
	"time"

	"github.com/nutriplan/nutriplan/internal/platform/apperr"
)

// Activity levels accepted on PhysicalDetails.
const (
	ActivitySedentary  = "Sedentary"
	ActivityLight      = "Light"
	ActivityModerate   = "Moderate"
	ActivityActive     = "Active"
	ActivityVeryActive = "Very Active"
)

// defaultActivityMultiplier applies to unrecognized activity levels.
const defaultActivityMultiplier = 1.2

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very active": 1.9,
}

func normalizeActivity(level string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(level), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), " ")
}

// ActivityMultiplier returns the TDEE multiplier for level. Matching ignores
// case and treats spaces, underscores and hyphens alike.
func ActivityMultiplier(level string) float64 {
	if m, ok := activityMultipliers[normalizeActivity(level)]; ok {
		return m
	}
	return defaultActivityMultiplier
}

// CanonicalActivity maps level to one of the Activity* constants.
func CanonicalActivity(level string) (string, bool) {
	switch normalizeActivity(level) {
	case "sedentary":
		return ActivitySedentary, true
	case "light":
		return ActivityLight, true
	case "moderate":
		return ActivityModerate, true
	case "active":
		return ActivityActive, true
	case "very active":
		return ActivityVeryActive, true
	}
	return "", false
}

// LeanBodyMass returns weight*(1-bodyFat/100), or false when bodyFat is
// missing or not positive.
func LeanBodyMass(weight float64, bodyFat *float64) (float64, bool) {
	if bodyFat == nil || *bodyFat <= 0 {
		return 0, false
	}
	return weight * (1 - *bodyFat/100), true
}

// Profile carries the inputs of a TDEE estimate. Nil pointers are missing
// values.
type Profile struct {
	Sex           string
	Age           *int
	Weight        *float64 // kg
	Height        *float64 // cm
	BodyFat       *float64 // percent
	ActivityLevel string
}

// Formula names the BMR equation an Estimate used.
type Formula string

const (
	FormulaKatchMcArdle  Formula = "katch-mcardle"
	FormulaMifflinStJeor Formula = "mifflin-st-jeor"
)

// Estimate is the result of TDEE.
type Estimate struct {
	BMR                float64  `json:"bmr"`
	TDEE               int      `json:"tdee"`
	LeanBodyMass       *float64 `json:"leanBodyMass,omitempty"`
	ActivityMultiplier float64  `json:"activityMultiplier"`
	Formula            Formula  `json:"formula"`
}

// TDEE estimates total daily energy expenditure. Katch–McArdle is used when
// lean body mass can be derived from body fat, Mifflin–St Jeor otherwise.
// Missing sex, age, weight or height yields apperr.ErrIncompleteProfile.
func TDEE(p Profile) (*Estimate, error) {
	var missing []string
	if strings.TrimSpace(p.Sex) == "" {
		missing = append(missing, "sex")
	}
	if p.Age == nil {
		missing = append(missing, "age")
	}
	if p.Weight == nil {
		missing = append(missing, "weight")
	}
	if p.Height == nil {
		missing = append(missing, "height")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", apperr.ErrIncompleteProfile, strings.Join(missing, ", "))
	}

	est := &Estimate{ActivityMultiplier: ActivityMultiplier(p.ActivityLevel)}
	if lbm, ok := LeanBodyMass(*p.Weight, p.BodyFat); ok {
		est.LeanBodyMass = &lbm
		est.BMR = 370 + 21.6*lbm
		est.Formula = FormulaKatchMcArdle
	} else {
		est.BMR = 10**p.Weight + 6.25**p.Height - 5*float64(*p.Age)
		if IsMale(p.Sex) {
			est.BMR += 5
		} else {
			est.BMR -= 161
		}
		est.Formula = FormulaMifflinStJeor
	}
	est.TDEE = RoundKcal(est.BMR * est.ActivityMultiplier)
	return est, nil
}

// IsMale reports whether sex denotes male ("male", "m", any case).
func IsMale(sex string) bool {
	switch strings.ToLower(strings.TrimSpace(sex)) {
	case "male", "m":
		return true
	}
	return false
}

// Age returns whole years between dob and today, one less if the birthday
// has not yet occurred this year.
func Age(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}
