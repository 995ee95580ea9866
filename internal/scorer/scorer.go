// Package scorer combines the conversation-derived readiness signal with the
// validator outcomes into one weighted score, category, and confidence level.
// Scoring is a pure function: same signals in, same snapshot fields out.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/model"
)

// NeutralScore substitutes for any signal that is absent or whose validator
// failed. Using the same constant everywhere keeps the 0-100 scale stable
// across runs with differing validator availability.
const NeutralScore = 50.0

// Weights holds the per-signal weight of the composite score.
type Weights struct {
	Conversation float64
	Website      float64
	Identity     float64
	Budget       float64
	Behavioral   float64
}

// DefaultWeights returns the production weighting. Weights sum to 100.
// The behavioral slot has no live signal yet and always scores neutral.
func DefaultWeights() Weights {
	return Weights{
		Conversation: 40,
		Website:      20,
		Identity:     20,
		Budget:       10,
		Behavioral:   10,
	}
}

// WeightSum returns the sum of all signal weights.
func WeightSum(w Weights) float64 {
	return w.Conversation + w.Website + w.Identity + w.Budget + w.Behavioral
}

// ValidateWeights checks that a Weights is internally consistent.
func ValidateWeights(w Weights) error {
	var errs []string

	named := map[string]float64{
		"conversation_weight": w.Conversation,
		"website_weight":      w.Website,
		"identity_weight":     w.Identity,
		"budget_weight":       w.Budget,
		"behavioral_weight":   w.Behavioral,
	}
	for name, v := range named {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := WeightSum(w)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	if math.Abs(sum-100) > 1 {
		errs = append(errs, fmt.Sprintf("weights should sum to 100, got %.1f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// threshold maps a closed lower bound to a category. Tables are ordered by
// descending bound and terminate with a zero bound, so every score in
// [0,100] lands in exactly one bucket.
type threshold struct {
	min float64
	cat model.Category
}

var standardThresholds = []threshold{
	{80, model.CategoryHot},
	{65, model.CategoryWarm},
	{45, model.CategoryCool},
	{0, model.CategoryCold},
}

// conversationOnlyThresholds lowers the WARM floor for the intake flow,
// where only the conversation signal is available and scores run cooler.
var conversationOnlyThresholds = []threshold{
	{80, model.CategoryHot},
	{60, model.CategoryWarm},
	{45, model.CategoryCool},
	{0, model.CategoryCold},
}

// Categorize maps a final score onto its category bucket.
func Categorize(score float64, conversationOnly bool) model.Category {
	table := standardThresholds
	if conversationOnly {
		table = conversationOnlyThresholds
	}
	for _, t := range table {
		if score >= t.min {
			return t.cat
		}
	}
	return model.CategoryCold
}

// ConfidenceOf maps a final score onto a confidence level.
func ConfidenceOf(score float64) model.ConfidenceLevel {
	switch {
	case score >= 70:
		return model.ConfidenceHigh
	case score < 40:
		return model.ConfidenceLow
	default:
		return model.ConfidenceMedium
	}
}

// Result carries the snapshot fields the scorer is responsible for.
type Result struct {
	FinalScore      float64
	Category        model.Category
	ConfidenceLevel model.ConfidenceLevel
	Signals         model.SignalScores
}

// Score combines the conversation readiness score with the validator
// outcomes. Failed or absent validators contribute NeutralScore at their
// full weight; they are never excluded from the sum.
func Score(w Weights, conversationScore float64, outcomes []model.ValidatorOutcome) Result {
	signals := model.SignalScores{
		Conversation: clamp(conversationScore),
		Website:      NeutralScore,
		Identity:     NeutralScore,
		Budget:       NeutralScore,
		Behavioral:   NeutralScore,
	}

	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		switch o.Name {
		case model.ValidatorWebsite:
			signals.Website = clamp(o.Score)
		case model.ValidatorIdentity:
			signals.Identity = clamp(o.Score)
		case model.ValidatorBudget:
			signals.Budget = clamp(o.Score)
		}
	}

	sum := WeightSum(w)
	final := (signals.Conversation*w.Conversation +
		signals.Website*w.Website +
		signals.Identity*w.Identity +
		signals.Budget*w.Budget +
		signals.Behavioral*w.Behavioral) / sum

	return Result{
		FinalScore:      final,
		Category:        Categorize(final, false),
		ConfidenceLevel: ConfidenceOf(final),
		Signals:         signals,
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
