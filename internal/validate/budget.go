package validate

import (
	"math"

	"github.com/sells-group/vetting-cli/internal/extract"
	"github.com/sells-group/vetting-cli/internal/model"
)

// sizeBand maps a headcount ceiling to an annual automation-budget range in
// USD. Bands come from observed deal sizes, scaled per industry below.
type sizeBand struct {
	maxEmployees int
	low, high    float64
}

var sizeBands = []sizeBand{
	{10, 2_000, 25_000},
	{50, 10_000, 75_000},
	{200, 25_000, 250_000},
	{1000, 75_000, 1_000_000},
	{math.MaxInt, 200_000, 5_000_000},
}

// industryBudgetMultiplier scales the benchmark band. Industries that spend
// heavily on tooling sit above 1.0.
var industryBudgetMultiplier = map[string]float64{
	"technology":   1.5,
	"finance":      1.3,
	"healthcare":   1.2,
	"legal":        1.1,
	"construction": 0.8,
	"hospitality":  0.7,
	"retail":       0.9,
}

// defaultEmployeeCount is assumed when the profile carries no headcount.
const defaultEmployeeCount = 25

// BudgetAssessor grades how realistic the prospect's stated budget is for a
// company of their size and industry. It is deliberately skeptical: claimed
// figures wildly outside the benchmark band lower the score whether they are
// too high or too low.
type BudgetAssessor struct{}

// NewBudgetAssessor creates a BudgetAssessor.
func NewBudgetAssessor() *BudgetAssessor {
	return &BudgetAssessor{}
}

// Assess derives budget signals from the conversation and grades them
// against the company profile. An empty conversation is the one hard
// failure: there is nothing to assess.
func (b *BudgetAssessor) Assess(conversation []model.ConversationTurn, profile model.CompanyProfile) model.ValidatorOutcome {
	if len(conversation) == 0 {
		return model.FailedOutcome(model.ValidatorBudget, model.FailureNoConversation)
	}

	status, amount := extract.BudgetSignals(model.UserText(conversation))
	category := budgetCategoryOf(status)

	low, high := BenchmarkBand(profile.Industry, profile.EmployeeCount)

	detail := model.BudgetDetail{
		Category:      category,
		ClaimedAmount: amount,
		BenchmarkLow:  low,
		BenchmarkHigh: high,
		RealismScore:  realismScore(category, amount, low, high),
	}

	return model.ValidatorOutcome{
		Name:   model.ValidatorBudget,
		Status: model.OutcomeOK,
		Score:  detail.RealismScore,
		Budget: &detail,
	}
}

// BenchmarkBand returns the expected annual budget range for a company of
// the given industry and size.
func BenchmarkBand(industry string, employeeCount int) (low, high float64) {
	if employeeCount <= 0 {
		employeeCount = defaultEmployeeCount
	}

	var band sizeBand
	for _, b := range sizeBands {
		if employeeCount <= b.maxEmployees {
			band = b
			break
		}
	}

	mult, ok := industryBudgetMultiplier[industry]
	if !ok {
		mult = 1.0
	}
	return band.low * mult, band.high * mult
}

// realismScore applies the skeptical grading. Stage sets the base; a stated
// figure then moves the score by how plausible it is for the benchmark band.
func realismScore(category model.BudgetCategory, amount, low, high float64) float64 {
	var base float64
	switch category {
	case model.BudgetApproved:
		base = 70
	case model.BudgetInPlanning:
		base = 55
	case model.BudgetExploring:
		base = 40
	default:
		base = 25
	}

	if amount <= 0 {
		// A stage claim with no figure is unverifiable.
		return math.Max(15, base-15)
	}

	switch {
	case amount >= low && amount <= high:
		return math.Min(95, base+25)
	case amount >= low/3 && amount <= high*3:
		return base
	default:
		return math.Max(10, base-30)
	}
}

// budgetCategoryOf maps the extraction-layer budget-status value onto the
// assessor's category set. "none" and unrecognized values both land on
// unknown; the stage base handles the difference in score terms elsewhere.
func budgetCategoryOf(status string) model.BudgetCategory {
	switch status {
	case "approved":
		return model.BudgetApproved
	case "in_planning":
		return model.BudgetInPlanning
	case "exploring":
		return model.BudgetExploring
	default:
		return model.BudgetUnknown
	}
}
