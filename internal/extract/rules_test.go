package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/model"
)

func TestApplyRulesConstructionApprovedBudget(t *testing.T) {
	fe := applyRules("We have 200 construction workers and the budget is approved, $75k set aside for this")

	industry := fe.Get(model.FieldIndustry)
	assert.Equal(t, "construction", industry.Value)
	assert.Equal(t, model.ConfidenceClear, industry.Confidence)

	status := fe.Get(model.FieldBudgetStatus)
	assert.Equal(t, "approved", status.Value)
	assert.Equal(t, model.ConfidenceClear, status.Confidence)

	assert.Equal(t, "75000", fe.Get(model.FieldBudgetAmount).Value)
	assert.Equal(t, "200", fe.Get(model.FieldTeamSize).Value)
}

func TestApplyRulesCEOExploring(t *testing.T) {
	fe := applyRules("I am the CEO and we are exploring new technologies")

	jf := fe.Get(model.FieldJobFunction)
	assert.Equal(t, "c_level", jf.Value)
	assert.Equal(t, model.ConfidenceClear, jf.Confidence)

	assert.Equal(t, "exploring", fe.Get(model.FieldBudgetStatus).Value)
	assert.Equal(t, "exploring", fe.Get(model.FieldBusinessUrgency).Value)
}

func TestApplyRulesPrecedence(t *testing.T) {
	// "customer support" must win over the bare "support" rule.
	fe := applyRules("we are drowning in customer support tickets")
	pt := fe.Get(model.FieldProblemType)
	assert.Equal(t, "customer_support", pt.Value)
	assert.Equal(t, model.ConfidenceClear, pt.Confidence)

	// Bare "support" falls through to the generic rule.
	fe = applyRules("we need better support")
	pt = fe.Get(model.FieldProblemType)
	assert.Equal(t, "general_service", pt.Value)
	assert.Equal(t, model.ConfidenceVague, pt.Confidence)
}

func TestApplyRulesFirstMatchPerFieldWins(t *testing.T) {
	// Both the approved and the exploring markers fire; table order makes
	// approved win.
	fe := applyRules("the budget is approved but we are still exploring vendors")
	assert.Equal(t, "approved", fe.Get(model.FieldBudgetStatus).Value)
}

func TestApplyRulesUnmatchedStaysUnknown(t *testing.T) {
	fe := applyRules("hello there")
	for _, k := range model.AllFieldKeys() {
		assert.Equal(t, model.ConfidenceUnknown, fe.Get(k).Confidence, string(k))
	}
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"75k", "75000"},
		{"1.5m", "1500000"},
		{"2 million", "2000000"},
		{"50 thousand", "50000"},
		{"5,000", "5000"},
		{"120000", "120000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeAmount(tt.in), tt.in)
	}
}

func TestBudgetAmountCapture(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"we have $75k approved", "75000"},
		{"around $1.5 million total", "1500000"},
		{"roughly $5,000 per month", "5000"},
	}
	for _, tt := range tests {
		fe := applyRules(tt.text)
		assert.Equal(t, tt.want, fe.Get(model.FieldBudgetAmount).Value, tt.text)
	}
}

func TestRuleTableValuesInDomain(t *testing.T) {
	// Every static rule value must be legal for its field, so the fallback
	// domain check can never reject a rule-layer result.
	for _, rule := range ruleTable {
		if rule.Pattern != nil {
			continue
		}
		require.NotEmpty(t, rule.Value)
		assert.True(t, InDomain(rule.Field, rule.Value),
			"field %s value %s", rule.Field, rule.Value)
	}
}

func TestInDomain(t *testing.T) {
	assert.True(t, InDomain(model.FieldIndustry, "construction"))
	assert.False(t, InDomain(model.FieldIndustry, "space_mining"))
	// Numeric-capture fields accept anything.
	assert.True(t, InDomain(model.FieldBudgetAmount, "123456"))
	assert.True(t, InDomain(model.FieldTeamSize, "7"))
}

func TestBudgetSignals(t *testing.T) {
	status, amount := BudgetSignals("the budget is approved, $75K allocated")
	assert.Equal(t, "approved", status)
	assert.Equal(t, 75000.0, amount)

	status, amount = BudgetSignals("just window shopping for now")
	assert.Equal(t, "exploring", status)
	assert.Zero(t, amount)

	status, amount = BudgetSignals("nothing relevant here")
	assert.Empty(t, status)
	assert.Zero(t, amount)
}
