package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/vetting-cli/internal/model"
)

func allClearExtraction() model.FieldExtraction {
	fe := model.NewFieldExtraction()
	for _, k := range model.RequiredFieldKeys() {
		fe[k] = model.FieldValue{Value: "x", Confidence: model.ConfidenceClear}
	}
	return fe
}

func TestAssessComplete(t *testing.T) {
	res := Assess(allClearExtraction())

	assert.True(t, res.IsComplete)
	assert.Equal(t, 100, res.CompletenessScore)
	assert.Empty(t, res.MissingFields)
	assert.Empty(t, res.UnclearFields)
}

func TestAssessMissingField(t *testing.T) {
	fe := allClearExtraction()
	fe[model.FieldBudgetStatus] = model.FieldValue{Confidence: model.ConfidenceUnknown}

	res := Assess(fe)
	assert.False(t, res.IsComplete)
	assert.Equal(t, []model.FieldKey{model.FieldBudgetStatus}, res.MissingFields)
	assert.Empty(t, res.UnclearFields)
	// Score counts presence only: 5 of 6 present.
	assert.Equal(t, 83, res.CompletenessScore)
}

func TestAssessVagueFieldBlocksCompletion(t *testing.T) {
	// A present-but-vague field keeps the score at 100 yet still blocks
	// completion.
	fe := allClearExtraction()
	fe[model.FieldIndustry] = model.FieldValue{Value: "other", Confidence: model.ConfidenceVague}

	res := Assess(fe)
	assert.False(t, res.IsComplete)
	assert.Equal(t, 100, res.CompletenessScore)
	assert.Empty(t, res.MissingFields)
	assert.Equal(t, []model.FieldKey{model.FieldIndustry}, res.UnclearFields)
}

func TestAssessEmptyExtraction(t *testing.T) {
	res := Assess(model.NewFieldExtraction())

	assert.False(t, res.IsComplete)
	assert.Equal(t, 0, res.CompletenessScore)
	assert.Len(t, res.MissingFields, len(model.RequiredFieldKeys()))
}

func TestAssessCompleteInvariant(t *testing.T) {
	// isComplete holds exactly when both lists are empty, across every
	// single-field degradation.
	for _, k := range model.RequiredFieldKeys() {
		for _, conf := range []model.Confidence{model.ConfidenceClear, model.ConfidenceVague, model.ConfidenceUnknown} {
			fe := allClearExtraction()
			fe[k] = model.FieldValue{Value: "x", Confidence: conf}

			res := Assess(fe)
			wantComplete := conf == model.ConfidenceClear
			assert.Equal(t, wantComplete, res.IsComplete, "%s/%s", k, conf)
			assert.Equal(t, wantComplete, len(res.MissingFields) == 0 && len(res.UnclearFields) == 0)
		}
	}
}

func TestAssessIgnoresOptionalFields(t *testing.T) {
	// Optional fields never appear in the missing/unclear lists.
	fe := allClearExtraction()
	fe[model.FieldTeamSize] = model.FieldValue{Confidence: model.ConfidenceUnknown}
	fe[model.FieldTechCapability] = model.FieldValue{Value: "basic", Confidence: model.ConfidenceVague}

	res := Assess(fe)
	assert.True(t, res.IsComplete)
}
