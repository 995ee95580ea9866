package extract

import "github.com/sells-group/vetting-cli/internal/model"

// Assess checks an extraction against the required-field list. Presence and
// clarity are checked separately: a field can be present with a vague value
// and still block completion. The completeness score counts presence only.
func Assess(fe model.FieldExtraction) model.CompletenessResult {
	required := model.RequiredFieldKeys()

	var missing, unclear []model.FieldKey
	for _, k := range required {
		v := fe.Get(k)
		switch v.Confidence {
		case model.ConfidenceUnknown:
			missing = append(missing, k)
		case model.ConfidenceVague:
			unclear = append(unclear, k)
		}
	}

	return model.CompletenessResult{
		IsComplete:        len(missing) == 0 && len(unclear) == 0,
		CompletenessScore: 100 * (len(required) - len(missing)) / len(required),
		MissingFields:     missing,
		UnclearFields:     unclear,
	}
}
