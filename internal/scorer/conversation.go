package scorer

import "github.com/sells-group/vetting-cli/internal/model"

// Clarity points per confidence category. Presence with a vague value is
// worth half a clear answer; unknown is worth nothing.
const (
	clearPoints = 100.0
	vaguePoints = 50.0
)

// ConversationScore grades how much qualification signal the conversation
// itself produced. The base is the average clarity across the required
// fields; a handful of high-intent field values then shift the result, so a
// fully-answered transcript from a decisive, urgent buyer outranks an
// equally complete one from a window shopper.
func ConversationScore(fe model.FieldExtraction) float64 {
	required := model.RequiredFieldKeys()

	var total float64
	for _, k := range required {
		switch fe.Get(k).Confidence {
		case model.ConfidenceClear:
			total += clearPoints
		case model.ConfidenceVague:
			total += vaguePoints
		}
	}
	score := total / float64(len(required))

	score += intentAdjustment(fe)

	return clamp(score)
}

// intentAdjustment rewards buying signals and penalizes browsing signals.
// Adjustments are small relative to the clarity base so they reorder
// prospects within a band rather than jumping bands on a single keyword.
func intentAdjustment(fe model.FieldExtraction) float64 {
	var adj float64

	switch fe.Get(model.FieldBusinessUrgency).Value {
	case "immediate":
		adj += 10
	case "this_quarter":
		adj += 5
	case "exploring":
		adj -= 10
	}

	switch fe.Get(model.FieldDecisionRole).Value {
	case "sole_decision_maker":
		adj += 10
	case "researcher":
		adj -= 10
	}

	switch fe.Get(model.FieldBudgetStatus).Value {
	case "approved":
		adj += 10
	case "none":
		adj -= 10
	}

	return adj
}
