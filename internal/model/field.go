package model

// FieldKey names one structured qualification field extracted from a
// conversation. The set is fixed; extraction never invents new keys.
type FieldKey string

const (
	FieldProblemType            FieldKey = "problem_type"
	FieldIndustry               FieldKey = "industry"
	FieldJobFunction            FieldKey = "job_function"
	FieldDecisionRole           FieldKey = "decision_role"
	FieldSolutionPreference     FieldKey = "solution_preference"
	FieldImplementationCapacity FieldKey = "implementation_capacity"
	FieldBusinessUrgency        FieldKey = "business_urgency"
	FieldBudgetStatus           FieldKey = "budget_status"
	FieldBudgetAmount           FieldKey = "budget_amount"
	FieldTeamSize               FieldKey = "team_size"
	FieldTechCapability         FieldKey = "tech_capability"
)

// AllFieldKeys returns every extractable field in a stable order.
func AllFieldKeys() []FieldKey {
	return []FieldKey{
		FieldProblemType,
		FieldIndustry,
		FieldJobFunction,
		FieldDecisionRole,
		FieldSolutionPreference,
		FieldImplementationCapacity,
		FieldBusinessUrgency,
		FieldBudgetStatus,
		FieldBudgetAmount,
		FieldTeamSize,
		FieldTechCapability,
	}
}

// RequiredFieldKeys returns the fields a conversation must establish with
// clear confidence before qualification is considered complete.
func RequiredFieldKeys() []FieldKey {
	return []FieldKey{
		FieldProblemType,
		FieldIndustry,
		FieldSolutionPreference,
		FieldBusinessUrgency,
		FieldDecisionRole,
		FieldBudgetStatus,
	}
}

// Confidence categorizes how unambiguous an extracted field value is.
type Confidence string

const (
	ConfidenceClear   Confidence = "clear"
	ConfidenceVague   Confidence = "vague"
	ConfidenceUnknown Confidence = "unknown"
)

// FieldValue pairs an extracted value with its confidence category. A field
// with ConfidenceUnknown always has an empty value.
type FieldValue struct {
	Value      string     `json:"value,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// FieldExtraction maps every field key to its extracted value. It is
// re-derived from the full transcript on each turn, never patched in place,
// so a later clarification overwrites an earlier vague guess.
type FieldExtraction map[FieldKey]FieldValue

// NewFieldExtraction returns an extraction with every field unknown.
func NewFieldExtraction() FieldExtraction {
	fe := make(FieldExtraction, len(AllFieldKeys()))
	for _, k := range AllFieldKeys() {
		fe[k] = FieldValue{Confidence: ConfidenceUnknown}
	}
	return fe
}

// Get returns the value for key, defaulting to unknown for absent keys.
func (fe FieldExtraction) Get(key FieldKey) FieldValue {
	if v, ok := fe[key]; ok {
		return v
	}
	return FieldValue{Confidence: ConfidenceUnknown}
}

// Known reports whether key was extracted with any confidence above unknown.
func (fe FieldExtraction) Known(key FieldKey) bool {
	return fe.Get(key).Confidence != ConfidenceUnknown
}

// CompletenessResult reports whether an extraction satisfies the required
// field set. IsComplete holds exactly when both MissingFields and
// UnclearFields are empty.
type CompletenessResult struct {
	IsComplete        bool       `json:"is_complete"`
	CompletenessScore int        `json:"completeness_score"` // 0-100, presence only
	MissingFields     []FieldKey `json:"missing_fields,omitempty"`
	UnclearFields     []FieldKey `json:"unclear_fields,omitempty"`
}
