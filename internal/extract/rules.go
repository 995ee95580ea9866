package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/vetting-cli/internal/model"
)

// Rule binds a keyword set (or regex) to a field value. Rules are evaluated
// in table order against the lower-cased concatenation of user turns; the
// first rule that fires for a field wins, so specific rules must precede
// generic ones (e.g. "customer support" before the bare "support" rule).
type Rule struct {
	Field      model.FieldKey
	Keywords   []string       // any-substring match; ignored when Pattern is set
	Pattern    *regexp.Regexp // optional; first capture group becomes the value
	Value      string         // static value; empty when Pattern captures
	Confidence model.Confidence
	Transform  func(match string) string // optional capture normalization
}

// Match reports whether the rule fires on text and returns the value.
func (r Rule) Match(text string) (string, bool) {
	if r.Pattern != nil {
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		val := r.Value
		if len(m) > 1 {
			val = m[1]
		}
		if r.Transform != nil {
			val = r.Transform(val)
		}
		return val, true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return r.Value, true
		}
	}
	return "", false
}

var (
	budgetAmountRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?\s*(?:k|m|thousand|million)?)\b`)
	// Allows one intervening word so "200 construction workers" still
	// captures the headcount.
	teamSizeRe = regexp.MustCompile(`([0-9][0-9,]*)\s+(?:[a-z-]+\s+)?(?:employees|workers|people|staff|technicians|agents)`)
)

// normalizeAmount converts a captured dollar figure ("75k", "1.5 million")
// into a canonical integer string in USD. Rule text is already lower-cased.
func normalizeAmount(match string) string {
	s := strings.ReplaceAll(match, ",", "")

	mult := 1.0
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.Contains(trimmed, "million") || strings.HasSuffix(trimmed, "m"):
		mult = 1_000_000
	case strings.Contains(trimmed, "thousand") || strings.HasSuffix(trimmed, "k"):
		mult = 1_000
	}
	s = strings.NewReplacer("million", "", "thousand", "", "k", "", "m", "").Replace(s)

	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return match
	}
	return strconv.FormatFloat(n*mult, 'f', -1, 64)
}

// normalizeCount strips thousands separators from a captured headcount.
func normalizeCount(match string) string {
	return strings.ReplaceAll(match, ",", "")
}

// ruleTable is the ordered extraction table. Order is load-bearing within
// each field: the first firing rule wins.
var ruleTable = []Rule{
	// problem_type — specific services before the generic "support" rule.
	{Field: model.FieldProblemType, Keywords: []string{"customer support", "support tickets", "help desk", "customer service"}, Value: "customer_support", Confidence: model.ConfidenceClear},
	{Field: model.FieldProblemType, Keywords: []string{"lead generation", "more leads", "generate leads", "sales pipeline", "find customers"}, Value: "lead_generation", Confidence: model.ConfidenceClear},
	{Field: model.FieldProblemType, Keywords: []string{"scheduling", "appointments", "booking", "dispatch"}, Value: "scheduling", Confidence: model.ConfidenceClear},
	{Field: model.FieldProblemType, Keywords: []string{"invoicing", "billing", "payments", "collections"}, Value: "billing", Confidence: model.ConfidenceClear},
	{Field: model.FieldProblemType, Keywords: []string{"data entry", "manual entry", "paperwork", "back office"}, Value: "back_office", Confidence: model.ConfidenceClear},
	{Field: model.FieldProblemType, Keywords: []string{"support"}, Value: "general_service", Confidence: model.ConfidenceVague},
	{Field: model.FieldProblemType, Keywords: []string{"automate", "automation", "streamline"}, Value: "process_automation", Confidence: model.ConfidenceVague},

	// industry
	{Field: model.FieldIndustry, Keywords: []string{"construction", "contractor", "builders", "roofing", "plumbing contractor"}, Value: "construction", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"healthcare", "clinic", "medical practice", "dental", "hospital"}, Value: "healthcare", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"law firm", "legal services", "attorney", "paralegal"}, Value: "legal", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"manufacturing", "factory", "assembly line"}, Value: "manufacturing", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"retail", "ecommerce", "e-commerce", "online store"}, Value: "retail", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"accounting", "bookkeeping", "financial services", "wealth management"}, Value: "finance", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"logistics", "trucking", "freight", "warehouse"}, Value: "logistics", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"real estate", "property management", "realtor"}, Value: "real_estate", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"restaurant", "hotel", "hospitality", "catering"}, Value: "hospitality", Confidence: model.ConfidenceClear},
	{Field: model.FieldIndustry, Keywords: []string{"software company", "saas", "tech startup", "it services"}, Value: "technology", Confidence: model.ConfidenceClear},

	// job_function
	{Field: model.FieldJobFunction, Keywords: []string{"ceo", "cto", "cfo", "coo", "chief executive", "chief technology", "founder", "president"}, Value: "c_level", Confidence: model.ConfidenceClear},
	{Field: model.FieldJobFunction, Keywords: []string{"owner", "my company", "my business"}, Value: "c_level", Confidence: model.ConfidenceVague},
	{Field: model.FieldJobFunction, Keywords: []string{"vice president", "vp of", "director of", "head of"}, Value: "vp_director", Confidence: model.ConfidenceClear},
	{Field: model.FieldJobFunction, Keywords: []string{"manager", "team lead", "supervisor"}, Value: "manager", Confidence: model.ConfidenceClear},
	{Field: model.FieldJobFunction, Keywords: []string{"analyst", "coordinator", "specialist", "consultant"}, Value: "individual_contributor", Confidence: model.ConfidenceVague},

	// decision_role
	{Field: model.FieldDecisionRole, Keywords: []string{"i decide", "i make the decision", "final say", "my call", "i sign off", "i approve"}, Value: "sole_decision_maker", Confidence: model.ConfidenceClear},
	{Field: model.FieldDecisionRole, Keywords: []string{"board approval", "we decide together", "my partner and i", "committee", "need sign-off"}, Value: "shared_decision", Confidence: model.ConfidenceClear},
	{Field: model.FieldDecisionRole, Keywords: []string{"my boss", "my manager decides", "i recommend", "i'll present this"}, Value: "influencer", Confidence: model.ConfidenceClear},
	{Field: model.FieldDecisionRole, Keywords: []string{"just researching", "gathering information", "comparing options"}, Value: "researcher", Confidence: model.ConfidenceVague},
	{Field: model.FieldDecisionRole, Keywords: []string{"owner", "founder", "ceo"}, Value: "sole_decision_maker", Confidence: model.ConfidenceVague},

	// solution_preference
	{Field: model.FieldSolutionPreference, Keywords: []string{"done for us", "handle everything", "managed service", "turnkey", "full service", "you build it"}, Value: "full_service", Confidence: model.ConfidenceClear},
	{Field: model.FieldSolutionPreference, Keywords: []string{"ourselves", "in-house", "our own team", "diy", "self-serve", "self service"}, Value: "self_serve", Confidence: model.ConfidenceClear},
	{Field: model.FieldSolutionPreference, Keywords: []string{"mix of both", "some help", "partially managed", "hybrid"}, Value: "hybrid", Confidence: model.ConfidenceClear},

	// implementation_capacity
	{Field: model.FieldImplementationCapacity, Keywords: []string{"have developers", "it team", "technical team", "engineers on staff", "dev team"}, Value: "has_team", Confidence: model.ConfidenceClear},
	{Field: model.FieldImplementationCapacity, Keywords: []string{"not technical", "no technical", "no it staff", "need help implementing", "no developers"}, Value: "needs_help", Confidence: model.ConfidenceClear},

	// business_urgency
	{Field: model.FieldBusinessUrgency, Keywords: []string{"asap", "immediately", "right away", "urgent", "this month", "losing money every day"}, Value: "immediate", Confidence: model.ConfidenceClear},
	{Field: model.FieldBusinessUrgency, Keywords: []string{"this quarter", "next few months", "within three months"}, Value: "this_quarter", Confidence: model.ConfidenceClear},
	{Field: model.FieldBusinessUrgency, Keywords: []string{"this year", "by end of year", "within the year"}, Value: "this_year", Confidence: model.ConfidenceClear},
	{Field: model.FieldBusinessUrgency, Keywords: []string{"just looking", "no rush", "someday", "exploring", "early stages"}, Value: "exploring", Confidence: model.ConfidenceClear},
	{Field: model.FieldBusinessUrgency, Keywords: []string{"soon", "eventually"}, Value: "this_year", Confidence: model.ConfidenceVague},

	// budget_status — approved must outrank the exploring markers so that
	// "budget approved, still exploring vendors" reads as approved.
	{Field: model.FieldBudgetStatus, Keywords: []string{"approved", "budget allocated", "budget in place", "budget set aside", "signed off on the budget"}, Value: "approved", Confidence: model.ConfidenceClear},
	{Field: model.FieldBudgetStatus, Keywords: []string{"budgeting for", "planning the budget", "requesting budget", "next year's budget", "putting together a budget"}, Value: "in_planning", Confidence: model.ConfidenceClear},
	{Field: model.FieldBudgetStatus, Keywords: []string{"no budget yet", "exploring", "just looking", "early stages", "window shopping"}, Value: "exploring", Confidence: model.ConfidenceClear},
	{Field: model.FieldBudgetStatus, Keywords: []string{"no budget", "can't afford", "too expensive for us"}, Value: "none", Confidence: model.ConfidenceClear},
	{Field: model.FieldBudgetStatus, Keywords: []string{"budget"}, Value: "in_planning", Confidence: model.ConfidenceVague},

	// budget_amount / team_size — numeric captures.
	{Field: model.FieldBudgetAmount, Pattern: budgetAmountRe, Confidence: model.ConfidenceClear, Transform: normalizeAmount},
	{Field: model.FieldTeamSize, Pattern: teamSizeRe, Confidence: model.ConfidenceClear, Transform: normalizeCount},

	// tech_capability
	{Field: model.FieldTechCapability, Keywords: []string{"api", "integrations", "our engineers", "in-house dev", "webhooks"}, Value: "advanced", Confidence: model.ConfidenceClear},
	{Field: model.FieldTechCapability, Keywords: []string{"excel", "spreadsheets", "basic tools", "google sheets"}, Value: "basic", Confidence: model.ConfidenceClear},
	{Field: model.FieldTechCapability, Keywords: []string{"not tech savvy", "no technical experience", "pen and paper"}, Value: "none", Confidence: model.ConfidenceClear},
}

// fieldDomains enumerates the legal values per field. Numeric-capture fields
// (budget_amount, team_size) are exempt; their values are canonical numbers.
var fieldDomains = map[model.FieldKey][]string{
	model.FieldProblemType:            {"customer_support", "lead_generation", "scheduling", "billing", "back_office", "general_service", "process_automation"},
	model.FieldIndustry:               {"construction", "healthcare", "legal", "manufacturing", "retail", "finance", "logistics", "real_estate", "hospitality", "technology", "other"},
	model.FieldJobFunction:            {"c_level", "vp_director", "manager", "individual_contributor"},
	model.FieldDecisionRole:           {"sole_decision_maker", "shared_decision", "influencer", "researcher"},
	model.FieldSolutionPreference:     {"full_service", "self_serve", "hybrid"},
	model.FieldImplementationCapacity: {"has_team", "needs_help"},
	model.FieldBusinessUrgency:        {"immediate", "this_quarter", "this_year", "exploring"},
	model.FieldBudgetStatus:           {"approved", "in_planning", "exploring", "none"},
	model.FieldTechCapability:         {"advanced", "basic", "none"},
}

// InDomain reports whether value is legal for field. Numeric-capture fields
// accept any value the capture produced.
func InDomain(field model.FieldKey, value string) bool {
	domain, ok := fieldDomains[field]
	if !ok {
		return true
	}
	for _, v := range domain {
		if v == value {
			return true
		}
	}
	return false
}

// BudgetSignals runs the rule table over raw conversation text and returns
// just the budget signals: the detected budget-status value ("" when none)
// and the claimed amount in USD (0 when no figure was stated).
func BudgetSignals(text string) (status string, amount float64) {
	fe := applyRules(text)
	status = fe.Get(model.FieldBudgetStatus).Value
	if raw := fe.Get(model.FieldBudgetAmount).Value; raw != "" {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			amount = n
		}
	}
	return status, amount
}

// applyRules evaluates the rule table against lower-cased user text and
// returns the extraction from the rule layer alone.
func applyRules(userText string) model.FieldExtraction {
	text := strings.ToLower(userText)
	fe := model.NewFieldExtraction()

	for _, rule := range ruleTable {
		if fe.Known(rule.Field) {
			continue // first matching rule per field wins
		}
		if val, ok := rule.Match(text); ok {
			fe[rule.Field] = model.FieldValue{Value: val, Confidence: rule.Confidence}
		}
	}
	return fe
}
