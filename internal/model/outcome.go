package model

import "time"

// ValidatorName identifies one of the independent external validators.
type ValidatorName string

const (
	ValidatorWebsite  ValidatorName = "website"
	ValidatorIdentity ValidatorName = "identity"
	ValidatorBudget   ValidatorName = "budget"
)

// OutcomeStatus tags a ValidatorOutcome as success or failure.
type OutcomeStatus string

const (
	OutcomeOK     OutcomeStatus = "ok"
	OutcomeFailed OutcomeStatus = "failed"
)

// Well-known failure reasons. Validators use these instead of coercing a
// failure to a default score; the scorer substitutes neutral weight later.
const (
	FailureTimeout        = "timeout"
	FailureUpstream       = "upstream_error"
	FailureNoConversation = "no_conversation"
	FailureNoDomain       = "no_domain"
	FailureNoContact      = "no_contact"
	FailureUnreachable    = "unreachable"
	FailureBlocked        = "blocked"
)

// ValidatorOutcome is the tagged result of one validator run: either
// Ok(score, details) or Failed(reason). Exactly one of the detail pointers
// is set on success, matching Name.
type ValidatorOutcome struct {
	Name     ValidatorName        `json:"name"`
	Status   OutcomeStatus        `json:"status"`
	Score    float64              `json:"score,omitempty"` // 0-100 on success
	Reason   string               `json:"reason,omitempty"`
	Website  *WebsiteIntelligence `json:"website,omitempty"`
	Identity *IdentityDetail      `json:"identity,omitempty"`
	Budget   *BudgetDetail        `json:"budget,omitempty"`
}

// OK reports whether the outcome is a success.
func (o ValidatorOutcome) OK() bool {
	return o.Status == OutcomeOK
}

// FailedOutcome builds a failure outcome for the named validator.
func FailedOutcome(name ValidatorName, reason string) ValidatorOutcome {
	return ValidatorOutcome{Name: name, Status: OutcomeFailed, Reason: reason}
}

// WebsiteIntelligence is the structured summary derived from a company's
// website content, from which the legitimacy score is computed.
type WebsiteIntelligence struct {
	Domain           string   `json:"domain"`
	Description      string   `json:"description,omitempty"`
	HasContactInfo   bool     `json:"has_contact_info"`
	HasTeamPage      bool     `json:"has_team_page"`
	HasServicesPage  bool     `json:"has_services_page"`
	HasBlog          bool     `json:"has_blog"`
	ParkedOrThin     bool     `json:"parked_or_thin"`
	TechSignals      []string `json:"tech_signals,omitempty"`
	IndustryGuess    string   `json:"industry_guess,omitempty"`
	EmployeeEstimate int      `json:"employee_estimate,omitempty"`
}

// DomainCacheEntry is a cached website analysis keyed by normalized domain.
// It is valid only while now - AnalyzedAt < TTL; freshness is computed at
// read time, never assumed at write time.
type DomainCacheEntry struct {
	Domain     string              `json:"domain"`
	Intel      WebsiteIntelligence `json:"intel"`
	Score      float64             `json:"score"`
	AnalyzedAt time.Time           `json:"analyzed_at"`
}

// Fresh reports whether the entry is still valid under ttl at the given time.
func (e DomainCacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.AnalyzedAt) < ttl
}

// IdentityDetail is the success payload of the identity validator.
type IdentityDetail struct {
	CompanyFound   bool    `json:"company_found"`
	PersonFound    bool    `json:"person_found"`
	SeniorityLevel string  `json:"seniority_level,omitempty"`
	AuthorityScore float64 `json:"authority_score"` // 0-100, 0 when person not found
}

// BudgetCategory is the coarse budget stage inferred from conversation text.
type BudgetCategory string

const (
	BudgetApproved   BudgetCategory = "approved"
	BudgetInPlanning BudgetCategory = "in_planning"
	BudgetExploring  BudgetCategory = "exploring"
	BudgetUnknown    BudgetCategory = "unknown"
)

// BudgetDetail is the success payload of the budget realism assessor.
type BudgetDetail struct {
	Category      BudgetCategory `json:"category"`
	ClaimedAmount float64        `json:"claimed_amount,omitempty"` // USD, 0 when no figure stated
	BenchmarkLow  float64        `json:"benchmark_low,omitempty"`
	BenchmarkHigh float64        `json:"benchmark_high,omitempty"`
	RealismScore  float64        `json:"realism_score"` // 0-100
}
