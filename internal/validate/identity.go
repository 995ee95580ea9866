package validate

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
	"github.com/sells-group/vetting-cli/pkg/proident"
)

// Seniority levels ordered by authority. The authority score is a fixed
// ordinal scale, not a model output, so identical titles always produce
// identical scores.
const (
	SeniorityExecutive   = "executive"
	SeniorityDirector    = "director"
	SeniorityManager     = "manager"
	SeniorityContributor = "individual_contributor"
)

var authorityBySeniority = map[string]float64{
	SeniorityExecutive:   90,
	SeniorityDirector:    70,
	SeniorityManager:     50,
	SeniorityContributor: 30,
}

// IdentityValidator verifies that the prospect's company and contact exist
// in the professional directory and grades the contact's buying authority.
// It shares no state with the website analyzer; the two can disagree.
type IdentityValidator struct {
	client proident.Client
	retry  resilience.RetryConfig
}

// NewIdentityValidator creates an IdentityValidator.
func NewIdentityValidator(client proident.Client) *IdentityValidator {
	return &IdentityValidator{
		client: client,
		retry:  resilience.DefaultRetryConfig(),
	}
}

// Validate looks up the company and contact. A not-found answer from the
// directory is a legitimate finding (Ok with a low score), not a failure;
// Failed is reserved for the directory itself being unusable.
func (v *IdentityValidator) Validate(ctx context.Context, companyName, contactName, domain string) model.ValidatorOutcome {
	if strings.TrimSpace(companyName) == "" && strings.TrimSpace(contactName) == "" {
		return model.FailedOutcome(model.ValidatorIdentity, model.FailureNoContact)
	}

	log := zap.L().With(zap.String("validator", "identity"), zap.String("company", companyName))

	detail := model.IdentityDetail{}

	if strings.TrimSpace(companyName) != "" {
		company, err := resilience.DoVal(ctx, v.retry, func(ctx context.Context) (*proident.CompanyRecord, error) {
			return v.client.LookupCompany(ctx, companyName, domain)
		})
		switch {
		case err == nil:
			detail.CompanyFound = company.Verified
		case errors.Is(err, proident.ErrNotFound):
			detail.CompanyFound = false
		default:
			log.Warn("identity: company lookup failed", zap.Error(err))
			if isDeadline(err) {
				return model.FailedOutcome(model.ValidatorIdentity, model.FailureTimeout)
			}
			return model.FailedOutcome(model.ValidatorIdentity, model.FailureUpstream)
		}
	}

	if strings.TrimSpace(contactName) != "" {
		person, err := resilience.DoVal(ctx, v.retry, func(ctx context.Context) (*proident.PersonRecord, error) {
			return v.client.LookupPerson(ctx, contactName, companyName)
		})
		switch {
		case err == nil:
			detail.PersonFound = true
			detail.SeniorityLevel = SeniorityOfTitle(person.Title)
			detail.AuthorityScore = authorityBySeniority[detail.SeniorityLevel]
		case errors.Is(err, proident.ErrNotFound):
			detail.PersonFound = false
		default:
			log.Warn("identity: person lookup failed", zap.Error(err))
			if isDeadline(err) {
				return model.FailedOutcome(model.ValidatorIdentity, model.FailureTimeout)
			}
			return model.FailedOutcome(model.ValidatorIdentity, model.FailureUpstream)
		}
	}

	log.Info("identity: lookup complete",
		zap.Bool("company_found", detail.CompanyFound),
		zap.Bool("person_found", detail.PersonFound),
		zap.String("seniority", detail.SeniorityLevel),
	)

	return model.ValidatorOutcome{
		Name:     model.ValidatorIdentity,
		Status:   model.OutcomeOK,
		Score:    identityScore(detail),
		Identity: &detail,
	}
}

// identityScore combines verification and authority. An unverifiable person
// scores zero authority regardless of what the conversation claimed.
func identityScore(d model.IdentityDetail) float64 {
	if !d.PersonFound {
		if d.CompanyFound {
			return 25 // real company, unverified contact
		}
		return 0
	}
	score := d.AuthorityScore
	if d.CompanyFound {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// SeniorityOfTitle classifies a job title into a seniority level.
func SeniorityOfTitle(title string) string {
	t := strings.ToLower(title)

	executive := []string{"ceo", "cfo", "cto", "coo", "chief", "founder", "co-founder", "president", "owner", "managing partner", "principal"}
	for _, kw := range executive {
		if strings.Contains(t, kw) {
			return SeniorityExecutive
		}
	}

	director := []string{"vp", "vice president", "director", "head of"}
	for _, kw := range director {
		if strings.Contains(t, kw) {
			return SeniorityDirector
		}
	}

	if strings.Contains(t, "manager") || strings.Contains(t, "lead") {
		return SeniorityManager
	}

	return SeniorityContributor
}
