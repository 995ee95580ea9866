// Package validate implements the three independent prospect validators:
// website legitimacy, professional identity, and budget realism. Each
// resolves to a tagged ValidatorOutcome and never panics or throws past
// its boundary; the orchestrator fans them out concurrently.
package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/store"
	"github.com/sells-group/vetting-cli/internal/webfetch"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

const websiteSystemPrompt = `You are a B2B company researcher. Given the text content of a company homepage, summarize its business signals. Respond with a single valid JSON object: {"description": "<one sentence>", "has_contact_info": bool, "has_team_page": bool, "has_services_page": bool, "has_blog": bool, "parked_or_thin": bool, "tech_signals": ["<product names mentioned>"], "industry_guess": "<industry>", "employee_estimate": <int or 0>}. parked_or_thin is true for placeholder, parked-domain, or near-empty pages.`

const websiteUserPrompt = `Domain: %s
Page title: %s

Page content:
%s`

// maxAnalysisChars caps how much page text is sent to the summarizer.
const maxAnalysisChars = 8000

// WebsiteAnalyzer scores how legitimate a company's web presence looks.
// Results are cached per domain; the cache TTL invariant lives here, not in
// the store, so freshness stays a read-time decision.
type WebsiteAnalyzer struct {
	store   store.Store
	fetcher webfetch.Fetcher
	ai      anthropic.Client
	aiCfg   config.AnthropicConfig
	ttl     time.Duration
	now     func() time.Time
}

// NewWebsiteAnalyzer creates a WebsiteAnalyzer with a ttl for cached
// domain analyses.
func NewWebsiteAnalyzer(st store.Store, fetcher webfetch.Fetcher, ai anthropic.Client, aiCfg config.AnthropicConfig, ttl time.Duration) *WebsiteAnalyzer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &WebsiteAnalyzer{
		store:   st,
		fetcher: fetcher,
		ai:      ai,
		aiCfg:   aiCfg,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Analyze normalizes the domain, serves a fresh cached analysis when one
// exists, and otherwise fetches and summarizes the site. Failures return a
// Failed outcome and leave the cache untouched: a prior valid entry stays
// usable and an empty cache stays empty so the next call retries.
func (a *WebsiteAnalyzer) Analyze(ctx context.Context, domain string) model.ValidatorOutcome {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return model.FailedOutcome(model.ValidatorWebsite, model.FailureNoDomain)
	}

	log := zap.L().With(zap.String("validator", "website"), zap.String("domain", domain))

	// Cache check. A lookup error is not fatal; it just forces a refetch.
	entry, err := a.store.GetDomainEntry(ctx, domain)
	if err != nil {
		log.Warn("website: cache lookup failed", zap.Error(err))
	}
	if entry != nil && entry.Fresh(a.now(), a.ttl) {
		log.Debug("website: serving cached analysis",
			zap.Time("analyzed_at", entry.AnalyzedAt),
		)
		intel := entry.Intel
		return model.ValidatorOutcome{
			Name:    model.ValidatorWebsite,
			Status:  model.OutcomeOK,
			Score:   entry.Score,
			Website: &intel,
		}
	}

	page, err := a.fetcher.Fetch(ctx, domain)
	if err != nil {
		log.Warn("website: fetch failed", zap.Error(err))
		var blocked *webfetch.BlockedError
		switch {
		case errors.As(err, &blocked):
			return model.FailedOutcome(model.ValidatorWebsite, model.FailureBlocked)
		case isDeadline(err):
			return model.FailedOutcome(model.ValidatorWebsite, model.FailureTimeout)
		default:
			return model.FailedOutcome(model.ValidatorWebsite, model.FailureUnreachable)
		}
	}

	// Registrar landers have nothing worth summarizing; score them straight
	// from the parked flag and cache the verdict like any other analysis.
	if webfetch.LooksParked(page) {
		log.Info("website: parked domain lander", zap.String("title", page.Title))
		return a.conclude(ctx, log, domain, &model.WebsiteIntelligence{
			Domain:       domain,
			ParkedOrThin: true,
		})
	}

	intel, err := a.summarize(ctx, domain, page)
	if err != nil {
		log.Warn("website: summarization failed", zap.Error(err))
		if isDeadline(err) {
			return model.FailedOutcome(model.ValidatorWebsite, model.FailureTimeout)
		}
		return model.FailedOutcome(model.ValidatorWebsite, model.FailureUpstream)
	}

	return a.conclude(ctx, log, domain, intel)
}

// conclude scores the intelligence, overwrites any stale cache entry, and
// builds the success outcome.
func (a *WebsiteAnalyzer) conclude(ctx context.Context, log *zap.Logger, domain string, intel *model.WebsiteIntelligence) model.ValidatorOutcome {
	score := ScoreIntelligence(*intel)

	newEntry := model.DomainCacheEntry{
		Domain:     domain,
		Intel:      *intel,
		Score:      score,
		AnalyzedAt: a.now().UTC(),
	}
	if err := a.store.UpsertDomainEntry(ctx, newEntry); err != nil {
		log.Warn("website: cache write failed", zap.Error(err))
	}

	log.Info("website: analysis complete",
		zap.Float64("score", score),
		zap.Bool("parked_or_thin", intel.ParkedOrThin),
	)

	return model.ValidatorOutcome{
		Name:    model.ValidatorWebsite,
		Status:  model.OutcomeOK,
		Score:   score,
		Website: intel,
	}
}

// summarize derives structured intelligence from page text via the
// text-completion collaborator.
func (a *WebsiteAnalyzer) summarize(ctx context.Context, domain string, page *webfetch.Page) (*model.WebsiteIntelligence, error) {
	content := page.Text
	if len(content) > maxAnalysisChars {
		content = content[:maxAnalysisChars]
	}

	resp, err := a.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.aiCfg.Model,
		MaxTokens: a.aiCfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(websiteSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(websiteUserPrompt, domain, page.Title, content)},
		},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(a.aiCfg.Model, "website_summary")

	var intel model.WebsiteIntelligence
	if err := json.Unmarshal([]byte(anthropic.CleanJSON(resp.Text())), &intel); err != nil {
		return nil, err
	}
	intel.Domain = domain
	return &intel, nil
}

// ScoreIntelligence applies the fixed legitimacy rubric to a summary.
// Verifiable business signals add; parked/thin pages subtract heavily.
func ScoreIntelligence(intel model.WebsiteIntelligence) float64 {
	score := 20.0 // reachable with parseable content

	if intel.Description != "" {
		score += 15
	}
	if intel.HasContactInfo {
		score += 15
	}
	if intel.HasTeamPage {
		score += 15
	}
	if intel.HasServicesPage {
		score += 15
	}
	if intel.HasBlog {
		score += 10
	}
	score += math.Min(float64(len(intel.TechSignals))*2, 10)

	if intel.ParkedOrThin {
		score = math.Max(0, score-50)
	}

	return math.Min(100, score)
}

// NormalizeDomain strips scheme, www. prefix, path, and trailing slash.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(strings.ToLower(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if idx := strings.IndexAny(d, "/?#"); idx >= 0 {
		d = d[:idx]
	}
	return d
}

// isDeadline reports whether err stems from context expiry.
func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
