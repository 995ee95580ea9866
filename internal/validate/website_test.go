package validate

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/store"
	"github.com/sells-group/vetting-cli/internal/webfetch"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

// countingFetcher serves a fixed page and counts fetches.
type countingFetcher struct {
	page  *webfetch.Page
	err   error
	calls int
}

func (f *countingFetcher) Fetch(_ context.Context, domain string) (*webfetch.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeAI struct {
	reply string
	err   error
	calls int
}

func (f *fakeAI) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}},
	}, nil
}

const intelReply = `{"description": "Commercial roofing contractor", "has_contact_info": true, "has_team_page": true, "has_services_page": true, "has_blog": false, "parked_or_thin": false, "tech_signals": [], "industry_guess": "construction", "employee_estimate": 40}`

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newAnalyzer(st store.Store, fetcher webfetch.Fetcher, ai anthropic.Client, ttl time.Duration) *WebsiteAnalyzer {
	return NewWebsiteAnalyzer(st, fetcher, ai, config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024}, ttl)
}

func TestAnalyzeFetchesAndCaches(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{page: &webfetch.Page{Title: "Acme Roofing", Text: "We fix roofs"}}
	ai := &fakeAI{reply: intelReply}
	a := newAnalyzer(st, fetcher, ai, 30*24*time.Hour)

	out := a.Analyze(context.Background(), "https://www.acmeroofing.com/")

	require.True(t, out.OK())
	assert.Equal(t, model.ValidatorWebsite, out.Name)
	require.NotNil(t, out.Website)
	assert.Equal(t, "acmeroofing.com", out.Website.Domain)
	assert.Equal(t, 1, fetcher.calls)

	entry, err := st.GetDomainEntry(context.Background(), "acmeroofing.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, out.Score, entry.Score)
}

func TestAnalyzeServesCachedResultWithoutRefetch(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{page: &webfetch.Page{Title: "Acme", Text: "roofs"}}
	ai := &fakeAI{reply: intelReply}
	a := newAnalyzer(st, fetcher, ai, 30*24*time.Hour)

	first := a.Analyze(context.Background(), "acmeroofing.com")
	require.True(t, first.OK())

	// One second later the cache must serve; no refetch, no LLM call.
	second := a.Analyze(context.Background(), "acmeroofing.com")
	require.True(t, second.OK())
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, first.Score, second.Score)
}

func TestAnalyzeRefetchesWhenEntryExactlyTTLOld(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{page: &webfetch.Page{Title: "Acme", Text: "roofs"}}
	ai := &fakeAI{reply: intelReply}
	ttl := 30 * 24 * time.Hour
	a := newAnalyzer(st, fetcher, ai, ttl)

	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	// Freshness is a strict inequality: an entry aged exactly TTL is stale.
	require.NoError(t, st.UpsertDomainEntry(context.Background(), model.DomainCacheEntry{
		Domain:     "acmeroofing.com",
		Intel:      model.WebsiteIntelligence{Domain: "acmeroofing.com"},
		Score:      42,
		AnalyzedAt: now.Add(-ttl),
	}))

	out := a.Analyze(context.Background(), "acmeroofing.com")
	require.True(t, out.OK())
	assert.Equal(t, 1, fetcher.calls)

	// The stale entry was overwritten, last write wins.
	entry, err := st.GetDomainEntry(context.Background(), "acmeroofing.com")
	require.NoError(t, err)
	assert.Equal(t, out.Score, entry.Score)
	assert.True(t, entry.AnalyzedAt.After(now.Add(-time.Minute)))
}

func TestAnalyzeJustUnderTTLIsFresh(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{page: &webfetch.Page{Title: "Acme", Text: "roofs"}}
	ttl := 30 * 24 * time.Hour
	a := newAnalyzer(st, fetcher, &fakeAI{reply: intelReply}, ttl)

	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	require.NoError(t, st.UpsertDomainEntry(context.Background(), model.DomainCacheEntry{
		Domain:     "acmeroofing.com",
		Intel:      model.WebsiteIntelligence{Domain: "acmeroofing.com"},
		Score:      42,
		AnalyzedAt: now.Add(-ttl + time.Second),
	}))

	out := a.Analyze(context.Background(), "acmeroofing.com")
	require.True(t, out.OK())
	assert.Equal(t, 42.0, out.Score)
	assert.Zero(t, fetcher.calls)
}

func TestAnalyzeFetchFailureDoesNotPoisonCache(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{err: eris.New("connection refused")}
	a := newAnalyzer(st, fetcher, &fakeAI{reply: intelReply}, 30*24*time.Hour)

	out := a.Analyze(context.Background(), "unreachable.example")

	assert.False(t, out.OK())
	assert.Equal(t, model.FailureUnreachable, out.Reason)

	entry, err := st.GetDomainEntry(context.Background(), "unreachable.example")
	require.NoError(t, err)
	assert.Nil(t, entry, "failures must not be cached")
}

func TestAnalyzeBlockedSiteReportsBlocked(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{err: &webfetch.BlockedError{Kind: webfetch.BlockCaptcha}}
	ai := &fakeAI{reply: intelReply}
	a := newAnalyzer(st, fetcher, ai, 30*24*time.Hour)

	out := a.Analyze(context.Background(), "fortress.example")
	assert.False(t, out.OK())
	assert.Equal(t, model.FailureBlocked, out.Reason)
	assert.Zero(t, ai.calls)

	entry, err := st.GetDomainEntry(context.Background(), "fortress.example")
	require.NoError(t, err)
	assert.Nil(t, entry, "a blocked fetch is a failure, never cached")
}

func TestAnalyzeParkedLanderScoresZeroWithoutSummarizing(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{page: &webfetch.Page{
		Title: "acmeroofing.com is available",
		Text:  "This domain is for sale! Make an offer today.",
	}}
	ai := &fakeAI{reply: intelReply}
	a := newAnalyzer(st, fetcher, ai, 30*24*time.Hour)

	out := a.Analyze(context.Background(), "acmeroofing.com")
	require.True(t, out.OK(), "a parked domain is a finding, not a failure")
	assert.Equal(t, 0.0, out.Score)
	require.NotNil(t, out.Website)
	assert.True(t, out.Website.ParkedOrThin)
	assert.Zero(t, ai.calls, "a lander has nothing worth summarizing")

	// Cached like any other completed analysis.
	entry, err := st.GetDomainEntry(context.Background(), "acmeroofing.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 0.0, entry.Score)
	assert.True(t, entry.Intel.ParkedOrThin)
}

func TestAnalyzeTimeoutReportedAsTimeout(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{err: eris.Wrap(context.DeadlineExceeded, "fetch")}
	a := newAnalyzer(st, fetcher, &fakeAI{reply: intelReply}, 30*24*time.Hour)

	out := a.Analyze(context.Background(), "slow.example")
	assert.False(t, out.OK())
	assert.Equal(t, model.FailureTimeout, out.Reason)
}

func TestAnalyzeSummarizationFailure(t *testing.T) {
	st := newTestStore(t)
	fetcher := &countingFetcher{page: &webfetch.Page{Title: "Acme", Text: "roofs"}}
	a := newAnalyzer(st, fetcher, &fakeAI{err: eris.New("model overloaded")}, 30*24*time.Hour)

	out := a.Analyze(context.Background(), "acmeroofing.com")
	assert.False(t, out.OK())
	assert.Equal(t, model.FailureUpstream, out.Reason)
}

func TestAnalyzeEmptyDomain(t *testing.T) {
	st := newTestStore(t)
	a := newAnalyzer(st, &countingFetcher{}, &fakeAI{}, 30*24*time.Hour)

	out := a.Analyze(context.Background(), "   ")
	assert.False(t, out.OK())
	assert.Equal(t, model.FailureNoDomain, out.Reason)
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.acme.com/", "acme.com"},
		{"http://acme.com/about", "acme.com"},
		{"WWW.ACME.COM", "acme.com"},
		{"acme.com?utm=1", "acme.com"},
		{" acme.com ", "acme.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDomain(tt.in), tt.in)
	}
}

func TestScoreIntelligenceRubric(t *testing.T) {
	full := model.WebsiteIntelligence{
		Description:     "real company",
		HasContactInfo:  true,
		HasTeamPage:     true,
		HasServicesPage: true,
		HasBlog:         true,
		TechSignals:     []string{"salesforce", "hubspot", "stripe", "zendesk", "slack"},
	}
	assert.Equal(t, 100.0, ScoreIntelligence(full))

	parked := model.WebsiteIntelligence{ParkedOrThin: true}
	assert.Equal(t, 0.0, ScoreIntelligence(parked))

	// Parked flag drags down even a signal-rich page.
	full.ParkedOrThin = true
	assert.Less(t, ScoreIntelligence(full), 60.0)
}
