package extract

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

// fakeAI returns a canned response (or error) and records call count.
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

func turns(texts ...string) []model.ConversationTurn {
	out := make([]model.ConversationTurn, len(texts))
	for i, txt := range texts {
		out[i] = model.ConversationTurn{Role: model.RoleUser, Text: txt}
	}
	return out
}

func TestExtractRuleLayerOnly(t *testing.T) {
	e := NewExtractor(nil, config.AnthropicConfig{})

	fe := e.Extract(context.Background(), turns("I run a construction company and I make the decision"))

	assert.Equal(t, "construction", fe.Get(model.FieldIndustry).Value)
	assert.Equal(t, "sole_decision_maker", fe.Get(model.FieldDecisionRole).Value)
	assert.Equal(t, model.ConfidenceUnknown, fe.Get(model.FieldBudgetStatus).Confidence)
}

func TestExtractIdempotent(t *testing.T) {
	e := NewExtractor(nil, config.AnthropicConfig{})
	conv := turns("we are a law firm", "we need help with scheduling")

	first := e.Extract(context.Background(), conv)
	second := e.Extract(context.Background(), conv)
	assert.Equal(t, first, second)
}

func TestExtractFallbackFillsUnknownFields(t *testing.T) {
	ai := &fakeAI{reply: `{"industry": {"value": "healthcare", "confidence": "clear"}}`}
	e := NewExtractor(ai, config.AnthropicConfig{Model: "claude-haiku-4-5-20251001"})

	fe := e.Extract(context.Background(), turns("our practice is swamped with scheduling"))

	require.Equal(t, 1, ai.calls)
	ind := fe.Get(model.FieldIndustry)
	assert.Equal(t, "healthcare", ind.Value)
	assert.Equal(t, model.ConfidenceClear, ind.Confidence)
	// The rule layer result stays intact.
	assert.Equal(t, "scheduling", fe.Get(model.FieldProblemType).Value)
}

func TestExtractFallbackNeverOverridesRuleLayer(t *testing.T) {
	// The fallback is only asked about unknown fields; even if it answers
	// for a known one, the rule value is kept.
	ai := &fakeAI{reply: `{"industry": {"value": "retail", "confidence": "clear"}}`}
	e := NewExtractor(ai, config.AnthropicConfig{})

	fe := e.Extract(context.Background(), turns("we are a construction business"))
	assert.Equal(t, "construction", fe.Get(model.FieldIndustry).Value)
}

func TestExtractFallbackFailureDegradesToUnknown(t *testing.T) {
	ai := &fakeAI{err: eris.New("upstream unavailable")}
	e := NewExtractor(ai, config.AnthropicConfig{})

	fe := e.Extract(context.Background(), turns("our practice is swamped"))

	require.Equal(t, 1, ai.calls)
	for _, k := range model.AllFieldKeys() {
		assert.Equal(t, model.ConfidenceUnknown, fe.Get(k).Confidence, string(k))
	}
}

func TestExtractFallbackRejectsOutOfDomainValues(t *testing.T) {
	ai := &fakeAI{reply: `{"industry": {"value": "space_mining", "confidence": "clear"}}`}
	e := NewExtractor(ai, config.AnthropicConfig{})

	fe := e.Extract(context.Background(), turns("something vague"))
	assert.Equal(t, model.ConfidenceUnknown, fe.Get(model.FieldIndustry).Confidence)
}

func TestExtractFallbackCoercesBadConfidence(t *testing.T) {
	ai := &fakeAI{reply: `{"industry": {"value": "retail", "confidence": "certain"}}`}
	e := NewExtractor(ai, config.AnthropicConfig{})

	fe := e.Extract(context.Background(), turns("something vague"))
	ind := fe.Get(model.FieldIndustry)
	assert.Equal(t, "retail", ind.Value)
	assert.Equal(t, model.ConfidenceVague, ind.Confidence)
}

func TestExtractSkipsFallbackWhenAllFieldsKnown(t *testing.T) {
	ai := &fakeAI{reply: `{}`}
	e := NewExtractor(ai, config.AnthropicConfig{})

	// Only assistant turns: no user text, no fallback call.
	conv := []model.ConversationTurn{{Role: model.RoleAssistant, Text: "how can I help?"}}
	e.Extract(context.Background(), conv)
	assert.Zero(t, ai.calls)
}
