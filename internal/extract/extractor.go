// Package extract derives structured qualification fields from a prospect
// conversation. A declarative rule table handles the common phrasings; an
// LLM fallback fills whatever the rules leave unknown. The whole transcript
// is re-extracted on every turn so later clarifications overwrite earlier
// vague guesses.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/pkg/anthropic"
)

const extractSystemPrompt = `You are a B2B lead qualification analyst. Extract qualification fields from a sales conversation transcript. Respond with a single valid JSON object and nothing else. For each field return {"value": "<value from the allowed set>", "confidence": "clear" or "vague"}. Omit fields the transcript gives no signal for. Never invent values.`

const extractUserPrompt = `Allowed fields and values:
%s

Fields still needed: %s

Conversation transcript (user turns only):
%s

Return a JSON object mapping field names to {"value", "confidence"}.`

// Extractor turns a conversation into a FieldExtraction. It is stateless
// and pure with respect to the stored conversation; the LLM client is an
// injected collaborator so tests can substitute a deterministic one.
type Extractor struct {
	ai  anthropic.Client
	cfg config.AnthropicConfig
}

// NewExtractor creates an Extractor. A nil client disables the fallback
// layer; the rule layer still runs.
func NewExtractor(ai anthropic.Client, cfg config.AnthropicConfig) *Extractor {
	return &Extractor{ai: ai, cfg: cfg}
}

// Extract derives the field map from the full conversation. The rule layer
// runs first; fields it leaves unknown are offered to the LLM fallback.
// Fallback failure never surfaces as an error: the affected fields simply
// stay unknown and the conversation continues.
func (e *Extractor) Extract(ctx context.Context, conversation []model.ConversationTurn) model.FieldExtraction {
	userText := model.UserText(conversation)
	fe := applyRules(userText)

	var unknown []model.FieldKey
	for _, k := range model.AllFieldKeys() {
		if !fe.Known(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 || e.ai == nil || strings.TrimSpace(userText) == "" {
		return fe
	}

	filled, err := e.fallback(ctx, userText, unknown)
	if err != nil {
		zap.L().Warn("extract: fallback failed, degrading to unknown",
			zap.Int("fields_requested", len(unknown)),
			zap.Error(err),
		)
		return fe
	}

	// Adopt fallback values only for fields the rule layer left unknown;
	// rule-layer results are never overwritten.
	for _, k := range unknown {
		v, ok := filled[k]
		if !ok {
			continue
		}
		if !InDomain(k, v.Value) {
			zap.L().Debug("extract: fallback value outside domain",
				zap.String("field", string(k)),
				zap.String("value", v.Value),
			)
			continue
		}
		if v.Confidence != model.ConfidenceClear && v.Confidence != model.ConfidenceVague {
			v.Confidence = model.ConfidenceVague
		}
		fe[k] = v
	}
	return fe
}

// fallback asks the text-completion collaborator to fill the named fields
// from the transcript, in JSON-schema mode.
func (e *Extractor) fallback(ctx context.Context, userText string, fields []model.FieldKey) (map[model.FieldKey]model.FieldValue, error) {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}

	prompt := fmt.Sprintf(extractUserPrompt, describeDomains(), strings.Join(names, ", "), userText)

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(extractSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(e.cfg.Model, "extract_fallback")

	var raw map[string]struct {
		Value      string `json:"value"`
		Confidence string `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(anthropic.CleanJSON(resp.Text())), &raw); err != nil {
		return nil, err
	}

	out := make(map[model.FieldKey]model.FieldValue, len(raw))
	for name, v := range raw {
		if v.Value == "" {
			continue
		}
		out[model.FieldKey(name)] = model.FieldValue{
			Value:      v.Value,
			Confidence: model.Confidence(v.Confidence),
		}
	}
	return out, nil
}

// describeDomains renders the allowed value set per field for the prompt.
func describeDomains() string {
	var b strings.Builder
	for _, k := range model.AllFieldKeys() {
		domain, ok := fieldDomains[k]
		if !ok {
			fmt.Fprintf(&b, "- %s: a number\n", k)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", k, strings.Join(domain, ", "))
	}
	return b.String()
}
