package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/extract"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/store"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	// Rule-layer-only extraction; no fallback client.
	return NewManager(st, extract.NewExtractor(nil, config.AnthropicConfig{}))
}

func TestTurnAppendsAndExtracts(t *testing.T) {
	m := newManager(t)

	res, err := m.StartOrContinueExtraction(context.Background(), "s-1",
		"We run a roofing construction company and need help with scheduling")
	require.NoError(t, err)

	assert.Equal(t, "construction", res.Fields.Get(model.FieldIndustry).Value)
	assert.Equal(t, "scheduling", res.Fields.Get(model.FieldProblemType).Value)
	assert.False(t, res.Completeness.IsComplete)

	turns, err := m.Conversation(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, model.RoleUser, turns[0].Role)
}

func TestLaterTurnsRefineExtraction(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	first, err := m.StartOrContinueExtraction(ctx, "s-2", "we need scheduling help")
	require.NoError(t, err)
	assert.False(t, first.Fields.Known(model.FieldBudgetStatus))

	second, err := m.StartOrContinueExtraction(ctx, "s-2",
		"the budget is approved, i'm the owner and i decide, we need this asap")
	require.NoError(t, err)

	// Re-extraction covers the whole transcript: the first turn's signal
	// survives alongside the new ones.
	assert.Equal(t, "scheduling", second.Fields.Get(model.FieldProblemType).Value)
	assert.Equal(t, "approved", second.Fields.Get(model.FieldBudgetStatus).Value)
	assert.Equal(t, "sole_decision_maker", second.Fields.Get(model.FieldDecisionRole).Value)
	assert.Greater(t, second.ConversationScore, first.ConversationScore)
}

func TestTurnResultCategoryUsesConversationOnlyThresholds(t *testing.T) {
	m := newManager(t)

	res, err := m.StartOrContinueExtraction(context.Background(), "s-3",
		"i'm the ceo of a roofing construction company, i decide, budget approved at $60k, "+
			"we need scheduling automation asap, we have 30 staff and no it team, need help implementing, "+
			"we want a managed service that handles everything")
	require.NoError(t, err)

	assert.NotEmpty(t, res.Category)
	if res.ConversationScore >= 60 && res.ConversationScore < 80 {
		assert.Equal(t, model.CategoryWarm, res.Category)
	}
}

func TestConcurrentTurnsSameSessionSerialize(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.StartOrContinueExtraction(ctx, "s-4", "we need scheduling help")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Conversation(ctx, "s-4")
	require.NoError(t, err)
	assert.Len(t, got, turns, "no turn may be lost under concurrency")
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	_, err := m.StartOrContinueExtraction(ctx, "s-a", "we are a law firm")
	require.NoError(t, err)
	resB, err := m.StartOrContinueExtraction(ctx, "s-b", "we run a restaurant")
	require.NoError(t, err)

	assert.Equal(t, "hospitality", resB.Fields.Get(model.FieldIndustry).Value)

	turnsA, err := m.Conversation(ctx, "s-a")
	require.NoError(t, err)
	assert.Len(t, turnsA, 1)
}
