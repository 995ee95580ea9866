// Package session serializes conversation intake per session and runs the
// extract-then-assess loop on every new user turn.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/extract"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/scorer"
	"github.com/sells-group/vetting-cli/internal/store"
	"github.com/sells-group/vetting-cli/internal/vetting"
)

// TurnResult is what the intake surface gets back after each user turn.
// Category uses the conversation-only thresholds since no validator has
// run yet.
type TurnResult struct {
	Fields            model.FieldExtraction    `json:"fields"`
	Completeness      model.CompletenessResult `json:"completeness"`
	ConversationScore float64                  `json:"conversation_score"`
	Category          model.Category           `json:"category"`
}

// Manager owns the per-session intake loop. Extraction is defined over the
// full transcript, so two turns of the same session must never interleave;
// the manager serializes on session id with keyed mutexes.
type Manager struct {
	store     store.Store
	extractor vetting.FieldExtractor

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewManager creates a Manager.
func NewManager(st store.Store, extractor vetting.FieldExtractor) *Manager {
	return &Manager{
		store:     st,
		extractor: extractor,
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

// StartOrContinueExtraction appends a user turn to the session's
// conversation and re-derives the extraction and completeness from the full
// transcript. The whole append-extract-assess cycle holds the session lock.
func (m *Manager) StartOrContinueExtraction(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	turn := model.ConversationTurn{
		Role:      model.RoleUser,
		Text:      userText,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.AppendTurn(ctx, sessionID, turn); err != nil {
		return nil, eris.Wrap(err, "session: append turn")
	}

	conversation, err := m.store.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "session: load conversation")
	}

	fields := m.extractor.Extract(ctx, conversation)
	completeness := extract.Assess(fields)
	score := scorer.ConversationScore(fields)

	zap.L().Debug("session: turn processed",
		zap.String("session_id", sessionID),
		zap.Int("turns", len(conversation)),
		zap.Bool("complete", completeness.IsComplete),
		zap.Int("completeness_score", completeness.CompletenessScore),
	)

	return &TurnResult{
		Fields:            fields,
		Completeness:      completeness,
		ConversationScore: score,
		Category:          scorer.Categorize(score, true),
	}, nil
}

// Conversation returns the session's full transcript.
func (m *Manager) Conversation(ctx context.Context, sessionID string) ([]model.ConversationTurn, error) {
	turns, err := m.store.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "session: load conversation")
	}
	return turns, nil
}

// sessionLock returns the mutex for a session id, creating it on first use.
// Locks are never reaped; session cardinality in one process is small.
func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}
