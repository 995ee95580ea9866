package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/vetting-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS prospects (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	company    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	prospect_id TEXT NOT NULL,
	final_score REAL NOT NULL,
	category    TEXT NOT NULL,
	confidence  TEXT NOT NULL,
	signals     TEXT NOT NULL,
	failures    TEXT,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS domain_cache (
	domain      TEXT PRIMARY KEY,
	intel       TEXT NOT NULL,
	score       REAL NOT NULL,
	analyzed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_session ON conversation_turns(session_id);
CREATE INDEX IF NOT EXISTS idx_prospects_session ON prospects(session_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_prospect ON snapshots(prospect_id, created_at);
CREATE INDEX IF NOT EXISTS idx_domain_cache_analyzed ON domain_cache(analyzed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, sessionID string, turn model.ConversationTurn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(turn.Role), turn.Text, createdAt,
	)
	return eris.Wrapf(err, "sqlite: append turn for session %s", sessionID)
}

func (s *SQLiteStore) GetConversation(ctx context.Context, sessionID string) ([]model.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, created_at FROM conversation_turns WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get conversation")
	}
	defer rows.Close()

	var turns []model.ConversationTurn
	for rows.Next() {
		var t model.ConversationTurn
		var role string
		if err := rows.Scan(&role, &t.Text, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan turn")
		}
		t.Role = model.Role(role)
		turns = append(turns, t)
	}
	return turns, eris.Wrap(rows.Err(), "sqlite: iterate turns")
}

func (s *SQLiteStore) SaveProspect(ctx context.Context, p model.Prospect) error {
	companyJSON, err := json.Marshal(p.Company)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal company")
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO prospects (id, session_id, company, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET session_id = excluded.session_id, company = excluded.company`,
		p.ID, p.SessionID, string(companyJSON), createdAt,
	)
	return eris.Wrapf(err, "sqlite: save prospect %s", p.ID)
}

func (s *SQLiteStore) GetProspect(ctx context.Context, prospectID string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, company, created_at FROM prospects WHERE id = ?`,
		prospectID,
	)

	var p model.Prospect
	var companyJSON string
	err := row.Scan(&p.ID, &p.SessionID, &companyJSON, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get prospect")
	}
	if err := json.Unmarshal([]byte(companyJSON), &p.Company); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal company")
	}
	return &p, nil
}

func (s *SQLiteStore) InsertSnapshot(ctx context.Context, snap model.ValidationSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}

	signalsJSON, err := json.Marshal(snap.Signals)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal signals")
	}
	failuresJSON, err := json.Marshal(snap.Failures)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failures")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, prospect_id, final_score, category, confidence, signals, failures, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.ProspectID, snap.FinalScore, string(snap.Category),
		string(snap.ConfidenceLevel), string(signalsJSON), string(failuresJSON), snap.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert snapshot for prospect %s", snap.ProspectID)
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, prospectID string) (*model.ValidationSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, prospect_id, final_score, category, confidence, signals, failures, created_at
		 FROM snapshots WHERE prospect_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		prospectID,
	)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest snapshot")
	}
	return snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, prospectID string, limit int) ([]model.ValidationSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prospect_id, final_score, category, confidence, signals, failures, created_at
		 FROM snapshots WHERE prospect_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		prospectID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var snaps []model.ValidationSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		snaps = append(snaps, *snap)
	}
	return snaps, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}

func (s *SQLiteStore) GetDomainEntry(ctx context.Context, domain string) (*model.DomainCacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT domain, intel, score, analyzed_at FROM domain_cache WHERE domain = ?`,
		domain,
	)

	var e model.DomainCacheEntry
	var intelJSON string
	err := row.Scan(&e.Domain, &intelJSON, &e.Score, &e.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get domain entry")
	}
	if err := json.Unmarshal([]byte(intelJSON), &e.Intel); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal intel")
	}
	return &e, nil
}

func (s *SQLiteStore) UpsertDomainEntry(ctx context.Context, entry model.DomainCacheEntry) error {
	intelJSON, err := json.Marshal(entry.Intel)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal intel")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO domain_cache (domain, intel, score, analyzed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(domain) DO UPDATE SET intel = excluded.intel, score = excluded.score, analyzed_at = excluded.analyzed_at`,
		entry.Domain, string(intelJSON), entry.Score, entry.AnalyzedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert domain %s", entry.Domain)
}

func (s *SQLiteStore) DeleteExpiredDomains(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM domain_cache WHERE analyzed_at <= ?`,
		cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired domains")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) DomainCacheStats(ctx context.Context, ttl time.Duration) (*CacheStats, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN analyzed_at <= ? THEN 1 ELSE 0 END), 0) FROM domain_cache`,
		cutoff,
	)

	var stats CacheStats
	if err := row.Scan(&stats.Total, &stats.Stale); err != nil {
		return nil, eris.Wrap(err, "sqlite: domain cache stats")
	}
	return &stats, nil
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable) (*model.ValidationSnapshot, error) {
	var snap model.ValidationSnapshot
	var category, confidence, signalsJSON string
	var failuresJSON sql.NullString

	err := row.Scan(&snap.ID, &snap.ProspectID, &snap.FinalScore, &category,
		&confidence, &signalsJSON, &failuresJSON, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}

	snap.Category = model.Category(category)
	snap.ConfidenceLevel = model.ConfidenceLevel(confidence)
	if err := json.Unmarshal([]byte(signalsJSON), &snap.Signals); err != nil {
		return nil, eris.Wrap(err, "unmarshal signals")
	}
	if failuresJSON.Valid && failuresJSON.String != "" && failuresJSON.String != "null" {
		if err := json.Unmarshal([]byte(failuresJSON.String), &snap.Failures); err != nil {
			return nil, eris.Wrap(err, "unmarshal failures")
		}
	}
	return &snap, nil
}
