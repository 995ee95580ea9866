package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/db"
	"github.com/sells-group/vetting-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"append_turn":      `INSERT INTO conversation_turns (session_id, role, text, created_at) VALUES ($1, $2, $3, $4)`,
	"get_conversation": `SELECT role, text, created_at FROM conversation_turns WHERE session_id = $1 ORDER BY id`,
	"get_prospect":     `SELECT id, session_id, company, created_at FROM prospects WHERE id = $1`,
	"insert_snapshot":  `INSERT INTO snapshots (id, prospect_id, final_score, category, confidence, signals, failures, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"latest_snapshot":  `SELECT id, prospect_id, final_score, category, confidence, signals, failures, created_at FROM snapshots WHERE prospect_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
	"get_domain":       `SELECT domain, intel, score, analyzed_at FROM domain_cache WHERE domain = $1`,
	"upsert_domain":    `INSERT INTO domain_cache (domain, intel, score, analyzed_at) VALUES ($1, $2, $3, $4) ON CONFLICT (domain) DO UPDATE SET intel = EXCLUDED.intel, score = EXCLUDED.score, analyzed_at = EXCLUDED.analyzed_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prospects (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	company    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	prospect_id TEXT NOT NULL,
	final_score DOUBLE PRECISION NOT NULL,
	category    TEXT NOT NULL,
	confidence  TEXT NOT NULL,
	signals     JSONB NOT NULL,
	failures    JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS domain_cache (
	domain      TEXT PRIMARY KEY,
	intel       JSONB NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	analyzed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_session ON conversation_turns(session_id);
CREATE INDEX IF NOT EXISTS idx_prospects_session ON prospects(session_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_prospect ON snapshots(prospect_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_domain_cache_analyzed ON domain_cache(analyzed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, sessionID string, turn model.ConversationTurn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_turns (session_id, role, text, created_at) VALUES ($1, $2, $3, $4)`,
		sessionID, string(turn.Role), turn.Text, createdAt,
	)
	return eris.Wrapf(err, "postgres: append turn for session %s", sessionID)
}

func (s *PostgresStore) GetConversation(ctx context.Context, sessionID string) ([]model.ConversationTurn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, text, created_at FROM conversation_turns WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get conversation")
	}
	defer rows.Close()

	var turns []model.ConversationTurn
	for rows.Next() {
		var t model.ConversationTurn
		var role string
		if err := rows.Scan(&role, &t.Text, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan turn")
		}
		t.Role = model.Role(role)
		turns = append(turns, t)
	}
	return turns, eris.Wrap(rows.Err(), "postgres: iterate turns")
}

func (s *PostgresStore) SaveProspect(ctx context.Context, p model.Prospect) error {
	companyJSON, err := json.Marshal(p.Company)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal company")
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO prospects (id, session_id, company, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET session_id = EXCLUDED.session_id, company = EXCLUDED.company`,
		p.ID, p.SessionID, companyJSON, createdAt,
	)
	return eris.Wrapf(err, "postgres: save prospect %s", p.ID)
}

func (s *PostgresStore) GetProspect(ctx context.Context, prospectID string) (*model.Prospect, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, session_id, company, created_at FROM prospects WHERE id = $1`,
		prospectID,
	)

	var p model.Prospect
	var companyJSON []byte
	err := row.Scan(&p.ID, &p.SessionID, &companyJSON, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get prospect")
	}
	if err := json.Unmarshal(companyJSON, &p.Company); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal company")
	}
	return &p, nil
}

func (s *PostgresStore) InsertSnapshot(ctx context.Context, snap model.ValidationSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}

	signalsJSON, err := json.Marshal(snap.Signals)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal signals")
	}
	failuresJSON, err := json.Marshal(snap.Failures)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal failures")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, prospect_id, final_score, category, confidence, signals, failures, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.ID, snap.ProspectID, snap.FinalScore, string(snap.Category),
		string(snap.ConfidenceLevel), signalsJSON, failuresJSON, snap.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert snapshot for prospect %s", snap.ProspectID)
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, prospectID string) (*model.ValidationSnapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, prospect_id, final_score, category, confidence, signals, failures, created_at
		 FROM snapshots WHERE prospect_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		prospectID,
	)

	snap, err := scanSnapshotPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest snapshot")
	}
	return snap, nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, prospectID string, limit int) ([]model.ValidationSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, prospect_id, final_score, category, confidence, signals, failures, created_at
		 FROM snapshots WHERE prospect_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		prospectID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var snaps []model.ValidationSnapshot
	for rows.Next() {
		snap, err := scanSnapshotPG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		snaps = append(snaps, *snap)
	}
	return snaps, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}

func (s *PostgresStore) GetDomainEntry(ctx context.Context, domain string) (*model.DomainCacheEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT domain, intel, score, analyzed_at FROM domain_cache WHERE domain = $1`,
		domain,
	)

	var e model.DomainCacheEntry
	var intelJSON []byte
	err := row.Scan(&e.Domain, &intelJSON, &e.Score, &e.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get domain entry")
	}
	if err := json.Unmarshal(intelJSON, &e.Intel); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal intel")
	}
	return &e, nil
}

func (s *PostgresStore) UpsertDomainEntry(ctx context.Context, entry model.DomainCacheEntry) error {
	intelJSON, err := json.Marshal(entry.Intel)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal intel")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO domain_cache (domain, intel, score, analyzed_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (domain) DO UPDATE SET intel = EXCLUDED.intel, score = EXCLUDED.score, analyzed_at = EXCLUDED.analyzed_at`,
		entry.Domain, intelJSON, entry.Score, entry.AnalyzedAt,
	)
	return eris.Wrapf(err, "postgres: upsert domain %s", entry.Domain)
}

func (s *PostgresStore) DeleteExpiredDomains(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM domain_cache WHERE analyzed_at <= $1`,
		cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired domains")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DomainCacheStats(ctx context.Context, ttl time.Duration) (*CacheStats, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN analyzed_at <= $1 THEN 1 ELSE 0 END), 0) FROM domain_cache`,
		cutoff,
	)

	var stats CacheStats
	if err := row.Scan(&stats.Total, &stats.Stale); err != nil {
		return nil, eris.Wrap(err, "postgres: domain cache stats")
	}
	return &stats, nil
}

func scanSnapshotPG(row pgx.Row) (*model.ValidationSnapshot, error) {
	var snap model.ValidationSnapshot
	var category, confidence string
	var signalsJSON, failuresJSON []byte

	err := row.Scan(&snap.ID, &snap.ProspectID, &snap.FinalScore, &category,
		&confidence, &signalsJSON, &failuresJSON, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}

	snap.Category = model.Category(category)
	snap.ConfidenceLevel = model.ConfidenceLevel(confidence)
	if err := json.Unmarshal(signalsJSON, &snap.Signals); err != nil {
		return nil, eris.Wrap(err, "unmarshal signals")
	}
	if len(failuresJSON) > 0 && string(failuresJSON) != "null" {
		if err := json.Unmarshal(failuresJSON, &snap.Failures); err != nil {
			return nil, eris.Wrap(err, "unmarshal failures")
		}
	}
	return &snap, nil
}
