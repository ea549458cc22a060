package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/digital-duende/leadfinder/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool       Pool
	closeFn    func()
	quotaLimit int
	now        func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, quotaLimit int, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, quotaLimit: quotaLimit, now: time.Now}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool Pool, quotaLimit int) *PostgresStore {
	return &PostgresStore{pool: pool, quotaLimit: quotaLimit, now: time.Now}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	lead_id    TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	dedupe_key TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	priority   TEXT NOT NULL DEFAULT 'P3',
	lead_score INTEGER NOT NULL DEFAULT 0,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_owner_dedupe ON leads(owner_id, dedupe_key);
CREATE INDEX IF NOT EXISTS idx_leads_owner_status ON leads(owner_id, status);
CREATE INDEX IF NOT EXISTS idx_leads_owner_score ON leads(owner_id, lead_score DESC);

CREATE TABLE IF NOT EXISTS seeds (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	persona    TEXT NOT NULL,
	region     TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_seeds_owner_persona ON seeds(owner_id, persona);

CREATE TABLE IF NOT EXISTS search_quota (
	quota_key TEXT PRIMARY KEY,
	used      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS booking_inquiries (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	lead_id    TEXT NOT NULL REFERENCES leads(lead_id),
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_inquiries_owner ON booking_inquiries(owner_id);
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	data, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal lead")
	}
	now := s.now().UTC()

	// Upsert on the dedupe identity. The unique index on (owner_id,
	// dedupe_key) turns a concurrent insert of the same entity into an
	// update instead of a duplicate row.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO leads (lead_id, owner_id, dedupe_key, status, priority, lead_score, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id, dedupe_key) DO UPDATE SET
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			lead_score = EXCLUDED.lead_score,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		lead.LeadID, lead.OwnerID, lead.DedupeKey, string(lead.Status),
		string(lead.Priority), lead.Score, data, now, now,
	)
	return eris.Wrapf(err, "postgres: save lead %s", lead.LeadID)
}

func (s *PostgresStore) GetLead(ctx context.Context, ownerID, leadID string) (*model.Lead, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM leads WHERE lead_id = $1 AND owner_id = $2`,
		leadID, ownerID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", leadID)
	}
	var lead model.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal lead")
	}
	return &lead, nil
}

func (s *PostgresStore) FindLeadByDedupeKey(ctx context.Context, ownerID, key string) (*model.Lead, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM leads WHERE owner_id = $1 AND dedupe_key = $2`,
		ownerID, key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find lead by key %s", key)
	}
	var lead model.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal lead")
	}
	return &lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, ownerID string, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE owner_id = $1`
	args := []any{ownerID}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Priority != "" {
		query += fmt.Sprintf(` AND priority = $%d`, argIdx)
		args = append(args, string(filter.Priority))
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND lead_score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	query += ` ORDER BY lead_score DESC, created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal(data, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) DeleteLead(ctx context.Context, ownerID, leadID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM leads WHERE lead_id = $1 AND owner_id = $2`,
		leadID, ownerID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAllLeads(ctx context.Context, ownerID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete all leads")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ListSeeds(ctx context.Context, ownerID string, persona model.Persona) ([]model.QuerySeed, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM seeds WHERE owner_id = $1 AND persona = $2 ORDER BY created_at`,
		ownerID, string(persona),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list seeds")
	}
	defer rows.Close()

	var out []model.QuerySeed
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan seed")
		}
		var seed model.QuerySeed
		if err := json.Unmarshal(data, &seed); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal seed")
		}
		out = append(out, seed)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list seeds iterate")
}

func (s *PostgresStore) SaveSeed(ctx context.Context, seed *model.QuerySeed) error {
	data, err := json.Marshal(seed)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal seed")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO seeds (id, owner_id, persona, region, active, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			region = EXCLUDED.region,
			active = EXCLUDED.active,
			data = EXCLUDED.data`,
		seed.ID, seed.OwnerID, string(seed.Persona), seed.Region,
		seed.Active, data, seed.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save seed %s", seed.ID)
}

func (s *PostgresStore) DeleteSeed(ctx context.Context, ownerID, seedID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM seeds WHERE id = $1 AND owner_id = $2`,
		seedID, ownerID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete seed %s", seedID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	month := s.now().UTC().Format("2006-01")
	var used int
	err := s.pool.QueryRow(ctx,
		`SELECT used FROM search_quota WHERE quota_key = $1`,
		quotaKey(ownerID, month),
	).Scan(&used)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: get quota")
	}
	return quotaSnapshot(month, used, s.quotaLimit), nil
}

func (s *PostgresStore) IncrementQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	month := s.now().UTC().Format("2006-01")
	key := quotaKey(ownerID, month)

	// The conditional upsert spends one unit atomically: no row comes back
	// once the counter has reached the limit.
	var used int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO search_quota (quota_key, used) VALUES ($1, 1)
		ON CONFLICT (quota_key) DO UPDATE SET used = search_quota.used + 1
		WHERE search_quota.used < $2
		RETURNING used`,
		key, s.quotaLimit,
	).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &QuotaExceededError{Used: s.quotaLimit, Limit: s.quotaLimit}
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: increment quota")
	}
	return quotaSnapshot(month, used, s.quotaLimit), nil
}

func (s *PostgresStore) SaveBookingInquiry(ctx context.Context, inq *model.BookingInquiry) error {
	data, err := json.Marshal(inq)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal inquiry")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO booking_inquiries (id, owner_id, lead_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		inq.ID, inq.OwnerID, inq.LeadID, data, inq.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save inquiry %s", inq.ID)
}
