package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/digital-duende/leadfinder/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db         *sql.DB
	quotaLimit int
	now        func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. quotaLimit is the monthly search budget per owner.
func NewSQLite(dsn string, quotaLimit int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, quotaLimit: quotaLimit, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	lead_id    TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	dedupe_key TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	priority   TEXT NOT NULL DEFAULT 'P3',
	lead_score INTEGER NOT NULL DEFAULT 0,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_owner_dedupe ON leads(owner_id, dedupe_key);
CREATE INDEX IF NOT EXISTS idx_leads_owner_status ON leads(owner_id, status);
CREATE INDEX IF NOT EXISTS idx_leads_owner_score ON leads(owner_id, lead_score);

CREATE TABLE IF NOT EXISTS seeds (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	persona    TEXT NOT NULL,
	region     TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_seeds_owner_persona ON seeds(owner_id, persona);

CREATE TABLE IF NOT EXISTS search_quota (
	quota_key TEXT PRIMARY KEY,
	used      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS booking_inquiries (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	lead_id    TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_inquiries_owner ON booking_inquiries(owner_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	data, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal lead")
	}
	now := s.now().UTC()

	// Two conflict clauses: same dedupe key (merge or concurrent insert of
	// the same entity) updates in place, and a re-save of an existing lead
	// whose identity fields changed updates by primary key.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (lead_id, owner_id, dedupe_key, status, priority, lead_score, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, dedupe_key) DO UPDATE SET
			status = excluded.status,
			priority = excluded.priority,
			lead_score = excluded.lead_score,
			data = excluded.data,
			updated_at = excluded.updated_at
		ON CONFLICT(lead_id) DO UPDATE SET
			dedupe_key = excluded.dedupe_key,
			status = excluded.status,
			priority = excluded.priority,
			lead_score = excluded.lead_score,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		lead.LeadID, lead.OwnerID, lead.DedupeKey, string(lead.Status),
		string(lead.Priority), lead.Score, string(data), now, now,
	)
	return eris.Wrapf(err, "sqlite: save lead %s", lead.LeadID)
}

func (s *SQLiteStore) GetLead(ctx context.Context, ownerID, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM leads WHERE lead_id = ? AND owner_id = ?`,
		leadID, ownerID,
	)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return lead, eris.Wrapf(err, "sqlite: get lead %s", leadID)
}

func (s *SQLiteStore) FindLeadByDedupeKey(ctx context.Context, ownerID, key string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM leads WHERE owner_id = ? AND dedupe_key = ?`,
		ownerID, key,
	)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return lead, eris.Wrapf(err, "sqlite: find lead by key %s", key)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, ownerID string, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE owner_id = ?`
	args := []any{ownerID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.MinScore > 0 {
		query += ` AND lead_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY lead_score DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		var lead model.Lead
		if err := json.Unmarshal([]byte(data), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads rows")
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, ownerID, leadID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM leads WHERE lead_id = ? AND owner_id = ?`,
		leadID, ownerID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", leadID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteAllLeads(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete all leads")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) ListSeeds(ctx context.Context, ownerID string, persona model.Persona) ([]model.QuerySeed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM seeds WHERE owner_id = ? AND persona = ? ORDER BY created_at`,
		ownerID, string(persona),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list seeds")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.QuerySeed
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan seed")
		}
		var seed model.QuerySeed
		if err := json.Unmarshal([]byte(data), &seed); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal seed")
		}
		out = append(out, seed)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list seeds rows")
}

func (s *SQLiteStore) SaveSeed(ctx context.Context, seed *model.QuerySeed) error {
	data, err := json.Marshal(seed)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal seed")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO seeds (id, owner_id, persona, region, active, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			region = excluded.region,
			active = excluded.active,
			data = excluded.data`,
		seed.ID, seed.OwnerID, string(seed.Persona), seed.Region,
		boolToInt(seed.Active), string(data), seed.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save seed %s", seed.ID)
}

func (s *SQLiteStore) DeleteSeed(ctx context.Context, ownerID, seedID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seeds WHERE id = ? AND owner_id = ?`,
		seedID, ownerID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete seed %s", seedID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	month := s.now().UTC().Format("2006-01")
	var used int
	err := s.db.QueryRowContext(ctx,
		`SELECT used FROM search_quota WHERE quota_key = ?`,
		quotaKey(ownerID, month),
	).Scan(&used)
	if err != nil && err != sql.ErrNoRows {
		return nil, eris.Wrap(err, "sqlite: get quota")
	}
	return quotaSnapshot(month, used, s.quotaLimit), nil
}

func (s *SQLiteStore) IncrementQuota(ctx context.Context, ownerID string) (*model.SearchQuota, error) {
	month := s.now().UTC().Format("2006-01")
	key := quotaKey(ownerID, month)

	// Single conditional upsert: the WHERE on the DO UPDATE makes the
	// increment atomic, so concurrent callers cannot overspend.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO search_quota (quota_key, used) VALUES (?, 1)
		ON CONFLICT(quota_key) DO UPDATE SET used = used + 1
		WHERE used < ?`,
		key, s.quotaLimit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: increment quota")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, &QuotaExceededError{Used: s.quotaLimit, Limit: s.quotaLimit}
	}

	var used int
	if err := s.db.QueryRowContext(ctx,
		`SELECT used FROM search_quota WHERE quota_key = ?`, key,
	).Scan(&used); err != nil {
		return nil, eris.Wrap(err, "sqlite: read quota after increment")
	}
	return quotaSnapshot(month, used, s.quotaLimit), nil
}

func (s *SQLiteStore) SaveBookingInquiry(ctx context.Context, inq *model.BookingInquiry) error {
	data, err := json.Marshal(inq)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal inquiry")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO booking_inquiries (id, owner_id, lead_id, data, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		inq.ID, inq.OwnerID, inq.LeadID, string(data), inq.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save inquiry %s", inq.ID)
}

func scanLead(row *sql.Row) (*model.Lead, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	var lead model.Lead
	if err := json.Unmarshal([]byte(data), &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func quotaKey(ownerID, month string) string {
	return ownerID + ":" + month
}

func quotaSnapshot(month string, used, limit int) *model.SearchQuota {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &model.SearchQuota{Month: month, Used: used, Limit: limit, Remaining: remaining}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
