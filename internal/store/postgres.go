package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
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
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests with pgxmock).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id                               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                             TEXT NOT NULL DEFAULT '',
	first_name                       TEXT NOT NULL DEFAULT '',
	last_name                        TEXT NOT NULL DEFAULT '',
	company                          TEXT NOT NULL DEFAULT '',
	website                          TEXT NOT NULL DEFAULT '',
	website_backup                   TEXT NOT NULL DEFAULT '',
	linkedin_handle                  TEXT NOT NULL DEFAULT '',
	location                         TEXT NOT NULL DEFAULT '',
	website_visited                  BOOLEAN,
	website_visited_message          TEXT,
	website_visited_timestamp        TIMESTAMPTZ,
	contact_form_submitted           BOOLEAN,
	contact_form_submit_status       TEXT NOT NULL DEFAULT '',
	contact_form_submitted_message   TEXT,
	contact_form_submitted_timestamp TIMESTAMPTZ,
	linkedin_connected               BOOLEAN,
	linkedin_connected_message       TEXT,
	linkedin_connected_timestamp     TIMESTAMPTZ,
	alternative_contact_found        BOOLEAN NOT NULL DEFAULT false,
	enriched_all_contacts            JSONB,
	processed_timestamp              TIMESTAMPTZ,
	created_at                       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS visited_sites (
	key        TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	visited_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS field_examples (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	attributes JSONB NOT NULL,
	field_type TEXT NOT NULL,
	source_url TEXT,
	success    BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS classifier_models (
	version    SERIAL PRIMARY KEY,
	blob       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contacts_form_submitted ON contacts(contact_form_submitted);
CREATE INDEX IF NOT EXISTS idx_contacts_processed ON contacts(processed_timestamp);
CREATE INDEX IF NOT EXISTS idx_field_examples_success ON field_examples(success);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, q ContactQuery) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.SpecificID != "" {
		query += ` AND id = ` + arg(q.SpecificID)
	}
	switch q.Filter {
	case FilterPending:
		query += ` AND contact_form_submitted IS NULL`
	case FilterFailed:
		query += ` AND contact_form_submitted = false`
	}
	if !q.IncludeProcessed {
		query += ` AND processed_timestamp IS NULL`
	}
	if q.ExcludeID != "" {
		query += ` AND id != ` + arg(q.ExcludeID)
	}

	if q.UnprocessedFirst {
		query += ` ORDER BY (processed_timestamp IS NOT NULL), created_at`
	} else {
		query += ` ORDER BY created_at`
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("contact not found: %s", id)
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) InsertContact(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (id, name, first_name, last_name, company, website, website_backup,
			linkedin_handle, location, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Name, c.FirstName, c.LastName, c.Company, c.Website, c.WebsiteBackup,
		c.LinkedInHandle, c.Location, c.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert contact")
}

func (s *PostgresStore) UpdateContactStatus(ctx context.Context, id, field string, value any, message string) error {
	if err := validateStatusField(field); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET `+field+` = $1, `+field+`_message = $2, `+field+`_timestamp = $3 WHERE id = $4`,
		value, message, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update %s for contact %s", field, id)
	}
	return checkTag(tag, "contact", id)
}

func (s *PostgresStore) SetContactSubmitStatus(ctx context.Context, id string, status model.SubmitStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET contact_form_submit_status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set submit status for contact %s", id)
	}
	return checkTag(tag, "contact", id)
}

func (s *PostgresStore) SetContactProcessed(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET processed_timestamp = $1 WHERE id = $2`,
		at.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set processed for contact %s", id)
	}
	return checkTag(tag, "contact", id)
}

func (s *PostgresStore) ResetSubmissionFields(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET contact_form_submitted = NULL,
			contact_form_submit_status = '',
			contact_form_submitted_message = NULL,
			contact_form_submitted_timestamp = NULL,
			processed_timestamp = NULL
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: reset submission fields for contact %s", id)
	}
	return checkTag(tag, "contact", id)
}

func (s *PostgresStore) SetEnriched(ctx context.Context, id, key, value string) error {
	col, err := EnrichedColumn(key)
	if err != nil {
		return err
	}
	if err := s.EnsureColumn(ctx, "contacts", col, "TEXT"); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET `+col+` = $1, alternative_contact_found = true WHERE id = $2`,
		value, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set %s for contact %s", col, id)
	}
	return checkTag(tag, "contact", id)
}

func (s *PostgresStore) SetEnrichedAll(ctx context.Context, id string, findings map[string]string) error {
	blob, err := json.Marshal(findings)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal enriched findings")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET enriched_all_contacts = $1 WHERE id = $2`,
		string(blob), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set enriched_all_contacts for contact %s", id)
	}
	return checkTag(tag, "contact", id)
}

func (s *PostgresStore) EnsureColumn(ctx context.Context, table, column, colType string) error {
	if err := validateColumnName(table); err != nil {
		return err
	}
	if err := validateColumnName(column); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`ALTER TABLE `+table+` ADD COLUMN IF NOT EXISTS `+column+` `+colType)
	return eris.Wrapf(err, "postgres: add column %s.%s", table, column)
}

func (s *PostgresStore) GetVisitedSite(ctx context.Context, key string) (*model.VisitedSite, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT key, url, outcome, visited_at FROM visited_sites WHERE key = $1`, key,
	)
	var site model.VisitedSite
	err := row.Scan(&site.Key, &site.URL, &site.Outcome, &site.VisitedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get visited site")
	}
	return &site, nil
}

func (s *PostgresStore) UpsertVisitedSite(ctx context.Context, site model.VisitedSite) error {
	if site.VisitedAt.IsZero() {
		site.VisitedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO visited_sites (key, url, outcome, visited_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET url = excluded.url, outcome = excluded.outcome, visited_at = excluded.visited_at`,
		site.Key, site.URL, string(site.Outcome), site.VisitedAt,
	)
	return eris.Wrap(err, "postgres: upsert visited site")
}

func (s *PostgresStore) GetSettings(ctx context.Context) (model.Settings, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get settings")
	}
	defer rows.Close()

	settings := make(model.Settings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan setting")
		}
		settings[k] = v
	}
	return settings, eris.Wrap(rows.Err(), "postgres: settings iterate")
}

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return v, eris.Wrap(err, "postgres: get setting")
}

func (s *PostgresStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return eris.Wrapf(err, "postgres: set setting %s", key)
}

func (s *PostgresStore) AppendFieldExample(ctx context.Context, ex model.FieldExample) error {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	attrsJSON, err := json.Marshal(ex.Attributes)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal field attributes")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO field_examples (id, attributes, field_type, source_url, success, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ex.ID, string(attrsJSON), string(ex.FieldType), ex.SourceURL, ex.Success, ex.CreatedAt,
	)
	return eris.Wrap(err, "postgres: append field example")
}

func (s *PostgresStore) ListFieldExamples(ctx context.Context, successOnly bool) ([]model.FieldExample, error) {
	query := `SELECT id, attributes, field_type, source_url, success, created_at FROM field_examples`
	if successOnly {
		query += ` WHERE success = true`
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list field examples")
	}
	defer rows.Close()

	var examples []model.FieldExample
	for rows.Next() {
		ex, err := scanFieldExample(rows)
		if err != nil {
			return nil, err
		}
		examples = append(examples, *ex)
	}
	return examples, eris.Wrap(rows.Err(), "postgres: field examples iterate")
}

func (s *PostgresStore) PutModel(ctx context.Context, blob []byte) (int, error) {
	var version int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO classifier_models (blob, created_at) VALUES ($1, $2) RETURNING version`,
		blob, time.Now().UTC(),
	).Scan(&version)
	return version, eris.Wrap(err, "postgres: put model")
}

func (s *PostgresStore) LatestModel(ctx context.Context) (int, []byte, error) {
	var version int
	var blob []byte
	err := s.pool.QueryRow(ctx,
		`SELECT version, blob FROM classifier_models ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, eris.Wrap(err, "postgres: latest model")
	}
	return version, blob, nil
}

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
