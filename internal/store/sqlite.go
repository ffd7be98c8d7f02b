package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
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
CREATE TABLE IF NOT EXISTS contacts (
	id                               TEXT PRIMARY KEY,
	name                             TEXT NOT NULL DEFAULT '',
	first_name                       TEXT NOT NULL DEFAULT '',
	last_name                        TEXT NOT NULL DEFAULT '',
	company                          TEXT NOT NULL DEFAULT '',
	website                          TEXT NOT NULL DEFAULT '',
	website_backup                   TEXT NOT NULL DEFAULT '',
	linkedin_handle                  TEXT NOT NULL DEFAULT '',
	location                         TEXT NOT NULL DEFAULT '',
	website_visited                  INTEGER,
	website_visited_message          TEXT,
	website_visited_timestamp        DATETIME,
	contact_form_submitted           INTEGER,
	contact_form_submit_status       TEXT NOT NULL DEFAULT '',
	contact_form_submitted_message   TEXT,
	contact_form_submitted_timestamp DATETIME,
	linkedin_connected               INTEGER,
	linkedin_connected_message       TEXT,
	linkedin_connected_timestamp     DATETIME,
	alternative_contact_found        INTEGER NOT NULL DEFAULT 0,
	enriched_all_contacts            TEXT,
	processed_timestamp              DATETIME,
	created_at                       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS visited_sites (
	key        TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	visited_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS field_examples (
	id         TEXT PRIMARY KEY,
	attributes TEXT NOT NULL,
	field_type TEXT NOT NULL,
	source_url TEXT,
	success    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS classifier_models (
	version    INTEGER PRIMARY KEY AUTOINCREMENT,
	blob       BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contacts_form_submitted ON contacts(contact_form_submitted);
CREATE INDEX IF NOT EXISTS idx_contacts_processed ON contacts(processed_timestamp);
CREATE INDEX IF NOT EXISTS idx_field_examples_success ON field_examples(success);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListContacts(ctx context.Context, q ContactQuery) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE 1=1`
	var args []any

	if q.SpecificID != "" {
		query += ` AND id = ?`
		args = append(args, q.SpecificID)
	}
	switch q.Filter {
	case FilterPending:
		query += ` AND contact_form_submitted IS NULL`
	case FilterFailed:
		query += ` AND contact_form_submitted = 0`
	}
	if !q.IncludeProcessed {
		query += ` AND processed_timestamp IS NULL`
	}
	if q.ExcludeID != "" {
		query += ` AND id != ?`
		args = append(args, q.ExcludeID)
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
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
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
	return contacts, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id,
	)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("contact not found: %s", id)
		}
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) InsertContact(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, first_name, last_name, company, website, website_backup,
			linkedin_handle, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.FirstName, c.LastName, c.Company, c.Website, c.WebsiteBackup,
		c.LinkedInHandle, c.Location, c.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert contact")
}

func (s *SQLiteStore) UpdateContactStatus(ctx context.Context, id, field string, value any, message string) error {
	if err := validateStatusField(field); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET `+field+` = ?, `+field+`_message = ?, `+field+`_timestamp = ? WHERE id = ?`,
		value, message, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update %s for contact %s", field, id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) SetContactSubmitStatus(ctx context.Context, id string, status model.SubmitStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET contact_form_submit_status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set submit status for contact %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) SetContactProcessed(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET processed_timestamp = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set processed for contact %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) ResetSubmissionFields(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET contact_form_submitted = NULL,
			contact_form_submit_status = '',
			contact_form_submitted_message = NULL,
			contact_form_submitted_timestamp = NULL,
			processed_timestamp = NULL
		 WHERE id = ?`,
		id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: reset submission fields for contact %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) SetEnriched(ctx context.Context, id, key, value string) error {
	col, err := EnrichedColumn(key)
	if err != nil {
		return err
	}
	if err := s.EnsureColumn(ctx, "contacts", col, "TEXT"); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET `+col+` = ?, alternative_contact_found = 1 WHERE id = ?`,
		value, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set %s for contact %s", col, id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) SetEnrichedAll(ctx context.Context, id string, findings map[string]string) error {
	blob, err := json.Marshal(findings)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal enriched findings")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET enriched_all_contacts = ? WHERE id = ?`,
		string(blob), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set enriched_all_contacts for contact %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

// EnsureColumn adds a column if it does not already exist. SQLite has no
// ADD COLUMN IF NOT EXISTS, so the table info is checked first.
func (s *SQLiteStore) EnsureColumn(ctx context.Context, table, column, colType string) error {
	if err := validateColumnName(table); err != nil {
		return err
	}
	if err := validateColumnName(column); err != nil {
		return err
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&n)
	if err != nil {
		return eris.Wrapf(err, "sqlite: inspect %s", table)
	}
	if n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `ALTER TABLE `+table+` ADD COLUMN `+column+` `+colType)
	return eris.Wrapf(err, "sqlite: add column %s.%s", table, column)
}

func (s *SQLiteStore) GetVisitedSite(ctx context.Context, key string) (*model.VisitedSite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, url, outcome, visited_at FROM visited_sites WHERE key = ?`, key,
	)
	var site model.VisitedSite
	err := row.Scan(&site.Key, &site.URL, &site.Outcome, &site.VisitedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get visited site")
	}
	return &site, nil
}

func (s *SQLiteStore) UpsertVisitedSite(ctx context.Context, site model.VisitedSite) error {
	if site.VisitedAt.IsZero() {
		site.VisitedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visited_sites (key, url, outcome, visited_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET url = excluded.url, outcome = excluded.outcome, visited_at = excluded.visited_at`,
		site.Key, site.URL, string(site.Outcome), site.VisitedAt,
	)
	return eris.Wrap(err, "sqlite: upsert visited site")
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (model.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get settings")
	}
	defer rows.Close()

	settings := make(model.Settings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan setting")
		}
		settings[k] = v
	}
	return settings, eris.Wrap(rows.Err(), "sqlite: settings iterate")
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, eris.Wrap(err, "sqlite: get setting")
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return eris.Wrapf(err, "sqlite: set setting %s", key)
}

func (s *SQLiteStore) AppendFieldExample(ctx context.Context, ex model.FieldExample) error {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	attrsJSON, err := json.Marshal(ex.Attributes)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal field attributes")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO field_examples (id, attributes, field_type, source_url, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ex.ID, string(attrsJSON), string(ex.FieldType), ex.SourceURL, ex.Success, ex.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: append field example")
}

func (s *SQLiteStore) ListFieldExamples(ctx context.Context, successOnly bool) ([]model.FieldExample, error) {
	query := `SELECT id, attributes, field_type, source_url, success, created_at FROM field_examples`
	if successOnly {
		query += ` WHERE success = 1`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list field examples")
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
	return examples, eris.Wrap(rows.Err(), "sqlite: field examples iterate")
}

func (s *SQLiteStore) PutModel(ctx context.Context, blob []byte) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO classifier_models (blob, created_at) VALUES (?, ?)`,
		blob, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: put model")
	}
	version, err := res.LastInsertId()
	return int(version), eris.Wrap(err, "sqlite: model version")
}

func (s *SQLiteStore) LatestModel(ctx context.Context) (int, []byte, error) {
	var version int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT version, blob FROM classifier_models ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &blob)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, eris.Wrap(err, "sqlite: latest model")
	}
	return version, blob, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
