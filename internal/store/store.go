// Package store persists contacts, visited sites, operator settings, and the
// classifier's training data behind one row-oriented interface.
package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// ContactFilter selects which contacts a batch pass operates on.
type ContactFilter string

const (
	FilterAll     ContactFilter = "all"
	FilterPending ContactFilter = "pending" // contact_form_submitted is null
	FilterFailed  ContactFilter = "failed"  // contact_form_submitted = false
)

// ContactQuery specifies criteria for listing contacts.
type ContactQuery struct {
	Filter           ContactFilter
	Limit            int
	SpecificID       string // process exactly one contact
	ExcludeID        string // resume: skip the cursor's last id
	UnprocessedFirst bool   // resume: unprocessed rows sort first
	IncludeProcessed bool   // retry passes revisit processed rows
}

// Store is the table store reached by the pipeline. Implementations exist
// for SQLite (local) and Postgres (cloud).
type Store interface {
	// Contacts
	ListContacts(ctx context.Context, q ContactQuery) ([]model.Contact, error)
	GetContact(ctx context.Context, id string) (*model.Contact, error)
	InsertContact(ctx context.Context, c *model.Contact) error

	// UpdateContactStatus writes field plus its _message and _timestamp
	// siblings in one statement (the journal contract).
	UpdateContactStatus(ctx context.Context, id, field string, value any, message string) error
	SetContactSubmitStatus(ctx context.Context, id string, status model.SubmitStatus) error
	SetContactProcessed(ctx context.Context, id string, at time.Time) error
	ResetSubmissionFields(ctx context.Context, id string) error

	// Enrichment: grows an enriched_<key> column on demand, then writes it.
	SetEnriched(ctx context.Context, id, key, value string) error
	SetEnrichedAll(ctx context.Context, id string, findings map[string]string) error
	EnsureColumn(ctx context.Context, table, column, colType string) error

	// Visited sites
	GetVisitedSite(ctx context.Context, key string) (*model.VisitedSite, error)
	UpsertVisitedSite(ctx context.Context, site model.VisitedSite) error

	// Settings
	GetSettings(ctx context.Context) (model.Settings, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Classifier training store and model blobs.
	AppendFieldExample(ctx context.Context, ex model.FieldExample) error
	ListFieldExamples(ctx context.Context, successOnly bool) ([]model.FieldExample, error)
	PutModel(ctx context.Context, blob []byte) (int, error)
	LatestModel(ctx context.Context) (int, []byte, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// statusFields whitelists the journal fields UpdateContactStatus may touch.
// Each has _message and _timestamp siblings in the contacts table.
var statusFields = map[string]bool{
	"website_visited":        true,
	"contact_form_submitted": true,
	"linkedin_connected":     true,
}

func validateStatusField(field string) error {
	if !statusFields[field] {
		return eris.Errorf("store: unknown status field %q", field)
	}
	return nil
}

var columnNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// EnrichedColumn maps an enrichment key to its contacts-table column name.
// Keys are lowercased and non-identifier characters collapse to underscores.
func EnrichedColumn(key string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	var b strings.Builder
	for _, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	col := "enriched_" + b.String()
	if !columnNamePattern.MatchString(col) || b.Len() == 0 {
		return "", eris.Errorf("store: invalid enrichment key %q", key)
	}
	return col, nil
}

func validateColumnName(name string) error {
	if !columnNamePattern.MatchString(name) {
		return eris.Errorf("store: invalid column name %q", name)
	}
	return nil
}
