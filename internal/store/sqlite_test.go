package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedContact(t *testing.T, st *SQLiteStore, c model.Contact) model.Contact {
	t.Helper()
	require.NoError(t, st.InsertContact(context.Background(), &c))
	return c
}

// --- Contacts ---

func TestSQLite_InsertAndGetContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := seedContact(t, st, model.Contact{Name: "Jane Doe", Company: "Acme", Website: "https://acme.com"})
	require.NotEmpty(t, c.ID)

	got, err := st.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "Acme", got.Company)
	assert.Nil(t, got.WebsiteVisited)
	assert.Nil(t, got.FormSubmitted)
	assert.Nil(t, got.ProcessedAt)
}

func TestSQLite_GetContact_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetContact(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateContactStatus_WritesSiblings(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedContact(t, st, model.Contact{Name: "A B", Website: "https://x.com"})

	require.NoError(t, st.UpdateContactStatus(ctx, c.ID, "website_visited", false, "domain not found"))

	got, err := st.GetContact(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WebsiteVisited)
	assert.False(t, *got.WebsiteVisited)
	assert.Equal(t, "domain not found", got.WebsiteVisitedMessage)
}

func TestSQLite_UpdateContactStatus_RejectsUnknownField(t *testing.T) {
	st := newTestSQLiteStore(t)
	c := seedContact(t, st, model.Contact{Name: "A"})
	err := st.UpdateContactStatus(context.Background(), c.ID, "id; DROP TABLE contacts", true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status field")
}

func TestSQLite_ListContacts_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	pending := seedContact(t, st, model.Contact{Name: "Pending", Website: "https://p.com"})
	failed := seedContact(t, st, model.Contact{Name: "Failed", Website: "https://f.com"})
	done := seedContact(t, st, model.Contact{Name: "Done", Website: "https://d.com"})

	require.NoError(t, st.UpdateContactStatus(ctx, failed.ID, "contact_form_submitted", false, "all attempts failed"))
	require.NoError(t, st.SetContactProcessed(ctx, failed.ID, time.Now()))
	require.NoError(t, st.UpdateContactStatus(ctx, done.ID, "contact_form_submitted", true, "Success"))
	require.NoError(t, st.SetContactProcessed(ctx, done.ID, time.Now()))

	got, err := st.ListContacts(ctx, ContactQuery{Filter: FilterPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)

	got, err = st.ListContacts(ctx, ContactQuery{Filter: FilterFailed, IncludeProcessed: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, failed.ID, got[0].ID)

	// Non-retry passes never see processed rows.
	got, err = st.ListContacts(ctx, ContactQuery{Filter: FilterAll})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)
}

func TestSQLite_ListContacts_ExcludeAndSpecific(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := seedContact(t, st, model.Contact{Name: "A"})
	b := seedContact(t, st, model.Contact{Name: "B"})

	got, err := st.ListContacts(ctx, ContactQuery{ExcludeID: a.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = st.ListContacts(ctx, ContactQuery{SpecificID: a.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
}

func TestSQLite_ResetSubmissionFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedContact(t, st, model.Contact{Name: "Retryable"})

	require.NoError(t, st.UpdateContactStatus(ctx, c.ID, "contact_form_submitted", false, "boom"))
	require.NoError(t, st.SetContactSubmitStatus(ctx, c.ID, model.SubmitFailed))
	require.NoError(t, st.SetContactProcessed(ctx, c.ID, time.Now()))

	require.NoError(t, st.ResetSubmissionFields(ctx, c.ID))

	got, err := st.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FormSubmitted)
	assert.Equal(t, model.SubmitPending, got.FormSubmitStatus)
	assert.Empty(t, got.FormSubmittedMessage)
	assert.Nil(t, got.FormSubmittedAt)
	assert.Nil(t, got.ProcessedAt)
}

// --- Enrichment column growth ---

func TestSQLite_SetEnriched_GrowsColumn(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedContact(t, st, model.Contact{Name: "E"})

	require.NoError(t, st.SetEnriched(ctx, c.ID, "email", "info@acme.com"))
	// Repeat is a no-op on schema, update on value.
	require.NoError(t, st.SetEnriched(ctx, c.ID, "email", "sales@acme.com"))

	var v string
	err := st.db.QueryRowContext(ctx, `SELECT enriched_email FROM contacts WHERE id = ?`, c.ID).Scan(&v)
	require.NoError(t, err)
	assert.Equal(t, "sales@acme.com", v)

	got, err := st.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.AlternativeContactFound)
}

func TestSQLite_SetEnrichedAll(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedContact(t, st, model.Contact{Name: "E"})

	findings := map[string]string{"email": "a@b.com", "phone": "5551234"}
	require.NoError(t, st.SetEnrichedAll(ctx, c.ID, findings))

	got, err := st.GetContact(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, findings, got.EnrichedAll)
}

func TestSQLite_EnsureColumn_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.EnsureColumn(ctx, "contacts", "enriched_facebook", "TEXT"))
	require.NoError(t, st.EnsureColumn(ctx, "contacts", "enriched_facebook", "TEXT"))

	err := st.EnsureColumn(ctx, "contacts", "bad name", "TEXT")
	assert.Error(t, err)
}

// --- Visited sites ---

func TestSQLite_VisitedSites_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	got, err := st.GetVisitedSite(ctx, "foo.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	site := model.VisitedSite{Key: "foo.com", URL: "http://foo.com", Outcome: model.OutcomeVisiting}
	require.NoError(t, st.UpsertVisitedSite(ctx, site))

	site.Outcome = model.OutcomeFormSubmitted
	require.NoError(t, st.UpsertVisitedSite(ctx, site))

	got, err = st.GetVisitedSite(ctx, "foo.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.OutcomeFormSubmitted, got.Outcome)
	assert.True(t, got.Outcome.Terminal())
}

// --- Settings ---

func TestSQLite_Settings(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	v, err := st.GetSetting(ctx, model.KeyYourEmail)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, st.SetSetting(ctx, model.KeyYourEmail, "j@d.com"))
	require.NoError(t, st.SetSetting(ctx, model.KeyYourEmail, "j2@d.com")) // overwrite

	v, err = st.GetSetting(ctx, model.KeyYourEmail)
	require.NoError(t, err)
	assert.Equal(t, "j2@d.com", v)

	all, err := st.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "j2@d.com", all.YourEmail())
}

// --- Classifier store ---

func TestSQLite_FieldExamples(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ok := model.FieldExample{
		Attributes: model.FieldAttributes{Name: "your-email", Tag: "input", Type: "email"},
		FieldType:  model.FieldEmail,
		SourceURL:  "https://acme.com/contact",
		Success:    true,
	}
	bad := model.FieldExample{
		Attributes: model.FieldAttributes{Name: "mystery"},
		FieldType:  model.FieldUnknown,
		Success:    false,
	}
	require.NoError(t, st.AppendFieldExample(ctx, ok))
	require.NoError(t, st.AppendFieldExample(ctx, bad))

	all, err := st.ListFieldExamples(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	successes, err := st.ListFieldExamples(ctx, true)
	require.NoError(t, err)
	require.Len(t, successes, 1)
	assert.Equal(t, model.FieldEmail, successes[0].FieldType)
	assert.Equal(t, "your-email", successes[0].Attributes.Name)
}

func TestSQLite_ModelBlobs_LatestWins(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	version, blob, err := st.LatestModel(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.Nil(t, blob)

	v1, err := st.PutModel(ctx, []byte("model-v1"))
	require.NoError(t, err)
	v2, err := st.PutModel(ctx, []byte("model-v2"))
	require.NoError(t, err)
	assert.Greater(t, v2, v1)

	version, blob, err = st.LatestModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2, version)
	assert.Equal(t, "model-v2", string(blob))
}

func TestEnrichedColumn(t *testing.T) {
	col, err := EnrichedColumn("email")
	require.NoError(t, err)
	assert.Equal(t, "enriched_email", col)

	col, err = EnrichedColumn("Business Hours")
	require.NoError(t, err)
	assert.Equal(t, "enriched_business_hours", col)

	_, err = EnrichedColumn("")
	assert.Error(t, err)
}
