package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_UpdateContactStatus(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE contacts SET website_visited = \$1`).
		WithArgs(true, "Success", pgxmock.AnyArg(), "c1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := st.UpdateContactStatus(context.Background(), "c1", "website_visited", true, "Success")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateContactStatus_NotFound(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE contacts SET linkedin_connected = \$1`).
		WithArgs(false, "no match", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateContactStatus(context.Background(), "missing", "linkedin_connected", false, "no match")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateContactStatus_RejectsUnknownField(t *testing.T) {
	st, mock := newMockPostgres(t)

	err := st.UpdateContactStatus(context.Background(), "c1", "created_at", true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status field")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetContactSubmitStatus(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE contacts SET contact_form_submit_status = \$1`).
		WithArgs("skipped", "c1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.SetContactSubmitStatus(context.Background(), "c1", model.SubmitSkipped))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ResetSubmissionFields(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE contacts SET contact_form_submitted = NULL`).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.ResetSubmissionFields(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetVisitedSite(t *testing.T) {
	st, mock := newMockPostgres(t)

	visitedAt := time.Now().UTC()
	mock.ExpectQuery(`SELECT key, url, outcome, visited_at FROM visited_sites`).
		WithArgs("acme.com").
		WillReturnRows(pgxmock.NewRows([]string{"key", "url", "outcome", "visited_at"}).
			AddRow("acme.com", "https://acme.com", "form_submitted", visitedAt))

	site, err := st.GetVisitedSite(context.Background(), "acme.com")
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.Equal(t, model.OutcomeFormSubmitted, site.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetVisitedSite_Missing(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT key, url, outcome, visited_at FROM visited_sites`).
		WithArgs("never-seen.com").
		WillReturnRows(pgxmock.NewRows([]string{"key", "url", "outcome", "visited_at"}))

	site, err := st.GetVisitedSite(context.Background(), "never-seen.com")
	require.NoError(t, err)
	assert.Nil(t, site)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetSetting(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO settings`).
		WithArgs("your_name", "Jane Doe").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.SetSetting(context.Background(), model.KeyYourName, "Jane Doe"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutModel(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery(`INSERT INTO classifier_models`).
		WithArgs([]byte("blob"), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(7))

	version, err := st.PutModel(context.Background(), []byte("blob"))
	require.NoError(t, err)
	assert.Equal(t, 7, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LatestModel_Empty(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT version, blob FROM classifier_models`).
		WillReturnRows(pgxmock.NewRows([]string{"version", "blob"}))

	version, blob, err := st.LatestModel(context.Background())
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.Nil(t, blob)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureColumn(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`ALTER TABLE contacts ADD COLUMN IF NOT EXISTS enriched_email TEXT`).
		WillReturnResult(pgxmock.NewResult("ALTER", 0))

	require.NoError(t, st.EnsureColumn(context.Background(), "contacts", "enriched_email", "TEXT"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
