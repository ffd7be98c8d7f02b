package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st, config.ServerConfig{Port: 0}), st
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestStatus_IdleByDefault(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var snap struct {
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "idle", snap.State)
}

func TestListAndGetContacts(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	contact := &model.Contact{Name: "Jane Roe", Company: "Acme", Website: "https://acme.com"}
	require.NoError(t, st.InsertContact(ctx, contact))

	rec := doRequest(t, s, http.MethodGet, "/api/contacts", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = doRequest(t, s, http.MethodGet, "/api/contacts/"+contact.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jane Roe")

	rec = doRequest(t, s, http.MethodGet, "/api/contacts/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListContacts_PendingFilter(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	pending := &model.Contact{Name: "P", Website: "https://p.com"}
	require.NoError(t, st.InsertContact(ctx, pending))
	done := &model.Contact{Name: "D", Website: "https://d.com"}
	require.NoError(t, st.InsertContact(ctx, done))
	require.NoError(t, st.UpdateContactStatus(ctx, done.ID, "contact_form_submitted", true, "ok"))

	rec := doRequest(t, s, http.MethodGet, "/api/contacts?filter=pending", "")
	var list struct {
		Contacts []model.Contact `json:"contacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Contacts, 1)
	assert.Equal(t, "P", list.Contacts[0].Name)
}

func TestRetryContact(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	contact := &model.Contact{Name: "F", Website: "https://f.com"}
	require.NoError(t, st.InsertContact(ctx, contact))
	require.NoError(t, st.UpdateContactStatus(ctx, contact.ID, "contact_form_submitted", false, "all 3 attempts failed"))

	rec := doRequest(t, s, http.MethodPost, "/api/contacts/"+contact.ID+"/retry", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := st.GetContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FormSubmitted)
	assert.Empty(t, got.FormSubmittedMessage)

	rec = doRequest(t, s, http.MethodPost, "/api/contacts/nope/retry", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettings(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, st.SetSetting(ctx, model.KeyYourName, "Olive Operator"))
	require.NoError(t, st.SetSetting(ctx, model.KeyLinkedInPassword, "hunter2"))

	rec := doRequest(t, s, http.MethodGet, "/api/settings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Olive Operator")
	assert.NotContains(t, rec.Body.String(), "hunter2")

	rec = doRequest(t, s, http.MethodPut, "/api/settings/"+model.KeyBrowserSpeed, `{"value":"slow"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	speed, err := st.GetSetting(ctx, model.KeyBrowserSpeed)
	require.NoError(t, err)
	assert.Equal(t, "slow", speed)

	rec = doRequest(t, s, http.MethodPut, "/api/settings/x", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
