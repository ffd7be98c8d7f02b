package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestCSV(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	csvData := "﻿Name,Company,Website,LinkedIn URL,City\n" +
		"Jane Roe,Acme Plumbing,acme.com,https://www.linkedin.com/in/janeroe/,Springfield\n" +
		"Bob Poe,Poe LLC,https://poe.example,,\n" +
		",,,,\n"

	report, err := CSV(ctx, st, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Skipped)

	contacts, err := st.ListContacts(ctx, store.ContactQuery{Filter: store.FilterAll, Limit: 10})
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	jane := contacts[0]
	if jane.Name != "Jane Roe" {
		jane = contacts[1]
	}
	assert.Equal(t, "Acme Plumbing", jane.Company)
	assert.Equal(t, "acme.com", jane.Website)
	assert.Equal(t, "janeroe", jane.LinkedInHandle)
	assert.Equal(t, "Springfield", jane.Location)
}

func TestCSV_FirstLastOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	csvData := "First Name,Last Name,Website\nJane,Roe,acme.com\n"
	report, err := CSV(ctx, st, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	contacts, err := st.ListContacts(ctx, store.ContactQuery{Filter: store.FilterAll, Limit: 10})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Jane Roe", contacts[0].Name)
	assert.Equal(t, "Jane", contacts[0].FirstName)
	assert.Equal(t, "Roe", contacts[0].LastName)
}

func TestCSV_UnknownColumnsIgnored(t *testing.T) {
	st := newTestStore(t)

	csvData := "Name,Website,Revenue,Notes\nJane Roe,acme.com,1M,hot lead\n"
	report, err := CSV(context.Background(), st, strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
}

func TestFile_UnsupportedExtension(t *testing.T) {
	st := newTestStore(t)
	_, err := File(context.Background(), st, "leads.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLinkedInHandle(t *testing.T) {
	assert.Equal(t, "janeroe", linkedinHandle("https://www.linkedin.com/in/janeroe/"))
	assert.Equal(t, "janeroe", linkedinHandle("janeroe"))
	assert.Equal(t, "", linkedinHandle(""))
}

func TestMapHeader(t *testing.T) {
	cols := mapHeader([]string{"Full Name", "Business-Name", "URL", "city"})
	assert.Equal(t, 0, cols["name"])
	assert.Equal(t, 1, cols["company"])
	assert.Equal(t, 2, cols["website"])
	assert.Equal(t, 3, cols["location"])
}
