// Package importer loads contact lists from operator-supplied CSV and XLSX
// files into the contacts table.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

// Report totals one import.
type Report struct {
	Imported int
	Skipped  int
}

// File imports a contact list, dispatching on the file extension.
func File(ctx context.Context, st store.Store, path string) (Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return Report{}, eris.Wrap(err, "importer: open csv")
		}
		defer f.Close() //nolint:errcheck
		return CSV(ctx, st, f)
	case ".xlsx":
		return XLSX(ctx, st, path)
	default:
		return Report{}, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

// CSV imports contacts from CSV data. Excel exports often lead with a BOM,
// so the reader is decoded BOM-tolerantly first.
func CSV(ctx context.Context, st store.Store, r io.Reader) (Report, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Report{}, eris.Wrap(err, "importer: read csv header")
	}
	cols := mapHeader(header)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Report{}, eris.Wrap(err, "importer: read csv row")
		}
		rows = append(rows, record)
	}
	return insertRows(ctx, st, cols, rows)
}

// XLSX imports contacts from the first sheet of an XLSX workbook.
func XLSX(ctx context.Context, st store.Store, path string) (Report, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return Report{}, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return Report{}, eris.New("importer: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return Report{}, eris.New("importer: sheet is empty")
	}

	cols := mapHeader(rowStrings(sheet.Rows[0]))
	var rows [][]string
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowStrings(row))
	}
	return insertRows(ctx, st, cols, rows)
}

// Recognized header names, normalized, mapped onto contact fields.
var headerAliases = map[string]string{
	"name":            "name",
	"full_name":       "name",
	"contact_name":    "name",
	"first_name":      "first_name",
	"first":           "first_name",
	"last_name":       "last_name",
	"last":            "last_name",
	"company":         "company",
	"organization":    "company",
	"business":        "company",
	"business_name":   "company",
	"website":         "website",
	"url":             "website",
	"site":            "website",
	"website_backup":  "website_backup",
	"backup_website":  "website_backup",
	"website_2":       "website_backup",
	"linkedin":        "linkedin",
	"linkedin_handle": "linkedin",
	"linkedin_url":    "linkedin",
	"location":        "location",
	"city":            "location",
}

func mapHeader(header []string) map[string]int {
	cols := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
		if field, ok := headerAliases[key]; ok {
			if _, taken := cols[field]; !taken {
				cols[field] = i
			}
		}
	}
	return cols
}

func insertRows(ctx context.Context, st store.Store, cols map[string]int, rows [][]string) (Report, error) {
	var report Report
	cell := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for _, row := range rows {
		contact := model.Contact{
			Name:           cell(row, "name"),
			FirstName:      cell(row, "first_name"),
			LastName:       cell(row, "last_name"),
			Company:        cell(row, "company"),
			Website:        cell(row, "website"),
			WebsiteBackup:  cell(row, "website_backup"),
			LinkedInHandle: linkedinHandle(cell(row, "linkedin")),
			Location:       cell(row, "location"),
		}
		if contact.Name == "" && contact.FirstName != "" {
			contact.Name = strings.TrimSpace(contact.FirstName + " " + contact.LastName)
		}
		// A row with neither a name nor a website gives the pipeline
		// nothing to act on.
		if contact.Name == "" && contact.Website == "" {
			report.Skipped++
			continue
		}
		if err := st.InsertContact(ctx, &contact); err != nil {
			return report, eris.Wrap(err, "importer: insert contact")
		}
		report.Imported++
	}

	zap.L().Info("importer: finished",
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// linkedinHandle reduces a profile URL to its bare handle.
func linkedinHandle(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, "/in/"); i >= 0 {
		raw = raw[i+len("/in/"):]
	}
	return strings.Trim(raw, "/")
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}
