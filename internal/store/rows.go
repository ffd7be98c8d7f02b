package store

import (
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// contactColumns is the select list shared by both drivers, in scanContact order.
const contactColumns = `id, name, first_name, last_name, company, website, website_backup,
	linkedin_handle, location, website_visited, website_visited_message,
	contact_form_submitted, contact_form_submit_status, contact_form_submitted_message,
	contact_form_submitted_timestamp, linkedin_connected, linkedin_connected_message,
	alternative_contact_found, enriched_all_contacts, processed_timestamp, created_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanContact(row scannable) (*model.Contact, error) {
	var c model.Contact
	var (
		visited      sql.NullBool
		visitedMsg   sql.NullString
		submitted    sql.NullBool
		submitStatus sql.NullString
		submittedMsg sql.NullString
		submittedAt  sql.NullTime
		connected    sql.NullBool
		connectedMsg sql.NullString
		altFound     sql.NullBool
		enrichedJSON sql.NullString
		processedAt  sql.NullTime
	)

	err := row.Scan(
		&c.ID, &c.Name, &c.FirstName, &c.LastName, &c.Company, &c.Website, &c.WebsiteBackup,
		&c.LinkedInHandle, &c.Location, &visited, &visitedMsg,
		&submitted, &submitStatus, &submittedMsg,
		&submittedAt, &connected, &connectedMsg,
		&altFound, &enrichedJSON, &processedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan contact")
	}

	if visited.Valid {
		c.WebsiteVisited = model.BoolPtr(visited.Bool)
	}
	c.WebsiteVisitedMessage = visitedMsg.String
	if submitted.Valid {
		c.FormSubmitted = model.BoolPtr(submitted.Bool)
	}
	c.FormSubmitStatus = model.SubmitStatus(submitStatus.String)
	c.FormSubmittedMessage = submittedMsg.String
	if submittedAt.Valid {
		t := submittedAt.Time
		c.FormSubmittedAt = &t
	}
	if connected.Valid {
		c.LinkedInConnected = model.BoolPtr(connected.Bool)
	}
	c.LinkedInConnectedMessage = connectedMsg.String
	c.AlternativeContactFound = altFound.Valid && altFound.Bool
	if enrichedJSON.Valid && enrichedJSON.String != "" {
		if err := json.Unmarshal([]byte(enrichedJSON.String), &c.EnrichedAll); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal enriched_all_contacts")
		}
	}
	if processedAt.Valid {
		t := processedAt.Time
		c.ProcessedAt = &t
	}
	return &c, nil
}

func scanFieldExample(row scannable) (*model.FieldExample, error) {
	var ex model.FieldExample
	var attrsJSON string
	var sourceURL sql.NullString
	if err := row.Scan(&ex.ID, &attrsJSON, &ex.FieldType, &sourceURL, &ex.Success, &ex.CreatedAt); err != nil {
		return nil, eris.Wrap(err, "store: scan field example")
	}
	ex.SourceURL = sourceURL.String
	if err := json.Unmarshal([]byte(attrsJSON), &ex.Attributes); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal field attributes")
	}
	return &ex, nil
}
