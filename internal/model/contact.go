package model

import (
	"strings"
	"time"
)

// SubmitStatus is the companion status for contact_form_submitted. The
// boolean column stays for console compatibility; the status widens it with
// the "skipped" sentinel used when the operator disabled form submission.
type SubmitStatus string

const (
	SubmitPending SubmitStatus = ""
	SubmitSuccess SubmitStatus = "success"
	SubmitFailed  SubmitStatus = "failed"
	SubmitSkipped SubmitStatus = "skipped"
)

// Contact is one target person/business to reach out to.
type Contact struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Company        string `json:"company"`
	Website        string `json:"website"`
	WebsiteBackup  string `json:"website_backup,omitempty"`
	LinkedInHandle string `json:"linkedin_handle,omitempty"`
	Location       string `json:"location,omitempty"`

	// Outcome fields written by the pipeline. Nil pointers mean untried.
	WebsiteVisited          *bool        `json:"website_visited,omitempty"`
	WebsiteVisitedMessage   string       `json:"website_visited_message,omitempty"`
	FormSubmitted           *bool        `json:"contact_form_submitted,omitempty"`
	FormSubmitStatus        SubmitStatus `json:"contact_form_submit_status,omitempty"`
	FormSubmittedMessage    string       `json:"contact_form_submitted_message,omitempty"`
	FormSubmittedAt         *time.Time   `json:"contact_form_submitted_timestamp,omitempty"`
	LinkedInConnected       *bool        `json:"linkedin_connected,omitempty"`
	LinkedInConnectedMessage string      `json:"linkedin_connected_message,omitempty"`
	AlternativeContactFound bool         `json:"alternative_contact_found,omitempty"`
	EnrichedAll             map[string]string `json:"enriched_all_contacts,omitempty"`
	ProcessedAt             *time.Time   `json:"processed_timestamp,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Processed reports whether a non-retry batch should skip this row.
func (c *Contact) Processed() bool {
	return c.ProcessedAt != nil
}

// GivenName returns the first name, splitting the display name when the
// explicit field is empty.
func (c *Contact) GivenName() string {
	if c.FirstName != "" {
		return c.FirstName
	}
	first, _ := SplitName(c.Name)
	return first
}

// FamilyName returns the last name, splitting the display name when the
// explicit field is empty.
func (c *Contact) FamilyName() string {
	if c.LastName != "" {
		return c.LastName
	}
	_, last := SplitName(c.Name)
	return last
}

// TemplateValues returns the contact's columns as template placeholder values.
func (c *Contact) TemplateValues() map[string]string {
	return map[string]string{
		"name":       c.Name,
		"first_name": c.GivenName(),
		"last_name":  c.FamilyName(),
		"company":    c.Company,
		"website":    c.Website,
		"location":   c.Location,
	}
}

// SplitName splits a display name into first and last on the first space.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// BoolPtr returns a pointer to b. Outcome columns are tri-state.
func BoolPtr(b bool) *bool { return &b }
