package model

import (
	"strings"
	"time"
)

// FieldType is the semantic category assigned to a form field.
type FieldType string

const (
	FieldFirstName FieldType = "first_name"
	FieldLastName  FieldType = "last_name"
	FieldFullName  FieldType = "full_name"
	FieldEmail     FieldType = "email"
	FieldPhone     FieldType = "phone"
	FieldCompany   FieldType = "company"
	FieldMessage   FieldType = "message"
	FieldSubject   FieldType = "subject"
	FieldAddress   FieldType = "address"
	FieldCity      FieldType = "city"
	FieldState     FieldType = "state"
	FieldZip       FieldType = "zip"
	FieldCountry   FieldType = "country"
	FieldWebsite   FieldType = "website"
	FieldDate      FieldType = "date"
	FieldTime      FieldType = "time"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldDropdown  FieldType = "dropdown"
	FieldSubmit    FieldType = "submit"
	FieldUnknown   FieldType = "unknown"
)

// FieldTypes is the fixed type catalog.
var FieldTypes = []FieldType{
	FieldFirstName, FieldLastName, FieldFullName, FieldEmail, FieldPhone,
	FieldCompany, FieldMessage, FieldSubject, FieldAddress, FieldCity,
	FieldState, FieldZip, FieldCountry, FieldWebsite, FieldDate, FieldTime,
	FieldCheckbox, FieldRadio, FieldDropdown, FieldSubmit, FieldUnknown,
}

// FieldAttributes is the attribute bag collected from a form field, plus
// neighborhood hints. All values are lowercased before classification.
type FieldAttributes struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Class       string   `json:"class,omitempty"`
	Type        string   `json:"type,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Label       string   `json:"label,omitempty"`
	AriaLabel   string   `json:"aria_label,omitempty"`
	Tag         string   `json:"tag,omitempty"`
	ParentClass string   `json:"parent_class,omitempty"`
	Siblings    []string `json:"siblings,omitempty"`
	SiblingIdx  int      `json:"sibling_index,omitempty"`
	FormPurpose string   `json:"form_purpose,omitempty"`
}

// Lower returns a copy with every attribute lowercased.
func (a FieldAttributes) Lower() FieldAttributes {
	out := a
	out.ID = strings.ToLower(a.ID)
	out.Name = strings.ToLower(a.Name)
	out.Class = strings.ToLower(a.Class)
	out.Type = strings.ToLower(a.Type)
	out.Placeholder = strings.ToLower(a.Placeholder)
	out.Label = strings.ToLower(a.Label)
	out.AriaLabel = strings.ToLower(a.AriaLabel)
	out.Tag = strings.ToLower(a.Tag)
	out.ParentClass = strings.ToLower(a.ParentClass)
	out.FormPurpose = strings.ToLower(a.FormPurpose)
	out.Siblings = make([]string, len(a.Siblings))
	for i, s := range a.Siblings {
		out.Siblings[i] = strings.ToLower(s)
	}
	return out
}

// Blob concatenates every attribute into one lowercased text blob for
// vectorization and substring heuristics.
func (a FieldAttributes) Blob() string {
	l := a.Lower()
	parts := []string{
		l.ID, l.Name, l.Class, l.Type, l.Placeholder,
		l.Label, l.AriaLabel, l.Tag, l.ParentClass, l.FormPurpose,
	}
	parts = append(parts, l.Siblings...)
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Contains reports whether any attribute contains the given lowercase needle.
// Tag and input type are matched exactly by the heuristic, not here.
func (a FieldAttributes) Contains(needle string) bool {
	l := a.Lower()
	for _, hay := range []string{l.ID, l.Name, l.Class, l.Placeholder, l.Label, l.AriaLabel} {
		if strings.Contains(hay, needle) {
			return true
		}
	}
	return false
}

// FieldExample is one row in the classifier's training store.
type FieldExample struct {
	ID         string          `json:"id"`
	Attributes FieldAttributes `json:"attributes"`
	FieldType  FieldType       `json:"field_type"`
	SourceURL  string          `json:"source_url"`
	Success    bool            `json:"success"`
	CreatedAt  time.Time       `json:"created_at"`
}
