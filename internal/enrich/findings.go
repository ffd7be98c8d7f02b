package enrich

import (
	"encoding/json"
	"sort"
	"strings"
)

// TeamMember is one entry harvested from a team/staff section.
type TeamMember struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Findings aggregates everything harvested from one site. Emails and phones
// accumulate across source tiers; the scalar fields keep the first hit.
type Findings struct {
	Emails        []string
	Phones        []string
	Address       string
	BusinessHours string
	Social        map[string]string
	Team          []TeamMember

	seenEmails map[string]bool
	seenPhones map[string]bool
}

// NewFindings returns an empty findings accumulator.
func NewFindings() *Findings {
	return &Findings{
		Social:     map[string]string{},
		seenEmails: map[string]bool{},
		seenPhones: map[string]bool{},
	}
}

// placeholderDomains are discarded outright; they appear in theme demos and
// unconfigured form plugins.
var placeholderDomains = map[string]bool{
	"example.com":    true,
	"yourdomain.com": true,
	"domain.com":     true,
}

// AddEmail records an email unless it is a placeholder or already seen.
func (f *Findings) AddEmail(email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || placeholderDomains[email[at+1:]] {
		return
	}
	if f.seenEmails[email] {
		return
	}
	f.seenEmails[email] = true
	f.Emails = append(f.Emails, email)
}

// AddPhone records a phone number, de-duplicating on its digits.
func (f *Findings) AddPhone(phone string) {
	phone = strings.TrimSpace(phone)
	// Nine digits minimum keeps copyright year ranges and zip pairs out.
	digits := digitsOf(phone)
	if len(digits) < 9 || len(digits) > 15 {
		return
	}
	if f.seenPhones[digits] {
		return
	}
	f.seenPhones[digits] = true
	f.Phones = append(f.Phones, phone)
}

// SetAddress keeps the first non-empty address seen.
func (f *Findings) SetAddress(addr string) {
	addr = strings.TrimSpace(addr)
	if f.Address == "" && addr != "" {
		f.Address = addr
	}
}

// SetBusinessHours keeps the first non-empty hours string seen.
func (f *Findings) SetBusinessHours(hours string) {
	hours = strings.TrimSpace(hours)
	if f.BusinessHours == "" && hours != "" {
		f.BusinessHours = hours
	}
}

// AddSocial records a social profile URL for a network, first hit wins.
func (f *Findings) AddSocial(network, href string) {
	if _, ok := f.Social[network]; ok {
		return
	}
	if href = strings.TrimSpace(href); href != "" {
		f.Social[network] = href
	}
}

// Merge folds another findings set into this one.
func (f *Findings) Merge(other *Findings) {
	if other == nil {
		return
	}
	for _, e := range other.Emails {
		f.AddEmail(e)
	}
	for _, p := range other.Phones {
		f.AddPhone(p)
	}
	f.SetAddress(other.Address)
	f.SetBusinessHours(other.BusinessHours)
	for network, href := range other.Social {
		f.AddSocial(network, href)
	}
	f.Team = append(f.Team, other.Team...)
}

// Empty reports whether nothing at all was harvested.
func (f *Findings) Empty() bool {
	return len(f.Emails) == 0 && len(f.Phones) == 0 && f.Address == "" &&
		f.BusinessHours == "" && len(f.Social) == 0 && len(f.Team) == 0
}

// Flatten renders the findings as enrichment key/value pairs; list values
// are comma-joined, team members serialize as JSON.
func (f *Findings) Flatten() map[string]string {
	out := map[string]string{}
	if len(f.Emails) > 0 {
		out["email"] = strings.Join(f.Emails, ", ")
	}
	if len(f.Phones) > 0 {
		out["phone"] = strings.Join(f.Phones, ", ")
	}
	if f.Address != "" {
		out["address"] = f.Address
	}
	if f.BusinessHours != "" {
		out["business_hours"] = f.BusinessHours
	}
	for network, href := range f.Social {
		out[network] = href
	}
	if len(f.Team) > 0 {
		if blob, err := json.Marshal(f.Team); err == nil {
			out["team_members"] = string(blob)
		}
	}
	return out
}

// Keys returns the flattened keys in stable order, for logging.
func (f *Findings) Keys() []string {
	flat := f.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
