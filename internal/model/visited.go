package model

import (
	"strings"
	"time"
)

// SiteOutcome tags a visited-sites row with how the visit ended.
type SiteOutcome string

const (
	OutcomeVisiting      SiteOutcome = "visiting"
	OutcomeFormSubmitted SiteOutcome = "form_submitted"
	OutcomeFormFailed    SiteOutcome = "form_failed"
	OutcomeVisited       SiteOutcome = "visited"
)

// Terminal reports whether the outcome forbids revisiting the site.
func (o SiteOutcome) Terminal() bool {
	switch o {
	case OutcomeFormSubmitted, OutcomeFormFailed, OutcomeVisited:
		return true
	}
	return false
}

// VisitedSite is one row in the visited_sites table, keyed by normalized URL.
type VisitedSite struct {
	Key       string      `json:"key"`
	URL       string      `json:"url"`
	Outcome   SiteOutcome `json:"outcome"`
	VisitedAt time.Time   `json:"visited_at"`
}

// NormalizeURL produces the visited-sites key for a URL: lowercased, scheme
// stripped, leading "www." stripped, trailing slash stripped.
func NormalizeURL(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, scheme := range []string{"https://", "http://"} {
		key = strings.TrimPrefix(key, scheme)
	}
	key = strings.TrimPrefix(key, "www.")
	return strings.TrimSuffix(key, "/")
}
