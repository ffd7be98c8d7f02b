package linkedin

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Candidate is one person tile scraped from a search results page.
type Candidate struct {
	Name       string `json:"name"`
	Subtitle   string `json:"subtitle"`
	Location   string `json:"location"`
	ProfileURL string `json:"url"`
}

// Component weights for the fuzzy match. When company or location is absent
// from the search input, its weight redistributes over the rest.
const (
	weightName     = 0.6
	weightCompany  = 0.3
	weightLocation = 0.1
)

// Score rates how well a candidate tile matches the searched person, 0-100.
func Score(c Candidate, name, company, location string) float64 {
	type component struct {
		weight float64
		value  float64
	}
	var parts []component

	parts = append(parts, component{weightName, similarity(c.Name, name)})
	if strings.TrimSpace(company) != "" {
		parts = append(parts, component{weightCompany, containedSimilarity(c.Subtitle, company)})
	}
	if strings.TrimSpace(location) != "" {
		parts = append(parts, component{weightLocation, containedSimilarity(c.Location, location)})
	}

	var sum, total float64
	for _, p := range parts {
		sum += p.weight * p.value
		total += p.weight
	}
	if total == 0 {
		return 0
	}
	return sum / total * 100
}

// Best returns the highest-scoring candidate at or above minScore, or nil.
func Best(candidates []Candidate, name, company, location string, minScore float64) (*Candidate, float64) {
	var best *Candidate
	var bestScore float64
	for i := range candidates {
		s := Score(candidates[i], name, company, location)
		if s >= minScore && s > bestScore {
			best = &candidates[i]
			bestScore = s
		}
	}
	return best, bestScore
}

func similarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil)
}

// containedSimilarity handles haystack fields like the subtitle ("Owner at
// Acme Plumbing Inc"): a full substring hit counts as exact, otherwise the
// best per-word similarity wins.
func containedSimilarity(haystack, needle string) float64 {
	h := normalize(haystack)
	n := normalize(needle)
	if h == "" || n == "" {
		return 0
	}
	if strings.Contains(h, n) {
		return 1
	}
	var best float64
	for _, word := range strings.Fields(h) {
		if s := levenshtein.Similarity(word, n, nil); s > best {
			best = s
		}
	}
	return best
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
