package enrich

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractJSONLD pulls structured organization data out of ld+json script
// blocks. Blocks that fail to decode are skipped; sites ship broken JSON-LD
// constantly.
func extractJSONLD(doc *goquery.Document, f *Findings) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var node any
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			return
		}
		walkJSONLD(node, f)
	})
}

func walkJSONLD(node any, f *Findings) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walkJSONLD(item, f)
		}
	case map[string]any:
		if email, ok := v["email"].(string); ok {
			f.AddEmail(strings.TrimPrefix(email, "mailto:"))
		}
		if tel, ok := v["telephone"].(string); ok {
			f.AddPhone(tel)
		}
		if hours := jsonldStrings(v["openingHours"]); len(hours) > 0 {
			f.SetBusinessHours(strings.Join(hours, "; "))
		}
		for _, same := range jsonldStrings(v["sameAs"]) {
			matchSocial(same, f)
		}
		if addr, ok := v["address"].(map[string]any); ok {
			f.SetAddress(postalAddress(addr))
		}
		// Recurse into nested graphs and entities.
		for key, child := range v {
			switch key {
			case "email", "telephone", "openingHours", "sameAs", "address":
			default:
				walkJSONLD(child, f)
			}
		}
	}
}

// postalAddress joins the parts of a schema.org PostalAddress.
func postalAddress(addr map[string]any) string {
	var parts []string
	for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
		if s, ok := addr[key].(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, ", ")
}

// jsonldStrings tolerates JSON-LD's habit of using either a string or an
// array of strings for the same property.
func jsonldStrings(node any) []string {
	switch v := node.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
