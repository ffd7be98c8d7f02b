package enrich

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\(?\d{1,3}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}(?:[-.\s]?\d{2,4})?`)
	hoursRe = regexp.MustCompile(`(?i)(?:hours|open)\s*:\s*([^<\n]{5,80})`)
	// Street-style line: number, words, then a street suffix.
	addressRe = regexp.MustCompile(`(?i)\d{1,5}\s+[A-Za-z0-9.\s]{3,40}\b(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|suite|ste)\b[^<\n]{0,60}`)
)

var socialHosts = map[string]string{
	"facebook.com":  "facebook",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"instagram.com": "instagram",
	"youtube.com":   "youtube",
	"pinterest.com": "pinterest",
	"tiktok.com":    "tiktok",
}

// ExtractPage harvests everything one page's source offers: raw regex over
// the source, JSON-LD blocks, footer text, hrefs, and team sections.
func ExtractPage(html string) (*Findings, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "enrich: parse page")
	}

	f := NewFindings()
	extractJSONLD(doc, f)
	extractText(html, f)
	extractFooter(doc, f)
	extractHrefs(doc, f)
	extractTeam(doc, f)
	return f, nil
}

// extractText runs the regex tier over the raw page source.
func extractText(html string, f *Findings) {
	for _, m := range emailRe.FindAllString(html, -1) {
		// Skip matches that are really asset filenames.
		if strings.HasSuffix(strings.ToLower(m), ".png") || strings.HasSuffix(strings.ToLower(m), ".jpg") ||
			strings.HasSuffix(strings.ToLower(m), ".svg") || strings.HasSuffix(strings.ToLower(m), ".webp") {
			continue
		}
		f.AddEmail(m)
	}
	for _, m := range phoneRe.FindAllString(html, -1) {
		f.AddPhone(m)
	}
	if m := hoursRe.FindStringSubmatch(html); m != nil {
		f.SetBusinessHours(m[1])
	}
	if m := addressRe.FindString(html); m != "" {
		f.SetAddress(m)
	}
}

func extractFooter(doc *goquery.Document, f *Findings) {
	doc.Find("footer").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		for _, m := range emailRe.FindAllString(text, -1) {
			f.AddEmail(m)
		}
		for _, m := range phoneRe.FindAllString(text, -1) {
			f.AddPhone(m)
		}
		if m := addressRe.FindString(text); m != "" {
			f.SetAddress(m)
		}
	})
}

func extractHrefs(doc *goquery.Document, f *Findings) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			addr := strings.TrimPrefix(href[7:], "//")
			if q := strings.IndexByte(addr, '?'); q >= 0 {
				addr = addr[:q]
			}
			f.AddEmail(addr)
		case strings.HasPrefix(lower, "tel:"):
			f.AddPhone(href[4:])
		default:
			matchSocial(href, f)
		}
	})
}

func matchSocial(href string, f *Findings) {
	lower := strings.ToLower(href)
	for host, network := range socialHosts {
		if strings.Contains(lower, host+"/") || strings.HasSuffix(lower, host) {
			// Bare network homepages carry no handle.
			rest := lower[strings.Index(lower, host)+len(host):]
			if strings.Trim(rest, "/") == "" {
				continue
			}
			f.AddSocial(network, href)
		}
	}
}

// extractTeam walks sections whose class or id mentions team/staff/people and
// collects one member per heading-bearing child block.
func extractTeam(doc *goquery.Document, f *Findings) {
	sel := `[class*="team"], [id*="team"], [class*="staff"], [id*="staff"], [class*="people"], [id*="people"]`
	seen := map[string]bool{}
	doc.Find(sel).Each(func(_ int, section *goquery.Selection) {
		section.Find("h2, h3, h4, h5, .name").Each(func(_ int, h *goquery.Selection) {
			name := strings.TrimSpace(h.Text())
			if name == "" || len(name) > 60 || seen[name] {
				return
			}
			member := TeamMember{Name: name}
			block := h.Parent()
			text := block.Text()
			if m := emailRe.FindString(text); m != "" {
				member.Email = strings.ToLower(m)
			}
			if m := phoneRe.FindString(text); m != "" {
				member.Phone = m
			}
			block.Find("p, .role, .title, .position").EachWithBreak(func(_ int, r *goquery.Selection) bool {
				role := strings.TrimSpace(r.Text())
				if role != "" && role != name && len(role) <= 80 && !strings.Contains(role, "@") {
					member.Role = role
					return false
				}
				return true
			})
			seen[name] = true
			f.Team = append(f.Team, member)
		})
	})
}

// ContactLinks returns same-origin hrefs that look like contact or about
// pages, capped at limit.
func ContactLinks(html, pageURL string, limit int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	origin := originOf(pageURL)
	var out []string
	seen := map[string]bool{pageURL: true}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		if !strings.Contains(lower, "contact") && !strings.Contains(lower, "about") {
			return true
		}
		if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "#") {
			return true
		}
		abs := href
		if strings.HasPrefix(href, "/") {
			abs = origin + href
		} else if !strings.HasPrefix(lower, "http") {
			return true
		}
		if origin != "" && !strings.HasPrefix(abs, origin) {
			return true
		}
		if seen[abs] {
			return true
		}
		seen[abs] = true
		out = append(out, abs)
		return len(out) < limit
	})
	return out
}

func originOf(pageURL string) string {
	rest := pageURL
	scheme := ""
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme = rest[:i+3]
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return ""
	}
	return scheme + rest
}
