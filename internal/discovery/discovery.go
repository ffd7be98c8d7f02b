// Package discovery locates the best contact form candidate on a site,
// crawling contact links, well-known paths, iframes and reveal buttons when
// the landing page has none.
package discovery

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// FieldProbe is one fillable control in a discovered form, with the inferred
// selector and attribute bag the filler and classifier consume.
type FieldProbe struct {
	Selector string                `json:"selector"`
	Required bool                  `json:"required"`
	Options  int                   `json:"options"`
	Attrs    model.FieldAttributes `json:"attrs"`
}

// Candidate is a discovered form plus its cached field map.
type Candidate struct {
	Found          bool         `json:"found"`
	Ideal          bool         `json:"ideal"`
	CF7            bool         `json:"cf7"`
	Selector       string       `json:"selector"`
	RootExpr       string       `json:"root_expr"`
	SubmitSelector string       `json:"submit_selector"`
	HasCaptcha     bool         `json:"captcha"`
	Fields         []FieldProbe `json:"fields"`

	// PageURL is where the candidate was found, which may differ from the
	// landing page after a contact-link or common-path hop.
	PageURL string `json:"-"`
}

// InIframe reports whether the candidate lives inside a same-origin iframe,
// which forces the filler onto its script path.
func (c *Candidate) InIframe() bool {
	return c != nil && c.RootExpr != "" && c.RootExpr != "document"
}

// Discoverer runs the tiered search.
type Discoverer struct {
	b         browser.Browser
	cfg       config.DiscoveryConfig
	selectors Selectors
}

// New builds a discoverer, loading the selector tiers.
func New(b browser.Browser, cfg config.DiscoveryConfig) (*Discoverer, error) {
	sel, err := LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return nil, err
	}
	if len(cfg.ExtraPaths) > 0 {
		sel.CommonPaths = append(sel.CommonPaths, cfg.ExtraPaths...)
	}
	return &Discoverer{b: b, cfg: cfg, selectors: sel}, nil
}

// Discover searches the current page for a contact form within the
// configured budget. A nil candidate with a nil error means no form exists.
// followLinks gates the tiers that navigate away from the current page.
func (d *Discoverer) Discover(ctx context.Context, priority model.DetectionPriority, followLinks bool) (*Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout())
	defer cancel()

	startURL, err := d.b.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}

	// Tier 1: direct DOM scan.
	if c, err := d.scan(ctx, priority, false, startURL); err != nil || c != nil {
		return c, err
	}

	if followLinks {
		// Tier 2: contact-page links.
		if c, err := d.followContactLinks(ctx, priority, startURL); err != nil || c != nil {
			return c, err
		}
		// Tier 3: common paths off the origin.
		if c, err := d.tryCommonPaths(ctx, priority, startURL); err != nil || c != nil {
			return c, err
		}
	}

	// Tier 4: same-origin iframes.
	if c, err := d.scan(ctx, priority, true, startURL); err != nil || c != nil {
		return c, err
	}

	// Tier 5: reveal buttons.
	return d.clickRevealButtons(ctx, priority, startURL)
}

func (d *Discoverer) scan(ctx context.Context, priority model.DetectionPriority, iframes bool, pageURL string) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := map[string]any{
		"tier":                string(priority),
		"strictSelectors":     d.selectors.StrictSelectors,
		"aggressiveSelectors": d.selectors.AggressiveSelectors,
		"scanIframes":         iframes,
		"formPurpose":         formPurpose(pageURL),
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: marshal scan config")
	}

	var raw string
	js := strings.Replace(scanScript, "CFG", string(cfgJSON), 1)
	if err := d.b.Evaluate(ctx, js, &raw); err != nil {
		return nil, err
	}

	var cand Candidate
	if err := json.Unmarshal([]byte(raw), &cand); err != nil {
		return nil, eris.Wrap(err, "discovery: decode scan result")
	}
	if !cand.Found {
		return nil, nil
	}
	cand.PageURL = pageURL
	zap.L().Debug("discovery: candidate found",
		zap.String("selector", cand.Selector),
		zap.Bool("ideal", cand.Ideal),
		zap.Bool("cf7", cand.CF7),
		zap.Int("fields", len(cand.Fields)))
	return &cand, nil
}

func (d *Discoverer) followContactLinks(ctx context.Context, priority model.DetectionPriority, startURL string) (*Candidate, error) {
	kwJSON, err := json.Marshal(lowered(d.selectors.LinkKeywords))
	if err != nil {
		return nil, eris.Wrap(err, "discovery: marshal link keywords")
	}
	var raw string
	js := strings.Replace(linkScript, "CFG", string(kwJSON), 1)
	if err := d.b.Evaluate(ctx, js, &raw); err != nil {
		return nil, err
	}
	var links []string
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil, eris.Wrap(err, "discovery: decode links")
	}

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.b.Navigate(ctx, link); err != nil {
			zap.L().Debug("discovery: contact link failed", zap.String("url", link), zap.Error(err))
			continue
		}
		if c, err := d.scan(ctx, priority, false, link); err != nil {
			return nil, err
		} else if c != nil {
			return c, nil
		}
	}
	if len(links) > 0 {
		// Wind back to where discovery started.
		if err := d.b.Navigate(ctx, startURL); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (d *Discoverer) tryCommonPaths(ctx context.Context, priority model.DetectionPriority, startURL string) (*Candidate, error) {
	origin, ok := originOf(startURL)
	if !ok {
		return nil, nil
	}
	visitedAny := false
	for _, path := range d.selectors.CommonPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := origin + path
		if err := d.b.Navigate(ctx, target); err != nil {
			continue
		}
		visitedAny = true

		var title string
		if err := d.b.Evaluate(ctx, titleScript, &title); err != nil {
			return nil, err
		}
		if strings.Contains(title, "404") || strings.Contains(title, "not found") {
			continue
		}
		if c, err := d.scan(ctx, priority, false, target); err != nil {
			return nil, err
		} else if c != nil {
			return c, nil
		}
	}
	if visitedAny {
		if err := d.b.Navigate(ctx, startURL); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (d *Discoverer) clickRevealButtons(ctx context.Context, priority model.DetectionPriority, pageURL string) (*Candidate, error) {
	var clicked int
	if err := d.b.Evaluate(ctx, revealScript, &clicked); err != nil {
		return nil, err
	}
	if clicked == 0 {
		return nil, nil
	}
	if err := d.b.Pace().Action(ctx); err != nil {
		return nil, err
	}
	return d.scan(ctx, priority, false, pageURL)
}

// formPurpose infers what a page's forms are probably for from its URL path,
// feeding the classifier's neighborhood hints.
func formPurpose(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.ToLower(u.Path)
	switch {
	case strings.Contains(path, "contact"), strings.Contains(path, "get-in-touch"):
		return "contact"
	case strings.Contains(path, "support"), strings.Contains(path, "help"):
		return "support"
	case strings.Contains(path, "quote"), strings.Contains(path, "estimate"):
		return "quote"
	default:
		return ""
	}
}

func originOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
