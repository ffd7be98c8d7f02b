package enrich

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

// Harvester scrapes alternate contact channels from the site the browser is
// currently on and journals them onto the contact row.
type Harvester struct {
	b   browser.Browser
	st  store.Store
	cfg config.EnrichConfig
}

// New returns a harvester bound to a browser session and store.
func New(b browser.Browser, st store.Store, cfg config.EnrichConfig) *Harvester {
	return &Harvester{b: b, st: st, cfg: cfg}
}

// Run harvests the current page plus a few contact sub-pages, merges the
// findings, and persists anything non-empty. It runs after the form stage
// regardless of its outcome, so it tolerates every per-page failure.
func (h *Harvester) Run(ctx context.Context, contact *model.Contact) (*Findings, error) {
	pageURL, err := h.b.CurrentURL(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: current url")
	}
	source, err := h.b.PageSource(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: page source")
	}

	// Browser navigation is serial; page parsing is not.
	sources := []string{source}
	for _, link := range ContactLinks(source, pageURL, h.cfg.Subpages()) {
		if ctx.Err() != nil {
			break
		}
		if err := h.b.Navigate(ctx, link); err != nil {
			zap.L().Debug("enrich: sub-page load failed", zap.String("url", link), zap.Error(err))
			continue
		}
		sub, err := h.b.PageSource(ctx)
		if err != nil {
			continue
		}
		sources = append(sources, sub)
	}

	findings := NewFindings()
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			page, err := ExtractPage(src)
			if err != nil {
				return err
			}
			mu.Lock()
			findings.Merge(page)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if findings.Empty() {
		zap.L().Info("enrich: nothing found", zap.String("website", contact.Website))
		return findings, nil
	}
	if err := h.persist(ctx, contact.ID, findings); err != nil {
		return findings, err
	}

	zap.L().Info("enrich: harvested",
		zap.String("website", contact.Website),
		zap.Strings("keys", findings.Keys()),
		zap.Int("emails", len(findings.Emails)),
		zap.Int("phones", len(findings.Phones)))
	return findings, nil
}

// persist grows one enriched_<key> column per finding and writes the full
// JSON blob alongside.
func (h *Harvester) persist(ctx context.Context, contactID string, f *Findings) error {
	flat := f.Flatten()
	for key, value := range flat {
		if err := h.st.SetEnriched(ctx, contactID, key, value); err != nil {
			return eris.Wrapf(err, "enrich: persist %s", key)
		}
	}
	if err := h.st.SetEnrichedAll(ctx, contactID, flat); err != nil {
		return eris.Wrap(err, "enrich: persist blob")
	}
	return nil
}
