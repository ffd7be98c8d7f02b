package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/classifier"
	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

// Options configures one batch pass.
type Options struct {
	Limit      int
	Filter     store.ContactFilter
	Resume     bool
	SpecificID string
	Retry      bool // reset submission fields and revisit processed rows
	// HeadlessOverride forces the browser mode regardless of the setting.
	// nil means follow the headless_mode setting.
	HeadlessOverride *bool
}

// Summary totals one batch pass.
type Summary struct {
	Processed int
	Submitted int
	Skipped   int
	Failed    int
	Stopped   bool
}

// browserFactory exists so tests can run the batch loop without Chrome.
type browserFactory func(cfg config.BrowserConfig, headless bool, speed model.Speed) (browser.Browser, error)

// Runner drives contacts through the orchestrator one at a time. One runner
// owns one browser; there is no cross-contact parallelism.
type Runner struct {
	cfg  *config.Config
	st   store.Store
	stop atomic.Bool

	newBrowser browserFactory
}

// NewRunner returns a batch runner backed by a real Chrome session.
func NewRunner(cfg *config.Config, st store.Store) *Runner {
	return &Runner{
		cfg: cfg,
		st:  st,
		newBrowser: func(bc config.BrowserConfig, headless bool, speed model.Speed) (browser.Browser, error) {
			return browser.New(bc, headless, speed)
		},
	}
}

// Stop requests a cooperative shutdown. The flag is monotone; the runner
// observes it at the next contact boundary.
func (r *Runner) Stop() { r.stop.Store(true) }

// Run executes one batch pass and returns its totals.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary

	settings, err := r.st.GetSettings(ctx)
	if err != nil {
		return summary, eris.Wrap(err, "pipeline: load settings")
	}

	contacts, err := r.selectContacts(ctx, opts, settings)
	if err != nil {
		return summary, err
	}
	if len(contacts) == 0 {
		zap.L().Info("pipeline: no contacts match the filter")
		publish(ctx, r.st, Snapshot{State: "done"})
		return summary, nil
	}

	if opts.Retry {
		for i := range contacts {
			if err := r.st.ResetSubmissionFields(ctx, contacts[i].ID); err != nil {
				return summary, eris.Wrap(err, "pipeline: reset submission fields")
			}
		}
	}

	headless := settings.Headless()
	if opts.HeadlessOverride != nil {
		headless = *opts.HeadlessOverride
	}
	b, err := r.newBrowser(r.cfg.Browser, headless, settings.BrowserSpeed())
	if err != nil {
		return summary, eris.Wrap(err, "pipeline: start browser")
	}
	defer func() {
		if err := b.Close(); err != nil {
			zap.L().Warn("pipeline: close browser", zap.Error(err))
		}
	}()

	clf := classifier.New(r.st)
	clf.Configure(r.cfg.Classifier.ConfidenceThreshold, r.cfg.Classifier.RetrainInterval)
	if err := clf.Load(ctx); err != nil {
		zap.L().Warn("pipeline: classifier model unavailable, heuristics only", zap.Error(err))
	}

	orch, err := NewOrchestrator(r.cfg, r.st, b, clf)
	if err != nil {
		return summary, err
	}

	zap.L().Info("pipeline: batch starting",
		zap.Int("contacts", len(contacts)),
		zap.String("filter", string(opts.Filter)),
		zap.Bool("headless", headless))

	for i := range contacts {
		contact := &contacts[i]
		if r.stop.Load() {
			summary.Stopped = true
			publish(ctx, r.st, Snapshot{State: "stopping", Submitted: summary.Submitted, Failed: summary.Failed})
			break
		}
		if err := ctx.Err(); err != nil {
			summary.Stopped = true
			break
		}

		orch.SetProgress(i+1, len(contacts), summary.Submitted, summary.Failed)

		out, err := orch.Process(ctx, contact, settings)
		if err != nil {
			if ctx.Err() != nil {
				summary.Stopped = true
				break
			}
			zap.L().Error("pipeline: contact failed", zap.String("contact", contact.Name), zap.Error(err))
			summary.Failed++
			continue
		}

		summary.Processed++
		switch {
		case out.Skipped:
			summary.Skipped++
		case out.SubmitStatus == model.SubmitSuccess, out.SubmitStatus == model.SubmitSkipped:
			summary.Submitted++
		default:
			summary.Failed++
		}

		// Retrain checkpoint; the model only moves between contacts.
		if err := clf.NoteContactProcessed(ctx); err != nil {
			zap.L().Warn("pipeline: classifier retrain", zap.Error(err))
		}
	}

	publish(ctx, r.st, Snapshot{State: "done", Submitted: summary.Submitted, Failed: summary.Failed})
	zap.L().Info("pipeline: batch finished",
		zap.Int("processed", summary.Processed),
		zap.Int("submitted", summary.Submitted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Bool("stopped", summary.Stopped))
	return summary, nil
}

// selectContacts builds the contact query from the batch options plus the
// resume cursor.
func (r *Runner) selectContacts(ctx context.Context, opts Options, settings model.Settings) ([]model.Contact, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = r.cfg.Batch.DefaultLimit
	}

	q := store.ContactQuery{
		Filter:           opts.Filter,
		Limit:            limit,
		SpecificID:       opts.SpecificID,
		IncludeProcessed: opts.Retry || opts.SpecificID != "",
	}
	if opts.SpecificID != "" {
		// By-ID selection is unconditional; a pending predicate would hide
		// contacts whose submit columns are already settled.
		q.Filter = store.FilterAll
	} else if q.Filter == "" {
		q.Filter = store.FilterPending
	}

	if opts.Resume || settings.ResumeProcessing() {
		cursor, err := r.st.GetSetting(ctx, model.KeyLastProcessedContactID)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: read cursor")
		}
		q.ExcludeID = cursor
		q.UnprocessedFirst = true
	}

	contacts, err := r.st.ListContacts(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list contacts")
	}
	return contacts, nil
}
