// Package form fills and submits a discovered contact form, escalating
// through three strategies when a site pushes back.
package form

import (
	"context"

	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/classifier"
	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/discovery"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/template"
)

// Result is the outcome of the fill/submit stage for one contact.
type Result struct {
	// Submitted is true on a confirmed or tentative success.
	Submitted bool
	// Skipped is true when the operator disabled submission; the form was
	// filled but the submit control never pressed.
	Skipped bool
	Message string
	Log     model.SubmissionLog
}

// Driver runs the adaptive retry loop over one candidate form.
type Driver struct {
	b    browser.Browser
	clf  *classifier.Classifier
	disc *discovery.Discoverer
	cfg  config.FormConfig
}

// NewDriver wires the filler's collaborators.
func NewDriver(b browser.Browser, clf *classifier.Classifier, disc *discovery.Discoverer, cfg config.FormConfig) *Driver {
	return &Driver{b: b, clf: clf, disc: disc, cfg: cfg}
}

// strategies returns the escalation order for this candidate. A CAPTCHA
// short-circuits to the script strategy; typing at a protected form just
// burns the attempt budget.
func (d *Driver) strategies(cand *discovery.Candidate) []model.FillStrategy {
	if cand.HasCaptcha {
		return []model.FillStrategy{model.StrategyJavascriptFallback}
	}
	all := []model.FillStrategy{
		model.StrategyStandardWithAI,
		model.StrategyAggressive,
		model.StrategyJavascriptFallback,
	}
	if max := d.cfg.MaxAttempts; max > 0 && max < len(all) {
		return all[:max]
	}
	return all
}

// Run fills and submits the candidate form for one contact. It never returns
// an error for site-side failures; those land in the Result. Errors are
// reserved for context cancellation.
func (d *Driver) Run(ctx context.Context, cand *discovery.Candidate, contact *model.Contact, settings model.Settings) (Result, error) {
	message := template.NewRenderer(settings, contact).Render(settings.ContactFormTemplate())
	log := model.SubmissionLog{Website: contact.Website}
	priority := settings.FormDetectionPriority()

	strategies := d.strategies(cand)
	var priorErrors []string
	for i, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return Result{Log: log}, err
		}
		attempt := model.AttemptRecord{Attempt: i + 1, Strategy: strategy}
		zap.L().Info("form: attempt",
			zap.Int("attempt", i+1),
			zap.String("strategy", string(strategy)),
			zap.String("website", contact.Website))

		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.FillTimeout())
		res, retryable := d.runAttempt(attemptCtx, cand, contact, settings, message, strategy, &attempt, priorErrors)
		cancel()

		log.Attempts = append(log.Attempts, attempt)
		priorErrors = attempt.Errors
		if res != nil {
			res.Log = log
			return *res, nil
		}
		if ctx.Err() != nil {
			return Result{Log: log}, ctx.Err()
		}
		if !retryable || i == len(strategies)-1 {
			break
		}

		// Reset the page before escalating; validation state and half-typed
		// values would poison the next attempt.
		if next, err := d.refreshCandidate(ctx, cand, priority); err == nil && next != nil {
			cand = next
		}
	}

	return Result{Submitted: false, Message: log.FailureReport(), Log: log}, nil
}

// runAttempt executes one fill+submit pass. A non-nil result ends the retry
// loop; nil with retryable=true moves to the next strategy.
func (d *Driver) runAttempt(ctx context.Context, cand *discovery.Candidate, contact *model.Contact, settings model.Settings, message string, strategy model.FillStrategy, attempt *model.AttemptRecord, priorErrors []string) (*Result, bool) {
	fill, err := d.fillFields(ctx, cand, settings, message, strategy, priorErrors)
	attempt.FieldsAttempted = fill.attempted
	attempt.FieldsFilled = fill.filled
	if err != nil {
		attempt.Message = "fill aborted: " + err.Error()
		return nil, true
	}
	if len(fill.filled) == 0 {
		attempt.Message = "no fields could be filled"
		return nil, true
	}

	if !settings.SubmitForm() {
		attempt.Outcome = model.OutcomeSuccess
		attempt.Message = "form filled but not submitted"
		return &Result{Skipped: true, Message: "form filled but not submitted"}, false
	}

	startURL, _ := d.b.CurrentURL(ctx)
	if err := d.clickSubmit(ctx, cand, strategy); err != nil {
		attempt.Message = "submit failed: " + err.Error()
		return nil, true
	}

	outcome, err := d.pollResult(ctx, cand, startURL)
	if err != nil {
		attempt.Message = "result poll aborted: " + err.Error()
		return nil, true
	}
	attempt.Outcome = outcome.Kind
	attempt.Message = outcome.Message
	attempt.Errors = outcome.Errors

	switch outcome.Kind {
	case model.OutcomeSuccess:
		d.reportExamples(ctx, cand.PageURL, fill.examples)
		return &Result{Submitted: true, Message: outcome.Message}, false
	case model.OutcomeUncertain:
		d.reportExamples(ctx, cand.PageURL, fill.examples)
		return &Result{Submitted: true, Message: outcome.Message}, false
	default:
		return nil, true
	}
}

// reportExamples feeds every successfully filled field back to the
// classifier's training store. A failed write costs that one example only.
func (d *Driver) reportExamples(ctx context.Context, sourceURL string, examples []fieldExample) {
	for _, ex := range examples {
		if err := d.clf.AddExample(ctx, ex.attrs, ex.ft, sourceURL, true); err != nil {
			zap.L().Warn("form: record training example", zap.Error(err))
		}
	}
}

// refreshCandidate reloads the form's page and re-discovers the form so the
// next strategy starts clean.
func (d *Driver) refreshCandidate(ctx context.Context, cand *discovery.Candidate, priority model.DetectionPriority) (*discovery.Candidate, error) {
	if cand.PageURL == "" {
		return nil, nil
	}
	if err := d.b.Navigate(ctx, cand.PageURL); err != nil {
		return nil, err
	}
	next, err := d.disc.Discover(ctx, priority, false)
	if err != nil || next == nil {
		return nil, err
	}
	return next, nil
}
