package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/classifier"
	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/discovery"
	"github.com/elevateandautomate/turnclickstoclients/internal/enrich"
	"github.com/elevateandautomate/turnclickstoclients/internal/form"
	"github.com/elevateandautomate/turnclickstoclients/internal/linkedin"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/resilience"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

// Outcome summarizes one contact's pass through the state machine, for the
// runner's log line and the console snapshot.
type Outcome struct {
	ContactID     string
	Skipped       bool   // site already terminally visited, or no website
	SkipReason    string
	Visited       bool
	SubmitStatus  model.SubmitStatus
	SubmitMessage string
	EnrichedKeys  []string
	LinkedIn      *linkedin.Result
}

// Orchestrator runs the per-contact state machine: Start, Visit, Discover,
// Fill, Enrich, LinkedIn, End. Every state translates its failures into
// journal writes; no single contact aborts the batch.
type Orchestrator struct {
	cfg     *config.Config
	st      store.Store
	b       browser.Browser
	clf     *classifier.Classifier
	disc    *discovery.Discoverer
	form    *form.Driver
	harvest *enrich.Harvester
	linked  *linkedin.Connector

	progress Snapshot // batch fields carried into every stage publish
}

// NewOrchestrator wires the pipeline stages around one browser session.
func NewOrchestrator(cfg *config.Config, st store.Store, b browser.Browser, clf *classifier.Classifier) (*Orchestrator, error) {
	disc, err := discovery.New(b, cfg.Discovery)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: init discovery")
	}
	return &Orchestrator{
		cfg:     cfg,
		st:      st,
		b:       b,
		clf:     clf,
		disc:    disc,
		form:    form.NewDriver(b, clf, disc, cfg.Form),
		harvest: enrich.New(b, st, cfg.Enrich),
		linked:  linkedin.New(b, cfg.LinkedIn),
	}, nil
}

// SetProgress carries the runner's batch position into every stage publish
// for this contact.
func (o *Orchestrator) SetProgress(index, total, submitted, failed int) {
	o.progress = Snapshot{
		State:     "processing",
		Index:     index,
		Total:     total,
		Submitted: submitted,
		Failed:    failed,
	}
}

// stage publishes the console snapshot for one stage transition.
func (o *Orchestrator) stage(ctx context.Context, contact *model.Contact, stage model.ProcessingStage, errMsg string) {
	snap := o.progress
	if snap.State == "" {
		snap.State = "processing"
	}
	snap.CurrentContactID = contact.ID
	snap.CurrentContactName = contact.Name
	snap.CurrentCompanyName = contact.Company
	snap.CurrentWebsite = contact.Website
	snap.Stage = stage
	snap.ErrorMessage = errMsg
	publish(ctx, o.st, snap)
}

// Process takes one contact through the full state machine. The returned
// error is reserved for context cancellation; every site-side failure is
// journaled and absorbed.
func (o *Orchestrator) Process(ctx context.Context, contact *model.Contact, settings model.Settings) (Outcome, error) {
	log := zap.L().With(zap.String("contact", contact.Name), zap.String("website", contact.Website))
	out := Outcome{ContactID: contact.ID}
	o.stage(ctx, contact, model.StageStarting, "")

	// Start: validate the website URL and consult the visited-sites set.
	target, skipReason, err := o.start(ctx, contact)
	if err != nil {
		return out, err
	}
	if skipReason != "" {
		log.Info("pipeline: skipping contact", zap.String("reason", skipReason))
		o.journalVisit(ctx, contact.ID, false, skipReason)
		if target == "" {
			// No URL at all: settle the submit columns too, so the contact
			// leaves the pending set instead of being re-selected forever.
			o.journalContactSubmit(ctx, contact, model.SubmitFailed, skipReason)
			out.SubmitStatus = model.SubmitFailed
			out.SubmitMessage = skipReason
		}
		out.Skipped = true
		out.SkipReason = skipReason
		o.stage(ctx, contact, model.StageCompleted, "")
		return out, o.end(ctx, contact)
	}

	// Visit.
	o.stage(ctx, contact, model.StageVisiting, "")
	if err := o.visit(ctx, contact, target); err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		reason := resilience.ClassifyNavigationError(err)
		log.Warn("pipeline: website load failed", zap.String("reason", reason), zap.Error(err))
		o.journalVisit(ctx, contact.ID, false, reason)
		o.captureFailure(ctx, contact.ID, "visit")
		o.stage(ctx, contact, model.StageError, reason)
		return out, o.end(ctx, contact)
	}
	out.Visited = true
	o.journalVisit(ctx, contact.ID, true, "")

	// Discover.
	o.stage(ctx, contact, model.StageFindingForm, "")
	cand := o.discover(ctx, settings)
	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	// Fill, or fall through to enrichment only.
	if cand == nil {
		log.Info("pipeline: no contact form found")
		o.journalNoForm(ctx, contact, target)
		out.SubmitStatus = model.SubmitFailed
		out.SubmitMessage = "no contact form found"
	} else {
		o.stage(ctx, contact, model.StageFillingForm, "")
		status, message := o.fill(ctx, cand, contact, settings)
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		o.journalSubmit(ctx, contact, status, message, target)
		out.SubmitStatus = status
		out.SubmitMessage = message
		if status == model.SubmitFailed {
			o.captureFailure(ctx, contact.ID, "submit")
		}
	}

	// Enrich: always runs, whatever the form stage did.
	if findings, err := o.harvest.Run(ctx, contact); err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		log.Warn("pipeline: enrichment failed", zap.Error(err))
	} else {
		out.EnrichedKeys = findings.Keys()
	}

	// LinkedIn: needs at least a name or a handle to search with.
	if contact.Name != "" || contact.LinkedInHandle != "" {
		o.stage(ctx, contact, model.StageLinkedIn, "")
		res := o.linked.Run(ctx, contact, settings)
		out.LinkedIn = &res
		if err := o.st.UpdateContactStatus(ctx, contact.ID, "linkedin_connected", res.Connected, res.Reason); err != nil {
			log.Warn("pipeline: journal linkedin outcome", zap.Error(err))
		}
	}

	o.stage(ctx, contact, model.StageCompleted, "")
	return out, o.end(ctx, contact)
}

// start validates the URL and checks the visited-sites set. It returns the
// navigable URL, or a skip reason when the contact cannot proceed.
func (o *Orchestrator) start(ctx context.Context, contact *model.Contact) (string, string, error) {
	target := strings.TrimSpace(contact.Website)
	if target == "" {
		target = strings.TrimSpace(contact.WebsiteBackup)
	}
	if target == "" {
		return "", "No website URL provided", nil
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}

	key := model.NormalizeURL(target)
	site, err := o.st.GetVisitedSite(ctx, key)
	if err != nil {
		return "", "", eris.Wrap(err, "pipeline: check visited sites")
	}
	if site != nil && site.Outcome.Terminal() {
		return target, fmt.Sprintf("site already visited (%s)", site.Outcome), nil
	}
	return target, "", nil
}

// visit marks the site as in-flight before the first outbound effect, then
// loads it. A crash mid-contact leaves the marker, preventing re-attack.
func (o *Orchestrator) visit(ctx context.Context, contact *model.Contact, target string) error {
	site := model.VisitedSite{
		Key:       model.NormalizeURL(target),
		URL:       target,
		Outcome:   model.OutcomeVisiting,
		VisitedAt: time.Now().UTC(),
	}
	if err := o.st.UpsertVisitedSite(ctx, site); err != nil {
		return eris.Wrap(err, "pipeline: mark visiting")
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("pipeline", "navigate")
	return resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
		navCtx, cancel := context.WithTimeout(ctx, o.cfg.Browser.PageLoadTimeout())
		defer cancel()
		return o.b.Navigate(navCtx, target)
	})
}

func (o *Orchestrator) discover(ctx context.Context, settings model.Settings) *discovery.Candidate {
	cand, err := o.disc.Discover(ctx, settings.FormDetectionPriority(), settings.NavigateToContactPage())
	if err != nil {
		zap.L().Warn("pipeline: form discovery failed", zap.Error(err))
		return nil
	}
	return cand
}

func (o *Orchestrator) fill(ctx context.Context, cand *discovery.Candidate, contact *model.Contact, settings model.Settings) (model.SubmitStatus, string) {
	res, err := o.form.Run(ctx, cand, contact, settings)
	if err != nil {
		return model.SubmitFailed, "form fill aborted: " + err.Error()
	}
	switch {
	case res.Skipped:
		return model.SubmitSkipped, res.Message
	case res.Submitted:
		return model.SubmitSuccess, res.Message
	default:
		return model.SubmitFailed, res.Message
	}
}

// end closes out the contact: processed timestamp plus batch cursor.
func (o *Orchestrator) end(ctx context.Context, contact *model.Contact) error {
	if err := o.st.SetContactProcessed(ctx, contact.ID, time.Now().UTC()); err != nil {
		return eris.Wrap(err, "pipeline: set processed")
	}
	if err := o.st.SetSetting(ctx, model.KeyLastProcessedContactID, contact.ID); err != nil {
		return eris.Wrap(err, "pipeline: advance cursor")
	}
	return nil
}

// journalVisit writes website_visited and, when the visit ends the site's
// story (load failure), settles the visited-sites outcome too.
func (o *Orchestrator) journalVisit(ctx context.Context, contactID string, visited bool, message string) {
	if err := o.st.UpdateContactStatus(ctx, contactID, "website_visited", visited, message); err != nil {
		zap.L().Warn("pipeline: journal visit", zap.Error(err))
	}
}

// journalContactSubmit writes the form outcome columns onto the contact.
func (o *Orchestrator) journalContactSubmit(ctx context.Context, contact *model.Contact, status model.SubmitStatus, message string) {
	submitted := status == model.SubmitSuccess
	if err := o.st.UpdateContactStatus(ctx, contact.ID, "contact_form_submitted", submitted, message); err != nil {
		zap.L().Warn("pipeline: journal submit", zap.Error(err))
	}
	if err := o.st.SetContactSubmitStatus(ctx, contact.ID, status); err != nil {
		zap.L().Warn("pipeline: journal submit status", zap.Error(err))
	}
}

// settleSite writes the terminal visited-sites disposition.
func (o *Orchestrator) settleSite(ctx context.Context, target string, outcome model.SiteOutcome) {
	site := model.VisitedSite{
		Key:       model.NormalizeURL(target),
		URL:       target,
		Outcome:   outcome,
		VisitedAt: time.Now().UTC(),
	}
	if err := o.st.UpsertVisitedSite(ctx, site); err != nil {
		zap.L().Warn("pipeline: settle visited site", zap.Error(err))
	}
}

// journalSubmit writes the form outcome onto the contact and settles the
// visited-sites row with a terminal outcome.
func (o *Orchestrator) journalSubmit(ctx context.Context, contact *model.Contact, status model.SubmitStatus, message, target string) {
	o.journalContactSubmit(ctx, contact, status, message)

	outcome := model.OutcomeVisited
	switch status {
	case model.SubmitSuccess, model.SubmitSkipped:
		outcome = model.OutcomeFormSubmitted
	case model.SubmitFailed:
		outcome = model.OutcomeFormFailed
	}
	o.settleSite(ctx, target, outcome)
}

// journalNoForm records a clean form-less visit. The submit columns settle to
// failed so the contact leaves the pending set, but the site's disposition is
// visited-without-form rather than a form failure.
func (o *Orchestrator) journalNoForm(ctx context.Context, contact *model.Contact, target string) {
	o.journalContactSubmit(ctx, contact, model.SubmitFailed, "no contact form found")
	o.settleSite(ctx, target, model.OutcomeVisited)
}

// captureFailure screenshots the page into the artifacts directory when
// configured; failures here are log-only.
func (o *Orchestrator) captureFailure(ctx context.Context, contactID, stage string) {
	if !o.cfg.Browser.ScreenshotFails {
		return
	}
	shot, err := o.b.Screenshot(ctx)
	if err != nil || len(shot) == 0 {
		return
	}
	dir := o.cfg.Browser.ArtifactsDir
	if dir == "" {
		dir = "artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Warn("pipeline: create artifacts dir", zap.Error(err))
		return
	}
	name := fmt.Sprintf("%s_%s_%s.png", contactID, stage, time.Now().UTC().Format("20060102T150405"))
	if err := os.WriteFile(filepath.Join(dir, name), shot, 0o644); err != nil {
		zap.L().Warn("pipeline: write screenshot", zap.Error(err))
	}
}
