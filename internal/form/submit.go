package form

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/discovery"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// Success and validation banners across the common form plugins. Matched in
// order inside the page, scoped to the candidate's document root.
var (
	successSelectors = []string{
		".wpcf7-mail-sent-ok",
		"form.sent .wpcf7-response-output",
		".gform_confirmation_message",
		".elementor-message-success",
		".w-form-done",
		".submitted-message",
		".thank-you",
		".thankyou",
		"[class*='form-success']",
		"[class*='success-message']",
	}
	errorSelectors = []string{
		".wpcf7-validation-errors",
		".wpcf7-not-valid-tip",
		".gfield_error .validation_message",
		".elementor-message-danger",
		".w-form-fail",
		".field-error",
		"[class*='form-error']",
		"[class*='error-message']",
	}
)

// submitOutcome is what the result poll concluded.
type submitOutcome struct {
	Kind    model.SubmitOutcomeKind
	Message string
	Errors  []string
}

// clickSubmit presses the candidate's submit control. With no control found
// it falls back to submitting the form element directly.
func (d *Driver) clickSubmit(ctx context.Context, cand *discovery.Candidate, strategy model.FillStrategy) error {
	scripted := strategy == model.StrategyJavascriptFallback || cand.InIframe()

	if cand.SubmitSelector != "" && !scripted {
		return d.b.Click(ctx, cand.SubmitSelector)
	}
	if cand.SubmitSelector != "" {
		js := `(function(){var el=` + cand.RootExpr + `.querySelector(` + browser.JSString(cand.SubmitSelector) + `);` +
			`if(!el)return false;el.click();return true;})()`
		var ok bool
		if err := d.b.Evaluate(ctx, js, &ok); err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	// Obstructive handlers or no visible control: submit the form element.
	js := `(function(){var f=` + cand.RootExpr + `.querySelector(` + browser.JSString(cand.Selector) + `);` +
		`if(!f)return false;` +
		`if(typeof f.requestSubmit==='function'){f.requestSubmit();}else{f.submit();}` +
		`return true;})()`
	var ok bool
	if err := d.b.Evaluate(ctx, js, &ok); err != nil {
		return err
	}
	if !ok {
		return eris.New("form: submit control not found")
	}
	return nil
}

// pollResult watches for a post-submit signal: a success banner, a validation
// region, or navigation away. No signal inside the window is reported as
// uncertain and treated upstream as tentative success.
func (d *Driver) pollResult(ctx context.Context, cand *discovery.Candidate, startURL string) (submitOutcome, error) {
	cfg := map[string]any{"success": successSelectors, "errors": errorSelectors}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return submitOutcome{}, eris.Wrap(err, "form: marshal result config")
	}
	js := strings.Replace(resultScript, "CFG", string(cfgJSON), 1)
	js = strings.Replace(js, "ROOT", cand.RootExpr, 1)

	deadline := time.Now().Add(d.cfg.ResultPoll())
	for {
		if err := ctx.Err(); err != nil {
			return submitOutcome{}, err
		}

		current, err := d.b.CurrentURL(ctx)
		if err == nil && current != startURL {
			return submitOutcome{
				Kind:    model.OutcomeSuccess,
				Message: "Success: page navigated after submit",
			}, nil
		}

		var raw string
		if err := d.b.Evaluate(ctx, js, &raw); err != nil {
			return submitOutcome{}, err
		}
		var res struct {
			Status string   `json:"status"`
			Text   string   `json:"text"`
			Errors []string `json:"errors"`
		}
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return submitOutcome{}, eris.Wrap(err, "form: decode result signal")
		}
		switch res.Status {
		case "success":
			msg := "Success"
			if res.Text != "" {
				msg = "Success: " + res.Text
			}
			return submitOutcome{Kind: model.OutcomeSuccess, Message: msg}, nil
		case "validation":
			return submitOutcome{
				Kind:    model.OutcomeValidationFailure,
				Message: "validation errors after submit",
				Errors:  res.Errors,
			}, nil
		}

		if time.Now().After(deadline) {
			return submitOutcome{
				Kind:    model.OutcomeUncertain,
				Message: "no clear confirmation; assuming submitted",
			}, nil
		}
		select {
		case <-ctx.Done():
			return submitOutcome{}, ctx.Err()
		case <-time.After(300 * time.Millisecond):
		}
	}
}

// resultScript inspects the page for a success banner or validation region.
const resultScript = `(function (cfg) {
  function vis(el) {
    return !!(el && (el.offsetWidth || el.offsetHeight || el.getClientRects().length));
  }
  var root = ROOT;
  for (var i = 0; i < cfg.success.length; i++) {
    try {
      var el = root.querySelector(cfg.success[i]);
      if (vis(el)) return JSON.stringify({ status: 'success', text: (el.textContent || '').trim().slice(0, 200) });
    } catch (e) {}
  }
  var errs = [];
  cfg.errors.forEach(function (sel) {
    try {
      root.querySelectorAll(sel).forEach(function (el) {
        if (!vis(el)) return;
        var t = (el.textContent || '').trim();
        if (t) errs.push(t.slice(0, 200));
      });
    } catch (e) {}
  });
  if (errs.length) return JSON.stringify({ status: 'validation', errors: errs.slice(0, 5) });
  return JSON.stringify({ status: 'none' });
})(CFG)`
