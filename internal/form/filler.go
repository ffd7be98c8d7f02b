package form

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/discovery"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// fieldExample pairs a filled field's attributes with the type it resolved
// to, for classifier feedback after a confirmed submit.
type fieldExample struct {
	attrs model.FieldAttributes
	ft    model.FieldType
}

// fillOutcome is what one fill pass produced.
type fillOutcome struct {
	attempted []string
	filled    []model.FilledField
	examples  []fieldExample
}

// resolveType picks the field type, trying the CF7 fast path before the
// classifier.
func (d *Driver) resolveType(cand *discovery.Candidate, attrs model.FieldAttributes) model.FieldType {
	if cand.CF7 {
		if ft, ok := cf7Type(attrs.Name); ok {
			return ft
		}
	}
	return d.clf.Predict(attrs)
}

// fillFields fills every control in the candidate's field map. Individual
// field failures are logged and skipped; the attempt carries on. priorErrors
// carries the previous attempt's validation messages so the aggressive
// strategy can re-target the flagged fields.
func (d *Driver) fillFields(ctx context.Context, cand *discovery.Candidate, settings model.Settings, message string, strategy model.FillStrategy, priorErrors []string) (fillOutcome, error) {
	var out fillOutcome
	scripted := strategy == model.StrategyJavascriptFallback || cand.InIframe()

	fillOne := func(probe discovery.FieldProbe, forced model.FieldType) error {
		attrs := probe.Attrs
		switch attrs.Lower().Type {
		case "submit", "button", "image", "reset":
			return nil
		}
		ft := forced
		if ft == "" {
			ft = d.resolveType(cand, attrs)
		}
		out.attempted = append(out.attempted, probe.Selector)

		var value string
		var err error
		switch ft {
		case model.FieldSubmit:
			return nil
		case model.FieldDropdown:
			idx := 0
			if probe.Options >= 2 {
				// First option is usually a placeholder.
				idx = 1
			}
			value = "option"
			err = d.selectOption(ctx, cand.RootExpr, probe.Selector, idx)
		case model.FieldCheckbox, model.FieldRadio:
			value = "checked"
			err = d.check(ctx, cand.RootExpr, probe.Selector, scripted)
		default:
			value = valueFor(ft, attrs, settings, message)
			if value == "" {
				return nil
			}
			if scripted {
				err = d.setValueJS(ctx, cand.RootExpr, probe.Selector, value)
			} else {
				err = d.b.Type(ctx, probe.Selector, value)
			}
		}
		if err != nil {
			return err
		}
		out.filled = append(out.filled, model.FilledField{
			Selector: probe.Selector, Type: ft, Value: value,
		})
		out.examples = append(out.examples, fieldExample{attrs: attrs, ft: ft})
		return nil
	}

	for _, probe := range cand.Fields {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if strategy == model.StrategyAggressive {
			// Extra think time makes the slow tier slow.
			if err := d.b.Pace().Action(ctx); err != nil {
				return out, err
			}
		}
		if err := fillOne(probe, ""); err != nil {
			zap.L().Warn("form: field fill failed",
				zap.String("selector", probe.Selector), zap.Error(err))
		}
	}

	if strategy == model.StrategyAggressive {
		// Second pass replans from the previous attempt's validation errors:
		// a flagged field is refilled with the type the error names, which
		// corrects a misclassified or mis-valued control. With no errors to
		// target, refill the required fields; validation failures often come
		// from a field the page cleared on blur.
		targets := map[string]model.FieldType{}
		for _, probe := range cand.Fields {
			if ft, ok := errorTarget(probe, priorErrors); ok {
				targets[probe.Selector] = ft
			}
		}
		if len(targets) == 0 {
			for _, probe := range cand.Fields {
				if probe.Required {
					targets[probe.Selector] = ""
				}
			}
		}
		for _, probe := range cand.Fields {
			ft, ok := targets[probe.Selector]
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return out, err
			}
			if err := fillOne(probe, ft); err != nil {
				zap.L().Warn("form: refill failed",
					zap.String("selector", probe.Selector), zap.Error(err))
			}
		}
	}
	return out, nil
}

// errorTarget reports whether one of the prior attempt's validation errors
// points at this field, and the type to refill it as. An empty type means
// refill with the normally resolved type.
func errorTarget(probe discovery.FieldProbe, errs []string) (model.FieldType, bool) {
	attrs := probe.Attrs.Lower()
	for _, e := range errs {
		msg := strings.ToLower(e)
		named := false
		for _, token := range []string{attrs.Name, attrs.ID, attrs.Label, attrs.Placeholder} {
			if token != "" && strings.Contains(msg, token) {
				named = true
				break
			}
		}
		hinted, typed := typeFromError(msg)
		if named {
			if typed {
				return hinted, true
			}
			return "", true
		}
		// The error names a field kind rather than a field; match it to the
		// control that talks about the same kind.
		for _, hint := range errorFieldHints {
			if strings.Contains(msg, hint.keyword) && probe.Attrs.Contains(hint.keyword) {
				return hint.ft, true
			}
		}
	}
	return "", false
}

var errorFieldHints = []struct {
	keyword string
	ft      model.FieldType
}{
	{"email", model.FieldEmail},
	{"telephone", model.FieldPhone},
	{"phone", model.FieldPhone},
	{"message", model.FieldMessage},
	{"comment", model.FieldMessage},
	{"company", model.FieldCompany},
	{"subject", model.FieldSubject},
	{"name", model.FieldFullName},
}

// typeFromError maps a validation message onto the field type it complains
// about.
func typeFromError(msg string) (model.FieldType, bool) {
	for _, hint := range errorFieldHints {
		if strings.Contains(msg, hint.keyword) {
			return hint.ft, true
		}
	}
	return "", false
}

func (d *Driver) setValueJS(ctx context.Context, rootExpr, selector, value string) error {
	js := `(function(){var el=` + rootExpr + `.querySelector(` + browser.JSString(selector) + `);` +
		`if(!el)return false;` +
		`el.value=` + browser.JSString(value) + `;` +
		`el.dispatchEvent(new Event('input',{bubbles:true}));` +
		`el.dispatchEvent(new Event('change',{bubbles:true}));` +
		`return true;})()`
	var ok bool
	return d.b.Evaluate(ctx, js, &ok)
}

func (d *Driver) selectOption(ctx context.Context, rootExpr, selector string, index int) error {
	js := `(function(i){var el=` + rootExpr + `.querySelector(` + browser.JSString(selector) + `);` +
		`if(!el||!el.options||el.options.length===0)return false;` +
		`if(i>=el.options.length)i=0;` +
		`el.selectedIndex=i;` +
		`el.dispatchEvent(new Event('change',{bubbles:true}));` +
		`return true;})(` + strconv.Itoa(index) + `)`
	var ok bool
	return d.b.Evaluate(ctx, js, &ok)
}

func (d *Driver) check(ctx context.Context, rootExpr, selector string, scripted bool) error {
	if !scripted {
		return d.b.Click(ctx, selector)
	}
	js := `(function(){var el=` + rootExpr + `.querySelector(` + browser.JSString(selector) + `);` +
		`if(!el)return false;` +
		`el.checked=true;` +
		`el.dispatchEvent(new Event('change',{bubbles:true}));` +
		`return true;})()`
	var ok bool
	return d.b.Evaluate(ctx, js, &ok)
}
