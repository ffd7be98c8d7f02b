package form

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/classifier"
	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/discovery"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

// fakeBrowser records interactions and feeds scripted result signals.
type fakeBrowser struct {
	pace *browser.Pacer
	url  string

	typed       map[string]string
	clicked     []string
	evaluatedJS []string
	results     []string // queued resultScript payloads
	jsFills     int
	jsSubmits   int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		pace:  browser.NewPacer(model.SpeedFast),
		url:   "https://acme.com/contact",
		typed: map[string]string{},
	}
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error { f.url = url; return nil }
func (f *fakeBrowser) CurrentURL(context.Context) (string, error)   { return f.url, nil }
func (f *fakeBrowser) PageSource(context.Context) (string, error)   { return "", nil }
func (f *fakeBrowser) Click(_ context.Context, sel string) error {
	f.clicked = append(f.clicked, sel)
	return nil
}
func (f *fakeBrowser) Type(_ context.Context, sel, text string) error {
	f.typed[sel] = text
	return nil
}
func (f *fakeBrowser) Visible(context.Context, string) (bool, error)      { return true, nil }
func (f *fakeBrowser) Screenshot(context.Context) ([]byte, error)         { return nil, nil }
func (f *fakeBrowser) Cookies(context.Context) ([]browser.Cookie, error)  { return nil, nil }
func (f *fakeBrowser) SetCookies(context.Context, []browser.Cookie) error { return nil }
func (f *fakeBrowser) Pace() *browser.Pacer                               { return f.pace }
func (f *fakeBrowser) Close() error                                       { return nil }

func (f *fakeBrowser) Evaluate(_ context.Context, js string, out any) error {
	f.evaluatedJS = append(f.evaluatedJS, js)
	switch {
	case strings.Contains(js, "strictSelectors"):
		*out.(*string) = `{"found":false}`
	case strings.Contains(js, "mailto:"):
		*out.(*string) = `[]`
	case strings.Contains(js, "document.title"):
		*out.(*string) = ""
	case strings.Contains(js, "scrollIntoView"):
		*out.(*int) = 0
	case strings.Contains(js, "cfg.success.length"):
		payload := `{"status":"none"}`
		if len(f.results) > 0 {
			payload = f.results[0]
			f.results = f.results[1:]
		}
		*out.(*string) = payload
	case strings.Contains(js, "new Event('input'"):
		f.jsFills++
		*out.(*bool) = true
	case strings.Contains(js, "requestSubmit"), strings.Contains(js, "el.click();return true"):
		f.jsSubmits++
		*out.(*bool) = true
	default:
		if b, ok := out.(*bool); ok {
			*b = true
		}
	}
	return nil
}

func cf7Candidate() *discovery.Candidate {
	return &discovery.Candidate{
		Found:          true,
		Ideal:          true,
		CF7:            true,
		Selector:       "form.wpcf7-form",
		RootExpr:       "document",
		SubmitSelector: "input[type=submit]",
		PageURL:        "https://acme.com/contact",
		Fields: []discovery.FieldProbe{
			{Selector: `input[name="your-name"]`, Attrs: model.FieldAttributes{Name: "your-name", Tag: "input", Type: "text"}},
			{Selector: `input[name="your-email"]`, Attrs: model.FieldAttributes{Name: "your-email", Tag: "input", Type: "email"}},
			{Selector: `textarea[name="your-message"]`, Attrs: model.FieldAttributes{Name: "your-message", Tag: "textarea"}},
		},
	}
}

func cf7Settings() model.Settings {
	return model.Settings{
		model.KeyYourName:            "J D",
		model.KeyYourEmail:           "j@d.com",
		model.KeyPhone:               "555",
		model.KeySubmitForm:          "true",
		model.KeyContactFormTemplate: "Hi {company}, regards {your_name}",
	}
}

func newTestDriver(t *testing.T, fb *fakeBrowser) (*Driver, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	clf := classifier.New(st)
	disc, err := discovery.New(fb, config.DiscoveryConfig{TimeoutSecs: 5})
	require.NoError(t, err)
	return NewDriver(fb, clf, disc, config.FormConfig{ResultPollSecs: 1}), st
}

func TestRun_CF7Success(t *testing.T) {
	fb := newFakeBrowser()
	fb.results = []string{`{"status":"success","text":"Thank you for your message."}`}
	d, st := newTestDriver(t, fb)

	contact := &model.Contact{Name: "Bob Smith", Company: "Acme", Website: "https://acme.com"}
	res, err := d.Run(context.Background(), cf7Candidate(), contact, cf7Settings())
	require.NoError(t, err)

	assert.True(t, res.Submitted)
	assert.Contains(t, res.Message, "Success")
	require.Len(t, res.Log.Attempts, 1)
	assert.Equal(t, model.StrategyStandardWithAI, res.Log.Attempts[0].Strategy)

	// Fields typed with the CF7 fast-path values.
	assert.Equal(t, "J D", fb.typed[`input[name="your-name"]`])
	assert.Equal(t, "j@d.com", fb.typed[`input[name="your-email"]`])
	assert.Equal(t, "Hi Acme, regards J D", fb.typed[`textarea[name="your-message"]`])
	assert.Contains(t, fb.clicked, "input[type=submit]")

	// Every filled field became a training example.
	examples, err := st.ListFieldExamples(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, examples, 3)
}

func TestRun_SubmitDisabled(t *testing.T) {
	fb := newFakeBrowser()
	d, _ := newTestDriver(t, fb)

	settings := cf7Settings()
	settings[model.KeySubmitForm] = "false"

	res, err := d.Run(context.Background(), cf7Candidate(), &model.Contact{Name: "B", Website: "https://acme.com"}, settings)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.False(t, res.Submitted)
	assert.Equal(t, "form filled but not submitted", res.Message)
	assert.Empty(t, fb.clicked)
}

func TestRun_ValidationThenSuccess(t *testing.T) {
	fb := newFakeBrowser()
	fb.results = []string{
		`{"status":"validation","errors":["Email is required"]}`,
		`{"status":"success","text":"Sent"}`,
	}
	d, _ := newTestDriver(t, fb)

	res, err := d.Run(context.Background(), cf7Candidate(), &model.Contact{Name: "B", Website: "https://acme.com"}, cf7Settings())
	require.NoError(t, err)

	assert.True(t, res.Submitted)
	require.Len(t, res.Log.Attempts, 2)
	assert.Equal(t, model.StrategyAggressive, res.Log.Attempts[1].Strategy)
	assert.Contains(t, res.Log.ValidationErrors(), "Email is required")
}

func TestRun_ValidationErrorsRetargetFields(t *testing.T) {
	fb := newFakeBrowser()
	fb.results = []string{
		`{"status":"validation","errors":["Reach you at must be a valid email address"]}`,
		`{"status":"success","text":"Sent"}`,
	}
	d, _ := newTestDriver(t, fb)

	// The field's attributes give the classifier nothing; attempt 1 fills it
	// as a generic text input.
	cand := cf7Candidate()
	cand.CF7 = false
	cand.Fields = []discovery.FieldProbe{
		{Selector: `input[name="field_7"]`, Attrs: model.FieldAttributes{Name: "field_7", Label: "Reach you at", Tag: "input", Type: "text"}},
		{Selector: `textarea[name="field_8"]`, Attrs: model.FieldAttributes{Name: "field_8", Tag: "textarea"}},
	}

	res, err := d.Run(context.Background(), cand, &model.Contact{Name: "B", Website: "https://acme.com"}, cf7Settings())
	require.NoError(t, err)

	assert.True(t, res.Submitted)
	require.Len(t, res.Log.Attempts, 2)
	// Attempt 2 reads the validation error, matches it to the flagged field
	// by label, and refills it as an email.
	assert.Equal(t, "j@d.com", fb.typed[`input[name="field_7"]`])
}

func TestErrorTarget(t *testing.T) {
	email := discovery.FieldProbe{Attrs: model.FieldAttributes{Name: "work_email", Tag: "input", Type: "text"}}
	ft, ok := errorTarget(email, []string{"A valid email is required"})
	require.True(t, ok)
	assert.Equal(t, model.FieldEmail, ft)

	labeled := discovery.FieldProbe{Attrs: model.FieldAttributes{Name: "f1", Label: "Your details"}}
	_, ok = errorTarget(labeled, []string{"Your details cannot be blank"})
	assert.True(t, ok)

	unrelated := discovery.FieldProbe{Attrs: model.FieldAttributes{Name: "f2", Label: "Budget"}}
	_, ok = errorTarget(unrelated, []string{"A valid email is required"})
	assert.False(t, ok)

	_, ok = errorTarget(email, nil)
	assert.False(t, ok)
}

func TestRun_AllAttemptsFail(t *testing.T) {
	fb := newFakeBrowser()
	fb.results = []string{
		`{"status":"validation","errors":["nope"]}`,
		`{"status":"validation","errors":["nope"]}`,
		`{"status":"validation","errors":["nope"]}`,
	}
	d, _ := newTestDriver(t, fb)

	res, err := d.Run(context.Background(), cf7Candidate(), &model.Contact{Name: "B", Website: "https://acme.com"}, cf7Settings())
	require.NoError(t, err)

	assert.False(t, res.Submitted)
	assert.Contains(t, res.Message, "all 3 attempts failed")
	assert.Len(t, res.Log.Attempts, 3)
}

func TestRun_CaptchaShortCircuits(t *testing.T) {
	fb := newFakeBrowser()
	fb.results = []string{`{"status":"success","text":"ok"}`}
	d, _ := newTestDriver(t, fb)

	cand := cf7Candidate()
	cand.HasCaptcha = true
	res, err := d.Run(context.Background(), cand, &model.Contact{Name: "B", Website: "https://acme.com"}, cf7Settings())
	require.NoError(t, err)

	assert.True(t, res.Submitted)
	require.Len(t, res.Log.Attempts, 1)
	assert.Equal(t, model.StrategyJavascriptFallback, res.Log.Attempts[0].Strategy)
	// Script strategy sets values and submits via page script, not typing.
	assert.Empty(t, fb.typed)
	assert.Equal(t, 3, fb.jsFills)
	assert.NotZero(t, fb.jsSubmits)
}

func TestRun_UncertainTreatedAsTentativeSuccess(t *testing.T) {
	fb := newFakeBrowser()
	d, _ := newTestDriver(t, fb)

	res, err := d.Run(context.Background(), cf7Candidate(), &model.Contact{Name: "B", Website: "https://acme.com"}, cf7Settings())
	require.NoError(t, err)

	assert.True(t, res.Submitted)
	assert.Contains(t, res.Message, "assuming submitted")
}

func TestValueFor(t *testing.T) {
	s := model.Settings{
		model.KeyYourName:  "Jane Doe",
		model.KeyYourEmail: "jane@d.com",
		model.KeyPhone:     "5551234",
	}
	assert.Equal(t, "jane@d.com", valueFor(model.FieldEmail, model.FieldAttributes{}, s, "msg"))
	assert.Equal(t, "5551234", valueFor(model.FieldPhone, model.FieldAttributes{}, s, "msg"))
	assert.Equal(t, "Jane", valueFor(model.FieldFirstName, model.FieldAttributes{}, s, "msg"))
	assert.Equal(t, "Doe", valueFor(model.FieldLastName, model.FieldAttributes{}, s, "msg"))
	assert.Equal(t, "msg", valueFor(model.FieldMessage, model.FieldAttributes{}, s, "msg"))
	assert.Equal(t, "Inquiry", valueFor(model.FieldSubject, model.FieldAttributes{}, s, "msg"))
	// Unknown fields fall back by tag shape.
	assert.Equal(t, "msg", valueFor(model.FieldUnknown, model.FieldAttributes{Tag: "textarea"}, s, "msg"))
	assert.Equal(t, "Jane Doe", valueFor(model.FieldUnknown, model.FieldAttributes{Tag: "input", Type: "text"}, s, "msg"))
	assert.Equal(t, "N/A", valueFor(model.FieldUnknown, model.FieldAttributes{Tag: "input", Type: "number"}, s, "msg"))
}

func TestCF7Type(t *testing.T) {
	ft, ok := cf7Type("your-email")
	require.True(t, ok)
	assert.Equal(t, model.FieldEmail, ft)

	ft, ok = cf7Type("your-message-2")
	require.True(t, ok)
	assert.Equal(t, model.FieldMessage, ft)

	_, ok = cf7Type("email")
	assert.False(t, ok)
}
