package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/template"
)

// Result is the connector's verdict for one contact. The connector never
// lets an error escape its boundary; failures land in Reason.
type Result struct {
	Connected bool
	Method    string // "message" or "connect"
	Reason    string
}

// Connector drives the LinkedIn follow-up: login with cookie reuse, people
// search, candidate scoring, and message-or-connect on the best match.
type Connector struct {
	b   browser.Browser
	cfg config.LinkedInConfig
}

// New returns a connector bound to a browser session.
func New(b browser.Browser, cfg config.LinkedInConfig) *Connector {
	return &Connector{b: b, cfg: cfg}
}

// Run performs the full follow-up for one contact.
func (c *Connector) Run(ctx context.Context, contact *model.Contact, settings model.Settings) Result {
	email, password := settings.LinkedInEmail(), settings.LinkedInPassword()
	if email == "" || password == "" {
		return Result{Reason: "linkedin credentials not configured"}
	}

	if err := c.ensureLoggedIn(ctx, email, password); err != nil {
		zap.L().Warn("linkedin: login failed", zap.Error(err))
		return Result{Reason: "login failed: " + err.Error()}
	}

	profileURL, score, miss, err := c.locateProfile(ctx, contact)
	if err != nil {
		return Result{Reason: err.Error()}
	}
	if profileURL == "" {
		return Result{Reason: miss}
	}
	zap.L().Info("linkedin: profile located",
		zap.String("contact", contact.Name),
		zap.String("profile", profileURL),
		zap.Float64("score", score))

	note := template.NewRenderer(settings, contact).RenderLinkedIn(settings.LinkedInTemplate())
	if err := c.navigate(ctx, profileURL); err != nil {
		return Result{Reason: "profile load failed: " + err.Error()}
	}

	if ok, reason := c.tryMessage(ctx, note); ok {
		return Result{Connected: true, Method: "message", Reason: reason}
	}
	if ok, reason := c.tryConnect(ctx, note); ok {
		return Result{Connected: true, Method: "connect", Reason: reason}
	}
	return Result{Reason: "no message or connect affordance available"}
}

// ensureLoggedIn restores a cookie session when possible, otherwise performs
// a credential login and persists the fresh cookies.
func (c *Connector) ensureLoggedIn(ctx context.Context, email, password string) error {
	if cookies, err := loadCookieJar(c.cfg.CookiePath); err != nil {
		zap.L().Warn("linkedin: cookie jar unreadable", zap.Error(err))
	} else if len(cookies) > 0 {
		if err := c.b.SetCookies(ctx, cookies); err != nil {
			zap.L().Warn("linkedin: restore cookies", zap.Error(err))
		}
	}

	if err := c.navigate(ctx, c.base()+"/feed/"); err != nil {
		return err
	}
	if c.loggedIn(ctx) {
		return nil
	}

	zap.L().Info("linkedin: session expired, logging in")
	if err := c.navigate(ctx, c.base()+"/login"); err != nil {
		return err
	}
	if err := c.b.Type(ctx, "#username", email); err != nil {
		return eris.Wrap(err, "linkedin: enter email")
	}
	if err := c.b.Type(ctx, "#password", password); err != nil {
		return eris.Wrap(err, "linkedin: enter password")
	}
	if err := c.b.Click(ctx, `button[type="submit"]`); err != nil {
		return eris.Wrap(err, "linkedin: submit login")
	}

	deadline := time.Now().Add(c.cfg.LoginTimeout())
	for time.Now().Before(deadline) {
		if c.loggedIn(ctx) {
			if cookies, err := c.b.Cookies(ctx); err == nil {
				if err := saveCookieJar(c.cfg.CookiePath, cookies); err != nil {
					zap.L().Warn("linkedin: persist cookies", zap.Error(err))
				}
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return eris.New("linkedin: login did not complete")
}

func (c *Connector) loggedIn(ctx context.Context) bool {
	var ok bool
	if err := c.b.Evaluate(ctx, loggedInScript, &ok); err != nil {
		return false
	}
	return ok
}

// locateProfile resolves the contact to a profile URL, via the stored handle
// when present, otherwise via a scored people search. An empty URL with a
// nil error carries the miss reason instead.
func (c *Connector) locateProfile(ctx context.Context, contact *model.Contact) (string, float64, string, error) {
	if handle := strings.Trim(contact.LinkedInHandle, "/ "); handle != "" {
		return c.base() + "/in/" + handle, 100, "", nil
	}

	query := contact.Name
	if contact.Company != "" {
		query += " " + contact.Company
	}
	searchURL := c.base() + "/search/results/people/?keywords=" + url.QueryEscape(query)
	if err := c.navigate(ctx, searchURL); err != nil {
		return "", 0, "", eris.Wrap(err, "linkedin: open search")
	}

	var raw string
	if err := c.b.Evaluate(ctx, tilesScript, &raw); err != nil {
		return "", 0, "", eris.Wrap(err, "linkedin: scrape results")
	}
	var candidates []Candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return "", 0, "", eris.Wrap(err, "linkedin: decode results")
	}
	if len(candidates) == 0 {
		return "", 0, "no search result matched", nil
	}

	best, score := Best(candidates, contact.Name, contact.Company, contact.Location, c.cfg.MinScore())
	if best == nil {
		zap.L().Info("linkedin: no candidate above threshold",
			zap.String("contact", contact.Name),
			zap.Int("candidates", len(candidates)))
		return "", 0, "no good match found", nil
	}
	return best.ProfileURL, score, "", nil
}

// tryMessage uses the Message affordance, which only exists on profiles the
// operator is already connected to.
func (c *Connector) tryMessage(ctx context.Context, note string) (bool, string) {
	if !c.clickAction(ctx, "message") {
		return false, ""
	}
	if !c.pollTrue(ctx, composerOpenScript) {
		return false, ""
	}
	var typed bool
	script := strings.Replace(typeMessageScript, "NOTE", browser.JSString(note), 1)
	if err := c.b.Evaluate(ctx, script, &typed); err != nil || !typed {
		return false, ""
	}
	_ = c.b.Pace().Action(ctx)
	if !c.clickAction(ctx, "send") {
		return false, ""
	}
	return true, "message sent"
}

// tryConnect issues a connection request with the note attached. When the
// Connect button is tucked away, it goes through the More menu.
func (c *Connector) tryConnect(ctx context.Context, note string) (bool, string) {
	if !c.clickAction(ctx, "connect") {
		if !c.clickAction(ctx, "more") {
			return false, ""
		}
		_ = c.b.Pace().Action(ctx)
		if !c.clickAction(ctx, "connect") {
			return false, ""
		}
	}
	_ = c.b.Pace().Action(ctx)

	withNote := false
	if c.clickAction(ctx, "add a note") {
		script := strings.Replace(typeNoteScript, "NOTE", browser.JSString(note), 1)
		var typed bool
		if err := c.b.Evaluate(ctx, script, &typed); err == nil && typed {
			withNote = true
		}
		_ = c.b.Pace().Action(ctx)
	}
	if !c.clickAction(ctx, "send") {
		return false, ""
	}
	if withNote {
		return true, "connection request sent with note"
	}
	return true, "connection request sent"
}

func (c *Connector) clickAction(ctx context.Context, label string) bool {
	script := strings.Replace(clickActionScript, "LABEL", browser.JSString(strings.ToLower(label)), 1)
	var clicked bool
	if err := c.b.Evaluate(ctx, script, &clicked); err != nil {
		return false
	}
	return clicked
}

// pollTrue re-evaluates a boolean script until it holds or the page budget
// runs out.
func (c *Connector) pollTrue(ctx context.Context, script string) bool {
	deadline := time.Now().Add(c.cfg.PageTimeout())
	for time.Now().Before(deadline) {
		var ok bool
		if err := c.b.Evaluate(ctx, script, &ok); err == nil && ok {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(300 * time.Millisecond):
		}
	}
	return false
}

func (c *Connector) navigate(ctx context.Context, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, c.cfg.PageTimeout())
	defer cancel()
	if err := c.b.Navigate(navCtx, target); err != nil {
		return eris.Wrap(err, fmt.Sprintf("linkedin: load %s", target))
	}
	return nil
}

func (c *Connector) base() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if base == "" {
		base = "https://www.linkedin.com"
	}
	return base
}
