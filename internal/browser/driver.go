package browser

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/config"
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Driver runs one Chrome process with one tab.
type Driver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
	pace        *Pacer
}

// New launches Chrome. The caller owns the driver and must Close it.
func New(cfg config.BrowserConfig, headless bool, speed model.Speed) (*Driver, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	width, height := cfg.WindowWidth, cfg.WindowHeight
	if width <= 0 {
		width = 1366
	}
	if height <= 0 {
		height = 900
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(width, height),
		chromedp.UserAgent(ua),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	// Materialize the browser process up front so startup failures surface
	// here instead of on the first navigation.
	if err := chromedp.Run(tab); err != nil {
		tabCancel()
		allocCancel()
		return nil, eris.Wrap(err, "browser: start chrome")
	}

	zap.L().Info("browser: chrome started",
		zap.Bool("headless", headless), zap.String("speed", string(speed)))

	return &Driver{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tab:         tab,
		tabCancel:   tabCancel,
		pace:        NewPacer(speed),
	}, nil
}

// run executes actions against the tab while honoring the caller's deadline.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx := d.tab
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(d.tab, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (d *Driver) Pace() *Pacer { return d.pace }

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return d.pace.PageLoad(ctx)
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := d.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", eris.Wrap(err, "browser: current url")
	}
	return loc, nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", eris.Wrap(err, "browser: page source")
	}
	return html, nil
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	if err := d.pace.Action(ctx); err != nil {
		return err
	}
	if err := d.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: click %s", selector)
	}
	return nil
}

// Type clears the target field and types text into it.
func (d *Driver) Type(ctx context.Context, selector, text string) error {
	if err := d.pace.Action(ctx); err != nil {
		return err
	}
	err := d.run(ctx,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return eris.Wrapf(err, "browser: type into %s", selector)
	}
	return nil
}

func (d *Driver) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	js := `(function(sel){
		var el = document.querySelector(sel);
		return !!(el && (el.offsetWidth || el.offsetHeight || el.getClientRects().length));
	})(` + JSString(selector) + `)`
	if err := d.run(ctx, chromedp.Evaluate(js, &visible)); err != nil {
		return false, eris.Wrapf(err, "browser: visibility of %s", selector)
	}
	return visible, nil
}

func (d *Driver) Evaluate(ctx context.Context, js string, out any) error {
	if err := d.run(ctx, chromedp.Evaluate(js, out)); err != nil {
		return eris.Wrap(err, "browser: evaluate")
	}
	return nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.FullScreenshot(&buf, 80)); err != nil {
		return nil, eris.Wrap(err, "browser: screenshot")
	}
	return buf, nil
}

func (d *Driver) Cookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, eris.Wrap(err, "browser: get cookies")
	}
	return out, nil
}

func (d *Driver) SetCookies(ctx context.Context, cookies []Cookie) error {
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			p := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				p = p.WithExpires(&exp)
			}
			if err := p.Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	return eris.Wrap(err, "browser: set cookies")
}

func (d *Driver) Close() error {
	d.tabCancel()
	d.allocCancel()
	return nil
}

// JSString quotes s as a JavaScript string literal. Besides quotes and
// backslashes it escapes every line terminator JS recognizes (\n, \r,
// U+2028, U+2029); any of them would split the literal inside an injected
// script.
func JSString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case ' ':
			b.WriteString(` `)
		case ' ':
			b.WriteString(` `)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
