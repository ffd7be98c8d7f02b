// Package browser wraps chromedp behind a small surface the pipeline stages
// share. The driver owns one Chrome process and one tab; it is not reentrant
// and callers serialize access through the batch runner.
package browser

import "context"

// Cookie is the serializable subset of a Chrome cookie, enough to restore a
// LinkedIn session between runs.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
}

// Browser is the operation surface the discovery, form, enrichment and
// LinkedIn stages drive. Implemented by Driver; tests substitute fakes.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Visible(ctx context.Context, selector string) (bool, error)
	Evaluate(ctx context.Context, js string, out any) error
	Screenshot(ctx context.Context) ([]byte, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	Pace() *Pacer
	Close() error
}
