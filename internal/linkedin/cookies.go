package linkedin

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/elevateandautomate/turnclickstoclients/internal/browser"
)

// loadCookieJar reads a previously persisted session. A missing jar is not
// an error, it just means a fresh login.
func loadCookieJar(path string) ([]browser.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "linkedin: read cookie jar")
	}
	var cookies []browser.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, eris.Wrap(err, "linkedin: decode cookie jar")
	}
	return cookies, nil
}

// saveCookieJar persists the session cookies. The jar holds auth material,
// so it is written owner-only.
func saveCookieJar(path string, cookies []browser.Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return eris.Wrap(err, "linkedin: encode cookie jar")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return eris.Wrap(err, "linkedin: write cookie jar")
	}
	return nil
}
