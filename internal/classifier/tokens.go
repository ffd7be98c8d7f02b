package classifier

import (
	"strings"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// tokens vectorizes a field's attribute blob into word tokens plus character
// trigrams, so "your-email" still overlaps with "email_address".
func tokens(attrs model.FieldAttributes) []string {
	blob := attrs.Blob()
	words := strings.FieldsFunc(blob, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})

	out := make([]string, 0, len(words)*4)
	for _, w := range words {
		out = append(out, w)
		for i := 0; i+3 <= len(w); i++ {
			out = append(out, w[i:i+3])
		}
	}
	if len(out) == 0 {
		out = append(out, "empty")
	}
	return out
}
