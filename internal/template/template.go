// Package template renders operator message templates. Placeholders use
// {curly} delimiters and draw from the operator identity settings plus the
// contact row columns. Unresolved placeholders are left in place and logged
// so a bad template never silently drops text.
package template

import (
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// LinkedInMessageLimit is the character ceiling LinkedIn enforces on
// connection notes.
const LinkedInMessageLimit = 300

// Renderer substitutes placeholder values into message templates.
type Renderer struct {
	values map[string]string
}

// NewRenderer builds a renderer for one contact. Identity settings resolve
// first; contact columns override on key collision since they are the more
// specific source.
func NewRenderer(settings model.Settings, contact *model.Contact) *Renderer {
	values := settings.IdentityValues()
	if contact != nil {
		for k, v := range contact.TemplateValues() {
			values[k] = v
		}
		for k, v := range contact.EnrichedAll {
			if _, taken := values[k]; !taken {
				values[k] = v
			}
		}
	}
	return &Renderer{values: values}
}

// Render substitutes every known {placeholder} in tmpl. Unknown placeholders
// survive verbatim.
func (r *Renderer) Render(tmpl string) string {
	if tmpl == "" {
		return ""
	}
	return fasttemplate.ExecuteFuncString(tmpl, "{", "}", func(w io.Writer, tag string) (int, error) {
		key := strings.TrimSpace(tag)
		if v, ok := r.values[key]; ok {
			return w.Write([]byte(v))
		}
		zap.L().Warn("template: unresolved placeholder", zap.String("placeholder", key))
		return w.Write([]byte("{" + tag + "}"))
	})
}

// RenderLinkedIn renders tmpl and truncates the result to the LinkedIn note
// limit, appending an ellipsis when anything was cut.
func (r *Renderer) RenderLinkedIn(tmpl string) string {
	msg := r.Render(tmpl)
	runes := []rune(msg)
	if len(runes) <= LinkedInMessageLimit {
		return msg
	}
	return string(runes[:LinkedInMessageLimit-3]) + "..."
}
