package form

import (
	"strings"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// cf7Types maps Contact Form 7's conventional your-* field names straight to
// types, skipping classification on forms we already understand.
var cf7Types = map[string]model.FieldType{
	"your-name":       model.FieldFullName,
	"your-first-name": model.FieldFirstName,
	"your-last-name":  model.FieldLastName,
	"your-email":      model.FieldEmail,
	"your-phone":      model.FieldPhone,
	"your-tel":        model.FieldPhone,
	"your-company":    model.FieldCompany,
	"your-subject":    model.FieldSubject,
	"your-message":    model.FieldMessage,
}

// cf7Type resolves a CF7 field name, tolerating suffixed variants like
// your-message-2.
func cf7Type(name string) (model.FieldType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if ft, ok := cf7Types[name]; ok {
		return ft, true
	}
	for prefix, ft := range cf7Types {
		if strings.HasPrefix(name, prefix+"-") {
			return ft, true
		}
	}
	return "", false
}
