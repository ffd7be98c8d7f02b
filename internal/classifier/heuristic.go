package classifier

import "github.com/elevateandautomate/turnclickstoclients/internal/model"

// Heuristic assigns a field type from attribute substrings alone. It is the
// authoritative fallback whenever the trained model is absent or unconfident,
// and the rules are tested strictly in this order.
func Heuristic(attrs model.FieldAttributes) model.FieldType {
	a := attrs.Lower()

	if a.Type == "email" || a.Contains("email") {
		return model.FieldEmail
	}
	if a.Type == "tel" || a.Contains("phone") || a.Contains("tel") ||
		a.Contains("mobile") || a.Contains("cell") {
		return model.FieldPhone
	}
	if a.Contains("name") {
		switch {
		case a.Contains("first"):
			return model.FieldFirstName
		case a.Contains("last"):
			return model.FieldLastName
		default:
			return model.FieldFullName
		}
	}
	if a.Tag == "textarea" || a.Contains("message") || a.Contains("comment") ||
		a.Contains("body") || a.Contains("inquiry") {
		return model.FieldMessage
	}
	if a.Contains("company") || a.Contains("organization") ||
		a.Contains("business") || a.Contains("employer") {
		return model.FieldCompany
	}
	if a.Contains("subject") || a.Contains("topic") {
		return model.FieldSubject
	}
	if a.Contains("address") || a.Contains("street") {
		return model.FieldAddress
	}
	if a.Type == "date" || a.Contains("date") {
		return model.FieldDate
	}
	if a.Type == "time" {
		return model.FieldTime
	}
	switch a.Type {
	case "checkbox":
		return model.FieldCheckbox
	case "radio":
		return model.FieldRadio
	case "submit":
		return model.FieldSubmit
	}
	if a.Tag == "select" {
		return model.FieldDropdown
	}
	return model.FieldUnknown
}
