package form

import (
	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// operatorFirstName returns the operator's first name, splitting the display
// name when the explicit setting is empty.
func operatorFirstName(s model.Settings) string {
	if v := s.YourFirstName(); v != "" {
		return v
	}
	first, _ := model.SplitName(s.YourName())
	return first
}

func operatorLastName(s model.Settings) string {
	if v := s.YourLastName(); v != "" {
		return v
	}
	_, last := model.SplitName(s.YourName())
	return last
}

// valueFor resolves the text to put into a field of the given type. Dropdowns,
// checkboxes and radios are driven by the filler directly, not through here.
func valueFor(ft model.FieldType, attrs model.FieldAttributes, s model.Settings, message string) string {
	switch ft {
	case model.FieldEmail:
		return s.YourEmail()
	case model.FieldPhone:
		return s.Phone()
	case model.FieldFirstName:
		return operatorFirstName(s)
	case model.FieldLastName:
		return operatorLastName(s)
	case model.FieldFullName:
		return s.YourName()
	case model.FieldCompany:
		return s.YourCompany()
	case model.FieldMessage:
		return message
	case model.FieldSubject:
		return "Inquiry"
	default:
		// Unknown and the rarely-hit catalog tail: pick something harmless
		// from the field's shape.
		switch attrs.Lower().Tag {
		case "textarea":
			return message
		case "input":
			if t := attrs.Lower().Type; t == "" || t == "text" {
				return s.YourName()
			}
		}
		return "N/A"
	}
}
