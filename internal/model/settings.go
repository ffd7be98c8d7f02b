package model

import "strings"

// Setting keys recognized in the settings table.
const (
	KeyYourName      = "your_name"
	KeyYourFirstName = "your_first_name"
	KeyYourLastName  = "your_last_name"
	KeyYourEmail     = "your_email"
	KeyPhone         = "phone"
	KeyYourCompany   = "your_company"

	KeyContactFormTemplate = "contact_form_template"
	KeyLinkedInTemplate    = "linkedin_template"

	KeyLinkedInEmail    = "linkedin_email"
	KeyLinkedInPassword = "linkedin_password"

	KeyHeadlessMode          = "headless_mode"
	KeyBrowserSpeed          = "browser_speed"
	KeyFormDetectionPriority = "form_detection_priority"
	KeyNavigateToContactPage = "navigate_to_contact_page"
	KeySubmitForm            = "submit_form"
	KeyResumeProcessing      = "resume_processing"

	// Written by the pipeline, read by the console.
	KeyLastProcessedContactID  = "last_processed_contact_id"
	KeyCurrentProcessingStatus = "current_processing_status"
)

// Speed is the operator-selected pacing tier.
type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedNormal Speed = "normal"
	SpeedSlow   Speed = "slow"
)

// DetectionPriority selects the selector tier used by form discovery.
type DetectionPriority string

const (
	PriorityStrict     DetectionPriority = "strict"
	PriorityBalanced   DetectionPriority = "balanced"
	PriorityAggressive DetectionPriority = "aggressive"
)

// Settings is the operator configuration read from the settings table.
type Settings map[string]string

// Get returns the raw value for key, or "" when absent.
func (s Settings) Get(key string) string { return s[key] }

// Bool interprets a settings value as a boolean. Missing keys return def.
func (s Settings) Bool(key string, def bool) bool {
	v, ok := s[key]
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return def
}

func (s Settings) YourName() string      { return s.Get(KeyYourName) }
func (s Settings) YourFirstName() string { return s.Get(KeyYourFirstName) }
func (s Settings) YourLastName() string  { return s.Get(KeyYourLastName) }
func (s Settings) YourEmail() string     { return s.Get(KeyYourEmail) }
func (s Settings) Phone() string         { return s.Get(KeyPhone) }
func (s Settings) YourCompany() string   { return s.Get(KeyYourCompany) }

func (s Settings) ContactFormTemplate() string { return s.Get(KeyContactFormTemplate) }
func (s Settings) LinkedInTemplate() string    { return s.Get(KeyLinkedInTemplate) }
func (s Settings) LinkedInEmail() string       { return s.Get(KeyLinkedInEmail) }
func (s Settings) LinkedInPassword() string    { return s.Get(KeyLinkedInPassword) }

func (s Settings) Headless() bool              { return s.Bool(KeyHeadlessMode, true) }
func (s Settings) NavigateToContactPage() bool { return s.Bool(KeyNavigateToContactPage, true) }
func (s Settings) SubmitForm() bool            { return s.Bool(KeySubmitForm, true) }
func (s Settings) ResumeProcessing() bool      { return s.Bool(KeyResumeProcessing, false) }

// BrowserSpeed returns the pacing tier, defaulting to normal.
func (s Settings) BrowserSpeed() Speed {
	switch Speed(strings.ToLower(s.Get(KeyBrowserSpeed))) {
	case SpeedFast:
		return SpeedFast
	case SpeedSlow:
		return SpeedSlow
	}
	return SpeedNormal
}

// FormDetectionPriority returns the selector tier, defaulting to balanced.
func (s Settings) FormDetectionPriority() DetectionPriority {
	switch DetectionPriority(strings.ToLower(s.Get(KeyFormDetectionPriority))) {
	case PriorityStrict:
		return PriorityStrict
	case PriorityAggressive:
		return PriorityAggressive
	}
	return PriorityBalanced
}

// IdentityValues returns the operator identity as template placeholder values.
func (s Settings) IdentityValues() map[string]string {
	return map[string]string{
		KeyYourName:      s.YourName(),
		KeyYourFirstName: s.YourFirstName(),
		KeyYourLastName:  s.YourLastName(),
		KeyYourEmail:     s.YourEmail(),
		KeyPhone:         s.Phone(),
		KeyYourCompany:   s.YourCompany(),
	}
}
