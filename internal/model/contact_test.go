package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitName(t *testing.T) {
	first, last := SplitName("Jane Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)

	first, last = SplitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Equal(t, "", last)

	first, last = SplitName("Jean Claude Van Damme")
	assert.Equal(t, "Jean", first)
	assert.Equal(t, "Claude Van Damme", last)

	first, last = SplitName("")
	assert.Equal(t, "", first)
	assert.Equal(t, "", last)
}

func TestContactGivenFamilyName(t *testing.T) {
	c := Contact{Name: "Jane Doe"}
	assert.Equal(t, "Jane", c.GivenName())
	assert.Equal(t, "Doe", c.FamilyName())

	c = Contact{Name: "Jane Doe", FirstName: "Janet", LastName: "Doherty"}
	assert.Equal(t, "Janet", c.GivenName())
	assert.Equal(t, "Doherty", c.FamilyName())
}

func TestContactTemplateValues(t *testing.T) {
	c := Contact{Name: "Jane Doe", Company: "Acme", Website: "https://acme.com"}
	vals := c.TemplateValues()
	assert.Equal(t, "Acme", vals["company"])
	assert.Equal(t, "Jane", vals["first_name"])
	assert.Equal(t, "https://acme.com", vals["website"])
}

func TestSettingsAccessors(t *testing.T) {
	s := Settings{
		KeyYourName:              "J D",
		KeyHeadlessMode:          "false",
		KeyBrowserSpeed:          "slow",
		KeyFormDetectionPriority: "strict",
	}
	assert.Equal(t, "J D", s.YourName())
	assert.False(t, s.Headless())
	assert.Equal(t, SpeedSlow, s.BrowserSpeed())
	assert.Equal(t, PriorityStrict, s.FormDetectionPriority())

	// Defaults when keys are absent.
	empty := Settings{}
	assert.True(t, empty.Headless())
	assert.True(t, empty.SubmitForm())
	assert.Equal(t, SpeedNormal, empty.BrowserSpeed())
	assert.Equal(t, PriorityBalanced, empty.FormDetectionPriority())
}

func TestFieldAttributesBlobAndContains(t *testing.T) {
	a := FieldAttributes{ID: "Your-Email", Name: "email", Tag: "INPUT", Type: "text"}
	assert.Contains(t, a.Blob(), "your-email")
	assert.Contains(t, a.Blob(), "input")
	assert.True(t, a.Contains("email"))
	assert.False(t, a.Contains("phone"))
}

func TestSubmissionLogFailureReport(t *testing.T) {
	l := SubmissionLog{
		Website: "https://acme.com",
		Attempts: []AttemptRecord{
			{Attempt: 1, Strategy: StrategyStandardWithAI, Message: "validation failed", Errors: []string{"Email invalid"}},
			{Attempt: 2, Strategy: StrategyAggressive, Message: "no submit control"},
		},
	}
	report := l.FailureReport()
	assert.Contains(t, report, "all 2 attempts failed")
	assert.Contains(t, report, "attempt 1 (standard_with_ai)")
	assert.Contains(t, report, "Email invalid")
	assert.Contains(t, report, "attempt 2 (aggressive)")

	assert.Equal(t, []string{"Email invalid"}, l.ValidationErrors())
	assert.Equal(t, 2, l.LastAttempt().Attempt)
}
