package model

import (
	"fmt"
	"strings"
)

// FillStrategy names one of the escalating fill approaches.
type FillStrategy string

const (
	StrategyStandardWithAI     FillStrategy = "standard_with_ai"
	StrategyAggressive         FillStrategy = "aggressive"
	StrategyJavascriptFallback FillStrategy = "javascript_fallback"
)

// SubmitOutcomeKind classifies what the result poll observed after a submit.
type SubmitOutcomeKind string

const (
	OutcomeSuccess           SubmitOutcomeKind = "success"
	OutcomeValidationFailure SubmitOutcomeKind = "validation_failure"
	OutcomeUncertain         SubmitOutcomeKind = "uncertain"
)

// FilledField records one field filled during an attempt.
type FilledField struct {
	Selector string    `json:"selector"`
	Type     FieldType `json:"type"`
	Value    string    `json:"value"`
}

// AttemptRecord is the per-attempt slice of the submission log.
type AttemptRecord struct {
	Attempt         int               `json:"attempt"`
	Strategy        FillStrategy      `json:"strategy"`
	FieldsAttempted []string          `json:"fields_attempted,omitempty"`
	FieldsFilled    []FilledField     `json:"fields_filled,omitempty"`
	Outcome         SubmitOutcomeKind `json:"outcome,omitempty"`
	Errors          []string          `json:"errors,omitempty"`
	Message         string            `json:"message,omitempty"`
}

// SubmissionLog records every attempt against one website's form.
type SubmissionLog struct {
	Website  string          `json:"website"`
	Attempts []AttemptRecord `json:"attempts"`
}

// LastAttempt returns the most recent attempt record, or nil.
func (l *SubmissionLog) LastAttempt() *AttemptRecord {
	if len(l.Attempts) == 0 {
		return nil
	}
	return &l.Attempts[len(l.Attempts)-1]
}

// ValidationErrors collects the error texts observed across all attempts.
func (l *SubmissionLog) ValidationErrors() []string {
	var errs []string
	for _, a := range l.Attempts {
		errs = append(errs, a.Errors...)
	}
	return errs
}

// FailureReport compiles a human-readable summary of why every attempt failed.
func (l *SubmissionLog) FailureReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all %d attempts failed", len(l.Attempts))
	for _, a := range l.Attempts {
		fmt.Fprintf(&b, "; attempt %d (%s): %s", a.Attempt, a.Strategy, a.Message)
		if len(a.Errors) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(a.Errors, "; "))
		}
	}
	return b.String()
}
