package model

// ProcessingStage is the pipeline position exposed to the operator console.
type ProcessingStage string

const (
	StageStarting    ProcessingStage = "starting"
	StageVisiting    ProcessingStage = "visiting_website"
	StageFindingForm ProcessingStage = "finding_contact_form"
	StageFillingForm ProcessingStage = "filling_form"
	StageLinkedIn    ProcessingStage = "connecting_linkedin"
	StageCompleted   ProcessingStage = "completed"
	StageError       ProcessingStage = "error"
)

// ProcessingStatus is the current-processing snapshot written to the
// settings table under current_processing_status. The table store copy is
// authoritative; in-memory copies are caches.
type ProcessingStatus struct {
	CurrentContactID   string          `json:"current_contact_id"`
	CurrentContactName string          `json:"current_contact_name"`
	CurrentCompanyName string          `json:"current_company_name"`
	CurrentWebsite     string          `json:"current_website"`
	Stage              ProcessingStage `json:"processing_stage"`
	ErrorMessage       string          `json:"error_message,omitempty"`
}
