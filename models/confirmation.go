package models

// StepStatus classifies the outcome of one orchestration step.
type StepStatus string

const (
	StepOK       StepStatus = "ok"
	StepSkipped  StepStatus = "skipped"
	StepDegraded StepStatus = "degraded"
)

// StepResult records how a single confirmation step went. Degraded steps never
// fail the overall confirmation once payment is verified; they are surfaced
// here so callers and tests can see exactly which leg fell over.
type StepResult struct {
	Step   string     `json:"step"`
	Status StepStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// ConfirmationResult is the response returned after a booking confirmation.
type ConfirmationResult struct {
	Success              bool         `json:"success"`
	CalendlyEventCreated bool         `json:"calendlyEventCreated"`
	CalendlyEventURI     *string      `json:"calendlyEventUri"`
	IsGuest              bool         `json:"isGuest"`
	Steps                []StepResult `json:"steps,omitempty"`
}
