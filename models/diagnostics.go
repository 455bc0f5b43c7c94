package models

import "time"

// CheckResult is one pass/fail line of a diagnostics run.
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// DiagnosticsReport aggregates environment, schema and provider reachability
// checks for the admin page. Ephemeral; never persisted.
type DiagnosticsReport struct {
	ID              string        `json:"id"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	Checks          []CheckResult `json:"checks"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// Healthy reports whether every check passed.
func (r *DiagnosticsReport) Healthy() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}
