package domain

import "time"

// DiagnosticStatus grades one check of the serial link or helper setup.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	// DiagnosticStatusWarn marks a problem that only matters for some transfers.
	DiagnosticStatusWarn DiagnosticStatus = "warn"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one check result. ID doubles as the fix action key.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport is the result of one checker run.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

// Item looks up a check by ID.
func (r DiagnosticReport) Item(id string) (DiagnosticItem, bool) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, true
		}
	}
	return DiagnosticItem{}, false
}

// Problems returns the items that did not pass, in report order.
func (r DiagnosticReport) Problems() []DiagnosticItem {
	var out []DiagnosticItem
	for _, item := range r.Items {
		if item.Status != DiagnosticStatusPass {
			out = append(out, item)
		}
	}
	return out
}
