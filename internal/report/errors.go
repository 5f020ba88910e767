// Package report writes valuation report artifacts: a machine-readable
// JSON file and a self-contained HTML dashboard.
package report

import "fmt"

// TemplateError represents an error parsing or executing the dashboard template
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// WriteError represents a failure to write a report artifact
type WriteError struct {
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("write error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("write error: %s", e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
