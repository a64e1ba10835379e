package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Severity is the level of a diagnostic record.
type Severity string

const (
	// SeverityError marks a record that fails the build.
	SeverityError Severity = "error"
	// SeverityWarning marks an informational record.
	SeverityWarning Severity = "warning"
)

// rank orders severities so errors sort first.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Record is a single compiler or checker diagnostic.
type Record struct {
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message"`
}

// String renders the record as "path:line:col: severity: [code] message".
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Path)
	if r.Line > 0 {
		fmt.Fprintf(&b, ":%d", r.Line)
		if r.Column > 0 {
			fmt.Fprintf(&b, ":%d", r.Column)
		}
	}
	fmt.Fprintf(&b, ": %s: ", r.Severity)
	if r.Code != "" {
		fmt.Fprintf(&b, "[%s] ", r.Code)
	}
	b.WriteString(r.Message)
	return b.String()
}

// CompareRecords orders records by severity, line and code.
// Path and message break remaining ties so the order is total.
func CompareRecords(a, b Record) int {
	if c := a.Severity.rank() - b.Severity.rank(); c != 0 {
		return c
	}
	if c := a.Line - b.Line; c != 0 {
		return c
	}
	if c := strings.Compare(a.Code, b.Code); c != 0 {
		return c
	}
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if c := a.Column - b.Column; c != 0 {
		return c
	}
	return strings.Compare(a.Message, b.Message)
}

// SortRecords sorts records in place using CompareRecords.
func SortRecords(records []Record) {
	slices.SortStableFunc(records, CompareRecords)
}

// HasErrors reports whether any record is an error.
func HasErrors(records []Record) bool {
	return slices.ContainsFunc(records, func(r Record) bool {
		return r.Severity == SeverityError
	})
}
