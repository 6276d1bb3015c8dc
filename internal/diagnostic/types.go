package diagnostic

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Diagnostic codes reported by warm up.
const (
	CodeUnsupportedValueType = "unsupported-value-type"
	CodeConstructionFailure  = "construction-failure"
	CodeMalformedBody        = "malformed-body"
	CodeUnresolvedToken      = "unresolved-token"
	CodeTypeNotFound         = "type-not-found"
	CodeNoNames              = "no-names"
	CodeCanceled             = "canceled"
	CodeInternal             = "internal"
)

// Diagnostics collects the outcome of analysing many types. It is safe for
// concurrent use.
type Diagnostics struct {
	mu       sync.Mutex
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a unique identifier for this kind of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Type is the inspected type (if any).
	Type string
	// Analysis names the failing query, e.g. "offsets".
	Analysis string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func (d *Diagnostics) add(list *[]Diagnostic, diag Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()

	*list = append(*list, diag)
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, typ, analysis string) {
	d.add(&d.Errors, Diagnostic{SeverityError, code, message, typ, analysis})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, typ, analysis string) {
	d.add(&d.Warnings, Diagnostic{SeverityWarning, code, message, typ, analysis})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, typ, analysis string) {
	d.add(&d.Infos, Diagnostic{SeverityInfo, code, message, typ, analysis})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.Errors) > 0
}

// Sort orders every list by type, then analysis, so reports are stable
// regardless of which worker finished first.
func (d *Diagnostics) Sort() {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmp := func(a, b Diagnostic) int {
		if c := strings.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		if c := strings.Compare(a.Analysis, b.Analysis); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	}

	slices.SortStableFunc(d.Errors, cmp)
	slices.SortStableFunc(d.Warnings, cmp)
	slices.SortStableFunc(d.Infos, cmp)
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.Errors) == 0 {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Type != "" {
		prefix = append(prefix, "["+d.Type+"]")
	}

	if d.Analysis != "" {
		prefix = append(prefix, d.Analysis)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
