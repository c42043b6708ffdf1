package amsthm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateOverride is returned when an override number is used twice for one environment
	ErrDuplicateOverride = errors.New("duplicate override number")
	// ErrMalformedConfig is returned when the environment declarations can not be used
	ErrMalformedConfig = errors.New("malformed configuration")
	// ErrPhaseOrder is returned when the phases of a compilation are run out of order
	ErrPhaseOrder = errors.New("compilation phase out of order")
)

// DuplicateOverrideError is a fatal error: the same override value was given to
// two blocks of the same environment.
type DuplicateOverrideError struct {
	Environment string // display name of the environment
	Value       string // the override value
	FirstID     string // block that used the value first
	DuplicateID string // block that used it again
}

func (e *DuplicateOverrideError) Error() string {
	return fmt.Sprintf("%s number %q is used by %q and again by %q", e.Environment, e.Value, e.FirstID, e.DuplicateID)
}

func (e *DuplicateOverrideError) Unwrap() error {
	return ErrDuplicateOverride
}

// MalformedConfigError describes one problem in the environment declarations.
type MalformedConfigError struct {
	Index   int    // position of the declaration, -1 for document-level settings
	Field   string // offending field
	Message string
}

func (e *MalformedConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed configuration: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("malformed configuration: environment #%d: %s: %s", e.Index+1, e.Field, e.Message)
}

func (e *MalformedConfigError) Unwrap() error {
	return ErrMalformedConfig
}

// PhaseError reports an attempt to enter a phase from the wrong one.
type PhaseError struct {
	Current Phase
	Next    Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("can not enter phase %s from %s", e.Next, e.Current)
}

func (e *PhaseError) Unwrap() error {
	return ErrPhaseOrder
}

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// DiagnosticKind classifies diagnostics.
type DiagnosticKind string

const (
	UnresolvedReference DiagnosticKind = "unresolved-reference"
	DuplicateOverride   DiagnosticKind = "duplicate-override"
	IgnoredOverride     DiagnosticKind = "ignored-override"
)

// Diagnostic is a message for the author of the document.
type Diagnostic struct {
	Severity    Severity
	Kind        DiagnosticKind
	Environment string   // environment involved, if any
	Value       string   // value in question: the reference target or override value
	IDs         []string // identifiers of the offending blocks
	File        string
	Line        int
	Message     string
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	if len(d.File) > 0 {
		sb.WriteString(d.File)
		if d.Line > 0 {
			fmt.Fprintf(&sb, ":%d", d.Line)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}
