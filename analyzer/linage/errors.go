package linage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotArchive is returned when a package is not a valid zip container
	ErrNotArchive = errors.New("not a valid workbook package")
	// ErrNoDocument is returned when a package holds no structured document entry
	ErrNoDocument = errors.New("no workbook document found in package")
	// ErrMultipleDocuments is returned when a package holds more than one candidate document
	ErrMultipleDocuments = errors.New("multiple workbook documents found in package")
	// ErrWorksheetNotFound is returned when a graph filter names an unknown worksheet
	ErrWorksheetNotFound = errors.New("worksheet not found")
)

// ArchiveError reports a malformed or inaccessible workbook package
type ArchiveError struct {
	Location string
	Reason   string
	Err      error
}

func (e *ArchiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive %s: %s: %v", e.Location, e.Reason, e.Err)
	}
	return fmt.Sprintf("archive %s: %s", e.Location, e.Reason)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// DocumentParseError reports malformed workbook markup
type DocumentParseError struct {
	Line   int
	Column int
	Reason string
	Err    error
}

func (e *DocumentParseError) Error() string {
	msg := "document parse error"
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at %d:%d", msg, e.Line, e.Column)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// GraphBuildError reports tables that are inconsistent with each other.
// It signals a broken contract between the parser and the graph builder.
type GraphBuildError struct {
	Node       Ref
	DataSource string
	Reason     string
}

func (e *GraphBuildError) Error() string {
	return fmt.Sprintf("graph build: node %s, data source %q: %s", e.Node, e.DataSource, e.Reason)
}

// ResolutionWarning is a non-fatal diagnostic about a formula reference
type ResolutionWarning struct {
	Field  FieldID `yaml:"field" json:"field"`
	Token  string  `yaml:"token,omitempty" json:"token,omitempty"`
	Reason string  `yaml:"reason" json:"reason"`
}

func (w ResolutionWarning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Field, w.Token, w.Reason)
}
