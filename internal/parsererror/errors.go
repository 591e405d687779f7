// Package parsererror defines the error and rejection types produced while
// parsing bank statements.
package parsererror

import "fmt"

// RejectReason classifies why a single statement row was dropped.
// Per-row rejections never abort the pipeline; they are counted and reported.
type RejectReason string

const (
	RejectMalformed    RejectReason = "malformed_line"
	RejectTooFewFields RejectReason = "too_few_fields"
	RejectBlankField   RejectReason = "blank_mandatory_field"
	RejectBadDate      RejectReason = "unparseable_date"
	RejectBadAmount    RejectReason = "unparseable_amount"
	RejectDuplicate    RejectReason = "duplicate_note"
)

// Rejection records a dropped row together with the reason it was dropped.
type Rejection struct {
	Line   string
	Reason RejectReason
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s: %q", r.Reason, r.Line)
}

// ParseError represents an error during parsing of a specific field.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents input that does not conform to the expected
// statement format at all (systemic failure, aborts before any rows).
type InvalidFormatError struct {
	Source         string
	ExpectedFormat string
	Msg            string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in %s: %s. Expected: %s",
		e.Source, e.Msg, e.ExpectedFormat)
}

// DataExtractionError represents a failure to extract a required value from
// otherwise well-formed input.
type DataExtractionError struct {
	Source         string
	FieldName      string
	RawDataSnippet string
	Msg            string
}

func (e *DataExtractionError) Error() string {
	if e.RawDataSnippet != "" {
		return fmt.Sprintf("data extraction failed in %s for field '%s': %s. Raw data snippet: '%s'",
			e.Source, e.FieldName, e.Msg, e.RawDataSnippet)
	}
	return fmt.Sprintf("data extraction failed in %s for field '%s': %s",
		e.Source, e.FieldName, e.Msg)
}
