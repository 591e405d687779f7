// Package scanner splits a raw statement export into logical sections, one
// per account, bounded by section-start, header and terminator markers.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bibikovilya/prior-import/internal/config"
	"github.com/bibikovilya/prior-import/internal/logging"
)

// RawLine is a single transaction line with its position in the source text.
type RawLine struct {
	Number int // 1-based source line number
	Text   string
}

// StatementSection is one account's sub-statement: the section header line
// and the transaction lines collected between the column header and the
// terminator.
type StatementSection struct {
	Header string
	Lines  []RawLine
}

// Document is the scan result: the canonical column header (the first header
// line seen anywhere in the input; later header lines are not trusted for
// column order) and the flushed sections in source order.
type Document struct {
	Header   string
	Sections []StatementSection
}

// Scanner walks statement text line by line according to a format's markers.
type Scanner struct {
	format config.StatementFormat
	logger logging.Logger
}

// New creates a Scanner for the given statement format.
func New(format config.StatementFormat, logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Scanner{format: format, logger: logger}
}

// Scan reads the raw export and produces the ordered sections.
//
// A section-start line opens a new section and leaves the transaction block.
// A header line enters the transaction block. A terminator line flushes the
// current section, even when it collected no transaction lines. Sections
// that never saw a header, including a trailing unterminated one, are
// discarded. Blank lines and lines without a field separator inside the
// block are skipped without closing the section.
func (s *Scanner) Scan(r io.Reader) (*Document, error) {
	doc := &Document{}

	var current *StatementSection
	inTransactionBlock := false

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if strings.HasPrefix(line, s.format.SectionStart) {
			current = &StatementSection{Header: line}
			inTransactionBlock = false
			continue
		}

		if current != nil && strings.Contains(line, s.format.HeaderPrefix) {
			inTransactionBlock = true
			if doc.Header == "" {
				doc.Header = line
			}
			continue
		}

		if inTransactionBlock && strings.HasPrefix(line, s.format.Terminator) {
			if current != nil {
				doc.Sections = append(doc.Sections, *current)
			}
			current = nil
			inTransactionBlock = false
			continue
		}

		if inTransactionBlock && current != nil &&
			strings.TrimSpace(line) != "" && strings.Contains(line, ",") {
			current.Lines = append(current.Lines, RawLine{Number: lineNo, Text: line})
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading statement text: %w", err)
	}

	if current != nil {
		s.logger.Warn("Discarding unterminated statement section",
			logging.Field{Key: "header", Value: current.Header},
			logging.Field{Key: "lines", Value: len(current.Lines)})
	}

	s.logger.Debug("Scanned statement sections",
		logging.Field{Key: "sections", Value: len(doc.Sections)})
	return doc, nil
}
