// Package priorparser parses Priorbank card-statement exports: a loosely
// delimited, multi-section text dump with locale-specific dates and amounts.
// It turns each section's transaction lines into typed, classified rows.
package priorparser

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/bibikovilya/prior-import/internal/config"
	"github.com/bibikovilya/prior-import/internal/currencyutils"
	"github.com/bibikovilya/prior-import/internal/dateutils"
	"github.com/bibikovilya/prior-import/internal/logging"
	"github.com/bibikovilya/prior-import/internal/models"
	"github.com/bibikovilya/prior-import/internal/parsererror"
	"github.com/bibikovilya/prior-import/internal/scanner"
	"github.com/bibikovilya/prior-import/internal/textutils"
)

// ParsedRow is one candidate transaction as positionally addressed from a
// statement line, before normalization.
type ParsedRow struct {
	Date     string
	Name     string
	Amount   string
	Currency string
	Category string
	Account  string
}

// Parser converts statement sections into classified rows according to a
// statement format.
type Parser struct {
	format config.StatementFormat
	logger logging.Logger
}

// New creates a Parser for the given statement format.
func New(format config.StatementFormat, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Parser{format: format, logger: logger}
}

// Parse reads a whole statement export and returns one RowResult per
// candidate transaction line, in source order. Only a read failure or input
// that is not this statement format at all is an error; per-row problems
// become rejections.
func (p *Parser) Parse(r io.Reader) ([]models.RowResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &parsererror.ParseError{
			Parser: p.format.Name,
			Field:  "input",
			Value:  "(from reader)",
			Err:    err,
		}
	}

	if !strings.Contains(string(data), p.format.SectionStart) {
		return nil, &parsererror.InvalidFormatError{
			Source:         "(from reader)",
			ExpectedFormat: p.format.Name + " statement",
			Msg:            "no statement sections found",
		}
	}

	doc, err := scanner.New(p.format, p.logger).Scan(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}

	var results []models.RowResult
	for _, section := range doc.Sections {
		results = append(results, p.ParseSection(section)...)
	}

	accepted := 0
	for _, res := range results {
		if res.Accepted() {
			accepted++
		}
	}
	p.logger.Info("Parsed statement",
		logging.Field{Key: "sections", Value: len(doc.Sections)},
		logging.Field{Key: "rows", Value: len(results)},
		logging.Field{Key: "accepted", Value: accepted})

	return results, nil
}

// ParseSection converts one section's transaction lines into RowResults.
func (p *Parser) ParseSection(section scanner.StatementSection) []models.RowResult {
	account := textutils.ExtractMaskedAccount(section.Header, models.UnknownAccount)

	results := make([]models.RowResult, 0, len(section.Lines))
	for _, line := range section.Lines {
		results = append(results, p.parseLine(line.Text, account))
	}
	return results
}

func (p *Parser) parseLine(line, account string) models.RowResult {
	fields, err := splitFields(line)
	if err != nil {
		p.logger.WithError(err).Debug("Skipping malformed statement line")
		return reject(line, parsererror.RejectMalformed)
	}
	if len(fields) < p.format.MinFields {
		return reject(line, parsererror.RejectTooFewFields)
	}

	cols := p.format.Columns
	row := ParsedRow{
		Date:     strings.TrimSpace(fieldAt(fields, cols.Date)),
		Name:     strings.TrimSpace(fieldAt(fields, cols.Name)),
		Amount:   strings.TrimSpace(fieldAt(fields, cols.Amount)),
		Currency: strings.TrimSpace(fieldAt(fields, cols.Currency)),
		Category: strings.TrimSpace(fieldAt(fields, cols.Category)),
		Account:  account,
	}

	if row.Date == "" || row.Amount == "" {
		return reject(line, parsererror.RejectBlankField)
	}

	tx, reason := p.normalize(row)
	if reason != "" {
		return reject(line, reason)
	}

	return models.RowResult{Row: &models.ClassifiedRow{
		NormalizedTransaction: tx,
		IsCashWithdrawal:      p.classify(tx),
	}}
}

// normalize converts the raw field strings into canonical types. A date or
// amount that fails strict parsing rejects the row.
func (p *Parser) normalize(row ParsedRow) (models.NormalizedTransaction, parsererror.RejectReason) {
	date, err := dateutils.ParseStatementDate(row.Date, p.format.DateLayout)
	if err != nil {
		return models.NormalizedTransaction{}, parsererror.RejectBadDate
	}

	amount, err := currencyutils.ParseStatementAmount(row.Amount, p.format.DecimalComma)
	if err != nil {
		return models.NormalizedTransaction{}, parsererror.RejectBadAmount
	}

	name := row.Name
	if name == "" {
		name = p.format.DefaultName
	}
	currency := row.Currency
	if currency == "" {
		currency = p.format.DefaultCurrency
	}

	tx := models.NormalizedTransaction{
		Date:     date,
		Amount:   amount,
		Name:     name,
		Currency: currency,
		Category: row.Category,
		Account:  row.Account,
		Tags:     []string{},
	}
	if p.format.PopulateNotes {
		tx.Notes = textutils.CleanNote(name)
	}
	return tx, ""
}

// classify flags cash-machine withdrawals by exact substring match of the
// configured marker against the note text. Formats that do not populate
// notes never flag a withdrawal.
func (p *Parser) classify(tx models.NormalizedTransaction) bool {
	if tx.Notes == "" || p.format.WithdrawalMarker == "" {
		return false
	}
	return strings.Contains(tx.Notes, p.format.WithdrawalMarker)
}

// splitFields splits one statement line honoring standard CSV quoting, so a
// quoted operation name may contain the field separator.
func splitFields(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

// fieldAt addresses a field positionally; an index past the end of the line
// is empty, not an error.
func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func reject(line string, reason parsererror.RejectReason) models.RowResult {
	return models.RowResult{Rejected: &parsererror.Rejection{Line: line, Reason: reason}}
}
