// Package common provides the standardized CSV output of normalized
// statement rows.
package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/bibikovilya/prior-import/internal/config"
	"github.com/bibikovilya/prior-import/internal/currencyutils"
	"github.com/bibikovilya/prior-import/internal/dateutils"
	"github.com/bibikovilya/prior-import/internal/logging"
	"github.com/bibikovilya/prior-import/internal/models"
)

// Delimiter is the CSV output delimiter, configurable via SetDelimiter.
var Delimiter rune = ','

// SetDelimiter sets the delimiter used for CSV output.
func SetDelimiter(delim rune) {
	Delimiter = delim
	gocsv.TagSeparator = fmt.Sprintf("%c", delim)
}

// ExportRow is one normalized statement row in the flat preview layout:
// source-locale date, canonical amount string, pipe-joined tags.
type ExportRow struct {
	Account  string `csv:"Account"`
	Date     string `csv:"Date"`
	Amount   string `csv:"Amount"`
	Currency string `csv:"Currency"`
	Name     string `csv:"Name"`
	Category string `csv:"Category"`
	Tags     string `csv:"Tags"`
	Notes    string `csv:"Notes"`
}

// BuildExportRows flattens the accepted rows of a parse run. The date is
// rendered back in the statement's own layout so a row preview reads like
// the source document.
func BuildExportRows(results []models.RowResult, format config.StatementFormat) []ExportRow {
	rows := make([]ExportRow, 0, len(results))
	for _, res := range results {
		if !res.Accepted() {
			continue
		}
		row := res.Row
		rows = append(rows, ExportRow{
			Account:  row.Account,
			Date:     dateutils.FormatStatementDate(row.Date, format.DateLayout),
			Amount:   currencyutils.FormatStatementAmount(row.Amount, false),
			Currency: row.Currency,
			Name:     row.Name,
			Category: row.Category,
			Tags:     strings.Join(row.Tags, "|"),
			Notes:    row.Notes,
		})
	}
	return rows
}

// WriteRowsToCSV writes export rows to a CSV file.
func WriteRowsToCSV(rows []ExportRow, csvFile string, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	logger.Info("Writing rows to CSV",
		logging.Field{Key: "file", Value: csvFile},
		logging.Field{Key: "count", Value: len(rows)})

	file, err := os.Create(csvFile) // #nosec G304 -- CLI tool writes user-provided paths
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close CSV file")
		}
	}()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error writing CSV file: %w", err)
	}
	return nil
}
