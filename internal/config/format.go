package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SignageConvention maps a transaction's real-world direction to the sign on
// its amount as stored in the statement.
type SignageConvention string

const (
	// InflowsNegative means a negative amount denotes money coming in.
	InflowsNegative SignageConvention = "inflows_negative"
	// InflowsPositive means a positive amount denotes money coming in.
	InflowsPositive SignageConvention = "inflows_positive"
)

// ColumnMap holds the zero-based positions of the fields inside a
// transaction line. An index pointing past the end of a line reads as empty.
type ColumnMap struct {
	Date     int `yaml:"date"`
	Name     int `yaml:"name"`
	Amount   int `yaml:"amount"`
	Currency int `yaml:"currency"`
	Category int `yaml:"category"`
}

// StatementFormat describes one variant of the bank's export. The historical
// importer grew as a chain of near-identical classes; each of those variants
// is now a value of this type.
type StatementFormat struct {
	Name string `yaml:"name"`

	// Section markers.
	SectionStart string `yaml:"section_start"`
	HeaderPrefix string `yaml:"header_prefix"`
	Terminator   string `yaml:"terminator"`

	Columns   ColumnMap `yaml:"columns"`
	MinFields int       `yaml:"min_fields"`

	DateLayout      string            `yaml:"date_layout"`
	DecimalComma    bool              `yaml:"decimal_comma"`
	DefaultName     string            `yaml:"default_name"`
	DefaultCurrency string            `yaml:"default_currency"`
	Signage         SignageConvention `yaml:"signage"`

	// WithdrawalMarker flags cash-machine withdrawals by exact substring
	// match against the note text. Only formats that populate notes can
	// ever classify a withdrawal.
	WithdrawalMarker string `yaml:"withdrawal_marker"`
	PopulateNotes    bool   `yaml:"populate_notes"`
}

// PriorDefault returns the format of the current Priorbank card-statement
// export, the variant the importer was built for.
func PriorDefault() StatementFormat {
	return StatementFormat{
		Name:         "prior",
		SectionStart: "Операции по",
		HeaderPrefix: "Дата транзакции,Операция,Сумма",
		Terminator:   "Всего по контракту",
		Columns: ColumnMap{
			Date:     0,
			Name:     1,
			Amount:   2,
			Currency: 3,
			Category: 8,
		},
		MinFields:        5,
		DateLayout:       "02.01.2006",
		DecimalComma:     true,
		DefaultName:      "Банковская операция",
		DefaultCurrency:  "BYN",
		Signage:          InflowsPositive,
		WithdrawalMarker: "ATM",
		PopulateNotes:    true,
	}
}

// Validate checks that the format is usable by the pipeline.
func (f StatementFormat) Validate() error {
	if f.SectionStart == "" {
		return fmt.Errorf("format %q: section_start is required", f.Name)
	}
	if f.HeaderPrefix == "" {
		return fmt.Errorf("format %q: header_prefix is required", f.Name)
	}
	if f.Terminator == "" {
		return fmt.Errorf("format %q: terminator is required", f.Name)
	}
	if f.MinFields <= 0 {
		return fmt.Errorf("format %q: min_fields must be positive", f.Name)
	}
	if f.DateLayout == "" {
		return fmt.Errorf("format %q: date_layout is required", f.Name)
	}
	return nil
}

// LoadFormats reads additional statement formats from a YAML file keyed by
// format name. The built-in prior format is always present and can be
// overridden by the file.
func LoadFormats(path string) (map[string]StatementFormat, error) {
	formats := map[string]StatementFormat{
		"prior": PriorDefault(),
	}
	if path == "" {
		return formats, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from user config
	if err != nil {
		return nil, fmt.Errorf("error reading formats file: %w", err)
	}

	var loaded map[string]StatementFormat
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("error parsing formats file: %w", err)
	}

	for name, f := range loaded {
		if f.Name == "" {
			f.Name = name
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		formats[name] = f
	}

	return formats, nil
}
