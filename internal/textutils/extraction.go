// Package textutils provides text extraction helpers for statement headers
// and notes.
package textutils

import (
	"regexp"
	"strings"
)

// Section headers label the account as a run of filler dots followed by the
// last four digits of the card or contract number, e.g. "Операции по ........5333".
var accountDigitsRe = regexp.MustCompile(`\.+(\d{4})`)

// ExtractMaskedAccount derives a display-safe account identifier from a
// section header. Returns "****<digits>" when the header contains a
// filler-prefixed 4-digit run, otherwise the provided sentinel.
func ExtractMaskedAccount(header, sentinel string) string {
	matches := accountDigitsRe.FindStringSubmatch(header)
	if len(matches) > 1 {
		return "****" + matches[1]
	}
	return sentinel
}

// CleanNote normalizes a note for storage and duplicate matching:
// quote characters stripped, surrounding whitespace trimmed.
func CleanNote(note string) string {
	note = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'':
			return -1
		}
		return r
	}, note)
	return strings.TrimSpace(note)
}
