// Package card defines the core types for bilingual card records.
package card

import "strings"

// Record is a paired bilingual card: the display name, the English source
// text, and the Italian translated text. Records are immutable once created
// and exist only between extraction and loading.
type Record struct {
	name        string
	englishText string
	italianText string
}

// NewRecord creates a Record. Texts are whitespace-trimmed.
func NewRecord(name, englishText, italianText string) Record {
	return Record{
		name:        name,
		englishText: strings.TrimSpace(englishText),
		italianText: strings.TrimSpace(italianText),
	}
}

// Name returns the card display name.
func (r Record) Name() string { return r.name }

// EnglishText returns the English source text.
func (r Record) EnglishText() string { return r.englishText }

// ItalianText returns the Italian translated text.
func (r Record) ItalianText() string { return r.italianText }

// IsComplete reports whether the record has both texts. Only complete
// records may be embedded and persisted.
func (r Record) IsComplete() bool {
	return r.englishText != "" && r.italianText != ""
}
