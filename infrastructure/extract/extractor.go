// Package extract reads the bilingual card file trees and pairs English
// source text with Italian translated text by card identifier.
package extract

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardlex/cardlex/domain/card"
	"github.com/cardlex/cardlex/internal/log"
)

// Layout of the data directory, mirroring the upstream card data repo:
// pack/<group>/<card>.json holds one card object per file, and
// translations/it/pack/<group>/<code>.json holds its Italian counterpart.
const (
	packSubdir        = "pack"
	translationSubdir = "translations/it/pack"
)

// Stats reports extraction accounting. Processed + Skipped always equals
// the number of primary card files scanned; a file counts as processed
// when it yields at least one record (double-sided cards can yield two).
type Stats struct {
	Processed int
	Skipped   int
}

// cardFile is the JSON shape of a single card description file.
type cardFile struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	RealText string `json:"real_text"`
	BackText string `json:"back_text"`
}

// text returns the card body text: the primary field, falling back to the
// raw text field, with all-whitespace treated as empty.
func (c cardFile) text() string {
	if t := strings.TrimSpace(c.Text); t != "" {
		return t
	}
	return strings.TrimSpace(c.RealText)
}

// backText returns the reverse-side body text. There is no raw-text
// fallback for card backs.
func (c cardFile) backText() string {
	return strings.TrimSpace(c.BackText)
}

// translation holds the translated texts for one card identifier.
type translation struct {
	text     string
	backText string
}

func (t translation) empty() bool {
	return t.text == "" && t.backText == ""
}

// Extractor produces paired card records from a data directory.
type Extractor struct {
	dataDir string
	logger  *log.Logger
}

// NewExtractor creates an Extractor rooted at dataDir.
func NewExtractor(dataDir string, logger *log.Logger) *Extractor {
	return &Extractor{dataDir: dataDir, logger: logger}
}

// Extract scans the primary card tree, joins each card with its Italian
// translation by identifier, and returns the paired records in traversal
// order. Per-file parse errors are logged and counted as skips; extraction
// never aborts because of one bad file.
func (e *Extractor) Extract() ([]card.Record, Stats, error) {
	packDir := filepath.Join(e.dataDir, packSubdir)
	if _, err := os.Stat(packDir); err != nil {
		return nil, Stats{}, fmt.Errorf("pack directory not found at %s (run the data download step first): %w", packDir, err)
	}

	translations, err := e.loadTranslations()
	if err != nil {
		return nil, Stats{}, err
	}
	e.logger.Info("loaded translated texts", "count", len(translations))

	var (
		records []card.Record
		stats   Stats
	)

	err = filepath.WalkDir(packDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}

		c, readErr := readCardFile(path)
		if readErr != nil {
			e.logger.Warn("skipping unreadable card file", "path", path, "error", readErr)
			stats.Skipped++
			return nil
		}

		englishText := c.text()
		englishBackText := c.backText()
		if c.Code == "" || (englishText == "" && englishBackText == "") {
			stats.Skipped++
			return nil
		}

		italian := translations[c.Code]
		emitted := 0
		if englishText != "" && italian.text != "" {
			records = append(records, card.NewRecord(c.Name, englishText, italian.text))
			emitted++
		}
		// The reverse side of a double-sided card is its own entry.
		if englishBackText != "" && italian.backText != "" {
			records = append(records, card.NewRecord(c.Name, englishBackText, italian.backText))
			emitted++
		}
		if emitted == 0 {
			stats.Skipped++
			return nil
		}
		stats.Processed++

		if stats.Processed%100 == 0 {
			e.logger.Info("extraction progress", "processed", stats.Processed)
		}
		return nil
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("scan card files: %w", err)
	}

	e.logger.Info("extracted card pairs", "processed", stats.Processed, "skipped", stats.Skipped)
	return records, stats, nil
}

// loadTranslations walks the Italian translation tree once and builds a
// card identifier → translated texts lookup. Files are visited in lexical
// path order, and the first file claiming an identifier wins; later
// duplicates are logged and ignored, so the outcome is deterministic.
func (e *Extractor) loadTranslations() (map[string]translation, error) {
	translationsDir := filepath.Join(e.dataDir, filepath.FromSlash(translationSubdir))
	translations := make(map[string]translation)

	if _, err := os.Stat(translationsDir); err != nil {
		// A missing translation tree is not fatal; every record simply
		// fails to pair and is counted as skipped.
		e.logger.Warn("translation directory not found", "path", translationsDir)
		return translations, nil
	}

	err := filepath.WalkDir(translationsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		// The file name (minus extension) is the card identifier.
		base := filepath.Base(path)
		code := strings.TrimSuffix(base, filepath.Ext(base))
		if code == "" {
			return nil
		}

		if _, exists := translations[code]; exists {
			e.logger.Warn("duplicate translated file for identifier, keeping first match", "code", code, "path", path)
			return nil
		}

		c, readErr := readCardFile(path)
		if readErr != nil {
			e.logger.Warn("skipping unreadable translated file", "path", path, "error", readErr)
			return nil
		}

		if entry := (translation{text: c.text(), backText: c.backText()}); !entry.empty() {
			translations[code] = entry
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan translated files: %w", err)
	}

	return translations, nil
}

// readCardFile parses a single card JSON file.
func readCardFile(path string) (cardFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cardFile{}, err
	}

	var c cardFile
	if err := json.Unmarshal(data, &c); err != nil {
		return cardFile{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return c, nil
}
