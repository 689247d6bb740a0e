package extract

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardlex/cardlex/internal/config"
	"github.com/cardlex/cardlex/internal/log"
)

func quietLogger() *log.Logger {
	return log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "ERROR")
}

// writeFile writes content at dataDir/rel, creating parent directories.
func writeFile(t *testing.T, dataDir, rel, content string) {
	t.Helper()
	path := filepath.Join(dataDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestExtractor_PairsByIdentifier(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01001.json",
		`{"code":"01001","name":"Roland Banks","text":"You get +1 skill."}`)
	writeFile(t, dataDir, "translations/it/pack/core/01001.json",
		`{"code":"01001","name":"Roland Banks","text":"Ottieni +1 abilità."}`)

	records, stats, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Roland Banks", records[0].Name())
	assert.Equal(t, "You get +1 skill.", records[0].EnglishText())
	assert.Equal(t, "Ottieni +1 abilità.", records[0].ItalianText())
	assert.Equal(t, Stats{Processed: 1, Skipped: 0}, stats)
}

func TestExtractor_RealTextFallback(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01002.json",
		`{"code":"01002","name":"Daisy","real_text":"Raw english body."}`)
	writeFile(t, dataDir, "translations/it/pack/core/01002.json",
		`{"code":"01002","text":"  ","real_text":"Corpo italiano."}`)

	records, _, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Raw english body.", records[0].EnglishText())
	assert.Equal(t, "Corpo italiano.", records[0].ItalianText())
}

func TestExtractor_SkipAccounting(t *testing.T) {
	dataDir := t.TempDir()

	// Paired and translated: processed.
	writeFile(t, dataDir, "pack/core/01001.json", `{"code":"01001","name":"A","text":"en"}`)
	writeFile(t, dataDir, "translations/it/pack/core/01001.json", `{"code":"01001","text":"it"}`)

	// No identifier.
	writeFile(t, dataDir, "pack/core/nocode.json", `{"name":"B","text":"en"}`)
	// No body text.
	writeFile(t, dataDir, "pack/core/notext.json", `{"code":"01003","name":"C","text":"  "}`)
	// No translation.
	writeFile(t, dataDir, "pack/core/01004.json", `{"code":"01004","name":"D","text":"en"}`)
	// Malformed JSON.
	writeFile(t, dataDir, "pack/core/broken.json", `{"code":`)
	// Not a card file at all: ignored entirely.
	writeFile(t, dataDir, "pack/core/README.md", "notes")

	records, stats, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err, "one bad file must never abort the scan")

	assert.Len(t, records, 1)
	assert.Equal(t, Stats{Processed: 1, Skipped: 4}, stats)
}

func TestExtractor_DuplicateTranslationFirstMatchWins(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01001.json", `{"code":"01001","name":"A","text":"en"}`)
	// Two translated files claim the same identifier in different groups;
	// lexical traversal visits "alpha" before "beta".
	writeFile(t, dataDir, "translations/it/pack/alpha/01001.json", `{"text":"prima"}`)
	writeFile(t, dataDir, "translations/it/pack/beta/01001.json", `{"text":"seconda"}`)

	records, _, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "prima", records[0].ItalianText())
}

func TestExtractor_BackTextYieldsSecondRecord(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01001.json",
		`{"code":"01001","name":"Roland Banks","text":"Front side.","back_text":"Back side."}`)
	writeFile(t, dataDir, "translations/it/pack/core/01001.json",
		`{"code":"01001","text":"Lato anteriore.","back_text":"Lato posteriore."}`)

	records, stats, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err)

	require.Len(t, records, 2, "a double-sided card yields one record per side")
	assert.Equal(t, "Front side.", records[0].EnglishText())
	assert.Equal(t, "Lato anteriore.", records[0].ItalianText())
	assert.Equal(t, "Back side.", records[1].EnglishText())
	assert.Equal(t, "Lato posteriore.", records[1].ItalianText())
	assert.Equal(t, "Roland Banks", records[1].Name())
	assert.Equal(t, Stats{Processed: 1, Skipped: 0}, stats, "both sides come from one file")
}

func TestExtractor_BackOnlyCard(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01116.json",
		`{"code":"01116","name":"Ghoul Priest","back_text":"Victory 2."}`)
	writeFile(t, dataDir, "translations/it/pack/core/01116.json",
		`{"code":"01116","back_text":"Vittoria 2."}`)

	records, stats, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Ghoul Priest", records[0].Name())
	assert.Equal(t, "Victory 2.", records[0].EnglishText())
	assert.Equal(t, "Vittoria 2.", records[0].ItalianText())
	assert.Equal(t, Stats{Processed: 1, Skipped: 0}, stats)
}

func TestExtractor_BackTextWithoutTranslatedBack(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01001.json",
		`{"code":"01001","name":"A","text":"Front.","back_text":"Back."}`)
	writeFile(t, dataDir, "translations/it/pack/core/01001.json",
		`{"code":"01001","text":"Fronte."}`)

	records, stats, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err)

	require.Len(t, records, 1, "only the side with a translated counterpart is paired")
	assert.Equal(t, "Front.", records[0].EnglishText())
	assert.Equal(t, Stats{Processed: 1, Skipped: 0}, stats)
}

func TestExtractor_MissingPackDir(t *testing.T) {
	_, _, err := NewExtractor(t.TempDir(), quietLogger()).Extract()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pack directory not found")
}

func TestExtractor_MissingTranslationTree(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01001.json", `{"code":"01001","name":"A","text":"en"}`)

	records, stats, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err, "a missing translation tree skips records, it does not abort")
	assert.Empty(t, records)
	assert.Equal(t, Stats{Processed: 0, Skipped: 1}, stats)
}

func TestExtractor_EmptyTranslationTextDoesNotClaimIdentifier(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "pack/core/01001.json", `{"code":"01001","name":"A","text":"en"}`)
	writeFile(t, dataDir, "translations/it/pack/alpha/01001.json", `{"text":""}`)
	writeFile(t, dataDir, "translations/it/pack/beta/01001.json", `{"text":"valida"}`)

	records, _, err := NewExtractor(dataDir, quietLogger()).Extract()
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "valida", records[0].ItalianText())
}
