package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_TrimsTexts(t *testing.T) {
	r := NewRecord("Ancient Evils", "  Doom approaches. \n", "\tIl destino si avvicina.  ")

	assert.Equal(t, "Ancient Evils", r.Name())
	assert.Equal(t, "Doom approaches.", r.EnglishText())
	assert.Equal(t, "Il destino si avvicina.", r.ItalianText())
}

func TestRecord_IsComplete(t *testing.T) {
	assert.True(t, NewRecord("a", "english", "italiano").IsComplete())
	assert.False(t, NewRecord("a", "", "italiano").IsComplete())
	assert.False(t, NewRecord("a", "english", "").IsComplete())
	assert.False(t, NewRecord("a", "   ", "italiano").IsComplete(), "whitespace-only counts as empty")
}

func TestEmbeddedRecord_DefensiveCopy(t *testing.T) {
	vector := []float64{1.0, 2.0, 3.0}
	e := NewEmbeddedRecord(NewRecord("a", "en", "it"), vector)

	vector[0] = 999.0
	assert.Equal(t, 1.0, e.Vector()[0], "mutating the source slice must not affect the record")

	out := e.Vector()
	out[1] = 999.0
	assert.Equal(t, 2.0, e.Vector()[1], "mutating the returned slice must not affect the record")

	assert.Equal(t, 3, e.Dimension())
}
