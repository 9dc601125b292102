package idf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestTokenize(t *testing.T) {
	t.Run("lowercases and splits on single space", func(t *testing.T) {
		assert.Equal(t, []string{"alice", "smith"}, Tokenize("Alice Smith"))
	})

	t.Run("drops empty substrings", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, Tokenize("a  b "))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
		assert.Empty(t, Tokenize("   "))
	})
}

func TestBuild(t *testing.T) {
	records := []*models.Record{
		{ID: "1", Fields: map[string]string{"name": "Alice Smith"}},
		{ID: "2", Fields: map[string]string{"name": "Bob Smith"}},
		{ID: "3", Fields: map[string]string{"name": "Carol Jones"}},
		{ID: "4", Fields: map[string]string{"name": "Alice Alice Jones"}},
	}

	m := Build(records, []string{"name"})
	require.NotNil(t, m)

	t.Run("weight is log N over df", func(t *testing.T) {
		// "smith" appears in 2 of 4 records
		assert.InDelta(t, math.Log(2), m.Weight("smith"), 1e-12)
		// "carol" appears in 1 of 4
		assert.InDelta(t, math.Log(4), m.Weight("carol"), 1e-12)
	})

	t.Run("repeats within a record count once", func(t *testing.T) {
		// "alice" appears in records 1 and 4; the double in record 4 is one document
		assert.InDelta(t, math.Log(2), m.Weight("alice"), 1e-12)
	})

	t.Run("unknown token defaults to one", func(t *testing.T) {
		assert.Equal(t, 1.0, m.Weight("zelda"))
		assert.False(t, m.Contains("zelda"))
	})
}

func TestNew(t *testing.T) {
	t.Run("drops invalid weights", func(t *testing.T) {
		m := New(map[string]float64{
			"ok":  2.0,
			"neg": -1.0,
			"inf": math.Inf(1),
			"nan": math.NaN(),
		})
		assert.Equal(t, 1, m.Len())
		assert.Equal(t, 2.0, m.Weight("ok"))
		assert.Equal(t, 1.0, m.Weight("neg"))
	})

	t.Run("nil map defaults everywhere", func(t *testing.T) {
		var m *Map
		assert.Equal(t, 1.0, m.Weight("anything"))
		assert.False(t, m.Contains("anything"))
		assert.Equal(t, 0, m.Len())
	})
}
