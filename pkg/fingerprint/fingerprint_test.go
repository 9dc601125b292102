package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	t.Run("deterministic regardless of map order", func(t *testing.T) {
		a := Fields(map[string]string{"name": "alice", "city": "ny"})
		b := Fields(map[string]string{"city": "ny", "name": "alice"})
		assert.Equal(t, a, b)
	})

	t.Run("value changes change the fingerprint", func(t *testing.T) {
		a := Fields(map[string]string{"name": "alice"})
		b := Fields(map[string]string{"name": "alicia"})
		assert.NotEqual(t, a, b)
	})

	t.Run("key and value are not interchangeable", func(t *testing.T) {
		a := Fields(map[string]string{"ab": "c"})
		b := Fields(map[string]string{"a": "bc"})
		assert.NotEqual(t, a, b)
	})
}

func TestRun(t *testing.T) {
	a := Run("people", []string{"city"}, []string{"name"}, 2.0)
	same := Run("people", []string{"city"}, []string{"name"}, 2.0)
	different := Run("people", []string{"zip"}, []string{"name"}, 2.0)

	assert.Equal(t, a, same)
	assert.NotEqual(t, a, different)
}
