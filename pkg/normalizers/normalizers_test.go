package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	t.Run("known normalizer", func(t *testing.T) {
		assert.Equal(t, "abc", Apply("ABC", "lowercase"))
	})

	t.Run("unknown normalizer passes through", func(t *testing.T) {
		assert.Equal(t, "ABC", Apply("ABC", "does-not-exist"))
	})
}

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "abc123", ApplyChain("  A-B c 12!3 ", "alphanumeric"))
	assert.Equal(t, "abc", ApplyChain("  ABC  ", "trim", "lowercase"))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "5551234567", DigitsOnly("(555) 123-4567"))
	assert.Equal(t, "", DigitsOnly("no digits"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "john smith", NormalizeName("John  Smith Jr."))
	assert.Equal(t, "mary oconnor", NormalizeName("Mary O'Connor"))
}

func TestNormalizeZipCode(t *testing.T) {
	assert.Equal(t, "10001", NormalizeZipCode("10001"))
	assert.Equal(t, "100011234", NormalizeZipCode("10001-1234"))
	assert.Equal(t, "", NormalizeZipCode("1234"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "123 main st", NormalizeAddress("123  Main Street"))
	assert.Equal(t, "9 w elm ave", NormalizeAddress("9 West Elm Avenue"))
}
