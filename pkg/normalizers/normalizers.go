// Package normalizers provides value normalization for blocking keys
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = map[string]Normalizer{}

func init() {
	Register("lowercase", strings.ToLower)
	Register("uppercase", strings.ToUpper)
	Register("trim", strings.TrimSpace)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
	Register("nname", NormalizeName)
	Register("nzip", NormalizeZipCode)
	Register("naddress", NormalizeAddress)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. An unknown name leaves the
// value untouched.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters, lowercased
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(unicode.ToLower(r))
		}
	}
	return result.String()
}

// NormalizeName normalizes a person's name for blocking:
// lowercase, common suffixes stripped, punctuation removed, single spaces.
func NormalizeName(s string) string {
	s = strings.ToLower(s)

	suffixes := []string{" jr.", " jr", " sr.", " sr", " iii", " ii", " iv", " phd", " md"}
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			s = s[:len(s)-len(suffix)]
		}
	}

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			prevSpace = false
		} else if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// NormalizeZipCode normalizes a US zip code; invalid lengths become ""
func NormalizeZipCode(s string) string {
	digits := DigitsOnly(s)
	if len(digits) == 5 || len(digits) == 9 {
		return digits
	}
	return ""
}

// NormalizeAddress normalizes an address string with common abbreviations
func NormalizeAddress(s string) string {
	s = strings.ToLower(s)

	replacements := [][2]string{
		{" street", " st"},
		{" avenue", " ave"},
		{" boulevard", " blvd"},
		{" drive", " dr"},
		{" road", " rd"},
		{" lane", " ln"},
		{" court", " ct"},
		{" place", " pl"},
		{" suite", " ste"},
		{" north", " n"},
		{" south", " s"},
		{" east", " e"},
		{" west", " w"},
	}
	for _, rep := range replacements {
		s = strings.ReplaceAll(s, rep[0], rep[1])
	}

	return strings.Join(strings.Fields(s), " ")
}
