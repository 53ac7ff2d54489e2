// Package normalizers provides field normalization functions for match indexing
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("nname", NormalizeName)
	Register("nphone", NormalizePhone)
	Register("nident", NormalizeIdentifier)
	Register("naddress", NormalizeAddress)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
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

// Apply applies a named normalizer to a value
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

// honorifics are title and suffix tokens dropped from names. Dropping
// them keeps "Dr. John Smith MD" and "John Smith" comparable.
var honorifics = map[string]bool{
	"dr":   true,
	"md":   true,
	"do":   true,
	"prof": true,
	"mr":   true,
	"mrs":  true,
	"ms":   true,
	"jr":   true,
	"sr":   true,
	"ii":   true,
	"iii":  true,
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeName normalizes a person's name for matching:
// lowercase, honorific tokens removed, punctuation mapped to spaces,
// whitespace collapsed. Hyphenated and spaced spellings of the same
// name normalize identically. Idempotent: applying it twice equals
// once.
func NormalizeName(s string) string {
	s = strings.ToLower(s)

	var cleaned strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cleaned.WriteRune(r)
		default:
			cleaned.WriteRune(' ')
		}
	}

	tokens := strings.Fields(cleaned.String())
	kept := tokens[:0]
	for _, tok := range tokens {
		if !honorifics[tok] {
			kept = append(kept, tok)
		}
	}

	return strings.Join(kept, " ")
}

// NormalizePhone removes all non-digit characters from a phone number
func NormalizePhone(s string) string {
	return DigitsOnly(s)
}

// NormalizeIdentifier normalizes identifiers such as NPIs and license
// numbers: trim and uppercase. No checksum validation is attempted.
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeAddress normalizes a single-line address: lowercase,
// non-alphanumerics stripped, whitespace collapsed. Idempotent.
func NormalizeAddress(s string) string {
	s = strings.ToLower(s)

	var cleaned strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cleaned.WriteRune(r)
		default:
			cleaned.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(cleaned.String()), " ")
}

// JoinAddress builds the normalized comparison form of a practice
// location from its component fields. Empty components are skipped so
// a missing zip never leaves a dangling separator.
func JoinAddress(line1, city, state, zip string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{line1, city, state, zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return NormalizeAddress(strings.Join(parts, " "))
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

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// LastNamePrefix returns the first n characters of the last whitespace
// token of a normalized name. Shorter tokens are returned whole.
func LastNamePrefix(name string, n int) string {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return ""
	}
	last := tokens[len(tokens)-1]
	if len(last) > n {
		return last[:n]
	}
	return last
}

// PhoneLast4 returns the last four digits of a normalized phone, or
// "" when fewer than four digits survive normalization.
func PhoneLast4(phone string) string {
	digits := DigitsOnly(phone)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// Tokens splits a normalized string into its whitespace-separated
// tokens for set-overlap comparisons.
func Tokens(s string) []string {
	return strings.Fields(s)
}
