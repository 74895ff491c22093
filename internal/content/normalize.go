package content

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxIdentityLength caps a normalized identity, in runes.
	DefaultMaxIdentityLength = 100
	// DefaultRegion is used when no region is known.
	DefaultRegion = "GLOBAL"

	maxRegionLength = 16
)

// Normalize canonicalizes a raw identity for keying and generation: NFC,
// cap to maxRunes, drop everything except Arabic letters (U+0621 to U+064A),
// ASCII letters, digits, hyphen and space, then trim. The result is stable
// under a second application.
func Normalize(identity string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxIdentityLength
	}

	runes := []rune(norm.NFC.String(identity))
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}

	var b strings.Builder
	b.Grow(len(runes))
	for _, r := range runes {
		if allowedIdentityRune(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func allowedIdentityRune(r rune) bool {
	switch {
	case r >= 'ء' && r <= 'ي':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == ' ':
		return true
	default:
		return false
	}
}

// NormalizeRegion keeps ASCII letters, uppercased. Empty input yields
// DefaultRegion.
func NormalizeRegion(region string) string {
	var b strings.Builder
	for _, r := range region {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
		if b.Len() == maxRegionLength {
			break
		}
	}
	if b.Len() == 0 {
		return DefaultRegion
	}
	return b.String()
}

// EscapeHTML escapes text for HTML element and attribute contexts.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
