package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile("[^a-z0-9-]+")
	hyphenRuns      = regexp.MustCompile("-+")
)

// Generate creates a URL-friendly slug from a string. Used to name
// archived report and content objects.
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = transliterate(s)

	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")

	s = nonAlphanumeric.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	// Keep archive keys short
	if len(s) > 100 {
		s = s[:100]
		s = strings.TrimRight(s, "-")
	}

	return s
}

// FromProduct generates a slug for an extraction, preferring the resolved
// product name and falling back to the page URL.
func FromProduct(productName, pageURL string) string {
	if productName != "" {
		if s := Generate(productName); s != "" {
			return s
		}
	}
	return FromURL(pageURL)
}

// FromURL generates a slug from a page URL by combining its host and path.
func FromURL(pageURL string) string {
	s := pageURL
	if idx := strings.Index(s, "://"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.IndexAny(s, "?#"); idx != -1 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ".", "-")
	return Generate(s)
}

// transliterate converts unicode characters to ASCII equivalents by
// stripping combining marks after NFD decomposition.
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
