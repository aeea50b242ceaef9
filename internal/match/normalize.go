// Package match computes field-level similarity between food truck records
// and classifies likely duplicates.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// businessSuffixes lists trailing descriptors that carry no identity signal.
// "Taco Town" and "Taco Town Food Truck" are the same truck.
var businessSuffixes = []string{
	" food truck",
	" food cart",
	" food trailer",
	" mobile kitchen",
	" llc",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	// Everything except letters, digits, spaces, and &'- is noise.
	namePunctRe = regexp.MustCompile(`[^a-z0-9&'\-\s]`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

// NormalizeName standardizes a truck name for comparison:
//  1. Lowercase and trim
//  2. Fold diacritics ("Café" -> "cafe")
//  3. Strip trailing business descriptors (food truck, food cart, ...)
//  4. Strip punctuation except &'-
//  5. Collapse whitespace
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	name = foldDiacritics(name)

	for _, suffix := range businessSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = namePunctRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizePhone reduces a phone number to its digits.
func NormalizePhone(phone string) string {
	return nonDigitRe.ReplaceAllString(phone, "")
}

// FormatUSPhone formats a 10-digit US number as (XXX) XXX-XXXX. An 11-digit
// number with a leading 1 is treated as 10 digits. Anything else is returned
// unchanged.
func FormatUSPhone(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return phone
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

// NormalizeWebsite strips the scheme and trailing slash and lowercases the
// URL for comparison.
func NormalizeWebsite(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	return strings.TrimSuffix(url, "/")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// foldDiacritics removes combining marks so accented and plain spellings
// compare equal.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
