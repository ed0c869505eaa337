package extractor

import (
	"regexp"
	"strings"
	"unicode"
)

// priceStrip lists the glyphs removed before digit runs are collected:
// currency signs and the separators used by thousands/decimal grouping.
const priceStrip = "₫đĐ$€£¥฿₱₩₹,."

var digitRun = regexp.MustCompile(`[0-9]+`)

// NormalizePrice reduces localized price text to its decimal digits.
//
// Every digit run is kept and the runs are concatenated in order, so
// "1.234.567 ₫" becomes "1234567". Unrelated runs merge as well: a struck
// original price rendered next to the sale price yields one long number.
// Callers rely on this exact behaviour.
func NormalizePrice(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(priceStrip, r) {
			return -1
		}
		return r
	}, raw)
	return strings.Join(digitRun.FindAllString(cleaned, -1), "")
}

// NormalizeName trims surrounding whitespace and nothing else.
func NormalizeName(raw string) string {
	return strings.TrimSpace(raw)
}
