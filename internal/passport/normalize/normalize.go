// Package normalize cleans raw OCR output before field extraction.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// numeroPlaceholder shields "№" from NFKC, which would fold it to "No".
const numeroPlaceholder = "\uE000"

var (
	// Common OCR confusions between symbols and Cyrillic letters.
	substitutions = strings.NewReplacer(
		"₽", "Р",
		"€", "Е",
		"@", "а",
		"§", "С",
		"™", "т",
		"©", "с",
		"<", " ",
		">", " ",
		"–", "-",
		"—", "-",
		"№", numeroPlaceholder,
	)

	// A zero or one read in place of the first letter of a word. Digits
	// inside numbers are left alone.
	leadingDigitRe = regexp.MustCompile(`(^|[^\p{L}\p{N}№])(0[Рр]|1[Сс])(\p{Cyrillic})`)
	digitLetters   = map[string]string{"0Р": "ОР", "0р": "Ор", "1С": "ИС", "1с": "Ис"}

	horizontalSpace = regexp.MustCompile(`[ \t\p{Zs}]{2,}|[\t\p{Zs}]`)
	anySpace        = regexp.MustCompile(`\s+`)
)

// Text folds compatibility characters, repairs common OCR symbol
// confusions, unifies dashes and collapses runs of horizontal whitespace.
// Line breaks are preserved.
func Text(raw string) string {
	s := substitutions.Replace(raw)
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, numeroPlaceholder, "№")
	s = fixLeadingDigits(s)
	return horizontalSpace.ReplaceAllString(s, " ")
}

func fixLeadingDigits(s string) string {
	return leadingDigitRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := leadingDigitRe.FindStringSubmatch(m)
		return sub[1] + digitLetters[sub[2]] + sub[3]
	})
}

// Line normalizes a single OCR line and trims it. All whitespace,
// including stray line breaks, becomes single spaces.
func Line(raw string) string {
	return strings.TrimSpace(anySpace.ReplaceAllString(Text(raw), " "))
}

// Lines normalizes every line and drops the ones left empty.
func Lines(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if n := Line(l); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// SplitLines splits a block of OCR text on line breaks and normalizes it.
func SplitLines(text string) []string {
	return Lines(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}
