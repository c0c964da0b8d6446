package extract

import (
	"regexp"
	"strings"

	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

var (
	fieldSubstrings = []string{
		"серия", "номер", "дата", "код подразделения", "фамил", "отч",
		"место рождения", "выдан",
	}
	fieldWords = map[string]bool{"имя": true, "пол": true, "фио": true}

	passportHeaderRe = regexp.MustCompile(`^паспорт(?:$|[\s:,.-])`)
	longDigitsRe     = regexp.MustCompile(`\d{10,}`)
	wordRe           = regexp.MustCompile(`[а-яё]+`)

	issuedByLabelRe  = regexp.MustCompile(`(?i)кем\s+выдан[аоы]?[\s:.,-]*`)
	issuedPrefixRe   = regexp.MustCompile(`(?i)^\s*(?:паспорт\s+)?выдан[аоы]?[\s:.,-]*`)
	trailingNoiseRe  = regexp.MustCompile(`(?i)\s*(?:дата\s+выдачи|код\s+подразделения)[\s\S]*$`)
	multipleSpacesRe = regexp.MustCompile(`\s{2,}`)
)

// looksLikeNewField reports whether a line starts another passport field,
// which ends a multi-line issuing authority.
func looksLikeNewField(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	if containsAny(lower, fieldSubstrings) {
		return true
	}
	for _, w := range wordRe.FindAllString(lower, -1) {
		if fieldWords[w] {
			return true
		}
	}
	if passportHeaderRe.MatchString(lower) || dateRe.MatchString(lower) {
		return true
	}
	return longDigitsRe.MatchString(lower) || divisionRe.MatchString(lower)
}

// IssuedBy finds the issuing authority: the first line mentioning an
// issuing body plus up to three continuation lines, stopping at the next
// field. Label words, dates and division codes are stripped.
func IssuedBy(lines []string) Field {
	for i, line := range lines {
		lower := strings.ToLower(line)
		if !containsAny(lower, authorityKeys) {
			continue
		}

		parts := []string{line}
		for j := i + 1; j < len(lines) && j <= i+3; j++ {
			if looksLikeNewField(lines[j]) {
				break
			}
			parts = append(parts, lines[j])
		}

		value := cleanAuthority(strings.Join(parts, " "))
		if value == "" {
			continue
		}

		c := domain.ConfidenceMedium
		if strings.Contains(lower, "выдан") {
			c = domain.ConfidenceHigh
		}
		return Field{Value: titlePhrase(value), Confidence: c}
	}
	return Field{}
}

func cleanAuthority(s string) string {
	s = issuedByLabelRe.ReplaceAllString(s, " ")
	s = issuedPrefixRe.ReplaceAllString(s, "")
	s = trailingNoiseRe.ReplaceAllString(s, "")
	s = dateRe.ReplaceAllString(s, " ")
	s = divisionRe.ReplaceAllString(s, " ")
	s = multipleSpacesRe.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,.:;-")
}
