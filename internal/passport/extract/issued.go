package extract

import (
	"regexp"
	"strings"

	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

var issueKeywords = []string{"дата выдачи", "выдан", "выдано", "выдана"}

var keywordThenDate, dateThenKeyword []*regexp.Regexp

func init() {
	for _, kw := range issueKeywords {
		q := regexp.QuoteMeta(kw)
		keywordThenDate = append(keywordThenDate,
			regexp.MustCompile(`(?is)`+q+`[^0-9]{0,40}(`+datePattern+`)`))
		dateThenKeyword = append(dateThenKeyword,
			regexp.MustCompile(`(?is)(`+datePattern+`)[^0-9]{0,40}`+q))
	}
}

// IssuedDate finds the passport issue date in newline-joined text:
// a date shortly after an issuance keyword, then one shortly before it,
// then any date on a keyword line or its neighbours, and finally the only
// distinct date in the whole text. Impossible calendar dates are skipped.
func IssuedDate(text string) DateField {
	for _, patterns := range [][]*regexp.Regexp{keywordThenDate, dateThenKeyword} {
		for _, re := range patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if d, ok := dates.FromDigitGroups(m[1]); ok {
					return DateField{Value: d, Confidence: domain.ConfidenceHigh}
				}
			}
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !containsAny(strings.ToLower(line), issueKeywords) {
			continue
		}
		window := line
		if i+1 < len(lines) {
			window += " " + lines[i+1]
		}
		if i > 0 {
			window += " " + lines[i-1]
		}
		for _, raw := range dateRe.FindAllString(window, -1) {
			if d, ok := dates.FromDigitGroups(raw); ok {
				return DateField{Value: d, Confidence: domain.ConfidenceMedium}
			}
		}
	}

	var unique []string
	seen := make(map[string]bool)
	for _, raw := range dateRe.FindAllString(text, -1) {
		d, ok := dates.FromDigitGroups(raw)
		if !ok {
			continue
		}
		key := dates.FormatNumeric(d)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, key)
		}
	}
	if len(unique) == 1 {
		d, _ := dates.FromDigitGroups(unique[0])
		return DateField{Value: d, Confidence: domain.ConfidenceLow}
	}
	return DateField{}
}
