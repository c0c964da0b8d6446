package extract

import (
	"regexp"
	"strings"

	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

var (
	// Two-plus-two series digits, then the six number digits. Only spaces,
	// punctuation and a "№"/"N" marker may separate them.
	seriesNumberRe = regexp.MustCompile(`(?:^|\D)(\d{2} ?\d{2})(?:[\s.,:;#№-]|No|N)*(\d{6})(?:\D|$)`)

	standaloneSeriesRe = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
	standaloneNumberRe = regexp.MustCompile(`(?:^|\D)(\d{6})(?:\D|$)`)

	dottedDateRe = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
	anyDateRe    = regexp.MustCompile(`\d{1,2}[.\s/-]\d{1,2}[.\s/-]\d{4}`)
	divisionRe   = regexp.MustCompile(`\d{3}\s*[-–—]\s*\d{3}`)
)

// SeriesNumber extracts the 4-digit series and 6-digit number. The combined
// pattern is tried first; failing that, standalone 4- and 6-digit tokens
// are taken independently with low confidence.
func SeriesNumber(text string) (series, number Field) {
	flat := strings.ReplaceAll(text, "\n", " ")

	cleaned := dottedDateRe.ReplaceAllString(flat, " | ")
	cleaned = divisionRe.ReplaceAllString(cleaned, " | ")
	if m := seriesNumberRe.FindStringSubmatch(cleaned); m != nil {
		s := onlyDigits(m[1])
		n := onlyDigits(m[2])
		if len(s) == 4 && len(n) == 6 {
			return Field{Value: s, Confidence: domain.ConfidenceHigh},
				Field{Value: n, Confidence: domain.ConfidenceHigh}
		}
	}

	loose := anyDateRe.ReplaceAllString(cleaned, " | ")
	if m := standaloneSeriesRe.FindStringSubmatch(loose); m != nil {
		series = Field{Value: m[1], Confidence: domain.ConfidenceLow}
	}
	if m := standaloneNumberRe.FindStringSubmatch(loose); m != nil {
		number = Field{Value: m[1], Confidence: domain.ConfidenceLow}
	}
	return series, number
}
