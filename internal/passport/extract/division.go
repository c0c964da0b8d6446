package extract

import (
	"regexp"

	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

var (
	labelledDivisionRe = regexp.MustCompile(`(?i)код\s*подразделения\s*[:\-]?\s*(\d{3})\s*[-–—]\s*(\d{3})`)
	bareDivisionRe     = regexp.MustCompile(`(?:^|\D)(\d{3})\s*[-–—]\s*(\d{3})(?:\D|$)`)
)

// DivisionCode finds the issuing division code and renders it as DDD-DDD.
func DivisionCode(text string) Field {
	if m := labelledDivisionRe.FindStringSubmatch(text); m != nil {
		return Field{Value: m[1] + "-" + m[2], Confidence: domain.ConfidenceHigh}
	}
	if m := bareDivisionRe.FindStringSubmatch(text); m != nil {
		return Field{Value: m[1] + "-" + m[2], Confidence: domain.ConfidenceMedium}
	}
	return Field{}
}
