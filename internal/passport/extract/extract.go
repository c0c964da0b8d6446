// Package extract holds the field extractors that turn normalized OCR
// lines into passport values. Every extractor is pure and safe for
// concurrent use.
package extract

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

// Field is an extracted text value. An empty Value means not found.
type Field struct {
	Value      string
	Confidence domain.Confidence
}

// Found reports whether the extractor produced a value.
func (f Field) Found() bool { return f.Value != "" }

// DateField is an extracted calendar date. A zero Value means not found.
type DateField struct {
	Value      time.Time
	Confidence domain.Confidence
}

// Found reports whether the extractor produced a value.
func (f DateField) Found() bool { return !f.Value.IsZero() }

// NameCandidate is a person name proposed by a named-entity recognizer.
type NameCandidate struct {
	Last   string `json:"last"`
	First  string `json:"first"`
	Middle string `json:"middle"`
}

// NameRecognizer finds person names in free text. Implementations may call
// remote services; errors are treated as "no candidates".
type NameRecognizer interface {
	Names(ctx context.Context, text string) ([]NameCandidate, error)
}

const datePattern = `\d{2}[.\s]\d{2}[.\s]\d{4}`

var (
	digitRe     = regexp.MustCompile(`\d`)
	nonDigitRe  = regexp.MustCompile(`\D`)
	dateRe      = regexp.MustCompile(datePattern)
	letterRunRe = regexp.MustCompile(`[А-ЯЁа-яё]+(?:-[А-ЯЁа-яё]+)*`)
	titleWordRe = regexp.MustCompile(`^[А-ЯЁ][а-яё]+(?:-[А-ЯЁ][а-яё]+)?$`)
	capsWordRe  = regexp.MustCompile(`^[А-ЯЁ]{3,}(?:-[А-ЯЁ]{2,})?$`)
)

// Words that look like names on a passport page but never are.
var (
	stopPrefixes = []string{
		"российск", "федерац", "паспорт", "подразделени", "управлени",
		"отделени", "рождени", "республик", "внутренн",
	}
	stopWords = map[string]bool{
		"россия": true, "россии": true, "мвд": true, "уфмс": true, "овд": true,
		"фмс": true, "гу": true, "рф": true, "фамилия": true, "имя": true,
		"отчество": true, "кем": true, "выдан": true, "выдана": true, "выдано": true,
		"дата": true, "выдачи": true, "место": true, "пол": true, "муж": true,
		"жен": true, "код": true, "серия": true, "номер": true, "личный": true,
		"подпись": true, "отдел": true, "отделом": true, "район": true, "района": true,
		"области": true, "область": true, "город": true, "гор": true, "края": true,
	}
)

func isStopWord(token string) bool {
	lower := strings.ToLower(token)
	if stopWords[lower] {
		return true
	}
	for _, p := range stopPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// nameTokens returns the name-like words of a line: capitalized Cyrillic
// words, optionally also all-caps ones, minus boilerplate.
func nameTokens(line string, allowCaps bool) []string {
	var out []string
	for _, tok := range letterRunRe.FindAllString(line, -1) {
		if isStopWord(tok) {
			continue
		}
		if titleWordRe.MatchString(tok) || (allowCaps && capsWordRe.MatchString(tok)) {
			out = append(out, tok)
		}
	}
	return out
}

// normalizeNameWord title-cases a name part; parts of up to two letters are
// upper-cased as initials.
func normalizeNameWord(w string) string {
	if utf8.RuneCountInString(w) <= 2 {
		return strings.ToUpper(w)
	}
	return cases.Title(language.Russian).String(w)
}

// titlePhrase capitalizes each word of an authority name. All-caps words of
// up to three letters are kept as acronyms and words of up to two letters
// are upper-cased.
func titlePhrase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		n := utf8.RuneCountInString(w)
		switch {
		case isUpperWord(w) && n <= 3:
		case n <= 2:
			words[i] = strings.ToUpper(w)
		default:
			words[i] = capitalize(w)
		}
	}
	return strings.Join(words, " ")
}

func isUpperWord(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func capitalize(w string) string {
	first, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func onlyDigits(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}
