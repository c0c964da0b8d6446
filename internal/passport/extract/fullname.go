package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

// Name part labels used in incomplete-name warnings.
const (
	partLast   = "фамилия"
	partFirst  = "имя"
	partMiddle = "отчество"
)

var (
	lastNameKeys   = []string{"фамил"}
	firstNameKeys  = []string{"имя"}
	middleNameKeys = []string{"отч"}
	nameLabelKeys  = []string{"фамил", "имя", "отч"}

	authorityKeys = []string{"выдан", "овд", "уфмс", "мвд", "отдел"}
)

// NameResult is the recognized full name. Warning is set when only two of
// the three name parts were found.
type NameResult struct {
	Value      string
	Confidence domain.Confidence
	Warning    string
}

// Found reports whether a name was recognized.
func (r NameResult) Found() bool { return r.Value != "" }

// FullName recognizes "Фамилия Имя Отчество" from normalized lines. The
// strategies run in order and the first yielding at least two parts wins:
// labelled fields, a run of capitalized words, then a run of all-caps words.
func FullName(lines []string) NameResult {
	if r := nameByLabels(lines); r.Found() {
		return r
	}
	if r := nameByPattern(lines); r.Found() {
		return r
	}
	return nameByCapsRun(lines)
}

// FullNameWith runs FullName and, when nothing is found, asks rec for name
// candidates. A nil recognizer or a recognizer error yields no name.
func FullNameWith(ctx context.Context, lines []string, rec NameRecognizer) NameResult {
	if r := FullName(lines); r.Found() {
		return r
	}
	if rec == nil || len(lines) == 0 {
		return NameResult{}
	}

	candidates, err := rec.Names(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return NameResult{}
	}

	for _, c := range candidates {
		parts := []string{c.Last, c.First, c.Middle}
		labels := []string{partLast, partFirst, partMiddle}

		var found, missing []string
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if usableNamePart(p) {
				found = append(found, normalizeNameWord(p))
			} else {
				missing = append(missing, labels[i])
			}
		}
		if len(found) >= 2 {
			return buildName(found, missing, domain.ConfidenceLow)
		}
	}
	return NameResult{}
}

func usableNamePart(p string) bool {
	if utf8.RuneCountInString(p) < 3 {
		return false
	}
	for _, r := range p {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

func buildName(parts, missing []string, c domain.Confidence) NameResult {
	r := NameResult{Value: strings.Join(parts, " "), Confidence: c}
	if len(missing) > 0 {
		r.Warning = fmt.Sprintf("ФИО распознано не полностью: отсутствует %s", strings.Join(missing, ", "))
	}
	return r
}

func nameByLabels(lines []string) NameResult {
	values, covered := nameByHeader(lines)

	keys := [][]string{lastNameKeys, firstNameKeys, middleNameKeys}
	var tokens [3][]string
	for i := range keys {
		if !covered[i] {
			tokens[i] = afterLabel(lines, keys[i])
		}
	}

	// "Имя Отчество" printed on one line.
	if !covered[2] && len(tokens[2]) == 0 && len(tokens[1]) > 1 {
		tokens[2] = tokens[1][1:2]
	}
	for i := range keys {
		if !covered[i] && len(tokens[i]) > 0 {
			values[i] = normalizeNameWord(tokens[i][0])
		}
	}

	var parts, missing []string
	for i, v := range values {
		if v == "" {
			missing = append(missing, []string{partLast, partFirst, partMiddle}[i])
			continue
		}
		parts = append(parts, v)
	}

	if len(parts) < 2 {
		return NameResult{}
	}
	c := domain.ConfidenceHigh
	if len(parts) == 2 {
		c = domain.ConfidenceMedium
	}
	return buildName(parts, missing, c)
}

// nameByHeader handles one line carrying several labels, such as
// "Фамилия Имя Отчество", with the values following in the same order.
// covered marks the parts named by that header.
func nameByHeader(lines []string) (values [3]string, covered [3]bool) {
	keys := []string{lastNameKeys[0], firstNameKeys[0], middleNameKeys[0]}

	type label struct{ at, part int }
	for i, line := range lines {
		lower := strings.ToLower(line)
		var found []label
		for part, key := range keys {
			if at := strings.Index(lower, key); at >= 0 {
				found = append(found, label{at: at, part: part})
			}
		}
		if len(found) < 2 {
			continue
		}
		sort.Slice(found, func(a, b int) bool { return found[a].at < found[b].at })

		tokens := nameTokens(line, true)
		for j := i + 1; len(tokens) < len(found) && j <= i+2 && j < len(lines); j++ {
			tail := lines[j]
			if containsAny(strings.ToLower(tail), nameLabelKeys) || digitRe.MatchString(tail) {
				continue
			}
			tokens = append(tokens, nameTokens(tail, true)...)
		}

		for n, l := range found {
			covered[l.part] = true
			if n < len(tokens) {
				values[l.part] = normalizeNameWord(tokens[n])
			}
		}
		return values, covered
	}
	return values, covered
}

// afterLabel finds the first line containing one of keys and returns the
// name tokens written after the label on that line or on one of the next
// two lines. Lines holding other labels or digits are skipped.
func afterLabel(lines []string, keys []string) []string {
	for i, line := range lines {
		if !containsAny(strings.ToLower(line), keys) {
			continue
		}
		if tokens := nameTokens(line, true); len(tokens) > 0 {
			return tokens
		}
		for j := i + 1; j <= i+2 && j < len(lines); j++ {
			tail := lines[j]
			if containsAny(strings.ToLower(tail), nameLabelKeys) || digitRe.MatchString(tail) {
				continue
			}
			if tokens := nameTokens(tail, true); len(tokens) > 0 {
				return tokens
			}
		}
	}
	return nil
}

// nameByPattern looks for two or three consecutive capitalized words
// across the whole text, preferring three.
func nameByPattern(lines []string) NameResult {
	var runs [][]string
	var current []string
	flush := func() {
		if len(current) >= 2 {
			runs = append(runs, current)
		}
		current = nil
	}

	for _, line := range lines {
		for _, word := range strings.Fields(line) {
			word = strings.Trim(word, ".,;:")
			if titleWordRe.MatchString(word) && !isStopWord(word) {
				current = append(current, word)
				continue
			}
			flush()
		}
	}
	flush()

	for _, run := range runs {
		if len(run) >= 3 {
			return buildName(normalizeAll(run[:3]), nil, domain.ConfidenceMedium)
		}
	}
	for _, run := range runs {
		return buildName(normalizeAll(run[:2]), []string{partMiddle}, domain.ConfidenceLow)
	}
	return NameResult{}
}

// nameByCapsRun collects consecutive lines of all-caps words, the way a
// passport prints the holder's name, and keeps the longest run.
func nameByCapsRun(lines []string) NameResult {
	var best, current []string

	for _, line := range lines {
		if digitRe.MatchString(line) || containsAny(strings.ToLower(line), authorityKeys) {
			current = nil
			continue
		}

		var tokens []string
		for _, tok := range letterRunRe.FindAllString(line, -1) {
			if capsWordRe.MatchString(tok) && !isStopWord(tok) {
				tokens = append(tokens, tok)
			}
		}

		switch {
		case len(tokens) == 0:
			current = nil
			continue
		case len(tokens) >= 3:
			return buildName(normalizeAll(tokens[:3]), nil, domain.ConfidenceLow)
		case len(tokens) == 2:
			current = append([]string(nil), tokens...)
		default:
			current = append(current, tokens[0])
		}

		if len(current) > 3 {
			current = current[len(current)-3:]
		}
		if len(current) > len(best) {
			best = append([]string(nil), current...)
		}
	}

	switch len(best) {
	case 3:
		return buildName(normalizeAll(best), nil, domain.ConfidenceLow)
	case 2:
		return buildName(normalizeAll(best), []string{partMiddle}, domain.ConfidenceLow)
	}
	return NameResult{}
}

func normalizeAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = normalizeNameWord(w)
	}
	return out
}
