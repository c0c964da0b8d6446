// Package dates holds calendar helpers shared by passport parsing,
// payment scheduling and document formatting.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical day-first date layout, DD.MM.YYYY.
const Layout = "02.01.2006"

var (
	digitGroups = regexp.MustCompile(`\d+`)

	genitiveMonths = [...]string{
		"января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря",
	}
)

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day as midnight UTC.
func Today() time.Time {
	now := time.Now()
	return Date(now.Year(), now.Month(), now.Day())
}

// Valid reports whether year, month and day form a real calendar date.
func Valid(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= DaysIn(year, time.Month(month))
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months, clamping the day to the last day
// of the target month (31 Jan + 1 month is 28 or 29 Feb).
func AddMonths(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)

	day := t.Day()
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// FromDigitGroups builds a date from text containing exactly three digit
// groups read as day, month, year. Anything else, or an impossible
// calendar date, returns false.
func FromDigitGroups(s string) (time.Time, bool) {
	groups := digitGroups.FindAllString(s, -1)
	if len(groups) != 3 || len(groups[2]) != 4 || len(groups[0]) > 2 || len(groups[1]) > 2 {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(groups[0])
	month, _ := strconv.Atoi(groups[1])
	year, _ := strconv.Atoi(groups[2])
	if !Valid(year, month, day) {
		return time.Time{}, false
	}
	return Date(year, time.Month(month), day), true
}

// ParseDayFirst parses a user-typed date. Accepted forms are D.M.YYYY with
// any of ". / - space" as separators, D.M.YY (years map to 19xx when more
// than 50 years ahead of now, 20xx otherwise), ISO YYYY-MM-DD and
// "25 марта 2024".
func ParseDayFirst(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, ok := parseMonthName(raw); ok {
		return t, nil
	}

	groups := digitGroups.FindAllString(raw, -1)
	if len(groups) != 3 {
		return time.Time{}, fmt.Errorf("cannot parse date %q", raw)
	}

	var day, month, year int
	if len(groups[0]) == 4 {
		year, _ = strconv.Atoi(groups[0])
		month, _ = strconv.Atoi(groups[1])
		day, _ = strconv.Atoi(groups[2])
	} else {
		day, _ = strconv.Atoi(groups[0])
		month, _ = strconv.Atoi(groups[1])
		year, _ = strconv.Atoi(groups[2])
		switch len(groups[2]) {
		case 4:
		case 2:
			year = expandYear(year, time.Now().Year())
		default:
			return time.Time{}, fmt.Errorf("cannot parse date %q", raw)
		}
	}

	if !Valid(year, month, day) {
		return time.Time{}, fmt.Errorf("invalid calendar date %q", raw)
	}
	return Date(year, time.Month(month), day), nil
}

func expandYear(yy, currentYear int) int {
	century := currentYear / 100 * 100
	year := century + yy
	if year > currentYear+50 {
		year -= 100
	}
	return year
}

func parseMonthName(s string) (time.Time, bool) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) < 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false
	}
	month := 0
	for i, name := range genitiveMonths {
		if fields[1] == name {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.TrimSuffix(fields[2], "г."))
	if err != nil || !Valid(year, month, day) {
		return time.Time{}, false
	}
	return Date(year, time.Month(month), day), true
}

// MonthGenitive returns the Russian genitive month name ("марта").
func MonthGenitive(m time.Month) string {
	return genitiveMonths[m-1]
}

// FormatRussian renders a date as "25 марта 2024 г.".
func FormatRussian(t time.Time) string {
	return fmt.Sprintf("%d %s %d г.", t.Day(), MonthGenitive(t.Month()), t.Year())
}

// FormatNumeric renders a date as DD.MM.YYYY.
func FormatNumeric(t time.Time) string {
	return t.Format(Layout)
}
