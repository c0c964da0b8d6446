// Package manual parses passport data typed by the user as "label: value"
// lines.
package manual

import (
	"fmt"
	"strings"

	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/passport/normalize"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

type field int

const (
	fieldFullName field = iota
	fieldSeries
	fieldNumber
	fieldIssuedBy
	fieldIssuedDate
	fieldDivision
)

var labels = map[field]string{
	fieldFullName:   domain.LabelFullName,
	fieldSeries:     domain.LabelSeries,
	fieldNumber:     domain.LabelNumber,
	fieldIssuedBy:   domain.LabelIssuedBy,
	fieldIssuedDate: domain.LabelIssuedDate,
	fieldDivision:   domain.LabelDivisionCode,
}

// Aliases are matched as substrings of the lower-cased key, in this order.
// "кем выдан" must be tried before the bare "выдан" of the issue date.
var aliases = []struct {
	field field
	keys  []string
}{
	{fieldDivision, []string{"код подразделения", "код"}},
	{fieldFullName, []string{"фио", "ф.и.о", "фамилия"}},
	{fieldSeries, []string{"серия"}},
	{fieldNumber, []string{"номер"}},
	{fieldIssuedBy, []string{"кем выдан", "кем выдано", "орган"}},
	{fieldIssuedDate, []string{"дата выдачи", "выдан", "выдана"}},
}

// Template is the expected input shown to users.
const Template = "ФИО: Иванов Иван Иванович\n" +
	"Серия: 1234\n" +
	"Номер: 567890\n" +
	"Кем выдан: ОВД района Арбат г. Москвы\n" +
	"Дата выдачи: 01.01.2020"

// Parse builds a record from manual text. Series and number keep only
// their digits. The division code line is optional. A missing mandatory
// field or an unparseable issue date is a format error.
func Parse(text string) (domain.Record, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Record{}, errors.Format("Пустой текст")
	}

	values := make(map[field]string)
	for _, line := range normalize.SplitLines(normalize.Text(text)) {
		key, value, ok := splitLine(line)
		if !ok {
			continue
		}
		f, ok := match(key)
		if !ok {
			continue
		}
		if _, seen := values[f]; !seen {
			values[f] = value
		}
	}

	if digits := onlyDigits(values[fieldSeries]); digits != "" {
		values[fieldSeries] = digits
	} else {
		delete(values, fieldSeries)
	}
	if digits := onlyDigits(values[fieldNumber]); digits != "" {
		values[fieldNumber] = digits
	} else {
		delete(values, fieldNumber)
	}

	var missing []string
	for f := fieldFullName; f <= fieldIssuedDate; f++ {
		if values[f] == "" {
			missing = append(missing, labels[f])
		}
	}
	if len(missing) > 0 {
		return domain.Record{}, errors.Format("Не удалось определить поля", missing...)
	}

	issued, err := dates.ParseDayFirst(values[fieldIssuedDate])
	if err != nil {
		return domain.Record{}, errors.Format(fmt.Sprintf("Некорректная дата выдачи: %s", values[fieldIssuedDate]))
	}

	return domain.Record{
		FullName:     values[fieldFullName],
		Series:       values[fieldSeries],
		Number:       values[fieldNumber],
		IssuedBy:     values[fieldIssuedBy],
		IssuedDate:   issued,
		DivisionCode: values[fieldDivision],
	}, nil
}

// Format renders r in the format Parse accepts.
func Format(r domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ФИО: %s\n", r.FullName)
	fmt.Fprintf(&b, "Серия: %s\n", r.Series)
	fmt.Fprintf(&b, "Номер: %s\n", r.Number)
	fmt.Fprintf(&b, "Кем выдан: %s\n", r.IssuedBy)
	fmt.Fprintf(&b, "Дата выдачи: %s", dates.FormatNumeric(r.IssuedDate))
	if r.DivisionCode != "" {
		fmt.Fprintf(&b, "\nКод подразделения: %s", r.DivisionCode)
	}
	return b.String()
}

// splitLine splits on the first colon, or the first hyphen when the line
// has no colon.
func splitLine(line string) (key, value string, ok bool) {
	sep := ":"
	if !strings.Contains(line, sep) {
		sep = "-"
	}
	key, value, ok = strings.Cut(line, sep)
	if !ok {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = normalize.Line(value)
	return key, value, key != "" && value != ""
}

func match(key string) (field, bool) {
	for _, a := range aliases {
		for _, k := range a.keys {
			if strings.Contains(key, k) {
				return a.field, true
			}
		}
	}
	return 0, false
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
