// Package domain defines the passport record and the recognition
// diagnostics shared by the extraction pipeline and its consumers.
package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Field labels. These strings are user facing and also used as the
// stable vocabulary of recognized and missing fields.
const (
	LabelFullName     = "ФИО"
	LabelSeries       = "серия"
	LabelNumber       = "номер"
	LabelIssuedBy     = "кем выдан"
	LabelIssuedDate   = "дата выдачи"
	LabelDivisionCode = "код подразделения"
)

// MandatoryLabels lists the fields a complete record needs, in report order.
var MandatoryLabels = []string{
	LabelFullName,
	LabelSeries,
	LabelNumber,
	LabelIssuedBy,
	LabelIssuedDate,
}

// IsMandatory reports whether label names one of the five required fields.
func IsMandatory(label string) bool {
	for _, l := range MandatoryLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Record is a client's passport data. Series is four digits, Number six
// digits, IssuedDate a calendar day in UTC.
type Record struct {
	FullName     string    `json:"full_name"`
	Series       string    `json:"series"`
	Number       string    `json:"number"`
	IssuedBy     string    `json:"issued_by"`
	IssuedDate   time.Time `json:"issued_date"`
	DivisionCode string    `json:"division_code,omitempty"`
	PhotoPath    string    `json:"photo_path,omitempty"`
}

// WithPhoto returns a copy of r referencing the stored passport image.
func (r Record) WithPhoto(path string) Record {
	r.PhotoPath = path
	return r
}

// Missing returns the labels of mandatory fields that are empty or malformed.
func (r Record) Missing() []string {
	var missing []string
	if strings.TrimSpace(r.FullName) == "" {
		missing = append(missing, LabelFullName)
	}
	if !isDigits(r.Series, 4) {
		missing = append(missing, LabelSeries)
	}
	if !isDigits(r.Number, 6) {
		missing = append(missing, LabelNumber)
	}
	if strings.TrimSpace(r.IssuedBy) == "" {
		missing = append(missing, LabelIssuedBy)
	}
	if r.IssuedDate.IsZero() {
		missing = append(missing, LabelIssuedDate)
	}
	return missing
}

// Complete reports whether all mandatory fields are present and well formed.
func (r Record) Complete() bool {
	return len(r.Missing()) == 0
}

// Initials returns the first letter of every whitespace-separated part of
// the full name, e.g. "ИИИ" for "Иванов Иван Иванович".
func (r Record) Initials() string {
	return Initials(r.FullName)
}

// Initials returns the first letter of each whitespace-separated word.
func Initials(fullName string) string {
	var b strings.Builder
	for _, part := range strings.Fields(fullName) {
		first, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(first)
	}
	return b.String()
}

// SlugName returns the full name with spaces replaced by underscores, used
// for directory and file names.
func (r Record) SlugName() string {
	return strings.Join(strings.Fields(r.FullName), "_")
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if !unicode.IsDigit(c) || c > unicode.MaxASCII {
			return false
		}
	}
	return true
}
