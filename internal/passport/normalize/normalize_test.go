package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pravodoc/pravodoc-backend/internal/passport/normalize"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ruble sign to letter", "₽ОССИЙСКАЯ", "РОССИЙСКАЯ"},
		{"zero before er", "0РГАН", "ОРГАН"},
		{"one before es", "1СКРА", "ИСКРА"},
		{"zero after a space", "ОВД 0рехово", "ОВД Орехово"},
		{"digit after numero sign", "№1СЕВЕРНОГО", "№1СЕВЕРНОГО"},
		{"digit inside a number", "45061Сидоров", "45061Сидоров"},
		{"digit inside a word", "ОТДЕЛ10Р", "ОТДЕЛ10Р"},
		{"bare one es", "1С", "1С"},
		{"at sign", "Ив@нов", "Иванов"},
		{"mrz chevrons", "PNRUS<<IVANOV", "PNRUS IVANOV"},
		{"em dash", "770—001", "770-001"},
		{"en dash", "770–001", "770-001"},
		{"fullwidth digits", "１２３４", "1234"},
		{"collapse spaces", "серия   1234\t\t567890", "серия 1234 567890"},
		{"keeps newlines", "a  b\nc", "a b\nc"},
		{"keeps numero sign", "№ 567890", "№ 567890"},
		{"nbsp", "Иван\u00a0Иванов", "Иван Иванов"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Text(tt.in))
		})
	}
}

func TestLines(t *testing.T) {
	got := normalize.Lines([]string{"  Фамилия  ", "", "\t", "Иванов\n"})
	assert.Equal(t, []string{"Фамилия", "Иванов"}, got)

	assert.Equal(t, []string{"a", "b"}, normalize.SplitLines("a\r\n\r\n b "))
	assert.Empty(t, normalize.Lines(nil))
}
