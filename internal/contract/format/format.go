// Package format renders amounts the way they are printed in contracts and
// chat summaries.
package format

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Russian)

// Amount groups the digits of n by thousands with plain spaces: "132 000".
func Amount(n int64) string {
	s := printer.Sprintf("%d", n)
	return strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(s)
}

// Rubles renders n as a grouped amount with the ruble sign.
func Rubles(n int64) string {
	return Amount(n) + " ₽"
}

type scale struct {
	one, few, many string
	feminine       bool
}

var (
	unitsMasculine = [...]string{"", "один", "два", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	unitsFeminine  = [...]string{"", "одна", "две", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	teens          = [...]string{
		"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать",
		"пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать",
	}
	tens = [...]string{
		"", "", "двадцать", "тридцать", "сорок",
		"пятьдесят", "шестьдесят", "семьдесят", "восемьдесят", "девяносто",
	}
	hundreds = [...]string{
		"", "сто", "двести", "триста", "четыреста",
		"пятьсот", "шестьсот", "семьсот", "восемьсот", "девятьсот",
	}
	scales = [...]scale{
		{},
		{"тысяча", "тысячи", "тысяч", true},
		{"миллион", "миллиона", "миллионов", false},
		{"миллиард", "миллиарда", "миллиардов", false},
		{"триллион", "триллиона", "триллионов", false},
		{"квадриллион", "квадриллиона", "квадриллионов", false},
		{"квинтиллион", "квинтиллиона", "квинтиллионов", false},
	}
)

// AmountWords spells n in Russian with the first letter capitalized:
// 132000 becomes "Сто тридцать две тысячи".
func AmountWords(n int64) string {
	return capitalize(Words(n))
}

// Words spells n in Russian, lower case.
func Words(n int64) string {
	if n == 0 {
		return "ноль"
	}

	var words []string
	u := uint64(n)
	if n < 0 {
		words = append(words, "минус")
		u = uint64(-(n + 1)) + 1
	}

	var groups []int
	for u > 0 {
		groups = append(groups, int(u%1000))
		u /= 1000
	}

	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			continue
		}
		sc := scales[i]
		words = append(words, triad(g, sc.feminine)...)
		if i > 0 {
			words = append(words, plural(g, sc.one, sc.few, sc.many))
		}
	}
	return strings.Join(words, " ")
}

func triad(n int, feminine bool) []string {
	var words []string
	if h := n / 100; h > 0 {
		words = append(words, hundreds[h])
	}
	rest := n % 100
	switch {
	case rest >= 10 && rest < 20:
		words = append(words, teens[rest-10])
	default:
		if t := rest / 10; t > 0 {
			words = append(words, tens[t])
		}
		if u := rest % 10; u > 0 {
			if feminine {
				words = append(words, unitsFeminine[u])
			} else {
				words = append(words, unitsMasculine[u])
			}
		}
	}
	return words
}

// plural picks the noun form agreeing with n.
func plural(n int, one, few, many string) string {
	if r := n % 100; r >= 11 && r <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
