package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

var (
	lastNames   = []string{"Иванов", "Петров", "Сидоров", "Кузнецов", "Смирнов", "Волков", "Соколов", "Лебедев"}
	firstNames  = []string{"Иван", "Петр", "Алексей", "Дмитрий", "Сергей", "Андрей", "Михаил", "Олег"}
	middleNames = []string{"Иванович", "Петрович", "Алексеевич", "Сергеевич", "Андреевич", "Михайлович"}
	authorities = []string{
		"Отделом Уфмс России ПО Г. Москве",
		"ОВД Хамовники Г. Москвы",
		"ГУ МВД России ПО Республике Татарстан",
		"ТП Уфмс России ПО Тверской Области",
	}
)

// FixtureFactory generates passport test data with a seeded faker so
// failures are reproducible.
type FixtureFactory struct {
	faker *gofakeit.Faker
}

// NewFixtureFactory creates a fixture factory with a fixed seed
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{faker: gofakeit.New(1)}
}

// Passport returns a complete passport record
func (f *FixtureFactory) Passport() domain.Record {
	issued := dates.Date(f.faker.IntRange(2000, 2023), time.Month(f.faker.IntRange(1, 12)), f.faker.IntRange(1, 28))
	return domain.Record{
		FullName: strings.Join([]string{
			f.faker.RandomString(lastNames),
			f.faker.RandomString(firstNames),
			f.faker.RandomString(middleNames),
		}, " "),
		Series:       fmt.Sprintf("%04d", f.faker.IntRange(1000, 9999)),
		Number:       fmt.Sprintf("%06d", f.faker.IntRange(100000, 999999)),
		IssuedBy:     f.faker.RandomString(authorities),
		IssuedDate:   issued,
		DivisionCode: fmt.Sprintf("%03d-%03d", f.faker.IntRange(100, 999), f.faker.IntRange(0, 999)),
	}
}

// PassportLines renders r the way OCR typically returns a passport page
func PassportLines(r domain.Record) []string {
	parts := strings.Fields(r.FullName)
	lines := []string{
		"РОССИЙСКАЯ ФЕДЕРАЦИЯ",
		"Паспорт выдан " + r.IssuedBy,
		"Дата выдачи " + dates.FormatNumeric(r.IssuedDate),
	}
	if r.DivisionCode != "" {
		lines = append(lines, "Код подразделения "+r.DivisionCode)
	}
	labels := []string{"Фамилия", "Имя", "Отчество"}
	for i, p := range parts {
		if i < len(labels) {
			lines = append(lines, labels[i], p)
		}
	}
	return append(lines, fmt.Sprintf("серия %s %s № %s", r.Series[:2], r.Series[2:], r.Number))
}

// ContractAmount returns a plausible contract total in rubles
func (f *FixtureFactory) ContractAmount() int64 {
	return int64(f.faker.IntRange(10, 500)) * 1000
}
