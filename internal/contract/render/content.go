// Package render writes contract documents: a Word document, a PDF and an
// optional spreadsheet with the payment schedule.
package render

import (
	"fmt"
	"strconv"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/internal/contract/format"
	"github.com/pravodoc/pravodoc-backend/internal/dates"
)

const (
	documentTitle = "ДОГОВОР"
	scheduleTitle = "График платежей:"
)

var (
	sectionTitles = [...]string{
		"Общие положения",
		"Права и обязанности сторон",
		"Порядок расчетов",
		"Заключительные положения",
	}
	sectionTexts = [...]string{
		"Исполнитель обязуется оказать юридические услуги в интересах Заказчика в соответствии с условиями настоящего договора.",
		"Заказчик предоставляет Исполнителю всю необходимую информацию и документы для оказания услуг, а Исполнитель обязуется сохранять конфиденциальность.",
		"Оплата услуг осуществляется в соответствии с графиком платежей, являющимся неотъемлемой частью настоящего договора.",
		"Настоящий договор вступает в силу с момента его подписания и действует до полного исполнения сторонами обязательств.",
	}
	tableHeader = [3]string{"Месяц", "Дата платежа", "Сумма, ₽"}
)

// Run is a piece of paragraph text with uniform weight.
type Run struct {
	Text string
	Bold bool
}

// Section is a numbered contract clause.
type Section struct {
	Title string
	Text  string
}

// Content is the format independent text of a contract.
type Content struct {
	Title    string
	Subtitle string
	City     string
	Date     string
	Intro    []Run
	Summary  string
	Sections []Section
	Schedule string
	Header   [3]string
	Rows     [][3]string
}

// Build lays out the text of c.
func Build(c *domain.Contract, opts Options) Content {
	p := c.Passport
	date := c.Date
	if date.IsZero() {
		date = dates.Today()
	}

	content := Content{
		Title:    documentTitle,
		Subtitle: fmt.Sprintf("об оказании юридических услуг №%s БФЛ 127 ФЗ %s", c.Number, c.Initials()),
		City:     opts.City,
		Date:     dates.FormatRussian(date),
		Intro: []Run{
			{Text: "Исполнитель:", Bold: true},
			{Text: fmt.Sprintf(" %s, действующая на основании Устава, с одной стороны, и Заказчик: ", opts.Executor)},
			{Text: p.FullName, Bold: true},
			{Text: fmt.Sprintf(", с паспортом серии %s номер %s, выданным %s %s, заключили настоящий договор о нижеследующем.",
				p.Series, p.Number, p.IssuedBy, dates.FormatRussian(p.IssuedDate))},
		},
		Summary: fmt.Sprintf("Общая сумма договора составляет %s (%s) рублей.",
			format.Amount(c.TotalAmount), format.AmountWords(c.TotalAmount)),
		Schedule: scheduleTitle,
		Header:   tableHeader,
	}

	for i, title := range sectionTitles {
		content.Sections = append(content.Sections, Section{
			Title: fmt.Sprintf("%d. %s", i+1, title),
			Text:  sectionTexts[i],
		})
	}

	for _, payment := range c.Payments {
		content.Rows = append(content.Rows, [3]string{
			strconv.Itoa(payment.Month),
			dates.FormatRussian(payment.DueAt),
			format.Amount(payment.Amount),
		})
	}

	return content
}
