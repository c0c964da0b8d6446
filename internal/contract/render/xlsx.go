package render

import (
	"github.com/xuri/excelize/v2"

	"github.com/pravodoc/pravodoc-backend/internal/schedule"
)

// ScheduleSheet is the worksheet holding the payment schedule.
const ScheduleSheet = "График платежей"

// WriteSchedule saves payments as a spreadsheet with a total row.
func WriteSchedule(path, contractNumber string, payments []schedule.Payment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ScheduleSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D3D3D3"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	dateFormat := "dd.mm.yyyy"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return err
	}
	amountFormat := "#,##0"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
	if err != nil {
		return err
	}

	set := func(col, row int, v interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(ScheduleSheet, cell, v)
	}

	if err := f.SetCellValue(ScheduleSheet, "A1", "Договор №"+contractNumber); err != nil {
		return err
	}
	for i, h := range tableHeader {
		if err := set(i+1, 2, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(ScheduleSheet, "A2", "C2", headerStyle); err != nil {
		return err
	}

	row := 3
	for _, p := range payments {
		if err := set(1, row, p.Month); err != nil {
			return err
		}
		if err := set(2, row, p.DueAt); err != nil {
			return err
		}
		if err := set(3, row, p.Amount); err != nil {
			return err
		}
		row++
	}
	last := row - 1

	if err := set(1, row, "Итого"); err != nil {
		return err
	}
	if err := set(3, row, schedule.Total(payments)); err != nil {
		return err
	}

	if last >= 3 {
		if err := f.SetCellStyle(ScheduleSheet, "B3", cellName(2, last), dateStyle); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(ScheduleSheet, "C3", cellName(3, row), amountStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(ScheduleSheet, "A", "A", 10); err != nil {
		return err
	}
	if err := f.SetColWidth(ScheduleSheet, "B", "C", 18); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
