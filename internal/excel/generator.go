package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/contratpro/internal/model"
)

const sheetName = "Échéancier"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(export model.ScheduleExport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := g.writeSchedule(file, export); err != nil {
		return nil, err
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSchedule(file *excelize.File, export model.ScheduleExport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheetName, cell, value)
	}

	set("A1", "Contrat")
	set("B1", export.Title)
	set("A2", "Date de signature")
	set("B2", formatDate(export.SignedAt))
	set("A3", "Devise")
	set("B3", fmt.Sprintf("%s (%s)", export.Currency.Symbol, export.Currency.Code))
	set("A4", "Montant total")
	set("B4", export.Total.InexactFloat64())

	tableRow := 6
	headers := []string{"N°", "Pourcentage", "Montant", "Échéance", "Date d'échéance"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, line := range export.Lines {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), line.Index)
		set(fmt.Sprintf("B%d", row), line.Percent.InexactFloat64()/100)
		set(fmt.Sprintf("C%d", row), line.Amount.InexactFloat64())
		set(fmt.Sprintf("D%d", row), line.Due)
		if i < len(export.DueDates) {
			set(fmt.Sprintf("E%d", row), formatDate(export.DueDates[i]))
		}
	}

	lastRow := tableRow + len(export.Lines)
	if err := g.applyStyles(file, tableRow, lastRow); err != nil {
		return err
	}

	_ = file.SetColWidth(sheetName, "A", "A", 22)
	_ = file.SetColWidth(sheetName, "B", "B", 30)
	_ = file.SetColWidth(sheetName, "C", "C", 16)
	_ = file.SetColWidth(sheetName, "D", "E", 22)
	return nil
}

func (g *Generator) applyStyles(file *excelize.File, headerRow, lastRow int) error {
	header, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E5E7EB"}},
	})
	if err != nil {
		return err
	}
	percent, err := file.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}
	amount, err := file.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	if err := file.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("E%d", headerRow), header); err != nil {
		return err
	}
	if err := file.SetCellStyle(sheetName, "B4", "B4", amount); err != nil {
		return err
	}
	if lastRow > headerRow {
		if err := file.SetCellStyle(sheetName, fmt.Sprintf("B%d", headerRow+1), fmt.Sprintf("B%d", lastRow), percent); err != nil {
			return err
		}
		if err := file.SetCellStyle(sheetName, fmt.Sprintf("C%d", headerRow+1), fmt.Sprintf("C%d", lastRow), amount); err != nil {
			return err
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
