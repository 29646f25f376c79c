package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

const (
	journalSheet = "Journal"
	summarySheet = "Summary"
)

// WriteJournalXLSX writes the journal and its summary to an Excel workbook
func (r *DefaultExcelReporter) WriteJournalXLSX(j *Journal, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), journalSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeJournalSheet(fx, j, styles); err != nil {
		return err
	}
	if err := r.writeSummarySheet(fx, j.Summarize(), styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

var lightBorder = []excelize.Border{
	{Type: "left", Color: "E0E0E0", Style: 1},
	{Type: "right", Color: "E0E0E0", Style: 1},
	{Type: "bottom", Color: "E0E0E0", Style: 1},
}

func fillStyle(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		// Header style - dark slate background with white text
		{&styles.HeaderStyle, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
			Fill:      fillStyle("2F4F4F"),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border: []excelize.Border{
				{Type: "left", Color: "000000", Style: 1},
				{Type: "right", Color: "000000", Style: 1},
				{Type: "top", Color: "000000", Style: 1},
				{Type: "bottom", Color: "000000", Style: 1},
			},
		}},
		{&styles.BaseStyle, &excelize.Style{Border: lightBorder}},
		{&styles.CurrencyStyle, &excelize.Style{
			NumFmt:    7,
			Alignment: &excelize.Alignment{Horizontal: "right"},
			Border:    lightBorder,
		}},
		{&styles.AllowedStyle, &excelize.Style{Fill: fillStyle("E6FFE6"), Border: lightBorder}},
		{&styles.DeniedStyle, &excelize.Style{Fill: fillStyle("FFE6E6"), Border: lightBorder}},
		{&styles.WinStyle, &excelize.Style{Font: &excelize.Font{Color: "008000"}, Border: lightBorder}},
		{&styles.LossStyle, &excelize.Style{Font: &excelize.Font{Color: "FF0000"}, Border: lightBorder}},
		{&styles.SummaryStyle, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
			Fill:      fillStyle("4472C4"),
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		}},
	}

	for _, d := range defs {
		id, err := fx.NewStyle(d.style)
		if err != nil {
			return styles, err
		}
		*d.dst = id
	}
	return styles, nil
}

func (r *DefaultExcelReporter) writeJournalSheet(fx *excelize.File, j *Journal, styles ExcelStyles) error {
	sheet := journalSheet
	widths := []float64{20, 10, 12, 9, 20, 40, 9, 12, 16, 9, 9, 10, 9, 20}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		fx.SetColWidth(sheet, col, col, w)
	}

	for i, h := range journalHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle)
	}

	for i, e := range j.Entries() {
		row := i + 2
		values := journalRow(e)
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := fx.SetCellValue(sheet, cell, cellValue(c, e, v)); err != nil {
				return err
			}
		}

		var rowStyle int
		switch {
		case e.Kind == KindCandidate && e.Allowed:
			rowStyle = styles.AllowedStyle
		case e.Kind == KindCandidate:
			rowStyle = styles.DeniedStyle
		case e.Success:
			rowStyle = styles.WinStyle
		default:
			rowStyle = styles.LossStyle
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(values), row)
		fx.SetCellStyle(sheet, first, last, rowStyle)

		// Money columns
		for _, c := range []int{3, 8, 12} {
			cell, _ := excelize.CoordinatesToCellName(c, row)
			fx.SetCellStyle(sheet, cell, cell, styles.CurrencyStyle)
		}
	}

	return fx.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue keeps numeric columns numeric so Excel can format them.
func cellValue(col int, e Entry, text string) interface{} {
	switch col {
	case 2:
		return e.Balance.InexactFloat64()
	case 6:
		if e.Kind == KindCandidate && e.Allowed {
			return e.Shares.IntPart()
		}
	case 7:
		if e.Kind == KindCandidate && e.Allowed {
			return e.Notional.InexactFloat64()
		}
	case 11:
		if e.Kind == KindOutcome {
			return e.PnL.InexactFloat64()
		}
	case 12:
		return e.ConsecutiveLosses
	}
	return text
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, s Summary, styles ExcelStyles) error {
	sheet := summarySheet
	fx.SetColWidth(sheet, "A", "A", 28)
	fx.SetColWidth(sheet, "B", "B", 18)

	rows := [][]interface{}{
		{"REPLAY SUMMARY", ""},
		{"Start Balance", s.StartBalance.InexactFloat64()},
		{"End Balance", s.EndBalance.InexactFloat64()},
		{"Realized PnL", s.TotalPnL.InexactFloat64()},
		{"Sized Notional", s.TotalNotional.InexactFloat64()},
		{"Candidates", s.Candidates},
		{"Allowed", s.Allowed},
		{"Denied", s.Denied},
		{"Outcomes", s.Outcomes},
		{"Wins", s.Wins},
		{"Losses", s.Losses},
		{"Max Loss Streak", s.MaxLossStreak},
		{"DENIALS BY REASON", ""},
	}
	for _, rc := range s.SortedDenials() {
		rows = append(rows, []interface{}{string(rc.Reason), rc.Count})
	}

	for i, values := range rows {
		row := i + 1
		if err := fx.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		style := styles.BaseStyle
		switch {
		case values[1] == "":
			style = styles.SummaryStyle
		case row >= 2 && row <= 5:
			style = styles.CurrencyStyle
		}
		fx.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), style)
	}
	return nil
}

// Package-level convenience function
func WriteJournalXLSX(j *Journal, path string) error {
	return NewDefaultExcelReporter().WriteJournalXLSX(j, path)
}
