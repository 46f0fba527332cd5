package weight

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

const (
	xlsxEntriesSheet = "entries"
	xlsxSummarySheet = "summary"
	pdfMaxTableRows  = 40
)

// BuildXLSX renders the entries (one row each, same columns as the CSV export)
// and the chart summary on a second sheet.
func BuildXLSX(entries []Entry, summary Summary, unit UnitSystem) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", xlsxEntriesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(xlsxSummarySheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	sw := &sheetWriter{f: f}
	for i, h := range csvHeader {
		sw.set(xlsxEntriesSheet, i+1, 1, h)
	}
	for i, e := range entries {
		row := i + 2
		sw.set(xlsxEntriesSheet, 1, row, e.Date.Format(csvDateLayout))
		sw.set(xlsxEntriesSheet, 2, row, e.Weight)
		if hasBodyFat(e) {
			sw.set(xlsxEntriesSheet, 3, row, *e.BodyFat)
		}
		sw.set(xlsxEntriesSheet, 4, row, e.TimeOfDay.String())
		if e.Notes != nil {
			sw.set(xlsxEntriesSheet, 5, row, *e.Notes)
		}
	}

	sw.set(xlsxSummarySheet, 1, 1, "Weight Summary")
	sw.set(xlsxSummarySheet, 1, 3, "Unit")
	sw.set(xlsxSummarySheet, 2, 3, unit.Label())
	sw.set(xlsxSummarySheet, 1, 4, "Entries")
	sw.set(xlsxSummarySheet, 2, 4, len(entries))
	sw.set(xlsxSummarySheet, 1, 5, "Goal")
	if summary.Goal != nil {
		sw.set(xlsxSummarySheet, 2, 5, *summary.Goal)
	}
	sw.set(xlsxSummarySheet, 1, 6, "Axis Min")
	sw.set(xlsxSummarySheet, 2, 6, summary.YAxisMin)
	sw.set(xlsxSummarySheet, 1, 7, "Axis Max")
	sw.set(xlsxSummarySheet, 2, 7, summary.YAxisMax)

	sw.set(xlsxSummarySheet, 1, 9, "Day")
	sw.set(xlsxSummarySheet, 2, 9, "7-Day Average")
	for i, a := range summary.MovingAverage {
		row := i + 10
		sw.set(xlsxSummarySheet, 1, row, a.Label)
		sw.set(xlsxSummarySheet, 2, row, a.Average)
	}
	if sw.err != nil {
		return nil, fmt.Errorf("fill workbook: %w", sw.err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter sets cells by 1-based column and row, collecting every failure.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (sw *sheetWriter) set(sheet string, col, row int, value any) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		sw.err = multierr.Append(sw.err, err)
		return
	}
	sw.err = multierr.Append(sw.err, sw.f.SetCellValue(sheet, cell, value))
}

// BuildPDF renders a one page report: the summary numbers and the most recent entries.
// Entries are expected newest first.
func BuildPDF(entries []Entry, summary Summary, unit UnitSystem, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Weight Progress")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Entries: %d", len(entries)))
	pdf.Ln(5)
	if summary.Goal != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Goal: %s %s", formatDecimal(*summary.Goal), unit.Label()))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Range: %s - %s %s",
		formatDecimal(summary.YAxisMin+axisPadding), formatDecimal(summary.YAxisMax-axisPadding), unit.Label()),
	)
	pdf.Ln(5)
	if n := len(summary.MovingAverage); n > 0 {
		last := summary.MovingAverage[n-1]
		pdf.Cell(0, 6, fmt.Sprintf("Latest 7-Day Average (%s): %.1f %s", last.Label, last.Average, unit.Label()))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Weight", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Body Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Time", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, e := range entries {
		if i == pdfMaxTableRows {
			break
		}
		bodyFat := "-"
		if hasBodyFat(e) {
			bodyFat = formatDecimal(*e.BodyFat) + "%"
		}
		pdf.CellFormat(35, 6, e.Date.Format("Jan 02, 2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%s %s", formatDecimal(e.Weight), unit.Label()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, bodyFat, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, e.TimeOfDay.String(), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
