package writer

import (
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"

	maxColWidth = 50
)

// Status cell fill colours.
var statusFills = map[models.Status]string{
	models.StatusSuccess: "90EE90",
	models.StatusPartial: "FFD700",
	models.StatusFailed:  "FFB6C6",
}

// XLSXWriter produces the review workbook: one row per document on the
// Results sheet and the run totals on the Summary sheet.
type XLSXWriter struct {
	logger *slog.Logger
}

func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// WriteToFile writes the workbook to path.
func (w *XLSXWriter) WriteToFile(path string, report *models.BatchReport) error {
	data, err := w.Bytes(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	w.logger.Info("report.xlsx.written", "path", path, "rows", len(report.Documents))
	return nil
}

// Bytes returns the workbook as XLSX bytes.
func (w *XLSXWriter) Bytes(report *models.BatchReport) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return nil, err
	}
	if err := w.writeResults(f, report); err != nil {
		return nil, fmt.Errorf("results sheet: %w", err)
	}
	if err := w.writeSummary(f, report); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(ResultsSheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	w.logger.Debug("report.xlsx.ok", "rows", len(report.Documents), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

func (w *XLSXWriter) writeResults(f *excelize.File, report *models.BatchReport) error {
	const sheet = ResultsSheet

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	fills := make(map[models.Status]int, len(statusFills))
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		fills[status] = id
	}

	widths := make([]int, len(Columns))
	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		widths[i] = utf8.RuneCountInString(h)
	}
	last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, doc := range report.Documents {
		row := r + 2
		for c, v := range Row(doc) {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(v); n > widths[c] {
				widths[c] = n
			}
		}

		fill, ok := fills[doc.Status]
		if !ok {
			fill = fills[models.StatusFailed]
		}
		cell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStyle(sheet, cell, cell, fill); err != nil {
			return err
		}
	}

	for i, n := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(min(n+2, maxColWidth))); err != nil {
			return err
		}
	}
	return nil
}

func (w *XLSXWriter) writeSummary(f *excelize.File, report *models.BatchReport) error {
	const sheet = SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	s := report.Summary
	rows := [][]any{
		{"Run ID", report.RunID},
		{"Directory", report.Dir},
		{"Started", report.StartedAt.Format(time.RFC3339)},
		{"Duration (s)", fmt.Sprintf("%.2f", report.Duration.Seconds())},
		{"Total PDFs Processed", s.Total},
		{"Successful Extractions", s.Success},
		{"Partial Extractions", s.Partial},
		{"Failed Extractions", s.Failed},
		{"Success Rate", fmt.Sprintf("%.2f%%", s.SuccessRate())},
	}
	for i, r := range rows {
		for j, v := range r {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}
