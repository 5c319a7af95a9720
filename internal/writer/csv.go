package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// CSVWriter writes a batch report as CSV, one row per document.
type CSVWriter struct {
	// IncludeHeader adds "# key,value" metadata rows before the column row.
	IncludeHeader bool
}

// WriteToFile writes the report to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, report *models.BatchReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, report)
}

// Write writes the report in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, report *models.BatchReport) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		meta := [][]string{
			{"# Run", report.RunID},
			{"# Directory", report.Dir},
			{"# Total", strconv.Itoa(report.Summary.Total)},
			{"# Success", strconv.Itoa(report.Summary.Success)},
			{"# Partial", strconv.Itoa(report.Summary.Partial)},
			{"# Failed", strconv.Itoa(report.Summary.Failed)},
		}
		for _, m := range meta {
			if m[1] == "" {
				continue
			}
			if err := writer.Write(m); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, doc := range report.Documents {
		if err := writer.Write(Row(doc)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
