package writer

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

// Columns are the report columns, in order.
var Columns = []string{
	"PDF_File",
	"Extraction_Status",
	"Account_Number",
	"Account_Line",
	"Customer_Name",
	"Name_Line",
	"Error_Message",
	"Cleaned_Content",
	"Raw_Content",
}

// lineSeparator joins header lines inside a single cell.
const lineSeparator = " | "

// Row returns a document's report row with every cell sanitized.
func Row(doc models.DocumentReport) []string {
	res := doc.Result
	row := []string{
		doc.File,
		string(doc.Status),
		res.AccountNumber,
		res.AccountLine,
		res.CustomerName,
		res.NameLine,
		doc.Error,
		strings.Join(res.CleanedLines, lineSeparator),
		strings.Join(res.HeaderLines, lineSeparator),
	}
	for i := range row {
		row[i] = Sanitize(row[i])
	}
	return row
}

// Sanitize makes text safe for spreadsheet cells: control characters become
// spaces and each run of non-ASCII characters becomes a single space.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			if !inRun {
				b.WriteByte(' ')
			}
			inRun = true
			continue
		case unicode.IsControl(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
		inRun = false
	}
	return b.String()
}

// DefaultXLSXName is the report file name for a run started at t.
func DefaultXLSXName(t time.Time) string {
	return fmt.Sprintf("extraction_results_%s.xlsx", t.Format("20060102_150405"))
}
