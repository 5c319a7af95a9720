package writer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
)

const (
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorRed    = "\033[91m"
	colorBlue   = "\033[94m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

// ConsoleWriter prints per-document results, pipeline traces and the batch
// summary for a human reader.
type ConsoleWriter struct {
	out   io.Writer
	color bool
}

// NewConsoleWriter writes to f, with colours only when f is a terminal and
// NO_COLOR is unset.
func NewConsoleWriter(f *os.File) *ConsoleWriter {
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	if tty && os.Getenv("NO_COLOR") == "" {
		return &ConsoleWriter{out: colorable.NewColorable(f), color: true}
	}
	return &ConsoleWriter{out: colorable.NewNonColorable(f)}
}

// NewPlainConsoleWriter never emits escape codes.
func NewPlainConsoleWriter(w io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: w}
}

func (c *ConsoleWriter) paint(color, s string) string {
	if !c.color {
		return s
	}
	return color + s + colorReset
}

func statusColor(s models.Status) string {
	switch s {
	case models.StatusSuccess:
		return colorGreen
	case models.StatusPartial:
		return colorYellow
	default:
		return colorRed
	}
}

func actionColor(action string) string {
	switch action {
	case models.ActionMatched:
		return colorGreen
	case models.ActionRemoved, models.ActionDiscarded, models.ActionRejected:
		return colorRed
	case models.ActionBoundary, models.ActionSkipped:
		return colorYellow
	case models.ActionCleaned, models.ActionScored:
		return colorBlue
	default:
		return ""
	}
}

// Document prints one document's outcome.
func (c *ConsoleWriter) Document(doc models.DocumentReport) {
	fmt.Fprintf(c.out, "%s %s\n", c.paint(colorBold, "Processing:"), doc.File)
	fmt.Fprintf(c.out, "  Status: %s\n", c.paint(statusColor(doc.Status), string(doc.Status)))
	if doc.Method != "" {
		fmt.Fprintf(c.out, "  Text method: %s\n", doc.Method)
	}
	if doc.Result.HasName() {
		fmt.Fprintf(c.out, "  Customer name: %s (%s, %s)\n", doc.Result.CustomerName, doc.Result.NameTier, doc.Result.EntityType)
	}
	if doc.Result.HasAccount() {
		fmt.Fprintf(c.out, "  Account number: %s\n", doc.Result.AccountNumber)
	}
	if doc.Error != "" {
		fmt.Fprintf(c.out, "  %s\n", c.paint(colorRed, "Error: "+doc.Error))
	}
	if doc.Trace != nil {
		c.Trace(doc.Trace)
	}
}

// Trace prints every recorded decision, grouped by stage.
func (c *ConsoleWriter) Trace(tr *models.Trace) {
	if tr == nil {
		return
	}
	stage := ""
	for _, e := range tr.Events {
		if e.Stage != stage {
			stage = e.Stage
			fmt.Fprintf(c.out, "  %s\n", c.paint(colorBlue, "["+strings.ToUpper(stage)+"]"))
		}
		line := fmt.Sprintf("%-9s", e.Action)
		if col := actionColor(e.Action); col != "" {
			line = c.paint(col, line)
		}
		loc := "    "
		if e.LineNum > 0 {
			loc = fmt.Sprintf("%3d:", e.LineNum)
		}
		fmt.Fprintf(c.out, "    %s %s %s", loc, line, e.Text)
		if e.Detail != "" {
			fmt.Fprintf(c.out, "  -> %s", e.Detail)
		}
		fmt.Fprintln(c.out)
	}
}

// Summary prints the batch totals.
func (c *ConsoleWriter) Summary(report *models.BatchReport) {
	s := report.Summary
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.paint(colorBold, "EXTRACTION SUMMARY REPORT"))
	fmt.Fprintf(c.out, "  %s\n", c.paint(colorBlue, fmt.Sprintf("Total PDFs Processed: %d", s.Total)))
	fmt.Fprintf(c.out, "  %s\n", c.paint(colorGreen, fmt.Sprintf("Successful Extractions: %d", s.Success)))
	fmt.Fprintf(c.out, "  %s\n", c.paint(colorYellow, fmt.Sprintf("Partial Extractions: %d", s.Partial)))
	fmt.Fprintf(c.out, "  %s\n", c.paint(colorRed, fmt.Sprintf("Failed Extractions: %d", s.Failed)))
	fmt.Fprintf(c.out, "  %s\n", c.paint(colorBlue, fmt.Sprintf("Success Rate: %.2f%%", s.SuccessRate())))
}
