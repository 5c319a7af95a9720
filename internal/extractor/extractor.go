package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/insightdelivered/statement-holder-extractor/internal/config"
)

// ErrNoText is returned when no method produced readable text.
var ErrNoText = errors.New("no text extracted")

// Extraction method names, in the order they are tried.
const (
	MethodRows        = "ledongthuc-rows"
	MethodContent     = "ledongthuc-content"
	MethodPagePlain   = "ledongthuc-page-plain"
	MethodReaderPlain = "ledongthuc-reader-plain"
	MethodDslipak     = "dslipak-plain"
	MethodPdftotext   = "pdftotext"
	MethodOCR         = "ocr"
)

// Text is a document's text, one entry per page.
type Text struct {
	Pages  []string
	Method string
}

// String joins the pages with a blank line between them.
func (t Text) String() string {
	return strings.Join(t.Pages, "\n\n")
}

// TextExtractor turns a PDF file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Text, error)
}

// PDFExtractor tries the pure-Go readers first, then pdftotext, then OCR
// when it is enabled, and returns the first readable result.
type PDFExtractor struct {
	cfg    config.ExtractionConfig
	runner Runner
	logger *slog.Logger
}

// New returns a PDFExtractor. A nil runner runs real commands.
func New(cfg config.ExtractionConfig, runner Runner, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &PDFExtractor{cfg: cfg, runner: runner, logger: logger}
}

type method struct {
	name string
	run  func(ctx context.Context, path string) ([]string, error)
}

func (e *PDFExtractor) methods() []method {
	ms := []method{
		{MethodRows, e.withLedongthuc(pagesByRow)},
		{MethodContent, e.withLedongthuc(pagesByContent)},
		{MethodPagePlain, e.withLedongthuc(pagesByPlainText)},
		{MethodReaderPlain, e.readerPlainText},
		{MethodDslipak, e.dslipakPlainText},
		{MethodPdftotext, e.pdftotext},
	}
	if e.cfg.EnableOCR {
		ms = append(ms, method{MethodOCR, e.ocr})
	}
	return ms
}

// Extract implements TextExtractor.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (Text, error) {
	if _, err := os.Stat(path); err != nil {
		return Text{}, fmt.Errorf("open %s: %w", path, err)
	}

	for _, m := range e.methods() {
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}
		pages, err := m.run(ctx, path)
		if err != nil {
			e.logger.Debug("extractor.method.failed", "file", path, "method", m.name, "error", err)
			continue
		}
		if !IsReadableText(pages) {
			e.logger.Debug("extractor.method.unreadable", "file", path, "method", m.name, "chars", totalTextLen(pages))
			continue
		}
		e.logger.Debug("extractor.method.ok", "file", path, "method", m.name, "pages", len(pages))
		return Text{Pages: pages, Method: m.name}, nil
	}
	return Text{}, fmt.Errorf("%s: %w", path, ErrNoText)
}

// lastPage is the number of pages to read from a document with n pages.
func (e *PDFExtractor) lastPage(n int) int {
	if e.cfg.FirstPageOnly && n > 1 {
		return 1
	}
	return n
}

// IsOCRAvailable reports whether pdftoppm and tesseract are on PATH.
func IsOCRAvailable() bool {
	return toolsAvailable("pdftoppm", "tesseract")
}

func toolsAvailable(names ...string) bool {
	for _, n := range names {
		if _, err := exec.LookPath(n); err != nil {
			return false
		}
	}
	return true
}
