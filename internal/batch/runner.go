package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/statement-holder-extractor/internal/extractor"
	"github.com/insightdelivered/statement-holder-extractor/internal/models"
	"github.com/insightdelivered/statement-holder-extractor/internal/parser"
)

// Runner processes every PDF in a directory, one at a time.
type Runner struct {
	Extractor extractor.TextExtractor
	Analyzer  parser.Analyzer

	// KeepTrace attaches each document's pipeline trace to its report.
	KeepTrace bool
	// OnDocument, if set, is called after each document is processed.
	OnDocument func(models.DocumentReport)

	logger *slog.Logger
}

func New(ext extractor.TextExtractor, analyzer parser.Analyzer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Extractor: ext, Analyzer: analyzer, logger: logger}
}

// ListPDFs returns the .pdf files directly inside dir, sorted by name. The
// extension match is case-insensitive.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every PDF in dir. A failing document never stops the batch;
// only an unreadable directory or a cancelled context returns an error. On
// cancellation the report holds the documents processed so far.
func (r *Runner) Run(ctx context.Context, dir string) (*models.BatchReport, error) {
	files, err := ListPDFs(dir)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := &models.BatchReport{
		RunID:     uuid.NewString(),
		Dir:       dir,
		StartedAt: start,
		Documents: make([]models.DocumentReport, 0, len(files)),
	}
	log := r.logger.With("run_id", report.RunID)
	log.Info("batch.started", "dir", dir, "files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			log.Warn("batch.cancelled", "processed", len(report.Documents), "error", err)
			return report, err
		}
		doc := r.Process(ctx, path)
		report.Documents = append(report.Documents, doc)
		report.Summary.Add(doc.Status)
		if r.OnDocument != nil {
			r.OnDocument(doc)
		}
	}

	report.Duration = time.Since(start)
	log.Info("batch.finished",
		"total", report.Summary.Total,
		"success", report.Summary.Success,
		"partial", report.Summary.Partial,
		"failed", report.Summary.Failed,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// Process extracts and analyzes one file. Every failure, including a panic
// in any stage, ends up in the returned report.
func (r *Runner) Process(ctx context.Context, path string) (doc models.DocumentReport) {
	name := filepath.Base(path)
	start := time.Now()
	doc = models.DocumentReport{File: name, Status: models.StatusFailed}

	defer func() { doc.Duration = time.Since(start) }()
	defer r.recoverDocument(&doc)

	text, err := r.Extractor.Extract(ctx, path)
	if err != nil {
		derr := &DocumentError{Kind: KindExtract, File: name, Cause: err}
		if errors.Is(err, extractor.ErrNoText) {
			derr.Cause = extractor.ErrNoText
		}
		r.logger.Warn("batch.document.failed", "file", name, "kind", derr.Kind, "error", err)
		doc.Error = derr.Message()
		return doc
	}
	doc.Method = text.Method

	r.analyze(&doc, text.String())
	return doc
}

// ProcessText analyzes already extracted text as if it came from file.
func (r *Runner) ProcessText(file, text string) (doc models.DocumentReport) {
	start := time.Now()
	doc = models.DocumentReport{File: file, Status: models.StatusFailed}

	defer func() { doc.Duration = time.Since(start) }()
	defer r.recoverDocument(&doc)

	r.analyze(&doc, text)
	return doc
}

// recoverDocument turns a panic during one document into a failure row.
// It must be deferred directly.
func (r *Runner) recoverDocument(doc *models.DocumentReport) {
	rec := recover()
	if rec == nil {
		return
	}
	derr := &DocumentError{Kind: KindPanic, File: doc.File, Cause: fmt.Errorf("%v", rec)}
	r.logger.Error("batch.document.panic", "file", doc.File, "error", derr, "stack", string(debug.Stack()))
	doc.Status = models.StatusFailed
	doc.Error = derr.Message()
}

func (r *Runner) analyze(doc *models.DocumentReport, text string) {
	res, tr := r.Analyzer.Analyze(text)
	doc.Result = res
	doc.Status = res.Status()
	if r.KeepTrace {
		doc.Trace = tr
	}

	if doc.Status == models.StatusFailed {
		derr := &DocumentError{Kind: KindNoMatch, File: doc.File}
		doc.Error = derr.Message()
		r.logger.Info("batch.document.failed", "file", doc.File, "kind", derr.Kind)
		return
	}
	r.logger.Info("batch.document.ok",
		"file", doc.File,
		"status", doc.Status,
		"name", res.CustomerName,
		"tier", res.NameTier,
		"account", res.AccountNumber,
		"method", doc.Method,
	)
}
