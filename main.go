package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/insightdelivered/statement-holder-extractor/internal/api"
	"github.com/insightdelivered/statement-holder-extractor/internal/batch"
	"github.com/insightdelivered/statement-holder-extractor/internal/config"
	"github.com/insightdelivered/statement-holder-extractor/internal/extractor"
	"github.com/insightdelivered/statement-holder-extractor/internal/models"
	"github.com/insightdelivered/statement-holder-extractor/internal/parser"
	"github.com/insightdelivered/statement-holder-extractor/internal/store"
	"github.com/insightdelivered/statement-holder-extractor/internal/writer"
)

const version = "1.0.0"

type options struct {
	configPath string
	dir        string
	xlsx       string
	csv        string
	history    string
	runs       int
	runID      string
	trace      bool
	ocr        bool
	firstPage  bool
	serve      string
	logFormat  string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML config file merged over the built-in defaults")
	flag.StringVar(&opts.dir, "dir", "", "Directory of statement PDFs (default from config input.dir)")
	flag.StringVar(&opts.xlsx, "xlsx", "", "XLSX report path (default <dir>/extraction_results_<timestamp>.xlsx)")
	flag.StringVar(&opts.csv, "csv", "", "Also write a CSV report to this path")
	flag.StringVar(&opts.history, "history", "", "SQLite database recording every run")
	flag.IntVar(&opts.runs, "runs", 0, "Print the N most recent runs from -history and exit")
	flag.StringVar(&opts.runID, "run", "", "Print the documents of one run from -history and exit")
	flag.BoolVar(&opts.trace, "trace", false, "Print every pipeline decision for each document")
	flag.BoolVar(&opts.ocr, "ocr", false, "Fall back to OCR (pdftoppm + tesseract) for scanned PDFs")
	flag.BoolVar(&opts.firstPage, "first-page", false, "Read only the first page of each PDF")
	flag.StringVar(&opts.serve, "serve", "", "Serve the HTTP API on this address (e.g. :8080) instead of running a batch")
	flag.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Statement Holder Extractor
by Insight Delivered (QEA AutoLens)

Finds the account holder's name and account number in the header of
bank statement PDFs and writes a colour-coded review spreadsheet.

Usage:
  statement-holder [flags] [dir ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Process ./pdfs and write the XLSX report next to the PDFs
  statement-holder

  # Several directories, one report each, with a run history
  statement-holder -history runs.db jan/ feb/

  # Show every cleaning and matching decision
  statement-holder -trace -dir pdfs

  # Past runs, then the documents of one of them
  statement-holder -history runs.db -runs 5
  statement-holder -history runs.db -run <run-id>

  # HTTP API
  statement-holder -serve :8080

Environment:
  HOLDER_* variables override config keys, e.g. HOLDER_POLICY_STOP_AT_TABLE=false
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-holder v%s\n", version)
		os.Exit(0)
	}
	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	logger := newLogger(opts.logFormat, opts.verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, flag.Args(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}

func run(ctx context.Context, opts options, args []string, logger *slog.Logger) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	if opts.runs > 0 {
		return printHistory(ctx, cfg.Output.History, opts.runs, logger)
	}
	if opts.runID != "" {
		return printRun(ctx, cfg.Output.History, opts.runID, writer.NewConsoleWriter(os.Stdout), logger)
	}

	pipeline, err := parser.New(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Extraction.EnableOCR && !extractor.IsOCRAvailable() {
		logger.Warn("ocr.unavailable", "hint", "install poppler-utils and tesseract-ocr")
	}
	ext := extractor.New(cfg.Extraction, nil, logger)
	runner := batch.New(ext, pipeline, logger)

	if opts.serve != "" {
		return serve(ctx, opts.serve, runner, logger)
	}

	dirs := args
	if len(dirs) == 0 {
		dirs = []string{cfg.Input.Dir}
	}
	if len(dirs) > 1 && (cfg.Output.XLSX != "" || cfg.Output.CSV != "") {
		logger.Warn("output.paths.ignored", "reason", "several input directories; reports are written into each directory")
		cfg.Output.XLSX, cfg.Output.CSV = "", ""
	}

	var hist *store.Store
	if cfg.Output.History != "" {
		if hist, err = store.Open(ctx, cfg.Output.History, logger); err != nil {
			return err
		}
		defer hist.Close()
	}

	console := writer.NewConsoleWriter(os.Stdout)
	runner.KeepTrace = opts.trace
	runner.OnDocument = func(doc models.DocumentReport) {
		console.Document(doc)
		fmt.Println()
	}

	for _, dir := range dirs {
		if err := processDir(ctx, dir, cfg, runner, console, hist); err != nil {
			return err
		}
	}
	return nil
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.dir != "" {
		cfg.Input.Dir = opts.dir
	}
	if opts.xlsx != "" {
		cfg.Output.XLSX = opts.xlsx
	}
	if opts.csv != "" {
		cfg.Output.CSV = opts.csv
	}
	if opts.history != "" {
		cfg.Output.History = opts.history
	}
	if opts.ocr {
		cfg.Extraction.EnableOCR = true
	}
	if opts.firstPage {
		cfg.Extraction.FirstPageOnly = true
	}
}

func processDir(ctx context.Context, dir string, cfg *config.Config, runner *batch.Runner, console *writer.ConsoleWriter, hist *store.Store) error {
	fmt.Printf("Testing PDFs in directory: %s\n\n", dir)

	report, err := runner.Run(ctx, dir)
	if report == nil {
		return err
	}
	if err != nil {
		fmt.Printf("  Interrupted after %d document(s).\n", len(report.Documents))
	}
	console.Summary(report)

	xlsxPath := cfg.Output.XLSX
	if xlsxPath == "" {
		xlsxPath = filepath.Join(dir, writer.DefaultXLSXName(report.StartedAt))
	}
	if werr := writer.NewXLSXWriter(nil).WriteToFile(xlsxPath, report); werr != nil {
		return werr
	}
	fmt.Printf("\nDetailed results saved to: %s\n", xlsxPath)

	if cfg.Output.CSV != "" {
		w := &writer.CSVWriter{IncludeHeader: true}
		if werr := w.WriteToFile(cfg.Output.CSV, report); werr != nil {
			return werr
		}
		fmt.Printf("CSV written to: %s\n", cfg.Output.CSV)
	}

	if hist != nil {
		// Saved even when interrupted; the context may already be done.
		if werr := hist.SaveRun(context.WithoutCancel(ctx), report); werr != nil {
			return werr
		}
	}
	return err
}

func printHistory(ctx context.Context, path string, n int, logger *slog.Logger) error {
	if path == "" {
		return errors.New("-runs needs -history")
	}
	hist, err := store.Open(ctx, path, logger)
	if err != nil {
		return err
	}
	defer hist.Close()

	runs, err := hist.RecentRuns(ctx, n)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %-30s total=%d success=%d partial=%d failed=%d (%.2f%%)\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.Dir,
			r.Summary.Total, r.Summary.Success, r.Summary.Partial, r.Summary.Failed, r.Summary.SuccessRate())
	}
	return nil
}

// printRun lists the stored documents of one run.
func printRun(ctx context.Context, path, runID string, console *writer.ConsoleWriter, logger *slog.Logger) error {
	if path == "" {
		return errors.New("-run needs -history")
	}
	hist, err := store.Open(ctx, path, logger)
	if err != nil {
		return err
	}
	defer hist.Close()

	docs, err := hist.Documents(ctx, runID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents recorded for run %s", runID)
	}
	for _, doc := range docs {
		console.Document(doc)
	}
	return nil
}

func serve(ctx context.Context, addr string, runner *batch.Runner, logger *slog.Logger) error {
	app := api.NewApp(api.NewHandler(runner, writer.NewXLSXWriter(logger), version, logger))

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(addr) }()
	logger.Info("api.listening", "addr", addr, "version", version)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("api.shutdown")
		return app.ShutdownWithContext(shutdownCtx)
	}
}
