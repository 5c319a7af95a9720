package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/statement-holder-extractor/internal/models"
	"github.com/insightdelivered/statement-holder-extractor/internal/store"
	"github.com/insightdelivered/statement-holder-extractor/internal/writer"
)

func TestPrintRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	hist, err := store.Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	report := &models.BatchReport{
		RunID:     "run-1",
		Dir:       "pdfs",
		StartedAt: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		Documents: []models.DocumentReport{
			{
				File:   "statement.pdf",
				Status: models.StatusSuccess,
				Result: models.ExtractionResult{
					CustomerName:  "RAJESH SHAH",
					NameTier:      "title",
					EntityType:    models.EntityIndividual,
					AccountNumber: "30012345678",
				},
			},
		},
	}
	report.Summary.Add(models.StatusSuccess)
	if err := hist.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	hist.Close()

	var buf bytes.Buffer
	if err := printRun(ctx, path, "run-1", writer.NewPlainConsoleWriter(&buf), nil); err != nil {
		t.Fatalf("printRun: %v", err)
	}
	for _, want := range []string{"Processing: statement.pdf", "Status: Success", "Customer name: RAJESH SHAH", "Account number: 30012345678"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}

	if err := printRun(ctx, path, "missing", writer.NewPlainConsoleWriter(&buf), nil); err == nil {
		t.Error("expected an error for an unknown run")
	}
	if err := printRun(ctx, "", "run-1", writer.NewPlainConsoleWriter(&buf), nil); err == nil {
		t.Error("expected an error without -history")
	}
}
