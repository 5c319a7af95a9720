package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// pdftotext runs poppler's pdftotext and splits its output on form feeds.
func (e *PDFExtractor) pdftotext(ctx context.Context, path string) ([]string, error) {
	args := []string{"-layout", "-enc", "UTF-8"}
	if e.cfg.FirstPageOnly {
		args = append(args, "-f", "1", "-l", "1")
	}
	args = append(args, path, "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w (%s)", err, strings.TrimSpace(string(errb)))
	}
	return splitPages(string(out)), nil
}

// ocr renders each page with pdftoppm and reads the images with tesseract.
// Pages that tesseract fails on are skipped.
func (e *PDFExtractor) ocr(ctx context.Context, path string) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "holder-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.FirstPageOnly {
		args = append(args, "-f", "1", "-l", "1")
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, strings.TrimSpace(string(errb)))
	}

	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}

	var pages []string
	for _, img := range images {
		// PSM 4 assumes a single column of text of variable sizes.
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, img, "stdout", "-l", e.cfg.OCRLanguage, "--psm", "4")
		if err != nil {
			e.logger.Warn("extractor.ocr.page_failed", "file", path, "image", filepath.Base(img), "error", err, "stderr", truncate(string(errb), 512))
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("tesseract produced no text from %d page images", len(images))
	}
	return pages, nil
}

func splitPages(text string) []string {
	var pages []string
	for _, p := range strings.Split(text, "\f") {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	return pages
}
