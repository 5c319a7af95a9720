package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	dslipak "github.com/dslipak/pdf"
)

// dslipakPlainText reads the document with github.com/dslipak/pdf, whose
// font decoding differs from ledongthuc's on some generator outputs. The
// library does not mark page breaks, so the result is a single page.
func (e *PDFExtractor) dslipakPlainText(_ context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dslipak panic: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r, err := dslipak.NewReader(f, fi.Size())
	if err != nil {
		return nil, err
	}
	rd, err := r.GetPlainText()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rd); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}
