package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageFunc reads the text of one page.
type pageFunc func(p pdf.Page) (string, error)

// withLedongthuc opens path with ledongthuc/pdf and applies read to each page.
// A page that errors or panics is skipped.
func (e *PDFExtractor) withLedongthuc(read pageFunc) func(ctx context.Context, path string) ([]string, error) {
	return func(ctx context.Context, path string) (pages []string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("pdf library panic: %v", r)
			}
		}()

		f, r, err := pdf.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		n := r.NumPage()
		if n == 0 {
			return nil, errors.New("document has no pages")
		}
		for i := 1; i <= e.lastPage(n); i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			text, err := readPage(r, i, read)
			if err != nil {
				e.logger.Debug("extractor.page.failed", "file", path, "page", i, "error", err)
				continue
			}
			if text != "" {
				pages = append(pages, text)
			}
		}
		return pages, nil
	}
}

func readPage(r *pdf.Reader, i int, read pageFunc) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", i, rec)
		}
	}()
	p := r.Page(i)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", i)
	}
	text, err = read(p)
	return strings.TrimSpace(text), err
}

// pagesByRow keeps the library's own row grouping.
func pagesByRow(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, w := range row.Content {
			words = append(words, w.S)
		}
		if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// columnGap is the horizontal distance, in points, that separates two
// columns on the same row.
const columnGap = 15

// pagesByContent rebuilds rows from raw text objects grouped by their rounded
// Y coordinate, top of the page first, each row ordered by X.
func pagesByContent(p pdf.Page) (string, error) {
	type piece struct {
		x float64
		s string
	}
	rows := make(map[int][]piece)
	for _, t := range p.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		y := int(math.Round(t.Y))
		rows[y] = append(rows[y], piece{x: t.X, s: t.S})
	}
	if len(rows) == 0 {
		return "", errors.New("no text objects")
	}

	ys := make([]int, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		row := rows[y]
		sort.Slice(row, func(a, b int) bool { return row[a].x < row[b].x })

		var b strings.Builder
		for j, pc := range row {
			if j > 0 && pc.x-row[j-1].x > columnGap {
				b.WriteString("  ")
			}
			b.WriteString(pc.s)
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func pagesByPlainText(p pdf.Page) (string, error) {
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}
	return p.GetPlainText(fonts)
}

// readerPlainText extracts the whole document in one pass. The result is a
// single page.
func (e *PDFExtractor) readerPlainText(_ context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}
