package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-holder-extractor/internal/batch"
	"github.com/insightdelivered/statement-holder-extractor/internal/config"
	"github.com/insightdelivered/statement-holder-extractor/internal/extractor"
	"github.com/insightdelivered/statement-holder-extractor/internal/models"
	"github.com/insightdelivered/statement-holder-extractor/internal/parser"
	"github.com/insightdelivered/statement-holder-extractor/internal/writer"
)

// fakeExtractor returns canned text keyed by the uploaded file's content.
type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, path string) (extractor.Text, error) {
	data, err := readFile(path)
	if err != nil {
		return extractor.Text{}, err
	}
	if strings.HasPrefix(data, "broken") {
		return extractor.Text{}, extractor.ErrNoText
	}
	return extractor.Text{Pages: []string{data}, Method: "fake"}, nil
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	p, err := parser.New(cfg, nil)
	if err != nil {
		t.Fatalf("parser: %v", err)
	}
	h := NewHandler(batch.New(fakeExtractor{}, p, nil), writer.NewXLSXWriter(nil), "test", nil)
	return NewApp(h)
}

func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response) ExtractResponse {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var out ExtractResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", body, err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
	if result["version"] != "test" {
		t.Errorf("expected version=test, got %q", result["version"])
	}
}

func TestExtractText(t *testing.T) {
	app := setupTestApp(t)

	form := url.Values{}
	form.Set("text", "ACCOUNT STATEMENT\nCUSTOMER NAME: SURESH PATEL\nBRANCH: ANDHERI\nDate Particulars Debit Credit\n01-01-24 ...")
	req := httptest.NewRequest("POST", "/api/extract", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	out := decode(t, resp)
	if out.Status != models.StatusPartial {
		t.Errorf("status: got %q, want %q", out.Status, models.StatusPartial)
	}
	if out.Result == nil || out.Result.CustomerName != "SURESH PATEL" {
		t.Errorf("result: got %+v", out.Result)
	}
	if out.Trace != nil {
		t.Error("trace returned without trace=true")
	}
}

func TestExtractFileWithTrace(t *testing.T) {
	app := setupTestApp(t)

	body, ctype := multipartBody(t, "file",
		map[string]string{"statement.pdf": "MR RAJESH SHAH\nAccount No: 30012345678"},
		map[string]string{"trace": "true"})
	req := httptest.NewRequest("POST", "/api/extract", body)
	req.Header.Set("Content-Type", ctype)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	out := decode(t, resp)
	if out.File != "statement.pdf" || out.Status != models.StatusSuccess || out.Method != "fake" {
		t.Errorf("got file=%q status=%q method=%q", out.File, out.Status, out.Method)
	}
	if out.Result.AccountNumber != "30012345678" {
		t.Errorf("account: got %q", out.Result.AccountNumber)
	}
	if out.Trace == nil || len(out.Trace.Events) == 0 {
		t.Error("expected a trace")
	}
}

func TestExtractUnreadablePDF(t *testing.T) {
	app := setupTestApp(t)

	body, ctype := multipartBody(t, "file", map[string]string{"scan.pdf": "broken"}, nil)
	req := httptest.NewRequest("POST", "/api/extract", body)
	req.Header.Set("Content-Type", ctype)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
	if out := decode(t, resp); out.Success || !strings.Contains(out.Error, "no text extracted") {
		t.Errorf("got %+v", out)
	}
}

func TestExtractRequiresInput(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest("POST", "/api/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestExtractRejectsNonPDF(t *testing.T) {
	app := setupTestApp(t)

	body, ctype := multipartBody(t, "file", map[string]string{"notes.txt": "hello"}, nil)
	req := httptest.NewRequest("POST", "/api/extract", body)
	req.Header.Set("Content-Type", ctype)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestReportRejectsDuplicateNames(t *testing.T) {
	app := setupTestApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, content := range []string{"MR RAJESH SHAH\nAccount No: 30012345678", "MR AMIT JOSHI"} {
		fw, err := mw.CreateFormFile("files", "statement.pdf")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/report", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if out := decode(t, resp); !strings.Contains(out.Error, "Duplicate file name") {
		t.Errorf("error: got %q", out.Error)
	}
}

func TestReport(t *testing.T) {
	app := setupTestApp(t)

	body, ctype := multipartBody(t, "files", map[string]string{
		"a.pdf": "MR RAJESH SHAH\nAccount No: 30012345678",
		"b.pdf": "broken",
	}, nil)
	req := httptest.NewRequest("POST", "/api/report", body)
	req.Header.Set("Content-Type", ctype)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type: got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "extraction_results_") {
		t.Errorf("content disposition: got %q", cd)
	}

	data, _ := io.ReadAll(resp.Body)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(writer.ResultsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][0] != "a.pdf" || rows[1][1] != "Success" {
		t.Errorf("row a.pdf: got %q", rows[1])
	}
	if rows[2][0] != "b.pdf" || rows[2][1] != "Failed" {
		t.Errorf("row b.pdf: got %q", rows[2])
	}
}

func TestReportRequiresFiles(t *testing.T) {
	app := setupTestApp(t)

	body, ctype := multipartBody(t, "other", nil, map[string]string{"x": "y"})
	req := httptest.NewRequest("POST", "/api/report", body)
	req.Header.Set("Content-Type", ctype)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPanicIsJSON(t *testing.T) {
	app := setupTestApp(t)
	app.Get("/api/panic", func(*fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/panic", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
	if out := decode(t, resp); out.Success || out.Error == "" {
		t.Errorf("got %+v", out)
	}
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}
