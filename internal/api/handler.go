package api

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/statement-holder-extractor/internal/batch"
	"github.com/insightdelivered/statement-holder-extractor/internal/models"
	"github.com/insightdelivered/statement-holder-extractor/internal/writer"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExtractResponse is the JSON response from the /api/extract endpoint.
type ExtractResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error,omitempty"`
	File    string                   `json:"file,omitempty"`
	Status  models.Status            `json:"status,omitempty"`
	Method  string                   `json:"method,omitempty"`
	Result  *models.ExtractionResult `json:"result,omitempty"`
	Trace   *models.Trace            `json:"trace,omitempty"`
	Version string                   `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Runner  *batch.Runner
	XLSX    *writer.XLSXWriter
	Version string

	logger *slog.Logger
}

func NewHandler(runner *batch.Runner, xlsx *writer.XLSXWriter, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Runner: runner, XLSX: xlsx, Version: version, logger: logger}
}

// NewApp returns a fiber app with the API routes, CORS and panic recovery.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "statement-holder " + h.Version,
		BodyLimit:             32 << 20,
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/health", h.HandleHealth)
	r.Post("/api/extract", h.HandleExtract)
	r.Post("/api/report", h.HandleReport)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

// HandleExtract analyzes one document: an uploaded PDF in the "file" field,
// or already extracted text in the "text" field. trace=true adds the
// pipeline trace to the response.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	runner := *h.Runner
	runner.KeepTrace = c.FormValue("trace", c.Query("trace")) == "true"
	runner.OnDocument = nil

	var doc models.DocumentReport
	if fh, err := c.FormFile("file"); err == nil {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
		}
		tmpDir, err := os.MkdirTemp("", "holder-upload-*")
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "Failed to create temp dir.")
		}
		defer os.RemoveAll(tmpDir)

		path := filepath.Join(tmpDir, "upload.pdf")
		if err := c.SaveFile(fh, path); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
		}
		doc = runner.Process(c.UserContext(), path)
		doc.File = filepath.Base(fh.Filename)

		if doc.Method == "" && doc.Error != "" {
			return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %s", doc.Error))
		}
	} else if text := c.FormValue("text"); strings.TrimSpace(text) != "" {
		doc = runner.ProcessText("text", text)
	} else {
		return writeError(c, fiber.StatusBadRequest, "No input. Upload a PDF in field 'file' or send text in field 'text'.")
	}

	result := doc.Result
	return c.JSON(ExtractResponse{
		Success: true,
		Error:   doc.Error,
		File:    doc.File,
		Status:  doc.Status,
		Method:  doc.Method,
		Result:  &result,
		Trace:   doc.Trace,
		Version: h.Version,
	})
}

// HandleReport runs a batch over the uploaded PDFs in the "files" field and
// answers with the XLSX review workbook.
func (h *Handler) HandleReport(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
	}
	files := form.File["files"]
	if len(files) == 0 {
		return writeError(c, fiber.StatusBadRequest, "No files uploaded. Use form field 'files'.")
	}

	tmpDir, err := os.MkdirTemp("", "holder-batch-*")
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to create temp dir.")
	}
	defer os.RemoveAll(tmpDir)

	seen := make(map[string]bool, len(files))
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Only PDF files are supported: %q.", name))
		}
		// Each upload becomes one report row keyed by its file name.
		key := strings.ToLower(name)
		if seen[key] {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Duplicate file name: %q.", name))
		}
		seen[key] = true
		if err := c.SaveFile(fh, filepath.Join(tmpDir, name)); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
		}
	}

	runner := *h.Runner
	runner.KeepTrace = false
	runner.OnDocument = nil
	report, err := runner.Run(c.UserContext(), tmpDir)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Batch failed: %v", err))
	}
	report.Dir = "upload"

	data, err := h.XLSX.Bytes(report)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Report generation failed: %v", err))
	}

	c.Attachment(writer.DefaultXLSXName(time.Now()))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(data)
}

// handleError answers every unhandled error, including recovered panics,
// with a JSON body.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		h.logger.Error("api.request.failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return writeError(c, code, err.Error())
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ExtractResponse{
		Success: false,
		Error:   msg,
	})
}
