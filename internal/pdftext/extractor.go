// Package pdftext reads the first page of a PDF order confirmation into
// raw text and a rebuilt table using poppler's pdftotext.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/order-tracker/constants"
	"github.com/joseph-ayodele/order-tracker/internal/common"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

// Config holds the external tool paths.
type Config struct {
	Pdftotext string
}

// Extractor produces entity.Page values from PDF files.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewExtractor returns an Extractor backed by os/exec.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, ExecRunner{}, logger)
}

// NewExtractorWithRunner returns an Extractor using runner for external commands.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// ExtractFirstPage returns the text and table of the document's first page.
func (e *Extractor) ExtractFirstPage(ctx context.Context, path string) (entity.Page, error) {
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		return entity.Page{}, fmt.Errorf("%w: %s", common.ErrUnsupportedDocument, path)
	}

	pages := e.pageCount(path)

	// pdftotext -f 1 -l 1 -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger,
		"-f", "1", "-l", "1", "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return entity.Page{}, fmt.Errorf("pdftotext %s: %w (stderr: %s)", path, err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	raw := string(out)
	if i := strings.IndexByte(raw, '\f'); i >= 0 {
		raw = raw[:i]
	}
	page := entity.Page{
		Text:      Normalize(raw),
		Table:     LayoutTable(raw),
		PageCount: pages,
	}
	e.logger.Debug("pdf.first_page.ok",
		"path", path,
		"pages", pages,
		"text_chars", len([]rune(page.Text)),
		"table_rows", len(page.Table),
	)
	return page, nil
}

// pageCount is informational; a damaged file still goes through pdftotext.
func (e *Extractor) pageCount(path string) int {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Warn("failed to open PDF for page count", "path", path, "error", err)
		return 0
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		e.logger.Warn("failed to extract PDF page count", "path", path, "error", err)
		return 0
	}
	return count
}
