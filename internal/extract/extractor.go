// Package extract turns the first page of an order confirmation into order
// line records: identifier resolution, table extraction, text
// corroboration and reconciliation.
package extract

import (
	"log/slog"

	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

// Result is everything extracted from one page.
type Result struct {
	DocumentID string
	Records    []entity.OrderLineRecord
	Stats      TableStats
}

// Extractor runs the extraction chain for a single page.
type Extractor struct {
	logger    *slog.Logger
	validator *RecordValidator
}

// NewExtractor builds an Extractor; validator may be nil to skip schema checks.
func NewExtractor(validator *RecordValidator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger, validator: validator}
}

// Extract resolves the document id, pulls provisional rows out of the
// table, corroborates each against the page text and returns the
// reconciled records in table order.
func (e *Extractor) Extract(page entity.Page, filename string) Result {
	id := ResolveDocumentID(page.Text, filename, e.logger)
	provisional, stats := ExtractTable(page.Table, id)
	if !stats.HeaderFound {
		e.logger.Warn("no table header found", "file", filename, "document_id", id)
	}

	records := Reconcile(provisional, func(code string) Corroboration {
		return Corroborate(page.Text, code)
	})

	out := records[:0]
	for _, rec := range records {
		if e.validator != nil {
			if err := e.validator.Validate(rec); err != nil {
				e.logger.Warn("dropping invalid record", "file", filename, "product_code", rec.ProductCode, "error", err)
				stats.reject(RejectSchema)
				stats.Accepted--
				continue
			}
		}
		e.logger.Debug("record extracted",
			"document_id", rec.DocumentID,
			"product_code", rec.ProductCode,
			"quantity", rec.Quantity,
			"unit_price", rec.UnitPrice.StringFixed(2),
			"amount", rec.Amount.StringFixed(2),
			"description", rec.Description,
		)
		out = append(out, rec)
	}

	e.logger.Info("page extracted",
		"file", filename,
		"document_id", id,
		"rows_scanned", stats.Scanned,
		"records", len(out),
	)
	return Result{DocumentID: id, Records: out, Stats: stats}
}
