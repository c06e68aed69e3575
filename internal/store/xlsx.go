// Package store persists order lines to the order summary workbook.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/order-tracker/constants"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
	"github.com/joseph-ayodele/order-tracker/internal/normalize"
)

// HighlightColor is the fill used to flag rows whose price moved.
const HighlightColor = "FFFF00"

// XLSXStore reads and rewrites a single-sheet workbook with the fixed
// order summary columns.
type XLSXStore struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewXLSXStore returns a store for the workbook at path.
func NewXLSXStore(path, sheet string, logger *slog.Logger) *XLSXStore {
	if sheet == "" {
		sheet = "Sheet1"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXStore{path: path, sheet: sheet, logger: logger}
}

// Path returns the workbook location.
func (s *XLSXStore) Path() string { return s.path }

// Load reads every data row. A missing workbook is empty, not an error.
// Columns are matched by header name; absent columns read as empty and
// unknown columns are dropped.
func (s *XLSXStore) Load(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("store.xlsx.close_failed", "path", s.path, "error", err)
		}
	}()

	sheet := s.sheet
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(raw[0]))
	for i, h := range raw[0] {
		index[strings.TrimSpace(h)] = i
	}
	for _, c := range constants.StoreColumns {
		if _, ok := index[c]; !ok {
			s.logger.Warn("store.xlsx.missing_column", "path", s.path, "column", c)
		}
	}
	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]Row, 0, len(raw)-1)
	for i, r := range raw[1:] {
		if isBlank(r) {
			continue
		}
		rows = append(rows, Row{
			OrderNumber:  cell(r, constants.ColumnOrderNumber),
			ProductCode:  cell(r, constants.ColumnProductCode),
			Quantity:     normalize.ParseNumber(cell(r, constants.ColumnQuantity)),
			UnitPrice:    normalize.ParseNumber(cell(r, constants.ColumnUnitPrice)),
			CurrentPrice: normalize.ParseNumber(cell(r, constants.ColumnCurrentPrice)),
			Amount:       normalize.ParseNumber(cell(r, constants.ColumnAmount)),
			Description:  cell(r, constants.ColumnDescription),
			Highlight:    highlighted(f, sheet, i+2),
		})
	}
	return rows, nil
}

// Save rewrites the workbook with rows. The file is written next to the
// target and renamed over it, so a failed write leaves the old one intact.
func (s *XLSXStore) Save(ctx context.Context, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if s.sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	fillStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{HighlightColor}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("highlight style: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(constants.StoreColumns))
	for i, h := range constants.StoreColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(s.sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(s.sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range rows {
		n := i + 2
		values := []any{
			r.OrderNumber,
			r.ProductCode,
			numberValue(r.Quantity),
			numberValue(r.UnitPrice),
			numberValue(r.CurrentPrice),
			numberValue(r.Amount),
			r.Description,
		}
		for c, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, n)
			if err := f.SetCellValue(s.sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", n, err)
			}
		}
		if r.Highlight {
			if err := f.SetCellStyle(s.sheet, fmt.Sprintf("A%d", n), fmt.Sprintf("%s%d", lastCol, n), fillStyle); err != nil {
				return fmt.Errorf("highlight row %d: %w", n, err)
			}
		}
	}

	_ = f.SetColWidth(s.sheet, "A", "B", 14) // order number, code
	_ = f.SetColWidth(s.sheet, "C", "F", 10) // numbers
	_ = f.SetColWidth(s.sheet, "G", "G", 48) // description

	tmp := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp.xlsx")
	if err := f.SaveAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("xlsx write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	s.logger.Info("store.xlsx.ok",
		"path", s.path,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Append loads the workbook, appends records after the existing rows and
// rewrites it. It returns the total number of data rows written.
func (s *XLSXStore) Append(ctx context.Context, records []entity.OrderLineRecord) (int, error) {
	rows, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	existing := len(rows)
	for _, r := range records {
		rows = append(rows, RowFromRecord(r))
	}
	if err := s.Save(ctx, rows); err != nil {
		return 0, err
	}
	s.logger.Debug("store.xlsx.appended", "path", s.path, "existing", existing, "appended", len(records))
	return len(rows), nil
}

func numberValue(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	if d.Decimal.IsInteger() {
		return d.Decimal.IntPart()
	}
	f, _ := d.Decimal.Float64()
	return f
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// highlighted reports whether the first cell of the given 1-based row
// carries a solid highlight fill.
func highlighted(f *excelize.File, sheet string, row int) bool {
	id, err := f.GetCellStyle(sheet, fmt.Sprintf("A%d", row))
	if err != nil || id == 0 {
		return false
	}
	style, err := f.GetStyle(id)
	if err != nil || style == nil || style.Fill.Pattern != 1 || len(style.Fill.Color) == 0 {
		return false
	}
	return strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), HighlightColor)
}
