package extract

import (
	"strings"

	"github.com/joseph-ayodele/order-tracker/constants"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
	"github.com/joseph-ayodele/order-tracker/internal/normalize"
)

// Row rejection reasons, also used as metric labels.
const (
	RejectCode     = "invalid_code"
	RejectExcluded = "excluded"
	RejectAmount   = "invalid_amount"
	RejectSchema   = "schema"
)

// TableStats counts what happened to the rows under the header.
type TableStats struct {
	HeaderFound bool
	Scanned     int
	Accepted    int
	Rejected    map[string]int
}

func (s *TableStats) reject(reason string) {
	if s.Rejected == nil {
		s.Rejected = make(map[string]int)
	}
	s.Rejected[reason]++
}

// columns are the header positions of the label families, -1 when absent.
type columns struct {
	code, amount, name int
}

// ExtractTable returns provisional records for every usable row below the
// first header row. Quantity is 1 and unit price equals amount until the
// record is reconciled against the page text.
func ExtractTable(table entity.Table, documentID string) ([]entity.OrderLineRecord, TableStats) {
	var stats TableStats
	for i, row := range table {
		if !isHeaderRow(row) {
			continue
		}
		stats.HeaderFound = true
		cols := classifyHeader(row)
		if cols.code < 0 {
			return nil, stats
		}
		var out []entity.OrderLineRecord
		for r := i + 1; r < len(table); r++ {
			stats.Scanned++
			rec, reason := rowRecord(table, r, cols, documentID)
			if reason != "" {
				stats.reject(reason)
				continue
			}
			stats.Accepted++
			out = append(out, rec)
		}
		return out, stats
	}
	return nil, stats
}

func isHeaderRow(row []string) bool {
	for _, cell := range row {
		if strings.Contains(cell, constants.HeaderProductCode) || strings.Contains(cell, constants.HeaderOrderNumber) {
			return true
		}
	}
	return false
}

// classifyHeader scans left to right, so the rightmost cell of a family wins.
func classifyHeader(row []string) columns {
	cols := columns{code: -1, amount: -1, name: -1}
	for i, cell := range row {
		switch {
		case cell == "":
		case strings.Contains(cell, constants.LabelCode):
			cols.code = i
		case strings.Contains(cell, constants.LabelAmount):
			cols.amount = i
		case strings.Contains(cell, constants.LabelName), strings.Contains(cell, constants.LabelDescription):
			cols.name = i
		}
	}
	return cols
}

// rowRecord returns the provisional record for row r, or the reason it was dropped.
func rowRecord(table entity.Table, r int, cols columns, documentID string) (entity.OrderLineRecord, string) {
	if len(table[r]) <= cols.code {
		return entity.OrderLineRecord{}, RejectCode
	}
	code, ok := normalize.ProductCode(table.Cell(r, cols.code))
	if !ok {
		return entity.OrderLineRecord{}, RejectCode
	}
	if normalize.Excluded(code) {
		return entity.OrderLineRecord{}, RejectExcluded
	}

	var desc string
	if cols.name >= 0 {
		desc = strings.TrimSpace(table.Cell(r, cols.name))
	}

	if cols.amount < 0 {
		return entity.OrderLineRecord{}, RejectAmount
	}
	amount, ok := normalize.ParseAmount(table.Cell(r, cols.amount))
	if !ok || !amount.IsPositive() {
		return entity.OrderLineRecord{}, RejectAmount
	}

	return entity.OrderLineRecord{
		DocumentID:  documentID,
		ProductCode: code,
		Quantity:    1,
		UnitPrice:   amount,
		Amount:      amount,
		Description: desc,
	}, ""
}
