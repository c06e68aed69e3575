package store

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

// Row is one line of the order summary workbook. Numeric columns are
// empty (not Valid) when the stored cell is blank or not a number.
type Row struct {
	OrderNumber  string
	ProductCode  string
	Quantity     decimal.NullDecimal
	UnitPrice    decimal.NullDecimal
	CurrentPrice decimal.NullDecimal
	Amount       decimal.NullDecimal
	Description  string
	// Highlight marks the row with the yellow fill used for price alerts.
	Highlight bool
}

// RowFromRecord converts an extracted record into a store row.
func RowFromRecord(r entity.OrderLineRecord) Row {
	return Row{
		OrderNumber:  r.DocumentID,
		ProductCode:  r.ProductCode,
		Quantity:     decimal.NewNullDecimal(decimal.NewFromInt(int64(r.Quantity))),
		UnitPrice:    decimal.NewNullDecimal(r.UnitPrice),
		CurrentPrice: r.CurrentPrice,
		Amount:       decimal.NewNullDecimal(r.Amount),
		Description:  r.Description,
	}
}
