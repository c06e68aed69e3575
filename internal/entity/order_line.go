package entity

import (
	"github.com/shopspring/decimal"
)

// OrderLineRecord is one line item within one order document.
type OrderLineRecord struct {
	DocumentID   string              `json:"document_id"`
	ProductCode  string              `json:"product_code"`
	Quantity     int                 `json:"quantity"`
	UnitPrice    decimal.Decimal     `json:"unit_price"`
	CurrentPrice decimal.NullDecimal `json:"current_price"`
	Amount       decimal.Decimal     `json:"amount"`
	Description  string              `json:"description"`
}

// SetQuantity replaces the quantity and recomputes the unit price.
// Non-positive quantities are ignored.
func (r *OrderLineRecord) SetQuantity(qty int) {
	if qty <= 0 {
		return
	}
	r.Quantity = qty
	r.UnitPrice = r.Amount.Div(decimal.NewFromInt(int64(qty))).Round(2)
}
