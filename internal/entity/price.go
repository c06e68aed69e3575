package entity

import (
	"github.com/shopspring/decimal"
)

// PriceDetails is the outcome of one retailer lookup. The zero value means
// the lookup found nothing.
type PriceDetails struct {
	ProductCode   string              `json:"product_code"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	IsOnSale      bool                `json:"is_on_sale"`
	SourceURL     string              `json:"url,omitempty"`
}

// Found reports whether a current price was obtained.
func (p PriceDetails) Found() bool {
	return p.CurrentPrice.Valid
}
