package extract

import "github.com/joseph-ayodele/order-tracker/internal/entity"

// Corroboration is what the page text says about one product code.
type Corroboration struct {
	Quantity    int
	Description string
}

// Corroborate reads quantity and description for code from the page text.
func Corroborate(text, code string) Corroboration {
	return Corroboration{
		Quantity:    ResolveQuantity(text, code),
		Description: ResolveDescription(text, code),
	}
}

// Reconcile applies corroborated values to the provisional records in
// place and returns them in their original order. A positive quantity
// replaces the placeholder and recomputes the unit price; a non-empty
// description replaces the table one.
func Reconcile(records []entity.OrderLineRecord, lookup func(code string) Corroboration) []entity.OrderLineRecord {
	for i := range records {
		c := lookup(records[i].ProductCode)
		records[i].SetQuantity(c.Quantity)
		if c.Description != "" {
			records[i].Description = c.Description
		}
	}
	return records
}
