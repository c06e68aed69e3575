package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

// BuildRecordJSONSchema returns the JSON-Schema (draft 2020-12 subset) a
// reconciled order line must satisfy before it is persisted.
func BuildRecordJSONSchema() map[string]any {
	props := map[string]any{
		"document_id":  map[string]any{"type": "string", "minLength": 1},
		"product_code": map[string]any{"type": "string", "pattern": `^\d{3}\.\d{3}\.\d{2}$`},
		"quantity":     map[string]any{"type": "integer", "minimum": 1},
		"unit_price":   decimalProp(),
		"current_price": map[string]any{
			"type":    []string{"string", "null"},
			"pattern": `^\d+(\.\d+)?$`,
		},
		"amount": map[string]any{
			"type":    "string",
			"pattern": `^\d+(\.\d+)?$`,
			"not":     map[string]any{"pattern": `^0+(\.0+)?$`}, // strictly positive
		},
		"description": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"document_id", "product_code", "quantity", "unit_price", "amount"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d+(\.\d{1,2})?$`,
	}
}

// RecordValidator checks records against the compiled record schema.
type RecordValidator struct {
	schema *jsonschema.Schema
}

// NewRecordValidator compiles the record schema once.
func NewRecordValidator() (*RecordValidator, error) {
	b, err := json.Marshal(BuildRecordJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("order_line.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("order_line.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &RecordValidator{schema: schema}, nil
}

// Validate reports why rec is not a valid order line, or nil.
func (v *RecordValidator) Validate(rec entity.OrderLineRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
