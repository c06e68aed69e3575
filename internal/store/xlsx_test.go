package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/order-tracker/constants"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func record(code, amount string, qty int) entity.OrderLineRecord {
	r := entity.OrderLineRecord{DocumentID: "27123456", ProductCode: code, Quantity: 1, Amount: dec(amount), UnitPrice: dec(amount), Description: "LACK 边桌"}
	r.SetQuantity(qty)
	return r
}

func TestLoadMissingWorkbook(t *testing.T) {
	s := NewXLSXStore(filepath.Join(t.TempDir(), "none.xlsx"), "", nil)
	rows, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAppendCreatesAndExtends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "订单汇总.xlsx")
	s := NewXLSXStore(path, "Sheet1", nil)

	n, err := s.Append(ctx, []entity.OrderLineRecord{record("102.635.24", "199", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Append(ctx, []entity.OrderLineRecord{record("403.011.55", "200", 3)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "27123456", rows[0].OrderNumber)
	assert.Equal(t, "102.635.24", rows[0].ProductCode)
	assert.Equal(t, "2", rows[0].Quantity.Decimal.String())
	assert.Equal(t, "99.5", rows[0].UnitPrice.Decimal.String())
	assert.Equal(t, "199", rows[0].Amount.Decimal.String())
	assert.False(t, rows[0].CurrentPrice.Valid)
	assert.Equal(t, "LACK 边桌", rows[0].Description)
	assert.Equal(t, "66.67", rows[1].UnitPrice.Decimal.String())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	header, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, constants.StoreColumns, header[0])

	_, err = os.Stat(filepath.Join(filepath.Dir(path), ".订单汇总.xlsx.tmp.xlsx"))
	assert.True(t, os.IsNotExist(err))
}

func TestHighlightRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewXLSXStore(filepath.Join(t.TempDir(), "orders.xlsx"), "汇总", nil)

	rows := []Row{
		RowFromRecord(record("102.635.24", "199", 1)),
		RowFromRecord(record("403.011.55", "50", 1)),
	}
	rows[1].Highlight = true
	rows[1].CurrentPrice = decimal.NewNullDecimal(dec("39.9"))
	require.NoError(t, s.Save(ctx, rows))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].Highlight)
	assert.True(t, got[1].Highlight)
	assert.Equal(t, "39.9", got[1].CurrentPrice.Decimal.String())
}

func TestLoadReconcilesColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"备注", "商品货号", "订单号", "数量", "金额"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"x", "102.635.24", "27123456", "abc", 12.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"", "403.011.55", "27123457", 2, "¥10"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := NewXLSXStore(path, "Sheet1", nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "102.635.24", rows[0].ProductCode)
	assert.Equal(t, "27123456", rows[0].OrderNumber)
	assert.False(t, rows[0].Quantity.Valid)
	assert.Equal(t, "12.5", rows[0].Amount.Decimal.String())
	assert.False(t, rows[0].UnitPrice.Valid)
	assert.Equal(t, "", rows[0].Description)

	assert.Equal(t, "2", rows[1].Quantity.Decimal.String())
	assert.False(t, rows[1].Amount.Valid)
}

func TestSaveFailureLeavesWorkbook(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.xlsx")
	s := NewXLSXStore(path, "", nil)
	require.NoError(t, s.Save(ctx, []Row{RowFromRecord(record("102.635.24", "1", 1))}))

	bad := NewXLSXStore(filepath.Join(dir, "missing", "orders.xlsx"), "", nil)
	_, err := bad.Append(ctx, []entity.OrderLineRecord{record("102.635.24", "1", 1)})
	assert.Error(t, err)

	rows, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func rowFields(r Row) []string {
	num := func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "<empty>"
		}
		return d.Decimal.String()
	}
	hl := "plain"
	if r.Highlight {
		hl = "highlight"
	}
	return []string{r.OrderNumber, r.ProductCode, num(r.Quantity), num(r.UnitPrice),
		num(r.CurrentPrice), num(r.Amount), r.Description, hl}
}

func TestSaveLoadIsStable(t *testing.T) {
	ctx := context.Background()
	s := NewXLSXStore(filepath.Join(t.TempDir(), "orders.xlsx"), "Sheet1", nil)

	rows := []Row{
		RowFromRecord(record("102.635.24", "199", 2)),
		RowFromRecord(record("403.011.55", "200", 3)),
		RowFromRecord(record("301.222.33", "45", 1)),
	}
	rows[2].CurrentPrice = decimal.NewNullDecimal(dec("39.9"))
	rows[2].Highlight = true
	require.Equal(t, "66.67", rows[1].UnitPrice.Decimal.String())
	require.False(t, rows[1].CurrentPrice.Valid)

	require.NoError(t, s.Save(ctx, rows))
	first, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, first))
	second, err := s.Load(ctx)
	require.NoError(t, err)

	require.Len(t, first, len(rows))
	require.Len(t, second, len(rows))
	for i := range rows {
		assert.Equal(t, rowFields(rows[i]), rowFields(first[i]), "row %d after first load", i)
		assert.Equal(t, rowFields(first[i]), rowFields(second[i]), "row %d after reload", i)
	}
	assert.Equal(t, "<empty>", rowFields(second[1])[4])
	assert.Equal(t, "66.67", second[1].UnitPrice.Decimal.String())
}
