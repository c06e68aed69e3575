package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

func TestExtractTableMinimalHeader(t *testing.T) {
	table := entity.Table{
		{"货号", "金额"},
		{"102.635.24", "¥199.00"},
	}
	recs, stats := ExtractTable(table, "27123456")
	require.Len(t, recs, 1)
	assert.True(t, stats.HeaderFound)
	r := recs[0]
	assert.Equal(t, "27123456", r.DocumentID)
	assert.Equal(t, "102.635.24", r.ProductCode)
	assert.Equal(t, 1, r.Quantity)
	assert.Equal(t, "199.00", r.UnitPrice.StringFixed(2))
	assert.Equal(t, "199.00", r.Amount.StringFixed(2))
}

func TestExtractTableRowFilters(t *testing.T) {
	table := entity.Table{
		{"发票"},
		{"订单号", "商品货号", "商品名称与描述", "数量", "金额"},
		{"27123456", "102.635.24", " LACK 边桌 ", "1", "¥99.00"},
		{"27123456", "500.123.45", "送货费", "1", "¥50.00"},
		{"27123456", "500.005.97", "组装服务", "1", "¥30.00"},
		{"27123456", "not-a-code", "", "", "¥1.00"},
		{"27123456", "403.011.55", "", "", "N/A"},
		{"27123456", "403.011.56", "", "", "¥0.00"},
		{"27123456"},
	}
	recs, stats := ExtractTable(table, "27123456")
	require.Len(t, recs, 2)
	assert.Equal(t, "102.635.24", recs[0].ProductCode)
	assert.Equal(t, "LACK 边桌", recs[0].Description)
	assert.Equal(t, "500.005.97", recs[1].ProductCode)

	assert.Equal(t, 7, stats.Scanned)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected[RejectExcluded])
	assert.Equal(t, 2, stats.Rejected[RejectCode])
	assert.Equal(t, 2, stats.Rejected[RejectAmount])
}

func TestExtractTableRightmostColumnWins(t *testing.T) {
	table := entity.Table{
		{"商品货号", "金额", "旧货号", "金额(含税)"},
		{"999.999.99", "¥1.00", "102.635.24", "¥12.50"},
	}
	recs, _ := ExtractTable(table, "x")
	require.Len(t, recs, 1)
	assert.Equal(t, "102.635.24", recs[0].ProductCode)
	assert.Equal(t, "12.50", recs[0].Amount.StringFixed(2))
}

func TestExtractTableNoHeader(t *testing.T) {
	recs, stats := ExtractTable(entity.Table{{"名称", "金额"}, {"102.635.24", "¥5.00"}}, "x")
	assert.Empty(t, recs)
	assert.False(t, stats.HeaderFound)
}

func TestExtractTableOnlyFirstHeaderUsed(t *testing.T) {
	table := entity.Table{
		{"订单号", "金额"},
		{"27123456", "¥5.00"},
		{"商品货号", "金额"},
		{"102.635.24", "¥5.00"},
	}
	recs, stats := ExtractTable(table, "x")
	assert.Empty(t, recs)
	assert.True(t, stats.HeaderFound)
}
