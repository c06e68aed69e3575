package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"¥199.00", "199", true},
		{"¥1,299.50", "1299.5", true},
		{" ￥ 12 ", "12", true},
		{"约 12.50 元", "12.5", true},
		{"N/A", "0", false},
		{"", "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseAmount(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestUnitPriceRoundsToCents(t *testing.T) {
	got := UnitPrice(decimal.RequireFromString("200"), 3)
	assert.Equal(t, "66.67", got.StringFixed(2))
	assert.True(t, UnitPrice(decimal.NewFromInt(5), 0).Equal(decimal.NewFromInt(5)))
}

func TestParseNumber(t *testing.T) {
	assert.False(t, ParseNumber("").Valid)
	assert.False(t, ParseNumber("abc").Valid)
	n := ParseNumber(" 12.5 ")
	require.True(t, n.Valid)
	assert.Equal(t, "12.5", n.Decimal.String())
}

func TestProductCode(t *testing.T) {
	code, ok := ProductCode(" 102.635.24 ")
	assert.True(t, ok)
	assert.Equal(t, "102.635.24", code)

	for _, bad := range []string{"10263524", "102.635.2", "102.635.245", "A02.635.24", ""} {
		_, ok := ProductCode(bad)
		assert.False(t, ok, bad)
	}
}

func TestCodeHelpers(t *testing.T) {
	assert.Equal(t, "10263524", CodeDigits("102.635.24"))
	assert.True(t, ContainsCodeShape("item 102.635.24 here"))
	assert.False(t, ContainsCodeShape("102.63.24"))
	assert.True(t, Excluded("500.123.45"))
	assert.False(t, Excluded("500.005.97"))
	assert.False(t, Excluded("102.635.24"))
}

func TestDescriptionTokens(t *testing.T) {
	got := DescriptionTokens("LACK 拉克 边桌 ¥99.00")
	assert.Equal(t, []string{"LACK", "拉克 边桌"}, got)

	got = DescriptionTokens("Tray 60x40")
	assert.Equal(t, []string{"Tray", "x40", "60x40"}, got)

	assert.Empty(t, DescriptionTokens("¥99.00 13%"))
}

func TestLineTokens(t *testing.T) {
	assert.Equal(t, []string{"KALLAX", "卡莱克", "搁架", "77x77"}, LineTokens("KALLAX 卡莱克 搁架 77x77"))
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "LACK 边桌", CleanDescription("  LACK 2 件   边桌 "))
	assert.Equal(t, "", CleanDescription("件 3"))
	assert.Equal(t, "厘米尺", CleanDescription("厘米尺"))
}
