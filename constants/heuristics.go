package constants

// Heuristic constants for order-confirmation extraction. Everything the
// extractors match on lives here so the rules can be audited and tested
// in one place.

const (
	// UnknownDocumentID is used when no identifier strategy matches.
	UnknownDocumentID = "unknown"

	// DocumentSeriesPrefix marks filenames whose stem is itself an order identifier.
	DocumentSeriesPrefix = "CNREC"

	// ExcludedCodePrefix denotes shipping / pickup fee lines.
	ExcludedCodePrefix = "500."

	// OrderIDPrefix is the leading pair of a bare 8-digit order number.
	OrderIDPrefix = "27"

	// OrderIDForbiddenPrefix must not immediately precede a bare order number ("product").
	OrderIDForbiddenPrefix = "商品"

	// CurrencyGlyph is the yuan sign used on order documents.
	CurrencyGlyph = "¥"
	// FullwidthCurrencyGlyph shows up in some table cells.
	FullwidthCurrencyGlyph = "￥"
)

// CarveOutCodes are fee-prefixed codes that are kept anyway.
var CarveOutCodes = []string{"500.005.97"}

// TaxRateTokens are the VAT percentages that anchor the quantity column.
var TaxRateTokens = []string{"13", "14"}

// Table header labels.
const (
	// A row with a cell containing either token is the table header.
	// "货号" also covers the long "商品货号" label.
	HeaderProductCode = "货号"
	HeaderOrderNumber = "订单号"

	LabelCode        = "货号"
	LabelAmount      = "金额"
	LabelName        = "名称"
	LabelDescription = "描述"
)

// Text labels.
const (
	LabelQuantity = "数量"
	UnitPiece     = "件"
)

// Quantity plausibility bounds for the looser strategies.
const (
	QuantityLooseMin  = 1
	QuantityLooseMax  = 20
	QuantityWindowMax = 10
	// QuantityWindowRunes is how far past the code the narrow strategy looks.
	QuantityWindowRunes = 100
)

// DescriptionUnitWords are measure words stripped from descriptions.
var DescriptionUnitWords = []string{"件", "个", "元", "米", "厘米", "套", "组", "盒", "包", "箱"}
