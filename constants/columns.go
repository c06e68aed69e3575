package constants

// Store column headers, in the fixed persisted order.
const (
	ColumnOrderNumber  = "订单号"
	ColumnProductCode  = "商品货号"
	ColumnQuantity     = "数量"
	ColumnUnitPrice    = "商品单价"
	ColumnCurrentPrice = "现价"
	ColumnAmount       = "金额"
	ColumnDescription  = "商品名称与描述"
)

// StoreColumns is the exact column order of the order summary workbook.
var StoreColumns = []string{
	ColumnOrderNumber,
	ColumnProductCode,
	ColumnQuantity,
	ColumnUnitPrice,
	ColumnCurrentPrice,
	ColumnAmount,
	ColumnDescription,
}
