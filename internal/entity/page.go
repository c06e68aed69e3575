package entity

// Table is the tabular region of a page: rows of cells, "" for an empty cell.
type Table [][]string

// Page is what the extraction engine sees of a document: the first page's
// raw text and its table.
type Page struct {
	Text      string
	Table     Table
	PageCount int // pages in the whole document, 0 when unknown
}

// Cell returns the value at (row, col), or "" when it is out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return ""
	}
	return t[row][col]
}
