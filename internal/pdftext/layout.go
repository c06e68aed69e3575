package pdftext

import (
	"strings"

	"github.com/joseph-ayodele/order-tracker/constants"
	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

// span is one layout cell: its text and rune columns [start, end).
type span struct {
	text       string
	start, end int
}

// splitCells splits a layout line on runs of two or more spaces.
func splitCells(line string) []span {
	var (
		cells []span
		runes = []rune(line)
		start = -1
		gap   = 0
	)
	flush := func(end int) {
		if start >= 0 {
			cells = append(cells, span{text: string(runes[start:end]), start: start, end: end})
			start = -1
		}
	}
	for i, r := range runes {
		if r == ' ' {
			gap++
			if gap == 2 {
				flush(i - 1)
			}
			continue
		}
		if start < 0 {
			start = i
		}
		gap = 0
	}
	end := len(runes)
	for end > 0 && runes[end-1] == ' ' {
		end--
	}
	flush(end)
	return cells
}

// headerIndex picks the table header: the first line of two or more cells
// naming the product code column, else one naming the order number.
func headerIndex(lines [][]span) int {
	for _, token := range []string{constants.HeaderProductCode, constants.HeaderOrderNumber} {
		for i, cells := range lines {
			if len(cells) < 2 {
				continue
			}
			for _, c := range cells {
				if strings.Contains(c.text, token) {
					return i
				}
			}
		}
	}
	return -1
}

// LayoutTable rebuilds the tabular region of a `pdftotext -layout` page.
// Lines are split into cells on runs of 2+ spaces. The table starts at the
// header line; every later non-blank line becomes a row whose cells sit
// under the header column they overlap most, or the nearest one. A page
// without a header line has no table.
func LayoutTable(text string) entity.Table {
	var lines [][]span
	for _, line := range strings.Split(fold(text), "\n") {
		cells := splitCells(strings.ReplaceAll(line, "\t", "  "))
		if len(cells) > 0 {
			lines = append(lines, cells)
		}
	}
	h := headerIndex(lines)
	if h < 0 {
		return nil
	}
	header := lines[h]
	table := entity.Table{texts(header)}
	for _, cells := range lines[h+1:] {
		table = append(table, align(cells, header))
	}
	return table
}

func texts(cells []span) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.text
	}
	return out
}

func align(cells, header []span) []string {
	row := make([]string, len(header))
	for _, c := range cells {
		col := nearestColumn(c, header)
		if row[col] == "" {
			row[col] = c.text
		} else {
			row[col] += " " + c.text
		}
	}
	return row
}

func nearestColumn(c span, header []span) int {
	best, bestOverlap, bestDist := 0, 0, -1
	for i, h := range header {
		overlap := min(c.end, h.end) - max(c.start, h.start)
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
			continue
		}
		if bestOverlap > 0 {
			continue
		}
		dist := max(h.start-c.end, c.start-h.end)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
