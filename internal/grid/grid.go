// Package grid holds the decoded, format-independent view of an uploaded document.
package grid

import "strings"

// RawGrid is one decoded sheet: rows of string cells, ragged rows allowed.
// A missing cell reads as the empty string.
type RawGrid [][]string

// Cell returns the trimmed value at (r, c), or "" when out of range.
func (g RawGrid) Cell(r, c int) string {
	if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
		return ""
	}
	return strings.TrimSpace(g[r][c])
}

// Rows returns the number of rows.
func (g RawGrid) Rows() int { return len(g) }

// Row returns the trimmed cells of row r, or nil when out of range.
func (g RawGrid) Row(r int) []string {
	if r < 0 || r >= len(g) {
		return nil
	}
	out := make([]string, len(g[r]))
	for i := range g[r] {
		out[i] = strings.TrimSpace(g[r][i])
	}
	return out
}

// MaxCols returns the width of the widest row.
func (g RawGrid) MaxCols() int {
	max := 0
	for _, row := range g {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// NonEmpty counts the non-blank cells of row r.
func (g RawGrid) NonEmpty(r int) int {
	n := 0
	for c := range g.Row(r) {
		if g.Cell(r, c) != "" {
			n++
		}
	}
	return n
}

// IsBlankRow reports whether every cell of row r is blank.
func (g RawGrid) IsBlankRow(r int) bool {
	return g.NonEmpty(r) == 0
}

// Sheet is a named grid inside a workbook.
type Sheet struct {
	Name string
	Grid RawGrid
}

// Document is the decoded form of one uploaded file. Text is set for plain
// text inputs; spreadsheets carry their content in Sheets.
type Document struct {
	Filename string
	Sheets   []Sheet
	Text     string
	// ContentHash is the digest of the bytes the document was decoded from, if known.
	ContentHash string
}

// Primary returns the first sheet that has any non-blank cell.
func (d *Document) Primary() (RawGrid, bool) {
	if d == nil {
		return nil, false
	}
	for _, s := range d.Sheets {
		for r := range s.Grid {
			if !s.Grid.IsBlankRow(r) {
				return s.Grid, true
			}
		}
	}
	return nil, false
}

// FlatText joins every non-blank cell of every sheet, one row per line.
// Plain text documents return Text unchanged.
func (d *Document) FlatText() string {
	if d == nil {
		return ""
	}
	if d.Text != "" {
		return d.Text
	}
	var b strings.Builder
	for _, s := range d.Sheets {
		for r := range s.Grid {
			var cells []string
			for _, v := range s.Grid.Row(r) {
				if v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) == 0 {
				continue
			}
			b.WriteString(strings.Join(cells, " "))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
