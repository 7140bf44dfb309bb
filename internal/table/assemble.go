package table

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/normalize"
)

// Record is one assembled row keyed by field name.
type Record map[string]string

// Field is one output column of a layout.
type Field struct {
	Name    string
	Kind    normalize.Kind
	Default string
}

// Layout drives Assemble.
type Layout struct {
	Columns ColumnMap
	Fields  []Field
	// Required lists fields of which at least one must normalize to a value
	// for the row to be emitted. Defaults do not count.
	Required []string
	// Terminators end the walk when the first cell contains one of them.
	Terminators []string
	// StopOnBlank ends the walk at a row whose first cell is empty. Without
	// it blank rows are skipped.
	StopOnBlank bool
	// MinCells ends the walk at a row with fewer non-empty cells.
	MinCells int
	// RowPattern, when set, skips rows whose first cell does not match.
	RowPattern *regexp.Regexp
	// GroupPattern marks heading rows (e.g. "FIRST YEAR - 1ST SEMESTER").
	// The heading text is copied into GroupField of the records that follow.
	GroupPattern *regexp.Regexp
	GroupField   string
}

// FixedLayout maps fields to consecutive columns starting at 0.
func FixedLayout(fields []Field) ColumnMap {
	m := make(ColumnMap, len(fields))
	for i, f := range fields {
		m[f.Name] = i
	}
	return m
}

// Assemble walks g from startRow and returns the records accepted by l, in
// row order. It only reads g, so repeated calls yield the same sequence.
func Assemble(g grid.RawGrid, startRow int, l Layout) []Record {
	if startRow < 0 {
		return nil
	}

	terms := make([]string, 0, len(l.Terminators))
	for _, t := range l.Terminators {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	required := make(map[string]bool, len(l.Required))
	for _, f := range l.Required {
		required[f] = true
	}

	var (
		out   []Record
		group string
	)
	for r := startRow; r < g.Rows(); r++ {
		first := g.Cell(r, 0)

		if g.IsBlankRow(r) || first == "" {
			if l.StopOnBlank {
				break
			}
			if g.IsBlankRow(r) {
				continue
			}
		}
		if hasAny(strings.ToUpper(first), terms) {
			break
		}
		if l.MinCells > 0 && g.NonEmpty(r) < l.MinCells {
			break
		}
		if l.GroupPattern != nil && l.GroupPattern.MatchString(first) {
			group = normalize.Clean(strings.Join(g.Row(r), " "))
			continue
		}
		if l.RowPattern != nil && !l.RowPattern.MatchString(first) {
			continue
		}

		rec := make(Record, len(l.Fields)+1)
		valid := len(required) == 0
		for _, f := range l.Fields {
			var v string
			if col, ok := l.Columns.Col(f.Name); ok {
				v = normalize.Value(g.Cell(r, col), f.Kind)
			}
			if v != "" && required[f.Name] {
				valid = true
			}
			if v == "" {
				v = f.Default
			}
			rec[f.Name] = v
		}
		if !valid {
			continue
		}
		if l.GroupField != "" {
			rec[l.GroupField] = group
		}
		out = append(out, rec)
	}
	return out
}

func hasAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
