// Package table finds tabular regions inside a grid, maps header cells to
// semantic fields and walks data rows into records.
package table

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/records-ingest/internal/grid"
)

// Window bounds the rows and leading cells considered when looking for a header.
type Window struct {
	MaxRows int
	MaxCols int
}

// DefaultWindow matches the depth at which sheet headers are found in practice.
var DefaultWindow = Window{MaxRows: 15, MaxCols: 15}

// CodePattern matches the first cell of a course row, e.g. "IT 101" or "GE102A".
var CodePattern = regexp.MustCompile(`(?i)^[A-Z]{2,4}\s*-?\s*\d{2,4}[A-Z]?\b`)

// Spec describes how to find one table.
type Spec struct {
	Keywords []string
	// Columns, when set, replaces Keywords: matches are counted per field.
	Columns    SynonymTable
	MinMatches int
	Window     Window
	// RowPattern is the data-start fallback used when no header row qualifies.
	RowPattern *regexp.Regexp
}

// Location is where a table starts. HeaderRow is -1 when the table was found
// by RowPattern alone.
type Location struct {
	HeaderRow int
	DataStart int
}

// HasHeader reports whether the location came from a header row.
func (l Location) HasHeader() bool { return l.HeaderRow >= 0 }

// LocateHeader returns the first row within w whose leading cells contain at
// least minMatches distinct keywords (case-insensitive substring), or -1.
func LocateHeader(g grid.RawGrid, keywords []string, minMatches int, w Window) int {
	groups := make([][]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToUpper(strings.TrimSpace(kw))
		if _, dup := seen[kw]; dup || kw == "" {
			continue
		}
		seen[kw] = struct{}{}
		groups = append(groups, []string{kw})
	}
	return locateGroups(g, groups, minMatches, w)
}

// LocateHeaderFields is LocateHeader counting fields instead of keywords: a
// field scores once when any of its synonyms is present.
func LocateHeaderFields(g grid.RawGrid, table SynonymTable, minMatches int, w Window) int {
	groups := make([][]string, 0, len(table))
	for _, s := range table {
		var hs []string
		for _, h := range s.Headers {
			if h = strings.ToUpper(strings.TrimSpace(h)); h != "" {
				hs = append(hs, h)
			}
		}
		if len(hs) > 0 {
			groups = append(groups, hs)
		}
	}
	return locateGroups(g, groups, minMatches, w)
}

func locateGroups(g grid.RawGrid, groups [][]string, minMatches int, w Window) int {
	if w.MaxRows <= 0 || w.MaxCols <= 0 {
		w = DefaultWindow
	}
	minMatches = max(minMatches, 1)
	if len(groups) < minMatches {
		return -1
	}

	rows := min(g.Rows(), w.MaxRows)
	for r := 0; r < rows; r++ {
		text := rowText(g, r, w.MaxCols)
		if text == "" {
			continue
		}
		hits := 0
		for _, group := range groups {
			if hasAny(text, group) {
				hits++
			}
		}
		if hits >= minMatches {
			return r
		}
	}
	return -1
}

// LocateDataStart returns the first row at or after from whose first cell
// matches pattern, or -1.
func LocateDataStart(g grid.RawGrid, pattern *regexp.Regexp, from int) int {
	if pattern == nil {
		return -1
	}
	for r := max(from, 0); r < g.Rows(); r++ {
		if pattern.MatchString(g.Cell(r, 0)) {
			return r
		}
	}
	return -1
}

// Locate finds the header row, or failing that the first row matching the
// spec's RowPattern. Data starts on the row after the header.
func Locate(g grid.RawGrid, s Spec) (Location, bool) {
	var h int
	if len(s.Columns) > 0 {
		h = LocateHeaderFields(g, s.Columns, s.MinMatches, s.Window)
	} else {
		h = LocateHeader(g, s.Keywords, s.MinMatches, s.Window)
	}
	if h >= 0 {
		return Location{HeaderRow: h, DataStart: h + 1}, true
	}
	if d := LocateDataStart(g, s.RowPattern, 0); d >= 0 {
		return Location{HeaderRow: -1, DataStart: d}, true
	}
	return Location{HeaderRow: -1, DataStart: -1}, false
}

func rowText(g grid.RawGrid, r, maxCols int) string {
	cols := min(len(g.Row(r)), maxCols)
	parts := make([]string, 0, cols)
	for c := 0; c < cols; c++ {
		if v := g.Cell(r, c); v != "" {
			parts = append(parts, strings.ToUpper(v))
		}
	}
	return strings.Join(parts, " ")
}
