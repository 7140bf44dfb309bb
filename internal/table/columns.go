package table

import (
	"sort"
	"strings"

	"github.com/joseph-ayodele/records-ingest/internal/normalize"
)

// Synonyms lists the header texts that may introduce one field's column.
type Synonyms struct {
	Field   string
	Headers []string
}

// SynonymTable is an ordered field list. Order breaks ties between fields
// competing for the same column at equal score.
type SynonymTable []Synonyms

// Keywords flattens every header synonym, for use as LocateHeader keywords.
func (t SynonymTable) Keywords() []string {
	var out []string
	for _, s := range t {
		out = append(out, s.Headers...)
	}
	return out
}

// ColumnMap maps a field name to a column index. Unmapped fields are absent.
type ColumnMap map[string]int

// Col returns the column of field.
func (m ColumnMap) Col(field string) (int, bool) {
	c, ok := m[field]
	return c, ok
}

const exactBonus = 1000

type candidate struct {
	field int
	col   int
	score int
}

// MapColumns assigns each field the header column its synonyms match best.
// An exact match always outranks a whole-word substring match, and among
// matches of the same kind the longer synonym wins. Each column is given to
// at most one field; ties go to the earlier field, then the leftmost column.
func MapColumns(header []string, table SynonymTable) ColumnMap {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = strings.ToUpper(normalize.Clean(h))
	}

	var cands []candidate
	for fi, syn := range table {
		for col, cell := range cells {
			if cell == "" {
				continue
			}
			best := 0
			for _, h := range syn.Headers {
				h = strings.ToUpper(strings.TrimSpace(h))
				if h == "" {
					continue
				}
				score := 0
				switch {
				case cell == h:
					score = exactBonus + len(h)
				case containsWord(cell, h):
					score = len(h)
				}
				best = max(best, score)
			}
			if best > 0 {
				cands = append(cands, candidate{field: fi, col: col, score: best})
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.field != b.field {
			return a.field < b.field
		}
		return a.col < b.col
	})

	out := make(ColumnMap)
	taken := make(map[int]bool)
	for _, c := range cands {
		name := table[c.field].Field
		if _, done := out[name]; done || taken[c.col] {
			continue
		}
		out[name] = c.col
		taken[c.col] = true
	}
	return out
}

// containsWord reports whether w occurs in s with no letter or digit directly
// on either side.
func containsWord(s, w string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], w)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(w)
		if (start == 0 || !isAlnum(s[start-1])) && (end == len(s) || !isAlnum(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}
