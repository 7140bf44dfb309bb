// Package scan locates labeled values anywhere inside a bounded grid window.
package scan

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/normalize"
)

// Label describes one field to find: the keywords that introduce it and how
// to clean the value next to them. Labels are static configuration.
type Label struct {
	Field     string
	Keywords  []string
	Kind      normalize.Kind
	MinLength int
	Fallback  func(base string) string
}

// LabelSet is an ordered list of labels. Order breaks ties between labels
// whose keywords match the same cell with equal length.
type LabelSet []Label

// Window bounds the scanned region, counted from the top-left cell.
type Window struct {
	MaxRows int
	MaxCols int
}

// DefaultWindow is the region labels are expected to appear in.
var DefaultWindow = Window{MaxRows: 30, MaxCols: 15}

type keyword struct {
	text string
	re   *regexp.Regexp
}

type compiledLabel struct {
	Label
	keywords []keyword
	capture  *regexp.Regexp
}

// Scanner resolves a LabelSet against grids. It is safe for concurrent use.
type Scanner struct {
	labels []compiledLabel
	window Window
	header *regexp.Regexp
	bare   *regexp.Regexp
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWindow overrides DefaultWindow.
func WithWindow(w Window) Option {
	return func(s *Scanner) {
		if w.MaxRows > 0 && w.MaxCols > 0 {
			s.window = w
		}
	}
}

// WithHeaderWords ignores cells containing any of words, both as labels and
// as values. Used when labels share a sheet with a table header, so "COURSE
// CODE" is neither read as a COURSE label nor taken as a value.
func WithHeaderWords(words ...string) Option {
	return func(s *Scanner) {
		if len(words) > 0 {
			s.header = alternation(words, "")
		}
	}
}

// NewScanner compiles labels.
func NewScanner(labels LabelSet, opts ...Option) *Scanner {
	s := &Scanner{window: DefaultWindow}
	var all []string
	for _, l := range labels {
		all = append(all, l.Keywords...)
		cl := compiledLabel{Label: l}
		kws := upperSortedByLength(l.Keywords)
		for _, kw := range kws {
			cl.keywords = append(cl.keywords, keyword{text: kw, re: alternation([]string{kw}, "")})
		}
		cl.capture = alternation(kws, `\s*[:=.]?\s*(.+)`)
		s.labels = append(s.labels, cl)
	}
	s.bare = anchored(alternation(all, `\s*[:=.]?`))
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fields scans g with labels in the default window.
func Fields(g grid.RawGrid, labels LabelSet, filename string) map[string]string {
	return NewScanner(labels).Scan(g, filename)
}

// Scan walks the window row-major. The first non-empty normalized value for a
// field locks it. Fields still unresolved afterwards fall back to the file's
// base name when the label defines a Fallback and filename is not empty.
func (s *Scanner) Scan(g grid.RawGrid, filename string) map[string]string {
	out := make(map[string]string)

	rows := min(g.Rows(), s.window.MaxRows)
	for r := 0; r < rows && len(out) < len(s.labels); r++ {
		cols := min(len(g[r]), s.window.MaxCols)
		for c := 0; c < cols; c++ {
			cell := g.Cell(r, c)
			if cell == "" {
				continue
			}
			l := s.match(cell, out)
			if l == nil || s.isHeader(cell) {
				continue
			}
			if v := s.resolve(g, r, c, cell, l); v != "" {
				out[l.Field] = v
			}
		}
	}

	if filename == "" {
		return out
	}
	base := strings.ToUpper(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	for _, l := range s.labels {
		if _, done := out[l.Field]; done || l.Fallback == nil {
			continue
		}
		if v := normalize.Value(l.Fallback(base), l.Kind); v != "" {
			out[l.Field] = v
		}
	}
	return out
}

// match returns the unresolved label owning the longest keyword found in cell.
func (s *Scanner) match(cell string, resolved map[string]string) *compiledLabel {
	var best *compiledLabel
	bestLen := 0
	for i := range s.labels {
		if _, done := resolved[s.labels[i].Field]; done {
			continue
		}
		for _, kw := range s.labels[i].keywords {
			if len(kw.text) <= bestLen {
				break
			}
			if kw.re.MatchString(cell) {
				best, bestLen = &s.labels[i], len(kw.text)
				break
			}
		}
	}
	return best
}

// resolve tries the text after the keyword, then the right cell, then the cell below.
func (s *Scanner) resolve(g grid.RawGrid, r, c int, cell string, l *compiledLabel) string {
	var same string
	if m := l.capture.FindStringSubmatch(cell); m != nil {
		same = m[1]
	}
	candidates := [...]string{same, g.Cell(r, c+1), g.Cell(r+1, c)}
	for i, raw := range candidates {
		if raw == "" || len([]rune(raw)) < l.MinLength {
			continue
		}
		if i > 0 && s.isBareLabel(raw) {
			continue
		}
		if s.isHeader(raw) {
			continue
		}
		if v := normalize.Value(raw, l.Kind); v != "" {
			return v
		}
	}
	return ""
}

func (s *Scanner) isHeader(v string) bool {
	return s.header != nil && s.header.MatchString(v)
}

// isBareLabel reports whether v is nothing but a keyword, as in "SECTION:".
// "2nd Year" contains a keyword but is a value.
func (s *Scanner) isBareLabel(v string) bool {
	return s.bare.MatchString(strings.TrimSpace(v))
}

// alternation builds a case-insensitive, word-bounded pattern for words followed by suffix.
func alternation(words []string, suffix string) *regexp.Regexp {
	parts := make([]string, 0, len(words))
	for _, w := range upperSortedByLength(words) {
		p := regexp.QuoteMeta(w)
		if isWordByte(w[0]) {
			p = `\b` + p
		}
		if isWordByte(w[len(w)-1]) {
			p += `\b`
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return regexp.MustCompile(`[^\s\S]`)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)` + suffix)
}

func anchored(re *regexp.Regexp) *regexp.Regexp {
	expr := re.String()
	if rest, ok := strings.CutPrefix(expr, "(?i)"); ok {
		return regexp.MustCompile(`(?i)^` + rest + `$`)
	}
	return regexp.MustCompile(`^` + expr + `$`)
}

func upperSortedByLength(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToUpper(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}
