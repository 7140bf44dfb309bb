// Package department maps program text such as "BSIT" or "Bachelor of
// Science in Hospitality Management" to an owning department code.
package department

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
)

// Kind is the matching strategy of a rule.
type Kind string

const (
	// KindKeyword matches full program names by substring.
	KindKeyword Kind = "keyword"
	// KindCode matches an abbreviated course code exactly.
	KindCode Kind = "code"
	// KindPrefix matches short "BS XX"/"BSXX" prefixes.
	KindPrefix Kind = "prefix"
)

// passes is the evaluation order. Keyword rules resolve unambiguous full
// names before the two-letter prefixes get a chance.
var passes = []Kind{KindKeyword, KindCode, KindPrefix}

// Rule is one entry of the classification table.
type Rule struct {
	Kind       Kind     `yaml:"kind"`
	Keywords   []string `yaml:"keywords,omitempty"`
	MatchAll   bool     `yaml:"match_all,omitempty"`
	Codes      []string `yaml:"codes,omitempty"`
	Prefixes   []string `yaml:"prefixes,omitempty"`
	Department string   `yaml:"department"`
}

func (r Rule) matches(upper string) bool {
	switch r.Kind {
	case KindKeyword:
		if len(r.Keywords) == 0 {
			return false
		}
		for _, kw := range r.Keywords {
			hit := strings.Contains(upper, kw)
			if r.MatchAll && !hit {
				return false
			}
			if !r.MatchAll && hit {
				return true
			}
		}
		return r.MatchAll
	case KindCode:
		for _, c := range r.Codes {
			if upper == c {
				return true
			}
		}
	case KindPrefix:
		for _, p := range r.Prefixes {
			if strings.HasPrefix(upper, p) {
				return true
			}
		}
	}
	return false
}

// Classifier evaluates an ordered rule table. It is immutable and safe for
// concurrent use.
type Classifier struct {
	rules []Rule
}

// New builds a classifier from rules, uppercasing every pattern.
func New(rules []Rule) (*Classifier, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		r.Department = strings.ToUpper(strings.TrimSpace(r.Department))
		if r.Department == "" {
			return nil, fmt.Errorf("%w: rule %d has no department", common.ErrInvalidInput, i)
		}
		switch r.Kind {
		case KindKeyword, KindCode, KindPrefix:
		default:
			return nil, fmt.Errorf("%w: rule %d has unknown kind %q", common.ErrInvalidInput, i, r.Kind)
		}
		r.Keywords = upperAll(r.Keywords)
		r.Codes = upperAll(r.Codes)
		r.Prefixes = upperAll(r.Prefixes)
		out = append(out, r)
	}
	return &Classifier{rules: out}, nil
}

// Default returns the classifier for the canonical table.
func Default() *Classifier {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the department owning program, or constants.DeptUnknown.
func (c *Classifier) Classify(program string) string {
	upper := strings.Join(strings.Fields(strings.ToUpper(program)), " ")
	if c == nil || upper == "" {
		return constants.DeptUnknown
	}
	for _, kind := range passes {
		for _, r := range c.rules {
			if r.Kind == kind && r.matches(upper) {
				return r.Department
			}
		}
	}
	return constants.DeptUnknown
}

// Rules returns a copy of the table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules builds a classifier from a YAML document of the form
//
//	rules:
//	  - kind: keyword
//	    keywords: [NURSING]
//	    department: CON
func LoadRules(data []byte) (*Classifier, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse department rules: %v", common.ErrInvalidInput, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("%w: department rules file has no rules", common.ErrInvalidInput)
	}
	return New(f.Rules)
}

// LoadRulesFile reads LoadRules input from path. An empty path yields Default.
func LoadRulesFile(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read department rules: %w", err)
	}
	return LoadRules(data)
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
