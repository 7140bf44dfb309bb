// Package normalize cleans raw cell strings into typed field values.
// Value never fails: unusable input yields "" (or "N/A" for times).
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind selects the cleaning rule applied to a raw value.
type Kind int

const (
	Text Kind = iota
	Program
	YearLevel
	Section
	Adviser
	ExcelTime
	Term
	Name
	SubjectCode
	Units
	Grade
	Remarks
	StudentID
	Phone
	GWA
)

// NotAvailable is the placeholder emitted for unparsable times and unmapped fields.
const NotAvailable = "N/A"

var (
	leadingSep  = regexp.MustCompile(`^[:=\-–—]+\s*`)
	trailingSep = regexp.MustCompile(`\s*[:=\-–—]+$`)
	spaces      = regexp.MustCompile(`\s+`)

	courseCode     = regexp.MustCompile(`\b(BS[A-Z]{2,4}|AB[A-Z]{2,4}|BECED|BTLE)\b`)
	yearDigit      = regexp.MustCompile(`[1-4]`)
	standaloneCap  = regexp.MustCompile(`\b([A-Z])\b`)
	notAdviserChar = regexp.MustCompile(`[^a-zA-Z\s.,]`)
	notCodeChar    = regexp.MustCompile(`[^A-Z0-9-]`)
	number         = regexp.MustCompile(`\d+(\.\d+)?`)
	nonAlnum       = regexp.MustCompile(`[^A-Z0-9]+`)
)

var placeholders = map[string]struct{}{
	"N/A":  {},
	"NA":   {},
	"NONE": {},
	"NULL": {},
	"TBA":  {},
	"TBD":  {},
}

// programNames maps full program names to course codes; first substring match wins.
var programNames = []struct {
	name string
	code string
}{
	{"BACHELOR OF SCIENCE IN COMPUTER SCIENCE", "BSCS"},
	{"BS COMPUTER SCIENCE", "BSCS"},
	{"COMPUTER SCIENCE", "BSCS"},
	{"BACHELOR OF SCIENCE IN INFORMATION TECHNOLOGY", "BSIT"},
	{"BS INFORMATION TECHNOLOGY", "BSIT"},
	{"INFORMATION TECHNOLOGY", "BSIT"},
	{"BACHELOR OF SCIENCE IN HOSPITALITY MANAGEMENT", "BSHM"},
	{"BS HOSPITALITY MANAGEMENT", "BSHM"},
	{"HOSPITALITY MANAGEMENT", "BSHM"},
	{"BACHELOR OF SCIENCE IN TOURISM MANAGEMENT", "BSTM"},
	{"BS TOURISM MANAGEMENT", "BSTM"},
	{"TOURISM MANAGEMENT", "BSTM"},
	{"BACHELOR OF SCIENCE IN BUSINESS ADMINISTRATION", "BSBA"},
	{"BS BUSINESS ADMINISTRATION", "BSBA"},
	{"BUSINESS ADMINISTRATION", "BSBA"},
	{"BACHELOR OF SCIENCE IN OFFICE ADMINISTRATION", "BSOA"},
	{"BS OFFICE ADMINISTRATION", "BSOA"},
	{"OFFICE ADMINISTRATION", "BSOA"},
	{"BACHELOR OF ELEMENTARY EDUCATION", "BECED"},
	{"ELEMENTARY EDUCATION", "BECED"},
	{"BACHELOR OF TECHNOLOGY AND LIVELIHOOD EDUCATION", "BTLE"},
	{"TECHNOLOGY AND LIVELIHOOD EDUCATION", "BTLE"},
}

var gradeStatuses = []string{"PASSED", "FAILED", "INCOMPLETE", "DROPPED", "WITHDREW", "INC", "DRP", "P", "F"}

var titleCaser = cases.Title(language.Und)

// Value normalizes raw according to kind. The empty string means "no value".
func Value(raw string, kind Kind) string {
	if kind == ExcelTime {
		return Time(raw)
	}
	v := Clean(raw)
	if v == "" {
		return ""
	}

	switch kind {
	case Program:
		return program(v)
	case YearLevel:
		return yearDigit.FindString(v)
	case Section:
		return section(v)
	case Adviser:
		return collapse(notAdviserChar.ReplaceAllString(v, ""))
	case Term:
		return term(v)
	case Name:
		return TitleCase(v)
	case SubjectCode:
		code := notCodeChar.ReplaceAllString(strings.ToUpper(v), "")
		if len(code) < 2 {
			return ""
		}
		return code
	case Units:
		return number.FindString(v)
	case Grade:
		return grade(v)
	case Remarks:
		return remarks(v)
	case StudentID:
		return notCodeChar.ReplaceAllString(strings.ToUpper(v), "")
	case Phone:
		return phone(v)
	case GWA:
		return gwa(v)
	default:
		return v
	}
}

// Clean trims whitespace and bounding separators and maps placeholders to "".
func Clean(raw string) string {
	v := strings.TrimSpace(raw)
	v = leadingSep.ReplaceAllString(v, "")
	v = trailingSep.ReplaceAllString(v, "")
	v = collapse(v)
	if IsPlaceholder(v) {
		return ""
	}
	return v
}

// IsPlaceholder reports whether v is one of the "no data" markers found in sheets.
func IsPlaceholder(v string) bool {
	_, ok := placeholders[strings.ToUpper(strings.TrimSpace(v))]
	return ok
}

// TitleCase renders names as "Dela Cruz, Juan".
func TitleCase(v string) string {
	return titleCaser.String(collapse(v))
}

func collapse(v string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(v, " "))
}

func program(v string) string {
	upper := strings.ToUpper(v)
	for _, p := range programNames {
		if strings.Contains(upper, p.name) {
			return p.code
		}
	}
	if m := courseCode.FindString(upper); m != "" {
		return m
	}
	return v
}

// ProgramCode returns the course code embedded in text, or "" when none is found.
// Underscores and punctuation count as word breaks, so file names work too.
func ProgramCode(text string) string {
	upper := nonAlnum.ReplaceAllString(strings.ToUpper(text), " ")
	for _, p := range programNames {
		if strings.Contains(upper, p.name) {
			return p.code
		}
	}
	return courseCode.FindString(upper)
}

func section(v string) string {
	if m := standaloneCap.FindStringSubmatch(v); m != nil {
		return m[1]
	}
	return strings.ToUpper(string([]rune(v)[0]))
}

func term(v string) string {
	upper := strings.ToUpper(v)
	switch {
	case strings.Contains(upper, "1ST") || strings.Contains(upper, "FIRST"):
		return "1st Semester"
	case strings.Contains(upper, "2ND") || strings.Contains(upper, "SECOND"):
		return "2nd Semester"
	case strings.Contains(upper, "3RD") || strings.Contains(upper, "THIRD"):
		return "3rd Semester"
	case strings.Contains(upper, "SUMMER"):
		return "Summer"
	default:
		return v
	}
}

func grade(v string) string {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f >= 1.0 && f <= 5.0 {
			return v
		}
		return ""
	}
	upper := strings.ToUpper(v)
	for _, s := range gradeStatuses {
		if upper == s {
			return s
		}
	}
	return ""
}

func remarks(v string) string {
	upper := strings.ToUpper(v)
	for _, s := range gradeStatuses {
		if upper == s {
			return s
		}
	}
	for _, s := range gradeStatuses {
		if len(s) > 3 && strings.Contains(upper, s) {
			return s
		}
	}
	return upper
}

func phone(v string) string {
	var b strings.Builder
	digits := 0
	for i, r := range strings.TrimSpace(v) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	if digits < 7 || digits > 15 {
		return ""
	}
	return b.String()
}

func gwa(v string) string {
	m := number.FindString(v)
	if m == "" {
		return ""
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f < 1.0 || f > 5.0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
