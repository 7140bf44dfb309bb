package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/scan"
	"github.com/joseph-ayodele/records-ingest/internal/table"
)

var facultyScheduleScanner = scan.NewScanner(scan.FacultyScheduleLabels,
	scan.WithHeaderWords(table.FacultyScheduleColumns.Keywords()...))

// weekDays is the output order of DaysTeaching.
var weekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ExtractFacultySchedule reads a teaching-load sheet: the faculty name label
// and the header-mapped load table.
func ExtractFacultySchedule(_ context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	g, ok := doc.Primary()
	if !ok {
		return nil, nil
	}
	name := baseName(doc)

	f := facultyScheduleScanner.Scan(g, name)
	faculty := f[scan.FieldFullName]
	if faculty == "" {
		env.Logger.Warn("faculty schedule: faculty name not found", "filename", name)
		return nil, nil
	}

	loc, ok := table.Locate(g, table.FacultyScheduleSpec)
	if !ok || !loc.HasHeader() {
		env.Logger.Warn("faculty schedule: load table not found", "filename", name)
		return nil, nil
	}
	cols := table.MapColumns(g.Row(loc.HeaderRow), table.FacultyScheduleColumns)
	rows := table.Assemble(g, loc.DataStart, table.FacultyScheduleLayout(cols))
	if len(rows) == 0 {
		env.Logger.Warn("faculty schedule: no load rows", "filename", name)
		return nil, nil
	}

	loads := make([]entity.TeachingLoad, 0, len(rows))
	var dayCells []string
	for _, r := range rows {
		loads = append(loads, entity.TeachingLoad{
			SubjectCode: r[table.FieldSubjectCode],
			Description: r[table.FieldDescription],
			Section:     r[table.FieldSection],
			Day:         r[table.FieldDay],
			Time:        r[table.FieldTime],
			Room:        r[table.FieldRoom],
		})
		dayCells = append(dayCells, r[table.FieldDay])
	}

	dept := constants.DeptUnknown
	if d := f[scan.FieldDepartment]; d != "" {
		dept = departmentOf(env, d)
	}
	sched := entity.FacultySchedule{
		FacultyName:  faculty,
		Department:   dept,
		Loads:        loads,
		DaysTeaching: DaysTeaching(dayCells),
	}

	return &entity.ExtractionResult{
		Department: dept,
		Payload:    sched,
		Metadata: map[string]any{
			"faculty_name":  faculty,
			"department":    dept,
			"load_count":    len(loads),
			"days_teaching": strings.Join(sched.DaysTeaching, ", "),
			"data_type":     "faculty_schedule",
			"source_file":   name,
		},
		FormattedText: FormatFacultySchedule(sched),
		SourceFile:    name,
	}, nil
}

// DaysTeaching expands day cells such as "MWF" or "TTH" into the distinct
// week days they cover, in week order.
func DaysTeaching(cells []string) []string {
	seen := map[string]bool{}
	for _, cell := range cells {
		for _, tok := range strings.FieldsFunc(strings.ToUpper(cell), func(r rune) bool {
			return r == ',' || r == '/' || r == ' ' || r == '-'
		}) {
			for _, d := range expandDays(tok) {
				seen[d] = true
			}
		}
	}
	out := []string{}
	for _, d := range weekDays {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out
}

// expandDays reads one token: a day name ("MON", "THURSDAY") or packed
// letters ("MWF", "TTH"), where TH, SA and SU are read before single letters.
func expandDays(tok string) []string {
	if len(tok) >= 3 {
		for _, d := range weekDays {
			if strings.HasPrefix(strings.ToUpper(d), tok) {
				return []string{d}
			}
		}
	}
	var out []string
	for i := 0; i < len(tok); i++ {
		switch {
		case strings.HasPrefix(tok[i:], "TH"):
			out = append(out, "Thursday")
			i++
		case strings.HasPrefix(tok[i:], "SA"):
			out = append(out, "Saturday")
			i++
		case strings.HasPrefix(tok[i:], "SU"):
			out = append(out, "Sunday")
			i++
		case tok[i] == 'M':
			out = append(out, "Monday")
		case tok[i] == 'T':
			out = append(out, "Tuesday")
		case tok[i] == 'W':
			out = append(out, "Wednesday")
		case tok[i] == 'R':
			out = append(out, "Thursday")
		case tok[i] == 'F':
			out = append(out, "Friday")
		case tok[i] == 'S':
			out = append(out, "Saturday")
		}
	}
	return out
}

// FormatFacultySchedule renders a teaching load as plain text.
func FormatFacultySchedule(s entity.FacultySchedule) string {
	var b strings.Builder
	b.WriteString("FACULTY SCHEDULE\n\n")
	fmt.Fprintf(&b, "Faculty: %s\n", orNA(s.FacultyName))
	fmt.Fprintf(&b, "Department: %s\n", orNA(s.Department))
	fmt.Fprintf(&b, "Days Teaching: %s\n\n", orNA(strings.Join(s.DaysTeaching, ", ")))
	fmt.Fprintf(&b, "TEACHING LOAD (%d classes):\n", len(s.Loads))
	for _, l := range s.Loads {
		fmt.Fprintf(&b, "- %s %s | %s | %s %s | %s\n",
			l.SubjectCode, orNA(l.Description), orNA(l.Section), orNA(l.Day), orNA(l.Time), orNA(l.Room))
	}
	return strings.TrimSpace(b.String())
}
