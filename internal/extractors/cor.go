package extractors

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/scan"
	"github.com/joseph-ayodele/records-ingest/internal/table"
)

var corScanner = scan.NewScanner(scan.CORLabels, scan.WithHeaderWords("SUBJECT CODE", "DESCRIPTION", "UNITS"))

var unitsValue = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ExtractCOR reads a certificate of registration: the program header, the
// fixed-layout schedule and the total units. Files without a program or
// without any subject row yield nothing.
func ExtractCOR(_ context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	g, ok := doc.Primary()
	if !ok {
		return nil, nil
	}
	name := baseName(doc)

	fields := corScanner.Scan(g, name)
	info := entity.ProgramInfo{
		Program:   fields[scan.FieldProgram],
		YearLevel: fields[scan.FieldYearLevel],
		Section:   fields[scan.FieldSection],
		Adviser:   fields[scan.FieldAdviser],
		Term:      fields[scan.FieldTerm],
	}
	if info.Program == "" {
		env.Logger.Warn("cor: program not found", "filename", name)
		return nil, nil
	}

	loc, ok := table.Locate(g, table.CORSpec)
	if !ok {
		env.Logger.Warn("cor: schedule table not found", "filename", name)
		return nil, nil
	}
	rows := table.Assemble(g, loc.DataStart, table.CORLayout)
	if len(rows) == 0 {
		env.Logger.Warn("cor: schedule is empty", "filename", name, "data_start", loc.DataStart)
		return nil, nil
	}

	subjects := make([]entity.Subject, 0, len(rows))
	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, entity.Subject{
			SubjectCode: r[table.FieldSubjectCode],
			Description: r[table.FieldDescription],
			Type:        r[table.FieldType],
			Units:       r[table.FieldUnits],
			Day:         r[table.FieldDay],
			TimeStart:   r[table.FieldTimeStart],
			TimeEnd:     r[table.FieldTimeEnd],
			Room:        r[table.FieldRoom],
		})
		codes = append(codes, r[table.FieldSubjectCode])
	}

	dept := env.Classifier.Classify(info.Program)
	sched := entity.Schedule{
		ScheduleID:  ScheduleID(dept, info, env.Now().Unix()),
		ProgramInfo: info,
		Subjects:    subjects,
		TotalUnits:  TotalUnits(g),
	}

	return &entity.ExtractionResult{
		Department: dept,
		Payload:    sched,
		Metadata: map[string]any{
			"course":        info.Program,
			"section":       info.Section,
			"term":          info.Term,
			"year":          info.YearLevel,
			"adviser":       info.Adviser,
			"school_year":   fields[scan.FieldSchoolYear],
			"data_type":     "cor_schedule",
			"subject_codes": strings.Join(codes, ", "),
			"subject_count": len(subjects),
			"total_units":   sched.TotalUnits,
			"department":    dept,
			"source_file":   name,
		},
		FormattedText: FormatCOR(sched),
		SourceFile:    name,
	}, nil
}

// ScheduleID builds COR_<dept>_<course>_Y<year>_<section>_<unix>.
func ScheduleID(dept string, info entity.ProgramInfo, unix int64) string {
	return fmt.Sprintf("COR_%s_%s_Y%s_%s_%d", dept, idPart(info.Program), idPart(info.YearLevel), idPart(info.Section), unix)
}

func idPart(v string) string {
	v = strings.ToUpper(strings.Join(strings.Fields(v), ""))
	if v == "" {
		return "NA"
	}
	return v
}

// TotalUnits finds a "TOTAL UNITS" (or credits) label anywhere in g and
// returns the first number within one row and up to three columns of it,
// looking at the label's own row first.
func TotalUnits(g grid.RawGrid) string {
	for r := 0; r < g.Rows(); r++ {
		for c := range g[r] {
			cell := strings.ToUpper(g.Cell(r, c))
			if !strings.Contains(cell, "TOTAL") || (!strings.Contains(cell, "UNIT") && !strings.Contains(cell, "CREDIT")) {
				continue
			}
			for _, dr := range [...]int{0, -1, 1} {
				for dc := -1; dc <= 3; dc++ {
					if v := g.Cell(r+dr, c+dc); unitsValue.MatchString(v) {
						return v
					}
				}
			}
		}
	}
	return ""
}

// FormatCOR renders a schedule as the plain-text summary stored alongside it.
func FormatCOR(s entity.Schedule) string {
	var b strings.Builder
	b.WriteString("COR (Certificate of Registration) - Class Schedule\n\n")
	b.WriteString("PROGRAM INFORMATION:\n")
	fmt.Fprintf(&b, "Program: %s\n", orNA(s.ProgramInfo.Program))
	fmt.Fprintf(&b, "Year Level: %s\n", orNA(s.ProgramInfo.YearLevel))
	fmt.Fprintf(&b, "Section: %s\n", orNA(s.ProgramInfo.Section))
	fmt.Fprintf(&b, "Term: %s\n", orNA(s.ProgramInfo.Term))
	fmt.Fprintf(&b, "Adviser: %s\n", orNA(s.ProgramInfo.Adviser))
	fmt.Fprintf(&b, "Total Units: %s\n\n", orNA(s.TotalUnits))
	fmt.Fprintf(&b, "ENROLLED SUBJECTS (%d subjects):\n", len(s.Subjects))
	for i, sub := range s.Subjects {
		fmt.Fprintf(&b, "\nSubject %d:\n", i+1)
		fmt.Fprintf(&b, "- Subject Code: %s\n", orNA(sub.SubjectCode))
		fmt.Fprintf(&b, "- Description: %s\n", orNA(sub.Description))
		fmt.Fprintf(&b, "- Type: %s\n", orNA(sub.Type))
		fmt.Fprintf(&b, "- Units: %s\n", orNA(sub.Units))
		fmt.Fprintf(&b, "- Schedule: %s %s-%s\n", orNA(sub.Day), orNA(sub.TimeStart), orNA(sub.TimeEnd))
		fmt.Fprintf(&b, "- Room: %s\n", orNA(sub.Room))
	}
	return strings.TrimSpace(b.String())
}
