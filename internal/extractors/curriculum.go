package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/scan"
	"github.com/joseph-ayodele/records-ingest/internal/table"
)

var curriculumScanner = scan.NewScanner(scan.CurriculumLabels,
	scan.WithHeaderWords(table.CurriculumColumns.Keywords()...))

// ExtractCurriculum reads a program curriculum. Re-uploads of the same
// program and effectivity replace the stored curriculum.
func ExtractCurriculum(_ context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	g, ok := doc.Primary()
	if !ok {
		return nil, nil
	}
	name := baseName(doc)

	f := curriculumScanner.Scan(g, name)
	program := f[scan.FieldProgram]
	if program == "" {
		env.Logger.Warn("curriculum: program not found", "filename", name)
		return nil, nil
	}

	loc, ok := table.Locate(g, table.CurriculumSpec)
	if !ok {
		env.Logger.Warn("curriculum: course list not found", "filename", name)
		return nil, nil
	}
	cols := table.FixedLayout(curriculumPositional)
	if loc.HasHeader() {
		cols = table.MapColumns(g.Row(loc.HeaderRow), table.CurriculumColumns)
	}
	rows := table.Assemble(g, loc.DataStart, table.CurriculumLayout(cols))
	if len(rows) == 0 {
		env.Logger.Warn("curriculum: no course rows", "filename", name)
		return nil, nil
	}

	courses := make([]entity.CurriculumCourse, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, entity.CurriculumCourse{
			Term:         r[table.FieldTerm],
			CourseCode:   r[table.FieldCourseCode],
			Description:  r[table.FieldDescription],
			LecUnits:     r[table.FieldLecUnits],
			LabUnits:     r[table.FieldLabUnits],
			Units:        r[table.FieldUnits],
			Prerequisite: r[table.FieldPrerequisite],
		})
	}

	dept := env.Classifier.Classify(program)
	c := entity.Curriculum{
		Program:       program,
		EffectiveYear: f[scan.FieldEffectiveYear],
		Courses:       courses,
	}
	key := program
	if c.EffectiveYear != "" {
		key += ":" + c.EffectiveYear
	}

	return &entity.ExtractionResult{
		Department: dept,
		Key:        key,
		Payload:    c,
		Metadata: map[string]any{
			"program":        program,
			"effective_year": c.EffectiveYear,
			"course_count":   len(courses),
			"department":     dept,
			"data_type":      "curriculum",
			"source_file":    name,
		},
		FormattedText: FormatCurriculum(c),
		SourceFile:    name,
	}, nil
}

// curriculumPositional is the column order assumed when a course list has
// no recognizable header.
var curriculumPositional = []table.Field{
	{Name: table.FieldCourseCode},
	{Name: table.FieldDescription},
	{Name: table.FieldLecUnits},
	{Name: table.FieldLabUnits},
	{Name: table.FieldUnits},
	{Name: table.FieldPrerequisite},
}

// FormatCurriculum renders a curriculum grouped by term.
func FormatCurriculum(c entity.Curriculum) string {
	var b strings.Builder
	b.WriteString("CURRICULUM\n\n")
	fmt.Fprintf(&b, "Program: %s\n", orNA(c.Program))
	fmt.Fprintf(&b, "Effective: %s\n", orNA(c.EffectiveYear))
	fmt.Fprintf(&b, "Courses: %d\n", len(c.Courses))
	term := "\x00"
	for _, course := range c.Courses {
		if course.Term != term {
			term = course.Term
			fmt.Fprintf(&b, "\n%s\n", orNA(term))
		}
		fmt.Fprintf(&b, "- %s %s (%s units) prerequisite: %s\n",
			course.CourseCode, orNA(course.Description), orNA(course.Units), orNA(course.Prerequisite))
	}
	return strings.TrimSpace(b.String())
}
