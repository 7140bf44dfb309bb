package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/table"
)

// ExtractStudents reads a student roster. Each student's department comes
// from their own course; the record department is shared only when every
// student agrees.
func ExtractStudents(_ context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	g, ok := doc.Primary()
	if !ok {
		return nil, nil
	}
	name := baseName(doc)

	loc, ok := table.Locate(g, table.StudentSpec)
	if !ok || !loc.HasHeader() {
		env.Logger.Warn("students: roster header not found", "filename", name)
		return nil, nil
	}
	cols := table.MapColumns(g.Row(loc.HeaderRow), table.StudentColumns)
	rows := table.Assemble(g, loc.DataStart, table.StudentLayout(cols))
	if len(rows) == 0 {
		env.Logger.Warn("students: roster is empty", "filename", name)
		return nil, nil
	}

	now := env.Now().UTC()
	depts := map[string]int{}
	students := make([]entity.StudentRecord, 0, len(rows))
	for _, r := range rows {
		s := entity.StudentRecord{
			StudentID:       r[table.FieldStudentID],
			FullName:        r[table.FieldFullName],
			Surname:         r[table.FieldSurname],
			FirstName:       r[table.FieldFirstName],
			YearLevel:       r[table.FieldYear],
			Course:          r[table.FieldCourse],
			Section:         r[table.FieldSection],
			ContactNumber:   r[table.FieldContactNumber],
			GuardianName:    r[table.FieldGuardianName],
			GuardianContact: r[table.FieldGuardianContact],
			SourceFile:      name,
			UpdatedAt:       now,
		}
		if s.FullName == "" {
			s.FullName = joinName(s.Surname, s.FirstName)
		}
		s.Department = env.Classifier.Classify(s.Course)
		depts[s.Department]++
		students = append(students, s)
	}

	dept := constants.DeptUnknown
	if len(depts) == 1 {
		for d := range depts {
			dept = d
		}
	}

	roster := entity.StudentRoster{Students: students}
	return &entity.ExtractionResult{
		Department: dept,
		Payload:    roster,
		Metadata: map[string]any{
			"student_count": len(students),
			"departments":   depts,
			"data_type":     "student_roster",
			"source_file":   name,
		},
		FormattedText: FormatStudents(roster),
		SourceFile:    name,
	}, nil
}

// StoreStudents feeds every student into the directory, then stores the
// roster itself.
func StoreStudents(ctx context.Context, env *dispatch.Env, res *entity.ExtractionResult) (string, error) {
	roster, ok := res.Payload.(entity.StudentRoster)
	if !ok {
		return "", fmt.Errorf("%w: roster payload has type %T", common.ErrInternal, res.Payload)
	}
	if env.Students == nil {
		return "", fmt.Errorf("%w: student directory is not configured", common.ErrInternal)
	}
	for i := range roster.Students {
		if err := env.Students.Upsert(ctx, &roster.Students[i]); err != nil {
			return "", err
		}
	}
	env.Logger.Info("student directory updated", "students", len(roster.Students), "source_file", res.SourceFile)
	return storeInsert(ctx, env, res)
}

// joinName builds "Surname, First" from whichever parts are present.
func joinName(surname, first string) string {
	switch {
	case surname != "" && first != "":
		return surname + ", " + first
	case surname != "":
		return surname
	default:
		return first
	}
}

// FormatStudents renders a roster as plain text.
func FormatStudents(r entity.StudentRoster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "STUDENT ROSTER (%d students)\n\n", len(r.Students))
	for _, s := range r.Students {
		fmt.Fprintf(&b, "- %s | %s | %s %s%s | %s\n",
			s.StudentID, orNA(s.FullName), orNA(s.Course), orNA(s.YearLevel), s.Section, s.Department)
	}
	return strings.TrimSpace(b.String())
}
