package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/scan"
	"github.com/joseph-ayodele/records-ingest/internal/table"
)

var gradeScanner = scan.NewScanner(scan.GradeLabels,
	scan.WithWindow(scan.GradeLabelWindow),
	scan.WithHeaderWords(table.GradeColumns.Keywords()...))

// ExtractGrades reads a student's grade sheet. Sheets without a student
// number or without any grade row yield nothing.
func ExtractGrades(_ context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	g, ok := doc.Primary()
	if !ok {
		return nil, nil
	}
	name := baseName(doc)

	fields := gradeScanner.Scan(g, name)
	studentID := fields[scan.FieldStudentNumber]
	if studentID == "" {
		env.Logger.Warn("grades: student number not found", "filename", name)
		return nil, nil
	}

	loc, ok := table.Locate(g, table.GradeSpec)
	if !ok || !loc.HasHeader() {
		env.Logger.Warn("grades: grade table not found", "filename", name, "student_id", studentID)
		return nil, nil
	}
	cols := table.MapColumns(g.Row(loc.HeaderRow), table.GradeColumns)
	rows := table.Assemble(g, loc.DataStart, table.GradeLayout(cols))
	if len(rows) == 0 {
		env.Logger.Warn("grades: no grade rows", "filename", name, "student_id", studentID)
		return nil, nil
	}

	grades := make([]entity.GradeRecord, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, entity.GradeRecord{
			SubjectCode:        r[table.FieldSubjectCode],
			SubjectDescription: r[table.FieldSubjectDescription],
			Units:              r[table.FieldUnits],
			Equivalent:         r[table.FieldEquivalent],
			Remarks:            r[table.FieldRemarks],
		})
	}

	course := fields[scan.FieldCourse]
	if course == "" {
		course = scan.ProgramFromFilename(name)
	}
	dept := env.Classifier.Classify(course)
	sg := entity.StudentGrades{
		StudentID:   studentID,
		StudentName: fields[scan.FieldStudentName],
		Course:      course,
		GWA:         fields[scan.FieldGWA],
		Grades:      grades,
	}

	return &entity.ExtractionResult{
		Department: dept,
		Key:        studentID,
		Payload:    sg,
		Metadata: map[string]any{
			"student_id":    studentID,
			"student_name":  sg.StudentName,
			"course":        course,
			"gwa":           sg.GWA,
			"subject_count": len(grades),
			"data_type":     "student_grades",
			"department":    dept,
			"source_file":   name,
		},
		FormattedText: FormatGrades(sg),
		SourceFile:    name,
	}, nil
}

// StoreGrades upserts the grade sheet keyed by student ID. Students missing
// from the directory are rejected with common.ErrDependencyMissing and
// nothing is written.
func StoreGrades(ctx context.Context, env *dispatch.Env, res *entity.ExtractionResult) (string, error) {
	sg, ok := res.Payload.(entity.StudentGrades)
	if !ok {
		return "", fmt.Errorf("%w: grades payload has type %T", common.ErrInternal, res.Payload)
	}
	if env.Students == nil {
		return "", fmt.Errorf("%w: student directory is not configured", common.ErrInternal)
	}
	exists, err := env.Students.Exists(ctx, sg.StudentID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: student %s is not in the directory", common.ErrDependencyMissing, sg.StudentID)
	}
	return storeByKey(ctx, env, res)
}

// FormatGrades renders a grade sheet as plain text.
func FormatGrades(sg entity.StudentGrades) string {
	var b strings.Builder
	b.WriteString("STUDENT GRADES\n\n")
	fmt.Fprintf(&b, "Student Number: %s\n", orNA(sg.StudentID))
	fmt.Fprintf(&b, "Student Name: %s\n", orNA(sg.StudentName))
	fmt.Fprintf(&b, "Course: %s\n", orNA(sg.Course))
	fmt.Fprintf(&b, "GWA: %s\n\n", orNA(sg.GWA))
	fmt.Fprintf(&b, "GRADES (%d subjects):\n", len(sg.Grades))
	for _, gr := range sg.Grades {
		fmt.Fprintf(&b, "- %s | %s | %s units | %s | %s\n",
			gr.SubjectCode, gr.SubjectDescription, gr.Units, gr.Equivalent, gr.Remarks)
	}
	return strings.TrimSpace(b.String())
}
