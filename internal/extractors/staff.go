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
)

const (
	staffTeaching    = "teaching"
	staffNonTeaching = "non_teaching"
	staffAdmin       = "admin"
)

var staffScanner = scan.NewScanner(scan.StaffLabels)

func ExtractTeachingFaculty(ctx context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	return extractStaff(ctx, env, doc, staffTeaching, "")
}

// ExtractNonTeachingFaculty files staff without a department under ADMIN.
func ExtractNonTeachingFaculty(ctx context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	return extractStaff(ctx, env, doc, staffNonTeaching, constants.DeptAdmin)
}

func ExtractAdmin(ctx context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	return extractStaff(ctx, env, doc, staffAdmin, constants.DeptAdmin)
}

// extractStaff reads a label-scanned personnel profile. fallbackDept is
// used when the department label is missing or unrecognized.
func extractStaff(_ context.Context, env *dispatch.Env, doc *grid.Document, staffType, fallbackDept string) (*entity.ExtractionResult, error) {
	g, ok := doc.Primary()
	if !ok {
		return nil, nil
	}
	name := baseName(doc)

	f := staffScanner.Scan(g, name)
	full := f[scan.FieldFullName]
	if full == "" {
		full = joinName(f[scan.FieldSurname], f[scan.FieldFirstName])
	}
	if full == "" {
		env.Logger.Warn("staff: name not found", "filename", name, "staff_type", staffType)
		return nil, nil
	}

	p := entity.StaffProfile{
		FullName:         full,
		Position:         f[scan.FieldPosition],
		Department:       f[scan.FieldDepartment],
		EmploymentStatus: f[scan.FieldEmploymentStatus],
		Email:            strings.ToLower(f[scan.FieldEmail]),
		Phone:            f[scan.FieldPhone],
		Address:          f[scan.FieldAddress],
		Sex:              f[scan.FieldSex],
		CivilStatus:      f[scan.FieldCivilStatus],
		DateOfBirth:      f[scan.FieldDateOfBirth],
		StaffType:        staffType,
	}

	dept := constants.DeptUnknown
	if p.Department != "" {
		dept = departmentOf(env, p.Department)
	}
	if dept == constants.DeptUnknown && fallbackDept != "" {
		dept = fallbackDept
	}

	return &entity.ExtractionResult{
		Department: dept,
		Payload:    p,
		Metadata: map[string]any{
			"full_name":         p.FullName,
			"position":          p.Position,
			"department":        dept,
			"employment_status": p.EmploymentStatus,
			"staff_type":        staffType,
			"data_type":         staffType + "_profile",
			"source_file":       name,
		},
		FormattedText: FormatStaff(p, dept),
		SourceFile:    name,
	}, nil
}

// FormatStaff renders a personnel profile as plain text.
func FormatStaff(p entity.StaffProfile, dept string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s PROFILE\n\n", strings.ToUpper(strings.ReplaceAll(p.StaffType, "_", "-")))
	fmt.Fprintf(&b, "Name: %s\n", orNA(p.FullName))
	fmt.Fprintf(&b, "Position: %s\n", orNA(p.Position))
	fmt.Fprintf(&b, "Department: %s\n", orNA(dept))
	fmt.Fprintf(&b, "Employment Status: %s\n", orNA(p.EmploymentStatus))
	fmt.Fprintf(&b, "Email: %s\n", orNA(p.Email))
	fmt.Fprintf(&b, "Phone: %s\n", orNA(p.Phone))
	fmt.Fprintf(&b, "Address: %s\n", orNA(p.Address))
	return strings.TrimSpace(b.String())
}
