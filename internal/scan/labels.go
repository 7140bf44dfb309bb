package scan

import (
	"regexp"

	"github.com/joseph-ayodele/records-ingest/internal/normalize"
)

// Field names shared by extractors.
const (
	FieldProgram          = "program"
	FieldYearLevel        = "year_level"
	FieldSection          = "section"
	FieldTerm             = "term"
	FieldAdviser          = "adviser"
	FieldStudentNumber    = "student_number"
	FieldStudentName      = "student_name"
	FieldCourse           = "course"
	FieldGWA              = "gwa"
	FieldFullName         = "full_name"
	FieldSurname          = "surname"
	FieldFirstName        = "first_name"
	FieldPosition         = "position"
	FieldDepartment       = "department"
	FieldEmploymentStatus = "employment_status"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldAddress          = "address"
	FieldSex              = "sex"
	FieldCivilStatus      = "civil_status"
	FieldDateOfBirth      = "date_of_birth"
	FieldEffectiveYear    = "effective_year"
	FieldSchoolYear       = "school_year"
)

var (
	fileYear    = regexp.MustCompile(`(\d)(?:ST|ND|RD|TH)?\s*(?:YR|YEAR|Y)`)
	fileSection = regexp.MustCompile(`SEC(?:TION)?[-_ ]?([A-Z])(?:[^A-Z]|$)|_([A-Z])_`)
)

// ProgramFromFilename extracts a course code such as BSCS from a file base name.
func ProgramFromFilename(base string) string {
	return normalize.ProgramCode(base)
}

// YearFromFilename extracts the year digit from names like COR_BSIT_2YR.
func YearFromFilename(base string) string {
	if m := fileYear.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return ""
}

// SectionFromFilename extracts the section letter from names like COR_BSIT_SECA.
func SectionFromFilename(base string) string {
	m := fileSection.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// CORLabels finds the program header of a certificate of registration.
var CORLabels = LabelSet{
	{Field: FieldProgram, Keywords: []string{"PROGRAM", "COURSE"}, Kind: normalize.Program, Fallback: ProgramFromFilename},
	{Field: FieldYearLevel, Keywords: []string{"YEAR LEVEL", "YEAR", "LEVEL"}, Kind: normalize.YearLevel, Fallback: YearFromFilename},
	{Field: FieldSection, Keywords: []string{"SECTION", "SEC"}, Kind: normalize.Section, Fallback: SectionFromFilename},
	{Field: FieldTerm, Keywords: []string{"TERM", "SEMESTER"}, Kind: normalize.Term},
	{Field: FieldAdviser, Keywords: []string{"ADVISER", "ADVISOR", "INSTRUCTOR"}, Kind: normalize.Adviser, MinLength: 5},
	{Field: FieldSchoolYear, Keywords: []string{"SCHOOL YEAR", "ACADEMIC YEAR", "S.Y."}, Kind: normalize.Text},
}

// GradeLabels finds the student header of a grade sheet.
var GradeLabels = LabelSet{
	{Field: FieldStudentNumber, Keywords: []string{"STUDENT NUMBER", "STUDENT NO", "STUDENT ID", "ID NUMBER", "ID NO"}, Kind: normalize.StudentID},
	{Field: FieldStudentName, Keywords: []string{"STUDENT NAME", "FULL NAME", "NAME"}, Kind: normalize.Name, MinLength: 3},
	{Field: FieldCourse, Keywords: []string{"COURSE", "PROGRAM", "DEGREE"}, Kind: normalize.Program},
	{Field: FieldGWA, Keywords: []string{"GENERAL WEIGHTED AVERAGE", "GWA", "AVERAGE"}, Kind: normalize.GWA},
}

// GradeLabelWindow is narrower than DefaultWindow: grade headers sit above the table.
var GradeLabelWindow = Window{MaxRows: 20, MaxCols: 10}

// StaffLabels finds the fields of a faculty, staff, or administrator profile sheet.
var StaffLabels = LabelSet{
	{Field: FieldFullName, Keywords: []string{"FULL NAME", "FACULTY NAME", "EMPLOYEE NAME", "NAME"}, Kind: normalize.Name, MinLength: 3},
	{Field: FieldSurname, Keywords: []string{"SURNAME", "LAST NAME", "FAMILY NAME"}, Kind: normalize.Name},
	{Field: FieldFirstName, Keywords: []string{"FIRST NAME", "GIVEN NAME"}, Kind: normalize.Name},
	{Field: FieldPosition, Keywords: []string{"POSITION", "DESIGNATION", "RANK"}, Kind: normalize.Text},
	{Field: FieldDepartment, Keywords: []string{"DEPARTMENT", "COLLEGE", "OFFICE"}, Kind: normalize.Text},
	{Field: FieldEmploymentStatus, Keywords: []string{"EMPLOYMENT STATUS", "STATUS"}, Kind: normalize.Text},
	{Field: FieldEmail, Keywords: []string{"EMAIL ADDRESS", "E-MAIL", "EMAIL"}, Kind: normalize.Text},
	{Field: FieldPhone, Keywords: []string{"CONTACT NUMBER", "MOBILE NUMBER", "PHONE", "CELLPHONE"}, Kind: normalize.Phone},
	{Field: FieldAddress, Keywords: []string{"ADDRESS"}, Kind: normalize.Text},
	{Field: FieldSex, Keywords: []string{"SEX", "GENDER"}, Kind: normalize.Text},
	{Field: FieldCivilStatus, Keywords: []string{"CIVIL STATUS"}, Kind: normalize.Text},
	{Field: FieldDateOfBirth, Keywords: []string{"DATE OF BIRTH", "BIRTHDATE", "BIRTHDAY"}, Kind: normalize.Text},
}

// FacultyScheduleLabels finds the owner of a teaching-load sheet.
var FacultyScheduleLabels = LabelSet{
	{Field: FieldFullName, Keywords: []string{"FACULTY NAME", "INSTRUCTOR", "PROFESSOR", "FACULTY", "NAME"}, Kind: normalize.Name, MinLength: 3},
	{Field: FieldDepartment, Keywords: []string{"DEPARTMENT", "COLLEGE"}, Kind: normalize.Text},
}

// CurriculumLabels finds the program and effectivity of a curriculum sheet.
var CurriculumLabels = LabelSet{
	{Field: FieldProgram, Keywords: []string{"PROGRAM", "COURSE", "DEGREE"}, Kind: normalize.Program, Fallback: ProgramFromFilename},
	{Field: FieldEffectiveYear, Keywords: []string{"EFFECTIVE", "EFFECTIVITY", "SCHOOL YEAR", "ACADEMIC YEAR", "S.Y."}, Kind: normalize.Text},
}
