package table

import (
	"regexp"

	"github.com/joseph-ayodele/records-ingest/internal/normalize"
)

// Schedule field names, shared by the COR and faculty schedule layouts.
const (
	FieldSubjectCode = "subject_code"
	FieldDescription = "description"
	FieldType        = "type"
	FieldUnits       = "units"
	FieldDay         = "day"
	FieldTimeStart   = "time_start"
	FieldTimeEnd     = "time_end"
	FieldTime        = "time"
	FieldRoom        = "room"
	FieldSection     = "section"
)

// Grade field names.
const (
	FieldSubjectDescription = "subject_description"
	FieldEquivalent         = "equivalent"
	FieldRemarks            = "remarks"
)

// Student roster field names.
const (
	FieldStudentID       = "student_id"
	FieldFullName        = "full_name"
	FieldSurname         = "surname"
	FieldFirstName       = "first_name"
	FieldYear            = "year"
	FieldCourse          = "course"
	FieldContactNumber   = "contact_number"
	FieldGuardianName    = "guardian_name"
	FieldGuardianContact = "guardian_contact"
)

// Curriculum field names.
const (
	FieldCourseCode   = "course_code"
	FieldLecUnits     = "lec_units"
	FieldLabUnits     = "lab_units"
	FieldPrerequisite = "prerequisite"
	FieldTerm         = "term"
)

// CORFields are the positional columns of a certificate of registration schedule.
var CORFields = []Field{
	{Name: FieldSubjectCode, Kind: normalize.SubjectCode},
	{Name: FieldDescription, Kind: normalize.Text},
	{Name: FieldType, Kind: normalize.Text},
	{Name: FieldUnits, Kind: normalize.Units},
	{Name: FieldDay, Kind: normalize.Text},
	{Name: FieldTimeStart, Kind: normalize.ExcelTime},
	{Name: FieldTimeEnd, Kind: normalize.ExcelTime},
	{Name: FieldRoom, Kind: normalize.Text},
}

// CORSpec finds the schedule table of a COR sheet.
var CORSpec = Spec{
	Keywords:   []string{"SUBJECT CODE", "DESCRIPTION", "TYPE", "UNITS", "DAY", "TIME", "ROOM"},
	MinMatches: 3,
	Window:     Window{MaxRows: 30, MaxCols: 15},
	RowPattern: CodePattern,
}

// CORLayout is the fixed-position COR schedule walk.
var CORLayout = Layout{
	Columns:     FixedLayout(CORFields),
	Fields:      CORFields,
	Required:    []string{FieldSubjectCode},
	Terminators: []string{"TOTAL", "SUMMARY", "GRADE"},
	StopOnBlank: true,
	MinCells:    2,
}

// GradeColumns maps grade sheet headers.
var GradeColumns = SynonymTable{
	{Field: FieldSubjectCode, Headers: []string{"SUBJECT CODE", "COURSE CODE", "SUBJ CODE", "CODE"}},
	{Field: FieldSubjectDescription, Headers: []string{"SUBJECT DESCRIPTION", "DESCRIPTIVE TITLE", "SUBJECT TITLE", "COURSE TITLE", "DESCRIPTION", "SUBJECT", "TITLE"}},
	{Field: FieldUnits, Headers: []string{"UNITS", "UNIT", "CREDITS", "CREDIT"}},
	{Field: FieldEquivalent, Headers: []string{"EQUIVALENT", "FINAL GRADE", "GRADE", "RATING"}},
	{Field: FieldRemarks, Headers: []string{"REMARKS", "REMARK", "STATUS"}},
}

// GradeSpec finds the grade table.
var GradeSpec = Spec{
	Columns:    GradeColumns,
	MinMatches: 3,
	Window:     DefaultWindow,
}

// GradeLayout returns the header-mapped grade walk for cols.
func GradeLayout(cols ColumnMap) Layout {
	return Layout{
		Columns: cols,
		Fields: []Field{
			{Name: FieldSubjectCode, Kind: normalize.SubjectCode, Default: normalize.NotAvailable},
			{Name: FieldSubjectDescription, Kind: normalize.Text, Default: "Unknown Subject"},
			{Name: FieldUnits, Kind: normalize.Units, Default: "3"},
			{Name: FieldEquivalent, Kind: normalize.Grade, Default: normalize.NotAvailable},
			{Name: FieldRemarks, Kind: normalize.Remarks, Default: normalize.NotAvailable},
		},
		Required:    []string{FieldSubjectCode, FieldSubjectDescription},
		Terminators: []string{"TOTAL", "GWA", "AVERAGE", "SUMMARY"},
	}
}

// StudentColumns maps student roster headers.
var StudentColumns = SynonymTable{
	{Field: FieldStudentID, Headers: []string{"STUDENT ID", "STUDENT NUMBER", "STUDENT NO", "ID NUMBER", "ID NO", "ID"}},
	{Field: FieldFullName, Headers: []string{"FULL NAME", "STUDENT NAME", "NAME"}},
	{Field: FieldSurname, Headers: []string{"SURNAME", "LAST NAME", "FAMILY NAME"}},
	{Field: FieldFirstName, Headers: []string{"FIRST NAME", "GIVEN NAME"}},
	{Field: FieldYear, Headers: []string{"YEAR LEVEL", "YEAR", "YR"}},
	{Field: FieldCourse, Headers: []string{"COURSE", "PROGRAM", "DEGREE"}},
	{Field: FieldSection, Headers: []string{"SECTION", "SEC"}},
	{Field: FieldContactNumber, Headers: []string{"CONTACT NUMBER", "CONTACT NO", "MOBILE NUMBER", "MOBILE", "PHONE", "CONTACT"}},
	{Field: FieldGuardianName, Headers: []string{"GUARDIAN NAME", "PARENT NAME", "GUARDIAN", "PARENT"}},
	{Field: FieldGuardianContact, Headers: []string{"GUARDIAN CONTACT", "GUARDIAN NUMBER", "PARENT CONTACT", "EMERGENCY CONTACT"}},
}

// StudentSpec finds the roster header.
var StudentSpec = Spec{
	Columns:    StudentColumns,
	MinMatches: 3,
	Window:     Window{MaxRows: 20, MaxCols: 20},
}

// StudentLayout returns the roster walk for cols.
func StudentLayout(cols ColumnMap) Layout {
	return Layout{
		Columns: cols,
		Fields: []Field{
			{Name: FieldStudentID, Kind: normalize.StudentID},
			{Name: FieldFullName, Kind: normalize.Name},
			{Name: FieldSurname, Kind: normalize.Name},
			{Name: FieldFirstName, Kind: normalize.Name},
			{Name: FieldYear, Kind: normalize.YearLevel},
			{Name: FieldCourse, Kind: normalize.Program},
			{Name: FieldSection, Kind: normalize.Section},
			{Name: FieldContactNumber, Kind: normalize.Phone},
			{Name: FieldGuardianName, Kind: normalize.Name},
			{Name: FieldGuardianContact, Kind: normalize.Phone},
		},
		Required:    []string{FieldStudentID},
		Terminators: []string{"TOTAL", "NOTHING FOLLOWS"},
	}
}

// FacultyScheduleColumns maps teaching-load headers.
var FacultyScheduleColumns = SynonymTable{
	{Field: FieldSubjectCode, Headers: []string{"SUBJECT CODE", "COURSE CODE", "CODE"}},
	{Field: FieldDescription, Headers: []string{"DESCRIPTIVE TITLE", "SUBJECT TITLE", "DESCRIPTION", "SUBJECT", "TITLE"}},
	{Field: FieldSection, Headers: []string{"SECTION", "SEC", "CLASS"}},
	{Field: FieldDay, Headers: []string{"DAYS", "DAY"}},
	{Field: FieldTime, Headers: []string{"TIME", "SCHEDULE"}},
	{Field: FieldRoom, Headers: []string{"ROOM", "VENUE"}},
	{Field: FieldUnits, Headers: []string{"UNITS", "UNIT"}},
}

// FacultyScheduleSpec finds the teaching-load table.
var FacultyScheduleSpec = Spec{
	Columns:    FacultyScheduleColumns,
	MinMatches: 3,
	Window:     Window{MaxRows: 25, MaxCols: 15},
	RowPattern: CodePattern,
}

// FacultyScheduleLayout returns the teaching-load walk for cols.
func FacultyScheduleLayout(cols ColumnMap) Layout {
	return Layout{
		Columns: cols,
		Fields: []Field{
			{Name: FieldSubjectCode, Kind: normalize.SubjectCode},
			{Name: FieldDescription, Kind: normalize.Text},
			{Name: FieldSection, Kind: normalize.Text},
			{Name: FieldDay, Kind: normalize.Text},
			{Name: FieldTime, Kind: normalize.Text},
			{Name: FieldRoom, Kind: normalize.Text},
			{Name: FieldUnits, Kind: normalize.Units},
		},
		Required:    []string{FieldSubjectCode, FieldDescription},
		Terminators: []string{"TOTAL", "PREPARED BY", "APPROVED"},
	}
}

// CurriculumColumns maps curriculum course-list headers.
var CurriculumColumns = SynonymTable{
	{Field: FieldCourseCode, Headers: []string{"COURSE CODE", "SUBJECT CODE", "CODE"}},
	{Field: FieldDescription, Headers: []string{"DESCRIPTIVE TITLE", "COURSE TITLE", "DESCRIPTION", "TITLE"}},
	{Field: FieldLecUnits, Headers: []string{"LEC UNITS", "LECTURE", "LEC"}},
	{Field: FieldLabUnits, Headers: []string{"LAB UNITS", "LABORATORY", "LAB"}},
	{Field: FieldUnits, Headers: []string{"TOTAL UNITS", "UNITS", "CREDITS"}},
	{Field: FieldPrerequisite, Headers: []string{"PRE-REQUISITE", "PREREQUISITE", "PRE-REQ", "PREREQ"}},
}

// curriculumCode is looser than CodePattern: curricula list codes like "NSTP 1".
var curriculumCode = regexp.MustCompile(`(?i)^[A-Z]{2,5}\s*-?\s*\d{1,4}[A-Z]?\b`)

// termHeading matches group rows such as "FIRST YEAR - FIRST SEMESTER".
var termHeading = regexp.MustCompile(`(?i)^(FIRST|SECOND|THIRD|FOURTH|FIFTH|1ST|2ND|3RD|4TH|5TH)\s+YEAR\b|^SUMMER\b`)

// CurriculumSpec finds the course list of a curriculum sheet.
var CurriculumSpec = Spec{
	Columns:    CurriculumColumns,
	MinMatches: 3,
	Window:     Window{MaxRows: 25, MaxCols: 15},
	RowPattern: CodePattern,
}

// CurriculumLayout returns the course-list walk for cols. Term headings
// between blocks are carried into each course's term field.
func CurriculumLayout(cols ColumnMap) Layout {
	return Layout{
		Columns: cols,
		Fields: []Field{
			{Name: FieldCourseCode, Kind: normalize.SubjectCode},
			{Name: FieldDescription, Kind: normalize.Text},
			{Name: FieldLecUnits, Kind: normalize.Units},
			{Name: FieldLabUnits, Kind: normalize.Units},
			{Name: FieldUnits, Kind: normalize.Units},
			{Name: FieldPrerequisite, Kind: normalize.Text, Default: "None"},
		},
		Required:     []string{FieldCourseCode},
		RowPattern:   curriculumCode,
		GroupPattern: termHeading,
		GroupField:   FieldTerm,
	}
}
