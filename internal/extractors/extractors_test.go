package extractors

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/department"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

var fixedNow = time.Date(2024, 8, 12, 9, 30, 0, 0, time.UTC)

func testEnv() *dispatch.Env {
	return &dispatch.Env{
		Logger:     common.LogConfig{Level: "error"}.NewLogger(),
		Classifier: department.Default(),
		Now:        func() time.Time { return fixedNow },
	}
}

func doc(name string, g grid.RawGrid) *grid.Document {
	return &grid.Document{Filename: name, Sheets: []grid.Sheet{{Name: "Sheet1", Grid: g}}}
}

func openStore(t *testing.T) *repository.Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "records.db")
	s, err := repository.Open(context.Background(), repository.Config{DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

var corGrid = grid.RawGrid{
	{"CERTIFICATE OF REGISTRATION"},
	{"PROGRAM:", "BS COMPUTER SCIENCE", "", "YEAR LEVEL:", "2", "", "SECTION:", "A"},
	{"SEMESTER:", "1ST", "", "ADVISER:", "Prof. Ana Lim"},
	{},
	{"SUBJECT CODE", "DESCRIPTION", "TYPE", "UNITS", "DAY", "TIME START", "TIME END", "ROOM"},
	{"CS 201", "Data Structures", "LEC", "3", "MWF", "0.3333333333", "0.375", "Rm 301"},
	{"CS 202", "Discrete Math", "LEC", "3", "TTH", "0.5", "0.5625", "Rm 302"},
	{"TOTAL UNITS", "", "", "6"},
}

func TestExtractCOR(t *testing.T) {
	res, err := ExtractCOR(context.Background(), testEnv(), doc("cor_bscs.xlsx", corGrid))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, constants.DeptCCS, res.Department)
	sched, ok := res.Payload.(entity.Schedule)
	require.True(t, ok)
	assert.Equal(t, "COR_CCS_BSCS_Y2_A_1723455000", sched.ScheduleID)
	assert.Equal(t, entity.ProgramInfo{
		Program:   "BSCS",
		YearLevel: "2",
		Section:   "A",
		Adviser:   "Prof. Ana Lim",
		Term:      "1st Semester",
	}, sched.ProgramInfo)
	assert.Equal(t, "6", sched.TotalUnits)

	require.Len(t, sched.Subjects, 2)
	assert.Equal(t, entity.Subject{
		SubjectCode: "CS201",
		Description: "Data Structures",
		Type:        "LEC",
		Units:       "3",
		Day:         "MWF",
		TimeStart:   "8:00 AM",
		TimeEnd:     "9:00 AM",
		Room:        "Rm 301",
	}, sched.Subjects[0])
	assert.Equal(t, "12:00 PM", sched.Subjects[1].TimeStart)
	assert.Equal(t, "1:30 PM", sched.Subjects[1].TimeEnd)

	assert.Equal(t, "CS201, CS202", res.Metadata["subject_codes"])
	assert.Equal(t, 2, res.Metadata["subject_count"])
	assert.Contains(t, res.FormattedText, "ENROLLED SUBJECTS (2 subjects):")
	assert.Contains(t, res.FormattedText, "Total Units: 6")
}

func TestExtractCORNeedsProgram(t *testing.T) {
	g := grid.RawGrid{
		{"SUBJECT CODE", "DESCRIPTION", "TYPE", "UNITS"},
		{"CS 201", "Data Structures", "LEC", "3"},
	}
	res, err := ExtractCOR(context.Background(), testEnv(), doc("schedule.xlsx", g))
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = ExtractCOR(context.Background(), testEnv(), doc("empty.xlsx", nil))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTotalUnitsPrefersLabelRow(t *testing.T) {
	g := grid.RawGrid{
		{"CS 201", "Data Structures", "LEC", "3"},
		{"TOTAL UNITS", "", "", "21"},
	}
	assert.Equal(t, "21", TotalUnits(g))
	assert.Equal(t, "", TotalUnits(grid.RawGrid{{"TOTAL UNITS"}}))
}

var gradeGrid = grid.RawGrid{
	{"STUDENT GRADE REPORT"},
	{"STUDENT NUMBER:", "2021-0001", "", "NAME:", "dela cruz, juan"},
	{"COURSE:", "BS Information Technology"},
	{},
	{"SUBJECT CODE", "DESCRIPTIVE TITLE", "UNITS", "FINAL GRADE", "REMARKS"},
	{"IT 101", "Intro to Computing", "3", "1.5", "Passed"},
	{"IT 102", "", "3", "2", "Passed"},
	{"GWA", "1.75"},
}

func TestExtractGrades(t *testing.T) {
	res, err := ExtractGrades(context.Background(), testEnv(), doc("grades.xlsx", gradeGrid))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "2021-0001", res.Key)
	assert.Equal(t, constants.DeptCCS, res.Department)
	sg := res.Payload.(entity.StudentGrades)
	assert.Equal(t, "Dela Cruz, Juan", sg.StudentName)
	assert.Equal(t, "BSIT", sg.Course)
	assert.Equal(t, "1.75", sg.GWA)
	assert.Equal(t, []entity.GradeRecord{
		{SubjectCode: "IT101", SubjectDescription: "Intro to Computing", Units: "3", Equivalent: "1.5", Remarks: "PASSED"},
		{SubjectCode: "IT102", SubjectDescription: "Unknown Subject", Units: "3", Equivalent: "2", Remarks: "PASSED"},
	}, sg.Grades)
}

func TestStoreGradesRequiresKnownStudent(t *testing.T) {
	ctx := context.Background()
	env := testEnv()
	env.Records = repository.NewRecordRepository(openStore(t), nil)
	env.Students = repository.NewMapDirectory()

	res, err := ExtractGrades(ctx, env, doc("grades.xlsx", gradeGrid))
	require.NoError(t, err)
	res.Category = constants.Grades

	_, err = StoreGrades(ctx, env, res)
	require.ErrorIs(t, err, common.ErrDependencyMissing)
	stored, err := env.Records.ListByCategory(ctx, constants.Grades)
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NoError(t, env.Students.Upsert(ctx, &entity.StudentRecord{StudentID: "2021-0001"}))
	id, err := StoreGrades(ctx, env, res)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

var rosterGrid = grid.RawGrid{
	{"STUDENT MASTERLIST"},
	{"STUDENT ID", "SURNAME", "FIRST NAME", "COURSE", "YEAR", "SECTION", "CONTACT NUMBER"},
	{"2021-0001", "Dela Cruz", "Juan", "BSIT", "2", "A", "0917 123 4567"},
	{"2022-0002", "Santos", "Maria", "BSHM", "1", "B", ""},
}

func TestExtractStudents(t *testing.T) {
	res, err := ExtractStudents(context.Background(), testEnv(), doc("masterlist.xlsx", rosterGrid))
	require.NoError(t, err)
	require.NotNil(t, res)

	roster := res.Payload.(entity.StudentRoster)
	require.Len(t, roster.Students, 2)
	juan := roster.Students[0]
	assert.Equal(t, "2021-0001", juan.StudentID)
	assert.Equal(t, "Dela Cruz, Juan", juan.FullName)
	assert.Equal(t, "BSIT", juan.Course)
	assert.Equal(t, "2", juan.YearLevel)
	assert.Equal(t, "A", juan.Section)
	assert.Equal(t, "09171234567", juan.ContactNumber)
	assert.Equal(t, constants.DeptCCS, juan.Department)
	assert.Equal(t, constants.DeptCHTM, roster.Students[1].Department)
	assert.Equal(t, fixedNow, juan.UpdatedAt)

	assert.Equal(t, constants.DeptUnknown, res.Department, "mixed departments")
	assert.Equal(t, map[string]int{constants.DeptCCS: 1, constants.DeptCHTM: 1}, res.Metadata["departments"])
}

func TestJoinName(t *testing.T) {
	assert.Equal(t, "Reyes, Ana", joinName("Reyes", "Ana"))
	assert.Equal(t, "Reyes", joinName("Reyes", ""))
	assert.Equal(t, "Ana", joinName("", "Ana"))
	assert.Equal(t, "", joinName("", ""))
}

func TestExtractStaff(t *testing.T) {
	ctx := context.Background()
	g := grid.RawGrid{
		{"FACULTY PROFILE"},
		{"NAME:", "maria santos"},
		{"POSITION:", "Instructor I"},
		{"DEPARTMENT:", "Information Technology"},
		{"EMAIL:", "MSantos@School.edu"},
	}
	res, err := ExtractTeachingFaculty(ctx, testEnv(), doc("profile.xlsx", g))
	require.NoError(t, err)
	require.NotNil(t, res)
	p := res.Payload.(entity.StaffProfile)
	assert.Equal(t, "Maria Santos", p.FullName)
	assert.Equal(t, "Instructor I", p.Position)
	assert.Equal(t, "msantos@school.edu", p.Email)
	assert.Equal(t, "teaching", p.StaffType)
	assert.Equal(t, constants.DeptCCS, res.Department)

	staff := grid.RawGrid{
		{"NAME:", "pedro reyes"},
		{"POSITION:", "Registrar Staff"},
	}
	res, err = ExtractNonTeachingFaculty(ctx, testEnv(), doc("staff.xlsx", staff))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, constants.DeptAdmin, res.Department)
	assert.Equal(t, "non_teaching", res.Payload.(entity.StaffProfile).StaffType)

	res, err = ExtractTeachingFaculty(ctx, testEnv(), doc("staff.xlsx", staff))
	require.NoError(t, err)
	assert.Equal(t, constants.DeptUnknown, res.Department, "teaching faculty has no fallback")

	res, err = ExtractAdmin(ctx, testEnv(), doc("blank.xlsx", grid.RawGrid{{"POSITION:", "Dean"}}))
	require.NoError(t, err)
	assert.Nil(t, res, "a profile without a name yields nothing")
}

func TestExtractFacultySchedule(t *testing.T) {
	g := grid.RawGrid{
		{"FACULTY NAME:", "juan reyes"},
		{"DEPARTMENT:", "CCS"},
		{},
		{"SUBJECT CODE", "DESCRIPTION", "SECTION", "DAY", "TIME", "ROOM"},
		{"IT 101", "Intro", "BSIT-1A", "MWF", "8:00-9:00 AM", "Rm 1"},
		{"IT 202", "Data Structures", "BSIT-2A", "TTH", "1:00-2:30 PM", "Lab 2"},
	}
	res, err := ExtractFacultySchedule(context.Background(), testEnv(), doc("load.xlsx", g))
	require.NoError(t, err)
	require.NotNil(t, res)

	s := res.Payload.(entity.FacultySchedule)
	assert.Equal(t, "Juan Reyes", s.FacultyName)
	assert.Equal(t, constants.DeptCCS, s.Department)
	require.Len(t, s.Loads, 2)
	assert.Equal(t, entity.TeachingLoad{
		SubjectCode: "IT202",
		Description: "Data Structures",
		Section:     "BSIT-2A",
		Day:         "TTH",
		Time:        "1:00-2:30 PM",
		Room:        "Lab 2",
	}, s.Loads[1])
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, s.DaysTeaching)
}

func TestDaysTeaching(t *testing.T) {
	cases := []struct {
		cells []string
		want  []string
	}{
		{[]string{"MWF"}, []string{"Monday", "Wednesday", "Friday"}},
		{[]string{"TTH"}, []string{"Tuesday", "Thursday"}},
		{[]string{"Sat", "M/W"}, []string{"Monday", "Wednesday", "Saturday"}},
		{[]string{"THU, fri"}, []string{"Thursday", "Friday"}},
		{[]string{"", "M-W"}, []string{"Monday", "Wednesday"}},
		{nil, []string{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DaysTeaching(tc.cells), "%v", tc.cells)
	}
}

var curriculumGrid = grid.RawGrid{
	{"PROGRAM:", "BS Information Technology"},
	{"EFFECTIVITY:", "2023-2024"},
	{},
	{"COURSE CODE", "DESCRIPTIVE TITLE", "LEC", "LAB", "UNITS", "PRE-REQUISITE"},
	{"FIRST YEAR - FIRST SEMESTER"},
	{"CC 101", "Introduction to Computing", "2", "1", "3", "None"},
	{"GE 101", "Understanding the Self", "3", "0", "3", ""},
	{"TOTAL", "", "", "", "6"},
	{"FIRST YEAR - SECOND SEMESTER"},
	{"CC 102", "Computer Programming 1", "2", "1", "3", "CC 101"},
}

func TestExtractCurriculum(t *testing.T) {
	res, err := ExtractCurriculum(context.Background(), testEnv(), doc("curriculum.xlsx", curriculumGrid))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "BSIT:2023-2024", res.Key)
	assert.Equal(t, constants.DeptCCS, res.Department)
	c := res.Payload.(entity.Curriculum)
	require.Len(t, c.Courses, 3)
	assert.Equal(t, entity.CurriculumCourse{
		Term:         "FIRST YEAR - FIRST SEMESTER",
		CourseCode:   "CC101",
		Description:  "Introduction to Computing",
		LecUnits:     "2",
		LabUnits:     "1",
		Units:        "3",
		Prerequisite: "None",
	}, c.Courses[0])
	assert.Equal(t, "None", c.Courses[1].Prerequisite)
	assert.Equal(t, "FIRST YEAR - SECOND SEMESTER", c.Courses[2].Term)
	assert.Equal(t, "CC 101", c.Courses[2].Prerequisite)
	assert.Contains(t, res.FormattedText, "FIRST YEAR - SECOND SEMESTER")
}

func TestSplitSections(t *testing.T) {
	text := "University Profile\nMISSION\nTo provide quality education.\n\nVISION: A leading university.\nCORE VALUES\nExcellence\nIntegrity\nMission\nServe the community."
	got := SplitSections(text)
	assert.Equal(t, []entity.InfoSection{
		{InfoType: "mission", Title: "MISSION", Content: "To provide quality education.\nServe the community."},
		{InfoType: "vision", Title: "VISION", Content: "A leading university."},
		{InfoType: "core_values", Title: "CORE VALUES", Content: "Excellence\nIntegrity"},
	}, got)

	assert.Empty(t, SplitSections("Just a paragraph without headings."))
}

func TestExtractGeneralInfoFallsBackToFilename(t *testing.T) {
	d := &grid.Document{Filename: "school_history.txt", Text: "Founded in 1946 by the Sisters."}
	res, err := ExtractGeneralInfo(context.Background(), testEnv(), d)
	require.NoError(t, err)
	require.NotNil(t, res)
	info := res.Payload.(entity.GeneralInfo)
	require.Len(t, info.Sections, 1)
	assert.Equal(t, "history", info.Sections[0].InfoType)
	assert.Equal(t, constants.DeptAdmin, res.Department)

	res, err = ExtractGeneralInfo(context.Background(), testEnv(), &grid.Document{Filename: "blank.txt"})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRegistryEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	env := testEnv()
	reg, err := dispatch.NewRegistry(dispatch.Env{
		Logger:     env.Logger,
		Records:    repository.NewRecordRepository(store, nil),
		Students:   repository.NewStudentRepository(store, nil),
		Classifier: env.Classifier,
		Now:        env.Now,
	}, Handlers())
	require.NoError(t, err)
	records := reg.Env().Records

	out := reg.Dispatch(ctx, "grades", doc("grades.xlsx", gradeGrid))
	assert.Equal(t, constants.OutcomeStudentNotFound, out.Outcome)
	stored, err := records.ListByCategory(ctx, constants.Grades)
	require.NoError(t, err)
	assert.Empty(t, stored)

	out = reg.Dispatch(ctx, "students_data", doc("masterlist.xlsx", rosterGrid))
	require.Equal(t, constants.OutcomeStored, out.Outcome, "%v", out.Err)
	ok, err := reg.Env().Students.Exists(ctx, "2021-0001")
	require.NoError(t, err)
	assert.True(t, ok)

	first := reg.Dispatch(ctx, "grades", doc("grades.xlsx", gradeGrid))
	require.Equal(t, constants.OutcomeStored, first.Outcome, "%v", first.Err)

	regraded := append(grid.RawGrid{}, gradeGrid...)
	regraded[len(regraded)-1] = []string{"GWA", "1.50"}
	second := reg.Dispatch(ctx, "grades", doc("grades-final.xlsx", regraded))
	require.Equal(t, constants.OutcomeStored, second.Outcome, "%v", second.Err)
	assert.Equal(t, first.RecordID, second.RecordID, "a newer sheet replaces the student's grades")

	stored, err = records.ListByCategory(ctx, constants.Grades)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	var sg entity.StudentGrades
	require.NoError(t, json.Unmarshal(stored[0].Payload, &sg))
	assert.Equal(t, "1.50", sg.GWA)
	assert.Equal(t, "grades-final.xlsx", stored[0].SourceFile)

	out = reg.Dispatch(ctx, "cor", doc("cor.xlsx", corGrid))
	assert.Equal(t, constants.OutcomeStored, out.Outcome, "%v", out.Err)
	out = reg.Dispatch(ctx, "curriculum", doc("curriculum.xlsx", curriculumGrid))
	assert.Equal(t, constants.OutcomeStored, out.Outcome, "%v", out.Err)

	info := &grid.Document{Filename: "about.txt", Text: "MISSION\nTo serve.\nVISION\nTo lead."}
	out = reg.Dispatch(ctx, "generalinfo", info)
	require.Equal(t, constants.OutcomeStored, out.Outcome, "%v", out.Err)
	info.Text = "MISSION\nTo serve better."
	out = reg.Dispatch(ctx, "generalinfo", info)
	require.Equal(t, constants.OutcomeStored, out.Outcome, "%v", out.Err)
	stored, err = records.ListByCategory(ctx, constants.GeneralInfo)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "one record per info type")

	out = reg.Dispatch(ctx, "cor", doc("notes.xlsx", grid.RawGrid{{"nothing to see"}}))
	assert.Equal(t, constants.OutcomeNoExtractedData, out.Outcome)
}
