package entity

import "time"

// ProgramInfo is the label-scanned header of a COR. Empty string means unresolved.
type ProgramInfo struct {
	Program   string `json:"program"`
	YearLevel string `json:"year_level,omitempty"`
	Section   string `json:"section,omitempty"`
	Adviser   string `json:"adviser,omitempty"`
	Term      string `json:"term,omitempty"`
}

// Subject is one row of a class schedule. TimeStart and TimeEnd are "H:MM AM/PM" or "N/A".
type Subject struct {
	SubjectCode string `json:"subject_code"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Units       string `json:"units"`
	Day         string `json:"day"`
	TimeStart   string `json:"time_start"`
	TimeEnd     string `json:"time_end"`
	Room        string `json:"room"`
}

// Schedule is the payload stored for a COR.
type Schedule struct {
	ScheduleID  string      `json:"schedule_id"`
	ProgramInfo ProgramInfo `json:"program_info"`
	Subjects    []Subject   `json:"schedule"`
	TotalUnits  string      `json:"total_units,omitempty"`
}

// GradeRecord is one subject line of a grade sheet.
type GradeRecord struct {
	SubjectCode        string `json:"subject_code"`
	SubjectDescription string `json:"subject_description"`
	Units              string `json:"units"`
	Equivalent         string `json:"equivalent"`
	Remarks            string `json:"remarks"`
}

// StudentGrades is the payload stored for a grade sheet, keyed by StudentID.
type StudentGrades struct {
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name,omitempty"`
	Course      string        `json:"course,omitempty"`
	GWA         string        `json:"gwa,omitempty"`
	Grades      []GradeRecord `json:"grades"`
}

// StudentRecord is a Student Directory entry.
type StudentRecord struct {
	StudentID       string    `json:"student_id"`
	FullName        string    `json:"full_name"`
	Surname         string    `json:"surname,omitempty"`
	FirstName       string    `json:"first_name,omitempty"`
	YearLevel       string    `json:"year_level,omitempty"`
	Course          string    `json:"course,omitempty"`
	Section         string    `json:"section,omitempty"`
	Department      string    `json:"department"`
	ContactNumber   string    `json:"contact_number,omitempty"`
	GuardianName    string    `json:"guardian_name,omitempty"`
	GuardianContact string    `json:"guardian_contact,omitempty"`
	SourceFile      string    `json:"source_file,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StaffProfile covers teaching faculty, non-teaching staff, and administrators.
type StaffProfile struct {
	FullName         string `json:"full_name"`
	Position         string `json:"position,omitempty"`
	Department       string `json:"department,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	Sex              string `json:"sex,omitempty"`
	CivilStatus      string `json:"civil_status,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	StaffType        string `json:"staff_type"`
}

// TeachingLoad is one row of a faculty schedule.
type TeachingLoad struct {
	SubjectCode string `json:"subject_code"`
	Description string `json:"description"`
	Section     string `json:"section"`
	Day         string `json:"day"`
	Time        string `json:"time"`
	Room        string `json:"room"`
}

// FacultySchedule is the payload stored for a faculty schedule.
type FacultySchedule struct {
	FacultyName  string         `json:"faculty_name"`
	Department   string         `json:"department"`
	Loads        []TeachingLoad `json:"loads"`
	DaysTeaching []string       `json:"days_teaching"`
}

// CurriculumCourse is one course line of a curriculum, grouped by the term heading above it.
type CurriculumCourse struct {
	Term         string `json:"term,omitempty"`
	CourseCode   string `json:"course_code"`
	Description  string `json:"description"`
	LecUnits     string `json:"lec_units,omitempty"`
	LabUnits     string `json:"lab_units,omitempty"`
	Units        string `json:"units"`
	Prerequisite string `json:"prerequisite,omitempty"`
}

// Curriculum is the payload stored for a curriculum sheet.
type Curriculum struct {
	Program       string             `json:"program"`
	EffectiveYear string             `json:"effective_year,omitempty"`
	Courses       []CurriculumCourse `json:"courses"`
}

// InfoSection is one heading of an institutional information document.
type InfoSection struct {
	InfoType string `json:"info_type"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// GeneralInfo is the payload stored for an institutional information document.
type GeneralInfo struct {
	Sections []InfoSection `json:"sections"`
}

// StudentRoster is the payload stored for a students_data upload.
type StudentRoster struct {
	Students []StudentRecord `json:"students"`
}
