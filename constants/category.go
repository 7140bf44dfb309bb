package constants

import (
	"strings"
)

// Category is the document category declared by the uploader. The set is closed;
// every value must have a dispatch handler.
type Category string

const (
	StudentsData       Category = "students_data"
	NonTeachingFaculty Category = "non_teaching_faculty"
	TeachingFaculty    Category = "teaching_faculty"
	COR                Category = "cor"
	FacultySchedule    Category = "faculty_schedule"
	Grades             Category = "grades"
	Admin              Category = "admin"
	Curriculum         Category = "curriculum"
	GeneralInfo        Category = "generalinfo"
)

var allCategories = []Category{
	StudentsData,
	NonTeachingFaculty,
	TeachingFaculty,
	COR,
	FacultySchedule,
	Grades,
	Admin,
	Curriculum,
	GeneralInfo,
}

// AllCategories returns a copy of the category vocabulary in declaration order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// ParseCategory maps an upload folder or form value onto the vocabulary.
func ParseCategory(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	// folder names seen in upload trees
	synonyms := map[string]Category{
		"students":             StudentsData,
		"student_data":         StudentsData,
		"studentsdata":         StudentsData,
		"nonteachingfaculty":   NonTeachingFaculty,
		"non-teaching-faculty": NonTeachingFaculty,
		"non_teaching":         NonTeachingFaculty,
		"teachingfaculty":      TeachingFaculty,
		"teaching-faculty":     TeachingFaculty,
		"faculty":              TeachingFaculty,
		"schedules":            COR,
		"facultyschedule":      FacultySchedule,
		"faculty-schedule":     FacultySchedule,
		"grade":                Grades,
		"general_info":         GeneralInfo,
		"general-info":         GeneralInfo,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return "", false
}

// IsKnownCategory reports whether c is exactly one of the vocabulary values.
func IsKnownCategory(c Category) bool {
	for _, cat := range allCategories {
		if c == cat {
			return true
		}
	}
	return false
}
