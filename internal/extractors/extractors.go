// Package extractors holds the per-category extract and store handlers. All
// of them are built from the shared scan, table and normalize engine.
package extractors

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/normalize"
)

// Handlers returns the handler table covering every category.
func Handlers() map[constants.Category]dispatch.Handler {
	return map[constants.Category]dispatch.Handler{
		constants.COR:                {Extract: ExtractCOR, Store: storeInsert},
		constants.Grades:             {Extract: ExtractGrades, Store: StoreGrades},
		constants.StudentsData:       {Extract: ExtractStudents, Store: StoreStudents},
		constants.TeachingFaculty:    {Extract: ExtractTeachingFaculty, Store: storeInsert},
		constants.NonTeachingFaculty: {Extract: ExtractNonTeachingFaculty, Store: storeInsert},
		constants.Admin:              {Extract: ExtractAdmin, Store: storeInsert},
		constants.FacultySchedule:    {Extract: ExtractFacultySchedule, Store: storeInsert},
		constants.Curriculum:         {Extract: ExtractCurriculum, Store: storeByKey},
		constants.GeneralInfo:        {Extract: ExtractGeneralInfo, Store: StoreGeneralInfo},
	}
}

func storeInsert(ctx context.Context, env *dispatch.Env, res *entity.ExtractionResult) (string, error) {
	rec, err := env.Records.Insert(ctx, res)
	if err != nil {
		return "", err
	}
	return rec.ID.String(), nil
}

func storeByKey(ctx context.Context, env *dispatch.Env, res *entity.ExtractionResult) (string, error) {
	if res.Key == "" {
		return storeInsert(ctx, env, res)
	}
	rec, err := env.Records.UpsertByKey(ctx, res)
	if err != nil {
		return "", err
	}
	return rec.ID.String(), nil
}

func baseName(doc *grid.Document) string {
	if doc == nil {
		return ""
	}
	return filepath.Base(doc.Filename)
}

// orNA renders an unresolved value for formatted text.
func orNA(v string) string {
	if v == "" {
		return normalize.NotAvailable
	}
	return v
}

// departmentOf resolves free text such as a department label. A bare
// department code is taken as is.
func departmentOf(env *dispatch.Env, text string) string {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, code := range []string{
		constants.DeptCCS, constants.DeptCHTM, constants.DeptCBA, constants.DeptCTE,
		constants.DeptCOE, constants.DeptCON, constants.DeptCAS, constants.DeptAdmin,
	} {
		if upper == code {
			return code
		}
	}
	return env.Classifier.Classify(text)
}
