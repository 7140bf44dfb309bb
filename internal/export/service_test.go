package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

type fakeRecords struct {
	repository.RecordRepository
	byCategory map[constants.Category][]*entity.StoredRecord
}

func (f *fakeRecords) ListByCategory(_ context.Context, c constants.Category) ([]*entity.StoredRecord, error) {
	return f.byCategory[c], nil
}

func (f *fakeRecords) ListByDepartment(_ context.Context, c constants.Category, dept string) ([]*entity.StoredRecord, error) {
	var out []*entity.StoredRecord
	for _, r := range f.byCategory[c] {
		if r.Department == dept {
			out = append(out, r)
		}
	}
	return out, nil
}

func stored(t *testing.T, dept string, payload any) *entity.StoredRecord {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &entity.StoredRecord{Department: dept, Payload: raw, SourceFile: "upload.xlsx"}
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func newTestService(t *testing.T) *Service {
	records := &fakeRecords{byCategory: map[constants.Category][]*entity.StoredRecord{
		constants.COR: {
			stored(t, constants.DeptCCS, entity.Schedule{
				ProgramInfo: entity.ProgramInfo{Program: "BSIT", YearLevel: "3", Section: "A"},
				Subjects: []entity.Subject{
					{SubjectCode: "IT 301", Description: "Web Systems", Units: "3", Day: "MWF", TimeStart: "8:00 AM", TimeEnd: "9:00 AM"},
					{SubjectCode: "IT 302", Description: "Networking 2", Units: "2", Day: "TTH", TimeStart: "1:00 PM", TimeEnd: "3:00 PM"},
				},
			}),
			stored(t, constants.DeptCHTM, entity.Schedule{
				ProgramInfo: entity.ProgramInfo{Program: "BSHM"},
				Subjects:    []entity.Subject{{SubjectCode: "HM 101"}},
			}),
			{Department: constants.DeptCCS, Payload: json.RawMessage(`"not a schedule"`)},
		},
		constants.Grades: {
			stored(t, constants.DeptCCS, entity.StudentGrades{
				StudentID: "2021-0001", StudentName: "Juan Dela Cruz", GWA: "1.50",
				Grades: []entity.GradeRecord{{SubjectCode: "IT 101", Equivalent: "1.50", Remarks: "PASSED"}},
			}),
		},
	}}
	students := repository.NewMapDirectory(
		entity.StudentRecord{StudentID: "2021-0002", FullName: "Maria Santos", Department: constants.DeptCHTM},
		entity.StudentRecord{StudentID: "2021-0001", FullName: "Juan Dela Cruz", Department: constants.DeptCCS},
	)
	return NewService(records, students, nil)
}

func TestExportSchedules(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.ExportSchedulesXLSX(context.Background(), constants.DeptCCS)
	require.NoError(t, err)
	rows := readRows(t, data, "Schedules")
	require.Len(t, rows, 3)
	assert.Equal(t, "Department", rows[0][0])
	assert.Equal(t, []string{"CCS", "BSIT", "3", "A", "IT 301", "Web Systems", "", "3", "MWF", "8:00 AM", "9:00 AM", "", "upload.xlsx"}, rows[1])
	assert.Equal(t, "IT 302", rows[2][4])

	data, err = svc.ExportSchedulesXLSX(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, readRows(t, data, "Schedules"), 4)
}

func TestExportGradesAndStudents(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.ExportGradesXLSX(context.Background(), "")
	require.NoError(t, err)
	rows := readRows(t, data, "Grades")
	require.Len(t, rows, 2)
	assert.Equal(t, "2021-0001", rows[1][0])
	assert.Equal(t, "1.50", rows[1][7])
	assert.Equal(t, "1.50", rows[1][9])

	data, err = svc.ExportStudentsXLSX(context.Background(), "")
	require.NoError(t, err)
	rows = readRows(t, data, "Students")
	require.Len(t, rows, 3)
	assert.Equal(t, "2021-0001", rows[1][0])
	assert.Equal(t, "Maria Santos", rows[2][1])

	data, err = svc.ExportStudentsXLSX(context.Background(), constants.DeptCHTM)
	require.NoError(t, err)
	assert.Len(t, readRows(t, data, "Students"), 2)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "ñ", truncate("ñandú", 1))
}
