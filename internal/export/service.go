// Package export renders stored records as XLSX workbooks.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

// Service is a thin façade over repositories that produces XLSX bytes for exports.
type Service struct {
	records  repository.RecordRepository
	students repository.StudentRepository
	logger   *slog.Logger
}

func NewService(records repository.RecordRepository, students repository.StudentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, students: students, logger: logger}
}

type column struct {
	header string
	width  float64
}

// sheetWriter fills one sheet row by row starting under the header.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func newSheet(sheet string, cols []column) (*sheetWriter, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, c.width)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return &sheetWriter{f: f, sheet: sheet, row: 2}, nil
}

func (w *sheetWriter) add(values ...any) error {
	cell, _ := excelize.CoordinatesToCellName(1, w.row)
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *sheetWriter) bytes() ([]byte, error) {
	defer func() { _ = w.f.Close() }()
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) list(ctx context.Context, category constants.Category, department string) ([]*entity.StoredRecord, error) {
	if department == "" {
		return s.records.ListByCategory(ctx, category)
	}
	return s.records.ListByDepartment(ctx, category, department)
}

// ExportSchedulesXLSX writes one row per scheduled subject across every
// stored COR. An empty department exports all of them.
func (s *Service) ExportSchedulesXLSX(ctx context.Context, department string) ([]byte, error) {
	start := time.Now()
	recs, err := s.list(ctx, constants.COR, department)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}

	w, err := newSheet("Schedules", []column{
		{"Department", 12}, {"Program", 22}, {"Year", 6}, {"Section", 8},
		{"Subject Code", 14}, {"Description", 36}, {"Type", 8}, {"Units", 7},
		{"Day", 10}, {"Start", 10}, {"End", 10}, {"Room", 14}, {"Source File", 40},
	})
	if err != nil {
		return nil, err
	}
	rows := 0
	for _, r := range recs {
		var sched entity.Schedule
		if err := json.Unmarshal(r.Payload, &sched); err != nil {
			s.logger.Warn("export.schedule.skip", "record_id", r.ID, "error", err)
			continue
		}
		p := sched.ProgramInfo
		for _, sub := range sched.Subjects {
			if err := w.add(r.Department, p.Program, p.YearLevel, p.Section,
				sub.SubjectCode, truncate(sub.Description, 140), sub.Type, sub.Units,
				sub.Day, sub.TimeStart, sub.TimeEnd, sub.Room, r.SourceFile); err != nil {
				return nil, err
			}
			rows++
		}
	}

	s.logger.Info("export.xlsx.ok", "kind", "schedules", "department", department, "rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds())
	return w.bytes()
}

// ExportGradesXLSX writes one row per graded subject.
func (s *Service) ExportGradesXLSX(ctx context.Context, department string) ([]byte, error) {
	start := time.Now()
	recs, err := s.list(ctx, constants.Grades, department)
	if err != nil {
		return nil, fmt.Errorf("query grades: %w", err)
	}

	w, err := newSheet("Grades", []column{
		{"Student ID", 14}, {"Student Name", 28}, {"Course", 12}, {"Department", 12},
		{"Subject Code", 14}, {"Description", 36}, {"Units", 7}, {"Grade", 8},
		{"Remarks", 12}, {"GWA", 8},
	})
	if err != nil {
		return nil, err
	}
	rows := 0
	for _, r := range recs {
		var sg entity.StudentGrades
		if err := json.Unmarshal(r.Payload, &sg); err != nil {
			s.logger.Warn("export.grades.skip", "record_id", r.ID, "error", err)
			continue
		}
		for _, g := range sg.Grades {
			if err := w.add(sg.StudentID, sg.StudentName, sg.Course, r.Department,
				g.SubjectCode, truncate(g.SubjectDescription, 140), g.Units, g.Equivalent,
				g.Remarks, sg.GWA); err != nil {
				return nil, err
			}
			rows++
		}
	}

	s.logger.Info("export.xlsx.ok", "kind", "grades", "department", department, "rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds())
	return w.bytes()
}

// ExportStudentsXLSX writes the student directory.
func (s *Service) ExportStudentsXLSX(ctx context.Context, department string) ([]byte, error) {
	start := time.Now()
	list, err := s.students.List(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}

	w, err := newSheet("Students", []column{
		{"Student ID", 14}, {"Full Name", 30}, {"Course", 12}, {"Year", 6},
		{"Section", 8}, {"Department", 12}, {"Contact", 16}, {"Guardian", 26},
		{"Guardian Contact", 16},
	})
	if err != nil {
		return nil, err
	}
	for _, st := range list {
		if err := w.add(st.StudentID, st.FullName, st.Course, st.YearLevel, st.Section,
			st.Department, st.ContactNumber, st.GuardianName, st.GuardianContact); err != nil {
			return nil, err
		}
	}

	s.logger.Info("export.xlsx.ok", "kind", "students", "department", department, "rows", len(list),
		"elapsed_ms", time.Since(start).Milliseconds())
	return w.bytes()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
