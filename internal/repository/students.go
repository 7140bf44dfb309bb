package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/normalize"
)

// StudentDirectory answers whether a student ID is known. Grade sheets are
// only stored for students present in it.
type StudentDirectory interface {
	Exists(ctx context.Context, studentID string) (bool, error)
}

// StudentRepository is the writable student directory fed by roster uploads.
type StudentRepository interface {
	StudentDirectory
	Upsert(ctx context.Context, s *entity.StudentRecord) error
	GetByID(ctx context.Context, studentID string) (*entity.StudentRecord, error)
	List(ctx context.Context, department string) ([]*entity.StudentRecord, error)
}

// StudentKey is the canonical directory key for a raw student ID.
func StudentKey(raw string) string {
	return normalize.Value(raw, normalize.StudentID)
}

type studentRepo struct {
	store  *Store
	logger *slog.Logger
}

func NewStudentRepository(store *Store, logger *slog.Logger) StudentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &studentRepo{store: store, logger: logger}
}

var studentColumns = []string{
	"student_id", "full_name", "surname", "first_name", "year_level", "course", "section",
	"department", "contact_number", "guardian_name", "guardian_contact", "source_file", "updated_at",
}

func (r *studentRepo) Upsert(ctx context.Context, s *entity.StudentRecord) error {
	key := StudentKey(s.StudentID)
	if key == "" {
		return fmt.Errorf("%w: student id is required", common.ErrInvalidInput)
	}
	query, args := r.store.builder().Insert(tableStudents).
		Columns(studentColumns...).
		Values(key, s.FullName, s.Surname, s.FirstName, s.YearLevel, s.Course, s.Section,
			s.Department, s.ContactNumber, s.GuardianName, s.GuardianContact, s.SourceFile, formatTime(s.UpdatedAt)).
		OnConflict(entsql.ConflictColumns("student_id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.store.exec(ctx, query, args); err != nil {
		r.logger.Error("failed to upsert student", "student_id", key, "error", err)
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *studentRepo) Exists(ctx context.Context, studentID string) (bool, error) {
	_, err := r.GetByID(ctx, studentID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *studentRepo) GetByID(ctx context.Context, studentID string) (*entity.StudentRecord, error) {
	key := StudentKey(studentID)
	if key == "" {
		return nil, common.ErrNotFound
	}
	query, args := r.store.builder().Select(studentColumns...).
		From(entsql.Table(tableStudents)).
		Where(entsql.EQ("student_id", key)).
		Limit(1).
		Query()
	list, err := r.scan(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrNotFound
	}
	return list[0], nil
}

func (r *studentRepo) List(ctx context.Context, department string) ([]*entity.StudentRecord, error) {
	sel := r.store.builder().Select(studentColumns...).From(entsql.Table(tableStudents))
	if department != "" {
		sel = sel.Where(entsql.EQ("department", department))
	}
	query, args := sel.OrderBy("student_id").Query()
	return r.scan(ctx, query, args)
}

func (r *studentRepo) scan(ctx context.Context, query string, args []any) ([]*entity.StudentRecord, error) {
	var out []*entity.StudentRecord
	err := r.store.query(ctx, query, args, func(rows entsql.ColumnScanner) error {
		var (
			s       entity.StudentRecord
			updated string
		)
		if err := rows.Scan(&s.StudentID, &s.FullName, &s.Surname, &s.FirstName, &s.YearLevel, &s.Course, &s.Section,
			&s.Department, &s.ContactNumber, &s.GuardianName, &s.GuardianContact, &s.SourceFile, &updated); err != nil {
			return err
		}
		s.UpdatedAt = parseTime(updated)
		out = append(out, &s)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to query students", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// MapDirectory is an in-memory StudentRepository keyed by normalized student ID.
type MapDirectory struct {
	mu       sync.RWMutex
	students map[string]entity.StudentRecord
}

// NewMapDirectory seeds a directory with students.
func NewMapDirectory(students ...entity.StudentRecord) *MapDirectory {
	d := &MapDirectory{students: make(map[string]entity.StudentRecord, len(students))}
	for i := range students {
		_ = d.Upsert(context.Background(), &students[i])
	}
	return d
}

func (d *MapDirectory) Upsert(_ context.Context, s *entity.StudentRecord) error {
	key := StudentKey(s.StudentID)
	if key == "" {
		return fmt.Errorf("%w: student id is required", common.ErrInvalidInput)
	}
	rec := *s
	rec.StudentID = key
	d.mu.Lock()
	d.students[key] = rec
	d.mu.Unlock()
	return nil
}

func (d *MapDirectory) Exists(_ context.Context, studentID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.students[StudentKey(studentID)]
	return ok, nil
}

func (d *MapDirectory) GetByID(_ context.Context, studentID string) (*entity.StudentRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.students[StudentKey(studentID)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (d *MapDirectory) List(_ context.Context, department string) ([]*entity.StudentRecord, error) {
	d.mu.RLock()
	out := make([]*entity.StudentRecord, 0, len(d.students))
	for _, s := range d.students {
		s := s
		if department != "" && s.Department != department {
			continue
		}
		out = append(out, &s)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}
