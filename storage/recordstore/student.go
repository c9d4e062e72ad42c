package recordstore

import (
	"context"
	"fmt"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// nextStudentID returns prefix + 2-digit year + 4-digit count of stored students + 1,
// bumped past ids left taken by deletions.
func (repo *studentRepository) nextStudentID(std student.Student) string {
	base := fmt.Sprintf("%s%02d", repo.db.fees.StudentIDPrefix, std.CreatedAt.Year()%100)
	seq := len(repo.db.students.rows)
	for {
		seq++
		id := fmt.Sprintf("%s%04d", base, seq)
		if !repo.db.students.exists(func(s student.Student) bool { return s.StudentID == id }) {
			return id
		}
	}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if std.CreatedAt.IsZero() {
		std.CreatedAt = core.NowFunc()
	}
	std.StudentID = repo.nextStudentID(std)
	return std, repo.db.students.insert(ctx, repo.db.store, std)
}

func (repo *studentRepository) QueryAllStudents(context.Context) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.students.all(nil), nil
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.students.all(filter.Matches), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.students.index(func(s student.Student) bool { return s.ID == id }); i >= 0 {
		return repo.db.students.rows[i], nil
	}
	return student.Student{}, core.NewNotFoundError("student", id)
}

// UpdateStudent keeps the StudentID and creation stamps.
func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.students.index(func(s student.Student) bool { return s.ID == std.ID })
	if i < 0 {
		return student.Student{}, core.NewNotFoundError("student", std.ID)
	}
	orig := repo.db.students.rows[i]
	std.StudentID = orig.StudentID
	std.CreatedAt = orig.CreatedAt
	std.CreatedBy = orig.CreatedBy
	return std, repo.db.students.replace(ctx, repo.db.store, i, std)
}

// DeleteStudent keeps the student's payments.
func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.students.index(func(s student.Student) bool { return s.ID == id })
	if i < 0 {
		return core.NewNotFoundError("student", id)
	}
	return repo.db.students.remove(ctx, repo.db.store, i)
}
