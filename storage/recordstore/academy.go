package recordstore

import (
	"context"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/student"
)

type academyRepository struct {
	db *DB
}

var _ academy.Repository = (*academyRepository)(nil)

func NewAcademyRepository(db *DB) academy.Repository {
	return &academyRepository{db: db}
}

// Batches

func (repo *academyRepository) QueryAllBatches(context.Context) ([]academy.Batch, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.batches.all(nil), nil
}

func (repo *academyRepository) GetBatchByID(_ context.Context, id string) (academy.Batch, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.batches.index(func(b academy.Batch) bool { return b.ID == id }); i >= 0 {
		return repo.db.batches.rows[i], nil
	}
	return academy.Batch{}, core.NewNotFoundError("batch", id)
}

func (repo *academyRepository) FindBatchByName(_ context.Context, name string) (academy.Batch, bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.batches.index(func(b academy.Batch) bool { return core.SameText(b.Name, name) }); i >= 0 {
		return repo.db.batches.rows[i], true, nil
	}
	return academy.Batch{}, false, nil
}

func (repo *academyRepository) CreateBatch(ctx context.Context, batch academy.Batch) (academy.Batch, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return batch, repo.db.batches.insert(ctx, repo.db.store, batch)
}

func (repo *academyRepository) UpdateBatch(ctx context.Context, batch academy.Batch) (academy.Batch, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.batches.index(func(b academy.Batch) bool { return b.ID == batch.ID })
	if i < 0 {
		return academy.Batch{}, core.NewNotFoundError("batch", batch.ID)
	}
	return batch, repo.db.batches.replace(ctx, repo.db.store, i, batch)
}

func (repo *academyRepository) DeleteBatch(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.batches.index(func(b academy.Batch) bool { return b.ID == id })
	if i < 0 {
		return core.NewNotFoundError("batch", id)
	}
	if repo.db.courses.exists(func(c academy.Course) bool { return c.BatchID == id }) {
		return core.NewConstraintError("cannot delete batch %q: it still has courses", repo.db.batches.rows[i].Name)
	}
	return repo.db.batches.remove(ctx, repo.db.store, i)
}

// Courses

func (repo *academyRepository) QueryAllCourses(context.Context) ([]academy.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.courses.all(nil), nil
}

func (repo *academyRepository) QueryCoursesByBatch(_ context.Context, batchID string) ([]academy.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.courses.all(func(c academy.Course) bool { return c.BatchID == batchID }), nil
}

func (repo *academyRepository) GetCourseByID(_ context.Context, id string) (academy.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.courses.index(func(c academy.Course) bool { return c.ID == id }); i >= 0 {
		return repo.db.courses.rows[i], nil
	}
	return academy.Course{}, core.NewNotFoundError("course", id)
}

func (repo *academyRepository) CreateCourse(ctx context.Context, course academy.Course) (academy.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.batches.exists(func(b academy.Batch) bool { return b.ID == course.BatchID }) {
		return academy.Course{}, core.NewNotFoundError("batch", course.BatchID)
	}
	return course, repo.db.courses.insert(ctx, repo.db.store, course)
}

func (repo *academyRepository) UpdateCourse(ctx context.Context, course academy.Course) (academy.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.courses.index(func(c academy.Course) bool { return c.ID == course.ID })
	if i < 0 {
		return academy.Course{}, core.NewNotFoundError("course", course.ID)
	}
	return course, repo.db.courses.replace(ctx, repo.db.store, i, course)
}

func (repo *academyRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.courses.index(func(c academy.Course) bool { return c.ID == id })
	if i < 0 {
		return core.NewNotFoundError("course", id)
	}
	if repo.db.months.exists(func(m academy.Month) bool { return m.CourseID == id }) {
		return core.NewConstraintError("cannot delete course %q: it still has months", repo.db.courses.rows[i].Name)
	}
	return repo.db.courses.remove(ctx, repo.db.store, i)
}

// Months

func (repo *academyRepository) QueryAllMonths(context.Context) ([]academy.Month, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.months.all(nil), nil
}

func (repo *academyRepository) QueryMonthsByCourse(_ context.Context, courseID string) ([]academy.Month, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.months.all(func(m academy.Month) bool { return m.CourseID == courseID }), nil
}

func (repo *academyRepository) GetMonthByID(_ context.Context, id string) (academy.Month, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.months.index(func(m academy.Month) bool { return m.ID == id }); i >= 0 {
		return repo.db.months.rows[i], nil
	}
	return academy.Month{}, core.NewNotFoundError("month", id)
}

func (repo *academyRepository) CreateMonth(ctx context.Context, month academy.Month) (academy.Month, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.courses.exists(func(c academy.Course) bool { return c.ID == month.CourseID }) {
		return academy.Month{}, core.NewNotFoundError("course", month.CourseID)
	}
	return month, repo.db.months.insert(ctx, repo.db.store, month)
}

func (repo *academyRepository) UpdateMonth(ctx context.Context, month academy.Month) (academy.Month, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.months.index(func(m academy.Month) bool { return m.ID == month.ID })
	if i < 0 {
		return academy.Month{}, core.NewNotFoundError("month", month.ID)
	}
	return month, repo.db.months.replace(ctx, repo.db.store, i, month)
}

// DeleteMonth leaves payments that reference the month untouched.
func (repo *academyRepository) DeleteMonth(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.months.index(func(m academy.Month) bool { return m.ID == id })
	if i < 0 {
		return core.NewNotFoundError("month", id)
	}
	return repo.db.months.remove(ctx, repo.db.store, i)
}

// Institutions

func (repo *academyRepository) QueryAllInstitutions(context.Context) ([]academy.Institution, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.institutions.all(nil), nil
}

func (repo *academyRepository) GetInstitutionByID(_ context.Context, id string) (academy.Institution, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.institutions.index(func(in academy.Institution) bool { return in.ID == id }); i >= 0 {
		return repo.db.institutions.rows[i], nil
	}
	return academy.Institution{}, core.NewNotFoundError("institution", id)
}

func (repo *academyRepository) FindInstitutionByName(_ context.Context, name string) (academy.Institution, bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.institutions.index(func(in academy.Institution) bool { return core.SameText(in.Name, name) }); i >= 0 {
		return repo.db.institutions.rows[i], true, nil
	}
	return academy.Institution{}, false, nil
}

func (repo *academyRepository) CreateInstitution(ctx context.Context, inst academy.Institution) (academy.Institution, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return inst, repo.db.institutions.insert(ctx, repo.db.store, inst)
}

func (repo *academyRepository) UpdateInstitution(ctx context.Context, inst academy.Institution) (academy.Institution, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.institutions.index(func(in academy.Institution) bool { return in.ID == inst.ID })
	if i < 0 {
		return academy.Institution{}, core.NewNotFoundError("institution", inst.ID)
	}
	return inst, repo.db.institutions.replace(ctx, repo.db.store, i, inst)
}

func (repo *academyRepository) DeleteInstitution(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.institutions.index(func(in academy.Institution) bool { return in.ID == id })
	if i < 0 {
		return core.NewNotFoundError("institution", id)
	}
	if repo.db.students.exists(func(s student.Student) bool { return s.InstitutionID == id }) {
		return core.NewConstraintError("cannot delete institution %q: students belong to it", repo.db.institutions.rows[i].Name)
	}
	return repo.db.institutions.remove(ctx, repo.db.store, i)
}
