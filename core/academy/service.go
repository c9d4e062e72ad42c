package academy

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/activity"
)

var (
	// errors
	ErrBatchExists       = errors.New("batch with this name already exists")
	ErrCourseExists      = errors.New("course with this name already exists in the selected batch")
	ErrMonthExists       = errors.New("month with this name or number already exists for the selected course")
	ErrInstitutionExists = errors.New("institution with this name already exists")
	ErrInvalidFee        = errors.New("fee must be greater than 0")
)

type (
	Repository interface {
		QueryAllBatches(ctx context.Context) ([]Batch, error)
		GetBatchByID(ctx context.Context, id string) (Batch, error)
		// FindBatchByName does a case-insensitive match.
		FindBatchByName(ctx context.Context, name string) (Batch, bool, error)
		CreateBatch(ctx context.Context, batch Batch) (Batch, error)
		UpdateBatch(ctx context.Context, batch Batch) (Batch, error)
		// DeleteBatch fails with a *core.ConstraintError while the batch has courses.
		DeleteBatch(ctx context.Context, id string) error

		QueryAllCourses(ctx context.Context) ([]Course, error)
		QueryCoursesByBatch(ctx context.Context, batchID string) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		CreateCourse(ctx context.Context, course Course) (Course, error)
		UpdateCourse(ctx context.Context, course Course) (Course, error)
		// DeleteCourse fails with a *core.ConstraintError while the course has months.
		DeleteCourse(ctx context.Context, id string) error

		QueryAllMonths(ctx context.Context) ([]Month, error)
		// QueryMonthsByCourse returns the months in storage order; callers sort.
		QueryMonthsByCourse(ctx context.Context, courseID string) ([]Month, error)
		GetMonthByID(ctx context.Context, id string) (Month, error)
		CreateMonth(ctx context.Context, month Month) (Month, error)
		UpdateMonth(ctx context.Context, month Month) (Month, error)
		DeleteMonth(ctx context.Context, id string) error

		QueryAllInstitutions(ctx context.Context) ([]Institution, error)
		GetInstitutionByID(ctx context.Context, id string) (Institution, error)
		FindInstitutionByName(ctx context.Context, name string) (Institution, bool, error)
		CreateInstitution(ctx context.Context, inst Institution) (Institution, error)
		UpdateInstitution(ctx context.Context, inst Institution) (Institution, error)
		// DeleteInstitution fails with a *core.ConstraintError while students belong to it.
		DeleteInstitution(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		activity activity.Recorder
		validate *validator.Validate
	}
)

func NewService(repo Repository, recorder activity.Recorder, validate *validator.Validate) *Service {
	return &Service{repo: repo, activity: recorder, validate: validate}
}

func fieldErr(err error, field string) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

func (svc *Service) record(ctx context.Context, typ, desc, key, id string) error {
	return errors.Wrap(svc.activity.Record(ctx, typ, desc, map[string]interface{}{key: id}), "recording activity")
}

// Batches

func (svc *Service) checkBatchName(ctx context.Context, name, exclID string) error {
	found, ok, err := svc.repo.FindBatchByName(ctx, name)
	if err != nil {
		return errors.Wrap(err, "finding batch by name")
	}
	if ok && found.ID != exclID {
		return fieldErr(ErrBatchExists, "name")
	}
	return nil
}

func (svc *Service) CreateBatch(ctx context.Context, nb NewBatch) (Batch, error) {
	if err := nb.Validate(svc.validate); err != nil {
		return Batch{}, err
	}
	if err := svc.checkBatchName(ctx, nb.Name, ""); err != nil {
		return Batch{}, err
	}

	batch, err := svc.repo.CreateBatch(ctx, Batch{
		ID:        core.NewID("batch"),
		Name:      nb.Name,
		CreatedAt: core.NowFunc(),
		CreatedBy: core.ActorFromContext(ctx).Username,
	})
	if err != nil {
		return Batch{}, errors.Wrap(err, "creating batch")
	}
	return batch, svc.record(ctx, activity.BatchCreated, fmt.Sprintf("Batch %q created", batch.Name), "batchId", batch.ID)
}

func (svc *Service) UpdateBatch(ctx context.Context, id string, ub NewBatch) (Batch, error) {
	batch, err := svc.repo.GetBatchByID(ctx, id)
	if err != nil {
		return Batch{}, err
	}
	if err = ub.Validate(svc.validate); err != nil {
		return Batch{}, err
	}
	if err = svc.checkBatchName(ctx, ub.Name, id); err != nil {
		return Batch{}, err
	}

	batch.Name = ub.Name
	if batch, err = svc.repo.UpdateBatch(ctx, batch); err != nil {
		return Batch{}, errors.Wrap(err, "updating batch")
	}
	return batch, svc.record(ctx, activity.BatchUpdated, fmt.Sprintf("Batch %q updated", batch.Name), "batchId", batch.ID)
}

func (svc *Service) DeleteBatch(ctx context.Context, id string) error {
	batch, err := svc.repo.GetBatchByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteBatch(ctx, id); err != nil {
		return err
	}
	return svc.record(ctx, activity.BatchDeleted, fmt.Sprintf("Batch %q deleted", batch.Name), "batchId", id)
}

func (svc *Service) QueryBatches(ctx context.Context) ([]Batch, error) {
	return svc.repo.QueryAllBatches(ctx)
}

func (svc *Service) GetBatch(ctx context.Context, id string) (Batch, error) {
	return svc.repo.GetBatchByID(ctx, id)
}

// Courses

func (svc *Service) checkCourseName(ctx context.Context, batchID, name, exclID string) error {
	courses, err := svc.repo.QueryCoursesByBatch(ctx, batchID)
	if err != nil {
		return errors.Wrap(err, "querying courses by batch")
	}
	for _, c := range courses {
		if c.ID != exclID && core.SameText(c.Name, name) {
			return fieldErr(ErrCourseExists, "name")
		}
	}
	return nil
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	if _, err := svc.repo.GetBatchByID(ctx, nc.BatchID); err != nil {
		if core.IsNotFound(err) {
			return Course{}, fieldErr(err, "batchId")
		}
		return Course{}, err
	}
	if err := svc.checkCourseName(ctx, nc.BatchID, nc.Name, ""); err != nil {
		return Course{}, err
	}

	course, err := svc.repo.CreateCourse(ctx, Course{
		ID:        core.NewID("course"),
		BatchID:   nc.BatchID,
		Name:      nc.Name,
		CreatedAt: core.NowFunc(),
		CreatedBy: core.ActorFromContext(ctx).Username,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	return course, svc.record(ctx, activity.CourseCreated, fmt.Sprintf("Course %q created", course.Name), "courseId", course.ID)
}

func (svc *Service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	course, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = uc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	if err = svc.checkCourseName(ctx, course.BatchID, uc.Name, id); err != nil {
		return Course{}, err
	}

	course.Name = uc.Name
	if course, err = svc.repo.UpdateCourse(ctx, course); err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return course, svc.record(ctx, activity.CourseUpdated, fmt.Sprintf("Course %q updated", course.Name), "courseId", course.ID)
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	course, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteCourse(ctx, id); err != nil {
		return err
	}
	return svc.record(ctx, activity.CourseDeleted, fmt.Sprintf("Course %q deleted", course.Name), "courseId", id)
}

// QueryCourses returns every course, or the courses of a batch when batchID is set.
func (svc *Service) QueryCourses(ctx context.Context, batchID string) ([]Course, error) {
	if batchID != "" {
		return svc.repo.QueryCoursesByBatch(ctx, batchID)
	}
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

// Months

func (svc *Service) checkMonth(ctx context.Context, courseID, name string, number int, exclID string) error {
	months, err := svc.repo.QueryMonthsByCourse(ctx, courseID)
	if err != nil {
		return errors.Wrap(err, "querying months by course")
	}
	for _, m := range months {
		if m.ID == exclID {
			continue
		}
		if core.SameText(m.Name, name) {
			return fieldErr(ErrMonthExists, "name")
		}
		if m.MonthNumber.Valid && m.MonthNumber.Int == number {
			return fieldErr(ErrMonthExists, "monthNumber")
		}
	}
	return nil
}

func (svc *Service) CreateMonth(ctx context.Context, nm NewMonth) (Month, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Month{}, err
	}
	if _, err := svc.repo.GetCourseByID(ctx, nm.CourseID); err != nil {
		if core.IsNotFound(err) {
			return Month{}, fieldErr(err, "courseId")
		}
		return Month{}, err
	}

	number := 1
	if nm.MonthNumber != nil {
		number = *nm.MonthNumber
	}
	if err := svc.checkMonth(ctx, nm.CourseID, nm.Name, number, ""); err != nil {
		return Month{}, err
	}
	monthName := nm.MonthName
	if monthName == "" {
		monthName = nm.Name
	}

	month, err := svc.repo.CreateMonth(ctx, Month{
		ID:          core.NewID("month"),
		CourseID:    nm.CourseID,
		Name:        nm.Name,
		MonthName:   monthName,
		MonthNumber: null.IntFrom(number),
		Fee:         nm.Fee,
		CreatedAt:   core.NowFunc(),
		CreatedBy:   core.ActorFromContext(ctx).Username,
	})
	if err != nil {
		return Month{}, errors.Wrap(err, "creating month")
	}
	return month, svc.record(ctx, activity.MonthCreated, fmt.Sprintf("Month %q created", month.Name), "monthId", month.ID)
}

func (svc *Service) UpdateMonth(ctx context.Context, id string, um UpdateMonth) (Month, error) {
	month, err := svc.repo.GetMonthByID(ctx, id)
	if err != nil {
		return Month{}, err
	}
	if err = um.Validate(svc.validate, month); err != nil {
		return Month{}, err
	}

	number := month.Number()
	if um.MonthNumber != nil {
		number = *um.MonthNumber
	}
	if err = svc.checkMonth(ctx, month.CourseID, um.Name, number, id); err != nil {
		return Month{}, err
	}

	month.Name = um.Name
	month.MonthName = um.MonthName
	if um.MonthNumber != nil {
		month.MonthNumber = null.IntFrom(*um.MonthNumber)
	}
	if um.Fee != nil {
		month.Fee = *um.Fee
	}
	if month, err = svc.repo.UpdateMonth(ctx, month); err != nil {
		return Month{}, errors.Wrap(err, "updating month")
	}
	return month, svc.record(ctx, activity.MonthUpdated, fmt.Sprintf("Month %q updated", month.Name), "monthId", month.ID)
}

func (svc *Service) DeleteMonth(ctx context.Context, id string) error {
	month, err := svc.repo.GetMonthByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteMonth(ctx, id); err != nil {
		return err
	}
	return svc.record(ctx, activity.MonthDeleted, fmt.Sprintf("Month %q deleted", month.Name), "monthId", id)
}

// QueryMonths returns every month, or the months of a course when courseID is set.
func (svc *Service) QueryMonths(ctx context.Context, courseID string) ([]Month, error) {
	if courseID != "" {
		return svc.repo.QueryMonthsByCourse(ctx, courseID)
	}
	return svc.repo.QueryAllMonths(ctx)
}

func (svc *Service) GetMonth(ctx context.Context, id string) (Month, error) {
	return svc.repo.GetMonthByID(ctx, id)
}

// Institutions

func (svc *Service) checkInstitutionName(ctx context.Context, name, exclID string) error {
	found, ok, err := svc.repo.FindInstitutionByName(ctx, name)
	if err != nil {
		return errors.Wrap(err, "finding institution by name")
	}
	if ok && found.ID != exclID {
		return fieldErr(ErrInstitutionExists, "name")
	}
	return nil
}

func (svc *Service) CreateInstitution(ctx context.Context, ni NewInstitution) (Institution, error) {
	if err := ni.Validate(svc.validate); err != nil {
		return Institution{}, err
	}
	if err := svc.checkInstitutionName(ctx, ni.Name, ""); err != nil {
		return Institution{}, err
	}

	inst, err := svc.repo.CreateInstitution(ctx, Institution{
		ID:        core.NewID("institution"),
		Name:      ni.Name,
		Address:   ni.Address,
		CreatedAt: core.NowFunc(),
		CreatedBy: core.ActorFromContext(ctx).Username,
	})
	if err != nil {
		return Institution{}, errors.Wrap(err, "creating institution")
	}
	return inst, svc.record(ctx, activity.InstitutionCreated, fmt.Sprintf("Institution %q created", inst.Name), "institutionId", inst.ID)
}

func (svc *Service) UpdateInstitution(ctx context.Context, id string, ui NewInstitution) (Institution, error) {
	inst, err := svc.repo.GetInstitutionByID(ctx, id)
	if err != nil {
		return Institution{}, err
	}
	if err = ui.Validate(svc.validate); err != nil {
		return Institution{}, err
	}
	if err = svc.checkInstitutionName(ctx, ui.Name, id); err != nil {
		return Institution{}, err
	}

	inst.Name = ui.Name
	inst.Address = ui.Address
	if inst, err = svc.repo.UpdateInstitution(ctx, inst); err != nil {
		return Institution{}, errors.Wrap(err, "updating institution")
	}
	return inst, svc.record(ctx, activity.InstitutionUpdated, fmt.Sprintf("Institution %q updated", inst.Name), "institutionId", inst.ID)
}

func (svc *Service) DeleteInstitution(ctx context.Context, id string) error {
	inst, err := svc.repo.GetInstitutionByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteInstitution(ctx, id); err != nil {
		return err
	}
	return svc.record(ctx, activity.InstitutionDeleted, fmt.Sprintf("Institution %q deleted", inst.Name), "institutionId", id)
}

func (svc *Service) QueryInstitutions(ctx context.Context) ([]Institution, error) {
	return svc.repo.QueryAllInstitutions(ctx)
}

func (svc *Service) GetInstitution(ctx context.Context, id string) (Institution, error) {
	return svc.repo.GetInstitutionByID(ctx, id)
}
