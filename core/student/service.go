package student

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
)

var (
	// errors
	ErrCourseNotInBatch = errors.New("course does not belong to the selected batch")
	ErrMonthNotInCourse = errors.New("starting month does not belong to the course")
)

type (
	Repository interface {
		// CreateStudent assigns the StudentID (prefix + 2-digit year + 4-digit count of students + 1).
		CreateStudent(ctx context.Context, std Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	// Catalog resolves the references a student holds.
	Catalog interface {
		GetBatchByID(ctx context.Context, id string) (academy.Batch, error)
		GetCourseByID(ctx context.Context, id string) (academy.Course, error)
		GetMonthByID(ctx context.Context, id string) (academy.Month, error)
		GetInstitutionByID(ctx context.Context, id string) (academy.Institution, error)
	}

	Service struct {
		repo     Repository
		catalog  Catalog
		activity activity.Recorder
		validate *validator.Validate
	}
)

func NewService(repo Repository, catalog Catalog, recorder activity.Recorder, validate *validator.Validate) *Service {
	return &Service{repo: repo, catalog: catalog, activity: recorder, validate: validate}
}

func fieldErr(err error, field string) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// checkReferences makes sure institution, batch, courses and starting months exist and fit together.
func (svc *Service) checkReferences(ctx context.Context, ns NewStudent) error {
	check := func(err error, field string) error {
		if core.IsNotFound(err) {
			return fieldErr(err, field)
		}
		return err
	}
	if _, err := svc.catalog.GetInstitutionByID(ctx, ns.InstitutionID); err != nil {
		return check(err, "institutionId")
	}
	if _, err := svc.catalog.GetBatchByID(ctx, ns.BatchID); err != nil {
		return check(err, "batchId")
	}
	for _, enr := range ns.EnrolledCourses {
		course, err := svc.catalog.GetCourseByID(ctx, enr.CourseID)
		if err != nil {
			return check(err, "enrolledCourses")
		}
		if course.BatchID != ns.BatchID {
			return fieldErr(ErrCourseNotInBatch, "enrolledCourses")
		}
		month, err := svc.catalog.GetMonthByID(ctx, enr.StartingMonthID)
		if err != nil {
			return check(err, "enrolledCourses")
		}
		if month.CourseID != enr.CourseID {
			return fieldErr(ErrMonthNotInCourse, "enrolledCourses")
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	if err := svc.checkReferences(ctx, ns); err != nil {
		return Student{}, err
	}

	std, err := svc.repo.CreateStudent(ctx, Student{
		ID:              core.NewID("student"),
		Name:            ns.Name,
		InstitutionID:   ns.InstitutionID,
		Gender:          ns.Gender,
		Phone:           ns.Phone,
		GuardianName:    ns.GuardianName,
		GuardianPhone:   ns.GuardianPhone,
		BatchID:         ns.BatchID,
		EnrolledCourses: ns.EnrolledCourses,
		CreatedAt:       core.NowFunc(),
		CreatedBy:       core.ActorFromContext(ctx).Username,
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	desc := fmt.Sprintf("Student %q added with ID %s", std.Name, std.StudentID)
	err = svc.activity.Record(ctx, activity.StudentAdded, desc, map[string]interface{}{"studentId": std.ID})
	return std, errors.Wrap(err, "recording activity")
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = us.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	if err = svc.checkReferences(ctx, NewStudent(us)); err != nil {
		return Student{}, err
	}

	std.Name = us.Name
	std.InstitutionID = us.InstitutionID
	std.Gender = us.Gender
	std.Phone = us.Phone
	std.GuardianName = us.GuardianName
	std.GuardianPhone = us.GuardianPhone
	std.BatchID = us.BatchID
	std.EnrolledCourses = us.EnrolledCourses
	if std, err = svc.repo.UpdateStudent(ctx, std); err != nil {
		return Student{}, errors.Wrap(err, "updating student")
	}
	err = svc.activity.Record(ctx, activity.StudentUpdated, fmt.Sprintf("Student %q updated", std.Name), map[string]interface{}{"studentId": std.ID})
	return std, errors.Wrap(err, "recording activity")
}

// Delete removes the student record only; its payments stay in the history.
func (svc *Service) Delete(ctx context.Context, id string) error {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteStudent(ctx, id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	err = svc.activity.Record(ctx, activity.StudentDeleted, fmt.Sprintf("Student %q deleted", std.Name), map[string]interface{}{"studentId": id})
	return errors.Wrap(err, "recording activity")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.FilterStudents(ctx, filter)
}
