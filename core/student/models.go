package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/breakthefear/btf/core"
)

// Enrollment links a student to a course, billable from StartingMonthID onwards.
type Enrollment struct {
	CourseID        string `json:"courseId" validate:"required"`
	StartingMonthID string `json:"startingMonthId" validate:"required"`
}

type Student struct {
	ID              string       `json:"id"`
	StudentID       string       `json:"studentId"`
	Name            string       `json:"name"`
	InstitutionID   string       `json:"institutionId"`
	Gender          string       `json:"gender"`
	Phone           string       `json:"phone"`
	GuardianName    string       `json:"guardianName"`
	GuardianPhone   string       `json:"guardianPhone"`
	BatchID         string       `json:"batchId"`
	EnrolledCourses []Enrollment `json:"enrolledCourses"`
	CreatedAt       time.Time    `json:"createdAt"`
	CreatedBy       string       `json:"createdBy,omitempty"`
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name            string       `json:"name" validate:"notblank,max=200"`
	InstitutionID   string       `json:"institutionId" validate:"required"`
	Gender          string       `json:"gender" validate:"required"`
	Phone           string       `json:"phone" validate:"required,phone"`
	GuardianName    string       `json:"guardianName" validate:"notblank,max=200"`
	GuardianPhone   string       `json:"guardianPhone" validate:"required,phone"`
	BatchID         string       `json:"batchId" validate:"required"`
	EnrolledCourses []Enrollment `json:"enrolledCourses" validate:"required,min=1,dive"`
}

func (ns *NewStudent) clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.InstitutionID = core.CleanString(ns.InstitutionID)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianPhone = core.CleanString(ns.GuardianPhone)
	ns.BatchID = core.CleanString(ns.BatchID)
	for i, enr := range ns.EnrolledCourses {
		ns.EnrolledCourses[i] = Enrollment{
			CourseID:        core.CleanString(enr.CourseID),
			StartingMonthID: core.CleanString(enr.StartingMonthID),
		}
	}
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	return validate.Struct(ns)
}

// UpdateStudent replaces every editable field; it is validated like NewStudent.
type UpdateStudent NewStudent

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	ns := (*NewStudent)(us)
	ns.clean()
	return validate.Struct(ns)
}

type QueryFilter struct {
	Search  string `query:"search"`
	BatchID string `query:"batch"`
	Status  string `query:"status"` // all | paid | partial | unpaid; applied by the fee ledger
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	qf.BatchID = core.CleanString(qf.BatchID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Matches applies the search (name, student id or phone) and batch filters.
func (qf QueryFilter) Matches(std Student) bool {
	if qf.BatchID != "" && std.BatchID != qf.BatchID {
		return false
	}
	if qf.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(std.Name), qf.Search) ||
		strings.Contains(strings.ToLower(std.StudentID), qf.Search) ||
		strings.Contains(std.Phone, qf.Search)
}
