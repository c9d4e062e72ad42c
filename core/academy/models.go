package academy

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/breakthefear/btf/core"
)

type Batch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

type Course struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batchId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// Month is a billable month of a course. Fee is stored under `payment`.
type Month struct {
	ID          string          `json:"id"`
	CourseID    string          `json:"courseId"`
	Name        string          `json:"name"`
	MonthName   string          `json:"monthName,omitempty"`
	MonthNumber null.Int        `json:"monthNumber"`
	Fee         decimal.Decimal `json:"payment"`
	CreatedAt   time.Time       `json:"createdAt"`
	CreatedBy   string          `json:"createdBy,omitempty"`
}

// Number is the month's position in its course; an absent number sorts as 0.
func (m Month) Number() int {
	if m.MonthNumber.Valid {
		return m.MonthNumber.Int
	}
	return 0
}

type Institution struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

type NewBatch struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	return validate.Struct(nb)
}

type NewCourse struct {
	BatchID string `json:"batchId" validate:"required"`
	Name    string `json:"name" validate:"notblank,max=100"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.BatchID = core.CleanString(nc.BatchID)
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// UpdateCourse only renames; a course never moves to another batch.
type UpdateCourse struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

type NewMonth struct {
	CourseID    string          `json:"courseId" validate:"required"`
	Name        string          `json:"name" validate:"notblank,max=100"`
	MonthName   string          `json:"monthName"`
	MonthNumber *int            `json:"monthNumber" validate:"omitempty,gte=1"`
	Fee         decimal.Decimal `json:"payment"`
}

func (nm *NewMonth) Validate(validate *validator.Validate) error {
	nm.CourseID = core.CleanString(nm.CourseID)
	nm.Name = core.CleanString(nm.Name)
	nm.MonthName = core.CleanString(nm.MonthName)
	if err := validate.Struct(nm); err != nil {
		return err
	}
	return validateFee(nm.Fee)
}

type UpdateMonth struct {
	Name        string           `json:"name"`
	MonthName   string           `json:"monthName"`
	MonthNumber *int             `json:"monthNumber" validate:"omitempty,gte=1"`
	Fee         *decimal.Decimal `json:"payment"`
}

func (um *UpdateMonth) Validate(validate *validator.Validate, orig Month) error {
	if name := core.CleanString(um.Name); name != "" {
		um.Name = name
	} else {
		um.Name = orig.Name
	}
	if mname := core.CleanString(um.MonthName); mname != "" {
		um.MonthName = mname
	} else {
		um.MonthName = orig.MonthName
	}
	if err := validate.Struct(um); err != nil {
		return err
	}
	if um.Fee != nil {
		return validateFee(*um.Fee)
	}
	return nil
}

func validateFee(fee decimal.Decimal) error {
	if !fee.IsPositive() {
		return core.NewValidationError(ErrInvalidFee, core.FieldError{Field: "payment", Error: ErrInvalidFee.Error()})
	}
	return nil
}

type NewInstitution struct {
	Name    string `json:"name" validate:"notblank,max=200"`
	Address string `json:"address" validate:"max=500"`
}

func (ni *NewInstitution) Validate(validate *validator.Validate) error {
	ni.Name = core.CleanString(ni.Name)
	ni.Address = core.CleanString(ni.Address)
	return validate.Struct(ni)
}
