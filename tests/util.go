// Package testutil builds the services over an in-memory store for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
	"github.com/breakthefear/btf/core/user"
	logsvc "github.com/breakthefear/btf/services/logger"
	"github.com/breakthefear/btf/storage/kv"
	"github.com/breakthefear/btf/storage/recordstore"
)

// App holds every service wired over one in-memory store.
type App struct {
	Conf       *core.Config
	Store      *kv.MemoryStore
	DB         *recordstore.DB
	Logger     *logsvc.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	AcademyRepo academy.Repository
	StudentRepo student.Repository
	PaymentRepo payment.Repository
	UserRepo    user.Repository

	Activity *activity.Service
	Academy  *academy.Service
	Students *student.Service
	Payments *payment.Service
	Users    *user.Service
	Ledger   *fee.Ledger
	Desk     *fee.Desk
	Reporter *fee.Reporter
}

func NewConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Break The Fear",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 30 * time.Minute,
		},
		Storage: core.StorageConfig{Backend: core.StorageMemory, KeyPrefix: "btf_"},
		Fees: core.FeesConfig{
			CurrencySymbol:  "৳",
			StudentIDPrefix: "BTF",
			InvoicePrefix:   "INV",
			ActivityLimit:   activity.DefaultLimit,
		},
	}
}

func NewValidate() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewApp(t *testing.T) *App {
	t.Helper()

	app := &App{Conf: NewConfig(), Store: kv.NewMemoryStore()}
	db, err := recordstore.Open(context.Background(), app.Store, app.Conf)
	if err != nil {
		t.Fatalf("recordstore.Open() failed: %v", err)
	}
	app.DB = db
	app.Logger = logsvc.NewLogger(zap.NewNop(), app.Conf)
	app.Logger.Enable(false)
	app.Validate, app.Translator = NewValidate()

	app.AcademyRepo = recordstore.NewAcademyRepository(db)
	app.StudentRepo = recordstore.NewStudentRepository(db)
	app.PaymentRepo = recordstore.NewPaymentRepository(db)
	app.UserRepo = recordstore.NewUserRepository(db)

	app.Activity = activity.NewService(recordstore.NewActivityRepository(db), app.Conf)
	app.Academy = academy.NewService(app.AcademyRepo, app.Activity, app.Validate)
	app.Students = student.NewService(app.StudentRepo, app.AcademyRepo, app.Activity, app.Validate)
	app.Payments = payment.NewService(app.PaymentRepo)
	app.Users = user.NewService(app.UserRepo, app.Activity, app.Validate)
	app.Ledger = fee.NewLedger(app.AcademyRepo, app.StudentRepo, app.PaymentRepo)
	app.Desk = fee.NewDesk(app.Ledger, app.StudentRepo, app.PaymentRepo, app.Activity, app.Logger, app.Conf)
	app.Reporter = fee.NewReporter(app.Ledger, app.StudentRepo, app.PaymentRepo, app.AcademyRepo, app.Activity)
	return app
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        core.NewID("user"),
		Username:  uname,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// Catalog is a batch with one course of three months (fees 500, 700, 800) and an institution.
type Catalog struct {
	Batch       academy.Batch
	Course      academy.Course
	Months      []academy.Month
	Institution academy.Institution
}

func CreateCatalog(t *testing.T, repo academy.Repository) Catalog {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	var (
		cat Catalog
		err error
	)
	if cat.Batch, err = repo.CreateBatch(ctx, academy.Batch{ID: core.NewID("batch"), Name: "HSC 2026", CreatedAt: now}); err != nil {
		t.Fatalf("createCatalog() failed: %v", err)
	}
	cat.Course, err = repo.CreateCourse(ctx, academy.Course{ID: core.NewID("course"), BatchID: cat.Batch.ID, Name: "Physics", CreatedAt: now})
	if err != nil {
		t.Fatalf("createCatalog() failed: %v", err)
	}
	for i, amount := range []int64{500, 700, 800} {
		m, err := repo.CreateMonth(ctx, academy.Month{
			ID:          core.NewID("month"),
			CourseID:    cat.Course.ID,
			Name:        time.Month(i + 1).String(),
			MonthName:   time.Month(i + 1).String(),
			MonthNumber: null.IntFrom(i + 1),
			Fee:         decimal.NewFromInt(amount),
			CreatedAt:   now,
		})
		if err != nil {
			t.Fatalf("createCatalog() failed: %v", err)
		}
		cat.Months = append(cat.Months, m)
	}
	cat.Institution, err = repo.CreateInstitution(ctx, academy.Institution{ID: core.NewID("institution"), Name: "Dhaka College", CreatedAt: now})
	if err != nil {
		t.Fatalf("createCatalog() failed: %v", err)
	}
	return cat
}

// CreateStudent enrolls a student in the catalog course from its first month.
func CreateStudent(t *testing.T, repo student.Repository, cat Catalog, name string) student.Student {
	t.Helper()
	std, err := repo.CreateStudent(context.Background(), student.Student{
		ID:              core.NewID("student"),
		Name:            name,
		InstitutionID:   cat.Institution.ID,
		Gender:          "male",
		Phone:           "01712345678",
		GuardianName:    "Guardian of " + name,
		GuardianPhone:   "01812345678",
		BatchID:         cat.Batch.ID,
		EnrolledCourses: []student.Enrollment{{CourseID: cat.Course.ID, StartingMonthID: cat.Months[0].ID}},
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

// ErrorFields returns the fields a validation error is about, nil for other errors.
func ErrorFields(err error) []string {
	var (
		vErrs validator.ValidationErrors
		cErr  *core.ValidationError
		flds  []string
	)
	switch {
	case errors.As(err, &vErrs):
		for _, fe := range vErrs {
			flds = append(flds, fe.Field())
		}
	case errors.As(err, &cErr):
		for _, fe := range cErr.Fields {
			flds = append(flds, fe.Field)
		}
	}
	return flds
}
