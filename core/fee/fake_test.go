package fee

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func month(id, courseID string, number int, fee string) academy.Month {
	return academy.Month{ID: id, CourseID: courseID, Name: id, MonthNumber: null.IntFrom(number), Fee: dec(fee)}
}

// fakeStore backs every reader and writer the fee package needs.
type fakeStore struct {
	mu       sync.Mutex
	months   []academy.Month
	students []student.Student
	payments []payment.Payment
	batches  []academy.Batch
}

func (s *fakeStore) GetMonthByID(_ context.Context, id string) (academy.Month, error) {
	for _, m := range s.months {
		if m.ID == id {
			return m, nil
		}
	}
	return academy.Month{}, core.NewNotFoundError("month", id)
}

func (s *fakeStore) QueryMonthsByCourse(_ context.Context, courseID string) ([]academy.Month, error) {
	var out []academy.Month
	for _, m := range s.months {
		if m.CourseID == courseID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	for _, std := range s.students {
		if std.ID == id {
			return std, nil
		}
	}
	return student.Student{}, core.NewNotFoundError("student", id)
}

func (s *fakeStore) QueryAllStudents(context.Context) ([]student.Student, error) {
	return s.students, nil
}

func (s *fakeStore) QueryPaymentsByStudent(_ context.Context, studentID string) ([]payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []payment.Payment
	for _, p := range s.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) QueryAllPayments(context.Context) ([]payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]payment.Payment(nil), s.payments...), nil
}

func (s *fakeStore) AddPayment(_ context.Context, draft payment.Payment) (payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft.ID = core.NewID("payment")
	draft.InvoiceNumber = "INV2026100001"
	s.payments = append(s.payments, draft)
	return draft, nil
}

func (s *fakeStore) QueryAllBatches(context.Context) ([]academy.Batch, error) {
	return s.batches, nil
}

type fakeRecorder struct {
	acts []activity.Activity
}

func (r *fakeRecorder) Record(ctx context.Context, typ, description string, data map[string]interface{}) error {
	r.acts = append(r.acts, activity.Activity{
		Type:        typ,
		Description: description,
		Data:        data,
		Timestamp:   core.NowFunc(),
		User:        core.ActorFromContext(ctx).Name(),
	})
	return nil
}

func (r *fakeRecorder) Recent(_ context.Context, limit int) ([]activity.Activity, error) {
	if limit > len(r.acts) {
		limit = len(r.acts)
	}
	return r.acts[:limit], nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// newFixture returns one course (c1) with three months and a student enrolled from m2.
func newFixture() *fakeStore {
	return &fakeStore{
		months: []academy.Month{
			month("m3", "c1", 3, "800"),
			month("m1", "c1", 1, "500"),
			month("m2", "c1", 2, "700"),
			month("x1", "c2", 1, "300"),
		},
		students: []student.Student{
			{
				ID:              "s1",
				StudentID:       "BTF260001",
				Name:            "Rahim",
				BatchID:         "b1",
				EnrolledCourses: []student.Enrollment{{CourseID: "c1", StartingMonthID: "m2"}},
			},
		},
		batches: []academy.Batch{{ID: "b1", Name: "HSC 2026"}},
	}
}

func legacyPayment(id, studentID string, months []string, paid string, at time.Time) payment.Payment {
	return payment.Payment{ID: id, StudentID: studentID, Months: months, PaidAmount: dec(paid), CreatedAt: at}
}
