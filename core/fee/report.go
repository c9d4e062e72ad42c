package fee

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
)

// DashboardActivities is the number of recent activities shown on the dashboard.
const DashboardActivities = 10

type (
	BatchReader interface {
		QueryAllBatches(ctx context.Context) ([]academy.Batch, error)
	}

	ActivityReader interface {
		Recent(ctx context.Context, limit int) ([]activity.Activity, error)
	}

	StudentDue struct {
		StudentID   string          `json:"id"`
		StudentCode string          `json:"studentId"`
		Name        string          `json:"name"`
		Remaining   decimal.Decimal `json:"remaining"`
	}

	Dashboard struct {
		TotalStudents    int                 `json:"totalStudents"`
		TotalBatches     int                 `json:"totalBatches"`
		PendingFees      decimal.Decimal     `json:"pendingFees"`
		MonthlyRevenue   decimal.Decimal     `json:"monthlyRevenue"`
		RecentActivities []activity.Activity `json:"recentActivities"`
	}

	// Reporter aggregates the ledger over all students.
	Reporter struct {
		ledger     *Ledger
		students   StudentReader
		payments   PaymentReader
		batches    BatchReader
		activities ActivityReader
	}
)

func NewReporter(ledger *Ledger, students StudentReader, payments PaymentReader, batches BatchReader, activities ActivityReader) *Reporter {
	return &Reporter{ledger: ledger, students: students, payments: payments, batches: batches, activities: activities}
}

// PendingByStudent returns the remaining due of every student (insertion order) and their sum.
func (r *Reporter) PendingByStudent(ctx context.Context) ([]StudentDue, decimal.Decimal, error) {
	students, err := r.students.QueryAllStudents(ctx)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "querying students")
	}
	total := decimal.Zero
	out := make([]StudentDue, 0, len(students))
	for _, std := range students {
		rem, err := r.ledger.RemainingDue(ctx, std)
		if err != nil {
			return nil, decimal.Zero, err
		}
		total = total.Add(rem)
		out = append(out, StudentDue{StudentID: std.ID, StudentCode: std.StudentID, Name: std.Name, Remaining: rem})
	}
	return out, total, nil
}

// PendingFees is the sum of RemainingDue over all students.
func (r *Reporter) PendingFees(ctx context.Context) (decimal.Decimal, error) {
	_, total, err := r.PendingByStudent(ctx)
	return total, err
}

// MonthWindow is the calendar month containing now: [first day, first day of next month).
func MonthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// MonthlyRevenue sums paidAmount over the payments created in the calendar month of now.
func (r *Reporter) MonthlyRevenue(ctx context.Context, now time.Time) (decimal.Decimal, error) {
	payments, err := r.payments.QueryAllPayments(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "querying payments")
	}
	start, end := MonthWindow(now)
	total := decimal.Zero
	for _, p := range payments {
		if !p.CreatedAt.Before(start) && p.CreatedAt.Before(end) {
			total = total.Add(p.PaidAmount)
		}
	}
	return total, nil
}

func (r *Reporter) Dashboard(ctx context.Context) (Dashboard, error) {
	students, err := r.students.QueryAllStudents(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying students")
	}
	batches, err := r.batches.QueryAllBatches(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying batches")
	}
	pending, err := r.PendingFees(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	revenue, err := r.MonthlyRevenue(ctx, core.NowFunc())
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := r.activities.Recent(ctx, DashboardActivities)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying activities")
	}
	if recent == nil {
		recent = []activity.Activity{}
	}
	return Dashboard{
		TotalStudents:    len(students),
		TotalBatches:     len(batches),
		PendingFees:      pending,
		MonthlyRevenue:   revenue,
		RecentActivities: recent,
	}, nil
}
