// Package fee derives balances from the payment history and collects new payments.
package fee

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
)

// money precision
const places = 2

type Status string

const (
	StatusAll     Status = "all"
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusUnpaid  Status = "unpaid"
)

var ErrUnknownStatus = errors.New("status must be one of all, paid, partial or unpaid")

type (
	MonthReader interface {
		GetMonthByID(ctx context.Context, id string) (academy.Month, error)
		QueryMonthsByCourse(ctx context.Context, courseID string) ([]academy.Month, error)
	}

	StudentReader interface {
		GetStudentByID(ctx context.Context, id string) (student.Student, error)
		QueryAllStudents(ctx context.Context) ([]student.Student, error)
	}

	PaymentReader interface {
		QueryPaymentsByStudent(ctx context.Context, studentID string) ([]payment.Payment, error)
		QueryAllPayments(ctx context.Context) ([]payment.Payment, error)
	}
)

// CreditEntry is one payment's contribution to a month.
type CreditEntry struct {
	PaymentID      string          `json:"paymentId"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Date           time.Time       `json:"date"`
}

// MonthCredit is what a student's payments credited to one month. Never stored.
type MonthCredit struct {
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalDue      decimal.Decimal `json:"totalDue"`
	Payments      []CreditEntry   `json:"payments"`
}

// Remaining is max(0, fee - paid - discount), rounded to money precision.
func (mc MonthCredit) Remaining(fee decimal.Decimal) decimal.Decimal {
	return floor0(fee.Sub(mc.TotalPaid).Sub(mc.TotalDiscount)).Round(places)
}

// MonthDue is a billable month with its credit and remaining due.
type MonthDue struct {
	Month     academy.Month   `json:"month"`
	Credit    MonthCredit     `json:"credit"`
	Remaining decimal.Decimal `json:"remaining"`
}

func floor0(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FeeLookup returns the current fee of a month record, false when it no longer exists.
type FeeLookup func(monthID string) (decimal.Decimal, bool)

// CreditsFromPayments folds payments (in creation order) into per-month credits.
// Payments with monthPayments credit each entry; legacy payments split their paid
// and discount amounts evenly over `months`, skipping months that no longer exist.
func CreditsFromPayments(payments []payment.Payment, lookup FeeLookup) map[string]MonthCredit {
	credits := make(map[string]MonthCredit)
	add := func(monthID string, due decimal.Decimal, entry CreditEntry) {
		mc, ok := credits[monthID]
		if !ok {
			mc = MonthCredit{TotalDue: due}
		}
		mc.TotalPaid = mc.TotalPaid.Add(entry.PaidAmount)
		mc.TotalDiscount = mc.TotalDiscount.Add(entry.DiscountAmount)
		mc.Payments = append(mc.Payments, entry)
		credits[monthID] = mc
	}

	for _, p := range payments {
		switch {
		case len(p.MonthPayments) > 0:
			for _, mp := range p.MonthPayments {
				add(mp.MonthID, mp.MonthFee, CreditEntry{
					PaymentID:      p.ID,
					PaidAmount:     mp.PaidAmount,
					DiscountAmount: mp.DiscountAmount,
					Date:           p.CreatedAt,
				})
			}
		case len(p.Months) > 0:
			n := decimal.NewFromInt(int64(len(p.Months)))
			paid := p.PaidAmount.Div(n)
			disc := p.DiscountAmount.Div(n)
			for _, monthID := range p.Months {
				fee, ok := lookup(monthID)
				if !ok {
					continue
				}
				add(monthID, fee, CreditEntry{PaymentID: p.ID, PaidAmount: paid, DiscountAmount: disc, Date: p.CreatedAt})
			}
		}
	}
	return credits
}

// Ledger computes billable months, credits and dues. Every query re-reads the store.
type Ledger struct {
	months   MonthReader
	students StudentReader
	payments PaymentReader
}

func NewLedger(months MonthReader, students StudentReader, payments PaymentReader) *Ledger {
	return &Ledger{months: months, students: students, payments: payments}
}

// billable returns the student's billable months and the enrollments whose starting month does not resolve.
func (l *Ledger) billable(ctx context.Context, std student.Student) ([]academy.Month, []student.Enrollment, error) {
	var (
		months     []academy.Month
		unresolved []student.Enrollment
	)
	for _, enr := range std.EnrolledCourses {
		start, err := l.months.GetMonthByID(ctx, enr.StartingMonthID)
		if err != nil {
			if core.IsNotFound(err) {
				unresolved = append(unresolved, enr)
				continue
			}
			return nil, nil, errors.Wrap(err, "getting starting month")
		}

		courseMonths, err := l.months.QueryMonthsByCourse(ctx, enr.CourseID)
		if err != nil {
			return nil, nil, errors.Wrap(err, "querying months by course")
		}
		sorted := make([]academy.Month, len(courseMonths))
		copy(sorted, courseMonths)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number() < sorted[j].Number() })

		for _, m := range sorted {
			if m.Number() >= start.Number() {
				months = append(months, m)
			}
		}
	}
	return months, unresolved, nil
}

// BillableMonths lists, per enrollment, the course months from the starting month onwards.
// Enrollments are concatenated without deduplication.
func (l *Ledger) BillableMonths(ctx context.Context, std student.Student) ([]academy.Month, error) {
	months, _, err := l.billable(ctx, std)
	return months, err
}

func (l *Ledger) feeLookup(ctx context.Context, lookupErr *error) FeeLookup {
	return func(monthID string) (decimal.Decimal, bool) {
		m, err := l.months.GetMonthByID(ctx, monthID)
		if err != nil {
			if !core.IsNotFound(err) && *lookupErr == nil {
				*lookupErr = errors.Wrap(err, "getting month")
			}
			return decimal.Zero, false
		}
		return m.Fee, true
	}
}

func (l *Ledger) credits(ctx context.Context, payments []payment.Payment) (map[string]MonthCredit, error) {
	var lookupErr error
	credits := CreditsFromPayments(payments, l.feeLookup(ctx, &lookupErr))
	return credits, lookupErr
}

// MonthCredits returns the credits of every month referenced by the student's payments.
func (l *Ledger) MonthCredits(ctx context.Context, studentID string) (map[string]MonthCredit, error) {
	payments, err := l.payments.QueryPaymentsByStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments by student")
	}
	return l.credits(ctx, payments)
}

func dues(months []academy.Month, credits map[string]MonthCredit) ([]MonthDue, decimal.Decimal) {
	total := decimal.Zero
	out := make([]MonthDue, 0, len(months))
	for _, m := range months {
		mc := credits[m.ID]
		rem := mc.Remaining(m.Fee)
		total = total.Add(rem)
		out = append(out, MonthDue{Month: m, Credit: mc, Remaining: rem})
	}
	return out, total
}

// RemainingDueByMonth returns each billable month with its remaining due.
func (l *Ledger) RemainingDueByMonth(ctx context.Context, std student.Student) ([]MonthDue, error) {
	months, _, err := l.billable(ctx, std)
	if err != nil {
		return nil, err
	}
	credits, err := l.MonthCredits(ctx, std.ID)
	if err != nil {
		return nil, err
	}
	out, _ := dues(months, credits)
	return out, nil
}

// RemainingDue sums the remaining due over the student's billable months.
func (l *Ledger) RemainingDue(ctx context.Context, std student.Student) (decimal.Decimal, error) {
	months, _, err := l.billable(ctx, std)
	if err != nil {
		return decimal.Zero, err
	}
	credits, err := l.MonthCredits(ctx, std.ID)
	if err != nil {
		return decimal.Zero, err
	}
	_, total := dues(months, credits)
	return total, nil
}

type StatementLine struct {
	MonthID     string          `json:"monthId"`
	CourseID    string          `json:"courseId"`
	Name        string          `json:"name"`
	MonthNumber int             `json:"monthNumber"`
	Fee         decimal.Decimal `json:"fee"`
	Paid        decimal.Decimal `json:"paid"`
	Discount    decimal.Decimal `json:"discount"`
	Remaining   decimal.Decimal `json:"remaining"`
	Status      Status          `json:"status"`
	Payments    []CreditEntry   `json:"payments"`
}

type Statement struct {
	StudentID      string               `json:"studentId"`
	Lines          []StatementLine      `json:"lines"`
	TotalFee       decimal.Decimal      `json:"totalFee"`
	TotalPaid      decimal.Decimal      `json:"totalPaid"`
	TotalDiscount  decimal.Decimal      `json:"totalDiscount"`
	TotalRemaining decimal.Decimal      `json:"totalRemaining"`
	Status         Status               `json:"status"`
	Unresolved     []student.Enrollment `json:"unresolved"`
}

func lineStatus(remaining, paid, discount decimal.Decimal) Status {
	switch {
	case remaining.IsZero():
		return StatusPaid
	case paid.IsPositive() || discount.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// overallStatus is paid when nothing remains, partial when the student paid anything.
func overallStatus(remaining decimal.Decimal, payments []payment.Payment) Status {
	if remaining.IsZero() {
		return StatusPaid
	}
	for _, p := range payments {
		if p.PaidAmount.IsPositive() {
			return StatusPartial
		}
	}
	return StatusUnpaid
}

// Statement is the per-month fee statement of a student.
func (l *Ledger) Statement(ctx context.Context, std student.Student) (Statement, error) {
	months, unresolved, err := l.billable(ctx, std)
	if err != nil {
		return Statement{}, err
	}
	payments, err := l.payments.QueryPaymentsByStudent(ctx, std.ID)
	if err != nil {
		return Statement{}, errors.Wrap(err, "querying payments by student")
	}
	credits, err := l.credits(ctx, payments)
	if err != nil {
		return Statement{}, err
	}

	st := Statement{
		StudentID:  std.ID,
		Lines:      make([]StatementLine, 0, len(months)),
		Unresolved: unresolved,
	}
	if st.Unresolved == nil {
		st.Unresolved = []student.Enrollment{}
	}
	mdues, total := dues(months, credits)
	for _, md := range mdues {
		line := StatementLine{
			MonthID:     md.Month.ID,
			CourseID:    md.Month.CourseID,
			Name:        md.Month.Name,
			MonthNumber: md.Month.Number(),
			Fee:         md.Month.Fee,
			Paid:        md.Credit.TotalPaid.Round(places),
			Discount:    md.Credit.TotalDiscount.Round(places),
			Remaining:   md.Remaining,
			Payments:    md.Credit.Payments,
		}
		if line.Payments == nil {
			line.Payments = []CreditEntry{}
		}
		line.Status = lineStatus(line.Remaining, line.Paid, line.Discount)
		st.Lines = append(st.Lines, line)

		st.TotalFee = st.TotalFee.Add(line.Fee)
		st.TotalPaid = st.TotalPaid.Add(line.Paid)
		st.TotalDiscount = st.TotalDiscount.Add(line.Discount)
	}
	st.TotalRemaining = total
	st.Status = overallStatus(total, payments)
	return st, nil
}

// ParseStatus validates a student-list status filter; empty means all.
func ParseStatus(s string) (Status, error) {
	switch st := Status(core.CleanString(s, true /* lower */)); st {
	case "", StatusAll:
		return StatusAll, nil
	case StatusPaid, StatusPartial, StatusUnpaid:
		return st, nil
	default:
		return "", core.NewValidationError(ErrUnknownStatus, core.FieldError{Field: "status", Error: ErrUnknownStatus.Error()})
	}
}

// FilterByStatus keeps the students matching status: paid when nothing remains,
// unpaid when something remains, partial when something remains after some payment.
func (l *Ledger) FilterByStatus(ctx context.Context, students []student.Student, status Status) ([]student.Student, error) {
	if status == StatusAll || status == "" {
		return students, nil
	}
	out := make([]student.Student, 0, len(students))
	for _, std := range students {
		st, err := l.Statement(ctx, std)
		if err != nil {
			return nil, err
		}
		var keep bool
		switch status {
		case StatusPaid:
			keep = st.TotalRemaining.IsZero()
		case StatusUnpaid:
			keep = st.TotalRemaining.IsPositive()
		case StatusPartial:
			keep = st.Status == StatusPartial
		}
		if keep {
			out = append(out, std)
		}
	}
	return out, nil
}
