package fee

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
)

var ts = time.Date(2026, time.October, 5, 10, 0, 0, 0, time.UTC)

func monthIDs(months []academy.Month) []string {
	ids := make([]string, 0, len(months))
	for _, m := range months {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestLedger_BillableMonths(t *testing.T) {
	store := newFixture()
	ledger := NewLedger(store, store, store)
	ctx := context.Background()

	tests := []struct {
		name    string
		enrolls []student.Enrollment
		want    []string
	}{
		{"no enrollments", nil, []string{}},
		{"from the starting month", []student.Enrollment{{CourseID: "c1", StartingMonthID: "m2"}}, []string{"m2", "m3"}},
		{"from the first month", []student.Enrollment{{CourseID: "c1", StartingMonthID: "m1"}}, []string{"m1", "m2", "m3"}},
		{
			"concatenated in enrollment order",
			[]student.Enrollment{{CourseID: "c2", StartingMonthID: "x1"}, {CourseID: "c1", StartingMonthID: "m3"}},
			[]string{"x1", "m3"},
		},
		{"unresolved starting month", []student.Enrollment{{CourseID: "c1", StartingMonthID: "gone"}}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			months, err := ledger.BillableMonths(ctx, student.Student{ID: "sx", EnrolledCourses: tc.enrolls})
			require.NoError(t, err)
			assert.Equal(t, tc.want, monthIDs(months))
		})
	}
}

func TestLedger_RemainingDue(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		payments []payment.Payment
		want     string
	}{
		{"no payments", nil, "1500"},
		{
			"month payments",
			[]payment.Payment{{
				ID: "p1", StudentID: "s1", CreatedAt: ts,
				MonthPayments: []payment.MonthPayment{
					{MonthID: "m2", MonthFee: dec("700"), PaidAmount: dec("600"), DiscountAmount: dec("100")},
					{MonthID: "m3", MonthFee: dec("800"), PaidAmount: dec("300")},
				},
			}},
			"500",
		},
		{"legacy split 150/150", []payment.Payment{legacyPayment("p1", "s1", []string{"m2", "m3"}, "300", ts)}, "1200"},
		{"legacy split skips deleted months", []payment.Payment{legacyPayment("p1", "s1", []string{"m2", "gone"}, "300", ts)}, "1350"},
		{"other student's payments", []payment.Payment{legacyPayment("p1", "s2", []string{"m2"}, "700", ts)}, "1500"},
		{
			"over credited month floors at zero",
			[]payment.Payment{
				legacyPayment("p1", "s1", []string{"m2"}, "700", ts),
				legacyPayment("p2", "s1", []string{"m2"}, "50", ts),
			},
			"800",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFixture()
			store.payments = tc.payments
			ledger := NewLedger(store, store, store)

			got, err := ledger.RemainingDue(ctx, store.students[0])
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())

			// queries are read-only
			again, err := ledger.RemainingDue(ctx, store.students[0])
			require.NoError(t, err)
			assert.Equal(t, got.String(), again.String())
		})
	}
}

func TestLedger_MonthCredits(t *testing.T) {
	store := newFixture()
	store.payments = []payment.Payment{
		legacyPayment("p1", "s1", []string{"m2", "m3"}, "300", ts),
		{
			ID: "p2", StudentID: "s1", CreatedAt: ts.Add(time.Hour),
			MonthPayments: []payment.MonthPayment{{MonthID: "m2", MonthFee: dec("700"), PaidAmount: dec("550")}},
		},
	}
	ledger := NewLedger(store, store, store)

	credits, err := ledger.MonthCredits(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, credits, 2)

	m2 := credits["m2"]
	assert.Equal(t, "700", m2.TotalPaid.String())
	assert.Equal(t, "700", m2.TotalDue.String())
	assert.Equal(t, "0", m2.Remaining(dec("700")).String())
	if assert.Len(t, m2.Payments, 2) {
		assert.Equal(t, "p1", m2.Payments[0].PaymentID)
		assert.Equal(t, "150", m2.Payments[0].PaidAmount.String())
		assert.Equal(t, "p2", m2.Payments[1].PaymentID)
	}

	_, ok := credits["m1"]
	assert.False(t, ok, "unreferenced month has no credit")
	assert.Equal(t, "500", credits["m1"].Remaining(dec("500")).String())
}

func TestLedger_Statement(t *testing.T) {
	store := newFixture()
	store.students[0].EnrolledCourses = append(store.students[0].EnrolledCourses, student.Enrollment{CourseID: "c2", StartingMonthID: "gone"})
	store.payments = []payment.Payment{{
		ID: "p1", StudentID: "s1", CreatedAt: ts, PaidAmount: dec("700"),
		MonthPayments: []payment.MonthPayment{{MonthID: "m2", MonthFee: dec("700"), PaidAmount: dec("700")}},
	}}
	ledger := NewLedger(store, store, store)

	st, err := ledger.Statement(context.Background(), store.students[0])
	require.NoError(t, err)

	require.Len(t, st.Lines, 2)
	assert.Equal(t, StatusPaid, st.Lines[0].Status)
	assert.Len(t, st.Lines[0].Payments, 1)
	assert.Equal(t, StatusUnpaid, st.Lines[1].Status)
	assert.Equal(t, []CreditEntry{}, st.Lines[1].Payments)
	assert.Equal(t, "1500", st.TotalFee.String())
	assert.Equal(t, "700", st.TotalPaid.String())
	assert.Equal(t, "800", st.TotalRemaining.String())
	assert.Equal(t, StatusPartial, st.Status)
	assert.Equal(t, []student.Enrollment{{CourseID: "c2", StartingMonthID: "gone"}}, st.Unresolved)

	empty, err := ledger.Statement(context.Background(), student.Student{ID: "s9"})
	require.NoError(t, err)
	assert.Empty(t, empty.Lines)
	assert.True(t, empty.TotalRemaining.IsZero())
	assert.Equal(t, StatusPaid, empty.Status)
}

func TestLedger_FilterByStatus(t *testing.T) {
	store := newFixture()
	enroll := []student.Enrollment{{CourseID: "c1", StartingMonthID: "m3"}}
	store.students = []student.Student{
		{ID: "paid", EnrolledCourses: enroll},
		{ID: "partial", EnrolledCourses: enroll},
		{ID: "unpaid", EnrolledCourses: enroll},
		{ID: "none"},
	}
	store.payments = []payment.Payment{
		legacyPayment("p1", "paid", []string{"m3"}, "800", ts),
		legacyPayment("p2", "partial", []string{"m3"}, "300", ts),
	}
	ledger := NewLedger(store, store, store)

	tests := []struct {
		status Status
		want   []string
	}{
		{StatusAll, []string{"paid", "partial", "unpaid", "none"}},
		{StatusPaid, []string{"paid", "none"}},
		{StatusUnpaid, []string{"partial", "unpaid"}},
		{StatusPartial, []string{"partial"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			got, err := ledger.FilterByStatus(context.Background(), store.students, tc.status)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, std := range got {
				ids = append(ids, std.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{"": StatusAll, "all": StatusAll, " Paid ": StatusPaid, "PARTIAL": StatusPartial, "unpaid": StatusUnpaid} {
		got, err := ParseStatus(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("overdue")
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "status", vErr.Fields[0].Field)
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}
