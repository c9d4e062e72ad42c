package fee

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/payment"
)

func newDesk(store *fakeStore) (*Desk, *fakeRecorder) {
	rec := &fakeRecorder{}
	conf := &core.Config{Fees: core.FeesConfig{CurrencySymbol: "৳"}}
	return NewDesk(NewLedger(store, store, store), store, store, rec, nopLogger{}, conf), rec
}

func validRequest() PaymentRequest {
	return PaymentRequest{
		StudentID:  "s1",
		CourseIDs:  []string{"c1"},
		MonthIDs:   []string{"m2"},
		PaidAmount: dec("700"),
		ReceivedBy: "Karim",
	}
}

func TestDesk_CollectPayment_Errors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(req *PaymentRequest)
		wantErr error
		field   string
	}{
		{"no student", func(r *PaymentRequest) { r.StudentID = " " }, ErrStudentRequired, "studentId"},
		{"no months", func(r *PaymentRequest) { r.MonthIDs = nil }, ErrNoMonthsSelected, "months"},
		{"no courses", func(r *PaymentRequest) { r.CourseIDs = []string{" "} }, ErrNoCoursesSelected, "courses"},
		{"month before the starting month", func(r *PaymentRequest) { r.MonthIDs = []string{"m1"} }, ErrMonthNotBillable, "months"},
		{"month of another course", func(r *PaymentRequest) { r.MonthIDs = []string{"x1"} }, ErrMonthNotBillable, "months"},
		{"course not enrolled", func(r *PaymentRequest) { r.CourseIDs = []string{"c1", "c2"} }, ErrCourseNotEnrolled, "courses"},
		{"course not selected", func(r *PaymentRequest) { r.CourseIDs = []string{"c2"} }, ErrCourseNotSelected, "courses"},
		{"unknown discount type", func(r *PaymentRequest) {
			r.DiscountType = "bogus"
			r.DiscountValue = dec("10")
		}, ErrInvalidDiscount, "discountType"},
		{"percentage above 100", func(r *PaymentRequest) {
			r.DiscountType = payment.DiscountPercentage
			r.DiscountValue = dec("101")
		}, ErrInvalidDiscount, "discountValue"},
		{"discount on unselected month", func(r *PaymentRequest) {
			r.DiscountType = payment.DiscountFixed
			r.DiscountValue = dec("100")
			r.DiscountApplicableMonths = []string{"m3"}
			r.Reference = "scholarship"
		}, ErrDiscountNotSelected, "discountApplicableMonths"},
		{"fully discounted", func(r *PaymentRequest) {
			r.DiscountType = payment.DiscountPercentage
			r.DiscountValue = dec("100")
			r.Reference = "scholarship"
		}, ErrTotalNotPositive, "months"},
		{"zero paid", func(r *PaymentRequest) { r.PaidAmount = dec("0") }, ErrPaidNotPositive, "paidAmount"},
		{"discount without reference", func(r *PaymentRequest) {
			r.DiscountType = payment.DiscountFixed
			r.DiscountValue = dec("100")
			r.PaidAmount = dec("600")
		}, ErrReferenceRequired, "reference"},
		{"partial discounted payment", func(r *PaymentRequest) {
			r.DiscountType = payment.DiscountFixed
			r.DiscountValue = dec("100")
			r.PaidAmount = dec("500")
			r.Reference = "scholarship"
		}, ErrPartialDiscounted, "paidAmount"},
		{"no receiver", func(r *PaymentRequest) { r.ReceivedBy = "  " }, ErrReceivedByRequired, "receivedBy"},
		{"overpayment", func(r *PaymentRequest) { r.PaidAmount = dec("701") }, ErrOverpayment, "paidAmount"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFixture()
			desk, rec := newDesk(store)
			req := validRequest()
			tc.modify(&req)

			_, err := desk.CollectPayment(context.Background(), req)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "want %v, got %v", tc.wantErr, err)
			}
			assert.Equal(t, tc.field, vErr.Fields[0].Field)
			assert.Empty(t, store.payments, "nothing is stored")
			assert.Empty(t, rec.acts, "nothing is recorded")
		})
	}
}

func TestDesk_CollectPayment_UnknownStudent(t *testing.T) {
	store := newFixture()
	desk, rec := newDesk(store)
	req := validRequest()
	req.StudentID = "s9"

	_, err := desk.CollectPayment(context.Background(), req)
	assert.True(t, core.IsNotFound(err), "got %v", err)
	var vErr *core.ValidationError
	assert.False(t, errors.As(err, &vErr))
	assert.Empty(t, store.payments)
	assert.Empty(t, rec.acts)

	_, err = desk.Quote(context.Background(), req)
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func TestDesk_CollectPayment(t *testing.T) {
	store := newFixture()
	desk, rec := newDesk(store)
	ledger := NewLedger(store, store, store)
	ctx := core.WithActor(context.Background(), core.Actor{ID: "u1", Username: "admin", Role: "admin"})

	before, err := ledger.RemainingDue(ctx, store.students[0])
	require.NoError(t, err)
	require.Equal(t, "1500", before.String())

	req := validRequest()
	req.MonthIDs = []string{"m2", "m3"}
	req.PaidAmount = dec("1000")
	receipt, err := desk.CollectPayment(ctx, req)
	require.NoError(t, err)

	pmt := receipt.Payment
	assert.NotEmpty(t, pmt.ID)
	assert.Equal(t, "INV2026100001", pmt.InvoiceNumber)
	assert.Equal(t, "Rahim", pmt.StudentName)
	assert.Equal(t, "BTF260001", pmt.StudentStudentID)
	assert.Equal(t, "1500", pmt.TotalAmount.String())
	assert.Equal(t, "1000", pmt.PaidAmount.String())
	assert.Equal(t, "500", pmt.DueAmount.String())
	assert.Equal(t, "admin", pmt.CreatedBy)
	assert.Equal(t, []string{}, pmt.DiscountApplicableMonths)
	require.Len(t, pmt.MonthPayments, 2)
	assert.Equal(t, "700", pmt.MonthPayments[0].PaidAmount.String())
	assert.Equal(t, "300", pmt.MonthPayments[1].PaidAmount.String())

	after, err := ledger.RemainingDue(ctx, store.students[0])
	require.NoError(t, err)
	assert.Equal(t, "500", after.String())
	assert.True(t, after.LessThan(before))

	require.Len(t, rec.acts, 1)
	assert.Equal(t, activity.PaymentReceived, rec.acts[0].Type)
	assert.Equal(t, "Payment of ৳1,000 received from Rahim", rec.acts[0].Description)
	assert.Equal(t, "admin", rec.acts[0].User)

	// m2 is settled now
	req = validRequest()
	_, err = desk.CollectPayment(ctx, req)
	assert.True(t, errors.Is(err, ErrMonthSettled), "got %v", err)

	// m3 has 500 left and takes a discounted settlement
	req = validRequest()
	req.MonthIDs = []string{"m3"}
	req.DiscountType = payment.DiscountPercentage
	req.DiscountValue = dec("10")
	req.Reference = "sibling"
	req.PaidAmount = dec("450")
	receipt, err = desk.CollectPayment(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "50", receipt.Payment.DiscountAmount.String())
	assert.Equal(t, "450", receipt.Payment.DiscountedAmount.String())
	assert.Equal(t, []string{"m3"}, receipt.Payment.DiscountApplicableMonths)
	assert.Equal(t, "0", receipt.Payment.DueAmount.String())

	after, err = ledger.RemainingDue(ctx, store.students[0])
	require.NoError(t, err)
	assert.True(t, after.IsZero())
}

func TestDesk_Quote(t *testing.T) {
	store := newFixture()
	desk, rec := newDesk(store)

	req := validRequest()
	req.PaidAmount = dec("200")
	alloc, err := desk.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "500", alloc.DueAmount.String())
	assert.Empty(t, store.payments)
	assert.Empty(t, rec.acts)
}
