package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/tests"
)

func Test_paymentApi(t *testing.T) {
	app, srv := setup(t)
	mgr, token := operator(t, app, srv)
	cat := testutil.CreateCatalog(t, app.AcademyRepo)
	std := testutil.CreateStudent(t, app.StudentRepo, cat, "Rahim")

	request := func(amount int64, months ...string) fee.PaymentRequest {
		return fee.PaymentRequest{
			StudentID:  std.ID,
			CourseIDs:  []string{cat.Course.ID},
			MonthIDs:   months,
			PaidAmount: decimal.NewFromInt(amount),
			ReceivedBy: "Front desk",
		}
	}
	fieldErr := func(field string, err error) []byte {
		return marchallObj(t, map[string]string{field: err.Error()})
	}

	discounted := request(1080, cat.Months[0].ID, cat.Months[1].ID)
	discounted.DiscountType = payment.DiscountPercentage
	discounted.DiscountValue = decimal.NewFromInt(10)
	discounted.Reference = "Principal"

	noRef := discounted
	noRef.Reference = ""

	tests := []httpTest{
		{
			name:     "no months",
			method:   http.MethodPost,
			path:     "/v1/payments",
			token:    token,
			body:     marchallObj(t, request(500)),
			wantCode: http.StatusBadRequest,
			wantData: fieldErr("months", fee.ErrNoMonthsSelected),
		},
		{
			name:     "overpayment",
			method:   http.MethodPost,
			path:     "/v1/payments",
			token:    token,
			body:     marchallObj(t, request(600, cat.Months[0].ID)),
			wantCode: http.StatusBadRequest,
			wantData: fieldErr("paidAmount", fee.ErrOverpayment),
		},
		{
			name:     "discount without reference",
			method:   http.MethodPost,
			path:     "/v1/payments",
			token:    token,
			body:     marchallObj(t, noRef),
			wantCode: http.StatusBadRequest,
			wantData: fieldErr("reference", fee.ErrReferenceRequired),
		},
		{
			name:     "unknown student",
			method:   http.MethodPost,
			path:     "/v1/payments",
			token:    token,
			body:     marchallObj(t, fee.PaymentRequest{StudentID: "nope"}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: `student "nope" not found`}),
		},
		{
			name:     "no student",
			method:   http.MethodPost,
			path:     "/v1/payments",
			token:    token,
			body:     marchallObj(t, fee.PaymentRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: fieldErr("studentId", fee.ErrStudentRequired),
		},
		{
			name:     "unknown payment",
			method:   http.MethodGet,
			path:     "/v1/payments/nope",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: `payment "nope" not found`}),
		},
		{
			name:     "no payments",
			method:   http.MethodGet,
			path:     "/v1/payments",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallList(t),
		},
	}
	runHTTPTests(t, srv, tests)

	t.Run("quote", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments/quote", token, marchallObj(t, discounted))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var alloc fee.Allocation
		unmarchall(t, rec, &alloc)
		assert.Equal(t, "1200", alloc.TotalAmount.String())
		assert.Equal(t, "120", alloc.DiscountAmount.String())
		assert.Equal(t, "0", alloc.DueAmount.String())

		// nothing recorded
		payments, err := app.Payments.Query(context.Background(), payment.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	var receipt fee.Receipt
	t.Run("collect", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments", token, marchallObj(t, discounted))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		unmarchall(t, rec, &receipt)
		assert.NotEmpty(t, receipt.Payment.ID)
		assert.Regexp(t, `^INV\d{6}0001$`, receipt.Payment.InvoiceNumber)
		assert.Equal(t, "1080", receipt.Payment.PaidAmount.String())
		assert.Equal(t, mgr.Username, receipt.Payment.CreatedBy)
		require.Len(t, receipt.Payment.MonthPayments, 2)
		assert.Equal(t, "450", receipt.Payment.MonthPayments[0].PaidAmount.String())
		assert.Equal(t, "630", receipt.Payment.MonthPayments[1].PaidAmount.String())

		remaining, err := app.Ledger.RemainingDue(context.Background(), std)
		require.NoError(t, err)
		assert.Equal(t, "800", remaining.String())
	})

	t.Run("settled month", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments", token, marchallObj(t, request(100, cat.Months[0].ID)))
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: fieldErr("months", fee.ErrMonthSettled)}, rec)
	})

	t.Run("query", func(t *testing.T) {
		stored, err := app.Payments.GetByID(context.Background(), receipt.Payment.ID)
		require.NoError(t, err)

		runHTTPTests(t, srv, []httpTest{
			{
				name:     "all",
				method:   http.MethodGet,
				path:     "/v1/payments",
				token:    token,
				wantCode: http.StatusOK,
				wantData: marchallList(t, stored),
			},
			{
				name:     "discounted",
				method:   http.MethodGet,
				path:     "/v1/payments?discounted=true",
				token:    token,
				wantCode: http.StatusOK,
				wantData: marchallList(t, stored),
			},
			{
				name:     "retrieve",
				method:   http.MethodGet,
				path:     "/v1/payments/" + stored.ID,
				token:    token,
				wantCode: http.StatusOK,
				wantData: marchallObj(t, stored),
			},
		})
	})
}
