package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	. "github.com/breakthefear/btf/apps/api/echo"
	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/tests"
)

func Test_reportApi(t *testing.T) {
	app, srv := setup(t)
	mgr, token := operator(t, app, srv)
	cat := testutil.CreateCatalog(t, app.AcademyRepo)
	std := testutil.CreateStudent(t, app.StudentRepo, cat, "Rahim")

	_, err := app.Desk.CollectPayment(actorCtx(mgr), fee.PaymentRequest{
		StudentID:  std.ID,
		CourseIDs:  []string{cat.Course.ID},
		MonthIDs:   []string{cat.Months[0].ID},
		PaidAmount: decimal.NewFromInt(300),
		ReceivedBy: "Front desk",
	})
	require.NoError(t, err)

	ctx := context.Background()
	dash, err := app.Reporter.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, "1700", dash.PendingFees.String())
	require.Equal(t, "300", dash.MonthlyRevenue.String())

	latest, err := app.Activity.Recent(ctx, 1)
	require.NoError(t, err)
	dues, total, err := app.Reporter.PendingByStudent(ctx)
	require.NoError(t, err)

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/dashboard",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "dashboard",
			method:   http.MethodGet,
			path:     "/v1/dashboard",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, dash),
		},
		{
			name:     "activities",
			method:   http.MethodGet,
			path:     "/v1/activities?limit=1",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, latest),
		},
		{
			name:     "activities: bad limit",
			method:   http.MethodGet,
			path:     "/v1/activities?limit=abc",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, latest),
		},
		{
			name:     "pending",
			method:   http.MethodGet,
			path:     "/v1/reports/pending",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, PendingResponse{Students: dues, Total: total}),
		},
	}
	runHTTPTests(t, srv, tests)
}
