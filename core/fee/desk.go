package fee

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/payment"
)

var (
	// errors, in the order they are checked
	ErrStudentRequired     = errors.New("student is required")
	ErrNoMonthsSelected    = errors.New("please select at least one month")
	ErrNoCoursesSelected   = errors.New("please select at least one course")
	ErrMonthNotBillable    = errors.New("month is not billable for this student")
	ErrMonthSettled        = errors.New("month is already paid")
	ErrCourseNotEnrolled   = errors.New("student is not enrolled in this course")
	ErrCourseNotSelected   = errors.New("month belongs to a course that is not selected")
	ErrInvalidDiscount     = errors.New("invalid discount")
	ErrDiscountNotSelected = errors.New("discount applies to a month that is not selected")
	ErrTotalNotPositive    = errors.New("total amount must be greater than 0")
	ErrPaidNotPositive     = errors.New("paid amount must be greater than 0")
	ErrReferenceRequired   = errors.New("reference is required when discount is applied")
	ErrPartialDiscounted   = errors.New("discounted payments cannot be partial, please pay the full discounted amount")
	ErrReceivedByRequired  = errors.New("please enter who received the payment")
	ErrOverpayment         = errors.New("paid amount exceeds the amount due")
)

type (
	// PaymentRequest is a payment as entered at the fee desk.
	PaymentRequest struct {
		StudentID                string               `json:"studentId"`
		CourseIDs                []string             `json:"courses"`
		MonthIDs                 []string             `json:"months"`
		DiscountType             payment.DiscountType `json:"discountType"`
		DiscountValue            decimal.Decimal      `json:"discountValue"`
		// DiscountApplicableMonths defaults to every month in MonthIDs when empty.
		DiscountApplicableMonths []string             `json:"discountApplicableMonths"`
		PaidAmount               decimal.Decimal      `json:"paidAmount"`
		Reference                string               `json:"reference"`
		ReceivedBy               string               `json:"receivedBy"`
	}

	Receipt struct {
		Payment    payment.Payment `json:"payment"`
		Allocation Allocation      `json:"allocation"`
	}

	PaymentWriter interface {
		AddPayment(ctx context.Context, draft payment.Payment) (payment.Payment, error)
	}

	// Desk validates, allocates and records payments. Collections are serialised
	// so a month's remaining due cannot change between the read and the write.
	Desk struct {
		mu       sync.Mutex
		ledger   *Ledger
		students StudentReader
		payments PaymentWriter
		activity activity.Recorder
		logger   core.Logger
		currency string
	}
)

func NewDesk(
	ledger *Ledger,
	students StudentReader,
	payments PaymentWriter,
	recorder activity.Recorder,
	logger core.Logger,
	conf *core.Config,
) *Desk {
	return &Desk{
		ledger:   ledger,
		students: students,
		payments: payments,
		activity: recorder,
		logger:   logger,
		currency: conf.Fees.CurrencySymbol,
	}
}

func invalid(err error, field string) error {
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

func cleanIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = core.CleanString(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (req *PaymentRequest) clean() {
	req.StudentID = core.CleanString(req.StudentID)
	req.CourseIDs = cleanIDs(req.CourseIDs)
	req.MonthIDs = cleanIDs(req.MonthIDs)
	req.DiscountApplicableMonths = cleanIDs(req.DiscountApplicableMonths)
	req.DiscountType = payment.DiscountType(core.CleanString(string(req.DiscountType), true /* lower */))
	req.Reference = core.CleanString(req.Reference)
	req.ReceivedBy = core.CleanString(req.ReceivedBy)
}

// selection resolves the requested months against the student's billable months.
func (d *Desk) selection(req PaymentRequest, enrolled map[string]bool, dues []MonthDue) ([]SelectedMonth, error) {
	byID := make(map[string]MonthDue, len(dues))
	for _, md := range dues {
		if _, ok := byID[md.Month.ID]; !ok {
			byID[md.Month.ID] = md
		}
	}
	courses := make(map[string]bool, len(req.CourseIDs))
	for _, id := range req.CourseIDs {
		courses[id] = true
	}

	selected := make([]SelectedMonth, 0, len(req.MonthIDs))
	for _, id := range req.MonthIDs {
		md, ok := byID[id]
		if !ok {
			return nil, invalid(ErrMonthNotBillable, "months")
		}
		if !md.Remaining.IsPositive() {
			return nil, invalid(ErrMonthSettled, "months")
		}
		if !courses[md.Month.CourseID] {
			return nil, invalid(ErrCourseNotSelected, "courses")
		}
		selected = append(selected, SelectedMonth{
			MonthID:      md.Month.ID,
			MonthFee:     md.Month.Fee,
			RemainingDue: md.Remaining,
			AlreadyPaid:  md.Credit.TotalPaid.Round(places),
		})
	}
	for _, id := range req.CourseIDs {
		if !enrolled[id] {
			return nil, invalid(ErrCourseNotEnrolled, "courses")
		}
	}
	return selected, nil
}

func (req PaymentRequest) discount() (Discount, error) {
	if req.DiscountValue.IsZero() && req.DiscountType == "" {
		return Discount{}, nil
	}
	if req.DiscountValue.IsNegative() || !req.DiscountType.Valid() {
		return Discount{}, invalid(ErrInvalidDiscount, "discountType")
	}
	if req.DiscountType == payment.DiscountPercentage && req.DiscountValue.GreaterThan(hundred) {
		return Discount{}, invalid(ErrInvalidDiscount, "discountValue")
	}

	applicable := req.DiscountApplicableMonths
	if len(applicable) == 0 {
		applicable = req.MonthIDs
	}
	selected := make(map[string]bool, len(req.MonthIDs))
	for _, id := range req.MonthIDs {
		selected[id] = true
	}
	for _, id := range applicable {
		if !selected[id] {
			return Discount{}, invalid(ErrDiscountNotSelected, "discountApplicableMonths")
		}
	}
	return Discount{Type: req.DiscountType, Value: req.DiscountValue, ApplicableMonthIDs: applicable}, nil
}

func checkAllocation(req PaymentRequest, alloc Allocation) error {
	discounted := alloc.DiscountAmount.IsPositive()
	switch {
	case !alloc.DiscountedAmount.IsPositive():
		return invalid(ErrTotalNotPositive, "months")
	case !req.PaidAmount.IsPositive():
		return invalid(ErrPaidNotPositive, "paidAmount")
	case discounted && req.Reference == "":
		return invalid(ErrReferenceRequired, "reference")
	case discounted && req.PaidAmount.LessThan(alloc.DiscountedAmount):
		return invalid(ErrPartialDiscounted, "paidAmount")
	case req.ReceivedBy == "":
		return invalid(ErrReceivedByRequired, "receivedBy")
	case req.PaidAmount.GreaterThan(alloc.DiscountedAmount):
		return invalid(ErrOverpayment, "paidAmount")
	}
	return nil
}

// Quote validates a request and returns its allocation without recording anything.
func (d *Desk) Quote(ctx context.Context, req PaymentRequest) (Allocation, error) {
	req.clean()
	_, alloc, err := d.prepare(ctx, req)
	return alloc, err
}

func (d *Desk) prepare(ctx context.Context, req PaymentRequest) (payment.Payment, Allocation, error) {
	if req.StudentID == "" {
		return payment.Payment{}, Allocation{}, invalid(ErrStudentRequired, "studentId")
	}
	std, err := d.students.GetStudentByID(ctx, req.StudentID)
	if err != nil {
		if core.IsNotFound(err) {
			return payment.Payment{}, Allocation{}, err
		}
		return payment.Payment{}, Allocation{}, errors.Wrap(err, "getting student")
	}

	if len(req.MonthIDs) == 0 {
		return payment.Payment{}, Allocation{}, invalid(ErrNoMonthsSelected, "months")
	}
	if len(req.CourseIDs) == 0 {
		return payment.Payment{}, Allocation{}, invalid(ErrNoCoursesSelected, "courses")
	}

	dues, err := d.ledger.RemainingDueByMonth(ctx, std)
	if err != nil {
		return payment.Payment{}, Allocation{}, errors.Wrap(err, "computing remaining dues")
	}
	enrolled := make(map[string]bool, len(std.EnrolledCourses))
	for _, enr := range std.EnrolledCourses {
		enrolled[enr.CourseID] = true
	}
	selected, err := d.selection(req, enrolled, dues)
	if err != nil {
		return payment.Payment{}, Allocation{}, err
	}
	discount, err := req.discount()
	if err != nil {
		return payment.Payment{}, Allocation{}, err
	}

	alloc := Allocate(selected, discount, req.PaidAmount)
	if err = checkAllocation(req, alloc); err != nil {
		return payment.Payment{}, Allocation{}, err
	}

	draft := payment.Payment{
		StudentID:        std.ID,
		StudentName:      std.Name,
		StudentStudentID: std.StudentID,
		Courses:          req.CourseIDs,
		Months:           req.MonthIDs,
		MonthPayments:    alloc.MonthPayments,
		TotalAmount:      alloc.TotalAmount,
		DiscountAmount:   alloc.DiscountAmount,
		DiscountedAmount: alloc.DiscountedAmount,
		PaidAmount:       alloc.PaidAmount,
		DueAmount:        alloc.DueAmount,
		Reference:        req.Reference,
		ReceivedBy:       req.ReceivedBy,
		CreatedAt:        core.NowFunc(),
		CreatedBy:        core.ActorFromContext(ctx).Username,
	}
	if !discount.IsZero() {
		draft.DiscountType = discount.Type
		draft.DiscountValue = discount.Value
		draft.DiscountApplicableMonths = discount.ApplicableMonthIDs
	}
	if draft.DiscountApplicableMonths == nil {
		draft.DiscountApplicableMonths = []string{}
	}
	return draft, alloc, nil
}

// CollectPayment validates the request against the student's current dues, allocates
// it and stores the payment.
func (d *Desk) CollectPayment(ctx context.Context, req PaymentRequest) (Receipt, error) {
	req.clean()

	d.mu.Lock()
	defer d.mu.Unlock()

	draft, alloc, err := d.prepare(ctx, req)
	if err != nil {
		return Receipt{}, err
	}

	pmt, err := d.payments.AddPayment(ctx, draft)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "adding payment")
	}

	desc := fmt.Sprintf("Payment of %s received from %s", core.FormatMoney(d.currency, pmt.PaidAmount), pmt.StudentName)
	if err = d.activity.Record(ctx, activity.PaymentReceived, desc, map[string]interface{}{"paymentId": pmt.ID}); err != nil {
		return Receipt{Payment: pmt, Allocation: alloc}, errors.Wrap(err, "recording activity")
	}
	d.logger.Info(
		fmt.Sprintf("payment %s collected", pmt.InvoiceNumber),
		map[string]interface{}{"studentId": pmt.StudentID, "paidAmount": pmt.PaidAmount.String(), "dueAmount": pmt.DueAmount.String()},
		core.ActorFromContext(ctx),
	)
	return Receipt{Payment: pmt, Allocation: alloc}, nil
}
