package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

func (dt DiscountType) Valid() bool {
	return dt == DiscountFixed || dt == DiscountPercentage
}

// MonthPayment is the share of a payment credited to one month.
type MonthPayment struct {
	MonthID        string          `json:"monthId"`
	MonthFee       decimal.Decimal `json:"monthFee"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	PreviouslyPaid decimal.Decimal `json:"previouslyPaid"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// Payment is immutable once stored. Legacy payments have no MonthPayments; their
// amounts are spread evenly over Months.
type Payment struct {
	ID                       string          `json:"id"`
	InvoiceNumber            string          `json:"invoiceNumber"`
	StudentID                string          `json:"studentId"`
	StudentName              string          `json:"studentName"`
	StudentStudentID         string          `json:"studentStudentId"`
	Courses                  []string        `json:"courses"`
	Months                   []string        `json:"months"`
	MonthPayments            []MonthPayment  `json:"monthPayments"`
	TotalAmount              decimal.Decimal `json:"totalAmount"`
	DiscountAmount           decimal.Decimal `json:"discountAmount"`
	DiscountType             DiscountType    `json:"discountType,omitempty"`
	DiscountValue            decimal.Decimal `json:"discountValue"`
	DiscountApplicableMonths []string        `json:"discountApplicableMonths"`
	DiscountedAmount         decimal.Decimal `json:"discountedAmount"`
	PaidAmount               decimal.Decimal `json:"paidAmount"`
	DueAmount                decimal.Decimal `json:"dueAmount"`
	Reference                string          `json:"reference,omitempty"`
	ReceivedBy               string          `json:"receivedBy"`
	CreatedAt                time.Time       `json:"createdAt"`
	CreatedBy                string          `json:"createdBy,omitempty"`
}

func (p Payment) HasDiscount() bool {
	return p.DiscountAmount.IsPositive()
}

type QueryFilter struct {
	Discounted bool `query:"discounted"`
}
