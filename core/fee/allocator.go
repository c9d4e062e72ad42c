package fee

import (
	"github.com/shopspring/decimal"

	"github.com/breakthefear/btf/core/payment"
)

var hundred = decimal.NewFromInt(100)

// SelectedMonth is a month picked for payment, with its state at selection time.
type SelectedMonth struct {
	MonthID      string          `json:"monthId"`
	MonthFee     decimal.Decimal `json:"monthFee"`
	RemainingDue decimal.Decimal `json:"remainingDue"`
	AlreadyPaid  decimal.Decimal `json:"alreadyPaid"`
}

// Discount applies to the selected months listed in ApplicableMonthIDs.
// Value is an amount for fixed discounts and a percent for percentage discounts.
type Discount struct {
	Type               payment.DiscountType `json:"type"`
	Value              decimal.Decimal      `json:"value"`
	ApplicableMonthIDs []string             `json:"applicableMonths"`
}

func (d Discount) IsZero() bool {
	return !d.Type.Valid() || !d.Value.IsPositive()
}

type Allocation struct {
	MonthPayments    []payment.MonthPayment `json:"monthPayments"`
	TotalAmount      decimal.Decimal        `json:"totalAmount"`
	DiscountAmount   decimal.Decimal        `json:"discountAmount"`
	DiscountedAmount decimal.Decimal        `json:"discountedAmount"`
	PaidAmount       decimal.Decimal        `json:"paidAmount"`
	DueAmount        decimal.Decimal        `json:"dueAmount"`
	// Unallocated is the part of the tendered amount no month could absorb.
	Unallocated decimal.Decimal `json:"unallocated"`
}

// monthDiscounts returns the discount of every selected month (zero when not applicable).
func monthDiscounts(selected []SelectedMonth, discount Discount) []decimal.Decimal {
	out := make([]decimal.Decimal, len(selected))
	if discount.IsZero() {
		return out
	}

	applicable := make(map[string]bool, len(discount.ApplicableMonthIDs))
	for _, id := range discount.ApplicableMonthIDs {
		applicable[id] = true
	}

	switch discount.Type {
	case payment.DiscountPercentage:
		for i, sm := range selected {
			if !applicable[sm.MonthID] {
				continue
			}
			d := sm.RemainingDue.Mul(discount.Value).Div(hundred).Round(places)
			out[i] = decimal.Min(d, sm.RemainingDue)
		}
	case payment.DiscountFixed:
		var idxs []int
		discountable := decimal.Zero
		for i, sm := range selected {
			if applicable[sm.MonthID] && sm.RemainingDue.IsPositive() {
				idxs = append(idxs, i)
				discountable = discountable.Add(sm.RemainingDue)
			}
		}
		if len(idxs) == 0 {
			return out
		}
		amount := decimal.Min(discount.Value, discountable)
		given := decimal.Zero
		for k, i := range idxs {
			rem := selected[i].RemainingDue
			if k == len(idxs)-1 {
				// rounding remainder goes to the last applicable month
				last := floor0(amount.Sub(given))
				out[i] = decimal.Min(last, rem)
				break
			}
			share := decimal.Min(rem.Mul(amount).Div(discountable).Round(places), rem)
			out[i] = share
			given = given.Add(share)
		}
	}
	return out
}

// Allocate spreads `tendered` over the selected months in the given order, after discounts.
// A month past the point where tendered is exhausted is only listed when it carries a discount.
func Allocate(selected []SelectedMonth, discount Discount, tendered decimal.Decimal) Allocation {
	alloc := Allocation{
		MonthPayments: make([]payment.MonthPayment, 0, len(selected)),
		PaidAmount:    tendered,
	}

	discounts := monthDiscounts(selected, discount)
	for i, sm := range selected {
		alloc.TotalAmount = alloc.TotalAmount.Add(sm.RemainingDue)
		alloc.DiscountAmount = alloc.DiscountAmount.Add(discounts[i])
	}
	alloc.DiscountedAmount = floor0(alloc.TotalAmount.Sub(alloc.DiscountAmount))

	remaining := floor0(tendered)
	for i, sm := range selected {
		disc := discounts[i]
		if !remaining.IsPositive() && !disc.IsPositive() {
			continue
		}
		due := floor0(sm.RemainingDue.Sub(disc))
		paid := decimal.Min(remaining, due)
		remaining = remaining.Sub(paid)

		alloc.MonthPayments = append(alloc.MonthPayments, payment.MonthPayment{
			MonthID:        sm.MonthID,
			MonthFee:       sm.MonthFee,
			PaidAmount:     paid,
			PreviouslyPaid: sm.AlreadyPaid,
			DiscountAmount: disc,
		})
	}

	alloc.DueAmount = floor0(alloc.DiscountedAmount.Sub(tendered))
	alloc.Unallocated = remaining
	return alloc
}
