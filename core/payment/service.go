package payment

import (
	"context"
)

type (
	Repository interface {
		// AddPayment assigns ID and InvoiceNumber (prefix + YYYY + MM + 4-digit count of payments + 1)
		// and persists the payment.
		AddPayment(ctx context.Context, draft Payment) (Payment, error)
		GetPaymentByID(ctx context.Context, id string) (Payment, error)
		// QueryPaymentsByStudent returns the student's payments in creation order.
		QueryPaymentsByStudent(ctx context.Context, studentID string) ([]Payment, error)
		QueryAllPayments(ctx context.Context) ([]Payment, error)
	}

	// Service is read-only; payments are created by the fee desk.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPaymentByID(ctx, id)
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Payment, error) {
	return svc.repo.QueryPaymentsByStudent(ctx, studentID)
}

// Query returns all payments, or only the discounted ones.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Payment, error) {
	payments, err := svc.repo.QueryAllPayments(ctx)
	if err != nil || !filter.Discounted {
		return payments, err
	}
	discounted := make([]Payment, 0)
	for _, p := range payments {
		if p.HasDiscount() {
			discounted = append(discounted, p)
		}
	}
	return discounted, nil
}
