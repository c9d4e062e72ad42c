package recordstore

import (
	"context"
	"fmt"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db}
}

// nextInvoiceNumber returns prefix + YYYY + MM + 4-digit count of stored payments + 1.
func (repo *paymentRepository) nextInvoiceNumber(pmt payment.Payment) string {
	base := fmt.Sprintf("%s%04d%02d", repo.db.fees.InvoicePrefix, pmt.CreatedAt.Year(), int(pmt.CreatedAt.Month()))
	seq := len(repo.db.payments.rows)
	for {
		seq++
		inv := fmt.Sprintf("%s%04d", base, seq)
		if !repo.db.payments.exists(func(p payment.Payment) bool { return p.InvoiceNumber == inv }) {
			return inv
		}
	}
}

func (repo *paymentRepository) AddPayment(ctx context.Context, draft payment.Payment) (payment.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if draft.ID == "" {
		draft.ID = core.NewID("payment")
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = core.NowFunc()
	}
	draft.InvoiceNumber = repo.nextInvoiceNumber(draft)
	return draft, repo.db.payments.insert(ctx, repo.db.store, draft)
}

func (repo *paymentRepository) GetPaymentByID(_ context.Context, id string) (payment.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.payments.index(func(p payment.Payment) bool { return p.ID == id }); i >= 0 {
		return repo.db.payments.rows[i], nil
	}
	return payment.Payment{}, core.NewNotFoundError("payment", id)
}

func (repo *paymentRepository) QueryPaymentsByStudent(_ context.Context, studentID string) ([]payment.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.payments.all(func(p payment.Payment) bool { return p.StudentID == studentID }), nil
}

func (repo *paymentRepository) QueryAllPayments(context.Context) ([]payment.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.payments.all(nil), nil
}
