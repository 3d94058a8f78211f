package inmemdb

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core/fees"
)

type paymentRepository struct {
	db *paymentTable
}

var _ fees.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) fees.Repository {
	return &paymentRepository{db: db.payment}
}

func (repo *paymentRepository) query() []fees.Payment {
	payments := make([]fees.Payment, 0, len(repo.db.table))
	for _, pmt := range repo.db.table {
		payments = append(payments, *pmt)
	}
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].PaymentDate.Equal(payments[j].PaymentDate) {
			return payments[i].ID < payments[j].ID
		}
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
	return payments
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt fees.Payment) (fees.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *paymentRepository) GetPayment(ctx context.Context, id string) (fees.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pmt, ok := repo.db.table[id]; ok {
		return *pmt, nil
	}
	return fees.Payment{}, fees.ErrNotFound
}

func (repo *paymentRepository) GetPaymentByKey(ctx context.Context, key string) (fees.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, pmt := range repo.db.table {
		if pmt.IdempotencyKey.Valid && pmt.IdempotencyKey.String == key {
			return *pmt, nil
		}
	}
	return fees.Payment{}, fees.ErrNotFound
}

func (repo *paymentRepository) QueryAllPayments(ctx context.Context) ([]fees.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *paymentRepository) FilterPayments(ctx context.Context, filter fees.QueryFilter) ([]fees.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]fees.Payment, 0)
	for _, pmt := range repo.query() {
		if filter.StudentID != "" && pmt.StudentID != filter.StudentID {
			continue
		}
		if filter.Method != "" && pmt.Method != filter.Method {
			continue
		}
		matches = append(matches, pmt)
	}
	return matches, nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, pmt fees.Payment) (fees.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[pmt.ID]; !ok {
		return fees.Payment{}, fees.ErrNotFound
	}
	repo.db.table[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *paymentRepository) DeletePayment(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return fees.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *paymentRepository) SumPayments(ctx context.Context, studentID string) (decimal.Decimal, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sum := decimal.Zero
	for _, pmt := range repo.db.table {
		if pmt.StudentID == studentID {
			sum = sum.Add(pmt.Amount)
		}
	}
	return sum, nil
}

// accountRepository exposes the fee fields of student rows as fee accounts.
type accountRepository struct {
	db *studentTable
}

var _ fees.AccountRepository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) fees.AccountRepository {
	return &accountRepository{db: db.student}
}

func (repo *accountRepository) GetAccount(ctx context.Context, studentID string) (fees.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	st, ok := repo.db.table[studentID]
	if !ok {
		return fees.Account{}, fees.ErrAccountNotFound
	}
	return fees.Account{
		StudentID:  st.ID,
		TotalFee:   st.TotalFee,
		Concession: st.Concession,
		AmountPaid: st.AmountPaid,
		Balance:    st.Balance,
	}, nil
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct fees.Account) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.table[acct.StudentID]
	if !ok {
		return fees.ErrAccountNotFound
	}
	st.TotalFee = acct.TotalFee
	st.Concession = acct.Concession
	st.AmountPaid = acct.AmountPaid
	st.Balance = acct.Balance
	return nil
}
