package fees

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("fee record")
	ErrAccountNotFound = core.NewNotFoundError("student")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		// GetPaymentByKey resolves a previously recorded payment by its
		// client idempotency key; ErrNotFound when none exists.
		GetPaymentByKey(ctx context.Context, key string) (Payment, error)
		QueryAllPayments(ctx context.Context) ([]Payment, error)
		FilterPayments(ctx context.Context, filter QueryFilter) ([]Payment, error)
		UpdatePayment(ctx context.Context, pmt Payment) (Payment, error)
		DeletePayment(ctx context.Context, id string) error
		// SumPayments returns the sum of all active entries for the student.
		SumPayments(ctx context.Context, studentID string) (decimal.Decimal, error)
	}

	// AccountRepository is the fee view over student profiles.
	AccountRepository interface {
		GetAccount(ctx context.Context, studentID string) (Account, error)
		UpdateAccount(ctx context.Context, acct Account) error
	}

	// Service keeps Account.Balance consistent with the payment ledger.
	// Operations against the same account serialize on a per-account lock;
	// AmountPaid is always re-derived by summing the ledger, never
	// delta-adjusted, so a lost update cannot drift the stored total.
	Service struct {
		repo     Repository
		accounts AccountRepository
		events   Publisher
		logger   core.Logger

		mu    sync.Mutex
		locks map[string]*sync.Mutex
	}
)

func NewService(repo Repository, accounts AccountRepository, events Publisher, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		events:   events,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (svc *Service) accountLock(studentID string) *sync.Mutex {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.locks[studentID]; !ok {
		svc.locks[studentID] = &sync.Mutex{}
	}
	return svc.locks[studentID]
}

// RecordPayment appends a ledger entry and re-derives the account balance.
// A repeated IdempotencyKey returns the previously recorded payment without
// touching the ledger.
func (svc *Service) RecordPayment(ctx context.Context, np NewPayment) (Payment, error) {
	if !np.Amount.IsPositive() {
		return Payment{}, core.NewValidationError(nil, core.FieldError{
			Field: "amount", Error: "amount must be greater than zero",
		})
	}

	lock := svc.accountLock(np.StudentID)
	lock.Lock()
	defer lock.Unlock()

	if np.IdempotencyKey != "" {
		if existing, err := svc.repo.GetPaymentByKey(ctx, np.IdempotencyKey); err == nil {
			return existing, nil
		} else if !isNotFound(err) {
			return Payment{}, errors.Wrap(err, "checking idempotency key")
		}
	}

	acct, err := svc.accounts.GetAccount(ctx, np.StudentID)
	if err != nil {
		if isNotFound(err) {
			return Payment{}, core.NewValidationError(ErrAccountNotFound, core.FieldError{
				Field: "student_id", Error: "student does not exist",
			})
		}
		return Payment{}, errors.Wrap(err, "resolving account")
	}

	now := time.Now().UTC()
	pmt := Payment{
		ID:          uuid.NewString(),
		StudentID:   np.StudentID,
		Amount:      np.Amount,
		PaymentDate: np.PaymentDate,
		Method:      np.Method,
		Reference:   np.Reference,
		Notes:       np.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if pmt.PaymentDate.IsZero() {
		pmt.PaymentDate = now
	}
	if np.IdempotencyKey != "" {
		pmt.IdempotencyKey.SetValid(np.IdempotencyKey)
	}

	pmt, err = svc.repo.CreatePayment(ctx, pmt)
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}

	if err = svc.rebalance(ctx, &acct); err != nil {
		// undo the ledger append so the invariant holds
		if delErr := svc.repo.DeletePayment(ctx, pmt.ID); delErr != nil {
			return Payment{}, core.NewReconciliationError("recordPayment", acct.StudentID, delErr)
		}
		return Payment{}, errors.Wrap(err, "updating account balance")
	}

	svc.publish(ctx, Event{
		Op: "recorded", PaymentID: pmt.ID, StudentID: acct.StudentID,
		Amount: pmt.Amount, AmountPaid: acct.AmountPaid, Balance: acct.Balance, At: now,
	})
	return pmt, nil
}

// EditPayment replaces an entry's mutable fields and re-derives the account
// balance. The old entry is read first; no partial writes survive a failure.
func (svc *Service) EditPayment(ctx context.Context, id string, up UpdatePayment) (Payment, error) {
	if !up.Amount.IsPositive() {
		return Payment{}, core.NewValidationError(nil, core.FieldError{
			Field: "amount", Error: "amount must be greater than zero",
		})
	}

	old, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}

	lock := svc.accountLock(old.StudentID)
	lock.Lock()
	defer lock.Unlock()

	// re-read under the lock; a concurrent delete may have won
	if old, err = svc.repo.GetPayment(ctx, id); err != nil {
		return Payment{}, err
	}

	updated := old
	updated.Amount = up.Amount
	if up.PaymentDate.Valid {
		updated.PaymentDate = up.PaymentDate.Time
	}
	if up.Method != "" {
		updated.Method = up.Method
	}
	if up.Reference.Valid {
		updated.Reference = up.Reference
	}
	if up.Notes.Valid {
		updated.Notes = up.Notes
	}
	updated.UpdatedAt = time.Now().UTC()

	if updated, err = svc.repo.UpdatePayment(ctx, updated); err != nil {
		return Payment{}, errors.Wrap(err, "updating payment")
	}

	acct, err := svc.accounts.GetAccount(ctx, old.StudentID)
	if err == nil {
		err = svc.rebalance(ctx, &acct)
	}
	if err != nil {
		if _, restoreErr := svc.repo.UpdatePayment(ctx, old); restoreErr != nil {
			return Payment{}, core.NewReconciliationError("editPayment", old.StudentID, restoreErr)
		}
		return Payment{}, errors.Wrap(err, "updating account balance")
	}

	svc.publish(ctx, Event{
		Op: "edited", PaymentID: updated.ID, StudentID: acct.StudentID,
		Amount: updated.Amount, AmountPaid: acct.AmountPaid, Balance: acct.Balance, At: updated.UpdatedAt,
	})
	return updated, nil
}

// DeletePayment removes an entry and re-derives the account balance.
func (svc *Service) DeletePayment(ctx context.Context, id string) error {
	old, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return err
	}

	lock := svc.accountLock(old.StudentID)
	lock.Lock()
	defer lock.Unlock()

	if old, err = svc.repo.GetPayment(ctx, id); err != nil {
		return err
	}
	if err = svc.repo.DeletePayment(ctx, id); err != nil {
		return errors.Wrap(err, "deleting payment")
	}

	acct, err := svc.accounts.GetAccount(ctx, old.StudentID)
	if err == nil {
		err = svc.rebalance(ctx, &acct)
	}
	if err != nil {
		if _, restoreErr := svc.repo.CreatePayment(ctx, old); restoreErr != nil {
			return core.NewReconciliationError("deletePayment", old.StudentID, restoreErr)
		}
		return errors.Wrap(err, "updating account balance")
	}

	svc.publish(ctx, Event{
		Op: "deleted", PaymentID: old.ID, StudentID: acct.StudentID,
		Amount: old.Amount, AmountPaid: acct.AmountPaid, Balance: acct.Balance, At: time.Now().UTC(),
	})
	return nil
}

// EditCharges recomputes the balance from new charge fields without touching
// AmountPaid.
func (svc *Service) EditCharges(ctx context.Context, studentID string, totalFee, concession decimal.Decimal) (Account, error) {
	studentID = core.CleanString(studentID, true /* lower */)
	if totalFee.IsNegative() || concession.IsNegative() {
		return Account{}, core.NewValidationError(nil, core.FieldError{
			Field: "total_fee", Error: "fee amounts cannot be negative",
		})
	}

	lock := svc.accountLock(studentID)
	lock.Lock()
	defer lock.Unlock()

	acct, err := svc.accounts.GetAccount(ctx, studentID)
	if err != nil {
		return Account{}, err
	}
	acct.TotalFee = totalFee
	acct.Concession = concession
	acct.recompute()

	if err = svc.accounts.UpdateAccount(ctx, acct); err != nil {
		return Account{}, errors.Wrap(err, "updating account charges")
	}

	svc.publish(ctx, Event{
		Op: "charges_edited", StudentID: acct.StudentID,
		AmountPaid: acct.AmountPaid, Balance: acct.Balance, At: time.Now().UTC(),
	})
	return acct, nil
}

func (svc *Service) GetPayment(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPayment(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Payment, error) {
	return svc.repo.QueryAllPayments(ctx)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Payment, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.repo.QueryAllPayments(ctx)
	}
	return svc.repo.FilterPayments(ctx, filter)
}

func (svc *Service) GetAccount(ctx context.Context, studentID string) (Account, error) {
	return svc.accounts.GetAccount(ctx, core.CleanString(studentID, true))
}

// rebalance re-derives AmountPaid from the ledger and writes the account.
func (svc *Service) rebalance(ctx context.Context, acct *Account) error {
	paid, err := svc.repo.SumPayments(ctx, acct.StudentID)
	if err != nil {
		return errors.Wrap(err, "summing ledger entries")
	}
	acct.AmountPaid = paid
	acct.recompute()
	return svc.accounts.UpdateAccount(ctx, *acct)
}

func (svc *Service) publish(ctx context.Context, ev Event) {
	if svc.events == nil {
		return
	}
	if err := svc.events.PublishFeeEvent(ctx, ev); err != nil && svc.logger != nil {
		svc.logger.Warn(fmt.Sprintf("publishing fee event: %v", err), err)
	}
}

func isNotFound(err error) bool {
	_, ok := errors.Cause(err).(*core.NotFoundError)
	return ok
}
