package fees_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/fees"
	"github.com/darasahq/darasa/core/student"
	inmemdb "github.com/darasahq/darasa/storage/database/inmem"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// setup seeds one student account: total fee 5000, concession 500.
func setup(t *testing.T) (*fees.Service, fees.Repository, fees.AccountRepository) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	stdRepo := inmemdb.NewStudentRepository(db)
	if _, err = stdRepo.CreateStudent(context.Background(), student.Student{
		ID:         "std001",
		RollNumber: "R-001",
		Name:       "Asha Patel",
		Class:      "5",
		Section:    "a",
		TotalFee:   dec(5000),
		Concession: dec(500),
		Balance:    dec(4500),
	}, student.Credential{}); err != nil {
		t.Fatalf("seeding student: %v", err)
	}

	repo := inmemdb.NewPaymentRepository(db)
	accounts := inmemdb.NewAccountRepository(db)
	return fees.NewService(repo, accounts, nil, nil), repo, accounts
}

func checkAccount(t *testing.T, accounts fees.AccountRepository, wantPaid, wantBalance decimal.Decimal) {
	t.Helper()

	acct, err := accounts.GetAccount(context.Background(), "std001")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if !acct.AmountPaid.Equal(wantPaid) {
		t.Errorf("AmountPaid = %s, want %s", acct.AmountPaid, wantPaid)
	}
	if !acct.Balance.Equal(wantBalance) {
		t.Errorf("Balance = %s, want %s", acct.Balance, wantBalance)
	}
	// balance must always be re-derivable from the stored fields
	if want := acct.TotalFee.Sub(acct.Concession).Sub(acct.AmountPaid); !acct.Balance.Equal(want) {
		t.Errorf("Balance = %s, want total - concession - paid = %s", acct.Balance, want)
	}
}

func TestService_RecordPayment(t *testing.T) {
	svc, _, accounts := setup(t)
	ctx := context.Background()

	pmt, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(2000), Method: "cash"})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if pmt.ID == "" {
		t.Error("RecordPayment() did not assign an ID")
	}
	if pmt.PaymentDate.IsZero() {
		t.Error("RecordPayment() did not default PaymentDate")
	}
	checkAccount(t, accounts, dec(2000), dec(2500))

	if _, err = svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(1000), Method: "upi"}); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	checkAccount(t, accounts, dec(3000), dec(1500))
}

func TestService_RecordPayment_validation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		np   fees.NewPayment
	}{
		{name: "zero amount", np: fees.NewPayment{StudentID: "std001", Method: "cash"}},
		{name: "negative amount", np: fees.NewPayment{StudentID: "std001", Amount: dec(-50), Method: "cash"}},
		{name: "unknown student", np: fees.NewPayment{StudentID: "nope", Amount: dec(100), Method: "cash"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordPayment(ctx, tt.np)
			if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
				t.Errorf("RecordPayment() error = %v, want *core.ValidationError", err)
			}
		})
	}
}

func TestService_RecordPayment_idempotencyKeyDedupes(t *testing.T) {
	svc, _, accounts := setup(t)
	ctx := context.Background()

	np := fees.NewPayment{StudentID: "std001", Amount: dec(2000), Method: "cash", IdempotencyKey: "retry-abc"}
	first, err := svc.RecordPayment(ctx, np)
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	second, err := svc.RecordPayment(ctx, np)
	if err != nil {
		t.Fatalf("RecordPayment() retry error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retried RecordPayment() = %v, want original payment %v", second.ID, first.ID)
	}
	checkAccount(t, accounts, dec(2000), dec(2500))
}

func TestService_DeletePayment_restoresBalance(t *testing.T) {
	svc, _, accounts := setup(t)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(2000), Method: "cash"}); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	pmt, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(1000), Method: "card"})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	checkAccount(t, accounts, dec(3000), dec(1500))

	if err = svc.DeletePayment(ctx, pmt.ID); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	checkAccount(t, accounts, dec(2000), dec(2500))

	if err = svc.DeletePayment(ctx, pmt.ID); !isNotFound(err) {
		t.Errorf("DeletePayment() twice error = %v, want not found", err)
	}
}

func TestService_EditPayment(t *testing.T) {
	svc, _, accounts := setup(t)
	ctx := context.Background()

	pmt, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(2000), Method: "cash"})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}

	updated, err := svc.EditPayment(ctx, pmt.ID, fees.UpdatePayment{Amount: dec(2500), Method: "upi"})
	if err != nil {
		t.Fatalf("EditPayment() error = %v", err)
	}
	if updated.Method != "upi" {
		t.Errorf("Method = %q, want %q", updated.Method, "upi")
	}
	checkAccount(t, accounts, dec(2500), dec(2000))

	// editing to the same amount changes nothing
	if _, err = svc.EditPayment(ctx, pmt.ID, fees.UpdatePayment{Amount: dec(2500)}); err != nil {
		t.Fatalf("EditPayment() error = %v", err)
	}
	checkAccount(t, accounts, dec(2500), dec(2000))
}

func TestService_EditCharges(t *testing.T) {
	svc, _, accounts := setup(t)
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(2000), Method: "cash"}); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}

	acct, err := svc.EditCharges(ctx, "std001", dec(6000), dec(1000))
	if err != nil {
		t.Fatalf("EditCharges() error = %v", err)
	}
	if !acct.AmountPaid.Equal(dec(2000)) {
		t.Errorf("AmountPaid = %s, want 2000; charge edits must not touch payments", acct.AmountPaid)
	}
	checkAccount(t, accounts, dec(2000), dec(3000))

	if _, err = svc.EditCharges(ctx, "std001", dec(-1), dec(0)); err == nil {
		t.Error("EditCharges() with negative fee expected error, got nil")
	}
}

// the invariant must hold after any sequence of ledger mutations
func TestService_invariantUnderMixedSequence(t *testing.T) {
	svc, repo, accounts := setup(t)
	ctx := context.Background()

	p1, _ := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(700), Method: "cash"})
	p2, _ := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(300), Method: "card"})
	if _, err := svc.EditPayment(ctx, p1.ID, fees.UpdatePayment{Amount: dec(900)}); err != nil {
		t.Fatalf("EditPayment() error = %v", err)
	}
	if err := svc.DeletePayment(ctx, p2.ID); err != nil {
		t.Fatalf("DeletePayment() error = %v", err)
	}
	if _, err := svc.EditCharges(ctx, "std001", dec(4000), dec(0)); err != nil {
		t.Fatalf("EditCharges() error = %v", err)
	}

	sum, err := repo.SumPayments(ctx, "std001")
	if err != nil {
		t.Fatalf("SumPayments() error = %v", err)
	}
	if !sum.Equal(dec(900)) {
		t.Errorf("SumPayments() = %s, want 900", sum)
	}
	checkAccount(t, accounts, dec(900), dec(3100))
}

func TestService_concurrentRecordsSerialize(t *testing.T) {
	svc, _, accounts := setup(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(10), Method: "cash"}); err != nil {
				t.Errorf("RecordPayment() error = %v", err)
			}
		}()
	}
	wg.Wait()

	checkAccount(t, accounts, dec(200), dec(4300))
}

// brokenAccounts fails every balance write so compensation paths run.
type brokenAccounts struct {
	fees.AccountRepository
}

func (a brokenAccounts) UpdateAccount(ctx context.Context, acct fees.Account) error {
	return errors.New("account table is on fire")
}

// stuckLedger refuses deletes, defeating recordPayment's compensation.
type stuckLedger struct {
	fees.Repository
}

func (r stuckLedger) DeletePayment(ctx context.Context, id string) error {
	return errors.New("ledger delete failed")
}

func TestService_RecordPayment_compensatesOnBalanceFailure(t *testing.T) {
	_, repo, accounts := setup(t)
	ctx := context.Background()

	svc := fees.NewService(repo, brokenAccounts{accounts}, nil, nil)
	_, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(500), Method: "cash"})
	if err == nil {
		t.Fatal("RecordPayment() expected error, got nil")
	}
	if _, ok := errors.Cause(err).(*core.ReconciliationError); ok {
		t.Errorf("RecordPayment() error = %v; compensation succeeded so this is not a reconciliation failure", err)
	}

	// the compensating delete removed the orphan entry
	sum, _ := repo.SumPayments(ctx, "std001")
	if !sum.IsZero() {
		t.Errorf("SumPayments() = %s, want 0 after compensation", sum)
	}
}

func TestService_RecordPayment_reconciliationError(t *testing.T) {
	_, repo, accounts := setup(t)
	ctx := context.Background()

	svc := fees.NewService(stuckLedger{repo}, brokenAccounts{accounts}, nil, nil)
	_, err := svc.RecordPayment(ctx, fees.NewPayment{StudentID: "std001", Amount: dec(500), Method: "cash"})

	recErr, ok := errors.Cause(err).(*core.ReconciliationError)
	if !ok {
		t.Fatalf("RecordPayment() error = %v, want *core.ReconciliationError", err)
	}
	if recErr.Op != "recordPayment" || recErr.AccountID != "std001" {
		t.Errorf("ReconciliationError = %+v, want op recordPayment on std001", recErr)
	}
}

func isNotFound(err error) bool {
	_, ok := errors.Cause(err).(*core.NotFoundError)
	return ok
}
