package postgresdb

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core/fees"
)

type paymentRepository struct {
	db *sqlx.DB
}

var _ fees.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) fees.Repository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, student_id, amount, payment_date, method, reference, notes,
idempotency_key, created_at, updated_at`

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt fees.Payment) (fees.Payment, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO fee_payment (`+paymentColumns+`)
		VALUES (:id, :student_id, :amount, :payment_date, :method, :reference, :notes,
			:idempotency_key, :created_at, :updated_at)`, pmt)
	return pmt, errors.Wrap(err, "inserting payment")
}

func (repo *paymentRepository) GetPayment(ctx context.Context, id string) (fees.Payment, error) {
	var pmt fees.Payment
	err := repo.db.GetContext(ctx, &pmt, `SELECT `+paymentColumns+` FROM fee_payment WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return fees.Payment{}, fees.ErrNotFound
	}
	return pmt, errors.Wrap(err, "getting payment")
}

func (repo *paymentRepository) GetPaymentByKey(ctx context.Context, key string) (fees.Payment, error) {
	var pmt fees.Payment
	err := repo.db.GetContext(ctx, &pmt, `SELECT `+paymentColumns+` FROM fee_payment WHERE idempotency_key = $1`, key)
	if err == sql.ErrNoRows {
		return fees.Payment{}, fees.ErrNotFound
	}
	return pmt, errors.Wrap(err, "getting payment by key")
}

func (repo *paymentRepository) QueryAllPayments(ctx context.Context) ([]fees.Payment, error) {
	payments := make([]fees.Payment, 0)
	err := repo.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM fee_payment ORDER BY payment_date DESC, id`)
	return payments, errors.Wrap(err, "querying payments")
}

func (repo *paymentRepository) FilterPayments(ctx context.Context, filter fees.QueryFilter) ([]fees.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM fee_payment WHERE 1=1`
	args := make([]interface{}, 0, 2)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.StudentID != "" {
		query += ` AND student_id = ` + arg(filter.StudentID)
	}
	if filter.Method != "" {
		query += ` AND method = ` + arg(filter.Method)
	}
	query += ` ORDER BY payment_date DESC, id`

	payments := make([]fees.Payment, 0)
	err := repo.db.SelectContext(ctx, &payments, query, args...)
	return payments, errors.Wrap(err, "filtering payments")
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, pmt fees.Payment) (fees.Payment, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE fee_payment SET
			amount = :amount, payment_date = :payment_date, method = :method,
			reference = :reference, notes = :notes, updated_at = :updated_at
		WHERE id = :id`, pmt)
	if err != nil {
		return fees.Payment{}, errors.Wrap(err, "updating payment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fees.Payment{}, fees.ErrNotFound
	}
	return pmt, nil
}

func (repo *paymentRepository) DeletePayment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM fee_payment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fees.ErrNotFound
	}
	return nil
}

func (repo *paymentRepository) SumPayments(ctx context.Context, studentID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := repo.db.GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM fee_payment WHERE student_id = $1`, studentID)
	return sum, errors.Wrap(err, "summing payments")
}

// accountRepository exposes the fee fields of student rows as fee accounts.
type accountRepository struct {
	db *sqlx.DB
}

var _ fees.AccountRepository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) fees.AccountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) GetAccount(ctx context.Context, studentID string) (fees.Account, error) {
	var acct fees.Account
	err := repo.db.GetContext(ctx, &acct, `
		SELECT student_id, total_fee, concession, amount_paid, balance
		FROM student WHERE student_id = $1`, studentID)
	if err == sql.ErrNoRows {
		return fees.Account{}, fees.ErrAccountNotFound
	}
	return acct, errors.Wrap(err, "getting account")
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct fees.Account) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE student SET
			total_fee = :total_fee, concession = :concession,
			amount_paid = :amount_paid, balance = :balance, updated_at = now()
		WHERE student_id = :student_id`, acct)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fees.ErrAccountNotFound
	}
	return nil
}
