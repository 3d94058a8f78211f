package fees

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

// Payment is one recorded fee transaction. The ledger is append-mostly:
// edits and deletes exist but must re-derive the owning account's balance.
type Payment struct {
	ID             string          `json:"id" db:"id"`
	StudentID      string          `json:"student_id" db:"student_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate    time.Time       `json:"payment_date" db:"payment_date"`
	Method         string          `json:"method" db:"method"`
	Reference      null.String     `json:"reference" db:"reference"`
	Notes          null.String     `json:"notes" db:"notes"`
	IdempotencyKey null.String     `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"` // UTC
}

// Account is the fee side of a student profile: the charges and the fields
// derived from the ledger. balance = total_fee - concession - amount_paid.
type Account struct {
	StudentID  string          `json:"student_id" db:"student_id"`
	TotalFee   decimal.Decimal `json:"total_fee" db:"total_fee"`
	Concession decimal.Decimal `json:"concession" db:"concession"`
	AmountPaid decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
}

func (a *Account) recompute() {
	a.Balance = a.TotalFee.Sub(a.Concession).Sub(a.AmountPaid)
}

// NewPayment contains information needed to record a Payment.
type NewPayment struct {
	StudentID      string          `json:"student_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	Method         string          `json:"method" validate:"required,oneof=cash card upi cheque bank_transfer"`
	Reference      null.String     `json:"reference"`
	Notes          null.String     `json:"notes"`
	IdempotencyKey string          `json:"idempotency_key"`
}

func (np *NewPayment) Validate(validate *validator.Validate, translator ut.Translator) error {
	np.StudentID = core.CleanString(np.StudentID, true /* lower */)
	np.Method = core.CleanString(np.Method, true /* lower */)

	if err := validate.Struct(np); err != nil {
		return err
	}
	if !np.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "amount must be greater than zero"})
	}
	return nil
}

// UpdatePayment defines what may be modified on an existing Payment. The
// owning student never changes; move a payment by delete + re-record.
type UpdatePayment struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate null.Time       `json:"payment_date"`
	Method      string          `json:"method" validate:"omitempty,oneof=cash card upi cheque bank_transfer"`
	Reference   null.String     `json:"reference"`
	Notes       null.String     `json:"notes"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate, translator ut.Translator) error {
	up.Method = core.CleanString(up.Method, true /* lower */)

	if err := validate.Struct(up); err != nil {
		return err
	}
	if !up.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "amount must be greater than zero"})
	}
	return nil
}

// QueryFilter narrows payment listings.
type QueryFilter struct {
	StudentID string `query:"student_id"`
	Method    string `query:"method"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.StudentID == "" && qf.Method == "" }

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID, true)
	qf.Method = core.CleanString(qf.Method, true)
}

// Event is the audit record published after every successful ledger
// mutation.
type Event struct {
	Op         string          `json:"op"` // recorded | edited | deleted | charges_edited
	PaymentID  string          `json:"payment_id,omitempty"`
	StudentID  string          `json:"student_id"`
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Balance    decimal.Decimal `json:"balance"`
	At         time.Time       `json:"at"`
}

// Publisher delivers fee audit events; delivery is best-effort and never
// blocks a ledger operation's outcome.
type Publisher interface {
	PublishFeeEvent(ctx context.Context, ev Event) error
}
