package student

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasahq/darasa/core"
)

// Student is a profile plus its fee account fields. AmountPaid and Balance
// are derived from the payment ledger and only change through fee
// operations; TotalFee and Concession edits recompute Balance.
type Student struct {
	ID             string          `json:"student_id" db:"student_id"`
	RollNumber     string          `json:"roll_number" db:"roll_number"`
	Name           string          `json:"name" db:"name"`
	Class          string          `json:"class" db:"class"`
	Section        string          `json:"section" db:"section"`
	Gender         string          `json:"gender" db:"gender"`
	DateOfBirth    null.Time       `json:"date_of_birth" db:"date_of_birth"`
	BloodGroup     null.String     `json:"blood_group" db:"blood_group"`
	Address        null.String     `json:"address" db:"address"`
	ParentName     null.String     `json:"parent_name" db:"parent_name"`
	PhoneNumber    null.String     `json:"phone_number" db:"phone_number"`
	Email          null.String     `json:"student_email" db:"student_email"`
	EnrollmentDate null.Time       `json:"enrollment_date" db:"enrollment_date"`
	TotalFee       decimal.Decimal `json:"total_fee" db:"total_fee"`
	Concession     decimal.Decimal `json:"concession" db:"concession"`
	AmountPaid     decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Balance        decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"` // UTC
}

// Credential is the login row created alongside a profile. Authentication
// flows live elsewhere; this backend only provisions the hash.
type Credential struct {
	StudentID    string `json:"-" db:"student_id"`
	PasswordHash []byte `json:"-" db:"password_hash"`
}

func NewCredential(studentID, pwd string) (Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, err
	}
	return Credential{StudentID: studentID, PasswordHash: hash}, nil
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	ID             string          `json:"student_id" validate:"required,alphanum_"`
	RollNumber     string          `json:"roll_number" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	Class          string          `json:"class" validate:"required"`
	Section        string          `json:"section" validate:"required"`
	Gender         string          `json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth    null.Time       `json:"date_of_birth"`
	BloodGroup     null.String     `json:"blood_group"`
	Address        null.String     `json:"address"`
	ParentName     null.String     `json:"parent_name"`
	PhoneNumber    null.String     `json:"phone_number"`
	Email          string          `json:"student_email" validate:"omitempty,email"`
	EnrollmentDate null.Time       `json:"enrollment_date"`
	TotalFee       decimal.Decimal `json:"total_fee"`
	Concession     decimal.Decimal `json:"concession"`
	Password       string          `json:"password" validate:"required,min=6"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, translator ut.Translator, svc *Service) error {
	ns.ID = core.CleanString(ns.ID, true /* lower */)
	ns.RollNumber = core.CleanString(ns.RollNumber)
	ns.Name = core.CleanString(ns.Name)
	ns.Class = core.CleanString(ns.Class)
	ns.Section = core.CleanString(ns.Section, true /* lower */)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.TotalFee.IsNegative() || ns.Concession.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "total_fee", Error: "fee amounts cannot be negative"})
	}
	return svc.CheckUniqueness(ns.ID, ns.RollNumber)
}

// UpdateStudent defines what profile information may be modified. Fee charge
// fields are handled by the fees service, never here.
type UpdateStudent struct {
	RollNumber     string      `json:"roll_number"`
	Name           string      `json:"name"`
	Class          string      `json:"class"`
	Section        string      `json:"section"`
	Gender         string      `json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth    null.Time   `json:"date_of_birth"`
	BloodGroup     null.String `json:"blood_group"`
	Address        null.String `json:"address"`
	ParentName     null.String `json:"parent_name"`
	PhoneNumber    null.String `json:"phone_number"`
	Email          string      `json:"student_email" validate:"omitempty,email"`
	EnrollmentDate null.Time   `json:"enrollment_date"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate, orig Student, svc *Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if roll := core.CleanString(us.RollNumber); roll != "" {
		us.RollNumber = roll
	} else {
		us.RollNumber = orig.RollNumber
	}
	if class := core.CleanString(us.Class); class != "" {
		us.Class = class
	} else {
		us.Class = orig.Class
	}
	if section := core.CleanString(us.Section, true); section != "" {
		us.Section = section
	} else {
		us.Section = orig.Section
	}
	us.Gender = core.CleanString(us.Gender, true)
	us.Email = core.CleanString(us.Email, true)

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.RollNumber != orig.RollNumber {
		return svc.CheckRollUniqueness(us.RollNumber, orig.ID)
	}
	return nil
}

// QueryFilter narrows profile listings; Search matches name, id or roll.
type QueryFilter struct {
	Search  string `query:"search"`
	Class   string `query:"class"`
	Section string `query:"section"`
	Gender  string `query:"gender"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Class == "" && qf.Section == "" && qf.Gender == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
	qf.Section = core.CleanString(qf.Section, true)
	qf.Gender = core.CleanString(qf.Gender, true)
}
