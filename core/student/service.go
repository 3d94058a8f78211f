package student

import (
	"context"
	"errors"
	"time"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("student")
	ErrIDExists       = errors.New("a student with this student id already exists")
	ErrRollExists     = errors.New("a student with this roll number already exists")
	ErrImmutableField = errors.New("student id cannot be changed")
)

type (
	Repository interface {
		// CheckUniqueness reports ErrIDExists / ErrRollExists; excludedIDs
		// are skipped (used when editing an existing profile).
		CheckUniqueness(ctx context.Context, id, rollNumber string, excludedIDs ...string) error
		// CreateStudent writes the profile and its credential atomically.
		CreateStudent(ctx context.Context, st Student, cred Credential) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// FilterStudents applies AND on available QueryFilter fields;
		// QueryFilter.Search does a case-insensitive match on one of
		// Student.Name, Student.ID or Student.RollNumber.
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		// UpdateStudentProfile leaves fee account fields untouched.
		UpdateStudentProfile(ctx context.Context, st Student) (Student, error)
		// DeleteStudent removes the profile, credential and dependent rows.
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) CheckUniqueness(id, rollNumber string) error {
	return svc.checkUniqueness(id, rollNumber)
}

func (svc *Service) CheckRollUniqueness(rollNumber, excludedID string) error {
	return svc.checkUniqueness("", rollNumber, excludedID)
}

func (svc *Service) checkUniqueness(id, rollNumber string, excludedIDs ...string) error {
	if err := svc.repo.CheckUniqueness(context.Background(), id, rollNumber, excludedIDs...); err != nil {
		switch err {
		case ErrIDExists:
			return core.NewConflictError(err, "student_id")
		case ErrRollExists:
			return core.NewConflictError(err, "roll_number")
		default:
			return err
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		ID:             ns.ID,
		RollNumber:     ns.RollNumber,
		Name:           ns.Name,
		Class:          ns.Class,
		Section:        ns.Section,
		Gender:         ns.Gender,
		DateOfBirth:    ns.DateOfBirth,
		BloodGroup:     ns.BloodGroup,
		Address:        ns.Address,
		ParentName:     ns.ParentName,
		PhoneNumber:    ns.PhoneNumber,
		EnrollmentDate: ns.EnrollmentDate,
		TotalFee:       ns.TotalFee,
		Concession:     ns.Concession,
		// a fresh profile has no payments yet
		Balance:   ns.TotalFee.Sub(ns.Concession),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.Email != "" {
		st.Email.SetValid(ns.Email)
	}

	cred, err := NewCredential(st.ID, ns.Password)
	if err != nil {
		return Student{}, err
	}
	return svc.repo.CreateStudent(ctx, st, cred)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, core.CleanString(id, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.repo.QueryAllStudents(ctx)
	}
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	orig, err := svc.repo.GetStudentByID(ctx, core.CleanString(id, true /* lower */))
	if err != nil {
		return Student{}, err
	}
	if err := us.apply(&orig); err != nil {
		return Student{}, err
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudentProfile(ctx, orig)
}

func (us *UpdateStudent) apply(st *Student) error {
	st.RollNumber = us.RollNumber
	st.Name = us.Name
	st.Class = us.Class
	st.Section = us.Section
	if us.Gender != "" {
		st.Gender = us.Gender
	}
	if us.DateOfBirth.Valid {
		st.DateOfBirth = us.DateOfBirth
	}
	if us.BloodGroup.Valid {
		st.BloodGroup = us.BloodGroup
	}
	if us.Address.Valid {
		st.Address = us.Address
	}
	if us.ParentName.Valid {
		st.ParentName = us.ParentName
	}
	if us.PhoneNumber.Valid {
		st.PhoneNumber = us.PhoneNumber
	}
	if us.Email != "" {
		st.Email.SetValid(us.Email)
	}
	if us.EnrollmentDate.Valid {
		st.EnrollmentDate = us.EnrollmentDate
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, core.CleanString(id, true /* lower */))
}
