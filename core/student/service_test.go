package student_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/student"
	inmemdb "github.com/darasahq/darasa/storage/database/inmem"
)

func setup(t *testing.T) *student.Service {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	return student.NewService(inmemdb.NewStudentRepository(db), nil)
}

func create(t *testing.T, svc *student.Service, ns student.NewStudent) student.Student {
	t.Helper()

	if ns.Password == "" {
		ns.Password = "s3cr3t!"
	}
	st, err := svc.Create(context.Background(), ns)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", ns.ID, err)
	}
	return st
}

func TestService_Create(t *testing.T) {
	svc := setup(t)

	st := create(t, svc, student.NewStudent{
		ID:         "std001",
		RollNumber: "R-001",
		Name:       "Asha Patel",
		Class:      "5",
		Section:    "a",
		Gender:     "female",
		TotalFee:   decimal.NewFromInt(5000),
		Concession: decimal.NewFromInt(500),
	})

	if !st.Balance.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("Balance = %s, want 4500", st.Balance)
	}
	if !st.AmountPaid.IsZero() {
		t.Errorf("AmountPaid = %s, want 0", st.AmountPaid)
	}
	if st.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestService_CheckUniqueness(t *testing.T) {
	svc := setup(t)
	create(t, svc, student.NewStudent{ID: "std001", RollNumber: "R-001", Name: "Asha", Class: "5", Section: "a"})

	tests := []struct {
		name      string
		id        string
		roll      string
		wantField string
	}{
		{name: "both free", id: "std002", roll: "R-002"},
		{name: "taken id", id: "std001", roll: "R-002", wantField: "student_id"},
		{name: "taken roll", id: "std002", roll: "R-001", wantField: "roll_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckUniqueness(tt.id, tt.roll)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("CheckUniqueness() error = %v, want nil", err)
				}
				return
			}
			confErr, ok := errors.Cause(err).(*core.ConflictError)
			if !ok {
				t.Fatalf("CheckUniqueness() error = %v, want *core.ConflictError", err)
			}
			if confErr.Field != tt.wantField {
				t.Errorf("ConflictError.Field = %q, want %q", confErr.Field, tt.wantField)
			}
		})
	}
}

func TestService_Update_leavesFeeFieldsAlone(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	create(t, svc, student.NewStudent{
		ID: "std001", RollNumber: "R-001", Name: "Asha Patel", Class: "5", Section: "a",
		TotalFee: decimal.NewFromInt(5000), Concession: decimal.NewFromInt(500),
	})

	updated, err := svc.Update(ctx, "std001", student.UpdateStudent{
		RollNumber: "R-001",
		Name:       "Asha P. Patel",
		Class:      "6",
		Section:    "b",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Asha P. Patel" || updated.Class != "6" {
		t.Errorf("Update() = %s class %s, want Asha P. Patel class 6", updated.Name, updated.Class)
	}
	if !updated.TotalFee.Equal(decimal.NewFromInt(5000)) || !updated.Balance.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("fee fields changed on profile update: total %s balance %s", updated.TotalFee, updated.Balance)
	}
}

func TestService_Filter(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	create(t, svc, student.NewStudent{ID: "std001", RollNumber: "R-001", Name: "Asha Patel", Class: "5", Section: "a", Gender: "female"})
	create(t, svc, student.NewStudent{ID: "std002", RollNumber: "R-002", Name: "Biko Moyo", Class: "5", Section: "b", Gender: "male"})
	create(t, svc, student.NewStudent{ID: "std003", RollNumber: "R-003", Name: "Chen Wei", Class: "6", Section: "a", Gender: "male"})

	tests := []struct {
		name    string
		filter  student.QueryFilter
		wantIDs []string
	}{
		{name: "empty filter returns all", wantIDs: []string{"std001", "std002", "std003"}},
		{name: "by class", filter: student.QueryFilter{Class: "5"}, wantIDs: []string{"std001", "std002"}},
		{name: "class and section", filter: student.QueryFilter{Class: "5", Section: "B"}, wantIDs: []string{"std002"}},
		{name: "search by name", filter: student.QueryFilter{Search: "asha"}, wantIDs: []string{"std001"}},
		{name: "search by roll", filter: student.QueryFilter{Search: "R-003"}, wantIDs: []string{"std003"}},
		{name: "no match", filter: student.QueryFilter{Class: "12"}, wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Filter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}
			ids := make([]string, 0, len(got))
			for _, st := range got {
				ids = append(ids, st.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("Filter() = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("Filter() = %v, want %v", ids, tt.wantIDs)
					break
				}
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	create(t, svc, student.NewStudent{ID: "std001", RollNumber: "R-001", Name: "Asha", Class: "5", Section: "a"})

	if err := svc.Delete(ctx, "STD001"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, "std001"); !isNotFound(err) {
		t.Errorf("GetByID() after delete error = %v, want not found", err)
	}
	if err := svc.Delete(ctx, "std001"); !isNotFound(err) {
		t.Errorf("Delete() twice error = %v, want not found", err)
	}
}

func isNotFound(err error) bool {
	_, ok := errors.Cause(err).(*core.NotFoundError)
	return ok
}
