package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core/student"
)

func seedStudent(t *testing.T, env *testEnv, id, roll, name, class string) student.Student {
	t.Helper()

	st, err := env.studentSvc.Create(context.Background(), student.NewStudent{
		ID:         id,
		RollNumber: roll,
		Name:       name,
		Class:      class,
		Section:    "a",
		TotalFee:   decimal.NewFromInt(5000),
		Concession: decimal.NewFromInt(500),
		Password:   "s3cr3t!",
	})
	if err != nil {
		t.Fatalf("seedStudent() failed: %v", err)
	}
	return st
}

func Test_studentApi_create(t *testing.T) {
	env := setupAPI(t)

	body := jsonBody(t, map[string]interface{}{
		"student_id":  "std001",
		"roll_number": "R-001",
		"name":        "Asha Patel",
		"class":       "5",
		"section":     "a",
		"gender":      "female",
		"total_fee":   5000,
		"concession":  500,
		"password":    "s3cr3t!",
	})
	rec := env.do(t, http.MethodPost, "/v1/students", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var st student.Student
	decodeBody(t, rec, &st)
	if st.ID != "std001" {
		t.Errorf("student_id = %q, want %q", st.ID, "std001")
	}
	if !st.Balance.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("balance = %s, want 4500", st.Balance)
	}

	// duplicate id conflicts
	rec = env.do(t, http.MethodPost, "/v1/students", body)
	checkErrorEnvelope(t, rec, http.StatusConflict)
}

func Test_studentApi_create_validation(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/v1/students", jsonBody(t, map[string]interface{}{
		"student_id": "std001",
	}))
	envl := checkErrorEnvelope(t, rec, http.StatusBadRequest)

	fields, ok := envl.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("message = %v, want a field error map", envl.Message)
	}
	for _, fld := range []string{"roll_number", "name", "class", "password"} {
		if _, ok := fields[fld]; !ok {
			t.Errorf("missing field error for %q in %v", fld, fields)
		}
	}
}

func Test_studentApi_query(t *testing.T) {
	env := setupAPI(t)
	asha := seedStudent(t, env, "std001", "R-001", "Asha Patel", "5")
	biko := seedStudent(t, env, "std002", "R-002", "Biko Moyo", "6")

	rec := env.do(t, http.MethodGet, "/v1/students")
	if ok, err := jsonBytesEqual(t, rec.Body.Bytes(), jsonBody(t, []student.Student{asha, biko})); err != nil || !ok {
		t.Errorf("GET /v1/students = %s; want the seeded students (err %v)", rec.Body.String(), err)
	}

	tests := []httpTest{
		{name: "all", path: "/v1/students", wantCode: http.StatusOK},
		{name: "class filter", path: "/v1/students?class=5", wantCode: http.StatusOK},
		{name: "gender filter", path: "/v1/students?gender=male", wantCode: http.StatusOK},
	}
	wantCounts := []int{2, 1, 0}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var students []student.Student
			decodeBody(t, rec, &students)
			if len(students) != wantCounts[i] {
				t.Errorf("len = %d, want %d", len(students), wantCounts[i])
			}
		})
	}
}

func Test_studentApi_queryView(t *testing.T) {
	env := setupAPI(t)
	seedStudent(t, env, "std001", "R-001", "Asha Patel", "5")
	seedStudent(t, env, "std002", "R-002", "Biko Moyo", "6")
	seedStudent(t, env, "std003", "R-003", "Chen Wei", "5")

	rec := env.do(t, http.MethodGet, "/v1/students?class=5&sort=name&dir=desc&page=1&page_size=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var res struct {
		Rows          []map[string]interface{} `json:"rows"`
		Page          int                      `json:"page"`
		TotalPages    int                      `json:"total_pages"`
		TotalMatching int                      `json:"total_matching"`
	}
	decodeBody(t, rec, &res)
	if res.TotalMatching != 2 || res.TotalPages != 2 {
		t.Errorf("total_matching/total_pages = %d/%d, want 2/2", res.TotalMatching, res.TotalPages)
	}
	if len(res.Rows) != 1 || res.Rows[0]["name"] != "Chen Wei" {
		t.Errorf("rows = %v, want Chen Wei first (desc)", res.Rows)
	}
}

func Test_studentApi_retrieve(t *testing.T) {
	env := setupAPI(t)
	seedStudent(t, env, "std001", "R-001", "Asha Patel", "5")

	rec := env.do(t, http.MethodGet, "/v1/students/std001")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = env.do(t, http.MethodGet, "/v1/students/ghost")
	checkErrorEnvelope(t, rec, http.StatusNotFound)
}

func Test_studentApi_update_delegatesCharges(t *testing.T) {
	env := setupAPI(t)
	seedStudent(t, env, "std001", "R-001", "Asha Patel", "5")

	rec := env.do(t, http.MethodPut, "/v1/students/std001", jsonBody(t, map[string]interface{}{
		"name":       "Asha P. Patel",
		"total_fee":  6000,
		"concession": 1000,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var st student.Student
	decodeBody(t, rec, &st)
	if st.Name != "Asha P. Patel" {
		t.Errorf("name = %q, want %q", st.Name, "Asha P. Patel")
	}
	if !st.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("balance = %s, want 5000 after charge edit", st.Balance)
	}
}

func Test_studentApi_destroy(t *testing.T) {
	env := setupAPI(t)
	seedStudent(t, env, "std001", "R-001", "Asha Patel", "5")

	rec := env.do(t, http.MethodDelete, "/v1/students/std001")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = env.do(t, http.MethodDelete, "/v1/students/std001")
	checkErrorEnvelope(t, rec, http.StatusNotFound)
}
