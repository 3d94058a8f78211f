package echoapi

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

func Test_dashboardApi_stats(t *testing.T) {
	env := setupAPI(t)
	seedStudent(t, env, "std001", "R-001", "Asha Patel", "5")
	seedStudent(t, env, "std002", "R-002", "Biko Moyo", "6")

	rec := env.do(t, http.MethodPost, "/v1/fees", jsonBody(t, map[string]interface{}{
		"student_id": "std001", "amount": 2000, "method": "cash",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seeding payment failed: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/dashboard/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var stats struct {
		TotalStudents   int             `json:"total_students"`
		FeesCollected   decimal.Decimal `json:"fees_collected"`
		FeesOutstanding decimal.Decimal `json:"fees_outstanding"`
	}
	decodeBody(t, rec, &stats)
	if stats.TotalStudents != 2 {
		t.Errorf("total_students = %d, want 2", stats.TotalStudents)
	}
	if !stats.FeesCollected.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("fees_collected = %s, want 2000", stats.FeesCollected)
	}
	// 4500 remaining on std001 + 4500 on std002
	if !stats.FeesOutstanding.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("fees_outstanding = %s, want 7000", stats.FeesOutstanding)
	}
}

func Test_dashboardApi_charts(t *testing.T) {
	env := setupAPI(t)
	seedStudent(t, env, "std001", "R-001", "Asha Patel", "5")
	seedStudent(t, env, "std002", "R-002", "Biko Moyo", "5")
	seedStudent(t, env, "std003", "R-003", "Chen Wei", "6")

	rec := env.do(t, http.MethodGet, "/v1/dashboard/class-distribution")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var dist struct {
		Labels []string          `json:"labels"`
		Series []decimal.Decimal `json:"series"`
	}
	decodeBody(t, rec, &dist)
	if len(dist.Labels) != 2 || dist.Labels[0] != "Class 5" {
		t.Errorf("labels = %v, want [Class 5 Class 6]", dist.Labels)
	}
	if !dist.Series[0].Equal(decimal.NewFromInt(2)) {
		t.Errorf("series[0] = %s, want 2", dist.Series[0])
	}

	rec = env.do(t, http.MethodGet, "/v1/dashboard/fees-overview")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func Test_settingsApi(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodGet, "/v1/settings")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var settings Settings
	decodeBody(t, rec, &settings)
	if settings.SchoolName != "Darasa Demo School" {
		t.Errorf("school_name = %q, want config seed", settings.SchoolName)
	}

	rec = env.do(t, http.MethodPut, "/v1/settings", jsonBody(t, Settings{
		SchoolName:    "Darasa High",
		SchoolAddress: "P.O. Box 1234",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/settings")
	decodeBody(t, rec, &settings)
	if settings.SchoolName != "Darasa High" {
		t.Errorf("school_name = %q, want Darasa High", settings.SchoolName)
	}

	rec = env.do(t, http.MethodPut, "/v1/settings", jsonBody(t, Settings{}))
	checkErrorEnvelope(t, rec, http.StatusBadRequest)
}
