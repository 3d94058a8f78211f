package echoapi

import (
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/records"
	emailsvc "github.com/darasahq/darasa/services/email"
)

func Test_recordsApi_crud(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/v1/leaves", jsonBody(t, map[string]interface{}{
		"student_id": "std001",
		"start_date": "2026-09-01",
		"end_date":   "2026-09-03",
		"reason":     "family function",
		"status":     "pending",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var leave records.Record
	decodeBody(t, rec, &leave)
	id, _ := leave["id"].(string)
	if id == "" {
		t.Fatal("leave id not assigned")
	}

	rec = env.do(t, http.MethodPut, "/v1/leaves/"+id, jsonBody(t, map[string]interface{}{
		"status": "approved",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var updated records.Record
	decodeBody(t, rec, &updated)
	if updated["status"] != "approved" || updated["reason"] != "family function" {
		t.Errorf("updated = %v, want approved with original reason", updated)
	}

	rec = env.do(t, http.MethodDelete, "/v1/leaves/"+id)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = env.do(t, http.MethodGet, "/v1/leaves/"+id)
	checkErrorEnvelope(t, rec, http.StatusNotFound)
}

func Test_recordsApi_validation(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, http.MethodPost, "/v1/exams", jsonBody(t, map[string]interface{}{
		"class": "5", "subject": "maths", "exam_date": "01/09/2026",
	}))
	envl := checkErrorEnvelope(t, rec, http.StatusBadRequest)
	fields, ok := envl.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("message = %v, want a field error map", envl.Message)
	}
	if _, ok := fields["exam_date"]; !ok {
		t.Errorf("missing field error for exam_date in %v", fields)
	}
}

func Test_recordsApi_holidaysNaturalKey(t *testing.T) {
	env := setupAPI(t)

	body := jsonBody(t, map[string]interface{}{
		"date": "2026-12-25", "name": "Christmas", "type": "public",
	})
	rec := env.do(t, http.MethodPost, "/v1/holidays", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/holidays", body)
	checkErrorEnvelope(t, rec, http.StatusConflict)

	rec = env.do(t, http.MethodGet, "/v1/holidays/2026-12-25")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func Test_recordsApi_listView(t *testing.T) {
	env := setupAPI(t)

	for _, rec := range []map[string]interface{}{
		{"class": "5", "subject": "maths", "title": "Algebra basics", "link": "https://x/1"},
		{"class": "5", "subject": "science", "title": "Plant cells", "link": "https://x/2"},
		{"class": "6", "subject": "maths", "title": "Fractions", "link": "https://x/3"},
	} {
		if r := env.do(t, http.MethodPost, "/v1/study-materials", jsonBody(t, rec)); r.Code != http.StatusCreated {
			t.Fatalf("seeding failed: %s", r.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/v1/study-materials?class=5&sort=title&page=1&page_size=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res struct {
		Rows          []map[string]interface{} `json:"rows"`
		TotalMatching int                      `json:"total_matching"`
	}
	decodeBody(t, rec, &res)
	if res.TotalMatching != 2 {
		t.Fatalf("total_matching = %d, want 2", res.TotalMatching)
	}
	if res.Rows[0]["title"] != "Algebra basics" {
		t.Errorf("first row = %v, want Algebra basics", res.Rows[0])
	}

	// no view params: plain collection
	rec = env.do(t, http.MethodGet, "/v1/study-materials")
	var all []records.Record
	decodeBody(t, rec, &all)
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}
}

func Test_recordsApi_announcementNotifies(t *testing.T) {
	env := setupAPI(t)
	before := len(emailsvc.SentMessages)

	rec := env.do(t, http.MethodPost, "/v1/announcements", jsonBody(t, map[string]interface{}{
		"title": "Sports day", "message": "On the 14th", "type": "event",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	if len(emailsvc.SentMessages) != before+1 {
		t.Fatalf("sent messages = %d, want %d", len(emailsvc.SentMessages), before+1)
	}
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	if msg.To[0].Address != "head@school.test" {
		t.Errorf("recipient = %q, want head@school.test", msg.To[0].Address)
	}
}
