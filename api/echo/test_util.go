package echoapi

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http/httptest"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/dashboard"
	"github.com/darasahq/darasa/core/fees"
	"github.com/darasahq/darasa/core/records"
	"github.com/darasahq/darasa/core/student"
	emailsvc "github.com/darasahq/darasa/services/email"
	eventsvc "github.com/darasahq/darasa/services/events"
	inmemdb "github.com/darasahq/darasa/storage/database/inmem"
)

type testEnv struct {
	server     Server
	studentSvc *student.Service
	feesSvc    *fees.Service
	recordsSvc *records.Service
}

type testLogger struct {
	std *log.Logger
}

var _ core.Logger = (*testLogger)(nil)

func (l testLogger) Enable(bool)                        {}
func (l testLogger) Debug(msg string, _ ...interface{}) { l.std.Println(msg) }
func (l testLogger) Info(msg string, _ ...interface{})  { l.std.Println(msg) }
func (l testLogger) Warn(msg string, _ ...interface{})  { l.std.Println(msg) }
func (l testLogger) Error(msg string, _ ...interface{}) { l.std.Println(msg) }
func (l testLogger) Fatal(msg string, _ ...interface{}) { l.std.Fatal(msg) }

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:          "Darasa",
		Env:              "TEST",
		TestMode:         true,
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Darasa", Address: "noreply@localhost"},
		NotifyEmail:      "head@school.test",
		SchoolName:       "Darasa Demo School",
		SchoolAddress:    "P.O. Box 0000",
		Server:           core.ServerConfig{Host: ":0", ShutdownTimeout: time.Second},
	}
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()

	conf := newTestConfig()
	logger := testLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setupAPI() failed: %v", err)
	}

	studentSvc := student.NewService(inmemdb.NewStudentRepository(db), logger)
	feesSvc := fees.NewService(
		inmemdb.NewPaymentRepository(db),
		inmemdb.NewAccountRepository(db),
		eventsvc.NewNoopPublisher(),
		logger,
	)
	recordsSvc := records.NewService(inmemdb.NewRecordRepository(db), records.Builtin)
	dashSvc := dashboard.NewService(studentSvc, recordsSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		StudentSvc:   studentSvc,
		FeesSvc:      feesSvc,
		RecordsSvc:   recordsSvc,
		DashboardSvc: dashSvc,
		MailSvc:      emailsvc.NewConsoleServiceMock(conf),
		Validate:     validate,
		Translator:   translator,
	})

	return &testEnv{
		server:     server,
		studentSvc: studentSvc,
		feesSvc:    feesSvc,
		recordsSvc: recordsSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func (env *testEnv) do(t *testing.T, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("jsonBody() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()

	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decodeBody() failed: %v (body: %s)", err, rec.Body.String())
	}
}

func checkErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder, wantCode int) errorResponse {
	t.Helper()

	if rec.Code != wantCode {
		t.Errorf("status = %d, want %d (body: %s)", rec.Code, wantCode, rec.Body.String())
	}
	var envl errorResponse
	decodeBody(t, rec, &envl)
	if envl.Status != "error" {
		t.Errorf("status field = %q, want %q", envl.Status, "error")
	}
	if envl.StatusCode != wantCode {
		t.Errorf("statusCode field = %d, want %d", envl.StatusCode, wantCode)
	}
	return envl
}
