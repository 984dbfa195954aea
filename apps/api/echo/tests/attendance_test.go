package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
)

func Test_attendanceApi_generateQRCode(t *testing.T) {
	app := setup(t)
	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, "Student", "student", "student@test.cd", "", user.RoleStudent, true)
	class := createClass(t, teacher, student)

	body := marchallObj(t, attendance.NewSession{ClassID: class.ID, TTLSeconds: 600})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/attendance/generate-qrcode", body)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("students cannot open sessions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance/generate-qrcode", getToken(t, student), body)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance/generate-qrcode", getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var data echoapi.SessionResponse
		unmarshalData(t, rec.Body.Bytes(), &data)
		if data.Token == "" {
			t.Error("session has an empty token")
		}
		if data.ClassID != class.ID {
			t.Errorf("ClassID = %d, want %d", data.ClassID, class.ID)
		}
		if want := "/attendance/scan/" + data.Token; !strings.Contains(data.ScanURL, want) {
			t.Errorf("ScanURL = %q, want suffix %q", data.ScanURL, want)
		}

		// the QR code image is served for the session
		req, rec = newAuthRequest(http.MethodGet, "/api/attendance/sessions/"+itoa(data.ID)+"/qrcode.png", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %q, want image/png", ct)
		}
		if rec.Body.Len() == 0 {
			t.Error("empty PNG body")
		}
	})
}

func Test_attendanceApi_scan(t *testing.T) {
	app := setup(t)
	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, "Student", "student", "student@test.cd", "", user.RoleStudent, true)
	outsider := createUser(t, "Outsider", "outsider", "outsider@test.cd", "", user.RoleStudent, true)
	class := createClass(t, teacher, student)

	body := marchallObj(t, attendance.NewSession{ClassID: class.ID})
	req, rec := newAuthRequest(http.MethodPost, "/api/attendance/generate-qrcode", getToken(t, teacher), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate-qrcode failed: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var session echoapi.SessionResponse
	unmarshalData(t, rec.Body.Bytes(), &session)

	scanPath := "/api/attendance/scan/" + session.Token
	scanBody := marchallObj(t, attendance.ScanRequest{Location: "Room 12"})
	studentToken := getToken(t, student)

	t.Run("first scan", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, scanPath, studentToken, scanBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var record attendance.Record
		unmarshalData(t, rec.Body.Bytes(), &record)
		if record.SessionID != session.ID || record.StudentID != student.ID {
			t.Errorf("record = %+v", record)
		}
	})

	t.Run("second scan is idempotent", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, scanPath, studentToken, scanBody)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Message != "attendance already recorded" {
			t.Errorf("message = %q", resp.Message)
		}
	})

	t.Run("unenrolled student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, scanPath, getToken(t, outsider), scanBody)
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Message: "student is not enrolled in this class"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/attendance/scan/nope", studentToken, scanBody)
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Message: "attendance session not found"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("records", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/attendance/sessions/"+itoa(session.ID)+"/records", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var records []attendance.Record
		unmarshalData(t, rec.Body.Bytes(), &records)
		if len(records) != 1 {
			t.Errorf("len(records) = %d, want 1", len(records))
		}
	})

	t.Run("students cannot list records", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/attendance/sessions/"+itoa(session.ID)+"/records", studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/attendance/stats/"+itoa(class.ID), getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var stats attendance.Stats
		unmarshalData(t, rec.Body.Bytes(), &stats)
		want := attendance.Stats{ClassID: class.ID, Sessions: 1, Records: 1, StudentsPresent: 1, RosterSize: 1}
		if stats != want {
			t.Errorf("stats = %+v, want %+v", stats, want)
		}
	})
}
