package tests

import (
	"net/http"
	"testing"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	createUser(t, "Active User", "awe", "awe@test.cd", "LordOfTheRings", user.RoleTeacher, true)
	createUser(t, "Naughty User", "ndog", "ndog@test.cd", "LordOfTheRings", user.RoleStudent, false)

	tests := []httpTest{
		{
			name: "empty payload", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]map[string]string{"message": {
				"username": "this field is required",
				"password": "this field is required",
			}}),
		},
		{
			name: "unknown user", body: marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "x"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, echoapi.LoginRequest{Username: "awe", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, echoapi.LoginRequest{Username: "ndog", Password: "LordOfTheRings"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Message: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		body := marchallObj(t, echoapi.LoginRequest{Username: "awe", Password: "LordOfTheRings"})
		req, rec := newRequest(http.MethodPost, "/api/users/login", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var data echoapi.LoginResponse
		unmarshalData(t, rec.Body.Bytes(), &data)
		if data.Token == "" {
			t.Error("login returned an empty token")
		}
	})

	t.Run("login is case-insensitive on username", func(t *testing.T) {
		body := marchallObj(t, echoapi.LoginRequest{Username: "AWE", Password: "LordOfTheRings"})
		req, rec := newRequest(http.MethodPost, "/api/users/login", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := createUser(t, "Active User", "awe", "awe@test.cd", "", user.RoleStudent, true)

	tests := []httpTest{
		{
			name: "auth required", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "me", token: getToken(t, usr), wantCode: http.StatusOK,
			wantData: okObj(t, usr),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/users/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_adminEndpoints(t *testing.T) {
	app := setup(t)
	admin := createUser(t, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, "Student", "student", "student@test.cd", "", user.RoleStudent, true)
	adminToken := getToken(t, admin)

	t.Run("query requires admin", func(t *testing.T) {
		for _, usr := range []user.User{teacher, student} {
			req, rec := newAuthRequest(http.MethodGet, "/api/users", getToken(t, usr))
			app.ServeHTTP(rec, req)
			tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
			checkCodeAndData(t, tt, rec)
		}
	})

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users", adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var users []user.User
		unmarshalData(t, rec.Body.Bytes(), &users)
		if len(users) != 3 {
			t.Errorf("len(users) = %d, want 3", len(users))
		}
	})

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name:            "New Kid",
			Username:        "newkid",
			Email:           "newkid@test.cd",
			Password:        "LordOfTheRings",
			PasswordConfirm: "LordOfTheRings",
			Role:            user.RoleStudent,
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/users", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var created user.User
		unmarshalData(t, rec.Body.Bytes(), &created)
		if created.Username != "newkid" || created.Role.Name != user.RoleStudent {
			t.Errorf("created = %+v", created)
		}
	})

	t.Run("create duplicate username", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name:            "Copy Cat",
			Username:        "teacher",
			Email:           "copycat@test.cd",
			Password:        "LordOfTheRings",
			PasswordConfirm: "LordOfTheRings",
			Role:            user.RoleStudent,
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/users", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/users/"+itoa(student.ID), adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/api/users/"+itoa(student.ID), adminToken)
		app.ServeHTTP(rec, req)
		var got user.User
		unmarshalData(t, rec.Body.Bytes(), &got)
		if got.IsActive {
			t.Error("user still active after deactivation")
		}
	})

	t.Run("self-deactivation is forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/users/"+itoa(admin.ID), adminToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_selfProfile(t *testing.T) {
	app := setup(t)
	admin := createUser(t, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := createUser(t, "Student", "student", "student@test.cd", "", user.RoleStudent, true)
	studentToken := getToken(t, student)

	t.Run("view own profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/"+itoa(student.ID), studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: okObj(t, student)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("other users are hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/"+itoa(teacher.ID), studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update own profile", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Name: "Studious Student"})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+itoa(student.ID), studentToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var got user.User
		unmarshalData(t, rec.Body.Bytes(), &got)
		if got.Name != "Studious Student" || got.Username != "student" {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("self role change is forbidden", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Role: user.RoleTeacher})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+itoa(student.ID), studentToken, body)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("self status change is forbidden", func(t *testing.T) {
		active := false
		body := marchallObj(t, user.UpdateUser{IsActive: &active})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+itoa(student.ID), studentToken, body)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("self deletion is forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/users/"+itoa(student.ID), studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin may change role and status", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Role: user.RoleTeacher})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+itoa(student.ID), getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		var got user.User
		unmarshalData(t, rec.Body.Bytes(), &got)
		if got.Role.Name != user.RoleTeacher {
			t.Errorf("Role.Name = %q, want %q", got.Role.Name, user.RoleTeacher)
		}
	})
}

func Test_userApi_resetPassword(t *testing.T) {
	app := setup(t)
	createUser(t, "Active User", "awe", "awe@test.cd", "LordOfTheRings", user.RoleTeacher, true)

	// the response is identical whether or not the account exists
	wantData := marchallObj(t, httpErr{
		Message: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	tests := []httpTest{
		{
			name: "existing account", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "awe@test.cd"}),
			wantCode: http.StatusOK, wantData: wantData,
		},
		{
			name: "unknown account", body: marchallObj(t, echoapi.PasswordResetRequest{Email: "whodis@test.cd"}),
			wantCode: http.StatusOK, wantData: wantData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/password-reset", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	usr := createUser(t, "Active User", "awe", "awe@test.cd", "", user.RoleTeacher, true)

	req, rec := newAuthRequest(http.MethodPost, "/api/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
	}
	var data echoapi.LoginResponse
	unmarshalData(t, rec.Body.Bytes(), &data)
	if data.Token == "" {
		t.Error("refresh returned an empty token")
	}
}
