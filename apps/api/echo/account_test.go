package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/vidyalaya/apps/api/echo"
	"github.com/trezcool/vidyalaya/core/user"
)

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	admin := createAdmin(t, "head@school.in", "Head", "Admin#123")
	student := createStudent(t, "A001", "Asha Rao", "10-A", "Asha#pwd1")
	createStudent(t, "A002", "Naughty Dog", "10-A", "Dog#pwd01", user.StatusSuspended)
	teacher := createTeacher(t, "T001", "Mr. Sharma", "", user.Assignment{ClassSection: "10-A", Subject: "Maths"})
	require.NoError(t, usrRepo.SetPassword(context.Background(), user.RoleTeacher, teacher.ID, hashPassword(t, "Teach#001")))

	body := func(role, identifier, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Role: role, Identifier: identifier, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"role":       "this field is required",
				"identifier": "this field is required",
				"password":   "this field is required",
			}),
		},
		{
			name: "unknown role", body: body("parent", "A001", "Asha#pwd1"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{
			name: "unknown student", body: body(user.RoleStudent, "A999", "Asha#pwd1"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid admission ID or password"}),
		},
		{
			name: "wrong student password", body: body(user.RoleStudent, "A001", "nope"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid admission ID or password"}),
		},
		{
			name: "deactivated student", body: body(user.RoleStudent, "A002", "Dog#pwd01"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "wrong teacher password", body: body(user.RoleTeacher, "T001", "Asha#pwd1"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid teacher ID or password"}),
		},
		{
			name: "wrong admin password", body: body(user.RoleAdmin, "head@school.in", "Teach#001"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid email or password"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	success := []struct {
		name                  string
		role, identifier, pwd string
		want                  user.Principal
	}{
		{"student", user.RoleStudent, " a001 ", "Asha#pwd1", student.Principal()},
		{"teacher", user.RoleTeacher, "T001", "Teach#001", teacher.Principal()},
		{"admin (case insensitive email)", user.RoleAdmin, "HEAD@school.in", "Admin#123", admin.Principal()},
	}
	for _, tt := range success {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", body(tt.role, tt.identifier, tt.pwd))
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp echoapi.LoginResponse
			unmarshal(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			assert.Equal(t, tt.want, resp.User)

			// the token opens the authenticated endpoints
			req, rec = newAuthRequest(http.MethodGet, "/v1/auth/me", resp.Token)
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func Test_authApi_me(t *testing.T) {
	app := setup(t)

	student := createStudent(t, "A001", "Asha Rao", "10-A", "")
	admin := createAdmin(t, "head@school.in", "Head", "")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/auth/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/v1/auth/me", token: "not-a-jwt", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{name: "student", path: "/v1/auth/me", token: getToken(t, student.Principal()), wantData: marchallObj(t, student)},
		{name: "admin", path: "/v1/auth/me", token: getToken(t, admin.Principal()), wantData: marchallObj(t, admin)},
		{
			name: "deleted user", path: "/v1/auth/me", wantCode: http.StatusNotFound,
			token:    getToken(t, user.Principal{ID: "gone", Role: user.RoleStudent}),
			wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_authApi_logout(t *testing.T) {
	app := setup(t)

	student := createStudent(t, "A001", "Asha Rao", "10-A", "")
	token := getToken(t, student.Principal())
	other := getToken(t, student.Principal())

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/logout", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	runHTTPTests(t, app, []httpTest{
		{
			name: "revoked token", path: "/v1/auth/me", token: token, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "session has been revoked"}),
		},
		{name: "other session", path: "/v1/auth/me", token: other, wantData: marchallObj(t, student)},
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)

	student := createStudent(t, "A001", "Asha Rao", "10-A", "")
	suspended := createStudent(t, "A002", "Naughty Dog", "10-A", "", user.StatusSuspended)
	token := getToken(t, student.Principal())

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp echoapi.LoginResponse
	unmarshal(t, rec, &resp)
	assert.NotEqual(t, token, resp.Token)
	assert.Equal(t, student.Principal(), resp.User)

	oldClaims := echoapi.NewClaims(conf, student.Principal(), time.Now().Add(-48*time.Hour).Unix())
	expired, err := echoapi.GenerateToken(conf, oldClaims)
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "new token", path: "/v1/auth/me", token: resp.Token, wantData: marchallObj(t, student)},
		{
			name: "old token is revoked", path: "/v1/auth/me", token: token, wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "session has been revoked"}),
		},
		{
			name: "refresh window passed", method: http.MethodPost, path: "/v1/auth/token-refresh", token: expired,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/auth/token-refresh",
			token:    getToken(t, suspended.Principal()),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})
}

func Test_authApi_changePassword(t *testing.T) {
	app := setup(t)

	student := createStudent(t, "A001", "Asha Rao", "10-A", "Asha#pwd1")
	token := getToken(t, student.Principal())

	body := func(old, pwd, confirm string) []byte {
		return marchallObj(t, map[string]string{"old_password": old, "password": pwd, "password_confirm": confirm})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "mismatch", method: http.MethodPut, path: "/v1/auth/password", token: token,
			body: body("Asha#pwd1", "Kite#run22", "Kite#run23"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "too short", method: http.MethodPut, path: "/v1/auth/password", token: token,
			body: body("Asha#pwd1", "k1", "k1"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 6 characters"}),
		},
		{
			name: "wrong old password", method: http.MethodPut, path: "/v1/auth/password", token: token,
			body: body("nope", "Kite#run22", "Kite#run22"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"old_password": "wrong password"}),
		},
		{
			name: "success", method: http.MethodPut, path: "/v1/auth/password", token: token,
			body:     body("Asha#pwd1", "Kite#run22", "Kite#run22"),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password updated successfully."}),
		},
	})

	req, rec := newRequest(http.MethodPost, "/v1/auth/login", marchallObj(t, echoapi.LoginRequest{
		Role: user.RoleStudent, Identifier: "A001", Password: "Kite#run22",
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
