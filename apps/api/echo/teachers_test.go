package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core/user"
)

func Test_teacherApi(t *testing.T) {
	app := setup(t)

	admin := createAdmin(t, "head@school.in", "Head", "")
	sharma := createTeacher(t, "T001", "Mr. Sharma", "10-A", user.Assignment{ClassSection: "10-A", Subject: "Maths"})
	token := getToken(t, admin.Principal())

	runHTTPTests(t, app, []httpTest{
		{
			name: "admins only", path: "/v1/teachers", token: getToken(t, sharma.Principal()),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "no class-section", method: http.MethodPost, path: "/v1/teachers", token: token,
			body:     marchallObj(t, user.NewTeacher{TeacherID: "T002", Name: "Ms. Iyer", Password: "Kite#run22"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_sections": "Please select at least one class-section"}),
		},
		{
			name: "no subject", method: http.MethodPost, path: "/v1/teachers", token: token,
			body: marchallObj(t, user.NewTeacher{
				TeacherID: "T002", Name: "Ms. Iyer", Password: "Kite#run22",
				ClassSections: []user.ClassSectionSubjects{{ClassSection: "9-B"}},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_sections": "Please select at least one subject for each class-section"}),
		},
		{
			name: "subject not in catalog", method: http.MethodPost, path: "/v1/teachers", token: token,
			body: marchallObj(t, user.NewTeacher{
				TeacherID: "T002", Name: "Ms. Iyer", Password: "Kite#run22",
				ClassSections: []user.ClassSectionSubjects{{ClassSection: "9-B", Subjects: []string{"Physics"}}},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_sections": "Physics is not taught in class-section 9-B"}),
		},
		{
			name: "class teacher out of scope", method: http.MethodPost, path: "/v1/teachers", token: token,
			body: marchallObj(t, user.NewTeacher{
				TeacherID: "T002", Name: "Ms. Iyer", Password: "Kite#run22", ClassTeacherOf: "10-A",
				ClassSections: []user.ClassSectionSubjects{{ClassSection: "9-B", Subjects: []string{"English"}}},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_teacher_of": "Class teacher must be selected from the assigned class-sections"}),
		},
		{
			name: "duplicate teacher ID", method: http.MethodPost, path: "/v1/teachers", token: token,
			body: marchallObj(t, user.NewTeacher{
				TeacherID: "t001", Name: "Ms. Iyer", Password: "Kite#run22",
				ClassSections: []user.ClassSectionSubjects{{ClassSection: "9-B", Subjects: []string{"English"}}},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher_id": "a teacher with this teacher ID already exists"}),
		},
	})

	// create
	req, rec := newAuthRequest(http.MethodPost, "/v1/teachers", token, marchallObj(t, user.NewTeacher{
		TeacherID: "T002", Name: "Ms. Iyer", Email: "iyer@school.in", Password: "Kite#run22", ClassTeacherOf: "9-B",
		ClassSections: []user.ClassSectionSubjects{
			{ClassSection: "9-B", Subjects: []string{"English", "Hindi"}},
			{ClassSection: "10-A", Subjects: []string{"English"}},
		},
	}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var iyer user.Teacher
	unmarshal(t, rec, &iyer)
	assert.Equal(t, "T002", iyer.TeacherID)
	assert.Equal(t, user.StatusActive, iyer.Status)
	assert.Equal(t, []string{"English", "Hindi"}, iyer.Subjects)
	assert.Equal(t, "9-B", iyer.ClassTeacherOf)
	assert.ElementsMatch(t, []user.Assignment{
		{ClassSection: "9-B", Subject: "English"},
		{ClassSection: "9-B", Subject: "Hindi"},
		{ClassSection: "10-A", Subject: "English"},
	}, iyer.Assignments)

	// query
	req, rec = newAuthRequest(http.MethodGet, "/v1/teachers?search=iyer", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var found []user.Teacher
	unmarshal(t, rec, &found)
	require.Len(t, found, 1)
	assert.Equal(t, iyer.ID, found[0].ID)

	// update keeps the assignments when none are sent
	req, rec = newAuthRequest(http.MethodPut, "/v1/teachers/"+iyer.ID, token, marchallObj(t, user.UpdateTeacher{Phone: "98450 12345"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.Teacher
	unmarshal(t, rec, &updated)
	assert.Equal(t, "98450 12345", updated.Phone)
	assert.Len(t, updated.Assignments, 3)

	// class teacher alone is checked against the current assignments
	runHTTPTests(t, app, []httpTest{{
		name: "class teacher outside assignments", method: http.MethodPut, path: "/v1/teachers/" + iyer.ID, token: token,
		body:     marchallObj(t, user.UpdateTeacher{ClassTeacherOf: "8-C"}),
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"class_teacher_of": "Class teacher must be selected from the assigned class-sections"}),
	}})

	req, rec = newAuthRequest(http.MethodPut, "/v1/teachers/"+iyer.ID, token, marchallObj(t, user.UpdateTeacher{ClassTeacherOf: "10-A"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshal(t, rec, &updated)
	assert.Equal(t, "10-A", updated.ClassTeacherOf)
	assert.Equal(t, "98450 12345", updated.Phone)
	assert.Len(t, updated.Assignments, 3)

	iyerToken := getToken(t, updated.Principal())

	runHTTPTests(t, app, []httpTest{
		{name: "retrieve", path: "/v1/teachers/" + iyer.ID, token: token, wantData: marchallObj(t, updated)},
		{
			name: "retrieve unknown", path: "/v1/teachers/nope", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "teacher not found"}),
		},
		{name: "teacher is logged in", path: "/v1/auth/me", token: iyerToken},
		{name: "delete", method: http.MethodDelete, path: "/v1/teachers/" + iyer.ID, token: token, wantCode: http.StatusNoContent},
		{
			name: "deleted teacher sessions are revoked", path: "/v1/auth/me", token: iyerToken,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "session has been revoked"}),
		},
	})
}
