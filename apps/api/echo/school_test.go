package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core/school"
)

func Test_schoolApi_classSections(t *testing.T) {
	app := setup(t)

	admin := createAdmin(t, "head@school.in", "Head", "")
	adminToken := getToken(t, admin.Principal())
	sharma := createTeacher(t, "T001", "Mr. Sharma", "")

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/class-sections", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "no class-sections yet", path: "/v1/class-sections", token: getToken(t, sharma.Principal()), wantData: marchallList(t)},
		{
			name: "admins only", method: http.MethodPost, path: "/v1/class-sections", token: getToken(t, sharma.Principal()),
			body:     marchallObj(t, school.NewClassSection{ClassName: "10", Section: "A"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/class-sections", token: adminToken,
			body:     marchallObj(t, school.NewClassSection{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_name": "this field is required", "section": "this field is required"}),
		},
		{
			name: "class out of range", method: http.MethodPost, path: "/v1/class-sections", token: adminToken,
			body:     marchallObj(t, school.NewClassSection{ClassName: "13", Section: "A"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_name": "class must be between 1 and 12"}),
		},
	})

	create := func(t *testing.T, className, section string) school.ClassSection {
		req, rec := newAuthRequest(http.MethodPost, "/v1/class-sections", adminToken, marchallObj(t, school.NewClassSection{ClassName: className, Section: section}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var cs school.ClassSection
		unmarshal(t, rec, &cs)
		return cs
	}

	tenA := create(t, "10", "a")
	assert.Equal(t, "10-A", tenA.Name)
	assert.Equal(t, 10, tenA.ClassNumber)
	nineB := create(t, "9", "B")

	runHTTPTests(t, app, []httpTest{
		{
			name: "duplicate", method: http.MethodPost, path: "/v1/class-sections", token: adminToken,
			body:     marchallObj(t, school.NewClassSection{ClassName: "10", Section: "A"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"class_section": "this class-section already exists"}),
		},
		{name: "ordered by class then section", path: "/v1/class-sections", token: adminToken, wantData: marchallList(t, nineB, tenA)},
	})
}

func Test_schoolApi_subjects(t *testing.T) {
	app := setup(t)

	admin := createAdmin(t, "head@school.in", "Head", "")
	adminToken := getToken(t, admin.Principal())
	asha := createStudent(t, "A001", "Asha Rao", "10-A", "")

	runHTTPTests(t, app, []httpTest{
		{
			name: "any signed-in user lists subjects", path: "/v1/subjects", token: getToken(t, asha.Principal()),
			wantData: marchallList(t),
		},
		{
			name: "invalid class", path: "/v1/subjects/catalog?class=XIV", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"class": "invalid class"}),
		},
		{
			name: "catalog of class 10", path: "/v1/subjects/catalog?class=10th", token: adminToken,
			wantData: marchallObj(t, []string{"Hindi", "English", "Maths", "S.St", "Science", "AI"}),
		},
		{
			name: "catalog of class XI", path: "/v1/subjects/catalog?class=XI", token: adminToken,
			wantData: marchallObj(t, []string{"Hindi", "English", "Maths", "Physics", "Chemistry", "Biology", "Computer"}),
		},
		{name: "no class, no catalog", path: "/v1/subjects/catalog", token: adminToken, wantData: marchallList(t)},
		{
			name: "class range", method: http.MethodPost, path: "/v1/subjects", token: adminToken,
			body:     marchallObj(t, school.NewSubject{Name: "Physics", Code: "PHY", ApplicableFromClass: 11, ApplicableToClass: 9}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"applicable_to_class": "applicable_to_class must be greater than or equal to ApplicableFromClass",
			}),
		},
	})

	create := func(t *testing.T, ns school.NewSubject) school.Subject {
		req, rec := newAuthRequest(http.MethodPost, "/v1/subjects", adminToken, marchallObj(t, ns))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var s school.Subject
		unmarshal(t, rec, &s)
		return s
	}

	maths := create(t, school.NewSubject{Name: "Maths", Code: "MATH"})
	assert.Equal(t, school.MinClass, maths.ApplicableFromClass)
	assert.Equal(t, school.MaxClass, maths.ApplicableToClass)
	physics := create(t, school.NewSubject{Name: "Physics", Code: "PHY", ApplicableFromClass: 11, ApplicableToClass: 12})
	evs := create(t, school.NewSubject{Name: "EVS", Code: "EVS", ApplicableToClass: 5})

	runHTTPTests(t, app, []httpTest{
		{
			name: "duplicate code", method: http.MethodPost, path: "/v1/subjects", token: adminToken,
			body:     marchallObj(t, school.NewSubject{Name: "Mathematics", Code: "math"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "a subject with this name or code already exists"}),
		},
		{name: "all subjects by name", path: "/v1/subjects", token: adminToken, wantData: marchallList(t, evs, maths, physics)},
		{name: "subjects of class 4", path: "/v1/subjects?class=4", token: adminToken, wantData: marchallList(t, evs, maths)},
		{name: "subjects of class XII", path: "/v1/subjects?class=XII", token: adminToken, wantData: marchallList(t, maths, physics)},
	})
}
