package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/vidyalaya/apps/api/echo"
	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/attendance"
	"github.com/trezcool/vidyalaya/core/comment"
	"github.com/trezcool/vidyalaya/core/gallery"
	"github.com/trezcool/vidyalaya/core/marks"
	"github.com/trezcool/vidyalaya/core/notice"
	"github.com/trezcool/vidyalaya/core/rating"
	"github.com/trezcool/vidyalaya/core/roster"
	"github.com/trezcool/vidyalaya/core/school"
	"github.com/trezcool/vidyalaya/core/user"
	appfs "github.com/trezcool/vidyalaya/fs"
	"github.com/trezcool/vidyalaya/services/cache"
	emailsvc "github.com/trezcool/vidyalaya/services/email"
	logsvc "github.com/trezcool/vidyalaya/services/logger"
	"github.com/trezcool/vidyalaya/services/media"
	inmemdb "github.com/trezcool/vidyalaya/storage/database/inmem"
)

var (
	conf       *core.Config
	usrRepo    user.Repository
	schoolRepo school.Repository
	marksRepo  marks.Repository
	attRepo    attendance.Repository
	noticeRepo notice.Repository
	imgRepo    gallery.Repository
	cmtRepo    comment.Repository
	ratingRepo rating.Repository

	errMissingToken     = httpErr{Error: "missing or malformed jwt"}
	errPermissionDenied = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) echoapi.Server {
	conf = &core.Config{
		AppName:          "Vidyalaya",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Vidyalaya", Address: "noreply@vidyalaya.test"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		Media: core.MediaConfig{Dir: t.TempDir(), URLPrefix: "/media", MaxWidth: 800, MaxHeight: 600, DefaultsURL: "https://photos.example/home"},
	}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	schoolRepo = inmemdb.NewSchoolRepository(db)
	marksRepo = inmemdb.NewMarksRepository(db)
	attRepo = inmemdb.NewAttendanceRepository(db)
	noticeRepo = inmemdb.NewNoticeRepository(db)
	imgRepo = inmemdb.NewGalleryRepository(db)
	cmtRepo = inmemdb.NewCommentRepository(db)
	ratingRepo = inmemdb.NewRatingRepository(db)

	store, err := media.NewStore(conf)
	require.NoError(t, err)
	appCache := cache.NewMemory()

	// set up services
	core.ParseEmailTemplates(appfs.FS, conf, logger)
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo, logger)
	schoolSvc := school.NewService(schoolRepo)
	marksSvc := marks.NewService(marksRepo, usrSvc, schoolSvc)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	marks.InitValidators(validate, translator)
	rating.InitValidators(validate, translator)

	// set up server
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Cache:          appCache,
		Mailer:         mailSvc,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SchoolSvc:      schoolSvc,
		MarksSvc:       marksSvc,
		RosterSvc:      roster.NewService(usrSvc, marksSvc),
		AttendanceSvc:  attendance.NewService(attRepo, usrSvc),
		NoticeSvc:      notice.NewService(noticeRepo, usrSvc, mailSvc, logger),
		GallerySvc:     gallery.NewService(imgRepo, store, conf, logger),
		CommentSvc:     comment.NewService(cmtRepo, usrSvc),
		RatingSvc:      rating.NewService(ratingRepo, usrSvc, appCache, mailSvc, logger),
	})
}

// fixtures

func hashPassword(t *testing.T, pwd string) string {
	if pwd == "" {
		return ""
	}
	hash, err := user.HashPassword(pwd)
	require.NoError(t, err)
	return hash
}

func createAdmin(t *testing.T, email, name, pwd string) user.Admin {
	now := time.Now().UTC()
	adm, err := usrRepo.UpsertAdmin(context.Background(), user.Admin{
		Email: email, Name: name, Status: user.StatusActive, PasswordHash: hashPassword(t, pwd), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return adm
}

func createStudent(t *testing.T, admissionID, name, classSection, pwd string, status ...string) user.Student {
	st := user.Student{
		AdmissionID:  admissionID,
		Name:         name,
		ClassSection: classSection,
		Status:       user.StatusActive,
		PasswordHash: hashPassword(t, pwd),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	st.ClassName, st.Section = school.SplitClassSection(classSection)
	if len(status) > 0 {
		st.Status = status[0]
	}
	st, err := usrRepo.CreateStudent(context.Background(), st)
	require.NoError(t, err)
	return st
}

func createTeacher(t *testing.T, teacherID, name, classTeacherOf string, assignments ...user.Assignment) user.Teacher {
	tch := user.Teacher{
		TeacherID:      teacherID,
		Name:           name,
		Status:         user.StatusActive,
		Assignments:    assignments,
		ClassTeacherOf: classTeacherOf,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	tch, err := usrRepo.CreateTeacher(context.Background(), tch)
	require.NoError(t, err)
	return tch
}

func createSubject(t *testing.T, name, code string) school.Subject {
	subj, err := schoolRepo.CreateSubject(context.Background(), school.Subject{Name: name, Code: code, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	return subj
}

// requests & responses

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, p user.Principal) string {
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, p))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
