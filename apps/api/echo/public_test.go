package echoapi_test

import (
	"bytes"
	"context"
	"image/color"
	"net/http"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core/gallery"
	"github.com/trezcool/vidyalaya/core/notice"
	"github.com/trezcool/vidyalaya/core/rating"
	"github.com/trezcool/vidyalaya/core/user"
	emailsvc "github.com/trezcool/vidyalaya/services/email"
)

func Test_noticeApi(t *testing.T) {
	app := setup(t)

	admin := createAdmin(t, "head@school.in", "Head", "")
	sharma := createTeacher(t, "T001", "Mr. Sharma", "", user.Assignment{ClassSection: "10-A", Subject: "Maths"})
	asha := createStudent(t, "A001", "Asha Rao", "10-A", "")
	adminToken := getToken(t, admin.Principal())

	// recipients
	asha.Email = "asha@mail.com"
	_, err := usrRepo.UpdateStudent(context.Background(), asha)
	require.NoError(t, err)
	sharma.Email = "sharma@school.in"
	_, err = usrRepo.UpdateTeacher(context.Background(), sharma, false)
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "no notices yet", path: "/v1/notices", wantData: marchallList(t)},
		{
			name: "admins only", method: http.MethodPost, path: "/v1/notices", token: getToken(t, sharma.Principal()),
			body:     marchallObj(t, notice.NewNotice{Title: "Holiday", Content: "School is closed."}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "validation", method: http.MethodPost, path: "/v1/notices", token: adminToken,
			body:     marchallObj(t, notice.NewNotice{Title: " ", Priority: "urgent"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":    "this field is required",
				"content":  "this field is required",
				"priority": "priority must be one of [low medium high]",
			}),
		},
	})

	create := func(t *testing.T, nn notice.NewNotice) notice.Notice {
		req, rec := newAuthRequest(http.MethodPost, "/v1/notices", adminToken, marchallObj(t, nn))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var n notice.Notice
		unmarshal(t, rec, &n)
		return n
	}

	emailsvc.ClearSentMessages()
	holiday := create(t, notice.NewNotice{Title: "Holiday", Content: "School is closed.", Date: "2024-01-26"})
	assert.Equal(t, notice.PriorityMedium, holiday.Priority)
	assert.Equal(t, notice.AudienceAll, holiday.TargetAudience)
	assert.True(t, holiday.IsActive)

	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].To)
	assert.ElementsMatch(t, []string{"asha@mail.com", "sharma@school.in"}, []string{sent[0].Bcc[0].Address, sent[0].Bcc[1].Address})

	emailsvc.ClearSentMessages()
	exams := create(t, notice.NewNotice{
		Title: "Exams", Content: "Half yearly exams start on Monday.", Date: "2024-09-16", Priority: "HIGH", TargetAudience: "students",
	})
	sent = emailsvc.SentMessages()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Bcc, 1)
	assert.Equal(t, "asha@mail.com", sent[0].Bcc[0].Address)

	runHTTPTests(t, app, []httpTest{
		{name: "active notices, newest first", path: "/v1/notices", wantData: marchallList(t, exams, holiday)},
		{name: "all notices need auth", path: "/v1/notices/all", wantCode: http.StatusUnauthorized},
		{
			name: "toggle unknown", method: http.MethodPatch, path: "/v1/notices/nope/toggle", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "notice not found"}),
		},
	})

	req, rec := newAuthRequest(http.MethodPatch, "/v1/notices/"+holiday.ID+"/toggle", adminToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var toggled notice.Notice
	unmarshal(t, rec, &toggled)
	assert.False(t, toggled.IsActive)

	runHTTPTests(t, app, []httpTest{
		{name: "inactive notices are hidden", path: "/v1/notices", wantData: marchallList(t, exams)},
		{name: "admins see every notice", path: "/v1/notices/all", token: adminToken, wantData: marchallList(t, exams, toggled)},
		{name: "delete", method: http.MethodDelete, path: "/v1/notices/" + exams.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", path: "/v1/notices", wantData: marchallList(t)},
	})
}

func Test_galleryApi(t *testing.T) {
	app := setup(t)

	admin := createAdmin(t, "head@school.in", "Head", "")
	adminToken := getToken(t, admin.Principal())

	runHTTPTests(t, app, []httpTest{
		{
			name: "default images", path: "/v1/gallery",
			wantData: marchallObj(t, gallery.DefaultImages(conf.Media.DefaultsURL)),
		},
		{
			name: "admins only", method: http.MethodPost, path: "/v1/gallery",
			body: marchallObj(t, gallery.NewImage{ImageURL: "https://cdn.school.in/1.jpg", Title: "Sports day"}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "validation", method: http.MethodPost, path: "/v1/gallery", token: adminToken,
			body:     marchallObj(t, gallery.NewImage{ImageURL: "not a url"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"image_url": "image_url must be a valid URL",
				"title":     "this field is required",
			}),
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/gallery", adminToken, marchallObj(t, gallery.NewImage{
		ImageURL: "https://cdn.school.in/1.jpg", Title: "Sports day",
	}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sports gallery.Image
	unmarshal(t, rec, &sports)
	assert.Equal(t, 1, sports.DisplayOrder)
	assert.Equal(t, admin.ID, sports.UploadedBy)

	t.Run("upload", func(t *testing.T) {
		var png bytes.Buffer
		require.NoError(t, imaging.Encode(&png, imaging.New(1600, 900, color.NRGBA{G: 180, A: 255}), imaging.PNG))

		req, rec := newUploadRequest(t, "/v1/gallery/upload", adminToken, "image", "notes.txt", []byte("hello"), map[string]string{"title": "Notes"})
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"image": "Please upload a JPEG, PNG or GIF image"}),
		}, rec)

		req, rec = newUploadRequest(t, "/v1/gallery/upload", adminToken, "image", "annual-day.png", png.Bytes(), map[string]string{
			"title": "Annual day", "description": "Dance performance",
		})
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var img gallery.Image
		unmarshal(t, rec, &img)
		assert.True(t, strings.HasPrefix(img.ImageURL, "/media/gallery/"), img.ImageURL)
		assert.Equal(t, 2, img.DisplayOrder)
		assert.Equal(t, "Dance performance", img.Description)

		// served & scaled down
		req, rec = newRequest(http.MethodGet, img.ImageURL)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		decoded, err := imaging.Decode(rec.Body)
		require.NoError(t, err)
		assert.LessOrEqual(t, decoded.Bounds().Dx(), conf.Media.MaxWidth)
		assert.LessOrEqual(t, decoded.Bounds().Dy(), conf.Media.MaxHeight)

		// toggle the first image off
		req, rec = newAuthRequest(http.MethodPatch, "/v1/gallery/"+sports.ID+"/toggle", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		runHTTPTests(t, app, []httpTest{
			{name: "public images", path: "/v1/gallery", wantData: marchallList(t, img)},
			{name: "delete", method: http.MethodDelete, path: "/v1/gallery/" + img.ID, token: adminToken, wantCode: http.StatusNoContent},
			{name: "file removed", path: img.ImageURL, wantCode: http.StatusNotFound},
			{
				name: "delete unknown", method: http.MethodDelete, path: "/v1/gallery/" + img.ID, token: adminToken,
				wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "image not found"}),
			},
		})
	})
}

func Test_ratingApi(t *testing.T) {
	app := setup(t)

	admin := createAdmin(t, "head@school.in", "Head", "")
	adminToken := getToken(t, admin.Principal())

	emptyTestimonials := rating.Testimonials{Testimonials: []rating.Testimonial{}}

	runHTTPTests(t, app, []httpTest{
		{name: "no testimonials", path: "/v1/testimonials", wantData: marchallObj(t, emptyTestimonials)},
		{
			name: "validation", method: http.MethodPost, path: "/v1/ratings",
			body:     marchallObj(t, rating.NewRating{Name: "Mr. Rao", Email: "not-an-email", Phone: "98450 12345", Relationship: "Parent"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":  "email must be a valid email address",
				"rating": "Please select a rating",
			}),
		},
		{name: "admins list ratings", path: "/v1/ratings", wantCode: http.StatusUnauthorized},
	})

	submit := func(t *testing.T, nr rating.NewRating) rating.Rating {
		req, rec := newRequest(http.MethodPost, "/v1/ratings", marchallObj(t, nr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var r rating.Rating
		unmarshal(t, rec, &r)
		return r
	}

	emailsvc.ClearSentMessages()
	rao := submit(t, rating.NewRating{
		Name: "Mr. Rao", Email: "Rao@Mail.com", Phone: "98450 12345", Relationship: "Parent", Rating: 5, Comment: "Wonderful teachers.",
	})
	assert.Equal(t, rating.StatusPending, rao.Status)
	assert.Equal(t, "rao@mail.com", rao.Email)
	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "rao@mail.com", sent[0].To[0].Address)

	das := submit(t, rating.NewRating{Name: "Ms. Das", Email: "das@mail.com", Phone: "98450 67890", Relationship: "Alumni", Rating: 4})

	moderate := func(t *testing.T, id, status string) {
		req, rec := newAuthRequest(http.MethodPatch, "/v1/ratings/"+id, adminToken, marchallObj(t, rating.Moderate{Status: status}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	runHTTPTests(t, app, []httpTest{
		{name: "pending ratings are not shown", path: "/v1/testimonials", wantData: marchallObj(t, emptyTestimonials)},
		{
			name: "invalid status", method: http.MethodPatch, path: "/v1/ratings/" + rao.ID, token: adminToken,
			body:     marchallObj(t, rating.Moderate{Status: "spam"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of [pending approved rejected]"}),
		},
	})

	moderate(t, rao.ID, rating.StatusApproved)
	moderate(t, das.ID, "APPROVED")

	req, rec := newRequest(http.MethodGet, "/v1/testimonials?limit=1")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ts rating.Testimonials
	unmarshal(t, rec, &ts)
	assert.Equal(t, 2, ts.Count)
	assert.Equal(t, 4.5, ts.AverageRating)
	require.Len(t, ts.Testimonials, 1)

	req, rec = newRequest(http.MethodGet, "/v1/testimonials")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshal(t, rec, &ts)
	require.Len(t, ts.Testimonials, 2)
	for _, tm := range ts.Testimonials {
		if tm.ID == das.ID {
			assert.Equal(t, "Alumni", tm.Role)
			assert.Equal(t, "Great school!", tm.Content)
		}
	}

	runHTTPTests(t, app, []httpTest{
		{name: "by status", path: "/v1/ratings?status=pending", token: adminToken, wantData: marchallList(t)},
		{name: "delete", method: http.MethodDelete, path: "/v1/ratings/" + das.ID, token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "delete unknown", method: http.MethodDelete, path: "/v1/ratings/" + das.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "rating not found"}),
		},
	})

	req, rec = newRequest(http.MethodGet, "/v1/testimonials")
	app.ServeHTTP(rec, req)
	unmarshal(t, rec, &ts)
	assert.Equal(t, 1, ts.Count)
	assert.Equal(t, float64(5), ts.AverageRating)
}
