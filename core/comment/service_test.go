package comment_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/comment"
	"github.com/trezcool/vidyalaya/core/user"
	logsvc "github.com/trezcool/vidyalaya/services/logger"
	inmemdb "github.com/trezcool/vidyalaya/storage/database/inmem"
)

type fixtures struct {
	svc     comment.Service
	repo    comment.Repository
	sharma  user.Teacher
	iyer    user.Teacher
	asha    user.Student
	ravi    user.Student
	adminID string
}

func setup(t *testing.T) fixtures {
	ctx := context.Background()
	now := time.Now().UTC()
	conf := &core.Config{AppName: "Vidyalaya", Env: "TEST", TestMode: true}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, logger)
	f := fixtures{repo: inmemdb.NewCommentRepository(db)}
	f.svc = comment.NewService(f.repo, usrSvc)

	var err error
	f.sharma, err = usrRepo.CreateTeacher(ctx, user.Teacher{
		TeacherID: "T001", Name: "Mr. Sharma", Status: user.StatusActive, CreatedAt: now, UpdatedAt: now,
		Assignments: []user.Assignment{{ClassSection: "10-A", Subject: "Maths"}},
	})
	require.NoError(t, err)
	f.iyer, err = usrRepo.CreateTeacher(ctx, user.Teacher{
		TeacherID: "T002", Name: "Ms. Iyer", Status: user.StatusActive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	f.asha, err = usrRepo.CreateStudent(ctx, user.Student{
		AdmissionID: "A001", Name: "Asha Rao", ClassName: "10", Section: "A", ClassSection: "10-A",
		Status: user.StatusActive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	f.ravi, err = usrRepo.CreateStudent(ctx, user.Student{
		AdmissionID: "A002", Name: "Ravi Kumar", ClassName: "9", Section: "B", ClassSection: "9-B",
		Status: user.StatusActive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	adm, err := usrSvc.EnsureAdmin(ctx, "head@school.in", "Head", "Kite#run22")
	require.NoError(t, err)
	f.adminID = adm.ID
	return f
}

func TestService_Add(t *testing.T) {
	f := setup(t)
	sharma := f.sharma.Principal()

	tests := []struct {
		name    string
		actor   user.Principal
		nc      comment.NewComment
		wantErr error
	}{
		{name: "students cannot comment", actor: f.asha.Principal(), nc: comment.NewComment{StudentID: f.asha.ID, Text: "Hi"}, wantErr: comment.ErrNotCommenter},
		{name: "blank comment", actor: sharma, nc: comment.NewComment{StudentID: f.asha.ID, Text: "   "}, wantErr: comment.ErrEmptyComment},
		{name: "student outside the teacher's classes", actor: sharma, nc: comment.NewComment{StudentID: f.ravi.ID, Text: "Hi"}, wantErr: comment.ErrPermissionDenied},
		{name: "teacher without assignments", actor: f.iyer.Principal(), nc: comment.NewComment{StudentID: f.asha.ID, Text: "Hi"}, wantErr: comment.ErrPermissionDenied},
		{name: "unknown student", actor: sharma, nc: comment.NewComment{StudentID: "ghost", Text: "Hi"}, wantErr: user.ErrStudentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Add(context.Background(), tt.actor, tt.nc)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	t.Run("teacher of the class", func(t *testing.T) {
		c, err := f.svc.Add(context.Background(), sharma, comment.NewComment{StudentID: f.asha.ID, Text: "  Great progress in Maths.  "})
		require.NoError(t, err)
		assert.Equal(t, "Great progress in Maths.", c.Text)
		assert.Equal(t, user.RoleTeacher, c.CommenterRole)
		assert.Equal(t, "Mr. Sharma", c.CommenterName)
	})
}

func TestService_StudentComments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, c := range []comment.Comment{
		{StudentID: f.asha.ID, Text: "Old news.", CommenterRole: user.RoleTeacher, CommentedBy: f.sharma.ID, CreatedAt: now.AddDate(0, 0, -comment.RecentDays-1)},
		{StudentID: f.asha.ID, Text: "Keep it up.", CommenterRole: user.RoleTeacher, CommentedBy: f.sharma.ID, CreatedAt: now.Add(-2 * time.Hour)},
		{StudentID: f.asha.ID, Text: "Well behaved.", CommenterRole: user.RoleAdmin, CommentedBy: f.adminID, CreatedAt: now.Add(-time.Hour)},
		{StudentID: f.asha.ID, Text: "Left the school.", CommenterRole: user.RoleTeacher, CommentedBy: "gone", CreatedAt: now.Add(-3 * time.Hour)},
	} {
		_, err := f.repo.CreateComment(ctx, c)
		require.NoError(t, err)
	}

	comments, err := f.svc.StudentComments(ctx, f.asha.Principal(), f.asha.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "Head", comments[0].CommenterName)
	assert.Equal(t, "Mr. Sharma", comments[1].CommenterName)
	assert.Equal(t, "Teacher", comments[2].CommenterName)

	_, err = f.svc.StudentComments(ctx, f.ravi.Principal(), f.asha.ID)
	assert.Equal(t, comment.ErrPermissionDenied, err)
	_, err = f.svc.StudentComments(ctx, f.sharma.Principal(), f.ravi.ID)
	assert.Equal(t, comment.ErrPermissionDenied, err)
}

func TestService_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Add(ctx, f.sharma.Principal(), comment.NewComment{StudentID: f.asha.ID, Text: "Needs to revise fractions."})
	require.NoError(t, err)

	assert.Equal(t, comment.ErrNotAuthor, f.svc.Delete(ctx, user.Principal{ID: f.adminID, Role: user.RoleAdmin}, c.ID))
	assert.NoError(t, f.svc.Delete(ctx, f.sharma.Principal(), c.ID))
	assert.Equal(t, comment.ErrNotFound, f.svc.Delete(ctx, f.sharma.Principal(), c.ID))
}

func TestService_Students(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	students, err := f.svc.Students(ctx, f.sharma.Principal(), "")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, f.asha.ID, students[0].ID)

	students, err = f.svc.Students(ctx, f.iyer.Principal(), "")
	require.NoError(t, err)
	assert.Empty(t, students)

	students, err = f.svc.Students(ctx, user.Principal{ID: f.adminID, Role: user.RoleAdmin}, "ravi")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, f.ravi.ID, students[0].ID)

	_, err = f.svc.Students(ctx, f.asha.Principal(), "")
	assert.Equal(t, comment.ErrNotCommenter, err)
}
