package notice_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/notice"
	"github.com/trezcool/vidyalaya/core/user"
	logsvc "github.com/trezcool/vidyalaya/services/logger"
	inmemdb "github.com/trezcool/vidyalaya/storage/database/inmem"
)

type mailerMock struct {
	sent []*core.EmailMessage
}

func (m *mailerMock) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

// offlineDirectory cannot list anyone.
type offlineDirectory struct{}

func (offlineDirectory) QueryStudents(context.Context, user.StudentFilter, []core.DBOrdering) ([]user.Student, error) {
	return nil, errors.New("connection refused")
}

func (offlineDirectory) QueryTeachers(context.Context, user.TeacherFilter, []core.DBOrdering) ([]user.Teacher, error) {
	return nil, errors.New("connection refused")
}

func newLogger() core.Logger {
	conf := &core.Config{AppName: "Vidyalaya", Env: "TEST", TestMode: true}
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func seedDirectory(t *testing.T, repo user.Repository) {
	ctx := context.Background()
	now := time.Now().UTC()
	students := []user.Student{
		{AdmissionID: "A001", Name: "Asha Rao", Email: "asha@mail.com", ClassSection: "10-A", Status: user.StatusActive},
		{AdmissionID: "A002", Name: "Ravi Kumar", ClassSection: "10-A", Status: user.StatusActive},
		{AdmissionID: "A003", Name: "Kiran Das", Email: "kiran@mail.com", ClassSection: "9-B", Status: user.StatusSuspended},
	}
	for _, st := range students {
		st.CreatedAt, st.UpdatedAt = now, now
		_, err := repo.CreateStudent(ctx, st)
		require.NoError(t, err)
	}
	_, err := repo.CreateTeacher(ctx, user.Teacher{
		TeacherID: "T001", Name: "Mr. Sharma", Email: "sharma@school.in", Status: user.StatusActive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
}

func TestService_Create(t *testing.T) {
	admin := user.Principal{ID: "adm1", Role: user.RoleAdmin, Name: "Head"}
	asha := mail.Address{Name: "Asha Rao", Address: "asha@mail.com"}
	sharma := mail.Address{Name: "Mr. Sharma", Address: "sharma@school.in"}

	tests := []struct {
		name     string
		audience string
		wantBcc  []mail.Address
	}{
		{name: "everyone by default", wantBcc: []mail.Address{asha, sharma}},
		{name: "students", audience: notice.AudienceStudents, wantBcc: []mail.Address{asha}},
		{name: "parents", audience: notice.AudienceParents, wantBcc: []mail.Address{asha}},
		{name: "teachers", audience: notice.AudienceTeachers, wantBcc: []mail.Address{sharma}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := inmemdb.Open()
			usrRepo := inmemdb.NewUserRepository(db)
			seedDirectory(t, usrRepo)
			mailer := new(mailerMock)
			svc := notice.NewService(inmemdb.NewNoticeRepository(db), usrRepo, mailer, newLogger())

			n, err := svc.Create(context.Background(), admin, notice.NewNotice{
				Title: "Sports Day", Content: "Sports day on Friday.", TargetAudience: tt.audience,
			})
			require.NoError(t, err)
			assert.True(t, n.IsActive)
			assert.Equal(t, admin.ID, n.CreatedBy)
			assert.Equal(t, core.Today(), n.Date)
			assert.Equal(t, notice.PriorityMedium, n.Priority)

			require.Len(t, mailer.sent, 1)
			msg := mailer.sent[0]
			assert.Empty(t, msg.To)
			assert.ElementsMatch(t, tt.wantBcc, msg.Bcc)
			assert.Equal(t, "Notice: Sports Day", msg.Subject)
		})
	}

	t.Run("published when the audience cannot be listed", func(t *testing.T) {
		repo := inmemdb.NewNoticeRepository(inmemdb.Open())
		mailer := new(mailerMock)
		svc := notice.NewService(repo, offlineDirectory{}, mailer, newLogger())

		n, err := svc.Create(context.Background(), admin, notice.NewNotice{Title: "Holiday", Content: "School closed.", Priority: notice.PriorityHigh})
		require.NoError(t, err)
		assert.Equal(t, notice.AudienceAll, n.TargetAudience)
		assert.Empty(t, mailer.sent)

		active, err := svc.Active(context.Background())
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, n.ID, active[0].ID)
	})
}

func TestService_Toggle(t *testing.T) {
	ctx := context.Background()
	svc := notice.NewService(inmemdb.NewNoticeRepository(inmemdb.Open()), offlineDirectory{}, new(mailerMock), newLogger())

	n, err := svc.Create(ctx, user.Principal{ID: "adm1", Role: user.RoleAdmin}, notice.NewNotice{Title: "Exams", Content: "PA1 starts Monday."})
	require.NoError(t, err)

	n, err = svc.Toggle(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, n.IsActive)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.Toggle(ctx, "nope")
	assert.Equal(t, notice.ErrNotFound, err)
	assert.NoError(t, svc.Delete(ctx, n.ID))
	assert.Equal(t, notice.ErrNotFound, svc.Delete(ctx, n.ID))
}
