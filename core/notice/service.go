package notice

import (
	"context"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

type (
	Repository interface {
		QueryNotices(ctx context.Context, activeOnly bool) ([]Notice, error)
		GetNoticeByID(ctx context.Context, id string) (Notice, error)
		CreateNotice(ctx context.Context, n Notice) (Notice, error)
		UpdateNotice(ctx context.Context, n Notice) (Notice, error)
		DeleteNotice(ctx context.Context, id string) error
	}

	// Directory lists the people a notice may be sent to.
	Directory interface {
		QueryStudents(ctx context.Context, filter user.StudentFilter, ordering []core.DBOrdering) ([]user.Student, error)
		QueryTeachers(ctx context.Context, filter user.TeacherFilter, ordering []core.DBOrdering) ([]user.Teacher, error)
	}

	Service interface {
		// Create publishes a notice and emails its audience.
		Create(ctx context.Context, actor user.Principal, nn NewNotice) (Notice, error)
		// Active lists active notices, newest first.
		Active(ctx context.Context) ([]Notice, error)
		All(ctx context.Context) ([]Notice, error)
		Toggle(ctx context.Context, id string) (Notice, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo   Repository
		dir    Directory
		mailer core.EmailService
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, dir Directory, mailer core.EmailService, logger core.Logger) Service {
	return &service{repo: repo, dir: dir, mailer: mailer, logger: logger}
}

func (svc *service) Create(ctx context.Context, actor user.Principal, nn NewNotice) (Notice, error) {
	now := core.NowFunc().UTC()
	n := Notice{
		Title:          nn.Title,
		Content:        nn.Content,
		Date:           nn.Date,
		Priority:       nn.Priority,
		TargetAudience: nn.TargetAudience,
		CreatedBy:      actor.ID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if n.Date == "" {
		n.Date = core.Today()
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.TargetAudience == "" {
		n.TargetAudience = AudienceAll
	}

	n, err := svc.repo.CreateNotice(ctx, n)
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating notice")
	}

	recipients, err := svc.recipients(ctx, n.TargetAudience)
	if err != nil {
		// the notice is published anyway
		svc.logger.Error(err.Error(), err, actor)
		return n, nil
	}
	if len(recipients) > 0 {
		svc.mailer.SendMessages(&core.EmailMessage{
			Bcc:          recipients,
			Subject:      "Notice: " + n.Title,
			TemplateName: "notice",
			TemplateData: map[string]interface{}{"Notice": n},
		})
	}
	return n, nil
}

func (svc *service) recipients(ctx context.Context, audience string) ([]mail.Address, error) {
	addrs := make([]mail.Address, 0)
	seen := make(map[string]bool)
	add := func(name, email string) {
		if email != "" && !seen[email] {
			seen[email] = true
			addrs = append(addrs, mail.Address{Name: name, Address: email})
		}
	}

	if audience != AudienceTeachers {
		students, err := svc.dir.QueryStudents(ctx, user.StudentFilter{Status: user.StatusActive}, nil)
		if err != nil {
			return nil, errors.Wrap(err, "querying students")
		}
		for _, st := range students {
			add(st.Name, st.Email)
		}
	}
	if audience == AudienceAll || audience == AudienceTeachers {
		teachers, err := svc.dir.QueryTeachers(ctx, user.TeacherFilter{Status: user.StatusActive}, nil)
		if err != nil {
			return nil, errors.Wrap(err, "querying teachers")
		}
		for _, t := range teachers {
			add(t.Name, t.Email)
		}
	}
	return addrs, nil
}

func (svc *service) Active(ctx context.Context) ([]Notice, error) {
	return svc.repo.QueryNotices(ctx, true)
}

func (svc *service) All(ctx context.Context) ([]Notice, error) {
	return svc.repo.QueryNotices(ctx, false)
}

func (svc *service) Toggle(ctx context.Context, id string) (Notice, error) {
	n, err := svc.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return Notice{}, err
	}
	n.IsActive = !n.IsActive
	n.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateNotice(ctx, n)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteNotice(ctx, id)
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Content = core.CleanString(nn.Content)
	nn.Date = core.CleanString(nn.Date)
	nn.Priority = core.CleanString(nn.Priority, true)
	nn.TargetAudience = core.CleanString(nn.TargetAudience, true)
	return validate.Struct(nn)
}
