package roster

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

type (
	Directory interface {
		QueryStudents(ctx context.Context, filter user.StudentFilter, ordering []core.DBOrdering) ([]user.Student, error)
		Scope(ctx context.Context, p user.Principal) (user.Scope, error)
	}

	// PercentageSource computes student percentages over the marks of an exam and/or a subject.
	PercentageSource interface {
		Percentages(ctx context.Context, studentIDs []string, exam, subject string) (map[string]float64, error)
	}

	Service interface {
		// Students lists the students visible to the actor.
		Students(ctx context.Context, actor user.Principal, f Filter, s Sort) ([]Entry, error)
		// Ranking ranks the students visible to the actor, by latest percentage (desc) unless sorted otherwise.
		Ranking(ctx context.Context, actor user.Principal, f Filter, s *Sort) ([]Entry, error)
	}

	service struct {
		dir   Directory
		marks PercentageSource
	}
)

var _ Service = (*service)(nil)

func NewService(dir Directory, marks PercentageSource) Service {
	return &service{dir: dir, marks: marks}
}

var errPermissionDenied = core.NewPermissionError("Only teachers and admins can view students")

func (svc *service) visibleStudents(ctx context.Context, actor user.Principal, f Filter, status string) ([]user.Student, error) {
	if !actor.IsStaff() {
		return nil, errPermissionDenied
	}
	scope, err := svc.dir.Scope(ctx, actor)
	if err != nil {
		return nil, errors.Wrap(err, "getting scope")
	}

	filter := user.StudentFilter{Status: status, ClassSection: f.ClassSection}
	if !scope.All {
		filter.ClassSections = scope.ClassSections()
		if len(filter.ClassSections) == 0 {
			return []user.Student{}, nil
		}
	}
	students, err := svc.dir.QueryStudents(ctx, filter, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (svc *service) list(ctx context.Context, actor user.Principal, f Filter, s Sort, status string) ([]Entry, error) {
	students, err := svc.visibleStudents(ctx, actor, f, status)
	if err != nil {
		return nil, err
	}

	var pcts map[string]float64
	if f.ByMarks() && len(students) > 0 {
		ids := make([]string, 0, len(students))
		for _, st := range students {
			ids = append(ids, st.ID)
		}
		if pcts, err = svc.marks.Percentages(ctx, ids, f.Exam, f.Subject); err != nil {
			return nil, err
		}
	}
	return Apply(students, pcts, f, s), nil
}

func (svc *service) Students(ctx context.Context, actor user.Principal, f Filter, s Sort) ([]Entry, error) {
	return svc.list(ctx, actor, f, s, "")
}

func (svc *service) Ranking(ctx context.Context, actor user.Principal, f Filter, s *Sort) ([]Entry, error) {
	srt := Sort{Field: SortLatest, Desc: true}
	if s != nil {
		srt = *s
	}
	entries, err := svc.list(ctx, actor, f, srt, user.StatusActive)
	if err != nil {
		return nil, err
	}
	return Rank(entries), nil
}
