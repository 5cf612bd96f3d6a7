package comment

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/roster"
	"github.com/trezcool/vidyalaya/core/user"
)

type (
	Repository interface {
		// QueryStudentComments returns the comments on a student created since `since`.
		QueryStudentComments(ctx context.Context, studentID string, since time.Time) ([]Comment, error)
		GetCommentByID(ctx context.Context, id string) (Comment, error)
		CreateComment(ctx context.Context, c Comment) (Comment, error)
		DeleteComment(ctx context.Context, id string) error
	}

	Directory interface {
		GetStudent(ctx context.Context, id string) (user.Student, error)
		QueryStudents(ctx context.Context, filter user.StudentFilter, ordering []core.DBOrdering) ([]user.Student, error)
		Scope(ctx context.Context, p user.Principal) (user.Scope, error)
		ResolveNames(ctx context.Context, ids []string) (map[string]string, error)
	}

	Service interface {
		Add(ctx context.Context, actor user.Principal, nc NewComment) (Comment, error)
		// StudentComments lists the recent comments on a student, newest first.
		StudentComments(ctx context.Context, actor user.Principal, studentID string) ([]Comment, error)
		Delete(ctx context.Context, actor user.Principal, id string) error
		// Students lists the students the actor may comment on.
		Students(ctx context.Context, actor user.Principal, search string) ([]user.Student, error)
	}

	service struct {
		repo Repository
		dir  Directory
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, dir Directory) Service {
	return &service{repo: repo, dir: dir}
}

func (svc *service) canAccess(ctx context.Context, actor user.Principal, studentID string) error {
	st, err := svc.dir.GetStudent(ctx, studentID)
	if err != nil {
		return err
	}
	scope, err := svc.dir.Scope(ctx, actor)
	if err != nil {
		return errors.Wrap(err, "getting scope")
	}
	if !scope.CanAccessClassSection(st.ClassSection) {
		return ErrPermissionDenied
	}
	return nil
}

func (svc *service) Add(ctx context.Context, actor user.Principal, nc NewComment) (Comment, error) {
	if !actor.IsStaff() {
		return Comment{}, ErrNotCommenter
	}
	text := core.CleanString(nc.Text)
	if text == "" {
		return Comment{}, ErrEmptyComment
	}
	if err := svc.canAccess(ctx, actor, nc.StudentID); err != nil {
		return Comment{}, err
	}

	c, err := svc.repo.CreateComment(ctx, Comment{
		StudentID:     nc.StudentID,
		Text:          text,
		CommenterRole: actor.Role,
		CommentedBy:   actor.ID,
		CreatedAt:     core.NowFunc().UTC(),
	})
	if err != nil {
		return Comment{}, errors.Wrap(err, "creating comment")
	}
	c.CommenterName = actor.Name
	return c, nil
}

func (svc *service) StudentComments(ctx context.Context, actor user.Principal, studentID string) ([]Comment, error) {
	switch {
	case actor.IsStudent():
		if actor.ID != studentID {
			return nil, ErrPermissionDenied
		}
	case actor.IsStaff():
		if err := svc.canAccess(ctx, actor, studentID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrPermissionDenied
	}

	since := core.NowFunc().UTC().AddDate(0, 0, -RecentDays)
	comments, err := svc.repo.QueryStudentComments(ctx, studentID, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })

	ids := make([]string, 0, len(comments))
	seen := make(map[string]bool)
	for _, c := range comments {
		if c.CommentedBy != "" && !seen[c.CommentedBy] {
			seen[c.CommentedBy] = true
			ids = append(ids, c.CommentedBy)
		}
	}
	names, err := svc.dir.ResolveNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, c := range comments {
		if name, ok := names[c.CommentedBy]; ok {
			comments[i].CommenterName = name
		} else if c.CommenterRole == user.RoleAdmin {
			comments[i].CommenterName = "Admin"
		} else {
			comments[i].CommenterName = "Teacher"
		}
	}
	return comments, nil
}

func (svc *service) Delete(ctx context.Context, actor user.Principal, id string) error {
	c, err := svc.repo.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if c.CommentedBy != actor.ID {
		return ErrNotAuthor
	}
	return svc.repo.DeleteComment(ctx, id)
}

func (svc *service) Students(ctx context.Context, actor user.Principal, search string) ([]user.Student, error) {
	if !actor.IsStaff() {
		return nil, ErrNotCommenter
	}
	scope, err := svc.dir.Scope(ctx, actor)
	if err != nil {
		return nil, errors.Wrap(err, "getting scope")
	}
	filter := user.StudentFilter{Status: user.StatusActive}
	if !scope.All {
		if filter.ClassSections = scope.ClassSections(); len(filter.ClassSections) == 0 {
			return []user.Student{}, nil
		}
	}
	students, err := svc.dir.QueryStudents(ctx, filter, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	out := make([]user.Student, 0, len(students))
	for _, st := range students {
		if roster.Matches(st, roster.Filter{Search: search}) {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.StudentID = core.CleanString(nc.StudentID)
	return validate.Struct(nc)
}
