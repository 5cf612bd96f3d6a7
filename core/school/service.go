package school

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
)

type (
	Repository interface {
		QueryClassSections(ctx context.Context) ([]ClassSection, error)
		CreateClassSection(ctx context.Context, cs ClassSection) (ClassSection, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
	}

	Service interface {
		ClassSections(ctx context.Context) ([]ClassSection, error)
		CreateClassSection(ctx context.Context, nc NewClassSection) (ClassSection, error)
		// FindClassBySection resolves a free-form class-section to a stored class.
		FindClassBySection(ctx context.Context, raw string) (ClassSection, error)
		// Subjects returns the subjects applicable to class `classNumber` (all subjects when 0).
		Subjects(ctx context.Context, classNumber int) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) ClassSections(ctx context.Context) ([]ClassSection, error) {
	classes, err := svc.repo.QueryClassSections(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying class-sections")
	}
	sort.SliceStable(classes, func(i, j int) bool {
		if classes[i].ClassNumber != classes[j].ClassNumber {
			return classes[i].ClassNumber < classes[j].ClassNumber
		}
		return classes[i].Section < classes[j].Section
	})
	return classes, nil
}

func (svc *service) CreateClassSection(ctx context.Context, nc NewClassSection) (ClassSection, error) {
	n, _ := ParseClassNumber(nc.ClassName)
	section := strings.ToUpper(nc.Section)
	cs, err := svc.repo.CreateClassSection(ctx, ClassSection{
		ClassNumber: n,
		Section:     section,
		Name:        ClassSectionName(nc.ClassName, section),
		CreatedAt:   core.NowFunc().UTC(),
	})
	if err != nil {
		if err == ErrClassExists {
			return ClassSection{}, core.NewFieldError("class_section", err.Error())
		}
		return ClassSection{}, errors.Wrap(err, "creating class-section")
	}
	return cs, nil
}

func (svc *service) FindClassBySection(ctx context.Context, raw string) (ClassSection, error) {
	classes, err := svc.repo.QueryClassSections(ctx)
	if err != nil {
		return ClassSection{}, errors.Wrap(err, "querying class-sections")
	}
	if cs, ok := MatchClassSection(classes, raw); ok {
		return cs, nil
	}
	return ClassSection{}, ErrClassNotFound
}

func (svc *service) Subjects(ctx context.Context, classNumber int) ([]Subject, error) {
	all, err := svc.repo.QuerySubjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]Subject, 0, len(all))
	for _, s := range all {
		if s.AppliesTo(classNumber) {
			subjects = append(subjects, s)
		}
	}
	sort.SliceStable(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	from, to := ns.ApplicableFromClass, ns.ApplicableToClass
	if from == 0 {
		from = MinClass
	}
	if to == 0 {
		to = MaxClass
	}
	subj, err := svc.repo.CreateSubject(ctx, Subject{
		Name:                ns.Name,
		Code:                ns.Code,
		ApplicableFromClass: from,
		ApplicableToClass:   to,
		CreatedAt:           core.NowFunc().UTC(),
	})
	if err != nil {
		if err == ErrSubjectExists {
			return Subject{}, core.NewFieldError("code", err.Error())
		}
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	return subj, nil
}

func (nc *NewClassSection) Validate(validate *validator.Validate) error {
	nc.ClassName = core.CleanString(nc.ClassName)
	nc.Section = core.CleanString(nc.Section)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	if n, ok := ParseClassNumber(nc.ClassName); !ok || n < MinClass || n > MaxClass {
		return core.NewFieldError("class_name", "class must be between 1 and 12")
	}
	return nil
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	return validate.Struct(ns)
}
