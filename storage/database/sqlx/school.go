package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core/school"
)

const (
	classColumns   = `id, class_number, section, class_section, created_at`
	subjectColumns = `id, name, code, applicable_from_class, applicable_to_class, created_at`
)

type schoolRepository struct {
	repo
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{repo{db: db}}
}

func (r *schoolRepository) QueryClassSections(ctx context.Context) ([]school.ClassSection, error) {
	classes := make([]school.ClassSection, 0)
	q := `SELECT ` + classColumns + ` FROM classes ORDER BY class_number, section`
	if err := sqlx.SelectContext(ctx, r.db, &classes, q); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}

func (r *schoolRepository) CreateClassSection(ctx context.Context, cs school.ClassSection) (school.ClassSection, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM classes WHERE lower(class_section) = lower($1))`
	if err := sqlx.GetContext(ctx, r.db, &exists, q, cs.Name); err != nil {
		return school.ClassSection{}, errors.Wrap(err, "checking class uniqueness")
	}
	if exists {
		return school.ClassSection{}, school.ErrClassExists
	}

	cs.ID = newID()
	q = `INSERT INTO classes (` + classColumns + `) VALUES (:id, :class_number, :section, :class_section, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, cs); err != nil {
		return school.ClassSection{}, errors.Wrap(err, "inserting class")
	}
	return cs, nil
}

func (r *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	subjects := make([]school.Subject, 0)
	if err := sqlx.SelectContext(ctx, r.db, &subjects, `SELECT `+subjectColumns+` FROM subjects ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (r *schoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	if !validID(id) {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	var subj school.Subject
	if err := sqlx.GetContext(ctx, r.db, &subj, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id); err != nil {
		return school.Subject{}, trapNoRowsErr(err, school.ErrSubjectNotFound, "finding subject")
	}
	return subj, nil
}

func (r *schoolRepository) CreateSubject(ctx context.Context, subj school.Subject) (school.Subject, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM subjects WHERE lower(name) = lower($1) OR lower(code) = lower($2))`
	if err := sqlx.GetContext(ctx, r.db, &exists, q, subj.Name, subj.Code); err != nil {
		return school.Subject{}, errors.Wrap(err, "checking subject uniqueness")
	}
	if exists {
		return school.Subject{}, school.ErrSubjectExists
	}

	subj.ID = newID()
	q = `INSERT INTO subjects (` + subjectColumns + `)
		VALUES (:id, :name, :code, :applicable_from_class, :applicable_to_class, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, subj); err != nil {
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return subj, nil
}
