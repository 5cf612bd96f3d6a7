package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) QueryClassSections(_ context.Context) ([]school.ClassSection, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]school.ClassSection, 0, len(repo.db.classes))
	for _, cs := range repo.db.classes {
		classes = append(classes, cs)
	}
	sortBy(classes, []core.DBOrdering{{Field: "class_number", Ascending: true}, {Field: "section", Ascending: true}},
		map[string]func(school.ClassSection) interface{}{
			"class_number": func(cs school.ClassSection) interface{} { return int64(cs.ClassNumber) },
			"section":      func(cs school.ClassSection) interface{} { return cs.Section },
		}, core.DBOrdering{})
	return classes, nil
}

func (repo *schoolRepository) CreateClassSection(_ context.Context, cs school.ClassSection) (school.ClassSection, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.classes {
		if strings.EqualFold(existing.Name, cs.Name) {
			return school.ClassSection{}, school.ErrClassExists
		}
	}
	cs.ID = newID()
	repo.db.classes[cs.ID] = cs
	return cs, nil
}

func (repo *schoolRepository) QuerySubjects(_ context.Context) ([]school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, subj := range repo.db.subjects {
		subjects = append(subjects, subj)
	}
	sortBy(subjects, nil, map[string]func(school.Subject) interface{}{
		"name": func(s school.Subject) interface{} { return s.Name },
	}, core.DBOrdering{Field: "name", Ascending: true})
	return subjects, nil
}

func (repo *schoolRepository) GetSubjectByID(_ context.Context, id string) (school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if subj, ok := repo.db.subjects[id]; ok {
		return subj, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *schoolRepository) CreateSubject(_ context.Context, subj school.Subject) (school.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.subjects {
		if strings.EqualFold(existing.Name, subj.Name) || strings.EqualFold(existing.Code, subj.Code) {
			return school.Subject{}, school.ErrSubjectExists
		}
	}
	subj.ID = newID()
	repo.db.subjects[subj.ID] = subj
	return subj, nil
}
