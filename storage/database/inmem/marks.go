package inmemdb

import (
	"context"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/marks"
)

type marksRepository struct {
	db *DB
}

var _ marks.Repository = (*marksRepository)(nil) // interface compliance check

func NewMarksRepository(db *DB) marks.Repository {
	return &marksRepository{db: db}
}

func (repo *marksRepository) QueryMarks(_ context.Context, filter marks.Filter) ([]marks.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ms := make([]marks.Mark, 0)
	for _, m := range repo.db.marks {
		if filter.StudentIDs != nil && !contains(filter.StudentIDs, m.StudentID) {
			continue
		}
		if filter.ExamType != "" && m.ExamType != filter.ExamType {
			continue
		}
		if filter.SubjectID != "" && m.SubjectID != filter.SubjectID {
			continue
		}
		subj, ok := repo.db.subjects[m.SubjectID]
		if !ok {
			continue // inner join
		}
		m.Subject = subj.Name
		ms = append(ms, m)
	}
	sortBy(ms, []core.DBOrdering{{Field: "student_id", Ascending: true}, {Field: "subject", Ascending: true}},
		map[string]func(marks.Mark) interface{}{
			"student_id": func(m marks.Mark) interface{} { return m.StudentID },
			"subject":    func(m marks.Mark) interface{} { return m.Subject },
		}, core.DBOrdering{})
	return ms, nil
}

func (repo *marksRepository) SaveMarks(_ context.Context, ms []marks.Mark, history []marks.History) ([]marks.Mark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	saved := make([]marks.Mark, 0, len(ms))
	for _, m := range ms {
		var existing *marks.Mark
		for _, e := range repo.db.marks {
			if e.StudentID == m.StudentID && e.SubjectID == m.SubjectID && e.ExamType == m.ExamType {
				existing = &e
				break
			}
		}
		if existing != nil {
			existing.MarksObtained = m.MarksObtained
			existing.TotalMarks = m.TotalMarks
			existing.Remarks = m.Remarks
			existing.UpdatedBy = m.UpdatedBy
			existing.UpdatedAt = m.UpdatedAt
			repo.db.marks[existing.ID] = *existing
			m.ID = existing.ID
		} else {
			if m.ID == "" {
				m.ID = newID()
			}
			repo.db.marks[m.ID] = m
		}
		saved = append(saved, m)
	}
	for _, h := range history {
		h.ID = newID()
		repo.db.history = append(repo.db.history, h)
	}
	return saved, nil
}

func (repo *marksRepository) QueryHistory(_ context.Context, studentID string) ([]marks.History, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	history := make([]marks.History, 0)
	for _, h := range repo.db.history {
		if h.StudentID == studentID {
			history = append(history, h)
		}
	}
	sortBy(history, nil, map[string]func(marks.History) interface{}{
		"created_at": func(h marks.History) interface{} { return h.CreatedAt.UnixNano() },
	}, core.DBOrdering{Field: "created_at"})
	return history, nil
}
