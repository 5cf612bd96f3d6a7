package inmemdb

import (
	"context"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func attendanceKey(studentID, date string) string {
	return studentID + "|" + date
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if filter.ClassSection != "" && rec.ClassSection != filter.ClassSection {
			continue
		}
		if filter.StudentIDs != nil && !contains(filter.StudentIDs, rec.StudentID) {
			continue
		}
		// dates are YYYY-MM-DD, so they compare lexically
		if filter.From != "" && rec.Date < filter.From {
			continue
		}
		if filter.To != "" && rec.Date > filter.To {
			continue
		}
		records = append(records, rec)
	}
	sortBy(records, []core.DBOrdering{{Field: "date"}, {Field: "student_id", Ascending: true}},
		map[string]func(attendance.Record) interface{}{
			"date":       func(r attendance.Record) interface{} { return r.Date },
			"student_id": func(r attendance.Record) interface{} { return r.StudentID },
		}, core.DBOrdering{})
	return records, nil
}

func (repo *attendanceRepository) UpsertRecords(_ context.Context, records []attendance.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rec := range records {
		key := attendanceKey(rec.StudentID, rec.Date)
		if existing, ok := repo.db.attendance[key]; ok {
			existing.ClassSection = rec.ClassSection
			existing.Status = rec.Status
			existing.Remarks = rec.Remarks
			existing.MarkedBy = rec.MarkedBy
			existing.UpdatedAt = rec.UpdatedAt
			repo.db.attendance[key] = existing
			continue
		}
		rec.ID = newID()
		repo.db.attendance[key] = rec
	}
	return nil
}
