package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/vidyalaya/core/marks"
)

type (
	markRow struct {
		ID            string      `db:"id"`
		StudentID     string      `db:"student_id"`
		ClassID       null.String `db:"class_id"`
		SubjectID     string      `db:"subject_id"`
		Subject       string      `db:"subject"`
		ExamType      string      `db:"exam_type"`
		MarksObtained float64     `db:"marks_obtained"`
		TotalMarks    float64     `db:"total_marks"`
		Remarks       string      `db:"remarks"`
		CreatedBy     null.String `db:"created_by"`
		UpdatedBy     null.String `db:"updated_by"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}

	historyRow struct {
		ID        string      `db:"id"`
		MarkID    string      `db:"mark_id"`
		StudentID string      `db:"student_id"`
		SubjectID string      `db:"subject_id"`
		ExamType  string      `db:"exam_type"`
		OldMarks  float64     `db:"old_marks"`
		NewMarks  float64     `db:"new_marks"`
		UpdatedBy null.String `db:"updated_by"`
		CreatedAt time.Time   `db:"created_at"`
	}
)

func newMarkRow(m marks.Mark) markRow {
	return markRow{
		ID:            m.ID,
		StudentID:     m.StudentID,
		ClassID:       nullString(m.ClassID),
		SubjectID:     m.SubjectID,
		Subject:       m.Subject,
		ExamType:      m.ExamType,
		MarksObtained: m.MarksObtained,
		TotalMarks:    m.TotalMarks,
		Remarks:       m.Remarks,
		CreatedBy:     nullString(m.CreatedBy),
		UpdatedBy:     nullString(m.UpdatedBy),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func (row markRow) mark() marks.Mark {
	return marks.Mark{
		ID:            row.ID,
		StudentID:     row.StudentID,
		ClassID:       row.ClassID.String,
		SubjectID:     row.SubjectID,
		Subject:       row.Subject,
		ExamType:      row.ExamType,
		MarksObtained: row.MarksObtained,
		TotalMarks:    row.TotalMarks,
		Remarks:       row.Remarks,
		CreatedBy:     row.CreatedBy.String,
		UpdatedBy:     row.UpdatedBy.String,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

type marksRepository struct {
	repo
}

var _ marks.Repository = (*marksRepository)(nil) // interface compliance check

func NewMarksRepository(db *sqlx.DB) marks.Repository {
	return &marksRepository{repo{db: db}}
}

func (r *marksRepository) QueryMarks(ctx context.Context, filter marks.Filter) ([]marks.Mark, error) {
	var w where
	if filter.StudentIDs != nil {
		w.add(`m.student_id::text = ANY(%s)`, pq.Array(filter.StudentIDs))
	}
	if filter.ExamType != "" {
		w.add(`m.exam_type = %s`, filter.ExamType)
	}
	if filter.SubjectID != "" {
		w.add(`m.subject_id::text = %s`, filter.SubjectID)
	}

	q := `SELECT m.id, m.student_id::text AS student_id, m.class_id::text AS class_id, m.subject_id::text AS subject_id,
			s.name AS subject, m.exam_type, m.marks_obtained, m.total_marks, m.remarks,
			m.created_by::text AS created_by, m.updated_by::text AS updated_by, m.created_at, m.updated_at
		FROM marks m JOIN subjects s ON s.id = m.subject_id` + w.String() + ` ORDER BY m.student_id, s.name`
	rows := make([]markRow, 0)
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	ms := make([]marks.Mark, 0, len(rows))
	for _, row := range rows {
		ms = append(ms, row.mark())
	}
	return ms, nil
}

func (r *marksRepository) SaveMarks(ctx context.Context, ms []marks.Mark, history []marks.History) ([]marks.Mark, error) {
	saved := make([]marks.Mark, 0, len(ms))
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, m := range ms {
			if m.ID == "" {
				m.ID = newID()
			}
			q := `INSERT INTO marks (id, student_id, class_id, subject_id, exam_type, marks_obtained, total_marks, remarks,
					created_by, updated_by, created_at, updated_at)
				VALUES (:id, :student_id, :class_id, :subject_id, :exam_type, :marks_obtained, :total_marks, :remarks,
					:created_by, :updated_by, :created_at, :updated_at)
				ON CONFLICT (student_id, subject_id, exam_type) DO UPDATE SET
					marks_obtained = EXCLUDED.marks_obtained,
					total_marks = EXCLUDED.total_marks,
					remarks = EXCLUDED.remarks,
					updated_by = EXCLUDED.updated_by,
					updated_at = EXCLUDED.updated_at`
			if _, err := sqlx.NamedExecContext(ctx, tx, q, newMarkRow(m)); err != nil {
				return errors.Wrap(err, "upserting mark")
			}
			saved = append(saved, m)
		}

		for _, h := range history {
			row := historyRow{
				ID:        newID(),
				MarkID:    h.MarkID,
				StudentID: h.StudentID,
				SubjectID: h.SubjectID,
				ExamType:  h.ExamType,
				OldMarks:  h.OldMarks,
				NewMarks:  h.NewMarks,
				UpdatedBy: nullString(h.UpdatedBy),
				CreatedAt: h.CreatedAt.UTC(),
			}
			q := `INSERT INTO marks_history (id, mark_id, student_id, subject_id, exam_type, old_marks, new_marks,
					updated_by, created_at)
				VALUES (:id, :mark_id, :student_id, :subject_id, :exam_type, :old_marks, :new_marks,
					:updated_by, :created_at)`
			if _, err := sqlx.NamedExecContext(ctx, tx, q, row); err != nil {
				return errors.Wrap(err, "inserting marks history")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *marksRepository) QueryHistory(ctx context.Context, studentID string) ([]marks.History, error) {
	history := make([]marks.History, 0)
	if !validID(studentID) {
		return history, nil
	}
	rows := make([]historyRow, 0)
	q := `SELECT id, mark_id::text AS mark_id, student_id::text AS student_id, subject_id::text AS subject_id,
			exam_type, old_marks, new_marks, updated_by::text AS updated_by, created_at
		FROM marks_history WHERE student_id = $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying marks history")
	}
	for _, row := range rows {
		history = append(history, marks.History{
			ID:        row.ID,
			MarkID:    row.MarkID,
			StudentID: row.StudentID,
			SubjectID: row.SubjectID,
			ExamType:  row.ExamType,
			OldMarks:  row.OldMarks,
			NewMarks:  row.NewMarks,
			UpdatedBy: row.UpdatedBy.String,
			CreatedAt: row.CreatedAt,
		})
	}
	return history, nil
}
