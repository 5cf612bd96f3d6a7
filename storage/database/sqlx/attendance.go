package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/vidyalaya/core/attendance"
)

const attendanceColumns = `id, student_id::text AS student_id, class_section, date::text AS date, status, remarks,
	marked_by::text AS marked_by, created_at, updated_at`

type attendanceRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	ClassSection string      `db:"class_section"`
	Date         string      `db:"date"`
	Status       string      `db:"status"`
	Remarks      string      `db:"remarks"`
	MarkedBy     null.String `db:"marked_by"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (row attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:           row.ID,
		StudentID:    row.StudentID,
		ClassSection: row.ClassSection,
		Date:         row.Date,
		Status:       row.Status,
		Remarks:      row.Remarks,
		MarkedBy:     row.MarkedBy.String,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type attendanceRepository struct {
	repo
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{repo{db: db}}
}

func (r *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	var w where
	if filter.ClassSection != "" {
		w.add(`class_section = %s`, filter.ClassSection)
	}
	if filter.StudentIDs != nil {
		w.add(`student_id::text = ANY(%s)`, pq.Array(filter.StudentIDs))
	}
	if filter.From != "" {
		w.add(`date >= %s::date`, filter.From)
	}
	if filter.To != "" {
		w.add(`date <= %s::date`, filter.To)
	}

	rows := make([]attendanceRow, 0)
	q := `SELECT ` + attendanceColumns + ` FROM attendance` + w.String() + ` ORDER BY date DESC, student_id`
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

func (r *attendanceRepository) UpsertRecords(ctx context.Context, records []attendance.Record) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			row := attendanceRow{
				ID:           newID(),
				StudentID:    rec.StudentID,
				ClassSection: rec.ClassSection,
				Date:         rec.Date,
				Status:       rec.Status,
				Remarks:      rec.Remarks,
				MarkedBy:     nullString(rec.MarkedBy),
				CreatedAt:    rec.CreatedAt.UTC(),
				UpdatedAt:    rec.UpdatedAt.UTC(),
			}
			q := `INSERT INTO attendance (id, student_id, class_section, date, status, remarks, marked_by, created_at, updated_at)
				VALUES (:id, :student_id, :class_section, :date, :status, :remarks, :marked_by, :created_at, :updated_at)
				ON CONFLICT (student_id, date) DO UPDATE SET
					class_section = EXCLUDED.class_section,
					status = EXCLUDED.status,
					remarks = EXCLUDED.remarks,
					marked_by = EXCLUDED.marked_by,
					updated_at = EXCLUDED.updated_at`
			if _, err := sqlx.NamedExecContext(ctx, tx, q, row); err != nil {
				return errors.Wrap(err, "upserting attendance")
			}
		}
		return nil
	})
}
