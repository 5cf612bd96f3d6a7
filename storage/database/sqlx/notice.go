package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/vidyalaya/core/notice"
)

const noticeColumns = `id, title, content, date::text AS date, priority, target_audience, created_by::text AS created_by,
	is_active, created_at, updated_at`

type noticeRow struct {
	ID             string      `db:"id"`
	Title          string      `db:"title"`
	Content        string      `db:"content"`
	Date           string      `db:"date"`
	Priority       string      `db:"priority"`
	TargetAudience string      `db:"target_audience"`
	CreatedBy      null.String `db:"created_by"`
	IsActive       bool        `db:"is_active"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func newNoticeRow(n notice.Notice) noticeRow {
	return noticeRow{
		ID:             n.ID,
		Title:          n.Title,
		Content:        n.Content,
		Date:           n.Date,
		Priority:       n.Priority,
		TargetAudience: n.TargetAudience,
		CreatedBy:      nullString(n.CreatedBy),
		IsActive:       n.IsActive,
		CreatedAt:      n.CreatedAt.UTC(),
		UpdatedAt:      n.UpdatedAt.UTC(),
	}
}

func (row noticeRow) notice() notice.Notice {
	return notice.Notice{
		ID:             row.ID,
		Title:          row.Title,
		Content:        row.Content,
		Date:           row.Date,
		Priority:       row.Priority,
		TargetAudience: row.TargetAudience,
		CreatedBy:      row.CreatedBy.String,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

type noticeRepository struct {
	repo
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *sqlx.DB) notice.Repository {
	return &noticeRepository{repo{db: db}}
}

func (r *noticeRepository) QueryNotices(ctx context.Context, activeOnly bool) ([]notice.Notice, error) {
	q := `SELECT ` + noticeColumns + ` FROM notices`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY date DESC, created_at DESC`

	rows := make([]noticeRow, 0)
	if err := sqlx.SelectContext(ctx, r.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying notices")
	}
	notices := make([]notice.Notice, 0, len(rows))
	for _, row := range rows {
		notices = append(notices, row.notice())
	}
	return notices, nil
}

func (r *noticeRepository) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	if !validID(id) {
		return notice.Notice{}, notice.ErrNotFound
	}
	var row noticeRow
	if err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+noticeColumns+` FROM notices WHERE id = $1`, id); err != nil {
		return notice.Notice{}, trapNoRowsErr(err, notice.ErrNotFound, "finding notice")
	}
	return row.notice(), nil
}

func (r *noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	n.ID = newID()
	q := `INSERT INTO notices (id, title, content, date, priority, target_audience, created_by, is_active, created_at, updated_at)
		VALUES (:id, :title, :content, :date, :priority, :target_audience, :created_by, :is_active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, newNoticeRow(n)); err != nil {
		return notice.Notice{}, errors.Wrap(err, "inserting notice")
	}
	return n, nil
}

func (r *noticeRepository) UpdateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	q := `UPDATE notices SET title = :title, content = :content, date = :date, priority = :priority,
			target_audience = :target_audience, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, q, newNoticeRow(n))
	if err := checkAffected(res, err, notice.ErrNotFound, "updating notice"); err != nil {
		return notice.Notice{}, err
	}
	return n, nil
}

func (r *noticeRepository) DeleteNotice(ctx context.Context, id string) error {
	if !validID(id) {
		return notice.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	return checkAffected(res, err, notice.ErrNotFound, "deleting notice")
}
