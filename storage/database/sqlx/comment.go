package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core/comment"
)

const commentColumns = `id, student_id::text AS student_id, comment, commenter_role, commented_by::text AS commented_by, created_at`

type commentRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	Text          string    `db:"comment"`
	CommenterRole string    `db:"commenter_role"`
	CommentedBy   string    `db:"commented_by"`
	CreatedAt     time.Time `db:"created_at"`
}

func (row commentRow) comment() comment.Comment {
	return comment.Comment{
		ID:            row.ID,
		StudentID:     row.StudentID,
		Text:          row.Text,
		CommenterRole: row.CommenterRole,
		CommentedBy:   row.CommentedBy,
		CreatedAt:     row.CreatedAt,
	}
}

type commentRepository struct {
	repo
}

var _ comment.Repository = (*commentRepository)(nil) // interface compliance check

func NewCommentRepository(db *sqlx.DB) comment.Repository {
	return &commentRepository{repo{db: db}}
}

func (r *commentRepository) QueryStudentComments(ctx context.Context, studentID string, since time.Time) ([]comment.Comment, error) {
	comments := make([]comment.Comment, 0)
	if !validID(studentID) {
		return comments, nil
	}
	rows := make([]commentRow, 0)
	q := `SELECT ` + commentColumns + ` FROM student_comments WHERE student_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, studentID, since.UTC()); err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	for _, row := range rows {
		comments = append(comments, row.comment())
	}
	return comments, nil
}

func (r *commentRepository) GetCommentByID(ctx context.Context, id string) (comment.Comment, error) {
	if !validID(id) {
		return comment.Comment{}, comment.ErrNotFound
	}
	var row commentRow
	if err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+commentColumns+` FROM student_comments WHERE id = $1`, id); err != nil {
		return comment.Comment{}, trapNoRowsErr(err, comment.ErrNotFound, "finding comment")
	}
	return row.comment(), nil
}

func (r *commentRepository) CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	c.ID = newID()
	row := commentRow{
		ID:            c.ID,
		StudentID:     c.StudentID,
		Text:          c.Text,
		CommenterRole: c.CommenterRole,
		CommentedBy:   c.CommentedBy,
		CreatedAt:     c.CreatedAt.UTC(),
	}
	q := `INSERT INTO student_comments (id, student_id, comment, commenter_role, commented_by, created_at)
		VALUES (:id, :student_id, :comment, :commenter_role, :commented_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, row); err != nil {
		return comment.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return c, nil
}

func (r *commentRepository) DeleteComment(ctx context.Context, id string) error {
	if !validID(id) {
		return comment.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM student_comments WHERE id = $1`, id)
	return checkAffected(res, err, comment.ErrNotFound, "deleting comment")
}
