package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core/rating"
)

const ratingColumns = `id, name, email, phone, relationship, rating, comment, status, created_at, updated_at`

type ratingRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	Relationship string    `db:"relationship"`
	Rating       int       `db:"rating"`
	Comment      string    `db:"comment"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type ratingRepository struct {
	repo
}

var _ rating.Repository = (*ratingRepository)(nil) // interface compliance check

func NewRatingRepository(db *sqlx.DB) rating.Repository {
	return &ratingRepository{repo{db: db}}
}

func (r *ratingRepository) QueryRatings(ctx context.Context, status string) ([]rating.Rating, error) {
	var w where
	if status != "" {
		w.add(`status = %s`, status)
	}
	rows := make([]ratingRow, 0)
	q := `SELECT ` + ratingColumns + ` FROM ratings` + w.String() + ` ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying ratings")
	}
	ratings := make([]rating.Rating, 0, len(rows))
	for _, row := range rows {
		ratings = append(ratings, rating.Rating(row))
	}
	return ratings, nil
}

func (r *ratingRepository) GetRatingByID(ctx context.Context, id string) (rating.Rating, error) {
	if !validID(id) {
		return rating.Rating{}, rating.ErrNotFound
	}
	var row ratingRow
	if err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, id); err != nil {
		return rating.Rating{}, trapNoRowsErr(err, rating.ErrNotFound, "finding rating")
	}
	return rating.Rating(row), nil
}

func (r *ratingRepository) CreateRating(ctx context.Context, rt rating.Rating) (rating.Rating, error) {
	rt.ID = newID()
	rt.CreatedAt, rt.UpdatedAt = rt.CreatedAt.UTC(), rt.UpdatedAt.UTC()
	q := `INSERT INTO ratings (` + ratingColumns + `)
		VALUES (:id, :name, :email, :phone, :relationship, :rating, :comment, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, ratingRow(rt)); err != nil {
		return rating.Rating{}, errors.Wrap(err, "inserting rating")
	}
	return rt, nil
}

func (r *ratingRepository) UpdateRating(ctx context.Context, rt rating.Rating) (rating.Rating, error) {
	q := `UPDATE ratings SET status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, q, ratingRow(rt))
	if err := checkAffected(res, err, rating.ErrNotFound, "updating rating"); err != nil {
		return rating.Rating{}, err
	}
	return rt, nil
}

func (r *ratingRepository) DeleteRating(ctx context.Context, id string) error {
	if !validID(id) {
		return rating.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	return checkAffected(res, err, rating.ErrNotFound, "deleting rating")
}
