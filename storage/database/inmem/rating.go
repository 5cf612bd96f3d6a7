package inmemdb

import (
	"context"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/rating"
)

type ratingRepository struct {
	db *DB
}

var _ rating.Repository = (*ratingRepository)(nil) // interface compliance check

func NewRatingRepository(db *DB) rating.Repository {
	return &ratingRepository{db: db}
}

func (repo *ratingRepository) QueryRatings(_ context.Context, status string) ([]rating.Rating, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ratings := make([]rating.Rating, 0)
	for _, rt := range repo.db.ratings {
		if status == "" || rt.Status == status {
			ratings = append(ratings, rt)
		}
	}
	sortBy(ratings, nil, map[string]func(rating.Rating) interface{}{
		"created_at": func(r rating.Rating) interface{} { return r.CreatedAt.UnixNano() },
	}, core.DBOrdering{Field: "created_at"})
	return ratings, nil
}

func (repo *ratingRepository) GetRatingByID(_ context.Context, id string) (rating.Rating, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rt, ok := repo.db.ratings[id]; ok {
		return rt, nil
	}
	return rating.Rating{}, rating.ErrNotFound
}

func (repo *ratingRepository) CreateRating(_ context.Context, rt rating.Rating) (rating.Rating, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rt.ID = newID()
	repo.db.ratings[rt.ID] = rt
	return rt, nil
}

func (repo *ratingRepository) UpdateRating(_ context.Context, rt rating.Rating) (rating.Rating, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.ratings[rt.ID]
	if !ok {
		return rating.Rating{}, rating.ErrNotFound
	}
	// only the moderation status changes
	orig.Status = rt.Status
	orig.UpdatedAt = rt.UpdatedAt
	repo.db.ratings[rt.ID] = orig
	return orig, nil
}

func (repo *ratingRepository) DeleteRating(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.ratings[id]; !ok {
		return rating.ErrNotFound
	}
	delete(repo.db.ratings, id)
	return nil
}
