package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/comment"
)

type commentRepository struct {
	db *DB
}

var _ comment.Repository = (*commentRepository)(nil) // interface compliance check

func NewCommentRepository(db *DB) comment.Repository {
	return &commentRepository{db: db}
}

func (repo *commentRepository) QueryStudentComments(_ context.Context, studentID string, since time.Time) ([]comment.Comment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	comments := make([]comment.Comment, 0)
	for _, c := range repo.db.comments {
		if c.StudentID == studentID && !c.CreatedAt.Before(since) {
			comments = append(comments, c)
		}
	}
	sortBy(comments, nil, map[string]func(comment.Comment) interface{}{
		"created_at": func(c comment.Comment) interface{} { return c.CreatedAt.UnixNano() },
	}, core.DBOrdering{Field: "created_at"})
	return comments, nil
}

func (repo *commentRepository) GetCommentByID(_ context.Context, id string) (comment.Comment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.comments[id]; ok {
		return c, nil
	}
	return comment.Comment{}, comment.ErrNotFound
}

func (repo *commentRepository) CreateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = newID()
	repo.db.comments[c.ID] = c
	return c, nil
}

func (repo *commentRepository) DeleteComment(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.comments[id]; !ok {
		return comment.ErrNotFound
	}
	delete(repo.db.comments, id)
	return nil
}
