package inmemdb

import (
	"context"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/notice"
)

type noticeRepository struct {
	db *DB
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *DB) notice.Repository {
	return &noticeRepository{db: db}
}

func (repo *noticeRepository) QueryNotices(_ context.Context, activeOnly bool) ([]notice.Notice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notices := make([]notice.Notice, 0)
	for _, n := range repo.db.notices {
		if activeOnly && !n.IsActive {
			continue
		}
		notices = append(notices, n)
	}
	sortBy(notices, []core.DBOrdering{{Field: "date"}, {Field: "created_at"}},
		map[string]func(notice.Notice) interface{}{
			"date":       func(n notice.Notice) interface{} { return n.Date },
			"created_at": func(n notice.Notice) interface{} { return n.CreatedAt.UnixNano() },
		}, core.DBOrdering{})
	return notices, nil
}

func (repo *noticeRepository) GetNoticeByID(_ context.Context, id string) (notice.Notice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notices[id]; ok {
		return n, nil
	}
	return notice.Notice{}, notice.ErrNotFound
}

func (repo *noticeRepository) CreateNotice(_ context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n.ID = newID()
	repo.db.notices[n.ID] = n
	return n, nil
}

func (repo *noticeRepository) UpdateNotice(_ context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.notices[n.ID]
	if !ok {
		return notice.Notice{}, notice.ErrNotFound
	}
	n.CreatedBy = orig.CreatedBy
	n.CreatedAt = orig.CreatedAt
	repo.db.notices[n.ID] = n
	return n, nil
}

func (repo *noticeRepository) DeleteNotice(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.notices[id]; !ok {
		return notice.ErrNotFound
	}
	delete(repo.db.notices, id)
	return nil
}
