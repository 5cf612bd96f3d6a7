package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/attendance"
	"github.com/trezcool/vidyalaya/core/comment"
	"github.com/trezcool/vidyalaya/core/gallery"
	"github.com/trezcool/vidyalaya/core/marks"
	"github.com/trezcool/vidyalaya/core/notice"
	"github.com/trezcool/vidyalaya/core/rating"
	"github.com/trezcool/vidyalaya/core/school"
	"github.com/trezcool/vidyalaya/core/user"
)

// DB is an in-memory database, used in tests and with the "memory" database engine.
type DB struct {
	mutex sync.RWMutex

	admins     map[string]user.Admin
	students   map[string]user.Student
	teachers   map[string]user.Teacher
	classes    map[string]school.ClassSection
	subjects   map[string]school.Subject
	marks      map[string]marks.Mark
	history    []marks.History
	attendance map[string]attendance.Record // {student_id|date: record}
	notices    map[string]notice.Notice
	images     map[string]gallery.Image
	comments   map[string]comment.Comment
	ratings    map[string]rating.Rating
}

func Open() *DB {
	return &DB{
		admins:     make(map[string]user.Admin),
		students:   make(map[string]user.Student),
		teachers:   make(map[string]user.Teacher),
		classes:    make(map[string]school.ClassSection),
		subjects:   make(map[string]school.Subject),
		marks:      make(map[string]marks.Mark),
		history:    make([]marks.History, 0),
		attendance: make(map[string]attendance.Record),
		notices:    make(map[string]notice.Notice),
		images:     make(map[string]gallery.Image),
		comments:   make(map[string]comment.Comment),
		ratings:    make(map[string]rating.Rating),
	}
}

func newID() string {
	return uuid.New().String()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sortBy sorts `items` following `ordering`; `keys` extracts the comparable value of each ordering field.
// Unknown fields are ignored; `fallback` applies when no ordering is usable.
func sortBy[T any](items []T, ordering []core.DBOrdering, keys map[string]func(T) interface{}, fallback core.DBOrdering) {
	usable := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if _, ok := keys[ord.Field]; ok {
			usable = append(usable, ord)
		}
	}
	if len(usable) == 0 {
		if _, ok := keys[fallback.Field]; !ok {
			return
		}
		usable = append(usable, fallback)
	}

	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range usable {
			a, b := keys[ord.Field](items[i]), keys[ord.Field](items[j])
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}
