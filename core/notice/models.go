package notice

import (
	"time"

	"github.com/trezcool/vidyalaya/core"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	AudienceAll      = "all"
	AudienceStudents = "students"
	AudienceTeachers = "teachers"
	AudienceParents  = "parents"
)

var (
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
	Audiences  = []string{AudienceAll, AudienceStudents, AudienceTeachers, AudienceParents}

	ErrNotFound = core.NewNotFoundError("notice not found")
)

type Notice struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Date           string    `json:"date"` // YYYY-MM-DD
	Priority       string    `json:"priority"`
	TargetAudience string    `json:"target_audience"`
	CreatedBy      string    `json:"created_by"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

type NewNotice struct {
	Title          string `json:"title" validate:"required,max=200"`
	Content        string `json:"content" validate:"required"`
	Date           string `json:"date" validate:"omitempty,isodate"`
	Priority       string `json:"priority" validate:"omitempty,oneof=low medium high"`
	TargetAudience string `json:"target_audience" validate:"omitempty,oneof=all students teachers parents"`
}
