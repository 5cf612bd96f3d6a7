package school

import (
	"errors"
	"time"

	"github.com/trezcool/vidyalaya/core"
)

var (
	ErrClassNotFound   = core.NewNotFoundError("class not found")
	ErrSubjectNotFound = core.NewNotFoundError("subject not found")
	ErrClassExists     = errors.New("this class-section already exists")
	ErrSubjectExists   = errors.New("a subject with this name or code already exists")
)

const (
	MinClass = 1
	MaxClass = 12
)

// ClassSection is a class (grade) + section pair, e.g. "10-A".
type ClassSection struct {
	ID          string    `json:"id" db:"id"`
	ClassNumber int       `json:"class_number" db:"class_number"`
	Section     string    `json:"section" db:"section"`
	Name        string    `json:"class_section" db:"class_section"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Subject struct {
	ID                  string    `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Code                string    `json:"code" db:"code"`
	ApplicableFromClass int       `json:"applicable_from_class" db:"applicable_from_class"`
	ApplicableToClass   int       `json:"applicable_to_class" db:"applicable_to_class"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// AppliesTo reports whether the subject is taught in class `n`. Unknown classes get every subject.
func (s Subject) AppliesTo(n int) bool {
	if n <= 0 {
		return true
	}
	from, to := s.ApplicableFromClass, s.ApplicableToClass
	if from == 0 {
		from = MinClass
	}
	if to == 0 {
		to = MaxClass
	}
	return n >= from && n <= to
}

type NewClassSection struct {
	ClassName string `json:"class_name" validate:"required"`
	Section   string `json:"section" validate:"required,alphanum,max=3"`
}

type NewSubject struct {
	Name                string `json:"name" validate:"required"`
	Code                string `json:"code" validate:"required,max=16"`
	ApplicableFromClass int    `json:"applicable_from_class" validate:"omitempty,min=1,max=12"`
	ApplicableToClass   int    `json:"applicable_to_class" validate:"omitempty,min=1,max=12,gtefield=ApplicableFromClass"`
}
