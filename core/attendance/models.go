package attendance

import (
	"time"

	"github.com/trezcool/vidyalaya/core"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusHalfDay = "half_day"

	// DefaultHistoryDays is the window of the attendance history.
	DefaultHistoryDays = 10
	// MaxHistoryDates is the maximum number of dates in the attendance history.
	MaxHistoryDates = 10
	// PercentageDays is the window of a student's attendance percentage.
	PercentageDays = 30
)

var (
	Statuses = []string{StatusPresent, StatusAbsent, StatusHalfDay}

	ErrPermissionDenied = core.NewPermissionError("You do not have permission to manage attendance for this class-section")
	ErrFutureDate       = core.NewFieldError("date", "attendance cannot be marked for a future date")
)

type Record struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	ClassSection string    `json:"class_section"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Status       string    `json:"status"`
	Remarks      string    `json:"remarks"`
	MarkedBy     string    `json:"marked_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type Entry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent half_day"`
	Remarks   string `json:"remarks" validate:"max=500"`
}

// SaveAttendance contains the attendance of a class-section for one day.
type SaveAttendance struct {
	ClassSection string  `json:"class_section" validate:"required"`
	Date         string  `json:"date" validate:"required,isodate"`
	Entries      []Entry `json:"entries" validate:"required,min=1,dive"`
}

// Filter selects attendance records. Dates are inclusive; empty fields match everything.
type Filter struct {
	ClassSection string
	StudentIDs   []string
	From         string
	To           string
}

type Stats struct {
	Total             int `json:"total"`
	Marked            int `json:"marked"`
	Present           int `json:"present"`
	Absent            int `json:"absent"`
	HalfDay           int `json:"half_day"`
	PresentPercentage int `json:"present_percentage"`
}

type DayStudent struct {
	StudentID   string `json:"student_id"`
	AdmissionID string `json:"admission_id"`
	Name        string `json:"name"`
	Status      string `json:"status"` // empty when not marked
	Remarks     string `json:"remarks"`
}

// Day is the attendance sheet of a class-section.
type Day struct {
	ClassSection string       `json:"class_section"`
	Date         string       `json:"date"`
	Students     []DayStudent `json:"students"`
	Stats        Stats        `json:"stats"`
}

type HistoryDay struct {
	Date     string            `json:"date"`
	Statuses map[string]string `json:"statuses"` // {student_id: status}
	Stats    Stats             `json:"stats"`
}

type History struct {
	ClassSection string       `json:"class_section"`
	From         string       `json:"from"`
	To           string       `json:"to"`
	Students     []DayStudent `json:"students"`
	Days         []HistoryDay `json:"days"`
}

type StudentAttendance struct {
	Percentage int      `json:"percentage"` // over the last PercentageDays days
	Records    []Record `json:"records"`
}
