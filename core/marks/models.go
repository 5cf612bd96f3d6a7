package marks

import (
	"strings"
	"time"

	"github.com/trezcool/vidyalaya/core"
)

// Exam types, in the order they happen during the school year.
const (
	ExamPA1        = "PA1"
	ExamPA2        = "PA2"
	ExamHalfYearly = "Half Yearly"
	ExamPA3        = "PA3"
	ExamPA4        = "PA4"
	ExamAnnual     = "Annual"
)

var (
	ExamTypes = []string{ExamPA1, ExamPA2, ExamHalfYearly, ExamPA3, ExamPA4, ExamAnnual}

	ErrNotFound         = core.NewNotFoundError("marks not found")
	ErrPermissionDenied = core.NewPermissionError("You do not have permission to manage marks for this student")
)

// NormalizeExamType maps exam type spellings ("pa-1", "Half yearly") to their canonical form.
func NormalizeExamType(s string) (string, bool) {
	key := strings.ToLower(strings.NewReplacer("-", "", " ", "", "_", "").Replace(s))
	for _, et := range ExamTypes {
		if strings.ToLower(strings.ReplaceAll(et, " ", "")) == key {
			return et, true
		}
	}
	return "", false
}

// ExamIndex returns the position of `exam` in ExamTypes, or -1.
func ExamIndex(exam string) int {
	for i, et := range ExamTypes {
		if et == exam {
			return i
		}
	}
	return -1
}

// MaxMarksFor returns the maximum marks of a subject for an exam in class `classNumber` (0 if unknown).
func MaxMarksFor(exam string, classNumber int) float64 {
	switch {
	case exam == ExamHalfYearly || exam == ExamAnnual:
		return 100
	case classNumber >= 9:
		return 40
	case classNumber >= 1:
		return 30
	}
	return 100
}

// Clamp limits `v` to [0, max].
func Clamp(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

type Mark struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	ClassID       string    `json:"class_id"`
	SubjectID     string    `json:"subject_id"`
	Subject       string    `json:"subject"`
	ExamType      string    `json:"exam_type"`
	MarksObtained float64   `json:"marks_obtained"`
	TotalMarks    float64   `json:"total_marks"`
	Remarks       string    `json:"remarks"`
	CreatedBy     string    `json:"created_by"`
	UpdatedBy     string    `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// History records a change of marks.
type History struct {
	ID        string    `json:"id"`
	MarkID    string    `json:"mark_id"`
	StudentID string    `json:"student_id"`
	SubjectID string    `json:"subject_id"`
	ExamType  string    `json:"exam_type"`
	OldMarks  float64   `json:"old_marks"`
	NewMarks  float64   `json:"new_marks"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// SheetStudent is the part of a student shown on a marks sheet.
type SheetStudent struct {
	ID           string `json:"id"`
	AdmissionID  string `json:"admission_id"`
	Name         string `json:"name"`
	ClassSection string `json:"class_section"`
}

type SheetRow struct {
	SubjectID     string   `json:"subject_id"`
	Subject       string   `json:"subject"`
	Code          string   `json:"code"`
	MarkID        string   `json:"mark_id,omitempty"`
	MarksObtained *float64 `json:"marks_obtained"`
	TotalMarks    float64  `json:"total_marks"`
	Remarks       string   `json:"remarks"`
}

// Sheet is the marks entry form of a student for one exam.
type Sheet struct {
	Student       SheetStudent `json:"student"`
	ExamType      string       `json:"exam_type"`
	MaxMarks      float64      `json:"max_marks"`
	Rows          []SheetRow   `json:"rows"`
	TotalObtained float64      `json:"total_obtained"`
	TotalPossible float64      `json:"total_possible"`
	Percentage    int          `json:"percentage"`
}

type Entry struct {
	SubjectID     string  `json:"subject_id" validate:"required"`
	MarksObtained float64 `json:"marks_obtained"`
	Remarks       string  `json:"remarks" validate:"max=500"`
}

// SaveMarks contains the marks of a student for one exam.
type SaveMarks struct {
	StudentID string  `json:"student_id" validate:"required"`
	ExamType  string  `json:"exam_type" validate:"required,examtype"`
	Entries   []Entry `json:"entries" validate:"required,min=1,dive"`
}

// Summary is the academic performance of a student over all exams.
type Summary struct {
	OverallPercentage  float64  `json:"overall_percentage"`
	LatestExam         string   `json:"latest_exam"`
	LatestPercentage   float64  `json:"latest_percentage"`
	PreviousExam       string   `json:"previous_exam,omitempty"`
	PreviousPercentage *float64 `json:"previous_percentage,omitempty"`
	ExamsCount         int      `json:"exams_count"`
	OverallGrade       string   `json:"overall_grade"`
	LatestGrade        string   `json:"latest_grade"`
	Trend              string   `json:"trend"` // up | down | steady
	Remarks            []string `json:"remarks"`
}

// ExamResult is the result of a student for one exam.
type ExamResult struct {
	ExamType      string  `json:"exam_type"`
	Marks         []Mark  `json:"marks"`
	TotalObtained float64 `json:"total_obtained"`
	TotalPossible float64 `json:"total_possible"`
	Percentage    float64 `json:"percentage"`
}

// ReportCard gathers everything printed on a student's report card.
type ReportCard struct {
	Student SheetStudent `json:"student"`
	Exams   []ExamResult `json:"exams"`
	Summary Summary      `json:"summary"`
}

// Filter selects marks. Empty fields match everything.
type Filter struct {
	StudentIDs []string
	ExamType   string
	SubjectID  string
}

type ClassMarksRow struct {
	Student       SheetStudent       `json:"student"`
	Marks         map[string]float64 `json:"marks"` // {subject: marks obtained}
	TotalObtained float64            `json:"total_obtained"`
	TotalPossible float64            `json:"total_possible"`
	Percentage    float64            `json:"percentage"`
}

// ClassMarks is the marks register of a class-section for one exam.
type ClassMarks struct {
	ClassSection string          `json:"class_section"`
	ExamType     string          `json:"exam_type"`
	MaxMarks     float64         `json:"max_marks"`
	Subjects     []string        `json:"subjects"`
	Rows         []ClassMarksRow `json:"rows"`
}
