package user

import (
	"sort"
	"time"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Account statuses
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)

var (
	Roles    = []string{RoleStudent, RoleTeacher, RoleAdmin}
	Statuses = []string{StatusActive, StatusInactive, StatusSuspended, StatusPending}
)

// IsDeactivated reports whether an account with this status may not log in.
func IsDeactivated(status string) bool {
	return status == StatusInactive || status == StatusSuspended
}

// Principal is the authenticated actor of a request.
type Principal struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Identifier string `json:"identifier"` // admission ID, teacher ID or email
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
}

func (p Principal) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Principal) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Principal) IsStudent() bool { return p.Role == RoleStudent }
func (p Principal) IsStaff() bool   { return p.IsAdmin() || p.IsTeacher() }

type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (a Admin) Principal() Principal {
	return Principal{ID: a.ID, Role: RoleAdmin, Identifier: a.Email, Name: a.Name, Email: a.Email}
}

// Assignment is a subject taught by a teacher in a class-section.
type Assignment struct {
	ClassSection string `json:"class_section"`
	Subject      string `json:"subject"`
}

type Teacher struct {
	ID             string       `json:"id"`
	TeacherID      string       `json:"teacher_id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Subjects       []string     `json:"subjects"`
	Status         string       `json:"status"`
	ProfilePhoto   string       `json:"profile_photo"`
	PasswordHash   string       `json:"-"`
	Assignments    []Assignment `json:"assignments,omitempty"`
	ClassTeacherOf string       `json:"class_teacher_of,omitempty"`
	CreatedAt      time.Time    `json:"created_at"` // UTC
	UpdatedAt      time.Time    `json:"updated_at"` // UTC
}

func (t Teacher) Principal() Principal {
	return Principal{ID: t.ID, Role: RoleTeacher, Identifier: t.TeacherID, Name: t.Name, Email: t.Email}
}

// ClassSections returns the distinct class-sections the teacher is assigned to.
func (t Teacher) ClassSections() []string {
	seen := make(map[string]bool)
	css := make([]string, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		if !seen[a.ClassSection] {
			seen[a.ClassSection] = true
			css = append(css, a.ClassSection)
		}
	}
	return css
}

// AssignedTo reports whether the teacher has an assignment in the class-section.
func (t Teacher) AssignedTo(classSection string) bool {
	for _, a := range t.Assignments {
		if a.ClassSection == classSection {
			return true
		}
	}
	return false
}

type Student struct {
	ID                string    `json:"id"`
	AdmissionID       string    `json:"admission_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	DOB               string    `json:"dob"` // YYYY-MM-DD
	BloodGroup        string    `json:"blood_group"`
	ClassName         string    `json:"class_name"`
	Section           string    `json:"section"`
	ClassSection      string    `json:"class_section"`
	ClassID           string    `json:"class_id"`
	FatherName        string    `json:"father_name"`
	MotherName        string    `json:"mother_name"`
	Address           string    `json:"address"`
	ProfilePhoto      string    `json:"profile_photo"`
	Status            string    `json:"status"`
	PasswordHash      string    `json:"-"`
	LatestPercentage  float64   `json:"latest_percentage"`
	OverallPercentage float64   `json:"overall_percentage"`
	CreatedAt         time.Time `json:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

func (s Student) Principal() Principal {
	return Principal{ID: s.ID, Role: RoleStudent, Identifier: s.AdmissionID, Name: s.Name, Email: s.Email}
}

// Scope describes which class-sections and subjects a principal may manage.
type Scope struct {
	All            bool         `json:"all"`
	ClassTeacherOf string       `json:"class_teacher_of,omitempty"`
	Assignments    []Assignment `json:"assignments"`
}

// CanAccessClassSection reports whether the scope covers class-section `cs`.
func (s Scope) CanAccessClassSection(cs string) bool {
	if s.All {
		return true
	}
	if cs == "" {
		return false
	}
	if s.ClassTeacherOf == cs {
		return true
	}
	for _, a := range s.Assignments {
		if a.ClassSection == cs {
			return true
		}
	}
	return false
}

// CanTeach reports whether the scope covers `subject` in class-section `cs`.
func (s Scope) CanTeach(cs, subject string) bool {
	if s.All {
		return true
	}
	for _, a := range s.Assignments {
		if a.ClassSection == cs && a.Subject == subject {
			return true
		}
	}
	return false
}

// ClassSections returns the sorted distinct class-sections of the scope. It is nil when All is set.
func (s Scope) ClassSections() []string {
	if s.All {
		return nil
	}
	seen := make(map[string]bool)
	css := make([]string, 0, len(s.Assignments)+1)
	add := func(cs string) {
		if cs != "" && !seen[cs] {
			seen[cs] = true
			css = append(css, cs)
		}
	}
	add(s.ClassTeacherOf)
	for _, a := range s.Assignments {
		add(a.ClassSection)
	}
	sort.Strings(css)
	return css
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	AdmissionID  string `json:"admission_id" validate:"required,max=32"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	DOB          string `json:"dob" validate:"omitempty,isodate"`
	BloodGroup   string `json:"blood_group" validate:"omitempty,max=4"`
	ClassName    string `json:"class_name"`
	Section      string `json:"section"`
	FatherName   string `json:"father_name"`
	MotherName   string `json:"mother_name"`
	Address      string `json:"address"`
	ProfilePhoto string `json:"profile_photo" validate:"omitempty,uri"`
	Status       string `json:"status" validate:"omitempty,status"`
	Password     string `json:"password" validate:"required"`
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty values keep the current ones.
type UpdateStudent struct {
	Name         string `json:"name"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	DOB          string `json:"dob" validate:"omitempty,isodate"`
	BloodGroup   string `json:"blood_group" validate:"omitempty,max=4"`
	ClassName    string `json:"class_name"`
	Section      string `json:"section"`
	FatherName   string `json:"father_name"`
	MotherName   string `json:"mother_name"`
	Address      string `json:"address"`
	ProfilePhoto string `json:"profile_photo" validate:"omitempty,uri"`
	Status       string `json:"status" validate:"omitempty,status"`
	Password     string `json:"password"`
}

// ClassSectionSubjects lists the subjects a teacher teaches in one class-section.
type ClassSectionSubjects struct {
	ClassSection string   `json:"class_section" validate:"required,classsection"`
	Subjects     []string `json:"subjects"`
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	TeacherID      string                 `json:"teacher_id" validate:"required,max=32"`
	Name           string                 `json:"name" validate:"required"`
	Email          string                 `json:"email" validate:"omitempty,email"`
	Phone          string                 `json:"phone" validate:"omitempty,max=20"`
	ProfilePhoto   string                 `json:"profile_photo" validate:"omitempty,uri"`
	Status         string                 `json:"status" validate:"omitempty,status"`
	Password       string                 `json:"password" validate:"required"`
	ClassSections  []ClassSectionSubjects `json:"class_sections" validate:"dive"`
	ClassTeacherOf string                 `json:"class_teacher_of"`
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
// A nil ClassSections keeps the current assignments.
type UpdateTeacher struct {
	Name           string                 `json:"name"`
	Email          string                 `json:"email" validate:"omitempty,email"`
	Phone          string                 `json:"phone" validate:"omitempty,max=20"`
	ProfilePhoto   string                 `json:"profile_photo" validate:"omitempty,uri"`
	Status         string                 `json:"status" validate:"omitempty,status"`
	Password       string                 `json:"password"`
	ClassSections  []ClassSectionSubjects `json:"class_sections" validate:"omitempty,dive"`
	ClassTeacherOf string                 `json:"class_teacher_of"`
}

type ChangePassword struct {
	OldPassword     string `json:"old_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	// used by the password policy
	name, identifier, email string
}

type StudentFilter struct {
	Search        string   `query:"search"`
	ClassSection  string   `query:"class_section"`
	Status        string   `query:"status"`
	ClassSections []string `query:"-"` // restricts results to these class-sections when not nil
	IDs           []string `query:"-"`
}

type TeacherFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

// ImportResult reports the outcome of a bulk student import.
type ImportResult struct {
	Created []Student     `json:"created"`
	Errors  []ImportError `json:"errors"`
}

type ImportError struct {
	Row         int    `json:"row"` // 1-based, header included
	AdmissionID string `json:"admission_id"`
	Error       string `json:"error"`
}
