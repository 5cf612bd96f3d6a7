package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

var (
	studentSortKeys = map[string]func(user.Student) interface{}{
		"name":               func(s user.Student) interface{} { return strings.ToLower(s.Name) },
		"admission_id":       func(s user.Student) interface{} { return strings.ToLower(s.AdmissionID) },
		"class_section":      func(s user.Student) interface{} { return s.ClassSection },
		"status":             func(s user.Student) interface{} { return s.Status },
		"latest_percentage":  func(s user.Student) interface{} { return s.LatestPercentage },
		"overall_percentage": func(s user.Student) interface{} { return s.OverallPercentage },
		"created_at":         func(s user.Student) interface{} { return s.CreatedAt.UnixNano() },
	}
	teacherSortKeys = map[string]func(user.Teacher) interface{}{
		"name":       func(t user.Teacher) interface{} { return strings.ToLower(t.Name) },
		"teacher_id": func(t user.Teacher) interface{} { return strings.ToLower(t.TeacherID) },
		"email":      func(t user.Teacher) interface{} { return strings.ToLower(t.Email) },
		"status":     func(t user.Teacher) interface{} { return t.Status },
		"created_at": func(t user.Teacher) interface{} { return t.CreatedAt.UnixNano() },
	}
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

// Admins

func (repo *userRepository) GetAdminByID(_ context.Context, id string) (user.Admin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if adm, ok := repo.db.admins[id]; ok {
		return adm, nil
	}
	return user.Admin{}, user.ErrAdminNotFound
}

func (repo *userRepository) GetAdminByEmail(_ context.Context, email string, caseInsensitive bool) (user.Admin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, adm := range repo.db.admins {
		if adm.Email == email || (caseInsensitive && strings.EqualFold(adm.Email, email)) {
			return adm, nil
		}
	}
	return user.Admin{}, user.ErrAdminNotFound
}

func (repo *userRepository) UpsertAdmin(_ context.Context, adm user.Admin) (user.Admin, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, existing := range repo.db.admins {
		if existing.Email == adm.Email {
			if adm.Name != "" {
				existing.Name = adm.Name
			}
			existing.Status = adm.Status
			existing.PasswordHash = adm.PasswordHash
			existing.UpdatedAt = adm.UpdatedAt
			repo.db.admins[id] = existing
			return existing, nil
		}
	}
	adm.ID = newID()
	repo.db.admins[adm.ID] = adm
	return adm, nil
}

func (repo *userRepository) QueryAdmins(_ context.Context) ([]user.Admin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	admins := make([]user.Admin, 0, len(repo.db.admins))
	for _, adm := range repo.db.admins {
		admins = append(admins, adm)
	}
	sortBy(admins, nil, map[string]func(user.Admin) interface{}{
		"name": func(a user.Admin) interface{} { return strings.ToLower(a.Name) },
	}, core.DBOrdering{Field: "name", Ascending: true})
	return admins, nil
}

// Students

func (repo *userRepository) CheckAdmissionIDUniqueness(_ context.Context, admissionID, excludedID string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.db.students {
		if strings.EqualFold(st.AdmissionID, admissionID) && st.ID != excludedID {
			return user.ErrAdmissionIDExists
		}
	}
	return nil
}

func (repo *userRepository) CreateStudent(_ context.Context, st user.Student) (user.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st.ID = newID()
	repo.db.students[st.ID] = st
	return st, nil
}

func (repo *userRepository) GetStudentByID(_ context.Context, id string) (user.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.students[id]; ok {
		return st, nil
	}
	return user.Student{}, user.ErrStudentNotFound
}

func (repo *userRepository) GetStudentByAdmissionID(_ context.Context, admissionID string) (user.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.db.students {
		if strings.EqualFold(st.AdmissionID, admissionID) {
			return st, nil
		}
	}
	return user.Student{}, user.ErrStudentNotFound
}

func (repo *userRepository) QueryStudents(_ context.Context, filter user.StudentFilter, ordering []core.DBOrdering) ([]user.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]user.Student, 0)
	for _, st := range repo.db.students {
		if filter.Search != "" &&
			!containsFold(st.Name, filter.Search) &&
			!containsFold(st.AdmissionID, filter.Search) &&
			!containsFold(st.ClassSection, filter.Search) {
			continue
		}
		if filter.ClassSection != "" && st.ClassSection != filter.ClassSection {
			continue
		}
		if filter.Status != "" && st.Status != filter.Status {
			continue
		}
		if filter.ClassSections != nil && !contains(filter.ClassSections, st.ClassSection) {
			continue
		}
		if filter.IDs != nil && !contains(filter.IDs, st.ID) {
			continue
		}
		students = append(students, st)
	}
	sortBy(students, ordering, studentSortKeys, core.DBOrdering{Field: "name", Ascending: true})
	return students, nil
}

func (repo *userRepository) UpdateStudent(_ context.Context, st user.Student) (user.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[st.ID]
	if !ok {
		return user.Student{}, user.ErrStudentNotFound
	}
	// percentages are only set through UpdateStudentPercentages
	st.LatestPercentage = orig.LatestPercentage
	st.OverallPercentage = orig.OverallPercentage
	st.AdmissionID = orig.AdmissionID
	st.CreatedAt = orig.CreatedAt
	repo.db.students[st.ID] = st
	return st, nil
}

func (repo *userRepository) UpdateStudentPercentages(_ context.Context, id string, latest, overall float64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st, ok := repo.db.students[id]
	if !ok {
		return user.ErrStudentNotFound
	}
	st.LatestPercentage = latest
	st.OverallPercentage = overall
	repo.db.students[id] = st
	return nil
}

func (repo *userRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return user.ErrStudentNotFound
	}
	delete(repo.db.students, id)

	// cascade
	for mid, m := range repo.db.marks {
		if m.StudentID == id {
			delete(repo.db.marks, mid)
		}
	}
	history := repo.db.history[:0]
	for _, h := range repo.db.history {
		if h.StudentID != id {
			history = append(history, h)
		}
	}
	repo.db.history = history
	for key, rec := range repo.db.attendance {
		if rec.StudentID == id {
			delete(repo.db.attendance, key)
		}
	}
	for cid, c := range repo.db.comments {
		if c.StudentID == id {
			delete(repo.db.comments, cid)
		}
	}
	return nil
}

func (repo *userRepository) QueryStudentClassSections(_ context.Context) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]bool)
	css := make([]string, 0)
	for _, st := range repo.db.students {
		if st.ClassSection != "" && !seen[st.ClassSection] {
			seen[st.ClassSection] = true
			css = append(css, st.ClassSection)
		}
	}
	return css, nil
}

// Teachers

func (repo *userRepository) CheckTeacherIDUniqueness(_ context.Context, teacherID, excludedID string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.teachers {
		if strings.EqualFold(t.TeacherID, teacherID) && t.ID != excludedID {
			return user.ErrTeacherIDExists
		}
	}
	return nil
}

// claimClassTeacher makes `t` the only class teacher of its ClassTeacherOf. The caller holds the lock.
func (repo *userRepository) claimClassTeacher(t user.Teacher) {
	if t.ClassTeacherOf == "" {
		return
	}
	for id, other := range repo.db.teachers {
		if id != t.ID && other.ClassTeacherOf == t.ClassTeacherOf {
			other.ClassTeacherOf = ""
			repo.db.teachers[id] = other
		}
	}
}

func copyTeacher(t user.Teacher) user.Teacher {
	t.Subjects = append([]string{}, t.Subjects...)
	t.Assignments = append([]user.Assignment{}, t.Assignments...)
	return t
}

func (repo *userRepository) CreateTeacher(_ context.Context, t user.Teacher) (user.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = newID()
	t = copyTeacher(t)
	repo.claimClassTeacher(t)
	repo.db.teachers[t.ID] = t
	return copyTeacher(t), nil
}

func (repo *userRepository) GetTeacherByID(_ context.Context, id string) (user.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return copyTeacher(t), nil
	}
	return user.Teacher{}, user.ErrTeacherNotFound
}

func (repo *userRepository) GetTeacherByTeacherID(_ context.Context, teacherID string) (user.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.teachers {
		if strings.EqualFold(t.TeacherID, teacherID) {
			return copyTeacher(t), nil
		}
	}
	return user.Teacher{}, user.ErrTeacherNotFound
}

func (repo *userRepository) QueryTeachers(_ context.Context, filter user.TeacherFilter, ordering []core.DBOrdering) ([]user.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]user.Teacher, 0)
	for _, t := range repo.db.teachers {
		if filter.Search != "" &&
			!containsFold(t.Name, filter.Search) &&
			!containsFold(t.TeacherID, filter.Search) &&
			!containsFold(t.Email, filter.Search) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		teachers = append(teachers, copyTeacher(t))
	}
	sortBy(teachers, ordering, teacherSortKeys, core.DBOrdering{Field: "name", Ascending: true})
	return teachers, nil
}

func (repo *userRepository) UpdateTeacher(_ context.Context, t user.Teacher, replaceAssignments bool) (user.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.teachers[t.ID]
	if !ok {
		return user.Teacher{}, user.ErrTeacherNotFound
	}
	t = copyTeacher(t)
	t.TeacherID = orig.TeacherID
	t.CreatedAt = orig.CreatedAt
	if !replaceAssignments {
		t.Assignments = orig.Assignments
		t.ClassTeacherOf = orig.ClassTeacherOf
	}
	repo.claimClassTeacher(t)
	repo.db.teachers[t.ID] = t
	return copyTeacher(t), nil
}

func (repo *userRepository) DeleteTeacher(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.teachers[id]; !ok {
		return user.ErrTeacherNotFound
	}
	delete(repo.db.teachers, id)
	return nil
}

// Any role

func (repo *userRepository) SetPassword(_ context.Context, role, id, hash string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := core.NowFunc().UTC()
	switch role {
	case user.RoleAdmin:
		if adm, ok := repo.db.admins[id]; ok {
			adm.PasswordHash, adm.UpdatedAt = hash, now
			repo.db.admins[id] = adm
			return nil
		}
	case user.RoleTeacher:
		if t, ok := repo.db.teachers[id]; ok {
			t.PasswordHash, t.UpdatedAt = hash, now
			repo.db.teachers[id] = t
			return nil
		}
	case user.RoleStudent:
		if st, ok := repo.db.students[id]; ok {
			st.PasswordHash, st.UpdatedAt = hash, now
			repo.db.students[id] = st
			return nil
		}
	}
	return user.ErrNotFound
}

func (repo *userRepository) GetNames(_ context.Context, role string, ids []string) (map[string]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		switch role {
		case user.RoleAdmin:
			if adm, ok := repo.db.admins[id]; ok {
				names[id] = adm.Name
			}
		case user.RoleTeacher:
			if t, ok := repo.db.teachers[id]; ok {
				names[id] = t.Name
			}
		case user.RoleStudent:
			if st, ok := repo.db.students[id]; ok {
				names[id] = st.Name
			}
		}
	}
	return names, nil
}
