package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/school"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrStudentNotFound    = core.NewNotFoundError("student not found")
	ErrTeacherNotFound    = core.NewNotFoundError("teacher not found")
	ErrAdminNotFound      = core.NewNotFoundError("admin not found")
	ErrAdmissionIDExists  = errors.New("a student with this admission ID already exists")
	ErrTeacherIDExists    = errors.New("a teacher with this teacher ID already exists")
	ErrAccountDeactivated = errors.New("account deactivated")

	ErrInvalidStudentCredentials = core.NewValidationError(errors.New("Invalid admission ID or password"))
	ErrInvalidTeacherCredentials = core.NewValidationError(errors.New("Invalid teacher ID or password"))
	ErrInvalidAdminCredentials   = core.NewValidationError(errors.New("Invalid email or password"))
	ErrInvalidCredentials        = core.NewValidationError(errors.New("Invalid credentials"))
	errWrongPassword             = core.NewFieldError("old_password", "wrong password")
)

type (
	Repository interface {
		// admins
		GetAdminByID(ctx context.Context, id string) (Admin, error)
		// GetAdminByEmail matches the email exactly, or ignoring case when `caseInsensitive` is set.
		GetAdminByEmail(ctx context.Context, email string, caseInsensitive bool) (Admin, error)
		UpsertAdmin(ctx context.Context, adm Admin) (Admin, error)
		QueryAdmins(ctx context.Context) ([]Admin, error)

		// students
		CheckAdmissionIDUniqueness(ctx context.Context, admissionID, excludedID string) error
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByAdmissionID(ctx context.Context, admissionID string) (Student, error)
		// QueryStudents applies AND operation on available StudentFilter fields.
		// StudentFilter.Search does a case-insensitive match on one of Name, AdmissionID or ClassSection.
		QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		UpdateStudentPercentages(ctx context.Context, id string, latest, overall float64) error
		DeleteStudent(ctx context.Context, id string) error
		QueryStudentClassSections(ctx context.Context) ([]string, error)

		// teachers
		CheckTeacherIDUniqueness(ctx context.Context, teacherID, excludedID string) error
		// CreateTeacher stores the teacher along with its Assignments & ClassTeacherOf.
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		// GetTeacherByID returns the teacher with its Assignments & ClassTeacherOf.
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		GetTeacherByTeacherID(ctx context.Context, teacherID string) (Teacher, error)
		// QueryTeachers does a case-insensitive TeacherFilter.Search on one of Name, TeacherID or Email.
		QueryTeachers(ctx context.Context, filter TeacherFilter, ordering []core.DBOrdering) ([]Teacher, error)
		// UpdateTeacher replaces Assignments & ClassTeacherOf when `replaceAssignments` is set.
		UpdateTeacher(ctx context.Context, t Teacher, replaceAssignments bool) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error

		// any role
		SetPassword(ctx context.Context, role, id, hash string) error
		GetNames(ctx context.Context, role string, ids []string) (map[string]string, error)
	}

	Service interface {
		Authenticate(ctx context.Context, role, identifier, pwd string) (Principal, error)
		GetPrincipal(ctx context.Context, role, id string) (Principal, error)
		// Profile returns the Admin, Teacher or Student behind `p`.
		Profile(ctx context.Context, p Principal) (interface{}, error)
		ChangePassword(ctx context.Context, p Principal, data ChangePassword) error
		ResetPassword(ctx context.Context, role, identifier, pwd string) error
		EnsureAdmin(ctx context.Context, email, name, pwd string) (Admin, error)
		QueryAdmins(ctx context.Context) ([]Admin, error)
		// Scope returns the class-sections & subjects `p` may manage.
		Scope(ctx context.Context, p Principal) (Scope, error)
		// ResolveNames maps user IDs to names, looking up teachers first, then admins.
		ResolveNames(ctx context.Context, ids []string) (map[string]string, error)

		CreateStudent(ctx context.Context, ns NewStudent) (Student, error)
		ImportStudents(ctx context.Context, rows []NewStudent, validate *validator.Validate) (ImportResult, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error)
		UpdateStudentPercentages(ctx context.Context, id string, latest, overall float64) error
		DeleteStudent(ctx context.Context, id string) error
		ClassSections(ctx context.Context) ([]string, error)

		CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		QueryTeachers(ctx context.Context, filter TeacherFilter, ordering []core.DBOrdering) ([]Teacher, error)
		UpdateTeacher(ctx context.Context, id string, upd UpdateTeacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{repo: repo, logger: logger}
}

// verify checks `pwd` against `stored` and re-hashes legacy passwords.
func (svc *service) verify(ctx context.Context, role, id, stored, pwd string) bool {
	legacy, err := CheckPassword(stored, pwd)
	if err != nil {
		return false
	}
	if legacy {
		hash, err := HashPassword(pwd)
		if err == nil {
			err = svc.repo.SetPassword(ctx, role, id, hash)
		}
		if err != nil { // the login still succeeds
			svc.logger.Warn(fmt.Sprintf("rehashing legacy password of %s %s: %v", role, id, err), err)
		}
	}
	return true
}

func (svc *service) Authenticate(ctx context.Context, role, identifier, pwd string) (Principal, error) {
	switch role {
	case RoleStudent:
		st, err := svc.repo.GetStudentByAdmissionID(ctx, core.CleanString(identifier))
		if err != nil {
			if err == ErrStudentNotFound {
				return Principal{}, ErrInvalidStudentCredentials
			}
			return Principal{}, pkgerrors.Wrap(err, "finding student by admission ID")
		}
		if !svc.verify(ctx, RoleStudent, st.ID, st.PasswordHash, pwd) {
			return Principal{}, ErrInvalidStudentCredentials
		}
		if IsDeactivated(st.Status) {
			return Principal{}, ErrAccountDeactivated
		}
		return st.Principal(), nil

	case RoleTeacher:
		t, err := svc.repo.GetTeacherByTeacherID(ctx, core.CleanString(identifier))
		if err != nil {
			if err == ErrTeacherNotFound {
				return Principal{}, ErrInvalidTeacherCredentials
			}
			return Principal{}, pkgerrors.Wrap(err, "finding teacher by teacher ID")
		}
		if !svc.verify(ctx, RoleTeacher, t.ID, t.PasswordHash, pwd) {
			return Principal{}, ErrInvalidTeacherCredentials
		}
		if IsDeactivated(t.Status) {
			return Principal{}, ErrAccountDeactivated
		}
		return t.Principal(), nil

	case RoleAdmin:
		email := core.CleanString(identifier, true /* lower */)
		adm, err := svc.repo.GetAdminByEmail(ctx, email, false)
		if err == ErrAdminNotFound {
			adm, err = svc.repo.GetAdminByEmail(ctx, email, true)
		}
		if err != nil {
			if err == ErrAdminNotFound {
				return Principal{}, ErrInvalidAdminCredentials
			}
			return Principal{}, pkgerrors.Wrap(err, "finding admin by email")
		}
		if !svc.verify(ctx, RoleAdmin, adm.ID, adm.PasswordHash, pwd) {
			return Principal{}, ErrInvalidAdminCredentials
		}
		if IsDeactivated(adm.Status) {
			return Principal{}, ErrAccountDeactivated
		}
		return adm.Principal(), nil
	}
	return Principal{}, ErrInvalidCredentials
}

func (svc *service) GetPrincipal(ctx context.Context, role, id string) (Principal, error) {
	switch role {
	case RoleStudent:
		st, err := svc.repo.GetStudentByID(ctx, id)
		if err != nil {
			return Principal{}, err
		}
		if IsDeactivated(st.Status) {
			return Principal{}, ErrAccountDeactivated
		}
		return st.Principal(), nil
	case RoleTeacher:
		t, err := svc.repo.GetTeacherByID(ctx, id)
		if err != nil {
			return Principal{}, err
		}
		if IsDeactivated(t.Status) {
			return Principal{}, ErrAccountDeactivated
		}
		return t.Principal(), nil
	case RoleAdmin:
		adm, err := svc.repo.GetAdminByID(ctx, id)
		if err != nil {
			return Principal{}, err
		}
		if IsDeactivated(adm.Status) {
			return Principal{}, ErrAccountDeactivated
		}
		return adm.Principal(), nil
	}
	return Principal{}, ErrNotFound
}

func (svc *service) Profile(ctx context.Context, p Principal) (interface{}, error) {
	switch p.Role {
	case RoleStudent:
		return svc.repo.GetStudentByID(ctx, p.ID)
	case RoleTeacher:
		return svc.repo.GetTeacherByID(ctx, p.ID)
	case RoleAdmin:
		return svc.repo.GetAdminByID(ctx, p.ID)
	}
	return nil, ErrNotFound
}

func (svc *service) storedPassword(ctx context.Context, p Principal) (string, error) {
	switch p.Role {
	case RoleStudent:
		st, err := svc.repo.GetStudentByID(ctx, p.ID)
		return st.PasswordHash, err
	case RoleTeacher:
		t, err := svc.repo.GetTeacherByID(ctx, p.ID)
		return t.PasswordHash, err
	case RoleAdmin:
		adm, err := svc.repo.GetAdminByID(ctx, p.ID)
		return adm.PasswordHash, err
	}
	return "", ErrNotFound
}

func (svc *service) ChangePassword(ctx context.Context, p Principal, data ChangePassword) error {
	stored, err := svc.storedPassword(ctx, p)
	if err != nil {
		return pkgerrors.Wrap(err, "getting stored password")
	}
	if _, err := CheckPassword(stored, data.OldPassword); err != nil {
		return errWrongPassword
	}
	hash, err := HashPassword(data.Password)
	if err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.SetPassword(ctx, p.Role, p.ID, hash)
}

func (svc *service) ResetPassword(ctx context.Context, role, identifier, pwd string) error {
	var id string
	switch role {
	case RoleStudent:
		st, err := svc.repo.GetStudentByAdmissionID(ctx, core.CleanString(identifier))
		if err != nil {
			return err
		}
		id = st.ID
	case RoleTeacher:
		t, err := svc.repo.GetTeacherByTeacherID(ctx, core.CleanString(identifier))
		if err != nil {
			return err
		}
		id = t.ID
	case RoleAdmin:
		adm, err := svc.repo.GetAdminByEmail(ctx, core.CleanString(identifier, true /* lower */), true)
		if err != nil {
			return err
		}
		id = adm.ID
	default:
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(pwd)
	if err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.SetPassword(ctx, role, id, hash)
}

func (svc *service) EnsureAdmin(ctx context.Context, email, name, pwd string) (Admin, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || pwd == "" {
		return Admin{}, core.NewValidationError(errors.New("email and password are required"))
	}
	hash, err := HashPassword(pwd)
	if err != nil {
		return Admin{}, pkgerrors.Wrap(err, "hashing password")
	}
	now := core.NowFunc().UTC()
	adm, err := svc.repo.UpsertAdmin(ctx, Admin{
		Email:        email,
		Name:         core.CleanString(name),
		Status:       StatusActive,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return adm, pkgerrors.Wrap(err, "upserting admin")
}

func (svc *service) QueryAdmins(ctx context.Context) ([]Admin, error) {
	return svc.repo.QueryAdmins(ctx)
}

func (svc *service) Scope(ctx context.Context, p Principal) (Scope, error) {
	switch p.Role {
	case RoleAdmin:
		return Scope{All: true}, nil
	case RoleTeacher:
		t, err := svc.repo.GetTeacherByID(ctx, p.ID)
		if err != nil {
			return Scope{}, pkgerrors.Wrap(err, "finding teacher")
		}
		return Scope{ClassTeacherOf: t.ClassTeacherOf, Assignments: t.Assignments}, nil
	}
	return Scope{}, nil
}

func (svc *service) ResolveNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	teachers, err := svc.repo.GetNames(ctx, RoleTeacher, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "getting teacher names")
	}
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := teachers[id]; ok {
			names[id] = name
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		admins, err := svc.repo.GetNames(ctx, RoleAdmin, missing)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "getting admin names")
		}
		for id, name := range admins {
			names[id] = name
		}
	}
	return names, nil
}

// Students

func (svc *service) checkAdmissionID(ctx context.Context, admissionID, excludedID string) error {
	if err := svc.repo.CheckAdmissionIDUniqueness(ctx, admissionID, excludedID); err != nil {
		if err == ErrAdmissionIDExists {
			return core.NewFieldError("admission_id", err.Error())
		}
		return err
	}
	return nil
}

func (svc *service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkAdmissionID(ctx, ns.AdmissionID, ""); err != nil {
		return Student{}, err
	}

	status := ns.Status
	if status == "" {
		status = StatusActive
	}
	now := core.NowFunc().UTC()
	cs := ns.ClassSection()
	className, section := school.SplitClassSection(cs)
	st := Student{
		AdmissionID:  ns.AdmissionID,
		Name:         ns.Name,
		Email:        ns.Email,
		Phone:        ns.Phone,
		DOB:          ns.DOB,
		BloodGroup:   ns.BloodGroup,
		ClassName:    className,
		Section:      section,
		ClassSection: cs,
		FatherName:   ns.FatherName,
		MotherName:   ns.MotherName,
		Address:      ns.Address,
		ProfilePhoto: ns.ProfilePhoto,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	hash, err := HashPassword(ns.Password)
	if err != nil {
		return Student{}, pkgerrors.Wrap(err, "hashing password")
	}
	st.PasswordHash = hash

	st, err = svc.repo.CreateStudent(ctx, st)
	return st, pkgerrors.Wrap(err, "creating student")
}

func (svc *service) ImportStudents(ctx context.Context, rows []NewStudent, validate *validator.Validate) (ImportResult, error) {
	res := ImportResult{Created: make([]Student, 0, len(rows)), Errors: make([]ImportError, 0)}
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		rowNum := i + 2 // header is row 1
		fail := func(msg string) {
			res.Errors = append(res.Errors, ImportError{Row: rowNum, AdmissionID: row.AdmissionID, Error: msg})
		}

		if err := row.Validate(validate); err != nil {
			fail(describeValidationErr(err))
			continue
		}
		if seen[row.AdmissionID] {
			fail("duplicate admission ID in file")
			continue
		}
		seen[row.AdmissionID] = true

		st, err := svc.CreateStudent(ctx, row)
		if err != nil {
			var vErr *core.ValidationError
			if errors.As(err, &vErr) {
				fail(vErr.Error())
				continue
			}
			return res, pkgerrors.Wrapf(err, "importing row %d", rowNum)
		}
		res.Created = append(res.Created, st)
	}
	return res, nil
}

func describeValidationErr(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		msgs := make([]string, 0, len(vErrs))
		for _, fe := range vErrs {
			msgs = append(msgs, fmt.Sprintf("%s: invalid %s", fe.Field(), fe.Tag()))
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}

func (svc *service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) QueryStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error) {
	filter.Search = core.CleanString(filter.Search)
	filter.ClassSection = core.CleanString(filter.ClassSection)
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}

	setIf := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	setIf(&st.Name, us.Name)
	setIf(&st.Email, us.Email)
	setIf(&st.Phone, us.Phone)
	setIf(&st.DOB, us.DOB)
	setIf(&st.BloodGroup, us.BloodGroup)
	setIf(&st.FatherName, us.FatherName)
	setIf(&st.MotherName, us.MotherName)
	setIf(&st.Address, us.Address)
	setIf(&st.ProfilePhoto, us.ProfilePhoto)
	setIf(&st.Status, us.Status)

	if us.ClassName != "" || us.Section != "" {
		className, section := st.ClassName, st.Section
		setIf(&className, us.ClassName)
		setIf(&section, us.Section)
		cs := school.ClassSectionName(className, section)
		if !core.IsClassSection(cs) {
			return Student{}, core.NewFieldError("class_section", "invalid class-section, expected a value like 10-A")
		}
		if cs != st.ClassSection {
			st.ClassID = "" // resolved again on the next marks entry
		}
		st.ClassName, st.Section = school.SplitClassSection(cs)
		st.ClassSection = cs
	}
	if us.Password != "" {
		hash, err := HashPassword(us.Password)
		if err != nil {
			return Student{}, pkgerrors.Wrap(err, "hashing password")
		}
		st.PasswordHash = hash
	}
	st.UpdatedAt = core.NowFunc().UTC()

	st, err = svc.repo.UpdateStudent(ctx, st)
	return st, pkgerrors.Wrap(err, "updating student")
}

func (svc *service) UpdateStudentPercentages(ctx context.Context, id string, latest, overall float64) error {
	return svc.repo.UpdateStudentPercentages(ctx, id, latest, overall)
}

func (svc *service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *service) ClassSections(ctx context.Context) ([]string, error) {
	css, err := svc.repo.QueryStudentClassSections(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying class-sections")
	}
	school.SortClassSections(css)
	return css, nil
}

// Teachers

func (svc *service) checkTeacherID(ctx context.Context, teacherID, excludedID string) error {
	if err := svc.repo.CheckTeacherIDUniqueness(ctx, teacherID, excludedID); err != nil {
		if err == ErrTeacherIDExists {
			return core.NewFieldError("teacher_id", err.Error())
		}
		return err
	}
	return nil
}

func (svc *service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := svc.checkTeacherID(ctx, nt.TeacherID, ""); err != nil {
		return Teacher{}, err
	}

	status := nt.Status
	if status == "" {
		status = StatusActive
	}
	now := core.NowFunc().UTC()
	as := assignments(nt.ClassSections)
	t := Teacher{
		TeacherID:      nt.TeacherID,
		Name:           nt.Name,
		Email:          nt.Email,
		Phone:          nt.Phone,
		ProfilePhoto:   nt.ProfilePhoto,
		Status:         status,
		Subjects:       subjectCodes(as),
		Assignments:    as,
		ClassTeacherOf: nt.ClassTeacherOf,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	hash, err := HashPassword(nt.Password)
	if err != nil {
		return Teacher{}, pkgerrors.Wrap(err, "hashing password")
	}
	t.PasswordHash = hash

	t, err = svc.repo.CreateTeacher(ctx, t)
	return t, pkgerrors.Wrap(err, "creating teacher")
}

func (svc *service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) QueryTeachers(ctx context.Context, filter TeacherFilter, ordering []core.DBOrdering) ([]Teacher, error) {
	filter.Search = core.CleanString(filter.Search)
	teachers, err := svc.repo.QueryTeachers(ctx, filter, ordering)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying teachers")
	}
	if len(ordering) == 0 {
		sort.SliceStable(teachers, func(i, j int) bool {
			return strings.ToLower(teachers[i].Name) < strings.ToLower(teachers[j].Name)
		})
	}
	return teachers, nil
}

func (svc *service) UpdateTeacher(ctx context.Context, id string, upd UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}

	setIf := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	setIf(&t.Name, upd.Name)
	setIf(&t.Email, upd.Email)
	setIf(&t.Phone, upd.Phone)
	setIf(&t.ProfilePhoto, upd.ProfilePhoto)
	setIf(&t.Status, upd.Status)

	replace := upd.ClassSections != nil
	if replace {
		t.Assignments = assignments(upd.ClassSections)
		t.Subjects = subjectCodes(t.Assignments)
		t.ClassTeacherOf = upd.ClassTeacherOf
	} else if upd.ClassTeacherOf != "" {
		if !t.AssignedTo(upd.ClassTeacherOf) {
			return Teacher{}, core.NewFieldError("class_teacher_of", errClassTeacherScope)
		}
		t.ClassTeacherOf = upd.ClassTeacherOf
		replace = true
	}
	if upd.Password != "" {
		hash, err := HashPassword(upd.Password)
		if err != nil {
			return Teacher{}, pkgerrors.Wrap(err, "hashing password")
		}
		t.PasswordHash = hash
	}
	t.UpdatedAt = core.NowFunc().UTC()

	t, err = svc.repo.UpdateTeacher(ctx, t, replace)
	return t, pkgerrors.Wrap(err, "updating teacher")
}

func (svc *service) DeleteTeacher(ctx context.Context, id string) error {
	return svc.repo.DeleteTeacher(ctx, id)
}
