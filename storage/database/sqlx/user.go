package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

const (
	adminColumns   = `id, email, name, status, password_hash, created_at, updated_at`
	studentColumns = `id, admission_id, name, email, phone, dob::text AS dob, blood_group, class_name, section,
		class_section, class_id::text AS class_id, father_name, mother_name, address, profile_photo, status,
		password_hash, latest_percentage, overall_percentage, created_at, updated_at`
	teacherColumns = `id, teacher_id, name, email, phone, subjects, status, profile_photo, password_hash,
		created_at, updated_at`
)

var (
	userTables = map[string]string{
		user.RoleAdmin:   "admins",
		user.RoleTeacher: "teachers",
		user.RoleStudent: "students",
	}

	studentOrderings = map[string]string{
		"name":               "lower(name)",
		"admission_id":       "lower(admission_id)",
		"class_section":      "class_section",
		"status":             "status",
		"latest_percentage":  "latest_percentage",
		"overall_percentage": "overall_percentage",
		"created_at":         "created_at",
	}
	teacherOrderings = map[string]string{
		"name":       "lower(name)",
		"teacher_id": "lower(teacher_id)",
		"email":      "lower(email)",
		"status":     "status",
		"created_at": "created_at",
	}
)

type (
	adminRow struct {
		ID           string    `db:"id"`
		Email        string    `db:"email"`
		Name         string    `db:"name"`
		Status       string    `db:"status"`
		PasswordHash string    `db:"password_hash"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	studentRow struct {
		ID                string      `db:"id"`
		AdmissionID       string      `db:"admission_id"`
		Name              string      `db:"name"`
		Email             null.String `db:"email"`
		Phone             null.String `db:"phone"`
		DOB               null.String `db:"dob"`
		BloodGroup        null.String `db:"blood_group"`
		ClassName         string      `db:"class_name"`
		Section           string      `db:"section"`
		ClassSection      string      `db:"class_section"`
		ClassID           null.String `db:"class_id"`
		FatherName        null.String `db:"father_name"`
		MotherName        null.String `db:"mother_name"`
		Address           null.String `db:"address"`
		ProfilePhoto      null.String `db:"profile_photo"`
		Status            string      `db:"status"`
		PasswordHash      string      `db:"password_hash"`
		LatestPercentage  float64     `db:"latest_percentage"`
		OverallPercentage float64     `db:"overall_percentage"`
		CreatedAt         time.Time   `db:"created_at"`
		UpdatedAt         time.Time   `db:"updated_at"`
	}

	teacherRow struct {
		ID           string         `db:"id"`
		TeacherID    string         `db:"teacher_id"`
		Name         string         `db:"name"`
		Email        null.String    `db:"email"`
		Phone        null.String    `db:"phone"`
		Subjects     pq.StringArray `db:"subjects"`
		Status       string         `db:"status"`
		ProfilePhoto null.String    `db:"profile_photo"`
		PasswordHash string         `db:"password_hash"`
		CreatedAt    time.Time      `db:"created_at"`
		UpdatedAt    time.Time      `db:"updated_at"`
	}

	assignmentRow struct {
		TeacherID    string `db:"teacher_id"`
		ClassSection string `db:"class_section"`
		Subject      string `db:"subject"`
	}

	nameRow struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
)

func (row adminRow) admin() user.Admin {
	return user.Admin(row)
}

func newStudentRow(st user.Student) studentRow {
	return studentRow{
		ID:                st.ID,
		AdmissionID:       st.AdmissionID,
		Name:              st.Name,
		Email:             nullString(st.Email),
		Phone:             nullString(st.Phone),
		DOB:               nullString(st.DOB),
		BloodGroup:        nullString(st.BloodGroup),
		ClassName:         st.ClassName,
		Section:           st.Section,
		ClassSection:      st.ClassSection,
		ClassID:           nullString(st.ClassID),
		FatherName:        nullString(st.FatherName),
		MotherName:        nullString(st.MotherName),
		Address:           nullString(st.Address),
		ProfilePhoto:      nullString(st.ProfilePhoto),
		Status:            st.Status,
		PasswordHash:      st.PasswordHash,
		LatestPercentage:  st.LatestPercentage,
		OverallPercentage: st.OverallPercentage,
		CreatedAt:         st.CreatedAt.UTC(),
		UpdatedAt:         st.UpdatedAt.UTC(),
	}
}

func (row studentRow) student() user.Student {
	return user.Student{
		ID:                row.ID,
		AdmissionID:       row.AdmissionID,
		Name:              row.Name,
		Email:             row.Email.String,
		Phone:             row.Phone.String,
		DOB:               row.DOB.String,
		BloodGroup:        row.BloodGroup.String,
		ClassName:         row.ClassName,
		Section:           row.Section,
		ClassSection:      row.ClassSection,
		ClassID:           row.ClassID.String,
		FatherName:        row.FatherName.String,
		MotherName:        row.MotherName.String,
		Address:           row.Address.String,
		ProfilePhoto:      row.ProfilePhoto.String,
		Status:            row.Status,
		PasswordHash:      row.PasswordHash,
		LatestPercentage:  row.LatestPercentage,
		OverallPercentage: row.OverallPercentage,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func newTeacherRow(t user.Teacher) teacherRow {
	subjects := t.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return teacherRow{
		ID:           t.ID,
		TeacherID:    t.TeacherID,
		Name:         t.Name,
		Email:        nullString(t.Email),
		Phone:        nullString(t.Phone),
		Subjects:     subjects,
		Status:       t.Status,
		ProfilePhoto: nullString(t.ProfilePhoto),
		PasswordHash: t.PasswordHash,
		CreatedAt:    t.CreatedAt.UTC(),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
}

func (row teacherRow) teacher() user.Teacher {
	return user.Teacher{
		ID:           row.ID,
		TeacherID:    row.TeacherID,
		Name:         row.Name,
		Email:        row.Email.String,
		Phone:        row.Phone.String,
		Subjects:     row.Subjects,
		Status:       row.Status,
		ProfilePhoto: row.ProfilePhoto.String,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type userRepository struct {
	repo
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{repo{db: db}}
}

// Admins

func (r *userRepository) GetAdminByID(ctx context.Context, id string) (user.Admin, error) {
	if !validID(id) {
		return user.Admin{}, user.ErrAdminNotFound
	}
	var row adminRow
	err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	if err != nil {
		return user.Admin{}, trapNoRowsErr(err, user.ErrAdminNotFound, "finding admin by ID")
	}
	return row.admin(), nil
}

func (r *userRepository) GetAdminByEmail(ctx context.Context, email string, caseInsensitive bool) (user.Admin, error) {
	q := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`
	if caseInsensitive {
		q = `SELECT ` + adminColumns + ` FROM admins WHERE lower(email) = lower($1) ORDER BY created_at LIMIT 1`
	}
	var row adminRow
	if err := sqlx.GetContext(ctx, r.db, &row, q, email); err != nil {
		return user.Admin{}, trapNoRowsErr(err, user.ErrAdminNotFound, "finding admin by email")
	}
	return row.admin(), nil
}

func (r *userRepository) UpsertAdmin(ctx context.Context, adm user.Admin) (user.Admin, error) {
	adm.ID = newID()
	q := `INSERT INTO admins (` + adminColumns + `)
		VALUES (:id, :email, :name, :status, :password_hash, :created_at, :updated_at)
		ON CONFLICT (email) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name = '' THEN admins.name ELSE EXCLUDED.name END,
			status = EXCLUDED.status,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + adminColumns
	rows, err := sqlx.NamedQueryContext(ctx, r.db, q, adminRow(adm))
	if err != nil {
		return user.Admin{}, errors.Wrap(err, "upserting admin")
	}
	defer func() { _ = rows.Close() }()

	var row adminRow
	if rows.Next() {
		if err := rows.StructScan(&row); err != nil {
			return user.Admin{}, errors.Wrap(err, "scanning admin")
		}
	}
	return row.admin(), errors.Wrap(rows.Err(), "upserting admin")
}

func (r *userRepository) QueryAdmins(ctx context.Context) ([]user.Admin, error) {
	rows := make([]adminRow, 0)
	if err := sqlx.SelectContext(ctx, r.db, &rows, `SELECT `+adminColumns+` FROM admins ORDER BY lower(name)`); err != nil {
		return nil, errors.Wrap(err, "querying admins")
	}
	admins := make([]user.Admin, 0, len(rows))
	for _, row := range rows {
		admins = append(admins, row.admin())
	}
	return admins, nil
}

// Students

func (r *userRepository) CheckAdmissionIDUniqueness(ctx context.Context, admissionID, excludedID string) error {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM students WHERE lower(admission_id) = lower($1) AND id::text <> $2)`
	if err := sqlx.GetContext(ctx, r.db, &exists, q, admissionID, excludedID); err != nil {
		return errors.Wrap(err, "checking admission ID uniqueness")
	}
	if exists {
		return user.ErrAdmissionIDExists
	}
	return nil
}

func (r *userRepository) CreateStudent(ctx context.Context, st user.Student) (user.Student, error) {
	st.ID = newID()
	q := `INSERT INTO students (id, admission_id, name, email, phone, dob, blood_group, class_name, section,
			class_section, class_id, father_name, mother_name, address, profile_photo, status, password_hash,
			latest_percentage, overall_percentage, created_at, updated_at)
		VALUES (:id, :admission_id, :name, :email, :phone, :dob, :blood_group, :class_name, :section,
			:class_section, :class_id, :father_name, :mother_name, :address, :profile_photo, :status, :password_hash,
			:latest_percentage, :overall_percentage, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, newStudentRow(st)); err != nil {
		return user.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (r *userRepository) getStudent(ctx context.Context, cond string, arg interface{}) (user.Student, error) {
	var row studentRow
	if err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+studentColumns+` FROM students WHERE `+cond, arg); err != nil {
		return user.Student{}, trapNoRowsErr(err, user.ErrStudentNotFound, "finding student")
	}
	return row.student(), nil
}

func (r *userRepository) GetStudentByID(ctx context.Context, id string) (user.Student, error) {
	if !validID(id) {
		return user.Student{}, user.ErrStudentNotFound
	}
	return r.getStudent(ctx, `id = $1`, id)
}

func (r *userRepository) GetStudentByAdmissionID(ctx context.Context, admissionID string) (user.Student, error) {
	return r.getStudent(ctx, `lower(admission_id) = lower($1)`, admissionID)
}

func (r *userRepository) QueryStudents(ctx context.Context, filter user.StudentFilter, ordering []core.DBOrdering) ([]user.Student, error) {
	var w where
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add(`(name ILIKE %[1]s OR admission_id ILIKE %[1]s OR class_section ILIKE %[1]s)`, val)
	}
	if filter.ClassSection != "" {
		w.add(`class_section = %s`, filter.ClassSection)
	}
	if filter.Status != "" {
		w.add(`status = %s`, filter.Status)
	}
	if filter.ClassSections != nil {
		w.add(`class_section = ANY(%s)`, pq.Array(filter.ClassSections))
	}
	if filter.IDs != nil {
		w.add(`id::text = ANY(%s)`, pq.Array(filter.IDs))
	}

	q := `SELECT ` + studentColumns + ` FROM students` + w.String() +
		core.OrderBy(ordering, studentOrderings, core.DBOrdering{Field: "lower(name)", Ascending: true})
	rows := make([]studentRow, 0)
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]user.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (r *userRepository) UpdateStudent(ctx context.Context, st user.Student) (user.Student, error) {
	q := `UPDATE students SET name = :name, email = :email, phone = :phone, dob = :dob, blood_group = :blood_group,
			class_name = :class_name, section = :section, class_section = :class_section, class_id = :class_id,
			father_name = :father_name, mother_name = :mother_name, address = :address,
			profile_photo = :profile_photo, status = :status, password_hash = :password_hash,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, q, newStudentRow(st))
	if err := checkAffected(res, err, user.ErrStudentNotFound, "updating student"); err != nil {
		return user.Student{}, err
	}
	return r.GetStudentByID(ctx, st.ID)
}

func (r *userRepository) UpdateStudentPercentages(ctx context.Context, id string, latest, overall float64) error {
	if !validID(id) {
		return user.ErrStudentNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE students SET latest_percentage = $2, overall_percentage = $3 WHERE id = $1`, id, latest, overall)
	return checkAffected(res, err, user.ErrStudentNotFound, "updating student percentages")
}

func (r *userRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrStudentNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	return checkAffected(res, err, user.ErrStudentNotFound, "deleting student")
}

func (r *userRepository) QueryStudentClassSections(ctx context.Context) ([]string, error) {
	css := make([]string, 0)
	q := `SELECT DISTINCT class_section FROM students WHERE class_section <> ''`
	if err := sqlx.SelectContext(ctx, r.db, &css, q); err != nil {
		return nil, errors.Wrap(err, "querying class-sections")
	}
	return css, nil
}

// Teachers

func (r *userRepository) CheckTeacherIDUniqueness(ctx context.Context, teacherID, excludedID string) error {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM teachers WHERE lower(teacher_id) = lower($1) AND id::text <> $2)`
	if err := sqlx.GetContext(ctx, r.db, &exists, q, teacherID, excludedID); err != nil {
		return errors.Wrap(err, "checking teacher ID uniqueness")
	}
	if exists {
		return user.ErrTeacherIDExists
	}
	return nil
}

// saveAssignments replaces the assignments & class-section of a teacher.
func (r *userRepository) saveAssignments(ctx context.Context, tx *sqlx.Tx, t user.Teacher) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_class_sections WHERE teacher_id = $1`, t.ID); err != nil {
		return errors.Wrap(err, "clearing assignments")
	}
	for _, a := range t.Assignments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO teacher_class_sections (teacher_id, class_section, subject) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			t.ID, a.ClassSection, a.Subject)
		if err != nil {
			return errors.Wrap(err, "inserting assignment")
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_teachers WHERE teacher_id = $1`, t.ID); err != nil {
		return errors.Wrap(err, "clearing class teacher")
	}
	if t.ClassTeacherOf != "" {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO class_teachers (class_section, teacher_id) VALUES ($1, $2)
			ON CONFLICT (class_section) DO UPDATE SET teacher_id = EXCLUDED.teacher_id`,
			t.ClassTeacherOf, t.ID)
		if err != nil {
			return errors.Wrap(err, "upserting class teacher")
		}
	}
	return nil
}

func (r *userRepository) CreateTeacher(ctx context.Context, t user.Teacher) (user.Teacher, error) {
	t.ID = newID()
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `INSERT INTO teachers (` + teacherColumns + `)
			VALUES (:id, :teacher_id, :name, :email, :phone, :subjects, :status, :profile_photo, :password_hash,
				:created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(ctx, tx, q, newTeacherRow(t)); err != nil {
			return errors.Wrap(err, "inserting teacher")
		}
		return r.saveAssignments(ctx, tx, t)
	})
	if err != nil {
		return user.Teacher{}, err
	}
	return t, nil
}

// loadAssignments sets the Assignments & ClassTeacherOf of `teachers`.
func (r *userRepository) loadAssignments(ctx context.Context, teachers []user.Teacher) error {
	if len(teachers) == 0 {
		return nil
	}
	ids := make([]string, 0, len(teachers))
	idx := make(map[string]int, len(teachers))
	for i, t := range teachers {
		ids = append(ids, t.ID)
		idx[t.ID] = i
		teachers[i].Assignments = make([]user.Assignment, 0)
	}

	rows := make([]assignmentRow, 0)
	q := `SELECT teacher_id::text AS teacher_id, class_section, subject FROM teacher_class_sections
		WHERE teacher_id::text = ANY($1) ORDER BY class_section, subject`
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	for _, row := range rows {
		i := idx[row.TeacherID]
		teachers[i].Assignments = append(teachers[i].Assignments, user.Assignment{ClassSection: row.ClassSection, Subject: row.Subject})
	}

	cts := make([]assignmentRow, 0)
	q = `SELECT teacher_id::text AS teacher_id, class_section, '' AS subject FROM class_teachers WHERE teacher_id::text = ANY($1)`
	if err := sqlx.SelectContext(ctx, r.db, &cts, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "querying class teachers")
	}
	for _, row := range cts {
		teachers[idx[row.TeacherID]].ClassTeacherOf = row.ClassSection
	}
	return nil
}

func (r *userRepository) getTeacher(ctx context.Context, cond string, arg interface{}) (user.Teacher, error) {
	var row teacherRow
	if err := sqlx.GetContext(ctx, r.db, &row, `SELECT `+teacherColumns+` FROM teachers WHERE `+cond, arg); err != nil {
		return user.Teacher{}, trapNoRowsErr(err, user.ErrTeacherNotFound, "finding teacher")
	}
	teachers := []user.Teacher{row.teacher()}
	if err := r.loadAssignments(ctx, teachers); err != nil {
		return user.Teacher{}, err
	}
	return teachers[0], nil
}

func (r *userRepository) GetTeacherByID(ctx context.Context, id string) (user.Teacher, error) {
	if !validID(id) {
		return user.Teacher{}, user.ErrTeacherNotFound
	}
	return r.getTeacher(ctx, `id = $1`, id)
}

func (r *userRepository) GetTeacherByTeacherID(ctx context.Context, teacherID string) (user.Teacher, error) {
	return r.getTeacher(ctx, `lower(teacher_id) = lower($1)`, teacherID)
}

func (r *userRepository) QueryTeachers(ctx context.Context, filter user.TeacherFilter, ordering []core.DBOrdering) ([]user.Teacher, error) {
	var w where
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add(`(name ILIKE %[1]s OR teacher_id ILIKE %[1]s OR email ILIKE %[1]s)`, val)
	}
	if filter.Status != "" {
		w.add(`status = %s`, filter.Status)
	}

	q := `SELECT ` + teacherColumns + ` FROM teachers` + w.String() + core.OrderBy(ordering, teacherOrderings)
	rows := make([]teacherRow, 0)
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]user.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.teacher())
	}
	if err := r.loadAssignments(ctx, teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

func (r *userRepository) UpdateTeacher(ctx context.Context, t user.Teacher, replaceAssignments bool) (user.Teacher, error) {
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		q := `UPDATE teachers SET name = :name, email = :email, phone = :phone, subjects = :subjects,
				status = :status, profile_photo = :profile_photo, password_hash = :password_hash,
				updated_at = :updated_at
			WHERE id = :id`
		res, err := sqlx.NamedExecContext(ctx, tx, q, newTeacherRow(t))
		if err := checkAffected(res, err, user.ErrTeacherNotFound, "updating teacher"); err != nil {
			return err
		}
		if replaceAssignments {
			return r.saveAssignments(ctx, tx, t)
		}
		return nil
	})
	if err != nil {
		return user.Teacher{}, err
	}
	return r.GetTeacherByID(ctx, t.ID)
}

func (r *userRepository) DeleteTeacher(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrTeacherNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	return checkAffected(res, err, user.ErrTeacherNotFound, "deleting teacher")
}

// Any role

func (r *userRepository) SetPassword(ctx context.Context, role, id, hash string) error {
	table, ok := userTables[role]
	if !ok || !validID(id) {
		return user.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, core.NowFunc().UTC())
	return checkAffected(res, err, user.ErrNotFound, "setting password")
}

func (r *userRepository) GetNames(ctx context.Context, role string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	table, ok := userTables[role]
	if !ok || len(ids) == 0 {
		return names, nil
	}
	rows := make([]nameRow, 0)
	q := `SELECT id::text AS id, name FROM ` + table + ` WHERE id::text = ANY($1)`
	if err := sqlx.SelectContext(ctx, r.db, &rows, q, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "getting names")
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
