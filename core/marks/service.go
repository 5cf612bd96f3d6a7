package marks

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/school"
	"github.com/trezcool/vidyalaya/core/user"
)

type (
	Repository interface {
		QueryMarks(ctx context.Context, filter Filter) ([]Mark, error)
		// SaveMarks inserts the marks without ID, updates the others and records `history`, atomically.
		SaveMarks(ctx context.Context, marks []Mark, history []History) ([]Mark, error)
		QueryHistory(ctx context.Context, studentID string) ([]History, error)
	}

	// Directory gives access to the students and to the scope of the acting user.
	Directory interface {
		GetStudent(ctx context.Context, id string) (user.Student, error)
		QueryStudents(ctx context.Context, filter user.StudentFilter, ordering []core.DBOrdering) ([]user.Student, error)
		Scope(ctx context.Context, p user.Principal) (user.Scope, error)
		UpdateStudentPercentages(ctx context.Context, id string, latest, overall float64) error
	}

	Service interface {
		Sheet(ctx context.Context, actor user.Principal, studentID, exam string) (Sheet, error)
		Save(ctx context.Context, actor user.Principal, data SaveMarks) (Sheet, error)
		StudentMarks(ctx context.Context, actor user.Principal, studentID string) ([]Mark, error)
		History(ctx context.Context, actor user.Principal, studentID string) ([]History, error)
		Summary(ctx context.Context, studentID string) (Summary, error)
		// Percentages returns the percentage of each student over the marks of `exam` and/or `subject`.
		Percentages(ctx context.Context, studentIDs []string, exam, subject string) (map[string]float64, error)
		ClassMarks(ctx context.Context, actor user.Principal, classSection, exam string) (ClassMarks, error)
		ReportCard(ctx context.Context, actor user.Principal, studentID string) (ReportCard, error)
		// RefreshPercentages recomputes the stored latest & overall percentages of every student.
		RefreshPercentages(ctx context.Context) (int, error)
	}

	service struct {
		repo      Repository
		dir       Directory
		schoolSvc school.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, dir Directory, schoolSvc school.Service) Service {
	return &service{repo: repo, dir: dir, schoolSvc: schoolSvc}
}

func sheetStudent(st user.Student) SheetStudent {
	return SheetStudent{ID: st.ID, AdmissionID: st.AdmissionID, Name: st.Name, ClassSection: st.ClassSection}
}

// staffStudent loads a student the actor may manage marks for.
func (svc *service) staffStudent(ctx context.Context, actor user.Principal, studentID string) (user.Student, user.Scope, error) {
	if !actor.IsStaff() {
		return user.Student{}, user.Scope{}, ErrPermissionDenied
	}
	st, err := svc.dir.GetStudent(ctx, studentID)
	if err != nil {
		return user.Student{}, user.Scope{}, err
	}
	scope, err := svc.dir.Scope(ctx, actor)
	if err != nil {
		return user.Student{}, user.Scope{}, errors.Wrap(err, "getting scope")
	}
	if !scope.CanAccessClassSection(st.ClassSection) {
		return user.Student{}, user.Scope{}, ErrPermissionDenied
	}
	return st, scope, nil
}

// canView reports whether the actor may read the marks of `studentID`.
func (svc *service) canView(ctx context.Context, actor user.Principal, studentID string) error {
	if actor.IsStudent() {
		if actor.ID != studentID {
			return ErrPermissionDenied
		}
		return nil
	}
	_, _, err := svc.staffStudent(ctx, actor, studentID)
	return err
}

// gradableSubjects returns the subjects of the student's class the scope may grade, by ID.
func (svc *service) gradableSubjects(ctx context.Context, st user.Student, scope user.Scope) ([]school.Subject, error) {
	n, _ := school.ClassNumberOf(st.ClassSection)
	subjects, err := svc.schoolSvc.Subjects(ctx, n)
	if err != nil {
		return nil, err
	}
	gradable := make([]school.Subject, 0, len(subjects))
	for _, s := range subjects {
		if scope.CanTeach(st.ClassSection, s.Name) || scope.CanTeach(st.ClassSection, s.Code) {
			gradable = append(gradable, s)
		}
	}
	return gradable, nil
}

func (svc *service) Sheet(ctx context.Context, actor user.Principal, studentID, exam string) (Sheet, error) {
	exam, ok := NormalizeExamType(exam)
	if !ok {
		return Sheet{}, core.NewFieldError("exam_type", "invalid exam type")
	}
	st, scope, err := svc.staffStudent(ctx, actor, studentID)
	if err != nil {
		return Sheet{}, err
	}
	return svc.sheet(ctx, st, scope, exam)
}

func (svc *service) sheet(ctx context.Context, st user.Student, scope user.Scope, exam string) (Sheet, error) {
	subjects, err := svc.gradableSubjects(ctx, st, scope)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "getting subjects")
	}
	existing, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: []string{st.ID}, ExamType: exam})
	if err != nil {
		return Sheet{}, errors.Wrap(err, "querying marks")
	}
	bySubject := make(map[string]Mark, len(existing))
	for _, m := range existing {
		bySubject[m.SubjectID] = m
	}

	n, _ := school.ClassNumberOf(st.ClassSection)
	sheet := Sheet{
		Student:  sheetStudent(st),
		ExamType: exam,
		MaxMarks: MaxMarksFor(exam, n),
		Rows:     make([]SheetRow, 0, len(subjects)),
	}
	for _, subj := range subjects {
		row := SheetRow{SubjectID: subj.ID, Subject: subj.Name, Code: subj.Code, TotalMarks: sheet.MaxMarks}
		if m, ok := bySubject[subj.ID]; ok {
			obtained := m.MarksObtained
			row.MarkID = m.ID
			row.MarksObtained = &obtained
			row.TotalMarks = m.TotalMarks
			row.Remarks = m.Remarks
			sheet.TotalObtained += m.MarksObtained
			sheet.TotalPossible += m.TotalMarks
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	sheet.Percentage = int(math.Round(Percentage(sheet.TotalObtained, sheet.TotalPossible)))
	return sheet, nil
}

func (svc *service) Save(ctx context.Context, actor user.Principal, data SaveMarks) (Sheet, error) {
	exam, ok := NormalizeExamType(data.ExamType)
	if !ok {
		return Sheet{}, core.NewFieldError("exam_type", "invalid exam type")
	}
	st, scope, err := svc.staffStudent(ctx, actor, data.StudentID)
	if err != nil {
		return Sheet{}, err
	}

	subjects, err := svc.gradableSubjects(ctx, st, scope)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "getting subjects")
	}
	gradable := make(map[string]school.Subject, len(subjects))
	for _, s := range subjects {
		gradable[s.ID] = s
	}

	existing, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: []string{st.ID}, ExamType: exam})
	if err != nil {
		return Sheet{}, errors.Wrap(err, "querying marks")
	}
	bySubject := make(map[string]Mark, len(existing))
	for _, m := range existing {
		bySubject[m.SubjectID] = m
	}

	classID := st.ClassID
	if classID == "" {
		cs, err := svc.schoolSvc.FindClassBySection(ctx, st.ClassSection)
		if err != nil && err != school.ErrClassNotFound {
			return Sheet{}, errors.Wrap(err, "finding class")
		}
		classID = cs.ID
	}

	n, _ := school.ClassNumberOf(st.ClassSection)
	max := MaxMarksFor(exam, n)
	now := core.NowFunc().UTC()
	toSave := make([]Mark, 0, len(data.Entries))
	history := make([]History, 0)

	for _, e := range data.Entries {
		subj, ok := gradable[e.SubjectID]
		if !ok {
			return Sheet{}, core.NewFieldError("entries", fmt.Sprintf("subject %s cannot be graded for this student", e.SubjectID))
		}
		obtained := Clamp(e.MarksObtained, max)
		remarks := core.CleanString(e.Remarks)

		if m, ok := bySubject[subj.ID]; ok {
			if m.MarksObtained == obtained && m.Remarks == remarks && m.TotalMarks == max {
				continue
			}
			if m.MarksObtained != obtained {
				history = append(history, History{
					MarkID:    m.ID,
					StudentID: st.ID,
					SubjectID: subj.ID,
					ExamType:  exam,
					OldMarks:  m.MarksObtained,
					NewMarks:  obtained,
					UpdatedBy: actor.ID,
					CreatedAt: now,
				})
			}
			m.MarksObtained = obtained
			m.TotalMarks = max
			m.Remarks = remarks
			m.UpdatedBy = actor.ID
			m.UpdatedAt = now
			toSave = append(toSave, m)
			continue
		}

		toSave = append(toSave, Mark{
			StudentID:     st.ID,
			ClassID:       classID,
			SubjectID:     subj.ID,
			Subject:       subj.Name,
			ExamType:      exam,
			MarksObtained: obtained,
			TotalMarks:    max,
			Remarks:       remarks,
			CreatedBy:     actor.ID,
			UpdatedBy:     actor.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if len(toSave) > 0 {
		if _, err := svc.repo.SaveMarks(ctx, toSave, history); err != nil {
			return Sheet{}, errors.Wrap(err, "saving marks")
		}
		if err := svc.refreshStudent(ctx, st); err != nil {
			return Sheet{}, err
		}
	}
	return svc.sheet(ctx, st, scope, exam)
}

func (svc *service) refreshStudent(ctx context.Context, st user.Student) error {
	ms, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: []string{st.ID}})
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	sum := Summarize(ms)
	if err := svc.dir.UpdateStudentPercentages(ctx, st.ID, sum.LatestPercentage, sum.OverallPercentage); err != nil {
		return errors.Wrap(err, "updating student percentages")
	}
	return nil
}

func (svc *service) StudentMarks(ctx context.Context, actor user.Principal, studentID string) ([]Mark, error) {
	if err := svc.canView(ctx, actor, studentID); err != nil {
		return nil, err
	}
	ms, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: []string{studentID}})
	if err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	sort.SliceStable(ms, func(i, j int) bool {
		ii, ij := ExamIndex(ms[i].ExamType), ExamIndex(ms[j].ExamType)
		if ii != ij {
			return ii < ij
		}
		return ms[i].Subject < ms[j].Subject
	})
	return ms, nil
}

func (svc *service) History(ctx context.Context, actor user.Principal, studentID string) ([]History, error) {
	if err := svc.canView(ctx, actor, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryHistory(ctx, studentID)
}

func (svc *service) Summary(ctx context.Context, studentID string) (Summary, error) {
	ms, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: []string{studentID}})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying marks")
	}
	return Summarize(ms), nil
}

func (svc *service) Percentages(ctx context.Context, studentIDs []string, exam, subject string) (map[string]float64, error) {
	if len(studentIDs) == 0 {
		return map[string]float64{}, nil
	}
	if exam != "" {
		var ok bool
		if exam, ok = NormalizeExamType(exam); !ok {
			return nil, core.NewFieldError("exam", "invalid exam type")
		}
	}
	ms, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: studentIDs, ExamType: exam})
	if err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	return StudentPercentages(ms, exam, subject), nil
}

func (svc *service) ClassMarks(ctx context.Context, actor user.Principal, classSection, exam string) (ClassMarks, error) {
	exam, ok := NormalizeExamType(exam)
	if !ok {
		return ClassMarks{}, core.NewFieldError("exam_type", "invalid exam type")
	}
	if !actor.IsStaff() {
		return ClassMarks{}, ErrPermissionDenied
	}
	scope, err := svc.dir.Scope(ctx, actor)
	if err != nil {
		return ClassMarks{}, errors.Wrap(err, "getting scope")
	}
	if !scope.CanAccessClassSection(classSection) {
		return ClassMarks{}, ErrPermissionDenied
	}

	students, err := svc.dir.QueryStudents(ctx, user.StudentFilter{ClassSection: classSection}, nil)
	if err != nil {
		return ClassMarks{}, errors.Wrap(err, "querying students")
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].Name < students[j].Name })

	n, _ := school.ClassNumberOf(classSection)
	cm := ClassMarks{
		ClassSection: classSection,
		ExamType:     exam,
		MaxMarks:     MaxMarksFor(exam, n),
		Subjects:     make([]string, 0),
		Rows:         make([]ClassMarksRow, 0, len(students)),
	}
	if len(students) == 0 {
		return cm, nil
	}

	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	ms, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: ids, ExamType: exam})
	if err != nil {
		return ClassMarks{}, errors.Wrap(err, "querying marks")
	}

	byStudent := make(map[string][]Mark, len(students))
	seenSubj := make(map[string]bool)
	for _, m := range ms {
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
		if !seenSubj[m.Subject] {
			seenSubj[m.Subject] = true
			cm.Subjects = append(cm.Subjects, m.Subject)
		}
	}
	sort.Strings(cm.Subjects)

	for _, st := range students {
		row := ClassMarksRow{Student: sheetStudent(st), Marks: make(map[string]float64)}
		for _, m := range byStudent[st.ID] {
			row.Marks[m.Subject] = m.MarksObtained
			row.TotalObtained += m.MarksObtained
			row.TotalPossible += m.TotalMarks
		}
		row.Percentage = core.Round(Percentage(row.TotalObtained, row.TotalPossible), 2)
		cm.Rows = append(cm.Rows, row)
	}
	return cm, nil
}

func (svc *service) ReportCard(ctx context.Context, actor user.Principal, studentID string) (ReportCard, error) {
	if err := svc.canView(ctx, actor, studentID); err != nil {
		return ReportCard{}, err
	}
	st, err := svc.dir.GetStudent(ctx, studentID)
	if err != nil {
		return ReportCard{}, err
	}
	ms, err := svc.repo.QueryMarks(ctx, Filter{StudentIDs: []string{studentID}})
	if err != nil {
		return ReportCard{}, errors.Wrap(err, "querying marks")
	}
	return ReportCard{
		Student: sheetStudent(st),
		Exams:   ExamResults(ms),
		Summary: Summarize(ms),
	}, nil
}

func (svc *service) RefreshPercentages(ctx context.Context) (int, error) {
	students, err := svc.dir.QueryStudents(ctx, user.StudentFilter{}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying students")
	}
	ms, err := svc.repo.QueryMarks(ctx, Filter{})
	if err != nil {
		return 0, errors.Wrap(err, "querying marks")
	}
	byStudent := make(map[string][]Mark, len(students))
	for _, m := range ms {
		byStudent[m.StudentID] = append(byStudent[m.StudentID], m)
	}

	var updated int
	for _, st := range students {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		sum := Summarize(byStudent[st.ID])
		if sum.LatestPercentage == st.LatestPercentage && sum.OverallPercentage == st.OverallPercentage {
			continue
		}
		if err := svc.dir.UpdateStudentPercentages(ctx, st.ID, sum.LatestPercentage, sum.OverallPercentage); err != nil {
			return updated, errors.Wrapf(err, "updating percentages of %s", st.AdmissionID)
		}
		updated++
	}
	return updated, nil
}
