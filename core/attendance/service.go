package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

type (
	Repository interface {
		QueryRecords(ctx context.Context, filter Filter) ([]Record, error)
		// UpsertRecords inserts or updates records on (student_id, date), atomically.
		UpsertRecords(ctx context.Context, records []Record) error
	}

	Directory interface {
		GetStudent(ctx context.Context, id string) (user.Student, error)
		QueryStudents(ctx context.Context, filter user.StudentFilter, ordering []core.DBOrdering) ([]user.Student, error)
		Scope(ctx context.Context, p user.Principal) (user.Scope, error)
	}

	Service interface {
		Save(ctx context.Context, actor user.Principal, data SaveAttendance) (Day, error)
		Day(ctx context.Context, actor user.Principal, classSection, date string) (Day, error)
		History(ctx context.Context, actor user.Principal, classSection string, days int) (History, error)
		// StudentPercentage returns the attendance percentage of a student over the last `days` days.
		StudentPercentage(ctx context.Context, studentID string, days int) (int, error)
		// StudentRecords returns the records of a student between `from` and `to` (inclusive), most recent first.
		StudentRecords(ctx context.Context, actor user.Principal, studentID, from, to string) ([]Record, error)
	}

	service struct {
		repo Repository
		dir  Directory
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, dir Directory) Service {
	return &service{repo: repo, dir: dir}
}

func (svc *service) authorize(ctx context.Context, actor user.Principal, classSection string) error {
	if !actor.IsStaff() {
		return ErrPermissionDenied
	}
	scope, err := svc.dir.Scope(ctx, actor)
	if err != nil {
		return errors.Wrap(err, "getting scope")
	}
	if !scope.CanAccessClassSection(classSection) {
		return ErrPermissionDenied
	}
	return nil
}

func (svc *service) classStudents(ctx context.Context, classSection string) ([]user.Student, error) {
	students, err := svc.dir.QueryStudents(ctx, user.StudentFilter{ClassSection: classSection, Status: user.StatusActive}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

func dayStudents(students []user.Student) []DayStudent {
	out := make([]DayStudent, 0, len(students))
	for _, st := range students {
		out = append(out, DayStudent{StudentID: st.ID, AdmissionID: st.AdmissionID, Name: st.Name})
	}
	return out
}

func (svc *service) Save(ctx context.Context, actor user.Principal, data SaveAttendance) (Day, error) {
	if data.Date > core.Today() {
		return Day{}, ErrFutureDate
	}
	if err := svc.authorize(ctx, actor, data.ClassSection); err != nil {
		return Day{}, err
	}

	students, err := svc.classStudents(ctx, data.ClassSection)
	if err != nil {
		return Day{}, err
	}
	inClass := make(map[string]bool, len(students))
	for _, st := range students {
		inClass[st.ID] = true
	}

	now := core.NowFunc().UTC()
	records := make([]Record, 0, len(data.Entries))
	seen := make(map[string]bool, len(data.Entries))
	for i, e := range data.Entries {
		if !inClass[e.StudentID] {
			return Day{}, core.NewFieldError(
				fmt.Sprintf("entries[%d].student_id", i),
				fmt.Sprintf("student %s does not belong to %s", e.StudentID, data.ClassSection),
			)
		}
		if seen[e.StudentID] {
			continue
		}
		seen[e.StudentID] = true
		records = append(records, Record{
			StudentID:    e.StudentID,
			ClassSection: data.ClassSection,
			Date:         data.Date,
			Status:       e.Status,
			Remarks:      core.CleanString(e.Remarks),
			MarkedBy:     actor.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := svc.repo.UpsertRecords(ctx, records); err != nil {
		return Day{}, errors.Wrap(err, "saving attendance")
	}
	return svc.day(ctx, data.ClassSection, data.Date, students)
}

func (svc *service) Day(ctx context.Context, actor user.Principal, classSection, date string) (Day, error) {
	if date == "" {
		date = core.Today()
	} else if _, err := time.Parse(core.DateLayout, date); err != nil {
		return Day{}, core.NewFieldError("date", "invalid date, expected YYYY-MM-DD")
	}
	if err := svc.authorize(ctx, actor, classSection); err != nil {
		return Day{}, err
	}
	students, err := svc.classStudents(ctx, classSection)
	if err != nil {
		return Day{}, err
	}
	return svc.day(ctx, classSection, date, students)
}

func (svc *service) day(ctx context.Context, classSection, date string, students []user.Student) (Day, error) {
	records, err := svc.repo.QueryRecords(ctx, Filter{ClassSection: classSection, From: date, To: date})
	if err != nil {
		return Day{}, errors.Wrap(err, "querying attendance")
	}
	byStudent := make(map[string]Record, len(records))
	for _, r := range records {
		byStudent[r.StudentID] = r
	}

	d := Day{ClassSection: classSection, Date: date, Students: dayStudents(students)}
	marked := make([]Record, 0, len(records))
	for i, ds := range d.Students {
		if r, ok := byStudent[ds.StudentID]; ok {
			d.Students[i].Status = r.Status
			d.Students[i].Remarks = r.Remarks
			marked = append(marked, r)
		}
	}
	d.Stats = ComputeStats(len(students), marked)
	return d, nil
}

func (svc *service) History(ctx context.Context, actor user.Principal, classSection string, days int) (History, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	if err := svc.authorize(ctx, actor, classSection); err != nil {
		return History{}, err
	}
	students, err := svc.classStudents(ctx, classSection)
	if err != nil {
		return History{}, err
	}

	now := core.NowFunc()
	h := History{
		ClassSection: classSection,
		From:         now.AddDate(0, 0, -days).Format(core.DateLayout),
		To:           now.Format(core.DateLayout),
		Students:     dayStudents(students),
		Days:         make([]HistoryDay, 0),
	}
	records, err := svc.repo.QueryRecords(ctx, Filter{ClassSection: classSection, From: h.From, To: h.To})
	if err != nil {
		return History{}, errors.Wrap(err, "querying attendance")
	}

	dates, byDate := GroupByDate(records, MaxHistoryDates)
	for _, date := range dates {
		hd := HistoryDay{Date: date, Statuses: make(map[string]string, len(byDate[date]))}
		for _, r := range byDate[date] {
			hd.Statuses[r.StudentID] = r.Status
		}
		hd.Stats = ComputeStats(len(students), byDate[date])
		h.Days = append(h.Days, hd)
	}
	return h, nil
}

func (svc *service) StudentPercentage(ctx context.Context, studentID string, days int) (int, error) {
	if days <= 0 {
		days = PercentageDays
	}
	now := core.NowFunc()
	records, err := svc.repo.QueryRecords(ctx, Filter{
		StudentIDs: []string{studentID},
		From:       now.AddDate(0, 0, -days).Format(core.DateLayout),
		To:         now.Format(core.DateLayout),
	})
	if err != nil {
		return 0, errors.Wrap(err, "querying attendance")
	}
	return Percentage(records), nil
}

func (svc *service) StudentRecords(ctx context.Context, actor user.Principal, studentID, from, to string) ([]Record, error) {
	if actor.IsStudent() {
		if actor.ID != studentID {
			return nil, ErrPermissionDenied
		}
	} else {
		st, err := svc.dir.GetStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		if err := svc.authorize(ctx, actor, st.ClassSection); err != nil {
			return nil, err
		}
	}

	records, err := svc.repo.QueryRecords(ctx, Filter{StudentIDs: []string{studentID}, From: from, To: to})
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	return records, nil
}

func (sa *SaveAttendance) Validate(validate *validator.Validate) error {
	sa.ClassSection = core.CleanString(sa.ClassSection)
	sa.Date = core.CleanString(sa.Date)
	if sa.Date == "" {
		sa.Date = core.Today()
	}
	return validate.Struct(sa)
}
