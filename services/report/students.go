package report

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/vidyalaya/core/user"
)

var ErrNoSheet = errors.New("the workbook does not contain any sheet")

// studentColumns maps normalized header names to setters.
var studentColumns = map[string]func(*user.NewStudent, string){
	"admission_id":  func(s *user.NewStudent, v string) { s.AdmissionID = v },
	"name":          func(s *user.NewStudent, v string) { s.Name = v },
	"email":         func(s *user.NewStudent, v string) { s.Email = v },
	"phone":         func(s *user.NewStudent, v string) { s.Phone = v },
	"dob":           func(s *user.NewStudent, v string) { s.DOB = v },
	"date_of_birth": func(s *user.NewStudent, v string) { s.DOB = v },
	"blood_group":   func(s *user.NewStudent, v string) { s.BloodGroup = v },
	"class":         func(s *user.NewStudent, v string) { s.ClassName = v },
	"class_name":    func(s *user.NewStudent, v string) { s.ClassName = v },
	"section":       func(s *user.NewStudent, v string) { s.Section = v },
	"father_name":   func(s *user.NewStudent, v string) { s.FatherName = v },
	"mother_name":   func(s *user.NewStudent, v string) { s.MotherName = v },
	"address":       func(s *user.NewStudent, v string) { s.Address = v },
	"status":        func(s *user.NewStudent, v string) { s.Status = strings.ToLower(v) },
	"password":      func(s *user.NewStudent, v string) { s.Password = v },
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_", "'", "", "’", "").Replace(h)
	switch h {
	case "admission_no", "admission_number", "admission":
		return "admission_id"
	case "fathers_name", "father":
		return "father_name"
	case "mothers_name", "mother":
		return "mother_name"
	}
	return h
}

// ReadStudents reads students from the first sheet of an XLSX workbook.
// The first row holds the column names; unknown columns are ignored, empty rows skipped.
func ReadStudents(r io.Reader) ([]user.NewStudent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) == 0 {
		return []user.NewStudent{}, nil
	}

	setters := make([]func(*user.NewStudent, string), len(rows[0]))
	for i, h := range rows[0] {
		setters[i] = studentColumns[normalizeHeader(h)]
	}

	students := make([]user.NewStudent, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var (
			st    user.NewStudent
			blank = true
		)
		for i, val := range row {
			val = strings.TrimSpace(val)
			if val != "" {
				blank = false
			}
			if i < len(setters) && setters[i] != nil {
				setters[i](&st, val)
			}
		}
		if !blank {
			students = append(students, st)
		}
	}
	return students, nil
}
