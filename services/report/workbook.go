package report

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/vidyalaya/core/marks"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// MarksWorkbook renders the marks register of a class-section as an XLSX workbook:
// one row per student, one column per subject, then totals and percentage.
func MarksWorkbook(cm marks.ClassMarks) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := fmt.Sprintf("%s %s", cm.ClassSection, cm.ExamType)
	if len(sheet) > 31 { // excel limit
		sheet = sheet[:31]
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	header := []interface{}{"Admission ID", "Name"}
	for _, subj := range cm.Subjects {
		header = append(header, fmt.Sprintf("%s (/%g)", subj, cm.MaxMarks))
	}
	header = append(header, "Total", "Out of", "Percentage")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating style")
	}
	if err := f.SetCellStyle(sheet, "A1", cell(len(header), 1), bold); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}

	for i, r := range cm.Rows {
		values := []interface{}{r.Student.AdmissionID, r.Student.Name}
		for _, subj := range cm.Subjects {
			if m, ok := r.Marks[subj]; ok {
				values = append(values, m)
			} else {
				values = append(values, "")
			}
		}
		values = append(values, r.TotalObtained, r.TotalPossible, r.Percentage)
		if err := f.SetSheetRow(sheet, cell(1, i+2), &values); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}
