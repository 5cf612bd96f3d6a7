package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/vidyalaya/core/marks"
)

func TestMarksWorkbook(t *testing.T) {
	cm := marks.ClassMarks{
		ClassSection: "10-A",
		ExamType:     marks.ExamHalfYearly,
		MaxMarks:     80,
		Subjects:     []string{"English", "Mathematics"},
		Rows: []marks.ClassMarksRow{
			{
				Student:       marks.SheetStudent{ID: "1", AdmissionID: "A001", Name: "Asha", ClassSection: "10-A"},
				Marks:         map[string]float64{"English": 60, "Mathematics": 72},
				TotalObtained: 132,
				TotalPossible: 160,
				Percentage:    82.5,
			},
			{
				Student:       marks.SheetStudent{ID: "2", AdmissionID: "A002", Name: "Ravi", ClassSection: "10-A"},
				Marks:         map[string]float64{"English": 40},
				TotalObtained: 40,
				TotalPossible: 80,
				Percentage:    50,
			},
		},
	}

	buf, err := MarksWorkbook(cm)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Admission ID", "Name", "English (/80)", "Mathematics (/80)", "Total", "Out of", "Percentage"}, rows[0])
	assert.Equal(t, []string{"A001", "Asha", "60", "72", "132", "160", "82.5"}, rows[1])
	assert.Equal(t, []string{"A002", "Ravi", "40", "", "40", "80", "50"}, rows[2])
}

func TestReadStudents(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"Admission No", "Name", "Class", "Section", "Father's Name", "Status", "Password", "Notes"},
		{"A001", "Asha", "10", "A", "Mohan", "Active", "secret1", "ignored"},
		{},
		{" A002 ", "Ravi", "9", "B", "", "", "secret2"},
	}
	for i, row := range data {
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell(1, i+1), &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	students, err := ReadStudents(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, students, 2)

	assert.Equal(t, "A001", students[0].AdmissionID)
	assert.Equal(t, "Asha", students[0].Name)
	assert.Equal(t, "10", students[0].ClassName)
	assert.Equal(t, "A", students[0].Section)
	assert.Equal(t, "Mohan", students[0].FatherName)
	assert.Equal(t, "active", students[0].Status)
	assert.Equal(t, "secret1", students[0].Password)

	assert.Equal(t, "A002", students[1].AdmissionID)
	assert.Equal(t, "", students[1].Status)
}

func TestReadStudents_notAWorkbook(t *testing.T) {
	_, err := ReadStudents(bytes.NewReader([]byte("name,admission_id\n")))
	assert.Error(t, err)
}

func TestReportCardPDF(t *testing.T) {
	rc := marks.ReportCard{
		Student: marks.SheetStudent{ID: "1", AdmissionID: "A001", Name: "Asha", ClassSection: "10-A"},
		Exams: []marks.ExamResult{{
			ExamType: marks.ExamPA1,
			Marks: []marks.Mark{
				{Subject: "English", MarksObtained: 18, TotalMarks: 20},
				{Subject: "Mathematics", MarksObtained: 15, TotalMarks: 20},
			},
			TotalObtained: 33,
			TotalPossible: 40,
			Percentage:    82.5,
		}},
		Summary: marks.Summary{
			OverallPercentage: 82.5,
			LatestExam:        marks.ExamPA1,
			LatestPercentage:  82.5,
			OverallGrade:      "A",
			LatestGrade:       "A",
			Trend:             "steady",
			Remarks:           []string{"Very good performance"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ReportCardPDF(&buf, "Vidyalaya", rc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
