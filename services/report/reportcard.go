package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/marks"
)

const PDFContentType = "application/pdf"

// ReportCardPDF writes the report card of a student as an A4 PDF.
func ReportCardPDF(w io.Writer, schoolName string, rc marks.ReportCard) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Report card - %s", rc.Student.Name), true)
	pdf.AddPage()

	// header
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 8, strings.ToUpper(schoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "STUDENT REPORT CARD", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(40, 145, 108)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY()+1, 190, pdf.GetY()+1)
	pdf.Ln(6)

	info := [][2]string{
		{"Name:", rc.Student.Name},
		{"Admission ID:", rc.Student.AdmissionID},
		{"Class:", rc.Student.ClassSection},
		{"Issued on:", core.Today()},
	}
	for _, kv := range info {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(40, 6, kv[0])
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, kv[1])
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if len(rc.Exams) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No marks recorded yet.")
		pdf.Ln(6)
	}

	for _, exam := range rc.Exams {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 7, exam.ExamType)
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(40, 145, 108)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(80, 7, "SUBJECT", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, "MARKS", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 7, "OUT OF", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 7, "GRADE", "1", 1, "C", true, 0, "")
		pdf.SetTextColor(0, 0, 0)

		pdf.SetFont("Arial", "", 9)
		pdf.SetFillColor(245, 245, 245)
		for i, m := range exam.Marks {
			fill := i%2 == 0
			pct := 0.0
			if m.TotalMarks > 0 {
				pct = m.MarksObtained / m.TotalMarks * 100
			}
			pdf.CellFormat(80, 6, m.Subject, "1", 0, "L", fill, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%g", m.MarksObtained), "1", 0, "C", fill, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%g", m.TotalMarks), "1", 0, "C", fill, 0, "")
			pdf.CellFormat(30, 6, marks.Grade(pct), "1", 1, "C", fill, 0, "")
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(80, 6, "Total", "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%g", exam.TotalObtained), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%g", exam.TotalPossible), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f%%", exam.Percentage), "1", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	// summary
	s := rc.Summary
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "SUMMARY")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Overall: %.2f%% (grade %s)", s.OverallPercentage, s.OverallGrade))
	pdf.Ln(6)
	if s.LatestExam != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Latest exam (%s): %.2f%% (grade %s), trend %s",
			s.LatestExam, s.LatestPercentage, s.LatestGrade, s.Trend))
		pdf.Ln(6)
	}
	for _, remark := range s.Remarks {
		pdf.MultiCell(0, 5, "- "+remark, "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "rendering report card")
	}
	return nil
}
