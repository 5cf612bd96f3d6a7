package marks

import (
	"sort"

	"github.com/trezcool/vidyalaya/core"
)

// Trends of the latest exam compared to the previous one
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendSteady = "steady"
)

// Percentage returns obtained/possible as a percentage (0 when nothing is possible).
func Percentage(obtained, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return obtained / possible * 100
}

// Grade returns the performance grade of a percentage.
func Grade(pct float64) string {
	switch {
	case pct >= 90:
		return "Outstanding"
	case pct >= 80:
		return "Excellent"
	case pct >= 70:
		return "Very Good"
	case pct >= 60:
		return "Good"
	case pct >= 50:
		return "Fair"
	}
	return "Needs Improvement"
}

// Remarks returns the performance remarks of a student.
// `previous` is the percentage of the exam before the latest one, if any.
func Remarks(overall, latest float64, previous *float64) []string {
	remarks := make([]string, 0, 3)

	switch {
	case overall >= 70:
		remarks = append(remarks, "Demonstrates consistent academic excellence.")
	case overall >= 50:
		remarks = append(remarks, "Shows steady academic progress.")
	default:
		remarks = append(remarks, "Has potential for improvement.")
	}

	if previous != nil && *previous != 0 && latest != 0 {
		improvement := latest - *previous
		switch {
		case improvement > 5:
			remarks = append(remarks, "Shows significant improvement in recent performance.")
		case improvement < -5:
			remarks = append(remarks, "Recent performance indicates need for additional focus.")
		default:
			remarks = append(remarks, "Maintains consistent performance level.")
		}
	}

	if latest < overall {
		remarks = append(remarks, "Consider reviewing recent topics for better understanding.")
	} else if latest > overall && latest > 70 {
		remarks = append(remarks, "Recent performance shows excellent progress.")
	}
	return remarks
}

// Trend compares the latest percentage to the previous one with a 2 points tolerance.
func Trend(latest float64, previous *float64) string {
	if previous == nil || *previous == 0 {
		return TrendSteady
	}
	switch {
	case latest > *previous+2:
		return TrendUp
	case latest < *previous-2:
		return TrendDown
	}
	return TrendSteady
}

// ExamResults groups marks by exam, in exam order.
func ExamResults(ms []Mark) []ExamResult {
	byExam := make(map[string]*ExamResult)
	for _, m := range ms {
		res, ok := byExam[m.ExamType]
		if !ok {
			res = &ExamResult{ExamType: m.ExamType, Marks: make([]Mark, 0)}
			byExam[m.ExamType] = res
		}
		res.Marks = append(res.Marks, m)
		res.TotalObtained += m.MarksObtained
		res.TotalPossible += m.TotalMarks
	}

	results := make([]ExamResult, 0, len(byExam))
	for _, res := range byExam {
		res.Percentage = core.Round(Percentage(res.TotalObtained, res.TotalPossible), 2)
		sort.SliceStable(res.Marks, func(i, j int) bool { return res.Marks[i].Subject < res.Marks[j].Subject })
		results = append(results, *res)
	}
	sort.SliceStable(results, func(i, j int) bool {
		ii, ij := ExamIndex(results[i].ExamType), ExamIndex(results[j].ExamType)
		if ii != ij {
			return ii < ij
		}
		return results[i].ExamType < results[j].ExamType
	})
	return results
}

// Summarize computes the performance summary of a student's marks.
// The latest exam is the exam of the most recently updated mark.
func Summarize(ms []Mark) Summary {
	s := Summary{Trend: TrendSteady, Remarks: make([]string, 0)}
	if len(ms) == 0 {
		return s
	}

	var obtained, possible float64
	latest := ms[0]
	for _, m := range ms {
		obtained += m.MarksObtained
		possible += m.TotalMarks
		if m.UpdatedAt.After(latest.UpdatedAt) ||
			(m.UpdatedAt.Equal(latest.UpdatedAt) && ExamIndex(m.ExamType) > ExamIndex(latest.ExamType)) {
			latest = m
		}
	}
	s.OverallPercentage = core.Round(Percentage(obtained, possible), 2)

	results := ExamResults(ms)
	s.ExamsCount = len(results)
	s.LatestExam = latest.ExamType

	latestIdx := ExamIndex(latest.ExamType)
	for _, res := range results {
		if res.ExamType == latest.ExamType {
			s.LatestPercentage = res.Percentage
			continue
		}
		// results are in exam order: keep the last exam before the latest one
		if idx := ExamIndex(res.ExamType); idx >= 0 && idx < latestIdx {
			pct := res.Percentage
			s.PreviousExam = res.ExamType
			s.PreviousPercentage = &pct
		}
	}

	s.OverallGrade = Grade(s.OverallPercentage)
	s.LatestGrade = Grade(s.LatestPercentage)
	s.Trend = Trend(s.LatestPercentage, s.PreviousPercentage)
	s.Remarks = Remarks(s.OverallPercentage, s.LatestPercentage, s.PreviousPercentage)
	return s
}

// StudentPercentages returns, per student, the percentage over the marks matching `exam` and `subject`
// (either may be empty to match all). Students without matching marks are left out.
func StudentPercentages(ms []Mark, exam, subject string) map[string]float64 {
	type sums struct{ obtained, possible float64 }
	byStudent := make(map[string]*sums)
	for _, m := range ms {
		if exam != "" && m.ExamType != exam {
			continue
		}
		if subject != "" && m.Subject != subject && m.SubjectID != subject {
			continue
		}
		s, ok := byStudent[m.StudentID]
		if !ok {
			s = new(sums)
			byStudent[m.StudentID] = s
		}
		s.obtained += m.MarksObtained
		s.possible += m.TotalMarks
	}

	pcts := make(map[string]float64, len(byStudent))
	for id, s := range byStudent {
		if s.possible > 0 {
			pcts[id] = Percentage(s.obtained, s.possible)
		}
	}
	return pcts
}
