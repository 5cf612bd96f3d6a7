package attendance

import (
	"math"
	"sort"
)

// ComputeStats counts the statuses of `records` among `total` students.
func ComputeStats(total int, records []Record) Stats {
	st := Stats{Total: total}
	for _, r := range records {
		st.Marked++
		switch r.Status {
		case StatusPresent:
			st.Present++
		case StatusAbsent:
			st.Absent++
		case StatusHalfDay:
			st.HalfDay++
		}
	}
	if total > 0 {
		st.PresentPercentage = int(math.Round(float64(st.Present) / float64(total) * 100))
	}
	return st
}

// Percentage returns round((present + half_day/2) / records * 100), 0 without records.
func Percentage(records []Record) int {
	if len(records) == 0 {
		return 0
	}
	var score float64
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			score++
		case StatusHalfDay:
			score += .5
		}
	}
	return int(math.Round(score / float64(len(records)) * 100))
}

// GroupByDate groups records by date, most recent first, keeping at most `max` dates (all when <= 0).
func GroupByDate(records []Record, max int) ([]string, map[string][]Record) {
	byDate := make(map[string][]Record)
	for _, r := range records {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if max > 0 && len(dates) > max {
		for _, d := range dates[max:] {
			delete(byDate, d)
		}
		dates = dates[:max]
	}
	return dates, byDate
}
