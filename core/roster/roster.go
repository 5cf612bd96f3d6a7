package roster

import (
	"sort"
	"strings"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

// Sort fields
const (
	SortName       = "name"
	SortAdmission  = "admission_id"
	SortLatest     = "latest_percentage"
	SortOverall    = "overall_percentage"
	defaultSortKey = SortName
)

var SortFields = []string{SortName, SortAdmission, SortLatest, SortOverall}

type Filter struct {
	Search         string   `query:"search"`
	ClassSection   string   `query:"class_section"`
	NameStartsWith string   `query:"name_starts_with"`
	NameEndsWith   string   `query:"name_ends_with"`
	Exam           string   `query:"exam"`
	Subject        string   `query:"subject"`
	MinPercentage  *float64 `query:"-"`
	MaxPercentage  *float64 `query:"-"`
}

// ByMarks reports whether percentages must be computed from the marks of an exam and/or subject.
func (f Filter) ByMarks() bool {
	return f.Exam != "" || f.Subject != ""
}

type Sort struct {
	Field string `query:"sort"`
	Desc  bool   `query:"-"`
}

// Entry is a student as listed on a roster or ranking.
type Entry struct {
	Rank              int     `json:"rank,omitempty"`
	ID                string  `json:"id"`
	AdmissionID       string  `json:"admission_id"`
	Name              string  `json:"name"`
	ClassSection      string  `json:"class_section"`
	LatestPercentage  float64 `json:"latest_percentage"`
	OverallPercentage float64 `json:"overall_percentage"`
	Percentage        float64 `json:"percentage"` // the percentage filters and sorts apply to
}

// percentageOf picks the percentage of a student: the exam/subject one when computed, then latest, then overall.
func percentageOf(st user.Student, pcts map[string]float64) float64 {
	if pct, ok := pcts[st.ID]; ok {
		return core.Round(pct, 2)
	}
	if st.LatestPercentage != 0 {
		return st.LatestPercentage
	}
	return st.OverallPercentage
}

// Matches reports whether a student passes the search, class-section & name filters.
func Matches(st user.Student, f Filter) bool {
	if f.Search != "" {
		q := strings.ToLower(strings.TrimSpace(f.Search))
		if !strings.Contains(strings.ToLower(st.Name), q) &&
			!strings.Contains(strings.ToLower(st.AdmissionID), q) &&
			!strings.Contains(strings.ToLower(st.ClassSection), q) {
			return false
		}
	}
	if f.ClassSection != "" && st.ClassSection != f.ClassSection {
		return false
	}
	name := strings.ToLower(strings.TrimSpace(st.Name))
	if f.NameStartsWith != "" && !strings.HasPrefix(name, strings.ToLower(strings.TrimSpace(f.NameStartsWith))) {
		return false
	}
	if f.NameEndsWith != "" && !strings.HasSuffix(name, strings.ToLower(strings.TrimSpace(f.NameEndsWith))) {
		return false
	}
	return true
}

// Apply filters & sorts students. `pcts` holds the exam/subject percentages, if any.
func Apply(students []user.Student, pcts map[string]float64, f Filter, s Sort) []Entry {
	entries := make([]Entry, 0, len(students))
	for _, st := range students {
		if !Matches(st, f) {
			continue
		}
		pct := percentageOf(st, pcts)
		if f.MinPercentage != nil && pct < *f.MinPercentage {
			continue
		}
		if f.MaxPercentage != nil && pct > *f.MaxPercentage {
			continue
		}
		entries = append(entries, Entry{
			ID:                st.ID,
			AdmissionID:       st.AdmissionID,
			Name:              st.Name,
			ClassSection:      st.ClassSection,
			LatestPercentage:  st.LatestPercentage,
			OverallPercentage: st.OverallPercentage,
			Percentage:        pct,
		})
	}
	SortEntries(entries, s, f.ByMarks())
	return entries
}

// SortEntries sorts entries in place. When `byMarks` is set, latest_percentage sorts on the computed percentage.
func SortEntries(entries []Entry, s Sort, byMarks bool) {
	less := func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch s.Field {
		case SortAdmission:
			return strings.ToLower(a.AdmissionID) < strings.ToLower(b.AdmissionID)
		case SortLatest:
			if byMarks {
				return a.Percentage < b.Percentage
			}
			return percentageOrLatest(a) < percentageOrLatest(b)
		case SortOverall:
			return a.OverallPercentage < b.OverallPercentage
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if s.Desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func percentageOrLatest(e Entry) float64 {
	if e.LatestPercentage != 0 {
		return e.LatestPercentage
	}
	return e.OverallPercentage
}

// Rank assigns ranks 1..n following the current order.
func Rank(entries []Entry) []Entry {
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ParseSort reads `sort` values such as "name", "-latest_percentage" (descending), "overall_percentage:desc".
func ParseSort(raw, order string) Sort {
	raw = strings.TrimSpace(raw)
	s := Sort{Field: defaultSortKey}
	if strings.HasPrefix(raw, "-") {
		s.Desc = true
		raw = raw[1:]
	}
	if field, dir, ok := strings.Cut(raw, ":"); ok {
		raw, order = field, dir
	}
	for _, f := range SortFields {
		if raw == f {
			s.Field = f
		}
	}
	if strings.EqualFold(order, "desc") {
		s.Desc = true
	} else if strings.EqualFold(order, "asc") {
		s.Desc = false
	}
	return s
}
