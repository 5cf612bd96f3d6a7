package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/vidyalaya/core/user"
)

var students = []user.Student{
	{ID: "1", AdmissionID: "adm-03", Name: "Asha Verma", ClassSection: "10-A", LatestPercentage: 82, OverallPercentage: 75},
	{ID: "2", AdmissionID: "ADM-01", Name: "Ravi Kumar", ClassSection: "10-A", LatestPercentage: 64, OverallPercentage: 70},
	{ID: "3", AdmissionID: "adm-02", Name: "Meera Shah", ClassSection: "9-B", OverallPercentage: 91},
	{ID: "4", AdmissionID: "adm-04", Name: "arjun kumar", ClassSection: "9-B"},
}

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func f64(f float64) *float64 { return &f }

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		pcts    map[string]float64
		filter  Filter
		sort    Sort
		wantIDs []string
	}{
		{name: "default sort by name", wantIDs: []string{"4", "1", "3", "2"}},
		{name: "search name", filter: Filter{Search: "KUMAR"}, wantIDs: []string{"4", "2"}},
		{name: "search admission id", filter: Filter{Search: "adm-02"}, wantIDs: []string{"3"}},
		{name: "search class section", filter: Filter{Search: "9-b"}, wantIDs: []string{"4", "3"}},
		{name: "class section", filter: Filter{ClassSection: "10-A"}, wantIDs: []string{"1", "2"}},
		{name: "name starts with", filter: Filter{NameStartsWith: "a"}, wantIDs: []string{"4", "1"}},
		{name: "name ends with", filter: Filter{NameEndsWith: "KUMAR"}, wantIDs: []string{"4", "2"}},
		{
			name:    "percentage range uses latest then overall",
			filter:  Filter{MinPercentage: f64(70), MaxPercentage: f64(95)},
			wantIDs: []string{"1", "3"},
		},
		{
			name:    "admission id case-insensitive",
			sort:    Sort{Field: SortAdmission},
			wantIDs: []string{"2", "3", "1", "4"},
		},
		{
			name:    "latest desc",
			sort:    Sort{Field: SortLatest, Desc: true},
			wantIDs: []string{"3", "1", "2", "4"},
		},
		{
			name:    "overall asc",
			sort:    Sort{Field: SortOverall},
			wantIDs: []string{"4", "2", "1", "3"},
		},
		{
			name:    "exam percentages drive latest sort",
			pcts:    map[string]float64{"1": 40, "2": 90, "3": 60},
			filter:  Filter{Exam: "PA1"},
			sort:    Sort{Field: SortLatest, Desc: true},
			wantIDs: []string{"2", "3", "1", "4"},
		},
		{
			name:    "exam percentages drive range",
			pcts:    map[string]float64{"1": 40, "2": 90},
			filter:  Filter{Subject: "Maths", MinPercentage: f64(50)},
			wantIDs: []string{"3", "2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIDs, ids(Apply(students, tt.pcts, tt.filter, tt.sort)))
		})
	}
}

func TestRank(t *testing.T) {
	entries := Rank(Apply(students, nil, Filter{}, Sort{Field: SortLatest, Desc: true}))
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, "3", entries[0].ID)
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		raw, order string
		want       Sort
	}{
		{want: Sort{Field: SortName}},
		{raw: "unknown", want: Sort{Field: SortName}},
		{raw: "-latest_percentage", want: Sort{Field: SortLatest, Desc: true}},
		{raw: "overall_percentage:desc", want: Sort{Field: SortOverall, Desc: true}},
		{raw: "admission_id", order: "DESC", want: Sort{Field: SortAdmission, Desc: true}},
		{raw: "name", order: "asc", want: Sort{Field: SortName}},
	}
	for _, tt := range tests {
		t.Run(tt.raw+"/"+tt.order, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSort(tt.raw, tt.order))
		})
	}
}
