package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func records(statuses ...string) []Record {
	rs := make([]Record, 0, len(statuses))
	for _, s := range statuses {
		rs = append(rs, Record{Status: s})
	}
	return rs
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(4, records(StatusPresent, StatusPresent, StatusHalfDay))
	assert.Equal(t, Stats{Total: 4, Marked: 3, Present: 2, HalfDay: 1, PresentPercentage: 50}, st)

	assert.Equal(t, Stats{}, ComputeStats(0, nil))
	assert.Equal(t, 33, ComputeStats(3, records(StatusPresent, StatusAbsent)).PresentPercentage)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    int
	}{
		{name: "no records", want: 0},
		{name: "all present", records: records(StatusPresent, StatusPresent), want: 100},
		{name: "half days count half", records: records(StatusPresent, StatusHalfDay, StatusAbsent, StatusAbsent), want: 38},
		{name: "all absent", records: records(StatusAbsent), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.records))
		})
	}
}

func TestGroupByDate(t *testing.T) {
	rs := []Record{
		{StudentID: "1", Date: "2024-05-01"},
		{StudentID: "1", Date: "2024-05-03"},
		{StudentID: "2", Date: "2024-05-03"},
		{StudentID: "1", Date: "2024-05-02"},
	}
	dates, byDate := GroupByDate(rs, 2)
	assert.Equal(t, []string{"2024-05-03", "2024-05-02"}, dates)
	assert.Len(t, byDate["2024-05-03"], 2)
	assert.NotContains(t, byDate, "2024-05-01")

	dates, _ = GroupByDate(rs, 0)
	assert.Len(t, dates, 3)
}
