package school

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClassNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOk bool
	}{
		{in: "10", want: 10, wantOk: true},
		{in: "10th", want: 10, wantOk: true},
		{in: "9-A", want: 9, wantOk: true},
		{in: " 3 ", want: 3, wantOk: true},
		{in: "X", want: 10, wantOk: true},
		{in: "xii", want: 12, wantOk: true},
		{in: "IV-B", want: 4, wantOk: true},
		{in: "Nursery"},
		{in: "-"},
		{in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseClassNumber(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassSectionName(t *testing.T) {
	assert.Equal(t, "10-A", ClassSectionName("10", "a"))
	assert.Equal(t, "10-A", ClassSectionName("10-A", "B"))
	assert.Equal(t, "7", ClassSectionName("7", ""))

	cls, sec := SplitClassSection("10-A")
	assert.Equal(t, "10", cls)
	assert.Equal(t, "A", sec)
	cls, sec = SplitClassSection("10")
	assert.Equal(t, "10", cls)
	assert.Equal(t, "", sec)
}

func TestMatchClassSection(t *testing.T) {
	classes := []ClassSection{
		{ID: "1", Name: "10-A"},
		{ID: "2", Name: "10 B"},
		{ID: "3", Name: "9-C"},
		{ID: "4", Name: "12-Science"},
	}
	tests := []struct {
		name   string
		raw    string
		wantID string
	}{
		{name: "exact", raw: "10-A", wantID: "1"},
		{name: "case-insensitive", raw: "9-c", wantID: "3"},
		{name: "dash to space", raw: "10-B", wantID: "2"},
		{name: "space to dash", raw: "10 A", wantID: "1"},
		{name: "contains", raw: "science", wantID: "4"},
		{name: "no match", raw: "5-Z"},
		{name: "blank", raw: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, ok := MatchClassSection(classes, tt.raw)
			assert.Equal(t, tt.wantID != "", ok)
			assert.Equal(t, tt.wantID, cs.ID)
		})
	}
}

func TestSubjectCatalog(t *testing.T) {
	assert.Equal(t, []string{"Hindi", "English", "Maths", "EVS", "Computer"}, SubjectCatalog(3))
	assert.Contains(t, SubjectCatalog(7), "S.St")
	assert.Contains(t, SubjectCatalog(10), "AI")
	assert.NotContains(t, SubjectCatalog(10), "Computer")
	assert.Nil(t, SubjectCatalog(0))

	assert.True(t, InCatalog(4, "EVS"))
	assert.False(t, InCatalog(9, "EVS"))
	assert.True(t, InCatalog(0, "Anything"))
}

func TestSubject_AppliesTo(t *testing.T) {
	s := Subject{ApplicableFromClass: 6, ApplicableToClass: 10}
	assert.True(t, s.AppliesTo(6))
	assert.True(t, s.AppliesTo(10))
	assert.False(t, s.AppliesTo(5))
	assert.False(t, s.AppliesTo(11))
	assert.True(t, s.AppliesTo(0))
	assert.True(t, Subject{}.AppliesTo(12))
}

func TestSortClassSections(t *testing.T) {
	names := []string{"10-B", "2-A", "10-A", "9-C"}
	SortClassSections(names)
	assert.Equal(t, []string{"2-A", "9-C", "10-A", "10-B"}, names)
}
