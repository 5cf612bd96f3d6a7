package school

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var romanClasses = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6,
	"VII": 7, "VIII": 8, "IX": 9, "X": 10, "XI": 11, "XII": 12,
}

// ParseClassNumber extracts the class number from values like "10", "10th", "10-A" or "X".
func ParseClassNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end > 0 {
		n, err := strconv.Atoi(s[:end])
		if err != nil {
			return 0, false
		}
		return n, true
	}

	words := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(words) == 0 {
		return 0, false
	}
	n, ok := romanClasses[strings.ToUpper(words[0])]
	return n, ok
}

// ClassSectionName returns the class-section of a class name and a section.
// Class names which already carry a section ("10-A") are returned unchanged.
func ClassSectionName(className, section string) string {
	className = strings.TrimSpace(className)
	section = strings.TrimSpace(section)
	if strings.Contains(className, "-") || section == "" {
		return className
	}
	return className + "-" + strings.ToUpper(section)
}

// SplitClassSection splits "10-A" into "10" and "A".
func SplitClassSection(cs string) (className, section string) {
	idx := strings.LastIndex(cs, "-")
	if idx < 0 {
		return strings.TrimSpace(cs), ""
	}
	return strings.TrimSpace(cs[:idx]), strings.TrimSpace(cs[idx+1:])
}

// ClassNumberOf returns the class number of a class-section.
func ClassNumberOf(cs string) (int, bool) {
	className, _ := SplitClassSection(cs)
	return ParseClassNumber(className)
}

// MatchClassSection finds the class whose name matches `raw`:
// exactly, then ignoring case, then with spaces and dashes swapped, then by containment.
func MatchClassSection(classes []ClassSection, raw string) (ClassSection, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ClassSection{}, false
	}

	for _, c := range classes {
		if c.Name == raw {
			return c, true
		}
	}
	for _, c := range classes {
		if strings.EqualFold(c.Name, raw) {
			return c, true
		}
	}

	alts := []string{
		strings.ReplaceAll(raw, " ", "-"),
		strings.ReplaceAll(raw, "-", " "),
		strings.ReplaceAll(raw, " ", ""),
	}
	for _, alt := range alts {
		for _, c := range classes {
			if strings.EqualFold(c.Name, alt) {
				return c, true
			}
		}
	}

	lraw := strings.ToLower(raw)
	for _, c := range classes {
		lname := strings.ToLower(c.Name)
		if strings.Contains(lname, lraw) || strings.Contains(lraw, lname) {
			return c, true
		}
	}
	return ClassSection{}, false
}

// SortClassSections sorts class-sections by class number then section.
func SortClassSections(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, _ := ClassNumberOf(names[i])
		nj, _ := ClassNumberOf(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})
}
