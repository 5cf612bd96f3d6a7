package school

var (
	primarySubjects   = []string{"Hindi", "English", "Maths", "EVS", "Computer"}
	middleSubjects    = []string{"Hindi", "English", "Maths", "Computer", "S.St", "Science"}
	secondarySubjects = []string{"Hindi", "English", "Maths", "S.St", "Science", "AI"}
	seniorSubjects    = []string{"Hindi", "English", "Maths", "Physics", "Chemistry", "Biology", "Computer"}
)

// SubjectCatalog returns the subjects a teacher can be assigned to in class `n`.
func SubjectCatalog(n int) []string {
	var subjects []string
	switch {
	case n >= 1 && n <= 5:
		subjects = primarySubjects
	case n >= 6 && n <= 8:
		subjects = middleSubjects
	case n >= 9 && n <= 10:
		subjects = secondarySubjects
	case n >= 11 && n <= 12:
		subjects = seniorSubjects
	default:
		return nil
	}
	return append([]string(nil), subjects...)
}

// InCatalog reports whether `subject` can be taught in class `n`.
// Classes without a catalog accept any subject.
func InCatalog(n int, subject string) bool {
	catalog := SubjectCatalog(n)
	if catalog == nil {
		return true
	}
	for _, s := range catalog {
		if s == subject {
			return true
		}
	}
	return false
}
