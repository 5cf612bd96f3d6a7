package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/school"
)

var (
	statusTag  = "status"
	statusText = "invalid status, expected one of: " + strings.Join(Statuses, ", ")

	roleTag  = "role"
	roleText = "invalid role, expected one of: " + strings.Join(Roles, ", ")

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	// teacher assignments
	errNoClassSection     = "Please select at least one class-section"
	errNoSubject          = "Please select at least one subject for each class-section"
	errClassTeacherScope  = "Class teacher must be selected from the assigned class-sections"
	errStudentClassNeeded = "Please select class-section"
)

// InitValidators registers the user validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, oneOfValidation(Statuses))
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(roleTag, oneOfValidation(Roles))
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(userStructValidation, NewStudent{}, UpdateStudent{}, NewTeacher{}, UpdateTeacher{}, ChangePassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func oneOfValidation(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, v := range values {
			if v == val {
				return true
			}
		}
		return false
	}
}

// userStructValidation applies the password policy to the structs carrying a password.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewStudent:
		validatePassword(usr.Password, sl, usr.Name, usr.AdmissionID, usr.Email)
	case UpdateStudent:
		if usr.Password != "" {
			validatePassword(usr.Password, sl, usr.Name, usr.Email)
		}
	case NewTeacher:
		validatePassword(usr.Password, sl, usr.Name, usr.TeacherID, usr.Email)
	case UpdateTeacher:
		if usr.Password != "" {
			validatePassword(usr.Password, sl, usr.Name, usr.Email)
		}
	case ChangePassword:
		validatePassword(usr.Password, sl, usr.name, usr.identifier, usr.email)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if pwd == "" {
		return // `required` reports it
	}
	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len([]rune(pwd)) {
		reportErr(pwdNotAllNumTag)
		return
	}

	for _, attr := range attrs {
		if passwordSimilarity(pwd, attr) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
	}
}

func passwordSimilarity(pwd, attr string) float64 {
	attr = strings.ToLower(strings.TrimSpace(attr))
	if attr == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(strings.ToLower(pwd), ""), strings.Split(attr, "")).QuickRatio()
}

func (ns *NewStudent) clean() {
	ns.AdmissionID = core.CleanString(ns.AdmissionID)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.DOB = core.CleanString(ns.DOB)
	ns.BloodGroup = strings.ToUpper(core.CleanString(ns.BloodGroup))
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.Section = strings.ToUpper(core.CleanString(ns.Section))
	ns.FatherName = core.CleanString(ns.FatherName)
	ns.MotherName = core.CleanString(ns.MotherName)
	ns.Address = core.CleanString(ns.Address)
	ns.Status = core.CleanString(ns.Status, true /* lower */)
}

// ClassSection returns the class-section of the new Student.
func (ns *NewStudent) ClassSection() string {
	return school.ClassSectionName(ns.ClassName, ns.Section)
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	if ns.ClassName == "" || (ns.Section == "" && !strings.Contains(ns.ClassName, "-")) {
		return core.NewFieldError("class_section", errStudentClassNeeded)
	}
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if !core.IsClassSection(ns.ClassSection()) {
		return core.NewFieldError("class_section", "invalid class-section, expected a value like 10-A")
	}
	return nil
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Phone = core.CleanString(us.Phone)
	us.DOB = core.CleanString(us.DOB)
	us.BloodGroup = strings.ToUpper(core.CleanString(us.BloodGroup))
	us.ClassName = core.CleanString(us.ClassName)
	us.Section = strings.ToUpper(core.CleanString(us.Section))
	us.FatherName = core.CleanString(us.FatherName)
	us.MotherName = core.CleanString(us.MotherName)
	us.Address = core.CleanString(us.Address)
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

// validateClassSections checks the class-section/subject selection of a teacher.
func validateClassSections(css []ClassSectionSubjects, classTeacherOf string) error {
	if len(css) == 0 {
		return core.NewFieldError("class_sections", errNoClassSection)
	}
	var classTeacherOk bool
	for _, cs := range css {
		if len(cs.Subjects) == 0 {
			return core.NewFieldError("class_sections", errNoSubject)
		}
		n, _ := school.ClassNumberOf(cs.ClassSection)
		for _, subj := range cs.Subjects {
			if !school.InCatalog(n, subj) {
				return core.NewFieldError("class_sections", fmt.Sprintf("%s is not taught in class-section %s", subj, cs.ClassSection))
			}
		}
		if cs.ClassSection == classTeacherOf {
			classTeacherOk = true
		}
	}
	if classTeacherOf != "" && !classTeacherOk {
		return core.NewFieldError("class_teacher_of", errClassTeacherScope)
	}
	return nil
}

func cleanClassSections(css []ClassSectionSubjects) []ClassSectionSubjects {
	if css == nil {
		return nil
	}
	cleaned := make([]ClassSectionSubjects, 0, len(css))
	for _, cs := range css {
		subjects := make([]string, 0, len(cs.Subjects))
		for _, s := range cs.Subjects {
			if s = core.CleanString(s); s != "" {
				subjects = append(subjects, s)
			}
		}
		cleaned = append(cleaned, ClassSectionSubjects{ClassSection: core.CleanString(cs.ClassSection), Subjects: subjects})
	}
	return cleaned
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.TeacherID = core.CleanString(nt.TeacherID)
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Phone = core.CleanString(nt.Phone)
	nt.Status = core.CleanString(nt.Status, true /* lower */)
	nt.ClassTeacherOf = core.CleanString(nt.ClassTeacherOf)
	nt.ClassSections = cleanClassSections(nt.ClassSections)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return validateClassSections(nt.ClassSections, nt.ClassTeacherOf)
}

func (upd *UpdateTeacher) Validate(validate *validator.Validate) error {
	upd.Name = core.CleanString(upd.Name)
	upd.Email = core.CleanString(upd.Email, true /* lower */)
	upd.Phone = core.CleanString(upd.Phone)
	upd.Status = core.CleanString(upd.Status, true /* lower */)
	upd.ClassTeacherOf = core.CleanString(upd.ClassTeacherOf)
	upd.ClassSections = cleanClassSections(upd.ClassSections)

	if err := validate.Struct(upd); err != nil {
		return err
	}
	if upd.ClassSections != nil {
		return validateClassSections(upd.ClassSections, upd.ClassTeacherOf)
	}
	return nil
}

func (cp *ChangePassword) Validate(validate *validator.Validate, p Principal) error {
	cp.name, cp.identifier, cp.email = p.Name, p.Identifier, p.Email
	return validate.Struct(cp)
}

// assignments flattens class-section/subject selections.
func assignments(css []ClassSectionSubjects) []Assignment {
	as := make([]Assignment, 0, len(css))
	for _, cs := range css {
		for _, s := range cs.Subjects {
			as = append(as, Assignment{ClassSection: cs.ClassSection, Subject: s})
		}
	}
	return as
}

// subjectCodes returns the distinct subjects of the assignments, in order of appearance.
func subjectCodes(as []Assignment) []string {
	seen := make(map[string]bool)
	codes := make([]string, 0, len(as))
	for _, a := range as {
		if !seen[a.Subject] {
			seen[a.Subject] = true
			codes = append(codes, a.Subject)
		}
	}
	return codes
}
