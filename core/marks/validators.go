package marks

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/vidyalaya/core"
)

var (
	examTypeTag  = "examtype"
	examTypeText = "invalid exam type, expected one of: PA1, PA2, Half Yearly, PA3, PA4, Annual"
)

// InitValidators registers the marks validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(examTypeTag, func(fl validator.FieldLevel) bool {
		_, ok := NormalizeExamType(fl.Field().String())
		return ok
	})
	core.RegisterCustomTranslation(validate, translator, examTypeTag, examTypeText)
}

func (sm *SaveMarks) Validate(validate *validator.Validate) error {
	sm.StudentID = core.CleanString(sm.StudentID)
	sm.ExamType = core.CleanString(sm.ExamType)
	return validate.Struct(sm)
}
