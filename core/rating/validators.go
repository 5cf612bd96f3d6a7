package rating

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/vidyalaya/core"
)

var (
	ratingValueTag  = "ratingvalue"
	ratingValueText = "Please select a rating"
)

// InitValidators registers the rating validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(ratingValueTag, func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v >= 1 && v <= 5
	})
	core.RegisterCustomTranslation(validate, translator, ratingValueTag, ratingValueText)
}

func (nr *NewRating) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	nr.Email = core.CleanString(nr.Email, true)
	nr.Phone = core.CleanString(nr.Phone)
	nr.Relationship = core.CleanString(nr.Relationship)
	nr.Comment = core.CleanString(nr.Comment)
	return validate.Struct(nr)
}

func (m *Moderate) Validate(validate *validator.Validate) error {
	m.Status = core.CleanString(m.Status, true)
	return validate.Struct(m)
}
