package university

import (
	"github.com/go-playground/validator/v10"

	"github.com/medshare/backend/core"
)

var (
	universityTag  = "university"
	universityText = "unknown university"
)

func init() {
	_ = core.Validate.RegisterValidation(universityTag, universityValidation)
	core.RegisterCustomTranslation(universityTag, universityText)
}

// universityValidation checks that the provided university ID is registered.
func universityValidation(fl validator.FieldLevel) bool {
	return Exists(fl.Field().String())
}
