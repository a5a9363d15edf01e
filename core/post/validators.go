package post

import (
	"github.com/go-playground/validator/v10"

	"github.com/medshare/backend/core"
	_ "github.com/medshare/backend/core/university" // registers the `university` tag
)

var (
	postTypeTag  = "posttype"
	postTypeText = "must be one of: exam, info, clinical"
)

func init() {
	_ = core.Validate.RegisterValidation(postTypeTag, postTypeValidation)
	core.RegisterCustomTranslation(postTypeTag, postTypeText)
}

func postTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, t := range AllTypes {
		if val == t {
			return true
		}
	}
	return false
}
