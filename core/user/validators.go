package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

var (
	roleNameTag  = "rolename"
	roleNameText = "unknown role"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleNameTag, roleNameValidation)
	core.RegisterCustomTranslation(validate, translator, roleNameTag, roleNameText)
}

// roleNameValidation only allows known role names.
func roleNameValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, name := range AllRoles {
		if val == name {
			return true
		}
	}
	return false
}
