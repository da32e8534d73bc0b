package service

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom rules the request DTOs rely on.
// Every validator instance handed to New must have gone through this.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		if len(pwd) < 8 {
			return false
		}
		var hasUpper, hasDigit bool
		for _, r := range pwd {
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			if unicode.IsDigit(r) {
				hasDigit = true
			}
		}
		return hasUpper && hasDigit
	})
}
