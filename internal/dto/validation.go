package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// appRefPattern accepts bundle ids / package names such as
// "com.zhiliaoapp.musically" and simple handles such as "youtube".
var appRefPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)*$`)

// RegisterValidations installs custom binding validators on gin's validator
// engine. Call once at startup.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("appref", validateAppRef)
	}
}

func validateAppRef(fl validator.FieldLevel) bool {
	return appRefPattern.MatchString(fl.Field().String())
}
