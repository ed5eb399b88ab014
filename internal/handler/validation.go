package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/clinovia/clinic-api/internal/model"
)

// RegisterValidators installs custom binding validations on gin's validator
// engine. member_role accepts only the assignable membership roles, so bad
// role strings are rejected at bind time with a field-level message.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("member_role", func(fl validator.FieldLevel) bool {
		return model.ValidRole(model.Role(fl.Field().String()))
	})
}
