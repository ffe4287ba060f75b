package dto

import (
	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations wires domain-specific checks into gin's binding
// validator. Called once during startup.
func RegisterCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("payertype", validatePayerType)
	}
}

func validatePayerType(fl validator.FieldLevel) bool {
	return domain.ValidPayerType(domain.PayerType(fl.Field().String()))
}
