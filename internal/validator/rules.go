package validator

import (
	"coachhub_backend/internal/billing"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules wires domain-specific tags into the validator.
func registerCustomRules(v *validator.Validate) error {
	if err := v.RegisterValidation("tier", validateTier); err != nil {
		return err
	}
	if err := v.RegisterValidation("billing_cycle", validateBillingCycle); err != nil {
		return err
	}
	return nil
}

func validateTier(fl validator.FieldLevel) bool {
	return billing.ValidTier(fl.Field().String())
}

func validateBillingCycle(fl validator.FieldLevel) bool {
	return billing.ValidCycle(fl.Field().String())
}
