package validator

import (
	"log"
	"regexp"

	"homepro_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// Expo tokens look like ExponentPushToken[xxxxxxxx]; FCM/APNs raw tokens
// are opaque strings of at least 16 characters.
var pushTokenRe = regexp.MustCompile(`^(ExponentPushToken\[.+\]|[A-Za-z0-9_:\-\.]{16,})$`)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-push-platform", validatePushPlatform)
	mustRegister("is-push-token", validatePushToken)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles emptiness
	}

	switch models.UserRole(value) {
	case models.UserRoleCustomer, models.UserRoleStaff, models.UserRoleAdmin:
		return true
	default:
		return false
	}
}

func validatePushPlatform(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ValidPushPlatform(models.PushPlatform(value))
}

func validatePushToken(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return pushTokenRe.MatchString(value)
}
