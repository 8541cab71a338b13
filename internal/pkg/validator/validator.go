package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Role validation
	validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		validRoles := []string{"user", "creator", "partner", "admin"}
		for _, r := range validRoles {
			if role == r {
				return true
			}
		}
		return false
	})

	// Beneficiary type validation
	validate.RegisterValidation("beneficiary_type", func(fl validator.FieldLevel) bool {
		bt := fl.Field().String()
		return bt == "creator" || bt == "user" || bt == ""
	})

	// XP source validation
	validate.RegisterValidation("xp_source", func(fl validator.FieldLevel) bool {
		src := fl.Field().String()
		validSources := []string{"purchase", "cashback_code", "content", "admin", ""}
		for _, s := range validSources {
			if src == s {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email address"
		case "min":
			errors[field] = "Value is too small"
		case "max":
			errors[field] = "Value is too large"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "uuid":
			errors[field] = "Invalid identifier"
		case "role":
			errors[field] = "Invalid role"
		case "beneficiary_type":
			errors[field] = "Invalid beneficiary type"
		case "xp_source":
			errors[field] = "Invalid XP source"
		default:
			errors[field] = "Invalid value"
		}
	}
	return errors
}
