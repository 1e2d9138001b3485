package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

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
	// Video duration in seconds; the provider only accepts a fixed set.
	validate.RegisterValidation("video_duration", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		switch d {
		case 5, 10, 15, 30:
			return true
		}
		return false
	})

	// Aspect ratio validation
	validate.RegisterValidation("aspect_ratio", func(fl validator.FieldLevel) bool {
		ratio := fl.Field().String()
		validRatios := []string{"16:9", "9:16", "1:1", ""}
		for _, r := range validRatios {
			if ratio == r {
				return true
			}
		}
		return false
	})

	// Ledger transaction type validation
	validate.RegisterValidation("tx_type", func(fl validator.FieldLevel) bool {
		t := fl.Field().String()
		validTypes := []string{"PURCHASE", "CONSUME", "REFUND", "EXPIRE", "BONUS"}
		for _, v := range validTypes {
			if t == v {
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
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "e164":
			errors[field] = "Invalid phone number, expected E.164 format"
		case "video_duration":
			errors[field] = "Invalid duration. Must be 5, 10, 15 or 30 seconds"
		case "aspect_ratio":
			errors[field] = "Invalid aspect ratio. Must be 16:9, 9:16 or 1:1"
		case "tx_type":
			errors[field] = "Invalid transaction type"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
