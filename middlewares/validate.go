package middlewares

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"servicehub/config"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Validator wraps a validator instance whose allow-list tags are bound to
// the loaded configuration.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(cfg *config.Config) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("allowed_service", func(fl validator.FieldLevel) bool {
		return cfg.ServiceAllowed(int32(fl.Field().Int()))
	})
	_ = v.RegisterValidation("allowed_system", func(fl validator.FieldLevel) bool {
		return cfg.SystemAllowed(int32(fl.Field().Int()))
	})
	// The built-in uuid tag only accepts lowercase hex.
	_ = v.RegisterValidation("valid_uuid", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

// ValidateStruct validates any struct value using the shared validator instance.
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

var tagMessages = map[string]string{
	"required":        "value is required",
	"valid_uuid":      "must be a valid UUID",
	"allowed_service": "service id is not available",
	"allowed_system":  "system id is not available",
	"not_blank":       "value not given",
	"gte":             "must not be negative",
}

// Messages turns a validation error into human-readable reasons, one per
// failing field. Other errors yield their own text.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed %q check", fe.Tag())
		}
		out = append(out, fmt.Sprintf("%s: %s", fe.Field(), msg))
	}
	return out
}
