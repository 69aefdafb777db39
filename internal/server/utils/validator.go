package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// validate is built on first use; field names in errors are the JSON names.
var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("latitude", inRange(-90, 90))
	_ = v.RegisterValidation("longitude", inRange(-180, 180))

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

func inRange(lo, hi float64) validator.Func {
	return func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f >= lo && f <= hi
	}
}

type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

var tagMessages = map[string]string{
	"required":  "%s is required",
	"latitude":  "%s must be a latitude between -90 and 90 degrees",
	"longitude": "%s must be a longitude between -180 and 180 degrees",
	"min":       "%s must be at least %s",
	"max":       "%s must be at most %s",
	"oneof":     "%s must be one of: %s",
	"datetime":  "%s must match the layout %s",
}

func message(fe validator.FieldError) string {
	format, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
	if strings.Count(format, "%s") == 2 {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf(format, fe.Field())
}

// ValidateStruct returns one entry per failing field, or nil.
func ValidateStruct(s interface{}) []ValidationError {
	err := validate().Struct(s)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}
