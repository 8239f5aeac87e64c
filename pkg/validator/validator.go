package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/notas4int/url-cutter/pkg/response"
)

var validate *validator.Validate

var aliasPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var reservedKeywords = map[string]bool{
	"shorten": true,
	"healthz": true,
	"readyz":  true,
}

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("alias", validateAlias)
	validate.RegisterValidation("notreserved", validateNotReserved)
}

func Validate(data interface{}) []response.ValidationError {
	var validationErrors []response.ValidationError

	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []response.ValidationError{{Field: "body", Message: err.Error()}}
	}

	for _, err := range fieldErrors {
		validationErrors = append(validationErrors, response.ValidationError{
			Field:   err.Field(),
			Message: getErrorMessage(err),
		})
	}

	return validationErrors
}

func validateAlias(fl validator.FieldLevel) bool {
	return aliasPattern.MatchString(fl.Field().String())
}

func validateNotReserved(fl validator.FieldLevel) bool {
	return !IsReservedKeyword(fl.Field().String())
}

func IsReservedKeyword(alias string) bool {
	return reservedKeywords[strings.ToLower(alias)]
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

func getErrorMessage(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
	case "alias":
		return fmt.Sprintf("%s may contain only letters, digits, '-' and '_'", field)
	case "notreserved":
		return fmt.Sprintf("%s is a reserved word", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
