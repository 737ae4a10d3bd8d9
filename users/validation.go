package users

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	playgroundvalidator "github.com/go-playground/validator/v10"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// idRules mirrors the CreateParams ID tag for bare-id validation. Struct tags
// must be literals, so the length bound appears in the tag as well.
var idRules = fmt.Sprintf("required,max=%d,user_id", MaxIDLength)

// newValidate builds the validator used by the service, with the user_id tag
// registered for the restricted id character set.
func newValidate() *playgroundvalidator.Validate {
	v := playgroundvalidator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag name.
	_ = v.RegisterValidation("user_id", validateUserID)

	return v
}

func validateUserID(fl playgroundvalidator.FieldLevel) bool {
	return idPattern.MatchString(fl.Field().String())
}

// validationError converts validator field errors into a ValidationError with
// one human-readable violation per failed rule.
func validationError(err error) *ValidationError {
	fieldErrors, ok := err.(playgroundvalidator.ValidationErrors)
	if !ok {
		return &ValidationError{Violations: []string{err.Error()}}
	}

	violations := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, violationMessage(fe))
	}
	if len(violations) == 0 {
		violations = append(violations, "invalid input")
	}
	return &ValidationError{Violations: violations}
}

func violationMessage(fe playgroundvalidator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "user_id":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_'", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
