package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

// NewValidator returns a validator configured with the portal's custom tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerValidators(v)
	return v
}

func registerValidators(v *validator.Validate) {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("year_code", func(fl validator.FieldLevel) bool {
		return IsValidYearCode(fl.Field().String())
	})
}

// issuesFromValidator converts struct validation failures into blocking issues.
func issuesFromValidator(err error) []models.ValidationIssue {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []models.ValidationIssue{{
			Rule:     models.RuleFormat,
			Severity: models.SeverityBlocking,
			Message:  err.Error(),
		}}
	}

	issues := make([]models.ValidationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		msg := fe.Field() + " is invalid"
		switch fe.Tag() {
		case "required":
			rule = models.RuleRequired
			msg = fe.Field() + " is required"
		case "year_code":
			rule = models.RuleFormat
			msg = fe.Field() + " must look like YYYY-YYYY with consecutive years"
		case "oneof":
			msg = fe.Field() + " must be one of " + fe.Param()
		case "min", "gte":
			msg = fe.Field() + " must be at least " + fe.Param()
		case "max", "lte":
			msg = fe.Field() + " must be at most " + fe.Param()
		}
		issues = append(issues, models.ValidationIssue{
			Field:    fe.Field(),
			Rule:     rule,
			Severity: models.SeverityBlocking,
			Message:  msg,
		})
	}
	return issues
}
