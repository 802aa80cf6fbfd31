package service

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"eventledger/internal/model"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// 6 to 14 digits, tolerant of spaces, dots, dashes, and parentheses
	// anywhere around them, including a leading parenthesis.
	phonePattern = regexp.MustCompile(`^\+?(?:[ .()-]*[0-9]){6,14}[ .()-]*$`)
)

// ValidateForm checks submitted responses against an event's field schema.
// It is a pure function of (schema, responses): every failing field is
// collected and returned together so a caller can render all problems at once.
// A nil return means the submission is valid.
func ValidateForm(fields []model.FormField, responses map[string]string) model.ValidationErrors {
	var errs model.ValidationErrors

	for i := range fields {
		field := &fields[i]
		value := strings.TrimSpace(responses[field.ID])

		if value == "" {
			if field.Required {
				errs.Add(field.ID, "%s is required", field.Label)
			}
			// Optional and empty: skip entirely, no type coercion attempted.
			continue
		}

		validateFieldValue(field, value, &errs)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateFieldValue applies the kind-specific check, then the field's custom
// rules. Both stages can contribute errors for the same field.
func validateFieldValue(field *model.FormField, value string, errs *model.ValidationErrors) {
	switch field.Kind {
	case model.FieldText, model.FieldTextarea:
		// Free text: only the custom rules below apply.
	case model.FieldEmail:
		if !emailPattern.MatchString(value) {
			errs.Add(field.ID, "%s must be a valid email address", field.Label)
		}
	case model.FieldPhone:
		if !phonePattern.MatchString(value) {
			errs.Add(field.ID, "%s must be a valid phone number", field.Label)
		}
	case model.FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			errs.Add(field.ID, "%s must be a number", field.Label)
		}
	case model.FieldDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			errs.Add(field.ID, "%s must be a date in YYYY-MM-DD format", field.Label)
		}
	case model.FieldSelect, model.FieldRadio:
		if !field.HasOption(value) {
			errs.Add(field.ID, "%q is not a valid choice for %s", value, field.Label)
		}
	case model.FieldCheckbox:
		validateCheckboxValue(field, value, errs)
	default:
		errs.Add(field.ID, "unsupported field type %q", field.Kind)
	}

	applyCustomRules(field, value, errs)
}

// validateCheckboxValue parses the response as a JSON array of selected
// options and verifies every token against the option set.
func validateCheckboxValue(field *model.FormField, value string, errs *model.ValidationErrors) {
	var selections []string
	if err := json.Unmarshal([]byte(value), &selections); err != nil {
		errs.Add(field.ID, "%s must be a list of selected options", field.Label)
		return
	}
	for _, sel := range selections {
		if !field.HasOption(sel) {
			errs.Add(field.ID, "%q is not a valid option for %s", sel, field.Label)
		}
	}
}

// applyCustomRules enforces the field's optional min/max length and regex
// pattern. A pattern that does not compile counts as a schema error against
// the field rather than silently passing.
func applyCustomRules(field *model.FormField, value string, errs *model.ValidationErrors) {
	if field.MinLength != nil && len([]rune(value)) < *field.MinLength {
		errs.Add(field.ID, "%s must be at least %d characters", field.Label, *field.MinLength)
	}
	if field.MaxLength != nil && len([]rune(value)) > *field.MaxLength {
		errs.Add(field.ID, "%s must be at most %d characters", field.Label, *field.MaxLength)
	}
	if field.Pattern != "" {
		re, err := regexp.Compile(field.Pattern)
		if err != nil {
			errs.Add(field.ID, "%s has an invalid validation pattern", field.Label)
			return
		}
		if !re.MatchString(value) {
			errs.Add(field.ID, "%s has an invalid format", field.Label)
		}
	}
}
