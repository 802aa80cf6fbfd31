package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventledger/internal/model"
)

func field(id string, kind model.FieldKind, required bool) model.FormField {
	return model.FormField{ID: id, EventID: "evt-1", Kind: kind, Label: id, Required: required}
}

func TestValidateFormRequiredAndOptional(t *testing.T) {
	fields := []model.FormField{
		field("name", model.FieldText, true),
		field("nickname", model.FieldText, false),
		field("email", model.FieldEmail, false),
	}

	t.Run("missing required field", func(t *testing.T) {
		errs := ValidateForm(fields, map[string]string{})

		require.Len(t, errs, 1)
		assert.Equal(t, "name", errs[0].FieldID)
	})

	t.Run("whitespace counts as empty", func(t *testing.T) {
		errs := ValidateForm(fields, map[string]string{"name": "   "})

		require.Len(t, errs, 1)
		assert.Equal(t, "name", errs[0].FieldID)
	})

	t.Run("optional empty fields are skipped entirely", func(t *testing.T) {
		errs := ValidateForm(fields, map[string]string{"name": "Ada", "email": ""})

		assert.Nil(t, errs)
	})
}

func TestValidateFormTypeChecks(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.FieldKind
		value   string
		wantErr bool
	}{
		{"valid email", model.FieldEmail, "user@example.com", false},
		{"invalid email", model.FieldEmail, "not-an-email", true},
		{"valid phone", model.FieldPhone, "+33 6 12 34 56 78", false},
		{"phone with separators", model.FieldPhone, "(555) 123-4567", false},
		{"invalid phone", model.FieldPhone, "call me", true},
		{"phone of only separators", model.FieldPhone, "5-----", true},
		{"phone with too few digits", model.FieldPhone, "12345", true},
		{"valid number", model.FieldNumber, "42.5", false},
		{"invalid number", model.FieldNumber, "forty-two", true},
		{"valid date", model.FieldDate, "2026-06-01", false},
		{"invalid date", model.FieldDate, "01/06/2026", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := field("f1", tt.kind, true)
			errs := ValidateForm([]model.FormField{f}, map[string]string{"f1": tt.value})

			if tt.wantErr {
				require.Len(t, errs, 1)
				assert.Equal(t, "f1", errs[0].FieldID)
			} else {
				assert.Nil(t, errs)
			}
		})
	}
}

func TestValidateFormOptionMembership(t *testing.T) {
	sel := field("size", model.FieldSelect, true)
	sel.Options = []string{"S", "M", "L"}

	t.Run("member passes", func(t *testing.T) {
		assert.Nil(t, ValidateForm([]model.FormField{sel}, map[string]string{"size": "M"}))
	})

	t.Run("non-member fails", func(t *testing.T) {
		errs := ValidateForm([]model.FormField{sel}, map[string]string{"size": "XXL"})
		require.Len(t, errs, 1)
	})
}

func TestValidateFormCheckbox(t *testing.T) {
	cb := field("interests", model.FieldCheckbox, true)
	cb.Options = []string{"A", "B", "C"}

	t.Run("all members pass", func(t *testing.T) {
		errs := ValidateForm([]model.FormField{cb}, map[string]string{"interests": `["A","C"]`})
		assert.Nil(t, errs)
	})

	t.Run("one invalid option produces exactly one error naming it", func(t *testing.T) {
		errs := ValidateForm([]model.FormField{cb}, map[string]string{"interests": `["A","D"]`})

		require.Len(t, errs, 1)
		assert.Equal(t, "interests", errs[0].FieldID)
		assert.Contains(t, errs[0].Message, `"D"`)
	})

	t.Run("not a JSON array fails", func(t *testing.T) {
		errs := ValidateForm([]model.FormField{cb}, map[string]string{"interests": "A,B"})
		require.Len(t, errs, 1)
	})
}

func TestValidateFormCustomRules(t *testing.T) {
	f := field("code", model.FieldText, true)
	f.MinLength = intPtr(4)
	f.MaxLength = intPtr(8)
	f.Pattern = `^[A-Z0-9]+$`

	tests := []struct {
		name     string
		value    string
		wantErrs int
	}{
		{"valid", "AB12", 0},
		{"too short", "AB1", 1},
		{"too long", "AB12CD34E", 1},
		{"bad pattern", "ab12", 1},
		{"short and bad pattern collect both", "ab", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateForm([]model.FormField{f}, map[string]string{"code": tt.value})
			assert.Len(t, errs, tt.wantErrs)
		})
	}
}

func TestValidateFormCollectsAcrossFields(t *testing.T) {
	email := field("email", model.FieldEmail, true)
	phone := field("phone", model.FieldPhone, true)
	name := field("name", model.FieldText, true)

	errs := ValidateForm(
		[]model.FormField{email, phone, name},
		map[string]string{"email": "bad", "phone": "worse"},
	)

	// All three problems surface together, never just the first.
	require.Len(t, errs, 3)
	ids := []string{errs[0].FieldID, errs[1].FieldID, errs[2].FieldID}
	assert.ElementsMatch(t, []string{"email", "phone", "name"}, ids)
}
