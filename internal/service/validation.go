package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"estatehub/internal/apperr"
	"estatehub/internal/domain"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.NotificationFrequencies, fl.Field().String())
	})
	return v
}

// fieldErrors collects messages per request field, in the shape of a 422 body.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) merge(err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}
	for _, e := range verrs {
		f.add(e.Field(), fieldMessage(e))
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.NewValidationError(f)
}

// label turns notification_frequency into "notification frequency".
func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func fieldMessage(e validator.FieldError) string {
	name := label(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, e.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, e.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "oneof", "frequency":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match.", name)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}

// savedSearchRules carries the string rules validator can check once types are known.
type savedSearchRules struct {
	Name                  string `json:"name" validate:"required,max=255"`
	NotificationFrequency string `json:"notification_frequency" validate:"omitempty,frequency"`
}

// SavedSearchInput is a decoded create or update body. A nil pointer means the key was
// absent or null; the Has* flags tell the two apart.
type SavedSearchInput struct {
	Name                  *string
	Criteria              json.RawMessage
	NotificationFrequency *string
	IsActive              *bool

	HasName                  bool
	HasCriteria              bool
	HasNotificationFrequency bool
	HasIsActive              bool

	typeErrs fieldErrors
}

// DecodeSavedSearchInput reads a request body. A body that is not a JSON object is treated
// as empty input; type mismatches are kept and reported by validation.
func DecodeSavedSearchInput(body []byte) SavedSearchInput {
	in := SavedSearchInput{typeErrs: fieldErrors{}}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return in
	}

	if raw, ok := doc["name"]; ok {
		in.HasName = true
		if !isNull(raw) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				in.typeErrs.add("name", "The name must be a string.")
			} else if s = strings.TrimSpace(s); s != "" {
				in.Name = &s
			}
		}
	}

	if raw, ok := doc["criteria"]; ok {
		in.HasCriteria = true
		if !isNull(raw) {
			var obj map[string]json.RawMessage
			switch {
			case json.Unmarshal(raw, &obj) != nil || obj == nil:
				in.typeErrs.add("criteria", "The criteria must be an array.")
			case len(obj) > 0:
				in.Criteria = bytes.TrimSpace(raw)
			}
		}
	}

	if raw, ok := doc["notification_frequency"]; ok {
		in.HasNotificationFrequency = true
		if !isNull(raw) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				in.typeErrs.add("notification_frequency", "The selected notification frequency is invalid.")
			} else if s = strings.TrimSpace(s); s != "" {
				in.NotificationFrequency = &s
			}
		}
	}

	if raw, ok := doc["is_active"]; ok {
		in.HasIsActive = true
		if b, ok := parseBoolean(raw); ok {
			in.IsActive = &b
		} else {
			in.typeErrs.add("is_active", "The is active field must be true or false.")
		}
	}
	return in
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseBoolean accepts true, false, 1, 0, "1" and "0".
func parseBoolean(raw json.RawMessage) (bool, bool) {
	switch string(bytes.TrimSpace(raw)) {
	case "true", "1", `"1"`:
		return true, true
	case "false", "0", `"0"`:
		return false, true
	}
	return false, false
}

func (in SavedSearchInput) rules() savedSearchRules {
	r := savedSearchRules{}
	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.NotificationFrequency != nil {
		r.NotificationFrequency = *in.NotificationFrequency
	}
	return r
}

// validateCreate applies every rule; name and criteria are required.
func (in SavedSearchInput) validateCreate() error {
	return in.check(true)
}

// validatePatch applies the create rules to present fields only.
func (in SavedSearchInput) validatePatch() error {
	return in.check(false)
}

func (in SavedSearchInput) check(all bool) error {
	errs := in.copyTypeErrs()
	if all {
		delete(errs, "is_active")
	}
	var partial []string
	if _, bad := errs["name"]; !bad && (all || in.HasName) {
		partial = append(partial, "Name")
	}
	if _, bad := errs["notification_frequency"]; !bad && (all || in.HasNotificationFrequency) {
		partial = append(partial, "NotificationFrequency")
	}
	if len(partial) > 0 {
		errs.merge(validate.StructPartial(in.rules(), partial...))
	}
	if _, bad := errs["criteria"]; !bad && (all || in.HasCriteria) && in.Criteria == nil {
		errs.add("criteria", "The criteria field is required.")
	}
	return errs.err()
}

func (in SavedSearchInput) copyTypeErrs() fieldErrors {
	out := fieldErrors{}
	for k, v := range in.typeErrs {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// fields returns the column updates for the present keys of a validated patch.
func (in SavedSearchInput) fields() map[string]any {
	f := map[string]any{}
	if in.HasName {
		f["name"] = *in.Name
	}
	if in.HasCriteria {
		f["criteria"] = datatypes.JSON(in.Criteria)
	}
	if in.HasNotificationFrequency {
		if in.NotificationFrequency == nil {
			f["notification_frequency"] = nil
		} else {
			f["notification_frequency"] = *in.NotificationFrequency
		}
	}
	if in.HasIsActive {
		f["is_active"] = *in.IsActive
	}
	return f
}

// Request bodies for the auth endpoints.

type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role" validate:"omitempty,oneof=user owner"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailInput is the body of forgot-password and resend-verification-email.
type EmailInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token                string `json:"token" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func validateStruct(v any) error {
	errs := fieldErrors{}
	errs.merge(validate.Struct(v))
	return errs.err()
}
