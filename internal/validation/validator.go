// Package validation implements the schema-driven request validator. Given a
// service type and a raw field-value map it resolves the variant schema,
// checks every field, and returns either the full list of field errors or a
// normalized value set ready to populate the variant detail record.
//
// Policy: collect ALL errors, never fail fast. The caller drives a form and
// needs the complete list in one pass. The validator is a pure function of
// (schema, input) with no side effects, so it is safe for arbitrary
// concurrency.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/adiouf/go-consular-backend/internal/domain"
	"github.com/adiouf/go-consular-backend/internal/variants"
)

// Stable machine-readable field error codes.
const (
	CodeFieldRequired = "field_required"
	CodeInvalidEmail  = "invalid_email"
	CodeInvalidDate   = "invalid_date"
	CodeInvalidNumber = "invalid_number"
	CodeOutOfRange    = "out_of_range"
	CodeInvalidOption = "invalid_option"
	CodeInvalidPhone  = "invalid_phone"
)

// FieldError describes a single failed check on one submitted field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface for logging convenience.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	// emailRE accepts RFC-shaped addresses without attempting full RFC 5322.
	emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	// phoneRE accepts loose E.164-style numbers with optional separators.
	phoneRE = regexp.MustCompile(`^\+?[0-9][0-9 .\-]{5,18}[0-9]$`)
)

// isoDate is the accepted wire format for date fields.
const isoDate = "2006-01-02"

// nameCaser title-cases person and place names for consistent storage.
var nameCaser = cases.Title(language.French)

// Validate checks raw submitted values against the schema registered for
// serviceType. It returns the normalized values when every check passes, or
// the complete list of field errors. The error return is non-nil only for
// variants.ErrUnknownServiceType.
func Validate(serviceType domain.ServiceType, values map[string]any) (domain.FieldValues, []FieldError, error) {
	schema, err := variants.Get(serviceType)
	if err != nil {
		return nil, nil, err
	}

	out := make(domain.FieldValues, len(schema.Fields))
	var errs []FieldError

	for _, f := range schema.Fields {
		raw, present := values[f.Name]
		s := stringify(raw)

		if s == "" {
			if f.Type == variants.FieldCheckbox {
				// Absent checkboxes are false, never an error.
				out[f.Name] = coerceBool(raw, present)
			} else if f.Required {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeFieldRequired,
					Message: f.Name + " is required",
				})
			}
			continue
		}

		switch f.Type {
		case variants.FieldText, variants.FieldTextarea:
			if f.NameCase {
				s = nameCaser.String(strings.ToLower(s))
			}
			out[f.Name] = s

		case variants.FieldEmail:
			if !emailRE.MatchString(s) {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeInvalidEmail,
					Message: f.Name + " must be a valid email address",
				})
				continue
			}
			out[f.Name] = strings.ToLower(s)

		case variants.FieldPhone:
			if !phoneRE.MatchString(s) {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeInvalidPhone,
					Message: f.Name + " must be a valid phone number",
				})
				continue
			}
			out[f.Name] = s

		case variants.FieldDate:
			t, perr := time.ParseInLocation(isoDate, s, time.UTC)
			if perr != nil {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeInvalidDate,
					Message: f.Name + " must be a date in YYYY-MM-DD format",
				})
				continue
			}
			out[f.Name] = t

		case variants.FieldNumber:
			n, perr := coerceNumber(raw, s)
			if perr != nil {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeInvalidNumber,
					Message: f.Name + " must be a number",
				})
				continue
			}
			if (f.Min != nil && n < *f.Min) || (f.Max != nil && n > *f.Max) {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeOutOfRange,
					Message: rangeMessage(f),
				})
				continue
			}
			out[f.Name] = n

		case variants.FieldSelect:
			ok := false
			for _, o := range f.Options {
				if o == s {
					ok = true
					break
				}
			}
			if !ok {
				errs = append(errs, FieldError{
					Field:   f.Name,
					Code:    CodeInvalidOption,
					Message: f.Name + " must be one of: " + strings.Join(f.Options, ", "),
				})
				continue
			}
			out[f.Name] = s

		case variants.FieldCheckbox:
			out[f.Name] = coerceBool(raw, present)

		default:
			out[f.Name] = s
		}
	}

	if len(errs) > 0 {
		return nil, errs, nil
	}
	return out, nil, nil
}

// stringify renders a submitted value as a trimmed string. JSON numbers and
// booleans are rendered in their canonical form so schema checks can run on a
// single representation.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// coerceNumber prefers the native JSON number when present and otherwise
// parses the string form.
func coerceNumber(raw any, s string) (float64, error) {
	switch t := raw.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	}
	return strconv.ParseFloat(s, 64)
}

// coerceBool maps submitted checkbox values ("true", "1", "on", native bool)
// to a boolean. Absent values are false.
func coerceBool(raw any, present bool) bool {
	if !present {
		return false
	}
	switch t := raw.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "y", "on":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}

// rangeMessage builds the out-of-range message from the declared bounds.
func rangeMessage(f variants.FieldDef) string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("%s must be between %g and %g", f.Name, *f.Min, *f.Max)
	case f.Min != nil:
		return fmt.Sprintf("%s must be at least %g", f.Name, *f.Min)
	case f.Max != nil:
		return fmt.Sprintf("%s must be at most %g", f.Name, *f.Max)
	default:
		return f.Name + " is out of range"
	}
}
