// Package variants is the static catalog mapping each consular service type
// to its field schema, required supporting documents, and fee. Schemas are
// defined once at process start and never mutated; lookups are pure and safe
// for arbitrary concurrency.
package variants

import "errors"

// ErrUnknownServiceType is returned when no schema is registered for the
// requested service type. With a complete registry this indicates a
// programmer or configuration error, not user input.
var ErrUnknownServiceType = errors.New("unknown service type")

// FieldType enumerates the kinds of form fields a variant schema can declare.
// The validator dispatches its checks and normalization on this value.
type FieldType string

// Supported field types.
const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldDate     FieldType = "date"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// FieldDef describes one field of a variant schema.
//
//   - Name is the submission key (camelCase, stable across UI and API).
//   - Required fields must be present and non-empty.
//   - Options constrains select fields to the declared values.
//   - Min/Max bound number fields when non-nil.
//   - NameCase marks person/place name fields whose normalized value is
//     title-cased by the validator.
type FieldDef struct {
	Name     string
	Type     FieldType
	Required bool
	Options  []string
	Min      *float64
	Max      *float64
	NameCase bool
}

// Schema is the full per-service-type contract: the ordered field list a
// submitter must satisfy, the document checklist verified by the external
// document-storage collaborator, and the service fee.
type Schema struct {
	ServiceType       string
	Fields            []FieldDef
	RequiredDocuments []string
	Fee               float64
}

// Field returns the definition for name and whether it exists.
func (s Schema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// small constructors keeping the registry tables readable

func req(name string, t FieldType) FieldDef  { return FieldDef{Name: name, Type: t, Required: true} }
func opt(name string, t FieldType) FieldDef  { return FieldDef{Name: name, Type: t} }
func name(fieldName string) FieldDef         { return FieldDef{Name: fieldName, Type: FieldText, Required: true, NameCase: true} }
func sel(fieldName string, opts ...string) FieldDef {
	return FieldDef{Name: fieldName, Type: FieldSelect, Required: true, Options: opts}
}
func num(fieldName string, min, max float64) FieldDef {
	return FieldDef{Name: fieldName, Type: FieldNumber, Required: true, Min: &min, Max: &max}
}
func numOpt(fieldName string, min, max float64) FieldDef {
	return FieldDef{Name: fieldName, Type: FieldNumber, Min: &min, Max: &max}
}
