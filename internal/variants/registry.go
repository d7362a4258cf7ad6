package variants

import (
	"fmt"

	"github.com/adiouf/go-consular-backend/internal/domain"
)

// schemas is the single authoritative catalog. Adding a new consular service
// means adding a schema here plus a detail record in the domain union;
// everything else (validation, persistence, API) picks it up from the schema.
var schemas = map[domain.ServiceType]Schema{
	domain.ServiceVisa: {
		ServiceType: string(domain.ServiceVisa),
		Fields: []FieldDef{
			name("personFirstName"),
			name("personLastName"),
			req("dateOfBirth", FieldDate),
			req("nationality", FieldText),
			req("passportNumber", FieldText),
			req("passportExpiry", FieldDate),
			sel("visaType", "SHORT_STAY", "LONG_STAY", "TRANSIT"),
			sel("entryCount", "SINGLE", "MULTIPLE"),
			num("durationDays", 1, 365),
			req("travelPurpose", FieldTextarea),
			req("destinationAddress", FieldTextarea),
			opt("plannedArrival", FieldDate),
		},
		RequiredDocuments: []string{
			"passport",
			"identity_photo",
			"travel_itinerary",
			"proof_of_accommodation",
			"bank_statement",
		},
		Fee: 50,
	},
	domain.ServiceBirthAct: {
		ServiceType: string(domain.ServiceBirthAct),
		Fields: []FieldDef{
			name("childFirstName"),
			name("childLastName"),
			req("childDateOfBirth", FieldDate),
			name("birthPlace"),
			name("fatherFullName"),
			name("motherFullName"),
			sel("declarantRelation", "FATHER", "MOTHER", "GUARDIAN", "SELF"),
			numOpt("copiesRequested", 1, 10),
		},
		RequiredDocuments: []string{
			"hospital_birth_certificate",
			"parent_identity_document",
		},
		Fee: 10,
	},
	domain.ServiceConsularCard: {
		ServiceType: string(domain.ServiceConsularCard),
		Fields: []FieldDef{
			name("firstName"),
			name("lastName"),
			req("dateOfBirth", FieldDate),
			name("birthPlace"),
			opt("profession", FieldText),
			req("homeAddress", FieldTextarea),
			opt("email", FieldEmail),
			req("arrivalDate", FieldDate),
		},
		RequiredDocuments: []string{
			"passport",
			"identity_photo",
			"proof_of_residence",
		},
		Fee: 25,
	},
	domain.ServiceLaissezPasser: {
		ServiceType: string(domain.ServiceLaissezPasser),
		Fields: []FieldDef{
			name("firstName"),
			name("lastName"),
			req("dateOfBirth", FieldDate),
			name("birthPlace"),
			sel("travelReason", "LOST_PASSPORT", "EXPIRED_PASSPORT", "EMERGENCY"),
			req("departureDate", FieldDate),
			req("destinationCountry", FieldText),
		},
		RequiredDocuments: []string{
			"police_report_or_expired_passport",
			"identity_photo",
			"travel_ticket",
		},
		Fee: 30,
	},
	domain.ServiceMarriageCapacityAct: {
		ServiceType: string(domain.ServiceMarriageCapacityAct),
		Fields: []FieldDef{
			name("applicantFirstName"),
			name("applicantLastName"),
			req("applicantDateOfBirth", FieldDate),
			sel("civilStatus", "SINGLE", "DIVORCED", "WIDOWED"),
			name("fianceFullName"),
			req("fianceNationality", FieldText),
			req("marriageDate", FieldDate),
			name("marriagePlace"),
		},
		RequiredDocuments: []string{
			"birth_act",
			"certificate_of_celibacy",
			"identity_document",
		},
		Fee: 20,
	},
	domain.ServiceDeathAct: {
		ServiceType: string(domain.ServiceDeathAct),
		Fields: []FieldDef{
			name("deceasedFirstName"),
			name("deceasedLastName"),
			req("deathDate", FieldDate),
			name("deathPlace"),
			name("declarantFullName"),
			sel("declarantRelation", "SPOUSE", "CHILD", "PARENT", "SIBLING", "OTHER"),
			numOpt("copiesRequested", 1, 10),
		},
		RequiredDocuments: []string{
			"medical_death_certificate",
			"deceased_identity_document",
		},
		Fee: 10,
	},
	domain.ServicePowerOfAttorney: {
		ServiceType: string(domain.ServicePowerOfAttorney),
		Fields: []FieldDef{
			name("grantorFirstName"),
			name("grantorLastName"),
			req("grantorIdNumber", FieldText),
			name("attorneyFullName"),
			req("attorneyIdNumber", FieldText),
			req("scope", FieldTextarea),
			req("validUntil", FieldDate),
		},
		RequiredDocuments: []string{
			"grantor_identity_document",
			"attorney_identity_document",
		},
		Fee: 15,
	},
	domain.ServiceNationalityCertificate: {
		ServiceType: string(domain.ServiceNationalityCertificate),
		Fields: []FieldDef{
			name("firstName"),
			name("lastName"),
			req("dateOfBirth", FieldDate),
			name("birthPlace"),
			name("fatherFullName"),
			name("motherFullName"),
			req("residenceAddress", FieldTextarea),
			opt("email", FieldEmail),
		},
		RequiredDocuments: []string{
			"birth_act",
			"parent_nationality_proof",
			"identity_document",
		},
		Fee: 20,
	},
}

// init verifies the catalog covers every declared service type so a missing
// schema is caught at process start rather than on the first submission.
func init() {
	for _, st := range domain.AllServiceTypes {
		if _, ok := schemas[st]; !ok {
			panic(fmt.Sprintf("variants: no schema registered for service type %s", st))
		}
	}
}

// Get resolves the schema for serviceType. It fails with
// ErrUnknownServiceType when the type is not registered.
func Get(serviceType domain.ServiceType) (Schema, error) {
	s, ok := schemas[serviceType]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrUnknownServiceType, serviceType)
	}
	return s, nil
}

// All returns the registered schemas keyed by service type, in the stable
// order of domain.AllServiceTypes. The returned slice is a copy.
func All() []Schema {
	out := make([]Schema, 0, len(schemas))
	for _, st := range domain.AllServiceTypes {
		out = append(out, schemas[st])
	}
	return out
}
