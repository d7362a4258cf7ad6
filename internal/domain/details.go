package domain

import (
	"fmt"
	"time"
)

// VisaDetails carries the fields specific to a VISA request.
type VisaDetails struct {
	ID                 string     `json:"-"                    gorm:"type:char(36);primaryKey"`
	RequestID          string     `json:"-"                    gorm:"type:char(36);not null;uniqueIndex"`
	PersonFirstName    string     `json:"person_first_name"    gorm:"type:varchar(128);not null"`
	PersonLastName     string     `json:"person_last_name"     gorm:"type:varchar(128);not null"`
	DateOfBirth        time.Time  `json:"date_of_birth"        gorm:"not null"`
	Nationality        string     `json:"nationality"          gorm:"type:varchar(64);not null"`
	PassportNumber     string     `json:"passport_number"      gorm:"type:varchar(32);not null"`
	PassportExpiry     time.Time  `json:"passport_expiry"      gorm:"not null"`
	VisaType           string     `json:"visa_type"            gorm:"type:varchar(32);not null"`
	EntryCount         string     `json:"entry_count"          gorm:"type:varchar(16);not null"`
	DurationDays       int        `json:"duration_days"        gorm:"not null"`
	TravelPurpose      string     `json:"travel_purpose"       gorm:"type:text"`
	DestinationAddress string     `json:"destination_address"  gorm:"type:text"`
	PlannedArrival     *time.Time `json:"planned_arrival,omitempty"`
}

// TableName implements the GORM tabler interface.
func (VisaDetails) TableName() string { return "visa_details" }

// BirthActDetails carries the fields specific to a birth-act copy request.
type BirthActDetails struct {
	ID                string    `json:"-"                  gorm:"type:char(36);primaryKey"`
	RequestID         string    `json:"-"                  gorm:"type:char(36);not null;uniqueIndex"`
	ChildFirstName    string    `json:"child_first_name"   gorm:"type:varchar(128);not null"`
	ChildLastName     string    `json:"child_last_name"    gorm:"type:varchar(128);not null"`
	ChildDateOfBirth  time.Time `json:"child_date_of_birth" gorm:"not null"`
	BirthPlace        string    `json:"birth_place"        gorm:"type:varchar(128);not null"`
	FatherFullName    string    `json:"father_full_name"   gorm:"type:varchar(255);not null"`
	MotherFullName    string    `json:"mother_full_name"   gorm:"type:varchar(255);not null"`
	DeclarantRelation string    `json:"declarant_relation" gorm:"type:varchar(32);not null"`
	CopiesRequested   int       `json:"copies_requested"   gorm:"not null;default:1"`
}

// TableName implements the GORM tabler interface.
func (BirthActDetails) TableName() string { return "birth_act_details" }

// ConsularCardDetails carries the fields specific to a consular-card request.
type ConsularCardDetails struct {
	ID          string    `json:"-"            gorm:"type:char(36);primaryKey"`
	RequestID   string    `json:"-"            gorm:"type:char(36);not null;uniqueIndex"`
	FirstName   string    `json:"first_name"   gorm:"type:varchar(128);not null"`
	LastName    string    `json:"last_name"    gorm:"type:varchar(128);not null"`
	DateOfBirth time.Time `json:"date_of_birth" gorm:"not null"`
	BirthPlace  string    `json:"birth_place"  gorm:"type:varchar(128);not null"`
	Profession  string    `json:"profession"   gorm:"type:varchar(128)"`
	HomeAddress string    `json:"home_address" gorm:"type:text;not null"`
	Email       string    `json:"email"        gorm:"type:varchar(255)"`
	ArrivalDate time.Time `json:"arrival_date" gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (ConsularCardDetails) TableName() string { return "consular_card_details" }

// LaissezPasserDetails carries the fields specific to an emergency travel
// document (laissez-passer) request.
type LaissezPasserDetails struct {
	ID                 string    `json:"-"                   gorm:"type:char(36);primaryKey"`
	RequestID          string    `json:"-"                   gorm:"type:char(36);not null;uniqueIndex"`
	FirstName          string    `json:"first_name"          gorm:"type:varchar(128);not null"`
	LastName           string    `json:"last_name"           gorm:"type:varchar(128);not null"`
	DateOfBirth        time.Time `json:"date_of_birth"       gorm:"not null"`
	BirthPlace         string    `json:"birth_place"         gorm:"type:varchar(128);not null"`
	TravelReason       string    `json:"travel_reason"       gorm:"type:varchar(32);not null"`
	DepartureDate      time.Time `json:"departure_date"      gorm:"not null"`
	DestinationCountry string    `json:"destination_country" gorm:"type:varchar(64);not null"`
}

// TableName implements the GORM tabler interface.
func (LaissezPasserDetails) TableName() string { return "laissez_passer_details" }

// MarriageCapacityActDetails carries the fields specific to a certificate of
// capacity to marry.
type MarriageCapacityActDetails struct {
	ID                   string    `json:"-"                     gorm:"type:char(36);primaryKey"`
	RequestID            string    `json:"-"                     gorm:"type:char(36);not null;uniqueIndex"`
	ApplicantFirstName   string    `json:"applicant_first_name"  gorm:"type:varchar(128);not null"`
	ApplicantLastName    string    `json:"applicant_last_name"   gorm:"type:varchar(128);not null"`
	ApplicantDateOfBirth time.Time `json:"applicant_date_of_birth" gorm:"not null"`
	CivilStatus          string    `json:"civil_status"          gorm:"type:varchar(16);not null"`
	FianceFullName       string    `json:"fiance_full_name"      gorm:"type:varchar(255);not null"`
	FianceNationality    string    `json:"fiance_nationality"    gorm:"type:varchar(64);not null"`
	MarriageDate         time.Time `json:"marriage_date"         gorm:"not null"`
	MarriagePlace        string    `json:"marriage_place"        gorm:"type:varchar(128);not null"`
}

// TableName implements the GORM tabler interface.
func (MarriageCapacityActDetails) TableName() string { return "marriage_capacity_act_details" }

// DeathActDetails carries the fields specific to a death-act copy request.
type DeathActDetails struct {
	ID                string    `json:"-"                   gorm:"type:char(36);primaryKey"`
	RequestID         string    `json:"-"                   gorm:"type:char(36);not null;uniqueIndex"`
	DeceasedFirstName string    `json:"deceased_first_name" gorm:"type:varchar(128);not null"`
	DeceasedLastName  string    `json:"deceased_last_name"  gorm:"type:varchar(128);not null"`
	DeathDate         time.Time `json:"death_date"          gorm:"not null"`
	DeathPlace        string    `json:"death_place"         gorm:"type:varchar(128);not null"`
	DeclarantFullName string    `json:"declarant_full_name" gorm:"type:varchar(255);not null"`
	DeclarantRelation string    `json:"declarant_relation"  gorm:"type:varchar(32);not null"`
	CopiesRequested   int       `json:"copies_requested"    gorm:"not null;default:1"`
}

// TableName implements the GORM tabler interface.
func (DeathActDetails) TableName() string { return "death_act_details" }

// PowerOfAttorneyDetails carries the fields specific to a power-of-attorney
// request.
type PowerOfAttorneyDetails struct {
	ID               string    `json:"-"                 gorm:"type:char(36);primaryKey"`
	RequestID        string    `json:"-"                 gorm:"type:char(36);not null;uniqueIndex"`
	GrantorFirstName string    `json:"grantor_first_name" gorm:"type:varchar(128);not null"`
	GrantorLastName  string    `json:"grantor_last_name"  gorm:"type:varchar(128);not null"`
	GrantorIDNumber  string    `json:"grantor_id_number"  gorm:"type:varchar(64);not null"`
	AttorneyFullName string    `json:"attorney_full_name" gorm:"type:varchar(255);not null"`
	AttorneyIDNumber string    `json:"attorney_id_number" gorm:"type:varchar(64);not null"`
	Scope            string    `json:"scope"              gorm:"type:text;not null"`
	ValidUntil       time.Time `json:"valid_until"        gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (PowerOfAttorneyDetails) TableName() string { return "power_of_attorney_details" }

// NationalityCertificateDetails carries the fields specific to a nationality
// certificate request.
type NationalityCertificateDetails struct {
	ID               string    `json:"-"                 gorm:"type:char(36);primaryKey"`
	RequestID        string    `json:"-"                 gorm:"type:char(36);not null;uniqueIndex"`
	FirstName        string    `json:"first_name"        gorm:"type:varchar(128);not null"`
	LastName         string    `json:"last_name"         gorm:"type:varchar(128);not null"`
	DateOfBirth      time.Time `json:"date_of_birth"     gorm:"not null"`
	BirthPlace       string    `json:"birth_place"       gorm:"type:varchar(128);not null"`
	FatherFullName   string    `json:"father_full_name"  gorm:"type:varchar(255);not null"`
	MotherFullName   string    `json:"mother_full_name"  gorm:"type:varchar(255);not null"`
	ResidenceAddress string    `json:"residence_address" gorm:"type:text;not null"`
	Email            string    `json:"email"             gorm:"type:varchar(255)"`
}

// TableName implements the GORM tabler interface.
func (NationalityCertificateDetails) TableName() string { return "nationality_certificate_details" }

// Details returns the populated variant detail record, or nil when none is
// loaded. The switch is exhaustive over ServiceType: adding a 9th service
// requires extending this union (and ApplyDetails below) in exactly one place.
func (r *Request) Details() any {
	switch r.ServiceType {
	case ServiceVisa:
		if r.Visa != nil {
			return r.Visa
		}
	case ServiceBirthAct:
		if r.BirthAct != nil {
			return r.BirthAct
		}
	case ServiceConsularCard:
		if r.ConsularCard != nil {
			return r.ConsularCard
		}
	case ServiceLaissezPasser:
		if r.LaissezPasser != nil {
			return r.LaissezPasser
		}
	case ServiceMarriageCapacityAct:
		if r.MarriageCapacityAct != nil {
			return r.MarriageCapacityAct
		}
	case ServiceDeathAct:
		if r.DeathAct != nil {
			return r.DeathAct
		}
	case ServicePowerOfAttorney:
		if r.PowerOfAttorney != nil {
			return r.PowerOfAttorney
		}
	case ServiceNationalityCertificate:
		if r.NationalityCertificate != nil {
			return r.NationalityCertificate
		}
	}
	return nil
}

// FieldValues is a normalized set of validated field values keyed by schema
// field name. Values are already coerced: strings are trimmed, dates are
// time.Time, numbers are float64, checkboxes are bool.
type FieldValues map[string]any

// ApplyDetails populates the variant detail record matching r.ServiceType
// from normalized field values. Only the pointer matching the tag is set;
// all others stay nil. Field names must match the variants registry schema
// for the service type.
func ApplyDetails(r *Request, newID func() string, fv FieldValues) error {
	switch r.ServiceType {
	case ServiceVisa:
		r.Visa = &VisaDetails{
			ID:                 newID(),
			RequestID:          r.ID,
			PersonFirstName:    fv.str("personFirstName"),
			PersonLastName:     fv.str("personLastName"),
			DateOfBirth:        fv.date("dateOfBirth"),
			Nationality:        fv.str("nationality"),
			PassportNumber:     fv.str("passportNumber"),
			PassportExpiry:     fv.date("passportExpiry"),
			VisaType:           fv.str("visaType"),
			EntryCount:         fv.str("entryCount"),
			DurationDays:       fv.num("durationDays"),
			TravelPurpose:      fv.str("travelPurpose"),
			DestinationAddress: fv.str("destinationAddress"),
			PlannedArrival:     fv.dateOpt("plannedArrival"),
		}
	case ServiceBirthAct:
		r.BirthAct = &BirthActDetails{
			ID:                newID(),
			RequestID:         r.ID,
			ChildFirstName:    fv.str("childFirstName"),
			ChildLastName:     fv.str("childLastName"),
			ChildDateOfBirth:  fv.date("childDateOfBirth"),
			BirthPlace:        fv.str("birthPlace"),
			FatherFullName:    fv.str("fatherFullName"),
			MotherFullName:    fv.str("motherFullName"),
			DeclarantRelation: fv.str("declarantRelation"),
			CopiesRequested:   fv.numOr("copiesRequested", 1),
		}
	case ServiceConsularCard:
		r.ConsularCard = &ConsularCardDetails{
			ID:          newID(),
			RequestID:   r.ID,
			FirstName:   fv.str("firstName"),
			LastName:    fv.str("lastName"),
			DateOfBirth: fv.date("dateOfBirth"),
			BirthPlace:  fv.str("birthPlace"),
			Profession:  fv.str("profession"),
			HomeAddress: fv.str("homeAddress"),
			Email:       fv.str("email"),
			ArrivalDate: fv.date("arrivalDate"),
		}
	case ServiceLaissezPasser:
		r.LaissezPasser = &LaissezPasserDetails{
			ID:                 newID(),
			RequestID:          r.ID,
			FirstName:          fv.str("firstName"),
			LastName:           fv.str("lastName"),
			DateOfBirth:        fv.date("dateOfBirth"),
			BirthPlace:         fv.str("birthPlace"),
			TravelReason:       fv.str("travelReason"),
			DepartureDate:      fv.date("departureDate"),
			DestinationCountry: fv.str("destinationCountry"),
		}
	case ServiceMarriageCapacityAct:
		r.MarriageCapacityAct = &MarriageCapacityActDetails{
			ID:                   newID(),
			RequestID:            r.ID,
			ApplicantFirstName:   fv.str("applicantFirstName"),
			ApplicantLastName:    fv.str("applicantLastName"),
			ApplicantDateOfBirth: fv.date("applicantDateOfBirth"),
			CivilStatus:          fv.str("civilStatus"),
			FianceFullName:       fv.str("fianceFullName"),
			FianceNationality:    fv.str("fianceNationality"),
			MarriageDate:         fv.date("marriageDate"),
			MarriagePlace:        fv.str("marriagePlace"),
		}
	case ServiceDeathAct:
		r.DeathAct = &DeathActDetails{
			ID:                newID(),
			RequestID:         r.ID,
			DeceasedFirstName: fv.str("deceasedFirstName"),
			DeceasedLastName:  fv.str("deceasedLastName"),
			DeathDate:         fv.date("deathDate"),
			DeathPlace:        fv.str("deathPlace"),
			DeclarantFullName: fv.str("declarantFullName"),
			DeclarantRelation: fv.str("declarantRelation"),
			CopiesRequested:   fv.numOr("copiesRequested", 1),
		}
	case ServicePowerOfAttorney:
		r.PowerOfAttorney = &PowerOfAttorneyDetails{
			ID:               newID(),
			RequestID:        r.ID,
			GrantorFirstName: fv.str("grantorFirstName"),
			GrantorLastName:  fv.str("grantorLastName"),
			GrantorIDNumber:  fv.str("grantorIdNumber"),
			AttorneyFullName: fv.str("attorneyFullName"),
			AttorneyIDNumber: fv.str("attorneyIdNumber"),
			Scope:            fv.str("scope"),
			ValidUntil:       fv.date("validUntil"),
		}
	case ServiceNationalityCertificate:
		r.NationalityCertificate = &NationalityCertificateDetails{
			ID:               newID(),
			RequestID:        r.ID,
			FirstName:        fv.str("firstName"),
			LastName:         fv.str("lastName"),
			DateOfBirth:      fv.date("dateOfBirth"),
			BirthPlace:       fv.str("birthPlace"),
			FatherFullName:   fv.str("fatherFullName"),
			MotherFullName:   fv.str("motherFullName"),
			ResidenceAddress: fv.str("residenceAddress"),
			Email:            fv.str("email"),
		}
	default:
		return fmt.Errorf("unknown service type %q", r.ServiceType)
	}
	return nil
}

// str returns the trimmed string stored under key, or "".
func (fv FieldValues) str(key string) string {
	if v, ok := fv[key].(string); ok {
		return v
	}
	return ""
}

// date returns the time stored under key, or the zero time.
func (fv FieldValues) date(key string) time.Time {
	if v, ok := fv[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// dateOpt returns a pointer to the time stored under key, or nil when the
// optional field was not submitted.
func (fv FieldValues) dateOpt(key string) *time.Time {
	if v, ok := fv[key].(time.Time); ok {
		return &v
	}
	return nil
}

// num returns the numeric value stored under key truncated to int, or 0.
func (fv FieldValues) num(key string) int {
	if v, ok := fv[key].(float64); ok {
		return int(v)
	}
	return 0
}

// numOr is num with a fallback for absent optional fields.
func (fv FieldValues) numOr(key string, def int) int {
	if v, ok := fv[key].(float64); ok {
		return int(v)
	}
	return def
}
