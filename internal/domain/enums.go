// Package domain defines the persistence models for consular service
// requests, their per-service-type detail records, and the status history
// audit trail. These types are mapped with GORM and form the core data layer
// of the consular backend.
package domain

import "fmt"

// ServiceType identifies one of the consular services a request can ask for.
// Each value has a matching detail record type (see details.go) and a field
// schema in the variants package.
type ServiceType string

// Supported consular service types.
const (
	ServiceVisa                   ServiceType = "VISA"
	ServiceBirthAct               ServiceType = "BIRTH_ACT"
	ServiceConsularCard           ServiceType = "CONSULAR_CARD"
	ServiceLaissezPasser          ServiceType = "LAISSEZ_PASSER"
	ServiceMarriageCapacityAct    ServiceType = "MARRIAGE_CAPACITY_ACT"
	ServiceDeathAct               ServiceType = "DEATH_ACT"
	ServicePowerOfAttorney        ServiceType = "POWER_OF_ATTORNEY"
	ServiceNationalityCertificate ServiceType = "NATIONALITY_CERTIFICATE"
)

// AllServiceTypes lists every supported service type in stable order.
// The variants registry is checked against this list at init time.
var AllServiceTypes = []ServiceType{
	ServiceVisa,
	ServiceBirthAct,
	ServiceConsularCard,
	ServiceLaissezPasser,
	ServiceMarriageCapacityAct,
	ServiceDeathAct,
	ServicePowerOfAttorney,
	ServiceNationalityCertificate,
}

// ParseServiceType converts a raw string into a ServiceType, or fails when
// the value is not one of the 8 supported services.
func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(s)
	for _, v := range AllServiceTypes {
		if v == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown service type %q", s)
}

// Status is the current stage of a request in the approval pipeline.
type Status string

// Request statuses. ARCHIVED and EXPIRED are terminal; RENEWAL_REQUESTED has
// no transitions in the observed workflow (renewal/expiry is handled by an
// out-of-band administrative process, not via the transition engine).
const (
	StatusNew                   Status = "NEW"
	StatusInReviewDocs          Status = "IN_REVIEW_DOCS"
	StatusPendingAdditionalInfo Status = "PENDING_ADDITIONAL_INFO"
	StatusApprovedByAgent       Status = "APPROVED_BY_AGENT"
	StatusApprovedByChef        Status = "APPROVED_BY_CHEF"
	StatusApprovedByConsul      Status = "APPROVED_BY_CONSUL"
	StatusRejected              Status = "REJECTED"
	StatusReadyForPickup        Status = "READY_FOR_PICKUP"
	StatusDelivered             Status = "DELIVERED"
	StatusArchived              Status = "ARCHIVED"
	StatusExpired               Status = "EXPIRED"
	StatusRenewalRequested      Status = "RENEWAL_REQUESTED"
)

// AllStatuses lists every status in pipeline order.
var AllStatuses = []Status{
	StatusNew,
	StatusInReviewDocs,
	StatusPendingAdditionalInfo,
	StatusApprovedByAgent,
	StatusApprovedByChef,
	StatusApprovedByConsul,
	StatusRejected,
	StatusReadyForPickup,
	StatusDelivered,
	StatusArchived,
	StatusExpired,
	StatusRenewalRequested,
}

// ParseStatus converts a raw string into a Status, or fails when the value is
// not part of the enumeration.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	for _, v := range AllStatuses {
		if v == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}
