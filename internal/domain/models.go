package domain

import (
	"time"

	"gorm.io/gorm"
)

// Request represents a single consular service application ("demande")
// tracked from submission to delivery or rejection.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - TicketNumber: externally-facing unique tracking identifier, generated
//     at creation and never changed.
//   - ServiceType: which of the 8 consular services is requested; exactly one
//     of the detail pointers below is populated and its type matches this tag.
//   - Status: current pipeline stage; mutated only through the workflow engine.
//   - Version: optimistic-concurrency counter, bumped on every successful
//     status transition. Concurrent writers losing the compare-and-swap get
//     a conflict instead of silently clobbering each other.
//   - SubmissionDate: when the request entered the system (status NEW).
//   - CompletionDate: set when the request reaches DELIVERED.
//   - IssuedDate: set on the first transition into APPROVED_BY_CONSUL.
//   - Amount: fee owed for the service, resolved from the variant schema.
type Request struct {
	ID                 string         `json:"id"                   gorm:"type:char(36);primaryKey"`
	TicketNumber       string         `json:"ticket_number"        gorm:"type:varchar(32);not null;uniqueIndex"`
	ServiceType        ServiceType    `json:"service_type"         gorm:"type:varchar(32);not null;index"`
	Status             Status         `json:"status"               gorm:"type:varchar(32);not null;index"`
	Version            int64          `json:"version"              gorm:"not null;default:0"`
	SubmissionDate     time.Time      `json:"submission_date"      gorm:"not null;index"`
	CompletionDate     *time.Time     `json:"completion_date,omitempty"`
	IssuedDate         *time.Time     `json:"issued_date,omitempty"`
	ContactPhoneNumber string         `json:"contact_phone_number,omitempty" gorm:"type:varchar(32)"`
	Observations       string         `json:"observations,omitempty"         gorm:"type:text"`
	Amount             float64        `json:"amount"               gorm:"not null;default:0"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-"                    gorm:"index"`

	// Variant detail records (tagged union keyed by ServiceType). Exactly one
	// pointer is non-nil per request; see Details() and ApplyDetails().
	Visa                   *VisaDetails                   `json:"visa_details,omitempty"                    gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	BirthAct               *BirthActDetails               `json:"birth_act_details,omitempty"               gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ConsularCard           *ConsularCardDetails           `json:"consular_card_details,omitempty"           gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	LaissezPasser          *LaissezPasserDetails          `json:"laissez_passer_details,omitempty"          gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	MarriageCapacityAct    *MarriageCapacityActDetails    `json:"marriage_capacity_act_details,omitempty"   gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	DeathAct               *DeathActDetails               `json:"death_act_details,omitempty"               gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	PowerOfAttorney        *PowerOfAttorneyDetails        `json:"power_of_attorney_details,omitempty"       gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	NationalityCertificate *NationalityCertificateDetails `json:"nationality_certificate_details,omitempty" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Request.
func (Request) TableName() string { return "requests" }

// StatusHistoryEntry records one status change of a request. Entries are
// append-only: they are created exactly once per transition and never edited
// or removed. Seq is the stable tie-break when two entries share a ChangedAt
// timestamp at the database's resolution.
type StatusHistoryEntry struct {
	Seq         int64     `json:"seq"          gorm:"primaryKey;autoIncrement"`
	RequestID   string    `json:"request_id"   gorm:"type:char(36);not null;index:idx_request_history,priority:1"`
	OldStatus   *Status   `json:"old_status,omitempty" gorm:"type:varchar(32)"`
	NewStatus   Status    `json:"new_status"   gorm:"type:varchar(32);not null"`
	ChangerID   string    `json:"changer_id"   gorm:"type:varchar(64);not null"`
	ChangedAt   time.Time `json:"changed_at"   gorm:"not null;index:idx_request_history,priority:2"`
	Reason      string    `json:"reason,omitempty"      gorm:"type:text"`
	Observation string    `json:"observation,omitempty" gorm:"type:text"`
}

// TableName returns the database table name for StatusHistoryEntry.
func (StatusHistoryEntry) TableName() string { return "status_history" }
