package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// IncidentType classifies what happened.
type IncidentType string

const (
	IncidentTypeInjury         IncidentType = "injury"
	IncidentTypeIllness        IncidentType = "illness"
	IncidentTypeBehavioral     IncidentType = "behavioral"
	IncidentTypeMedication     IncidentType = "medication"
	IncidentTypePropertyDamage IncidentType = "property_damage"
	IncidentTypeSecurity       IncidentType = "security"
	IncidentTypeOther          IncidentType = "other"
)

// AllIncidentTypes lists types in display order.
func AllIncidentTypes() []IncidentType {
	return []IncidentType{
		IncidentTypeInjury,
		IncidentTypeIllness,
		IncidentTypeBehavioral,
		IncidentTypeMedication,
		IncidentTypePropertyDamage,
		IncidentTypeSecurity,
		IncidentTypeOther,
	}
}

// Valid reports whether t is a known type.
func (t IncidentType) Valid() bool {
	for _, known := range AllIncidentTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Severity grades the seriousness of an incident.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySerious  Severity = "serious"
	SeverityCritical Severity = "critical"
)

// AllSeverities lists severities from least to most serious.
func AllSeverities() []Severity {
	return []Severity{SeverityMinor, SeverityModerate, SeveritySerious, SeverityCritical}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	for _, known := range AllSeverities() {
		if s == known {
			return true
		}
	}
	return false
}

// NotificationMethod records how the guardian was told.
type NotificationMethod string

const (
	NotificationPhone    NotificationMethod = "phone"
	NotificationInPerson NotificationMethod = "in_person"
	NotificationEmail    NotificationMethod = "email"
	NotificationText     NotificationMethod = "text"
)

// AllNotificationMethods lists methods in display order.
func AllNotificationMethods() []NotificationMethod {
	return []NotificationMethod{NotificationPhone, NotificationInPerson, NotificationEmail, NotificationText}
}

// Valid reports whether m is a known method.
func (m NotificationMethod) Valid() bool {
	for _, known := range AllNotificationMethods() {
		if m == known {
			return true
		}
	}
	return false
}

// IncidentStatus is the lifecycle state.
type IncidentStatus string

const (
	IncidentStatusOpen             IncidentStatus = "open"
	IncidentStatusPendingSignature IncidentStatus = "pending_signature"
	IncidentStatusPendingClosure   IncidentStatus = "pending_closure"
	IncidentStatusClosed           IncidentStatus = "closed"
)

// AllIncidentStatuses lists statuses in lifecycle order.
func AllIncidentStatuses() []IncidentStatus {
	return []IncidentStatus{
		IncidentStatusOpen,
		IncidentStatusPendingSignature,
		IncidentStatusPendingClosure,
		IncidentStatusClosed,
	}
}

// Incident is a reportable event involving a child, scoped to one organization.
type Incident struct {
	ID             string `db:"id" json:"id"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
	IncidentNumber string `db:"incident_number" json:"incident_number"`

	ChildID      string       `db:"child_id" json:"child_id"`
	ClassroomID  *string      `db:"classroom_id" json:"classroom_id,omitempty"`
	IncidentType IncidentType `db:"incident_type" json:"incident_type"`
	Severity     Severity     `db:"severity" json:"severity"`
	OccurredAt   time.Time    `db:"occurred_at" json:"occurred_at"`
	Location     *string      `db:"location" json:"location,omitempty"`
	Description  string       `db:"description" json:"description"`
	ActionTaken  *string      `db:"action_taken" json:"action_taken,omitempty"`

	ReportedBy      string         `db:"reported_by" json:"reported_by"`
	WitnessStaffIDs pq.StringArray `db:"witness_staff_ids" json:"witness_staff_ids"`
	WitnessNames    *string        `db:"witness_names" json:"witness_names,omitempty"`

	ParentNotified       bool                `db:"parent_notified" json:"parent_notified"`
	ParentNotifiedAt     *time.Time          `db:"parent_notified_at" json:"parent_notified_at,omitempty"`
	ParentNotifiedMethod *NotificationMethod `db:"parent_notified_method" json:"parent_notified_method,omitempty"`
	ParentNotifiedBy     *string             `db:"parent_notified_by" json:"parent_notified_by,omitempty"`
	ParentCopySent       bool                `db:"parent_copy_sent" json:"parent_copy_sent"`

	SignatureData        *string    `db:"signature_data" json:"signature_data,omitempty"`
	SignedByName         *string    `db:"signed_by_name" json:"signed_by_name,omitempty"`
	SignedByRelationship *string    `db:"signed_by_relationship" json:"signed_by_relationship,omitempty"`
	SignedAt             *time.Time `db:"signed_at" json:"signed_at,omitempty"`

	FollowUpRequired    bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate        *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpCompleted   bool       `db:"follow_up_completed" json:"follow_up_completed"`
	FollowUpCompletedAt *time.Time `db:"follow_up_completed_at" json:"follow_up_completed_at,omitempty"`
	FollowUpCompletedBy *string    `db:"follow_up_completed_by" json:"follow_up_completed_by,omitempty"`

	ClosedAt     *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy     *string    `db:"closed_by" json:"closed_by,omitempty"`
	ClosureNotes *string    `db:"closure_notes" json:"closure_notes,omitempty"`

	Status    IncidentStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// HasSignature reports whether guardian signature data is present. It is the only closure gate.
func (i *Incident) HasSignature() bool {
	return i != nil && i.SignatureData != nil && strings.TrimSpace(*i.SignatureData) != ""
}

// IncidentStats aggregates incident counts for a dashboard.
type IncidentStats struct {
	Total            int                    `json:"total"`
	ByStatus         map[IncidentStatus]int `json:"by_status"`
	BySeverity       map[Severity]int       `json:"by_severity"`
	ThisMonth        int                    `json:"this_month"`
	PendingSignature int                    `json:"pending_signature"`
	PendingFollowUp  int                    `json:"pending_follow_up"`
}

const incidentNumberPrefix = "INC"

// FormatIncidentNumber renders INC-<year>-<seq> with a zero-padded four digit sequence.
func FormatIncidentNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", incidentNumberPrefix, year, seq)
}

// ParseIncidentNumber splits an incident number into year and sequence.
func ParseIncidentNumber(number string) (year, seq int, ok bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != incidentNumberPrefix {
		return 0, 0, false
	}
	year, errYear := strconv.Atoi(parts[1])
	seq, errSeq := strconv.Atoi(parts[2])
	if errYear != nil || errSeq != nil || year <= 0 || seq <= 0 {
		return 0, 0, false
	}
	return year, seq, true
}
