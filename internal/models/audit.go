package models

import "time"

// AuditAction constants represent incident lifecycle events.
const (
	AuditActionIncidentCreate           = "INCIDENT_CREATE"
	AuditActionIncidentUpdate           = "INCIDENT_UPDATE"
	AuditActionIncidentNotifyParent     = "INCIDENT_NOTIFY_PARENT"
	AuditActionIncidentSign             = "INCIDENT_SIGN"
	AuditActionIncidentClose            = "INCIDENT_CLOSE"
	AuditActionIncidentFollowUpComplete = "INCIDENT_FOLLOW_UP_COMPLETE"
	AuditActionIncidentShare            = "INCIDENT_SHARE"
	AuditActionIncidentReportView       = "INCIDENT_REPORT_VIEW"
	AuditActionIncidentReportDownload   = "INCIDENT_REPORT_DOWNLOAD"
	AuditActionIncidentRegisterExport   = "INCIDENT_REGISTER_EXPORT"
)

// AuditResourceIncident names incident rows in the audit trail.
const AuditResourceIncident = "incident"

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	UserID         *string   `db:"user_id" json:"user_id,omitempty"`
	Action         string    `db:"action" json:"action"`
	Resource       string    `db:"resource" json:"resource"`
	ResourceID     *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues      []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues      []byte    `db:"new_values" json:"new_values,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
