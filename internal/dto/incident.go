package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

// CreateIncidentRequest captures POST /incidents payload.
type CreateIncidentRequest struct {
	ChildID          string                     `json:"child_id" validate:"required"`
	ClassroomID      *string                    `json:"classroom_id,omitempty" validate:"omitempty,min=1"`
	IncidentType     models.IncidentType        `json:"incident_type" validate:"required,incident_type"`
	Severity         models.Severity            `json:"severity" validate:"required,severity"`
	OccurredAt       *time.Time                 `json:"occurred_at" validate:"required"`
	Location         *string                    `json:"location,omitempty"`
	Description      string                     `json:"description" validate:"required"`
	ActionTaken      *string                    `json:"action_taken,omitempty"`
	WitnessStaffIDs  []string                   `json:"witness_staff_ids,omitempty" validate:"omitempty,dive,required"`
	WitnessNames     *string                    `json:"witness_names,omitempty"`
	ParentNotified   bool                       `json:"parent_notified"`
	NotifiedMethod   *models.NotificationMethod `json:"parent_notified_method,omitempty" validate:"omitempty,notification_method"`
	FollowUpRequired bool                       `json:"follow_up_required"`
	FollowUpDate     *time.Time                 `json:"follow_up_date,omitempty"`
}

// UpdateIncidentRequest is the whitelist of client-editable fields for PATCH /incidents/:id.
// Keys absent from the payload are left untouched; explicit nulls clear the column.
type UpdateIncidentRequest struct {
	ClassroomID          models.Optional[string]                    `json:"classroom_id"`
	IncidentType         models.Optional[models.IncidentType]       `json:"incident_type"`
	Severity             models.Optional[models.Severity]           `json:"severity"`
	OccurredAt           models.Optional[time.Time]                 `json:"occurred_at"`
	Location             models.Optional[string]                    `json:"location"`
	Description          models.Optional[string]                    `json:"description"`
	ActionTaken          models.Optional[string]                    `json:"action_taken"`
	WitnessStaffIDs      models.Optional[[]string]                  `json:"witness_staff_ids"`
	WitnessNames         models.Optional[string]                    `json:"witness_names"`
	ParentNotified       models.Optional[bool]                      `json:"parent_notified"`
	ParentNotifiedMethod models.Optional[models.NotificationMethod] `json:"parent_notified_method"`
	ParentNotifiedBy     models.Optional[string]                    `json:"parent_notified_by"`
	ParentCopySent       models.Optional[bool]                      `json:"parent_copy_sent"`
	FollowUpRequired     models.Optional[bool]                      `json:"follow_up_required"`
	FollowUpDate         models.Optional[time.Time]                 `json:"follow_up_date"`
}

// Patch converts the request into the store's patch vocabulary.
func (r UpdateIncidentRequest) Patch() models.IncidentPatch {
	return models.IncidentPatch{
		ClassroomID:          r.ClassroomID,
		IncidentType:         r.IncidentType,
		Severity:             r.Severity,
		OccurredAt:           r.OccurredAt,
		Location:             r.Location,
		Description:          r.Description,
		ActionTaken:          r.ActionTaken,
		WitnessStaffIDs:      r.WitnessStaffIDs,
		WitnessNames:         r.WitnessNames,
		ParentNotified:       r.ParentNotified,
		ParentNotifiedMethod: r.ParentNotifiedMethod,
		ParentNotifiedBy:     r.ParentNotifiedBy,
		ParentCopySent:       r.ParentCopySent,
		FollowUpRequired:     r.FollowUpRequired,
		FollowUpDate:         r.FollowUpDate,
	}
}

// CreateFromTemplateRequest captures POST /incidents/from-template payload.
type CreateFromTemplateRequest struct {
	TemplateKey string  `json:"template" validate:"required"`
	ChildID     string  `json:"child_id" validate:"required"`
	ClassroomID *string `json:"classroom_id,omitempty"`
}

// FromTemplateResponse returns the new incident id and the template used to pre-fill it.
type FromTemplateResponse struct {
	ID       string                  `json:"id"`
	Template models.IncidentTemplate `json:"template"`
}

// NotifyParentRequest captures POST /incidents/:id/notify-parent payload.
type NotifyParentRequest struct {
	Method models.NotificationMethod `json:"method" validate:"required,notification_method"`
}

// SignatureRequest captures the guardian signature.
type SignatureRequest struct {
	SignatureData        string `json:"signature_data" validate:"required"`
	SignedByName         string `json:"signed_by_name" validate:"required"`
	SignedByRelationship string `json:"signed_by_relationship" validate:"required"`
}

// SignatureResult reports the outcome of recording a signature.
type SignatureResult struct {
	Success  bool       `json:"success"`
	Message  string     `json:"message"`
	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// CloseIncidentRequest captures POST /incidents/:id/close payload.
type CloseIncidentRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// IncidentListQuery mirrors the supported list views.
type IncidentListQuery struct {
	View string     `form:"view"`
	AsOf *time.Time `form:"asOf" time_format:"2006-01-02"`
}

// Incident list views.
const (
	IncidentViewAll              = ""
	IncidentViewPendingSignature = "pending_signature"
	IncidentViewFollowUp         = "follow_up"
)

// IncidentHistoryEntry is one audit trail entry of an incident.
type IncidentHistoryEntry struct {
	Action  string          `json:"action"`
	UserID  *string         `json:"user_id,omitempty"`
	At      time.Time       `json:"at"`
	Changes json.RawMessage `json:"changes,omitempty"`
}
