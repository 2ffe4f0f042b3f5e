package models

import (
	"time"

	"github.com/lib/pq"
)

// IncidentPatch is the write vocabulary for incident rows. Only fields with Set=true are
// written; Null=true writes NULL. It deliberately has no status field: status only moves
// through the lifecycle transitions.
type IncidentPatch struct {
	ClassroomID     Optional[string]
	IncidentType    Optional[IncidentType]
	Severity        Optional[Severity]
	OccurredAt      Optional[time.Time]
	Location        Optional[string]
	Description     Optional[string]
	ActionTaken     Optional[string]
	WitnessStaffIDs Optional[[]string]
	WitnessNames    Optional[string]

	ParentNotified       Optional[bool]
	ParentNotifiedAt     Optional[time.Time]
	ParentNotifiedMethod Optional[NotificationMethod]
	ParentNotifiedBy     Optional[string]
	ParentCopySent       Optional[bool]

	SignatureData        Optional[string]
	SignedByName         Optional[string]
	SignedByRelationship Optional[string]
	SignedAt             Optional[time.Time]

	FollowUpRequired    Optional[bool]
	FollowUpDate        Optional[time.Time]
	FollowUpCompleted   Optional[bool]
	FollowUpCompletedAt Optional[time.Time]
	FollowUpCompletedBy Optional[string]

	ClosedAt     Optional[time.Time]
	ClosedBy     Optional[string]
	ClosureNotes Optional[string]
}

// ColumnValue pairs a column with the value to write; a nil Value writes NULL.
type ColumnValue struct {
	Column string
	Value  interface{}
}

// Columns lists the provided fields in a stable order.
func (p IncidentPatch) Columns() []ColumnValue {
	cols := make([]ColumnValue, 0, 8)
	cols = appendColumn(cols, "classroom_id", p.ClassroomID)
	cols = appendColumn(cols, "incident_type", p.IncidentType)
	cols = appendColumn(cols, "severity", p.Severity)
	cols = appendColumn(cols, "occurred_at", p.OccurredAt)
	cols = appendColumn(cols, "location", p.Location)
	cols = appendColumn(cols, "description", p.Description)
	cols = appendColumn(cols, "action_taken", p.ActionTaken)
	if p.WitnessStaffIDs.Set {
		ids := pq.StringArray{}
		if !p.WitnessStaffIDs.Null {
			ids = append(ids, p.WitnessStaffIDs.Value...)
		}
		cols = append(cols, ColumnValue{Column: "witness_staff_ids", Value: ids})
	}
	cols = appendColumn(cols, "witness_names", p.WitnessNames)
	cols = appendColumn(cols, "parent_notified", p.ParentNotified)
	cols = appendColumn(cols, "parent_notified_at", p.ParentNotifiedAt)
	cols = appendColumn(cols, "parent_notified_method", p.ParentNotifiedMethod)
	cols = appendColumn(cols, "parent_notified_by", p.ParentNotifiedBy)
	cols = appendColumn(cols, "parent_copy_sent", p.ParentCopySent)
	cols = appendColumn(cols, "signature_data", p.SignatureData)
	cols = appendColumn(cols, "signed_by_name", p.SignedByName)
	cols = appendColumn(cols, "signed_by_relationship", p.SignedByRelationship)
	cols = appendColumn(cols, "signed_at", p.SignedAt)
	cols = appendColumn(cols, "follow_up_required", p.FollowUpRequired)
	cols = appendColumn(cols, "follow_up_date", p.FollowUpDate)
	cols = appendColumn(cols, "follow_up_completed", p.FollowUpCompleted)
	cols = appendColumn(cols, "follow_up_completed_at", p.FollowUpCompletedAt)
	cols = appendColumn(cols, "follow_up_completed_by", p.FollowUpCompletedBy)
	cols = appendColumn(cols, "closed_at", p.ClosedAt)
	cols = appendColumn(cols, "closed_by", p.ClosedBy)
	cols = appendColumn(cols, "closure_notes", p.ClosureNotes)
	return cols
}

// IsEmpty reports whether nothing would be written.
func (p IncidentPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Changes returns the provided fields keyed by column, for audit payloads.
func (p IncidentPatch) Changes() map[string]interface{} {
	cols := p.Columns()
	changes := make(map[string]interface{}, len(cols))
	for _, col := range cols {
		if col.Column == "signature_data" && col.Value != nil {
			changes[col.Column] = "[redacted]"
			continue
		}
		changes[col.Column] = col.Value
	}
	return changes
}

func appendColumn[T any](cols []ColumnValue, column string, opt Optional[T]) []ColumnValue {
	if !opt.Set {
		return cols
	}
	if opt.Null {
		return append(cols, ColumnValue{Column: column})
	}
	return append(cols, ColumnValue{Column: column, Value: opt.Value})
}
