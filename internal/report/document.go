package report

import (
	"strings"
	"time"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

const (
	dateTimeLayout = "Jan 2, 2006 3:04 PM"
	dateLayout     = "Jan 2, 2006"
	notRecorded    = "Not recorded"
)

// document is the flattened, display-ready view of an incident shared by the HTML and PDF
// renditions. Building it never writes to the source incident.
type document struct {
	Org models.Organization

	Number      string
	Status      string
	Severity    string
	GeneratedAt string

	ChildName   string
	ChildAge    string
	ChildPhoto  string
	Classroom   string
	OccurredAt  string
	Location    string
	TypeChecks  []Checkbox
	SevChecks   []Checkbox
	Description string
	ActionTaken string

	ReportedBy   string
	Witnesses    []string
	WitnessNames string

	ParentNotified   bool
	NotifiedAt       string
	MethodChecks     []Checkbox
	NotifiedBy       string
	ParentCopySent   bool
	Signed           bool
	SignatureData    string
	SignedByName     string
	SignedByRelation string
	SignedAt         string

	FollowUpRequired    bool
	FollowUpDate        string
	FollowUpCompleted   bool
	FollowUpCompletedAt string

	Closed       bool
	ClosedAt     string
	ClosedBy     string
	ClosureNotes string
}

func newDocument(detail models.IncidentDetail, org models.Organization, now time.Time) document {
	inc := detail.Incident
	doc := document{
		Org:         org,
		Number:      displayNumber(inc),
		Status:      StatusLabel(inc.Status),
		Severity:    SeverityLabel(inc.Severity),
		GeneratedAt: now.Format(dateTimeLayout),
		ChildAge:    notRecorded,
		Classroom:   notRecorded,
		OccurredAt:  inc.OccurredAt.Format(dateTimeLayout),
		Location:    deref(inc.Location, notRecorded),
		TypeChecks:  typeChecks(inc.IncidentType),
		SevChecks:   severityChecks(inc.Severity),
		Description: inc.Description,
		ActionTaken: deref(inc.ActionTaken, notRecorded),
		ReportedBy:  inc.ReportedBy,

		WitnessNames:   deref(inc.WitnessNames, ""),
		ParentNotified: inc.ParentNotified,
		NotifiedAt:     formatTime(inc.ParentNotifiedAt, dateTimeLayout),
		MethodChecks:   methodChecks(inc.ParentNotifiedMethod),
		NotifiedBy:     deref(inc.ParentNotifiedBy, ""),
		ParentCopySent: inc.ParentCopySent,

		Signed:           inc.HasSignature(),
		SignedByName:     deref(inc.SignedByName, ""),
		SignedByRelation: deref(inc.SignedByRelationship, ""),
		SignedAt:         formatTime(inc.SignedAt, dateTimeLayout),

		FollowUpRequired:    inc.FollowUpRequired,
		FollowUpDate:        formatTime(inc.FollowUpDate, dateLayout),
		FollowUpCompleted:   inc.FollowUpCompleted,
		FollowUpCompletedAt: formatTime(inc.FollowUpCompletedAt, dateTimeLayout),

		Closed:       inc.Status == models.IncidentStatusClosed,
		ClosedAt:     formatTime(inc.ClosedAt, dateTimeLayout),
		ClosedBy:     deref(inc.ClosedBy, ""),
		ClosureNotes: deref(inc.ClosureNotes, ""),
	}
	if doc.Signed {
		doc.SignatureData = *inc.SignatureData
	}

	if child := detail.Child; child != nil {
		doc.ChildName = child.FullName()
		doc.ChildPhoto = child.PhotoURL
		if child.DateOfBirth != nil {
			doc.ChildAge = AgeLabel(*child.DateOfBirth, now)
		}
	}
	if doc.ChildName == "" {
		doc.ChildName = inc.ChildID
	}
	if detail.Classroom != nil {
		doc.Classroom = detail.Classroom.Name
	}
	if detail.Reporter != nil {
		doc.ReportedBy = detail.Reporter.FullName
	}
	if detail.NotifiedBy != nil {
		doc.NotifiedBy = detail.NotifiedBy.FullName
	}
	if detail.ClosedBy != nil {
		doc.ClosedBy = detail.ClosedBy.FullName
	}

	named := make(map[string]string, len(detail.Witnesses))
	for _, staff := range detail.Witnesses {
		named[staff.ID] = staff.FullName
	}
	for _, id := range inc.WitnessStaffIDs {
		if name, ok := named[id]; ok {
			doc.Witnesses = append(doc.Witnesses, name)
			continue
		}
		doc.Witnesses = append(doc.Witnesses, id)
	}
	return doc
}

// Filename builds Reporte-Incidente-<number>.<ext>, falling back to the first eight characters
// of the id when no number has been assigned.
func Filename(incident models.Incident, ext string) string {
	return "Reporte-Incidente-" + displayNumber(incident) + "." + strings.TrimPrefix(ext, ".")
}

func displayNumber(incident models.Incident) string {
	if incident.IncidentNumber != "" {
		return incident.IncidentNumber
	}
	id := incident.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

func deref(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}

func formatTime(value *time.Time, layout string) string {
	if value == nil {
		return ""
	}
	return value.Format(layout)
}
