package report

import (
	"strings"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

const (
	checkedMark   = "☑"
	uncheckedMark = "☐"
)

// Checkbox is one option of an enum field rendered as a checkbox row.
type Checkbox struct {
	Label   string
	Checked bool
}

// Mark returns the checkbox glyph.
func (c Checkbox) Mark() string {
	if c.Checked {
		return checkedMark
	}
	return uncheckedMark
}

var typeLabels = map[models.IncidentType]string{
	models.IncidentTypeInjury:         "Injury",
	models.IncidentTypeIllness:        "Illness",
	models.IncidentTypeBehavioral:     "Behavioral",
	models.IncidentTypeMedication:     "Medication",
	models.IncidentTypePropertyDamage: "Property Damage",
	models.IncidentTypeSecurity:       "Security",
	models.IncidentTypeOther:          "Other",
}

var severityLabels = map[models.Severity]string{
	models.SeverityMinor:    "Minor",
	models.SeverityModerate: "Moderate",
	models.SeveritySerious:  "Serious",
	models.SeverityCritical: "Critical",
}

var methodLabels = map[models.NotificationMethod]string{
	models.NotificationPhone:    "Phone",
	models.NotificationInPerson: "In Person",
	models.NotificationEmail:    "Email",
	models.NotificationText:     "Text Message",
}

var statusLabels = map[models.IncidentStatus]string{
	models.IncidentStatusOpen:             "Open",
	models.IncidentStatusPendingSignature: "Pending Signature",
	models.IncidentStatusPendingClosure:   "Pending Closure",
	models.IncidentStatusClosed:           "Closed",
}

// TypeLabel returns the display label of an incident type.
func TypeLabel(t models.IncidentType) string {
	return labelOr(typeLabels[t], string(t))
}

// SeverityLabel returns the display label of a severity.
func SeverityLabel(s models.Severity) string {
	return labelOr(severityLabels[s], string(s))
}

// MethodLabel returns the display label of a notification method.
func MethodLabel(m models.NotificationMethod) string {
	return labelOr(methodLabels[m], string(m))
}

// StatusLabel returns the display label of a lifecycle status.
func StatusLabel(s models.IncidentStatus) string {
	return labelOr(statusLabels[s], string(s))
}

func typeChecks(selected models.IncidentType) []Checkbox {
	all := models.AllIncidentTypes()
	out := make([]Checkbox, 0, len(all))
	for _, t := range all {
		out = append(out, Checkbox{Label: TypeLabel(t), Checked: t == selected})
	}
	return out
}

func severityChecks(selected models.Severity) []Checkbox {
	all := models.AllSeverities()
	out := make([]Checkbox, 0, len(all))
	for _, s := range all {
		out = append(out, Checkbox{Label: SeverityLabel(s), Checked: s == selected})
	}
	return out
}

func methodChecks(selected *models.NotificationMethod) []Checkbox {
	all := models.AllNotificationMethods()
	out := make([]Checkbox, 0, len(all))
	for _, m := range all {
		out = append(out, Checkbox{Label: MethodLabel(m), Checked: selected != nil && *selected == m})
	}
	return out
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return strings.ReplaceAll(fallback, "_", " ")
}
