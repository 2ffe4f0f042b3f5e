package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

var documentTemplate = template.Must(template.New("incident").Funcs(template.FuncMap{
	"imageSrc": imageSrc,
	"yesNo":    yesNo,
}).Parse(documentHTML))

// Render produces a self-contained HTML document for the incident. It has no side effects and
// does not modify detail.
func Render(detail models.IncidentDetail, org models.Organization, now time.Time) (string, error) {
	doc := newDocument(detail, org, now)
	var out strings.Builder
	if err := documentTemplate.Execute(&out, doc); err != nil {
		return "", fmt.Errorf("render incident report: %w", err)
	}
	return out.String(), nil
}

// imageSrc accepts data:image URLs verbatim and wraps bare base64 payloads as PNG.
func imageSrc(data string) template.URL {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:image/") {
		return template.URL(data)
	}
	return template.URL("data:image/png;base64," + data)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

const documentHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Incident Report {{.Number}}</title>
<style>
body { font-family: Arial, Helvetica, sans-serif; font-size: 12px; color: #222; margin: 24px; }
header { display: flex; align-items: center; gap: 16px; border-bottom: 2px solid #333; padding-bottom: 8px; }
header img.logo { max-height: 64px; }
header h1 { margin: 0; font-size: 20px; }
header p { margin: 2px 0; }
h2 { text-align: center; margin: 16px 0 4px; }
p.meta { text-align: center; margin: 0 0 12px; }
section { border: 1px solid #bbb; padding: 8px 12px; margin-bottom: 10px; }
section h3 { margin: 0 0 6px; font-size: 13px; text-transform: uppercase; }
.checks span { display: inline-block; margin-right: 14px; }
.field { margin: 2px 0; }
.field b { display: inline-block; min-width: 150px; }
img.signature { max-height: 90px; border-bottom: 1px solid #333; }
.signature-line { height: 60px; border-bottom: 1px solid #333; width: 320px; }
footer { font-size: 10px; color: #666; text-align: right; margin-top: 16px; }
</style>
</head>
<body>
<header>
{{- if .Org.LogoURL}}<img class="logo" src="{{.Org.LogoURL}}" alt="{{.Org.Name}}">{{end}}
<div>
<h1>{{.Org.Name}}</h1>
{{- with .Org.Address}}<p>{{.}}</p>{{end}}
{{- with .Org.Phone}}<p>Phone: {{.}}</p>{{end}}
{{- with .Org.LicenseNumber}}<p>License #: {{.}}</p>{{end}}
</div>
</header>

<h2>Incident Report</h2>
<p class="meta">No. <strong>{{.Number}}</strong> &middot; Severity: <strong>{{.Severity}}</strong> &middot; Status: {{.Status}}</p>

<section class="child">
<h3>Child Information</h3>
<p class="field"><b>Name:</b> {{.ChildName}}</p>
<p class="field"><b>Age:</b> {{.ChildAge}}</p>
<p class="field"><b>Classroom:</b> {{.Classroom}}</p>
</section>

<section class="detail">
<h3>Incident Details</h3>
<p class="field"><b>Date and time:</b> {{.OccurredAt}}</p>
<p class="field"><b>Location:</b> {{.Location}}</p>
<p class="field"><b>Type:</b></p>
<p class="checks type">{{range .TypeChecks}}<span>{{.Mark}} {{.Label}}</span>{{end}}</p>
<p class="field"><b>Severity:</b></p>
<p class="checks severity">{{range .SevChecks}}<span>{{.Mark}} {{.Label}}</span>{{end}}</p>
<p class="field"><b>Description:</b></p>
<p class="description">{{.Description}}</p>
</section>

<section class="action">
<h3>Action Taken</h3>
<p>{{.ActionTaken}}</p>
</section>

<section class="staff">
<h3>Staff and Witnesses</h3>
<p class="field"><b>Reported by:</b> {{.ReportedBy}}</p>
<p class="field"><b>Staff witnesses:</b> {{if .Witnesses}}{{range $i, $w := .Witnesses}}{{if $i}}, {{end}}{{$w}}{{end}}{{else}}None{{end}}</p>
{{- with .WitnessNames}}
<p class="field"><b>Other witnesses:</b> {{.}}</p>
{{- end}}
</section>

<section class="notification">
<h3>Parent Notification</h3>
<p class="field"><b>Parent notified:</b> {{yesNo .ParentNotified}}</p>
{{- with .NotifiedAt}}
<p class="field"><b>Notified at:</b> {{.}}</p>
{{- end}}
<p class="checks method">{{range .MethodChecks}}<span>{{.Mark}} {{.Label}}</span>{{end}}</p>
{{- with .NotifiedBy}}
<p class="field"><b>Notified by:</b> {{.}}</p>
{{- end}}
<p class="field"><b>Copy sent to parent:</b> {{yesNo .ParentCopySent}}</p>
</section>
{{- if .FollowUpRequired}}

<section class="follow-up">
<h3>Follow-up</h3>
<p class="field"><b>Due date:</b> {{.FollowUpDate}}</p>
<p class="field"><b>Completed:</b> {{yesNo .FollowUpCompleted}}{{with .FollowUpCompletedAt}} ({{.}}){{end}}</p>
</section>
{{- end}}

<section class="signature">
<h3>Parent / Guardian Signature</h3>
{{- if .Signed}}
<img class="signature" src="{{imageSrc .SignatureData}}" alt="Guardian signature">
<p class="field"><b>Signed by:</b> {{.SignedByName}}{{with .SignedByRelation}} ({{.}}){{end}}</p>
<p class="field"><b>Date:</b> {{.SignedAt}}</p>
{{- else}}
<div class="signature-line"></div>
<p class="field"><b>Name and relationship:</b> ______________________________</p>
<p class="field"><b>Date:</b> ______________</p>
{{- end}}
</section>
{{- if .Closed}}

<section class="closure">
<h3>Closure</h3>
<p class="field"><b>Closed at:</b> {{.ClosedAt}}</p>
<p class="field"><b>Closed by:</b> {{.ClosedBy}}</p>
{{- with .ClosureNotes}}
<p class="field"><b>Notes:</b> {{.}}</p>
{{- end}}
</section>
{{- end}}

<footer>Generated {{.GeneratedAt}}</footer>
</body>
</html>
`
