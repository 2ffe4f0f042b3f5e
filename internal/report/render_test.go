package report

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

// 1x1 transparent PNG.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func sampleDetail() (models.IncidentDetail, models.Organization) {
	dob := time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC)
	method := models.NotificationPhone
	incident := models.Incident{
		ID:                   "5f0c2b1e-9d1a-4a43-8f3e-1c2d3e4f5a6b",
		OrganizationID:       "org-1",
		IncidentNumber:       "INC-2025-0007",
		ChildID:              "child-1",
		IncidentType:         models.IncidentTypeInjury,
		Severity:             models.SeverityMinor,
		OccurredAt:           time.Date(2025, time.June, 10, 10, 30, 0, 0, time.UTC),
		Location:             strPtr("Playground"),
		Description:          "Scraped knee on the slide",
		ActionTaken:          strPtr("Cleaned and bandaged"),
		ReportedBy:           "staff-1",
		WitnessStaffIDs:      pq.StringArray{"staff-2", "staff-9"},
		ParentNotified:       true,
		ParentNotifiedAt:     timePtr(time.Date(2025, time.June, 10, 11, 0, 0, 0, time.UTC)),
		ParentNotifiedMethod: &method,
		Status:               models.IncidentStatusPendingSignature,
	}
	detail := models.IncidentDetail{
		Incident:  incident,
		Child:     &models.Child{ID: "child-1", FirstName: "Ana", LastName: "Pérez", DateOfBirth: &dob},
		Classroom: &models.Classroom{ID: "room-1", Name: "Butterflies"},
		Reporter:  &models.Staff{ID: "staff-1", FullName: "Maria Lopez"},
		Witnesses: []models.Staff{{ID: "staff-2", FullName: "John Doe"}},
	}
	org := models.Organization{ID: "org-1", Name: "Sunshine Daycare", Phone: "555-0100", LicenseNumber: "LIC-42"}
	return detail, org
}

func renderedAt() time.Time {
	return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
}

func TestAgeLabel(t *testing.T) {
	now := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		birth time.Time
		want  string
	}{
		{"years ignore day of month", time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC), "5 years"},
		{"months below one year", time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), "8 months"},
		{"single month", time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC), "1 month"},
		{"single year", time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC), "1 year"},
		{"newborn", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), "0 months"},
		{"birth after render date", time.Date(2025, time.September, 3, 0, 0, 0, 0, time.UTC), "0 months"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AgeLabel(tc.birth, now))
		})
	}
	assert.Equal(t, 60, AgeInMonths(time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC), now))
}

func TestRenderDocument(t *testing.T) {
	detail, org := sampleDetail()

	html, err := Render(detail, org, renderedAt())
	require.NoError(t, err)

	assert.Contains(t, html, "Sunshine Daycare")
	assert.Contains(t, html, "INC-2025-0007")
	assert.Contains(t, html, "Ana Pérez")
	assert.Contains(t, html, "5 years")
	assert.Contains(t, html, "Butterflies")
	assert.Contains(t, html, "Maria Lopez")
	assert.Contains(t, html, "John Doe, staff-9")
	assert.Contains(t, html, "☑ Injury")
	assert.Contains(t, html, "☐ Illness")
	assert.Contains(t, html, "☑ Minor")
	assert.Contains(t, html, "☑ Phone")
	assert.Contains(t, html, "☐ Email")
	assert.Contains(t, html, `class="signature-line"`)
	assert.NotContains(t, html, `<img class="signature"`)
	assert.NotContains(t, html, `class="closure"`)
}

func TestRenderEmbedsSignature(t *testing.T) {
	detail, org := sampleDetail()
	detail.Incident.SignatureData = strPtr("data:image/png;base64," + tinyPNG)
	detail.Incident.SignedByName = strPtr("Laura Pérez")
	detail.Incident.SignedByRelationship = strPtr("Mother")
	detail.Incident.SignedAt = timePtr(renderedAt())
	detail.Incident.Status = models.IncidentStatusPendingClosure

	html, err := Render(detail, org, renderedAt())
	require.NoError(t, err)

	assert.Contains(t, html, `<img class="signature" src="data:image/png;base64,`+tinyPNG+`"`)
	assert.Contains(t, html, "Laura Pérez (Mother)")
	assert.NotContains(t, html, `class="signature-line"`)
}

func TestRenderEscapesUserText(t *testing.T) {
	detail, org := sampleDetail()
	detail.Incident.Description = `<script>alert("x")</script>`

	html, err := Render(detail, org, renderedAt())
	require.NoError(t, err)
	assert.NotContains(t, html, `<script>alert`)
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderFallbacks(t *testing.T) {
	detail, org := sampleDetail()
	detail.Child = nil
	detail.Classroom = nil
	detail.Incident.Location = nil
	detail.Incident.ActionTaken = strPtr("  ")

	html, err := Render(detail, org, renderedAt())
	require.NoError(t, err)
	assert.Contains(t, html, "child-1")
	assert.GreaterOrEqual(t, strings.Count(html, "Not recorded"), 4)
}

func TestRenderDoesNotMutateIncident(t *testing.T) {
	detail, org := sampleDetail()
	before := detail.Incident
	witnesses := append(pq.StringArray{}, detail.Incident.WitnessStaffIDs...)

	_, err := Render(detail, org, renderedAt())
	require.NoError(t, err)
	_, err = RenderPDF(detail, org, renderedAt())
	require.NoError(t, err)

	assert.Equal(t, before.Status, detail.Incident.Status)
	assert.Equal(t, before.ParentCopySent, detail.Incident.ParentCopySent)
	assert.Equal(t, witnesses, detail.Incident.WitnessStaffIDs)
	assert.Nil(t, detail.Incident.SignatureData)
}

func TestRenderPDF(t *testing.T) {
	detail, org := sampleDetail()

	unsigned, err := RenderPDF(detail, org, renderedAt())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(unsigned, []byte("%PDF")))

	detail.Incident.SignatureData = strPtr(tinyPNG)
	detail.Incident.SignedByName = strPtr("Laura Pérez")
	signed, err := RenderPDF(detail, org, renderedAt())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(signed, []byte("%PDF")))

	detail.Incident.SignatureData = strPtr("not-an-image")
	fallback, err := RenderPDF(detail, org, renderedAt())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(fallback, []byte("%PDF")))
}

func TestDecodeImage(t *testing.T) {
	kind, raw, ok := decodeImage("data:image/png;base64," + tinyPNG)
	require.True(t, ok)
	assert.Equal(t, "PNG", kind)
	want, _ := base64.StdEncoding.DecodeString(tinyPNG)
	assert.Equal(t, want, raw)

	kind, _, ok = decodeImage("data:image/jpeg;base64," + tinyPNG)
	require.True(t, ok)
	assert.Equal(t, "JPG", kind)

	_, _, ok = decodeImage("data:image/svg+xml;base64," + tinyPNG)
	assert.False(t, ok)
	_, _, ok = decodeImage("data:image/png," + tinyPNG)
	assert.False(t, ok)
	_, _, ok = decodeImage("%%%")
	assert.False(t, ok)
}

func TestFilename(t *testing.T) {
	detail, _ := sampleDetail()
	assert.Equal(t, "Reporte-Incidente-INC-2025-0007.pdf", Filename(detail.Incident, "pdf"))

	detail.Incident.IncidentNumber = ""
	assert.Equal(t, "Reporte-Incidente-5f0c2b1e.html", Filename(detail.Incident, ".html"))
}

func TestSinks(t *testing.T) {
	doc := "<html><body><p>report</p></body></html>"

	preview := ToPreview(doc, "a.html")
	assert.True(t, preview.Inline())
	assert.Equal(t, ContentTypeHTML, preview.ContentType)
	assert.Equal(t, doc, string(preview.Body))

	printable := ToPrintable(doc, "a.html")
	assert.True(t, printable.Inline())
	assert.Contains(t, string(printable.Body), "window.print()")
	assert.Less(t, strings.Index(string(printable.Body), "window.print"), strings.Index(string(printable.Body), "</body>"))

	download := ToDownloadable([]byte("%PDF"), "a.pdf", ContentTypePDF)
	assert.False(t, download.Inline())
	assert.Equal(t, DispositionAttachment, download.Disposition)
}
