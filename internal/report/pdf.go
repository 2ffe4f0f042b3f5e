package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

const signatureImageName = "guardian-signature"

// RenderPDF produces the same incident document as a printable A4 PDF.
func RenderPDF(detail models.IncidentDetail, org models.Organization, now time.Time) ([]byte, error) {
	doc := newDocument(detail, org, now)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s - Generated %s - Page %d", doc.Number, doc.GeneratedAt, pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 8, tr(doc.Org.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{doc.Org.Address, prefixed("Phone: ", doc.Org.Phone), prefixed("License #: ", doc.Org.LicenseNumber)} {
		if line != "" {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, tr("INCIDENT REPORT"), "T", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("No. %s   Severity: %s   Status: %s", doc.Number, doc.Severity, doc.Status)), "", 1, "C", false, 0, "")

	heading := func(title string) {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 7, tr(strings.ToUpper(title)), "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 9)
	}
	field := func(label, value string) {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(45, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 6, tr(value), "", "L", false)
	}
	checks := func(boxes []Checkbox) {
		parts := make([]string, 0, len(boxes))
		for _, box := range boxes {
			mark := "[ ]"
			if box.Checked {
				mark = "[X]"
			}
			parts = append(parts, mark+" "+box.Label)
		}
		pdf.MultiCell(0, 6, tr(strings.Join(parts, "    ")), "", "L", false)
	}

	heading("Child information")
	field("Name:", doc.ChildName)
	field("Age:", doc.ChildAge)
	field("Classroom:", doc.Classroom)

	heading("Incident details")
	field("Date and time:", doc.OccurredAt)
	field("Location:", doc.Location)
	field("Type:", "")
	checks(doc.TypeChecks)
	field("Severity:", "")
	checks(doc.SevChecks)
	field("Description:", doc.Description)

	heading("Action taken")
	pdf.MultiCell(0, 6, tr(doc.ActionTaken), "", "L", false)

	heading("Staff and witnesses")
	field("Reported by:", doc.ReportedBy)
	witnesses := "None"
	if len(doc.Witnesses) > 0 {
		witnesses = strings.Join(doc.Witnesses, ", ")
	}
	field("Staff witnesses:", witnesses)
	if doc.WitnessNames != "" {
		field("Other witnesses:", doc.WitnessNames)
	}

	heading("Parent notification")
	field("Parent notified:", yesNo(doc.ParentNotified))
	if doc.NotifiedAt != "" {
		field("Notified at:", doc.NotifiedAt)
	}
	checks(doc.MethodChecks)
	if doc.NotifiedBy != "" {
		field("Notified by:", doc.NotifiedBy)
	}
	field("Copy sent to parent:", yesNo(doc.ParentCopySent))

	if doc.FollowUpRequired {
		heading("Follow-up")
		field("Due date:", doc.FollowUpDate)
		completed := yesNo(doc.FollowUpCompleted)
		if doc.FollowUpCompletedAt != "" {
			completed += " (" + doc.FollowUpCompletedAt + ")"
		}
		field("Completed:", completed)
	}

	heading("Parent / guardian signature")
	if !doc.Signed || !drawSignature(pdf, doc.SignatureData) {
		pdf.Ln(14)
		x, y := pdf.GetXY()
		pdf.Line(x, y, x+90, y)
		pdf.Ln(2)
	}
	if doc.Signed {
		signer := doc.SignedByName
		if doc.SignedByRelation != "" {
			signer += " (" + doc.SignedByRelation + ")"
		}
		field("Signed by:", signer)
		field("Date:", doc.SignedAt)
	} else {
		field("Name and relationship:", "")
		field("Date:", "")
	}

	if doc.Closed {
		heading("Closure")
		field("Closed at:", doc.ClosedAt)
		field("Closed by:", doc.ClosedBy)
		if doc.ClosureNotes != "" {
			field("Notes:", doc.ClosureNotes)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render incident pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawSignature embeds a base64 PNG or JPEG signature. It reports false when the data cannot
// be decoded so the caller can fall back to a blank line.
func drawSignature(pdf *gofpdf.Fpdf, data string) bool {
	imageType, raw, ok := decodeImage(data)
	if !ok {
		return false
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	info := pdf.RegisterImageOptionsReader(signatureImageName, opts, bytes.NewReader(raw))
	if !pdf.Ok() || info == nil || info.Width() == 0 {
		pdf.ClearError()
		return false
	}
	x, y := pdf.GetXY()
	pdf.ImageOptions(signatureImageName, x, y, 60, 0, false, opts, 0, "")
	pdf.SetY(y + info.Height()*60/info.Width() + 2)
	return true
}

func decodeImage(data string) (imageType string, raw []byte, ok bool) {
	data = strings.TrimSpace(data)
	imageType = "PNG"
	if strings.HasPrefix(data, "data:") {
		comma := strings.Index(data, ",")
		if comma < 0 || !strings.Contains(data[:comma], ";base64") {
			return "", nil, false
		}
		header := strings.ToLower(data[:comma])
		switch {
		case strings.Contains(header, "image/png"):
			imageType = "PNG"
		case strings.Contains(header, "image/jpeg"), strings.Contains(header, "image/jpg"):
			imageType = "JPG"
		default:
			return "", nil, false
		}
		data = data[comma+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(raw) == 0 {
		return "", nil, false
	}
	return imageType, raw, true
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}
