package report

import "strings"

// Content types of the delivered documents.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypePDF  = "application/pdf"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// Dispositions.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

const printScript = `<script>window.addEventListener("load", function () { window.print(); });</script>`

// File is a rendered document ready to be delivered.
type File struct {
	Name        string
	ContentType string
	Disposition string
	Body        []byte
}

// Inline reports whether the file should open in the client's viewer.
func (f File) Inline() bool {
	return f.Disposition == DispositionInline
}

// ToPreview delivers the document for viewing in a new window.
func ToPreview(document, name string) File {
	return File{Name: name, ContentType: ContentTypeHTML, Disposition: DispositionInline, Body: []byte(document)}
}

// ToPrintable delivers the document with a script that opens the print dialog once loaded.
func ToPrintable(document, name string) File {
	printable := document
	if idx := strings.LastIndex(printable, "</body>"); idx >= 0 {
		printable = printable[:idx] + printScript + "\n" + printable[idx:]
	} else {
		printable += printScript
	}
	return File{Name: name, ContentType: ContentTypeHTML, Disposition: DispositionInline, Body: []byte(printable)}
}

// ToDownloadable delivers the document as a file to save.
func ToDownloadable(body []byte, name, contentType string) File {
	return File{Name: name, ContentType: contentType, Disposition: DispositionAttachment, Body: body}
}
