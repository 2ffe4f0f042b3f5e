package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/childcare-incidents-api/internal/dto"
	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/internal/report"
	"github.com/noah-isme/childcare-incidents-api/internal/service"
	"github.com/noah-isme/childcare-incidents-api/pkg/response"
)

type reportService interface {
	Preview(ctx context.Context, actor *models.JWTClaims, id string) (*report.File, error)
	Printable(ctx context.Context, actor *models.JWTClaims, id string) (*report.File, error)
	Download(ctx context.Context, actor *models.JWTClaims, id, format string) (*report.File, error)
	ShareWithGuardian(ctx context.Context, actor *models.JWTClaims, id string) (*service.GuardianShare, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
	ExportRegister(ctx context.Context, actor *models.JWTClaims, format string) (*report.File, error)
}

// ReportHandler exposes incident document endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// View godoc
// @Summary Render the incident report as HTML
// @Tags Reports
// @Produce html
// @Param id path string true "Incident ID"
// @Param mode query string false "print opens the print dialog on load"
// @Success 200 {string} string "HTML document"
// @Router /incidents/{id}/report [get]
func (h *ReportHandler) View(c *gin.Context) {
	var (
		file *report.File
		err  error
	)
	if strings.EqualFold(c.Query("mode"), "print") {
		file, err = h.reports.Printable(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	} else {
		file, err = h.reports.Preview(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file.Name, file.ContentType, file.Inline(), file.Body)
}

// Download godoc
// @Summary Download the incident report
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Incident ID"
// @Param format query string false "pdf (default) or html"
// @Success 200 {file} file
// @Router /incidents/{id}/report/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, err := h.reports.Download(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file.Name, file.ContentType, file.Inline(), file.Body)
}

// Share godoc
// @Summary Share a PDF copy with the guardian
// @Description Stores the PDF and returns a signed, time-limited download link.
// @Tags Reports
// @Produce json
// @Param id path string true "Incident ID"
// @Success 201 {object} response.Envelope
// @Router /incidents/{id}/report/share [post]
func (h *ReportHandler) Share(c *gin.Context) {
	share, err := h.reports.ShareWithGuardian(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ShareReportResponse{
		DownloadURL: share.DownloadURL,
		ExpiresAt:   share.ExpiresAt,
		Filename:    share.Filename,
	})
}

// Export godoc
// @Summary Export the incident register
// @Tags Reports
// @Produce text/csv
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /incidents/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	file, err := h.reports.ExportRegister(c.Request.Context(), claimsFromContext(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file.Name, file.ContentType, file.Inline(), file.Body)
}

// GuardianDownload godoc
// @Summary Download a shared guardian copy
// @Description Public endpoint authorised by the signed token.
// @Tags Reports
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) GuardianDownload(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Download-Expires-At", download.ExpiresAt.UTC().Format(http.TimeFormat))
	sendFile(c, download.File.Name, download.File.ContentType, download.File.Inline(), download.File.Body)
}
