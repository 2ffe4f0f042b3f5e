package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/internal/report"
	appErrors "github.com/noah-isme/childcare-incidents-api/pkg/errors"
	"github.com/noah-isme/childcare-incidents-api/pkg/export"
)

// Report formats.
const (
	ReportFormatHTML = "html"
	ReportFormatPDF  = "pdf"
	ReportFormatCSV  = "csv"
)

const guardianCopyPrefix = "guardian"

type detailLoader interface {
	Load(ctx context.Context, orgID, id string) (*models.IncidentDetail, *models.Organization, error)
}

type reportEngine interface {
	ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.Incident, error)
	MarkCopySent(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (resourceID, relPath string, expiresAt time.Time, err error)
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledTableRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

type reportRecorder interface {
	RecordReportRendered(format string)
}

// ReportServiceConfig configures guardian copy links and their retention.
type ReportServiceConfig struct {
	DownloadBaseURL string
	GuardianCopyTTL time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is a resolved guardian copy.
type ReportDownload struct {
	File      report.File
	ExpiresAt time.Time
}

// GuardianShare describes a stored guardian copy and its signed link.
type GuardianShare struct {
	DownloadURL string
	ExpiresAt   time.Time
	Filename    string
}

// ReportService renders incident documents and delivers them to the configured sinks.
type ReportService struct {
	engine  reportEngine
	loader  detailLoader
	storage reportStorage
	signer  downloadSigner
	csv     tableRenderer
	pdf     titledTableRenderer
	metrics reportRecorder
	logger  *zap.Logger
	cfg     ReportServiceConfig
	now     func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(engine reportEngine, loader detailLoader, storage reportStorage, signer downloadSigner, csv tableRenderer, pdf titledTableRenderer, metrics reportRecorder, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GuardianCopyTTL <= 0 {
		cfg.GuardianCopyTTL = 72 * time.Hour
	}
	return &ReportService{
		engine:  engine,
		loader:  loader,
		storage: storage,
		signer:  signer,
		csv:     csv,
		pdf:     pdf,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Preview renders the report for viewing in a new window.
func (s *ReportService) Preview(ctx context.Context, actor *models.JWTClaims, id string) (*report.File, error) {
	incident, doc, err := s.renderHTML(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	file := report.ToPreview(doc, report.Filename(*incident, ReportFormatHTML))
	return &file, nil
}

// Printable renders the report with a script that opens the print dialog.
func (s *ReportService) Printable(ctx context.Context, actor *models.JWTClaims, id string) (*report.File, error) {
	incident, doc, err := s.renderHTML(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	file := report.ToPrintable(doc, report.Filename(*incident, ReportFormatHTML))
	return &file, nil
}

// Download renders the report as an attachment in html or pdf.
func (s *ReportService) Download(ctx context.Context, actor *models.JWTClaims, id, format string) (*report.File, error) {
	format = normalizeFormat(format, ReportFormatPDF)
	switch format {
	case ReportFormatHTML:
		incident, doc, err := s.renderHTML(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		file := report.ToDownloadable([]byte(doc), report.Filename(*incident, ReportFormatHTML), report.ContentTypeHTML)
		return &file, nil
	case ReportFormatPDF:
		incident, body, err := s.renderPDF(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		file := report.ToDownloadable(body, report.Filename(*incident, ReportFormatPDF), report.ContentTypePDF)
		return &file, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be html or pdf")
	}
}

// ShareWithGuardian stores a PDF copy, signs a time-limited link to it and records that the
// guardian received a copy.
func (s *ReportService) ShareWithGuardian(ctx context.Context, actor *models.JWTClaims, id string) (*GuardianShare, error) {
	incident, body, err := s.renderPDF(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	filename := report.Filename(*incident, ReportFormatPDF)
	relPath, err := s.storage.Save(path.Join(guardianCopyPrefix, incident.OrganizationID, incident.ID, filename), body)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store guardian copy")
	}
	token, expiresAt, err := s.signer.Generate(incident.ID, relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign guardian copy link")
	}
	if _, err := s.engine.MarkCopySent(ctx, actor, incident.ID); err != nil {
		return nil, err
	}
	s.logger.Info("guardian copy shared",
		zap.String("incident_id", incident.ID),
		zap.String("path", relPath),
		zap.Time("expires_at", expiresAt),
	)
	return &GuardianShare{
		DownloadURL: s.downloadURL(token),
		ExpiresAt:   expiresAt,
		Filename:    filename,
	}, nil
}

// ResolveDownload validates a guardian copy token and loads the stored file.
func (s *ReportService) ResolveDownload(_ context.Context, token string) (*ReportDownload, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}
	incidentID, relPath, expiresAt, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	parts := strings.Split(relPath, "/")
	if len(parts) != 4 || parts[0] != guardianCopyPrefix || parts[2] != incidentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	body, err := s.storage.Read(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian copy is no longer available")
	}
	return &ReportDownload{
		File:      report.ToDownloadable(body, parts[3], report.ContentTypePDF),
		ExpiresAt: expiresAt,
	}, nil
}

// ExportRegister exports the organization's incident register as csv or pdf.
func (s *ReportService) ExportRegister(ctx context.Context, actor *models.JWTClaims, format string) (*report.File, error) {
	format = normalizeFormat(format, ReportFormatCSV)
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	incidents, err := s.engine.ListAll(ctx, actor)
	if err != nil {
		return nil, err
	}
	dataset := registerDataset(incidents)
	now := s.now().UTC()
	name := fmt.Sprintf("incident-register-%s.%s", now.Format("20060102"), format)

	var body []byte
	contentType := report.ContentTypeCSV
	if format == ReportFormatCSV {
		body, err = s.csv.Render(dataset)
	} else {
		contentType = report.ContentTypePDF
		body, err = s.pdf.Render(dataset, "Incident register", fmt.Sprintf("%d incidents - generated %s", len(incidents), now.Format("Jan 2, 2006 15:04 MST")))
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to export incident register")
	}
	s.record("register_" + format)
	file := report.ToDownloadable(body, name, contentType)
	return &file, nil
}

// StartCleanup boots a goroutine that purges expired guardian copies periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

func (s *ReportService) cleanupExpired() {
	deleted, err := s.storage.CleanupOlderThan(guardianCopyPrefix, s.cfg.GuardianCopyTTL)
	if err != nil {
		s.logger.Warn("guardian copy cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired guardian copies removed", zap.Int("count", len(deleted)))
	}
}

func (s *ReportService) renderHTML(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, string, error) {
	detail, org, err := s.loadDetail(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	doc, err := report.Render(*detail, *org, s.now())
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to render incident report")
	}
	s.record(ReportFormatHTML)
	return &detail.Incident, doc, nil
}

func (s *ReportService) renderPDF(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, []byte, error) {
	detail, org, err := s.loadDetail(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := report.RenderPDF(*detail, *org, s.now())
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to render incident report")
	}
	s.record(ReportFormatPDF)
	return &detail.Incident, body, nil
}

func (s *ReportService) loadDetail(ctx context.Context, actor *models.JWTClaims, id string) (*models.IncidentDetail, *models.Organization, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	return s.loader.Load(ctx, actor.OrganizationID, id)
}

func (s *ReportService) record(format string) {
	if s.metrics != nil {
		s.metrics.RecordReportRendered(format)
	}
}

func (s *ReportService) downloadURL(token string) string {
	return strings.TrimRight(s.cfg.DownloadBaseURL, "/") + "/reports/download?token=" + url.QueryEscape(token)
}

func normalizeFormat(format, fallback string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return fallback
	}
	return format
}

var registerHeaders = []string{"Number", "Occurred", "Child", "Type", "Severity", "Status", "Parent notified", "Signed", "Follow-up", "Closed"}

func registerDataset(incidents []models.Incident) export.Dataset {
	rows := make([]map[string]string, 0, len(incidents))
	for _, inc := range incidents {
		followUp := ""
		if inc.FollowUpRequired {
			followUp = "pending"
			if inc.FollowUpCompleted {
				followUp = "done"
			}
		}
		closed := ""
		if inc.ClosedAt != nil {
			closed = inc.ClosedAt.UTC().Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Number":          inc.IncidentNumber,
			"Occurred":        inc.OccurredAt.UTC().Format("2006-01-02 15:04"),
			"Child":           inc.ChildID,
			"Type":            report.TypeLabel(inc.IncidentType),
			"Severity":        report.SeverityLabel(inc.Severity),
			"Status":          report.StatusLabel(inc.Status),
			"Parent notified": yesNo(inc.ParentNotified),
			"Signed":          yesNo(inc.HasSignature()),
			"Follow-up":       followUp,
			"Closed":          closed,
		})
	}
	return export.Dataset{Headers: registerHeaders, Rows: rows}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
