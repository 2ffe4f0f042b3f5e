package service

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/internal/report"
	appErrors "github.com/noah-isme/childcare-incidents-api/pkg/errors"
	"github.com/noah-isme/childcare-incidents-api/pkg/export"
	"github.com/noah-isme/childcare-incidents-api/pkg/jobs"
	"github.com/noah-isme/childcare-incidents-api/pkg/storage"
)

type detailLoaderStub struct {
	details map[string]*models.IncidentDetail
	org     models.Organization
	err     error
}

func (l *detailLoaderStub) Load(ctx context.Context, orgID, id string) (*models.IncidentDetail, *models.Organization, error) {
	if l.err != nil {
		return nil, nil, l.err
	}
	detail, ok := l.details[id]
	if !ok || detail.Incident.OrganizationID != orgID {
		return nil, nil, appErrors.ErrNotFound
	}
	copy := *detail
	org := l.org
	return &copy, &org, nil
}

type reportEngineStub struct {
	incidents []models.Incident
	copySent  []string
	err       error
}

func (e *reportEngineStub) ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.Incident, error) {
	return e.incidents, e.err
}

func (e *reportEngineStub) MarkCopySent(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.copySent = append(e.copySent, id)
	return &models.Incident{ID: id, ParentCopySent: true}, nil
}

func reportIncident() models.Incident {
	location := "Playground"
	return models.Incident{
		ID:             "7d1f0a52-3c7e-4b4e-9a55-0f6f5f1b2c3d",
		OrganizationID: "org-1",
		IncidentNumber: "INC-2025-0007",
		ChildID:        "child-1",
		IncidentType:   models.IncidentTypeInjury,
		Severity:       models.SeverityMinor,
		OccurredAt:     fixedNow.Add(-time.Hour),
		Location:       &location,
		Description:    "Scraped knee",
		ReportedBy:     "staff-1",
		Status:         models.IncidentStatusPendingSignature,
	}
}

type reportFixture struct {
	svc     *ReportService
	loader  *detailLoaderStub
	engine  *reportEngineStub
	store   *storage.LocalStorage
	metrics *MetricsService
}

func newReportFixture(t *testing.T) reportFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	inc := reportIncident()
	f := reportFixture{
		loader: &detailLoaderStub{
			details: map[string]*models.IncidentDetail{inc.ID: {Incident: inc}},
			org:     models.Organization{ID: "org-1", Name: "Sunshine Daycare"},
		},
		engine:  &reportEngineStub{incidents: []models.Incident{inc}},
		store:   store,
		metrics: NewMetricsService(),
	}
	f.svc = NewReportService(f.engine, f.loader, store, storage.NewSignedURLSigner("secret", time.Hour),
		export.NewCSVExporter(), export.NewPDFExporter(), f.metrics, nil,
		ReportServiceConfig{DownloadBaseURL: "https://daycare.example/api/v1/", CleanupInterval: time.Minute})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestReportPreviewAndPrintable(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	id := reportIncident().ID

	preview, err := f.svc.Preview(ctx, teacherActor(), id)
	require.NoError(t, err)
	assert.Equal(t, "Reporte-Incidente-INC-2025-0007.html", preview.Name)
	assert.True(t, preview.Inline())
	assert.Contains(t, string(preview.Body), "Sunshine Daycare")
	assert.NotContains(t, string(preview.Body), "window.print")

	printable, err := f.svc.Printable(ctx, teacherActor(), id)
	require.NoError(t, err)
	assert.Contains(t, string(printable.Body), "window.print")

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.reports.WithLabelValues(ReportFormatHTML)))
}

func TestReportDownload(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	id := reportIncident().ID

	pdf, err := f.svc.Download(ctx, teacherActor(), id, "")
	require.NoError(t, err)
	assert.Equal(t, "Reporte-Incidente-INC-2025-0007.pdf", pdf.Name)
	assert.Equal(t, report.ContentTypePDF, pdf.ContentType)
	assert.False(t, pdf.Inline())
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	html, err := f.svc.Download(ctx, teacherActor(), id, "HTML")
	require.NoError(t, err)
	assert.Equal(t, report.ContentTypeHTML, html.ContentType)
	assert.Equal(t, report.DispositionAttachment, html.Disposition)

	_, err = f.svc.Download(ctx, teacherActor(), id, "docx")
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = f.svc.Download(ctx, teacherActor(), "missing", "pdf")
	requireAppError(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Download(ctx, nil, id, "pdf")
	requireAppError(t, err, appErrors.ErrUnauthorized)
}

func TestShareWithGuardianAndResolve(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	id := reportIncident().ID

	share, err := f.svc.ShareWithGuardian(ctx, teacherActor(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, f.engine.copySent)
	assert.Equal(t, "Reporte-Incidente-INC-2025-0007.pdf", share.Filename)
	require.True(t, strings.HasPrefix(share.DownloadURL, "https://daycare.example/api/v1/reports/download?token="))

	parsed, err := url.Parse(share.DownloadURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")

	download, err := f.svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, share.Filename, download.File.Name)
	assert.True(t, bytes.HasPrefix(download.File.Body, []byte("%PDF")))
	assert.WithinDuration(t, share.ExpiresAt, download.ExpiresAt, time.Second)

	_, err = f.svc.ResolveDownload(ctx, token+"x")
	requireAppError(t, err, appErrors.ErrForbidden)
	_, err = f.svc.ResolveDownload(ctx, "")
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestResolveDownloadRejectsForeignPaths(t *testing.T) {
	f := newReportFixture(t)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	_, err := f.store.Save("archives/org-1/INC-2025-0007.pdf", []byte("%PDF"))
	require.NoError(t, err)

	token, _, err := signer.Generate(reportIncident().ID, "archives/org-1/INC-2025-0007.pdf")
	require.NoError(t, err)
	_, err = f.svc.ResolveDownload(context.Background(), token)
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestShareWithGuardianPropagatesEngineErrors(t *testing.T) {
	f := newReportFixture(t)
	f.engine.err = appErrors.ErrNotFound

	_, err := f.svc.ShareWithGuardian(context.Background(), teacherActor(), reportIncident().ID)
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestExportRegister(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	csv, err := f.svc.ExportRegister(ctx, teacherActor(), "")
	require.NoError(t, err)
	assert.Equal(t, "incident-register-20250610.csv", csv.Name)
	lines := strings.Split(strings.TrimSpace(string(csv.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Number,Occurred,Child,Type,Severity,Status,Parent notified,Signed,Follow-up,Closed", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "INC-2025-0007,2025-06-10 13:30,child-1,Injury,Minor,Pending Signature,no,no,,"))

	pdf, err := f.svc.ExportRegister(ctx, teacherActor(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, report.ContentTypePDF, pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	_, err = f.svc.ExportRegister(ctx, teacherActor(), "xlsx")
	requireAppError(t, err, appErrors.ErrValidation)

	f.engine.err = errors.New("db down")
	_, err = f.svc.ExportRegister(ctx, teacherActor(), "csv")
	require.Error(t, err)
}

func TestCleanupExpiredGuardianCopies(t *testing.T) {
	f := newReportFixture(t)
	f.svc.cfg.GuardianCopyTTL = 0

	_, err := f.svc.ShareWithGuardian(context.Background(), teacherActor(), reportIncident().ID)
	require.NoError(t, err)
	_, err = f.store.Save("archives/org-1/INC-2025-0007.pdf", []byte("%PDF"))
	require.NoError(t, err)

	f.svc.cleanupExpired()

	_, err = f.store.Read("guardian/org-1/" + reportIncident().ID + "/Reporte-Incidente-INC-2025-0007.pdf")
	require.Error(t, err)
	_, err = f.store.Read("archives/org-1/INC-2025-0007.pdf")
	require.NoError(t, err)
}

func TestArchiveWorkerHandle(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	closed := reportIncident()
	closed.Status = models.IncidentStatusClosed
	open := reportIncident()
	open.ID = "open-1"
	loader := &detailLoaderStub{details: map[string]*models.IncidentDetail{
		closed.ID: {Incident: closed},
		open.ID:   {Incident: open},
	}}
	metrics := NewMetricsService()
	worker := NewArchiveWorker(loader, store, metrics, nil)
	ctx := context.Background()

	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: closed.ID, Type: ArchiveJobType, OrgID: "org-1"}))
	body, err := store.Read("archives/org-1/INC-2025-0007.pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	require.NoError(t, worker.Handle(ctx, jobs.Job{ID: open.ID, Type: ArchiveJobType, OrgID: "org-1"}))

	err = worker.Handle(ctx, jobs.Job{ID: "missing", Type: ArchiveJobType, OrgID: "org-1"})
	require.Error(t, err)
	err = worker.Handle(ctx, jobs.Job{ID: closed.ID, Type: "other", OrgID: "org-1"})
	require.Error(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.jobs.WithLabelValues(ArchiveJobType, "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.jobs.WithLabelValues(ArchiveJobType, "failure")))
}
