package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/internal/report"
	"github.com/noah-isme/childcare-incidents-api/pkg/jobs"
)

const archivePrefix = "archives"

type archiveStorage interface {
	Save(filename string, data []byte) (string, error)
}

type jobRecorder interface {
	RecordJob(jobType string, err error)
}

// ArchiveWorker stores the final PDF of closed incidents. It is the queue handler for
// ArchiveJobType jobs.
type ArchiveWorker struct {
	loader  detailLoader
	storage archiveStorage
	metrics jobRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewArchiveWorker constructs a worker.
func NewArchiveWorker(loader detailLoader, storage archiveStorage, metrics jobRecorder, logger *zap.Logger) *ArchiveWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveWorker{loader: loader, storage: storage, metrics: metrics, logger: logger, now: time.Now}
}

// Handle renders and stores archives/<org>/<incident number>.pdf.
func (w *ArchiveWorker) Handle(ctx context.Context, job jobs.Job) error {
	err := w.archive(ctx, job)
	if w.metrics != nil {
		w.metrics.RecordJob(job.Type, err)
	}
	return err
}

func (w *ArchiveWorker) archive(ctx context.Context, job jobs.Job) error {
	if job.Type != ArchiveJobType {
		return fmt.Errorf("archive worker: unsupported job type %q", job.Type)
	}
	detail, org, err := w.loader.Load(ctx, job.OrgID, job.ID)
	if err != nil {
		return fmt.Errorf("load incident %s: %w", job.ID, err)
	}
	if detail.Incident.Status != models.IncidentStatusClosed {
		w.logger.Warn("skipping archive of incident that is not closed",
			zap.String("incident_id", job.ID),
			zap.String("status", string(detail.Incident.Status)),
		)
		return nil
	}
	body, err := report.RenderPDF(*detail, *org, w.now())
	if err != nil {
		return err
	}
	name := detail.Incident.IncidentNumber
	if name == "" {
		name = detail.Incident.ID
	}
	relPath, err := w.storage.Save(path.Join(archivePrefix, job.OrgID, name+"."+ReportFormatPDF), body)
	if err != nil {
		return err
	}
	w.logger.Info("incident archived",
		zap.String("incident_id", job.ID),
		zap.String("path", relPath),
		zap.Int("attempt", job.Attempt),
	)
	return nil
}
