package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/childcare-incidents-api/internal/dto"
	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/internal/repository"
	appErrors "github.com/noah-isme/childcare-incidents-api/pkg/errors"
	"github.com/noah-isme/childcare-incidents-api/pkg/jobs"
)

// Lifecycle events, used as metric labels and log fields.
const (
	IncidentEventCreate           = "create"
	IncidentEventUpdate           = "update"
	IncidentEventNotifyParent     = "notify_parent"
	IncidentEventSign             = "sign"
	IncidentEventClose            = "close"
	IncidentEventFollowUpComplete = "follow_up_complete"
	IncidentEventCopySent         = "copy_sent"
)

// ArchiveJobType identifies jobs that store the final report of a closed incident.
const ArchiveJobType = "incident_archive"

const incidentStatsCachePrefix = "incidents:stats:"

type incidentStore interface {
	ListAll(ctx context.Context, orgID string) ([]models.Incident, error)
	ListPendingSignature(ctx context.Context, orgID string) ([]models.Incident, error)
	ListRequiringFollowUp(ctx context.Context, orgID string, asOf time.Time) ([]models.Incident, error)
	GetByID(ctx context.Context, orgID, id string) (*models.Incident, error)
	Insert(ctx context.Context, incident *models.Incident) error
	Update(ctx context.Context, orgID, id string, patch models.IncidentPatch) (*models.Incident, error)
	Transition(ctx context.Context, params repository.TransitionParams) (*models.Incident, error)
	NextIncidentNumber(ctx context.Context, orgID string, year int) (string, error)
	Stats(ctx context.Context, orgID string, monthStart time.Time) (*models.IncidentStats, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditTrail interface {
	ListByResource(ctx context.Context, orgID, resource, resourceID string) ([]models.AuditLog, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type incidentEventRecorder interface {
	RecordIncidentEvent(event string)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// IncidentServiceConfig tunes numbering retries and stats caching.
type IncidentServiceConfig struct {
	NumberRetries int
	StatsCacheTTL time.Duration
}

// IncidentServiceOption configures optional collaborators.
type IncidentServiceOption func(*IncidentService)

// WithIncidentCache caches stats per organization.
func WithIncidentCache(cache statsCache) IncidentServiceOption {
	return func(s *IncidentService) {
		s.cache = cache
	}
}

// WithIncidentMetrics counts lifecycle events.
func WithIncidentMetrics(recorder incidentEventRecorder) IncidentServiceOption {
	return func(s *IncidentService) {
		s.metrics = recorder
	}
}

// WithArchiveQueue enqueues an archive job whenever an incident closes.
func WithArchiveQueue(queue jobDispatcher) IncidentServiceOption {
	return func(s *IncidentService) {
		s.archive = queue
	}
}

// WithAuditTrail enables History.
func WithAuditTrail(trail auditTrail) IncidentServiceOption {
	return func(s *IncidentService) {
		s.trail = trail
	}
}

// WithIncidentClock overrides the wall clock.
func WithIncidentClock(now func() time.Time) IncidentServiceOption {
	return func(s *IncidentService) {
		if now != nil {
			s.now = now
		}
	}
}

// IncidentService is the incident lifecycle engine. It is the only component that changes an
// incident's status: open -> pending_signature -> pending_closure -> closed.
type IncidentService struct {
	repo      incidentStore
	audit     auditLogger
	trail     auditTrail
	cache     statsCache
	metrics   incidentEventRecorder
	archive   jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	cfg       IncidentServiceConfig
	now       func() time.Time
}

// NewIncidentService constructs the engine.
func NewIncidentService(repo incidentStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger, cfg IncidentServiceConfig, opts ...IncidentServiceOption) *IncidentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NumberRetries <= 0 {
		cfg.NumberRetries = 3
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 2 * time.Minute
	}
	svc := &IncidentService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	registerIncidentValidations(svc.validator)
	return svc
}

func registerIncidentValidations(v *validator.Validate) {
	_ = v.RegisterValidation("incident_type", func(fl validator.FieldLevel) bool {
		return models.IncidentType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return models.Severity(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("notification_method", func(fl validator.FieldLevel) bool {
		return models.NotificationMethod(fl.Field().String()).Valid()
	})
}

// Templates lists the available incident templates.
func (s *IncidentService) Templates() []models.IncidentTemplate {
	return models.IncidentTemplates()
}

// Get returns an incident of the actor's organization.
func (s *IncidentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.load(ctx, actor.OrganizationID, id)
}

// ListAll returns every incident, most recent occurrence first.
func (s *IncidentService) ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	incidents, err := s.repo.ListAll(ctx, actor.OrganizationID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list incidents")
	}
	return incidents, nil
}

// ListPendingSignature returns incidents waiting on a guardian signature.
func (s *IncidentService) ListPendingSignature(ctx context.Context, actor *models.JWTClaims) ([]models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	incidents, err := s.repo.ListPendingSignature(ctx, actor.OrganizationID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list incidents pending signature")
	}
	return incidents, nil
}

// ListRequiringFollowUp returns incomplete follow-ups due on or before asOf. A nil asOf means today.
func (s *IncidentService) ListRequiringFollowUp(ctx context.Context, actor *models.JWTClaims, asOf *time.Time) ([]models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	cutoff := s.clock()
	if asOf != nil {
		cutoff = *asOf
	}
	incidents, err := s.repo.ListRequiringFollowUp(ctx, actor.OrganizationID, cutoff)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list incidents requiring follow-up")
	}
	return incidents, nil
}

// Create validates the payload, assigns the next incident number and stores the incident as open.
func (s *IncidentService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateIncidentRequest) (*models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid incident payload")
	}
	if strings.TrimSpace(req.ChildID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "child_id is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "description is required")
	}
	if req.ParentNotified && req.NotifiedMethod == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent_notified_method is required when parent_notified is true")
	}

	incident := &models.Incident{
		OrganizationID:       actor.OrganizationID,
		ChildID:              strings.TrimSpace(req.ChildID),
		ClassroomID:          trimmedPtr(req.ClassroomID),
		IncidentType:         req.IncidentType,
		Severity:             req.Severity,
		OccurredAt:           req.OccurredAt.UTC(),
		Location:             trimmedPtr(req.Location),
		Description:          strings.TrimSpace(req.Description),
		ActionTaken:          trimmedPtr(req.ActionTaken),
		ReportedBy:           actor.UserID,
		WitnessStaffIDs:      pq.StringArray(append([]string{}, req.WitnessStaffIDs...)),
		WitnessNames:         trimmedPtr(req.WitnessNames),
		ParentNotified:       req.ParentNotified,
		ParentNotifiedMethod: req.NotifiedMethod,
		FollowUpRequired:     req.FollowUpRequired,
		FollowUpDate:         req.FollowUpDate,
		Status:               models.IncidentStatusOpen,
	}
	if req.ParentNotified {
		notifiedAt := s.clock()
		notifiedBy := actor.UserID
		incident.ParentNotifiedAt = &notifiedAt
		incident.ParentNotifiedBy = &notifiedBy
	}

	if err := s.insertNumbered(ctx, incident); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor, IncidentEventCreate, models.AuditActionIncidentCreate, incident, map[string]interface{}{
		"incident_number": incident.IncidentNumber,
		"incident_type":   incident.IncidentType,
		"severity":        incident.Severity,
		"status":          incident.Status,
	})
	return incident, nil
}

// insertNumbered retries on number collisions, never reusing a sequence it already lost.
func (s *IncidentService) insertNumbered(ctx context.Context, incident *models.Incident) error {
	year := s.clock().Year()
	lastSeq := 0
	for attempt := 0; attempt <= s.cfg.NumberRetries; attempt++ {
		number, err := s.repo.NextIncidentNumber(ctx, incident.OrganizationID, year)
		if err != nil {
			return appErrors.Internal(err, "failed to compute incident number")
		}
		if _, seq, ok := models.ParseIncidentNumber(number); ok && seq <= lastSeq {
			number = models.FormatIncidentNumber(year, lastSeq+1)
		}
		incident.IncidentNumber = number

		err = s.repo.Insert(ctx, incident)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateIncidentNumber) {
			return appErrors.Internal(err, "failed to create incident")
		}
		s.logger.Warn("incident number collision",
			zap.String("organization_id", incident.OrganizationID),
			zap.String("incident_number", number),
			zap.Int("attempt", attempt+1),
		)
		if _, seq, ok := models.ParseIncidentNumber(number); ok {
			lastSeq = seq
		}
	}
	return appErrors.Clone(appErrors.ErrConflict, "could not allocate a unique incident number, please retry")
}

// CreateFromTemplate creates an open incident pre-filled from a named template.
func (s *IncidentService) CreateFromTemplate(ctx context.Context, actor *models.JWTClaims, req dto.CreateFromTemplateRequest) (*dto.FromTemplateResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template request")
	}
	tpl, ok := models.LookupIncidentTemplate(strings.ToLower(strings.TrimSpace(req.TemplateKey)))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown incident template %q", req.TemplateKey))
	}
	occurredAt := s.clock()
	action := tpl.ActionTemplate
	incident, err := s.Create(ctx, actor, dto.CreateIncidentRequest{
		ChildID:      req.ChildID,
		ClassroomID:  req.ClassroomID,
		IncidentType: tpl.IncidentType,
		Severity:     tpl.Severity,
		OccurredAt:   &occurredAt,
		Description:  tpl.DescriptionTemplate,
		ActionTaken:  &action,
	})
	if err != nil {
		return nil, err
	}
	return &dto.FromTemplateResponse{ID: incident.ID, Template: tpl}, nil
}

// Update applies whitelisted, non-status fields to an incident that is not closed.
func (s *IncidentService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateIncidentRequest) (*models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	patch := req.Patch()
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.ParentNotified.HasValue() {
		if patch.ParentNotified.Value {
			patch.ParentNotifiedAt = models.Some(s.clock())
			if !patch.ParentNotifiedBy.Set {
				patch.ParentNotifiedBy = models.Some(actor.UserID)
			}
		} else {
			patch.ParentNotifiedAt = models.Cleared[time.Time]()
		}
	}

	updated, err := s.repo.Transition(ctx, repository.TransitionParams{
		OrgID: actor.OrganizationID,
		ID:    id,
		From:  editableStatuses(),
		Patch: patch,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionRejected(ctx, actor.OrganizationID, id)
		}
		return nil, appErrors.Internal(err, "failed to update incident")
	}
	s.afterMutation(ctx, actor, IncidentEventUpdate, models.AuditActionIncidentUpdate, updated, patch.Changes())
	return updated, nil
}

// MarkParentNotified records the guardian notification. Open incidents advance to
// pending_signature; later statuses keep their status and only re-stamp the notification.
func (s *IncidentService) MarkParentNotified(ctx context.Context, actor *models.JWTClaims, id string, req dto.NotifyParentRequest) (*models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "a valid notification method is required")
	}
	patch := models.IncidentPatch{
		ParentNotified:       models.Some(true),
		ParentNotifiedAt:     models.Some(s.clock()),
		ParentNotifiedMethod: models.Some(req.Method),
		ParentNotifiedBy:     models.Some(actor.UserID),
	}

	updated, err := s.repo.Transition(ctx, repository.TransitionParams{
		OrgID: actor.OrganizationID,
		ID:    id,
		From:  []models.IncidentStatus{models.IncidentStatusOpen},
		To:    models.IncidentStatusPendingSignature,
		Patch: patch,
	})
	if errors.Is(err, sql.ErrNoRows) {
		updated, err = s.repo.Transition(ctx, repository.TransitionParams{
			OrgID: actor.OrganizationID,
			ID:    id,
			From: []models.IncidentStatus{
				models.IncidentStatusPendingSignature,
				models.IncidentStatusPendingClosure,
				models.IncidentStatusClosed,
			},
			Patch: patch,
		})
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to record parent notification")
	}

	changes := patch.Changes()
	changes["status"] = updated.Status
	s.afterMutation(ctx, actor, IncidentEventNotifyParent, models.AuditActionIncidentNotifyParent, updated, changes)
	return updated, nil
}

// RecordSignature stores the guardian signature and advances the incident to pending_closure.
// Invalid input and disallowed statuses are returned as errors; persistence failures are
// reported through an unsuccessful result so the caller can offer a retry.
func (s *IncidentService) RecordSignature(ctx context.Context, actor *models.JWTClaims, id string, req dto.SignatureRequest) (*dto.SignatureResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "signature, signer name and relationship are required")
	}
	if strings.TrimSpace(req.SignatureData) == "" || strings.TrimSpace(req.SignedByName) == "" || strings.TrimSpace(req.SignedByRelationship) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "signature, signer name and relationship are required")
	}

	current, err := s.repo.GetByID(ctx, actor.OrganizationID, id)
	if err != nil {
		s.logger.Error("failed to load incident for signature", zap.String("incident_id", id), zap.Error(err))
		return &dto.SignatureResult{Success: false, Message: "could not save the signature, please try again"}, nil
	}
	if current == nil {
		return nil, appErrors.ErrNotFound
	}
	if !signableStatus(current.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot record a signature while the incident is %s", current.Status))
	}

	signedAt := s.clock()
	patch := models.IncidentPatch{
		SignatureData:        models.Some(req.SignatureData),
		SignedByName:         models.Some(strings.TrimSpace(req.SignedByName)),
		SignedByRelationship: models.Some(strings.TrimSpace(req.SignedByRelationship)),
		SignedAt:             models.Some(signedAt),
	}
	updated, err := s.repo.Transition(ctx, repository.TransitionParams{
		OrgID: actor.OrganizationID,
		ID:    id,
		From:  []models.IncidentStatus{models.IncidentStatusPendingSignature, models.IncidentStatusPendingClosure},
		To:    models.IncidentStatusPendingClosure,
		Patch: patch,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionRejected(ctx, actor.OrganizationID, id)
		}
		s.logger.Error("failed to save signature", zap.String("incident_id", id), zap.Error(err))
		return &dto.SignatureResult{Success: false, Message: "could not save the signature, please try again"}, nil
	}

	changes := patch.Changes()
	changes["status"] = updated.Status
	s.afterMutation(ctx, actor, IncidentEventSign, models.AuditActionIncidentSign, updated, changes)
	return &dto.SignatureResult{Success: true, Message: "signature recorded", SignedAt: &signedAt}, nil
}

// CloseIncident closes a signed incident. The signature is re-checked against the stored row;
// an unsigned incident fails with ErrSignatureRequired and nothing is written.
func (s *IncidentService) CloseIncident(ctx context.Context, actor *models.JWTClaims, id string, req dto.CloseIncidentRequest) (*models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, actor.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if !current.HasSignature() {
		s.logger.Warn("close rejected without guardian signature",
			zap.String("incident_id", id),
			zap.String("status", string(current.Status)),
		)
		return nil, appErrors.ErrSignatureRequired
	}
	if current.Status == models.IncidentStatusClosed {
		return nil, appErrors.Clone(appErrors.ErrIncidentClosed, "incident is already closed")
	}
	if current.Status != models.IncidentStatusPendingClosure {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot close an incident that is %s", current.Status))
	}

	patch := models.IncidentPatch{
		ClosedAt: models.Some(s.clock()),
		ClosedBy: models.Some(actor.UserID),
	}
	if notes := trimmedPtr(req.Notes); notes != nil {
		patch.ClosureNotes = models.Some(*notes)
	}
	updated, err := s.repo.Transition(ctx, repository.TransitionParams{
		OrgID: actor.OrganizationID,
		ID:    id,
		From:  []models.IncidentStatus{models.IncidentStatusPendingClosure},
		To:    models.IncidentStatusClosed,
		Patch: patch,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionRejected(ctx, actor.OrganizationID, id)
		}
		return nil, appErrors.Internal(err, "failed to close incident")
	}

	changes := patch.Changes()
	changes["status"] = updated.Status
	s.afterMutation(ctx, actor, IncidentEventClose, models.AuditActionIncidentClose, updated, changes)
	s.enqueueArchive(updated)
	return updated, nil
}

// CompleteFollowUp marks the follow-up done. Allowed at any status, including closed.
func (s *IncidentService) CompleteFollowUp(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, actor.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if !current.FollowUpRequired {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "follow-up is not required for this incident")
	}
	patch := models.IncidentPatch{
		FollowUpCompleted:   models.Some(true),
		FollowUpCompletedAt: models.Some(s.clock()),
		FollowUpCompletedBy: models.Some(actor.UserID),
	}
	updated, err := s.repo.Update(ctx, actor.OrganizationID, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to complete follow-up")
	}
	s.afterMutation(ctx, actor, IncidentEventFollowUpComplete, models.AuditActionIncidentFollowUpComplete, updated, patch.Changes())
	return updated, nil
}

// MarkCopySent records that the guardian received a copy of the report. Allowed at any status.
func (s *IncidentService) MarkCopySent(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	patch := models.IncidentPatch{ParentCopySent: models.Some(true)}
	updated, err := s.repo.Update(ctx, actor.OrganizationID, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to record guardian copy")
	}
	s.afterMutation(ctx, actor, IncidentEventCopySent, models.AuditActionIncidentShare, updated, patch.Changes())
	return updated, nil
}

// Stats aggregates counts for the actor's organization. ThisMonth counts incidents created since
// the first day of the current month by the engine's clock. The bool reports a cache hit.
func (s *IncidentService) Stats(ctx context.Context, actor *models.JWTClaims) (*models.IncidentStats, bool, error) {
	if err := requireActor(actor); err != nil {
		return nil, false, err
	}
	key := incidentStatsCachePrefix + actor.OrganizationID
	if s.cache != nil {
		var cached models.IncidentStats
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, true, nil
		}
	}

	now := s.clock()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats, err := s.repo.Stats(ctx, actor.OrganizationID, monthStart)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load incident stats")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, stats, s.cfg.StatsCacheTTL)
	}
	return stats, false, nil
}

// History returns the incident's audit trail, oldest first.
func (s *IncidentService) History(ctx context.Context, actor *models.JWTClaims, id string) ([]dto.IncidentHistoryEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, actor.OrganizationID, id); err != nil {
		return nil, err
	}
	if s.trail == nil {
		return []dto.IncidentHistoryEntry{}, nil
	}
	logs, err := s.trail.ListByResource(ctx, actor.OrganizationID, models.AuditResourceIncident, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load incident history")
	}
	entries := make([]dto.IncidentHistoryEntry, 0, len(logs))
	for _, log := range logs {
		entry := dto.IncidentHistoryEntry{Action: log.Action, UserID: log.UserID, At: log.CreatedAt}
		if len(log.NewValues) > 0 && json.Valid(log.NewValues) {
			entry.Changes = json.RawMessage(log.NewValues)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *IncidentService) load(ctx context.Context, orgID, id string) (*models.Incident, error) {
	incident, err := s.repo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load incident")
	}
	if incident == nil {
		return nil, appErrors.ErrNotFound
	}
	return incident, nil
}

// transitionRejected explains why a guarded write matched no row.
func (s *IncidentService) transitionRejected(ctx context.Context, orgID, id string) error {
	current, err := s.load(ctx, orgID, id)
	if err != nil {
		return err
	}
	if current.Status == models.IncidentStatusClosed {
		return appErrors.ErrIncidentClosed
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("incident is %s", current.Status))
}

func (s *IncidentService) afterMutation(ctx context.Context, actor *models.JWTClaims, event, action string, incident *models.Incident, changes map[string]interface{}) {
	if s.metrics != nil {
		s.metrics.RecordIncidentEvent(event)
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, incidentStatsCachePrefix+incident.OrganizationID)
	}
	s.logger.Info("incident event",
		zap.String("event", event),
		zap.String("incident_id", incident.ID),
		zap.String("incident_number", incident.IncidentNumber),
		zap.String("organization_id", incident.OrganizationID),
		zap.String("status", string(incident.Status)),
		zap.String("actor_id", actor.UserID),
	)
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(changes)
	if err != nil {
		s.logger.Warn("failed to encode audit payload", zap.String("incident_id", incident.ID), zap.Error(err))
		return
	}
	userID := actor.UserID
	resourceID := incident.ID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		OrganizationID: incident.OrganizationID,
		UserID:         &userID,
		Action:         action,
		Resource:       models.AuditResourceIncident,
		ResourceID:     &resourceID,
		NewValues:      payload,
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("incident_id", incident.ID), zap.String("action", action), zap.Error(err))
	}
}

func (s *IncidentService) enqueueArchive(incident *models.Incident) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Enqueue(jobs.Job{ID: incident.ID, Type: ArchiveJobType, OrgID: incident.OrganizationID}); err != nil {
		s.logger.Warn("failed to enqueue incident archive", zap.String("incident_id", incident.ID), zap.Error(err))
	}
}

func (s *IncidentService) clock() time.Time {
	return s.now().UTC()
}

func validatePatch(patch models.IncidentPatch) error {
	if patch.IsEmpty() {
		return appErrors.Clone(appErrors.ErrValidation, "no updatable fields provided")
	}
	notNull := []struct {
		column  string
		cleared bool
	}{
		{"incident_type", patch.IncidentType.Null},
		{"severity", patch.Severity.Null},
		{"occurred_at", patch.OccurredAt.Null},
		{"description", patch.Description.Null},
		{"parent_notified", patch.ParentNotified.Null},
		{"parent_copy_sent", patch.ParentCopySent.Null},
		{"follow_up_required", patch.FollowUpRequired.Null},
	}
	for _, field := range notNull {
		if field.cleared {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s cannot be cleared", field.column))
		}
	}
	if patch.IncidentType.HasValue() && !patch.IncidentType.Value.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported incident_type")
	}
	if patch.Severity.HasValue() && !patch.Severity.Value.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported severity")
	}
	if patch.ParentNotifiedMethod.HasValue() && !patch.ParentNotifiedMethod.Value.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported parent_notified_method")
	}
	if patch.Description.HasValue() && strings.TrimSpace(patch.Description.Value) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "description cannot be empty")
	}
	return nil
}

func editableStatuses() []models.IncidentStatus {
	return []models.IncidentStatus{
		models.IncidentStatusOpen,
		models.IncidentStatusPendingSignature,
		models.IncidentStatusPendingClosure,
	}
}

func signableStatus(status models.IncidentStatus) bool {
	return status == models.IncidentStatusPendingSignature || status == models.IncidentStatusPendingClosure
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" || actor.OrganizationID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
