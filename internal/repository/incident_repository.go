package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

// ErrDuplicateIncidentNumber signals a concurrent create claimed the same incident number.
var ErrDuplicateIncidentNumber = errors.New("incident number already taken")

const (
	incidentNumberConstraint = "incidents_org_number_key"
	pqUniqueViolation        = "23505"
)

const incidentColumns = `id, organization_id, incident_number, child_id, classroom_id, incident_type, severity,
	occurred_at, location, description, action_taken, reported_by, witness_staff_ids, witness_names,
	parent_notified, parent_notified_at, parent_notified_method, parent_notified_by, parent_copy_sent,
	signature_data, signed_by_name, signed_by_relationship, signed_at,
	follow_up_required, follow_up_date, follow_up_completed, follow_up_completed_at, follow_up_completed_by,
	closed_at, closed_by, closure_notes, status, created_at, updated_at`

// IncidentRepository persists incidents scoped by organization.
type IncidentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewIncidentRepository constructs the repository.
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db, now: time.Now}
}

// ListAll returns every incident of the organization, most recent occurrence first.
func (r *IncidentRepository) ListAll(ctx context.Context, orgID string) ([]models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE organization_id = $1 ORDER BY occurred_at DESC`
	var incidents []models.Incident
	if err := r.db.SelectContext(ctx, &incidents, query, orgID); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// ListPendingSignature returns incidents waiting on a guardian signature.
func (r *IncidentRepository) ListPendingSignature(ctx context.Context, orgID string) ([]models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE organization_id = $1 AND status = $2 ORDER BY occurred_at DESC`
	var incidents []models.Incident
	if err := r.db.SelectContext(ctx, &incidents, query, orgID, models.IncidentStatusPendingSignature); err != nil {
		return nil, fmt.Errorf("list pending signature incidents: %w", err)
	}
	return incidents, nil
}

// ListRequiringFollowUp returns open follow-ups due on or before asOf, earliest first.
func (r *IncidentRepository) ListRequiringFollowUp(ctx context.Context, orgID string, asOf time.Time) ([]models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
	WHERE organization_id = $1 AND follow_up_required = TRUE AND follow_up_completed = FALSE AND follow_up_date <= $2
	ORDER BY follow_up_date ASC`
	var incidents []models.Incident
	if err := r.db.SelectContext(ctx, &incidents, query, orgID, asOf); err != nil {
		return nil, fmt.Errorf("list follow-up incidents: %w", err)
	}
	return incidents, nil
}

// GetByID fetches an incident. A missing row yields (nil, nil).
func (r *IncidentRepository) GetByID(ctx context.Context, orgID, id string) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE organization_id = $1 AND id = $2`
	var incident models.Incident
	if err := r.db.GetContext(ctx, &incident, query, orgID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return &incident, nil
}

// Insert stores a new incident, assigning its id and timestamps.
func (r *IncidentRepository) Insert(ctx context.Context, incident *models.Incident) error {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	now := r.now().UTC()
	incident.CreatedAt = now
	incident.UpdatedAt = now
	if incident.Status == "" {
		incident.Status = models.IncidentStatusOpen
	}
	if incident.WitnessStaffIDs == nil {
		incident.WitnessStaffIDs = pq.StringArray{}
	}
	const query = `INSERT INTO incidents (id, organization_id, incident_number, child_id, classroom_id, incident_type, severity,
	occurred_at, location, description, action_taken, reported_by, witness_staff_ids, witness_names,
	parent_notified, parent_notified_at, parent_notified_method, parent_notified_by, parent_copy_sent,
	follow_up_required, follow_up_date, status, created_at, updated_at)
	VALUES (:id, :organization_id, :incident_number, :child_id, :classroom_id, :incident_type, :severity,
	:occurred_at, :location, :description, :action_taken, :reported_by, :witness_staff_ids, :witness_names,
	:parent_notified, :parent_notified_at, :parent_notified_method, :parent_notified_by, :parent_copy_sent,
	:follow_up_required, :follow_up_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, incident); err != nil {
		if isIncidentNumberConflict(err) {
			return ErrDuplicateIncidentNumber
		}
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// Update applies the provided patch fields only and returns the stored row.
// No matching row yields sql.ErrNoRows.
func (r *IncidentRepository) Update(ctx context.Context, orgID, id string, patch models.IncidentPatch) (*models.Incident, error) {
	return r.write(ctx, orgID, id, nil, "", patch)
}

// TransitionParams describes a status change guarded by the expected current status.
type TransitionParams struct {
	OrgID string
	ID    string
	From  []models.IncidentStatus
	To    models.IncidentStatus
	Patch models.IncidentPatch
}

// Transition moves an incident to To when its current status is one of From, writing the
// patch in the same statement. An empty To leaves the status as is. A status mismatch or
// missing row yields sql.ErrNoRows.
func (r *IncidentRepository) Transition(ctx context.Context, params TransitionParams) (*models.Incident, error) {
	if len(params.From) == 0 {
		return nil, fmt.Errorf("transition incident: no source status")
	}
	return r.write(ctx, params.OrgID, params.ID, params.From, params.To, params.Patch)
}

func (r *IncidentRepository) write(ctx context.Context, orgID, id string, from []models.IncidentStatus, to models.IncidentStatus, patch models.IncidentPatch) (*models.Incident, error) {
	cols := patch.Columns()
	setParts := make([]string, 0, len(cols)+2)
	args := make([]interface{}, 0, len(cols)+5)
	for _, col := range cols {
		args = append(args, col.Value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col.Column, len(args)))
	}
	if to != "" {
		args = append(args, to)
		setParts = append(setParts, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, r.now().UTC())
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, orgID)
	where := fmt.Sprintf("organization_id = $%d", len(args))
	args = append(args, id)
	where += fmt.Sprintf(" AND id = $%d", len(args))
	if len(from) > 0 {
		statuses := make([]string, len(from))
		for i, status := range from {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		where += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}

	query := fmt.Sprintf("UPDATE incidents SET %s WHERE %s RETURNING %s", strings.Join(setParts, ", "), where, incidentColumns)
	var incident models.Incident
	if err := r.db.GetContext(ctx, &incident, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return &incident, nil
}

// NextIncidentNumber counts the organization's incidents created since Jan 1 of year (UTC)
// and formats the following sequence number.
func (r *IncidentRepository) NextIncidentNumber(ctx context.Context, orgID string, year int) (string, error) {
	const query = `SELECT COUNT(*) FROM incidents WHERE organization_id = $1 AND created_at >= $2`
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	var count int
	if err := r.db.GetContext(ctx, &count, query, orgID, yearStart); err != nil {
		return "", fmt.Errorf("count incidents for numbering: %w", err)
	}
	return models.FormatIncidentNumber(year, count+1), nil
}

type incidentStatsRow struct {
	Status          models.IncidentStatus `db:"status"`
	Severity        models.Severity       `db:"severity"`
	Total           int                   `db:"total"`
	SinceMonthStart int                   `db:"since_month_start"`
	PendingFollowUp int                   `db:"pending_follow_up"`
}

// Stats aggregates counts for the organization. monthStart bounds the ThisMonth counter.
func (r *IncidentRepository) Stats(ctx context.Context, orgID string, monthStart time.Time) (*models.IncidentStats, error) {
	const query = `SELECT status, severity, COUNT(*) AS total,
	COUNT(*) FILTER (WHERE created_at >= $2) AS since_month_start,
	COUNT(*) FILTER (WHERE follow_up_required AND NOT follow_up_completed) AS pending_follow_up
	FROM incidents WHERE organization_id = $1
	GROUP BY status, severity`
	var rows []incidentStatsRow
	if err := r.db.SelectContext(ctx, &rows, query, orgID, monthStart); err != nil {
		return nil, fmt.Errorf("incident stats: %w", err)
	}

	stats := &models.IncidentStats{
		ByStatus:   make(map[models.IncidentStatus]int, len(models.AllIncidentStatuses())),
		BySeverity: make(map[models.Severity]int, len(models.AllSeverities())),
	}
	for _, status := range models.AllIncidentStatuses() {
		stats.ByStatus[status] = 0
	}
	for _, severity := range models.AllSeverities() {
		stats.BySeverity[severity] = 0
	}
	for _, row := range rows {
		stats.Total += row.Total
		stats.ByStatus[row.Status] += row.Total
		stats.BySeverity[row.Severity] += row.Total
		stats.ThisMonth += row.SinceMonthStart
		stats.PendingFollowUp += row.PendingFollowUp
	}
	stats.PendingSignature = stats.ByStatus[models.IncidentStatusPendingSignature]
	return stats, nil
}

func isIncidentNumberConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqUniqueViolation && pqErr.Constraint == incidentNumberConstraint
}
