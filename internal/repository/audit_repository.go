package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

// AuditRepository stores the incident audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog stores an audit log entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, organization_id, user_id, action, resource, resource_id, old_values, new_values, created_at)
	VALUES (:id, :organization_id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByResource returns the trail for one resource, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, orgID, resource, resourceID string) ([]models.AuditLog, error) {
	const query = `SELECT id, organization_id, user_id, action, resource, resource_id, old_values, new_values, created_at
	FROM audit_logs WHERE organization_id = $1 AND resource = $2 AND resource_id = $3 ORDER BY created_at ASC`
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, orgID, resource, resourceID); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
