package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

// DirectoryRepository reads the organization, child, classroom and staff directories.
// Missing rows yield (nil, nil).
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// Organization fetches the tenant profile.
func (r *DirectoryRepository) Organization(ctx context.Context, orgID string) (*models.Organization, error) {
	const query = `SELECT id, name, address, phone, license_number, logo_url FROM organizations WHERE id = $1`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, orgID); err != nil {
		return nil, notFoundAsNil(err, "get organization")
	}
	return &org, nil
}

// Child fetches a child within the organization.
func (r *DirectoryRepository) Child(ctx context.Context, orgID, id string) (*models.Child, error) {
	const query = `SELECT id, organization_id, classroom_id, first_name, last_name, date_of_birth, photo_url
	FROM children WHERE organization_id = $1 AND id = $2`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, orgID, id); err != nil {
		return nil, notFoundAsNil(err, "get child")
	}
	return &child, nil
}

// Classroom fetches a classroom within the organization.
func (r *DirectoryRepository) Classroom(ctx context.Context, orgID, id string) (*models.Classroom, error) {
	const query = `SELECT id, organization_id, name FROM classrooms WHERE organization_id = $1 AND id = $2`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, orgID, id); err != nil {
		return nil, notFoundAsNil(err, "get classroom")
	}
	return &classroom, nil
}

// Staff fetches a staff member within the organization.
func (r *DirectoryRepository) Staff(ctx context.Context, orgID, id string) (*models.Staff, error) {
	const query = `SELECT id, organization_id, full_name, role FROM staff WHERE organization_id = $1 AND id = $2`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, orgID, id); err != nil {
		return nil, notFoundAsNil(err, "get staff")
	}
	return &staff, nil
}

// StaffByIDs fetches the listed staff members ordered by name.
func (r *DirectoryRepository) StaffByIDs(ctx context.Context, orgID string, ids []string) ([]models.Staff, error) {
	if len(ids) == 0 {
		return []models.Staff{}, nil
	}
	const query = `SELECT id, organization_id, full_name, role FROM staff
	WHERE organization_id = $1 AND id = ANY($2) ORDER BY full_name`
	var staff []models.Staff
	if err := r.db.SelectContext(ctx, &staff, query, orgID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

func notFoundAsNil(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
