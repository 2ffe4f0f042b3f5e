package service

import (
	"context"
	"strings"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
	appErrors "github.com/noah-isme/childcare-incidents-api/pkg/errors"
)

type incidentReader interface {
	GetByID(ctx context.Context, orgID, id string) (*models.Incident, error)
}

type directoryReader interface {
	Organization(ctx context.Context, orgID string) (*models.Organization, error)
	Child(ctx context.Context, orgID, id string) (*models.Child, error)
	Classroom(ctx context.Context, orgID, id string) (*models.Classroom, error)
	Staff(ctx context.Context, orgID, id string) (*models.Staff, error)
	StaffByIDs(ctx context.Context, orgID string, ids []string) ([]models.Staff, error)
}

// IncidentDetailLoader resolves an incident together with the directory entries shown on its report.
type IncidentDetailLoader struct {
	incidents incidentReader
	directory directoryReader
}

// NewIncidentDetailLoader constructs the loader.
func NewIncidentDetailLoader(incidents incidentReader, directory directoryReader) *IncidentDetailLoader {
	return &IncidentDetailLoader{incidents: incidents, directory: directory}
}

// Load returns the incident detail and its organization. Missing directory entries are left nil.
func (l *IncidentDetailLoader) Load(ctx context.Context, orgID, id string) (*models.IncidentDetail, *models.Organization, error) {
	incident, err := l.incidents.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load incident")
	}
	if incident == nil {
		return nil, nil, appErrors.ErrNotFound
	}

	org, err := l.directory.Organization(ctx, orgID)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load organization")
	}
	if org == nil {
		org = &models.Organization{ID: orgID}
	}

	detail := &models.IncidentDetail{Incident: *incident}
	if detail.Child, err = l.directory.Child(ctx, orgID, incident.ChildID); err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load child")
	}
	classroomID := incident.ClassroomID
	if classroomID == nil && detail.Child != nil {
		classroomID = detail.Child.ClassroomID
	}
	if classroomID != nil && strings.TrimSpace(*classroomID) != "" {
		if detail.Classroom, err = l.directory.Classroom(ctx, orgID, *classroomID); err != nil {
			return nil, nil, appErrors.Internal(err, "failed to load classroom")
		}
	}
	if detail.Reporter, err = l.staff(ctx, orgID, &incident.ReportedBy); err != nil {
		return nil, nil, err
	}
	if detail.NotifiedBy, err = l.staff(ctx, orgID, incident.ParentNotifiedBy); err != nil {
		return nil, nil, err
	}
	if detail.ClosedBy, err = l.staff(ctx, orgID, incident.ClosedBy); err != nil {
		return nil, nil, err
	}
	if len(incident.WitnessStaffIDs) > 0 {
		if detail.Witnesses, err = l.directory.StaffByIDs(ctx, orgID, incident.WitnessStaffIDs); err != nil {
			return nil, nil, appErrors.Internal(err, "failed to load witnesses")
		}
	}
	return detail, org, nil
}

func (l *IncidentDetailLoader) staff(ctx context.Context, orgID string, id *string) (*models.Staff, error) {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil, nil
	}
	staff, err := l.directory.Staff(ctx, orgID, *id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load staff member")
	}
	return staff, nil
}
