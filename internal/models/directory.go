package models

import (
	"strings"
	"time"
)

// Organization is the tenant profile shown on report headers.
type Organization struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Address       string `db:"address" json:"address"`
	Phone         string `db:"phone" json:"phone"`
	LicenseNumber string `db:"license_number" json:"license_number"`
	LogoURL       string `db:"logo_url" json:"logo_url"`
}

// Child is a directory entry for an enrolled child.
type Child struct {
	ID             string     `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	ClassroomID    *string    `db:"classroom_id" json:"classroom_id,omitempty"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	PhotoURL       string     `db:"photo_url" json:"photo_url,omitempty"`
}

// FullName joins first and last name.
func (c Child) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Classroom is a directory entry for a room.
type Classroom struct {
	ID             string `db:"id" json:"id"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
	Name           string `db:"name" json:"name"`
}

// Staff is a directory entry for an employee.
type Staff struct {
	ID             string `db:"id" json:"id"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
	FullName       string `db:"full_name" json:"full_name"`
	Role           string `db:"role" json:"role"`
}

// IncidentDetail is an incident with its directory references resolved.
type IncidentDetail struct {
	Incident   Incident   `json:"incident"`
	Child      *Child     `json:"child,omitempty"`
	Classroom  *Classroom `json:"classroom,omitempty"`
	Reporter   *Staff     `json:"reporter,omitempty"`
	NotifiedBy *Staff     `json:"notified_by,omitempty"`
	ClosedBy   *Staff     `json:"closed_by,omitempty"`
	Witnesses  []Staff    `json:"witnesses,omitempty"`
}
