package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
	appErrors "github.com/noah-isme/childcare-incidents-api/pkg/errors"
)

func newDirectoryRepoMock(t *testing.T) (*DirectoryRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewDirectoryRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestDirectoryRepositoryChild(t *testing.T) {
	repo, mock, cleanup := newDirectoryRepoMock(t)
	defer cleanup()

	birth := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM children WHERE organization_id = $1 AND id = $2")).
		WithArgs("org-1", "child-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "classroom_id", "first_name", "last_name", "date_of_birth", "photo_url"}).
			AddRow("child-1", "org-1", nil, "Mia", "Lopez", birth, ""))

	child, err := repo.Child(context.Background(), "org-1", "child-1")
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "Mia Lopez", child.FullName())
	assert.Equal(t, birth, *child.DateOfBirth)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepositoryMissingRowsAreNil(t *testing.T) {
	repo, mock, cleanup := newDirectoryRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM organizations").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM classrooms").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM staff").WillReturnError(sql.ErrNoRows)

	org, err := repo.Organization(context.Background(), "org-x")
	require.NoError(t, err)
	assert.Nil(t, org)

	classroom, err := repo.Classroom(context.Background(), "org-1", "room-x")
	require.NoError(t, err)
	assert.Nil(t, classroom)

	staff, err := repo.Staff(context.Background(), "org-1", "staff-x")
	require.NoError(t, err)
	assert.Nil(t, staff)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepositoryStaffByIDs(t *testing.T) {
	repo, mock, cleanup := newDirectoryRepoMock(t)
	defer cleanup()

	staff, err := repo.StaffByIDs(context.Background(), "org-1", nil)
	require.NoError(t, err)
	assert.Empty(t, staff)

	mock.ExpectQuery(regexp.QuoteMeta("id = ANY($2) ORDER BY full_name")).
		WithArgs("org-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "full_name", "role"}).
			AddRow("staff-2", "org-1", "Ana Ruiz", "teacher").
			AddRow("staff-3", "org-1", "Luis Soto", "director"))

	staff, err = repo.StaffByIDs(context.Background(), "org-1", []string{"staff-2", "staff-3"})
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, models.Staff{ID: "staff-2", OrganizationID: "org-1", FullName: "Ana Ruiz", Role: "teacher"}, staff[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewAuditRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "staff-1"
	resourceID := "inc-1"
	entry := &models.AuditLog{
		OrganizationID: "org-1",
		UserID:         &userID,
		Action:         models.AuditActionIncidentClose,
		Resource:       models.AuditResourceIncident,
		ResourceID:     &resourceID,
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE organization_id = $1 AND resource = $2 AND resource_id = $3")).
		WithArgs("org-1", "incident", "inc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "action", "resource", "resource_id", "old_values", "new_values", "created_at"}).
			AddRow(entry.ID, "org-1", userID, models.AuditActionIncidentClose, "incident", resourceID, nil, []byte(`{"status":"closed"}`), time.Now()))

	logs, err := repo.ListByResource(context.Background(), "org-1", "incident", "inc-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionIncidentClose, logs[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	var dest map[string]int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Minute))
	assert.NoError(t, repo.Delete(context.Background(), "k"))
}
