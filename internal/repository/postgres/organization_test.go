package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinovia/clinic-api/internal/model"
	apperrors "github.com/clinovia/clinic-api/pkg/errors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func orgColumns() []string {
	return []string{
		"id", "name", "is_active", "created_by", "address", "phone",
		"billing_email", "created_at", "updated_at",
	}
}

func TestCreateWithFounder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))
	founderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organizations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	org := &model.Organization{Name: "Clinic A", CreatedBy: founderID}
	err := repo.CreateWithFounder(context.Background(), org)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, org.ID)
	assert.True(t, org.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithFounderDuplicateName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organizations").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: constraintActiveOrgName})
	mock.ExpectRollback()

	err := repo.CreateWithFounder(context.Background(), &model.Organization{Name: "Clinic A", CreatedBy: uuid.New()})

	assert.True(t, apperrors.Is(err, apperrors.KindDuplicateName))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithFounderRollsBackWithoutProfile(t *testing.T) {
	// A missing or already-assigned founder profile must undo the
	// organization insert as well.
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organizations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateWithFounder(context.Background(), &model.Organization{Name: "Clinic A", CreatedBy: uuid.New()})

	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrganization(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM organizations").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(orgColumns()).
			AddRow(id.String(), "Clinic A", true, uuid.New().String(), "1 Main St", "+1555", "b@c.example", now, now))

	org, err := repo.Get(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "Clinic A", org.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrganizationNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM organizations").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(orgColumns()))

	_, err := repo.Get(context.Background(), id)

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestUpdateOrganizationDuplicateName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))

	mock.ExpectExec("UPDATE organizations").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: constraintActiveOrgName})

	err := repo.Update(context.Background(), &model.Organization{ID: uuid.New(), Name: "Clinic B"})

	assert.True(t, apperrors.Is(err, apperrors.KindDuplicateName))
}

func TestUpdateOrganizationNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))

	mock.ExpectExec("UPDATE organizations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Organization{ID: uuid.New(), Name: "Clinic B"})

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestUpdateOrganizationStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(NewBaseRepository(db))

	mock.ExpectExec("UPDATE organizations").
		WillReturnError(fmt.Errorf("connection reset"))

	err := repo.Update(context.Background(), &model.Organization{ID: uuid.New(), Name: "Clinic B"})

	assert.True(t, apperrors.Is(err, apperrors.KindUnavailable))
}
