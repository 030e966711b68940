package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dimasfahmi/studyplan-api/internal/models"
	appErrors "github.com/dimasfahmi/studyplan-api/pkg/errors"
)

func newPlanRepoMock(t *testing.T) (*PlanRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	repo := NewPlanRepository(sqlxDB, zap.NewNop())
	return repo, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

const samplePlanJSON = `{"weeklySchedule":{"Monday":{"subjects":[{"subject":"Math","duration":2,"timeSlot":"9:00 AM - 11:00 AM"}],"totalHours":2}}}`

func TestPlanRepositoryList(t *testing.T) {
	repo, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "plan", "status", "created_at", "updated_at"}).
		AddRow("plan-1", "Math study plan", []byte(samplePlanJSON), "active", now, now)
	mock.ExpectQuery("SELECT id, name, plan").WillReturnRows(rows)

	plans, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-1", plans[0].ID)
	assert.Equal(t, "Math", plans[0].Plan.WeeklySchedule["Monday"].Subjects[0].Subject)
}

func TestPlanRepositoryListSkipsCorruptDocument(t *testing.T) {
	repo, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "plan", "status", "created_at", "updated_at"}).
		AddRow("plan-bad", "Broken", []byte(`{not json`), "active", now, now).
		AddRow("plan-ok", "Math study plan", []byte(samplePlanJSON), "active", now, now)
	mock.ExpectQuery("SELECT id, name, plan").WillReturnRows(rows)

	plans, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-ok", plans[0].ID)
}

func TestPlanRepositoryFindByIDNotFound(t *testing.T) {
	repo, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, name, plan").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "plan", "status", "created_at", "updated_at"}))

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlanRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO study_plans").
		WithArgs("plan-1", "Math study plan", sqlmock.AnyArg(), "active", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	plan := &models.StoredPlan{
		ID:     "plan-1",
		Name:   "Math study plan",
		Status: models.PlanStatusActive,
		Plan: models.StudyPlan{
			WeeklySchedule: map[string]models.DaySchedule{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), plan))
}

func TestPlanRepositoryDeleteMissing(t *testing.T) {
	repo, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM study_plans").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlanRepositoryUpdateStatus(t *testing.T) {
	repo, mock, cleanup := newPlanRepoMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE study_plans SET status").
		WithArgs("completed", sqlmock.AnyArg(), "plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "plan-1", models.PlanStatusCompleted))
}
