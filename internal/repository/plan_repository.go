package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/dimasfahmi/studyplan-api/internal/models"
	appErrors "github.com/dimasfahmi/studyplan-api/pkg/errors"
)

// PlanRepository persists study plans. The plan document is stored as a jsonb
// column so the weekly schedule shape can evolve without migrations.
type PlanRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPlanRepository constructs the repository.
func NewPlanRepository(db *sqlx.DB, logger *zap.Logger) *PlanRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanRepository{db: db, logger: logger}
}

type storedPlanRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Plan      types.JSONText `db:"plan"`
	Status    string         `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// List returns all stored plans, newest first. Rows whose plan document fails
// to unmarshal are skipped so one corrupt row cannot take down the listing.
func (r *PlanRepository) List(ctx context.Context) ([]models.StoredPlan, error) {
	const query = `SELECT id, name, plan, status, created_at, updated_at
FROM study_plans ORDER BY created_at DESC`
	var rows []storedPlanRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list study plans: %w", err)
	}

	plans := make([]models.StoredPlan, 0, len(rows))
	for _, row := range rows {
		plan, err := row.toModel()
		if err != nil {
			r.logger.Warn("skipping study plan with unreadable document",
				zap.String("id", row.ID), zap.Error(err))
			continue
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// FindByID fetches a single stored plan.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.StoredPlan, error) {
	const query = `SELECT id, name, plan, status, created_at, updated_at
FROM study_plans WHERE id = $1`
	var row storedPlanRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
		}
		return nil, fmt.Errorf("find study plan %s: %w", id, err)
	}
	plan, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("decode study plan %s: %w", id, err)
	}
	return &plan, nil
}

// Create inserts a stored plan.
func (r *PlanRepository) Create(ctx context.Context, plan *models.StoredPlan) error {
	const query = `INSERT INTO study_plans (id, name, plan, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	payload, err := json.Marshal(plan.Plan)
	if err != nil {
		return fmt.Errorf("encode study plan document: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.Name, types.JSONText(payload), plan.Status, plan.CreatedAt, plan.UpdatedAt); err != nil {
		return fmt.Errorf("insert study plan: %w", err)
	}
	return nil
}

// Delete removes a stored plan.
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM study_plans WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete study plan %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete study plan %s: %w", id, err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
	}
	return nil
}

// UpdateStatus changes a plan's lifecycle state.
func (r *PlanRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE study_plans SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update study plan status %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update study plan status %s: %w", id, err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
	}
	return nil
}

func (row storedPlanRow) toModel() (models.StoredPlan, error) {
	var doc models.StudyPlan
	if len(row.Plan) > 0 {
		if err := json.Unmarshal(row.Plan, &doc); err != nil {
			return models.StoredPlan{}, err
		}
	}
	return models.StoredPlan{
		ID:        row.ID,
		Name:      row.Name,
		Plan:      doc,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
