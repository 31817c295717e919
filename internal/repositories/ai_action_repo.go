package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/volunteer-portal/backend/internal/models"
)

type AIActionRepo struct {
	pool *pgxpool.Pool
}

func NewAIActionRepo(pool *pgxpool.Pool) *AIActionRepo {
	return &AIActionRepo{pool: pool}
}

func (r *AIActionRepo) Create(ctx context.Context, a *models.AIAction) error {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO ai_actions (proposer_id, payload, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, a.ProposerID, payload, a.Status).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AIActionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AIAction, error) {
	var a models.AIAction
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, proposer_id, payload, status, approved_by, approved_at, executed_at, results, created_at, updated_at
		FROM ai_actions WHERE id = $1
	`, id).Scan(&a.ID, &a.ProposerID, &payload, &a.Status, &a.ApprovedBy, &a.ApprovedAt, &a.ExecutedAt, &a.Results, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &a.Payload); err != nil {
		return nil, fmt.Errorf("decoding payload for ai action %s: %w", a.ID, err)
	}
	return &a, nil
}

// Decide flips a proposed action to the decided status and stamps the
// approver, guarded by status = proposed. A false return means another
// decision won the race (or the action was already decided).
func (r *AIActionRepo) Decide(ctx context.Context, id uuid.UUID, approver uuid.UUID, status string, decidedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ai_actions
		SET status = $1, approved_by = $2, approved_at = $3, updated_at = now()
		WHERE id = $4 AND status = $5
	`, status, approver, decidedAt, id, models.AIActionStatusProposed)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Finalize records the execution outcome of an approved action. executedAt
// is non-nil only for the executed status.
func (r *AIActionRepo) Finalize(ctx context.Context, id uuid.UUID, status string, executedAt *time.Time, results map[string]any) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE ai_actions
		SET status = $1, executed_at = $2, results = $3, updated_at = now()
		WHERE id = $4 AND status = $5
	`, status, executedAt, results, id, models.AIActionStatusApproved)
	return err
}

func (r *AIActionRepo) List(ctx context.Context, status *string, limit, offset int) ([]models.AIAction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, proposer_id, payload, status, approved_by, approved_at, executed_at, results, created_at, updated_at
		FROM ai_actions
	`
	args := []any{}
	argIdx := 1
	if status != nil {
		query += fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, *status)
		argIdx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []models.AIAction
	for rows.Next() {
		var a models.AIAction
		var payload []byte
		if err := rows.Scan(&a.ID, &a.ProposerID, &payload, &a.Status, &a.ApprovedBy, &a.ApprovedAt, &a.ExecutedAt, &a.Results, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &a.Payload); err != nil {
			return nil, fmt.Errorf("decoding payload for ai action %s: %w", a.ID, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
