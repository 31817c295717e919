package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/volunteer-portal/backend/internal/models"
)

type PipelineRepo struct {
	pool *pgxpool.Pool
}

func NewPipelineRepo(pool *pgxpool.Pool) *PipelineRepo {
	return &PipelineRepo{pool: pool}
}

// ---- Stages ----

func (r *PipelineRepo) CreateStage(ctx context.Context, s *models.PipelineStage) error {
	autoActions, err := json.Marshal(s.AutoActions)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_stages (applicant_type, stage_name, stage_order, auto_actions, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, s.ApplicantType, s.StageName, s.StageOrder, autoActions, s.IsActive).Scan(&s.ID, &s.CreatedAt)
}

func (r *PipelineRepo) GetStage(ctx context.Context, applicantType, stageName string) (*models.PipelineStage, error) {
	var s models.PipelineStage
	var autoActions []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, applicant_type, stage_name, stage_order, auto_actions, is_active, created_at
		FROM pipeline_stages WHERE applicant_type = $1 AND stage_name = $2
	`, applicantType, stageName).Scan(&s.ID, &s.ApplicantType, &s.StageName, &s.StageOrder, &autoActions, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(autoActions, &s.AutoActions); err != nil {
		return nil, fmt.Errorf("decoding auto_actions for stage %s: %w", s.ID, err)
	}
	return &s, nil
}

// FirstActiveStage returns the active stage with the lowest stage_order for
// the applicant type, i.e. the initial stage of the pipeline.
func (r *PipelineRepo) FirstActiveStage(ctx context.Context, applicantType string) (*models.PipelineStage, error) {
	var s models.PipelineStage
	var autoActions []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, applicant_type, stage_name, stage_order, auto_actions, is_active, created_at
		FROM pipeline_stages
		WHERE applicant_type = $1 AND is_active = true
		ORDER BY stage_order LIMIT 1
	`, applicantType).Scan(&s.ID, &s.ApplicantType, &s.StageName, &s.StageOrder, &autoActions, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(autoActions, &s.AutoActions); err != nil {
		return nil, fmt.Errorf("decoding auto_actions for stage %s: %w", s.ID, err)
	}
	return &s, nil
}

func (r *PipelineRepo) ListStages(ctx context.Context, applicantType string) ([]models.PipelineStage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, applicant_type, stage_name, stage_order, auto_actions, is_active, created_at
		FROM pipeline_stages WHERE applicant_type = $1 ORDER BY stage_order
	`, applicantType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []models.PipelineStage
	for rows.Next() {
		var s models.PipelineStage
		var autoActions []byte
		if err := rows.Scan(&s.ID, &s.ApplicantType, &s.StageName, &s.StageOrder, &autoActions, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(autoActions, &s.AutoActions); err != nil {
			return nil, fmt.Errorf("decoding auto_actions for stage %s: %w", s.ID, err)
		}
		stages = append(stages, s)
	}
	return stages, nil
}

// ---- Entries ----

func (r *PipelineRepo) CreateEntry(ctx context.Context, e *models.PipelineEntry) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_entries (applicant_id, applicant_type, current_stage, status, priority, assignee_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, e.ApplicantID, e.ApplicantType, e.CurrentStage, e.Status, e.Priority, e.AssigneeID, e.Notes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *PipelineRepo) GetEntry(ctx context.Context, id uuid.UUID) (*models.PipelineEntry, error) {
	var e models.PipelineEntry
	err := r.pool.QueryRow(ctx, `
		SELECT id, applicant_id, applicant_type, current_stage, status, priority, assignee_id, notes, created_at, updated_at
		FROM pipeline_entries WHERE id = $1
	`, id).Scan(&e.ID, &e.ApplicantID, &e.ApplicantType, &e.CurrentStage, &e.Status, &e.Priority, &e.AssigneeID, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PipelineRepo) UpdateEntryStage(ctx context.Context, id uuid.UUID, stage string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE pipeline_entries SET current_stage = $1, updated_at = now() WHERE id = $2
	`, stage, id)
	return err
}

func (r *PipelineRepo) UpdateEntryStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE pipeline_entries SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	return err
}

type PipelineEntryFilter struct {
	ApplicantType *string
	CurrentStage  *string
	Status        *string
	Limit         int
	Offset        int
}

func (r *PipelineRepo) ListEntries(ctx context.Context, f PipelineEntryFilter) ([]models.PipelineEntry, error) {
	query := `
		SELECT id, applicant_id, applicant_type, current_stage, status, priority, assignee_id, notes, created_at, updated_at
		FROM pipeline_entries
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.ApplicantType != nil {
		where = append(where, fmt.Sprintf("applicant_type = $%d", argIdx))
		args = append(args, *f.ApplicantType)
		argIdx++
	}
	if f.CurrentStage != nil {
		where = append(where, fmt.Sprintf("current_stage = $%d", argIdx))
		args = append(args, *f.CurrentStage)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PipelineEntry
	for rows.Next() {
		var e models.PipelineEntry
		if err := rows.Scan(&e.ID, &e.ApplicantID, &e.ApplicantType, &e.CurrentStage, &e.Status, &e.Priority, &e.AssigneeID, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarkAutoActionFired records the (entry, stage, kind) idempotency key and
// reports whether this call inserted it. A false return means the action
// already fired for that stage and must not fire again.
func (r *PipelineRepo) MarkAutoActionFired(ctx context.Context, entryID uuid.UUID, stage, kind string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO pipeline_fired_actions (entry_id, stage_name, action_kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (entry_id, stage_name, action_kind) DO NOTHING
	`, entryID, stage, kind)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
