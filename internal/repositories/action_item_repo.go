package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/volunteer-portal/backend/internal/models"
)

type ActionItemRepo struct {
	pool *pgxpool.Pool
}

func NewActionItemRepo(pool *pgxpool.Pool) *ActionItemRepo {
	return &ActionItemRepo{pool: pool}
}

func (r *ActionItemRepo) Create(ctx context.Context, item *models.ActionItem) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO action_items (title, description, type, priority, status, assigner_id,
		                          due_date, related_type, related_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, item.Title, item.Description, item.Type, item.Priority, item.Status, item.AssignerID,
		item.DueDate, item.RelatedType, item.RelatedID, item.Metadata,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return err
	}

	for _, userID := range item.Assignees {
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO action_item_assignees (action_item_id, user_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, item.ID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ActionItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ActionItem, error) {
	var item models.ActionItem
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, description, type, priority, status, assigner_id, due_date,
		       related_type, related_id, metadata, completed_by, completed_at, created_at, updated_at
		FROM action_items WHERE id = $1
	`, id).Scan(&item.ID, &item.Title, &item.Description, &item.Type, &item.Priority, &item.Status,
		&item.AssignerID, &item.DueDate, &item.RelatedType, &item.RelatedID, &item.Metadata,
		&item.CompletedBy, &item.CompletedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.Assignees, err = r.assignees(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateStatus writes the new status together with the completion stamps.
// Transition to completed sets them; every other transition clears them.
func (r *ActionItemRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, completedBy *uuid.UUID, completedAt *time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE action_items
		SET status = $1, completed_by = $2, completed_at = $3, updated_at = now()
		WHERE id = $4
	`, status, completedBy, completedAt, id)
	return err
}

func (r *ActionItemRepo) ListByEntity(ctx context.Context, relatedType string, relatedID uuid.UUID) ([]models.ActionItem, error) {
	return r.list(ctx, `
		SELECT id, title, description, type, priority, status, assigner_id, due_date,
		       related_type, related_id, metadata, completed_by, completed_at, created_at, updated_at
		FROM action_items WHERE related_type = $1 AND related_id = $2
		ORDER BY created_at
	`, relatedType, relatedID)
}

func (r *ActionItemRepo) ListAssignedTo(ctx context.Context, userID uuid.UUID) ([]models.ActionItem, error) {
	return r.list(ctx, `
		SELECT i.id, i.title, i.description, i.type, i.priority, i.status, i.assigner_id, i.due_date,
		       i.related_type, i.related_id, i.metadata, i.completed_by, i.completed_at, i.created_at, i.updated_at
		FROM action_items i
		JOIN action_item_assignees a ON a.action_item_id = i.id
		WHERE a.user_id = $1
		ORDER BY i.created_at DESC
	`, userID)
}

// ListOverdue returns non-terminal items whose due date has passed and which
// are not yet marked overdue. It backs the periodic sweep.
func (r *ActionItemRepo) ListOverdue(ctx context.Context, now time.Time) ([]models.ActionItem, error) {
	return r.list(ctx, `
		SELECT id, title, description, type, priority, status, assigner_id, due_date,
		       related_type, related_id, metadata, completed_by, completed_at, created_at, updated_at
		FROM action_items
		WHERE due_date IS NOT NULL AND due_date < $1
		  AND status NOT IN ($2, $3, $4)
		ORDER BY due_date
	`, now, models.ActionItemStatusCompleted, models.ActionItemStatusCancelled, models.ActionItemStatusOverdue)
}

// DepartmentCounts holds per-department open/overdue tallies for the weekly
// summary. Unassigned (broadcast) items carry no department and are excluded.
type DepartmentCounts struct {
	Department string
	Open       int
	Overdue    int
}

func (r *ActionItemRepo) CountOpenByDepartment(ctx context.Context) ([]DepartmentCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.department,
		       COUNT(DISTINCT i.id) FILTER (WHERE i.status IN ($1, $2)),
		       COUNT(DISTINCT i.id) FILTER (WHERE i.status = $3)
		FROM action_items i
		JOIN action_item_assignees a ON a.action_item_id = i.id
		JOIN users u ON u.id = a.user_id
		WHERE i.status NOT IN ($4, $5)
		GROUP BY u.department
		ORDER BY u.department
	`, models.ActionItemStatusPending, models.ActionItemStatusInProgress, models.ActionItemStatusOverdue,
		models.ActionItemStatusCompleted, models.ActionItemStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []DepartmentCounts
	for rows.Next() {
		var c DepartmentCounts
		if err := rows.Scan(&c.Department, &c.Open, &c.Overdue); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, nil
}

// ---- Comments ----

func (r *ActionItemRepo) AddComment(ctx context.Context, c *models.ActionItemComment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO action_item_comments (action_item_id, author_id, body, internal)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.ActionItemID, c.AuthorID, c.Body, c.Internal).Scan(&c.ID, &c.CreatedAt)
}

func (r *ActionItemRepo) ListComments(ctx context.Context, itemID uuid.UUID, includeInternal bool) ([]models.ActionItemComment, error) {
	query := `
		SELECT id, action_item_id, author_id, body, internal, created_at
		FROM action_item_comments WHERE action_item_id = $1
	`
	if !includeInternal {
		query += ` AND internal = false`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.ActionItemComment
	for rows.Next() {
		var c models.ActionItemComment
		if err := rows.Scan(&c.ID, &c.ActionItemID, &c.AuthorID, &c.Body, &c.Internal, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// ---- History (append-only) ----

func (r *ActionItemRepo) AppendHistory(ctx context.Context, e *models.ActionItemHistoryEntry) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO action_item_history (action_item_id, actor_id, action, old_value, new_value, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.ActionItemID, e.ActorID, e.Action, e.OldValue, e.NewValue, e.Meta).Scan(&e.ID, &e.CreatedAt)
}

func (r *ActionItemRepo) ListHistory(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.ActionItemHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, action_item_id, actor_id, action, old_value, new_value, meta, created_at
		FROM action_item_history WHERE action_item_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, itemID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ActionItemHistoryEntry
	for rows.Next() {
		var e models.ActionItemHistoryEntry
		if err := rows.Scan(&e.ID, &e.ActionItemID, &e.ActorID, &e.Action, &e.OldValue, &e.NewValue, &e.Meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ---- helpers ----

func (r *ActionItemRepo) assignees(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM action_item_assignees WHERE action_item_id = $1 ORDER BY user_id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *ActionItemRepo) list(ctx context.Context, query string, args ...any) ([]models.ActionItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ActionItem
	for rows.Next() {
		var item models.ActionItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Type, &item.Priority, &item.Status,
			&item.AssignerID, &item.DueDate, &item.RelatedType, &item.RelatedID, &item.Metadata,
			&item.CompletedBy, &item.CompletedAt, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("listing action items: %w", rows.Err())
	}

	for i := range items {
		assignees, err := r.assignees(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Assignees = assignees
	}
	return items, nil
}
