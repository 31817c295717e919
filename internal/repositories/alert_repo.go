package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/volunteer-portal/backend/internal/models"
)

type AlertRepo struct {
	pool *pgxpool.Pool
}

func NewAlertRepo(pool *pgxpool.Pool) *AlertRepo {
	return &AlertRepo{pool: pool}
}

func (r *AlertRepo) Create(ctx context.Context, a *models.Alert) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO alerts (department, severity, message, triggered_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.Department, a.Severity, a.Message, a.TriggeredBy).Scan(&a.ID, &a.CreatedAt)
}

func (r *AlertRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var a models.Alert
	err := r.pool.QueryRow(ctx, `
		SELECT id, department, severity, message, triggered_by, acknowledged_by, acknowledged_at, created_at
		FROM alerts WHERE id = $1
	`, id).Scan(&a.ID, &a.Department, &a.Severity, &a.Message, &a.TriggeredBy, &a.AcknowledgedBy, &a.AcknowledgedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Acknowledge stamps the acknowledgment once; the guard on acknowledged_by
// IS NULL makes a second acknowledgment a no-op reported to the caller.
func (r *AlertRepo) Acknowledge(ctx context.Context, id, actor uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE alerts SET acknowledged_by = $1, acknowledged_at = $2
		WHERE id = $3 AND acknowledged_by IS NULL
	`, actor, at, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AlertRepo) ListByDepartment(ctx context.Context, department string, limit, offset int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, department, severity, message, triggered_by, acknowledged_by, acknowledged_at, created_at
		FROM alerts WHERE department = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, department, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (r *AlertRepo) ListAll(ctx context.Context, limit, offset int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, department, severity, message, triggered_by, acknowledged_by, acknowledged_at, created_at
		FROM alerts
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (r *AlertRepo) CountUnacknowledged(ctx context.Context, department string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts WHERE department = $1 AND acknowledged_by IS NULL
	`, department).Scan(&n)
	return n, err
}

func scanAlerts(rows interface {
	Next() bool
	Scan(dest ...any) error
}) ([]models.Alert, error) {
	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Department, &a.Severity, &a.Message, &a.TriggeredBy, &a.AcknowledgedBy, &a.AcknowledgedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}
