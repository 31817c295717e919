package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/volunteer-portal/backend/internal/models"
)

type ReminderRepo struct {
	pool *pgxpool.Pool
}

func NewReminderRepo(pool *pgxpool.Pool) *ReminderRepo {
	return &ReminderRepo{pool: pool}
}

// InsertIfAbsent inserts the reminder unless the
// (entity_type, entity_id, reminder_type, scheduled_for) tuple already
// exists. Reports whether a row was inserted, which makes scheduling
// idempotent.
func (r *ReminderRepo) InsertIfAbsent(ctx context.Context, rem *models.Reminder) (bool, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reminders (entity_type, entity_id, reminder_type, scheduled_for)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_type, entity_id, reminder_type, scheduled_for) DO NOTHING
		RETURNING id, created_at
	`, rem.EntityType, rem.EntityID, rem.ReminderType, rem.ScheduledFor).Scan(&rem.ID, &rem.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ReminderRepo) ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, reminder_type, scheduled_for, sent, sent_at, created_at
		FROM reminders
		WHERE sent = false AND scheduled_for <= $1
		ORDER BY scheduled_for
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (r *ReminderRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, reminder_type, scheduled_for, sent, sent_at, created_at
		FROM reminders
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY scheduled_for
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// Claim flips sent from false to true for exactly one dispatcher. A false
// return means another dispatch pass already owns (or sent) the reminder.
func (r *ReminderRepo) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reminders SET sent = true, sent_at = $1 WHERE id = $2 AND sent = false
	`, now, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release undoes a claim after a failed delivery so the next pass retries.
func (r *ReminderRepo) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reminders SET sent = false, sent_at = NULL WHERE id = $1
	`, id)
	return err
}

func scanReminders(rows interface {
	Next() bool
	Scan(dest ...any) error
}) ([]models.Reminder, error) {
	var reminders []models.Reminder
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(&rem.ID, &rem.EntityType, &rem.EntityID, &rem.ReminderType, &rem.ScheduledFor, &rem.Sent, &rem.SentAt, &rem.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, nil
}
