package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/volunteer-portal/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, role, department)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Email, u.DisplayName, u.Role, u.Department).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, role, department, created_at, last_active_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.Department, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, role, department, created_at, last_active_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.Department, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

// ListAll, ListByRole and ListByDepartment back the audience resolver.
// Membership is always read live so role changes take effect on the next
// fan-out.

func (r *UserRepo) ListAll(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `
		SELECT id, email, display_name, role, department, created_at, last_active_at
		FROM users ORDER BY created_at
	`)
}

func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	return r.list(ctx, `
		SELECT id, email, display_name, role, department, created_at, last_active_at
		FROM users WHERE role = $1 ORDER BY created_at
	`, role)
}

func (r *UserRepo) ListByDepartment(ctx context.Context, department string) ([]models.User, error) {
	return r.list(ctx, `
		SELECT id, email, display_name, role, department, created_at, last_active_at
		FROM users WHERE department = $1 ORDER BY created_at
	`, department)
}

func (r *UserRepo) ListDepartments(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT department FROM users ORDER BY department`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, nil
}

func (r *UserRepo) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.Department, &u.CreatedAt, &u.LastActiveAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
