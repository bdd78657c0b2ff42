package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/meditabi/meditabi_api/internal/models"
)

// AdminUserRepository provides data access methods for the admin_users table.
type AdminUserRepository struct {
	db *sqlx.DB
}

// NewAdminUserRepository creates a new AdminUserRepository.
func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByEmail finds an admin user by email. Returns (nil, nil) when no such
// user exists.
func (r *AdminUserRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := r.db.GetContext(ctx, &u,
		`SELECT id, email, password_hash, name, is_active, created_at, updated_at
         FROM admin_users WHERE email = $1 LIMIT 1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new admin user.
func (r *AdminUserRepository) Create(ctx context.Context, u *models.AdminUser) error {
	return r.db.QueryRowxContext(ctx,
		`INSERT INTO admin_users (email, password_hash, name, is_active)
         VALUES ($1, $2, $3, $4)
         RETURNING id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.Name, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}
