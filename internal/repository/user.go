package repository

import (
	"context"
	"fmt"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

const userColumns = `id, username, email, hash, role, is_active, created_at, updated_at`

// UserRepository handles user data access
type UserRepository struct {
	db database.Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ts := now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		user.Username, user.Email, user.Hash, string(user.Role), user.IsActive, ts, ts,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return asNotFound(scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return asNotFound(scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)))
}

// List returns users ordered by ID
func (r *UserRepository) List(ctx context.Context, opts ListOptions) ([]*model.User, error) {
	opts = opts.normalize()
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

// Update applies a partial update
func (r *UserRepository) Update(ctx context.Context, id int64, upd model.UserUpdate) error {
	var set updateSet
	if upd.Username != nil {
		set.set("username", *upd.Username)
	}
	if upd.Email != nil {
		set.set("email", *upd.Email)
	}
	if upd.Role != nil {
		set.set("role", string(*upd.Role))
	}
	if upd.IsActive != nil {
		set.set("is_active", *upd.IsActive)
	}

	query, args := set.build("users", id, now())
	return requireAffected(r.db.Exec(ctx, query, args...))
}

// UpdatePassword updates a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return requireAffected(r.db.Exec(ctx, `UPDATE users SET hash = ?, updated_at = ? WHERE id = ?`, hash, now(), id))
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM users WHERE id = ?`, id))
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.Hash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = model.UserRole(role)
	return &u, nil
}
