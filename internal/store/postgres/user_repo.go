package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"wheelio-backend/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (username, display_name, email, hashed_password, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.DisplayName, u.Email, u.HashedPassword,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanUser(ctx,
		`SELECT id, username, display_name, email, hashed_password, is_active, created_at
		 FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx,
		`SELECT id, username, display_name, email, hashed_password, is_active, created_at
		 FROM users WHERE username = $1`, username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx,
		`SELECT id, username, display_name, email, hashed_password, is_active, created_at
		 FROM users WHERE email = $1`, email)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.Email,
		&u.HashedPassword,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
