package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wheelio-backend/internal/domain"
)

type ListingRepo struct {
	db *sql.DB
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

var _ domain.ListingRepository = (*ListingRepo)(nil)

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	query := `
		INSERT INTO listings (owner_id, title, price, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query, l.OwnerID, l.Title, l.Price)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	l.ID = id
	return nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `SELECT id, owner_id, title, price, created_at FROM listings WHERE id = ?`
	l := &domain.Listing{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.Price,
		&l.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}
