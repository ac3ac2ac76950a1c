package postgres

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
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, l.OwnerID, l.Title, l.Price).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `SELECT id, owner_id, title, price, created_at FROM listings WHERE id = $1`
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
