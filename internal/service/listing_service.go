package service

import (
	"context"
	"fmt"
	"strings"

	"wheelio-backend/internal/domain"
)

// ListingService covers the slice of the listing domain the messaging
// core depends on: creating rows to message about and resolving them.
type ListingService struct {
	listings domain.ListingRepository
}

func NewListingService(listings domain.ListingRepository) *ListingService {
	return &ListingService{listings: listings}
}

type ListingCreateInput struct {
	Title string
	Price int64
}

func (s *ListingService) Create(ctx context.Context, ownerID int64, in ListingCreateInput) (*domain.Listing, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: listing title is empty", domain.ErrInvalidInput)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: negative price", domain.ErrInvalidInput)
	}

	l := &domain.Listing{
		OwnerID: ownerID,
		Title:   title,
		Price:   in.Price,
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if l == nil {
		return nil, fmt.Errorf("%w: listing %d", domain.ErrNotFound, id)
	}
	return l, nil
}
