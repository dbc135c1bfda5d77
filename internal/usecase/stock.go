package usecase

import (
	"context"

	"github.com/harshita194/sweet-shop/internal/domain"
)

// Purchase takes quantity units off a sweet's stock. The decrement is a
// single conditional update in the store, so a concurrent purchase that
// would oversell fails here rather than going negative.
func (s *Service) Purchase(ctx context.Context, sweetID string, quantity int) (*domain.Sweet, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	sweet, err := s.repo.GetSweetByID(ctx, sweetID)
	if err != nil {
		return nil, err
	}
	if sweet == nil {
		return nil, ErrSweetNotFound
	}

	updated, err := s.repo.DecrementSweetQuantity(ctx, sweetID, quantity)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &InsufficientStockError{Available: sweet.Quantity}
	}

	if err := s.repo.AddInventoryDelta(ctx, sweetID, -quantity); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Restock(ctx context.Context, sweetID string, quantity *int) (*domain.Sweet, error) {
	if quantity == nil || *quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	updated, err := s.repo.IncrementSweetQuantity(ctx, sweetID, *quantity)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrSweetNotFound
	}

	if err := s.repo.AddInventoryDelta(ctx, sweetID, *quantity); err != nil {
		return nil, err
	}
	return updated, nil
}
