package usecase

import (
	"context"

	"github.com/harshita194/sweet-shop/internal/domain"
)

type CreateSweetInput struct {
	Name     string
	Category string
	Price    *float64
	Quantity *int
	Image    string
}

type UpdateSweetInput struct {
	Name     *string
	Category *string
	Price    *float64
	Quantity *int
	Image    *string
}

func (s *Service) ListSweets(ctx context.Context) ([]domain.Sweet, error) {
	return s.repo.ListSweets(ctx)
}

func (s *Service) SearchSweets(ctx context.Context, f domain.SweetFilter) ([]domain.Sweet, error) {
	return s.repo.SearchSweets(ctx, f)
}

func (s *Service) CreateSweet(ctx context.Context, in CreateSweetInput) (*domain.Sweet, error) {
	if in.Name == "" || in.Category == "" || in.Price == nil || in.Quantity == nil {
		return nil, ErrMissingFields
	}
	if *in.Price < 0 || *in.Quantity < 0 {
		return nil, ErrNegativeValues
	}
	return s.repo.CreateSweet(ctx, in.Name, in.Category, *in.Price, *in.Quantity, in.Image)
}

// UpdateSweet merges the provided fields into an existing sweet. When the
// update carries a quantity, the difference against the stored quantity is
// accumulated into the inventory ledger.
func (s *Service) UpdateSweet(ctx context.Context, id string, in UpdateSweetInput) (*domain.Sweet, error) {
	sweet, err := s.repo.GetSweetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sweet == nil {
		return nil, ErrSweetNotFound
	}

	quantityDelta := 0
	if in.Name != nil {
		sweet.Name = *in.Name
	}
	if in.Category != nil {
		sweet.Category = *in.Category
	}
	if in.Image != nil {
		sweet.Image = *in.Image
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, ErrNegativeValues
		}
		sweet.Price = *in.Price
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return nil, ErrNegativeValues
		}
		quantityDelta = *in.Quantity - sweet.Quantity
		sweet.Quantity = *in.Quantity
	}

	if err := s.repo.UpdateSweet(ctx, sweet); err != nil {
		return nil, err
	}
	if in.Quantity != nil {
		if err := s.repo.AddInventoryDelta(ctx, sweet.ID, quantityDelta); err != nil {
			return nil, err
		}
	}
	return sweet, nil
}

func (s *Service) DeleteSweet(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteSweetTx(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrSweetNotFound
	}
	return nil
}

func (s *Service) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	return s.repo.ListInventory(ctx)
}

// UpsertInventory sets a ledger entry to an absolute quantity. This is the
// admin override; catalog mutations go through the delta accumulation
// instead.
func (s *Service) UpsertInventory(ctx context.Context, sweetID string, quantity *int) (*domain.InventoryRecord, error) {
	if sweetID == "" || quantity == nil {
		return nil, ErrMissingFields
	}
	return s.repo.SetInventory(ctx, sweetID, *quantity)
}
