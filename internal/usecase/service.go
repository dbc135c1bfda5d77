package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/harshita194/sweet-shop/internal/domain"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSweetNotFound      = errors.New("sweet not found")
	ErrNegativeValues     = errors.New("price and quantity must be non-negative")
	ErrInvalidQuantity    = errors.New("valid quantity is required")
)

// InsufficientStockError reports a purchase that exceeds the stock on hand.
// Available carries the quantity observed before the purchase attempt.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient quantity in stock, available: %d", e.Available)
}

type Repository interface {
	CreateUser(ctx context.Context, name, email, passwordHash string, role domain.Role) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	CreateSweet(ctx context.Context, name, category string, price float64, quantity int, image string) (*domain.Sweet, error)
	ListSweets(ctx context.Context) ([]domain.Sweet, error)
	SearchSweets(ctx context.Context, f domain.SweetFilter) ([]domain.Sweet, error)
	GetSweetByID(ctx context.Context, id string) (*domain.Sweet, error)
	UpdateSweet(ctx context.Context, s *domain.Sweet) error
	DecrementSweetQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error)
	IncrementSweetQuantity(ctx context.Context, id string, n int) (*domain.Sweet, error)
	DeleteSweetTx(ctx context.Context, id string) (bool, error)

	ListInventory(ctx context.Context) ([]domain.InventoryRecord, error)
	SetInventory(ctx context.Context, sweetID string, quantity int) (*domain.InventoryRecord, error)
	AddInventoryDelta(ctx context.Context, sweetID string, delta int) error
}

type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, name, email, string(hashed), domain.RoleUser)
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ResolveUser re-fetches a user by id so callers always see the current
// role, not whatever a token was issued with. Returns (nil, nil) when the
// user no longer exists.
func (s *Service) ResolveUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}
