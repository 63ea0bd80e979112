package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/storefront/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInsufficientStock is returned when a conditional stock decrement finds fewer units than
// requested, or is asked to remove a non-positive quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// ProductStore is CRUD access to the products table.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, p models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// CheckoutPlan is what the planning function decides from a locked snapshot.
type CheckoutPlan struct {
	Deductions []models.StockDeduction
	Order      models.Order
}

// PlanFunc receives the live rows for the requested ids (missing ids are absent from the map).
// Returning an error aborts the checkout without any mutation.
type PlanFunc func(products map[int64]models.Product) (CheckoutPlan, error)

// CheckoutStore applies a checkout atomically: either every deduction and the order are
// committed, or nothing is.
type CheckoutStore interface {
	Checkout(ctx context.Context, productIDs []int64, plan PlanFunc) (models.Order, error)
}

// UserStore captures persistence operations for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
}

// ProfileStore is the role side table keyed by user id.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile models.Profile) error
	FindProfile(ctx context.Context, userID string) (models.Profile, error)
}

// RevocationStore remembers signed-out token ids until they expire.
type RevocationStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Store is everything the server needs from a backend.
type Store interface {
	ProductStore
	CheckoutStore
	UserStore
	ProfileStore
	RevocationStore
	Close()
}
