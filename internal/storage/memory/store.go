// Package memory is an in-process storage.Store for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every table in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	products      map[int64]models.Product
	orders        []models.Order
	users         map[string]models.User
	usersByEmail  map[string]string
	profiles      map[string]models.Profile
	revoked       map[string]time.Time
	nextProductID int64
	nextOrderID   int64

	now func() time.Time
}

// New returns an empty store; ids start at 1.
func New() *Store {
	return &Store{
		products:      make(map[int64]models.Product),
		users:         make(map[string]models.User),
		usersByEmail:  make(map[string]string),
		profiles:      make(map[string]models.Profile),
		revoked:       make(map[string]time.Time),
		nextProductID: 1,
		nextOrderID:   1,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op.
func (s *Store) Close() {}

// ListProducts returns every product, newest first.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetProduct fetches one product by id.
func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, storage.ErrNotFound
	}
	return p, nil
}

// CreateProduct assigns the next id and created_at, then stores p.
func (s *Store) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextProductID
	s.nextProductID++
	p.CreatedAt = s.now()
	s.products[p.ID] = p
	return p, nil
}

// UpdateProduct overwrites the writable fields, keeping created_at.
func (s *Store) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return models.Product{}, storage.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	s.products[p.ID] = p
	return p, nil
}

// DeleteProduct removes a product by id.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// Checkout holds the write lock for the whole plan/apply cycle, so concurrent checkouts
// observe each other's deductions.
func (s *Store) Checkout(ctx context.Context, productIDs []int64, plan storage.PlanFunc) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}

	live := make(map[int64]models.Product, len(productIDs))
	for _, id := range productIDs {
		if p, ok := s.products[id]; ok {
			live[id] = p
		}
	}

	decided, err := plan(live)
	if err != nil {
		return models.Order{}, err
	}

	// Verify every deduction before touching any row.
	for _, d := range decided.Deductions {
		p, ok := s.products[d.ProductID]
		if !ok {
			return models.Order{}, fmt.Errorf("product %d: %w", d.ProductID, storage.ErrNotFound)
		}
		if d.Quantity <= 0 || p.Stock < d.Quantity {
			return models.Order{}, fmt.Errorf("product %d: %w", d.ProductID, storage.ErrInsufficientStock)
		}
	}
	for _, d := range decided.Deductions {
		p := s.products[d.ProductID]
		p.Stock -= d.Quantity
		s.products[d.ProductID] = p
	}

	order := decided.Order
	order.ID = s.nextOrderID
	s.nextOrderID++
	order.CreatedAt = s.now()
	s.orders = append(s.orders, order)
	return order, nil
}

// Orders returns a copy of the order log.
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.orders...)
}

// CreateUser inserts an account; emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	if _, exists := s.users[user.ID]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.CreatedAt = s.now()
	s.users[user.ID] = user
	s.usersByEmail[key] = user.ID
	return user, nil
}

// FindUserByEmail fetches an account by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

// FindUserByID fetches an account by id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// CreateProfile provisions the role row for an existing user.
func (s *Store) CreateProfile(ctx context.Context, profile models.Profile) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[profile.UserID]; !ok {
		return fmt.Errorf("profile for unknown user %s: %w", profile.UserID, storage.ErrNotFound)
	}
	if _, exists := s.profiles[profile.UserID]; exists {
		return storage.ErrAlreadyExists
	}
	s.profiles[profile.UserID] = profile
	return nil
}

// FindProfile reads the role row for a user.
func (s *Store) FindProfile(ctx context.Context, userID string) (models.Profile, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, storage.ErrNotFound
	}
	return profile, nil
}

// RevokeToken records a signed-out token id and prunes expired entries.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = expiresAt
	return nil
}

// IsTokenRevoked reports whether a token id was signed out and has not yet expired.
func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.revoked[tokenID]
	return ok && exp.After(s.now()), nil
}
