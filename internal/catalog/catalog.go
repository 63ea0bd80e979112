// Package catalog validates product writes and passes them through to the product store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/storage"
)

// Service owns product reads and admin writes.
type Service struct {
	store storage.ProductStore
}

// NewService wraps a product store.
func NewService(store storage.ProductStore) *Service {
	return &Service{store: store}
}

// Validate checks a product write before it reaches the store.
func Validate(in models.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" || in.Price == nil || in.Stock == nil {
		return apperr.Validation("name, price, and stock are required")
	}
	if *in.Price < 0 || *in.Stock < 0 {
		return apperr.Validation("price and stock must not be negative")
	}
	if *in.Stock > math.MaxInt32 {
		return apperr.Validation("stock must not exceed %d", math.MaxInt32)
	}
	if raw := strings.TrimSpace(in.ImageURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return apperr.Validation("image_url must be an absolute URL")
		}
	}
	return nil
}

// List returns the catalog, newest first.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", apperr.Store(err))
	}
	return products, nil
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id int64) (models.Product, error) {
	if id <= 0 {
		return models.Product{}, apperr.Validation("invalid product id")
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, mapStoreError(err, id)
	}
	return p, nil
}

// Create validates and inserts a product.
func (s *Service) Create(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if err := Validate(in); err != nil {
		return models.Product{}, err
	}
	created, err := s.store.CreateProduct(ctx, fromInput(0, in))
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: create: %w", apperr.Store(err))
	}
	return created, nil
}

// Update validates and overwrites a product.
func (s *Service) Update(ctx context.Context, id int64, in models.ProductInput) (models.Product, error) {
	if id <= 0 {
		return models.Product{}, apperr.Validation("invalid product id")
	}
	if err := Validate(in); err != nil {
		return models.Product{}, err
	}
	updated, err := s.store.UpdateProduct(ctx, fromInput(id, in))
	if err != nil {
		return models.Product{}, mapStoreError(err, id)
	}
	return updated, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("invalid product id")
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return mapStoreError(err, id)
	}
	return nil
}

func fromInput(id int64, in models.ProductInput) models.Product {
	return models.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		Stock:       *in.Stock,
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}
}

func mapStoreError(err error, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("product %d not found", id)
	}
	return fmt.Errorf("catalog: product %d: %w", id, apperr.Store(err))
}
