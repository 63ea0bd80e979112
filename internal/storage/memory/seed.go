package memory

import (
	"context"
	"time"

	"github.com/hongminglow/storefront/internal/models"
)

var demoProducts = []models.Product{
	{Name: "Evolene Whey Protein 1kg", Description: "Chocolate whey isolate blend", Price: 450000, Stock: 25, ImageURL: "https://example.com/img/whey.png"},
	{Name: "Evolene Creatine 300g", Description: "Micronised creatine monohydrate", Price: 185000, Stock: 40, ImageURL: "https://example.com/img/creatine.png"},
	{Name: "Evolene BCAA 250g", Description: "Lemon flavoured 2:1:1", Price: 210000, Stock: 15, ImageURL: "https://example.com/img/bcaa.png"},
	{Name: "Shaker Bottle", Description: "600ml with mixing ball", Price: 55000, Stock: 60},
}

// Seed inserts the demo catalog. Each product gets a distinct created_at so listing order is stable.
func (s *Store) Seed(ctx context.Context) error {
	base := s.now().Add(-time.Duration(len(demoProducts)) * time.Minute)
	for i, p := range demoProducts {
		created, err := s.CreateProduct(ctx, p)
		if err != nil {
			return err
		}
		s.mu.Lock()
		created.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		s.products[created.ID] = created
		s.mu.Unlock()
	}
	return nil
}
