package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/storage"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, description, price, stock, image_url, created_at`

// ListProducts returns every product, newest first.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct fetches one product by id.
func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// CreateProduct inserts a product; id and created_at are assigned by the database.
func (s *Store) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	const query = `
		INSERT INTO products (name, description, price, stock, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns
	row := s.pool.QueryRow(ctx, query, p.Name, p.Description, p.Price, p.Stock, p.ImageURL)
	return scanProduct(row)
}

// UpdateProduct overwrites every writable column. Last writer wins.
func (s *Store) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	const query = `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, image_url = $6
		WHERE id = $1
		RETURNING ` + productColumns
	row := s.pool.QueryRow(ctx, query, p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL)
	return scanProduct(row)
}

// DeleteProduct removes a product by id.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Checkout locks the requested rows, lets plan decide, then applies every deduction and
// inserts the order in one transaction.
func (s *Store) Checkout(ctx context.Context, productIDs []int64, plan storage.PlanFunc) (models.Order, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, productIDs)
	if err != nil {
		return models.Order{}, fmt.Errorf("lock products: %w", err)
	}
	live := make(map[int64]models.Product, len(productIDs))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return models.Order{}, fmt.Errorf("lock products: %w", err)
		}
		live[p.ID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.Order{}, fmt.Errorf("lock products: %w", err)
	}

	decided, err := plan(live)
	if err != nil {
		return models.Order{}, err
	}

	for _, d := range decided.Deductions {
		tag, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1 AND $2 > 0 AND stock >= $2`, d.ProductID, d.Quantity)
		if err != nil {
			return models.Order{}, fmt.Errorf("update stock for product %d: %w", d.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return models.Order{}, fmt.Errorf("product %d: %w", d.ProductID, storage.ErrInsufficientStock)
		}
	}

	order := decided.Order
	const insertOrder = `
		INSERT INTO orders (user_id, total_amount, bank_account)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertOrder, order.UserID, order.TotalAmount, order.BankAccount).Scan(&order.ID, &order.CreatedAt); err != nil {
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("commit checkout: %w", err)
	}
	return order, nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, storage.ErrNotFound
		}
		return models.Product{}, err
	}
	return p, nil
}
