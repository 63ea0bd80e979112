// Package cart is the client-held shopping cart. A Cart is not safe for concurrent use.
package cart

import (
	"errors"

	"github.com/hongminglow/storefront/internal/checkout"
	"github.com/hongminglow/storefront/internal/models"
)

// ErrExceedsStock is returned when adding one more unit would pass the last-known stock.
var ErrExceedsStock = errors.New("quantity exceeds available stock")

// Line pairs a product snapshot with a quantity.
type Line struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Cart keeps lines in insertion order.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) find(productID int64) int {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add puts one unit of product in the cart, bounded by the snapshot's stock.
func (c *Cart) Add(product models.Product) error {
	i := c.find(product.ID)
	if i < 0 {
		if product.Stock < 1 {
			return ErrExceedsStock
		}
		c.lines = append(c.lines, Line{Product: product, Quantity: 1})
		return nil
	}
	if c.lines[i].Quantity+1 > product.Stock {
		return ErrExceedsStock
	}
	c.lines[i].Product = product
	c.lines[i].Quantity++
	return nil
}

// SetQuantity overwrites a line's quantity without a stock check; qty <= 0 removes the line.
// It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID int64, qty int) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return true
	}
	c.lines[i].Quantity = qty
	return true
}

// Remove drops a product from the cart, reporting whether it was there.
func (c *Cart) Remove(productID int64) bool {
	return c.SetQuantity(productID, 0)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Len is the number of distinct products in the cart.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// Total folds snapshot price times quantity. The server re-prices at checkout.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Product.Price * int64(l.Quantity)
	}
	return total
}

// CheckoutLines converts the cart into checkout input.
func (c *Cart) CheckoutLines() []checkout.Line {
	out := make([]checkout.Line, 0, len(c.lines))
	for _, l := range c.lines {
		price := l.Product.Price
		out = append(out, checkout.Line{
			ProductID:   l.Product.ID,
			Name:        l.Product.Name,
			ClientPrice: &price,
			Quantity:    l.Quantity,
		})
	}
	return out
}
