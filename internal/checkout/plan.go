package checkout

import (
	"math"
	"strconv"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/storage"
)

// Line is one cart entry as submitted by a client. Only ProductID and Quantity are trusted.
type Line struct {
	ProductID   int64
	Name        string
	ClientPrice *int64
	Quantity    int
}

func (l Line) label() string {
	if l.Name != "" {
		return l.Name
	}
	return "#" + strconv.FormatInt(l.ProductID, 10)
}

// normalize rejects malformed carts and merges repeated product ids, keeping first-seen order.
func normalize(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("cart is empty")
	}
	index := make(map[int64]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 {
			return nil, apperr.Validation("cart contains an invalid product id")
		}
		if l.Quantity <= 0 {
			return nil, apperr.Validation("quantity for %s must be greater than zero", l.label())
		}
		if i, ok := index[l.ProductID]; ok {
			if out[i].Quantity > math.MaxInt-l.Quantity {
				return nil, apperr.Validation("quantity for %s is too large", l.label())
			}
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// plan checks existence for every line, then stock for every line, and only then prices the cart.
func plan(lines []Line, live map[int64]models.Product, userID *string, bankRef string) (storage.CheckoutPlan, error) {
	for _, l := range lines {
		if _, ok := live[l.ProductID]; !ok {
			return storage.CheckoutPlan{}, apperr.NotFound("product %s not found", l.label())
		}
	}
	for _, l := range lines {
		p := live[l.ProductID]
		if l.Quantity > p.Stock {
			return storage.CheckoutPlan{}, apperr.Validation("insufficient stock for %s (remaining %d)", p.Name, p.Stock)
		}
	}

	var total int64
	deductions := make([]models.StockDeduction, 0, len(lines))
	for _, l := range lines {
		p := live[l.ProductID]
		subtotal, ok := mulAdd(total, p.Price, int64(l.Quantity))
		if !ok {
			return storage.CheckoutPlan{}, apperr.Validation("cart total is too large")
		}
		total = subtotal
		deductions = append(deductions, models.StockDeduction{ProductID: p.ID, Quantity: l.Quantity})
	}

	return storage.CheckoutPlan{
		Deductions: deductions,
		Order: models.Order{
			UserID:      userID,
			TotalAmount: total,
			BankAccount: bankRef,
		},
	}, nil
}

// mulAdd returns acc + price*qty for non-negative operands, reporting false on overflow.
func mulAdd(acc, price, qty int64) (int64, bool) {
	if price < 0 || qty < 0 || acc < 0 {
		return 0, false
	}
	if qty != 0 && price > math.MaxInt64/qty {
		return 0, false
	}
	line := price * qty
	if acc > math.MaxInt64-line {
		return 0, false
	}
	return acc + line, true
}

func productIDs(lines []Line) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
