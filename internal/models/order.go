package models

import "time"

// Order is written once per successful checkout and never mutated.
type Order struct {
	ID          int64     `json:"id"`
	UserID      *string   `json:"user_id"`
	TotalAmount int64     `json:"total_amount"`
	BankAccount string    `json:"bank_account"`
	CreatedAt   time.Time `json:"created_at"`
}

// StockDeduction is one product's share of a checkout.
type StockDeduction struct {
	ProductID int64
	Quantity  int
}
