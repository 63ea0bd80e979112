package dto

// CheckoutProduct mirrors the product snapshot a client holds in its cart.
// Only ID is trusted; Name and Price are informational.
type CheckoutProduct struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Price *int64 `json:"price,omitempty"`
	Stock *int   `json:"stock,omitempty"`
}

type CheckoutLine struct {
	Product  CheckoutProduct `json:"product"`
	Quantity int             `json:"quantity"`
}

type CheckoutRequest struct {
	Cart []CheckoutLine `json:"cart"`
}

type CheckoutResponse struct {
	Success     bool   `json:"success"`
	Total       int64  `json:"total"`
	BankAccount string `json:"bankAccount"`
	OrderID     int64  `json:"orderId"`
}
