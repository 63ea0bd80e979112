package models

import "time"

// Product is a catalog row. Price is in the smallest currency unit.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductInput holds the writable product fields. Price and Stock are pointers so a
// missing field can be told apart from zero.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       *int64 `json:"price"`
	Stock       *int   `json:"stock"`
	ImageURL    string `json:"image_url"`
}
