package domain

import "time"

// Product is a catalog entry. Stock is authoritative on the gateway and
// only ever observed here, never decremented locally.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
}
