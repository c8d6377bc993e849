package models

import "time"

// Snapshot is the denormalized product info stored with a cart line.
type Snapshot struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Image        string  `json:"image,omitempty"`
	SellerID     string  `json:"sellerId,omitempty"`
	SellerName   string  `json:"sellerName,omitempty"`
	MysteryBoxID string  `json:"mysteryBoxId,omitempty"` // set only on bundled offer lines
}

// CartItem represents a single line in the customer's cart.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"` // product id, or the mystery box sentinel
	Quantity  int       `json:"quantity"`
	Snapshot  Snapshot  `json:"snapshot"`
	AddedAt   time.Time `json:"addedAt"`
}

// LineTotal is the snapshot price times quantity.
func (c CartItem) LineTotal() float64 {
	return c.Snapshot.Price * float64(c.Quantity)
}

// CartAdd is the body of POST /cart.
type CartAdd struct {
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
	Snapshot  Snapshot `json:"snapshot"`
}

// QuantityUpdate is the body of PUT /cart/:itemId.
type QuantityUpdate struct {
	Quantity int `json:"quantity"`
}
