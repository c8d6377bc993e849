package models

// Product is a single listing in a seller's shop.
type Product struct {
	ID            string   `json:"id"`
	SellerID      string   `json:"sellerId"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Price         float64  `json:"price"`
	DiscountPrice float64  `json:"discountPrice,omitempty"`
	Stock         int      `json:"stock"`
	Images        []string `json:"images,omitempty"`
	Status        string   `json:"status,omitempty"`
}

// EffectivePrice is the discount price when it undercuts the list price.
func (p Product) EffectivePrice() float64 {
	return effectivePrice(p.Price, p.DiscountPrice)
}

// Snapshot captures what a cart line needs to render without a product fetch.
func (p Product) Snapshot() Snapshot {
	s := Snapshot{Name: p.Name, Price: p.EffectivePrice(), SellerID: p.SellerID}
	if len(p.Images) > 0 {
		s.Image = p.Images[0]
	}
	return s
}

// MysteryBoxItem is one product inside a bundled offer.
type MysteryBoxItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// MysteryBox is a seller-curated bundle sold as a single cart line.
type MysteryBox struct {
	ID            string           `json:"id"`
	SellerID      string           `json:"sellerId"`
	Name          string           `json:"name"`
	Items         []MysteryBoxItem `json:"items"`
	TotalValue    float64          `json:"totalValue"`
	Price         float64          `json:"price"`
	DiscountPrice float64          `json:"discountPrice,omitempty"`
	Stock         int              `json:"stock"`
	Sales         int              `json:"sales"`
	Status        string           `json:"status,omitempty"`
}

func (b MysteryBox) EffectivePrice() float64 {
	return effectivePrice(b.Price, b.DiscountPrice)
}

// Savings is how much less the box costs than its contents.
func (b MysteryBox) Savings() float64 {
	if s := b.TotalValue - b.EffectivePrice(); s > 0 {
		return s
	}
	return 0
}

func (b MysteryBox) Snapshot() Snapshot {
	return Snapshot{
		Name:         b.Name,
		Price:        b.EffectivePrice(),
		SellerID:     b.SellerID,
		MysteryBoxID: b.ID,
	}
}

func effectivePrice(price, discount float64) float64 {
	if discount > 0 && discount < price {
		return discount
	}
	return price
}
