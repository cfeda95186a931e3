package domain

import (
	"math"
	"time"
)

// MaxBasePrice keeps a base price inflated by the highest markup within int64.
const MaxBasePrice int64 = math.MaxInt64 / (100 + MaxMarkupPercent)

// Product is a catalog entry indexed from an external platform. Prices are
// minor currency units; ListedPrice is BasePrice inflated by the markup in
// force when it was last written.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ProductURL  string    `json:"productUrl,omitempty"`
	Category    string    `json:"category,omitempty"`
	Platform    Platform  `json:"platform"`
	BasePrice   int64     `json:"basePrice"`
	ListedPrice int64     `json:"listedPrice"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PriceFunc derives a listed price from a base price and a markup percentage.
type PriceFunc func(basePrice, markupPercent int64) int64
