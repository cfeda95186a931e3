// Package cart is the buyer-held cart. Prices and totals it produces are
// advisory; the order ledger recomputes the total from the submitted lines.
package cart

import "shopbridge/internal/domain"

// Line is one product in the cart with the listed price seen when it was
// last added.
type Line struct {
	ProductID   int64  `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int64  `json:"quantity"`
}

func (l Line) Subtotal() int64 { return l.UnitPrice * l.Quantity }

// Cart keeps lines in insertion order. The zero value is an empty cart.
type Cart struct {
	lines []Line
}

func New() *Cart { return &Cart{} }

func (c *Cart) find(productID int64) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts qty units of p in the cart. Adding a product already present
// increases its quantity and refreshes its price. qty below one counts as one.
func (c *Cart) Add(p domain.Product, qty int64) {
	if qty < 1 {
		qty = 1
	}
	if i := c.find(p.ID); i >= 0 {
		c.lines[i].Quantity += qty
		c.lines[i].UnitPrice = p.ListedPrice
		c.lines[i].Name = p.Name
		c.lines[i].Description = p.Description
		return
	}
	c.lines = append(c.lines, Line{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.ListedPrice,
		Quantity:    qty,
	})
}

func (c *Cart) Remove(productID int64) {
	if i := c.find(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SetQuantity replaces the quantity of a line; zero or less removes it.
func (c *Cart) SetQuantity(productID, qty int64) {
	i := c.find(productID)
	if i < 0 {
		return
	}
	if qty < 1 {
		c.Remove(productID)
		return
	}
	c.lines[i].Quantity = qty
}

func (c *Cart) Increment(productID int64) {
	if i := c.find(productID); i >= 0 {
		c.lines[i].Quantity++
	}
}

// Decrement lowers the quantity by one, removing the line at zero.
func (c *Cart) Decrement(productID int64) {
	if i := c.find(productID); i >= 0 {
		c.SetQuantity(productID, c.lines[i].Quantity-1)
	}
}

func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int64 {
	var n int64
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// ShoppingItems converts the cart into checkout line items.
func (c *Cart) ShoppingItems(currency string) []domain.ShoppingItem {
	items := make([]domain.ShoppingItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, domain.ShoppingItem{
			ProductName:        l.Name,
			ProductDescription: l.Description,
			Quantity:           l.Quantity,
			PriceInCents:       l.UnitPrice,
			Currency:           currency,
		})
	}
	return items
}

// OrderedProducts snapshots the cart as order lines priced at purchase.
func (c *Cart) OrderedProducts() []domain.OrderedProduct {
	out := make([]domain.OrderedProduct, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, domain.OrderedProduct{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			PriceAtPurchase: l.UnitPrice,
		})
	}
	return out
}
