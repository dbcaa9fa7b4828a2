// Package cart holds the per-owner cart aggregate and the mutation engine
// that keeps its line items and derived total consistent.
package cart

import "github.com/google/uuid"

// LineItem is one book line in a cart. Qty is always >= 1 while the line
// exists; a line decremented to zero is removed, never kept. UnitPrice is a
// snapshot taken from the oracle at the last mutation, not a live value.
type LineItem struct {
	BookID    string
	Title     string
	Author    string
	Qty       int32
	UnitPrice Money
	Subtotal  Money
}

// Cart is the per-owner aggregate. Items keeps insertion order for display
// and book ids are unique within it. Total is derived from Items and is
// never written independently of them.
type Cart struct {
	Owner uuid.UUID
	Items []LineItem
	Total Money
}

func NewCart(owner uuid.UUID) *Cart { return &Cart{Owner: owner} }

// TotalOf recomputes the aggregate total from scratch. It fully replaces
// the previous value on every call so partial updates cannot drift.
func TotalOf(items []LineItem) Money {
	var total Money
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(it.Qty))
	}
	return total
}

// Item returns a pointer into Items for bookID, or nil when absent.
func (c *Cart) Item(bookID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem drops bookID's line if present. Absent ids are a no-op.
func (c *Cart) RemoveItem(bookID string) {
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Recalc re-derives Total from Items. Every path that touches Items calls
// this before the cart is observed or saved.
func (c *Cart) Recalc() { c.Total = TotalOf(c.Items) }
