package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrCartNotFound is returned by plain retrieval for an owner that never
	// had a cart. Mutation paths create the cart instead.
	ErrCartNotFound = errors.New("cart not found")

	// ErrBookNotFound means the catalog does not know the book id.
	ErrBookNotFound = errors.New("book not found")

	// ErrDataUnavailable means the oracle was unreachable or returned no
	// usable data for a book that is required to resolve.
	ErrDataUnavailable = errors.New("book data unavailable")
)

// ErrInsufficientStock reports an add that would push a line past the live
// stock ceiling. The cart is left untouched when it is returned.
type ErrInsufficientStock struct {
	BookID string
	Have   int32 // quantity already in the cart
	Avail  int32 // stock reported by the oracle
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("book %s: not enough stock (%d in cart, %d available)", e.BookID, e.Have, e.Avail)
}
