package cart

import (
	"context"

	"github.com/google/uuid"
)

// Snapshot is the oracle's current view of one book: display metadata plus
// live price and stock. Authoritative at call time only.
type Snapshot struct {
	Title  string
	Author string
	Price  Money
	Stock  int32
}

// Oracle answers existence and metadata lookups against the catalog and
// inventory services.
type Oracle interface {
	BookExists(ctx context.Context, bookID string) (bool, error)
	// BookSnapshot returns nil when the book is unknown to the inventory.
	BookSnapshot(ctx context.Context, bookID string) (*Snapshot, error)
}

// Store owns the persisted cart record and is the serialization point for
// all writes to a given owner's cart. Get returns ErrCartNotFound for an
// owner that never had a cart; GetOrCreate is the mutation-path entry.
// Save replaces the whole cart (items and total) in one transaction.
type Store interface {
	Get(ctx context.Context, owner uuid.UUID) (*Cart, error)
	GetOrCreate(ctx context.Context, owner uuid.UUID) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}

// Publisher fans cart events out to the message fabric. Implementations
// tolerate a nil receiver; publish failures never fail a mutation.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}
