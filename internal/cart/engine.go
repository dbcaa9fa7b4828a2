package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ahinestrog/bookcart/internal/events"
)

// Engine applies single-item mutations and is the only gate between raw
// user intent and the stored cart. It performs no locking of its own: at
// most one in-flight mutation per owner is assumed, serialized by the
// store's transaction.
//
// Every mutation follows the same shape: load the cart, finish all oracle
// I/O, then apply the item edit, recompute the total and save as one final
// unit. A caller abandoning the operation mid-flight therefore never leaves
// a partially mutated cart behind.
type Engine struct {
	store  Store
	oracle Oracle
	events Publisher
	log    zerolog.Logger
}

func NewEngine(store Store, oracle Oracle, pub Publisher, log zerolog.Logger) *Engine {
	return &Engine{store: store, oracle: oracle, events: pub, log: log}
}

// GetCart is the public read path: no lazy creation, an owner without a
// cart gets ErrCartNotFound.
func (e *Engine) GetCart(ctx context.Context, owner uuid.UUID) (*Cart, error) {
	return e.store.Get(ctx, owner)
}

// AddItem puts one more unit of bookID into the owner's cart, creating the
// cart and the line as needed. The post-increment quantity must not exceed
// the stock the oracle reports right now.
func (e *Engine) AddItem(ctx context.Context, owner uuid.UUID, bookID string) (*Cart, error) {
	c, err := e.store.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	snap, err := e.lookup(ctx, bookID)
	if err != nil {
		return nil, err
	}

	var have int32
	if it := c.Item(bookID); it != nil {
		have = it.Qty
	}
	if have+1 > snap.Stock {
		return nil, ErrInsufficientStock{BookID: bookID, Have: have, Avail: snap.Stock}
	}

	if it := c.Item(bookID); it != nil {
		it.Qty++
		it.UnitPrice = snap.Price
		it.Subtotal = snap.Price.Mul(it.Qty)
	} else {
		c.Items = append(c.Items, LineItem{
			BookID:    bookID,
			Title:     snap.Title,
			Author:    snap.Author,
			Qty:       1,
			UnitPrice: snap.Price,
			Subtotal:  snap.Price,
		})
	}
	c.Recalc()
	if err := e.store.Save(ctx, c); err != nil {
		return nil, err
	}
	e.publishItem(ctx, events.RKItemAdded, c, bookID)
	return c, nil
}

// ReduceItem takes one unit of bookID out of the cart, dropping the line
// when it reaches zero. A book id absent from the cart is a no-op, but the
// total is still recomputed and the cart saved.
func (e *Engine) ReduceItem(ctx context.Context, owner uuid.UUID, bookID string) (*Cart, error) {
	c, err := e.store.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	snap, err := e.lookup(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if it := c.Item(bookID); it != nil {
		if it.Qty <= 1 {
			c.RemoveItem(bookID)
		} else {
			it.Qty--
			it.UnitPrice = snap.Price
			it.Subtotal = snap.Price.Mul(it.Qty)
		}
	}
	c.Recalc()
	if err := e.store.Save(ctx, c); err != nil {
		return nil, err
	}
	e.publishItem(ctx, events.RKItemRemoved, c, bookID)
	return c, nil
}

// DeleteItem removes the whole line for bookID. Idempotent: an absent line
// is not an error, and no oracle call is made.
func (e *Engine) DeleteItem(ctx context.Context, owner uuid.UUID, bookID string) (*Cart, error) {
	c, err := e.store.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(bookID)
	c.Recalc()
	if err := e.store.Save(ctx, c); err != nil {
		return nil, err
	}
	e.publishItem(ctx, events.RKItemRemoved, c, bookID)
	return c, nil
}

// lookup runs the two oracle preconditions shared by Add and Reduce:
// existence first, then a usable snapshot. Any transport failure is folded
// into ErrDataUnavailable so callers see the engine's taxonomy.
func (e *Engine) lookup(ctx context.Context, bookID string) (*Snapshot, error) {
	ok, err := e.oracle.BookExists(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: existence probe for %s: %v", ErrDataUnavailable, bookID, err)
	}
	if !ok {
		return nil, ErrBookNotFound
	}
	snap, err := e.oracle.BookSnapshot(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot for %s: %v", ErrDataUnavailable, bookID, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: inventory has no record of %s", ErrDataUnavailable, bookID)
	}
	return snap, nil
}

func (e *Engine) publishItem(ctx context.Context, key string, c *Cart, bookID string) {
	if e.events == nil {
		return
	}
	var qty int32
	if it := c.Item(bookID); it != nil {
		qty = it.Qty
	}
	evt := events.ItemEvent{
		OwnerID:    c.Owner.String(),
		BookID:     bookID,
		Qty:        qty,
		TotalCents: c.Total.Cents,
	}
	if err := e.events.Publish(ctx, key, evt); err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("event publish failed")
	}
}
