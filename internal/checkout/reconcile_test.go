package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ahinestrog/bookcart/internal/cart"
)

type fakeOracle struct {
	books     map[string]cart.Snapshot
	existsErr error
}

func (f *fakeOracle) BookExists(_ context.Context, id string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.books[id]
	return ok, nil
}

func (f *fakeOracle) BookSnapshot(_ context.Context, id string) (*cart.Snapshot, error) {
	s, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type memStore struct {
	carts map[uuid.UUID]*cart.Cart
	saves int
}

func newMemStore() *memStore { return &memStore{carts: map[uuid.UUID]*cart.Cart{}} }

func (m *memStore) Get(_ context.Context, owner uuid.UUID) (*cart.Cart, error) {
	c, ok := m.carts[owner]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return c, nil
}

func (m *memStore) GetOrCreate(_ context.Context, owner uuid.UUID) (*cart.Cart, error) {
	if c, ok := m.carts[owner]; ok {
		return c, nil
	}
	c := cart.NewCart(owner)
	m.carts[owner] = c
	return c, nil
}

func (m *memStore) Save(_ context.Context, c *cart.Cart) error {
	m.saves++
	m.carts[c.Owner] = c
	return nil
}

type fakeIssuer struct{ calls int }

func (f *fakeIssuer) Issue(Identity) (string, error) {
	f.calls++
	return "token-123", nil
}

func seedCart(st *memStore, owner uuid.UUID, items ...cart.LineItem) {
	c := cart.NewCart(owner)
	c.Items = items
	c.Recalc()
	st.carts[owner] = c
}

func line(bookID string, qty int32, priceCents int64) cart.LineItem {
	p := cart.Money{Cents: priceCents}
	return cart.LineItem{BookID: bookID, Qty: qty, UnitPrice: p, Subtotal: p.Mul(qty)}
}

func TestReconcilerRun(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps and evicts in one pass", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		seedCart(st, owner, line("B1", 3, 1000), line("B2", 2, 500))

		oracle := &fakeOracle{books: map[string]cart.Snapshot{
			"B1": {Price: cart.Money{Cents: 1000}, Stock: 1},
		}}
		issuer := &fakeIssuer{}
		r := NewReconciler(st, oracle, issuer, nil, 4, zerolog.Nop())

		res, err := r.Run(ctx, Identity{Owner: owner})
		require.NoError(t, err)
		require.Len(t, res.Cart.Items, 1)
		require.Equal(t, "B1", res.Cart.Items[0].BookID)
		require.Equal(t, int32(1), res.Cart.Items[0].Qty)
		require.Equal(t, int64(1000), res.Cart.Items[0].Subtotal.Cents)
		require.Equal(t, int64(1000), res.Cart.Total.Cents)

		require.Equal(t, []Violation{
			{BookID: "B1", Kind: ViolationClamped, Message: "Book with id B1 has only 1 items available."},
			{BookID: "B2", Kind: ViolationMissing, Message: "Book with id B2 does not exist."},
		}, res.Violations)

		require.Equal(t, "token-123", res.AccessToken)
		require.Equal(t, 1, st.saves)
	})

	t.Run("valid lines keep their snapshot price", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		seedCart(st, owner, line("B1", 2, 1000))

		// live price moved; a valid line must not be refreshed
		oracle := &fakeOracle{books: map[string]cart.Snapshot{
			"B1": {Price: cart.Money{Cents: 9900}, Stock: 10},
		}}
		r := NewReconciler(st, oracle, &fakeIssuer{}, nil, 4, zerolog.Nop())

		res, err := r.Run(ctx, Identity{Owner: owner})
		require.NoError(t, err)
		require.Empty(t, res.Violations)
		require.Equal(t, int64(1000), res.Cart.Items[0].UnitPrice.Cents)
		require.Equal(t, int64(2000), res.Cart.Total.Cents)
	})

	t.Run("clamped lines take the current price", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		seedCart(st, owner, line("B1", 5, 1000))

		oracle := &fakeOracle{books: map[string]cart.Snapshot{
			"B1": {Price: cart.Money{Cents: 1200}, Stock: 2},
		}}
		r := NewReconciler(st, oracle, &fakeIssuer{}, nil, 4, zerolog.Nop())

		res, err := r.Run(ctx, Identity{Owner: owner})
		require.NoError(t, err)
		require.Equal(t, int32(2), res.Cart.Items[0].Qty)
		require.Equal(t, int64(1200), res.Cart.Items[0].UnitPrice.Cents)
		require.Equal(t, int64(2400), res.Cart.Total.Cents)
	})

	t.Run("out of stock lines are evicted", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		seedCart(st, owner, line("B1", 1, 1000), line("B2", 1, 500))

		oracle := &fakeOracle{books: map[string]cart.Snapshot{
			"B1": {Price: cart.Money{Cents: 1000}, Stock: 0},
			"B2": {Price: cart.Money{Cents: 500}, Stock: 3},
		}}
		r := NewReconciler(st, oracle, &fakeIssuer{}, nil, 4, zerolog.Nop())

		res, err := r.Run(ctx, Identity{Owner: owner})
		require.NoError(t, err)
		require.Len(t, res.Cart.Items, 1)
		require.Equal(t, "B2", res.Cart.Items[0].BookID)
		require.Equal(t, []Violation{
			{BookID: "B1", Kind: ViolationOutOfStock, Message: "Book with id B1 is out of stock."},
		}, res.Violations)
	})

	t.Run("all lines evicted rejects the checkout", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		seedCart(st, owner, line("B1", 1, 1000), line("B2", 2, 500))

		oracle := &fakeOracle{books: map[string]cart.Snapshot{}}
		issuer := &fakeIssuer{}
		r := NewReconciler(st, oracle, issuer, nil, 4, zerolog.Nop())

		_, err := r.Run(ctx, Identity{Owner: owner})
		var empty ErrEmptyCheckout
		require.ErrorAs(t, err, &empty)
		require.Len(t, empty.Violations, 2)
		require.Zero(t, issuer.calls, "no credential on a rejected checkout")

		// the cleared cart is persisted, not destroyed
		c := st.carts[owner]
		require.Empty(t, c.Items)
		require.Zero(t, c.Total.Cents)
		require.Equal(t, 1, st.saves)
	})

	t.Run("every surviving line respects live stock", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		seedCart(st, owner, line("B1", 7, 100), line("B2", 1, 200), line("B3", 4, 300))

		oracle := &fakeOracle{books: map[string]cart.Snapshot{
			"B1": {Price: cart.Money{Cents: 100}, Stock: 2},
			"B2": {Price: cart.Money{Cents: 200}, Stock: 5},
			"B3": {Price: cart.Money{Cents: 300}, Stock: 4},
		}}
		r := NewReconciler(st, oracle, &fakeIssuer{}, nil, 4, zerolog.Nop())

		res, err := r.Run(ctx, Identity{Owner: owner})
		require.NoError(t, err)
		for _, it := range res.Cart.Items {
			require.LessOrEqual(t, it.Qty, oracle.books[it.BookID].Stock)
		}
		require.Len(t, res.Violations, 1)
		require.Equal(t, cart.TotalOf(res.Cart.Items), res.Cart.Total)
	})

	t.Run("oracle failure aborts before any line is touched", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		seedCart(st, owner, line("B1", 3, 1000))
		st.saves = 0

		oracle := &fakeOracle{existsErr: errors.New("dial tcp: refused")}
		r := NewReconciler(st, oracle, &fakeIssuer{}, nil, 4, zerolog.Nop())

		_, err := r.Run(ctx, Identity{Owner: owner})
		require.ErrorIs(t, err, cart.ErrDataUnavailable)
		require.Zero(t, st.saves)
		require.Equal(t, int32(3), st.carts[owner].Items[0].Qty)
	})

	t.Run("empty cart rejects with no violations", func(t *testing.T) {
		owner := uuid.New()
		st := newMemStore()
		r := NewReconciler(st, &fakeOracle{}, &fakeIssuer{}, nil, 4, zerolog.Nop())

		_, err := r.Run(ctx, Identity{Owner: owner})
		var empty ErrEmptyCheckout
		require.ErrorAs(t, err, &empty)
		require.Empty(t, empty.Violations)
	})
}
