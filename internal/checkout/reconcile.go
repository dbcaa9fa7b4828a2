// Package checkout revalidates a possibly stale cart against the oracle in
// one pass and turns it into a checkout-ready cart plus a violation list.
package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ahinestrog/bookcart/internal/cart"
	"github.com/ahinestrog/bookcart/internal/events"
)

type ViolationKind string

const (
	ViolationMissing    ViolationKind = "missing"
	ViolationOutOfStock ViolationKind = "out_of_stock"
	ViolationClamped    ViolationKind = "clamped"
)

// Violation is one non-fatal discrepancy found during the pass. Every
// evicted or clamped line produces exactly one.
type Violation struct {
	BookID  string        `json:"book_id"`
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Identity is the owner identity the renewed credential is minted for.
type Identity struct {
	Owner uuid.UUID
	Name  string
	Role  string
}

// Issuer mints the short-lived access credential returned on success.
type Issuer interface {
	Issue(id Identity) (string, error)
}

// Result is a successful reconciliation: the corrected, persisted cart, the
// violations accumulated along the way (possibly empty) and the renewed
// credential.
type Result struct {
	Cart        *cart.Cart
	Violations  []Violation
	AccessToken string
}

// ErrEmptyCheckout means the pass evicted every line. Violations carry the
// per-item reasons; no credential is produced.
type ErrEmptyCheckout struct {
	Violations []Violation
}

func (e ErrEmptyCheckout) Error() string { return "no items available in cart for checkout" }

type Reconciler struct {
	store   cart.Store
	oracle  cart.Oracle
	issuer  Issuer
	events  cart.Publisher
	workers int
	log     zerolog.Logger
}

func NewReconciler(store cart.Store, oracle cart.Oracle, issuer Issuer, pub cart.Publisher, workers int, log zerolog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 8
	}
	return &Reconciler{store: store, oracle: oracle, issuer: issuer, events: pub, workers: workers, log: log}
}

// report is the gathered oracle view of one line. exists false means the
// book must be evicted as missing; otherwise snap is non-nil.
type report struct {
	exists bool
	snap   *cart.Snapshot
}

// Run executes the full reconciliation pass for the owner's cart.
//
// Phase one gathers the oracle state for every line concurrently; any fetch
// failure aborts the pass before a single line is touched, so a flaky
// oracle can never leave a half-repaired cart behind. Phase two applies the
// per-item policy sequentially in display order: missing -> evict, no
// stock -> evict, over stock -> clamp to stock at the current price,
// otherwise leave the line untouched (valid lines keep their snapshot
// price). The corrected cart is recomputed and saved once at the end.
func (r *Reconciler) Run(ctx context.Context, id Identity) (*Result, error) {
	c, err := r.store.GetOrCreate(ctx, id.Owner)
	if err != nil {
		return nil, err
	}

	reports := make([]report, len(c.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range c.Items {
		g.Go(func() error {
			bookID := c.Items[i].BookID
			ok, err := r.oracle.BookExists(gctx, bookID)
			if err != nil {
				return fmt.Errorf("existence probe for %s: %w", bookID, err)
			}
			if !ok {
				return nil
			}
			snap, err := r.oracle.BookSnapshot(gctx, bookID)
			if err != nil {
				return fmt.Errorf("snapshot for %s: %w", bookID, err)
			}
			reports[i] = report{exists: snap != nil, snap: snap}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrDataUnavailable, err)
	}

	var violations []Violation
	kept := make([]cart.LineItem, 0, len(c.Items))
	for i, it := range c.Items {
		rep := reports[i]
		switch {
		case !rep.exists:
			violations = append(violations, Violation{
				BookID:  it.BookID,
				Kind:    ViolationMissing,
				Message: fmt.Sprintf("Book with id %s does not exist.", it.BookID),
			})
		case rep.snap.Stock < 1:
			violations = append(violations, Violation{
				BookID:  it.BookID,
				Kind:    ViolationOutOfStock,
				Message: fmt.Sprintf("Book with id %s is out of stock.", it.BookID),
			})
		case it.Qty > rep.snap.Stock:
			violations = append(violations, Violation{
				BookID:  it.BookID,
				Kind:    ViolationClamped,
				Message: fmt.Sprintf("Book with id %s has only %d items available.", it.BookID, rep.snap.Stock),
			})
			it.Qty = rep.snap.Stock
			it.UnitPrice = rep.snap.Price
			it.Subtotal = rep.snap.Price.Mul(it.Qty)
			kept = append(kept, it)
		default:
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.Recalc()
	if err := r.store.Save(ctx, c); err != nil {
		return nil, err
	}

	if len(c.Items) == 0 {
		return nil, ErrEmptyCheckout{Violations: violations}
	}

	token, err := r.issuer.Issue(id)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, c, violations)
	return &Result{Cart: c, Violations: violations, AccessToken: token}, nil
}

func (r *Reconciler) publish(ctx context.Context, c *cart.Cart, violations []Violation) {
	if r.events == nil {
		return
	}
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Message)
	}
	evt := events.CheckoutEvent{
		OwnerID:    c.Owner.String(),
		TotalCents: c.Total.Cents,
		Violations: msgs,
	}
	if err := r.events.Publish(ctx, events.RKCheckoutValidated, evt); err != nil {
		r.log.Warn().Err(err).Msg("checkout event publish failed")
	}
}
