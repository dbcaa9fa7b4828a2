// Package store persists carts in SQLite. A cart is written as a whole —
// items and total in one transaction — so a reader never observes a total
// that disagrees with the rows it was derived from.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ahinestrog/bookcart/internal/cart"
)

const schema = `
CREATE TABLE IF NOT EXISTS carts(
  owner_id    TEXT PRIMARY KEY,
  total_cents INTEGER NOT NULL DEFAULT 0,
  updated_at  INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
CREATE TABLE IF NOT EXISTS cart_items(
  owner_id         TEXT NOT NULL REFERENCES carts(owner_id) ON DELETE CASCADE,
  book_id          TEXT NOT NULL,
  title            TEXT NOT NULL,
  author           TEXT NOT NULL,
  qty              INTEGER NOT NULL CHECK (qty > 0),
  unit_price_cents INTEGER NOT NULL,
  position         INTEGER NOT NULL,
  PRIMARY KEY(owner_id, book_id)
);
`

type SQLite struct{ db *sql.DB }

// Open opens (or creates) the cart database. Busy timeout + WAL so the
// single-writer-per-owner assumption holds under concurrent owners.
func Open(path string) (*SQLite, error) {
	dsn := path + "?_pragma=busy_timeout=5000&_pragma=journal_mode=WAL&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(ctx context.Context, owner uuid.UUID) (*cart.Cart, error) {
	var totalCents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT total_cents FROM carts WHERE owner_id=?`, owner.String()).Scan(&totalCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	c := cart.NewCart(owner)
	c.Total = cart.Money{Cents: totalCents}

	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, title, author, qty, unit_price_cents
		FROM cart_items WHERE owner_id=? ORDER BY position`, owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.LineItem
		var unit int64
		if err := rows.Scan(&it.BookID, &it.Title, &it.Author, &it.Qty, &unit); err != nil {
			return nil, err
		}
		it.UnitPrice = cart.Money{Cents: unit}
		it.Subtotal = it.UnitPrice.Mul(it.Qty)
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (s *SQLite) GetOrCreate(ctx context.Context, owner uuid.UUID) (*cart.Cart, error) {
	c, err := s.Get(ctx, owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, cart.ErrCartNotFound) {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO carts(owner_id) VALUES(?) ON CONFLICT(owner_id) DO NOTHING`,
		owner.String()); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

// Save replaces the stored cart with c in a single transaction: total
// upsert, item rows rewritten with their display order.
func (s *SQLite) Save(ctx context.Context, c *cart.Cart) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO carts(owner_id, total_cents, updated_at)
		VALUES(?, ?, strftime('%s','now'))
		ON CONFLICT(owner_id)
		DO UPDATE SET total_cents=excluded.total_cents, updated_at=excluded.updated_at`,
		c.Owner.String(), c.Total.Cents); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE owner_id=?`, c.Owner.String()); err != nil {
		return err
	}
	for i, it := range c.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items(owner_id, book_id, title, author, qty, unit_price_cents, position)
			VALUES(?,?,?,?,?,?,?)`,
			c.Owner.String(), it.BookID, it.Title, it.Author, it.Qty, it.UnitPrice.Cents, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}
