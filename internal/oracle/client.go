// Package oracle implements the cart.Oracle port against the catalog and
// inventory services' internal HTTP endpoints.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahinestrog/bookcart/internal/cart"
)

type Options struct {
	CatalogURL   string
	InventoryURL string
	ActionToken  string
	Timeout      time.Duration
}

// Client is safe for concurrent use. Every call carries its own deadline;
// a slow or dead backend surfaces as cart.ErrDataUnavailable instead of
// hanging the mutation.
type Client struct {
	http         *http.Client
	catalogURL   string
	inventoryURL string
	actionToken  string
	timeout      time.Duration
	log          zerolog.Logger
}

func New(opts Options, log zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 4 * time.Second
	}
	return &Client{
		http:         &http.Client{},
		catalogURL:   opts.CatalogURL,
		inventoryURL: opts.InventoryURL,
		actionToken:  opts.ActionToken,
		timeout:      opts.Timeout,
		log:          log,
	}
}

// BookExists probes the catalog: 200 means the book exists, 404 means it
// does not. Anything else is a data-unavailable condition.
func (c *Client) BookExists(ctx context.Context, bookID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.get(ctx, c.catalogURL, "/catalog/book-exists/", bookID)
	if err != nil {
		return false, fmt.Errorf("%w: catalog: %v", cart.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: catalog returned %d", cart.ErrDataUnavailable, resp.StatusCode)
	}
}

// bookPayload mirrors the inventory service's check-book-coms response.
// The price field arrives in minor units.
type bookPayload struct {
	Book struct {
		BookName   string `json:"book_name"`
		Author     string `json:"author"`
		PriceCents int64  `json:"price"`
		Stock      int32  `json:"stock"`
	} `json:"book"`
}

// BookSnapshot fetches the live metadata/price/stock view. A 404 or an
// empty body means the inventory does not know the book: nil, nil.
func (c *Client) BookSnapshot(ctx context.Context, bookID string) (*cart.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.get(ctx, c.inventoryURL, "/inventory/check-book-coms/", bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: inventory: %v", cart.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: inventory returned %d", cart.ErrDataUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read inventory payload: %v", cart.ErrDataUnavailable, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var p bookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode inventory payload: %v", cart.ErrDataUnavailable, err)
	}
	return &cart.Snapshot{
		Title:  p.Book.BookName,
		Author: p.Book.Author,
		Price:  cart.Money{Cents: p.Book.PriceCents},
		Stock:  p.Book.Stock,
	}, nil
}

// get issues one oracle call. The caller owns the deadline so the response
// body stays readable after get returns.
func (c *Client) get(ctx context.Context, base, path, bookID string) (*http.Response, error) {
	u := base + path + url.PathEscape(bookID) +
		"?x_internal_action_token=" + url.QueryEscape(c.actionToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("book_id", bookID).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("oracle call")
	return resp, nil
}
