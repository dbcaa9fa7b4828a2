package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/ahinestrog/bookcart/internal/cart"
	"github.com/ahinestrog/bookcart/internal/checkout"
)

type lineItemView struct {
	BookID       string `json:"book_id"`
	BookName     string `json:"book_name"`
	Author       string `json:"author"`
	Quantity     int32  `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	Subtotal     int64  `json:"subtotal"`
}

type cartInfo struct {
	CartItems    []lineItemView `json:"cart_items"`
	TotalPrice   int64          `json:"total_price"`
	TotalDisplay string         `json:"total_display"`
}

type cartResponse struct {
	CartInfo cartInfo `json:"cart_info"`
}

type checkoutResponse struct {
	AccessToken string               `json:"access_token"`
	TokenType   string               `json:"token_type"`
	CartInfo    *cartInfo            `json:"cart_info"`
	Errors      []checkout.Violation `json:"errors"`
}

type errorResponse struct {
	Detail string               `json:"detail"`
	Errors []checkout.Violation `json:"errors,omitempty"`
}

func cartInfoOf(c *cart.Cart) cartInfo {
	items := make([]lineItemView, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, lineItemView{
			BookID:       it.BookID,
			BookName:     it.Title,
			Author:       it.Author,
			Quantity:     it.Qty,
			PricePerUnit: it.UnitPrice.Cents,
			Subtotal:     it.Subtotal.Cents,
		})
	}
	return cartInfo{
		CartItems:    items,
		TotalPrice:   c.Total.Cents,
		TotalDisplay: c.Total.Display(),
	}
}

func orEmpty(v []checkout.Violation) []checkout.Violation {
	if v == nil {
		return []checkout.Violation{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
