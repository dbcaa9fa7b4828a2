package httpapi

import (
	"errors"
	"net/http"

	"github.com/ahinestrog/bookcart/internal/cart"
	"github.com/ahinestrog/bookcart/internal/checkout"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request, id checkout.Identity) {
	c, err := s.engine.GetCart(r.Context(), id.Owner)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{CartInfo: cartInfoOf(c)})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request, id checkout.Identity) {
	bookID := r.PathValue("book_id")
	c, err := s.engine.AddItem(r.Context(), id.Owner, bookID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{CartInfo: cartInfoOf(c)})
}

func (s *Server) handleReduceItem(w http.ResponseWriter, r *http.Request, id checkout.Identity) {
	bookID := r.PathValue("book_id")
	c, err := s.engine.ReduceItem(r.Context(), id.Owner, bookID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{CartInfo: cartInfoOf(c)})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, id checkout.Identity) {
	bookID := r.PathValue("book_id")
	c, err := s.engine.DeleteItem(r.Context(), id.Owner, bookID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{CartInfo: cartInfoOf(c)})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, id checkout.Identity) {
	res, err := s.reconciler.Run(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	info := cartInfoOf(res.Cart)
	writeJSON(w, http.StatusOK, checkoutResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		CartInfo:    &info,
		Errors:      orEmpty(res.Violations),
	})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var insufficient cart.ErrInsufficientStock
	var empty checkout.ErrEmptyCheckout
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		writeError(w, http.StatusNotFound, "Cart not found.")
	case errors.Is(err, cart.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "Book not found.")
	case errors.Is(err, cart.ErrDataUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Book data could not be retrieved.")
	case errors.As(err, &insufficient):
		writeError(w, http.StatusBadRequest, "Not enough stock available.")
	case errors.As(err, &empty):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Detail: "No items available in cart for checkout.",
			Errors: orEmpty(empty.Violations),
		})
	default:
		s.log.Error().Err(err).Msg("cart operation failed")
		writeError(w, http.StatusInternalServerError, "Internal error.")
	}
}
