package httpapi

import (
	"net/http"
	"strings"

	"github.com/ahinestrog/bookcart/internal/checkout"
)

// authedHandler is a handler that runs with a verified owner identity.
type authedHandler func(w http.ResponseWriter, r *http.Request, id checkout.Identity)

func (s *Server) auth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token.")
			return
		}
		id, err := s.verifier.Verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}
		next(w, r, id)
	}
}

func (s *Server) limit(b budget, next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, id checkout.Identity) {
		if !s.limits.allow(id.Owner, b) {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded.")
			return
		}
		next(w, r, id)
	}
}
