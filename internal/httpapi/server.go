// Package httpapi exposes the cart surface over HTTP/JSON:
//
//	GET    /cart                     retrieve the owner's cart
//	POST   /cart/items/{book_id}     add one unit
//	PATCH  /cart/items/{book_id}     remove one unit
//	DELETE /cart/items/{book_id}     drop the whole line
//	POST   /cart/validate-checkout   reconcile and mint a fresh credential
//
// All routes require a bearer token; the owner is the token's sub claim.
package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/ahinestrog/bookcart/internal/cart"
	"github.com/ahinestrog/bookcart/internal/checkout"
)

// TokenVerifier resolves a raw bearer token into the owner identity.
type TokenVerifier interface {
	Verify(raw string) (checkout.Identity, error)
}

type Server struct {
	engine     *cart.Engine
	reconciler *checkout.Reconciler
	verifier   TokenVerifier
	limits     *rateLimiter
	log        zerolog.Logger
}

func NewServer(engine *cart.Engine, rec *checkout.Reconciler, verifier TokenVerifier, log zerolog.Logger) *Server {
	return &Server{
		engine:     engine,
		reconciler: rec,
		verifier:   verifier,
		limits:     newRateLimiter(time.Minute),
		log:        log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", s.auth(s.limit(itemBudget, s.handleGetCart)))
	mux.HandleFunc("POST /cart/items/{book_id}", s.auth(s.limit(itemBudget, s.handleAddItem)))
	mux.HandleFunc("PATCH /cart/items/{book_id}", s.auth(s.limit(itemBudget, s.handleReduceItem)))
	mux.HandleFunc("DELETE /cart/items/{book_id}", s.auth(s.limit(itemBudget, s.handleDeleteItem)))
	mux.HandleFunc("POST /cart/validate-checkout", s.auth(s.limit(checkoutBudget, s.handleCheckout)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return cors.Default().Handler(s.logRequests(mux))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
