package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bookcart/internal/cart"
	"github.com/ahinestrog/bookcart/internal/checkout"
	"github.com/ahinestrog/bookcart/internal/config"
	"github.com/ahinestrog/bookcart/internal/events"
	"github.com/ahinestrog/bookcart/internal/httpapi"
	"github.com/ahinestrog/bookcart/internal/oracle"
	"github.com/ahinestrog/bookcart/internal/store"
	"github.com/ahinestrog/bookcart/internal/token"
)

func main() {
	// Logger
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("db", cfg.DBPath).
		Msg("starting cart service")

	st, err := store.Open(cfg.DBPath)
	must(err)
	defer st.Close()

	rabbit, err := events.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
	must(err)
	defer rabbit.Close()

	orc := oracle.New(oracle.Options{
		CatalogURL:   cfg.CatalogURL,
		InventoryURL: cfg.InventoryURL,
		ActionToken:  cfg.ActionToken,
		Timeout:      cfg.OracleTimeout,
	}, log.Logger)

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	engine := cart.NewEngine(st, orc, rabbit, log.Logger)
	rec := checkout.NewReconciler(st, orc, issuer, rabbit, cfg.CheckoutWorkers, log.Logger)

	api := httpapi.NewServer(engine, rec, issuer, log.Logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Señales para apagado limpio
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Warn().Msg("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Info().Msg("HTTP listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("bye")
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
