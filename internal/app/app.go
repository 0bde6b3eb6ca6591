// Package app wires the chat server and the optional admin HTTP surface
// into a single process lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andy6609/roomrelay/internal/admin"
	"github.com/andy6609/roomrelay/internal/chat"
	"github.com/andy6609/roomrelay/internal/config"
)

// App wires together the chat server and the admin API.
type App struct {
	chat            *chat.Server
	admin           *http.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. The admin
// server is only built when cfg.AdminAddr is set.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	srv, err := chat.NewServer(cfg, logger.With().Str("component", "chat").Logger())
	if err != nil {
		return nil, fmt.Errorf("init chat server: %w", err)
	}

	a := &App{
		chat:            srv,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	if cfg.AdminAddr != "" {
		adminLog := logger.With().Str("component", "admin").Logger()
		router := admin.NewRouter(srv.Rooms(), srv.Sessions(), &adminLog)
		a.admin = admin.NewServer(cfg.AdminAddr, router)
	}

	return a, nil
}

// Run starts every listener and blocks until ctx is cancelled or one of
// them fails. Shutdown always stops the chat server before returning.
func (a *App) Run(ctx context.Context) error {
	if err := a.chat.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.admin != nil {
		g.Go(func() error {
			a.log.Info().Str("addr", a.admin.Addr).Msg("admin api listening")
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		var err error
		if a.admin != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down admin api")
			err = a.admin.Shutdown(shutdownCtx)
		}
		a.chat.Stop()
		return err
	})

	return g.Wait()
}
