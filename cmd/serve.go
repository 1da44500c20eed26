package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moviex/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	movies, err := r.movieService()
	if err != nil {
		return err
	}

	var accounts server.Accounts
	if svc, err := r.accountService(); err != nil {
		r.logger.Warn("account routes disabled", "error", err)
	} else {
		accounts = svc
	}

	cfg := r.config.Server
	if h := cmd.String("host"); h != "" {
		cfg.Host = h
	}
	if p := int(cmd.Int("port")); p > 0 {
		cfg.Port = p
	}

	handler := server.NewHandler(movies, accounts, cfg.AllowedOrigins, r.logger)
	srv := server.NewServer(cfg.Addr(), handler, r.logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
