// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command awqot-serve serves a prayer time table as JSON over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/awqot/jadwalsholat"
	"github.com/awqot/jadwalsholat/internal/config"
	"github.com/awqot/jadwalsholat/internal/logging"
	"github.com/awqot/jadwalsholat/internal/server"
)

const shutdownTimeout = 10 * time.Second

var configPath = flag.String("config", "", "path to a YAML config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "awqot-serve: %s\n", err)
		os.Exit(2)
	}
	log := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("awqot-serve failed")
	}
}

func openTable(ctx context.Context, cfg config.TableConfig, log zerolog.Logger) (*jadwalsholat.Table, error) {
	src := jadwalsholat.FileReader(cfg.Path)
	if cfg.Mmap {
		src = jadwalsholat.File(cfg.Path)
	}
	table, err := jadwalsholat.Open(ctx, src, jadwalsholat.WithLogger(logging.Slog(log)))
	if err != nil {
		return nil, fmt.Errorf("jadwalsholat.Open(%s): %w", cfg.Path, err)
	}

	if cfg.VerifyMetadata {
		meta, err := os.ReadFile(jadwalsholat.MetadataPath(cfg.Path))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn().Str("table", cfg.Path).Msg("no metadata next to table, skipping verification")
		case err != nil:
			return nil, fmt.Errorf("os.ReadFile: %w", err)
		default:
			if err := table.VerifyMetadata(meta); err != nil {
				return nil, fmt.Errorf("VerifyMetadata: %w", err)
			}
		}
	}
	return table, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	table, err := openTable(ctx, cfg.Table, log)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.New(table, cfg.Server, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Str("table", cfg.Table.Path).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ListenAndServe: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("Shutdown: %w", err)
	}
	return nil
}
