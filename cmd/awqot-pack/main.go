// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command awqot-pack converts a scraped prayer time dataset (JSON) into a
// binary table and its metadata companion.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/awqot/jadwalsholat"
	"github.com/awqot/jadwalsholat/internal/config"
	"github.com/awqot/jadwalsholat/internal/logging"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	inputPath  = flag.String("in", "", "scraped dataset JSON (overrides pack.input)")
	outputPath = flag.String("out", "", "table to write (overrides table.path)")
	format     = flag.Uint("format", 0, "format version to write: 1 or 2 (overrides pack.format_version)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath, flagOverrides(*inputPath, *outputPath, *format))
	if err != nil {
		fmt.Fprintf(os.Stderr, "awqot-pack: %s\n", err)
		os.Exit(2)
	}

	log := logging.New(cfg.Logging)
	if cfg.Pack.Input == "" {
		log.Fatal().Msg("no input: set -in or pack.input")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Str("input", cfg.Pack.Input).Str("output", cfg.Table.Path).Msg("packing failed")
	}
}

// flagOverrides applies the command-line flags that were set.
func flagOverrides(input, output string, format uint) config.Override {
	return func(cfg *config.Config) error {
		if input != "" {
			cfg.Pack.Input = input
		}
		if output != "" {
			cfg.Table.Path = output
		}
		if format != 0 {
			if format > math.MaxUint16 {
				return fmt.Errorf("-format %d: no such format version", format)
			}
			cfg.Pack.FormatVersion = uint16(format)
		}
		return nil
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	opts := []jadwalsholat.Option{
		jadwalsholat.WithLogger(logging.Slog(log)),
		jadwalsholat.WithFormatVersion(cfg.Pack.FormatVersion),
	}

	f, err := os.Open(cfg.Pack.Input)
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	ds, err := jadwalsholat.ReadSourceJSON(f, opts...)
	if err != nil {
		return fmt.Errorf("ReadSourceJSON: %w", err)
	}

	b, err := jadwalsholat.NewBuilder(cfg.Table.Path, opts...)
	if err != nil {
		return fmt.Errorf("NewBuilder: %w", err)
	}
	if err := b.PutDataset(ds); err != nil {
		return fmt.Errorf("PutDataset: %w", err)
	}
	if err := b.Finalize(); err != nil {
		return fmt.Errorf("Finalize: %w", err)
	}

	log.Info().
		Str("table", cfg.Table.Path).
		Str("metadata", jadwalsholat.MetadataPath(cfg.Table.Path)).
		Uint16("format", cfg.Pack.FormatVersion).
		Time("retrieved", ds.Timestamp).
		Int("provinces", len(ds.Provinces)).
		Msg("packed prayer times")
	return nil
}
