// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"io"
	"log/slog"

	"github.com/awqot/jadwalsholat/internal/datafile"
)

// Format versions understood by this package.
const (
	// FormatRecords stores one 4-byte record per prayer time.
	FormatRecords = datafile.VersionRecords
	// FormatPacked stores one 14-byte record per day, with the times
	// bit-packed.
	FormatPacked = datafile.VersionPacked
)

// Option configures Encode, NewBuilder, New and ReadSourceJSON.  Options
// that don't apply to a call are ignored.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	version uint16
}

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		version: FormatRecords,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets an optional logger for progress updates and warnings.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithFormatVersion selects the format version to encode.  The default is
// FormatRecords.
func WithFormatVersion(version uint16) Option {
	return func(opts *options) {
		opts.version = version
	}
}
