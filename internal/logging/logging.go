// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package logging sets up zerolog for the commands, writing to the console
// and to a rotated log file, and bridges it to log/slog for library code.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"

	"github.com/awqot/jadwalsholat/internal/config"
)

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ConsoleWriter returns a human-readable writer to out.
func ConsoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
}

// FileWriter returns a file writer with rotation.
func FileWriter(cfg config.LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   cfg.Compress,
	}
}

// New returns a logger writing to the console (stderr) and the log file
// cfg asks for.  With neither, it discards everything.
func New(cfg config.LoggingConfig) zerolog.Logger {
	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}
	if cfg.FilePath != "" {
		writers = append(writers, FileWriter(cfg))
	}
	return NewWithWriters(ParseLevel(cfg.Level), writers...)
}

// NewWithWriters returns a logger at level writing to every writer.
func NewWithWriters(level zerolog.Level, writers ...io.Writer) zerolog.Logger {
	if len(writers) == 0 {
		return zerolog.Nop()
	}
	multi := io.MultiWriter(writers...)
	return zerolog.New(multi).With().Timestamp().Logger().Level(level)
}
