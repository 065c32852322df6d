// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package logging

import (
	"log/slog"
	"math"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// Slog returns a *slog.Logger that writes through zl, at zl's level.
func Slog(zl zerolog.Logger) *slog.Logger {
	handler := slogzerolog.Option{
		Level:  slogLevel(zl.GetLevel()),
		Logger: &zl,
	}.NewZerologHandler()
	return slog.New(handler)
}

func slogLevel(level zerolog.Level) slog.Level {
	switch level {
	case zerolog.TraceLevel:
		return slog.LevelDebug - 4
	case zerolog.DebugLevel:
		return slog.LevelDebug
	case zerolog.InfoLevel:
		return slog.LevelInfo
	case zerolog.WarnLevel:
		return slog.LevelWarn
	case zerolog.ErrorLevel:
		return slog.LevelError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return slog.LevelError + 4
	default:
		// disabled
		return slog.Level(math.MaxInt)
	}
}
