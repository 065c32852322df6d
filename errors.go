// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"errors"

	"github.com/awqot/jadwalsholat/internal/bitpack"
	"github.com/awqot/jadwalsholat/internal/datafile"
)

// Errors returned by this package are wrapped with context; match them
// with errors.Is.
var (
	// ErrFormat means the data is not a prayer time table, or is corrupt.
	ErrFormat = datafile.ErrFormat
	// ErrUnsupportedVersion means the data is a prayer time table of a
	// format version this build can't read.
	ErrUnsupportedVersion = datafile.ErrUnsupportedVersion
	// ErrValidation means a dataset can't be encoded.  Nothing was written.
	ErrValidation = datafile.ErrValidation
	// ErrRange means a value doesn't fit in its packed bit width.
	ErrRange = bitpack.ErrRange

	// ErrNotFound means the data is fine but has no such province,
	// regency or day.
	ErrNotFound = errors.New("not found")
	// ErrNotLoaded means a Table was queried before it loaded successfully.
	ErrNotLoaded = errors.New("table not loaded")
)
