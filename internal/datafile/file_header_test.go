// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHeader_RoundTrip(t *testing.T) {
	origH := fileHeader{
		formatVersion: VersionRecords,
		timestamp:     1700000000000,
		provinceCount: 34,
		regencyCount:  514,
		scheduleCount: 2928,
		namesOffset:   6020000,
	}

	// this should be an error
	err := origH.MarshalTo(nil)
	assert.Error(t, err)

	var newH fileHeader
	headerBytes := make([]byte, fileHeaderSize)
	// missing magic word
	err = newH.UnmarshalBytes(headerBytes)
	assert.ErrorIs(t, err, ErrFormat)

	err = origH.MarshalTo(headerBytes)
	require.NoError(t, err)
	require.Equal(t, []byte(Magic), headerBytes[:len(Magic)])

	err = newH.UnmarshalBytes(nil)
	assert.ErrorIs(t, err, ErrFormat)

	// magic word, but truncated
	err = newH.UnmarshalBytes(headerBytes[:fileHeaderSize-1])
	assert.ErrorIs(t, err, ErrFormat)

	err = newH.UnmarshalBytes(headerBytes)
	require.NoError(t, err)
	assert.Equal(t, origH, newH)

	// test that deserializing an unknown version is rejected
	origH.formatVersion = 99
	err = origH.MarshalTo(headerBytes)
	require.NoError(t, err)
	err = newH.UnmarshalBytes(headerBytes)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.NotErrorIs(t, err, ErrFormat)
}

func TestFileHeader_WriteTo(t *testing.T) {
	h := fileHeader{
		formatVersion: VersionPacked,
		timestamp:     42,
		provinceCount: 1,
		regencyCount:  2,
		scheduleCount: 3,
		namesOffset:   4,
	}
	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(fileHeaderSize), n)
	assert.Equal(t, 31, buf.Len())

	var newH fileHeader
	require.NoError(t, newH.UnmarshalBytes(buf.Bytes()))
	assert.Equal(t, h, newH)
}

func TestSupportedVersions(t *testing.T) {
	assert.Equal(t, []uint16{VersionRecords, VersionPacked}, SupportedVersions())
}
