// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// Magic identifies a prayer time datafile.
	Magic = "AWQTSHLT"

	// VersionRecords stores one 4-byte record per prayer time.
	VersionRecords uint16 = 1
	// VersionPacked stores one 14-byte record per day.
	VersionPacked uint16 = 2

	versionOff       = len(Magic)
	timestampOff     = versionOff + 2
	provinceCountOff = timestampOff + 8
	regencyCountOff  = provinceCountOff + 1
	scheduleCountOff = regencyCountOff + 2
	namesOffsetOff   = scheduleCountOff + 2
	fileHeaderSize   = namesOffsetOff + 8
)

var (
	// ErrFormat means the buffer is not a datafile or is structurally broken.
	ErrFormat = errors.New("malformed prayer time data")
	// ErrUnsupportedVersion means the magic matched but the version is unknown.
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

type fileHeader struct {
	formatVersion uint16
	timestamp     uint64
	provinceCount uint8
	regencyCount  uint16
	scheduleCount uint16
	namesOffset   uint64
}

func (h *fileHeader) MarshalTo(headerBytes []byte) error {
	if len(headerBytes) < fileHeaderSize {
		return fmt.Errorf("headerBytes too short: %d < %d", len(headerBytes), fileHeaderSize)
	}
	headerBytes = headerBytes[:fileHeaderSize]

	copy(headerBytes[:versionOff], Magic)
	binary.LittleEndian.PutUint16(headerBytes[versionOff:], h.formatVersion)
	binary.LittleEndian.PutUint64(headerBytes[timestampOff:], h.timestamp)
	headerBytes[provinceCountOff] = h.provinceCount
	binary.LittleEndian.PutUint16(headerBytes[regencyCountOff:], h.regencyCount)
	binary.LittleEndian.PutUint16(headerBytes[scheduleCountOff:], h.scheduleCount)
	binary.LittleEndian.PutUint64(headerBytes[namesOffsetOff:], h.namesOffset)

	return nil
}

func (h *fileHeader) WriteTo(w io.Writer) (n int64, err error) {
	var headerBuf [fileHeaderSize]byte
	if err = h.MarshalTo(headerBuf[:]); err != nil {
		return 0, err
	}
	if _, err = w.Write(headerBuf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return int64(fileHeaderSize), nil
}

func (h *fileHeader) UnmarshalBytes(headerBytes []byte) error {
	if len(headerBytes) < len(Magic) || string(headerBytes[:len(Magic)]) != Magic {
		n := len(headerBytes)
		if n > len(Magic) {
			n = len(Magic)
		}
		return fmt.Errorf("bad magic word %q -- not a prayer time datafile: %w", headerBytes[:n], ErrFormat)
	}
	if len(headerBytes) < fileHeaderSize {
		return fmt.Errorf("header truncated: %d < %d: %w", len(headerBytes), fileHeaderSize, ErrFormat)
	}

	headerBytes = headerBytes[:fileHeaderSize]

	h.formatVersion = binary.LittleEndian.Uint16(headerBytes[versionOff:])
	if _, ok := codecs[h.formatVersion]; !ok {
		return fmt.Errorf("found v%d, can read %v: %w", h.formatVersion, SupportedVersions(), ErrUnsupportedVersion)
	}

	h.timestamp = binary.LittleEndian.Uint64(headerBytes[timestampOff:])
	h.provinceCount = headerBytes[provinceCountOff]
	h.regencyCount = binary.LittleEndian.Uint16(headerBytes[regencyCountOff:])
	h.scheduleCount = binary.LittleEndian.Uint16(headerBytes[scheduleCountOff:])
	h.namesOffset = binary.LittleEndian.Uint64(headerBytes[namesOffsetOff:])

	return nil
}

// indexStart is the offset of the province name index.
func (h *fileHeader) indexStart() int {
	return fileHeaderSize
}

// tableStart is the offset of the first schedule record.
func (h *fileHeader) tableStart() int {
	return fileHeaderSize + 4*int(h.provinceCount)
}
