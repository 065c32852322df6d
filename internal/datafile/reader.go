// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"fmt"
)

// Reader answers queries against an in-memory datafile.  The buffer is
// never modified, so a Reader is safe for concurrent use.
type Reader struct {
	h     fileHeader
	codec scheduleCodec
	data  []byte
	days  int
}

// NewReader checks the header and the placement of every section of data.
// Failures wrap ErrFormat or ErrUnsupportedVersion.
func NewReader(data []byte) (*Reader, error) {
	var header fileHeader
	if err := header.UnmarshalBytes(data); err != nil {
		return nil, fmt.Errorf("fileHeader.UnmarshalBytes: %w", err)
	}
	codec, err := codecFor(header.formatVersion)
	if err != nil {
		return nil, err
	}

	days, ok := codec.daysFor(int(header.scheduleCount))
	if !ok {
		return nil, fmt.Errorf("%d records per regency is not a whole number of days: %w", header.scheduleCount, ErrFormat)
	}

	tableEnd := uint64(header.tableStart()) +
		uint64(header.regencyCount)*uint64(header.scheduleCount)*uint64(codec.recordSize())
	if header.namesOffset < tableEnd {
		return nil, fmt.Errorf("name table at %d overlaps schedule table ending at %d: %w", header.namesOffset, tableEnd, ErrFormat)
	}
	if header.namesOffset > uint64(len(data)) {
		return nil, fmt.Errorf("name table at %d beyond bounds (%d): %w", header.namesOffset, len(data), ErrFormat)
	}

	return &Reader{
		h:     header,
		codec: codec,
		data:  data,
		days:  days,
	}, nil
}

func (r *Reader) Version() uint16 {
	return r.h.formatVersion
}

// Timestamp is when the data was retrieved, in milliseconds since the epoch.
func (r *Reader) Timestamp() uint64 {
	return r.h.timestamp
}

func (r *Reader) NumProvinces() int {
	return int(r.h.provinceCount)
}

func (r *Reader) NumRegencies() int {
	return int(r.h.regencyCount)
}

// NumSchedules is the number of stored records per regency.
func (r *Reader) NumSchedules() int {
	return int(r.h.scheduleCount)
}

// DaysPerRegency is the number of days stored for every regency.
func (r *Reader) DaysPerRegency() int {
	return r.days
}

func (r *Reader) u16At(off int) uint16 {
	return binary.LittleEndian.Uint16(r.data[off : off+2])
}

func (r *Reader) checkProvince(i int) error {
	if i < 0 || i >= int(r.h.provinceCount) {
		return fmt.Errorf("province %d out of range (len %d)", i, r.h.provinceCount)
	}
	return nil
}

// FirstRegency returns the flat index of province i's first regency.
func (r *Reader) FirstRegency(i int) (int, error) {
	if err := r.checkProvince(i); err != nil {
		return 0, err
	}
	first := int(r.u16At(r.h.indexStart() + 2*int(r.h.provinceCount) + 2*i))
	if first > int(r.h.regencyCount) {
		return 0, fmt.Errorf("province %d starts at regency %d of %d: %w", i, first, r.h.regencyCount, ErrFormat)
	}
	return first, nil
}

// nameAt reads a length-prefixed name at off, returning it and the offset
// just past it.
func (r *Reader) nameAt(off int) ([]byte, int, error) {
	if off >= len(r.data) {
		return nil, 0, fmt.Errorf("name at %d beyond bounds (%d): %w", off, len(r.data), ErrFormat)
	}
	n := int(r.data[off])
	start := off + 1
	if start+n > len(r.data) {
		return nil, 0, fmt.Errorf("name at %d of length %d beyond bounds (%d): %w", off, n, len(r.data), ErrFormat)
	}
	return r.data[start : start+n], start + n, nil
}

func (r *Reader) provinceRecord(i int) (int, error) {
	if err := r.checkProvince(i); err != nil {
		return 0, err
	}
	rel := r.u16At(r.h.indexStart() + 2*i)
	return int(r.h.namesOffset) + int(rel), nil
}

// ProvinceName returns the name of province i without reading its regencies.
func (r *Reader) ProvinceName(i int) (string, error) {
	off, err := r.provinceRecord(i)
	if err != nil {
		return "", err
	}
	name, _, err := r.nameAt(off)
	if err != nil {
		return "", fmt.Errorf("province %d: %w", i, err)
	}
	return string(name), nil
}

// Province returns province i and its regency names.
func (r *Reader) Province(i int) (Province, error) {
	off, err := r.provinceRecord(i)
	if err != nil {
		return Province{}, err
	}
	name, off, err := r.nameAt(off)
	if err != nil {
		return Province{}, fmt.Errorf("province %d: %w", i, err)
	}
	if off >= len(r.data) {
		return Province{}, fmt.Errorf("province %d: regency count beyond bounds: %w", i, ErrFormat)
	}
	count := int(r.data[off])
	off++

	p := Province{
		Name:      string(name),
		Regencies: make([]string, 0, count),
	}
	for j := 0; j < count; j++ {
		var regency []byte
		if regency, off, err = r.nameAt(off); err != nil {
			return Province{}, fmt.Errorf("province %q regency %d: %w", p.Name, j, err)
		}
		p.Regencies = append(p.Regencies, string(regency))
	}
	return p, nil
}

func (r *Reader) regencyTable(flat int) ([]byte, error) {
	if flat < 0 || flat >= int(r.h.regencyCount) {
		return nil, fmt.Errorf("regency %d out of range (len %d)", flat, r.h.regencyCount)
	}
	size := int(r.h.scheduleCount) * r.codec.recordSize()
	start := r.h.tableStart() + flat*size
	// NewReader checked that the whole schedule table is in bounds
	return r.data[start : start+size], nil
}

// Days decodes every day of the regency with flat index flat.
func (r *Reader) Days(flat int) ([]Day, error) {
	table, err := r.regencyTable(flat)
	if err != nil {
		return nil, err
	}
	days := make([]Day, 0, r.days)
	err = r.codec.decode(table, func(d *Day) bool {
		days = append(days, *d)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("regency %d: %w", flat, err)
	}
	return days, nil
}

// FindDay returns the (month, date) day of the regency with flat index
// flat.  ok is false if the regency has no such day.
func (r *Reader) FindDay(flat int, month, date uint8) (day Day, ok bool, err error) {
	table, err := r.regencyTable(flat)
	if err != nil {
		return Day{}, false, err
	}
	day, ok, err = r.codec.find(table, month, date)
	if err != nil {
		return Day{}, false, fmt.Errorf("regency %d: %w", flat, err)
	}
	return day, ok, nil
}
