// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"unicode/utf8"
)

const (
	defaultBufferSize = 64 * 1024

	MaxNameLen              = (1 << 8) - 1
	MaxProvinces            = (1 << 8) - 1
	MaxRegenciesPerProvince = (1 << 8) - 1
	MaxRegencies            = (1 << 16) - 1
	maxRecords              = (1 << 16) - 1
	maxNameIndex            = (1 << 16) - 1

	maxHour   = 23
	maxMinute = 59
	maxMonth  = 12
	maxDate   = 31
)

// ErrValidation means the contents violate a datafile invariant and
// nothing was written.
var ErrValidation = errors.New("invalid prayer time data")

// Province is a province name and the names of its regencies, in index order.
type Province struct {
	Name      string
	Regencies []string
}

// Contents is everything stored in a datafile.
type Contents struct {
	Version   uint16
	Timestamp uint64
	Provinces []Province
	// Schedules holds the days of every regency, indexed by flat regency
	// index (regencies of province 0 first).
	Schedules [][]Day
}

// layout is the precomputed placement of every section of a datafile.
type layout struct {
	header        fileHeader
	codec         scheduleCodec
	nameIndex     []uint16
	scheduleIndex []uint16
	namesSize     int
}

func checkName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("empty %s name: %w", kind, ErrValidation)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%s name %q is %d bytes (max %d): %w", kind, name, len(name), MaxNameLen, ErrValidation)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%s name %q is not valid UTF-8: %w", kind, name, ErrValidation)
	}
	return nil
}

func checkDay(d *Day) error {
	if d.Month < 1 || d.Month > maxMonth || d.Date < 1 || d.Date > maxDate {
		return fmt.Errorf("bad calendar day %02d-%02d: %w", d.Month, d.Date, ErrValidation)
	}
	for k, t := range d.Times {
		if t.Hour > maxHour || t.Minute > maxMinute {
			return fmt.Errorf("%02d-%02d: time %d is %02d:%02d: %w", d.Month, d.Date, k, t.Hour, t.Minute, ErrValidation)
		}
	}
	return nil
}

// plan validates c and computes where everything goes.  Nothing in a
// datafile is written before plan succeeds.
func (c *Contents) plan() (*layout, error) {
	codec, err := codecFor(c.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if len(c.Provinces) == 0 {
		return nil, fmt.Errorf("no provinces: %w", ErrValidation)
	}
	if len(c.Provinces) > MaxProvinces {
		return nil, fmt.Errorf("%d provinces (max %d): %w", len(c.Provinces), MaxProvinces, ErrValidation)
	}

	l := &layout{
		codec:         codec,
		nameIndex:     make([]uint16, len(c.Provinces)),
		scheduleIndex: make([]uint16, len(c.Provinces)),
	}

	regencies := 0
	for i, p := range c.Provinces {
		if err := checkName("province", p.Name); err != nil {
			return nil, err
		}
		if len(p.Regencies) > MaxRegenciesPerProvince {
			return nil, fmt.Errorf("province %q has %d regencies (max %d): %w", p.Name, len(p.Regencies), MaxRegenciesPerProvince, ErrValidation)
		}
		if l.namesSize > maxNameIndex {
			return nil, fmt.Errorf("name table offset %d of province %q overflows u16: %w", l.namesSize, p.Name, ErrValidation)
		}
		if regencies+len(p.Regencies) > MaxRegencies {
			return nil, fmt.Errorf("more than %d regencies: %w", MaxRegencies, ErrValidation)
		}
		l.nameIndex[i] = uint16(l.namesSize)
		l.scheduleIndex[i] = uint16(regencies)

		l.namesSize += 1 + len(p.Name) + 1
		for _, r := range p.Regencies {
			if err := checkName("regency", r); err != nil {
				return nil, fmt.Errorf("province %q: %w", p.Name, err)
			}
			l.namesSize += 1 + len(r)
		}
		regencies += len(p.Regencies)
	}

	if len(c.Schedules) != regencies {
		return nil, fmt.Errorf("%d schedules for %d regencies: %w", len(c.Schedules), regencies, ErrValidation)
	}
	days := 0
	if regencies > 0 {
		days = len(c.Schedules[0])
	}
	for i, s := range c.Schedules {
		if len(s) != days {
			return nil, fmt.Errorf("regency %d has %d days, regency 0 has %d: %w", i, len(s), days, ErrValidation)
		}
		for j := range s {
			d := &s[j]
			if err := checkDay(d); err != nil {
				return nil, fmt.Errorf("regency %d: %w", i, err)
			}
			if j > 0 {
				prev := &s[j-1]
				if d.Month < prev.Month || (d.Month == prev.Month && d.Date <= prev.Date) {
					return nil, fmt.Errorf("regency %d: %02d-%02d follows %02d-%02d: %w", i, d.Month, d.Date, prev.Month, prev.Date, ErrValidation)
				}
			}
			if first := &c.Schedules[0][j]; !d.matches(first.Month, first.Date) {
				return nil, fmt.Errorf("regency %d: day %d is %02d-%02d, regency 0 has %02d-%02d: %w", i, j, d.Month, d.Date, first.Month, first.Date, ErrValidation)
			}
		}
		if err := codec.validate(s); err != nil {
			return nil, fmt.Errorf("regency %d: %w", i, err)
		}
	}
	records := codec.recordCount(days)
	if records > maxRecords {
		return nil, fmt.Errorf("%d records per regency (max %d): %w", records, maxRecords, ErrValidation)
	}

	l.header = fileHeader{
		formatVersion: c.Version,
		timestamp:     c.Timestamp,
		provinceCount: uint8(len(c.Provinces)),
		regencyCount:  uint16(regencies),
		scheduleCount: uint16(records),
	}
	l.header.namesOffset = uint64(l.header.tableStart() + regencies*records*codec.recordSize())

	return l, nil
}

// Validate reports whether c can be written, without writing anything.
func (c *Contents) Validate() error {
	_, err := c.plan()
	return err
}

type nopWriter struct{}

func (nopWriter) Write([]byte) (int, error) {
	return 0, io.EOF
}

// Writer serializes Contents.  A Writer writes exactly one datafile.
type Writer struct {
	w        *bufio.Writer
	off      uint64
	finished atomic.Bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: bufio.NewWriterSize(w, defaultBufferSize),
	}
}

// Len is the number of bytes written so far.
func (w *Writer) Len() uint64 {
	return w.off
}

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.off += uint64(n)
	if err != nil {
		return fmt.Errorf("bufio.Write: %w", err)
	}
	return nil
}

// Write validates c in full and then writes it.  If validation fails,
// nothing is written.
func (w *Writer) Write(c *Contents) error {
	if w.finished.Load() || w.off != 0 {
		return errors.New("a Writer writes a single datafile")
	}
	l, err := c.plan()
	if err != nil {
		return err
	}

	if n, err := l.header.WriteTo(w.w); err != nil {
		return fmt.Errorf("fileHeader.WriteTo: %w", err)
	} else {
		w.off += uint64(n)
	}

	idx := make([]byte, 0, 4*len(l.nameIndex))
	for _, off := range l.nameIndex {
		idx = binary.LittleEndian.AppendUint16(idx, off)
	}
	for _, first := range l.scheduleIndex {
		idx = binary.LittleEndian.AppendUint16(idx, first)
	}
	if err := w.write(idx); err != nil {
		return err
	}

	var buf []byte
	for i, s := range c.Schedules {
		if buf, err = l.codec.appendDays(buf[:0], s); err != nil {
			return fmt.Errorf("regency %d: %w", i, err)
		}
		if err := w.write(buf); err != nil {
			return err
		}
	}

	if w.off != l.header.namesOffset {
		panic(fmt.Errorf("invariant broken: name table at %d, header says %d", w.off, l.header.namesOffset))
	}

	names := make([]byte, 0, l.namesSize)
	for _, p := range c.Provinces {
		names = append(names, uint8(len(p.Name)))
		names = append(names, p.Name...)
		names = append(names, uint8(len(p.Regencies)))
		for _, r := range p.Regencies {
			names = append(names, uint8(len(r)))
			names = append(names, r...)
		}
	}
	return w.write(names)
}

// Finish flushes buffered output.  It is safe to call more than once.
func (w *Writer) Finish() error {
	if alreadyFinished := w.finished.Swap(true); alreadyFinished {
		return nil
	}

	defer func() {
		w.w.Reset(nopWriter{})
	}()

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	return nil
}

// Marshal returns the datafile for c.
func Marshal(c *Contents) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(c); err != nil {
		return nil, err
	}
	if err := w.Finish(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
