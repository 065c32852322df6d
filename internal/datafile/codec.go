// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/awqot/jadwalsholat/internal/bitpack"
)

const (
	// TimesPerDay is the number of labelled prayer times in a day.
	TimesPerDay = 8

	recordSize       = 4
	packedRecordSize = 2 + 2*bitpack.DailyWords
)

// Clock is a time of day.
type Clock struct {
	Hour   uint8
	Minute uint8
}

// Day is one calendar day of prayer times, in canonical label order.
type Day struct {
	Month uint8
	Date  uint8
	Times [TimesPerDay]Clock
}

func (d *Day) matches(month, date uint8) bool {
	return d.Month == month && d.Date == date
}

// scheduleCodec encodes the schedule table of one format version.
type scheduleCodec interface {
	// recordSize is the size of one stored record in bytes.
	recordSize() int
	// recordCount is the number of records needed to store n days.
	recordCount(days int) int
	// daysFor is the inverse of recordCount; ok is false if records can't
	// hold a whole number of days.
	daysFor(records int) (days int, ok bool)
	// validate reports days the codec can't faithfully round-trip.
	validate(days []Day) error
	appendDays(dst []byte, days []Day) ([]byte, error)
	// decode visits the days stored in table until visit returns false.
	decode(table []byte, visit func(*Day) bool) error
	// find returns the day for (month, date), scanning no further than needed.
	find(table []byte, month, date uint8) (Day, bool, error)
}

var codecs = map[uint16]scheduleCodec{
	VersionRecords: recordCodec{},
	VersionPacked:  packedCodec{},
}

// SupportedVersions lists the format versions this package reads and writes.
func SupportedVersions() []uint16 {
	versions := make([]uint16, 0, len(codecs))
	for v := range codecs {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

func codecFor(version uint16) (scheduleCodec, error) {
	c, ok := codecs[version]
	if !ok {
		return nil, fmt.Errorf("v%d: %w", version, ErrUnsupportedVersion)
	}
	return c, nil
}

// recordCodec is the version 1 layout: one {month, date, hour, minute}
// record per prayer time.  The label of a record is its position inside
// its (month, date) run.
type recordCodec struct{}

func (recordCodec) recordSize() int { return recordSize }

func (recordCodec) recordCount(days int) int { return days * TimesPerDay }

func (recordCodec) daysFor(records int) (int, bool) {
	return records / TimesPerDay, records%TimesPerDay == 0
}

func (recordCodec) validate(days []Day) error {
	// the decoder recovers labels from record order, so the records of a
	// day must already be sorted
	for i := range days {
		d := &days[i]
		for k := 1; k < TimesPerDay; k++ {
			prev, cur := d.Times[k-1], d.Times[k]
			if cur.Hour < prev.Hour || (cur.Hour == prev.Hour && cur.Minute < prev.Minute) {
				return fmt.Errorf("%02d-%02d: time %d (%02d:%02d) is before time %d (%02d:%02d): %w",
					d.Month, d.Date, k, cur.Hour, cur.Minute, k-1, prev.Hour, prev.Minute, ErrValidation)
			}
		}
	}
	return nil
}

func (recordCodec) appendDays(dst []byte, days []Day) ([]byte, error) {
	for i := range days {
		d := &days[i]
		for _, t := range d.Times {
			dst = append(dst, d.Month, d.Date, t.Hour, t.Minute)
		}
	}
	return dst, nil
}

func (recordCodec) decode(table []byte, visit func(*Day) bool) error {
	if len(table)%recordSize != 0 {
		return fmt.Errorf("schedule table length %d not a multiple of %d: %w", len(table), recordSize, ErrFormat)
	}

	var day Day
	n := 0
	for off := 0; off < len(table); off += recordSize {
		rec := table[off : off+recordSize]
		// bounds check elimination
		_ = rec[recordSize-1]
		month, date := rec[0], rec[1]

		if n > 0 && !day.matches(month, date) {
			if n != TimesPerDay {
				return fmt.Errorf("%02d-%02d has %d records, want %d: %w", day.Month, day.Date, n, TimesPerDay, ErrFormat)
			}
			if !visit(&day) {
				return nil
			}
			n = 0
		}
		if n == TimesPerDay {
			return fmt.Errorf("%02d-%02d has more than %d records: %w", month, date, TimesPerDay, ErrFormat)
		}
		if n == 0 {
			day = Day{Month: month, Date: date}
		}
		day.Times[n] = Clock{Hour: rec[2], Minute: rec[3]}
		n++
	}

	if n == 0 {
		return nil
	}
	if n != TimesPerDay {
		return fmt.Errorf("%02d-%02d has %d records, want %d: %w", day.Month, day.Date, n, TimesPerDay, ErrFormat)
	}
	visit(&day)
	return nil
}

func (recordCodec) find(table []byte, month, date uint8) (Day, bool, error) {
	day := Day{Month: month, Date: date}
	n := 0
	for off := 0; off+recordSize <= len(table); off += recordSize {
		rec := table[off : off+recordSize]
		_ = rec[recordSize-1]
		if rec[0] != month || rec[1] != date {
			if n > 0 {
				// records are sorted: the run for this day is over
				break
			}
			continue
		}
		day.Times[n] = Clock{Hour: rec[2], Minute: rec[3]}
		n++
		if n == TimesPerDay {
			return day, true, nil
		}
	}

	if n == 0 {
		return Day{}, false, nil
	}
	return Day{}, false, fmt.Errorf("%02d-%02d has %d records, want %d: %w", month, date, n, TimesPerDay, ErrFormat)
}

// packedCodec is the version 2 layout: one record per day holding the
// joined (month, date) word and the day's times packed as 6-bit fields.
type packedCodec struct{}

func (packedCodec) recordSize() int { return packedRecordSize }

func (packedCodec) recordCount(days int) int { return days }

func (packedCodec) daysFor(records int) (int, bool) { return records, true }

func (packedCodec) validate([]Day) error { return nil }

func (packedCodec) appendDays(dst []byte, days []Day) ([]byte, error) {
	for i := range days {
		d := &days[i]
		key, err := bitpack.JoinBytes(int(d.Month), int(d.Date))
		if err != nil {
			return nil, fmt.Errorf("day key: %w", err)
		}
		var values [bitpack.DailyValues]uint8
		for k, t := range d.Times {
			values[2*k] = t.Hour
			values[2*k+1] = t.Minute
		}
		words, err := bitpack.PackDailyTimes(values)
		if err != nil {
			return nil, fmt.Errorf("%02d-%02d: %w", d.Month, d.Date, err)
		}
		dst = binary.LittleEndian.AppendUint16(dst, key)
		for _, w := range words {
			dst = binary.LittleEndian.AppendUint16(dst, w)
		}
	}
	return dst, nil
}

func unpackDay(rec []byte) Day {
	_ = rec[packedRecordSize-1]
	var d Day
	d.Month, d.Date = bitpack.SplitWord(binary.LittleEndian.Uint16(rec[:2]))

	var words [bitpack.DailyWords]uint16
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(rec[2+2*i:])
	}
	values := bitpack.UnpackDailyTimes(words)
	for k := range d.Times {
		d.Times[k] = Clock{Hour: values[2*k], Minute: values[2*k+1]}
	}
	return d
}

func (packedCodec) decode(table []byte, visit func(*Day) bool) error {
	if len(table)%packedRecordSize != 0 {
		return fmt.Errorf("schedule table length %d not a multiple of %d: %w", len(table), packedRecordSize, ErrFormat)
	}
	for off := 0; off < len(table); off += packedRecordSize {
		day := unpackDay(table[off : off+packedRecordSize])
		if !visit(&day) {
			return nil
		}
	}
	return nil
}

func (packedCodec) find(table []byte, month, date uint8) (Day, bool, error) {
	want, err := bitpack.JoinBytes(int(month), int(date))
	if err != nil {
		return Day{}, false, nil
	}
	for off := 0; off+packedRecordSize <= len(table); off += packedRecordSize {
		if binary.LittleEndian.Uint16(table[off:]) == want {
			return unpackDay(table[off : off+packedRecordSize]), true, nil
		}
	}
	return Day{}, false, nil
}
