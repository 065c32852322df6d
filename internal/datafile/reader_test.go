// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_RoundTrip(t *testing.T) {
	for _, version := range SupportedVersions() {
		c := testContents(version, 4, 3)
		data, err := Marshal(c)
		require.NoError(t, err)

		r, err := NewReader(data)
		require.NoError(t, err)

		assert.Equal(t, version, r.Version())
		assert.Equal(t, c.Timestamp, r.Timestamp())
		assert.Equal(t, len(c.Provinces), r.NumProvinces())
		assert.Equal(t, len(c.Schedules), r.NumRegencies())
		assert.Equal(t, 366, r.DaysPerRegency())

		flat := 0
		for i, expected := range c.Provinces {
			name, err := r.ProvinceName(i)
			require.NoError(t, err)
			assert.Equal(t, expected.Name, name)

			p, err := r.Province(i)
			require.NoError(t, err)
			assert.Equal(t, expected, p)

			first, err := r.FirstRegency(i)
			require.NoError(t, err)
			assert.Equal(t, flat, first)

			for range p.Regencies {
				days, err := r.Days(flat)
				require.NoError(t, err)
				require.Equal(t, c.Schedules[flat], days)
				flat++
			}
		}

		_, err = r.Province(len(c.Provinces))
		assert.Error(t, err)
		_, err = r.Days(-1)
		assert.Error(t, err)
		_, err = r.Days(len(c.Schedules))
		assert.Error(t, err)
	}
}

func TestReader_FindDay(t *testing.T) {
	for _, version := range SupportedVersions() {
		c := testContents(version, 2, 2)
		data, err := Marshal(c)
		require.NoError(t, err)
		r, err := NewReader(data)
		require.NoError(t, err)

		for flat, days := range c.Schedules {
			for _, expected := range []Day{days[0], days[59], days[365]} {
				day, ok, err := r.FindDay(flat, expected.Month, expected.Date)
				require.NoError(t, err)
				require.True(t, ok)
				require.Equal(t, expected, day)
			}
		}

		for _, md := range [][2]uint8{{13, 40}, {0, 0}, {2, 30}, {4, 31}} {
			_, ok, err := r.FindDay(0, md[0], md[1])
			require.NoError(t, err)
			require.False(t, ok, "%v", md)
		}
	}
}

func TestReader_Errors(t *testing.T) {
	data, err := Marshal(testContents(VersionRecords, 2, 1))
	require.NoError(t, err)

	_, err = NewReader(nil)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewReader([]byte("NOTMAGIC and then some more bytes to fill a header"))
	assert.ErrorIs(t, err, ErrFormat)

	bad := append([]byte(nil), data...)
	binary.LittleEndian.PutUint16(bad[versionOff:], 99)
	_, err = NewReader(bad)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	// truncated in the middle of the schedule table
	_, err = NewReader(data[:fileHeaderSize+100])
	assert.ErrorIs(t, err, ErrFormat)

	// a v1 record count that isn't a whole number of days
	bad = append([]byte(nil), data...)
	binary.LittleEndian.PutUint16(bad[scheduleCountOff:], 7)
	_, err = NewReader(bad)
	assert.ErrorIs(t, err, ErrFormat)

	// truncated name table
	r, err := NewReader(data[:len(data)-3])
	require.NoError(t, err)
	_, err = r.Province(1)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReader_CorruptRuns(t *testing.T) {
	c := testContents(VersionRecords, 1, 1)
	data, err := Marshal(c)
	require.NoError(t, err)

	var h fileHeader
	require.NoError(t, h.UnmarshalBytes(data))
	tableStart := h.tableStart()

	// relabel the 9th record (Imsya of 2 January) as 1 January: that day
	// now has 9 records
	bad := append([]byte(nil), data...)
	bad[tableStart+8*recordSize+1] = 1
	r, err := NewReader(bad)
	require.NoError(t, err)
	_, err = r.Days(0)
	assert.ErrorIs(t, err, ErrFormat)

	// relabel the 8th record (Isya of 1 January) as 2 January: 1 January
	// is now short
	bad = append([]byte(nil), data...)
	bad[tableStart+7*recordSize+1] = 2
	r, err = NewReader(bad)
	require.NoError(t, err)
	_, err = r.Days(0)
	assert.ErrorIs(t, err, ErrFormat)
	_, _, err = r.FindDay(0, 1, 1)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestCodecs_DecodeStopsEarly(t *testing.T) {
	days := testYear(3)
	for _, version := range SupportedVersions() {
		codec := codecs[version]
		table, err := codec.appendDays(nil, days)
		require.NoError(t, err)
		assert.Equal(t, codec.recordCount(len(days))*codec.recordSize(), len(table))

		var seen []Day
		err = codec.decode(table, func(d *Day) bool {
			seen = append(seen, *d)
			return len(seen) < 10
		})
		require.NoError(t, err)
		assert.Equal(t, days[:10], seen)
	}
}
