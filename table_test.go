// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixtureOnce sync.Once
	fixture     map[uint16][]byte
	fixtureMeta []byte
)

func loadFixture() {
	fixture = make(map[uint16][]byte)
	for _, version := range []uint16{FormatRecords, FormatPacked} {
		bin, meta, err := Encode(testDataset(), WithFormatVersion(version))
		if err != nil {
			panic(err)
		}
		fixture[version] = bin
		fixtureMeta = meta
	}
}

func openFixture(t testing.TB, version uint16) *Table {
	fixtureOnce.Do(loadFixture)
	table, err := Open(context.Background(), Bytes(fixture[version]))
	require.NoError(t, err)
	return table
}

func forEachVersion(t *testing.T, f func(t *testing.T, version uint16)) {
	for _, version := range []uint16{FormatRecords, FormatPacked} {
		version := version
		t.Run(map[uint16]string{FormatRecords: "records", FormatPacked: "packed"}[version], func(t *testing.T) {
			f(t, version)
		})
	}
}

func TestTable_RoundTrip(t *testing.T) {
	forEachVersion(t, func(t *testing.T, version uint16) {
		ds := testDataset()
		table := openFixture(t, version)

		got, err := table.FormatVersion()
		require.NoError(t, err)
		assert.Equal(t, version, got)

		ts, err := table.DataTimestamp()
		require.NoError(t, err)
		assert.True(t, ts.Equal(ds.Timestamp))

		provinces, err := table.Provinces()
		require.NoError(t, err)
		require.Len(t, provinces, len(ds.Provinces))

		for i, p := range ds.Provinces {
			assert.Equal(t, p.Name, provinces[i])
			regencies, err := table.Regencies(p.Name)
			require.NoError(t, err)
			require.Len(t, regencies, len(p.Regencies))
			for j, r := range p.Regencies {
				assert.Equal(t, r.Name, regencies[j])
				schedules, err := table.Schedules(p.Name, r.Name)
				require.NoError(t, err)
				require.Equal(t, r.Schedules, schedules)
			}
		}
	})
}

func TestTable_Fixture(t *testing.T) {
	forEachVersion(t, func(t *testing.T, version uint16) {
		table := openFixture(t, version)

		provinces, err := table.Provinces()
		require.NoError(t, err)
		require.Len(t, provinces, 34)
		assert.Equal(t, "ACEH", provinces[0])
		assert.Equal(t, "PAPUA", provinces[33])

		regencies, err := table.Regencies("ACEH")
		require.NoError(t, err)
		require.Len(t, regencies, 23)
		assert.Equal(t, "KAB. ACEH BARAT", regencies[0])
		assert.Equal(t, "KOTA SUBULUSSALAM", regencies[22])

		days, err := table.DaysPerRegency()
		require.NoError(t, err)
		assert.Equal(t, 366, days)

		schedules, err := table.Schedules("ACEH", "KOTA SUBULUSSALAM")
		require.NoError(t, err)
		require.Len(t, schedules, 366)
		for _, e := range schedules {
			require.Len(t, e.Times, NumLabels)
			for k, pt := range e.Times {
				require.Equal(t, Label(k), pt.Label)
			}
		}
		assert.Equal(t, 2, schedules[59].Month)
		assert.Equal(t, 29, schedules[59].Date)
	})
}

func TestTable_TimesMatchSchedules(t *testing.T) {
	forEachVersion(t, func(t *testing.T, version uint16) {
		table := openFixture(t, version)

		for _, regency := range []string{"KAB. ACEH BARAT", "KOTA BANDA ACEH", "KOTA SUBULUSSALAM"} {
			schedules, err := table.Schedules("ACEH", regency)
			require.NoError(t, err)
			for _, e := range schedules {
				times, err := table.Times("ACEH", regency, e.Month, e.Date)
				require.NoError(t, err)
				require.Equal(t, e.Times, times)
			}
		}

		times, err := table.Times("JAWA TIMUR", "KAB. JAWA TIMUR 1", 12, 31)
		require.NoError(t, err)
		require.Len(t, times, NumLabels)
		assert.Equal(t, Isya, times[Isya].Label)
	})
}

func TestTable_NotFound(t *testing.T) {
	forEachVersion(t, func(t *testing.T, version uint16) {
		table := openFixture(t, version)

		_, err := table.Regencies("ATLANTIS")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = table.Regencies("")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = table.Schedules("ACEH", "KAB. BADUNG")
		assert.ErrorIs(t, err, ErrNotFound)
		// regency names are only unique within their province
		_, err = table.Schedules("BALI", "KAB. ACEH BARAT")
		assert.ErrorIs(t, err, ErrNotFound)

		for _, day := range [][2]int{{13, 40}, {0, 1}, {2, 30}, {4, 31}, {1, 0}, {300, 1}} {
			_, err = table.Times("ACEH", "KAB. ACEH BARAT", day[0], day[1])
			assert.ErrorIs(t, err, ErrNotFound, "%v", day)
		}
		_, err = table.Times("ATLANTIS", "KAB. ACEH BARAT", 1, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTable_NotLoaded(t *testing.T) {
	table := New(Bytes(nil))

	_, err := table.Provinces()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = table.Regencies("ACEH")
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = table.Schedules("ACEH", "KAB. ACEH BARAT")
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = table.Times("ACEH", "KAB. ACEH BARAT", 1, 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = table.DataTimestamp()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = table.DaysPerRegency()
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, table.VerifyMetadata(nil), ErrNotLoaded)
}

func TestTable_VersionGate(t *testing.T) {
	fixtureOnce.Do(loadFixture)
	good := fixture[FormatRecords]

	unknown := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(unknown[8:], 99)
	table := New(Bytes(unknown))
	err := table.Load(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	_, err = table.Provinces()
	assert.ErrorIs(t, err, ErrNotLoaded)

	badMagic := append([]byte(nil), good...)
	copy(badMagic, "AWQTSHLX")
	_, err = Open(context.Background(), Bytes(badMagic))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Open(context.Background(), Bytes(good[:20]))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = Open(context.Background(), Bytes(nil))
	assert.ErrorIs(t, err, ErrFormat)

	truncated := good[:len(good)-1]
	table, err = Open(context.Background(), Bytes(truncated))
	if err == nil {
		// the header is intact; the damage shows up in the name table
		_, err = table.Regencies("PAPUA")
	}
	assert.ErrorIs(t, err, ErrFormat)
}

func TestTable_ConcurrentLoad(t *testing.T) {
	fixtureOnce.Do(loadFixture)

	var fetches atomic.Int32
	release := make(chan struct{})
	table := New(SourceFunc(func(ctx context.Context) ([]byte, error) {
		fetches.Add(1)
		<-release
		return fixture[FormatPacked], nil
	}))

	const n = 16
	var started, wg sync.WaitGroup
	errs := make([]error, n)
	started.Add(n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			started.Done()
			errs[i] = table.Load(context.Background())
		}(i)
	}
	started.Wait()
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fetches.Load())

	provinces, err := table.Provinces()
	require.NoError(t, err)
	assert.Len(t, provinces, 34)

	require.NoError(t, table.Load(context.Background()))
	assert.Equal(t, int32(1), fetches.Load())
}

func TestTable_LoadRetry(t *testing.T) {
	fixtureOnce.Do(loadFixture)

	errOffline := errors.New("offline")
	var fetches atomic.Int32
	table := New(SourceFunc(func(ctx context.Context) ([]byte, error) {
		if fetches.Add(1) == 1 {
			return nil, errOffline
		}
		return fixture[FormatRecords], nil
	}))

	assert.ErrorIs(t, table.Load(context.Background()), errOffline)
	_, err := table.Provinces()
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, table.Load(context.Background()))
	_, err = table.Provinces()
	assert.NoError(t, err)
}

func TestTable_LoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	table := New(Bytes([]byte("AWQTSHLT")))
	assert.ErrorIs(t, table.Load(ctx), context.Canceled)
}

func TestTable_VerifyMetadata(t *testing.T) {
	table := openFixture(t, FormatRecords)
	require.NoError(t, table.VerifyMetadata(fixtureMeta))

	for name, meta := range map[string]string{
		"garbage":   "not metadata",
		"timestamp": "1\nACEH:KAB. ACEH BARAT",
		"short":     "1700000000000\nACEH:KAB. ACEH BARAT",
	} {
		assert.ErrorIs(t, table.VerifyMetadata([]byte(meta)), ErrFormat, name)
	}

	bin, meta, err := Encode(smallDataset())
	require.NoError(t, err)
	small, err := Open(context.Background(), Bytes(bin))
	require.NoError(t, err)
	require.NoError(t, small.VerifyMetadata(meta))
	assert.ErrorIs(t, small.VerifyMetadata([]byte("1700000000000\nBALI:KAB. BADUNG\nACEH:KAB. ACEH BARAT\tKOTA SABANG")), ErrFormat)
	assert.ErrorIs(t, small.VerifyMetadata([]byte("1700000000000\nACEH:KOTA SABANG\tKAB. ACEH BARAT\nBALI:KAB. BADUNG")), ErrFormat)
}

func BenchmarkTable_Times(b *testing.B) {
	table := openFixture(b, FormatRecords)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := table.Times("ACEH", "KOTA SUBULUSSALAM", 12, 31); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTable_TimesPacked(b *testing.B) {
	table := openFixture(b, FormatPacked)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := table.Times("ACEH", "KOTA SUBULUSSALAM", 12, 31); err != nil {
			b.Fatal(err)
		}
	}
}

func TestTable_ReorderedIndex(t *testing.T) {
	ds := &Dataset{Timestamp: testTimestamp}
	seed := 0
	for _, name := range []string{"ACEH", "SUMATERA UTARA", "SUMATERA BARAT", "RIAU", "JAMBI"} {
		p := Province{Name: name}
		for j := 1; j <= 2; j++ {
			p.Regencies = append(p.Regencies, Regency{
				Name:      fmt.Sprintf("KAB. %s %d", name, j),
				Schedules: []ScheduleEntry{testDay(seed, 1, 1), testDay(seed, 1, 2)},
			})
			seed++
		}
		ds.Provinces = append(ds.Provinces, p)
	}
	bin, _, err := Encode(ds)
	require.NoError(t, err)

	// The province name index follows the 31-byte header; swap entries 1 and 3.
	entry := func(i int) []byte { return bin[31+2*i : 33+2*i] }
	one, three := append([]byte(nil), entry(1)...), append([]byte(nil), entry(3)...)
	copy(entry(1), three)
	copy(entry(3), one)

	table, err := Open(context.Background(), Bytes(bin))
	require.NoError(t, err)

	provinces, err := table.Provinces()
	require.NoError(t, err)
	assert.Equal(t, []string{"ACEH", "RIAU", "SUMATERA BARAT", "SUMATERA UTARA", "JAMBI"}, provinces)

	regencies, err := table.Regencies("RIAU")
	require.NoError(t, err)
	assert.Equal(t, []string{"KAB. RIAU 1", "KAB. RIAU 2"}, regencies)
}
