// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/awqot/jadwalsholat/internal/datafile"
	"github.com/awqot/jadwalsholat/internal/index"
	"github.com/awqot/jadwalsholat/internal/metadata"
)

// snapshot is the immutable state of a loaded Table.
type snapshot struct {
	r   *datafile.Reader
	idx *index.Index
}

// Table answers prayer time queries against an encoded table.  It starts
// out unloaded; queries fail with ErrNotLoaded until Load succeeds.  A
// loaded Table is safe for concurrent use.
type Table struct {
	src    Source
	logger *slog.Logger

	group singleflight.Group
	state atomic.Pointer[snapshot]
}

// New returns an unloaded Table reading from src.
func New(src Source, opts ...Option) *Table {
	o := newOptions(opts)
	return &Table{
		src:    src,
		logger: o.logger,
	}
}

// Open returns a Table reading from src that has been loaded.
func Open(ctx context.Context, src Source, opts ...Option) (*Table, error) {
	t := New(src, opts...)
	if err := t.Load(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Load fetches and checks the table and builds its lookup index.
// Concurrent calls share a single fetch, which runs under the ctx of the
// call that started it: cancelling that ctx aborts the fetch and fails
// every call sharing it.  Any other call returns early when its own ctx
// is done.  Loading an already loaded Table does nothing.  A failed load
// leaves the Table unloaded.
func (t *Table) Load(ctx context.Context) error {
	if t.state.Load() != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ch := t.group.DoChan("load", func() (interface{}, error) {
		if t.state.Load() != nil {
			return nil, nil
		}
		s, err := t.load(ctx)
		if err != nil {
			return nil, err
		}
		t.state.Store(s)
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Table) load(ctx context.Context) (*snapshot, error) {
	start := time.Now()
	data, err := t.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("Source.Fetch: %w", err)
	}

	release := func() {
		if rel, ok := t.src.(releaser); ok {
			if err := rel.Release(data); err != nil {
				t.logger.Warn("releasing rejected table", "err", err)
			}
		}
	}

	r, err := datafile.NewReader(data)
	if err != nil {
		release()
		return nil, fmt.Errorf("datafile.NewReader: %w", err)
	}
	idx, err := index.Build(r)
	if err != nil {
		release()
		return nil, fmt.Errorf("index.Build: %w", err)
	}

	t.logger.Info("loaded prayer time table",
		"version", r.Version(),
		"provinces", r.NumProvinces(),
		"regencies", r.NumRegencies(),
		"days", r.DaysPerRegency(),
		"duration", time.Since(start))

	return &snapshot{r: r, idx: idx}, nil
}

func (t *Table) loaded() (*snapshot, error) {
	s := t.state.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s, nil
}

// DataTimestamp is when the data was retrieved.
func (t *Table) DataTimestamp() (time.Time, error) {
	s, err := t.loaded()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(s.r.Timestamp())).UTC(), nil
}

// FormatVersion is the format version of the loaded table.
func (t *Table) FormatVersion() (uint16, error) {
	s, err := t.loaded()
	if err != nil {
		return 0, err
	}
	return s.r.Version(), nil
}

// DaysPerRegency is the number of days stored for every regency.
func (t *Table) DaysPerRegency() (int, error) {
	s, err := t.loaded()
	if err != nil {
		return 0, err
	}
	return s.r.DaysPerRegency(), nil
}

// Provinces returns every province name in index order.
func (t *Table) Provinces() ([]string, error) {
	s, err := t.loaded()
	if err != nil {
		return nil, err
	}
	return s.idx.Provinces(), nil
}

// Regencies returns the regency names of province in index order.
func (t *Table) Regencies(province string) ([]string, error) {
	s, err := t.loaded()
	if err != nil {
		return nil, err
	}
	i, ok := s.idx.Province(province)
	if !ok {
		return nil, fmt.Errorf("province %q: %w", province, ErrNotFound)
	}
	regencies := s.idx.Regencies(i)
	if regencies == nil {
		regencies = []string{}
	}
	return regencies, nil
}

func (t *Table) locate(province, regency string) (*snapshot, index.Location, error) {
	s, err := t.loaded()
	if err != nil {
		return nil, index.Location{}, err
	}
	loc, ok := s.idx.Locate(province, regency)
	if !ok {
		if _, ok := s.idx.Province(province); !ok {
			return nil, index.Location{}, fmt.Errorf("province %q: %w", province, ErrNotFound)
		}
		return nil, index.Location{}, fmt.Errorf("regency %q in %q: %w", regency, province, ErrNotFound)
	}
	return s, loc, nil
}

// Schedules returns every day of prayer times of a regency, in calendar
// order.
func (t *Table) Schedules(province, regency string) ([]ScheduleEntry, error) {
	s, loc, err := t.locate(province, regency)
	if err != nil {
		return nil, err
	}
	days, err := s.r.Days(loc.Flat)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", province, regency, err)
	}
	entries := make([]ScheduleEntry, len(days))
	for i := range days {
		entries[i] = entryFromDay(&days[i])
	}
	return entries, nil
}

// Times returns the prayer times of a regency on one day, in canonical
// label order.
func (t *Table) Times(province, regency string, month, date int) ([]PrayerTime, error) {
	s, loc, err := t.locate(province, regency)
	if err != nil {
		return nil, err
	}
	if month < 1 || month > 12 || date < 1 || date > 31 {
		return nil, fmt.Errorf("%s/%s has no day %02d-%02d: %w", province, regency, month, date, ErrNotFound)
	}
	day, ok, err := s.r.FindDay(loc.Flat, uint8(month), uint8(date))
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", province, regency, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s/%s has no day %02d-%02d: %w", province, regency, month, date, ErrNotFound)
	}
	return timesFromDay(&day), nil
}

// VerifyMetadata checks that meta is the metadata companion of the loaded
// table.  Mismatches wrap ErrFormat.
func (t *Table) VerifyMetadata(meta []byte) error {
	s, err := t.loaded()
	if err != nil {
		return err
	}
	m, err := metadata.Parse(meta)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if uint64(m.Timestamp) != s.r.Timestamp() {
		return fmt.Errorf("metadata timestamp %d, table has %d: %w", m.Timestamp, s.r.Timestamp(), ErrFormat)
	}
	if len(m.Provinces) != s.idx.Len() {
		return fmt.Errorf("metadata has %d provinces, table has %d: %w", len(m.Provinces), s.idx.Len(), ErrFormat)
	}
	for i, p := range m.Provinces {
		j, ok := s.idx.Province(p.Name)
		if !ok || j != i {
			return fmt.Errorf("metadata province %d is %q, not in table at that index: %w", i, p.Name, ErrFormat)
		}
		if !slices.Equal(p.Regencies, s.idx.Regencies(i)) {
			return fmt.Errorf("metadata regencies of %q differ from table: %w", p.Name, ErrFormat)
		}
	}
	return nil
}
