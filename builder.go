// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var errBuilderFinalized = errors.New("builder already finalized")

// MetadataPath returns where the metadata companion of the table at
// dataPath lives.
func MetadataPath(dataPath string) string {
	return dataPath + ".metadata"
}

// Builder accumulates a dataset one regency at a time and writes it to
// disk as a table plus its metadata companion.
type Builder struct {
	resultPath string
	logger     *slog.Logger
	opts       []Option

	ds        Dataset
	provinces map[string]int
	regencies stringSet
	finalized bool
}

// NewBuilder creates a Builder that writes the table to dataFilePath.
// Nothing touches the disk until Finalize.
func NewBuilder(dataFilePath string, opts ...Option) (*Builder, error) {
	o := newOptions(opts)
	dataFilePath, err := filepath.Abs(dataFilePath)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	if fi, err := os.Stat(filepath.Dir(dataFilePath)); err != nil {
		return nil, fmt.Errorf("os.Stat: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", filepath.Dir(dataFilePath))
	}
	return &Builder{
		resultPath: dataFilePath,
		logger:     o.logger,
		opts:       opts,
		provinces:  make(map[string]int),
		regencies:  make(stringSet),
	}, nil
}

// SetTimestamp sets when the data was retrieved.
func (b *Builder) SetTimestamp(t time.Time) {
	b.ds.Timestamp = t
}

// Put adds the schedules of a regency.  Provinces are indexed in the
// order they are first seen, and regencies in the order they are put.
// Most invariants are only checked by Finalize.
func (b *Builder) Put(province, regency string, schedules []ScheduleEntry) error {
	if b.finalized {
		return errBuilderFinalized
	}
	key := province + "\x00" + regency
	if b.regencies.Contains(key) {
		return fmt.Errorf("duplicate regency %q in %q: %w", regency, province, ErrValidation)
	}
	b.regencies.Add(key)

	i, ok := b.provinces[province]
	if !ok {
		i = len(b.ds.Provinces)
		b.provinces[province] = i
		b.ds.Provinces = append(b.ds.Provinces, Province{Name: province})
	}
	p := &b.ds.Provinces[i]
	p.Regencies = append(p.Regencies, Regency{Name: regency, Schedules: schedules})
	return nil
}

// PutDataset puts every regency of ds and takes its timestamp.
func (b *Builder) PutDataset(ds *Dataset) error {
	b.SetTimestamp(ds.Timestamp)
	for _, p := range ds.Provinces {
		for _, r := range p.Regencies {
			if err := b.Put(p.Name, r.Name, r.Schedules); err != nil {
				return err
			}
		}
	}
	return nil
}

// Finalize validates and encodes everything put so far, then atomically
// replaces the table and its metadata on disk.  Both files are read-only.
func (b *Builder) Finalize() error {
	if b.finalized {
		return errBuilderFinalized
	}
	b.finalized = true

	bin, meta, err := Encode(&b.ds, b.opts...)
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.resultPath)
	dataTmp, err := writeTemp(dir, "jadwalsholat-builder.*.data", bin)
	if err != nil {
		return err
	}
	metaTmp, err := writeTemp(dir, "jadwalsholat-builder.*.metadata", meta)
	if err != nil {
		_ = os.Remove(dataTmp)
		return err
	}

	// metadata is derived from the table and checked against it on load,
	// so it is replaced first
	if err := os.Rename(metaTmp, MetadataPath(b.resultPath)); err != nil {
		_ = os.Remove(metaTmp)
		_ = os.Remove(dataTmp)
		return fmt.Errorf("os.Rename: %w", err)
	}
	if err := os.Rename(dataTmp, b.resultPath); err != nil {
		_ = os.Remove(dataTmp)
		b.logger.Warn("metadata replaced but table was not; they no longer match",
			"path", b.resultPath,
			"err", err)
		return fmt.Errorf("os.Rename: %w", err)
	}

	b.logger.Info("wrote prayer time table",
		"path", b.resultPath,
		"provinces", len(b.ds.Provinces),
		"regencies", len(b.regencies),
		"bytes", len(bin))

	// we're done with these -- nil them so they can be GC'd earlier
	b.ds = Dataset{}
	b.provinces = nil
	return nil
}

// writeTemp writes data to a new read-only temp file in dir and returns
// its name.
func writeTemp(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	name := f.Name()
	fail := func(err error) (string, error) {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}

	if n, err := f.Write(data); err != nil {
		return fail(fmt.Errorf("f.Write: %w", err))
	} else if n != len(data) {
		return fail(fmt.Errorf("f.Write: short write of %d (wanted %d)", n, len(data)))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("f.Sync: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("f.Close: %w", err)
	}
	// make the file read-only
	if err := os.Chmod(name, 0444); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("os.Chmod(0444): %w", err)
	}
	return name, nil
}
