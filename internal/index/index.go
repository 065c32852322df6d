// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package index maps province and regency names to their positions in a
// datafile.  It is built once, by scanning the name table, and is
// read-only afterwards.
package index

import (
	"fmt"
	"math/bits"

	"github.com/dgryski/go-farm"

	"github.com/awqot/jadwalsholat/internal/datafile"
	"github.com/awqot/jadwalsholat/internal/unsafestring"
)

// Location addresses one regency's schedules.
type Location struct {
	Province int
	Regency  int
	// Flat is the regency's position in the schedule table.
	Flat int
}

// Source is the part of a datafile.Reader the index is built from.
type Source interface {
	NumProvinces() int
	NumRegencies() int
	Province(i int) (datafile.Province, error)
	FirstRegency(i int) (int, error)
}

var _ Source = (*datafile.Reader)(nil)

type province struct {
	name      string
	regencies []string
	first     int
}

// Index is an immutable open-addressed hash table over province and
// regency names.  Slots hold 1-based positions (0 is empty); a hash hit is
// only reported after the stored name is compared against the query.
type Index struct {
	provinces     []province
	provinceSlots []uint16
	provinceMask  uint64

	locations    []Location
	regencySlots []uint32
	regencyMask  uint64
}

// nextPow2 returns a power of two with room for n entries at a load
// factor of at most 1/2.
func nextPow2(n int) int {
	if n < 1 {
		n = 1
	}
	return 1 << (64 - bits.LeadingZeros64(uint64(2*n-1)))
}

func provinceHash(name []byte) uint64 {
	return farm.Hash64WithSeed(name, 0)
}

// regency names repeat across provinces ("KOTA ..."), so the province is
// mixed into the seed
func regencyHash(province int, name []byte) uint64 {
	return farm.Hash64WithSeed(name, uint64(province)+1)
}

// Build scans every province of src.  Duplicate names and inconsistent
// schedule indices wrap datafile.ErrFormat.
func Build(src Source) (*Index, error) {
	numProvinces := src.NumProvinces()
	numRegencies := src.NumRegencies()

	provinceLen := nextPow2(numProvinces)
	regencyLen := nextPow2(numRegencies)
	idx := &Index{
		provinces:     make([]province, 0, numProvinces),
		provinceSlots: make([]uint16, provinceLen),
		provinceMask:  uint64(provinceLen - 1),
		locations:     make([]Location, 0, numRegencies),
		regencySlots:  make([]uint32, regencyLen),
		regencyMask:   uint64(regencyLen - 1),
	}

	for i := 0; i < numProvinces; i++ {
		p, err := src.Province(i)
		if err != nil {
			return nil, fmt.Errorf("Province(%d): %w", i, err)
		}
		first, err := src.FirstRegency(i)
		if err != nil {
			return nil, fmt.Errorf("FirstRegency(%d): %w", i, err)
		}
		if first != len(idx.locations) {
			return nil, fmt.Errorf("province %q starts at regency %d, expected %d: %w", p.Name, first, len(idx.locations), datafile.ErrFormat)
		}
		if first+len(p.Regencies) > numRegencies {
			return nil, fmt.Errorf("province %q has regencies past %d: %w", p.Name, numRegencies, datafile.ErrFormat)
		}
		if _, ok := idx.Province(p.Name); ok {
			return nil, fmt.Errorf("duplicate province %q: %w", p.Name, datafile.ErrFormat)
		}
		idx.insertProvince(p.Name, len(idx.provinces))
		idx.provinces = append(idx.provinces, province{
			name:      p.Name,
			regencies: p.Regencies,
			first:     first,
		})

		for j, r := range p.Regencies {
			if _, ok := idx.Locate(p.Name, r); ok {
				return nil, fmt.Errorf("duplicate regency %q in %q: %w", r, p.Name, datafile.ErrFormat)
			}
			idx.insertRegency(i, r, len(idx.locations))
			idx.locations = append(idx.locations, Location{
				Province: i,
				Regency:  j,
				Flat:     first + j,
			})
		}
	}

	if len(idx.locations) != numRegencies {
		return nil, fmt.Errorf("name table lists %d regencies, header says %d: %w", len(idx.locations), numRegencies, datafile.ErrFormat)
	}

	return idx, nil
}

func (idx *Index) insertProvince(name string, i int) {
	n := provinceHash(unsafestring.ToBytes(name)) & idx.provinceMask
	for idx.provinceSlots[n] != 0 {
		n = (n + 1) & idx.provinceMask
	}
	idx.provinceSlots[n] = uint16(i + 1)
}

func (idx *Index) insertRegency(province int, name string, loc int) {
	n := regencyHash(province, unsafestring.ToBytes(name)) & idx.regencyMask
	for idx.regencySlots[n] != 0 {
		n = (n + 1) & idx.regencyMask
	}
	idx.regencySlots[n] = uint32(loc + 1)
}

// Len is the number of provinces.
func (idx *Index) Len() int {
	return len(idx.provinces)
}

// Province returns the index of the province called name.
func (idx *Index) Province(name string) (int, bool) {
	n := provinceHash(unsafestring.ToBytes(name)) & idx.provinceMask
	for {
		slot := idx.provinceSlots[n]
		if slot == 0 {
			return 0, false
		}
		i := int(slot) - 1
		if idx.provinces[i].name == name {
			return i, true
		}
		n = (n + 1) & idx.provinceMask
	}
}

// Provinces returns every province name in index order.
func (idx *Index) Provinces() []string {
	names := make([]string, len(idx.provinces))
	for i, p := range idx.provinces {
		names[i] = p.name
	}
	return names
}

// Regencies returns the regency names of province i in index order.
func (idx *Index) Regencies(i int) []string {
	if i < 0 || i >= len(idx.provinces) {
		return nil
	}
	return append([]string(nil), idx.provinces[i].regencies...)
}

// Locate resolves a (province, regency) name pair.
func (idx *Index) Locate(provinceName, regencyName string) (Location, bool) {
	p, ok := idx.Province(provinceName)
	if !ok {
		return Location{}, false
	}
	n := regencyHash(p, unsafestring.ToBytes(regencyName)) & idx.regencyMask
	for {
		slot := idx.regencySlots[n]
		if slot == 0 {
			return Location{}, false
		}
		loc := idx.locations[slot-1]
		if loc.Province == p && idx.provinces[p].regencies[loc.Regency] == regencyName {
			return loc, true
		}
		n = (n + 1) & idx.regencyMask
	}
}
