// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package metadata reads and writes the text companion of a datafile: the
// retrieval timestamp and the province and regency names, for consumers
// that want the lists without the schedule table.
//
// The format is UTF-8, one record per line:
//
//	1700000000000
//	ACEH:KAB. ACEH BARAT\tKAB. ACEH BESAR\t...
//	BALI:KAB. BADUNG\t...
//
// Line order matches the province index order of the datafile.
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/awqot/jadwalsholat/internal/datafile"
)

const (
	provinceSep = ':'
	regencySep  = '\t'
	lineSep     = '\n'
)

var (
	// ErrSyntax is returned by Parse for malformed metadata.
	ErrSyntax = errors.New("malformed metadata")
	// ErrName is returned by Marshal for names the format can't represent.
	ErrName = errors.New("name not representable in metadata")
)

// Metadata is the parsed text index.
type Metadata struct {
	// Timestamp is in milliseconds since the epoch.
	Timestamp int64
	Provinces []datafile.Province
}

func checkName(name, forbidden string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrName)
	}
	if i := strings.IndexAny(name, forbidden); i >= 0 {
		return fmt.Errorf("%q contains %q: %w", name, name[i], ErrName)
	}
	return nil
}

// Marshal encodes m.
func Marshal(m *Metadata) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatInt(m.Timestamp, 10))
	for _, p := range m.Provinces {
		if err := checkName(p.Name, ":\t\n"); err != nil {
			return nil, fmt.Errorf("province: %w", err)
		}
		buf.WriteByte(lineSep)
		buf.WriteString(p.Name)
		buf.WriteByte(provinceSep)
		for j, r := range p.Regencies {
			if err := checkName(r, "\t\n"); err != nil {
				return nil, fmt.Errorf("province %q regency: %w", p.Name, err)
			}
			if j > 0 {
				buf.WriteByte(regencySep)
			}
			buf.WriteString(r)
		}
	}
	return buf.Bytes(), nil
}

// Parse decodes metadata produced by Marshal.  A single trailing newline
// is tolerated.
func Parse(data []byte) (*Metadata, error) {
	data = bytes.TrimSuffix(data, []byte{lineSep})
	if len(data) == 0 {
		return nil, fmt.Errorf("empty metadata: %w", ErrSyntax)
	}

	lines := bytes.Split(data, []byte{lineSep})
	ts, err := strconv.ParseInt(string(bytes.TrimSpace(lines[0])), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("timestamp line %q: %w", lines[0], ErrSyntax)
	}

	m := &Metadata{
		Timestamp: ts,
		Provinces: make([]datafile.Province, 0, len(lines)-1),
	}
	for n, line := range lines[1:] {
		province, regencies, ok := bytes.Cut(line, []byte{provinceSep})
		if !ok || len(province) == 0 {
			return nil, fmt.Errorf("line %d: missing province: %w", n+2, ErrSyntax)
		}
		p := datafile.Province{Name: string(province)}
		if len(regencies) > 0 {
			for _, r := range bytes.Split(regencies, []byte{regencySep}) {
				p.Regencies = append(p.Regencies, string(r))
			}
		}
		m.Provinces = append(m.Provinces, p)
	}
	return m, nil
}
