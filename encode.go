// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"fmt"

	"github.com/awqot/jadwalsholat/internal/datafile"
	"github.com/awqot/jadwalsholat/internal/metadata"
)

// Encode serializes ds into a binary table and its metadata text
// companion.  The whole dataset is validated before anything is
// serialized; failures wrap ErrValidation.
func Encode(ds *Dataset, opts ...Option) (bin, meta []byte, err error) {
	o := newOptions(opts)

	contents, err := ds.contents(o.version)
	if err != nil {
		return nil, nil, err
	}

	meta, err = metadata.Marshal(&metadata.Metadata{
		Timestamp: int64(contents.Timestamp),
		Provinces: contents.Provinces,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	bin, err = datafile.Marshal(contents)
	if err != nil {
		return nil, nil, fmt.Errorf("datafile.Marshal: %w", err)
	}

	o.logger.Debug("encoded prayer time table",
		"version", o.version,
		"provinces", len(contents.Provinces),
		"regencies", len(contents.Schedules),
		"bytes", len(bin))

	return bin, meta, nil
}
