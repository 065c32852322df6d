// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build unix

package jadwalsholat

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type mmapSource string

// File is a Source that maps the file at path read-only into memory.  A
// loaded Table keeps the mapping for the life of the process.
func File(path string) Source {
	return mmapSource(path)
}

func (path mmapSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(string(path))
	if err != nil {
		return nil, fmt.Errorf("os.Open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		// mmap rejects zero-length mappings; let the decoder report it
		return []byte{}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("%s: file too large to map (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("unix.Mmap: %w", err)
	}
	// lookups jump around the schedule table
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("unix.Madvise: %w", err)
	}
	return data, nil
}

func (mmapSource) Release(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	return nil
}
