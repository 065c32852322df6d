// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Source supplies the bytes of a table.  The returned buffer must not be
// modified afterwards: a loaded Table reads from it for the rest of its
// life.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// releaser is implemented by sources whose buffers hold resources that
// should be given back if the Table rejects them.
type releaser interface {
	Release(data []byte) error
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

type bytesSource []byte

func (b bytesSource) Fetch(ctx context.Context) ([]byte, error) {
	return b, ctx.Err()
}

// Bytes is a Source for a table already in memory.
func Bytes(data []byte) Source {
	return bytesSource(data)
}

type fileReaderSource string

func (path fileReaderSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}
	return data, nil
}

// FileReader is a Source that reads the whole file at path into memory.
func FileReader(path string) Source {
	return fileReaderSource(path)
}

type urlSource struct {
	url    string
	client *http.Client
}

// URL is a Source that downloads the table from u with client, or with
// http.DefaultClient if client is nil.  Cancelling the ctx passed to
// Fetch aborts the request.
func URL(u string, client *http.Client) Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &urlSource{url: u, client: client}
}

func (s *urlSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", s.url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", s.url, err)
	}
	return data, nil
}
