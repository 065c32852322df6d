// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !unix

package jadwalsholat

// File is a Source for the file at path.  Without mmap support the file
// is read into memory.
func File(path string) Source {
	return FileReader(path)
}
