// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package datafile contains the on-disk layout of a prayer time table:
// a fixed header, two small per-province indices, a flat table of
// fixed-width schedule records and a table of province and regency names.
//
// A datafile looks like:
//
//	┌──────────────────────────┐
//	│ file header (31 bytes)   │
//	├──────────────────────────┤
//	│ province name index      │ u16 × provinces, relative to the name table
//	├──────────────────────────┤
//	│ province schedule index  │ u16 × provinces, flat index of 1st regency
//	├──────────────────────────┤
//	│ schedule table           │ regencies × schedules fixed-width records,
//	│                          │ regency-major
//	│                          │
//	│                          │
//	├──────────────────────────┤
//	│ name table               │ variable length
//	└──────────────────────────┘
//
// The header is:
//
//	 0    1    2    3    4    5    6    7
//	+----+----+----+----+----+----+----+----+
//	| A  | W  | Q  | T  | S  | H  | L  | T  |
//	+----+----+----+----+----+----+----+----+
//	| version | timestamp (ms)               ...
//	+----+----+----+----+----+----+----+----+
//	...       |prov| regency | schedule|names...
//	+----+----+----+----+----+----+----+----+
//	...offset (absolute)          |
//	+----+----+----+----+----+----+
//
// Version 1 records are 4 bytes, one per prayer time, sorted by
// (month, date, hour, minute):
//
//	+-------+------+------+--------+
//	| month | date | hour | minute |
//	+-------+------+------+--------+
//
// Labels are not stored: the k-th record of a (month, date) run is the k-th
// canonical label, so every run must be exactly 8 records long.
//
// Version 2 records are 14 bytes, one per day: the (month, date) pair joined
// into a u16, followed by the 8 (hour, minute) pairs packed into six u16
// words as 6-bit fields (see package bitpack).
//
// Each name table entry is:
//
//	| len u8 | province name | count u8 | (len u8 | regency name) × count |
//
// All integers are little-endian.
package datafile
