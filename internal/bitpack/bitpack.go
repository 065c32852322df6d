// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitpack converts between small fixed-width integers and the
// byte-aligned words they are stored in.
//
// A day of prayer times is 8 (hour, minute) pairs.  Both hours (0-23) and
// minutes (0-59) fit in 6 bits, so the 16 values of a day are stored as
// contiguous 6-bit fields in 96 bits, i.e. exactly six 16-bit words:
//
//	word 0: f0 bits 0-5, f1 bits 6-11, low 4 bits of f2 in 12-15
//	word 1: high 2 bits of f2 in 0-1, f3 bits 2-7, f4 bits 8-13, low 2 bits of f5 in 14-15
//	word 2: high 4 bits of f5 in 0-3, f6 bits 4-9, f7 bits 10-15
//	words 3-5 repeat the pattern for f8 through f15
//
// Field k occupies bits 6k through 6k+5 of the little-endian concatenation
// of the words.  Fields 2, 5, 10 and 13 straddle a word boundary.
package bitpack

import (
	"errors"
	"fmt"
)

const (
	// FieldBits is the width of one packed time component.
	FieldBits = 6
	// MaxField is the largest value a packed field can hold.
	MaxField = (1 << FieldBits) - 1

	// DailyValues is the number of 6-bit fields in a packed day.
	DailyValues = 16
	// DailyWords is the number of 16-bit words a packed day occupies.
	DailyWords = DailyValues * FieldBits / 16

	maxByte  = (1 << 8) - 1
	wordBits = 16
)

// ErrRange is returned when an input does not fit in its declared bit width.
var ErrRange = errors.New("value out of range")

// JoinBytes combines two 8-bit quantities into one little-endian 16-bit
// word: low | high<<8.
func JoinBytes(low, high int) (uint16, error) {
	if low < 0 || low > maxByte {
		return 0, fmt.Errorf("low byte %d: %w", low, ErrRange)
	}
	if high < 0 || high > maxByte {
		return 0, fmt.Errorf("high byte %d: %w", high, ErrRange)
	}
	return uint16(low) | uint16(high)<<8, nil
}

// SplitWord is the inverse of JoinBytes.
func SplitWord(w uint16) (low, high uint8) {
	return uint8(w & 0xff), uint8(w >> 8)
}

// PackDailyTimes packs 16 values of at most 6 bits each into six words.
// Every value is checked before anything is packed: a 7th bit would
// silently bleed into the neighbouring field.
func PackDailyTimes(values [DailyValues]uint8) (words [DailyWords]uint16, err error) {
	for k, v := range values {
		if v > MaxField {
			return words, fmt.Errorf("field %d is %d (max %d): %w", k, v, MaxField, ErrRange)
		}
	}

	for k, v := range values {
		bit := k * FieldBits
		word, off := bit/wordBits, bit%wordBits
		words[word] |= uint16(v) << off
		if off+FieldBits > wordBits {
			// the high bits of this field spill into the next word
			words[word+1] |= uint16(v) >> (wordBits - off)
		}
	}
	return words, nil
}

// UnpackDailyTimes extracts the 16 6-bit fields packed by PackDailyTimes.
func UnpackDailyTimes(words [DailyWords]uint16) (values [DailyValues]uint8) {
	for k := range values {
		bit := k * FieldBits
		word, off := bit/wordBits, bit%wordBits
		v := words[word] >> off
		if off+FieldBits > wordBits {
			v |= words[word+1] << (wordBits - off)
		}
		values[k] = uint8(v & MaxField)
	}
	return values
}
