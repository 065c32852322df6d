// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"
)

var daysInMonth = [...]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// testYear returns a leap year of days whose times depend on seed so that
// every regency gets different data.
func testYear(seed int) []Day {
	var days []Day
	n := 0
	for m, count := range daysInMonth {
		for d := 1; d <= count; d++ {
			day := Day{Month: uint8(m + 1), Date: uint8(d)}
			base := 4*60 + (seed*7+n)%45
			for k := range day.Times {
				mins := base + k*110
				day.Times[k] = Clock{Hour: uint8(mins / 60), Minute: uint8(mins % 60)}
			}
			days = append(days, day)
			n++
		}
	}
	return days
}

func testContents(version uint16, provinces, regencies int) *Contents {
	c := &Contents{
		Version:   version,
		Timestamp: 1700000000000,
	}
	flat := 0
	for i := 0; i < provinces; i++ {
		p := Province{Name: fmt.Sprintf("PROVINSI %d", i)}
		for j := 0; j < regencies+i%3; j++ {
			p.Regencies = append(p.Regencies, fmt.Sprintf("KAB. %d-%d", i, j))
			c.Schedules = append(c.Schedules, testYear(flat))
			flat++
		}
		c.Provinces = append(c.Provinces, p)
	}
	return c
}
