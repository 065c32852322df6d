// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"fmt"
	"time"
)

var testProvinces = []string{
	"ACEH", "SUMATERA UTARA", "SUMATERA BARAT", "RIAU", "JAMBI",
	"SUMATERA SELATAN", "BENGKULU", "LAMPUNG", "KEP. BANGKA BELITUNG", "KEP. RIAU",
	"DKI JAKARTA", "JAWA BARAT", "JAWA TENGAH", "DI YOGYAKARTA", "JAWA TIMUR",
	"BANTEN", "BALI", "NUSA TENGGARA BARAT", "NUSA TENGGARA TIMUR", "KALIMANTAN BARAT",
	"KALIMANTAN TENGAH", "KALIMANTAN SELATAN", "KALIMANTAN TIMUR", "KALIMANTAN UTARA", "SULAWESI UTARA",
	"SULAWESI TENGAH", "SULAWESI SELATAN", "SULAWESI TENGGARA", "GORONTALO", "SULAWESI BARAT",
	"MALUKU", "MALUKU UTARA", "PAPUA BARAT", "PAPUA",
}

var acehRegencies = []string{
	"KAB. ACEH BARAT", "KAB. ACEH BARAT DAYA", "KAB. ACEH BESAR", "KAB. ACEH JAYA",
	"KAB. ACEH SELATAN", "KAB. ACEH SINGKIL", "KAB. ACEH TAMIANG", "KAB. ACEH TENGAH",
	"KAB. ACEH TENGGARA", "KAB. ACEH TIMUR", "KAB. ACEH UTARA", "KAB. BENER MERIAH",
	"KAB. BIREUEN", "KAB. GAYO LUES", "KAB. NAGAN RAYA", "KAB. PIDIE",
	"KAB. PIDIE JAYA", "KAB. SIMEULUE", "KOTA BANDA ACEH", "KOTA LANGSA",
	"KOTA LHOKSEUMAWE", "KOTA SABANG", "KOTA SUBULUSSALAM",
}

var testTimestamp = time.UnixMilli(1700000000000).UTC()

// testDay returns a plausible day of prayer times.  Times ascend in
// label order.
func testDay(seed, month, date int) ScheduleEntry {
	m := (seed*7 + month*31 + date) % 40
	hours := [NumLabels]int{4, 4, 5, 6, 11, 15, 17, 19}
	minutes := [NumLabels]int{m, m + 10, (m + 20) % 60, m, (m + 5) % 60, m + 15, (m + 9) % 60, m + 12}
	e := ScheduleEntry{Month: month, Date: date, Times: make([]PrayerTime, NumLabels)}
	for k := range e.Times {
		e.Times[k] = PrayerTime{Label: Label(k), Hour: hours[k], Minute: minutes[k]}
	}
	return e
}

// testYear returns every day of a leap year.
func testYear(seed int) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, 366)
	for month := 1; month <= 12; month++ {
		for date := 1; date <= daysIn(month); date++ {
			entries = append(entries, testDay(seed, month, date))
		}
	}
	return entries
}

// testDataset returns a nationwide dataset: 34 provinces, ACEH with its
// 23 regencies and every other province with 2 or 3.
func testDataset() *Dataset {
	ds := &Dataset{Timestamp: testTimestamp}
	seed := 0
	for i, name := range testProvinces {
		p := Province{Name: name}
		var regencies []string
		if name == "ACEH" {
			regencies = acehRegencies
		} else {
			for j := 0; j < 2+i%2; j++ {
				regencies = append(regencies, fmt.Sprintf("KAB. %s %d", name, j+1))
			}
		}
		for _, r := range regencies {
			p.Regencies = append(p.Regencies, Regency{Name: r, Schedules: testYear(seed)})
			seed++
		}
		ds.Provinces = append(ds.Provinces, p)
	}
	return ds
}

// smallDataset has two provinces and three days.
func smallDataset() *Dataset {
	days := func(seed int) []ScheduleEntry {
		return []ScheduleEntry{testDay(seed, 1, 1), testDay(seed, 1, 2), testDay(seed, 2, 29)}
	}
	return &Dataset{
		Timestamp: testTimestamp,
		Provinces: []Province{
			{Name: "ACEH", Regencies: []Regency{
				{Name: "KAB. ACEH BARAT", Schedules: days(0)},
				{Name: "KOTA SABANG", Schedules: days(1)},
			}},
			{Name: "BALI", Regencies: []Regency{
				{Name: "KAB. BADUNG", Schedules: days(2)},
			}},
		},
	}
}
