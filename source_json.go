// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"
)

// SourceRecord is one scraped prayer time.  Its label is implied by its
// position among the records of the same day.
type SourceRecord struct {
	Month  int `json:"month"`
	Date   int `json:"date"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type SourceRegency struct {
	RegencyName string         `json:"regencyName"`
	Schedules   []SourceRecord `json:"schedules"`
}

type SourceProvince struct {
	ProvinceName string          `json:"provinceName"`
	Regencies    []SourceRegency `json:"regencies"`
}

// SourceDataset is the dataset as scraped, before normalization.
type SourceDataset struct {
	// RetrievedTime is in milliseconds since the epoch.
	RetrievedTime int64            `json:"retrievedTime"`
	Provinces     []SourceProvince `json:"provinces"`
}

// ReadSourceJSON decodes a scraped dataset from r and normalizes it.
func ReadSourceJSON(r io.Reader, opts ...Option) (*Dataset, error) {
	var src SourceDataset
	if err := json.NewDecoder(r).Decode(&src); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}
	return src.Normalize(opts...)
}

// Normalize turns the scraped records into a Dataset.  Records on dates
// that don't exist (like February 30th) are dropped with a warning; the
// rest are sorted and grouped into days, each of which must have exactly
// one record per label.  The result is not otherwise validated.
func (src *SourceDataset) Normalize(opts ...Option) (*Dataset, error) {
	o := newOptions(opts)

	ds := &Dataset{
		Timestamp: time.UnixMilli(src.RetrievedTime).UTC(),
		Provinces: make([]Province, 0, len(src.Provinces)),
	}
	for _, sp := range src.Provinces {
		p := Province{
			Name:      sp.ProvinceName,
			Regencies: make([]Regency, 0, len(sp.Regencies)),
		}
		for _, sr := range sp.Regencies {
			schedules, err := normalizeRecords(sr.Schedules, o.logger.With("province", sp.ProvinceName, "regency", sr.RegencyName))
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", sp.ProvinceName, sr.RegencyName, err)
			}
			p.Regencies = append(p.Regencies, Regency{Name: sr.RegencyName, Schedules: schedules})
		}
		ds.Provinces = append(ds.Provinces, p)
	}
	return ds, nil
}

// daysIn is the number of days of month in a leap year.
func daysIn(month int) int {
	return time.Date(2024, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isCalendarDay(month, date int) bool {
	return month >= 1 && month <= 12 && date >= 1 && date <= daysIn(month)
}

func normalizeRecords(records []SourceRecord, logger *slog.Logger) ([]ScheduleEntry, error) {
	kept := make([]SourceRecord, 0, len(records))
	for _, rec := range records {
		if !isCalendarDay(rec.Month, rec.Date) {
			logger.Warn("dropping record on impossible date", "month", rec.Month, "date", rec.Date)
			continue
		}
		kept = append(kept, rec)
	}
	slices.SortFunc(kept, func(a, b SourceRecord) int {
		if c := cmp.Compare(a.Month, b.Month); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Hour, b.Hour); c != 0 {
			return c
		}
		return cmp.Compare(a.Minute, b.Minute)
	})

	var entries []ScheduleEntry
	for len(kept) > 0 {
		n := 1
		for n < len(kept) && kept[n].Month == kept[0].Month && kept[n].Date == kept[0].Date {
			n++
		}
		if n != NumLabels {
			return nil, fmt.Errorf("%02d-%02d has %d times, want %d: %w", kept[0].Month, kept[0].Date, n, NumLabels, ErrValidation)
		}
		e := ScheduleEntry{
			Month: kept[0].Month,
			Date:  kept[0].Date,
			Times: make([]PrayerTime, NumLabels),
		}
		for k, rec := range kept[:n] {
			e.Times[k] = PrayerTime{Label: Label(k), Hour: rec.Hour, Minute: rec.Minute}
		}
		entries = append(entries, e)
		kept = kept[n:]
	}
	return entries, nil
}
