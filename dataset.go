// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package jadwalsholat

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/awqot/jadwalsholat/internal/datafile"
)

// Label names one of the daily prayer times.
type Label uint8

// The labels, in canonical (chronological) order.
const (
	Imsya Label = iota
	Subuh
	Terbit
	Duha
	Dzuhur
	Ashar
	Magrib
	Isya
)

// NumLabels is the number of prayer times in a day.
const NumLabels = datafile.TimesPerDay

var labelNames = [NumLabels]string{"Imsya", "Subuh", "Terbit", "Duha", "Dzuhur", "Ashar", "Magrib", "Isya"}

// Labels returns every label in canonical order.
func Labels() []Label {
	labels := make([]Label, NumLabels)
	for i := range labels {
		labels[i] = Label(i)
	}
	return labels
}

func (l Label) String() string {
	if int(l) < len(labelNames) {
		return labelNames[l]
	}
	return fmt.Sprintf("Label(%d)", uint8(l))
}

func (l Label) MarshalText() ([]byte, error) {
	if int(l) >= len(labelNames) {
		return nil, fmt.Errorf("unknown label %d", uint8(l))
	}
	return []byte(labelNames[l]), nil
}

func (l *Label) UnmarshalText(text []byte) error {
	for i, name := range labelNames {
		if name == string(text) {
			*l = Label(i)
			return nil
		}
	}
	return fmt.Errorf("unknown label %q", text)
}

// PrayerTime is one labelled time of day.
type PrayerTime struct {
	Label  Label `json:"label"`
	Hour   int   `json:"hour" validate:"min=0,max=23"`
	Minute int   `json:"minute" validate:"min=0,max=59"`
}

// ScheduleEntry is one calendar day of prayer times.
type ScheduleEntry struct {
	Month int          `json:"month" validate:"min=1,max=12"`
	Date  int          `json:"date" validate:"min=1,max=31"`
	Times []PrayerTime `json:"times" validate:"len=8,dive"`
}

// Regency is a regency (kabupaten) or city (kota) and its schedules.
type Regency struct {
	Name      string          `json:"name" validate:"required"`
	Schedules []ScheduleEntry `json:"schedules" validate:"dive"`
}

// Province is a province and its regencies, in index order.
type Province struct {
	Name      string    `json:"name" validate:"required"`
	Regencies []Regency `json:"regencies" validate:"max=255,dive"`
}

// Dataset is a whole nationwide table of prayer times.
type Dataset struct {
	// Timestamp is when the data was retrieved.  It is stored in whole
	// milliseconds.
	Timestamp time.Time  `json:"timestamp"`
	Provinces []Province `json:"provinces" validate:"min=1,max=255,dive"`
}

var validate = validator.New()

// Validate checks every invariant Encode relies on for the format version
// selected by opts (FormatRecords by default).  Failures wrap
// ErrValidation.
func (ds *Dataset) Validate(opts ...Option) error {
	_, err := ds.contents(newOptions(opts).version)
	return err
}

func (ds *Dataset) checkStructure() error {
	if err := validate.Struct(ds); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if ds.Timestamp.UnixMilli() < 0 {
		return fmt.Errorf("timestamp %s before the epoch: %w", ds.Timestamp, ErrValidation)
	}
	if ds.Timestamp.Nanosecond()%int(time.Millisecond) != 0 {
		return fmt.Errorf("timestamp %s is not a whole millisecond: %w", ds.Timestamp, ErrValidation)
	}

	provinces := make(stringSet, len(ds.Provinces))
	for _, p := range ds.Provinces {
		if provinces.Contains(p.Name) {
			return fmt.Errorf("duplicate province %q: %w", p.Name, ErrValidation)
		}
		provinces.Add(p.Name)

		regencies := make(stringSet, len(p.Regencies))
		for _, r := range p.Regencies {
			if regencies.Contains(r.Name) {
				return fmt.Errorf("duplicate regency %q in %q: %w", r.Name, p.Name, ErrValidation)
			}
			regencies.Add(r.Name)

			for _, e := range r.Schedules {
				for k, pt := range e.Times {
					if pt.Label != Label(k) {
						return fmt.Errorf("%s/%s %02d-%02d: time %d is labelled %s, want %s: %w",
							p.Name, r.Name, e.Month, e.Date, k, pt.Label, Label(k), ErrValidation)
					}
				}
			}
		}
	}
	return nil
}

// contents validates ds and converts it to its stored form.
func (ds *Dataset) contents(version uint16) (*datafile.Contents, error) {
	if err := ds.checkStructure(); err != nil {
		return nil, err
	}

	c := &datafile.Contents{
		Version:   version,
		Timestamp: uint64(ds.Timestamp.UnixMilli()),
		Provinces: make([]datafile.Province, 0, len(ds.Provinces)),
	}
	for _, p := range ds.Provinces {
		dp := datafile.Province{
			Name:      p.Name,
			Regencies: make([]string, 0, len(p.Regencies)),
		}
		for _, r := range p.Regencies {
			dp.Regencies = append(dp.Regencies, r.Name)
			days := make([]datafile.Day, len(r.Schedules))
			for i, e := range r.Schedules {
				days[i] = datafile.Day{Month: uint8(e.Month), Date: uint8(e.Date)}
				for k, pt := range e.Times {
					days[i].Times[k] = datafile.Clock{Hour: uint8(pt.Hour), Minute: uint8(pt.Minute)}
				}
			}
			c.Schedules = append(c.Schedules, days)
		}
		c.Provinces = append(c.Provinces, dp)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func entryFromDay(d *datafile.Day) ScheduleEntry {
	return ScheduleEntry{
		Month: int(d.Month),
		Date:  int(d.Date),
		Times: timesFromDay(d),
	}
}

func timesFromDay(d *datafile.Day) []PrayerTime {
	times := make([]PrayerTime, NumLabels)
	for k, t := range d.Times {
		times[k] = PrayerTime{
			Label:  Label(k),
			Hour:   int(t.Hour),
			Minute: int(t.Minute),
		}
	}
	return times
}
