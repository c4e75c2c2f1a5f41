// Package report rolls observation ranges up into per-person and per-subject
// statistics. Stats are derived on every query and never persisted.
package report

import (
	"context"
	"math"
	"sort"
	"time"

	"registro/attendance/internal/model"
)

// Store is the read slice of the record store the engine consumes.
type Store[S model.Status] interface {
	Fetch(ctx context.Context, subjectID string, from, to time.Time) ([]model.Observation[S], error)
}

type Engine[S model.Status] struct {
	store Store[S]
	now   func() time.Time
}

func New[S model.Status](store Store[S]) *Engine[S] {
	return &Engine[S]{store: store, now: time.Now}
}

func NewWithClock[S model.Status](store Store[S], now func() time.Time) *Engine[S] {
	return &Engine[S]{store: store, now: now}
}

// DayStats partitions one day's observations into the two percentage buckets.
type DayStats struct {
	Present    int
	Absent     int
	Percentage float64
}

// PersonStats is one person's completion over a range. The denominator is the
// count of days that person actually has a record, so an unrecorded day never
// penalizes them.
type PersonStats struct {
	PersonID    string
	DaysCounted int
	DaysPresent int
	Completion  float64
}

// RangeStats aggregates a subject over a date range.
type RangeStats struct {
	From          time.Time
	To            time.Time
	RecordedDates []time.Time
	Present       int
	Absent        int
	Percentage    float64
	Persons       []PersonStats
}

// Day computes single-day statistics for a subject.
func (e *Engine[S]) Day(ctx context.Context, subjectID string, date time.Time) (DayStats, error) {
	day := model.Day(date)
	rows, err := e.store.Fetch(ctx, subjectID, day, day)
	if err != nil {
		return DayStats{}, err
	}
	return DayOf(rows), nil
}

// DayOf is the pure counterpart of Day for observations already in hand.
func DayOf[S model.Status](observations []model.Observation[S]) DayStats {
	var stats DayStats
	for _, obs := range observations {
		if obs.Status.PresentEquivalent() {
			stats.Present++
		} else {
			stats.Absent++
		}
	}
	stats.Percentage = percentage(stats.Present, stats.Present+stats.Absent)
	return stats
}

// Range computes multi-day statistics for a subject over the query's window.
// The subject-level denominator is enrolled × distinct recorded dates, so
// dates nobody recorded do not drag the percentage down.
func (e *Engine[S]) Range(ctx context.Context, subjectID string, query model.ReportQuery, enrolled int) (RangeStats, error) {
	from, to, err := Bounds(query, e.now())
	if err != nil {
		return RangeStats{}, err
	}
	rows, err := e.store.Fetch(ctx, subjectID, from, to)
	if err != nil {
		return RangeStats{}, err
	}

	dates := make(map[time.Time]struct{})
	perPerson := make(map[string]*PersonStats)
	totalPresent := 0
	for _, obs := range rows {
		dates[model.Day(obs.Date)] = struct{}{}
		stats := perPerson[obs.PersonID]
		if stats == nil {
			stats = &PersonStats{PersonID: obs.PersonID}
			perPerson[obs.PersonID] = stats
		}
		stats.DaysCounted++
		if obs.Status.PresentEquivalent() {
			stats.DaysPresent++
			totalPresent++
		}
	}

	result := RangeStats{
		From:          from,
		To:            to,
		RecordedDates: sortedDates(dates),
		Present:       totalPresent,
		Absent:        len(rows) - totalPresent,
		Percentage:    percentage(totalPresent, enrolled*len(dates)),
		Persons:       make([]PersonStats, 0, len(perPerson)),
	}
	for _, stats := range perPerson {
		stats.Completion = percentage(stats.DaysPresent, stats.DaysCounted)
		result.Persons = append(result.Persons, *stats)
	}
	sort.Slice(result.Persons, func(i, j int) bool {
		return result.Persons[i].PersonID < result.Persons[j].PersonID
	})
	return result, nil
}

// Bounds resolves a query to a concrete inclusive [from, to] window. Weeks
// span 7 days, bimesters 2 months, semesters 6 months; every window is
// clamped so it never reaches past today.
func Bounds(query model.ReportQuery, now time.Time) (time.Time, time.Time, error) {
	from := model.Day(query.Start)
	today := model.Day(now)
	if from.After(today) {
		return time.Time{}, time.Time{}, model.ErrInvalidDate
	}
	var to time.Time
	switch query.Range {
	case model.RangeDay:
		to = from
	case model.RangeWeek:
		to = from.AddDate(0, 0, 6)
	case model.RangeBimester:
		to = from.AddDate(0, 2, -1)
	case model.RangeSemester:
		to = from.AddDate(0, 6, -1)
	case model.RangeCustom:
		if query.End.IsZero() {
			return time.Time{}, time.Time{}, model.ErrInvalidDate
		}
		to = model.Day(query.End)
		if to.Before(from) {
			return time.Time{}, time.Time{}, model.ErrInvalidDate
		}
	default:
		return time.Time{}, time.Time{}, model.ErrInvalidDate
	}
	if to.After(today) {
		to = today
	}
	return from, to, nil
}

// Weekdays lists every Monday–Friday date between from and to inclusive; a
// bimester table's columns are built from this axis.
func Weekdays(from, to time.Time) []time.Time {
	var days []time.Time
	for day := model.Day(from); !day.After(model.Day(to)); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		days = append(days, day)
	}
	return days
}

// percentage returns part over whole as a percent rounded to one decimal,
// defined as 0 when the whole is empty.
func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

func sortedDates(set map[time.Time]struct{}) []time.Time {
	dates := make([]time.Time, 0, len(set))
	for date := range set {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
