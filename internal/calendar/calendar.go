// Package calendar provides the date navigation pieces: month bounds for the
// marked-dates index and the day cursor used when stepping back through past
// dates. The cursor has two states, today and a past date; forward navigation
// never crosses today.
package calendar

import (
	"time"

	"registro/attendance/internal/model"
)

// MonthBounds returns the first and last day of a month, the window the
// marked-dates index is computed over.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

type Cursor struct {
	today   time.Time
	current time.Time
}

func NewCursor(now time.Time) *Cursor {
	today := model.Day(now)
	return &Cursor{today: today, current: today}
}

func (c *Cursor) Current() time.Time {
	return c.current
}

func (c *Cursor) OnToday() bool {
	return c.current.Equal(c.today)
}

// Back steps one day into the past.
func (c *Cursor) Back() time.Time {
	c.current = c.current.AddDate(0, 0, -1)
	return c.current
}

// Forward steps one day toward today. Stepping past today is a silent no-op;
// the cursor stays on today.
func (c *Cursor) Forward() time.Time {
	if c.OnToday() {
		return c.current
	}
	next := c.current.AddDate(0, 0, 1)
	if next.After(c.today) {
		next = c.today
	}
	c.current = next
	return c.current
}

// Pick jumps to an arbitrary date, typically from a calendar widget. Future
// dates are rejected with ErrInvalidDate and leave the cursor unchanged.
func (c *Cursor) Pick(date time.Time) error {
	day := model.Day(date)
	if day.After(c.today) {
		return model.ErrInvalidDate
	}
	c.current = day
	return nil
}

// ReturnToToday resets the cursor, bringing the navigation scope back to the
// current month.
func (c *Cursor) ReturnToToday() time.Time {
	c.current = c.today
	return c.current
}

// MonthScope is the (year, month) the marked-dates index should cover for the
// cursor's position.
func (c *Cursor) MonthScope() (int, time.Month) {
	return c.current.Year(), c.current.Month()
}
